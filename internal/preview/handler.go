// Package preview serves read-only views of the curated subset over HTTP.
package preview

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	http "github.com/valyala/fasthttp"

	"github.com/model-collapse/refcurate/internal/coco"
	"github.com/model-collapse/refcurate/internal/refexp"
	"github.com/model-collapse/refcurate/internal/render"
)

type Server struct {
	AnnotationsPath string
	RefExpPath      string
	ImagesDir       string
	Log             *log.Entry
}

type Stats struct {
	coco.Summary
	Refs          int     `json:"refs"`
	Sentences     int     `json:"sentences"`
	MeanSentences float64 `json:"mean_sentences"`
}

// Handler routes requests. Both stores are reloaded on every request so that
// writes from a running annotator are visible.
func (s *Server) Handler() http.RequestHandler {
	return func(c *http.RequestCtx) {
		switch string(c.Path()) {
		case "/image":
			s.handleImage(c)
		case "/annotation":
			s.handleAnnotation(c)
		case "/refs":
			s.handleRefs(c)
		case "/stats":
			s.handleStats(c)
		default:
			c.Error("not found", http.StatusNotFound)
		}
	}
}

func (s *Server) loadStore(c *http.RequestCtx) (*coco.Store, bool) {
	store, err := coco.Open(s.AnnotationsPath)
	if err != nil {
		s.Log.WithError(err).Error("Failed to load annotations")
		c.Error("annotation store unavailable", http.StatusServiceUnavailable)
		return nil, false
	}

	return store, true
}

func queryID(c *http.RequestCtx, key string) (int64, bool) {
	id, err := c.QueryArgs().GetUint(key)
	if err != nil {
		c.Error("invalid "+key, http.StatusBadRequest)
		return 0, false
	}

	return int64(id), true
}

func (s *Server) handleImage(c *http.RequestCtx) {
	id, ok := queryID(c, "id")
	if !ok {
		return
	}
	store, ok := s.loadStore(c)
	if !ok {
		return
	}

	img, found := store.Image(id)
	if !found {
		c.Error("no such image", http.StatusNotFound)
		return
	}

	f := render.Frame{Title: img.FileName}
	if string(c.QueryArgs().Peek("box")) == "true" {
		f = render.Labelled(img.FileName, store.ImageAnnotations(id), store.CategoryName)
	}

	s.writeFrame(c, img.FileName, f)
}

func (s *Server) handleAnnotation(c *http.RequestCtx) {
	id, ok := queryID(c, "id")
	if !ok {
		return
	}
	store, ok := s.loadStore(c)
	if !ok {
		return
	}

	ann, found := store.Annotation(id)
	if !found {
		c.Error("no such annotation", http.StatusNotFound)
		return
	}
	img, found := store.Image(ann.ImgID)
	if !found {
		c.Error("no such image", http.StatusNotFound)
		return
	}

	f := render.HighlightFrame(img.FileName, ann, store.ImageAnnotations(ann.ImgID), store.CategoryName(ann.CategoryID))
	s.writeFrame(c, img.FileName, f)
}

func (s *Server) writeFrame(c *http.RequestCtx, fileName string, f render.Frame) {
	src, err := decodeFile(filepath.Join(s.ImagesDir, filepath.Base(fileName)))
	if err != nil {
		s.Log.WithFields(log.Fields{"file": fileName, "error": err}).Warn("Could not load image")
		c.Error("image file unavailable", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, render.Rasterize(src, f), &jpeg.Options{Quality: 90}); err != nil {
		s.Log.WithError(err).Error("Err [encode]")
		c.Error("encode failed", http.StatusInternalServerError)
		return
	}

	c.SetContentType("image/jpeg")
	c.Write(buf.Bytes())
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func (s *Server) handleRefs(c *http.RequestCtx) {
	id, ok := queryID(c, "ann")
	if !ok {
		return
	}

	refs, err := refexp.Open(s.RefExpPath)
	if err != nil {
		s.Log.WithError(err).Error("Failed to load refs")
		c.Error("expression store unavailable", http.StatusServiceUnavailable)
		return
	}

	r := refs.Find(id)
	if r == nil {
		c.Error("no ref for annotation", http.StatusNotFound)
		return
	}

	writeJSON(c, r)
}

func (s *Server) handleStats(c *http.RequestCtx) {
	store, ok := s.loadStore(c)
	if !ok {
		return
	}

	st := Stats{Summary: coco.Summarize(store.Dataset())}

	refs, err := refexp.Open(s.RefExpPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.Log.WithError(err).Warn("Failed to load refs for stats")
	}
	if refs != nil {
		st.Refs = refs.Len()
		st.Sentences = refs.SentenceCount()
		st.MeanSentences = refs.MeanSentences()
	}

	writeJSON(c, st)
}

func writeJSON(c *http.RequestCtx, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.Error("encode failed", http.StatusInternalServerError)
		return
	}

	c.SetContentType("application/json")
	c.Write(data)
}
