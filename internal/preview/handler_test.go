package preview

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	http "github.com/valyala/fasthttp"

	"github.com/model-collapse/refcurate/internal/coco"
	"github.com/model-collapse/refcurate/internal/refexp"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	fw, err := os.Create(filepath.Join(imagesDir, "a.png"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := png.Encode(fw, image.NewRGBA(image.Rect(0, 0, 64, 48))); err != nil {
		t.Fatalf("encode: %v", err)
	}
	fw.Close()

	store, _ := coco.OpenOrCreate(filepath.Join(dir, "custom_annotations.json"))
	store.MergeCategories([]int64{3}, map[int64]string{3: "military_truck"})
	store.AddImage("a.png", 64, 48, []coco.Object{
		{CategoryID: 3, BBox: [4]float64{4, 4, 20, 20}},
		{CategoryID: 3, BBox: [4]float64{30, 10, 20, 20}},
	})
	store.AddImage("gone.png", 10, 10, nil)
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	refs, _ := refexp.Open(filepath.Join(dir, "custom_refexps.json"))
	refs.AddSentence(1, 0, 3, "the truck on the right")
	if err := refs.Save(); err != nil {
		t.Fatalf("Save refs: %v", err)
	}

	logger := log.New()
	logger.SetOutput(io.Discard)

	return &Server{
		AnnotationsPath: store.Path(),
		RefExpPath:      refs.Path(),
		ImagesDir:       imagesDir,
		Log:             log.NewEntry(logger),
	}
}

func do(s *Server, uri string) *http.RequestCtx {
	var c http.RequestCtx
	c.Request.SetRequestURI(uri)
	s.Handler()(&c)
	return &c
}

func TestImageEndpoints(t *testing.T) {
	s := setupServer(t)

	for _, uri := range []string{"/image?id=0", "/image?id=0&box=true", "/annotation?id=1"} {
		t.Run(uri, func(t *testing.T) {
			c := do(s, uri)
			if c.Response.StatusCode() != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", c.Response.StatusCode(), c.Response.Body())
			}
			if ct := string(c.Response.Header.ContentType()); ct != "image/jpeg" {
				t.Errorf("Expected image/jpeg, got %s", ct)
			}

			img, err := jpeg.Decode(bytes.NewReader(c.Response.Body()))
			if err != nil {
				t.Fatalf("Body is not a JPEG: %v", err)
			}
			if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
				t.Errorf("Unexpected size %v", img.Bounds())
			}
		})
	}
}

func TestErrors(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		uri  string
		code int
	}{
		{"/image?id=9", http.StatusNotFound},
		{"/image?id=x", http.StatusBadRequest},
		{"/image", http.StatusBadRequest},
		{"/image?id=1", http.StatusNotFound},
		{"/annotation?id=5", http.StatusNotFound},
		{"/refs?ann=0", http.StatusNotFound},
		{"/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		if c := do(s, tt.uri); c.Response.StatusCode() != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.uri, tt.code, c.Response.StatusCode())
		}
	}
}

func TestRefsEndpoint(t *testing.T) {
	s := setupServer(t)

	c := do(s, "/refs?ann=1")
	if c.Response.StatusCode() != http.StatusOK {
		t.Fatalf("Expected 200, got %d", c.Response.StatusCode())
	}

	var r refexp.Ref
	if err := json.Unmarshal(c.Response.Body(), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.AnnID != 1 || len(r.Sentences) != 1 || r.Sentences[0].Sent != "the truck on the right" {
		t.Errorf("Unexpected ref %+v", r)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := setupServer(t)

	c := do(s, "/stats")
	if c.Response.StatusCode() != http.StatusOK {
		t.Fatalf("Expected 200, got %d", c.Response.StatusCode())
	}

	var st Stats
	if err := json.Unmarshal(c.Response.Body(), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if st.Images != 2 || st.Annotations != 2 || st.Refs != 1 || st.Sentences != 1 || st.MeanSentences != 1 {
		t.Errorf("Unexpected stats %+v", st)
	}
	if len(st.Categories) != 1 || st.Categories[0].Count != 2 || st.Categories[0].MeanArea != 400 {
		t.Errorf("Unexpected category stats %+v", st.Categories)
	}
}

func TestMissingStore(t *testing.T) {
	s := setupServer(t)
	s.AnnotationsPath = filepath.Join(t.TempDir(), "missing.json")

	if c := do(s, "/stats"); c.Response.StatusCode() != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", c.Response.StatusCode())
	}
}
