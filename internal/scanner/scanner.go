// Package scanner offers labelled images containing target classes to an
// operator and records the accepted ones in the annotation store.
package scanner

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/model-collapse/refcurate/internal/coco"
	"github.com/model-collapse/refcurate/internal/render"
	"github.com/model-collapse/refcurate/internal/storage"
	"github.com/model-collapse/refcurate/internal/yolo"
)

type Decision int

const (
	// Dismiss is any key without a binding; the image is passed over.
	Dismiss Decision = iota
	Accept
	Reject
	Quit
)

func ParseKey(key int) Decision {
	switch key {
	case 'y', 'Y':
		return Accept
	case 'd', 'D':
		return Reject
	case render.KeyEsc, 'q', 'Q':
		return Quit
	}

	return Dismiss
}

type Scanner struct {
	Store     *coco.Store
	Out       *storage.LocalStorage
	Viewer    render.Viewer
	ImagesDir string
	LabelsDir string
	Classes   map[int64]bool
	Names     map[int64]string
	// Rand shuffles the candidates. Nil keeps directory order.
	Rand *rand.Rand
	// Prompt receives operator-facing progress lines.
	Prompt io.Writer
	Log    *log.Entry
}

type Result struct {
	Offered  int
	Saved    int
	Rejected int
	// Dismissed counts images passed over with an unbound key.
	Dismissed int
	Quit      bool
}

// Candidates lists the image files not yet in the store, shuffled.
func (s *Scanner) Candidates() (ret []string, err error) {
	lst, err := os.ReadDir(s.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}

	ret = make([]string, 0, len(lst))
	for _, f := range lst {
		if f.IsDir() {
			continue
		}
		ret = append(ret, f.Name())
	}

	if s.Rand != nil {
		s.Rand.Shuffle(len(ret), func(i, j int) { ret[i], ret[j] = ret[j], ret[i] })
	}

	return
}

// Run walks the candidates until they are exhausted, the operator quits or
// ctx is cancelled, then saves the store once.
func (s *Scanner) Run(ctx context.Context) (res Result, err error) {
	names, err := s.Candidates()
	if err != nil {
		return
	}

	fmt.Fprintln(s.Prompt, "Press Y to save image + annotation, D to skip, ESC/q to quit")

	for _, name := range names {
		if ctx.Err() != nil {
			s.Log.Info("Interrupted, stopping scan")
			break
		}

		if s.Store.HasFile(name) {
			continue
		}

		boxes, ok := s.targetBoxes(name)
		if !ok {
			continue
		}

		imgPath := filepath.Join(s.ImagesDir, name)
		size, err := s.Viewer.Open(imgPath)
		if err != nil {
			s.Log.WithFields(log.Fields{"file": name, "error": err}).Warn("Skipping undecodable image")
			continue
		}

		if err := s.Viewer.Show(render.Candidates(name, size, boxes, s.Names)); err != nil {
			return res, fmt.Errorf("show %s: %w", name, err)
		}
		res.Offered++

		key, err := s.Viewer.WaitKey()
		if err != nil {
			return res, fmt.Errorf("read key: %w", err)
		}

		switch ParseKey(key) {
		case Quit:
			res.Quit = true
		case Reject:
			res.Rejected++
			continue
		case Dismiss:
			res.Dismissed++
			continue
		}
		if res.Quit {
			break
		}

		if err := s.accept(imgPath, name, size.X, size.Y, boxes); err != nil {
			s.Log.WithFields(log.Fields{"file": name, "error": err}).Error("Failed to save image")
			continue
		}
		res.Saved++
		fmt.Fprintf(s.Prompt, "Saved %d images so far.\n", res.Saved)
	}

	if err = s.Store.Save(); err != nil {
		return res, fmt.Errorf("save annotations: %w", err)
	}

	return
}

// targetBoxes returns the boxes of the target classes for image name, false
// when the image has none or no label file.
func (s *Scanner) targetBoxes(name string) ([]yolo.Box, bool) {
	boxes, err := yolo.ReadFile(yolo.LabelPath(s.LabelsDir, name), s.Classes)
	if err != nil {
		if !os.IsNotExist(err) {
			s.Log.WithFields(log.Fields{"file": name, "error": err}).Warn("Skipping unreadable label file")
		}
		return nil, false
	}

	return boxes, len(boxes) > 0
}

func (s *Scanner) accept(src, name string, w, h int, boxes []yolo.Box) error {
	if err := s.Out.CopyIn(src, name); err != nil {
		return err
	}

	objs := make([]coco.Object, 0, len(boxes))
	for _, b := range boxes {
		objs = append(objs, coco.Object{CategoryID: b.Class, BBox: b.XYWH(w, h)})
	}

	imgID, annIDs, err := s.Store.AddImage(name, w, h, objs)
	if err != nil {
		return err
	}

	s.Log.WithFields(log.Fields{"file": name, "image_id": imgID, "annotations": len(annIDs)}).Debug("Image accepted")
	return nil
}
