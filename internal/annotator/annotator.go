// Package annotator collects referring expressions for the annotations of the
// curated subset, one operator-typed sentence at a time.
package annotator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/model-collapse/refcurate/internal/coco"
	"github.com/model-collapse/refcurate/internal/refexp"
	"github.com/model-collapse/refcurate/internal/render"
	"github.com/model-collapse/refcurate/internal/storage"
)

type Annotator struct {
	Store  *coco.Store
	Refs   *refexp.Store
	Images *storage.LocalStorage
	Viewer render.Viewer
	In     *bufio.Reader
	// Prompt receives the per-annotation prompt and progress lines.
	Prompt io.Writer
	// PruneOrphanImages drops an image record once its last annotation is
	// deleted.
	PruneOrphanImages bool
	Log               *log.Entry
}

type Result struct {
	Prompted  int
	Sentences int
	Deleted   int
	Quit      bool
}

// Run prompts for every annotation without a sentence, in stored order. The
// list is fixed when Run starts; deletions during the loop do not affect it.
func (a *Annotator) Run(ctx context.Context) (res Result, err error) {
	fmt.Fprintln(a.Prompt, "Instructions: type a referring expression for the highlighted object.")
	fmt.Fprintln(a.Prompt, "Commands: 's' = skip, 'delete' = remove annotation+image, 'q' = quit.")

	index := coco.BuildImageIndex(a.Store.Dataset().Images)

	for _, ann := range a.Store.Annotations() {
		if ctx.Err() != nil {
			a.Log.Info("Interrupted, stopping")
			break
		}

		if a.Refs.Annotated(ann.ID) {
			continue
		}

		cmd, ok, err := a.prompt(ann, index)
		if err != nil {
			return res, err
		}
		if !ok {
			continue
		}
		res.Prompted++

		switch cmd.Kind {
		case Skip:
			continue
		case Quit:
			res.Quit = true
		case Delete:
			if err := a.delete(ann); err != nil {
				return res, err
			}
			res.Deleted++
		case Text:
			r, sentID := a.Refs.AddSentence(ann.ID, ann.ImgID, ann.CategoryID, cmd.Text)
			a.Log.WithFields(log.Fields{"ann_id": ann.ID, "ref_id": r.RefID, "sent_id": sentID}).Debug("Sentence added")
			if err := a.save(); err != nil {
				return res, err
			}
			res.Sentences++
		}

		if res.Quit {
			break
		}
	}

	if err = a.save(); err != nil {
		return
	}

	fmt.Fprintf(a.Prompt, "\nDone. %d refs, %d total sentences saved to %s\n",
		a.Refs.Len(), a.Refs.SentenceCount(), a.Refs.Path())
	fmt.Fprintf(a.Prompt, "Updated COCO annotations saved to %s\n", a.Store.Path())

	return
}

// prompt shows ann and reads the operator's command. ok is false when the
// image could not be loaded and the annotation is skipped.
func (a *Annotator) prompt(ann coco.Annotation, index map[int64]coco.ImageInfo) (cmd Command, ok bool, err error) {
	img, found := index[ann.ImgID]
	if !found {
		a.Log.WithFields(log.Fields{"ann_id": ann.ID, "image_id": ann.ImgID}).Warn("Annotation references a missing image record")
		return
	}

	imgPath, err := a.Images.Path(img.FileName)
	if err != nil {
		a.Log.WithFields(log.Fields{"ann_id": ann.ID, "file": img.FileName, "error": err}).Warn("Skipping annotation")
		return cmd, false, nil
	}

	if _, err := a.Viewer.Open(imgPath); err != nil {
		a.Log.WithFields(log.Fields{"file": imgPath, "error": err}).Warn("Could not load image")
		return cmd, false, nil
	}

	name := a.Store.CategoryName(ann.CategoryID)
	frame := render.HighlightFrame(img.FileName, ann, a.Store.ImageAnnotations(ann.ImgID), name)
	if err = a.Viewer.Show(frame); err != nil {
		return cmd, false, fmt.Errorf("show annotation %d: %w", ann.ID, err)
	}

	fmt.Fprintf(a.Prompt, "Annotation %d (%s): ", ann.ID, name)
	line, err := a.In.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return cmd, false, fmt.Errorf("read expression: %w", err)
		}
		// end of input with nothing typed is a quit
		if strings.TrimSpace(line) == "" {
			return Command{Kind: Quit}, true, nil
		}
	}

	return ParseCommand(line), true, nil
}

// delete removes ann, its Ref and its image file, then persists both stores.
func (a *Annotator) delete(ann coco.Annotation) error {
	if _, err := a.Store.DeleteAnnotation(ann.ID); err != nil {
		return err
	}
	a.Refs.DeleteByAnnotation(ann.ID)

	entry := a.Log.WithField("ann_id", ann.ID)
	if img, ok := a.Store.Image(ann.ImgID); ok {
		removed, err := a.Images.DeleteFile(img.FileName)
		if err != nil {
			entry.WithError(err).Warn("Failed to delete image file")
		} else if removed {
			fmt.Fprintf(a.Prompt, "Deleted image file: %s\n", img.FileName)
		}

		if a.PruneOrphanImages && len(a.Store.ImageAnnotations(img.ID)) == 0 {
			if err := a.Store.DeleteImage(img.ID); err != nil {
				return err
			}
			entry.WithField("image_id", img.ID).Info("Pruned orphan image record")
		}
	}

	fmt.Fprintf(a.Prompt, "Deleted annotation %d\n", ann.ID)
	return a.save()
}

func (a *Annotator) save() error {
	if err := a.Refs.Save(); err != nil {
		return fmt.Errorf("save refs: %w", err)
	}
	if err := a.Store.Save(); err != nil {
		return fmt.Errorf("save annotations: %w", err)
	}

	return nil
}
