package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/model-collapse/refcurate/internal/annotator"
	"github.com/model-collapse/refcurate/internal/coco"
	"github.com/model-collapse/refcurate/internal/config"
	"github.com/model-collapse/refcurate/internal/cvui"
	"github.com/model-collapse/refcurate/internal/refexp"
	"github.com/model-collapse/refcurate/internal/render"
	"github.com/model-collapse/refcurate/internal/storage"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, flag.ErrHelp) {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Parse("write-refs", os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return err
	}

	entry := log.WithField("session", uuid.New().String())

	// requires a prior select-subset run
	store, err := coco.Open(cfg.AnnotationsPath())
	if err != nil {
		return err
	}

	refs, err := refexp.Open(cfg.RefExpPath())
	if err != nil {
		return err
	}
	entry.Infof("Loaded %d annotations and %d refs", len(store.Dataset().Annotations), refs.Len())

	images, err := storage.NewLocalStorage(cfg.SubsetImagesDir())
	if err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)

	var viewer render.Viewer
	if cfg.Headless {
		viewer = render.NewFileViewer(cfg.PreviewFile(), in, os.Stdout)
	} else {
		viewer = cvui.NewWindow("Referring Expression Creator")
	}
	defer viewer.Close()

	a := &annotator.Annotator{
		Store:             store,
		Refs:              refs,
		Images:            images,
		Viewer:            viewer,
		In:                in,
		Prompt:            os.Stdout,
		PruneOrphanImages: cfg.PruneOrphanImages,
		Log:               entry,
	}

	ctx, stop := config.InterruptContext(entry)
	defer stop()

	res, err := a.Run(ctx)
	if err != nil {
		return err
	}

	entry.WithFields(log.Fields{
		"prompted":  res.Prompted,
		"sentences": res.Sentences,
		"deleted":   res.Deleted,
	}).Info("Session finished")
	fmt.Printf("Mean sentences per ref: %.2f\n", refs.MeanSentences())

	return nil
}
