package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/model-collapse/refcurate/internal/coco"
	"github.com/model-collapse/refcurate/internal/config"
	"github.com/model-collapse/refcurate/internal/cvui"
	"github.com/model-collapse/refcurate/internal/render"
	"github.com/model-collapse/refcurate/internal/scanner"
	"github.com/model-collapse/refcurate/internal/storage"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, flag.ErrHelp) {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Parse("select-subset", os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return err
	}

	entry := log.WithField("session", uuid.New().String())

	store, err := coco.OpenOrCreate(cfg.AnnotationsPath())
	if err != nil {
		return err
	}
	ds := store.Dataset()
	entry.Infof("Loaded annotation store with %d images and %d annotations", len(ds.Images), len(ds.Annotations))
	store.MergeCategories(cfg.Classes, cfg.ClassNames)

	out, err := storage.NewLocalStorage(cfg.SubsetImagesDir())
	if err != nil {
		return err
	}

	var viewer render.Viewer
	if cfg.Headless {
		viewer = render.NewFileViewer(cfg.PreviewFile(), bufio.NewReader(os.Stdin), os.Stdout)
	} else {
		viewer = cvui.NewWindow("Subset Selector")
	}
	defer viewer.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sc := &scanner.Scanner{
		Store:     store,
		Out:       out,
		Viewer:    viewer,
		ImagesDir: cfg.ImagesDir(),
		LabelsDir: cfg.LabelsDir(),
		Classes:   cfg.ClassSet(),
		Names:     cfg.ClassNames,
		Rand:      rand.New(rand.NewSource(seed)),
		Prompt:    os.Stdout,
		Log:       entry,
	}

	ctx, stop := config.InterruptContext(entry)
	defer stop()

	res, err := sc.Run(ctx)
	if err != nil {
		return err
	}

	entry.WithFields(log.Fields{
		"offered":   res.Offered,
		"saved":     res.Saved,
		"rejected":  res.Rejected,
		"dismissed": res.Dismissed,
	}).Info("Session finished")
	fmt.Printf("Done! Total saved images this session: %d\n", res.Saved)
	fmt.Printf("COCO annotations saved to: %s\n", store.Path())

	for _, c := range coco.Summarize(store.Dataset()).Categories {
		fmt.Printf("  %-20s %5d boxes  area mean %.1f std %.1f\n", c.Name, c.Count, c.MeanArea, c.StdArea)
	}

	return nil
}
