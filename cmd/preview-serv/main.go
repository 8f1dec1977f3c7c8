package main

import (
	"errors"
	"flag"
	"os"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	http "github.com/valyala/fasthttp"

	"github.com/model-collapse/refcurate/internal/config"
	"github.com/model-collapse/refcurate/internal/preview"
)

func main() {
	cfg, err := config.Parse("preview-serv", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		log.Fatal(err)
	}

	s := &preview.Server{
		AnnotationsPath: cfg.AnnotationsPath(),
		RefExpPath:      cfg.RefExpPath(),
		ImagesDir:       cfg.SubsetImagesDir(),
		Log:             log.WithField("session", uuid.New().String()),
	}

	log.Infof("Serving %s on %s...", cfg.SubsetRoot(), cfg.Listen)
	if err := http.ListenAndServe(cfg.Listen, s.Handler()); err != nil {
		log.Fatal(err)
	}
}
