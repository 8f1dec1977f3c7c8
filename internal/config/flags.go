package config

import (
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Parse builds the configuration for command name: the file named by -config
// is loaded first, then every flag given on the command line overrides it.
func Parse(name string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	var (
		configPath = fs.String("config", "", "Path to a YAML or JSON config file")
		root       = fs.String("root", "", "Dataset root directory")
		split      = fs.String("split", "", "Dataset split (train, val, test)")
		classes    = fs.String("classes", "", "Comma separated target class ids")
		headless   = fs.Bool("headless", false, "Write frames to a file instead of opening a window")
		preview    = fs.String("preview", "", "Frame output file in headless mode")
		seed       = fs.Int64("seed", 0, "Shuffle seed, 0 for time based")
		prune      = fs.Bool("prune-orphans", false, "Drop image records left without annotations")
		listen     = fs.String("listen", "", "Preview server listen address")
		logLevel   = fs.String("log-level", "", "Log level (debug, info, warn, error)")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c, err := LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			c.DatasetRoot = *root
		case "split":
			c.Split = *split
		case "classes":
			var ids []int64
			if ids, err = ParseClasses(*classes); err == nil {
				c.Classes = ids
			}
		case "headless":
			c.Headless = *headless
		case "preview":
			c.PreviewPath = *preview
		case "seed":
			c.Seed = *seed
		case "prune-orphans":
			c.PruneOrphanImages = *prune
		case "listen":
			c.Listen = *listen
		case "log-level":
			c.LogLevel = *logLevel
		}
	})
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return c, nil
}

// ConfigureLogging applies the configured level to the standard logrus
// logger.
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}

	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}
