package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

var ErrUnknownClass = errors.New("target class has no name")

const (
	AnnotationsFile = "custom_annotations.json"
	RefExpFile      = "custom_refexps.json"
)

// DefaultClassNames is the vocabulary of the military object dataset.
var DefaultClassNames = map[int64]string{
	0:  "camouflage_soldier",
	1:  "weapon",
	2:  "military_tank",
	3:  "military_truck",
	4:  "military_vehicle",
	5:  "civilian",
	6:  "soldier",
	7:  "civilian_vehicle",
	8:  "military_artillery",
	9:  "trench",
	10: "military_aircraft",
	11: "military_warship",
}

type Config struct {
	DatasetRoot       string           `json:"dataset_root" yaml:"dataset_root"`
	Split             string           `json:"split" yaml:"split"`
	SubsetDir         string           `json:"subset_dir" yaml:"subset_dir"`
	Classes           []int64          `json:"classes" yaml:"classes"`
	ClassNames        map[int64]string `json:"class_names" yaml:"class_names"`
	Headless          bool             `json:"headless" yaml:"headless"`
	PreviewPath       string           `json:"preview_path" yaml:"preview_path"`
	Seed              int64            `json:"seed" yaml:"seed"`
	PruneOrphanImages bool             `json:"prune_orphan_images" yaml:"prune_orphan_images"`
	Listen            string           `json:"listen" yaml:"listen"`
	LogLevel          string           `json:"log_level" yaml:"log_level"`
}

func Default() *Config {
	names := make(map[int64]string, len(DefaultClassNames))
	for k, v := range DefaultClassNames {
		names[k] = v
	}

	return &Config{
		DatasetRoot: "./military tracking 2/military_object_dataset",
		Split:       "train",
		SubsetDir:   "custom_subset",
		Classes:     []int64{3},
		ClassNames:  names,
		Listen:      "0.0.0.0:8093",
		LogLevel:    "info",
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadConfig(path string) (c *Config, err error) {
	c = Default()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return
}

func (c *Config) Validate() error {
	if c.DatasetRoot == "" {
		return errors.New("dataset_root is empty")
	}
	if c.Split == "" {
		return errors.New("split is empty")
	}
	if len(c.Classes) == 0 {
		return errors.New("no target classes")
	}
	for _, id := range c.Classes {
		if _, ok := c.ClassNames[id]; !ok {
			return fmt.Errorf("class %d: %w", id, ErrUnknownClass)
		}
	}

	return nil
}

// ClassSet returns the target classes as a membership set.
func (c *Config) ClassSet() map[int64]bool {
	ret := make(map[int64]bool, len(c.Classes))
	for _, id := range c.Classes {
		ret[id] = true
	}

	return ret
}

func (c *Config) ImagesDir() string {
	return filepath.Join(c.DatasetRoot, c.Split, "images")
}

func (c *Config) LabelsDir() string {
	return filepath.Join(c.DatasetRoot, c.Split, "labels")
}

func (c *Config) SubsetRoot() string {
	return filepath.Join(c.DatasetRoot, c.SubsetDir)
}

func (c *Config) SubsetImagesDir() string {
	return filepath.Join(c.SubsetRoot(), "images")
}

func (c *Config) AnnotationsPath() string {
	return filepath.Join(c.SubsetRoot(), AnnotationsFile)
}

func (c *Config) RefExpPath() string {
	return filepath.Join(c.SubsetRoot(), RefExpFile)
}

func (c *Config) PreviewFile() string {
	if c.PreviewPath != "" {
		return c.PreviewPath
	}

	return filepath.Join(c.SubsetRoot(), "preview.png")
}

// ParseClasses parses a comma separated list of class ids, e.g. "3,4".
func ParseClasses(s string) (ret []int64, err error) {
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}

		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("class id %q: %w", f, err)
		}
		ret = append(ret, id)
	}

	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return
}
