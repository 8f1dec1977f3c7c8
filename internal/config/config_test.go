package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if c.Split != "train" {
		t.Errorf("Expected split train, got %s", c.Split)
	}
	if !reflect.DeepEqual(c.Classes, []int64{3}) {
		t.Errorf("Expected classes [3], got %v", c.Classes)
	}
	if len(c.ClassNames) != 12 {
		t.Errorf("Expected 12 class names, got %d", len(c.ClassNames))
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadConfigFormats(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "conf.yaml", "dataset_root: /data\nsplit: val\nclasses: [2, 4]\nheadless: true\n"},
		{"json", "conf.json", `{"dataset_root": "/data", "split": "val", "classes": [2, 4], "headless": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}

			c, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}

			if c.DatasetRoot != "/data" || c.Split != "val" || !c.Headless {
				t.Errorf("Unexpected config: %+v", c)
			}
			if !reflect.DeepEqual(c.Classes, []int64{2, 4}) {
				t.Errorf("Expected classes [2 4], got %v", c.Classes)
			}
			// untouched keys keep their defaults
			if c.SubsetDir != "custom_subset" {
				t.Errorf("Expected default subset dir, got %s", c.SubsetDir)
			}
			if c.ImagesDir() != filepath.Join("/data", "val", "images") {
				t.Errorf("Unexpected images dir %s", c.ImagesDir())
			}
			if c.AnnotationsPath() != filepath.Join("/data", "custom_subset", AnnotationsFile) {
				t.Errorf("Unexpected annotations path %s", c.AnnotationsPath())
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestValidateUnknownClass(t *testing.T) {
	c := Default()
	c.Classes = []int64{3, 42}

	err := c.Validate()
	if !errors.Is(err, ErrUnknownClass) {
		t.Errorf("Expected ErrUnknownClass, got %v", err)
	}

	c.Classes = nil
	if err := c.Validate(); err == nil {
		t.Error("Expected error for empty class set")
	}
}

func TestParseClasses(t *testing.T) {
	got, err := ParseClasses("4, 3,,1")
	if err != nil {
		t.Fatalf("ParseClasses: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{1, 3, 4}) {
		t.Errorf("Expected [1 3 4], got %v", got)
	}

	if _, err := ParseClasses("3,x"); err == nil {
		t.Error("Expected error for non-numeric class")
	}
}
