package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestParseOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	if err := os.WriteFile(path, []byte("dataset_root: /from-file\nsplit: val\nclasses: [1]\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Parse("test", []string{"-config", path, "-split", "test", "-classes", "3,4", "-headless"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if c.DatasetRoot != "/from-file" {
		t.Errorf("Unset flag should keep the file value, got %s", c.DatasetRoot)
	}
	if c.Split != "test" || !c.Headless {
		t.Errorf("Flags did not override: %+v", c)
	}
	if !reflect.DeepEqual(c.Classes, []int64{3, 4}) {
		t.Errorf("Expected classes [3 4], got %v", c.Classes)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	if _, err := Parse("test", []string{"-classes", "99"}); !errors.Is(err, ErrUnknownClass) {
		t.Errorf("Expected ErrUnknownClass, got %v", err)
	}
	if _, err := Parse("test", []string{"-classes", "a"}); err == nil {
		t.Error("Expected error for malformed classes")
	}
	if _, err := Parse("test", []string{"-bogus"}); err == nil {
		t.Error("Expected error for unknown flag")
	}
}

func TestConfigureLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	c := Default()
	c.LogLevel = "debug"
	if err := c.ConfigureLogging(); err != nil {
		t.Fatalf("ConfigureLogging: %v", err)
	}
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("Expected debug level, got %v", log.GetLevel())
	}

	c.LogLevel = "loud"
	if err := c.ConfigureLogging(); err == nil {
		t.Error("Expected error for unknown level")
	}
}
