package refexp

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestOpenMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	hook := test.NewGlobal()
	defer log.StandardLogger().ReplaceHooks(make(log.LevelHooks))

	tests := []struct {
		name    string
		content string
		write   bool
		warn    bool
	}{
		{name: "missing"},
		{name: "empty-list", content: `[]`, write: true},
		{name: "object", content: `{"ref_id": 0}`, write: true, warn: true},
		{name: "garbage", content: `not json`, write: true, warn: true},
		{name: "null", content: `null`, write: true, warn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			path := filepath.Join(dir, tt.name+".json")
			if tt.write {
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}

			s, err := Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if s.Len() != 0 || s.SentenceCount() != 0 {
				t.Errorf("Expected empty store, got %d refs", s.Len())
			}

			warned := hook.LastEntry() != nil && hook.LastEntry().Level == log.WarnLevel
			if warned != tt.warn {
				t.Errorf("Expected warning=%v, got %v", tt.warn, warned)
			}
		})
	}
}

func TestAddSentenceAllocation(t *testing.T) {
	s, _ := Open(filepath.Join(t.TempDir(), "refs.json"))

	r, sid := s.AddSentence(7, 1, 3, "the truck on the left")
	if r.RefID != 0 || sid != 0 || r.AnnID != 7 || r.ImageID != 1 || r.CategoryID != 3 {
		t.Errorf("Unexpected first ref %+v sent %d", r, sid)
	}

	r2, sid := s.AddSentence(8, 1, 3, "the other truck")
	if r2.RefID != 1 || sid != 1 {
		t.Errorf("Unexpected second ref %d sent %d", r2.RefID, sid)
	}

	// appending to an existing ref keeps one ref per annotation
	r3, sid := s.AddSentence(7, 1, 3, "green truck")
	if r3 != r || sid != 2 || len(r.Sentences) != 2 {
		t.Errorf("Expected sentence 2 appended to ref 0, got ref %d sent %d", r3.RefID, sid)
	}

	if s.Len() != 2 || s.SentenceCount() != 3 {
		t.Errorf("Expected 2 refs / 3 sentences, got %d / %d", s.Len(), s.SentenceCount())
	}
	if got := s.MeanSentences(); got != 1.5 {
		t.Errorf("Expected mean 1.5, got %v", got)
	}
	if !s.Annotated(7) || s.Annotated(9) {
		t.Error("Unexpected Annotated result")
	}
}

func TestDeleteKeepsIDsMonotonic(t *testing.T) {
	s, _ := Open(filepath.Join(t.TempDir(), "refs.json"))
	s.AddSentence(1, 0, 3, "a")
	s.AddSentence(2, 0, 3, "b")

	if !s.DeleteByAnnotation(2) {
		t.Fatal("Expected ref for annotation 2 to be removed")
	}
	if s.DeleteByAnnotation(2) {
		t.Error("Second delete should report nothing removed")
	}

	r, sid := s.AddSentence(3, 0, 3, "c")
	if r.RefID != 2 || sid != 2 {
		t.Errorf("Expected ref 2 / sent 2 after delete, got %d / %d", r.RefID, sid)
	}
}

func TestSaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.json")
	s, _ := Open(path)
	s.AddSentence(4, 2, 3, "a truck")
	s.AddSentence(4, 2, 3, "a big truck")

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Saved file should be a JSON list: %v", err)
	}
	for _, key := range []string{"ref_id", "ann_id", "image_id", "category_id", "sentences"} {
		if _, ok := raw[0][key]; !ok {
			t.Errorf("Missing key %s in saved ref", key)
		}
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s2.Len() != 1 || s2.SentenceCount() != 2 {
		t.Errorf("Unexpected reopened store: %d refs, %d sentences", s2.Len(), s2.SentenceCount())
	}

	r, sid := s2.AddSentence(5, 2, 3, "x")
	if r.RefID != 1 || sid != 2 {
		t.Errorf("Counters not seeded from file: ref %d sent %d", r.RefID, sid)
	}
}

func TestEmptySaveIsList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refs.json")
	s, _ := Open(path)
	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Errorf("Expected empty list, got %q", data)
	}
}
