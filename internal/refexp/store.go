// Package refexp stores referring expressions: free-text sentences attached to
// single annotations of the annotation store.
package refexp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/model-collapse/refcurate/internal/storage"
	"gonum.org/v1/gonum/stat"
)

type Sentence struct {
	SentID int64  `json:"sent_id"`
	Sent   string `json:"sent"`
}

type Ref struct {
	RefID      int64      `json:"ref_id"`
	AnnID      int64      `json:"ann_id"`
	ImageID    int64      `json:"image_id"`
	CategoryID int64      `json:"category_id"`
	Sentences  []Sentence `json:"sentences"`
}

// Store holds at most one Ref per annotation. Sentence ids are global
// across all Refs.
type Store struct {
	path     string
	refs     []*Ref
	nextRef  int64
	nextSent int64
}

// Open loads the expression file at path. A missing file or one whose top
// level is not a list yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, refs: []*Ref{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read refs %s: %w", path, err)
	}

	var refs []*Ref
	if err := json.Unmarshal(data, &refs); err != nil {
		log.WithFields(log.Fields{"file": path, "error": err}).Warn("Existing ref file is not a list, reinitializing")
		return s, nil
	}
	if refs == nil {
		log.WithField("file", path).Warn("Existing ref file is not a list, reinitializing")
		return s, nil
	}

	for _, r := range refs {
		if r == nil {
			continue
		}
		if r.Sentences == nil {
			r.Sentences = []Sentence{}
		}
		s.refs = append(s.refs, r)
	}
	s.seed()

	return s, nil
}

func (s *Store) seed() {
	for _, r := range s.refs {
		if r.RefID >= s.nextRef {
			s.nextRef = r.RefID + 1
		}
		for _, sent := range r.Sentences {
			if sent.SentID >= s.nextSent {
				s.nextSent = sent.SentID + 1
			}
		}
	}
}

func (s *Store) Path() string {
	return s.path
}

// Refs returns the Refs in stored order. Callers must not mutate them.
func (s *Store) Refs() []*Ref {
	return s.refs
}

func (s *Store) Find(annID int64) *Ref {
	for _, r := range s.refs {
		if r.AnnID == annID {
			return r
		}
	}

	return nil
}

// Annotated reports whether annotation annID already has a sentence.
func (s *Store) Annotated(annID int64) bool {
	r := s.Find(annID)
	return r != nil && len(r.Sentences) > 0
}

// AddSentence appends text to the Ref of annotation annID, creating the Ref if
// there is none yet. It returns the Ref and the new sentence id.
func (s *Store) AddSentence(annID, imageID, categoryID int64, text string) (*Ref, int64) {
	sent := Sentence{SentID: s.nextSent, Sent: text}
	s.nextSent++

	if r := s.Find(annID); r != nil {
		r.Sentences = append(r.Sentences, sent)
		return r, sent.SentID
	}

	r := &Ref{
		RefID:      s.nextRef,
		AnnID:      annID,
		ImageID:    imageID,
		CategoryID: categoryID,
		Sentences:  []Sentence{sent},
	}
	s.nextRef++
	s.refs = append(s.refs, r)

	return r, sent.SentID
}

// DeleteByAnnotation removes the Ref bound to annID. It reports whether one
// existed.
func (s *Store) DeleteByAnnotation(annID int64) bool {
	for i, r := range s.refs {
		if r.AnnID == annID {
			s.refs = append(s.refs[:i], s.refs[i+1:]...)
			return true
		}
	}

	return false
}

func (s *Store) Len() int {
	return len(s.refs)
}

func (s *Store) SentenceCount() (n int) {
	for _, r := range s.refs {
		n += len(r.Sentences)
	}

	return
}

// MeanSentences is the average number of sentences per Ref, 0 when empty.
func (s *Store) MeanSentences() float64 {
	if len(s.refs) == 0 {
		return 0
	}

	xs := make([]float64, len(s.refs))
	for i, r := range s.refs {
		xs[i] = float64(len(r.Sentences))
	}

	return stat.Mean(xs, nil)
}

// Save rewrites the whole expression file.
func (s *Store) Save() error {
	return storage.WriteJSON(s.path, s.refs)
}
