package coco

import (
	"errors"
	"fmt"
	"os"

	"github.com/model-collapse/refcurate/internal/storage"
)

var ErrNotFound = errors.New("not found")

// Object is one box to record for an accepted image.
type Object struct {
	CategoryID int64
	BBox       [4]float64
}

// Store owns an annotation file. Ids are allocated from counters seeded at
// open time and never reused within the store's lifetime.
type Store struct {
	path      string
	ds        *Dataset
	files     map[string]bool
	nextImage int64
	nextAnn   int64
}

// Open loads the annotation file at path. It fails if the file is missing.
func Open(path string) (*Store, error) {
	ds, err := LoadDataset(path)
	if err != nil {
		return nil, fmt.Errorf("load annotations %s: %w", path, err)
	}

	return newStore(path, ds), nil
}

// OpenOrCreate loads the annotation file at path, or starts an empty store if
// it does not exist yet.
func OpenOrCreate(path string) (*Store, error) {
	s, err := Open(path)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	return newStore(path, &Dataset{}), nil
}

func newStore(path string, ds *Dataset) *Store {
	if ds.Images == nil {
		ds.Images = []ImageInfo{}
	}
	if ds.Annotations == nil {
		ds.Annotations = []Annotation{}
	}
	if ds.Categories == nil {
		ds.Categories = []Category{}
	}

	s := &Store{
		path:  path,
		ds:    ds,
		files: BuildFileNameIndex(ds.Images),
	}

	for _, img := range ds.Images {
		if img.ID >= s.nextImage {
			s.nextImage = img.ID + 1
		}
	}
	for _, a := range ds.Annotations {
		if a.ID >= s.nextAnn {
			s.nextAnn = a.ID + 1
		}
	}

	return s
}

func (s *Store) Path() string {
	return s.path
}

// Dataset exposes the underlying records. Callers must not mutate it.
func (s *Store) Dataset() *Dataset {
	return s.ds
}

func (s *Store) NextImageID() int64 {
	return s.nextImage
}

func (s *Store) NextAnnotationID() int64 {
	return s.nextAnn
}

// MergeCategories adds every id in ids that is not already a category, naming
// it from names. It returns the number of categories added.
func (s *Store) MergeCategories(ids []int64, names map[int64]string) (added int) {
	have := make(map[int64]bool, len(s.ds.Categories))
	for _, c := range s.ds.Categories {
		have[c.ID] = true
	}

	for _, id := range ids {
		if have[id] {
			continue
		}

		s.ds.Categories = append(s.ds.Categories, Category{ID: id, Name: names[id]})
		have[id] = true
		added++
	}

	return
}

func (s *Store) HasCategory(id int64) bool {
	for _, c := range s.ds.Categories {
		if c.ID == id {
			return true
		}
	}

	return false
}

// CategoryName returns the name of category id, or "unknown".
func (s *Store) CategoryName(id int64) string {
	for _, c := range s.ds.Categories {
		if c.ID == id {
			return c.Name
		}
	}

	return "unknown"
}

// HasFile reports whether an image with this file name is already recorded.
func (s *Store) HasFile(name string) bool {
	return s.files[name]
}

// AddImage records an accepted image and one annotation per object. Every
// object's category must already be in the store.
func (s *Store) AddImage(fileName string, width, height int, objs []Object) (imgID int64, annIDs []int64, err error) {
	for _, o := range objs {
		if !s.HasCategory(o.CategoryID) {
			return 0, nil, fmt.Errorf("category %d: %w", o.CategoryID, ErrNotFound)
		}
	}

	imgID = s.nextImage
	s.nextImage++

	s.ds.Images = append(s.ds.Images, ImageInfo{
		ID:       imgID,
		FileName: fileName,
		Width:    width,
		Height:   height,
	})
	s.files[fileName] = true

	for _, o := range objs {
		a := Annotation{
			ID:         s.nextAnn,
			ImgID:      imgID,
			CategoryID: o.CategoryID,
			BBox:       o.BBox,
			Area:       o.BBox[2] * o.BBox[3],
			IsCrowd:    0,
		}
		s.nextAnn++

		s.ds.Annotations = append(s.ds.Annotations, a)
		annIDs = append(annIDs, a.ID)
	}

	return
}

// Annotations returns a copy of the annotation list, safe to range over while
// the store is being mutated.
func (s *Store) Annotations() []Annotation {
	ret := make([]Annotation, len(s.ds.Annotations))
	copy(ret, s.ds.Annotations)
	return ret
}

func (s *Store) Annotation(id int64) (Annotation, bool) {
	for _, a := range s.ds.Annotations {
		if a.ID == id {
			return a, true
		}
	}

	return Annotation{}, false
}

// ImageAnnotations returns the live annotations of image imgID in stored order.
func (s *Store) ImageAnnotations(imgID int64) (ret []Annotation) {
	for _, a := range s.ds.Annotations {
		if a.ImgID == imgID {
			ret = append(ret, a)
		}
	}

	return
}

func (s *Store) Image(id int64) (ImageInfo, bool) {
	for _, img := range s.ds.Images {
		if img.ID == id {
			return img, true
		}
	}

	return ImageInfo{}, false
}

// DeleteAnnotation removes annotation id and returns it. The owning image
// record is left in place.
func (s *Store) DeleteAnnotation(id int64) (Annotation, error) {
	for i, a := range s.ds.Annotations {
		if a.ID == id {
			s.ds.Annotations = append(s.ds.Annotations[:i], s.ds.Annotations[i+1:]...)
			return a, nil
		}
	}

	return Annotation{}, fmt.Errorf("annotation %d: %w", id, ErrNotFound)
}

// DeleteImage removes image record id. Its annotations are not touched.
func (s *Store) DeleteImage(id int64) error {
	for i, img := range s.ds.Images {
		if img.ID == id {
			s.ds.Images = append(s.ds.Images[:i], s.ds.Images[i+1:]...)
			delete(s.files, img.FileName)
			return nil
		}
	}

	return fmt.Errorf("image %d: %w", id, ErrNotFound)
}

// Save rewrites the whole annotation file.
func (s *Store) Save() error {
	return storage.WriteJSON(s.path, s.ds)
}
