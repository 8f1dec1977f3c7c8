package coco

import (
	"encoding/json"
	"os"
)

type ImageInfo struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type Annotation struct {
	ID         int64      `json:"id"`
	ImgID      int64      `json:"image_id"`
	CategoryID int64      `json:"category_id"`
	BBox       [4]float64 `json:"bbox"`
	Area       float64    `json:"area"`
	IsCrowd    int        `json:"iscrowd"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Dataset struct {
	Images      []ImageInfo  `json:"images"`
	Annotations []Annotation `json:"annotations"`
	Categories  []Category   `json:"categories"`
}

func LoadDataset(path string) (ret *Dataset, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	ret = &Dataset{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, err
	}

	return
}

func BuildImageIndex(imgs []ImageInfo) (ret map[int64]ImageInfo) {
	ret = make(map[int64]ImageInfo, len(imgs))
	for _, img := range imgs {
		ret[img.ID] = img
	}

	return
}

func BuildFileNameIndex(imgs []ImageInfo) (ret map[string]bool) {
	ret = make(map[string]bool, len(imgs))
	for _, img := range imgs {
		ret[img.FileName] = true
	}

	return
}
