package coco

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type CategoryStats struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	MeanArea float64 `json:"mean_area"`
	StdArea  float64 `json:"std_area"`
	MinArea  float64 `json:"min_area"`
	MaxArea  float64 `json:"max_area"`
}

type Summary struct {
	Images      int             `json:"images"`
	Annotations int             `json:"annotations"`
	Categories  []CategoryStats `json:"categories"`
}

// Summarize computes per-category box counts and area statistics. Categories
// without annotations are reported with a zero count.
func Summarize(ds *Dataset) Summary {
	areas := make(map[int64][]float64)
	for _, a := range ds.Annotations {
		areas[a.CategoryID] = append(areas[a.CategoryID], a.Area)
	}

	ret := Summary{
		Images:      len(ds.Images),
		Annotations: len(ds.Annotations),
	}

	for _, c := range ds.Categories {
		cs := CategoryStats{ID: c.ID, Name: c.Name}

		if xs := areas[c.ID]; len(xs) > 0 {
			cs.Count = len(xs)
			cs.MinArea = floats.Min(xs)
			cs.MaxArea = floats.Max(xs)
			if len(xs) > 1 {
				cs.MeanArea, cs.StdArea = stat.MeanStdDev(xs, nil)
			} else {
				cs.MeanArea = xs[0]
			}
		}

		ret.Categories = append(ret.Categories, cs)
	}

	sort.Slice(ret.Categories, func(i, j int) bool {
		return ret.Categories[i].ID < ret.Categories[j].ID
	})

	return ret
}
