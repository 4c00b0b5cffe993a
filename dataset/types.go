package dataset

import (
	"iter"
)

// Dataset is the normalized annotation model: ordered subsets plus the
// shared category registry. It is assembled once by an importer and
// never mutated afterwards.
type Dataset struct {
	// Subsets in discovery order.
	Subsets []*Subset

	// Categories is the global class name -> label id registry.
	Categories *Categories
}

// Subset is a named group of items (e.g. "training", "validation").
type Subset struct {
	// Name is the subset directory name.
	Name string `json:"name"`

	// Items in discovery order.
	Items []*Item `json:"items"`
}

// Item is one image together with its instance annotations.
type Item struct {
	// ID is the image filename stem, unique within a subset.
	ID string `json:"id"`

	// SuperLabel is the optional directory grouping between the subset
	// and the image file ("" when the image sits directly in the subset).
	SuperLabel string `json:"super_label,omitempty"`

	// ImagePath is the path to the raw image file.
	ImagePath string `json:"image_path"`

	// Width and Height are the raw image dimensions in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Annotations in attribute-file order (level 0 first, then parts).
	Annotations []*MaskAnnotation `json:"annotations"`
}

// MaskAnnotation is one instance (or part) mask with its resolved
// label. Never mutated after the assembler produces it.
type MaskAnnotation struct {
	// Label is the resolved class name.
	Label string `json:"label"`

	// LabelID is the id assigned by the category registry.
	LabelID int `json:"label_id"`

	// Instance is the per-image instance number at this part level.
	Instance int `json:"instance"`

	// PartLevel is 0 for whole objects, >0 for part hierarchy depth.
	PartLevel int `json:"part_level"`

	// Occluded indicates the instance is partially hidden.
	Occluded bool `json:"occluded"`

	// Attributes maps free-text attribute names to boolean presence.
	Attributes map[string]bool `json:"attributes,omitempty"`

	// Mask is the binary pixel mask. May be empty for instance records
	// with no matching pixels (lenient imports).
	Mask *Mask `json:"-"`
}

// Subset returns the subset with the given name, or nil.
func (d *Dataset) Subset(name string) *Subset {
	for _, s := range d.Subsets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Items yields every (item, annotations) pair across all subsets in
// stable order. The sequence is lazy and restartable: ranging over it
// again starts from the beginning.
func (d *Dataset) Items() iter.Seq2[*Item, []*MaskAnnotation] {
	return func(yield func(*Item, []*MaskAnnotation) bool) {
		for _, s := range d.Subsets {
			for _, it := range s.Items {
				if !yield(it, it.Annotations) {
					return
				}
			}
		}
	}
}

// ItemCount returns the total number of items across all subsets.
func (d *Dataset) ItemCount() int {
	n := 0
	for _, s := range d.Subsets {
		n += len(s.Items)
	}
	return n
}

// AnnotationCount returns the total number of annotations across all
// subsets.
func (d *Dataset) AnnotationCount() int {
	n := 0
	for _, s := range d.Subsets {
		for _, it := range s.Items {
			n += len(it.Annotations)
		}
	}
	return n
}
