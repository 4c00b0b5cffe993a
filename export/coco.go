package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adekit/adekit/dataset"
)

// cocoFile is the top-level COCO instances document for one subset.
type cocoFile struct {
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
	Categories  []cocoCategory   `json:"categories"`
}

type cocoImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type cocoAnnotation struct {
	ID         int `json:"id"`
	ImageID    int `json:"image_id"`
	CategoryID int `json:"category_id"`
	// Segmentation is uncompressed RLE: alternating background and
	// foreground run lengths over column-major pixel order.
	Segmentation cocoRLE                `json:"segmentation"`
	Area         int                    `json:"area"`
	IsCrowd      int                    `json:"iscrowd"`
	Attributes   map[string]interface{} `json:"attributes,omitempty"`
}

type cocoRLE struct {
	Counts []int `json:"counts"`
	// Size is [height, width].
	Size [2]int `json:"size"`
}

type cocoCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// COCOExporter writes one instances_<subset>.json file per subset.
type COCOExporter struct{}

// NewCOCOExporter creates a COCO instances exporter.
func NewCOCOExporter() *COCOExporter {
	return &COCOExporter{}
}

// Format returns FormatCOCO.
func (e *COCOExporter) Format() Format { return FormatCOCO }

// Export writes the dataset into dir, one JSON file per subset.
// Category ids are registry ids shifted by one, since COCO ids start
// at 1.
func (e *COCOExporter) Export(ds *dataset.Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	categories := make([]cocoCategory, 0, ds.Categories.Len())
	for id, name := range ds.Categories.Names() {
		categories = append(categories, cocoCategory{ID: id + 1, Name: name})
	}

	for _, subset := range ds.Subsets {
		doc := cocoFile{Categories: categories}

		annID := 1
		for i, item := range subset.Items {
			imageID := i + 1
			doc.Images = append(doc.Images, cocoImage{
				ID:       imageID,
				FileName: filepath.Base(item.ImagePath),
				Width:    item.Width,
				Height:   item.Height,
			})

			for _, ann := range item.Annotations {
				doc.Annotations = append(doc.Annotations, cocoAnnotation{
					ID:         annID,
					ImageID:    imageID,
					CategoryID: ann.LabelID + 1,
					Segmentation: cocoRLE{
						Counts: ann.Mask.RLE(),
						Size:   [2]int{ann.Mask.Height(), ann.Mask.Width()},
					},
					Area:       ann.Mask.Count(),
					IsCrowd:    0,
					Attributes: cocoAttributes(ann),
				})
				annID++
			}
		}

		path := filepath.Join(dir, fmt.Sprintf("instances_%s.json", subset.Name))
		if err := writeJSON(path, doc); err != nil {
			return err
		}
	}

	return nil
}

// cocoAttributes carries the occlusion flag, part level, instance
// number, and free-text attributes in the annotation attributes
// object.
func cocoAttributes(ann *dataset.MaskAnnotation) map[string]interface{} {
	attrs := map[string]interface{}{
		"occluded":   ann.Occluded,
		"part_level": ann.PartLevel,
		"instance":   ann.Instance,
	}
	for name, present := range ann.Attributes {
		attrs[name] = present
	}
	return attrs
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
