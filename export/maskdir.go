package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/adekit/adekit/dataset"
)

// maskIndex is the index.json sidecar describing every exported mask.
type maskIndex struct {
	Categories []string        `json:"categories"`
	Items      []maskIndexItem `json:"items"`
}

type maskIndexItem struct {
	Subset    string           `json:"subset"`
	ID        string           `json:"id"`
	ImagePath string           `json:"image_path"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Masks     []maskIndexEntry `json:"masks"`
}

type maskIndexEntry struct {
	File      string `json:"file"`
	Label     string `json:"label"`
	LabelID   int    `json:"label_id"`
	Instance  int    `json:"instance"`
	PartLevel int    `json:"part_level"`
	Occluded  bool   `json:"occluded"`
}

// MaskDirExporter writes one binary PNG per instance mask plus an
// index.json sidecar. Free-text attributes are dropped; this is the
// documented lossy behavior of the format.
type MaskDirExporter struct{}

// NewMaskDirExporter creates a mask directory exporter.
func NewMaskDirExporter() *MaskDirExporter {
	return &MaskDirExporter{}
}

// Format returns FormatMaskDir.
func (e *MaskDirExporter) Format() Format { return FormatMaskDir }

// Export writes the dataset into dir. Masks land under
// <dir>/<subset>/<item>_<n>_<label>.png.
func (e *MaskDirExporter) Export(ds *dataset.Dataset, dir string) error {
	index := maskIndex{Categories: ds.Categories.Names()}

	for _, subset := range ds.Subsets {
		subsetDir := filepath.Join(dir, subset.Name)
		if err := os.MkdirAll(subsetDir, 0o755); err != nil {
			return fmt.Errorf("create subset directory: %w", err)
		}

		for _, item := range subset.Items {
			entry := maskIndexItem{
				Subset:    subset.Name,
				ID:        item.ID,
				ImagePath: item.ImagePath,
				Width:     item.Width,
				Height:    item.Height,
			}

			for n, ann := range item.Annotations {
				name := fmt.Sprintf("%s_%d_%s.png", item.ID, n, sanitizeLabel(ann.Label))
				if err := writeMaskPNG(filepath.Join(subsetDir, name), ann.Mask); err != nil {
					return err
				}
				entry.Masks = append(entry.Masks, maskIndexEntry{
					File:      filepath.ToSlash(filepath.Join(subset.Name, name)),
					Label:     ann.Label,
					LabelID:   ann.LabelID,
					Instance:  ann.Instance,
					PartLevel: ann.PartLevel,
					Occluded:  ann.Occluded,
				})
			}

			index.Items = append(index.Items, entry)
		}
	}

	return writeJSON(filepath.Join(dir, "index.json"), index)
}

// writeMaskPNG writes a mask as an 8-bit grayscale PNG with foreground
// pixels at 255.
func writeMaskPNG(path string, mask *dataset.Mask) error {
	img := image.NewGray(image.Rect(0, 0, mask.Width(), mask.Height()))
	for y := 0; y < mask.Height(); y++ {
		for x := 0; x < mask.Width(); x++ {
			if mask.At(x, y) {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// sanitizeLabel makes a class name safe for use in a filename.
func sanitizeLabel(label string) string {
	out := make([]rune, 0, len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
