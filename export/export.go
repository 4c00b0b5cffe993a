// Package export writes the normalized dataset model to target
// formats. Exporters consume the read-only dataset interface (ordered
// items with their annotations plus the finalized category mapping)
// and never feed back into the importer.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adekit/adekit/dataset"
)

// Exporter writes a normalized dataset to a target format under an
// output directory.
type Exporter interface {
	// Format returns the format this exporter writes.
	Format() Format

	// Export writes ds into dir.
	Export(ds *dataset.Dataset, dir string) error
}

// Format identifies a target export format.
type Format string

const (
	// FormatCOCO writes COCO instances JSON with run-length encoded
	// masks. Lossless for masks, occlusion flags, and free-text
	// attributes.
	FormatCOCO Format = "coco"

	// FormatMaskDir writes one binary PNG per instance plus an index
	// sidecar. Free-text attributes are not representable and are
	// dropped.
	FormatMaskDir Format = "maskdir"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// Extension is the primary output file extension (with dot).
	Extension string

	// Description describes the format.
	Description string

	// LossyAttributes is true when the format cannot carry free-text
	// instance attributes.
	LossyAttributes bool
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatCOCO: {
		Name:        FormatCOCO,
		Extension:   ".json",
		Description: "COCO instances JSON with uncompressed RLE masks",
	},
	FormatMaskDir: {
		Name:            FormatMaskDir,
		Extension:       ".png",
		Description:     "One binary PNG mask per instance plus an index.json sidecar",
		LossyAttributes: true,
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// Formats returns the supported format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := FormatRegistry[f]; !ok {
		return "", fmt.Errorf("unknown export format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
	return f, nil
}

// New creates the exporter for a format.
func New(format Format) (Exporter, error) {
	switch format {
	case FormatCOCO:
		return NewCOCOExporter(), nil
	case FormatMaskDir:
		return NewMaskDirExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
