package ade

import (
	"log/slog"

	"github.com/adekit/adekit/dataset"
)

// buildAnnotations joins attribute records with decoded masks to
// produce one MaskAnnotation per record, preserving record order.
//
// The join is keyed on (part level, instance number): masks are
// accumulated in a single pass over each raster into an instance ->
// mask map, then looked up per record. Pixel regions with no matching
// record are left unlabeled. Records with no matching pixels keep an
// empty mask (a logged soft inconsistency) unless strict mode is on,
// in which case they fail with an OrphanInstanceError.
func buildAnnotations(
	files ImageFiles,
	width, height int,
	records []AttributeRecord,
	seg *SegMask,
	parts []*PartMask,
	strict bool,
	logger *slog.Logger,
) (annotations []*dataset.MaskAnnotation, warnings int, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(records) == 0 {
		return nil, 0, nil
	}

	// Instance numbers wanted per level, taken from the records.
	wanted := make(map[int]map[int]bool) // level -> instance -> true
	for _, rec := range records {
		m, ok := wanted[rec.PartLevel]
		if !ok {
			m = make(map[int]bool)
			wanted[rec.PartLevel] = m
		}
		m[rec.Instance] = true
	}

	// One mask-building pass per raster.
	masks := make(map[int]map[int]*dataset.Mask) // level -> instance -> mask
	if seg != nil && len(wanted[0]) > 0 {
		masks[0] = collectInstanceMasks(seg.Instance, seg.Width, seg.Height, wanted[0])
	}
	for _, pm := range parts {
		if pm == nil || len(wanted[pm.Level]) == 0 {
			continue
		}
		masks[pm.Level] = collectInstanceMasks(pm.Instance, pm.Width, pm.Height, wanted[pm.Level])
	}

	for _, rec := range records {
		mask := masks[rec.PartLevel][rec.Instance]
		if mask == nil || mask.Empty() {
			if strict {
				return nil, warnings, &OrphanInstanceError{
					Path:     files.AttrPath,
					Instance: rec.Instance,
					Level:    rec.PartLevel,
				}
			}
			warnings++
			logger.Warn("instance record has no pixels in the mask",
				"path", files.AttrPath,
				"instance", rec.Instance,
				"part_level", rec.PartLevel,
				"class", rec.ClassName)
			if mask == nil {
				mask = dataset.NewMask(width, height)
			}
		}

		var attrs map[string]bool
		if len(rec.Attributes) > 0 {
			attrs = make(map[string]bool, len(rec.Attributes))
			for _, a := range rec.Attributes {
				attrs[a] = true
			}
		}

		annotations = append(annotations, &dataset.MaskAnnotation{
			Label:      rec.ClassName,
			LabelID:    -1, // assigned by the assembler
			Instance:   rec.Instance,
			PartLevel:  rec.PartLevel,
			Occluded:   rec.Occluded,
			Attributes: attrs,
			Mask:       mask,
		})
	}

	return annotations, warnings, nil
}

// collectInstanceMasks builds a binary mask per wanted instance id in
// one pass over the row-major instance plane.
func collectInstanceMasks(instance []int, width, height int, wanted map[int]bool) map[int]*dataset.Mask {
	out := make(map[int]*dataset.Mask, len(wanted))
	for i, id := range instance {
		if id == 0 || !wanted[id] {
			continue
		}
		m, ok := out[id]
		if !ok {
			m = dataset.NewMask(width, height)
			out[id] = m
		}
		m.Set(i%width, i/width)
	}
	return out
}
