package ade

import (
	"errors"
	"fmt"
)

// Failure kinds reported by the importer.
const (
	KindLayout = "malformed_layout"
	KindParse  = "attribute_parse_error"
	KindMask   = "invalid_mask_image"
	KindOrphan = "orphan_instance_record"
	KindIO     = "io_error"
)

// LayoutError reports a structural problem with the dataset directory
// tree. It is fatal for the whole import.
type LayoutError struct {
	// Dir is the offending directory.
	Dir string

	// Reason describes what is wrong with it.
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("malformed layout at %s: %s", e.Dir, e.Reason)
}

// AttributeParseError reports a bad line in an _atr.txt file.
type AttributeParseError struct {
	// Path is the attribute file.
	Path string

	// Line is the 1-based line number.
	Line int

	// Reason describes the problem.
	Reason string
}

func (e *AttributeParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
}

// MaskImageError reports an undecodable or mismatched mask raster.
// It is fatal for the affected image.
type MaskImageError struct {
	// Path is the mask file.
	Path string

	// Reason describes the problem.
	Reason string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *MaskImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid mask image %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid mask image %s: %s", e.Path, e.Reason)
}

func (e *MaskImageError) Unwrap() error { return e.Err }

// OrphanInstanceError reports an attribute record whose instance
// number has no matching pixels in the decoded mask. Only raised in
// strict mode; lenient imports keep the record with an empty mask.
type OrphanInstanceError struct {
	// Path is the attribute file declaring the instance.
	Path string

	// Instance is the declared instance number.
	Instance int

	// Level is the declared part level.
	Level int
}

func (e *OrphanInstanceError) Error() string {
	return fmt.Sprintf("%s: instance %d at part level %d has no pixels in the mask", e.Path, e.Instance, e.Level)
}

// Kind classifies an error into one of the failure kind constants.
func Kind(err error) string {
	var layout *LayoutError
	if errors.As(err, &layout) {
		return KindLayout
	}
	var parse *AttributeParseError
	if errors.As(err, &parse) {
		return KindParse
	}
	var mask *MaskImageError
	if errors.As(err, &mask) {
		return KindMask
	}
	var orphan *OrphanInstanceError
	if errors.As(err, &orphan) {
		return KindOrphan
	}
	return KindIO
}
