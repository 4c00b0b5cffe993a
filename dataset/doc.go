// Package dataset defines the normalized in-memory annotation model
// produced by format importers and consumed by format exporters.
//
// A Dataset is an ordered set of Subsets, each holding an ordered
// sequence of Items. Every Item carries its MaskAnnotations and the
// Dataset carries one Categories registry shared across all subsets,
// so identical class names map to the same label id everywhere.
package dataset
