package ade

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWallFixture writes one subset with one 20x20 image whose seg
// mask holds instance 1 ("wall") in a 10x10 region.
func writeWallFixture(t *testing.T, root string) {
	t.Helper()
	dir := filepath.Join(root, "training")
	writeJPEG(t, filepath.Join(dir, "room.jpg"), 20, 20)
	writeTextFile(t, filepath.Join(dir, "room_atr.txt"), "1#0#0#wall#wall#\"\"\n")
	writeRGBPNG(t, filepath.Join(dir, "room_seg.png"), 20, 20, func(x, y int) (uint8, uint8, uint8) {
		if x < 10 && y < 10 {
			return 10, 1, 1 // class (10/10)*256+1, instance 1
		}
		return 0, 0, 0
	})
}

func TestImporter_SingleWallInstance(t *testing.T) {
	root := t.TempDir()
	writeWallFixture(t, root)

	imp := NewImporter(Options{})
	ds, report, err := imp.Import(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Subsets)
	assert.Equal(t, 1, report.ImagesProcessed)
	assert.Equal(t, 0, report.ImagesFailed)
	assert.Equal(t, 1, report.Annotations)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Failed())

	require.Len(t, ds.Subsets, 1)
	require.Len(t, ds.Subsets[0].Items, 1)

	item := ds.Subsets[0].Items[0]
	assert.Equal(t, "room", item.ID)
	assert.Equal(t, 20, item.Width)
	require.Len(t, item.Annotations, 1)

	ann := item.Annotations[0]
	assert.Equal(t, "wall", ann.Label)
	assert.Equal(t, 0, ann.LabelID)
	assert.Equal(t, 1, ann.Instance)
	assert.False(t, ann.Occluded)
	assert.Equal(t, 100, ann.Mask.Count(), "10x10 region")

	name, ok := ds.Categories.Name(0)
	require.True(t, ok)
	assert.Equal(t, "wall", name)
}

func TestImporter_Deterministic(t *testing.T) {
	root := t.TempDir()

	// Several images and classes across two subsets, processed by a
	// pool of workers.
	for _, sub := range []string{"training", "validation"} {
		for i, stem := range []string{"a", "b", "c"} {
			dir := filepath.Join(root, sub)
			writeJPEG(t, filepath.Join(dir, stem+".jpg"), 8, 8)
			classes := [][]string{
				{"wall", "door"},
				{"sky", "wall"},
				{"tree", "person"},
			}[i]
			attr := ""
			for j, cls := range classes {
				attr += string(rune('1'+j)) + "#0#0#" + cls + "#" + cls + "#\"\"\n"
			}
			writeTextFile(t, filepath.Join(dir, stem+"_atr.txt"), attr)
			writeRGBPNG(t, filepath.Join(dir, stem+"_seg.png"), 8, 8, func(x, y int) (uint8, uint8, uint8) {
				if y < 4 {
					return 10, 0, 1
				}
				return 20, 0, 2
			})
		}
	}

	importOnce := func() ([]string, int) {
		imp := NewImporter(Options{Workers: 4})
		ds, report, err := imp.Import(context.Background(), root)
		require.NoError(t, err)
		require.Equal(t, 0, report.ImagesFailed)
		return ds.Categories.Names(), ds.AnnotationCount()
	}

	names1, count1 := importOnce()
	names2, count2 := importOnce()

	assert.Equal(t, names1, names2, "category ids must not depend on worker interleaving")
	assert.Equal(t, count1, count2)
	assert.Equal(t, []string{"wall", "door", "sky", "tree", "person"}, names1)
}

func TestImporter_PerImageFailureCollected(t *testing.T) {
	root := t.TempDir()
	writeWallFixture(t, root)

	// Second image with a malformed attribute line.
	dir := filepath.Join(root, "training")
	writeJPEG(t, filepath.Join(dir, "bad.jpg"), 4, 4)
	writeTextFile(t, filepath.Join(dir, "bad_atr.txt"), "nonsense line\n")

	imp := NewImporter(Options{})
	ds, report, err := imp.Import(context.Background(), root)
	require.NoError(t, err, "one bad image must not abort the import")

	assert.Equal(t, 1, report.ImagesProcessed)
	assert.Equal(t, 1, report.ImagesFailed)
	assert.True(t, report.Failed())
	require.Len(t, report.Failures, 1)

	failure := report.Failures[0]
	assert.Equal(t, KindParse, failure.Kind)
	assert.Equal(t, filepath.Join(dir, "bad_atr.txt"), failure.Path)
	assert.Equal(t, 1, failure.Line)

	// The failed image is dropped from the dataset.
	require.Len(t, ds.Subsets[0].Items, 1)
	assert.Equal(t, "room", ds.Subsets[0].Items[0].ID)
}

func TestImporter_FailFast(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "training")
	writeJPEG(t, filepath.Join(dir, "bad.jpg"), 4, 4)
	writeTextFile(t, filepath.Join(dir, "bad_atr.txt"), "nonsense\n")

	imp := NewImporter(Options{FailFast: true})
	ds, report, err := imp.Import(context.Background(), root)
	require.Error(t, err)
	assert.Nil(t, ds)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.ImagesFailed)

	var parseErr *AttributeParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestImporter_MaskDimensionMismatch(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "training")
	writeJPEG(t, filepath.Join(dir, "img.jpg"), 8, 8)
	writeTextFile(t, filepath.Join(dir, "img_atr.txt"), "1#0#0#wall#wall#\"\"\n")
	writeRGBPNG(t, filepath.Join(dir, "img_seg.png"), 4, 4, backgroundOnly)

	imp := NewImporter(Options{})
	_, report, err := imp.Import(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, KindMask, report.Failures[0].Kind)
	assert.Equal(t, filepath.Join(dir, "img_seg.png"), report.Failures[0].Path)
}

func TestImporter_OrphanStrictVsLenient(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "training")
	writeJPEG(t, filepath.Join(dir, "img.jpg"), 4, 4)
	// Instance 2 never appears in the mask.
	writeTextFile(t, filepath.Join(dir, "img_atr.txt"),
		"1#0#0#wall#wall#\"\"\n2#0#0#door#door#\"\"\n")
	writeRGBPNG(t, filepath.Join(dir, "img_seg.png"), 4, 4, func(x, y int) (uint8, uint8, uint8) {
		return 10, 0, 1
	})

	// Lenient: empty-mask annotation plus a warning, never a silent drop.
	imp := NewImporter(Options{})
	ds, report, err := imp.Import(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Warnings)
	require.Len(t, ds.Subsets[0].Items[0].Annotations, 2)
	assert.True(t, ds.Subsets[0].Items[0].Annotations[1].Mask.Empty())

	// Strict: the image fails with an orphan record error.
	imp = NewImporter(Options{Strict: true})
	_, report, err = imp.Import(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, KindOrphan, report.Failures[0].Kind)
}

func TestImporter_ImageWithoutAttributes(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "training")
	writeJPEG(t, filepath.Join(dir, "plain.jpg"), 4, 4)

	imp := NewImporter(Options{})
	ds, report, err := imp.Import(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1, report.ImagesProcessed)
	assert.Empty(t, ds.Subsets[0].Items[0].Annotations)
}

func TestImporter_LayoutErrorAborts(t *testing.T) {
	imp := NewImporter(Options{})
	_, _, err := imp.Import(context.Background(), t.TempDir())
	var layoutErr *LayoutError
	require.True(t, errors.As(err, &layoutErr))
}

func TestImporter_Metrics(t *testing.T) {
	root := t.TempDir()
	writeWallFixture(t, root)

	reg := prometheus.NewRegistry()
	imp := NewImporter(Options{Metrics: NewMetrics(reg)})
	_, _, err := imp.Import(context.Background(), root)
	require.NoError(t, err)

	processed, err := testutil.GatherAndCount(reg, "adekit_import_images_processed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
}
