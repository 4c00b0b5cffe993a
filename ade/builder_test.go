package ade

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func segMaskFromInstances(width, height int, instance []int) *SegMask {
	class := make([]int, len(instance))
	for i, id := range instance {
		if id != 0 {
			class[i] = 100 // single class is enough for the join
		}
	}
	return &SegMask{Width: width, Height: height, Class: class, Instance: instance}
}

func TestBuildAnnotations_LevelZeroJoin(t *testing.T) {
	seg := segMaskFromInstances(3, 2, []int{
		1, 1, 2,
		0, 2, 2,
	})
	records := []AttributeRecord{
		{Instance: 1, PartLevel: 0, Occluded: false, ClassName: "wall"},
		{Instance: 2, PartLevel: 0, Occluded: true, ClassName: "door", Attributes: []string{"wooden"}},
	}

	anns, warnings, err := buildAnnotations(ImageFiles{Stem: "img"}, 3, 2, records, seg, nil, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, warnings)
	require.Len(t, anns, 2)

	wall := anns[0]
	assert.Equal(t, "wall", wall.Label)
	assert.Equal(t, 1, wall.Instance)
	assert.Equal(t, 2, wall.Mask.Count())
	assert.True(t, wall.Mask.At(0, 0))
	assert.True(t, wall.Mask.At(1, 0))

	door := anns[1]
	assert.True(t, door.Occluded)
	assert.Equal(t, map[string]bool{"wooden": true}, door.Attributes)
	assert.Equal(t, 3, door.Mask.Count())
}

func TestBuildAnnotations_UnionCoversAllLabeledPixels(t *testing.T) {
	// Every non-background pixel belongs to exactly one instance mask.
	instance := []int{
		1, 2, 2, 0,
		1, 1, 2, 3,
		0, 3, 3, 3,
		0, 0, 0, 1,
	}
	seg := segMaskFromInstances(4, 4, instance)
	records := []AttributeRecord{
		{Instance: 1, ClassName: "wall"},
		{Instance: 2, ClassName: "door"},
		{Instance: 3, ClassName: "window"},
	}

	anns, _, err := buildAnnotations(ImageFiles{}, 4, 4, records, seg, nil, false, nil)
	require.NoError(t, err)
	require.Len(t, anns, 3)

	covered := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			n := 0
			for _, ann := range anns {
				if ann.Mask.At(x, y) {
					n++
				}
			}
			if instance[y*4+x] != 0 {
				assert.Equal(t, 1, n, "pixel (%d,%d) must be covered exactly once", x, y)
				covered++
			} else {
				assert.Equal(t, 0, n, "background pixel (%d,%d) must stay uncovered", x, y)
			}
		}
	}
	assert.Equal(t, 11, covered)
}

func TestBuildAnnotations_PartLevels(t *testing.T) {
	seg := segMaskFromInstances(2, 2, []int{1, 1, 1, 1})
	part := &PartMask{Width: 2, Height: 2, Level: 1, Instance: []int{0, 2, 0, 2}}
	records := []AttributeRecord{
		{Instance: 1, PartLevel: 0, ClassName: "person"},
		{Instance: 2, PartLevel: 1, ClassName: "head"},
	}

	anns, _, err := buildAnnotations(ImageFiles{}, 2, 2, records, seg, []*PartMask{part}, false, nil)
	require.NoError(t, err)
	require.Len(t, anns, 2)

	assert.Equal(t, 0, anns[0].PartLevel)
	assert.Equal(t, 4, anns[0].Mask.Count())

	assert.Equal(t, 1, anns[1].PartLevel)
	assert.Equal(t, "head", anns[1].Label)
	assert.Equal(t, 2, anns[1].Mask.Count())
	assert.True(t, anns[1].Mask.At(1, 0))
	assert.True(t, anns[1].Mask.At(1, 1))
}

func TestBuildAnnotations_OrphanLenient(t *testing.T) {
	seg := segMaskFromInstances(2, 2, []int{1, 0, 0, 0})
	records := []AttributeRecord{
		{Instance: 1, ClassName: "wall"},
		{Instance: 2, ClassName: "door"}, // no pixels anywhere
	}

	anns, warnings, err := buildAnnotations(ImageFiles{AttrPath: "x_atr.txt"}, 2, 2, records, seg, nil, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, warnings)
	require.Len(t, anns, 2, "orphan records still produce an annotation")
	assert.True(t, anns[1].Mask.Empty())
}

func TestBuildAnnotations_OrphanStrict(t *testing.T) {
	seg := segMaskFromInstances(2, 2, []int{1, 0, 0, 0})
	records := []AttributeRecord{
		{Instance: 1, ClassName: "wall"},
		{Instance: 2, PartLevel: 0, ClassName: "door"},
	}

	_, _, err := buildAnnotations(ImageFiles{AttrPath: "x_atr.txt"}, 2, 2, records, seg, nil, true, nil)
	require.Error(t, err)

	var orphan *OrphanInstanceError
	require.True(t, errors.As(err, &orphan))
	assert.Equal(t, 2, orphan.Instance)
	assert.Equal(t, 0, orphan.Level)
	assert.Equal(t, "x_atr.txt", orphan.Path)
}

func TestBuildAnnotations_UnlabeledRegionDropped(t *testing.T) {
	// Instance 9 has pixels but no record: treated as background.
	seg := segMaskFromInstances(2, 2, []int{1, 9, 9, 0})
	records := []AttributeRecord{{Instance: 1, ClassName: "wall"}}

	anns, warnings, err := buildAnnotations(ImageFiles{}, 2, 2, records, seg, nil, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, warnings)
	require.Len(t, anns, 1)
	assert.Equal(t, 1, anns[0].Mask.Count())
}

func TestBuildAnnotations_NoRecords(t *testing.T) {
	seg := segMaskFromInstances(2, 2, []int{1, 1, 0, 0})

	anns, warnings, err := buildAnnotations(ImageFiles{}, 2, 2, nil, seg, nil, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, warnings)
	assert.Empty(t, anns)
}
