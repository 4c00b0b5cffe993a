package dataset

import (
	"fmt"
	"math/bits"
)

// Mask is a binary pixel mask for a single instance or part.
// Pixels are addressed as (x, y) with the origin in the top-left
// corner. The zero value is not usable; construct with NewMask or
// MaskFromRLE.
type Mask struct {
	width  int
	height int
	bits   []uint64
}

// NewMask creates an empty (all background) mask of the given size.
func NewMask(width, height int) *Mask {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("dataset: invalid mask size %dx%d", width, height))
	}
	n := (width*height + 63) / 64
	return &Mask{width: width, height: height, bits: make([]uint64, n)}
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Set marks the pixel at (x, y) as foreground.
func (m *Mask) Set(x, y int) {
	i := y*m.width + x
	m.bits[i/64] |= 1 << uint(i%64)
}

// At reports whether the pixel at (x, y) is foreground.
func (m *Mask) At(x, y int) bool {
	i := y*m.width + x
	return m.bits[i/64]&(1<<uint(i%64)) != 0
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Empty reports whether the mask has no foreground pixels.
func (m *Mask) Empty() bool {
	for _, w := range m.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two masks have identical size and pixels.
func (m *Mask) Equal(other *Mask) bool {
	if other == nil || m.width != other.width || m.height != other.height {
		return false
	}
	for i, w := range m.bits {
		if w != other.bits[i] {
			return false
		}
	}
	return true
}

// RLE encodes the mask as uncompressed COCO-style run lengths:
// alternating background/foreground run counts over pixels visited in
// column-major order, always starting with a (possibly zero-length)
// background run.
func (m *Mask) RLE() []int {
	var counts []int
	run := 0
	cur := false // background first
	for x := 0; x < m.width; x++ {
		for y := 0; y < m.height; y++ {
			v := m.At(x, y)
			if v == cur {
				run++
				continue
			}
			counts = append(counts, run)
			cur = v
			run = 1
		}
	}
	counts = append(counts, run)
	return counts
}

// MaskFromRLE rebuilds a mask from column-major run-length counts as
// produced by RLE. The counts must sum to width*height.
func MaskFromRLE(width, height int, counts []int) (*Mask, error) {
	m := NewMask(width, height)
	total := 0
	fg := false
	pos := 0
	for _, c := range counts {
		if c < 0 {
			return nil, fmt.Errorf("dataset: negative run length %d", c)
		}
		if fg {
			for i := 0; i < c; i++ {
				p := pos + i
				x := p / height
				y := p % height
				if x >= width {
					return nil, fmt.Errorf("dataset: run lengths exceed %dx%d mask", width, height)
				}
				m.Set(x, y)
			}
		}
		pos += c
		total += c
		fg = !fg
	}
	if total != width*height {
		return nil, fmt.Errorf("dataset: run lengths sum to %d, want %d", total, width*height)
	}
	return m, nil
}
