package ade

import (
	"fmt"
	"image"
	"os"

	// Raw images are JPEG, masks are PNG.
	_ "image/jpeg"
	_ "image/png"
)

// SegMask is the decoded _seg.png raster: a per-pixel class id and
// whole-object instance id, both in row-major order.
type SegMask struct {
	Width  int
	Height int

	// Class holds (R/10)*256 + G per pixel. The channel range caps
	// class ids at (255/10)*256 + 255 = 6655.
	Class []int

	// Instance holds the blue channel per pixel; 0 is background.
	Instance []int
}

// PartMask is the decoded _parts_N.png raster: a per-pixel part
// instance id in row-major order, 0 for background.
type PartMask struct {
	Width  int
	Height int
	Level  int

	Instance []int
}

// ImageSize reads the dimensions of a raw image without decoding its
// pixels.
func ImageSize(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// DecodeSegMask decodes a _seg.png file and validates it against the
// companion raw image dimensions.
func DecodeSegMask(path string, wantWidth, wantHeight int) (*SegMask, error) {
	img, err := decodeMaskFile(path, wantWidth, wantHeight)
	if err != nil {
		return nil, err
	}

	if _, gray := img.(*image.Gray); gray {
		return nil, &MaskImageError{Path: path, Reason: "expected a 3-channel raster, got grayscale"}
	}
	if _, gray16 := img.(*image.Gray16); gray16 {
		return nil, &MaskImageError{Path: path, Reason: "expected a 3-channel raster, got grayscale"}
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	mask := &SegMask{
		Width:    w,
		Height:   h,
		Class:    make([]int, w*h),
		Instance: make([]int, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit values; masks are written as 8-bit.
			r8, g8, b8 := int(r>>8), int(g>>8), int(b>>8)
			i := y*w + x
			mask.Class[i] = (r8/10)*256 + g8
			mask.Instance[i] = b8
		}
	}
	return mask, nil
}

// DecodePartMask decodes a _parts_N.png file for the given level. The
// part instance id is taken from the blue channel for color rasters or
// the gray value for single-channel ones.
func DecodePartMask(path string, level, wantWidth, wantHeight int) (*PartMask, error) {
	img, err := decodeMaskFile(path, wantWidth, wantHeight)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	mask := &PartMask{
		Width:    w,
		Height:   h,
		Level:    level,
		Instance: make([]int, w*h),
	}

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				mask.Instance[y*w+x] = int(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				_, _, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				mask.Instance[y*w+x] = int(b >> 8)
			}
		}
	}
	return mask, nil
}

// decodeMaskFile opens and decodes a mask raster and checks its
// dimensions against the companion raw image.
func decodeMaskFile(path string, wantWidth, wantHeight int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MaskImageError{Path: path, Reason: "cannot open", Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &MaskImageError{Path: path, Reason: "cannot decode", Err: err}
	}

	bounds := img.Bounds()
	if wantWidth > 0 && wantHeight > 0 && (bounds.Dx() != wantWidth || bounds.Dy() != wantHeight) {
		return nil, &MaskImageError{
			Path:   path,
			Reason: fmt.Sprintf("mask is %dx%d but image is %dx%d", bounds.Dx(), bounds.Dy(), wantWidth, wantHeight),
		}
	}
	return img, nil
}
