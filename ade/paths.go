package ade

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	attrSuffix = "_atr.txt"
	segSuffix  = "_seg.png"

	// DefaultSubset is used when the root holds images directly
	// instead of subset directories.
	DefaultSubset = "default"
)

var (
	partsPattern = regexp.MustCompile(`^(.+)_parts_([0-9]+)\.png$`)

	imageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".bmp":  true,
		".gif":  true,
		".tif":  true,
		".tiff": true,
	}
)

// PartFile is one _parts_N.png mask path with its hierarchy level.
type PartFile struct {
	// Level is the part hierarchy depth N (always > 0).
	Level int

	// Path is the mask file path.
	Path string
}

// ImageFiles groups the sibling files discovered for one image stem.
// Only ImagePath is guaranteed to be set.
type ImageFiles struct {
	// Stem is the image filename without extension.
	Stem string

	// SuperLabel is the directory grouping between the subset and the
	// image file, "" when the image sits directly in the subset.
	SuperLabel string

	// ImagePath is the raw image file.
	ImagePath string

	// AttrPath is the _atr.txt sibling, "" if absent.
	AttrPath string

	// SegPath is the _seg.png sibling, "" if absent.
	SegPath string

	// Parts are the _parts_N.png siblings ordered by level.
	Parts []PartFile
}

// SubsetFiles is the scan result for one subset directory.
type SubsetFiles struct {
	// Name is the subset directory name.
	Name string

	// Images in lexical path order.
	Images []ImageFiles
}

// ScanRoot walks a dataset root and groups files by image stem. Files
// not matching any recognized pattern are ignored. It fails with a
// LayoutError when the root is not a directory, contains nothing
// importable, or a subset directory holds no images.
func ScanRoot(root string) ([]SubsetFiles, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &LayoutError{Dir: root, Reason: fmt.Sprintf("cannot stat dataset root: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LayoutError{Dir: root, Reason: "dataset root is not a directory"}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &LayoutError{Dir: root, Reason: fmt.Sprintf("cannot list dataset root: %v", err)}
	}

	var subsets []SubsetFiles
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		images, err := scanSubset(dir)
		if err != nil {
			return nil, err
		}
		if len(images) == 0 {
			return nil, &LayoutError{Dir: dir, Reason: "subset directory contains no images"}
		}
		subsets = append(subsets, SubsetFiles{Name: entry.Name(), Images: images})
	}

	if len(subsets) == 0 {
		// A root with images but no subdirectories imports as a single
		// default subset.
		images, err := scanSubset(root)
		if err != nil {
			return nil, err
		}
		if len(images) == 0 {
			return nil, &LayoutError{Dir: root, Reason: "no subset directories and no images found"}
		}
		subsets = append(subsets, SubsetFiles{Name: DefaultSubset, Images: images})
	}

	return subsets, nil
}

// scanSubset lists every file under dir and groups masks and attribute
// files with their image by (directory, stem).
func scanSubset(dir string) ([]ImageFiles, error) {
	fsys := os.DirFS(dir)
	paths, err := doublestar.Glob(fsys, "**/*", doublestar.WithFilesOnly())
	if err != nil {
		return nil, &LayoutError{Dir: dir, Reason: fmt.Sprintf("cannot walk subset: %v", err)}
	}
	sort.Strings(paths)

	type siblings struct {
		attr  string
		seg   string
		parts []PartFile
	}
	extras := make(map[string]*siblings) // keyed by dir-relative stem path

	extra := func(key string) *siblings {
		s, ok := extras[key]
		if !ok {
			s = &siblings{}
			extras[key] = s
		}
		return s
	}

	var images []ImageFiles
	for _, rel := range paths {
		base := filepath.Base(rel)
		reldir := filepath.Dir(rel)

		switch {
		case strings.HasSuffix(base, attrSuffix):
			stem := strings.TrimSuffix(base, attrSuffix)
			extra(filepath.Join(reldir, stem)).attr = filepath.Join(dir, rel)

		case strings.HasSuffix(base, segSuffix):
			stem := strings.TrimSuffix(base, segSuffix)
			extra(filepath.Join(reldir, stem)).seg = filepath.Join(dir, rel)

		case partsPattern.MatchString(base):
			m := partsPattern.FindStringSubmatch(base)
			level, err := strconv.Atoi(m[2])
			if err != nil || level < 1 {
				continue // not a recognized parts mask
			}
			s := extra(filepath.Join(reldir, m[1]))
			s.parts = append(s.parts, PartFile{Level: level, Path: filepath.Join(dir, rel)})

		case imageExtensions[strings.ToLower(filepath.Ext(base))]:
			stem := strings.TrimSuffix(base, filepath.Ext(base))
			super := reldir
			if super == "." {
				super = ""
			}
			images = append(images, ImageFiles{
				Stem:       stem,
				SuperLabel: filepath.ToSlash(super),
				ImagePath:  filepath.Join(dir, rel),
			})
		}
	}

	// Attach siblings to their image. Mask or attribute files with no
	// matching image are ignored.
	for i := range images {
		img := &images[i]
		key := img.Stem
		if img.SuperLabel != "" {
			key = filepath.Join(filepath.FromSlash(img.SuperLabel), img.Stem)
		}
		s, ok := extras[key]
		if !ok {
			continue
		}
		img.AttrPath = s.attr
		img.SegPath = s.seg
		sort.Slice(s.parts, func(a, b int) bool { return s.parts[a].Level < s.parts[b].Level })
		img.Parts = s.parts
	}

	return images, nil
}
