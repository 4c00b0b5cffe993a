package ade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/adekit/adekit/dataset"
)

// Options configures an Importer.
type Options struct {
	// Workers bounds concurrent per-image tasks. 0 means GOMAXPROCS.
	Workers int

	// Lenient skips malformed attribute lines instead of failing the
	// image.
	Lenient bool

	// Strict turns orphan instance records (declared in the attribute
	// file but absent from the mask) into per-image errors.
	Strict bool

	// FailFast aborts the whole import on the first per-image error.
	FailFast bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives import counters when non-nil.
	Metrics *Metrics
}

// Importer reads an ADE20K 2017 dataset tree into the normalized
// model. Per-image work runs on a worker pool; category ids are
// assigned in a single-threaded pass afterwards so they only depend on
// file order, never on worker interleaving.
type Importer struct {
	opts   Options
	logger *slog.Logger
}

// NewImporter creates an Importer with the given options.
func NewImporter(opts Options) *Importer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{opts: opts, logger: logger}
}

// imageResult is the outcome of one per-image task.
type imageResult struct {
	item     *dataset.Item
	warnings int
	err      error
}

// Import scans root and builds the normalized dataset plus an import
// report. Structural layout problems abort the import with an error.
// Per-image errors are collected in the report and the affected images
// are dropped, unless FailFast is set, in which case the first
// per-image error is returned and the dataset is nil.
func (imp *Importer) Import(ctx context.Context, root string) (*dataset.Dataset, *Report, error) {
	report := newReport(root)

	subsets, err := ScanRoot(root)
	if err != nil {
		return nil, nil, err
	}
	report.Subsets = len(subsets)

	imp.logger.Debug("dataset scan complete",
		"root", root, "run_id", report.RunID, "subsets", len(subsets))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// One slot per image keeps assembly order independent of worker
	// scheduling.
	results := make([][]imageResult, len(subsets))
	for i, s := range subsets {
		results[i] = make([]imageResult, len(s.Images))
	}

	type job struct{ subset, image int }
	jobs := make(chan job)

	workers := imp.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					results[j.subset][j.image] = imageResult{err: ctx.Err()}
					continue
				}
				res := imp.processImage(subsets[j.subset].Images[j.image])
				results[j.subset][j.image] = res
				if res.err != nil && imp.opts.FailFast {
					cancel()
				}
			}
		}()
	}

	for si, s := range subsets {
		for ii := range s.Images {
			jobs <- job{subset: si, image: ii}
		}
	}
	close(jobs)
	wg.Wait()

	// Single-threaded assembly barrier: category ids are assigned here,
	// in file order, so re-running over the same files reproduces
	// identical ids.
	categories := dataset.NewCategories()
	ds := &dataset.Dataset{Categories: categories}

	var firstErr error
	for si, sf := range subsets {
		subset := &dataset.Subset{Name: sf.Name}
		for ii, files := range sf.Images {
			res := results[si][ii]
			report.Warnings += res.warnings

			if res.err != nil {
				if errors.Is(res.err, context.Canceled) && imp.opts.FailFast {
					continue // aborted, not a real per-image failure
				}
				report.ImagesFailed++
				report.Failures = append(report.Failures, failureFor(sf.Name, files, res.err))
				imp.opts.Metrics.observeImage(sf.Name, true)
				imp.logger.Warn("image failed to import",
					"subset", sf.Name, "image", files.ImagePath, "error", res.err)
				if firstErr == nil {
					firstErr = res.err
				}
				continue
			}

			for _, ann := range res.item.Annotations {
				ann.LabelID = categories.GetOrAdd(ann.Label)
			}
			report.ImagesProcessed++
			report.Annotations += len(res.item.Annotations)
			imp.opts.Metrics.observeImage(sf.Name, false)
			imp.opts.Metrics.observeAnnotations(len(res.item.Annotations))
			subset.Items = append(subset.Items, res.item)
		}
		ds.Subsets = append(ds.Subsets, subset)
	}

	report.Duration = time.Since(report.StartedAt)
	imp.opts.Metrics.observeDuration(report.Duration.Seconds())

	if imp.opts.FailFast && firstErr != nil {
		return nil, report, fmt.Errorf("import aborted: %w", firstErr)
	}

	imp.logger.Info("import finished",
		"run_id", report.RunID,
		"images", report.ImagesProcessed,
		"failed", report.ImagesFailed,
		"annotations", report.Annotations,
		"categories", categories.Len(),
		"duration", report.Duration)

	return ds, report, nil
}

// processImage parses attributes, decodes masks, and builds the
// annotations for one image.
func (imp *Importer) processImage(files ImageFiles) imageResult {
	width, height, err := ImageSize(files.ImagePath)
	if err != nil {
		return imageResult{err: err}
	}

	var (
		records  []AttributeRecord
		warnings int
	)
	if files.AttrPath != "" {
		var skipped int
		records, skipped, err = ParseAttributes(files.AttrPath, imp.opts.Lenient, imp.logger)
		if err != nil {
			return imageResult{err: err}
		}
		warnings += skipped
	}

	var seg *SegMask
	if files.SegPath != "" {
		seg, err = DecodeSegMask(files.SegPath, width, height)
		if err != nil {
			return imageResult{warnings: warnings, err: err}
		}
	}

	var parts []*PartMask
	for _, pf := range files.Parts {
		pm, err := DecodePartMask(pf.Path, pf.Level, width, height)
		if err != nil {
			return imageResult{warnings: warnings, err: err}
		}
		parts = append(parts, pm)
	}

	annotations, buildWarnings, err := buildAnnotations(
		files, width, height, records, seg, parts, imp.opts.Strict, imp.logger)
	warnings += buildWarnings
	if err != nil {
		return imageResult{warnings: warnings, err: err}
	}

	return imageResult{
		item: &dataset.Item{
			ID:          files.Stem,
			SuperLabel:  files.SuperLabel,
			ImagePath:   files.ImagePath,
			Width:       width,
			Height:      height,
			Annotations: annotations,
		},
		warnings: warnings,
	}
}

// failureFor builds the report entry for a per-image error, pulling
// the file and line out of the typed error kinds where available.
func failureFor(subset string, files ImageFiles, err error) Failure {
	f := Failure{
		Subset:  subset,
		Path:    files.ImagePath,
		Kind:    Kind(err),
		Message: err.Error(),
	}

	var parse *AttributeParseError
	if errors.As(err, &parse) {
		f.Path = parse.Path
		f.Line = parse.Line
		return f
	}
	var mask *MaskImageError
	if errors.As(err, &mask) {
		f.Path = mask.Path
		return f
	}
	var orphan *OrphanInstanceError
	if errors.As(err, &orphan) {
		f.Path = orphan.Path
		return f
	}
	return f
}
