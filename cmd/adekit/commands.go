package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adekit/adekit/ade"
	"github.com/adekit/adekit/config"
	"github.com/adekit/adekit/dataset"
	"github.com/adekit/adekit/export"
)

// convertCmd imports a dataset root and exports it to a target format.
func convertCmd(flags *rootFlags) *cobra.Command {
	var (
		format string
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "convert <dataset-root>",
		Short: "Import an ADE20K 2017 tree and export it to another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			if format != "" {
				cfg.Export.Format = format
			}
			if outDir != "" {
				cfg.Export.Output = outDir
			}

			ds, report, err := runImport(cmd.Context(), cfg, logger, args[0])
			if err != nil {
				return err
			}
			printReport(report)

			target, err := export.ParseFormat(cfg.Export.Format)
			if err != nil {
				return err
			}
			exporter, err := export.New(target)
			if err != nil {
				return err
			}
			if err := exporter.Export(ds, cfg.Export.Output); err != nil {
				return fmt.Errorf("export %s: %w", target, err)
			}

			fmt.Printf("exported %d image(s) to %s as %s\n",
				ds.ItemCount(), cfg.Export.Output, target)
			if report.Failed() {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", fmt.Sprintf("Target format (%s)", strings.Join(export.Formats(), ", ")))
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")
	return cmd
}

// validateCmd imports a dataset root and reports problems without
// writing anything.
func validateCmd(flags *rootFlags) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate <dataset-root>",
		Short: "Import an ADE20K 2017 tree and report problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}

			_, report, err := runImport(cmd.Context(), cfg, logger, args[0])
			if err != nil {
				return err
			}
			printReport(report)

			if !watch {
				if report.Failed() {
					os.Exit(1)
				}
				return nil
			}

			return watchAndRevalidate(cfg, logger, args[0])
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Re-validate whenever dataset files change")
	return cmd
}

// setup loads the configuration and installs the default logger.
func setup(flags *rootFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func runImport(ctx context.Context, cfg *config.Config, logger *slog.Logger, root string) (*dataset.Dataset, *ade.Report, error) {
	importer := ade.NewImporter(ade.Options{
		Workers:  cfg.Import.Workers,
		Lenient:  cfg.Import.Lenient,
		Strict:   cfg.Import.Strict,
		FailFast: cfg.Import.FailFast,
		Logger:   logger,
	})
	return importer.Import(ctx, root)
}

// printReport writes the import summary and failures to stdout.
func printReport(report *ade.Report) {
	fmt.Println(report.Summary())
	for _, f := range report.Failures {
		if f.Line > 0 {
			fmt.Printf("  [%s] %s:%d: %s\n", f.Kind, f.Path, f.Line, f.Message)
		} else {
			fmt.Printf("  [%s] %s: %s\n", f.Kind, f.Path, f.Message)
		}
	}
}

// watchAndRevalidate blocks, re-importing the dataset root whenever
// its files change, until interrupted.
func watchAndRevalidate(cfg *config.Config, logger *slog.Logger, root string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := ade.NewWatcher(ade.WatcherConfig{Root: root, Logger: logger})
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Stop()

	fmt.Println("watching for changes (ctrl-c to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-watcher.Changes():
			if !ok {
				return nil
			}
			logger.Info("dataset changed, re-validating", "changes", len(batch))
			if _, report, err := runImport(ctx, cfg, logger, root); err != nil {
				fmt.Printf("re-validation failed: %v\n", err)
			} else {
				printReport(report)
			}
		}
	}
}
