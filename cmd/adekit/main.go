// Package main provides the adekit binary entry point.
// Adekit imports ADE20K 2017 annotation trees into a normalized
// in-memory model and exports them to other segmentation formats.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/adekit/adekit/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "adekit"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "ADE20K 2017 dataset importer and exporter",
		Long: `Adekit reads the ADE20K 2017 on-disk annotation layout (paired
images, per-pixel masks, and per-instance attribute files) into a
normalized annotation model and re-exports it to other segmentation
mask formats.

Supported targets: coco (instances JSON with RLE masks), maskdir
(one binary PNG per instance plus an index sidecar).`,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&flags.workers, "workers", 0, "Concurrent per-image tasks (0 = number of CPUs)")
	cmd.PersistentFlags().BoolVar(&flags.lenient, "lenient", false, "Skip malformed attribute lines instead of failing the image")
	cmd.PersistentFlags().BoolVar(&flags.strict, "strict", false, "Fail images whose attribute records have no mask pixels")
	cmd.PersistentFlags().BoolVar(&flags.failFast, "fail-fast", false, "Abort the whole import on the first per-image error")

	cmd.AddCommand(convertCmd(&flags))
	cmd.AddCommand(validateCmd(&flags))

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// rootFlags holds the persistent flags shared by all subcommands.
type rootFlags struct {
	configPath string
	logLevel   string
	workers    int
	lenient    bool
	strict     bool
	failFast   bool
}

// loadConfig resolves the layered configuration and applies flag
// overrides on top.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if flags.configPath != "" {
		cfg, err = config.LoadFromFile(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg, err = config.NewLoader(nil).Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	}

	if flags.workers != 0 {
		cfg.Import.Workers = flags.workers
	}
	if flags.lenient {
		cfg.Import.Lenient = true
	}
	if flags.strict {
		cfg.Import.Strict = true
	}
	if flags.failFast {
		cfg.Import.FailFast = true
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
