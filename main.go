// Package main implements a memory map loader for ESP32 firmware images
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/esp32goload/internal/cli"
	"github.com/retroenv/esp32goload/internal/config"
	"github.com/retroenv/esp32goload/internal/options"
	"github.com/retroenv/esp32goload/internal/pipeline"
	"github.com/retroenv/esp32goload/internal/writer"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := app.Context()

	opts, err := cli.ParseFlags()
	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(opts)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	printBanner(opts)

	if err := run(ctx, logger, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Loading failed", log.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, opts options.Program) error {
	space, err := pipeline.New(logger).Execute(ctx, opts)
	if err != nil {
		return err
	}

	var output io.WriteCloser = os.Stdout
	if opts.Output != "" {
		output, err = os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("creating file %s: %w", opts.Output, err)
		}
	}

	if err := writer.Write(output, space); err != nil {
		return fmt.Errorf("writing memory map: %w", err)
	}
	if opts.Output != "" {
		if err := output.Close(); err != nil {
			return fmt.Errorf("closing file %s: %w", opts.Output, err)
		}
	}
	return nil
}

func printBanner(opts options.Program) {
	if opts.Quiet {
		return
	}
	fmt.Println("[-------------------------------------------]")
	fmt.Println("[ esp32goload - ESP32 firmware image loader ]")
	fmt.Printf("[-------------------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}
