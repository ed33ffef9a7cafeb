// Package pipeline orchestrates the image loading workflow stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/retroenv/esp32goload/internal/image"
	"github.com/retroenv/esp32goload/internal/loader"
	"github.com/retroenv/esp32goload/internal/mapper"
	"github.com/retroenv/esp32goload/internal/options"
	"github.com/retroenv/esp32goload/internal/program"
	"github.com/retroenv/esp32goload/internal/svd"
	"github.com/retroenv/retrogolib/log"
)

// ErrUnsupportedFormat is returned when neither the flash image nor the
// app image magic byte is found.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// partitionNotFoundMessage is the user visible message when loading a flash
// dump without a valid partition selection.
const partitionNotFoundMessage = "App partition not found in image."

// ValidationError reports an invalid load option. The load does not start
// and the target address space is not mutated.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Pipeline orchestrates the complete image loading workflow.
type Pipeline struct {
	logger *log.Logger
	loader *loader.Loader
}

// New creates a new loading pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
		loader: loader.New(),
	}
}

// Execute runs the complete loading pipeline on the input file and returns
// the populated address space.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program) (*program.AddressSpace, error) {
	data, err := p.loader.Load(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("loading image file: %w", err)
	}

	space := program.NewAddressSpace()
	if err := p.ExecuteWithData(ctx, data, space, opts); err != nil {
		return nil, err
	}
	return space, nil
}

// ExecuteWithData runs the loading pipeline on in-memory image data against
// an existing address space. The space may already be populated by an
// earlier load phase, segments merge with existing regions by start
// address.
func (p *Pipeline) ExecuteWithData(ctx context.Context, data []byte,
	space *program.AddressSpace, opts options.Program) error {

	img, err := p.parseImage(data, opts)
	if err != nil {
		return err
	}

	p.logger.Info("Parsed app image",
		log.String("entry", fmt.Sprintf("0x%08X", img.EntryAddress)),
		log.Stringer("variant", img.Variant),
		log.Int("segments", len(img.Segments)))

	if err := mapper.New(p.logger, space).MapSegments(ctx, img); err != nil {
		return fmt.Errorf("mapping segments: %w", err)
	}

	if err := p.importPeripherals(ctx, space, img.Variant, opts); err != nil {
		return fmt.Errorf("importing peripherals: %w", err)
	}
	return nil
}

// parseImage probes the input format and parses the app image, extracting
// it from the selected partition if the input is a full flash dump.
// Partition selection is validated before any address space mutation.
func (p *Pipeline) parseImage(data []byte, opts options.Program) (*image.AppImage, error) {
	switch format := image.Detect(data); format {
	case image.FormatFlashImage:
		flash, err := image.ParseFlashImage(data)
		if err != nil {
			return nil, fmt.Errorf("parsing flash image: %w", err)
		}
		p.logger.Debug("Parsed partition table",
			log.Int("partitions", len(flash.Partitions)))

		if opts.Partition == "" {
			return nil, &ValidationError{Reason: partitionNotFoundMessage}
		}
		partition, err := flash.Partition(opts.Partition)
		if err != nil {
			return nil, &ValidationError{Reason: partitionNotFoundMessage}
		}

		img, err := partition.ParseAppImage()
		if err != nil {
			return nil, fmt.Errorf("parsing app image of partition %q: %w",
				partition.Label, err)
		}
		return img, nil

	case image.FormatAppImage:
		img, err := image.ParseAppImage(data)
		if err != nil {
			return nil, fmt.Errorf("parsing app image: %w", err)
		}
		return img, nil

	default:
		return nil, ErrUnsupportedFormat
	}
}

// importPeripherals selects the descriptor file matching the chip variant
// and imports its peripherals. Without configured descriptor files this
// stage is skipped.
func (p *Pipeline) importPeripherals(ctx context.Context, space *program.AddressSpace,
	variant image.ChipVariant, opts options.Program) error {

	files := opts.DescriptorFiles()
	if len(files) == 0 {
		return nil
	}

	file := svd.SelectFile(files, variant)
	p.logger.Info("Processing peripheral descriptor",
		log.String("file", file),
		log.Stringer("variant", variant))

	return svd.NewImporter(p.logger, space).ImportFile(ctx, file)
}
