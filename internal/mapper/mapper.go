// Package mapper maps parsed app image segments into the target address
// space.
package mapper

import (
	"context"
	"fmt"

	"github.com/retroenv/esp32goload/internal/image"
	"github.com/retroenv/esp32goload/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// Provenance tags for mapped memory regions.
const (
	SourceLoader = "esp32 loader"
	SourceMerged = "merged"
)

// Mapper creates and merges memory regions for app image segments.
type Mapper struct {
	logger *log.Logger
	space  *program.AddressSpace
}

// New creates a new segment mapper targeting the given address space.
func New(logger *log.Logger, space *program.AddressSpace) *Mapper {
	return &Mapper{
		logger: logger,
		space:  space,
	}
}

// MapSegments maps all segments of the image in file order and registers
// the image entry address as an external entry point. Conflicting segments
// are skipped with a warning, the remaining segments are still mapped.
// Re-running with the same image against an already populated address space
// merges by start address and does not duplicate regions.
func (m *Mapper) MapSegments(ctx context.Context, img *image.AppImage) error {
	for i, seg := range img.Segments {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("mapping segments: %w", err)
		}

		if seg.Length == 0 || seg.LoadAddress == 0 {
			m.logger.Debug("Skipping unmappable segment",
				log.Int("segment", i),
				log.String("address", fmt.Sprintf("0x%08X", seg.LoadAddress)),
				log.String("length", fmt.Sprintf("0x%X", seg.Length)))
			continue
		}

		m.mapSegment(seg)

		if seg.Kind.Code() {
			m.space.AddCodeRange(seg.LoadAddress, seg.End())
		}
	}

	m.space.AddEntryPoint(img.EntryAddress)
	return nil
}

func (m *Mapper) mapSegment(seg image.Segment) {
	if !m.space.Covers(seg.LoadAddress, seg.End()) {
		m.createRegion(seg)
		return
	}

	existing := m.space.RegionContaining(seg.LoadAddress)
	if existing == nil {
		// covered by earlier regions but none holds the start address
		m.logger.Warn("Segment conflicts with existing regions",
			log.String("kind", seg.Kind.String()),
			log.String("address", fmt.Sprintf("0x%08X", seg.LoadAddress)))
		return
	}
	m.mergeRegion(existing, seg)
}

// regionName builds the kind qualified region name. The two always-present
// ROM kinds keep their bare name, all other kinds get the load address
// appended as multiple regions of the same kind can exist.
func regionName(seg image.Segment) string {
	if seg.Kind.Fixed() {
		return seg.Kind.String()
	}
	return fmt.Sprintf("%s_%x", seg.Kind, seg.LoadAddress)
}

// createRegion creates a fresh initialized region for the segment.
func (m *Mapper) createRegion(seg image.Segment) {
	name := regionName(seg)

	region, err := m.space.CreateInitializedRegion(name, seg.LoadAddress, seg.Data,
		seg.Perm.Read, seg.Perm.Write, seg.Perm.Execute)
	if err != nil {
		// partial overlap with an existing region, non-fatal
		m.logger.Warn("Skipping conflicting segment", log.Err(err))
		return
	}
	region.Source = SourceLoader

	m.logger.Debug("Created region",
		log.String("name", name),
		log.String("address", fmt.Sprintf("0x%08X", seg.LoadAddress)),
		log.String("length", fmt.Sprintf("0x%X", seg.Length)))
}

// mergeRegion overlays the segment onto a region that an earlier load phase
// created, typically the boot ROM image.
func (m *Mapper) mergeRegion(region *program.Region, seg image.Segment) {
	region.Name = regionName(seg)
	m.space.ConvertToInitialized(region)

	if err := region.WriteAt(seg.LoadAddress, seg.Data); err != nil {
		m.logger.Warn("Overlaying segment bytes failed", log.Err(err))
		return
	}
	region.Source = SourceMerged

	m.logger.Debug("Merged segment into existing region",
		log.String("name", region.Name),
		log.String("address", fmt.Sprintf("0x%08X", seg.LoadAddress)))
}
