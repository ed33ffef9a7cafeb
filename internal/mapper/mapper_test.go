package mapper

import (
	"context"
	"testing"

	"github.com/retroenv/esp32goload/internal/image"
	"github.com/retroenv/esp32goload/internal/program"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func testSegment(variant image.ChipVariant, address uint32, data []byte) image.Segment {
	kind := image.Classify(variant, address)
	return image.Segment{
		LoadAddress: address,
		Length:      uint32(len(data)),
		Data:        data,
		Kind:        kind,
		Perm:        kind.Permissions(),
	}
}

func TestMapSegments(t *testing.T) {
	space := program.NewAddressSpace()
	m := New(log.NewTestLogger(t), space)

	img := &image.AppImage{
		EntryAddress: 0x400D0000,
		Variant:      image.ChipESP32,
		Segments: []image.Segment{
			testSegment(image.ChipESP32, 0x400D0000, []byte{1, 2, 3, 4}),
			testSegment(image.ChipESP32, 0x3FFB0000, []byte{5, 6}),
		},
	}

	assert.NoError(t, m.MapSegments(context.Background(), img))

	regions := space.Regions()
	assert.Len(t, regions, 2)

	// data region name carries the load address, kind can repeat
	assert.Equal(t, "DRAM_3ffb0000", regions[0].Name)
	assert.True(t, regions[0].Read)
	assert.True(t, regions[0].Write)
	assert.False(t, regions[0].Execute)

	// the always-present ROM region keeps its bare kind name
	assert.Equal(t, "IROM0", regions[1].Name)
	assert.True(t, regions[1].Read)
	assert.False(t, regions[1].Write)
	assert.True(t, regions[1].Execute)
	assert.Equal(t, []byte{1, 2, 3, 4}, regions[1].Data)
	assert.Equal(t, SourceLoader, regions[1].Source)

	// only the code segment is collected as code range
	ranges := space.CodeRanges()
	assert.Len(t, ranges, 1)
	assert.Equal(t, program.AddressRange{Start: 0x400D0000, End: 0x400D0004}, ranges[0])

	assert.Equal(t, []uint32{0x400D0000}, space.EntryPoints())
}

func TestMapSegmentsIdempotent(t *testing.T) {
	space := program.NewAddressSpace()
	m := New(log.NewTestLogger(t), space)

	img := &image.AppImage{
		EntryAddress: 0x400D0000,
		Variant:      image.ChipESP32,
		Segments: []image.Segment{
			testSegment(image.ChipESP32, 0x400D0000, []byte{1, 2, 3, 4}),
		},
	}

	assert.NoError(t, m.MapSegments(context.Background(), img))
	assert.NoError(t, m.MapSegments(context.Background(), img))

	regions := space.Regions()
	assert.Len(t, regions, 1)
	assert.Equal(t, "IROM0", regions[0].Name)
	assert.Equal(t, []byte{1, 2, 3, 4}, regions[0].Data)
	assert.Len(t, space.CodeRanges(), 1)
	assert.Equal(t, []uint32{0x400D0000}, space.EntryPoints())
}

func TestMapSegmentsMergesBootROMRegion(t *testing.T) {
	space := program.NewAddressSpace()

	// boot ROM load phase populated the address space already
	existing, err := space.CreateUninitializedRegion("rom", 0x40080000, 0x1000, true, false)
	assert.NoError(t, err)

	m := New(log.NewTestLogger(t), space)
	img := &image.AppImage{
		EntryAddress: 0x40080400,
		Variant:      image.ChipESP32,
		Segments: []image.Segment{
			testSegment(image.ChipESP32, 0x40080400, []byte{0xAA, 0xBB}),
		},
	}
	assert.NoError(t, m.MapSegments(context.Background(), img))

	assert.Len(t, space.Regions(), 1)
	assert.Equal(t, "IRAM_40080400", existing.Name)
	assert.True(t, existing.Initialized())
	assert.Equal(t, byte(0xAA), existing.Data[0x400])
	assert.Equal(t, byte(0xBB), existing.Data[0x401])
	assert.Equal(t, SourceMerged, existing.Source)
}

func TestMapSegmentsConflict(t *testing.T) {
	space := program.NewAddressSpace()

	// existing region covers only the tail of the segment
	_, err := space.CreateUninitializedRegion("rom", 0x40080100, 0x100, true, false)
	assert.NoError(t, err)

	m := New(log.NewTestLogger(t), space)
	img := &image.AppImage{
		EntryAddress: 0x40080000,
		Variant:      image.ChipESP32,
		Segments: []image.Segment{
			testSegment(image.ChipESP32, 0x40080000, make([]byte, 0x200)),
			testSegment(image.ChipESP32, 0x400D0000, []byte{1}),
		},
	}

	// conflicting segment is skipped, the rest is still mapped
	assert.NoError(t, m.MapSegments(context.Background(), img))

	regions := space.Regions()
	assert.Len(t, regions, 2)
	assert.Equal(t, "rom", regions[0].Name)
	assert.Equal(t, "IROM0", regions[1].Name)
}

func TestMapSegmentsSkipsUnmappable(t *testing.T) {
	space := program.NewAddressSpace()
	m := New(log.NewTestLogger(t), space)

	img := &image.AppImage{
		EntryAddress: 0x400D0000,
		Variant:      image.ChipESP32,
		Segments: []image.Segment{
			testSegment(image.ChipESP32, 0, []byte{1, 2}),        // zero load address
			testSegment(image.ChipESP32, 0x400D0000, nil),        // zero length
			testSegment(image.ChipESP32, 0x400D0000, []byte{1}),
		},
	}
	assert.NoError(t, m.MapSegments(context.Background(), img))
	assert.Len(t, space.Regions(), 1)
}

func TestMapSegmentsCancellation(t *testing.T) {
	space := program.NewAddressSpace()
	m := New(log.NewTestLogger(t), space)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img := &image.AppImage{
		EntryAddress: 0x400D0000,
		Variant:      image.ChipESP32,
		Segments: []image.Segment{
			testSegment(image.ChipESP32, 0x400D0000, []byte{1}),
		},
	}

	err := m.MapSegments(ctx, img)
	assert.Error(t, err)
	assert.Len(t, space.Regions(), 0)
}
