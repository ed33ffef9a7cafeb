package program

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestAddressSpaceRegions(t *testing.T) {
	space := NewAddressSpace()

	region, err := space.CreateInitializedRegion("IROM0", 0x400D0000,
		[]byte{1, 2, 3, 4}, true, false, true)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x400D0004), region.End())
	assert.True(t, region.Initialized())

	assert.NotNil(t, space.RegionContaining(0x400D0002))
	assert.Nil(t, space.RegionContaining(0x400D0004))
	assert.True(t, space.Covers(0x400D0000, 0x400D0004))
	assert.False(t, space.Covers(0x400D0000, 0x400D0005))

	_, err = space.CreateUninitializedRegion("UART0", 0x3FF40000, 0x1000, true, true)
	assert.NoError(t, err)
	assert.Len(t, space.Regions(), 2)

	// regions are ordered by start address
	assert.Equal(t, "UART0", space.Regions()[0].Name)
	assert.Equal(t, "IROM0", space.Regions()[1].Name)
}

func TestAddressSpaceRegionConflict(t *testing.T) {
	space := NewAddressSpace()

	_, err := space.CreateInitializedRegion("a", 0x1000, make([]byte, 0x100), true, true, false)
	assert.NoError(t, err)

	_, err = space.CreateInitializedRegion("b", 0x1080, make([]byte, 0x100), true, true, false)
	assert.True(t, errors.Is(err, ErrRegionConflict))
	assert.Len(t, space.Regions(), 1)
}

func TestRegionWriteAt(t *testing.T) {
	space := NewAddressSpace()
	region, err := space.CreateUninitializedRegion("DRAM", 0x3FFB0000, 8, true, true)
	assert.NoError(t, err)
	assert.False(t, region.Initialized())

	space.ConvertToInitialized(region)
	assert.True(t, region.Initialized())

	assert.NoError(t, region.WriteAt(0x3FFB0002, []byte{0xAA, 0xBB}))
	assert.Equal(t, []byte{0, 0, 0xAA, 0xBB, 0, 0, 0, 0}, region.Data)

	err = region.WriteAt(0x3FFB0006, []byte{1, 2, 3})
	assert.True(t, errors.Is(err, ErrOutOfRegion))

	err = region.WriteAt(0x3FFA0000, []byte{1})
	assert.True(t, errors.Is(err, ErrOutOfRegion))

	// converting an initialized region keeps its bytes
	space.ConvertToInitialized(region)
	assert.Equal(t, byte(0xAA), region.Data[2])
}

func TestAddressSpaceCodeRanges(t *testing.T) {
	space := NewAddressSpace()

	space.AddCodeRange(0x400D0000, 0x400D1000)
	space.AddCodeRange(0x40080000, 0x40081000)
	space.AddCodeRange(0x400D0800, 0x400D2000) // overlaps the first range
	space.AddCodeRange(0x40081000, 0x40082000) // adjacent to the second
	space.AddCodeRange(0x400D0000, 0x400D1000) // repeated addition
	space.AddCodeRange(0x1000, 0x1000)         // empty range is ignored

	ranges := space.CodeRanges()
	assert.Len(t, ranges, 2)
	assert.Equal(t, AddressRange{Start: 0x40080000, End: 0x40082000}, ranges[0])
	assert.Equal(t, AddressRange{Start: 0x400D0000, End: 0x400D2000}, ranges[1])
}

func TestAddressSpaceEntryPoints(t *testing.T) {
	space := NewAddressSpace()

	space.AddEntryPoint(0x400D0000)
	space.AddEntryPoint(0x40080400)
	space.AddEntryPoint(0x400D0000) // duplicate

	assert.Equal(t, []uint32{0x400D0000, 0x40080400}, space.EntryPoints())
}
