package program

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestRecordTypeFields(t *testing.T) {
	record := NewRecordType("UART0", 0x80)

	assert.False(t, record.DefineField(0x00, "FIFO", 4))
	assert.False(t, record.DefineField(0x04, "INT_RAW", 4))
	assert.False(t, record.DefineField(0x10, "CLKDIV", 4))

	// duplicate offset, last definition wins
	assert.True(t, record.DefineField(0x04, "INT_ST", 4))

	fields := record.Fields()
	assert.Len(t, fields, 3)
	assert.Equal(t, "FIFO", fields[0].Name)
	assert.Equal(t, "INT_ST", fields[1].Name)
	assert.Equal(t, uint32(0x04), fields[1].Offset)
	assert.Equal(t, "CLKDIV", fields[2].Name)
}

func TestAddTypeReplaces(t *testing.T) {
	space := NewAddressSpace()

	first := NewRecordType("UART0", 0x80)
	first.DefineField(0, "FIFO", 4)
	space.AddType(first)

	second := NewRecordType("UART0", 0x100)
	space.AddType(second)

	assert.Len(t, space.Types(), 1)
	assert.Equal(t, uint32(0x100), space.Type("UART0").Size)
}

func TestPlaceRecord(t *testing.T) {
	space := NewAddressSpace()

	first := NewRecordType("UART0", 0x80)
	space.PlaceRecord(0x3FF40000, first)

	second := NewRecordType("UART0", 0x100)
	space.PlaceRecord(0x3FF40000, second)
	space.PlaceRecord(0x3FF50000, second)

	records := space.Records()
	assert.Len(t, records, 2)
	assert.Equal(t, second, records[0].Type)
	assert.Equal(t, uint32(0x3FF50000), records[1].Address)
}

func TestNamespaces(t *testing.T) {
	space := NewAddressSpace()

	ns := space.EnsureNamespace("Peripherals")
	again := space.EnsureNamespace("Peripherals")
	assert.Equal(t, ns, again)
	assert.Len(t, space.Namespaces(), 1)

	ns.AddLabel("UART0", 0x3FF40000)
	ns.AddLabel("SPI2", 0x3FF64000)
	ns.AddLabel("UART0", 0x3FF40000) // re-adding moves, not duplicates

	labels := ns.Labels()
	assert.Len(t, labels, 2)
	assert.Equal(t, "UART0", labels[0].Name)
	assert.Equal(t, uint32(0x3FF64000), labels[1].Address)
}
