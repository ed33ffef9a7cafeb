// Package image implements parsing of ESP32 flash dumps and application images.
package image

import "fmt"

// ChipVariant identifies the chip family an app image was built for. It is
// resolved once from the image header and threaded as configuration into
// address classification and peripheral descriptor selection.
type ChipVariant string

const (
	// ChipESP32 is the original ESP32.
	ChipESP32 ChipVariant = "esp32"
	// ChipESP32S2 is the ESP32-S2.
	ChipESP32S2 ChipVariant = "esp32s2"
)

func (c ChipVariant) String() string {
	return string(c)
}

// Permissions describes the access rights of a mapped segment.
type Permissions struct {
	Read    bool
	Write   bool
	Execute bool
}

// Segment is a contiguous block of code or data from an app image, with the
// region kind derived from the load address.
type Segment struct {
	LoadAddress uint32
	Length      uint32
	Data        []byte

	Kind RegionKind
	Perm Permissions
}

// End returns the exclusive end address of the segment.
func (s Segment) End() uint32 {
	return s.LoadAddress + s.Length
}

// AppImage is a parsed application image: entry address, chip variant and
// the segments in file order.
type AppImage struct {
	EntryAddress uint32
	Variant      ChipVariant
	Segments     []Segment
}

// Partition is a named, typed byte range within a flash image. It keeps a
// reference to its own byte sub-range of the source stream so that the
// contained app image can be parsed directly from it.
type Partition struct {
	Type    byte
	SubType byte
	Offset  uint32
	Length  uint32
	Label   string
	Flags   uint32

	data []byte
}

// ParseAppImage parses the application image contained in the partition's
// byte range.
func (p Partition) ParseAppImage() (*AppImage, error) {
	return ParseAppImage(p.data)
}

// FlashImage is a parsed flash dump: the partitions of the partition table
// in encounter order.
type FlashImage struct {
	Partitions []Partition
}

// Partition returns the partition with the given label.
func (f *FlashImage) Partition(label string) (Partition, error) {
	for _, p := range f.Partitions {
		if p.Label == label {
			return p, nil
		}
	}
	return Partition{}, fmt.Errorf("partition %q: %w", label, ErrPartitionNotFound)
}
