package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// Flash dump layout constants of the standard ESP-IDF partitioning.
const (
	// BootloaderOffset is where the second stage bootloader image starts,
	// its first byte carries the app image magic on a valid flash dump.
	BootloaderOffset = 0x1000
	// PartitionTableOffset is where the partition table starts.
	PartitionTableOffset = 0x8000
	// PartitionTableSize bounds the partition table scan.
	PartitionTableSize = 0xC00
	// PartitionEntrySize is the fixed size of one partition table entry.
	PartitionEntrySize = 32
	// PartitionEntryMagic marks a valid partition table entry.
	PartitionEntryMagic = 0x50AA
)

// partitionEntry is the on-flash partition table record, fields in stream
// order.
type partitionEntry struct {
	Magic   uint16
	Type    byte
	SubType byte
	Offset  uint32
	Length  uint32
	Label   [16]byte
	Flags   uint32
}

// ParseFlashImage parses the partition table of a full flash dump. The scan
// stops at the first entry without the entry magic, which covers both the
// all-0xFF erased sentinel and the optional MD5 checksum entry, or at the
// table size limit.
func ParseFlashImage(data []byte) (*FlashImage, error) {
	if len(data) <= BootloaderOffset || data[BootloaderOffset] != AppImageMagic {
		return nil, ErrNotFlashImage
	}

	flash := &FlashImage{}

	for offset := PartitionTableOffset; offset+PartitionEntrySize <= len(data) &&
		offset < PartitionTableOffset+PartitionTableSize; offset += PartitionEntrySize {

		var entry partitionEntry
		r := bytes.NewReader(data[offset : offset+PartitionEntrySize])
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return nil, fmt.Errorf("reading partition entry at 0x%X: %w", offset, ErrTruncated)
		}
		if entry.Magic != PartitionEntryMagic {
			break
		}

		if entry.Length == 0 {
			return nil, fmt.Errorf("partition at 0x%X has zero length: %w",
				offset, ErrPartitionOutOfBounds)
		}
		end := uint64(entry.Offset) + uint64(entry.Length)
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("partition %q [0x%X:0x%X]: %w",
				trimLabel(entry.Label), entry.Offset, end, ErrPartitionOutOfBounds)
		}

		flash.Partitions = append(flash.Partitions, Partition{
			Type:    entry.Type,
			SubType: entry.SubType,
			Offset:  entry.Offset,
			Length:  entry.Length,
			Label:   trimLabel(entry.Label),
			Flags:   entry.Flags,
			data:    data[entry.Offset : entry.Offset+entry.Length],
		})
	}

	if err := checkOverlaps(flash.Partitions); err != nil {
		return nil, err
	}
	return flash, nil
}

// checkOverlaps verifies that the partitions describe disjoint byte ranges.
func checkOverlaps(partitions []Partition) error {
	sorted := make([]Partition, len(partitions))
	copy(sorted, partitions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if sorted[i].Offset < prev.Offset+prev.Length {
			return fmt.Errorf("partitions %q and %q: %w",
				prev.Label, sorted[i].Label, ErrPartitionOverlap)
		}
	}
	return nil
}

func trimLabel(label [16]byte) string {
	return string(bytes.TrimRight(label[:], "\x00"))
}
