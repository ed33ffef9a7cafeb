package image

import "errors"

var (
	// ErrNotAppImage is returned when the stream does not start with the
	// app image magic byte.
	ErrNotAppImage = errors.New("not an app image")
	// ErrNotFlashImage is returned when the stream does not carry the
	// bootloader magic byte at the bootloader offset.
	ErrNotFlashImage = errors.New("not a flash image")
	// ErrTruncated is returned when a header or descriptor extends beyond
	// the end of the stream.
	ErrTruncated = errors.New("truncated image")
	// ErrSegmentOutOfBounds is returned when a segment's declared length
	// exceeds the remaining stream.
	ErrSegmentOutOfBounds = errors.New("segment exceeds image bounds")
	// ErrPartitionOutOfBounds is returned when a partition entry points
	// outside of the flash image.
	ErrPartitionOutOfBounds = errors.New("partition exceeds image bounds")
	// ErrPartitionOverlap is returned when two partition entries describe
	// overlapping byte ranges.
	ErrPartitionOverlap = errors.New("overlapping partitions")
	// ErrPartitionNotFound is returned when a partition label is not
	// present in the partition table.
	ErrPartitionNotFound = errors.New("partition not found")
)
