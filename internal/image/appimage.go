package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// AppImageMagic is the first byte of every application image.
const AppImageMagic = 0xE9

// chip_id values of the extended image header.
const (
	chipIDESP32   = 0x0000
	chipIDESP32S2 = 0x0002
)

// appHeader is the 24 byte image header, fields in stream order.
type appHeader struct {
	Magic        byte
	SegmentCount byte
	SPIMode      byte
	SPISpeedSize byte
	Entry        uint32
	WPPin        byte
	SPIPinDrv    [3]byte
	ChipID       uint16
	MinChipRev   byte
	Reserved     [8]byte
	HashAppended byte
}

// segmentHeader is the 8 byte descriptor preceding each segment payload.
type segmentHeader struct {
	LoadAddress uint32
	Length      uint32
}

// ParseAppImage parses an application image from the given byte stream.
// The first byte has to be the app image magic. A segment whose declared
// length exceeds the remaining stream aborts the whole parse, the stream
// can not be read safely past that point.
func ParseAppImage(data []byte) (*AppImage, error) {
	if len(data) == 0 || data[0] != AppImageMagic {
		return nil, ErrNotAppImage
	}

	r := bytes.NewReader(data)
	var header appHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("reading app image header: %w", ErrTruncated)
	}

	variant := ChipESP32
	if header.ChipID == chipIDESP32S2 {
		variant = ChipESP32S2
	}

	img := &AppImage{
		EntryAddress: header.Entry,
		Variant:      variant,
		Segments:     make([]Segment, 0, header.SegmentCount),
	}

	for i := 0; i < int(header.SegmentCount); i++ {
		var seg segmentHeader
		if err := binary.Read(r, binary.LittleEndian, &seg); err != nil {
			return nil, fmt.Errorf("reading descriptor of segment %d: %w", i, ErrTruncated)
		}
		if uint32(r.Len()) < seg.Length {
			return nil, fmt.Errorf("segment %d at 0x%08X declares %d bytes but %d remain: %w",
				i, seg.LoadAddress, seg.Length, r.Len(), ErrSegmentOutOfBounds)
		}

		payload := make([]byte, seg.Length)
		if _, err := r.Read(payload); err != nil && seg.Length > 0 {
			return nil, fmt.Errorf("reading payload of segment %d: %w", i, ErrTruncated)
		}

		kind := Classify(variant, seg.LoadAddress)
		img.Segments = append(img.Segments, Segment{
			LoadAddress: seg.LoadAddress,
			Length:      seg.Length,
			Data:        payload,
			Kind:        kind,
			Perm:        kind.Permissions(),
		})
	}

	return img, nil
}

// EncodeSegments writes the segment descriptors and payloads in file order,
// reproducing the image body after the header. Used for round-trip
// verification.
func EncodeSegments(img *AppImage) []byte {
	var buf bytes.Buffer
	for _, seg := range img.Segments {
		_ = binary.Write(&buf, binary.LittleEndian, segmentHeader{
			LoadAddress: seg.LoadAddress,
			Length:      seg.Length,
		})
		buf.Write(seg.Data)
	}
	return buf.Bytes()
}
