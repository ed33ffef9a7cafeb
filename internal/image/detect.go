package image

// Format is the detected on-disk format of an input stream.
type Format int

const (
	// FormatUnknown means neither magic byte matched, the loader does not
	// offer itself for this input.
	FormatUnknown Format = iota
	// FormatFlashImage is a full flash dump with a partition table.
	FormatFlashImage
	// FormatAppImage is a standalone application image.
	FormatAppImage
)

func (f Format) String() string {
	switch f {
	case FormatFlashImage:
		return "flash image"
	case FormatAppImage:
		return "app image"
	default:
		return "unknown"
	}
}

// Detect probes the stream for a supported format. A flash dump is
// recognized by the bootloader magic at the bootloader offset, otherwise an
// app image magic at the stream start is tried. Detection never fails, an
// unsupported stream yields FormatUnknown.
func Detect(data []byte) Format {
	if len(data) > BootloaderOffset && data[BootloaderOffset] == AppImageMagic {
		return FormatFlashImage
	}
	if len(data) > 0 && data[0] == AppImageMagic {
		return FormatAppImage
	}
	return FormatUnknown
}
