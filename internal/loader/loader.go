// Package loader handles input file loading operations.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
)

// maxHexImageSize bounds the flattened size of an Intel HEX input, sparse
// address ranges would otherwise blow up the in-memory image.
const maxHexImageSize = 64 * 1024 * 1024

// ErrHexImageTooLarge is returned when the address span of an Intel HEX
// file exceeds the flattening limit.
var ErrHexImageTooLarge = errors.New("hex image address span too large")

// Loader reads firmware images from disk.
type Loader struct{}

// New creates a new image loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the image file into memory. Intel HEX files (.hex) are
// flattened to their binary content, everything else is read as raw binary.
func (l *Loader) Load(path string) ([]byte, error) {
	if strings.ToLower(filepath.Ext(path)) == ".hex" {
		return l.loadHex(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}

// loadHex parses an Intel HEX file and flattens its data segments into a
// contiguous binary image starting at the lowest used address. Gaps are
// padded with 0xFF, matching erased flash.
func (l *Loader) loadHex(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(file); err != nil {
		return nil, fmt.Errorf("parsing hex file %s: %w", path, err)
	}

	segments := mem.GetDataSegments()
	if len(segments) == 0 {
		return nil, nil
	}

	start := segments[0].Address
	end := segments[0].Address + uint32(len(segments[0].Data))
	for _, segment := range segments[1:] {
		if segment.Address < start {
			start = segment.Address
		}
		if segEnd := segment.Address + uint32(len(segment.Data)); segEnd > end {
			end = segEnd
		}
	}

	size := end - start
	if size > maxHexImageSize {
		return nil, fmt.Errorf("%d bytes: %w", size, ErrHexImageTooLarge)
	}
	return mem.ToBinary(start, size, 0xFF), nil
}
