package image

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestDetect(t *testing.T) {
	flash := make([]byte, 0x2000)
	flash[BootloaderOffset] = AppImageMagic

	app := make([]byte, 0x100)
	app[0] = AppImageMagic

	// app magic at both offsets, the flash interpretation wins
	both := make([]byte, 0x2000)
	both[0] = AppImageMagic
	both[BootloaderOffset] = AppImageMagic

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{name: "flash image", data: flash, want: FormatFlashImage},
		{name: "app image", data: app, want: FormatAppImage},
		{name: "flash dump wins over app image", data: both, want: FormatFlashImage},
		{name: "no magic at either offset", data: make([]byte, 0x2000), want: FormatUnknown},
		{name: "empty stream", data: nil, want: FormatUnknown},
		{name: "short stream without app magic", data: []byte{0x00, 0xE9}, want: FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.data))
		})
	}
}
