package image

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-stm32iap/flashmap"
)

func TestFlatten(t *testing.T) {
	img, err := ParseReader(strings.NewReader(sparseHex))
	require.NoError(t, err)

	lo, hi := img.Bounds()
	require.Equal(t, uint32(0x08008000), lo)
	require.Equal(t, uint32(0x08008024), hi)
	require.Equal(t, 20, img.Size())

	data := img.Flatten(lo, hi, 0xFF)
	require.Len(t, data, 0x24)
	require.Equal(t, byte(0x0F), data[15])
	require.Equal(t, bytes.Repeat([]byte{0xFF}, 16), data[16:32])
	require.Equal(t, []byte{0xAA, 0xBB, 0xCC, 0xDD}, data[32:])

	require.Nil(t, img.Flatten(hi, lo, 0xFF))
}

func TestFits(t *testing.T) {
	region := flashmap.STM32G0x1

	tests := []struct {
		name    string
		base    uint32
		size    int
		wantErr bool
	}{
		{name: "at application start", base: region.AppStart, size: 1024},
		{name: "up to write limit", base: region.WriteLimit() - 16, size: 16},
		{name: "below application start", base: region.AppStart - 8, size: 16, wantErr: true},
		{name: "into guard unit", base: region.WriteLimit() - 8, size: 16, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := New(tt.base, bytes.Repeat([]byte{0x5A}, tt.size))
			require.NoError(t, err)

			err = img.Fits(region)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			var oor *OutOfRegionError
			require.True(t, errors.As(err, &oor))
			require.Contains(t, err.Error(), "out of range")
		})
	}
}

func TestWriteHexRoundTrip(t *testing.T) {
	img, err := New(0x08008000, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, img.WriteHex(&buf))

	back, err := ParseReader(&buf)
	require.NoError(t, err)
	require.Equal(t, img.Segments(), back.Segments())
}
