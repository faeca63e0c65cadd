package image

import (
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"

	"github.com/moffa90/go-stm32iap/flashmap"
)

// Image is a firmware image made of address-ordered data segments.
type Image struct {
	mem *gohex.Memory
}

// Segment is a contiguous run of image data.
type Segment struct {
	Address uint32
	Data    []byte
}

// Segments returns the data segments ordered by address.
func (img *Image) Segments() []Segment {
	ds := img.mem.GetDataSegments()
	segs := make([]Segment, 0, len(ds))
	for _, s := range ds {
		segs = append(segs, Segment{Address: s.Address, Data: s.Data})
	}
	return segs
}

// Bounds returns the lowest address and the address past the highest byte.
func (img *Image) Bounds() (lo, hi uint32) {
	segs := img.mem.GetDataSegments()
	if len(segs) == 0 {
		return 0, 0
	}

	lo = segs[0].Address
	for _, s := range segs {
		if s.Address < lo {
			lo = s.Address
		}
		if end := s.Address + uint32(len(s.Data)); end > hi {
			hi = end
		}
	}
	return lo, hi
}

// Size returns the number of data bytes, excluding gaps.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.mem.GetDataSegments() {
		n += len(s.Data)
	}
	return n
}

// Entry returns the start address record, if the image has one.
func (img *Image) Entry() (uint32, bool) {
	return img.mem.GetStartAddress()
}

// Flatten returns the bytes in [start, end) with gaps set to fill.
func (img *Image) Flatten(start, end uint32, fill byte) []byte {
	if end <= start {
		return nil
	}
	return img.mem.ToBinary(start, end-start, fill)
}

// Fits checks that the image lies in the writable part of region.
func (img *Image) Fits(region flashmap.Region) error {
	lo, hi := img.Bounds()
	if hi == lo {
		return fmt.Errorf("image is empty")
	}
	if lo < region.AppStart || hi > region.WriteLimit() {
		return &OutOfRegionError{
			Lo:  lo,
			Hi:  hi,
			Min: region.AppStart,
			Max: region.WriteLimit(),
		}
	}
	return nil
}

// WriteHex writes the image as Intel HEX.
func (img *Image) WriteHex(w io.Writer) error {
	return img.mem.DumpIntelHex(w, 16)
}

// OutOfRegionError indicates an image extending outside the writable region.
type OutOfRegionError struct {
	Lo, Hi   uint32
	Min, Max uint32
}

func (e *OutOfRegionError) Error() string {
	return fmt.Sprintf("image 0x%08X-0x%08X is out of range: writable range is 0x%08X-0x%08X",
		e.Lo, e.Hi, e.Min, e.Max)
}
