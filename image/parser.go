package image

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcinbor85/gohex"
)

// Parse loads an image from path. Intel HEX files are detected by extension;
// any other file is read as raw binary placed at base.
//
// Example:
//
//	img, err := image.Parse("app.bin", 0x08008000)
func Parse(path string, base uint32) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex", ".ihx":
		return ParseReader(f)
	default:
		return ParseBinaryReader(f, base)
	}
}

// ParseReader parses an Intel HEX image from r.
func ParseReader(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("failed to parse intel hex: %w", err)
	}
	if len(mem.GetDataSegments()) == 0 {
		return nil, fmt.Errorf("no data records found")
	}

	return &Image{mem: mem}, nil
}

// ParseBinaryReader reads a raw binary image from r and places it at base.
func ParseBinaryReader(r io.Reader, base uint32) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read binary: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	return New(base, data)
}

// New returns an image holding data at base.
func New(base uint32, data []byte) (*Image, error) {
	if uint64(base)+uint64(len(data)) > 1<<32 {
		return nil, fmt.Errorf("image of %d bytes at 0x%08X exceeds the address space", len(data), base)
	}

	mem := gohex.NewMemory()
	if err := mem.AddBinary(base, data); err != nil {
		return nil, fmt.Errorf("failed to add data at 0x%08X: %w", base, err)
	}

	return &Image{mem: mem}, nil
}
