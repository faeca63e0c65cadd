package image

import (
	"github.com/sigurn/crc16"

	"github.com/moffa90/go-stm32iap/hal"
)

// crcTable is CRC-16-CCITT: polynomial 0x1021, initial value 0xFFFF, no reflection,
// no final XOR.
var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// CRC16 computes the CRC-16-CCITT of data.
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// CRC16 returns the CRC-16-CCITT of the image as it lies in flash: from the
// lowest to the highest address with gaps read as erased bytes.
func (img *Image) CRC16() uint16 {
	lo, hi := img.Bounds()
	return CRC16(img.Flatten(lo, hi, hal.ErasedByte))
}
