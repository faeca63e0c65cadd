// Package image loads application firmware images for the IAP region.
//
// # Formats
//
// Intel HEX files (.hex, .ihex) carry their own addresses and may be sparse:
//
//	:020000040800F2
//	:10800000000002200D810008...
//
// Raw binary files (.bin and anything else) are placed at a caller-supplied base,
// normally the application start address.
//
// # Usage
//
//	img, err := image.Parse("app.hex", flashmap.STM32G0x1.AppStart)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := img.Fits(flashmap.STM32G0x1); err != nil {
//	    log.Fatal(err)
//	}
//	lo, hi := img.Bounds()
//	data := img.Flatten(lo, hi, 0xFF)
//
// Gaps between segments read as the fill byte, 0xFF for erased flash.
//
// # Checksum
//
// CRC16 is the CRC-16-CCITT of the image as laid out in flash, gaps included.
// It identifies an installed image in logs and CLI output.
package image
