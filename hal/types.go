package hal

// WRPRange is the write-protection page range of one zone.
//
// The hardware protects pages StartOffset..EndOffset (inclusive, counted from the
// start of flash) when StartOffset <= EndOffset. A reversed pair leaves the zone
// unprotected.
type WRPRange struct {
	// Zone is the protection area these offsets belong to
	Zone WRPZone

	// StartOffset is the first protected page
	StartOffset uint8

	// EndOffset is the last protected page
	EndOffset uint8
}

// PCROPRange is a proprietary-code read-out protection range.
type PCROPRange struct {
	StartAddr uint32
	EndAddr   uint32

	// RDPErase erases the PCROP area when RDP regresses to level 0
	RDPErase bool
}

// OptionBytes is the option-byte content the IAP core reads and rewrites.
type OptionBytes struct {
	// WRP is the write-protection range of the zone that was requested
	WRP WRPRange

	// RDPLevel is the read-out protection level
	RDPLevel RDPLevel

	// UserConfig carries the USER option bits (BOR level, reset behaviour, boot
	// configuration, watchdog selection) as a raw word
	UserConfig uint32

	// PCROP is the PCROP zone A range
	PCROP PCROPRange
}
