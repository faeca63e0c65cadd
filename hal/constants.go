package hal

// Bank identifies a flash bank.
type Bank uint8

// Flash banks. Single-bank STM32G0 parts only have Bank1.
const (
	Bank1 Bank = 1
	Bank2 Bank = 2
)

// ErasedByte is the value of every byte of an erased page.
const ErasedByte = 0xFF

// Flags is a set of flash status register (FLASH_SR) bits.
type Flags uint32

// Status register bits per RM0444 section 3.7.4.
const (
	// FlagEOP is set at the end of a successful program or erase operation
	FlagEOP Flags = 1 << 0

	// FlagOPERR reports an operation error (ECC or other) when interrupts are enabled
	FlagOPERR Flags = 1 << 1

	// FlagPROGERR reports a program of a non-erased location
	FlagPROGERR Flags = 1 << 3

	// FlagWRPERR reports an erase or program of a write-protected address
	FlagWRPERR Flags = 1 << 4

	// FlagPGAERR reports a misaligned program operation
	FlagPGAERR Flags = 1 << 5

	// FlagSIZERR reports a program access that is not a double-word
	FlagSIZERR Flags = 1 << 6

	// FlagPGSERR reports a programming sequence error
	FlagPGSERR Flags = 1 << 7

	// FlagMISSERR reports data missing during fast programming
	FlagMISSERR Flags = 1 << 8

	// FlagFASTERR reports a fast programming error
	FlagFASTERR Flags = 1 << 9

	// FlagRDERR reports a read of a PCROP-protected area
	FlagRDERR Flags = 1 << 14

	// FlagOPTVERR reports an option-byte load mismatch
	FlagOPTVERR Flags = 1 << 15
)

// StaleFlags are the flags cleared before starting a new operation.
const StaleFlags = FlagEOP | FlagPGSERR | FlagWRPERR | FlagOPTVERR

// ErrorFlags are the flags that mark an operation as failed.
const ErrorFlags = FlagOPERR | FlagPROGERR | FlagWRPERR | FlagPGAERR | FlagSIZERR |
	FlagPGSERR | FlagMISSERR | FlagFASTERR | FlagRDERR | FlagOPTVERR

// WRPZone selects one of the write-protection areas of a bank.
type WRPZone uint8

// Write-protection areas. Zero means "no area".
const (
	WRPZoneA WRPZone = 0x01
	WRPZoneB WRPZone = 0x02
)

// OptionType selects which option-byte fields a program request applies.
type OptionType uint32

const (
	OptionWRP   OptionType = 1 << 0
	OptionRDP   OptionType = 1 << 1
	OptionUser  OptionType = 1 << 2
	OptionPCROP OptionType = 1 << 3
)

// RDPLevel is the read-out protection level stored in the option bytes.
type RDPLevel uint8

const (
	// RDPLevel0 disables read-out protection
	RDPLevel0 RDPLevel = 0xAA

	// RDPLevel1 blocks debug access to flash; any other value than 0xAA/0xCC means level 1
	RDPLevel1 RDPLevel = 0xBB

	// RDPLevel2 permanently disables debug; irreversible on hardware
	RDPLevel2 RDPLevel = 0xCC
)
