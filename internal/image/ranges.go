package image

// RegionKind classifies a segment by the memory region its load address
// falls into. The kind string is used as the memory region name tag.
type RegionKind string

const (
	KindIROM    RegionKind = "IROM0"
	KindDROM    RegionKind = "DROM0"
	KindIRAM    RegionKind = "IRAM"
	KindDRAM    RegionKind = "DRAM"
	KindRTCIRAM RegionKind = "RTC_IRAM"
	KindRTCDRAM RegionKind = "RTC_DRAM"
	KindRTCData RegionKind = "RTC_DATA"
	// KindMem is the catch-all for load addresses outside of all known
	// ranges of the chip variant.
	KindMem RegionKind = "MEM"
)

func (k RegionKind) String() string {
	return string(k)
}

// Code returns whether the kind holds executable content.
func (k RegionKind) Code() bool {
	switch k {
	case KindIROM, KindIRAM, KindRTCIRAM:
		return true
	default:
		return false
	}
}

// Fixed returns whether the kind names one of the two always-present ROM
// regions that keep their bare name when mapped. All other kinds can occur
// multiple times and get the load address appended to the region name.
func (k RegionKind) Fixed() bool {
	return k == KindIROM || k == KindDROM
}

// Permissions returns the access rights for the kind. Code kinds are
// read+execute, everything else read+write.
func (k RegionKind) Permissions() Permissions {
	if k.Code() {
		return Permissions{Read: true, Execute: true}
	}
	return Permissions{Read: true, Write: true}
}

// addressRange maps the half-open address range [low,high) to a region kind.
type addressRange struct {
	low  uint32
	high uint32
	kind RegionKind
}

// Address range tables per chip variant, taken from the technical reference
// manuals. Ranges are authored non-overlapping, first match wins.
var esp32Ranges = []addressRange{
	{0x3F400000, 0x3F800000, KindDROM},
	{0x3FF80000, 0x3FF82000, KindRTCDRAM},
	{0x3FFAE000, 0x40000000, KindDRAM},
	{0x40080000, 0x400A0000, KindIRAM},
	{0x400C0000, 0x400C2000, KindRTCIRAM},
	{0x400D0000, 0x40400000, KindIROM},
	{0x50000000, 0x50002000, KindRTCData},
}

var esp32s2Ranges = []addressRange{
	{0x3F000000, 0x3F3F0000, KindDROM},
	{0x3FF9E000, 0x3FFA0000, KindRTCDRAM},
	{0x3FFB0000, 0x40000000, KindDRAM},
	{0x40020000, 0x40070000, KindIRAM},
	{0x40070000, 0x40072000, KindRTCIRAM},
	{0x40080000, 0x40800000, KindIROM},
	{0x50000000, 0x50002000, KindRTCData},
}

// Classify returns the region kind for a load address on the given chip
// variant.
func Classify(variant ChipVariant, address uint32) RegionKind {
	ranges := esp32Ranges
	if variant == ChipESP32S2 {
		ranges = esp32s2Ranges
	}
	for _, r := range ranges {
		if address >= r.low && address < r.high {
			return r.kind
		}
	}
	return KindMem
}
