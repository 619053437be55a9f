package ku10405

import "fmt"

// DeviceAddr is the chip's address on the bus, bits [15:14] of every word.
// There is only one assignable address in the current hardware, so this is a
// constant rather than a constructor argument.  Address 3 is reserved and
// never decoded by the chip.
const DeviceAddr = 0

// register selects one of the three per-channel registers.  The three
// registers together hold one channel's magnitude and phase at decreasing
// granularity.
type register int

const (
	regCoarse register = iota
	regFine
	regTrim
)

func (r register) String() string {
	switch r {
	case regCoarse:
		return "coarse"
	case regFine:
		return "fine"
	case regTrim:
		return "trim"
	}
	return fmt.Sprintf("register(%d)", int(r))
}

/* Word layout, MSB to LSB:

[15:14] addr | [13:12] chan | [11] type | [10] enable | [9:5] phase | [4:0] mag

coarse: type=0, enable valid, phase 5 bits, mag 5 bits
fine:   type=1, phase 6 bits (spills into bit 10), mag 5 bits
trim:   type=0, enable=0, phase 5 bits, mag 4 bits

fine's 6-bit phase overlaps the coarse enable bit; the type bit at [11]
disambiguates the two.  trim's word has no type bit and no enable bit; the
chip tells trim from coarse by the level of the apply line during the select
window (see writeReg).
*/

// encodeWord packs one register word per the layout above.  Fields must be
// pre-validated to their per-register widths.
func encodeWord(channel int, reg register, mag, phase int, enable bool) uint16 {
	w := uint16(DeviceAddr<<14 | channel<<12)
	switch reg {
	case regCoarse:
		if enable {
			w |= 1 << 10
		}
		w |= uint16(phase<<5 | mag)
	case regFine:
		w |= 1 << 11
		w |= uint16(phase<<5 | mag)
	case regTrim:
		w |= uint16(phase<<5 | mag)
	}
	return w
}

// decodeWord unpacks a register word back into its fields.  The register type
// must be supplied for trim words; coarse and fine words self-identify via
// bit 11, trim words look identical to coarse words with enable clear.
func decodeWord(w uint16, reg register) (channel, mag, phase int, enable bool) {
	channel = int(w>>12) & 0x3
	switch reg {
	case regCoarse:
		enable = w&(1<<10) != 0
		phase = int(w>>5) & 0x1F
		mag = int(w) & 0x1F
	case regFine:
		phase = int(w>>5) & 0x3F
		mag = int(w) & 0x1F
	case regTrim:
		phase = int(w>>5) & 0x1F
		mag = int(w) & 0xF
	}
	return channel, mag, phase, enable
}

// splitMag decomposes a 14-bit magnitude into the coarse/fine/trim sub-fields,
// a base 32/32/16 mixed radix split.  coarse*512 + fine*16 + trim recovers the
// input.
func splitMag(mag int) (coarse, fine, trim int) {
	return mag >> 9, (mag >> 4) & 0x1F, mag & 0xF
}

// splitPhase decomposes a 16-bit phase into the coarse/fine/trim sub-fields,
// base 32/64/32.  coarse*2048 + fine*32 + trim recovers the input.
func splitPhase(phase int) (coarse, fine, trim int) {
	return phase >> 11, (phase >> 5) & 0x3F, phase & 0x1F
}
