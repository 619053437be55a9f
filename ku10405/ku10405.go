/*Package ku10405 controls the KU10405 four channel phase/magnitude trim chip.

The chip is programmed over SPI in 16-bit words, three register writes per
channel (coarse, fine, trim), with a single auxiliary "apply" line that doubles
as the trim latch enable and the commit strobe.  Users should only concern
themselves with New, SetTap and Apply.

Example usage:

	bus, err := ft232h.Open(ft232h.DefaultAddr, ft232h.DefaultClock)
	if err != nil {
		log.Fatal(err)
	}
	dut, err := ku10405.New(bus, true)
	if err != nil {
		log.Fatal(err)
	}
	err = dut.SetTap(0, 100, 200, true, true)

The bus behaves like a shift register: the word clocked in during any
transaction is the echo of the word written on the previous transaction, not a
response to the current one.  Readback verification leans on this; see SetTap.
*/
package ku10405

import (
	"encoding/binary"
	"fmt"
)

// Bus is the capability the controller requires from the SPI/GPIO adapter.
// ft232h.Bus satisfies it against real hardware, MockBus in software.
//
// The controller assumes exclusive ownership of both the transaction channel
// and the apply line for its lifetime.  Nothing here is safe for concurrent
// use; callers that share one chip must serialize around SetTap themselves.
type Bus interface {
	// Exchange performs one full duplex transaction.  The returned bytes are
	// whatever was shifted in while w went out, i.e. the echo of the previous
	// write, not of w.
	Exchange(w []byte) ([]byte, error)

	// SetApply drives the apply/strobe line to the given level.  The line must
	// be configured as an output by the adapter at setup time.
	SetApply(level bool) error
}

// RangeError is returned when an argument falls outside its documented domain.
// It is always detected before the offending value would reach the bus.
type RangeError struct {
	Param    string
	Value    int
	Min, Max int
}

func (e RangeError) Error() string {
	return fmt.Sprintf("%s must be in range [%d, %d], got %d", e.Param, e.Min, e.Max, e.Value)
}

// ReadbackError is returned when the echo of a register write disagrees with
// the word that was sent.  All three written/read pairs are carried for
// diagnosis.  Repeated mismatches usually mean the readback switch on the
// board is in the wrong position, not a transient fault, so the controller
// never retries.
type ReadbackError struct {
	Wrote [3]uint16
	Read  [3]uint16
}

func (e ReadbackError) Error() string {
	return fmt.Sprintf("readbacks do not match: wrote coarse %#04x, fine %#04x, trim %#04x but read %#04x, %#04x, %#04x",
		e.Wrote[0], e.Wrote[1], e.Wrote[2], e.Read[0], e.Read[1], e.Read[2])
}

// TapController programs the taps of one KU10405.  Create one with New; the
// zero value is not usable.
type TapController struct {
	bus      Bus
	readback bool
}

// New returns a controller over the given bus and drives the apply line to its
// inactive (low) level.  When readback is true, SetTap verifies every register
// write against its echo; readback costs one extra bus transaction per call
// and is almost never worth disabling.
func New(b Bus, readback bool) (*TapController, error) {
	tc := &TapController{bus: b, readback: readback}
	if err := b.SetApply(false); err != nil {
		return nil, err
	}
	return tc, nil
}

// Readback reports whether write verification is enabled.
func (tc *TapController) Readback() bool {
	return tc.readback
}

// SetReadback enables or disables write verification for subsequent SetTap
// calls.
func (tc *TapController) SetReadback(b bool) {
	tc.readback = b
}

// SetTap sets the tap at the given channel to the given magnitude and phase.
// Magnitude and phase are raw control bits, not engineering units: mag is
// 14 bits [0, 16383], phase is 16 bits [0, 65535], channel is [0, 3].  Set
// enable to false to disable the channel's output without disturbing its
// stored magnitude and phase.  Changes only take effect chip-side when apply
// is true; programming several channels with apply false and finishing with
// one Apply yields the same end state as applying every call.
//
// The three registers are written strictly in the order coarse, fine, trim.
// The order is load bearing: each exchange returns the echo of the previous
// write, so the fine exchange verifies the coarse word and the trim exchange
// verifies the fine word.  With readback enabled, one extra sentinel exchange
// retrieves the trim echo so all three writes are verified.  A verification
// failure returns ReadbackError after the full sequence has run; there is no
// early abort, and the apply pulse is skipped.
func (tc *TapController) SetTap(channel, mag, phase int, enable, apply bool) error {
	if channel < 0 || channel > 3 {
		return RangeError{Param: "channel", Value: channel, Min: 0, Max: 3}
	}
	if mag < 0 || mag > 16383 {
		return RangeError{Param: "magnitude", Value: mag, Min: 0, Max: 16383}
	}
	if phase < 0 || phase > 65535 {
		return RangeError{Param: "phase", Value: phase, Min: 0, Max: 65535}
	}

	coarseMag, fineMag, trimMag := splitMag(mag)
	coarsePhase, finePhase, trimPhase := splitPhase(phase)

	wroteCoarse, _, err := tc.writeReg(channel, regCoarse, coarseMag, coarsePhase, enable)
	if err != nil {
		return err
	}
	wroteFine, readCoarse, err := tc.writeReg(channel, regFine, fineMag, finePhase, false)
	if err != nil {
		return err
	}
	wroteTrim, readFine, err := tc.writeReg(channel, regTrim, trimMag, trimPhase, false)
	if err != nil {
		return err
	}

	if tc.readback {
		readTrim, err := tc.flush()
		if err != nil {
			return err
		}
		if wroteCoarse != readCoarse || wroteFine != readFine || wroteTrim != readTrim {
			return ReadbackError{
				Wrote: [3]uint16{wroteCoarse, wroteFine, wroteTrim},
				Read:  [3]uint16{readCoarse, readFine, readTrim},
			}
		}
	}

	if apply {
		return tc.Apply()
	}
	return nil
}

// Apply pulses the apply line.  A rising edge while the bus select is inactive
// commits all pending register values chip-side; this is distinct from the
// trim latch window, where apply is held high across an exchange.
func (tc *TapController) Apply() error {
	if err := tc.bus.SetApply(true); err != nil {
		return err
	}
	return tc.bus.SetApply(false)
}

// writeReg builds and exchanges one register word, returning both the word
// sent and the word received.  The received word is the echo of the previous
// exchange (shift register semantics), paired with this write only by the
// caller's bookkeeping.
//
// Field widths are validated here a second time beneath SetTap's coarse
// validation; SetTap's decomposition cannot produce an out-of-width field, so
// this layer only matters when the primitive is driven directly.
//
// Trim data is only latched into the chip's programming register while apply
// is high as the select line transitions, so for trim writes the apply line is
// raised immediately before the exchange and dropped immediately after.
func (tc *TapController) writeReg(channel int, reg register, mag, phase int, enable bool) (wrote, read uint16, err error) {
	switch reg {
	case regCoarse, regFine:
		if mag < 0 || mag > 31 {
			return 0, 0, RangeError{Param: reg.String() + " magnitude", Value: mag, Min: 0, Max: 31}
		}
	case regTrim:
		if mag < 0 || mag > 15 {
			return 0, 0, RangeError{Param: "trim magnitude", Value: mag, Min: 0, Max: 15}
		}
	default:
		return 0, 0, fmt.Errorf("unrecognized register type %s", reg)
	}
	switch reg {
	case regCoarse, regTrim:
		if phase < 0 || phase > 31 {
			return 0, 0, RangeError{Param: reg.String() + " phase", Value: phase, Min: 0, Max: 31}
		}
	case regFine:
		if phase < 0 || phase > 63 {
			return 0, 0, RangeError{Param: "fine phase", Value: phase, Min: 0, Max: 63}
		}
	}

	wrote = encodeWord(channel, reg, mag, phase, enable)
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], wrote)

	if reg == regTrim {
		if err = tc.bus.SetApply(true); err != nil {
			return wrote, 0, err
		}
	}
	resp, err := tc.bus.Exchange(buf[:])
	if reg == regTrim {
		// drop the latch window even if the exchange failed
		if err2 := tc.bus.SetApply(false); err == nil {
			err = err2
		}
	}
	if err != nil {
		return wrote, 0, err
	}
	if len(resp) != 2 {
		return wrote, 0, fmt.Errorf("expected 2 bytes from exchange, got %d", len(resp))
	}
	return wrote, binary.BigEndian.Uint16(resp), nil
}

// flush issues one throwaway exchange purely to shift the previous write's
// echo out of the chip.  The word is all ones, which lands on address 3;
// address 3 is reserved and never decoded, so the sentinel cannot be mistaken
// for a programming write.
func (tc *TapController) flush() (uint16, error) {
	resp, err := tc.bus.Exchange([]byte{0xFF, 0xFF})
	if err != nil {
		return 0, err
	}
	if len(resp) != 2 {
		return 0, fmt.Errorf("expected 2 bytes from exchange, got %d", len(resp))
	}
	return binary.BigEndian.Uint16(resp), nil
}
