package ku10405

import "testing"

func TestMagnitudeSplitReconstructsExhaustive(t *testing.T) {
	for mag := 0; mag <= 16383; mag++ {
		coarse, fine, trim := splitMag(mag)
		got := coarse*512 + fine*16 + trim
		if got != mag {
			t.Fatalf("mag %d split to (%d, %d, %d), reconstructs to %d", mag, coarse, fine, trim, got)
		}
		if coarse > 31 || fine > 31 || trim > 15 {
			t.Fatalf("mag %d split to out of width fields (%d, %d, %d)", mag, coarse, fine, trim)
		}
	}
}

func TestPhaseSplitReconstructsExhaustive(t *testing.T) {
	for phase := 0; phase <= 65535; phase++ {
		coarse, fine, trim := splitPhase(phase)
		got := coarse*2048 + fine*32 + trim
		if got != phase {
			t.Fatalf("phase %d split to (%d, %d, %d), reconstructs to %d", phase, coarse, fine, trim, got)
		}
		if coarse > 31 || fine > 63 || trim > 31 {
			t.Fatalf("phase %d split to out of width fields (%d, %d, %d)", phase, coarse, fine, trim)
		}
	}
}

func TestCoarseWordManualExample(t *testing.T) {
	// channel 0, enable, mag 100>>9 = 0, phase 200>>11 = 0
	w := encodeWord(0, regCoarse, 0, 0, true)
	if w != 0x0400 {
		t.Fatalf("expected coarse word 0x0400, got %#04x", w)
	}
}

func TestFineWordSetsTypeBit(t *testing.T) {
	w := encodeWord(0, regFine, 0, 0, false)
	if w&(1<<11) == 0 {
		t.Fatalf("fine word %#04x missing type bit", w)
	}
	if c := encodeWord(0, regCoarse, 0, 0, false); c&(1<<11) != 0 {
		t.Fatalf("coarse word %#04x has type bit set", c)
	}
	if tr := encodeWord(0, regTrim, 0, 0, false); tr&(1<<11) != 0 {
		t.Fatalf("trim word %#04x has type bit set", tr)
	}
}

func TestFinePhaseOccupiesBitTen(t *testing.T) {
	// fine phase is 6 bits wide and spills into what would be the coarse
	// enable bit; the type bit keeps the two decodable
	w := encodeWord(0, regFine, 0, 63, false)
	if w&(1<<10) == 0 {
		t.Fatalf("fine word %#04x with phase 63 should occupy bit 10", w)
	}
}

func TestWordRoundTrip(t *testing.T) {
	cases := []struct {
		reg     register
		channel int
		mag     int
		phase   int
		enable  bool
	}{
		{regCoarse, 0, 0, 0, false},
		{regCoarse, 3, 31, 31, true},
		{regCoarse, 1, 17, 9, false},
		{regFine, 0, 0, 0, false},
		{regFine, 3, 31, 63, false},
		{regFine, 2, 5, 40, false},
		{regTrim, 0, 0, 0, false},
		{regTrim, 3, 15, 31, false},
		{regTrim, 1, 7, 19, false},
	}
	for _, tc := range cases {
		w := encodeWord(tc.channel, tc.reg, tc.mag, tc.phase, tc.enable)
		channel, mag, phase, enable := decodeWord(w, tc.reg)
		if channel != tc.channel || mag != tc.mag || phase != tc.phase || enable != tc.enable {
			t.Errorf("%s word %#04x round tripped to (ch=%d mag=%d phase=%d en=%v), want (ch=%d mag=%d phase=%d en=%v)",
				tc.reg, w, channel, mag, phase, enable, tc.channel, tc.mag, tc.phase, tc.enable)
		}
	}
}

func TestBoundaryEncodesWithoutOverflow(t *testing.T) {
	// max everything must stay inside its fields: channel 3, mag 16383,
	// phase 65535
	cm, fm, tm := splitMag(16383)
	cp, fp, tp := splitPhase(65535)

	w := encodeWord(3, regCoarse, cm, cp, true)
	if ch, mag, phase, en := decodeWord(w, regCoarse); ch != 3 || mag != 31 || phase != 31 || !en {
		t.Errorf("coarse boundary word %#04x decoded to ch=%d mag=%d phase=%d en=%v", w, ch, mag, phase, en)
	}
	w = encodeWord(3, regFine, fm, fp, false)
	if ch, mag, phase, _ := decodeWord(w, regFine); ch != 3 || mag != 31 || phase != 63 {
		t.Errorf("fine boundary word %#04x decoded to ch=%d mag=%d phase=%d", w, ch, mag, phase)
	}
	w = encodeWord(3, regTrim, tm, tp, false)
	if ch, mag, phase, _ := decodeWord(w, regTrim); ch != 3 || mag != 15 || phase != 31 {
		t.Errorf("trim boundary word %#04x decoded to ch=%d mag=%d phase=%d", w, ch, mag, phase)
	}
	// device address bits must stay clear with address 0
	if w>>14 != DeviceAddr {
		t.Errorf("trim boundary word %#04x leaked into the address field", w)
	}
}
