package input

import "testing"

func TestRecorderSerializesButtonsLSBFirst(t *testing.T) {
	var r Recorder
	r.SetButtons(0, 0b0000_0101) // A and Select pressed
	r.Strobe(true)
	r.Strobe(false)

	want := []uint8{1, 0, 1, 0, 0, 0, 0, 0}
	for i, w := range want {
		got := r.ReadPort(0) & 1
		if got != w {
			t.Fatalf("bit %d = %d, want %d", i, got, w)
		}
	}
}

func TestRecorderReadsOnesAfterEighthBit(t *testing.T) {
	var r Recorder
	r.SetButtons(0, 0xFF)
	r.Strobe(true)
	r.Strobe(false)
	for i := 0; i < 8; i++ {
		r.ReadPort(0)
	}
	if got := r.ReadPort(0) & 1; got != 1 {
		t.Fatalf("bit after 8 reads = %d, want 1", got)
	}
}

func TestStrobeHighContinuouslyReportsBitZero(t *testing.T) {
	var r Recorder
	r.SetButtons(0, 0b0000_0010) // B pressed, A not pressed
	r.Strobe(true)
	for i := 0; i < 3; i++ {
		if got := r.ReadPort(0) & 1; got != 0 {
			t.Fatalf("read %d while strobed high = %d, want 0 (A bit)", i, got)
		}
	}
}
