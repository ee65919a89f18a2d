package bus

import (
	"testing"

	"nestor/apu"
	"nestor/cartridge"
	"nestor/ines"
	"nestor/input"
	"nestor/ppu"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	rom := &ines.Rom{PRG: make([]byte, 0x8000), CHR: make([]byte, 0x2000)}
	cart, err := cartridge.New(rom)
	if err != nil {
		t.Fatalf("cartridge.New: %v", err)
	}
	p := ppu.New(cart.Mapper)
	return New(p, apu.NullSink{}, &input.Recorder{}, cart)
}

func TestRAMIsMirroredEveryEightHundredBytes(t *testing.T) {
	b := newTestBus(t)
	b.Write8(0x0000, 0x55)
	for _, mirror := range []uint16{0x0800, 0x1000, 0x1800} {
		if got := b.Read8(mirror); got != 0x55 {
			t.Fatalf("Read8(%#x) = %#x, want 0x55", mirror, got)
		}
	}
}

func TestPPURegistersAreMirroredEveryEightBytes(t *testing.T) {
	b := newTestBus(t)
	b.Write8(0x2003, 0x10) // OAMADDR via its base address
	b.Write8(0x2004, 0x5A) // OAMDATA via its base address; OAMADDR -> 0x11

	// Point OAMADDR back at 0x10 through its first mirror ($200B), then read
	// OAMDATA, a register with no read effects, through its last mirror
	// ($3FFC).
	b.Write8(0x200B, 0x10)
	if got := b.Read8(0x3FFC); got != 0x5A {
		t.Fatalf("OAMDATA via mirror = %#x, want 0x5A", got)
	}
}

func TestROMReadsRouteToMapper(t *testing.T) {
	b := newTestBus(t)
	b.Cart.Rom.PRG[0] = 0xAB
	if got := b.Read8(0x8000); got != 0xAB {
		t.Fatalf("Read8(0x8000) = %#x, want 0xAB", got)
	}
}

func TestControllerStrobeAndReadRouteToInputDevice(t *testing.T) {
	b := newTestBus(t)
	rec := &input.Recorder{}
	b.Input = rec
	rec.SetButtons(0, 0b0000_0001)
	b.Write8(0x4016, 0x01)
	b.Write8(0x4016, 0x00)
	if got := b.Read8(0x4016) & 1; got != 1 {
		t.Fatalf("first controller read = %d, want 1 (A pressed)", got)
	}
}

func TestOAMDMATriggerLatchesPendingPage(t *testing.T) {
	b := newTestBus(t)
	b.Write8(0x4014, 0x07)
	page, pending := b.TakeOAMDMA()
	if !pending || page != 0x07 {
		t.Fatalf("TakeOAMDMA = (%#x, %v), want (0x07, true)", page, pending)
	}
	if _, pending := b.TakeOAMDMA(); pending {
		t.Fatalf("TakeOAMDMA reported pending twice for one trigger")
	}
}

func TestOAMDMASourceHonorsRAMMirroring(t *testing.T) {
	b := newTestBus(t)
	b.Write8(0x0000, 0x99)
	data := b.OAMDMASource(0x08) // page $0800 mirrors RAM page $0000
	if data[0] != 0x99 {
		t.Fatalf("OAMDMASource[0] = %#x, want 0x99", data[0])
	}
}
