// Package console wires the CPU, PPU, bus, and cartridge into the single
// harness that drives emulation: the instruction/dot interleaving loop, NMI
// delivery, OAM DMA execution, and a pull-based frame iterator.
package console

import (
	"context"
	"fmt"

	"nestor/apu"
	"nestor/bus"
	"nestor/cartridge"
	"nestor/cpu"
	"nestor/input"
	"nestor/internal/log"
	"nestor/ppu"
)

// System owns every collaborator needed to run one cartridge end to end.
type System struct {
	CPU  *cpu.CPU
	PPU  *ppu.PPU
	Bus  *bus.Bus
	Cart *cartridge.Cartridge
}

// New builds a System for cart, using in and a for the controller and APU
// ports. Either may be nil, in which case a no-op default is used.
func New(cart *cartridge.Cartridge, in input.Device, a apu.Sink) *System {
	if in == nil {
		in = &input.Recorder{}
	}
	if a == nil {
		a = apu.NullSink{}
	}

	p := ppu.New(cart.Mapper)
	b := bus.New(p, a, in, cart)
	c := cpu.New()

	sys := &System{CPU: c, PPU: p, Bus: b, Cart: cart}
	sys.CPU.Reset(sys.Bus)
	return sys
}

// Step executes exactly one CPU instruction, advances the PPU three dots per
// CPU cycle consumed, services any PPU-raised NMI at the instruction
// boundary, and performs a pending OAM DMA. It returns the CPU cycle count
// the instruction itself took (not counting an OAM DMA stall).
func (s *System) Step() (int, error) {
	cycles, err := s.CPU.Step(s.Bus)
	if err != nil {
		return 0, err
	}

	s.tickPPU(cycles * 3)

	if page, pending := s.Bus.TakeOAMDMA(); pending {
		data := s.Bus.OAMDMASource(page)
		s.PPU.OAMDMA(data)
		// Exact OAM DMA stall timing (513 or 514 cycles depending on CPU
		// parity) is a documented non-goal; 513 is used as a fixed charge.
		const dmaCycles = 513
		s.CPU.Cycles += dmaCycles
		s.tickPPU(dmaCycles * 3)
	}

	if s.PPU.TakeNMI() {
		s.CPU.NMIPending = true
	}

	return cycles, nil
}

func (s *System) tickPPU(dots int) {
	for i := 0; i < dots; i++ {
		s.PPU.Step()
	}
}

// NextFrame runs the system until a new frame completes and returns a copy
// of it, or nil with ctx's error if ctx is cancelled first. Callers that
// want to drive the emulator frame-by-frame (a headless runner, a GUI host)
// pull frames this way rather than the harness pushing them out.
func (s *System) NextFrame(ctx context.Context) (*ppu.FrameBuffer, error) {
	start := s.PPU.FrameCount()
	for s.PPU.FrameCount() == start {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if _, err := s.Step(); err != nil {
			return nil, fmt.Errorf("console: %w", err)
		}
	}

	frame := *s.PPU.Frame()
	return &frame, nil
}

// Run steps the system until ctx is cancelled or the CPU halts on an
// illegal opcode, logging the halt and returning its error.
func (s *System) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := s.Step(); err != nil {
			log.For(log.Console).Errorf("halted: %v", err)
			return err
		}
	}
}
