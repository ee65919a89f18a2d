// Package bus implements the NES CPU address bus: the single decoder that
// routes every $0000-$FFFF access to RAM, the PPU registers, the APU sink,
// the controller ports, OAM DMA, or the cartridge mapper.
package bus

import (
	"nestor/apu"
	"nestor/cartridge"
	"nestor/input"
	"nestor/internal/log"
	"nestor/ppu"
)

// Bus is the CPU-visible 16-bit address space. It implements cpu.Bus.
type Bus struct {
	ram [0x0800]byte

	PPU   *ppu.PPU
	APU   apu.Sink
	Input input.Device
	Cart  *cartridge.Cartridge

	// dmaPending is set by a $4014 write and drained by the console
	// harness, which is the one place CPU cycles are counted and can
	// charge the DMA stall (its exact length is a documented non-goal).
	dmaPending  bool
	dmaPage     uint8
}

// New builds a Bus over the given collaborators. None may be nil.
func New(p *ppu.PPU, a apu.Sink, in input.Device, cart *cartridge.Cartridge) *Bus {
	return &Bus{PPU: p, APU: a, Input: in, Cart: cart}
}

// Read8 decodes and serves a CPU read.
func (b *Bus) Read8(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.ReadRegister((addr - 0x2000) % 8)
	case addr == 0x4015:
		return b.APU.ReadStatus()
	case addr == 0x4016:
		return b.Input.ReadPort(0)
	case addr == 0x4017:
		return b.Input.ReadPort(1)
	case addr < 0x4018:
		return 0 // write-only APU registers (and $4014) read back as 0
	default:
		return b.Cart.Mapper.Read(addr)
	}
}

// Write8 decodes and serves a CPU write.
func (b *Bus) Write8(addr uint16, val uint8) {
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = val
	case addr < 0x4000:
		b.PPU.WriteRegister((addr-0x2000)%8, val)
	case addr == 0x4014:
		b.dmaPending = true
		b.dmaPage = val
	case addr == 0x4016:
		b.Input.Strobe(val&0x01 != 0)
	case addr == 0x4017:
		b.APU.Write(addr, val)
	case addr < 0x4018:
		b.APU.Write(addr, val)
	default:
		b.Cart.Mapper.Write(addr, val)
		log.For(log.Bus).Debugf("mapper write $%04X = $%02X", addr, val)
	}
}

// Read16 reads a little-endian 16-bit value. page_wrap selects between the
// straight-line read every instruction operand fetch uses and the
// page-wrapped read the indirect addressing-mode bugs require.
func (b *Bus) Read16(addr uint16, pageWrap bool) uint16 {
	hi := addr + 1
	if pageWrap {
		hi = (addr & 0xFF00) | uint16(byte(addr)+1)
	}
	lo := uint16(b.Read8(addr))
	return lo | uint16(b.Read8(hi))<<8
}

// Write16 writes a little-endian 16-bit value across two Write8 calls.
func (b *Bus) Write16(addr uint16, val uint16) {
	b.Write8(addr, uint8(val))
	b.Write8(addr+1, uint8(val>>8))
}

// TakeOAMDMA reports whether a $4014 write is pending and clears the
// pending flag, returning the source page. The console harness calls this
// between CPU instructions, performs the atomic 256-byte copy, and charges
// the stall cycles.
func (b *Bus) TakeOAMDMA() (page uint8, pending bool) {
	if !b.dmaPending {
		return 0, false
	}
	b.dmaPending = false
	return b.dmaPage, true
}

// OAMDMASource reads the 256-byte page that a pending OAM DMA will copy
// from, honoring CPU address-space mirroring for RAM source pages.
func (b *Bus) OAMDMASource(page uint8) []byte {
	buf := make([]byte, 256)
	base := uint16(page) << 8
	for i := range buf {
		buf[i] = b.Read8(base + uint16(i))
	}
	return buf
}
