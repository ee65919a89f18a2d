package cpu

// opFunc is the signature of every entry in the opcode dispatch table: it
// executes one fully-decoded instruction against bus and returns the number
// of CPU cycles it consumed, having already advanced PC past the whole
// instruction (branches, jumps and BRK/RTI/RTS set PC directly instead).
type opFunc func(c *CPU, bus Bus) int

// dispatch is the static 256-entry instruction table. It is built once at
// package initialization; unimplemented/illegal opcodes are left nil and
// turned into an *IllegalOpcodeError by Step.
var dispatch [256]opFunc

func init() {
	buildDispatch()
}

/* value (read) fetchers: return the operand and any page-cross penalty */

func fImm(c *CPU, bus Bus) (uint8, int)  { return c.immOperand(bus), 0 }
func fZp(c *CPU, bus Bus) (uint8, int)   { return bus.Read8(c.zpAddr(bus)), 0 }
func fZpX(c *CPU, bus Bus) (uint8, int)  { return bus.Read8(c.zpXAddr(bus)), 0 }
func fZpY(c *CPU, bus Bus) (uint8, int)  { return bus.Read8(c.zpYAddr(bus)), 0 }
func fAbs(c *CPU, bus Bus) (uint8, int)  { return bus.Read8(c.absAddr(bus)), 0 }
func fIndX(c *CPU, bus Bus) (uint8, int) { return bus.Read8(c.indXAddr(bus)), 0 }

func fAbsX(c *CPU, bus Bus) (uint8, int) {
	addr, crossed := c.absXAddr(bus)
	if crossed {
		return bus.Read8(addr), 1
	}
	return bus.Read8(addr), 0
}

func fAbsY(c *CPU, bus Bus) (uint8, int) {
	addr, crossed := c.absYAddr(bus)
	if crossed {
		return bus.Read8(addr), 1
	}
	return bus.Read8(addr), 0
}

func fIndY(c *CPU, bus Bus) (uint8, int) {
	addr, crossed := c.indYAddr(bus)
	if crossed {
		return bus.Read8(addr), 1
	}
	return bus.Read8(addr), 0
}

/* address fetchers for stores and read-modify-write: fixed cost, no
page-cross penalty regardless of addressing mode. */

func aZp(c *CPU, bus Bus) uint16   { return c.zpAddr(bus) }
func aZpX(c *CPU, bus Bus) uint16  { return c.zpXAddr(bus) }
func aZpY(c *CPU, bus Bus) uint16  { return c.zpYAddr(bus) }
func aAbs(c *CPU, bus Bus) uint16  { return c.absAddr(bus) }
func aAbsX(c *CPU, bus Bus) uint16 { addr, _ := c.absXAddr(bus); return addr }
func aAbsY(c *CPU, bus Bus) uint16 { addr, _ := c.absYAddr(bus); return addr }
func aIndX(c *CPU, bus Bus) uint16 { return c.indXAddr(bus) }
func aIndY(c *CPU, bus Bus) uint16 { addr, _ := c.indYAddr(bus); return addr }

/* generic instruction shapes, parameterized by addressing mode */

func readOp(base int, fetch func(*CPU, Bus) (uint8, int), apply func(*CPU, uint8)) opFunc {
	return func(c *CPU, bus Bus) int {
		v, extra := fetch(c, bus)
		apply(c, v)
		return base + extra
	}
}

func writeOp(cycles int, addr func(*CPU, Bus) uint16, value func(*CPU) uint8) opFunc {
	return func(c *CPU, bus Bus) int {
		bus.Write8(addr(c, bus), value(c))
		return cycles
	}
}

func rmwOp(cycles int, addr func(*CPU, Bus) uint16, op func(*CPU, uint8) uint8) opFunc {
	return func(c *CPU, bus Bus) int {
		a := addr(c, bus)
		v := bus.Read8(a)
		bus.Write8(a, v) // dummy write-back, matches real RMW bus behavior
		nv := op(c, v)
		bus.Write8(a, nv)
		return cycles
	}
}

/* flag/arithmetic cores */

func adc(c *CPU, v uint8) {
	carry := uint16(0)
	if c.getFlag(FlagC) {
		carry = 1
	}
	sum := uint16(c.A) + uint16(v) + carry
	result := uint8(sum)
	c.writeFlag(FlagC, sum > 0xFF)
	overflow := (c.A^v)&0x80 == 0 && (c.A^result)&0x80 != 0
	c.writeFlag(FlagV, overflow)
	c.A = result
	c.setZN(result)
}

// sbc is ADC against the ones-complement of the operand, producing
// identical carry/overflow semantics to ADC.
func sbc(c *CPU, v uint8) { adc(c, ^v) }

func compare(c *CPU, reg, v uint8) {
	result := uint8(uint16(reg) + uint16(^v) + 1)
	c.writeFlag(FlagC, reg >= v)
	c.writeFlag(FlagZ, result == 0)
	c.writeFlag(FlagN, result&0x80 != 0)
}

func bitOp(c *CPU, v uint8) {
	c.writeFlag(FlagZ, c.A&v == 0)
	c.writeFlag(FlagV, v&0x40 != 0)
	c.writeFlag(FlagN, v&0x80 != 0)
}

func aslVal(c *CPU, v uint8) uint8 {
	carry := v&0x80 != 0
	nv := v << 1
	c.writeFlag(FlagC, carry)
	c.setZN(nv)
	return nv
}

func lsrVal(c *CPU, v uint8) uint8 {
	carry := v&0x01 != 0
	nv := v >> 1
	c.writeFlag(FlagC, carry)
	c.setZN(nv) // result's bit 7 is always 0, so N is always cleared here
	return nv
}

func rolVal(c *CPU, v uint8) uint8 {
	carryIn := uint8(0)
	if c.getFlag(FlagC) {
		carryIn = 1
	}
	carryOut := v&0x80 != 0
	nv := (v << 1) | carryIn
	c.writeFlag(FlagC, carryOut)
	c.setZN(nv)
	return nv
}

func rorVal(c *CPU, v uint8) uint8 {
	carryIn := uint8(0)
	if c.getFlag(FlagC) {
		carryIn = 0x80
	}
	carryOut := v&0x01 != 0
	nv := (v >> 1) | carryIn
	c.writeFlag(FlagC, carryOut)
	c.setZN(nv)
	return nv
}

func incVal(c *CPU, v uint8) uint8 { nv := v + 1; c.setZN(nv); return nv }
func decVal(c *CPU, v uint8) uint8 { nv := v - 1; c.setZN(nv); return nv }

/* branches */

func branchOp(flag uint8, want bool) opFunc {
	return func(c *CPU, bus Bus) int {
		offset := c.relOperand(bus)
		cycles := 2
		if c.getFlag(flag) == want {
			from := c.PC
			c.PC = uint16(int32(c.PC) + int32(offset))
			cycles++
			if pageCrossed(from, c.PC) {
				cycles++
			}
		}
		return cycles
	}
}

/* control flow */

func jmpAbs(c *CPU, bus Bus) int {
	c.PC = c.absAddr(bus)
	return 3
}

// jmpInd reproduces the 6502 indirect-JMP page-wrap bug: the pointer's high
// byte is fetched from ($xx00) when the pointer itself sits at $xxFF.
func jmpInd(c *CPU, bus Bus) int {
	ptr := c.absAddr(bus)
	c.PC = c.read16wrap(bus, ptr)
	return 5
}

// jsr pushes PC+2 -- the address of JSR's own last operand byte, not the
// address of the next instruction.
func jsr(c *CPU, bus Bus) int {
	addr := c.absAddr(bus)
	c.push16(bus, c.PC-1)
	c.PC = addr
	return 6
}

func rts(c *CPU, bus Bus) int {
	c.PC = c.pull16(bus) + 1
	return 6
}

func rti(c *CPU, bus Bus) int {
	c.P = c.pull8(bus)
	c.PC = c.pull16(bus)
	return 6
}

// brk pushes PC+2 (the address following its padding byte), ORs the
// unused+break bits into the pushed P, and vectors through $FFFE/$FFFF.
func brk(c *CPU, bus Bus) int {
	c.PC++ // skip the padding byte
	c.push16(bus, c.PC)
	c.push8(bus, c.P|FlagB|FlagU)
	c.P |= FlagI
	c.PC = c.read16(bus, IRQVector)
	return 7
}

/* stack instructions */

func pha(c *CPU, bus Bus) int { c.push8(bus, c.A); return 3 }
func php(c *CPU, bus Bus) int { c.push8(bus, c.P|FlagB|FlagU); return 3 }
func pla(c *CPU, bus Bus) int { c.A = c.pull8(bus); c.setZN(c.A); return 4 }
func plp(c *CPU, bus Bus) int { c.P = c.pull8(bus); return 4 }

/* register transfer / increment / flag instructions, all implied, 2 cycles */

func implied(f func(c *CPU)) opFunc {
	return func(c *CPU, bus Bus) int { f(c); return 2 }
}

func accumShift(op func(*CPU, uint8) uint8) opFunc {
	return func(c *CPU, bus Bus) int { c.A = op(c, c.A); return 2 }
}

func buildDispatch() {
	// ADC
	dispatch[0x69] = readOp(2, fImm, func(c *CPU, v uint8) { adc(c, v) })
	dispatch[0x65] = readOp(3, fZp, func(c *CPU, v uint8) { adc(c, v) })
	dispatch[0x75] = readOp(4, fZpX, func(c *CPU, v uint8) { adc(c, v) })
	dispatch[0x6D] = readOp(4, fAbs, func(c *CPU, v uint8) { adc(c, v) })
	dispatch[0x7D] = readOp(4, fAbsX, func(c *CPU, v uint8) { adc(c, v) })
	dispatch[0x79] = readOp(4, fAbsY, func(c *CPU, v uint8) { adc(c, v) })
	dispatch[0x61] = readOp(6, fIndX, func(c *CPU, v uint8) { adc(c, v) })
	dispatch[0x71] = readOp(5, fIndY, func(c *CPU, v uint8) { adc(c, v) })

	// AND
	and := func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) }
	dispatch[0x29] = readOp(2, fImm, and)
	dispatch[0x25] = readOp(3, fZp, and)
	dispatch[0x35] = readOp(4, fZpX, and)
	dispatch[0x2D] = readOp(4, fAbs, and)
	dispatch[0x3D] = readOp(4, fAbsX, and)
	dispatch[0x39] = readOp(4, fAbsY, and)
	dispatch[0x21] = readOp(6, fIndX, and)
	dispatch[0x31] = readOp(5, fIndY, and)

	// ASL
	dispatch[0x0A] = accumShift(aslVal)
	dispatch[0x06] = rmwOp(5, aZp, aslVal)
	dispatch[0x16] = rmwOp(6, aZpX, aslVal)
	dispatch[0x0E] = rmwOp(6, aAbs, aslVal)
	dispatch[0x1E] = rmwOp(7, aAbsX, aslVal)

	// branches
	dispatch[0x90] = branchOp(FlagC, false) // BCC
	dispatch[0xB0] = branchOp(FlagC, true)  // BCS
	dispatch[0xF0] = branchOp(FlagZ, true)  // BEQ
	dispatch[0x30] = branchOp(FlagN, true)  // BMI
	dispatch[0xD0] = branchOp(FlagZ, false) // BNE
	dispatch[0x10] = branchOp(FlagN, false) // BPL
	dispatch[0x50] = branchOp(FlagV, false) // BVC
	dispatch[0x70] = branchOp(FlagV, true)  // BVS

	// BIT
	dispatch[0x24] = readOp(3, fZp, bitOp)
	dispatch[0x2C] = readOp(4, fAbs, bitOp)

	// BRK
	dispatch[0x00] = brk

	// flag clear/set
	dispatch[0x18] = implied(func(c *CPU) { c.writeFlag(FlagC, false) }) // CLC
	dispatch[0xD8] = implied(func(c *CPU) { c.writeFlag(FlagD, false) }) // CLD
	dispatch[0x58] = implied(func(c *CPU) { c.writeFlag(FlagI, false) }) // CLI
	dispatch[0xB8] = implied(func(c *CPU) { c.writeFlag(FlagV, false) }) // CLV
	dispatch[0x38] = implied(func(c *CPU) { c.writeFlag(FlagC, true) })  // SEC
	dispatch[0xF8] = implied(func(c *CPU) { c.writeFlag(FlagD, true) })  // SED
	dispatch[0x78] = implied(func(c *CPU) { c.writeFlag(FlagI, true) })  // SEI

	// CMP
	cmp := func(c *CPU, v uint8) { compare(c, c.A, v) }
	dispatch[0xC9] = readOp(2, fImm, cmp)
	dispatch[0xC5] = readOp(3, fZp, cmp)
	dispatch[0xD5] = readOp(4, fZpX, cmp)
	dispatch[0xCD] = readOp(4, fAbs, cmp)
	dispatch[0xDD] = readOp(4, fAbsX, cmp)
	dispatch[0xD9] = readOp(4, fAbsY, cmp)
	dispatch[0xC1] = readOp(6, fIndX, cmp)
	dispatch[0xD1] = readOp(5, fIndY, cmp)

	// CPX / CPY
	cpx := func(c *CPU, v uint8) { compare(c, c.X, v) }
	dispatch[0xE0] = readOp(2, fImm, cpx)
	dispatch[0xE4] = readOp(3, fZp, cpx)
	dispatch[0xEC] = readOp(4, fAbs, cpx)
	cpy := func(c *CPU, v uint8) { compare(c, c.Y, v) }
	dispatch[0xC0] = readOp(2, fImm, cpy)
	dispatch[0xC4] = readOp(3, fZp, cpy)
	dispatch[0xCC] = readOp(4, fAbs, cpy)

	// DEC
	dispatch[0xC6] = rmwOp(5, aZp, decVal)
	dispatch[0xD6] = rmwOp(6, aZpX, decVal)
	dispatch[0xCE] = rmwOp(6, aAbs, decVal)
	dispatch[0xDE] = rmwOp(7, aAbsX, decVal)

	// DEX / DEY / INX / INY
	dispatch[0xCA] = implied(func(c *CPU) { c.X--; c.setZN(c.X) })
	dispatch[0x88] = implied(func(c *CPU) { c.Y--; c.setZN(c.Y) })
	dispatch[0xE8] = implied(func(c *CPU) { c.X++; c.setZN(c.X) })
	dispatch[0xC8] = implied(func(c *CPU) { c.Y++; c.setZN(c.Y) })

	// EOR
	eor := func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) }
	dispatch[0x49] = readOp(2, fImm, eor)
	dispatch[0x45] = readOp(3, fZp, eor)
	dispatch[0x55] = readOp(4, fZpX, eor)
	dispatch[0x4D] = readOp(4, fAbs, eor)
	dispatch[0x5D] = readOp(4, fAbsX, eor)
	dispatch[0x59] = readOp(4, fAbsY, eor)
	dispatch[0x41] = readOp(6, fIndX, eor)
	dispatch[0x51] = readOp(5, fIndY, eor)

	// INC
	dispatch[0xE6] = rmwOp(5, aZp, incVal)
	dispatch[0xF6] = rmwOp(6, aZpX, incVal)
	dispatch[0xEE] = rmwOp(6, aAbs, incVal)
	dispatch[0xFE] = rmwOp(7, aAbsX, incVal)

	// JMP / JSR / RTS / RTI
	dispatch[0x4C] = jmpAbs
	dispatch[0x6C] = jmpInd
	dispatch[0x20] = jsr
	dispatch[0x60] = rts
	dispatch[0x40] = rti

	// LDA / LDX / LDY
	lda := func(c *CPU, v uint8) { c.A = v; c.setZN(v) }
	dispatch[0xA9] = readOp(2, fImm, lda)
	dispatch[0xA5] = readOp(3, fZp, lda)
	dispatch[0xB5] = readOp(4, fZpX, lda)
	dispatch[0xAD] = readOp(4, fAbs, lda)
	dispatch[0xBD] = readOp(4, fAbsX, lda)
	dispatch[0xB9] = readOp(4, fAbsY, lda)
	dispatch[0xA1] = readOp(6, fIndX, lda)
	dispatch[0xB1] = readOp(5, fIndY, lda)

	ldx := func(c *CPU, v uint8) { c.X = v; c.setZN(v) }
	dispatch[0xA2] = readOp(2, fImm, ldx)
	dispatch[0xA6] = readOp(3, fZp, ldx)
	dispatch[0xB6] = readOp(4, fZpY, ldx)
	dispatch[0xAE] = readOp(4, fAbs, ldx)
	dispatch[0xBE] = readOp(4, fAbsY, ldx)

	ldy := func(c *CPU, v uint8) { c.Y = v; c.setZN(v) }
	dispatch[0xA0] = readOp(2, fImm, ldy)
	dispatch[0xA4] = readOp(3, fZp, ldy)
	dispatch[0xB4] = readOp(4, fZpX, ldy)
	dispatch[0xAC] = readOp(4, fAbs, ldy)
	dispatch[0xBC] = readOp(4, fAbsX, ldy)

	// LSR
	dispatch[0x4A] = accumShift(lsrVal)
	dispatch[0x46] = rmwOp(5, aZp, lsrVal)
	dispatch[0x56] = rmwOp(6, aZpX, lsrVal)
	dispatch[0x4E] = rmwOp(6, aAbs, lsrVal)
	dispatch[0x5E] = rmwOp(7, aAbsX, lsrVal)

	// NOP
	dispatch[0xEA] = implied(func(c *CPU) {})

	// ORA
	ora := func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) }
	dispatch[0x09] = readOp(2, fImm, ora)
	dispatch[0x05] = readOp(3, fZp, ora)
	dispatch[0x15] = readOp(4, fZpX, ora)
	dispatch[0x0D] = readOp(4, fAbs, ora)
	dispatch[0x1D] = readOp(4, fAbsX, ora)
	dispatch[0x19] = readOp(4, fAbsY, ora)
	dispatch[0x01] = readOp(6, fIndX, ora)
	dispatch[0x11] = readOp(5, fIndY, ora)

	// stack
	dispatch[0x48] = pha
	dispatch[0x08] = php
	dispatch[0x68] = pla
	dispatch[0x28] = plp

	// ROL / ROR
	dispatch[0x2A] = accumShift(rolVal)
	dispatch[0x26] = rmwOp(5, aZp, rolVal)
	dispatch[0x36] = rmwOp(6, aZpX, rolVal)
	dispatch[0x2E] = rmwOp(6, aAbs, rolVal)
	dispatch[0x3E] = rmwOp(7, aAbsX, rolVal)
	dispatch[0x6A] = accumShift(rorVal)
	dispatch[0x66] = rmwOp(5, aZp, rorVal)
	dispatch[0x76] = rmwOp(6, aZpX, rorVal)
	dispatch[0x6E] = rmwOp(6, aAbs, rorVal)
	dispatch[0x7E] = rmwOp(7, aAbsX, rorVal)

	// SBC
	dispatch[0xE9] = readOp(2, fImm, func(c *CPU, v uint8) { sbc(c, v) })
	dispatch[0xE5] = readOp(3, fZp, func(c *CPU, v uint8) { sbc(c, v) })
	dispatch[0xF5] = readOp(4, fZpX, func(c *CPU, v uint8) { sbc(c, v) })
	dispatch[0xED] = readOp(4, fAbs, func(c *CPU, v uint8) { sbc(c, v) })
	dispatch[0xFD] = readOp(4, fAbsX, func(c *CPU, v uint8) { sbc(c, v) })
	dispatch[0xF9] = readOp(4, fAbsY, func(c *CPU, v uint8) { sbc(c, v) })
	dispatch[0xE1] = readOp(6, fIndX, func(c *CPU, v uint8) { sbc(c, v) })
	dispatch[0xF1] = readOp(5, fIndY, func(c *CPU, v uint8) { sbc(c, v) })

	// STA / STX / STY
	sta := func(c *CPU) uint8 { return c.A }
	dispatch[0x85] = writeOp(3, aZp, sta)
	dispatch[0x95] = writeOp(4, aZpX, sta)
	dispatch[0x8D] = writeOp(4, aAbs, sta)
	dispatch[0x9D] = writeOp(5, aAbsX, sta)
	dispatch[0x99] = writeOp(5, aAbsY, sta)
	dispatch[0x81] = writeOp(6, aIndX, sta)
	dispatch[0x91] = writeOp(6, aIndY, sta)

	stx := func(c *CPU) uint8 { return c.X }
	dispatch[0x86] = writeOp(3, aZp, stx)
	dispatch[0x96] = writeOp(4, aZpY, stx)
	dispatch[0x8E] = writeOp(4, aAbs, stx)

	sty := func(c *CPU) uint8 { return c.Y }
	dispatch[0x84] = writeOp(3, aZp, sty)
	dispatch[0x94] = writeOp(4, aZpX, sty)
	dispatch[0x8C] = writeOp(4, aAbs, sty)

	// register transfers
	dispatch[0xAA] = implied(func(c *CPU) { c.X = c.A; c.setZN(c.X) })  // TAX
	dispatch[0xA8] = implied(func(c *CPU) { c.Y = c.A; c.setZN(c.Y) })  // TAY
	dispatch[0xBA] = implied(func(c *CPU) { c.X = c.S; c.setZN(c.X) })  // TSX
	dispatch[0x8A] = implied(func(c *CPU) { c.A = c.X; c.setZN(c.A) })  // TXA
	dispatch[0x9A] = implied(func(c *CPU) { c.S = c.X })                // TXS
	dispatch[0x98] = implied(func(c *CPU) { c.A = c.Y; c.setZN(c.A) })  // TYA
}
