package cpu

// AddressingMode identifies how an instruction forms its operand address.
type AddressingMode int

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// Effect categorises the bus behaviour of an instruction's final cycles.
type Effect int

const (
	// Read instructions load a value from the effective address.
	Read Effect = iota
	// Write instructions store a register to the effective address.
	Write
	// RMW instructions read, write back the unmodified value, then write
	// the result.
	RMW
	// Flow covers implied operations, branches, stack and jump sequences.
	Flow
	// Jam halts the processor until reset.
	Jam
)

// Instruction describes one entry of the opcode table.
type Instruction struct {
	Name         string
	Opcode       uint8
	Mode         AddressingMode
	Effect       Effect
	Undocumented bool

	read   func(*CPU, uint8)
	write  func(*CPU) uint8
	modify func(*CPU, uint8) uint8
	exec   func(*CPU)
	cond   func(*CPU) bool
}

// Bytes is the encoded length of the instruction.
func (i *Instruction) Bytes() int {
	switch i.Mode {
	case Implied, Accumulator:
		return 1
	case Absolute, AbsoluteX, AbsoluteY, Indirect:
		return 3
	default:
		return 2
	}
}

func (i *Instruction) undoc() *Instruction {
	i.Undocumented = true
	return i
}

func readOp(name string, mode AddressingMode, fn func(*CPU, uint8)) *Instruction {
	return &Instruction{Name: name, Mode: mode, Effect: Read, read: fn}
}

func writeOp(name string, mode AddressingMode, fn func(*CPU) uint8) *Instruction {
	return &Instruction{Name: name, Mode: mode, Effect: Write, write: fn}
}

func rmwOp(name string, mode AddressingMode, fn func(*CPU, uint8) uint8) *Instruction {
	return &Instruction{Name: name, Mode: mode, Effect: RMW, modify: fn}
}

func impliedOp(name string, fn func(*CPU)) *Instruction {
	return &Instruction{Name: name, Mode: Implied, Effect: Flow, exec: fn}
}

func branchOp(name string, fn func(*CPU) bool) *Instruction {
	return &Instruction{Name: name, Mode: Relative, Effect: Flow, cond: fn}
}

func flowOp(name string, mode AddressingMode) *Instruction {
	return &Instruction{Name: name, Mode: mode, Effect: Flow}
}

var instructions [256]*Instruction

// Lookup returns the table entry for an opcode. Every opcode has one.
func Lookup(opcode uint8) *Instruction {
	return instructions[opcode]
}

func init() {
	instructions = [256]*Instruction{
		// Load/Store
		0xA9: readOp("LDA", Immediate, (*CPU).lda),
		0xA5: readOp("LDA", ZeroPage, (*CPU).lda),
		0xB5: readOp("LDA", ZeroPageX, (*CPU).lda),
		0xAD: readOp("LDA", Absolute, (*CPU).lda),
		0xBD: readOp("LDA", AbsoluteX, (*CPU).lda),
		0xB9: readOp("LDA", AbsoluteY, (*CPU).lda),
		0xA1: readOp("LDA", IndexedIndirect, (*CPU).lda),
		0xB1: readOp("LDA", IndirectIndexed, (*CPU).lda),

		0xA2: readOp("LDX", Immediate, (*CPU).ldx),
		0xA6: readOp("LDX", ZeroPage, (*CPU).ldx),
		0xB6: readOp("LDX", ZeroPageY, (*CPU).ldx),
		0xAE: readOp("LDX", Absolute, (*CPU).ldx),
		0xBE: readOp("LDX", AbsoluteY, (*CPU).ldx),

		0xA0: readOp("LDY", Immediate, (*CPU).ldy),
		0xA4: readOp("LDY", ZeroPage, (*CPU).ldy),
		0xB4: readOp("LDY", ZeroPageX, (*CPU).ldy),
		0xAC: readOp("LDY", Absolute, (*CPU).ldy),
		0xBC: readOp("LDY", AbsoluteX, (*CPU).ldy),

		0x85: writeOp("STA", ZeroPage, (*CPU).sta),
		0x95: writeOp("STA", ZeroPageX, (*CPU).sta),
		0x8D: writeOp("STA", Absolute, (*CPU).sta),
		0x9D: writeOp("STA", AbsoluteX, (*CPU).sta),
		0x99: writeOp("STA", AbsoluteY, (*CPU).sta),
		0x81: writeOp("STA", IndexedIndirect, (*CPU).sta),
		0x91: writeOp("STA", IndirectIndexed, (*CPU).sta),

		0x86: writeOp("STX", ZeroPage, (*CPU).stx),
		0x96: writeOp("STX", ZeroPageY, (*CPU).stx),
		0x8E: writeOp("STX", Absolute, (*CPU).stx),

		0x84: writeOp("STY", ZeroPage, (*CPU).sty),
		0x94: writeOp("STY", ZeroPageX, (*CPU).sty),
		0x8C: writeOp("STY", Absolute, (*CPU).sty),

		// Arithmetic
		0x69: readOp("ADC", Immediate, (*CPU).adc),
		0x65: readOp("ADC", ZeroPage, (*CPU).adc),
		0x75: readOp("ADC", ZeroPageX, (*CPU).adc),
		0x6D: readOp("ADC", Absolute, (*CPU).adc),
		0x7D: readOp("ADC", AbsoluteX, (*CPU).adc),
		0x79: readOp("ADC", AbsoluteY, (*CPU).adc),
		0x61: readOp("ADC", IndexedIndirect, (*CPU).adc),
		0x71: readOp("ADC", IndirectIndexed, (*CPU).adc),

		0xE9: readOp("SBC", Immediate, (*CPU).sbc),
		0xE5: readOp("SBC", ZeroPage, (*CPU).sbc),
		0xF5: readOp("SBC", ZeroPageX, (*CPU).sbc),
		0xED: readOp("SBC", Absolute, (*CPU).sbc),
		0xFD: readOp("SBC", AbsoluteX, (*CPU).sbc),
		0xF9: readOp("SBC", AbsoluteY, (*CPU).sbc),
		0xE1: readOp("SBC", IndexedIndirect, (*CPU).sbc),
		0xF1: readOp("SBC", IndirectIndexed, (*CPU).sbc),

		// Logical
		0x29: readOp("AND", Immediate, (*CPU).and),
		0x25: readOp("AND", ZeroPage, (*CPU).and),
		0x35: readOp("AND", ZeroPageX, (*CPU).and),
		0x2D: readOp("AND", Absolute, (*CPU).and),
		0x3D: readOp("AND", AbsoluteX, (*CPU).and),
		0x39: readOp("AND", AbsoluteY, (*CPU).and),
		0x21: readOp("AND", IndexedIndirect, (*CPU).and),
		0x31: readOp("AND", IndirectIndexed, (*CPU).and),

		0x09: readOp("ORA", Immediate, (*CPU).ora),
		0x05: readOp("ORA", ZeroPage, (*CPU).ora),
		0x15: readOp("ORA", ZeroPageX, (*CPU).ora),
		0x0D: readOp("ORA", Absolute, (*CPU).ora),
		0x1D: readOp("ORA", AbsoluteX, (*CPU).ora),
		0x19: readOp("ORA", AbsoluteY, (*CPU).ora),
		0x01: readOp("ORA", IndexedIndirect, (*CPU).ora),
		0x11: readOp("ORA", IndirectIndexed, (*CPU).ora),

		0x49: readOp("EOR", Immediate, (*CPU).eor),
		0x45: readOp("EOR", ZeroPage, (*CPU).eor),
		0x55: readOp("EOR", ZeroPageX, (*CPU).eor),
		0x4D: readOp("EOR", Absolute, (*CPU).eor),
		0x5D: readOp("EOR", AbsoluteX, (*CPU).eor),
		0x59: readOp("EOR", AbsoluteY, (*CPU).eor),
		0x41: readOp("EOR", IndexedIndirect, (*CPU).eor),
		0x51: readOp("EOR", IndirectIndexed, (*CPU).eor),

		0x24: readOp("BIT", ZeroPage, (*CPU).bit),
		0x2C: readOp("BIT", Absolute, (*CPU).bit),

		// Compare
		0xC9: readOp("CMP", Immediate, (*CPU).cmp),
		0xC5: readOp("CMP", ZeroPage, (*CPU).cmp),
		0xD5: readOp("CMP", ZeroPageX, (*CPU).cmp),
		0xCD: readOp("CMP", Absolute, (*CPU).cmp),
		0xDD: readOp("CMP", AbsoluteX, (*CPU).cmp),
		0xD9: readOp("CMP", AbsoluteY, (*CPU).cmp),
		0xC1: readOp("CMP", IndexedIndirect, (*CPU).cmp),
		0xD1: readOp("CMP", IndirectIndexed, (*CPU).cmp),

		0xE0: readOp("CPX", Immediate, (*CPU).cpx),
		0xE4: readOp("CPX", ZeroPage, (*CPU).cpx),
		0xEC: readOp("CPX", Absolute, (*CPU).cpx),

		0xC0: readOp("CPY", Immediate, (*CPU).cpy),
		0xC4: readOp("CPY", ZeroPage, (*CPU).cpy),
		0xCC: readOp("CPY", Absolute, (*CPU).cpy),

		// Shifts and memory increments
		0x0A: rmwOp("ASL", Accumulator, (*CPU).asl),
		0x06: rmwOp("ASL", ZeroPage, (*CPU).asl),
		0x16: rmwOp("ASL", ZeroPageX, (*CPU).asl),
		0x0E: rmwOp("ASL", Absolute, (*CPU).asl),
		0x1E: rmwOp("ASL", AbsoluteX, (*CPU).asl),

		0x4A: rmwOp("LSR", Accumulator, (*CPU).lsr),
		0x46: rmwOp("LSR", ZeroPage, (*CPU).lsr),
		0x56: rmwOp("LSR", ZeroPageX, (*CPU).lsr),
		0x4E: rmwOp("LSR", Absolute, (*CPU).lsr),
		0x5E: rmwOp("LSR", AbsoluteX, (*CPU).lsr),

		0x2A: rmwOp("ROL", Accumulator, (*CPU).rol),
		0x26: rmwOp("ROL", ZeroPage, (*CPU).rol),
		0x36: rmwOp("ROL", ZeroPageX, (*CPU).rol),
		0x2E: rmwOp("ROL", Absolute, (*CPU).rol),
		0x3E: rmwOp("ROL", AbsoluteX, (*CPU).rol),

		0x6A: rmwOp("ROR", Accumulator, (*CPU).ror),
		0x66: rmwOp("ROR", ZeroPage, (*CPU).ror),
		0x76: rmwOp("ROR", ZeroPageX, (*CPU).ror),
		0x6E: rmwOp("ROR", Absolute, (*CPU).ror),
		0x7E: rmwOp("ROR", AbsoluteX, (*CPU).ror),

		0xE6: rmwOp("INC", ZeroPage, (*CPU).inc),
		0xF6: rmwOp("INC", ZeroPageX, (*CPU).inc),
		0xEE: rmwOp("INC", Absolute, (*CPU).inc),
		0xFE: rmwOp("INC", AbsoluteX, (*CPU).inc),

		0xC6: rmwOp("DEC", ZeroPage, (*CPU).dec),
		0xD6: rmwOp("DEC", ZeroPageX, (*CPU).dec),
		0xCE: rmwOp("DEC", Absolute, (*CPU).dec),
		0xDE: rmwOp("DEC", AbsoluteX, (*CPU).dec),

		// Register operations
		0xE8: impliedOp("INX", (*CPU).inx),
		0xC8: impliedOp("INY", (*CPU).iny),
		0xCA: impliedOp("DEX", (*CPU).dex),
		0x88: impliedOp("DEY", (*CPU).dey),
		0xAA: impliedOp("TAX", (*CPU).tax),
		0xA8: impliedOp("TAY", (*CPU).tay),
		0x8A: impliedOp("TXA", (*CPU).txa),
		0x98: impliedOp("TYA", (*CPU).tya),
		0xBA: impliedOp("TSX", (*CPU).tsx),
		0x9A: impliedOp("TXS", (*CPU).txs),

		// Flags
		0x18: impliedOp("CLC", (*CPU).clc),
		0x38: impliedOp("SEC", (*CPU).sec),
		0x58: impliedOp("CLI", (*CPU).cli),
		0x78: impliedOp("SEI", (*CPU).sei),
		0xB8: impliedOp("CLV", (*CPU).clv),
		0xD8: impliedOp("CLD", (*CPU).cld),
		0xF8: impliedOp("SED", (*CPU).sed),
		0xEA: impliedOp("NOP", (*CPU).nop),

		// Branches
		0x10: branchOp("BPL", func(c *CPU) bool { return !c.N }),
		0x30: branchOp("BMI", func(c *CPU) bool { return c.N }),
		0x50: branchOp("BVC", func(c *CPU) bool { return !c.V }),
		0x70: branchOp("BVS", func(c *CPU) bool { return c.V }),
		0x90: branchOp("BCC", func(c *CPU) bool { return !c.C }),
		0xB0: branchOp("BCS", func(c *CPU) bool { return c.C }),
		0xD0: branchOp("BNE", func(c *CPU) bool { return !c.Z }),
		0xF0: branchOp("BEQ", func(c *CPU) bool { return c.Z }),

		// Jumps, subroutines and the stack
		0x00: flowOp("BRK", Implied),
		0x20: flowOp("JSR", Absolute),
		0x40: flowOp("RTI", Implied),
		0x60: flowOp("RTS", Implied),
		0x4C: flowOp("JMP", Absolute),
		0x6C: flowOp("JMP", Indirect),
		0x48: flowOp("PHA", Implied),
		0x08: flowOp("PHP", Implied),
		0x68: flowOp("PLA", Implied),
		0x28: flowOp("PLP", Implied),

		// Undocumented NOPs
		0x1A: impliedOp("NOP", (*CPU).nop).undoc(),
		0x3A: impliedOp("NOP", (*CPU).nop).undoc(),
		0x5A: impliedOp("NOP", (*CPU).nop).undoc(),
		0x7A: impliedOp("NOP", (*CPU).nop).undoc(),
		0xDA: impliedOp("NOP", (*CPU).nop).undoc(),
		0xFA: impliedOp("NOP", (*CPU).nop).undoc(),
		0x80: readOp("NOP", Immediate, (*CPU).skip).undoc(),
		0x82: readOp("NOP", Immediate, (*CPU).skip).undoc(),
		0x89: readOp("NOP", Immediate, (*CPU).skip).undoc(),
		0xC2: readOp("NOP", Immediate, (*CPU).skip).undoc(),
		0xE2: readOp("NOP", Immediate, (*CPU).skip).undoc(),
		0x04: readOp("NOP", ZeroPage, (*CPU).skip).undoc(),
		0x44: readOp("NOP", ZeroPage, (*CPU).skip).undoc(),
		0x64: readOp("NOP", ZeroPage, (*CPU).skip).undoc(),
		0x14: readOp("NOP", ZeroPageX, (*CPU).skip).undoc(),
		0x34: readOp("NOP", ZeroPageX, (*CPU).skip).undoc(),
		0x54: readOp("NOP", ZeroPageX, (*CPU).skip).undoc(),
		0x74: readOp("NOP", ZeroPageX, (*CPU).skip).undoc(),
		0xD4: readOp("NOP", ZeroPageX, (*CPU).skip).undoc(),
		0xF4: readOp("NOP", ZeroPageX, (*CPU).skip).undoc(),
		0x0C: readOp("NOP", Absolute, (*CPU).skip).undoc(),
		0x1C: readOp("NOP", AbsoluteX, (*CPU).skip).undoc(),
		0x3C: readOp("NOP", AbsoluteX, (*CPU).skip).undoc(),
		0x5C: readOp("NOP", AbsoluteX, (*CPU).skip).undoc(),
		0x7C: readOp("NOP", AbsoluteX, (*CPU).skip).undoc(),
		0xDC: readOp("NOP", AbsoluteX, (*CPU).skip).undoc(),
		0xFC: readOp("NOP", AbsoluteX, (*CPU).skip).undoc(),

		// Undocumented combined operations
		0xA7: readOp("LAX", ZeroPage, (*CPU).lax).undoc(),
		0xB7: readOp("LAX", ZeroPageY, (*CPU).lax).undoc(),
		0xAF: readOp("LAX", Absolute, (*CPU).lax).undoc(),
		0xBF: readOp("LAX", AbsoluteY, (*CPU).lax).undoc(),
		0xA3: readOp("LAX", IndexedIndirect, (*CPU).lax).undoc(),
		0xB3: readOp("LAX", IndirectIndexed, (*CPU).lax).undoc(),

		0x87: writeOp("SAX", ZeroPage, (*CPU).sax).undoc(),
		0x97: writeOp("SAX", ZeroPageY, (*CPU).sax).undoc(),
		0x8F: writeOp("SAX", Absolute, (*CPU).sax).undoc(),
		0x83: writeOp("SAX", IndexedIndirect, (*CPU).sax).undoc(),

		0xC7: rmwOp("DCP", ZeroPage, (*CPU).dcp).undoc(),
		0xD7: rmwOp("DCP", ZeroPageX, (*CPU).dcp).undoc(),
		0xCF: rmwOp("DCP", Absolute, (*CPU).dcp).undoc(),
		0xDF: rmwOp("DCP", AbsoluteX, (*CPU).dcp).undoc(),
		0xDB: rmwOp("DCP", AbsoluteY, (*CPU).dcp).undoc(),
		0xC3: rmwOp("DCP", IndexedIndirect, (*CPU).dcp).undoc(),
		0xD3: rmwOp("DCP", IndirectIndexed, (*CPU).dcp).undoc(),

		0xE7: rmwOp("ISC", ZeroPage, (*CPU).isc).undoc(),
		0xF7: rmwOp("ISC", ZeroPageX, (*CPU).isc).undoc(),
		0xEF: rmwOp("ISC", Absolute, (*CPU).isc).undoc(),
		0xFF: rmwOp("ISC", AbsoluteX, (*CPU).isc).undoc(),
		0xFB: rmwOp("ISC", AbsoluteY, (*CPU).isc).undoc(),
		0xE3: rmwOp("ISC", IndexedIndirect, (*CPU).isc).undoc(),
		0xF3: rmwOp("ISC", IndirectIndexed, (*CPU).isc).undoc(),

		0x07: rmwOp("SLO", ZeroPage, (*CPU).slo).undoc(),
		0x17: rmwOp("SLO", ZeroPageX, (*CPU).slo).undoc(),
		0x0F: rmwOp("SLO", Absolute, (*CPU).slo).undoc(),
		0x1F: rmwOp("SLO", AbsoluteX, (*CPU).slo).undoc(),
		0x1B: rmwOp("SLO", AbsoluteY, (*CPU).slo).undoc(),
		0x03: rmwOp("SLO", IndexedIndirect, (*CPU).slo).undoc(),
		0x13: rmwOp("SLO", IndirectIndexed, (*CPU).slo).undoc(),

		0x27: rmwOp("RLA", ZeroPage, (*CPU).rla).undoc(),
		0x37: rmwOp("RLA", ZeroPageX, (*CPU).rla).undoc(),
		0x2F: rmwOp("RLA", Absolute, (*CPU).rla).undoc(),
		0x3F: rmwOp("RLA", AbsoluteX, (*CPU).rla).undoc(),
		0x3B: rmwOp("RLA", AbsoluteY, (*CPU).rla).undoc(),
		0x23: rmwOp("RLA", IndexedIndirect, (*CPU).rla).undoc(),
		0x33: rmwOp("RLA", IndirectIndexed, (*CPU).rla).undoc(),

		0x47: rmwOp("SRE", ZeroPage, (*CPU).sre).undoc(),
		0x57: rmwOp("SRE", ZeroPageX, (*CPU).sre).undoc(),
		0x4F: rmwOp("SRE", Absolute, (*CPU).sre).undoc(),
		0x5F: rmwOp("SRE", AbsoluteX, (*CPU).sre).undoc(),
		0x5B: rmwOp("SRE", AbsoluteY, (*CPU).sre).undoc(),
		0x43: rmwOp("SRE", IndexedIndirect, (*CPU).sre).undoc(),
		0x53: rmwOp("SRE", IndirectIndexed, (*CPU).sre).undoc(),

		0x67: rmwOp("RRA", ZeroPage, (*CPU).rra).undoc(),
		0x77: rmwOp("RRA", ZeroPageX, (*CPU).rra).undoc(),
		0x6F: rmwOp("RRA", Absolute, (*CPU).rra).undoc(),
		0x7F: rmwOp("RRA", AbsoluteX, (*CPU).rra).undoc(),
		0x7B: rmwOp("RRA", AbsoluteY, (*CPU).rra).undoc(),
		0x63: rmwOp("RRA", IndexedIndirect, (*CPU).rra).undoc(),
		0x73: rmwOp("RRA", IndirectIndexed, (*CPU).rra).undoc(),

		0x0B: readOp("ANC", Immediate, (*CPU).anc).undoc(),
		0x2B: readOp("ANC", Immediate, (*CPU).anc).undoc(),
		0x4B: readOp("ALR", Immediate, (*CPU).alr).undoc(),
		0x6B: readOp("ARR", Immediate, (*CPU).arr).undoc(),
		0x8B: readOp("ANE", Immediate, (*CPU).ane).undoc(),
		0xAB: readOp("LXA", Immediate, (*CPU).lxa).undoc(),
		0xCB: readOp("SBX", Immediate, (*CPU).sbx).undoc(),
		0xEB: readOp("SBC", Immediate, (*CPU).sbc).undoc(),

		0x9F: writeOp("SHA", AbsoluteY, (*CPU).sha).undoc(),
		0x93: writeOp("SHA", IndirectIndexed, (*CPU).sha).undoc(),
		0x9E: writeOp("SHX", AbsoluteY, (*CPU).shx).undoc(),
		0x9C: writeOp("SHY", AbsoluteX, (*CPU).shy).undoc(),
		0x9B: writeOp("TAS", AbsoluteY, (*CPU).tas).undoc(),
		0xBB: readOp("LAS", AbsoluteY, (*CPU).las).undoc(),
	}

	for _, op := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		instructions[op] = &Instruction{Name: "JAM", Mode: Implied, Effect: Jam, Undocumented: true}
	}

	for i, inst := range instructions {
		if inst == nil {
			panic("cpu: opcode table has a hole")
		}
		inst.Opcode = uint8(i)
	}
}
