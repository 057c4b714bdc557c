package cpu

import (
	"fmt"
	"strings"
)

// Peeker reads memory without side effects. Trace uses it when the bus
// provides one.
type Peeker interface {
	Peek(address uint16) uint8
}

// Trace formats the instruction at the current boundary the way nestest.log
// does: PC, encoded bytes, disassembly, registers and the cycle count.
func (c *CPU) Trace() string {
	pc := c.PC
	if !c.AtInstructionBoundary() {
		pc = c.start
	}

	peek, ok := c.memory.(Peeker)
	if !ok {
		return fmt.Sprintf("%04X  %-8s  %-31s %s", pc, "??", "", c.registerString())
	}

	opcode := peek.Peek(pc)
	inst := instructions[opcode]
	n := inst.Bytes()

	raw := make([]string, n)
	for i := 0; i < n; i++ {
		raw[i] = fmt.Sprintf("%02X", peek.Peek(pc+uint16(i)))
	}

	lo := uint16(peek.Peek(pc + 1))
	hi := uint16(peek.Peek(pc + 2))
	name := inst.Name
	if inst.Undocumented {
		name = "*" + name
	}

	return fmt.Sprintf("%04X  %-8s %4s %-27s %s", pc, strings.Join(raw, " "), name,
		operandString(inst, pc, lo, hi), c.registerString())
}

func operandString(inst *Instruction, pc, lo, hi uint16) string {
	switch inst.Mode {
	case Accumulator:
		return "A"
	case Immediate:
		return fmt.Sprintf("#$%02X", lo)
	case ZeroPage:
		return fmt.Sprintf("$%02X", lo)
	case ZeroPageX:
		return fmt.Sprintf("$%02X,X", lo)
	case ZeroPageY:
		return fmt.Sprintf("$%02X,Y", lo)
	case Relative:
		return fmt.Sprintf("$%04X", pc+2+uint16(int8(lo)))
	case Absolute:
		return fmt.Sprintf("$%04X", hi<<8|lo)
	case AbsoluteX:
		return fmt.Sprintf("$%04X,X", hi<<8|lo)
	case AbsoluteY:
		return fmt.Sprintf("$%04X,Y", hi<<8|lo)
	case Indirect:
		return fmt.Sprintf("($%04X)", hi<<8|lo)
	case IndexedIndirect:
		return fmt.Sprintf("($%02X,X)", lo)
	case IndirectIndexed:
		return fmt.Sprintf("($%02X),Y", lo)
	}
	return ""
}

func (c *CPU) registerString() string {
	return fmt.Sprintf("A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		c.A, c.X, c.Y, c.GetStatusByte(), c.SP, c.cycles)
}

// getFlagsString returns the flags as NV-BDIZC letters.
func (c *CPU) getFlagsString() string {
	flags := []byte("--------")
	set := func(i int, on bool, r byte) {
		if on {
			flags[i] = r
		}
	}
	set(0, c.N, 'N')
	set(1, c.V, 'V')
	set(4, c.D, 'D')
	set(5, c.I, 'I')
	set(6, c.Z, 'Z')
	set(7, c.C, 'C')
	return string(flags)
}

// String summarises the registers for logs.
func (c *CPU) String() string {
	return fmt.Sprintf("PC=$%04X A=$%02X X=$%02X Y=$%02X SP=$%02X %s", c.PC, c.A, c.X, c.Y, c.SP, c.getFlagsString())
}
