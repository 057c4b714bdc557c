// Package cpu implements the 2A03's 6502 core one machine cycle at a time.
package cpu

import "cyclenes/internal/logger"

// CPU constants
const (
	// Stack base address
	stackBase = 0x0100
	// Status register bit masks
	nFlagMask  = 0x80
	vFlagMask  = 0x40
	unusedMask = 0x20
	bFlagMask  = 0x10
	dFlagMask  = 0x08
	iFlagMask  = 0x04
	zFlagMask  = 0x02
	cFlagMask  = 0x01
	// Interrupt vectors
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
	// Address read on every cycle once jammed
	jamAddress = 0xFFFF
)

// MemoryInterface is the CPU data bus. Every cycle performs exactly one call.
type MemoryInterface interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	// Registers
	A  uint8  // Accumulator
	X  uint8  // X register
	Y  uint8  // Y register
	SP uint8  // Stack pointer
	PC uint16 // Program counter

	// Status register flags. Bits 4 and 5 exist only on the stack.
	C bool // Carry
	Z bool // Zero
	I bool // Interrupt disable
	D bool // Decimal mode (stored, never used for arithmetic)
	V bool // Overflow
	N bool // Negative

	memory MemoryInterface
	lines  *InterruptLines

	cycles uint64

	// In-flight instruction
	opcode  uint8
	inst    *Instruction
	t       int
	addr    uint16
	base    uint16
	vector  uint16
	ptr     uint8
	data    uint8
	crossed bool
	intr    interruptKind
	start   uint16

	resetPending bool
	vectored     bool // the first handler instruction always runs
	jammed       bool
	dryRun       bool

	// Interrupt poll pipeline
	nmiLevel   bool
	nmiPending bool
	nmiPrev    bool
	nmiHold    bool // set and consumed within one Step
	irqRun     bool
	irqPrev    bool
}

// New creates a CPU on the given bus. lines may be nil when no device
// drives interrupts.
func New(memory MemoryInterface, lines *InterruptLines) *CPU {
	return &CPU{
		memory: memory,
		lines:  lines,
		SP:     0xFD,
		I:      true,
	}
}

// PowerOn puts the registers in their power-up state and arms the 7-cycle
// reset sequence, which runs on the following Step calls.
func (c *CPU) PowerOn() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0x00
	c.SetStatusByte(0x34)
	c.cycles = 0
	c.nmiLevel, c.nmiPending, c.nmiPrev = false, false, false
	c.irqRun, c.irqPrev = false, false
	c.armReset()
}

// Reset arms the reset sequence. A, X and Y are kept. The three stack
// cycles are reads, so SP ends three lower with memory untouched.
func (c *CPU) Reset() {
	c.I = true
	c.nmiPending, c.nmiPrev = false, false
	c.irqPrev = false
	c.armReset()
}

func (c *CPU) armReset() {
	c.jammed = false
	c.resetPending = true
	c.t = 0
}

// Step runs one machine cycle.
func (c *CPU) Step() {
	switch {
	case c.jammed:
		c.read(jamAddress)
	case c.t == 0:
		c.begin()
	default:
		if c.execute() {
			c.t = 0
		} else {
			c.t++
		}
	}
	c.cycles++
	c.poll()
}

// Stall accounts for a cycle in which the CPU is held off the bus by DMA.
// Interrupt lines are still sampled.
func (c *CPU) Stall() {
	c.cycles++
	c.poll()
}

// begin performs cycle T0: the opcode fetch, or the discarded fetch that
// opens the reset and interrupt sequences.
func (c *CPU) begin() {
	c.start = c.PC
	c.t = 1
	c.crossed = false
	due := c.interruptDue() && !c.vectored
	c.vectored = false

	switch {
	case c.resetPending:
		c.resetPending = false
		c.intr = intrReset
		c.opcode, c.inst = 0x00, instructions[0x00]
		c.read(c.PC)
	case due:
		c.intr = intrHardware
		c.opcode, c.inst = 0x00, instructions[0x00]
		c.read(c.PC)
	default:
		c.intr = intrNone
		c.opcode = c.fetch()
		c.inst = instructions[c.opcode]
	}
}

// Cycles returns the number of CPU cycles run, stalls included.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Jammed reports whether a JAM opcode halted the processor.
func (c *CPU) Jammed() bool {
	return c.jammed
}

// AtInstructionBoundary reports whether the next Step fetches an opcode or
// starts an interrupt sequence.
func (c *CPU) AtInstructionBoundary() bool {
	return c.t == 0 && !c.jammed
}

// NextAccess reports the address and direction of the bus access the next
// Step will perform, without performing it.
func (c *CPU) NextAccess() (address uint16, write bool) {
	saved := *c
	r := &accessRecorder{}
	c.memory = r
	c.dryRun = true
	c.Step()
	*c = saved
	return r.address, r.write
}

// NextCycleIsWrite reports whether the next cycle drives the bus.
func (c *CPU) NextCycleIsWrite() bool {
	_, write := c.NextAccess()
	return write
}

// PendingReadAddress is the address the next cycle reads. It is meaningful
// only when NextCycleIsWrite is false.
func (c *CPU) PendingReadAddress() uint16 {
	address, _ := c.NextAccess()
	return address
}

// accessRecorder records the first access of a dry-run cycle.
type accessRecorder struct {
	address uint16
	write   bool
	seen    bool
}

func (r *accessRecorder) Read(address uint16) uint8 {
	if !r.seen {
		r.address, r.seen = address, true
	}
	return 0
}

func (r *accessRecorder) Write(address uint16, _ uint8) {
	if !r.seen {
		r.address, r.write, r.seen = address, true, true
	}
}

// GetStatusByte returns P with bit 5 set and bit 4 clear.
func (c *CPU) GetStatusByte() uint8 {
	status := uint8(unusedMask)
	if c.C {
		status |= cFlagMask
	}
	if c.Z {
		status |= zFlagMask
	}
	if c.I {
		status |= iFlagMask
	}
	if c.D {
		status |= dFlagMask
	}
	if c.V {
		status |= vFlagMask
	}
	if c.N {
		status |= nFlagMask
	}
	return status
}

// SetStatusByte loads P. Bits 4 and 5 are ignored.
func (c *CPU) SetStatusByte(status uint8) {
	c.C = status&cFlagMask != 0
	c.Z = status&zFlagMask != 0
	c.I = status&iFlagMask != 0
	c.D = status&dFlagMask != 0
	c.V = status&vFlagMask != 0
	c.N = status&nFlagMask != 0
}

func (c *CPU) read(address uint16) uint8 {
	return c.memory.Read(address)
}

func (c *CPU) write(address uint16, value uint8) {
	c.memory.Write(address, value)
}

func (c *CPU) fetch() uint8 {
	v := c.memory.Read(c.PC)
	c.PC++
	return v
}

// push writes to the stack, or reads it during reset.
func (c *CPU) push(value uint8) {
	if c.intr == intrReset {
		c.read(stackBase | uint16(c.SP))
	} else {
		c.write(stackBase|uint16(c.SP), value)
	}
	c.SP--
}

func (c *CPU) jam() {
	c.read(jamAddress)
	c.jammed = true
	if !c.dryRun {
		logger.Logf(logger.TagCPU, "JAM $%02X at $%04X, halted until reset", c.opcode, c.start)
	}
}
