package cpu

// IRQSource is a bit in the wired-OR IRQ line.
type IRQSource uint8

const (
	IRQFrameCounter IRQSource = 1 << iota
	IRQDMC
	IRQMapper
)

// InterruptLines carries the NMI level and the IRQ sources shared between
// the CPU and the devices that drive them.
type InterruptLines struct {
	NMI bool
	irq IRQSource
}

// SetIRQ asserts or releases one IRQ source.
func (l *InterruptLines) SetIRQ(source IRQSource, asserted bool) {
	if asserted {
		l.irq |= source
	} else {
		l.irq &^= source
	}
}

// IRQ reports whether any source holds the line low.
func (l *InterruptLines) IRQ() bool {
	return l.irq != 0
}

// Sources returns the asserted source bits.
func (l *InterruptLines) Sources() IRQSource {
	return l.irq
}

// SetNMI drives the NMI level.
func (l *InterruptLines) SetNMI(level bool) {
	l.NMI = level
}

type interruptKind uint8

const (
	intrNone interruptKind = iota // BRK opcode
	intrHardware
	intrReset
)

// poll samples the interrupt lines at the end of a cycle. The values shifted
// into nmiPrev and irqPrev are the ones acted on at the next instruction
// boundary, i.e. the penultimate-cycle sample.
func (c *CPU) poll() {
	var nmi, irq bool
	if c.lines != nil {
		nmi = c.lines.NMI
		irq = c.lines.IRQ()
	}

	c.nmiPrev = c.nmiPending && !c.nmiHold
	c.nmiHold = false
	if nmi && !c.nmiLevel {
		c.nmiPending = true
	}
	c.nmiLevel = nmi

	c.irqPrev = c.irqRun
	c.irqRun = irq && !c.I
}

// interruptDue reports whether the boundary about to start should run the
// interrupt sequence instead of fetching an opcode.
func (c *CPU) interruptDue() bool {
	return c.nmiPrev || c.irqPrev
}
