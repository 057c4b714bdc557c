package cpu

// State is the serialisable CPU snapshot, including the in-flight cycle.
type State struct {
	A      uint8  `json:"a"`
	X      uint8  `json:"x"`
	Y      uint8  `json:"y"`
	SP     uint8  `json:"sp"`
	PC     uint16 `json:"pc"`
	P      uint8  `json:"p"`
	Cycles uint64 `json:"cycles"`

	Opcode    uint8  `json:"opcode"`
	T         int    `json:"t"`
	Addr      uint16 `json:"addr"`
	Base      uint16 `json:"base"`
	Vector    uint16 `json:"vector"`
	Ptr       uint8  `json:"ptr"`
	Data      uint8  `json:"data"`
	Crossed   bool   `json:"crossed"`
	Interrupt uint8  `json:"interrupt"`
	Start     uint16 `json:"start"`

	ResetPending bool `json:"reset_pending"`
	Vectored     bool `json:"vectored"`
	Jammed       bool `json:"jammed"`

	NMILevel   bool `json:"nmi_level"`
	NMIPending bool `json:"nmi_pending"`
	NMIPrev    bool `json:"nmi_prev"`
	IRQRun     bool `json:"irq_run"`
	IRQPrev    bool `json:"irq_prev"`
}

// SaveState captures the CPU.
func (c *CPU) SaveState() State {
	return State{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP,
		PC:     c.PC,
		P:      c.GetStatusByte(),
		Cycles: c.cycles,

		Opcode:    c.opcode,
		T:         c.t,
		Addr:      c.addr,
		Base:      c.base,
		Vector:    c.vector,
		Ptr:       c.ptr,
		Data:      c.data,
		Crossed:   c.crossed,
		Interrupt: uint8(c.intr),
		Start:     c.start,

		ResetPending: c.resetPending,
		Vectored:     c.vectored,
		Jammed:       c.jammed,

		NMILevel:   c.nmiLevel,
		NMIPending: c.nmiPending,
		NMIPrev:    c.nmiPrev,
		IRQRun:     c.irqRun,
		IRQPrev:    c.irqPrev,
	}
}

// LoadState restores a snapshot taken by SaveState.
func (c *CPU) LoadState(s State) {
	c.A, c.X, c.Y, c.SP = s.A, s.X, s.Y, s.SP
	c.PC = s.PC
	c.SetStatusByte(s.P)
	c.cycles = s.Cycles

	c.opcode = s.Opcode
	c.inst = instructions[s.Opcode]
	c.t = s.T
	c.addr = s.Addr
	c.base = s.Base
	c.vector = s.Vector
	c.ptr = s.Ptr
	c.data = s.Data
	c.crossed = s.Crossed
	c.intr = interruptKind(s.Interrupt)
	c.start = s.Start

	c.resetPending = s.ResetPending
	c.vectored = s.Vectored
	c.jammed = s.Jammed

	c.nmiLevel = s.NMILevel
	c.nmiPending = s.NMIPending
	c.nmiPrev = s.NMIPrev
	c.irqRun = s.IRQRun
	c.irqPrev = s.IRQPrev
}
