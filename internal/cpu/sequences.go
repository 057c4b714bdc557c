package cpu

// execute runs cycle T1 onward of the current instruction and reports whether
// it was the last one.
func (c *CPU) execute() bool {
	switch c.opcode {
	case 0x00:
		return c.stepInterrupt()
	case 0x20:
		return c.stepJSR()
	case 0x40:
		return c.stepRTI()
	case 0x60:
		return c.stepRTS()
	case 0x08, 0x48:
		return c.stepPush()
	case 0x28, 0x68:
		return c.stepPull()
	case 0x4C:
		return c.stepJumpAbsolute()
	case 0x6C:
		return c.stepJumpIndirect()
	}

	if c.inst.Effect == Jam {
		c.jam()
		return true
	}

	switch c.inst.Mode {
	case Implied, Accumulator:
		return c.stepImplied()
	case Immediate:
		c.data = c.fetch()
		c.inst.read(c, c.data)
		return true
	case Relative:
		return c.stepBranch()
	case ZeroPage:
		if c.t == 1 {
			c.addr = uint16(c.fetch())
			return false
		}
		return c.access(c.t - 2)
	case ZeroPageX:
		return c.stepZeroPageIndexed(c.X)
	case ZeroPageY:
		return c.stepZeroPageIndexed(c.Y)
	case Absolute:
		switch c.t {
		case 1:
			c.addr = uint16(c.fetch())
			return false
		case 2:
			c.addr |= uint16(c.fetch()) << 8
			return false
		}
		return c.access(c.t - 3)
	case AbsoluteX:
		return c.stepAbsoluteIndexed(c.X)
	case AbsoluteY:
		return c.stepAbsoluteIndexed(c.Y)
	case IndexedIndirect:
		return c.stepIndexedIndirect()
	case IndirectIndexed:
		return c.stepIndirectIndexed()
	}
	return true
}

// access performs the cycles that touch the effective address. step counts
// from the first of them.
func (c *CPU) access(step int) bool {
	switch c.inst.Effect {
	case Read:
		c.data = c.read(c.addr)
		c.inst.read(c, c.data)
		return true
	case Write:
		v := c.inst.write(c)
		c.write(c.addr, v)
		return true
	}

	// read-modify-write: read, write back the original, write the result
	switch step {
	case 0:
		c.data = c.read(c.addr)
		return false
	case 1:
		c.write(c.addr, c.data)
		c.data = c.inst.modify(c, c.data)
		return false
	default:
		c.write(c.addr, c.data)
		return true
	}
}

func (c *CPU) stepImplied() bool {
	c.read(c.PC)
	if c.inst.Effect == RMW {
		c.A = c.inst.modify(c, c.A)
	} else {
		c.inst.exec(c)
	}
	return true
}

func (c *CPU) stepZeroPageIndexed(index uint8) bool {
	switch c.t {
	case 1:
		c.ptr = c.fetch()
		return false
	case 2:
		c.read(uint16(c.ptr))
		c.addr = uint16(c.ptr + index)
		return false
	}
	return c.access(c.t - 3)
}

// indexBase adds an index to c.base and records whether the page changed.
func (c *CPU) indexBase(index uint8) {
	c.addr = c.base + uint16(index)
	c.crossed = c.addr&0xFF00 != c.base&0xFF00
}

// fixup is the cycle that reads through the unfixed high byte. Reads that
// did not cross a page finish here.
func (c *CPU) fixup() bool {
	if c.inst.Effect == Read && !c.crossed {
		return c.access(0)
	}
	c.read(c.base&0xFF00 | c.addr&0x00FF)
	return false
}

func (c *CPU) stepAbsoluteIndexed(index uint8) bool {
	switch c.t {
	case 1:
		c.base = uint16(c.fetch())
		return false
	case 2:
		c.base |= uint16(c.fetch()) << 8
		c.indexBase(index)
		return false
	case 3:
		return c.fixup()
	}
	return c.access(c.t - 4)
}

func (c *CPU) stepIndexedIndirect() bool {
	switch c.t {
	case 1:
		c.ptr = c.fetch()
		return false
	case 2:
		c.read(uint16(c.ptr))
		c.ptr += c.X
		return false
	case 3:
		c.addr = uint16(c.read(uint16(c.ptr)))
		return false
	case 4:
		c.addr |= uint16(c.read(uint16(c.ptr+1))) << 8
		return false
	}
	return c.access(c.t - 5)
}

func (c *CPU) stepIndirectIndexed() bool {
	switch c.t {
	case 1:
		c.ptr = c.fetch()
		return false
	case 2:
		c.base = uint16(c.read(uint16(c.ptr)))
		return false
	case 3:
		c.base |= uint16(c.read(uint16(c.ptr+1))) << 8
		c.indexBase(c.Y)
		return false
	case 4:
		return c.fixup()
	}
	return c.access(c.t - 5)
}

func (c *CPU) stepBranch() bool {
	switch c.t {
	case 1:
		offset := c.fetch()
		if !c.inst.cond(c) {
			return true
		}
		c.addr = c.PC + uint16(int8(offset))
		return false
	case 2:
		c.read(c.PC)
		// a taken branch does not poll on this cycle: an interrupt that
		// first showed up during the operand fetch waits one more
		// instruction. A latched NMI edge stays pending.
		if c.irqRun && !c.irqPrev {
			c.irqRun = false
		}
		c.nmiHold = c.nmiPending && !c.nmiPrev
		if c.addr&0xFF00 == c.PC&0xFF00 {
			c.PC = c.addr
			return true
		}
		c.PC = c.PC&0xFF00 | c.addr&0x00FF
		return false
	default:
		c.read(c.PC)
		c.PC = c.addr
		return true
	}
}

// stepInterrupt is BRK and the shared IRQ/NMI/reset sequence.
func (c *CPU) stepInterrupt() bool {
	switch c.t {
	case 1:
		c.read(c.PC)
		if c.intr == intrNone {
			c.PC++
		}
	case 2:
		c.push(uint8(c.PC >> 8))
	case 3:
		c.push(uint8(c.PC))
	case 4:
		// the vector is chosen here, so a late NMI hijacks BRK and IRQ
		switch {
		case c.intr == intrReset:
			c.vector = resetVector
		case c.nmiPending:
			c.nmiPending = false
			c.vector = nmiVector
		default:
			c.vector = irqVector
		}
		status := c.GetStatusByte()
		if c.intr == intrNone {
			status |= bFlagMask
		}
		c.push(status)
	case 5:
		c.addr = uint16(c.read(c.vector))
		c.I = true
	case 6:
		c.addr |= uint16(c.read(c.vector+1)) << 8
		c.PC = c.addr
		c.vectored = true
		return true
	}
	return false
}

func (c *CPU) stepJSR() bool {
	switch c.t {
	case 1:
		c.addr = uint16(c.fetch())
	case 2:
		c.read(stackBase | uint16(c.SP))
	case 3:
		c.push(uint8(c.PC >> 8))
	case 4:
		c.push(uint8(c.PC))
	case 5:
		c.addr |= uint16(c.read(c.PC)) << 8
		c.PC = c.addr
		return true
	}
	return false
}

func (c *CPU) stepRTS() bool {
	switch c.t {
	case 1:
		c.read(c.PC)
	case 2:
		c.read(stackBase | uint16(c.SP))
		c.SP++
	case 3:
		c.addr = uint16(c.read(stackBase | uint16(c.SP)))
		c.SP++
	case 4:
		c.addr |= uint16(c.read(stackBase|uint16(c.SP))) << 8
		c.PC = c.addr
	case 5:
		c.read(c.PC)
		c.PC++
		return true
	}
	return false
}

func (c *CPU) stepRTI() bool {
	switch c.t {
	case 1:
		c.read(c.PC)
	case 2:
		c.read(stackBase | uint16(c.SP))
		c.SP++
	case 3:
		c.SetStatusByte(c.read(stackBase | uint16(c.SP)))
		c.SP++
	case 4:
		c.addr = uint16(c.read(stackBase | uint16(c.SP)))
		c.SP++
	case 5:
		c.addr |= uint16(c.read(stackBase|uint16(c.SP))) << 8
		c.PC = c.addr
		return true
	}
	return false
}

// stepPush is PHA and PHP.
func (c *CPU) stepPush() bool {
	if c.t == 1 {
		c.read(c.PC)
		return false
	}
	if c.opcode == 0x48 {
		c.push(c.A)
	} else {
		c.push(c.GetStatusByte() | bFlagMask)
	}
	return true
}

// stepPull is PLA and PLP.
func (c *CPU) stepPull() bool {
	switch c.t {
	case 1:
		c.read(c.PC)
		return false
	case 2:
		c.read(stackBase | uint16(c.SP))
		c.SP++
		return false
	}
	v := c.read(stackBase | uint16(c.SP))
	if c.opcode == 0x68 {
		c.lda(v)
	} else {
		c.SetStatusByte(v)
	}
	return true
}

func (c *CPU) stepJumpAbsolute() bool {
	if c.t == 1 {
		c.addr = uint16(c.fetch())
		return false
	}
	c.addr |= uint16(c.fetch()) << 8
	c.PC = c.addr
	return true
}

// stepJumpIndirect reproduces the pointer high byte wrapping within its page.
func (c *CPU) stepJumpIndirect() bool {
	switch c.t {
	case 1:
		c.base = uint16(c.fetch())
	case 2:
		c.base |= uint16(c.fetch()) << 8
	case 3:
		c.addr = uint16(c.read(c.base))
	case 4:
		hi := c.base&0xFF00 | (c.base+1)&0x00FF
		c.addr |= uint16(c.read(hi)) << 8
		c.PC = c.addr
		return true
	}
	return false
}
