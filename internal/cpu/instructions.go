package cpu

// Constants for the unstable undocumented immediates. Both vary between
// chips; these are the values most 2A03 dumps agree on.
const (
	aneMagic = 0xEE
	lxaMagic = 0xFF
)

func (c *CPU) setZN(value uint8) {
	c.Z = value == 0
	c.N = value&nFlagMask != 0
}

func (c *CPU) carry() uint8 {
	if c.C {
		return 1
	}
	return 0
}

// Load operations

func (c *CPU) lda(value uint8) {
	c.A = value
	c.setZN(c.A)
}

func (c *CPU) ldx(value uint8) {
	c.X = value
	c.setZN(c.X)
}

func (c *CPU) ldy(value uint8) {
	c.Y = value
	c.setZN(c.Y)
}

func (c *CPU) lax(value uint8) {
	c.A = value
	c.X = value
	c.setZN(value)
}

// Store operations return the byte driven on the final write cycle.

func (c *CPU) sta() uint8 { return c.A }
func (c *CPU) stx() uint8 { return c.X }
func (c *CPU) sty() uint8 { return c.Y }
func (c *CPU) sax() uint8 { return c.A & c.X }

// unstableStore ANDs the value with the high byte of the base address plus
// one. When indexing crossed a page the same value replaces the high byte of
// the target.
func (c *CPU) unstableStore(value uint8) uint8 {
	value &= uint8(c.base>>8) + 1
	if c.crossed {
		c.addr = uint16(value)<<8 | c.addr&0x00FF
	}
	return value
}

func (c *CPU) sha() uint8 { return c.unstableStore(c.A & c.X) }
func (c *CPU) shx() uint8 { return c.unstableStore(c.X) }
func (c *CPU) shy() uint8 { return c.unstableStore(c.Y) }

func (c *CPU) tas() uint8 {
	c.SP = c.A & c.X
	return c.unstableStore(c.SP)
}

// Arithmetic operations. The 2A03 has no decimal mode so D is ignored.

func (c *CPU) adc(value uint8) {
	result := uint16(c.A) + uint16(value) + uint16(c.carry())
	r := uint8(result)

	// Overflow when both inputs share a sign the result does not
	c.V = (c.A^r)&(value^r)&0x80 != 0
	c.C = result > 0xFF
	c.A = r
	c.setZN(c.A)
}

func (c *CPU) sbc(value uint8) {
	c.adc(^value)
}

// Logical operations

func (c *CPU) and(value uint8) {
	c.A &= value
	c.setZN(c.A)
}

func (c *CPU) ora(value uint8) {
	c.A |= value
	c.setZN(c.A)
}

func (c *CPU) eor(value uint8) {
	c.A ^= value
	c.setZN(c.A)
}

func (c *CPU) bit(value uint8) {
	c.Z = c.A&value == 0
	c.V = value&vFlagMask != 0
	c.N = value&nFlagMask != 0
}

// Comparisons

func (c *CPU) compare(register, value uint8) {
	c.C = register >= value
	c.setZN(register - value)
}

func (c *CPU) cmp(value uint8) { c.compare(c.A, value) }
func (c *CPU) cpx(value uint8) { c.compare(c.X, value) }
func (c *CPU) cpy(value uint8) { c.compare(c.Y, value) }

// Shifts and increments. They take the operand and return the result for
// both the accumulator and memory forms.

func (c *CPU) asl(value uint8) uint8 {
	c.C = value&0x80 != 0
	value <<= 1
	c.setZN(value)
	return value
}

func (c *CPU) lsr(value uint8) uint8 {
	c.C = value&0x01 != 0
	value >>= 1
	c.setZN(value)
	return value
}

func (c *CPU) rol(value uint8) uint8 {
	in := c.carry()
	c.C = value&0x80 != 0
	value = value<<1 | in
	c.setZN(value)
	return value
}

func (c *CPU) ror(value uint8) uint8 {
	in := c.carry() << 7
	c.C = value&0x01 != 0
	value = value>>1 | in
	c.setZN(value)
	return value
}

func (c *CPU) inc(value uint8) uint8 {
	value++
	c.setZN(value)
	return value
}

func (c *CPU) dec(value uint8) uint8 {
	value--
	c.setZN(value)
	return value
}

// Undocumented read-modify-write combinations

func (c *CPU) slo(value uint8) uint8 {
	value = c.asl(value)
	c.ora(value)
	return value
}

func (c *CPU) rla(value uint8) uint8 {
	value = c.rol(value)
	c.and(value)
	return value
}

func (c *CPU) sre(value uint8) uint8 {
	value = c.lsr(value)
	c.eor(value)
	return value
}

func (c *CPU) rra(value uint8) uint8 {
	value = c.ror(value)
	c.adc(value)
	return value
}

func (c *CPU) dcp(value uint8) uint8 {
	value--
	c.compare(c.A, value)
	return value
}

func (c *CPU) isc(value uint8) uint8 {
	value++
	c.sbc(value)
	return value
}

// Undocumented immediates

func (c *CPU) anc(value uint8) {
	c.and(value)
	c.C = c.N
}

func (c *CPU) alr(value uint8) {
	c.A = c.lsr(c.A & value)
}

func (c *CPU) arr(value uint8) {
	c.A = (c.A&value)>>1 | c.carry()<<7
	c.setZN(c.A)
	c.C = c.A&0x40 != 0
	c.V = (c.A>>6^c.A>>5)&1 != 0
}

func (c *CPU) ane(value uint8) {
	c.A = (c.A | aneMagic) & c.X & value
	c.setZN(c.A)
}

func (c *CPU) lxa(value uint8) {
	c.lax((c.A | lxaMagic) & value)
}

func (c *CPU) sbx(value uint8) {
	ax := c.A & c.X
	c.C = ax >= value
	c.X = ax - value
	c.setZN(c.X)
}

func (c *CPU) las(value uint8) {
	value &= c.SP
	c.A, c.X, c.SP = value, value, value
	c.setZN(value)
}

func (c *CPU) skip(uint8) {}

// Register transfers and increments

func (c *CPU) inx() { c.X++; c.setZN(c.X) }
func (c *CPU) iny() { c.Y++; c.setZN(c.Y) }
func (c *CPU) dex() { c.X--; c.setZN(c.X) }
func (c *CPU) dey() { c.Y--; c.setZN(c.Y) }

func (c *CPU) tax() { c.X = c.A; c.setZN(c.X) }
func (c *CPU) tay() { c.Y = c.A; c.setZN(c.Y) }
func (c *CPU) txa() { c.A = c.X; c.setZN(c.A) }
func (c *CPU) tya() { c.A = c.Y; c.setZN(c.A) }
func (c *CPU) tsx() { c.X = c.SP; c.setZN(c.X) }
func (c *CPU) txs() { c.SP = c.X }

// Flag operations

func (c *CPU) clc() { c.C = false }
func (c *CPU) sec() { c.C = true }
func (c *CPU) cli() { c.I = false }
func (c *CPU) sei() { c.I = true }
func (c *CPU) clv() { c.V = false }
func (c *CPU) cld() { c.D = false }
func (c *CPU) sed() { c.D = true }
func (c *CPU) nop() {}
