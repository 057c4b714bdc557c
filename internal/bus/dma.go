package bus

import (
	"fmt"

	"cyclenes/internal/apu"
	"cyclenes/internal/logger"
)

// HaltRead selects what the data bus does on DMA halt, dummy and alignment
// cycles.
type HaltRead uint8

const (
	// HaltReadsCPUAddress repeats the read the CPU was about to make. Reads
	// with side effects, such as $4016 or $2007, happen twice.
	HaltReadsCPUAddress HaltRead = iota
	// HaltReadsOpenBus leaves the bus idle on those cycles.
	HaltReadsOpenBus
)

func (h HaltRead) String() string {
	switch h {
	case HaltReadsCPUAddress:
		return "cpu"
	case HaltReadsOpenBus:
		return "openbus"
	}
	return fmt.Sprintf("HaltRead(%d)", uint8(h))
}

// ParseHaltRead converts a config string to a HaltRead.
func ParseHaltRead(s string) (HaltRead, error) {
	switch s {
	case "", "cpu":
		return HaltReadsCPUAddress, nil
	case "openbus":
		return HaltReadsOpenBus, nil
	}
	return HaltReadsCPUAddress, fmt.Errorf("unknown DMA halt read %q", s)
}

const (
	oamDataRegister = 0x2004
	// halt and dummy cycles a DMC fetch waits before its read
	dmcSetupCycles = 2
)

// dmaUnit is the 2A03's DMA controller. OAM and DMC transfers share one
// halt of the CPU. Reads happen on get (even) cycles and writes on put
// (odd) cycles; the DMC read wins a get cycle over OAM.
type dmaUnit struct {
	halted      bool
	haltAddress uint16

	oamActive bool
	oamPage   uint8
	oamIndex  uint16
	oamLatch  uint8
	oamLoaded bool

	dmcActive bool
	dmcWait   uint8
	dmcKind   apu.DMCRequest
}

// startOAMDMA is the $4014 write hook. The transfer begins on the next
// cycle the CPU would read.
func (b *Bus) startOAMDMA(page uint8) {
	if b.dma.oamActive {
		return
	}
	b.dma.oamActive = true
	b.dma.oamPage = page
	b.dma.oamIndex = 0
	b.dma.oamLoaded = false
}

// pollDMC picks up a sample fetch requested by the APU.
func (b *Bus) pollDMC() {
	if b.dma.dmcActive {
		return
	}
	kind, _ := b.APU.DMCRequest()
	if kind == apu.RequestNone {
		return
	}
	b.dma.dmcActive = true
	b.dma.dmcWait = dmcSetupCycles
	b.dma.dmcKind = kind
}

// stepDMA runs one DMA cycle if a transfer owns the bus, and reports whether
// it did. The CPU is stalled for that cycle.
func (b *Bus) stepDMA() bool {
	d := &b.dma
	if !d.oamActive && !d.dmcActive {
		return false
	}

	if !d.halted {
		// The halt only lands on a CPU read cycle
		address, write := b.CPU.NextAccess()
		if write {
			return false
		}
		d.halted = true
		d.haltAddress = address
		b.idleRead()
		if d.dmcActive {
			d.dmcWait--
		}
		b.CPU.Stall()
		b.dmaCycles++
		return true
	}

	get := b.CPU.Cycles()&1 == 0
	switch {
	case get && d.dmcActive && d.dmcWait == 0:
		b.dmcRead()
	case get && d.oamActive && !d.oamLoaded:
		d.oamLatch = b.Memory.Read(uint16(d.oamPage)<<8 | d.oamIndex)
		d.oamLoaded = true
		b.countDMCWait()
	case !get && d.oamActive && d.oamLoaded:
		b.Memory.Write(oamDataRegister, d.oamLatch)
		d.oamLoaded = false
		d.oamIndex++
		if d.oamIndex == 256 {
			d.oamActive = false
		}
		b.countDMCWait()
	default:
		// dummy or alignment cycle
		b.idleRead()
		b.countDMCWait()
	}

	b.CPU.Stall()
	b.dmaCycles++
	if !d.oamActive && !d.dmcActive {
		d.halted = false
	}
	return true
}

func (b *Bus) countDMCWait() {
	if b.dma.dmcActive && b.dma.dmcWait > 0 {
		b.dma.dmcWait--
	}
}

func (b *Bus) dmcRead() {
	d := &b.dma
	d.dmcActive = false
	kind, address := b.APU.DMCRequest()
	if kind == apu.RequestNone {
		// The DMC was disabled while the fetch was pending
		logger.Logf(logger.TagBus, "dropped %s DMC fetch", d.dmcKind)
		b.idleRead()
		return
	}
	b.APU.FillSampleBuffer(b.Memory.Read(address))
}

// idleRead is the bus activity of a halt, dummy or alignment cycle.
func (b *Bus) idleRead() {
	if b.options.DMAHaltRead == HaltReadsCPUAddress {
		b.Memory.Read(b.dma.haltAddress)
	}
}
