package apu

// DMC rate table (NTSC), in CPU cycles
var dmcRateTable = [16]uint16{
	428, 380, 340, 320, 286, 254, 226, 214,
	190, 160, 142, 128, 106, 84, 72, 54,
}

// DMCRequest is the kind of sample fetch the DMC wants from the bus.
type DMCRequest uint8

const (
	RequestNone DMCRequest = iota
	// RequestLoad is the first fetch after a $4015 enable
	RequestLoad
	// RequestReload refills the buffer during playback
	RequestReload
)

func (r DMCRequest) String() string {
	switch r {
	case RequestLoad:
		return "load"
	case RequestReload:
		return "reload"
	}
	return "none"
}

// DMCChannel represents the Delta Modulation Channel
type DMCChannel struct {
	IRQEnabled bool   `json:"irq_enabled"`
	Loop       bool   `json:"loop"`
	RateIndex  uint8  `json:"rate_index"`
	Timer      uint16 `json:"timer"`
	Level      uint8  `json:"level"` // 7-bit DAC

	SampleAddress  uint16 `json:"sample_address"`
	SampleLength   uint16 `json:"sample_length"`
	Address        uint16 `json:"address"`
	BytesRemaining uint16 `json:"bytes_remaining"`

	Buffer        uint8 `json:"buffer"`
	BufferFull    bool  `json:"buffer_full"`
	Shift         uint8 `json:"shift"`
	BitsRemaining uint8 `json:"bits_remaining"`
	Silence       bool  `json:"silence"`

	IRQ         bool  `json:"irq"`
	LoadPending bool  `json:"load_pending"`
	LoadDelay   uint8 `json:"load_delay"`
}

// writeControl handles $4010
func (d *DMCChannel) writeControl(value uint8) {
	d.IRQEnabled = value&0x80 != 0
	d.Loop = value&0x40 != 0
	d.RateIndex = value & 0x0F
	if !d.IRQEnabled {
		d.IRQ = false
	}
}

// writeLevel handles $4011
func (d *DMCChannel) writeLevel(value uint8) {
	d.Level = value & 0x7F
}

// writeAddress handles $4012: $C000 + A*64
func (d *DMCChannel) writeAddress(value uint8) {
	d.SampleAddress = 0xC000 | uint16(value)<<6
}

// writeLength handles $4013: L*16 + 1 bytes
func (d *DMCChannel) writeLength(value uint8) {
	d.SampleLength = uint16(value)<<4 | 1
}

func (d *DMCChannel) restart() {
	d.Address = d.SampleAddress
	d.BytesRemaining = d.SampleLength
}

// setEnabled handles the DMC bit of a $4015 write. evenCycle selects the
// shorter of the two load delays.
func (d *DMCChannel) setEnabled(on, evenCycle bool) {
	d.IRQ = false
	if !on {
		d.BytesRemaining = 0
		d.LoadPending = false
		return
	}
	if d.BytesRemaining > 0 {
		return
	}
	d.restart()
	if !d.BufferFull && d.BytesRemaining > 0 {
		d.LoadPending = true
		d.LoadDelay = 2
		if !evenCycle {
			d.LoadDelay = 3
		}
	}
}

// request reports the fetch the DMC is waiting for.
func (d *DMCChannel) request() DMCRequest {
	if d.BufferFull || d.BytesRemaining == 0 {
		return RequestNone
	}
	if d.LoadPending {
		if d.LoadDelay > 0 {
			return RequestNone
		}
		return RequestLoad
	}
	return RequestReload
}

// fill delivers a fetched sample byte.
func (d *DMCChannel) fill(value uint8) {
	if d.BytesRemaining == 0 {
		return
	}
	d.Buffer = value
	d.BufferFull = true
	d.LoadPending = false
	d.LoadDelay = 0

	if d.Address == 0xFFFF {
		d.Address = 0x8000
	} else {
		d.Address++
	}
	d.BytesRemaining--
	if d.BytesRemaining == 0 {
		if d.Loop {
			d.restart()
		} else if d.IRQEnabled {
			d.IRQ = true
		}
	}
}

// clockTimer runs every CPU cycle
func (d *DMCChannel) clockTimer() {
	if d.LoadDelay > 0 {
		d.LoadDelay--
	}
	if d.Timer > 0 {
		d.Timer--
		return
	}
	d.Timer = dmcRateTable[d.RateIndex] - 1
	d.clockOutput()
}

func (d *DMCChannel) clockOutput() {
	if !d.Silence {
		if d.Shift&1 != 0 {
			if d.Level <= 125 {
				d.Level += 2
			}
		} else if d.Level >= 2 {
			d.Level -= 2
		}
		d.Shift >>= 1
	}

	if d.BitsRemaining > 0 {
		d.BitsRemaining--
	}
	if d.BitsRemaining > 0 {
		return
	}
	// Output cycle ends: start the next from the buffer
	d.BitsRemaining = 8
	if d.BufferFull {
		d.Silence = false
		d.Shift = d.Buffer
		d.BufferFull = false
	} else {
		d.Silence = true
	}
}

func (d *DMCChannel) output() uint8 {
	return d.Level
}
