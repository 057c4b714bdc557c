package apu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPU_New_ShouldDefaultSampleRate(t *testing.T) {
	a := New(Config{})
	assert.Equal(t, DefaultSampleRate, a.SampleRate())

	b := New(Config{SampleRate: 48000})
	assert.Equal(t, 48000, b.SampleRate())
}

func TestAPU_PowerOn_ShouldBeSilent(t *testing.T) {
	a := New(Config{})
	assert.Equal(t, [5]uint8{}, a.ChannelOutputs())
	assert.Equal(t, float32(0), a.Output())
	assert.Equal(t, uint8(0), a.ReadStatus())
}

func TestAPU_StatusRead_ShouldReportActiveLengthCounters(t *testing.T) {
	a := New(Config{})
	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x400B, 0x08)

	assert.Equal(t, uint8(0x05), a.ReadStatus()&0x0F)

	a.WriteRegister(0x4015, 0x04)
	assert.Equal(t, uint8(0x04), a.ReadStatus()&0x0F)
}

func TestAPU_LengthLoad_ShouldBeIgnoredWhileDisabled(t *testing.T) {
	a := New(Config{})
	a.WriteRegister(0x4003, 0x08)
	assert.Equal(t, uint8(0), a.pulse1.Length.Value)
}

func TestPulse_LowPeriod_ShouldMute(t *testing.T) {
	a := New(Config{})
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0xBF) // 50% duty, constant volume 15
	a.WriteRegister(0x4002, 0x05)
	a.WriteRegister(0x4003, 0x08)

	assert.True(t, a.pulse1.muted())
	for i := 0; i < 64; i++ {
		a.Step()
		require.Equal(t, uint8(0), a.ChannelOutputs()[0])
	}
}

func TestPulse_SweepOverflow_ShouldMuteEvenWhenDisabled(t *testing.T) {
	p := PulseChannel{Period: 0x7FF, SweepShift: 1}
	assert.False(t, p.SweepEnabled)
	assert.True(t, p.muted())

	p.SweepNegate = true
	assert.False(t, p.muted())
}

func TestPulse_NegatedSweep_ShouldDifferBetweenChannels(t *testing.T) {
	p1 := PulseChannel{Period: 0x100, SweepShift: 1, SweepNegate: true, OnesComplement: true}
	p2 := PulseChannel{Period: 0x100, SweepShift: 1, SweepNegate: true}

	assert.Equal(t, 0x7F, p1.targetPeriod())
	assert.Equal(t, 0x80, p2.targetPeriod())
}

func TestPulse_SweepClock_ShouldUpdatePeriod(t *testing.T) {
	p := PulseChannel{Period: 0x100}
	p.writeSweep(0x81) // enabled, period 0, shift 1

	p.clockSweep()
	assert.Equal(t, uint16(0x180), p.Period)
	assert.False(t, p.SweepReload)
}

func TestPulse_Output_ShouldFollowDutySequence(t *testing.T) {
	p := PulseChannel{
		Length:   LengthCounter{Enabled: true, Value: 10},
		Envelope: Envelope{Constant: true, Volume: 9},
		Duty:     2,
		Period:   8,
	}

	var seen []uint8
	for i := 0; i < 8; i++ {
		p.Timer = 0
		p.clockTimer()
		seen = append(seen, p.output())
	}
	// The sequencer counts down from 0: 7, 6, 5 ... 0
	assert.Equal(t, []uint8{0, 0, 0, 9, 9, 9, 9, 0}, seen)
}

func TestEnvelope_Decay_ShouldLoopWhenFlagSet(t *testing.T) {
	e := Envelope{Start: true, Loop: true}
	e.clock()
	assert.Equal(t, uint8(15), e.output())

	for i := 0; i < 15; i++ {
		e.clock()
	}
	assert.Equal(t, uint8(0), e.output())

	e.clock()
	assert.Equal(t, uint8(15), e.output())
}

func TestTriangle_Sequencer_ShouldAdvanceEveryPeriodPlusOneCycles(t *testing.T) {
	tri := TriangleChannel{
		Length: LengthCounter{Enabled: true, Value: 10},
		Linear: 5,
		Period: 2,
	}

	for i := 0; i < 9; i++ {
		tri.clockTimer()
	}
	assert.Equal(t, uint8(3), tri.Step)
	assert.Equal(t, uint8(12), tri.output())
}

func TestTriangle_ZeroLinearCounter_ShouldHoldOutputLevel(t *testing.T) {
	tri := TriangleChannel{
		Length: LengthCounter{Enabled: true, Value: 10},
		Step:   20,
		Period: 2,
	}

	for i := 0; i < 30; i++ {
		tri.clockTimer()
	}
	assert.Equal(t, uint8(20), tri.Step)
	assert.Equal(t, uint8(4), tri.output())
}

func TestTriangle_LinearCounter_ShouldReloadUntilControlClears(t *testing.T) {
	tri := TriangleChannel{}
	tri.writeControl(0x85)
	tri.writeTimerHigh(0x00)

	tri.clockLinear()
	tri.clockLinear()
	assert.Equal(t, uint8(5), tri.Linear)
	assert.True(t, tri.LinearReload)

	tri.writeControl(0x05)
	tri.clockLinear()
	assert.False(t, tri.LinearReload)
	tri.clockLinear()
	assert.Equal(t, uint8(4), tri.Linear)
}

func TestNoise_LFSR_ShouldUseModeTap(t *testing.T) {
	long := NoiseChannel{Shift: 0x41}
	long.clockTimer()
	assert.Equal(t, uint16(0x4020), long.Shift)

	short := NoiseChannel{Shift: 0x41, Mode: true}
	short.clockTimer()
	assert.Equal(t, uint16(0x0020), short.Shift)
}

func TestNoise_LongMode_ShouldRepeatAfter32767Steps(t *testing.T) {
	n := NoiseChannel{Shift: 1}
	steps := 0
	for {
		n.Timer = 0
		n.clockTimer()
		steps++
		if n.Shift == 1 || steps > 40000 {
			break
		}
	}
	assert.Equal(t, 32767, steps)
}

func TestNoise_Timer_ShouldReloadFromPeriodTable(t *testing.T) {
	n := NoiseChannel{Shift: 1, PeriodIndex: 3}
	n.clockTimer()
	assert.Equal(t, uint16(15), n.Timer)
}

func TestDMC_EnableOnEvenCycle_ShouldRequestLoadAfterTwoCycles(t *testing.T) {
	a := New(Config{})
	a.WriteRegister(0x4012, 0x00)
	a.WriteRegister(0x4013, 0x01)
	a.WriteRegister(0x4015, 0x10)

	kind, _ := a.DMCRequest()
	assert.Equal(t, RequestNone, kind)
	a.Step()
	kind, _ = a.DMCRequest()
	assert.Equal(t, RequestNone, kind)
	a.Step()
	kind, addr := a.DMCRequest()
	assert.Equal(t, RequestLoad, kind)
	assert.Equal(t, uint16(0xC000), addr)
}

func TestDMC_EnableOnOddCycle_ShouldRequestLoadAfterThreeCycles(t *testing.T) {
	a := New(Config{})
	a.Step()
	a.WriteRegister(0x4013, 0x01)
	a.WriteRegister(0x4015, 0x10)

	stepN(a, 2)
	kind, _ := a.DMCRequest()
	assert.Equal(t, RequestNone, kind)
	a.Step()
	kind, _ = a.DMCRequest()
	assert.Equal(t, RequestLoad, kind)
}

func TestDMC_Fill_ShouldAdvanceAddressAndClearRequest(t *testing.T) {
	a := New(Config{})
	a.WriteRegister(0x4013, 0x01)
	a.WriteRegister(0x4015, 0x10)
	stepN(a, 2)

	a.FillSampleBuffer(0xAA)
	kind, addr := a.DMCRequest()
	assert.Equal(t, RequestNone, kind)
	assert.Equal(t, uint16(0xC001), addr)
	assert.Equal(t, uint16(16), a.dmc.BytesRemaining)
	assert.Equal(t, uint8(0x10), a.ReadStatus()&0x10)
}

func TestDMC_EmptyBufferDuringPlayback_ShouldRequestReload(t *testing.T) {
	d := DMCChannel{BytesRemaining: 4, Address: 0xD000}
	assert.Equal(t, RequestReload, d.request())
	assert.Equal(t, "reload", d.request().String())
}

func TestDMC_Address_ShouldWrapToLowerBank(t *testing.T) {
	d := DMCChannel{Address: 0xFFFF, BytesRemaining: 2}
	d.fill(0x00)
	assert.Equal(t, uint16(0x8000), d.Address)
}

func TestDMC_LastByte_ShouldRaiseIRQWhenEnabled(t *testing.T) {
	d := DMCChannel{IRQEnabled: true, Address: 0xC000, BytesRemaining: 1}
	d.fill(0x55)
	assert.True(t, d.IRQ)
	assert.Equal(t, uint16(0), d.BytesRemaining)
	assert.Equal(t, RequestNone, d.request())
}

func TestDMC_LastByteWithLoop_ShouldRestartSample(t *testing.T) {
	d := DMCChannel{
		IRQEnabled:     true,
		Loop:           true,
		SampleAddress:  0xC000,
		SampleLength:   17,
		Address:        0xC010,
		BytesRemaining: 1,
	}
	d.fill(0x55)
	assert.False(t, d.IRQ)
	assert.Equal(t, uint16(0xC000), d.Address)
	assert.Equal(t, uint16(17), d.BytesRemaining)
}

func TestDMC_StatusWrite_ShouldAcknowledgeIRQ(t *testing.T) {
	a := New(Config{})
	a.dmc.IRQ = true
	assert.True(t, a.DMCIRQ())
	assert.Equal(t, uint8(0x80), a.ReadStatus()&0x80)

	a.WriteRegister(0x4015, 0x00)
	assert.False(t, a.DMCIRQ())
}

func TestDMC_DisablingIRQ_ShouldClearFlag(t *testing.T) {
	a := New(Config{})
	a.dmc.IRQ = true
	a.WriteRegister(0x4010, 0x00)
	assert.False(t, a.DMCIRQ())
}

func TestDMC_OutputUnit_ShouldMoveLevelByTwo(t *testing.T) {
	d := DMCChannel{Level: 64, Buffer: 0x01, BufferFull: true, BitsRemaining: 1, Silence: true}
	d.clockOutput()
	require.False(t, d.Silence)
	require.False(t, d.BufferFull)

	d.clockOutput()
	assert.Equal(t, uint8(66), d.Level)
	d.clockOutput()
	assert.Equal(t, uint8(64), d.Level)
}

func TestMixer_Output_ShouldStayInUnitRange(t *testing.T) {
	assert.Equal(t, float32(0), mix(0, 0, 0, 0, 0))

	peak := mix(15, 15, 15, 15, 127)
	assert.InDelta(t, 1.0, peak, 0.001)
	assert.LessOrEqual(t, peak, float32(1))
}

func TestAPU_Samples_ShouldMatchSampleRate(t *testing.T) {
	a := New(Config{})
	stepN(a, CPUFrequency)

	samples := a.DrainSamples()
	assert.Len(t, samples, DefaultSampleRate)
	assert.Empty(t, a.DrainSamples())
}

func TestAPU_UndrainedSamples_ShouldBeDropped(t *testing.T) {
	a := New(Config{})
	stepN(a, 2*CPUFrequency)

	assert.Equal(t, uint64(2*DefaultSampleRate-maxBufferedSamples), a.Dropped())
	assert.Len(t, a.DrainSamples(), maxBufferedSamples)
}

func TestAPU_Filter_ShouldRemoveDCOffset(t *testing.T) {
	a := New(Config{Filter: true})
	a.WriteRegister(0x4011, 0x7F)
	stepN(a, CPUFrequency/2)

	samples := a.DrainSamples()
	require.NotEmpty(t, samples)
	assert.InDelta(t, 0, samples[len(samples)-1], 0.01)
}

func TestAPU_Reset_ShouldSilenceChannelsAndKeepMode(t *testing.T) {
	a := New(Config{})
	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x4017, 0x80)

	a.Reset()
	assert.Equal(t, uint8(0), a.ReadStatus()&0x1F)
	assert.True(t, a.frame.FiveStep)
}

func TestAPU_LoadState_ShouldResumeIdentically(t *testing.T) {
	a := New(Config{})
	a.WriteRegister(0x4015, 0x0F)
	a.WriteRegister(0x4000, 0x9F)
	a.WriteRegister(0x4002, 0x40)
	a.WriteRegister(0x4003, 0x08)
	a.WriteRegister(0x400C, 0x1F)
	a.WriteRegister(0x400E, 0x04)
	a.WriteRegister(0x400F, 0x08)
	stepN(a, 5000)

	snapshot := a.SaveState()
	a.DrainSamples()
	stepN(a, 20000)
	want := a.DrainSamples()

	b := New(Config{})
	b.LoadState(snapshot)
	stepN(b, 20000)
	assert.Equal(t, want, b.DrainSamples())
	assert.Equal(t, a.SaveState(), b.SaveState())
}

func TestAPU_LoadState_ShouldRestoreFilterHistory(t *testing.T) {
	a := New(Config{Filter: true})
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0xBF)
	a.WriteRegister(0x4002, 0x80)
	a.WriteRegister(0x4003, 0x08)
	stepN(a, 7000)

	snapshot := a.SaveState()
	require.Len(t, snapshot.Filter, 3)
	a.DrainSamples()
	stepN(a, 20000)
	want := a.DrainSamples()

	b := New(Config{Filter: true})
	b.LoadState(snapshot)
	stepN(b, 20000)
	assert.Equal(t, want, b.DrainSamples())

	assert.Empty(t, New(Config{}).SaveState().Filter)
}
