package bus

import "cyclenes/internal/cartridge"

// NewForTesting builds a powered-on console around a generated ROM image.
func NewForTesting(builder *cartridge.TestROMBuilder, opts Options) (*Bus, error) {
	cart, err := builder.BuildCartridgeWithOptions(opts.Cartridge)
	if err != nil {
		return nil, err
	}
	b := New(opts)
	b.LoadCartridge(cart)
	return b, nil
}

// RunUntil steps until cond holds or limit cycles have run, and reports
// whether cond was met.
func (b *Bus) RunUntil(limit int, cond func() bool) bool {
	for i := 0; i < limit; i++ {
		if cond() {
			return true
		}
		b.StepCycle()
	}
	return cond()
}
