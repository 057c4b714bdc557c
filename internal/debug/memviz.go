package debug

import (
	"fmt"
	"io"

	"cyclenes/internal/bus"

	"github.com/bradleyjkemp/memviz"
)

// DumpState writes a Graphviz graph of a machine snapshot. RAM and VRAM
// arrays are elided unless full is set; they dominate the graph otherwise.
func DumpState(w io.Writer, b *bus.Bus, full bool) error {
	s, err := b.SaveState()
	if err != nil {
		return fmt.Errorf("dump state: %w", err)
	}
	if !full {
		s.Memory.RAM = nil
		s.PPUMemory.VRAM = nil
		s.Cartridge.PRGRAM = nil
		s.Cartridge.CHRRAM = nil
		s.Mapper = nil
	}
	memviz.Map(w, s)
	return nil
}
