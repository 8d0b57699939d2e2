package avr

import "testing"

// newTestCPU builds a CPU over a blank (all-NOP) program image on the
// default 5V board, the way every boundary-scenario test needs a core to
// poke registers on without caring about the loaded program itself.
func newTestCPU(t *testing.T) *CPU {
	t.Helper()
	bus, err := NewBus(make([]byte, 16), DefaultBoard)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	c := NewCPU(bus, false)
	c.Bus.SetSP(SRAMSize - 1)
	return c
}
