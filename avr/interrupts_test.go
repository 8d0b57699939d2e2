package avr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExternalInterruptLevelLowDispatches(t *testing.T) {
	c := newTestCPU(t)
	c.Bus.SetFlags(1 << FlagI)
	require.NoError(t, c.Bus.SetData(AddrGICR, 1<<6)) // enable INT0, MCUCR defaults to level-low sense
	c.Bus.Ports[PortD].Pin(2).Set(0)                  // PD2 driven low

	startPC := c.PC
	_, err := c.Step()
	require.NoError(t, err)

	// The dispatched interrupt lands PC on the vector, then the same Step
	// call executes the (NOP) instruction sitting there, advancing PC by
	// one more, per the fixed step ordering (dispatch, then execute).
	require.Equal(t, VectorINT0+1, c.PC)
	require.EqualValues(t, 0, bit(c.Bus.Flags(), FlagI))
	require.Equal(t, startPC, c.Bus.Pop16())
}

func TestExternalInterruptRisingEdgeOnlyTriggersOnEdge(t *testing.T) {
	c := newTestCPU(t)
	c.Bus.SetFlags(1 << FlagI)
	require.NoError(t, c.Bus.SetData(AddrMCUCR, iscRising)) // ISC00/ISC01 = rising, for INT0
	require.NoError(t, c.Bus.SetData(AddrGICR, 1<<6))
	c.Bus.Ports[PortD].Pin(2).Set(0)

	spBefore := c.Bus.SP()
	_, err := c.Step()
	require.NoError(t, err)
	require.Equal(t, spBefore, c.Bus.SP()) // no edge yet: pin was already low, nothing dispatched

	c.Bus.Ports[PortD].Pin(2).Set(DefaultBoard.VCCMillivolts)
	c.Bus.SetFlags(c.Bus.Flags() | (1 << FlagI))
	pcBeforeEdge := c.PC
	_, err = c.Step()
	require.NoError(t, err)
	require.Equal(t, VectorINT0+1, c.PC)
	require.Equal(t, pcBeforeEdge, c.Bus.Pop16())
}

func TestTimer1CTCCompareMatchSetsOCF1A(t *testing.T) {
	c := newTestCPU(t)
	require.NoError(t, c.Bus.SetData(AddrOCR1AL, 3))
	require.NoError(t, c.Bus.SetData(AddrOCR1AH, 0))
	require.NoError(t, c.Bus.SetData(AddrTIMSK, 1<<4))
	require.NoError(t, c.Bus.SetData(AddrTCCR1B, 0b001)) // prescaler = 1

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Bus.Timer.Step(c.Bus))
	}

	require.EqualValues(t, 0, c.Bus.ioReg16(AddrTCNT1L))
	require.EqualValues(t, 1, bit(c.Bus.rawByte(AddrTIFR), 4))

	vec, ok := c.Bus.Timer.Pending(c.Bus)
	require.True(t, ok)
	require.Equal(t, VectorTimer1Compa, vec)
	require.EqualValues(t, 0, bit(c.Bus.rawByte(AddrTIFR), 4))
}
