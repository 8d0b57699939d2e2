package avr

// Bus layout constants, all given as data-space byte addresses (register
// file at 0x00-0x1F, I/O window at 0x20-0x5F).
const (
	NumRegisters  = 0x20
	IOOffset      = NumRegisters
	NumIORegs     = 0x40
	SRAMSize      = 2144
	ProgramSize   = 32 * 1024
	MaxWords      = ProgramSize / 2
	NumPorts      = 4
	NumADCPins    = 8
	RegisterAHi   = NumRegisters - 1
)

// Named I/O register addresses, given as bus (data-space) addresses.
const (
	AddrUDR    uint16 = IOOffset + 0x0C
	AddrADCL   uint16 = IOOffset + 0x04
	AddrADCH   uint16 = IOOffset + 0x05
	AddrADCSRA uint16 = IOOffset + 0x06
	AddrADMUX  uint16 = IOOffset + 0x07
	AddrOCR1AL uint16 = IOOffset + 0x2A
	AddrOCR1AH uint16 = IOOffset + 0x2B
	AddrTCNT1L uint16 = IOOffset + 0x2C
	AddrTCNT1H uint16 = IOOffset + 0x2D
	AddrTCCR1B uint16 = IOOffset + 0x2E
	AddrGIFR   uint16 = IOOffset + 0x3A
	AddrGICR   uint16 = IOOffset + 0x3B
	AddrTIFR   uint16 = IOOffset + 0x38
	AddrTIMSK  uint16 = IOOffset + 0x39
	AddrMCUCR  uint16 = IOOffset + 0x35
	AddrSPL    uint16 = IOOffset + 0x3D
	AddrSPH    uint16 = IOOffset + 0x3E
	AddrSREG   uint16 = IOOffset + 0x3F
	AddrPIND   uint16 = 0x30 // port D's PIN register; INT0/INT1 sample PD2/PD3 here
)

// portBase returns the PIN-register bus address of port i (0=A,1=B,2=C,3=D).
// This formula already yields a full bus address (it is not relative to
// IOOffset): base = 0x30 + (3-i)*3, matching the real ATmega32 SFR map
// (PINA=0x39, PINB=0x36, PINC=0x33, PIND=0x30).
func portBase(i int) uint16 {
	return uint16(0x30 + (3-i)*3)
}

// Port indices.
const (
	PortA = 0
	PortB = 1
	PortC = 2
	PortD = 3
)

// SREG flag bit positions.
const (
	FlagI = 7
	FlagT = 6
	FlagH = 5
	FlagS = 4
	FlagV = 3
	FlagN = 2
	FlagZ = 1
	FlagC = 0
)

// Interrupt vectors, given as word-indexed program-counter targets per the
// board's own convention (not doubled to a byte address).
const (
	VectorINT0        uint16 = 1
	VectorINT1        uint16 = 2
	VectorTimer1Compa uint16 = 7
)
