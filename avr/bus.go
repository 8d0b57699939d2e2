package avr

// Board collects the configuration a Bus needs that isn't implied by the
// program image itself: supply voltage, drawn from the ambient viper-backed
// config rather than hardcoded, per the board description SPEC_FULL adds.
type Board struct {
	VCCMillivolts uint16
}

// DefaultBoard is a 5V ATmega32, the configuration assumed when no board
// file overrides it.
var DefaultBoard = Board{VCCMillivolts: 5000}

// Bus is the single flat address space shared by the register file, the
// I/O window, general SRAM, and the decoded-instruction cache, grounded on
// original_source/src/memory.rs's Memory.
type Bus struct {
	data    [SRAMSize]byte
	program [ProgramSize]byte
	cache   []Instr

	Ports [NumPorts]*Port
	ADC   *ADC
	Ext   *ExternalInterrupts
	Timer *Timer1

	board Board
}

// NewBus loads a raw program image and prepares the bus for execution.
func NewBus(image []byte, board Board) (*Bus, error) {
	if len(image) > ProgramSize {
		return nil, ErrProgramTooLarge
	}

	b := &Bus{board: board, Ext: &ExternalInterrupts{}, Timer: &Timer1{}}
	for i := range b.Ports {
		b.Ports[i] = newPort(i, board.VCCMillivolts)
	}
	b.ADC = newADC(b.Ports[PortA], board.VCCMillivolts)

	copy(b.program[:], image)

	words := make([]uint16, (len(image)+1)/2)
	for i := range words {
		lo := image[2*i]
		var hi byte
		if 2*i+1 < len(image) {
			hi = image[2*i+1]
		}
		words[i] = uint16(lo) | uint16(hi)<<8
	}

	decoded := Decode(words)
	b.cache = make([]Instr, MaxWords)
	copy(b.cache, decoded)
	for i := len(decoded); i < MaxWords; i++ {
		b.cache[i] = Instr{Op: OpNOP}
	}

	return b, nil
}

// Reset returns the peripherals' internal state (port DDR/PORT latches,
// external-interrupt edge history, the Timer1 prescaler count) to power-on
// values. Everything held in data space (register file, I/O registers such
// as SREG, SP, GIFR and TCNT1, and SRAM) and the decoded program are left
// untouched.
func (b *Bus) Reset() {
	for _, p := range b.Ports {
		p.Reset()
	}
	b.Ext.Reset()
	b.Timer.Reset()
}

// Instruction returns the decoded instruction at word index pc.
func (b *Bus) Instruction(pc uint16) Instr {
	return b.cache[pc]
}

// ReadProgram returns the byte-addressed program memory contents, used by
// LPM.
func (b *Bus) ReadProgram(addr uint16) uint8 {
	return b.program[addr]
}

// Reg reads general-purpose register index (0-31).
func (b *Bus) Reg(index uint8) uint8 {
	return b.data[index]
}

// SetReg writes general-purpose register index (0-31).
func (b *Bus) SetReg(index uint8, val uint8) {
	b.data[index] = val
}

// WordReg reads the 16-bit little-endian pair starting at an even register
// index (X=26, Y=28, Z=30, or the MUL/MOVW destination pair).
func (b *Bus) WordReg(index uint8) uint16 {
	return uint16(b.data[index]) | uint16(b.data[index+1])<<8
}

// SetWordReg writes a 16-bit little-endian register pair.
func (b *Bus) SetWordReg(index uint8, val uint16) {
	b.data[index] = uint8(val)
	b.data[index+1] = uint8(val >> 8)
}

// rawByte reads a bus address without going through port/ADC dispatch. Used
// by peripherals to inspect their own control/status registers.
func (b *Bus) rawByte(addr uint16) uint8 {
	return b.data[addr]
}

// rawSetByte stores a bus address directly, bypassing write dispatch. Used
// by the ADC to land ADCL/ADCH without re-triggering itself.
func (b *Bus) rawSetByte(addr uint16, val uint8) {
	b.data[addr] = val
}

// ioReg16 reads a little-endian 16-bit value from two consecutive bus
// addresses (TCNT1, OCR1A).
func (b *Bus) ioReg16(addrLo uint16) uint16 {
	return uint16(b.rawByte(addrLo)) | uint16(b.rawByte(addrLo+1))<<8
}

func (b *Bus) setIOReg16(addrLo uint16, val uint16) {
	b.rawSetByte(addrLo, uint8(val))
	b.rawSetByte(addrLo+1, uint8(val>>8))
}

// IOReg reads I/O register index (0-63), i.e. bus address IOOffset+index.
func (b *Bus) IOReg(index uint8) uint8 {
	return b.Data(uint16(IOOffset) + uint16(index))
}

// SetIOReg writes I/O register index (0-63) through the normal dispatch
// path.
func (b *Bus) SetIOReg(index uint8, val uint8) error {
	return b.SetData(uint16(IOOffset)+uint16(index), val)
}

// Data reads a bus address. Ports intercept reads within their own PIN/DDR/
// PORT range; everything else falls back to raw storage.
func (b *Bus) Data(addr uint16) uint8 {
	for _, p := range b.Ports {
		if v, ok := p.Read(addr); ok {
			return v
		}
	}
	return b.data[addr]
}

// SetData writes a bus address. Per the board's write contract, the write
// is dispatched to peripherals (ADC trigger, UDR passthrough, port latch
// update) using the incoming value before that value (possibly adjusted,
// e.g. ADCSRA's ADSC bit cleared by a completed conversion) is stored.
func (b *Bus) SetData(addr uint16, val uint8) error {
	final := val

	if addr == AddrADCSRA {
		admux := b.rawByte(AddrADMUX)
		v, err := b.ADC.onADCSRAWrite(b, admux, val)
		if err != nil {
			return err
		}
		final = v
	}

	if addr == AddrUDR {
		writeUDR(val)
	}

	for _, p := range b.Ports {
		p.Write(addr, final)
	}

	b.data[addr] = final
	return nil
}

// Flags returns the SREG byte.
func (b *Bus) Flags() uint8 {
	return b.rawByte(AddrSREG)
}

// SetFlags stores the SREG byte directly; SREG is not a Port/ADC address so
// this never needs the dispatch path.
func (b *Bus) SetFlags(flags uint8) {
	b.rawSetByte(AddrSREG, flags)
}

// SP returns the stack pointer.
func (b *Bus) SP() uint16 {
	return b.ioReg16(AddrSPL)
}

// SetSP stores the stack pointer.
func (b *Bus) SetSP(val uint16) {
	b.setIOReg16(AddrSPL, val)
}

// Push stores val at [SP] and decrements SP, going through the normal
// dispatch path (a push to an I/O-mapped stack location is a real, if
// unusual, program).
func (b *Bus) Push(val uint8) error {
	sp := b.SP()
	if err := b.SetData(sp, val); err != nil {
		return err
	}
	b.SetSP(sp - 1)
	return nil
}

// Pop increments SP and returns the byte now at [SP].
func (b *Bus) Pop() uint8 {
	sp := b.SP() + 1
	ret := b.Data(sp)
	b.SetSP(sp)
	return ret
}

// Push16 pushes the low byte then the high byte, so the high byte ends up
// at the lower address (the first one Pop16 reads back).
func (b *Bus) Push16(val uint16) error {
	if err := b.Push(uint8(val)); err != nil {
		return err
	}
	return b.Push(uint8(val >> 8))
}

// Pop16 is the inverse of Push16.
func (b *Bus) Pop16() uint16 {
	top := uint16(b.Pop())
	bot := uint16(b.Pop())
	return top<<8 | bot
}

// writeUDR is the board's minimal USART transmit-data-register model: every
// byte written passes straight through to stdout, per the board's scope
// (no baud/frame emulation).
var writeUDR = func(val uint8) {
	stdoutWriter.WriteByte(val)
	stdoutWriter.Flush()
}
