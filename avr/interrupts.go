package avr

// ExternalInterrupts implements INT0 (PD2) and INT1 (PD3), grounded on
// original_source/src/interrupts.rs's PortInterrupts. Unlike that source
// (which panics on ISC encodings 2 and 3), all four ISC sense-control
// encodings are implemented here: the redesign calls for treating falling-
// and rising-edge sensing as first-class rather than an abort condition.
type ExternalInterrupts struct {
	prev [2]uint8
}

const (
	intBase      = 6 // bit offset of INT0/INT1 enable within GICR
	intPinBase   = 2 // bit offset of PD2/PD3 within PIND
	iscLevelLow  = 0
	iscAnyChange = 1
	iscFalling   = 2
	iscRising    = 3
)

// Step samples PIND against MCUCR's sense-control bits and latches any
// newly-triggered interrupt into GIFR. Called once per CPU step, before
// interrupts are polled, per the board's fixed step ordering.
func (e *ExternalInterrupts) Step(bus *Bus) {
	for n := 0; n < 2; n++ {
		gicr := bus.rawByte(AddrGICR)
		if bit(gicr, uint(intBase+n)) == 0 {
			continue
		}

		mcucr := bus.rawByte(AddrMCUCR)
		sense := bits(uint16(mcucr), uint(n*2), 2)
		newVal := bit(bus.Data(AddrPIND), uint(intPinBase+n))

		var triggered bool
		switch sense {
		case iscLevelLow:
			triggered = newVal == 0
		case iscAnyChange:
			triggered = newVal != e.prev[n]
		case iscFalling:
			triggered = e.prev[n] == 1 && newVal == 0
		case iscRising:
			triggered = e.prev[n] == 0 && newVal == 1
		}
		e.prev[n] = newVal

		if triggered {
			gifr := bus.rawByte(AddrGIFR)
			bus.rawSetByte(AddrGIFR, gifr|(1<<uint(intBase+n)))
		}
	}
}

// Pending reports and clears the highest-priority pending external
// interrupt (INT0 before INT1), or false if none is pending.
func (e *ExternalInterrupts) Pending(bus *Bus) (uint16, bool) {
	gifr := bus.rawByte(AddrGIFR)
	if bit(gifr, 6) == 1 {
		bus.rawSetByte(AddrGIFR, gifr&^(1<<6))
		return VectorINT0, true
	}
	if bit(gifr, 7) == 1 {
		bus.rawSetByte(AddrGIFR, gifr&^(1<<7))
		return VectorINT1, true
	}
	return 0, false
}

// Reset clears edge-detection history. GIFR/GICR/MCUCR are bytes in bus
// storage; Reset leaves them as they are.
func (e *ExternalInterrupts) Reset() {
	e.prev = [2]uint8{}
}

// Timer1 implements the 16-bit TCNT1/OCR1A compare-match (CTC) timer,
// grounded on original_source/src/interrupts.rs's TimerInterrupts. Only
// CTC-relevant registers are modeled; waveform generation modes and the
// two external clock sources (CS1=0b110/0b111) are out of scope.
type Timer1 struct {
	steps uint32
}

const timerCS1 = 0 // bit offset of the CS1[2:0] clock-select field in TCCR1B

var prescalerByClockSelect = map[uint8]uint32{
	0b001: 1,
	0b010: 8,
	0b011: 64,
	0b100: 256,
	0b101: 1024,
}

// Step advances the prescaler and, on overflow, increments TCNT1, resetting
// it and raising OCF1A when it reaches OCR1A (CTC mode).
func (t *Timer1) Step(bus *Bus) error {
	clockSelect := bits(uint16(bus.rawByte(AddrTCCR1B)), timerCS1, 3)
	if clockSelect == 0 {
		return nil
	}
	prescaler, ok := prescalerByClockSelect[clockSelect]
	if !ok {
		return ErrUnsupportedPrescaler
	}

	t.steps++
	if t.steps < prescaler {
		return nil
	}
	t.steps = 0

	timerVal := bus.ioReg16(AddrTCNT1L) + 1
	if timerVal == bus.ioReg16(AddrOCR1AL) {
		timerVal = 0
		tifr := bus.rawByte(AddrTIFR)
		bus.rawSetByte(AddrTIFR, tifr|(1<<4))
	}
	bus.setIOReg16(AddrTCNT1L, timerVal)
	return nil
}

// Pending reports and clears a pending TIMER1_COMPA interrupt.
func (t *Timer1) Pending(bus *Bus) (uint16, bool) {
	tifr := bus.rawByte(AddrTIFR)
	timsk := bus.rawByte(AddrTIMSK)
	if bit(timsk, 4) == 1 && bit(tifr, 4) == 1 {
		bus.rawSetByte(AddrTIFR, tifr&^(1<<4))
		return VectorTimer1Compa, true
	}
	return 0, false
}

// Reset clears the internal prescaler counter. TCNT1/OCR1A/TCCR1B are bytes
// in bus storage; Reset leaves them as they are.
func (t *Timer1) Reset() {
	t.steps = 0
}
