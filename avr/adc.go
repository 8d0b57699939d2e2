package avr

// ADC models the 10-bit analog-to-digital converter, sampling Port A's
// eight pins. Conversions are instantaneous (no sample-and-hold delay):
// a write to ADCSRA that sets ADEN and ADSC completes the conversion
// synchronously, grounded on original_source/src/ports.rs's adc_write.
type ADC struct {
	pins  [8]*Wire
	vccMV uint16
}

const (
	bitADEN  = 7
	bitADSC  = 6
	bitADATE = 5
	bitADIF  = 4
	bitADIE  = 3
	bitREFS1 = 7
	bitREFS0 = 6
	bitADLAR = 5
	bitMUX4  = 4
	bitMUX3  = 3
	adcBits  = 10
)

func newADC(port *Port, vccMV uint16) *ADC {
	a := &ADC{vccMV: vccMV}
	for i := 0; i < 8; i++ {
		a.pins[i] = port.Pin(i)
	}
	return a
}

// onADCSRAWrite runs as part of the bus's dispatch-before-store path for a
// write to ADCSRA. It returns the value that should actually be stored
// (with ADSC cleared on a completed conversion) and performs the direct
// ADCL/ADCH register writes itself. admux is the ADMUX register's current
// stored value (unaffected by this write).
func (a *ADC) onADCSRAWrite(bus *Bus, admux, val uint8) (uint8, error) {
	if bit(val, bitADEN) != 1 || bit(val, bitADSC) != 1 {
		return val, nil
	}

	// Only AVCC-as-reference, right-adjusted, single-ended low channels
	// (ADC0-ADC7) are supported; anything else is an unmodeled profile.
	if !(bit(admux, bitREFS1) == 0 && bit(admux, bitREFS0) == 1) {
		return val, ErrADCProfileUnsupported
	}
	if bit(admux, bitADLAR) != 0 {
		return val, ErrADCProfileUnsupported
	}
	if bit(admux, bitMUX3) != 0 || bit(admux, bitMUX4) != 0 {
		return val, ErrADCProfileUnsupported
	}
	if bit(val, bitADATE) != 0 || bit(val, bitADIF) != 0 || bit(val, bitADIE) != 0 {
		return val, ErrADCProfileUnsupported
	}

	pin := bits(uint16(admux), 0, 3)
	mv := uint32(a.pins[pin].MV())
	read := mv * (1 << adcBits) / uint32(a.vccMV)
	if read == (1 << adcBits) {
		read--
	}

	bus.rawSetByte(AddrADCL, uint8(read))
	bus.rawSetByte(AddrADCH, bits(uint16(read), 8, 2))

	return val &^ (1 << bitADSC), nil
}
