package avr

import "fmt"

// ProgramError reports a programmer error: the running image did something
// the core refuses to continue past. The core aborts rather than guess.
type ProgramError struct {
	PC  uint16 // word-indexed program counter at the time of the fault
	Raw uint16 // raw instruction word, when one is available
	Err error
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("pc=%#04x raw=%#04x: %s", e.PC, e.Raw, e.Err)
}

func (e *ProgramError) Unwrap() error { return e.Err }

var (
	// ErrUnknownOpcode is raised when the decoder produces OpUnknown.
	ErrUnknownOpcode = fmt.Errorf("unknown opcode")
	// ErrIncompleteOpcode is raised when a two-word instruction's second
	// word falls off the end of the program image.
	ErrIncompleteOpcode = fmt.Errorf("incomplete two-word opcode at end of image")
	// ErrSecondWordExecuted is raised when control flow lands directly on
	// the second word of a two-word instruction.
	ErrSecondWordExecuted = fmt.Errorf("executed second word of a two-word instruction")
	// ErrUnsupportedPrescaler is raised by Timer1 for a clock-select
	// encoding with no defined prescaler (CS1=0b110/0b111 are external
	// clock sources, not modeled here).
	ErrUnsupportedPrescaler = fmt.Errorf("unsupported timer1 clock select")
	// ErrADCProfileUnsupported is raised when an ADCSRA-triggered
	// conversion's ADMUX/ADCSRA bits fall outside the accepted profile.
	ErrADCProfileUnsupported = fmt.Errorf("unsupported ADC configuration profile")
	// ErrProgramTooLarge is raised at load time for an image that exceeds
	// the 32 KiB program memory.
	ErrProgramTooLarge = fmt.Errorf("program image exceeds program memory")
)

// fault wraps err with the CPU's current position and aborts execution; the
// caller always returns immediately after calling this.
func fault(pc uint16, raw uint16, err error) *ProgramError {
	return &ProgramError{PC: pc, Raw: raw, Err: err}
}
