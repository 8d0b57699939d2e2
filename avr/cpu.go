package avr

import "log/slog"

// CPU is the register-file-less execution context: PC, run-mode bits, and a
// Bus. Register state, SREG, and the stack all live on the Bus; CPU only
// tracks what a real AVR core's own sequencer would, grounded on
// original_source/src/cpu.rs's Cpu struct (stripped of the JIT's raw
// machine-code buffer map, which this port replaces with a cache of
// pre-resolved basic blocks in jit.go).
type CPU struct {
	Bus *Bus
	PC  uint16

	Sleeping  bool
	HaltOnNOP bool
	halted    bool

	useJIT bool
	blocks map[uint16]*block

	log *slog.Logger
}

// NewCPU constructs a CPU around an already-loaded Bus.
func NewCPU(bus *Bus, haltOnNOP bool) *CPU {
	return &CPU{Bus: bus, HaltOnNOP: haltOnNOP, log: noopLogger}
}

// Reset returns PC, the sleeping/halted bits and the JIT block cache to
// their power-on state, then resets the bus's peripherals (see Bus.Reset).
func (c *CPU) Reset() {
	c.PC = 0
	c.Sleeping = false
	c.halted = false
	c.blocks = make(map[uint16]*block)
	c.Bus.Reset()
	c.log.Debug("core reset")
}

// EnableJIT turns on the basic-block cache. Off by default.
func (c *CPU) EnableJIT() {
	c.useJIT = true
	c.blocks = make(map[uint16]*block)
}

const noChange int8 = -1

// Step advances the machine by exactly one unit of work: peripherals always
// advance, then at most one interrupt is taken, then (unless now sleeping)
// either one instruction or, with the JIT enabled, one compiled basic
// block runs. This ordering is fixed and must not be reshuffled: it is what
// lets an interrupt handler's first instruction run before a pending
// peripheral tick is re-observed. Returns false once the core has halted
// (HaltOnNOP tripped) or a ProgramError aborts it.
func (c *CPU) Step() (bool, error) {
	if c.halted {
		return false, nil
	}

	c.Bus.Ext.Step(c.Bus)
	if err := c.Bus.Timer.Step(c.Bus); err != nil {
		c.halted = true
		return false, fault(c.PC, 0, err)
	}

	if bit(c.Bus.Flags(), FlagI) == 1 {
		if vec, ok := c.pendingInterrupt(); ok {
			c.log.Debug("interrupt dispatched", "vector", vec, "return_pc", c.PC)
			c.Sleeping = false
			c.setFlags(0, noChange, noChange, noChange, noChange, noChange, noChange)
			if err := c.Bus.Push16(c.PC); err != nil {
				c.halted = true
				return false, fault(c.PC, 0, err)
			}
			c.PC = vec
		}
	}

	if c.Sleeping {
		return true, nil
	}

	if c.useJIT {
		blk := c.blockFor(c.PC)
		if err := blk.run(c); err != nil {
			c.halted = true
			return false, err
		}
	} else {
		instr := c.Bus.Instruction(c.PC)
		if err := c.execute(instr); err != nil {
			c.halted = true
			return false, err
		}
	}

	return !c.halted, nil
}

// Run steps the CPU until it halts or faults.
func (c *CPU) Run() error {
	for {
		running, err := c.Step()
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
	}
}

// pendingInterrupt polls the two interrupt sources in fixed priority order:
// external pin interrupts before the timer, matching the board's single
// non-nested interrupt controller.
func (c *CPU) pendingInterrupt() (uint16, bool) {
	if vec, ok := c.Bus.Ext.Pending(c.Bus); ok {
		return vec, true
	}
	return c.Bus.Timer.Pending(c.Bus)
}

// setFlags updates SREG. Each parameter is 0, 1, or noChange to leave that
// flag untouched. S is always recomputed as N^V, regardless of which other
// flags this call touched, per original_source/src/cpu.rs's set_flags.
func (c *CPU) setFlags(i, t, h, v, n, z, cf int8) {
	var setMask, outVal uint8
	apply := func(val int8, pos uint) {
		if val < 0 {
			return
		}
		setMask |= 1 << pos
		if val == 1 {
			outVal |= 1 << pos
		}
	}
	apply(i, FlagI)
	apply(t, FlagT)
	apply(h, FlagH)
	apply(v, FlagV)
	apply(n, FlagN)
	apply(z, FlagZ)
	apply(cf, FlagC)

	flags := c.Bus.Flags()
	flags &^= setMask
	flags |= outVal
	flags &^= 1 << FlagS
	flags |= (bit(flags, FlagN) ^ bit(flags, FlagV)) << FlagS
	c.Bus.SetFlags(flags)
}

func (c *CPU) reg(i uint8) uint8          { return c.Bus.Reg(i) }
func (c *CPU) setReg(i uint8, v uint8)    { c.Bus.SetReg(i, v) }
func (c *CPU) flags() uint8               { return c.Bus.Flags() }
func (c *CPU) wordReg(i uint8) uint16     { return c.Bus.WordReg(i) }
func (c *CPU) setWordReg(i uint8, v uint16) { c.Bus.SetWordReg(i, v) }
