package avr

// execute is the canonical semantics of every instruction: one pure
// transition over the CPU/Bus state, dispatched with a dense switch rather
// than any per-instruction virtual call. Both the plain interpreter
// (CPU.Step) and the JIT's compiled blocks (jit.go) call this same
// function, so the two execution paths can never drift apart. Flag
// formulas are transliterated from original_source/src/cpu.rs's
// handle_instruction bit for bit.
func (c *CPU) execute(instr Instr) error {
	pc := c.PC
	f := func(v uint8) int8 { return int8(v) }

	switch instr.Op {
	case OpUnknown:
		return fault(pc, instr.Raw, ErrUnknownOpcode)
	case OpIncomplete:
		return fault(pc, instr.Raw, ErrIncompleteOpcode)
	case OpSecondWord:
		return fault(pc, 0, ErrSecondWordExecuted)

	case OpADD:
		rdv, rrv := c.reg(instr.Rd), c.reg(instr.Rr)
		res := rdv + rrv
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange,
			f(bit(rdv, 3)&bit(rrv, 3)|bitneg(res, 3)&(bit(rdv, 3)|bit(rrv, 3))),
			f(bit(rdv, 7)&bit(rrv, 7)&bitneg(res, 7)|bitneg(rdv, 7)&bitneg(rrv, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)),
			f(bit(rdv, 7)&bit(rrv, 7)|bitneg(res, 7)&(bit(rdv, 7)|bit(rrv, 7))))
		c.PC = pc + 1

	case OpADC:
		rdv, rrv := c.reg(instr.Rd), c.reg(instr.Rr)
		res := rdv + rrv + bit(c.flags(), FlagC)
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange,
			f(bit(rdv, 3)&bit(rrv, 3)|bitneg(res, 3)&(bit(rdv, 3)|bit(rrv, 3))),
			f(bit(rdv, 7)&bit(rrv, 7)&bitneg(res, 7)|bitneg(rdv, 7)&bitneg(rrv, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)),
			f(bit(rdv, 7)&bit(rrv, 7)|bitneg(res, 7)&(bit(rdv, 7)|bit(rrv, 7))))
		c.PC = pc + 1

	case OpADIW:
		rdv := c.wordReg(instr.Rd)
		res := rdv + uint16(instr.K)
		c.setWordReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange,
			f(bitneg16(rdv, 15)&bit16(res, 15)),
			f(bit16(res, 15)), f(boolBit(res == 0)),
			f(bit16(rdv, 15)&bitneg16(res, 15)))
		c.PC = pc + 1

	case OpAND:
		res := c.reg(instr.Rd) & c.reg(instr.Rr)
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, 0, f(res>>7), f(boolBit(res == 0)), noChange)
		c.PC = pc + 1

	case OpANDI:
		res := c.reg(instr.Rd) & instr.K
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, 0, f(res>>7), f(boolBit(res == 0)), noChange)
		c.PC = pc + 1

	case OpOR:
		res := c.reg(instr.Rd) | c.reg(instr.Rr)
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, 0, f(res>>7), f(boolBit(res == 0)), noChange)
		c.PC = pc + 1

	case OpORI:
		res := c.reg(instr.Rd) | instr.K
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, 0, f(res>>7), f(boolBit(res == 0)), noChange)
		c.PC = pc + 1

	case OpEOR:
		res := c.reg(instr.Rd) ^ c.reg(instr.Rr)
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, 0, f(res>>7), f(boolBit(res == 0)), noChange)
		c.PC = pc + 1

	case OpASR:
		rdv := c.reg(instr.Rd)
		res := uint8(int8(rdv) >> 1)
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, f(bit(res, 7)^bit(rdv, 0)),
			f(bit(res, 7)), f(boolBit(res == 0)), f(bit(rdv, 0)))
		c.PC = pc + 1

	case OpLSR:
		rdv := c.reg(instr.Rd)
		res := rdv >> 1
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, f(bit(rdv, 0)),
			0, f(boolBit(res == 0)), f(bit(rdv, 0)))
		c.PC = pc + 1

	case OpROR:
		rdv := c.reg(instr.Rd)
		res := bit(c.flags(), FlagC)<<7 | (rdv >> 1)
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, f(bit(res, 7)^bit(rdv, 0)),
			f(bit(res, 7)), f(boolBit(res == 0)), f(bit(rdv, 0)))
		c.PC = pc + 1

	case OpCOM:
		res := ^c.reg(instr.Rd)
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, 0, f(bit(res, 7)), f(boolBit(res == 0)), 1)
		c.PC = pc + 1

	case OpNEG:
		rdv := c.reg(instr.Rd)
		res := uint8(-int8(rdv))
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, f(bit(res, 3)|bitneg(rdv, 3)),
			f(boolBit(res == 0x80)), f(bit(res, 7)), f(boolBit(res == 0)), f(boolBit(res != 0)))
		c.PC = pc + 1

	case OpINC:
		res := c.reg(instr.Rd) + 1
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, f(boolBit(res == 0x80)),
			f(bit(res, 7)), f(boolBit(res == 0)), noChange)
		c.PC = pc + 1

	case OpDEC:
		res := c.reg(instr.Rd) - 1
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange, f(boolBit(res == 0x7f)),
			f(bit(res, 7)), f(boolBit(res == 0)), noChange)
		c.PC = pc + 1

	case OpSWAP:
		rdv := c.reg(instr.Rd)
		c.setReg(instr.Rd, rdv<<4|rdv>>4)
		c.PC = pc + 1

	case OpSUB:
		rdv, rrv := c.reg(instr.Rd), c.reg(instr.Rr)
		res := rdv - rrv
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange,
			f(bitneg(rdv, 3)&bit(rrv, 3)|bit(rrv, 3)&bit(res, 3)|bit(res, 3)&bitneg(rdv, 3)),
			f(bit(rdv, 7)&bitneg(rrv, 7)&bitneg(res, 7)|bitneg(rdv, 7)&bit(rrv, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)),
			f(bitneg(rdv, 7)&bit(rrv, 7)|bit(rrv, 7)&bit(res, 7)|bit(res, 7)&bitneg(rdv, 7)))
		c.PC = pc + 1

	case OpSUBI:
		rdv, rrv := c.reg(instr.Rd), instr.K
		res := rdv - rrv
		c.setReg(instr.Rd, res)
		c.setFlags(noChange, noChange,
			f(bitneg(rdv, 3)&bit(rrv, 3)|bit(rrv, 3)&bit(res, 3)|bit(res, 3)&bitneg(rdv, 3)),
			f(bit(rdv, 7)&bitneg(rrv, 7)&bitneg(res, 7)|bitneg(rdv, 7)&bit(rrv, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)),
			f(bitneg(rdv, 7)&bit(rrv, 7)|bit(rrv, 7)&bit(res, 7)|bit(res, 7)&bitneg(rdv, 7)))
		c.PC = pc + 1

	case OpSBC:
		rdv, rrv := c.reg(instr.Rd), c.reg(instr.Rr)
		res := rdv - rrv - bit(c.flags(), FlagC)
		c.setReg(instr.Rd, res)
		z := bit(c.flags(), FlagZ)
		c.setFlags(noChange, noChange,
			f(bitneg(rdv, 3)&bit(rrv, 3)|bit(rrv, 3)&bit(res, 3)|bit(res, 3)&bitneg(rdv, 3)),
			f(bit(rdv, 7)&bitneg(rrv, 7)&bitneg(res, 7)|bitneg(rdv, 7)&bit(rrv, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)&z),
			f(bitneg(rdv, 7)&bit(rrv, 7)|bit(rrv, 7)&bit(res, 7)|bit(res, 7)&bitneg(rdv, 7)))
		c.PC = pc + 1

	case OpSBCI:
		rdv, rrv := c.reg(instr.Rd), instr.K
		res := rdv - rrv - bit(c.flags(), FlagC)
		c.setReg(instr.Rd, res)
		z := bit(c.flags(), FlagZ)
		c.setFlags(noChange, noChange,
			f(bitneg(rdv, 3)&bit(rrv, 3)|bit(rrv, 3)&bit(res, 3)|bit(res, 3)&bitneg(rdv, 3)),
			f(bit(rdv, 7)&bitneg(rrv, 7)&bitneg(res, 7)|bitneg(rdv, 7)&bit(rrv, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)&z),
			f(bitneg(rdv, 7)&bit(rrv, 7)|bit(rrv, 7)&bit(res, 7)|bit(res, 7)&bitneg(rdv, 7)))
		c.PC = pc + 1

	case OpCP:
		rdv, rrv := c.reg(instr.Rd), c.reg(instr.Rr)
		res := rdv - rrv
		c.setFlags(noChange, noChange,
			f(bitneg(rdv, 3)&bit(rrv, 3)|bit(rrv, 3)&bit(res, 3)|bit(res, 3)&bitneg(rdv, 3)),
			f(bit(rdv, 7)&bitneg(rrv, 7)&bitneg(res, 7)|bitneg(rdv, 7)&bit(rrv, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)),
			f(bitneg(rdv, 7)&bit(rrv, 7)|bit(rrv, 7)&bit(res, 7)|bit(res, 7)&bitneg(rdv, 7)))
		c.PC = pc + 1

	case OpCPC:
		rdv, rrv := c.reg(instr.Rd), c.reg(instr.Rr)
		res := rdv - rrv - bit(c.flags(), FlagC)
		z := bit(c.flags(), FlagZ)
		c.setFlags(noChange, noChange,
			f(bitneg(rdv, 3)&bit(rrv, 3)|bit(rrv, 3)&bit(res, 3)|bit(res, 3)&bitneg(rdv, 3)),
			f(bit(rdv, 7)&bitneg(rrv, 7)&bitneg(res, 7)|bitneg(rdv, 7)&bit(rrv, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)&z),
			f(bitneg(rdv, 7)&bit(rrv, 7)|bit(rrv, 7)&bit(res, 7)|bit(res, 7)&bitneg(rdv, 7)))
		c.PC = pc + 1

	case OpCPI:
		rv, k := c.reg(instr.Rd), instr.K
		res := rv - k
		c.setFlags(noChange, noChange,
			f(bitneg(rv, 3)&bit(k, 3)|bit(k, 3)&bit(res, 3)|bit(res, 3)&bitneg(rv, 3)),
			f(bit(rv, 7)&bitneg(k, 7)&bitneg(res, 7)|bitneg(rv, 7)&bit(k, 7)&bit(res, 7)),
			f(bit(res, 7)), f(boolBit(res == 0)),
			f(bitneg(rv, 7)&bit(k, 7)|bit(k, 7)&bit(res, 7)|bit(res, 7)&bitneg(rv, 7)))
		c.PC = pc + 1

	case OpSBIW:
		rdv := c.wordReg(instr.Rd)
		res := rdv - uint16(instr.K)
		c.setWordReg(instr.Rd, res)
		c.setFlags(noChange, noChange, noChange,
			f(bit16(rdv, 15)&bitneg16(res, 15)),
			f(bit16(res, 15)), f(boolBit(res == 0)),
			f(bitneg16(rdv, 15)&bit16(res, 15)))
		c.PC = pc + 1

	case OpMUL:
		res := uint16(c.reg(instr.Rd)) * uint16(c.reg(instr.Rr))
		c.setWordReg(0, res)
		c.setFlags(noChange, noChange, noChange, noChange, noChange, f(boolBit(res == 0)), f(bit16(res, 15)))
		c.PC = pc + 1

	case OpMOV:
		c.setReg(instr.Rd, c.reg(instr.Rr))
		c.PC = pc + 1

	case OpMOVW:
		c.setWordReg(instr.Rd, c.wordReg(instr.Rr))
		c.PC = pc + 1

	case OpLDI:
		c.setReg(instr.Rd, instr.K)
		c.PC = pc + 1

	case OpIN:
		c.setReg(instr.Rd, c.Bus.IOReg(instr.IOAddr))
		c.PC = pc + 1

	case OpOUT:
		if err := c.Bus.SetIOReg(instr.IOAddr, c.reg(instr.Rd)); err != nil {
			return fault(pc, 0, err)
		}
		c.PC = pc + 1

	case OpPOP:
		c.setReg(instr.Rd, c.Bus.Pop())
		c.PC = pc + 1

	case OpPUSH:
		if err := c.Bus.Push(c.reg(instr.Rd)); err != nil {
			return fault(pc, 0, err)
		}
		c.PC = pc + 1

	case OpBSET:
		c.Bus.SetFlags(c.flags() | (1 << instr.Bit))
		c.setFlags(noChange, noChange, noChange, noChange, noChange, noChange, noChange) // recompute S = N^V
		c.PC = pc + 1

	case OpBCLR:
		c.Bus.SetFlags(c.flags() &^ (1 << instr.Bit))
		c.setFlags(noChange, noChange, noChange, noChange, noChange, noChange, noChange) // recompute S = N^V
		c.PC = pc + 1

	case OpBLD:
		rdv := c.reg(instr.Rd)
		t := bit(c.flags(), FlagT)
		c.setReg(instr.Rd, rdv&^(1<<instr.Bit)|(t<<instr.Bit))
		c.PC = pc + 1

	case OpBST:
		c.setFlags(noChange, f(bit(c.reg(instr.Rd), uint(instr.Bit))), noChange, noChange, noChange, noChange, noChange)
		c.PC = pc + 1

	case OpCBISBI:
		val := c.Bus.IOReg(instr.IOAddr)
		setBit := uint8(0)
		if instr.Set {
			setBit = 1
		}
		if err := c.Bus.SetIOReg(instr.IOAddr, (val&^(1<<instr.Bit))|(setBit<<instr.Bit)); err != nil {
			return fault(pc, 0, err)
		}
		c.PC = pc + 1

	case OpBRB:
		want := boolBit(instr.Set)
		if bit(c.flags(), uint(instr.Bit)) == want {
			c.PC = uint16(int32(pc) + int32(instr.Branch))
		} else {
			c.PC = pc + 1
		}

	case OpCPSE:
		if c.reg(instr.Rd) == c.reg(instr.Rr) {
			c.PC = c.skipTarget(pc + 2)
		} else {
			c.PC = pc + 1
		}

	case OpSBICIS:
		want := boolBit(instr.Set)
		if bit(c.Bus.IOReg(instr.IOAddr), uint(instr.Bit)) == want {
			c.PC = c.skipTarget(pc + 2)
		} else {
			c.PC = pc + 1
		}

	case OpSBR:
		want := boolBit(instr.Set)
		if bit(c.reg(instr.Rd), uint(instr.Bit)) == want {
			c.PC = c.skipTarget(pc + 2)
		} else {
			c.PC = pc + 1
		}

	case OpRJMP:
		c.PC = uint16(int32(pc) + int32(instr.Branch))

	case OpRCALL:
		if err := c.Bus.Push16(pc + 1); err != nil {
			return fault(pc, 0, err)
		}
		c.PC = uint16(int32(pc) + int32(instr.Branch))

	case OpJMP:
		c.PC = uint16(instr.K32)

	case OpCALL:
		if err := c.Bus.Push16(pc + 2); err != nil {
			return fault(pc, 0, err)
		}
		c.PC = uint16(instr.K32)

	case OpICALL:
		if err := c.Bus.Push16(pc + 1); err != nil {
			return fault(pc, 0, err)
		}
		c.PC = c.wordReg(RegZ)

	case OpRET:
		c.PC = c.Bus.Pop16()

	case OpRETI:
		c.setFlags(1, noChange, noChange, noChange, noChange, noChange, noChange)
		c.PC = c.Bus.Pop16()

	case OpSLEEP:
		c.Sleeping = true
		c.log.Debug("core asleep", "pc", pc)
		c.PC = pc + 1

	case OpNOP:
		if c.HaltOnNOP {
			c.halted = true
			c.log.Debug("core halted on NOP", "pc", pc)
		}
		c.PC = pc + 1

	case OpLDST:
		if err := c.executeLDST(instr, pc); err != nil {
			return fault(pc, 0, err)
		}

	case OpLDSTS:
		if instr.Store {
			if err := c.Bus.SetData(instr.K16, c.reg(instr.Rd)); err != nil {
				return fault(pc, 0, err)
			}
		} else {
			c.setReg(instr.Rd, c.Bus.Data(instr.K16))
		}
		c.PC = pc + 2

	case OpLPM:
		z := c.wordReg(RegZ)
		c.setReg(instr.Rd, c.Bus.ReadProgram(z))
		if instr.PostInc {
			c.setWordReg(RegZ, z+1)
		}
		c.PC = pc + 1

	default:
		return fault(pc, instr.Raw, ErrUnknownOpcode)
	}

	return nil
}

// skipTarget implements the CPSE/SBIC/SBIS/SBRC/SBRS family's "skip one
// more instruction if the one we just skipped to is the second word of a
// two-word instruction" rule. What happens when the skipped-over
// instruction is itself the SECOND word of a two-word instruction two
// positions back (i.e. skipping lands mid-instruction) is undefined by the
// board and intentionally not special-cased here.
func (c *CPU) skipTarget(next uint16) uint16 {
	if c.Bus.Instruction(next).Op == OpSecondWord {
		return next + 1
	}
	return next
}

func (c *CPU) executeLDST(instr Instr, pc uint16) error {
	var displacement uint8
	switch instr.Mode {
	case ModePreDecrement:
		modval := c.wordReg(instr.AddrReg) - 1
		c.setWordReg(instr.AddrReg, modval)
	case ModeDisplacement:
		displacement = instr.Disp
	}

	addr := c.wordReg(instr.AddrReg) + uint16(displacement)
	if instr.Store {
		if err := c.Bus.SetData(addr, c.reg(instr.Rd)); err != nil {
			return err
		}
	} else {
		c.setReg(instr.Rd, c.Bus.Data(addr))
	}

	if instr.Mode == ModePostIncrement {
		c.setWordReg(instr.AddrReg, c.wordReg(instr.AddrReg)+1)
	}
	c.PC = pc + 1
	return nil
}
