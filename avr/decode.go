package avr

// Decode turns a program image, already split into 16-bit words, into one
// decoded Instr per word. Two-word instructions (CALL, JMP, LDS, STS)
// consume the following word as their operand and leave OpSecondWord in its
// slot, so the step loop never tries to decode it as its own instruction.
// Decode is a total function: every word maps to some Instr, with
// OpUnknown/OpIncomplete as explicit sentinels rather than an error return.
func Decode(words []uint16) []Instr {
	out := make([]Instr, len(words))
	for i := 0; i < len(words); i++ {
		b := words[i]
		var second uint16
		haveSecond := i+1 < len(words)
		if haveSecond {
			second = words[i+1]
		}

		instr, consumedSecond := decodeOne(b, second, haveSecond)
		out[i] = instr
		if consumedSecond {
			i++
			out[i] = Instr{Op: OpSecondWord}
		}
	}
	return out
}

// decodeOne decodes a single 16-bit word. consumedSecond reports whether the
// instruction is a two-word form that consumed `second` as its operand; if
// haveSecond is false for such a form, the result is OpIncomplete.
func decodeOne(b, second uint16, haveSecond bool) (Instr, bool) {
	unknown := Instr{Op: OpUnknown, Raw: b}

	switch bits16(b, 12, 4) {
	case 0b0000:
		switch bits16(b, 10, 2) {
		case 0b00:
			switch bits16(b, 8, 2) {
			case 0b00:
				if bits(b, 0, 8) == 0 {
					return Instr{Op: OpNOP}, false
				}
				return unknown, false
			case 0b01:
				return Instr{Op: OpMOVW, Rd: bits(b, 4, 4) << 1, Rr: bits(b, 0, 4) << 1}, false
			default:
				return unknown, false
			}
		case 0b01:
			return Instr{Op: OpCPC, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		case 0b10:
			return Instr{Op: OpSBC, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		case 0b11:
			return Instr{Op: OpADD, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		}
	case 0b0001:
		switch bits16(b, 10, 2) {
		case 0b00:
			return Instr{Op: OpCPSE, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		case 0b01:
			return Instr{Op: OpCP, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		case 0b10:
			return Instr{Op: OpSUB, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		case 0b11:
			return Instr{Op: OpADC, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		}
	case 0b0010:
		switch bits16(b, 10, 2) {
		case 0b00:
			return Instr{Op: OpAND, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		case 0b01:
			return Instr{Op: OpEOR, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		case 0b10:
			return Instr{Op: OpOR, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		case 0b11:
			return Instr{Op: OpMOV, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
		}
	case 0b0011:
		return Instr{Op: OpCPI, Rd: bits(b, 4, 4) + 16, K: bits(b, 8, 4)<<4 | bits(b, 0, 4)}, false
	case 0b0100:
		return Instr{Op: OpSBCI, Rd: bits(b, 4, 4) + 16, K: bits(b, 8, 4)<<4 | bits(b, 0, 4)}, false
	case 0b0101:
		return Instr{Op: OpSUBI, Rd: bits(b, 4, 4) + 16, K: bits(b, 8, 4)<<4 | bits(b, 0, 4)}, false
	case 0b0111:
		return Instr{Op: OpANDI, Rd: bits(b, 4, 4) + 16, K: bits(b, 8, 4)<<4 | bits(b, 0, 4)}, false
	case 0b0110:
		return Instr{Op: OpORI, Rd: bits(b, 4, 4) + 16, K: bits(b, 8, 4)<<4 | bits(b, 0, 4)}, false
	case 0b1000:
		addrReg := RegZ
		if bits(b, 3, 1) == 1 {
			addrReg = RegY
		}
		return Instr{
			Op: OpLDST, Store: bits(b, 9, 1) == 1, Rd: bits(b, 4, 5),
			AddrReg: addrReg, Mode: ModeDisplacement,
			Disp: bits(b, 10, 2)<<3 | bits(b, 0, 3),
		}, false
	case 0b1001:
		return decode1001(b, second, haveSecond)
	case 0b1010:
		addrReg := RegZ
		if bits(b, 3, 1) == 1 {
			addrReg = RegY
		}
		return Instr{
			Op: OpLDST, Store: bits(b, 9, 1) == 1, Rd: bits(b, 4, 5),
			AddrReg: addrReg, Mode: ModeDisplacement,
			Disp: 1<<5 | bits(b, 10, 2)<<3 | bits(b, 0, 3),
		}, false
	case 0b1011:
		op := OpIN
		if bits(b, 11, 1) == 1 {
			op = OpOUT
		}
		return Instr{Op: op, Rd: bits(b, 4, 5), IOAddr: bits(b, 9, 2)<<4 | bits(b, 0, 4)}, false
	case 0b1100:
		return Instr{Op: OpRJMP, Branch: rjmpDisp(b)}, false
	case 0b1101:
		return Instr{Op: OpRCALL, Branch: rjmpDisp(b)}, false
	case 0b1110:
		return Instr{Op: OpLDI, Rd: bits(b, 4, 4) + 16, K: bits(b, 8, 4)<<4 | bits(b, 0, 4)}, false
	case 0b1111:
		return decode1111(b)
	}
	return unknown, false
}

func rjmpDisp(b uint16) int16 {
	return -(int16(bits16(b, 11, 1)) << 11) + int16(bits16(b, 0, 11)) + 1
}

func decode1001(b, second uint16, haveSecond bool) (Instr, bool) {
	unknown := Instr{Op: OpUnknown, Raw: b}

	readSecond := func() (Instr, bool) {
		if !haveSecond {
			return Instr{Op: OpIncomplete, Raw: b}, false
		}
		return Instr{}, true
	}

	switch bits16(b, 10, 2) {
	case 0b00:
		reg := bits(b, 4, 5)
		if bits(b, 9, 1) == 0 {
			switch bits16(b, 0, 4) {
			case 0b0000:
				placeholder, ok := readSecond()
				if !ok {
					return placeholder, false
				}
				return Instr{Op: OpLDSTS, Store: false, Rd: reg, K16: second}, true
			case 0b0001:
				return Instr{Op: OpLDST, Rd: reg, AddrReg: RegZ, Mode: ModePostIncrement}, false
			case 0b0010:
				return Instr{Op: OpLDST, Rd: reg, AddrReg: RegZ, Mode: ModePreDecrement}, false
			case 0b0100:
				return Instr{Op: OpLPM, Rd: reg}, false
			case 0b0101:
				return Instr{Op: OpLPM, Rd: reg, PostInc: true}, false
			case 0b1001:
				return Instr{Op: OpLDST, Rd: reg, AddrReg: RegY, Mode: ModePostIncrement}, false
			case 0b1010:
				return Instr{Op: OpLDST, Rd: reg, AddrReg: RegY, Mode: ModePreDecrement}, false
			case 0b1100:
				return Instr{Op: OpLDST, Rd: reg, AddrReg: RegX, Mode: ModeDisplacement, Disp: 0}, false
			case 0b1101:
				return Instr{Op: OpLDST, Rd: reg, AddrReg: RegX, Mode: ModePostIncrement}, false
			case 0b1110:
				return Instr{Op: OpLDST, Rd: reg, AddrReg: RegX, Mode: ModePreDecrement}, false
			case 0b1111:
				return Instr{Op: OpPOP, Rd: reg}, false
			default:
				return unknown, false
			}
		}
		switch bits16(b, 0, 4) {
		case 0b0000:
			placeholder, ok := readSecond()
			if !ok {
				return placeholder, false
			}
			return Instr{Op: OpLDSTS, Store: true, Rd: reg, K16: second}, true
		case 0b0001:
			return Instr{Op: OpLDST, Store: true, Rd: reg, AddrReg: RegZ, Mode: ModePostIncrement}, false
		case 0b0010:
			return Instr{Op: OpLDST, Store: true, Rd: reg, AddrReg: RegZ, Mode: ModePreDecrement}, false
		case 0b1001:
			return Instr{Op: OpLDST, Store: true, Rd: reg, AddrReg: RegY, Mode: ModePostIncrement}, false
		case 0b1010:
			return Instr{Op: OpLDST, Store: true, Rd: reg, AddrReg: RegY, Mode: ModePreDecrement}, false
		case 0b1100:
			return Instr{Op: OpLDST, Store: true, Rd: reg, AddrReg: RegX, Mode: ModeDisplacement, Disp: 0}, false
		case 0b1101:
			return Instr{Op: OpLDST, Store: true, Rd: reg, AddrReg: RegX, Mode: ModePostIncrement}, false
		case 0b1110:
			return Instr{Op: OpLDST, Store: true, Rd: reg, AddrReg: RegX, Mode: ModePreDecrement}, false
		case 0b1111:
			return Instr{Op: OpPUSH, Rd: reg}, false
		default:
			return unknown, false
		}
	case 0b01:
		if bits(b, 9, 1) == 0 {
			switch bits16(b, 1, 3) {
			case 0b000:
				if bits(b, 0, 1) == 0 {
					return Instr{Op: OpCOM, Rd: bits(b, 4, 5)}, false
				}
				return Instr{Op: OpNEG, Rd: bits(b, 4, 5)}, false
			case 0b001:
				if bits(b, 0, 1) == 0 {
					return Instr{Op: OpSWAP, Rd: bits(b, 4, 5)}, false
				}
				return Instr{Op: OpINC, Rd: bits(b, 4, 5)}, false
			case 0b010:
				if bits(b, 0, 1) == 1 {
					return Instr{Op: OpASR, Rd: bits(b, 4, 5)}, false
				}
				return unknown, false
			case 0b011:
				if bits(b, 0, 1) == 0 {
					return Instr{Op: OpLSR, Rd: bits(b, 4, 5)}, false
				}
				return Instr{Op: OpROR, Rd: bits(b, 4, 5)}, false
			case 0b100:
				if bits(b, 0, 1) == 0 {
					if bits(b, 8, 1) == 0 {
						op := OpBSET
						if bits(b, 7, 1) != 0 {
							op = OpBCLR
						}
						return Instr{Op: op, Bit: bits(b, 4, 3)}, false
					}
					switch bits16(b, 4, 4) {
					case 0b0000:
						return Instr{Op: OpRET}, false
					case 0b0001:
						return Instr{Op: OpRETI}, false
					case 0b1000:
						return Instr{Op: OpSLEEP}, false
					case 0b1100:
						return Instr{Op: OpLPM, Rd: 0}, false
					default:
						return unknown, false
					}
				}
				if bits16(b, 4, 5) == 0b10000 {
					return Instr{Op: OpICALL}, false
				}
				return unknown, false
			case 0b101:
				if bits(b, 0, 1) == 0 {
					return Instr{Op: OpDEC, Rd: bits(b, 4, 5)}, false
				}
				return unknown, false
			case 0b110:
				placeholder, ok := readSecond()
				if !ok {
					return placeholder, false
				}
				k32 := uint32(bits(b, 4, 5)<<1|bits(b, 0, 1)) << 16
				return Instr{Op: OpJMP, K32: k32 | uint32(second)}, true
			case 0b111:
				placeholder, ok := readSecond()
				if !ok {
					return placeholder, false
				}
				k32 := uint32(bits(b, 4, 5)<<1|bits(b, 0, 1)) << 16
				return Instr{Op: OpCALL, K32: k32 | uint32(second)}, true
			default:
				return unknown, false
			}
		}
		if bits(b, 8, 1) == 0 {
			return Instr{Op: OpADIW, Rd: (bits(b, 4, 2) + 12) << 1, K: bits(b, 6, 2)<<4 | bits(b, 0, 4)}, false
		}
		return Instr{Op: OpSBIW, Rd: (bits(b, 4, 2) + 12) << 1, K: bits(b, 6, 2)<<4 | bits(b, 0, 4)}, false
	case 0b10:
		switch bits16(b, 8, 2) {
		case 0b00:
			return Instr{Op: OpCBISBI, Set: false, IOAddr: bits(b, 3, 5), Bit: bits(b, 0, 3)}, false
		case 0b01:
			return Instr{Op: OpSBICIS, Set: false, IOAddr: bits(b, 3, 5), Bit: bits(b, 0, 3)}, false
		case 0b10:
			return Instr{Op: OpCBISBI, Set: true, IOAddr: bits(b, 3, 5), Bit: bits(b, 0, 3)}, false
		case 0b11:
			return Instr{Op: OpSBICIS, Set: true, IOAddr: bits(b, 3, 5), Bit: bits(b, 0, 3)}, false
		}
	case 0b11:
		return Instr{Op: OpMUL, Rd: bits(b, 4, 5), Rr: bits(b, 9, 1)<<4 | bits(b, 0, 4)}, false
	}
	return unknown, false
}

func decode1111(b uint16) (Instr, bool) {
	unknown := Instr{Op: OpUnknown, Raw: b}

	if bits(b, 11, 1) == 0 {
		k := -(int8(bits(b, 9, 1)) << 6) + int8(bits(b, 3, 6)) + 1
		set := bits(b, 10, 1) == 0
		return Instr{Op: OpBRB, Set: set, Bit: bits(b, 0, 3), Branch: int16(k)}, false
	}

	if bits(b, 3, 1) != 0 {
		return unknown, false
	}
	switch bits16(b, 9, 2) {
	case 0b00:
		return Instr{Op: OpBLD, Rd: bits(b, 4, 5), Bit: bits(b, 0, 3)}, false
	case 0b01:
		return Instr{Op: OpBST, Rd: bits(b, 4, 5), Bit: bits(b, 0, 3)}, false
	case 0b10:
		return Instr{Op: OpSBR, Set: false, Rd: bits(b, 4, 5), Bit: bits(b, 0, 3)}, false
	case 0b11:
		return Instr{Op: OpSBR, Set: true, Rd: bits(b, 4, 5), Bit: bits(b, 0, 3)}, false
	}
	return unknown, false
}
