package avr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeNOP(t *testing.T) {
	out := Decode([]uint16{0x0000})
	require.Equal(t, OpNOP, out[0].Op)
}

func TestDecodeUnknownOpcode(t *testing.T) {
	out := Decode([]uint16{0xFFFF})
	require.Equal(t, OpUnknown, out[0].Op)
	require.EqualValues(t, 0xFFFF, out[0].Raw)
}

// Two-register ALU family: one representative encoding per mnemonic,
// covering every bits(b,12,4)/bits16(b,10,2) combination decodeOne
// dispatches on for the 0b0000-0b0010 opcode blocks.
func TestDecodeTwoRegisterALUFamily(t *testing.T) {
	type want struct {
		op Op
		rd uint8
		rr uint8
	}
	table := map[uint16]want{
		0x0C01: {OpADD, 0, 1},
		0x1CCD: {OpADC, 12, 13},
		0x0800: {OpSBC, 0, 0},
		0x0466: {OpCPC, 6, 6},
		0x1434: {OpCP, 3, 4},
		0x18AB: {OpSUB, 10, 11},
		0x1012: {OpCPSE, 1, 2},
		0x2253: {OpAND, 5, 19},
		0x2479: {OpEOR, 7, 9},
		0x2822: {OpOR, 2, 2},
		0x2C89: {OpMOV, 8, 9},
		0x9E55: {OpMUL, 5, 21},
	}
	for word, w := range table {
		out := Decode([]uint16{word})
		require.Equalf(t, w.op, out[0].Op, "word=%#04x", word)
		require.EqualValuesf(t, w.rd, out[0].Rd, "word=%#04x Rd", word)
		require.EqualValuesf(t, w.rr, out[0].Rr, "word=%#04x Rr", word)
	}
}

// Register-immediate family: ANDI/ORI/SUBI/SBCI/CPI/LDI, all sharing the
// Rd = bits(b,4,4)+16, K = bits(b,8,4)<<4|bits(b,0,4) encoding.
func TestDecodeImmediateFamily(t *testing.T) {
	type want struct {
		op Op
		rd uint8
		k  uint8
	}
	table := map[uint16]want{
		0x3545: {OpCPI, 20, 0x55},
		0x4001: {OpSBCI, 16, 0x01},
		0x5012: {OpSUBI, 17, 0x02},
		0x7F20: {OpANDI, 18, 0xF0},
		0x603F: {OpORI, 19, 0x0F},
		0xEA8B: {OpLDI, 24, 0xAB},
	}
	for word, w := range table {
		out := Decode([]uint16{word})
		require.Equalf(t, w.op, out[0].Op, "word=%#04x", word)
		require.EqualValuesf(t, w.rd, out[0].Rd, "word=%#04x Rd", word)
		require.EqualValuesf(t, w.k, out[0].K, "word=%#04x K", word)
	}
}

func TestDecodeMOVW(t *testing.T) {
	out := Decode([]uint16{0x0121}) // MOVW r4:r5, r2:r3
	require.Equal(t, OpMOVW, out[0].Op)
	require.EqualValues(t, 4, out[0].Rd)
	require.EqualValues(t, 2, out[0].Rr)
}

func TestDecodeADIWSBIW(t *testing.T) {
	out := Decode([]uint16{0x96CF}) // ADIW r24,0x3F
	require.Equal(t, OpADIW, out[0].Op)
	require.EqualValues(t, 24, out[0].Rd)
	require.EqualValues(t, 0x3F, out[0].K)

	out = Decode([]uint16{0x9735}) // SBIW r30,0x05
	require.Equal(t, OpSBIW, out[0].Op)
	require.EqualValues(t, 30, out[0].Rd)
	require.EqualValues(t, 0x05, out[0].K)
}

// Single-register ALU/shift family dispatched through decode1001's 0b01
// sub-block (COM/NEG, SWAP/INC, ASR, LSR/ROR, DEC).
func TestDecodeSingleRegisterFamily(t *testing.T) {
	type want struct {
		op Op
		rd uint8
	}
	table := map[uint16]want{
		0x94B0: {OpCOM, 11},
		0x94B1: {OpNEG, 11},
		0x94E2: {OpSWAP, 14},
		0x94E3: {OpINC, 14},
		0x9435: {OpASR, 3},
		0x9436: {OpLSR, 3},
		0x9437: {OpROR, 3},
		0x956A: {OpDEC, 22},
	}
	for word, w := range table {
		out := Decode([]uint16{word})
		require.Equalf(t, w.op, out[0].Op, "word=%#04x", word)
		require.EqualValuesf(t, w.rd, out[0].Rd, "word=%#04x Rd", word)
	}
}

func TestDecodeBSETBCLR(t *testing.T) {
	out := Decode([]uint16{0x9438}) // BSET 3 (SEV)
	require.Equal(t, OpBSET, out[0].Op)
	require.EqualValues(t, 3, out[0].Bit)

	out = Decode([]uint16{0x94D8}) // BCLR 5 (CLH)
	require.Equal(t, OpBCLR, out[0].Op)
	require.EqualValues(t, 5, out[0].Bit)
}

func TestDecodeRETRETISLEEPICALLLPM(t *testing.T) {
	table := map[uint16]Op{
		0x9508: OpRET,
		0x9518: OpRETI,
		0x9588: OpSLEEP,
		0x9509: OpICALL,
		0x95C8: OpLPM, // implicit r0, no post-increment
	}
	for word, op := range table {
		out := Decode([]uint16{word})
		require.Equalf(t, op, out[0].Op, "word=%#04x", word)
	}
	out := Decode([]uint16{0x95C8})
	require.EqualValues(t, 0, out[0].Rd)
	require.False(t, out[0].PostInc)
}

func TestDecodeTwoWordCallConsumesSecondWord(t *testing.T) {
	// First word of a CALL with Rd bits = 0 (see decode1001's 0b111 case).
	const callFirstWord = 0x940E

	out := Decode([]uint16{callFirstWord, 0x1234})
	require.Len(t, out, 2)
	require.Equal(t, OpCALL, out[0].Op)
	require.EqualValues(t, 0x1234, out[0].K32)
	require.Equal(t, OpSecondWord, out[1].Op)
}

func TestDecodeTwoWordJMPConsumesSecondWord(t *testing.T) {
	const jmpFirstWord = 0x940C // JMP, Rd bits = 0 (decode1001's 0b110 case)

	out := Decode([]uint16{jmpFirstWord, 0xABCD})
	require.Len(t, out, 2)
	require.Equal(t, OpJMP, out[0].Op)
	require.EqualValues(t, 0xABCD, out[0].K32)
	require.Equal(t, OpSecondWord, out[1].Op)
}

func TestDecodeTwoWordInstructionAtEndOfImageIsIncomplete(t *testing.T) {
	const callFirstWord = 0x940E

	out := Decode([]uint16{callFirstWord})
	require.Len(t, out, 1)
	require.Equal(t, OpIncomplete, out[0].Op)
}

// LDS/STS: two-word forms sharing decode1001's 0b00 sub-block, low
// nibble 0b0000, distinguished by the store bit.
func TestDecodeLDSSTS(t *testing.T) {
	out := Decode([]uint16{0x9110, 0x0200}) // LDS r17, 0x0200
	require.Equal(t, OpLDSTS, out[0].Op)
	require.False(t, out[0].Store)
	require.EqualValues(t, 17, out[0].Rd)
	require.EqualValues(t, 0x0200, out[0].K16)
	require.Equal(t, OpSecondWord, out[1].Op)

	out = Decode([]uint16{0x9320, 0x0300}) // STS 0x0300, r18
	require.Equal(t, OpLDSTS, out[0].Op)
	require.True(t, out[0].Store)
	require.EqualValues(t, 18, out[0].Rd)
	require.EqualValues(t, 0x0300, out[0].K16)
}

func TestDecodeLDSAtEndOfImageIsIncomplete(t *testing.T) {
	out := Decode([]uint16{0x9110})
	require.Len(t, out, 1)
	require.Equal(t, OpIncomplete, out[0].Op)
}

// X/Y/Z indirect LD/ST addressing modes: post-increment, pre-decrement,
// and the plain (zero-displacement) X form, for both load and store.
func TestDecodeIndirectLDSTAddressingModes(t *testing.T) {
	type want struct {
		store bool
		rd    uint8
		reg   uint8
		mode  LDMode
	}
	table := map[uint16]want{
		0x9051: {false, 5, RegZ, ModePostIncrement}, // LD r5,Z+
		0x9062: {false, 6, RegZ, ModePreDecrement},  // LD r6,-Z
		0x9279: {true, 7, RegY, ModePostIncrement},  // ST Y+,r7
		0x928A: {true, 8, RegY, ModePreDecrement},   // ST -Y,r8
		0x909C: {false, 9, RegX, ModeDisplacement},  // LD r9,X
		0x92AD: {true, 10, RegX, ModePostIncrement}, // ST X+,r10
		0x90BE: {false, 11, RegX, ModePreDecrement}, // LD r11,-X
	}
	for word, w := range table {
		out := Decode([]uint16{word})
		require.Equalf(t, OpLDST, out[0].Op, "word=%#04x", word)
		require.Equalf(t, w.store, out[0].Store, "word=%#04x Store", word)
		require.EqualValuesf(t, w.rd, out[0].Rd, "word=%#04x Rd", word)
		require.Equalf(t, w.reg, out[0].AddrReg, "word=%#04x AddrReg", word)
		require.Equalf(t, w.mode, out[0].Mode, "word=%#04x Mode", word)
	}
}

func TestDecodePUSHPOP(t *testing.T) {
	out := Decode([]uint16{0x92FF}) // PUSH r15
	require.Equal(t, OpPUSH, out[0].Op)
	require.EqualValues(t, 15, out[0].Rd)

	out = Decode([]uint16{0x910F}) // POP r16
	require.Equal(t, OpPOP, out[0].Op)
	require.EqualValues(t, 16, out[0].Rd)
}

func TestDecodeLPMVariants(t *testing.T) {
	out := Decode([]uint16{0x9034}) // LPM r3,Z
	require.Equal(t, OpLPM, out[0].Op)
	require.EqualValues(t, 3, out[0].Rd)
	require.False(t, out[0].PostInc)

	out = Decode([]uint16{0x9025}) // LPM r2,Z+
	require.Equal(t, OpLPM, out[0].Op)
	require.EqualValues(t, 2, out[0].Rd)
	require.True(t, out[0].PostInc)
}

// Displacement LD/ST (LDD/STD): the 0b1000 top-nibble form for small
// displacements and the 0b1010 form for displacements >= 32, both folding
// into the same OpLDST/ModeDisplacement representation.
func TestDecodeDisplacementLDST(t *testing.T) {
	out := Decode([]uint16{0x804A}) // LDD r4,Y+2
	require.Equal(t, OpLDST, out[0].Op)
	require.False(t, out[0].Store)
	require.EqualValues(t, 4, out[0].Rd)
	require.Equal(t, uint8(RegY), out[0].AddrReg)
	require.Equal(t, ModeDisplacement, out[0].Mode)
	require.EqualValues(t, 2, out[0].Disp)

	out = Decode([]uint16{0x8265}) // STD Z+5,r6
	require.Equal(t, OpLDST, out[0].Op)
	require.True(t, out[0].Store)
	require.EqualValues(t, 6, out[0].Rd)
	require.Equal(t, uint8(RegZ), out[0].AddrReg)
	require.EqualValues(t, 5, out[0].Disp)

	out = Decode([]uint16{0xA478}) // LDD r7,Y+40 (disp >= 32, top nibble 1010)
	require.Equal(t, OpLDST, out[0].Op)
	require.EqualValues(t, 7, out[0].Rd)
	require.Equal(t, uint8(RegY), out[0].AddrReg)
	require.EqualValues(t, 40, out[0].Disp)
}

// CBI/SBI/SBIC/SBIS: the four bits16(b,8,2) cases of decode1001's 0b10
// sub-block.
func TestDecodeCBISBISBICIS(t *testing.T) {
	out := Decode([]uint16{0x9863}) // CBI 0x0C,3
	require.Equal(t, OpCBISBI, out[0].Op)
	require.False(t, out[0].Set)
	require.EqualValues(t, 0x0C, out[0].IOAddr)
	require.EqualValues(t, 3, out[0].Bit)

	out = Decode([]uint16{0x9A64}) // SBI 0x0C,4
	require.Equal(t, OpCBISBI, out[0].Op)
	require.True(t, out[0].Set)
	require.EqualValues(t, 4, out[0].Bit)

	out = Decode([]uint16{0x9982}) // SBIC 0x10,2
	require.Equal(t, OpSBICIS, out[0].Op)
	require.False(t, out[0].Set)
	require.EqualValues(t, 0x10, out[0].IOAddr)
	require.EqualValues(t, 2, out[0].Bit)

	out = Decode([]uint16{0x9B85}) // SBIS 0x10,5
	require.Equal(t, OpSBICIS, out[0].Op)
	require.True(t, out[0].Set)
	require.EqualValues(t, 5, out[0].Bit)
}

func TestDecodeINOUT(t *testing.T) {
	out := Decode([]uint16{0xB73F}) // IN r19,0x3F
	require.Equal(t, OpIN, out[0].Op)
	require.EqualValues(t, 19, out[0].Rd)
	require.EqualValues(t, 0x3F, out[0].IOAddr)

	out = Decode([]uint16{0xBF3F}) // OUT 0x3F,r19
	require.Equal(t, OpOUT, out[0].Op)
	require.EqualValues(t, 19, out[0].Rd)
	require.EqualValues(t, 0x3F, out[0].IOAddr)
}

// RJMP/RCALL branch displacements are pre-adjusted by +1 at decode time;
// these cover both a positive and a negative displacement to exercise the
// two's-complement sign-extension path.
func TestDecodeRJMPRCALLDisplacement(t *testing.T) {
	out := Decode([]uint16{0xC004}) // RJMP, encoded field 4 -> Branch +5
	require.Equal(t, OpRJMP, out[0].Op)
	require.EqualValues(t, 5, out[0].Branch)

	out = Decode([]uint16{0xDFFC}) // RCALL, encoded field -4 -> Branch -3
	require.Equal(t, OpRCALL, out[0].Op)
	require.EqualValues(t, -3, out[0].Branch)
}

// BRBS/BRBC share OpBRB with a Set tag; displacements are pre-adjusted by
// +1 the same way RJMP/RCALL's are.
func TestDecodeBRBSBRBC(t *testing.T) {
	out := Decode([]uint16{0xF019}) // BRBS bit1, encoded field 3 -> Branch +4
	require.Equal(t, OpBRB, out[0].Op)
	require.True(t, out[0].Set)
	require.EqualValues(t, 1, out[0].Bit)
	require.EqualValues(t, 4, out[0].Branch)

	out = Decode([]uint16{0xF7EA}) // BRBC bit2, encoded field -3 -> Branch -2
	require.Equal(t, OpBRB, out[0].Op)
	require.False(t, out[0].Set)
	require.EqualValues(t, 2, out[0].Bit)
	require.EqualValues(t, -2, out[0].Branch)
}

func TestDecodeBLDBST(t *testing.T) {
	out := Decode([]uint16{0xF893}) // BLD r9,bit3
	require.Equal(t, OpBLD, out[0].Op)
	require.EqualValues(t, 9, out[0].Rd)
	require.EqualValues(t, 3, out[0].Bit)

	out = Decode([]uint16{0xFAA5}) // BST r10,bit5
	require.Equal(t, OpBST, out[0].Op)
	require.EqualValues(t, 10, out[0].Rd)
	require.EqualValues(t, 5, out[0].Bit)
}

func TestDecodeSBRCSBRS(t *testing.T) {
	out := Decode([]uint16{0xFCB2}) // SBRC r11,bit2
	require.Equal(t, OpSBR, out[0].Op)
	require.False(t, out[0].Set)
	require.EqualValues(t, 11, out[0].Rd)
	require.EqualValues(t, 2, out[0].Bit)

	out = Decode([]uint16{0xFEC6}) // SBRS r12,bit6
	require.Equal(t, OpSBR, out[0].Op)
	require.True(t, out[0].Set)
	require.EqualValues(t, 12, out[0].Rd)
	require.EqualValues(t, 6, out[0].Bit)
}

// A CALL or JMP sitting right after a skip-family instruction (CPSE,
// SBIC/SBIS, SBRC/SBRS) must have its second word recognized as
// OpSecondWord so skipTarget (semantics.go) skips both words, not just
// the first, when the skip condition is taken.
func TestDecodeTwoWordInstructionAfterSkipIsRecognizedAsOneUnit(t *testing.T) {
	words := []uint16{
		0xFCB2, // SBRC r11,bit2  (index 0)
		0x940E, // CALL first word (index 1)
		0x1234, // CALL second word (index 2)
		0x0000, // NOP (index 3)
	}
	out := Decode(words)
	require.Len(t, out, 4)
	require.Equal(t, OpSBR, out[0].Op)
	require.Equal(t, OpCALL, out[1].Op)
	require.Equal(t, OpSecondWord, out[2].Op)
	require.Equal(t, OpNOP, out[3].Op)

	bus, err := NewBus(imageFromWords(words), DefaultBoard)
	require.NoError(t, err)
	c := NewCPU(bus, false)

	// skipTarget(pc+2) is exactly what the skip-family handlers call when
	// the skip condition is taken and the instruction at pc+1 decoded as a
	// two-word form; here pc=0, so next=2 lands on the CALL's second word
	// and must be bumped to 3.
	require.Equal(t, uint16(3), c.skipTarget(2))
}
