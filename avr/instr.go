package avr

import "fmt"

// Op identifies the decoded form of one AVR opcode family. Two-word
// instructions (CALL, JMP, LDS, STS) occupy two program words; the second
// word's cache slot holds OpSecondWord so the step loop never re-decodes it.
type Op int

const (
	OpUnknown Op = iota
	OpIncomplete
	OpSecondWord

	OpADC
	OpADD
	OpADIW
	OpAND
	OpANDI
	OpASR
	OpBCLR
	OpBLD
	OpBRB // BRBS/BRBC, distinguished by Instr.Set
	OpBSET
	OpBST
	OpCALL
	OpCBISBI // CBI/SBI, distinguished by Instr.Set
	OpCOM
	OpCP
	OpCPC
	OpCPI
	OpCPSE
	OpDEC
	OpEOR
	OpICALL
	OpIN
	OpINC
	OpJMP
	OpLDST  // LD/ST via X/Y/Z, distinguished by Instr.Store
	OpLDSTS // LDS/STS, distinguished by Instr.Store
	OpLDI
	OpLPM
	OpLSR
	OpMOV
	OpMOVW
	OpMUL
	OpNEG
	OpNOP
	OpOR
	OpORI
	OpOUT
	OpPOP
	OpPUSH
	OpRCALL
	OpRET
	OpRETI
	OpRJMP
	OpROR
	OpSBC
	OpSBCI
	OpSBICIS // SBIC/SBIS, distinguished by Instr.Set
	OpSBIW
	OpSBR // SBRC/SBRS, distinguished by Instr.Set
	OpSLEEP
	OpSUB
	OpSUBI
	OpSWAP
)

var opNames = map[Op]string{
	OpUnknown:    "UNKNOWN",
	OpIncomplete: "INCOMPLETE",
	OpSecondWord: "SECONDWORD",
	OpADC:        "ADC",
	OpADD:        "ADD",
	OpADIW:       "ADIW",
	OpAND:        "AND",
	OpANDI:       "ANDI",
	OpASR:        "ASR",
	OpBCLR:       "BCLR",
	OpBLD:        "BLD",
	OpBRB:        "BRB",
	OpBSET:       "BSET",
	OpBST:        "BST",
	OpCALL:       "CALL",
	OpCBISBI:     "CBI/SBI",
	OpCOM:        "COM",
	OpCP:         "CP",
	OpCPC:        "CPC",
	OpCPI:        "CPI",
	OpCPSE:       "CPSE",
	OpDEC:        "DEC",
	OpEOR:        "EOR",
	OpICALL:      "ICALL",
	OpIN:         "IN",
	OpINC:        "INC",
	OpJMP:        "JMP",
	OpLDST:       "LD/ST",
	OpLDSTS:      "LDS/STS",
	OpLDI:        "LDI",
	OpLPM:        "LPM",
	OpLSR:        "LSR",
	OpMOV:        "MOV",
	OpMOVW:       "MOVW",
	OpMUL:        "MUL",
	OpNEG:        "NEG",
	OpNOP:        "NOP",
	OpOR:         "OR",
	OpORI:        "ORI",
	OpOUT:        "OUT",
	OpPOP:        "POP",
	OpPUSH:       "PUSH",
	OpRCALL:      "RCALL",
	OpRET:        "RET",
	OpRETI:       "RETI",
	OpRJMP:       "RJMP",
	OpROR:        "ROR",
	OpSBC:        "SBC",
	OpSBCI:       "SBCI",
	OpSBICIS:     "SBIC/SBIS",
	OpSBIW:       "SBIW",
	OpSBR:        "SBRC/SBRS",
	OpSLEEP:      "SLEEP",
	OpSUB:        "SUB",
	OpSUBI:       "SUBI",
	OpSWAP:       "SWAP",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// LDMode is the addressing mode of the X/Y/Z-indirect LD/ST family.
type LDMode int

const (
	ModePostIncrement LDMode = iota
	ModePreDecrement
	ModeDisplacement
)

// Register numbers of the three 16-bit pointer pairs, used as Instr.AddrReg.
const (
	RegX uint8 = 26
	RegY uint8 = 28
	RegZ uint8 = 30
)

// Instr is a decoded instruction: one tagged variant per Op, carrying only
// the operand fields that Op actually uses. The step loop dispatches on Op
// with a dense switch; nothing here is ever invoked through an interface.
type Instr struct {
	Op Op

	Rd uint8 // destination/sole register operand
	Rr uint8 // source register operand (two-register ops)

	K   uint8  // 8-bit immediate (ANDI/ORI/SUBI/SBCI/CPI/LDI, ADIW/SBIW delta)
	K16 uint16 // absolute data address (LDS/STS)
	K32 uint32 // absolute word address (CALL/JMP)

	IOAddr uint8 // I/O register index (IN/OUT/CBI/SBI/SBIC/SBIS)
	Bit    uint8 // bit index (BLD/BST/BSET/BCLR/CBI/SBI/SBIC/SBIS/SBR/BRB)
	Set    bool  // the SetClear condition shared by BRB/CBI-SBI/SBIC-SBIS/SBR

	Store   bool   // LDType: false = LD, true = ST
	AddrReg uint8  // RegX/RegY/RegZ for the indirect LD/ST family
	Mode    LDMode // addressing mode for the indirect LD/ST family
	Disp    uint8  // displacement operand when Mode == ModeDisplacement

	PostInc bool // LPM Z-post-increment variant

	Branch int16 // branch/relative-call displacement, pre-adjusted by +1

	Raw uint16 // raw word, populated for OpUnknown/OpIncomplete diagnostics
}

func (i Instr) String() string {
	return fmt.Sprintf("%s{Rd=%d Rr=%d K=%#x K16=%#x K32=%#x Raw=%#04x}",
		i.Op, i.Rd, i.Rr, i.K, i.K16, i.K32, i.Raw)
}
