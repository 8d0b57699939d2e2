package avr

// The board's original JIT emits literal host machine code for each basic
// block into an executable buffer. Nothing in this module's dependency
// surface can assemble host machine code (that took a dedicated x86
// assembler crate in the source this was ported from, and no equivalent
// exists among this module's dependencies), so the optional JIT here
// compiles each basic block into a cached plan: the same straight-line
// Instr sequence the interpreter would fetch one at a time, pre-resolved
// once per entry PC and replayed through the identical execute() dense
// switch the interpreter uses. The payoff is the same as the original's:
// a hot loop's entry point is looked up once instead of re-walked through
// the decoded-instruction cache on every pass, and the whole block commits
// before peripherals are polled again, exactly as the board's step loop
// requires when the JIT is enabled.
type block struct {
	pcs    []uint16
	instrs []Instr
}

// blockFor returns the cached block for entry pc, compiling and caching it
// on first use. Blocks are never invalidated: the program image is fixed
// for the lifetime of a CPU, so a block compiled for pc is valid forever.
func (c *CPU) blockFor(pc uint16) *block {
	if blk, ok := c.blocks[pc]; ok {
		return blk
	}
	blk := compileBlock(c.Bus, pc)
	c.blocks[pc] = blk
	return blk
}

// isEndOfBlock reports whether instr must be the last instruction compiled
// into a basic block: every control-transfer instruction, plus NOP and
// SLEEP, grounded on original_source/src/cpu.rs's is_end_of_block. BSET(I)
// is deliberately excluded by the board's own design note: enabling
// interrupts must not take effect until one instruction later, so a block
// boundary placed right after it would let an interrupt fire a step early.
func isEndOfBlock(op Op) bool {
	switch op {
	case OpBRB, OpCALL, OpCPSE, OpICALL, OpJMP, OpNOP,
		OpRCALL, OpRET, OpRETI, OpRJMP, OpSBICIS, OpSBR, OpSLEEP:
		return true
	default:
		return false
	}
}

func instrWidth(instr Instr) uint16 {
	switch instr.Op {
	case OpCALL, OpJMP, OpLDSTS:
		return 2
	default:
		return 1
	}
}

const maxBlockLen = 4096

// compileBlock walks the decoded-instruction cache from entry until an
// end-of-block instruction, recording each instruction together with its
// own PC (widths vary, so this cannot be inferred from position alone).
func compileBlock(bus *Bus, entry uint16) *block {
	blk := &block{}
	pc := entry
	for len(blk.pcs) < maxBlockLen {
		instr := bus.Instruction(pc)
		blk.pcs = append(blk.pcs, pc)
		blk.instrs = append(blk.instrs, instr)
		if isEndOfBlock(instr.Op) {
			break
		}
		pc += instrWidth(instr)
	}
	return blk
}

// run executes every instruction in the block in sequence, without
// returning control to the step loop's peripheral/interrupt check in
// between, then leaves CPU.PC wherever the block's final (control-transfer)
// instruction set it.
func (b *block) run(c *CPU) error {
	for i, pc := range b.pcs {
		c.PC = pc
		if err := c.execute(b.instrs[i]); err != nil {
			return err
		}
	}
	return nil
}
