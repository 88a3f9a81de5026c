// Package cpu models a 16-bit three-stage pipelined processor: fetch,
// decode, and a combined execute/writeback stage. Instructions come
// from an instruction memory indexed by the program counter. The
// design forwards the in-flight execute-stage result to dependent
// consumers in decode, holds the program counter under stall, and
// squashes wrongly fetched instructions when a jump resolves taken.
package cpu

import "github.com/sarchlab/pipesim/hdl"

// Width is the datapath width in bits.
const Width = 16

// RegAddrWidth is the register-file address width in bits.
const RegAddrWidth = 4

// Opcode occupies the top nibble of an instruction word.
type Opcode uint64

// Processor opcodes. Register operations compute rd <- ra op rb; JUMP
// redirects the program counter to d_pc + imm12.
const (
	OpNOP Opcode = 0x0 // unused encoding; the pipeline bubble is ADD r0 r0 r0
	OpADD Opcode = 0x1
	OpSUB Opcode = 0x2
	OpXOR Opcode = 0x3
	OpAND Opcode = 0x4
	OpOR  Opcode = 0x5
	OpJMP Opcode = 0x6
)

// Bubble is the no-op encoding injected on squash: ADD r0 r0 r0.
const Bubble = 0x1000

// Assemble packs op rd rb ra into an instruction word.
func Assemble(op Opcode, rd, rb, ra uint64) uint64 {
	return uint64(op)<<12 | rd&0xf<<8 | rb&0xf<<4 | ra&0xf
}

// AssembleJump packs a JUMP with a 12-bit immediate.
func AssembleJump(imm uint64) uint64 {
	return uint64(OpJMP)<<12 | imm&0xfff
}

// Design is a ready-to-run three-stage processor datapath.
type Design struct {
	sim *hdl.Simulation
}

// New builds the processor circuit with the given instruction memory
// and register-file images and wraps it in a simulation.
func New(
	program map[uint64]uint64,
	rfInit map[uint64]uint64,
	opts ...hdl.SimulationOption,
) (*Design, error) {
	b := hdl.NewBuilder("cpu")

	b.Input("stall", 1)

	imem := b.Memory("imem", Width, Width, hdl.Synchronous, program)
	rf := b.Memory("rf", RegAddrWidth, Width, hdl.Asynchronous, rfInit)

	pc := b.Register("pc", Width, 0)
	dInst := b.Register("d_inst", Width, 0)
	dPC := b.Register("d_pc", Width, 0)
	xRd := b.Register("x_rd", RegAddrWidth, 0)
	xCtrlALUOp := b.Register("x_ctrl_alu_op", 4, 0)
	xCtrlBranch := b.Register("x_ctrl_branch", 1, 0)
	xCtrlWrite := b.Register("x_ctrl_write", 1, 0)
	xALUIn1 := b.Register("x_alu_in1", Width, 0)
	xALUIn2 := b.Register("x_alu_in2", Width, 0)

	b.Logic(func(c *hdl.Eval) {
		stall := c.In("stall")

		// Stage 3: execute and write back. Evaluated first so the ALU
		// result and branch outcome feed decode forwarding and the
		// fetch-side squash within the same cycle.
		aluOut := c.Wire("alu_out", c.EnumMux(xCtrlALUOp.Value(), map[uint64]hdl.Bits{
			uint64(OpADD): xALUIn1.Value().Add(xALUIn2.Value()),
			uint64(OpSUB): xALUIn1.Value().Sub(xALUIn2.Value()),
			uint64(OpXOR): xALUIn1.Value().Xor(xALUIn2.Value()),
			uint64(OpAND): xALUIn1.Value().And(xALUIn2.Value()),
			uint64(OpOR):  xALUIn1.Value().Or(xALUIn2.Value()),
		}, hdl.NewBits(Width, 0)))

		branchTaken := c.Wire("branch_taken", xCtrlBranch.Value())
		branchTarget := c.Wire("branch_target", aluOut)

		// Reads of r0 are hard-wired to 0, so writes to r0 are
		// suppressed rather than stored.
		zeroReg := hdl.NewBits(RegAddrWidth, 0)
		writeEnable := c.Wire("reg_write_enable",
			xCtrlWrite.Value().And(xRd.Value().Ne(zeroReg)))
		rf.StageWrite(xRd.Value(), aluOut, writeEnable)

		// Stage 2: decode. A resolved branch or an external stall
		// turns this slot into a bubble.
		nop := c.Wire("nop", branchTaken.Or(stall))

		inst := dInst.Value()
		zeroAddr := hdl.NewBits(RegAddrWidth, 0)
		instA := hdl.Mux(nop, zeroAddr, inst.Slice(0, 4))
		instB := hdl.Mux(nop, zeroAddr, inst.Slice(4, 8))
		instC := hdl.Mux(nop, zeroAddr, inst.Slice(8, 12))
		instOp := hdl.Mux(nop, hdl.NewBits(4, uint64(OpADD)), inst.Slice(12, 16))
		instImm := inst.Slice(0, 12).ZeroExtend(Width)

		// JUMP borrows the adder: pc-relative target is d_pc + imm.
		ctrlALUOp := c.EnumMux(instOp, map[uint64]hdl.Bits{
			uint64(OpJMP): hdl.NewBits(4, uint64(OpADD)),
		}, instOp)
		ctrlBranch := c.EnumMux(instOp, map[uint64]hdl.Bits{
			uint64(OpJMP): hdl.NewBits(1, 1),
		}, hdl.NewBits(1, 0))
		ctrlWrite := c.EnumMux(instOp, map[uint64]hdl.Bits{
			uint64(OpADD): hdl.NewBits(1, 1),
			uint64(OpSUB): hdl.NewBits(1, 1),
			uint64(OpXOR): hdl.NewBits(1, 1),
			uint64(OpAND): hdl.NewBits(1, 1),
			uint64(OpOR):  hdl.NewBits(1, 1),
		}, hdl.NewBits(1, 0))

		// Operand selection with forwarding. A branch repurposes the
		// ALU inputs as d_pc + imm; otherwise a source that matches
		// the in-flight destination takes the execute-stage result.
		xALUIn1.StageNext(hdl.When(ctrlBranch, dPC.Value()).
			When(forwardFromExecute(instA, xRd.Value()), aluOut).
			Else(rf.Read(instA)))
		xALUIn2.StageNext(hdl.When(ctrlBranch, instImm).
			When(forwardFromExecute(instB, xRd.Value()), aluOut).
			Else(rf.Read(instB)))

		xCtrlALUOp.StageNext(ctrlALUOp)
		xCtrlBranch.StageNext(ctrlBranch)
		xCtrlWrite.StageNext(ctrlWrite)
		xRd.StageNext(instC)

		// Stage 1: fetch. A taken branch squashes the wrongly fetched
		// instruction; squash takes priority over stall, since a
		// squashed slot carries no instruction to stall.
		dInst.StageNext(hdl.Mux(branchTaken,
			hdl.NewBits(Width, Bubble),
			imem.Read(pc.Value())))
		pc.StageNext(hdl.When(branchTaken, branchTarget).
			When(stall, pc.Value()).
			Else(pc.Value().Add(hdl.NewBits(Width, 1))))
		dPC.StageNext(pc.Value())
	})

	circ, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Design{sim: hdl.NewSimulation(circ, opts...)}, nil
}

// Simulation exposes the underlying simulation for tracing and
// inspection.
func (d *Design) Simulation() *hdl.Simulation { return d.sim }

// Step advances the processor one cycle.
func (d *Design) Step(stall bool) error {
	var in hdl.Inputs
	if stall {
		in = hdl.Inputs{"stall": 1}
	}
	return d.sim.Step(in)
}

// Run advances the processor the given number of cycles with stall
// deasserted.
func (d *Design) Run(cycles int) error {
	for i := 0; i < cycles; i++ {
		if err := d.Step(false); err != nil {
			return err
		}
	}
	return nil
}

// PC returns the program counter.
func (d *Design) PC() uint64 {
	v, _ := d.sim.Peek("pc")
	return v
}

// RegFile returns a copy of the register-file contents.
func (d *Design) RegFile() map[uint64]uint64 {
	return d.sim.InspectMem("rf")
}

// Reg returns the architectural value of one register. r0 always
// reads as 0.
func (d *Design) Reg(r uint64) uint64 {
	if r == 0 {
		return 0
	}
	return d.RegFile()[r]
}
