// Package alu3 models a 16-bit three-stage pipelined ALU. The design
// has no program counter: the instruction stream is an external input
// fed one word per cycle. Stage 0 decodes and reads the register file
// with result forwarding, stage 1 computes the ALU result, and stage 2
// writes the result back through an enabled write. Asserting stall
// turns the issuing slot into a bubble: operand latches are zeroed and
// the register-file write enable for that slot is forced low.
package alu3

import "github.com/sarchlab/pipesim/hdl"

// Width is the datapath width in bits.
const Width = 16

// RegAddrWidth is the register-file address width in bits.
const RegAddrWidth = 4

// Opcode occupies the top nibble of an instruction word.
type Opcode uint64

// ALU opcodes.
const (
	OpADD Opcode = 0x0
	OpSUB Opcode = 0x1
	OpXOR Opcode = 0x2
	OpAND Opcode = 0x3
	OpOR  Opcode = 0x4
)

// Assemble packs op rd rb ra into an instruction word. The operation
// computes rd <- ra op rb.
func Assemble(op Opcode, rd, rb, ra uint64) uint64 {
	return uint64(op)<<12 | rd&0xf<<8 | rb&0xf<<4 | ra&0xf
}

// Design is a ready-to-run three-stage ALU datapath.
type Design struct {
	sim *hdl.Simulation
}

// New builds the ALU circuit with the given register-file image and
// wraps it in a simulation.
func New(rfInit map[uint64]uint64, opts ...hdl.SimulationOption) (*Design, error) {
	b := hdl.NewBuilder("alu3")

	b.Input("inst", Width)
	b.Input("stall", 1)

	rf := b.Memory("rf", RegAddrWidth, Width, hdl.Synchronous, rfInit)

	in1 := b.Register("in1", Width, 0)
	in2 := b.Register("in2", Width, 0)
	out := b.Register("out", Width, 0)
	cAddr1 := b.Register("c_addr_1", RegAddrWidth, 0)
	cAddr2 := b.Register("c_addr_2", RegAddrWidth, 0)
	op1 := b.Register("op_1", 4, 0)
	write1 := b.Register("write_1", 1, 0)
	write2 := b.Register("write_2", 1, 0)

	b.Logic(func(c *hdl.Eval) {
		// Stage 1: execute. Evaluated first so the in-flight result is
		// available to stage 0's forwarding logic within the cycle.
		aluOut := c.Wire("alu_out", c.EnumMux(op1.Value(), map[uint64]hdl.Bits{
			uint64(OpADD): in1.Value().Add(in2.Value()),
			uint64(OpSUB): in1.Value().Sub(in2.Value()),
			uint64(OpXOR): in1.Value().Xor(in2.Value()),
			uint64(OpAND): in1.Value().And(in2.Value()),
			uint64(OpOR):  in1.Value().Or(in2.Value()),
		}, hdl.NewBits(Width, 0)))

		out.StageNext(aluOut)
		write2.StageNext(write1.Value())
		cAddr2.StageNext(cAddr1.Value())

		// Stage 2: writeback through an enabled write.
		rf.StageWrite(cAddr2.Value(), out.Value(), write2.Value())

		// Stage 0: decode, register read, forwarding.
		inst := c.In("inst")
		stall := c.In("stall")

		instA := inst.Slice(0, 4)
		instB := inst.Slice(4, 8)
		instC := inst.Slice(8, 12)
		instOp := inst.Slice(12, 16)

		op1.StageNext(instOp)

		zero := hdl.NewBits(Width, 0)
		in1.StageNext(hdl.When(stall, zero).
			Else(selectOperand(detectForward(instA, cAddr1.Value(), cAddr2.Value()),
				aluOut, out.Value(), rf.Read(instA))))
		in2.StageNext(hdl.When(stall, zero).
			Else(selectOperand(detectForward(instB, cAddr1.Value(), cAddr2.Value()),
				aluOut, out.Value(), rf.Read(instB))))

		write1.StageNext(hdl.When(stall, hdl.NewBits(1, 0)).
			Else(hdl.NewBits(1, 1)))
		cAddr1.StageNext(hdl.When(stall, hdl.NewBits(RegAddrWidth, 0)).
			Else(instC))
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

// Step feeds one instruction word into the datapath and advances one
// cycle. The instruction is ignored when stall is asserted.
func (d *Design) Step(inst uint64, stall bool) error {
	in := hdl.Inputs{"inst": inst}
	if stall {
		in["stall"] = 1
	}
	return d.sim.Step(in)
}

// Drain advances the pipeline with stall asserted so in-flight
// instructions retire without issuing new ones.
func (d *Design) Drain(cycles int) error {
	for i := 0; i < cycles; i++ {
		if err := d.Step(0, true); err != nil {
			return err
		}
	}
	return nil
}

// RegFile returns a copy of the register-file contents.
func (d *Design) RegFile() map[uint64]uint64 {
	return d.sim.InspectMem("rf")
}
