// Package counter models an 8-bit two-stage pipelined counter
// datapath: fetch reads the instruction memory, and the combined
// decode/execute stage updates a counter register or redirects the
// program counter. A taken jump squashes the wrongly fetched
// instruction by injecting a NOP into the decode latch.
package counter

import "github.com/sarchlab/pipesim/hdl"

// Width is the datapath width in bits.
const Width = 8

// Opcode occupies the top two bits of an instruction word.
type Opcode uint64

// Counter opcodes.
const (
	OpNOP Opcode = 0x0 // pc <- pc + 1
	OpINC Opcode = 0x1 // counter <- counter + 1
	OpDEC Opcode = 0x2 // counter <- counter - 1
	OpJMP Opcode = 0x3 // pc <- d_pc + sign_extend(imm6)
)

// Assemble packs an opcode and a 6-bit immediate into an instruction
// word. Only jumps carry a meaningful immediate.
func Assemble(op Opcode, imm uint64) uint64 {
	return uint64(op)<<6 | imm&0x3f
}

// Design is a ready-to-run counter datapath.
type Design struct {
	sim *hdl.Simulation
}

// New builds the counter circuit with the given instruction memory
// image and wraps it in a simulation.
func New(program map[uint64]uint64, opts ...hdl.SimulationOption) (*Design, error) {
	b := hdl.NewBuilder("counter")

	pc := b.Register("pc", Width, 0)
	counter := b.Register("counter", Width, 0)
	dInst := b.Register("d_inst", Width, 0)
	dPC := b.Register("d_pc", Width, 0)
	imem := b.Memory("imem", Width, Width, hdl.Synchronous, program)

	b.Logic(func(c *hdl.Eval) {
		// Stage 2: decode + execute. Evaluated first so the branch
		// outcome is available to the fetch stage within the cycle.
		inst := dInst.Value()
		op := c.Wire("inst_op", inst.Slice(Width-2, Width))
		imm := c.Wire("inst_imm", inst.Slice(0, Width-2).SignExtend(Width))

		one := hdl.NewBits(Width, 1)
		aluOut := c.Wire("alu_out", c.EnumMux(op, map[uint64]hdl.Bits{
			uint64(OpINC): counter.Value().Add(one),
			uint64(OpDEC): counter.Value().Sub(one),
			uint64(OpJMP): dPC.Value().Add(imm),
		}, hdl.NewBits(Width, 0)))

		jump := hdl.NewBits(2, uint64(OpJMP))
		nop := hdl.NewBits(2, uint64(OpNOP))
		branchTaken := c.Wire("branch_taken", op.Eq(jump))
		branchTarget := c.Wire("branch_target", aluOut)

		// The counter self-holds on NOP and JUMP.
		hdl.When(op.Ne(jump).And(op.Ne(nop)), aluOut).Stage(counter)

		// Stage 1: fetch. A taken branch squashes the instruction
		// fetched down the wrong path by loading a NOP instead.
		dInst.StageNext(hdl.Mux(branchTaken,
			hdl.NewBits(Width, Assemble(OpNOP, 0)),
			imem.Read(pc.Value())))
		pc.StageNext(hdl.When(branchTaken, branchTarget).
			Else(pc.Value().Add(one)))
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

// Step advances the datapath one cycle. The counter design has no
// external inputs.
func (d *Design) Step() error {
	return d.sim.Step(nil)
}

// Run advances the datapath the given number of cycles.
func (d *Design) Run(cycles int) error {
	return d.sim.Run(cycles, nil)
}

// Counter returns the architectural counter value.
func (d *Design) Counter() uint64 {
	v, _ := d.sim.Peek("counter")
	return v
}

// PC returns the program counter.
func (d *Design) PC() uint64 {
	v, _ := d.sim.Peek("pc")
	return v
}
