package cpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/designs/cpu"
)

// smallRF returns the reference register-file image: r0..r3 hold
// their index, the rest hold 0.
func smallRF() map[uint64]uint64 {
	rf := map[uint64]uint64{}
	for i := uint64(0); i < 16; i++ {
		if i < 4 {
			rf[i] = i
		} else {
			rf[i] = 0
		}
	}
	return rf
}

var _ = Describe("CPU design", func() {
	Describe("basic operation", func() {
		It("should retire an instruction through fetch, decode, and execute", func() {
			program := map[uint64]uint64{
				0: cpu.Assemble(cpu.OpADD, 1, 1, 2), // r1 <- r2 + r1
			}
			d, err := cpu.New(program, smallRF())
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Run(3)).To(Succeed())

			Expect(d.Reg(1)).To(Equal(uint64(3)))
		})

		It("should never write to r0", func() {
			program := map[uint64]uint64{
				0: cpu.Assemble(cpu.OpADD, 0, 2, 1), // rd = r0: suppressed
			}
			d, err := cpu.New(program, smallRF())
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Run(3)).To(Succeed())

			Expect(d.Reg(0)).To(BeZero())
			Expect(d.RegFile()[0]).To(BeZero())
		})
	})

	Describe("forwarding", func() {
		It("should forward the in-flight result to the next instruction", func() {
			program := map[uint64]uint64{
				0: cpu.Assemble(cpu.OpADD, 1, 1, 2), // r1 <- r2 + r1 = 3
				1: cpu.Assemble(cpu.OpADD, 2, 1, 1), // r2 <- r1 + r1, needs 3
			}
			d, err := cpu.New(program, smallRF())
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Run(4)).To(Succeed())

			Expect(d.Reg(1)).To(Equal(uint64(3)))
			// 6 only if the in-flight value was forwarded; the stale
			// architectural r1 would give 2.
			Expect(d.Reg(2)).To(Equal(uint64(6)))
		})

		It("should not forward into a source reading r0", func() {
			program := map[uint64]uint64{
				0: cpu.Assemble(cpu.OpADD, 0, 2, 1), // in-flight rd = r0
				1: cpu.Assemble(cpu.OpADD, 4, 0, 0), // r4 <- r0 + r0
			}
			d, err := cpu.New(program, smallRF())
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Run(4)).To(Succeed())

			Expect(d.Reg(4)).To(BeZero())
		})
	})

	Describe("branch squash", func() {
		It("should keep the wrongly fetched instruction from reaching writeback", func() {
			program := map[uint64]uint64{
				2: cpu.AssembleJump(7),              // pc <- d_pc(2) + 7 = 9
				3: cpu.Assemble(cpu.OpADD, 5, 1, 1), // down the wrong path
			}
			d, err := cpu.New(program, smallRF())
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Run(6)).To(Succeed())

			Expect(d.Reg(5)).To(BeZero())
		})

		It("should redirect the program counter to the branch target", func() {
			program := map[uint64]uint64{
				2: cpu.AssembleJump(7),
			}
			d, err := cpu.New(program, smallRF())
			Expect(err).NotTo(HaveOccurred())

			// The jump fetched in cycle 2 decodes in cycle 3 and
			// resolves in cycle 4.
			Expect(d.Run(5)).To(Succeed())

			Expect(d.PC()).To(Equal(uint64(9)))
		})
	})

	Describe("stall", func() {
		It("should hold the program counter and fire no register writes", func() {
			program := map[uint64]uint64{
				0: cpu.Assemble(cpu.OpADD, 1, 1, 2),
			}
			d, err := cpu.New(program, smallRF())
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Step(true)).To(Succeed())
			pcBefore := d.PC()
			dInstBefore, _ := d.Simulation().Peek("d_inst")
			rfBefore := d.RegFile()

			for i := 0; i < 4; i++ {
				Expect(d.Step(true)).To(Succeed())
			}

			Expect(d.PC()).To(Equal(pcBefore))
			dInst, _ := d.Simulation().Peek("d_inst")
			Expect(dInst).To(Equal(dInstBefore))
			Expect(d.RegFile()).To(Equal(rfBefore))
		})
	})

	Describe("original program", func() {
		It("should reproduce the reference run", func() {
			program := map[uint64]uint64{
				0: 0x1112, // ADD r1 r2 r1
				1: 0x1333, // ADD r3 r3 r3
				2: 0x6007, // JUMP +7
				3: 0x2221, // SUB r2 r1 r2 (squashed)
				4: 0x1000, // bubble encoding (squashed)
				9: 0x2121, // SUB r1 r1 r2
			}
			d, err := cpu.New(program, smallRF())
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 7; i++ {
				Expect(d.Step(false)).To(Succeed())
			}
			Expect(d.Step(true)).To(Succeed())
			Expect(d.Step(true)).To(Succeed())

			rf := d.RegFile()
			Expect(rf[1]).To(Equal(uint64(1)))
			Expect(rf[2]).To(Equal(uint64(2))) // untouched: its writer was squashed
			Expect(rf[3]).To(Equal(uint64(6)))

			// The jump resolves in cycle 4 and redirects to address 9;
			// the trailing stalls hold the program counter at 11.
			trace := d.Simulation().Trace()
			Expect(trace.Signal("pc")).To(Equal([]uint64{
				1, 2, 3, 4, 9, 10, 11, 11, 11,
			}))
		})

		It("should produce identical traces on a replay", func() {
			program := map[uint64]uint64{
				0: 0x1112,
				1: 0x1333,
				2: 0x6007,
			}
			run := func() *cpu.Design {
				d, err := cpu.New(program, smallRF())
				Expect(err).NotTo(HaveOccurred())
				Expect(d.Run(12)).To(Succeed())
				return d
			}

			Expect(run().Simulation().Trace()).
				To(Equal(run().Simulation().Trace()))
		})
	})
})
