package akitabridge_test

import (
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesim/akitabridge"
	"github.com/sarchlab/pipesim/designs/alu3"
	"github.com/sarchlab/pipesim/designs/counter"
	"github.com/sarchlab/pipesim/hdl"
)

var _ = Describe("Bridge component", func() {
	var engine sim.Engine

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
	})

	It("should run the datapath one cycle per tick until the budget", func() {
		program := map[uint64]uint64{
			0: counter.Assemble(counter.OpINC, 0),
			1: counter.Assemble(counter.OpINC, 0),
			2: counter.Assemble(counter.OpINC, 0),
		}
		d, err := counter.New(program)
		Expect(err).NotTo(HaveOccurred())

		comp := akitabridge.Builder{}.
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithDatapath(d.Simulation()).
			WithCycleBudget(5).
			Build("Counter")
		comp.Start()

		Expect(engine.Run()).To(Succeed())

		Expect(comp.Err()).NotTo(HaveOccurred())
		Expect(comp.Datapath().Cycle()).To(Equal(5))
		Expect(d.Counter()).To(Equal(uint64(3)))
	})

	It("should feed per-cycle inputs to the datapath", func() {
		d, err := alu3.New(map[uint64]uint64{1: 1, 2: 2})
		Expect(err).NotTo(HaveOccurred())

		inputs := func(cycle int) hdl.Inputs {
			if cycle == 0 {
				// r5 <- r2 + r1
				return hdl.Inputs{"inst": alu3.Assemble(alu3.OpADD, 5, 1, 2)}
			}
			return hdl.Inputs{"stall": 1}
		}

		comp := akitabridge.Builder{}.
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithDatapath(d.Simulation()).
			WithInputs(inputs).
			WithCycleBudget(4).
			Build("ALU")
		comp.Start()

		Expect(engine.Run()).To(Succeed())

		Expect(d.RegFile()[5]).To(Equal(uint64(3)))
	})

	It("should stop ticking and latch the error when a step fails", func() {
		d, err := alu3.New(nil)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		badInputs := func(cycle int) hdl.Inputs {
			return hdl.Inputs{"bogus": 1}
		}

		comp := akitabridge.Builder{}.
			WithEngine(engine).
			WithFreq(1 * sim.GHz).
			WithDatapath(d.Simulation()).
			WithInputs(badInputs).
			WithLogger(logger).
			Build("Broken")
		comp.Start()

		Expect(engine.Run()).To(Succeed())

		Expect(comp.Err()).To(MatchError(hdl.ErrConfiguration))
		Expect(comp.Datapath().Cycle()).To(BeZero())
	})

	It("should refuse to build without a datapath", func() {
		Expect(func() {
			akitabridge.Builder{}.WithEngine(engine).Build("Empty")
		}).To(Panic())
	})
})
