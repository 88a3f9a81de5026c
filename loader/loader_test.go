package loader_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/hdl"
	"github.com/sarchlab/pipesim/loader"
)

var _ = Describe("Scenario", func() {
	Describe("parsing", func() {
		It("should parse a full scenario", func() {
			s, err := loader.Parse([]byte(`{
				"design": "cpu",
				"cycles": 5,
				"imem": {"0": 4370, "0x1": 4915},
				"rf": {"1": 1, "0x2": 2},
				"inputs": [{"stall": 0}, {"stall": 1}],
				"trace": ["pc", "alu_out"]
			}`))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Design).To(Equal("cpu"))
			Expect(s.Cycles).To(Equal(5))
			Expect(s.IMem).To(Equal(map[uint64]uint64{0: 4370, 1: 4915}))
			Expect(s.RegFile).To(Equal(map[uint64]uint64{1: 1, 2: 2}))
			Expect(s.Inputs).To(HaveLen(2))
			Expect(s.TraceSignals).To(Equal([]string{"pc", "alu_out"}))
		})

		It("should default the cycle count to the input sequence length", func() {
			s, err := loader.Parse([]byte(`{
				"design": "alu3",
				"inputs": [{"inst": 1}, {"inst": 2}, {"inst": 3}]
			}`))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Cycles).To(Equal(3))
		})

		It("should reject malformed JSON", func() {
			_, err := loader.Parse([]byte(`{"design": `))
			Expect(err).To(MatchError(ContainSubstring("parsing scenario")))
		})

		It("should reject a missing design", func() {
			_, err := loader.Parse([]byte(`{"cycles": 4}`))
			Expect(err).To(MatchError(ContainSubstring("missing design")))
		})

		It("should reject an unknown design", func() {
			_, err := loader.Parse([]byte(`{"design": "gpu", "cycles": 4}`))
			Expect(err).To(MatchError(ContainSubstring(`unknown design "gpu"`)))
		})

		It("should reject a scenario with nothing to run", func() {
			_, err := loader.Parse([]byte(`{"design": "counter"}`))
			Expect(err).To(MatchError(ContainSubstring("cycles must be positive")))
		})

		It("should reject a malformed memory address", func() {
			_, err := loader.Parse([]byte(`{
				"design": "counter",
				"cycles": 1,
				"imem": {"zz": 1}
			}`))
			Expect(err).To(MatchError(ContainSubstring(`address "zz"`)))
		})
	})

	Describe("loading from a file", func() {
		It("should load a scenario file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "scenario.json")
			err := os.WriteFile(path, []byte(`{
				"design": "counter",
				"cycles": 4,
				"imem": {"0": 64}
			}`), 0644)
			Expect(err).NotTo(HaveOccurred())

			s, err := loader.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Design).To(Equal("counter"))
		})

		It("should report a missing file", func() {
			_, err := loader.Load(filepath.Join(GinkgoT().TempDir(), "nope.json"))
			Expect(err).To(MatchError(ContainSubstring("reading scenario")))
		})
	})

	Describe("per-cycle inputs", func() {
		It("should return nil beyond the declared sequence", func() {
			s, err := loader.Parse([]byte(`{
				"design": "alu3",
				"inputs": [{"inst": 7}]
			}`))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.InputsFor(0)).To(Equal(hdl.Inputs{"inst": 7}))
			Expect(s.InputsFor(1)).To(BeNil())
			Expect(s.InputsFor(-1)).To(BeNil())
		})
	})

	Describe("building", func() {
		It("should build and run a counter scenario", func() {
			// Three increments at addresses 0..2: 0x40 is INC.
			s, err := loader.Parse([]byte(`{
				"design": "counter",
				"cycles": 5,
				"imem": {"0": 64, "1": 64, "2": 64}
			}`))
			Expect(err).NotTo(HaveOccurred())

			sim, err := s.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Run(s.Cycles, s.InputsFor)).To(Succeed())

			v, ok := sim.Peek("counter")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint64(3)))
		})

		It("should build an ALU scenario driven by per-cycle inputs", func() {
			// 0x0512 is r5 <- r2 + r1.
			s, err := loader.Parse([]byte(`{
				"design": "alu3",
				"cycles": 3,
				"rf": {"1": 1, "2": 2},
				"inputs": [{"inst": 1298}]
			}`))
			Expect(err).NotTo(HaveOccurred())

			sim, err := s.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Run(s.Cycles, s.InputsFor)).To(Succeed())

			Expect(sim.InspectMem("rf")[5]).To(Equal(uint64(3)))
		})

		It("should build a processor scenario", func() {
			// 0x1112 is r1 <- r2 + r1.
			s, err := loader.Parse([]byte(`{
				"design": "cpu",
				"cycles": 3,
				"imem": {"0": 4370},
				"rf": {"1": 1, "2": 2}
			}`))
			Expect(err).NotTo(HaveOccurred())

			sim, err := s.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Run(s.Cycles, s.InputsFor)).To(Succeed())

			Expect(sim.InspectMem("rf")[1]).To(Equal(uint64(3)))
		})

		It("should restrict the trace to the configured signals", func() {
			s, err := loader.Parse([]byte(`{
				"design": "counter",
				"cycles": 2,
				"trace": ["counter"]
			}`))
			Expect(err).NotTo(HaveOccurred())

			sim, err := s.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.Run(s.Cycles, s.InputsFor)).To(Succeed())

			Expect(sim.Trace().Signals).To(Equal([]string{"counter"}))
		})

		It("should refuse to build an unvalidated design name", func() {
			s := &loader.Scenario{Design: "gpu", Cycles: 1}
			_, err := s.Build()
			Expect(err).To(MatchError(ContainSubstring(`unknown design "gpu"`)))
		})
	})
})
