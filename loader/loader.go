// Package loader reads JSON scenario files that describe a simulation
// run: which design to build, initial memory and register-file images,
// the per-cycle external inputs, and the signals to trace.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/sarchlab/pipesim/designs/alu3"
	"github.com/sarchlab/pipesim/designs/counter"
	"github.com/sarchlab/pipesim/designs/cpu"
	"github.com/sarchlab/pipesim/hdl"
)

// Scenario is a fully parsed simulation scenario.
type Scenario struct {
	// Design selects the datapath: "counter", "alu3", or "cpu".
	Design string
	// Cycles is the number of cycles to run.
	Cycles int
	// IMem is the instruction memory image (counter and cpu designs).
	IMem map[uint64]uint64
	// RegFile is the register-file image (alu3 and cpu designs).
	RegFile map[uint64]uint64
	// Inputs holds the external inputs per cycle; cycles beyond the
	// list run with all inputs at 0.
	Inputs []hdl.Inputs
	// TraceSignals limits the trace to the named signals. Empty means
	// trace everything.
	TraceSignals []string
}

// rawScenario is the JSON shape. Memory images are keyed by strings so
// addresses can be written in decimal or 0x-prefixed hex.
type rawScenario struct {
	Design  string              `json:"design"`
	Cycles  int                 `json:"cycles"`
	IMem    map[string]uint64   `json:"imem,omitempty"`
	RegFile map[string]uint64   `json:"rf,omitempty"`
	Inputs  []map[string]uint64 `json:"inputs,omitempty"`
	Trace   []string            `json:"trace,omitempty"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse parses scenario JSON, applies defaults, and validates.
func Parse(data []byte) (*Scenario, error) {
	var raw rawScenario
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	s := &Scenario{
		Design:       raw.Design,
		Cycles:       raw.Cycles,
		TraceSignals: raw.Trace,
	}

	var err error
	if s.IMem, err = parseImage(raw.IMem); err != nil {
		return nil, fmt.Errorf("imem: %w", err)
	}
	if s.RegFile, err = parseImage(raw.RegFile); err != nil {
		return nil, fmt.Errorf("rf: %w", err)
	}
	for _, in := range raw.Inputs {
		s.Inputs = append(s.Inputs, hdl.Inputs(in))
	}

	if s.Cycles == 0 {
		s.Cycles = len(s.Inputs)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseImage(raw map[string]uint64) (map[uint64]uint64, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(map[uint64]uint64, len(raw))
	for k, v := range raw {
		addr, err := strconv.ParseUint(k, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", k, err)
		}
		out[addr] = v
	}
	return out, nil
}

func (s *Scenario) validate() error {
	switch s.Design {
	case "counter", "alu3", "cpu":
	case "":
		return fmt.Errorf("scenario: missing design")
	default:
		return fmt.Errorf("scenario: unknown design %q", s.Design)
	}
	if s.Cycles <= 0 {
		return fmt.Errorf("scenario: cycles must be positive (got %d)", s.Cycles)
	}
	return nil
}

// InputsFor returns the external inputs for a cycle, or nil for
// cycles beyond the declared input sequence.
func (s *Scenario) InputsFor(cycle int) hdl.Inputs {
	if cycle < 0 || cycle >= len(s.Inputs) {
		return nil
	}
	return s.Inputs[cycle]
}

// Build constructs the selected design and returns its simulation.
func (s *Scenario) Build(opts ...hdl.SimulationOption) (*hdl.Simulation, error) {
	if len(s.TraceSignals) > 0 {
		opts = append(opts, hdl.WithTraceSignals(s.TraceSignals...))
	}

	switch s.Design {
	case "counter":
		d, err := counter.New(s.IMem, opts...)
		if err != nil {
			return nil, err
		}
		return d.Simulation(), nil
	case "alu3":
		d, err := alu3.New(s.RegFile, opts...)
		if err != nil {
			return nil, err
		}
		return d.Simulation(), nil
	case "cpu":
		d, err := cpu.New(s.IMem, s.RegFile, opts...)
		if err != nil {
			return nil, err
		}
		return d.Simulation(), nil
	default:
		return nil, fmt.Errorf("scenario: unknown design %q", s.Design)
	}
}
