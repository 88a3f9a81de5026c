package hdl

import (
	"log/slog"
	"sort"
)

// Statistics holds counters accumulated over a simulation run.
type Statistics struct {
	// Cycles is the number of committed cycles.
	Cycles uint64
	// Fallbacks is the number of enumerated-mux default selections,
	// summed over all committed cycles.
	Fallbacks uint64
}

// SimulationOption is a functional option for configuring a Simulation.
type SimulationOption func(*Simulation)

// WithTraceSignals limits the recorded trace to the named signals.
// By default every register, declared input, and named wire is traced.
func WithTraceSignals(signals ...string) SimulationOption {
	return func(s *Simulation) {
		s.traceSignals = signals
	}
}

// WithLogger sets a structured logger. Enumerated-mux fallbacks are
// reported at debug level; the simulation is silent by default.
func WithLogger(logger *slog.Logger) SimulationOption {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// WithStrictDrive makes an undriven register a configuration error
// instead of a self-hold. Use it for designs whose conditional
// assignment branches are meant to be exhaustive.
func WithStrictDrive() SimulationOption {
	return func(s *Simulation) {
		s.strict = true
	}
}

type phase int

const (
	phaseIdle phase = iota
	phaseEvaluated
)

// Simulation drives a circuit through discrete cycles. It owns the
// authoritative state of all registers and memories: the combinational
// logic only reads current state and produces staged updates, and the
// commit phase is the single writer. Given identical initial state and
// inputs, two runs produce bit-identical traces.
type Simulation struct {
	circuit *Circuit
	logger  *slog.Logger
	strict  bool

	traceSignals []string
	trace        *Trace

	cycle     int
	phase     phase
	lastEval  *Eval
	stats     Statistics
	signalSet map[string]struct{}
}

// NewSimulation creates a simulation over a built circuit.
func NewSimulation(c *Circuit, opts ...SimulationOption) *Simulation {
	s := &Simulation{
		circuit:   c,
		trace:     &Trace{},
		signalSet: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.traceSignals) > 0 {
		s.trace.Signals = append(s.trace.Signals, s.traceSignals...)
		for _, name := range s.traceSignals {
			s.signalSet[name] = struct{}{}
		}
	} else {
		for _, r := range c.regs {
			s.addSignal(r.name)
		}
		inputs := make([]string, 0, len(c.inputs))
		for name := range c.inputs {
			inputs = append(inputs, name)
		}
		sort.Strings(inputs)
		for _, name := range inputs {
			s.addSignal(name)
		}
	}
	return s
}

func (s *Simulation) addSignal(name string) {
	if _, ok := s.signalSet[name]; ok {
		return
	}
	s.signalSet[name] = struct{}{}
	s.trace.Signals = append(s.trace.Signals, name)
}

// Circuit returns the simulated circuit.
func (s *Simulation) Circuit() *Circuit { return s.circuit }

// Cycle returns the number of committed cycles.
func (s *Simulation) Cycle() int { return s.cycle }

// Stats returns the accumulated statistics.
func (s *Simulation) Stats() Statistics { return s.stats }

// Trace returns the recorded trace.
func (s *Simulation) Trace() *Trace { return s.trace }

// Evaluate runs the combinational logic for one cycle against the
// frozen start-of-cycle state, staging register next values and
// memory writes. It must be followed by Commit.
func (s *Simulation) Evaluate(in Inputs) (err error) {
	defer recoverEngineError(&err)

	if s.phase != phaseIdle {
		panic(invariantErrorf("evaluate called twice without a commit"))
	}
	ev := newEval(s.circuit, in, s.logger)
	s.circuit.logic(ev)
	s.lastEval = ev
	s.phase = phaseEvaluated
	return nil
}

// Commit atomically latches every staged register value and applies
// every enabled memory write, then records the trace snapshot. Commit
// without a preceding Evaluate is an invariant violation.
func (s *Simulation) Commit() (err error) {
	defer recoverEngineError(&err)

	if s.phase != phaseEvaluated {
		panic(invariantErrorf("commit called without a preceding evaluation"))
	}
	for _, r := range s.circuit.regs {
		r.commit(s.strict)
	}
	for _, m := range s.circuit.mems {
		m.commit()
	}
	s.record()
	s.cycle++
	s.stats.Cycles++
	s.stats.Fallbacks += s.lastEval.fallbacks
	s.phase = phaseIdle
	return nil
}

// Step runs one full cycle: evaluate, then commit.
func (s *Simulation) Step(in Inputs) error {
	if err := s.Evaluate(in); err != nil {
		s.abandonEval()
		return err
	}
	if err := s.Commit(); err != nil {
		return err
	}
	return nil
}

// abandonEval drops staged state after a failed evaluation so the
// simulation is left at a clean cycle boundary.
func (s *Simulation) abandonEval() {
	for _, r := range s.circuit.regs {
		r.clearStaged()
	}
	for _, m := range s.circuit.mems {
		m.clearStaged()
	}
	s.lastEval = nil
	s.phase = phaseIdle
}

// Run executes the given number of cycles. inputFn, when non-nil,
// supplies the external inputs for each cycle by cycle index.
func (s *Simulation) Run(cycles int, inputFn func(cycle int) Inputs) error {
	for i := 0; i < cycles; i++ {
		var in Inputs
		if inputFn != nil {
			in = inputFn(s.cycle)
		}
		if err := s.Step(in); err != nil {
			return err
		}
	}
	return nil
}

// RunUntil steps the simulation until done reports true, up to
// maxCycles. It returns the error of a failing step, otherwise nil
// whether or not the predicate was reached.
func (s *Simulation) RunUntil(done func(*Simulation) bool, maxCycles int) error {
	for i := 0; i < maxCycles && !done(s); i++ {
		if err := s.Step(nil); err != nil {
			return err
		}
	}
	return nil
}

// Peek returns the current value of a named register, or the value a
// named wire took in the most recently committed cycle. The boolean
// reports whether the name resolved.
func (s *Simulation) Peek(name string) (uint64, bool) {
	if r, ok := s.circuit.Register(name); ok {
		return r.Value().Uint64(), true
	}
	if s.lastEval != nil {
		if v, ok := s.lastEval.wires[name]; ok {
			return v.Uint64(), true
		}
	}
	return 0, false
}

// InspectMem returns a copy of a named memory's contents, or nil when
// no such memory is declared.
func (s *Simulation) InspectMem(name string) map[uint64]uint64 {
	m, ok := s.circuit.Memory(name)
	if !ok {
		return nil
	}
	return m.Contents()
}

// Reset restores all registers and memories to their initial state and
// clears the trace and statistics.
func (s *Simulation) Reset() {
	for _, r := range s.circuit.regs {
		r.reset()
	}
	for _, m := range s.circuit.mems {
		m.reset()
	}
	s.cycle = 0
	s.phase = phaseIdle
	s.lastEval = nil
	s.stats = Statistics{}
	s.trace.Snapshots = nil
}

// record appends the post-commit snapshot of the traced signals.
func (s *Simulation) record() {
	snap := Snapshot{
		Cycle:     s.cycle,
		Values:    map[string]uint64{},
		Fallbacks: s.lastEval.fallbacks,
	}

	if len(s.traceSignals) == 0 {
		// Wires are only known once evaluated; fold newly seen names
		// into the signal list in first-seen order.
		for _, name := range s.lastEval.wireOrder {
			s.addSignal(name)
		}
	}

	for _, name := range s.trace.Signals {
		if r, ok := s.circuit.Register(name); ok {
			snap.Values[name] = r.Value().Uint64()
			continue
		}
		if v, ok := s.lastEval.wires[name]; ok {
			snap.Values[name] = v.Uint64()
			continue
		}
		if width, ok := s.circuit.inputs[name]; ok {
			snap.Values[name] = s.lastEval.inputs[name] & mask(width)
		}
	}
	s.trace.Snapshots = append(s.trace.Snapshots, snap)
}
