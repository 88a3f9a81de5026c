// Package akitabridge exposes an hdl.Simulation as an Akita ticking
// component, so a synchronous datapath can advance one cycle per
// engine tick alongside other Akita components in the same
// event-driven simulation.
package akitabridge

import (
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesim/hdl"
)

// Component ticks a datapath simulation inside an Akita engine. Each
// engine tick runs exactly one datapath cycle; the component stops
// making progress when its cycle budget is exhausted or a step fails.
type Component struct {
	*sim.TickingComponent

	datapath *hdl.Simulation
	inputFn  func(cycle int) hdl.Inputs
	budget   int
	logger   *slog.Logger
	err      error
}

// Tick runs one datapath cycle.
func (c *Component) Tick() (madeProgress bool) {
	if c.err != nil {
		return false
	}
	if c.budget > 0 && c.datapath.Cycle() >= c.budget {
		return false
	}

	var in hdl.Inputs
	if c.inputFn != nil {
		in = c.inputFn(c.datapath.Cycle())
	}
	if err := c.datapath.Step(in); err != nil {
		c.err = err
		if c.logger != nil {
			c.logger.Error("datapath step failed",
				"component", c.Name(),
				"cycle", c.datapath.Cycle(),
				"err", err)
		}
		return false
	}

	return true
}

// Start schedules the first tick.
func (c *Component) Start() {
	c.TickNow()
}

// Err returns the error of the first failed step, if any.
func (c *Component) Err() error {
	return c.err
}

// Datapath returns the wrapped simulation for inspection.
func (c *Component) Datapath() *hdl.Simulation {
	return c.datapath
}

// Builder creates bridge components.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	datapath *hdl.Simulation
	inputFn  func(cycle int) hdl.Inputs
	budget   int
	logger   *slog.Logger
}

// WithEngine sets the Akita engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the tick frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithDatapath sets the datapath simulation to drive.
func (b Builder) WithDatapath(datapath *hdl.Simulation) Builder {
	b.datapath = datapath
	return b
}

// WithInputs sets the per-cycle external input source.
func (b Builder) WithInputs(inputFn func(cycle int) hdl.Inputs) Builder {
	b.inputFn = inputFn
	return b
}

// WithCycleBudget limits how many datapath cycles the component runs.
// Zero means unlimited.
func (b Builder) WithCycleBudget(budget int) Builder {
	b.budget = budget
	return b
}

// WithLogger sets a structured logger for step failures.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates the component.
func (b Builder) Build(name string) *Component {
	if b.datapath == nil {
		panic("akitabridge: a datapath is required")
	}

	c := &Component{
		datapath: b.datapath,
		inputFn:  b.inputFn,
		budget:   b.budget,
		logger:   b.logger,
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	return c
}
