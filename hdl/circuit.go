package hdl

import "fmt"

// LogicFunc is the combinational network of a circuit. It is called
// once per cycle with a fresh evaluation context. It must be a pure
// function of the start-of-cycle register/memory state and the
// cycle's external inputs: its only outputs are staged register next
// values, staged memory writes, and named wires.
type LogicFunc func(c *Eval)

// Builder declares the storage elements and inputs of a circuit and
// attaches its combinational logic. Declaration errors are collected
// and reported by Build, so construction aborts before any cycle runs.
type Builder struct {
	name   string
	regs   []*Register
	mems   []*Memory
	inputs map[string]int
	names  map[string]string // name -> element kind, for duplicate checks
	logic  LogicFunc
	errs   []error
}

// NewBuilder creates a circuit builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:   name,
		inputs: map[string]int{},
		names:  map[string]string{},
	}
}

func (b *Builder) claimName(name, kind string) bool {
	if prev, ok := b.names[name]; ok {
		b.errs = append(b.errs,
			configErrorf("name %q already declared as %s", name, prev))
		return false
	}
	b.names[name] = kind
	return true
}

// Register declares a clocked register with an initial value
// (truncated to the width). The returned handle is captured by the
// logic function.
func (b *Builder) Register(name string, width int, init uint64) *Register {
	r := &Register{name: name, width: width, init: init}
	if width < 1 || width > 64 {
		b.errs = append(b.errs,
			configErrorf("register %q: width %d out of range 1..64", name, width))
		r.width = 1
	}
	r.init &= mask(r.width)
	r.current = NewBits(r.width, r.init)
	if b.claimName(name, "register") {
		b.regs = append(b.regs, r)
	}
	return r
}

// Memory declares an addressable memory with an initial image mapping
// addresses to values. Initial addresses must fit the address width.
func (b *Builder) Memory(
	name string,
	addrWidth, dataWidth int,
	mode ReadMode,
	init map[uint64]uint64,
) *Memory {
	m := &Memory{
		name:      name,
		addrWidth: addrWidth,
		dataWidth: dataWidth,
		mode:      mode,
		cells:     map[uint64]Bits{},
		staged:    map[uint64]stagedWrite{},
		init:      map[uint64]uint64{},
	}
	if addrWidth < 1 || addrWidth > 64 {
		b.errs = append(b.errs,
			configErrorf("memory %q: address width %d out of range 1..64",
				name, addrWidth))
		m.addrWidth = 1
	}
	if dataWidth < 1 || dataWidth > 64 {
		b.errs = append(b.errs,
			configErrorf("memory %q: data width %d out of range 1..64",
				name, dataWidth))
		m.dataWidth = 1
	}
	for a, v := range init {
		if a > mask(m.addrWidth) {
			b.errs = append(b.errs,
				configErrorf("memory %q: initial address %#x exceeds %d-bit range",
					name, a, m.addrWidth))
			continue
		}
		m.init[a] = v & mask(m.dataWidth)
		m.cells[a] = NewBits(m.dataWidth, m.init[a])
	}
	if b.claimName(name, "memory") {
		b.mems = append(b.mems, m)
	}
	return m
}

// Input declares an external input read by the logic function through
// Eval.In. An input not supplied for a cycle defaults to 0.
func (b *Builder) Input(name string, width int) {
	if width < 1 || width > 64 {
		b.errs = append(b.errs,
			configErrorf("input %q: width %d out of range 1..64", name, width))
		return
	}
	if b.claimName(name, "input") {
		b.inputs[name] = width
	}
}

// Logic attaches the combinational network.
func (b *Builder) Logic(fn LogicFunc) {
	b.logic = fn
}

// Build validates the declaration and returns the circuit. Validation
// includes one throwaway evaluation of the logic with all inputs at
// zero, so structural errors (width mismatches, double drivers on the
// zero-input path) abort construction before the first cycle.
func (b *Builder) Build() (*Circuit, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if b.logic == nil {
		return nil, configErrorf("circuit %q: no logic function attached", b.name)
	}

	c := &Circuit{
		name:   b.name,
		regs:   b.regs,
		mems:   b.mems,
		inputs: b.inputs,
		logic:  b.logic,
	}
	if err := c.dryRun(); err != nil {
		return nil, fmt.Errorf("circuit %q: %w", b.name, err)
	}
	return c, nil
}

// Circuit is an immutable declaration of a synchronous datapath: its
// registers, memories, external inputs, and combinational logic. The
// authoritative state lives in the storage elements and is mutated
// only by a Simulation's commit phase.
type Circuit struct {
	name   string
	regs   []*Register
	mems   []*Memory
	inputs map[string]int
	logic  LogicFunc
}

// Name returns the circuit name.
func (c *Circuit) Name() string { return c.name }

// Register looks up a declared register by name.
func (c *Circuit) Register(name string) (*Register, bool) {
	for _, r := range c.regs {
		if r.name == name {
			return r, true
		}
	}
	return nil, false
}

// Memory looks up a declared memory by name.
func (c *Circuit) Memory(name string) (*Memory, bool) {
	for _, m := range c.mems {
		if m.name == name {
			return m, true
		}
	}
	return nil, false
}

// dryRun evaluates the logic once with zero inputs and discards all
// staged state, converting engine panics into a returned error.
func (c *Circuit) dryRun() (err error) {
	defer func() {
		for _, r := range c.regs {
			r.clearStaged()
		}
		for _, m := range c.mems {
			m.clearStaged()
		}
	}()
	defer recoverEngineError(&err)

	ev := newEval(c, Inputs{}, nil)
	c.logic(ev)
	return nil
}
