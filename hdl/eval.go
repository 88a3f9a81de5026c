package hdl

import "log/slog"

// Inputs maps external input names to their value for one cycle.
// Declared inputs that are absent default to 0.
type Inputs map[string]uint64

// Eval is the per-cycle evaluation context handed to a circuit's
// logic function. It provides the cycle's external inputs, records
// named wires for tracing and inspection, and counts enumerated-mux
// default fallbacks so unmapped control values stay observable.
type Eval struct {
	circuit   *Circuit
	inputs    Inputs
	wires     map[string]Bits
	wireOrder []string
	fallbacks uint64
	logger    *slog.Logger
}

func newEval(c *Circuit, in Inputs, logger *slog.Logger) *Eval {
	for name := range in {
		if _, ok := c.inputs[name]; !ok {
			panic(configErrorf("input %q not declared by circuit %q", name, c.name))
		}
	}
	return &Eval{
		circuit: c,
		inputs:  in,
		wires:   map[string]Bits{},
		logger:  logger,
	}
}

// In returns the value of a declared external input for this cycle.
// A value wider than the declared input width is a configuration
// error; an unsupplied input reads as 0.
func (c *Eval) In(name string) Bits {
	width, ok := c.circuit.inputs[name]
	if !ok {
		panic(configErrorf("input %q not declared by circuit %q",
			name, c.circuit.name))
	}
	v := c.inputs[name]
	if v > mask(width) {
		panic(configErrorf("input %q: value %#x exceeds %d-bit range",
			name, v, width))
	}
	return NewBits(width, v)
}

// Wire records a named derived value for this cycle and returns it.
// Wires never hold state across cycles. Recording the same name twice
// in one cycle indicates two drivers and is a configuration error.
func (c *Eval) Wire(name string, v Bits) Bits {
	if _, ok := c.wires[name]; ok {
		panic(configErrorf("wire %q driven twice in one cycle", name))
	}
	c.wires[name] = v
	c.wireOrder = append(c.wireOrder, name)
	return v
}

// EnumMux selects the case value matching sel, or def when sel is
// unmapped. Taking the default is never fatal, but it is counted in
// the cycle's trace snapshot and logged at debug level so unintended
// fallthrough is detectable. All case values and the default must
// share a width, and every case key must fit the selector width.
func (c *Eval) EnumMux(sel Bits, cases map[uint64]Bits, def Bits) Bits {
	for k, v := range cases {
		if k > mask(sel.Width()) {
			panic(configErrorf("enum mux: case %#x exceeds %d-bit selector",
				k, sel.Width()))
		}
		v.sameWidth(def, "enum mux")
	}
	if v, ok := cases[sel.Uint64()]; ok {
		return v
	}
	c.fallbacks++
	if c.logger != nil {
		c.logger.Debug("enum mux fell back to default",
			"circuit", c.circuit.name,
			"selector", sel.String())
	}
	return def
}

// Cases is a priority-ordered conditional value, mirroring hardware
// conditional assignment: the first arm whose condition is high wins.
type Cases struct {
	resolved bool
	value    Bits
	width    int
}

// When starts a priority chain with its highest-priority arm.
func When(cond Bits, v Bits) *Cases {
	s := &Cases{width: v.Width()}
	return s.When(cond, v)
}

// When appends a lower-priority arm. Conditions must be 1 bit wide and
// all arm values must share a width.
func (s *Cases) When(cond Bits, v Bits) *Cases {
	if cond.Width() != 1 {
		panic(configErrorf("conditional arm: condition must be 1 bit, got %d",
			cond.Width()))
	}
	if v.Width() != s.width {
		panic(configErrorf("conditional arm: value width %d, chain width %d",
			v.Width(), s.width))
	}
	if !s.resolved && cond.Bool() {
		s.resolved = true
		s.value = v
	}
	return s
}

// Else terminates the chain with a default arm and returns the
// selected value.
func (s *Cases) Else(v Bits) Bits {
	if v.Width() != s.width {
		panic(configErrorf("conditional default: value width %d, chain width %d",
			v.Width(), s.width))
	}
	if s.resolved {
		return s.value
	}
	return v
}

// Stage terminates the chain by staging the selected value into r.
// When no arm matched, nothing is staged and the register self-holds
// at commit, matching the "no branch taken means hold" convention.
func (s *Cases) Stage(r *Register) {
	if s.resolved {
		r.StageNext(s.value)
	}
}
