package hdl

// Register is a clocked storage element. During a cycle it exposes the
// value latched at the previous cycle boundary; combinational logic
// stages at most one candidate next value, which the scheduler commits
// atomically with every other storage element at the end of the cycle.
type Register struct {
	name  string
	width int
	init  uint64

	current    Bits
	pending    Bits
	hasPending bool
}

// Name returns the register's declared name.
func (r *Register) Name() string { return r.name }

// Width returns the register's width in bits.
func (r *Register) Width() int { return r.width }

// Value returns the current (start-of-cycle) value.
func (r *Register) Value() Bits { return r.current }

// StageNext records the candidate next value for this cycle. Staging a
// second value before commit indicates two combinational drivers for
// one register, which is a configuration error in this single-driver
// model. A width mismatch is likewise a configuration error.
func (r *Register) StageNext(v Bits) {
	if v.Width() != r.width {
		panic(configErrorf("register %q: staged width %d, declared %d",
			r.name, v.Width(), r.width))
	}
	if r.hasPending {
		panic(configErrorf("register %q: two drivers staged a next value in one cycle",
			r.name))
	}
	r.pending = v
	r.hasPending = true
}

// commit latches the pending value. An undriven register self-holds
// unless strict-drive mode is on, in which case it is reported as a
// configuration error so ambiguous designs are flagged, not guessed.
func (r *Register) commit(strict bool) {
	if !r.hasPending {
		if strict {
			panic(configErrorf("register %q: no next value staged this cycle",
				r.name))
		}
		return
	}
	r.current = r.pending
	r.hasPending = false
}

// clearStaged drops any staged value without committing it.
func (r *Register) clearStaged() {
	r.hasPending = false
}

// reset restores the initial value and drops staged state.
func (r *Register) reset() {
	r.current = NewBits(r.width, r.init)
	r.hasPending = false
}
