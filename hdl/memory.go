package hdl

// ReadMode declares how a memory's read port is wired. All writes are
// synchronous (committed at the cycle boundary) regardless of mode, so
// reads in both modes observe start-of-cycle contents; the mode is
// retained as design metadata.
type ReadMode int

const (
	// Synchronous memories are read through a registered address.
	Synchronous ReadMode = iota
	// Asynchronous memories are read combinationally within the cycle.
	Asynchronous
)

// String returns the mode name.
func (m ReadMode) String() string {
	if m == Asynchronous {
		return "asynchronous"
	}
	return "synchronous"
}

type stagedWrite struct {
	value  Bits
	enable bool
}

// Memory is an addressable storage array with enabled synchronous
// writes. A staged write is applied at commit only when its enable
// signal was high that cycle. Addresses are bounded by the declared
// address width; unwritten cells read as zero.
type Memory struct {
	name      string
	addrWidth int
	dataWidth int
	mode      ReadMode

	cells  map[uint64]Bits
	staged map[uint64]stagedWrite
	init   map[uint64]uint64
}

// Name returns the memory's declared name.
func (m *Memory) Name() string { return m.name }

// AddrWidth returns the address width in bits.
func (m *Memory) AddrWidth() int { return m.addrWidth }

// DataWidth returns the data width in bits.
func (m *Memory) DataWidth() int { return m.dataWidth }

// Mode returns the declared read mode.
func (m *Memory) Mode() ReadMode { return m.mode }

// Read returns the value at addr as of the start of the cycle.
// The address must have the declared address width.
func (m *Memory) Read(addr Bits) Bits {
	if addr.Width() != m.addrWidth {
		panic(configErrorf("memory %q: address width %d, declared %d",
			m.name, addr.Width(), m.addrWidth))
	}
	if cell, ok := m.cells[addr.Uint64()]; ok {
		return cell
	}
	return NewBits(m.dataWidth, 0)
}

// StageWrite records a candidate write for this cycle. The write is
// applied at commit only when enable is non-zero. Two staged writes to
// the same address in one cycle are a configuration error.
func (m *Memory) StageWrite(addr, value, enable Bits) {
	if addr.Width() != m.addrWidth {
		panic(configErrorf("memory %q: write address width %d, declared %d",
			m.name, addr.Width(), m.addrWidth))
	}
	if value.Width() != m.dataWidth {
		panic(configErrorf("memory %q: write data width %d, declared %d",
			m.name, value.Width(), m.dataWidth))
	}
	if enable.Width() != 1 {
		panic(configErrorf("memory %q: write enable must be 1 bit, got %d",
			m.name, enable.Width()))
	}
	a := addr.Uint64()
	if _, ok := m.staged[a]; ok {
		panic(configErrorf("memory %q: two writes staged for address %#x in one cycle",
			m.name, a))
	}
	m.staged[a] = stagedWrite{value: value, enable: enable.Bool()}
}

// Contents returns a copy of the current cell values, keyed by address.
// Cells that were never written are absent.
func (m *Memory) Contents() map[uint64]uint64 {
	out := make(map[uint64]uint64, len(m.cells))
	for a, v := range m.cells {
		out[a] = v.Uint64()
	}
	return out
}

// commit applies all enabled staged writes and clears staged state.
func (m *Memory) commit() {
	for a, w := range m.staged {
		if w.enable {
			m.cells[a] = w.value
		}
	}
	clear(m.staged)
}

// clearStaged drops staged writes without applying them.
func (m *Memory) clearStaged() {
	clear(m.staged)
}

// reset restores the initial image and drops staged writes.
func (m *Memory) reset() {
	clear(m.cells)
	for a, v := range m.init {
		m.cells[a] = NewBits(m.dataWidth, v)
	}
	clear(m.staged)
}
