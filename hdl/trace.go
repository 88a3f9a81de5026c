package hdl

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Snapshot is the recorded state of the traced signals after one
// cycle's commit.
type Snapshot struct {
	// Cycle is the index of the committed cycle, starting at 0.
	Cycle int
	// Values maps signal name to its value. Registers carry their
	// post-commit value; wires and inputs carry the value they took
	// during the cycle.
	Values map[string]uint64
	// Fallbacks is the number of enumerated-mux default selections
	// taken during the cycle.
	Fallbacks uint64
}

// Trace is an ordered sequence of per-cycle snapshots of a configured
// signal set, suitable for rendering as a waveform or table.
type Trace struct {
	// Signals lists the traced signal names in display order.
	Signals []string
	// Snapshots holds one entry per committed cycle.
	Snapshots []Snapshot
}

// Len returns the number of recorded cycles.
func (t *Trace) Len() int { return len(t.Snapshots) }

// Signal returns the per-cycle values of one signal.
func (t *Trace) Signal(name string) []uint64 {
	out := make([]uint64, len(t.Snapshots))
	for i, snap := range t.Snapshots {
		out[i] = snap.Values[name]
	}
	return out
}

// RenderTable writes the trace as a table with one row per signal and
// one column per cycle.
func (t *Trace) RenderTable(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	header := table.Row{"signal"}
	for _, snap := range t.Snapshots {
		header = append(header, snap.Cycle)
	}
	tw.AppendHeader(header)

	for _, name := range t.Signals {
		row := table.Row{name}
		for _, snap := range t.Snapshots {
			row = append(row, fmt.Sprintf("%#x", snap.Values[name]))
		}
		tw.AppendRow(row)
	}
	tw.Render()
}
