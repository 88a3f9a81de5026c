package alu3

import "github.com/sarchlab/pipesim/hdl"

// ForwardSource indicates where an operand value should come from.
type ForwardSource int

const (
	// ForwardNone means no in-flight producer matches: use the
	// register-file value.
	ForwardNone ForwardSource = iota
	// ForwardFromStage1 means forward the ALU result still in the
	// execute stage.
	ForwardFromStage1
	// ForwardFromStage2 means forward the result latched in the
	// writeback stage.
	ForwardFromStage2
)

// detectForward determines the forwarding source for a source
// register. When both in-flight producers target the register, the
// most recently issued one (stage 1, closest to the consumer) wins.
func detectForward(src, cAddr1, cAddr2 hdl.Bits) ForwardSource {
	if src.Eq(cAddr1).Bool() {
		return ForwardFromStage1
	}
	if src.Eq(cAddr2).Bool() {
		return ForwardFromStage2
	}
	return ForwardNone
}

// selectOperand returns the operand value for a forwarding decision.
func selectOperand(fw ForwardSource, stage1, stage2, archValue hdl.Bits) hdl.Bits {
	switch fw {
	case ForwardFromStage1:
		return stage1
	case ForwardFromStage2:
		return stage2
	default:
		return archValue
	}
}
