package cpu

import "github.com/sarchlab/pipesim/hdl"

// forwardFromExecute returns the 1-bit condition for bypassing the
// register file: the in-flight execute-stage destination matches the
// source register and the source is not r0. Reads of r0 are
// hard-wired to 0, so r0 must never be forwarded.
func forwardFromExecute(src, xRd hdl.Bits) hdl.Bits {
	zero := hdl.NewBits(src.Width(), 0)
	return xRd.Eq(src).And(src.Ne(zero))
}
