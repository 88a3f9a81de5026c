// Package hdl implements a cycle-accurate simulation engine for small
// synchronous datapaths. A circuit is declared as a set of registers,
// memories, and external inputs plus one combinational logic function.
// Each simulated cycle evaluates the logic against the frozen
// start-of-cycle state, then commits all staged register and memory
// updates atomically.
package hdl

import "fmt"

// Bits is a fixed-width unsigned value between 1 and 64 bits wide.
// It has immutable value semantics: every operation returns a new Bits
// and every result is truncated to its declared width.
type Bits struct {
	width int
	value uint64
}

// mask returns the bit mask covering width bits.
func mask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

// NewBits creates a Bits of the given width. The value is truncated to
// the width. Widths outside 1..64 are a configuration error.
func NewBits(width int, value uint64) Bits {
	if width < 1 || width > 64 {
		panic(configErrorf("bit width %d out of range 1..64", width))
	}
	return Bits{width: width, value: value & mask(width)}
}

// Width returns the declared width in bits.
func (b Bits) Width() int { return b.width }

// Uint64 returns the value as an unsigned integer.
func (b Bits) Uint64() uint64 { return b.value }

// Bool reports whether the value is non-zero.
func (b Bits) Bool() bool { return b.value != 0 }

// String formats the value as width'h<hex>.
func (b Bits) String() string {
	return fmt.Sprintf("%d'h%x", b.width, b.value)
}

// sameWidth panics with a configuration error when the operand widths
// differ. Operands must be explicitly extended before mixing widths.
func (b Bits) sameWidth(o Bits, op string) {
	if b.width != o.width {
		panic(configErrorf("%s: operand widths differ (%d vs %d)",
			op, b.width, o.width))
	}
}

// Add returns b + o truncated to the operand width.
func (b Bits) Add(o Bits) Bits {
	b.sameWidth(o, "add")
	return NewBits(b.width, b.value+o.value)
}

// Sub returns b - o truncated to the operand width.
func (b Bits) Sub(o Bits) Bits {
	b.sameWidth(o, "sub")
	return NewBits(b.width, b.value-o.value)
}

// And returns the bitwise AND of b and o.
func (b Bits) And(o Bits) Bits {
	b.sameWidth(o, "and")
	return NewBits(b.width, b.value&o.value)
}

// Or returns the bitwise OR of b and o.
func (b Bits) Or(o Bits) Bits {
	b.sameWidth(o, "or")
	return NewBits(b.width, b.value|o.value)
}

// Xor returns the bitwise XOR of b and o.
func (b Bits) Xor(o Bits) Bits {
	b.sameWidth(o, "xor")
	return NewBits(b.width, b.value^o.value)
}

// Not returns the bitwise complement of b.
func (b Bits) Not() Bits {
	return NewBits(b.width, ^b.value)
}

// Eq returns a 1-bit value that is 1 when b equals o.
func (b Bits) Eq(o Bits) Bits {
	b.sameWidth(o, "eq")
	if b.value == o.value {
		return NewBits(1, 1)
	}
	return NewBits(1, 0)
}

// Ne returns a 1-bit value that is 1 when b differs from o.
func (b Bits) Ne(o Bits) Bits {
	return b.Eq(o).Not()
}

// Slice returns bits [lo, hi) as a new Bits of width hi-lo.
func (b Bits) Slice(lo, hi int) Bits {
	if lo < 0 || hi > b.width || lo >= hi {
		panic(configErrorf("slice [%d:%d) out of range for width %d",
			lo, hi, b.width))
	}
	return NewBits(hi-lo, b.value>>uint(lo))
}

// ZeroExtend widens b to the given width, filling the high bits with 0.
func (b Bits) ZeroExtend(width int) Bits {
	if width < b.width {
		panic(configErrorf("zero-extend to %d narrows width %d",
			width, b.width))
	}
	return NewBits(width, b.value)
}

// SignExtend widens b to the given width, replicating the most
// significant bit into the added high bits.
func (b Bits) SignExtend(width int) Bits {
	if width < b.width {
		panic(configErrorf("sign-extend to %d narrows width %d",
			width, b.width))
	}
	v := b.value
	if v&(uint64(1)<<uint(b.width-1)) != 0 {
		v |= ^mask(b.width)
	}
	return NewBits(width, v)
}

// Mux returns onSet when sel is non-zero and onClear otherwise.
// sel must be 1 bit wide; the two arms must share a width.
func Mux(sel Bits, onSet, onClear Bits) Bits {
	if sel.width != 1 {
		panic(configErrorf("mux select must be 1 bit, got %d", sel.width))
	}
	onSet.sameWidth(onClear, "mux")
	if sel.Bool() {
		return onSet
	}
	return onClear
}
