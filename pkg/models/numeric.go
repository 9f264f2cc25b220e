package models

import (
	"math/big"
	"strconv"
)

// NumericMode selects how stat numerics are represented for one traversal.
// The mode is fixed at the query root and carried through the whole result
// tree; entries from different modes must never be mixed in one tree.
type NumericMode int

const (
	// NumberMode stores values as int64.
	NumberMode NumericMode = iota
	// BigIntMode stores values as arbitrary-precision integers.
	BigIntMode
)

// Numeric is a stat value in either number or bigint representation.
// The zero value is a NumberMode zero.
type Numeric struct {
	mode NumericMode
	i64  int64
	big  *big.Int
}

// NewNumeric wraps v in the given representation mode.
func NewNumeric(v int64, mode NumericMode) Numeric {
	if mode == BigIntMode {
		return Numeric{mode: BigIntMode, big: big.NewInt(v)}
	}
	return Numeric{mode: NumberMode, i64: v}
}

// Mode returns the representation mode.
func (n Numeric) Mode() NumericMode { return n.mode }

// Int64 returns the value as int64 regardless of mode.
func (n Numeric) Int64() int64 {
	if n.mode == BigIntMode {
		if n.big == nil {
			return 0
		}
		return n.big.Int64()
	}
	return n.i64
}

// Big returns the value as *big.Int regardless of mode. The result is a
// copy; mutating it does not affect the Numeric.
func (n Numeric) Big() *big.Int {
	if n.mode == BigIntMode && n.big != nil {
		return new(big.Int).Set(n.big)
	}
	return big.NewInt(n.i64)
}

// Cmp compares the value against v, returning -1, 0 or +1.
func (n Numeric) Cmp(v int64) int {
	if n.mode == BigIntMode && n.big != nil {
		return n.big.Cmp(big.NewInt(v))
	}
	switch {
	case n.i64 < v:
		return -1
	case n.i64 > v:
		return 1
	}
	return 0
}

// String renders the value in decimal.
func (n Numeric) String() string {
	if n.mode == BigIntMode && n.big != nil {
		return n.big.String()
	}
	return strconv.FormatInt(n.i64, 10)
}
