package stats

import (
	"math"
	"strconv"
)

// Value is a statistic that is either undefined or holds a finite number.
// The zero Value is undefined.
type Value struct {
	v  float64
	ok bool
}

// Defined wraps a number. NaN and ±Inf yield an undefined Value so no
// non-finite number ever leaks into a record.
func Defined(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Undefined returns the undefined Value
func Undefined() Value { return Value{} }

// Get returns the number and whether it is defined
func (x Value) Get() (float64, bool) { return x.v, x.ok }

// IsDefined reports whether the value holds a number
func (x Value) IsDefined() bool { return x.ok }

// Float returns the number, or NaN when undefined
func (x Value) Float() float64 {
	if !x.ok {
		return math.NaN()
	}
	return x.v
}

// Format renders the value with strconv 'g' formatting, or marker when undefined
func (x Value) Format(marker string) string {
	if !x.ok {
		return marker
	}
	return strconv.FormatFloat(x.v, 'g', -1, 64)
}

// Count is a sample count that may be undefined. The zero Count is undefined.
type Count struct {
	n  int
	ok bool
}

// CountOf wraps a defined count
func CountOf(n int) Count { return Count{n: n, ok: true} }

// Get returns the count and whether it is defined
func (c Count) Get() (int, bool) { return c.n, c.ok }

// IsDefined reports whether the count was recorded
func (c Count) IsDefined() bool { return c.ok }

// Format renders the count, or marker when undefined
func (c Count) Format(marker string) string {
	if !c.ok {
		return marker
	}
	return strconv.Itoa(c.n)
}
