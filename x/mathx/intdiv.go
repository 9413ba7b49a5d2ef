package mathx

import "golang.org/x/exp/constraints"

// FloorDiv returns floor(a/b) for b > 0, rounding towards negative infinity
// (Go's / truncates towards zero). b == 0 yields 0.
func FloorDiv[T constraints.Signed](a, b T) T {
	if b == 0 {
		return 0
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
