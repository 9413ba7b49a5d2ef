package conv

// PadUint writes the base-10 digits of n right-aligned into buf, filling
// the remaining leading bytes with '0'. Digits that do not fit are dropped
// from the left. No allocations; no fmt/strconv dependency.
func PadUint(buf []byte, n uint64) []byte {
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	return buf
}
