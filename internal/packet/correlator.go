package packet

import (
	"fmt"
	"math/bits"
)

// AccessCodeCorrelator detects frame synchronization by sliding every new
// symbol into a window of the configured access-code length and comparing the
// window against the target bit pattern by Hamming distance. The window keeps
// sliding after a match, so overlapping and adjacent matches stay possible.
type AccessCodeCorrelator struct {
	code      uint64
	mask      uint64
	history   uint64
	tolerance int
}

// Configure sets the target pattern. The length must be 1..64 bits and the
// tolerance must not exceed the length. The code's least significant `length`
// bits are used, most recent symbol in bit 0.
func (c *AccessCodeCorrelator) Configure(code uint64, length, tolerance int) error {
	if length < 1 || length > 64 {
		return fmt.Errorf("packet: access code length must be 1..64, got %d", length)
	}
	if tolerance < 0 || tolerance > length {
		return fmt.Errorf("packet: access code tolerance %d out of range for length %d", tolerance, length)
	}

	c.mask = ^uint64(0) >> (64 - uint(length))
	c.code = code & c.mask
	c.tolerance = tolerance
	c.history = 0
	return nil
}

// Execute shifts one symbol into the window and reports whether the window
// now matches the access code within the configured tolerance. It never
// declares a match before Configure has been called.
func (c *AccessCodeCorrelator) Execute(symbol byte) bool {
	if c.mask == 0 {
		return false
	}
	c.history = ((c.history << 1) | uint64(symbol&1)) & c.mask
	return bits.OnesCount64(c.history^c.code) <= c.tolerance
}
