package rfc9111

import (
	"errors"
	"strconv"
	"time"
)

// §  1.2.2. Delta Seconds
// §
// §  The delta-seconds rule specifies a non-negative integer, representing time
// §  in seconds.
// §
// §      delta-seconds  = 1*DIGIT
// §
// §  A recipient parsing a delta-seconds value and converting it to binary form
// §  ought to use an arithmetic type of at least 31 bits of non-negative integer
// §  range. If a cache receives a delta-seconds value greater than the greatest
// §  integer it can represent, or if any of its subsequent calculations overflows,
// §  the cache MUST consider the value to be 2147483648 (2^31) or the greatest
// §  positive integer it can conveniently represent.

const maxDeltaSeconds = 2147483648

// ParseDeltaSeconds converts a delta-seconds string to a duration,
// clamping overflow per the RFC. The boolean is false when the string
// is not a non-negative integer at all.
func ParseDeltaSeconds(secondsStr string) (time.Duration, bool) {
	seconds, err := strconv.ParseUint(secondsStr, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		// §  [...] an overflow be detected and not treated as a negative
		// §  value in later calculations.
		return time.Second * maxDeltaSeconds, true
	}
	if err != nil {
		return 0, false
	}
	if seconds > maxDeltaSeconds {
		seconds = maxDeltaSeconds
	}
	return time.Second * time.Duration(seconds), true
}
