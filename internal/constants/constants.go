package constants

import (
	"os"
	"strconv"
)

const (
	// Sizing unit of the input ring buffer
	MaxRegionPayload = 256 * 1024

	// Every region handed to the line reader holds at least this much
	// unless the stream ends first. It is also the largest tail copied
	// back to the buffer start.
	LineRegionSize = 2 * MaxRegionPayload

	// Ring buffer defaults: two full regions plus one minimal read is the
	// smallest buffer the line reader accepts, in units of 64KiB sectors
	DefaultRingBufferSectSize = 64 * 1024
	DefaultRingBufferMinRead  = 256 * 1024
	DefaultRingBufferSize     = 2*LineRegionSize + DefaultRingBufferMinRead

	DefaultPrefix      = "xx"
	DefaultSuffixWidth = 2
	DefaultStrategy    = "lines_1000"
)

type Incomparabe [0]func()

var LongTests bool
var VeryLongTests bool

func init() {
	VeryLongTests = isTruthy("TEST_STREAMSPLIT_VERY_LONG")
	LongTests = VeryLongTests || isTruthy("TEST_STREAMSPLIT_LONG")
}

func isTruthy(varname string) bool {
	envStr := os.Getenv(varname)
	if envStr != "" {
		if num, err := strconv.ParseUint(envStr, 10, 64); err != nil || num != 0 {
			return true
		}
	}
	return false
}

var PerformSanityChecks = true
