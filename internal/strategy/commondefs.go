package splstrategy

import (
	"github.com/anjor/streamsplit/internal/constants"
)

// Control is the state shared between the drive loop and the active
// strategy during a single step.
type Control struct {
	_ constants.Incomparabe

	// Unconsumed remainder of the current input line, terminator included.
	// Empty means a new line must be read.
	Line string

	// Set by the strategy to have a new output file opened before the next
	// fragment is written.
	NewFile bool
}

type Initializer func(
	strategyCLISubArgs []string,
) (
	instance Strategy,
	initErrors []error,
)

type Strategy interface {
	// Consume returns the prefix of ctl.Line to be written to the current
	// output file. An empty fragment is only returned together with a
	// rotation request.
	Consume(ctl *Control) (fragment string)
}
