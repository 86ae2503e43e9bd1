package stream

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY reports whether the supplied reader/writer is an interactive terminal.
func IsTTY(f interface{}) bool {
	if fh, isFh := f.(*os.File); isFh {
		fd := fh.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return false
}

// An Optimization is a best-effort hint applied to a file before it is
// streamed. Action returns os.ErrInvalid when the hint does not apply to the
// given file type.
type Optimization struct {
	Name   string
	Action func(f *os.File, s os.FileInfo) error
}
