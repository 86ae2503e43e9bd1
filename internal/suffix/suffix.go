// Package suffix generates the per-file name suffixes: zero-padded decimal,
// base-26 letters, or a user supplied printf format.
package suffix

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrOutOfRange is returned when an index can not be represented in the
// requested width.
var ErrOutOfRange = errors.New("suffix index out of range")

// Func maps an output file index to its suffix.
type Func func(index int) (string, error)

const (
	decimalDigits = "0123456789"
	letterDigits  = "abcdefghijklmnopqrstuvwxyz"
)

// Numeric renders index as exactly width decimal digits.
func Numeric(index, width int) (string, error) {
	return render(index, width, decimalDigits)
}

// Alphabetic renders index as exactly width letters, 'a' being the zero digit.
func Alphabetic(index, width int) (string, error) {
	return render(index, width, letterDigits)
}

func NumericFunc(width int) Func {
	return func(index int) (string, error) { return Numeric(index, width) }
}

func AlphabeticFunc(width int) Func {
	return func(index int) (string, error) { return Alphabetic(index, width) }
}

func render(index, width int, digits string) (string, error) {
	if width < 1 {
		return "", errors.Wrapf(ErrOutOfRange, "invalid suffix width %d", width)
	}
	if index < 0 {
		return "", errors.Wrapf(ErrOutOfRange, "negative index %d", index)
	}

	base := len(digits)
	out := make([]byte, width)
	rest := index
	for i := width - 1; i >= 0; i-- {
		out[i] = digits[rest%base]
		rest /= base
	}

	if rest != 0 {
		return "", errors.Wrapf(ErrOutOfRange,
			"index %d does not fit into %d base-%d digits",
			index, width, base,
		)
	}

	return string(out), nil
}

// FromFormat builds a Func from a printf-style format holding exactly one
// integer conversion (d, i, u, x, X or o, with optional flags and width).
// A literal percent sign is written as %%.
func FromFormat(format string) (Func, error) {

	var goFormat strings.Builder
	var conversions int

	for i := 0; i < len(format); i++ {
		c := format[i]
		goFormat.WriteByte(c)
		if c != '%' {
			continue
		}

		if i+1 < len(format) && format[i+1] == '%' {
			goFormat.WriteByte('%')
			i++
			continue
		}

		j := i + 1
		for j < len(format) && strings.IndexByte("-+ #0", format[j]) >= 0 {
			j++
		}
		for j < len(format) && format[j] >= '0' && format[j] <= '9' {
			j++
		}
		if j >= len(format) {
			return nil, errors.Errorf("suffix format '%s' ends with an incomplete conversion", format)
		}

		verb := format[j]
		switch verb {
		case 'i', 'u':
			verb = 'd'
		case 'd', 'x', 'X', 'o':
		default:
			return nil, errors.Errorf("suffix format '%s' contains unsupported conversion '%%%c'", format, format[j])
		}

		goFormat.WriteString(format[i+1 : j])
		goFormat.WriteByte(verb)
		conversions++
		i = j
	}

	if conversions != 1 {
		return nil, errors.Errorf(
			"suffix format '%s' must contain exactly one integer conversion such as %%02d, found %d",
			format, conversions,
		)
	}

	f := goFormat.String()
	return func(index int) (string, error) {
		if index < 0 {
			return "", errors.Wrapf(ErrOutOfRange, "negative index %d", index)
		}
		return fmt.Sprintf(f, index), nil
	}, nil
}
