package breakpoints

import (
	"strconv"
	"strings"

	splstrategy "github.com/anjor/streamsplit/internal/strategy"
	"github.com/anjor/streamsplit/internal/util/argparser"
	"github.com/pkg/errors"
)

func NewStrategy(
	args []string,
) (
	_ splstrategy.Strategy,
	initErrs []error,
) {

	if args == nil {
		initErrs = argparser.SubHelp(
			"Starts a new output file at each of the given 1-based line numbers: the\n"+
				"file before a breakpoint N receives lines up to N-1, line N opens the\n"+
				"next file. Requires one or more strictly increasing line numbers\n"+
				"(e.g. breakpoints_5_12). Also selected by passing line numbers after\n"+
				"the input path.\n",
			nil,
		)
		return
	}

	if len(args) < 2 {
		initErrs = append(initErrs, errors.New("strategy requires at least one line number"))
		return
	}

	points := make([]int64, 0, len(args)-1)
	for _, a := range args[1:] {
		a = strings.TrimPrefix(a, "--")

		n, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			if _, isNum := err.(*strconv.NumError); isNum && strings.Trim(a, "0123456789+-") != "" {
				initErrs = append(initErrs, errors.Errorf(
					"breakpoint '%s' is not a line number (regular expression patterns are not supported)", a,
				))
			} else {
				initErrs = append(initErrs, errors.Errorf("invalid breakpoint '%s': %s", a, err))
			}
			continue
		}

		if n < 1 {
			initErrs = append(initErrs, errors.Errorf("breakpoint '%d' must be a positive line number", n))
		} else if len(points) > 0 && n <= points[len(points)-1] {
			initErrs = append(initErrs, errors.Errorf(
				"breakpoint '%d' does not follow preceding breakpoint '%d': line numbers must be strictly increasing",
				n, points[len(points)-1],
			))
		}
		points = append(points, n)
	}

	if len(initErrs) > 0 {
		return
	}

	return newSplitter(points), nil
}
