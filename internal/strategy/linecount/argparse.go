package linecount

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

	// on nil-args the "error" is the help text to be incorporated into
	// the larger help display
	if args == nil {
		initErrs = argparser.SubHelp(
			"Puts a fixed number of lines into every output file, the last file may\n"+
				"hold fewer. Requires a single parameter: the amount of lines per file\n"+
				"(e.g. lines_1000)\n",
			nil,
		)
		return
	}

	if len(args) != 2 {
		initErrs = append(initErrs, errors.New("strategy requires an integer argument, the amount of lines per output file"))
		return
	}

	countArg := strings.TrimPrefix(args[1], "--")
	count, err := strconv.ParseInt(countArg, 10, 64)
	if err != nil {
		initErrs = append(initErrs, errors.Errorf("invalid number of lines '%s'", countArg))
		return
	} else if count < 1 {
		initErrs = append(initErrs, errors.Errorf("number of lines must be positive, got '%d'", count))
		return
	}

	return &lineCounter{
		lines:     count,
		remaining: count,
	}, nil
}
