package bytecount

import (
	"strconv"
	"strings"

	"github.com/alecthomas/units"
	splstrategy "github.com/anjor/streamsplit/internal/strategy"
	"github.com/anjor/streamsplit/internal/util/argparser"
	"github.com/pkg/errors"
)

const sizeHelp = "SIZE is an integer with an optional unit: b (512), K, M, G, T (powers of\n" +
	"1024), or KB/MB/GB (powers of 1000) and KiB/MiB/GiB (powers of 1024)\n"

// NewStrategy splits on exact byte offsets, cutting lines where needed.
func NewStrategy(args []string) (splstrategy.Strategy, []error) {
	if args == nil {
		return nil, argparser.SubHelp(
			"Puts a fixed number of bytes into every output file, the last file may\n"+
				"hold fewer. Lines are cut at file boundaries. Requires a single\n"+
				"parameter: the size of each file (e.g. bytes_10M)\n"+sizeHelp,
			nil,
		)
	}
	return newByteCounter(args, false)
}

// NewLineBoundaryStrategy puts as many whole lines as fit into each file.
func NewLineBoundaryStrategy(args []string) (splstrategy.Strategy, []error) {
	if args == nil {
		return nil, argparser.SubHelp(
			"Puts at most SIZE bytes of whole lines into every output file. A line\n"+
				"longer than SIZE is written whole into a file of its own. Requires a\n"+
				"single parameter: the maximum size of each file (e.g. line-bytes_1M)\n"+sizeHelp,
			nil,
		)
	}
	return newByteCounter(args, true)
}

func newByteCounter(args []string, lineBoundary bool) (_ splstrategy.Strategy, initErrs []error) {

	if len(args) != 2 {
		initErrs = append(initErrs, errors.New("strategy requires a single size argument, the amount of bytes per output file"))
		return
	}

	size, err := ParseSize(strings.TrimPrefix(args[1], "--"))
	if err != nil {
		initErrs = append(initErrs, err)
		return
	}

	return &byteCounter{
		size:         size,
		remaining:    size,
		lineBoundary: lineBoundary,
	}, nil
}

var unitMultipliers = map[string]int64{
	"b": 512,
	"k": 1 << 10,
	"K": 1 << 10,
	"m": 1 << 20,
	"M": 1 << 20,
	"g": 1 << 30,
	"G": 1 << 30,
	"T": 1 << 40,
}

// ParseSize parses a positive byte amount with an optional unit suffix.
func ParseSize(s string) (int64, error) {
	numEnd := 0
	for numEnd < len(s) && s[numEnd] >= '0' && s[numEnd] <= '9' {
		numEnd++
	}
	if numEnd == 0 {
		return 0, errors.Errorf("invalid size '%s': must start with a number", s)
	}

	var size int64
	unit := s[numEnd:]

	if mult, known := unitMultipliers[unit]; known || unit == "" {
		n, err := strconv.ParseInt(s[:numEnd], 10, 64)
		if err != nil {
			return 0, errors.Errorf("invalid size '%s': %s", s, err)
		}
		if unit == "" {
			mult = 1
		}
		if n > (1<<63-1)/mult {
			return 0, errors.Errorf("size '%s' is too large", s)
		}
		size = n * mult
	} else if len(unit) == 1 {
		return 0, errors.Errorf("invalid size '%s': unsupported unit '%s'", s, unit)
	} else {
		n, err := units.ParseStrictBytes(s)
		if err != nil {
			return 0, errors.Errorf("invalid size '%s': unsupported unit '%s'", s, unit)
		}
		size = n
	}

	if size < 1 {
		return 0, errors.Errorf("size must be positive, got '%s'", s)
	}
	return size, nil
}
