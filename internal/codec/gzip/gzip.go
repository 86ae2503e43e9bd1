package gzip

import (
	"io"

	splcodec "github.com/anjor/streamsplit/internal/codec"
	"github.com/anjor/streamsplit/internal/util/argparser"
	"github.com/klauspost/compress/gzip"
	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
	"github.com/pkg/errors"
)

type config struct {
	Level int `getopt:"--level=int  Compression level, 1 (fastest) to 9 (smallest). Default:"`
}

type codec struct {
	config
}

func NewCodec(args []string) (_ splcodec.Codec, initErrs []error) {

	c := &codec{config{Level: gzip.DefaultCompression}}

	optSet := getopt.New()
	if err := options.RegisterSet("", &c.config, optSet); err != nil {
		initErrs = []error{errors.Errorf("option set registration failed: %s", err)}
		return
	}

	// on nil-args the "error" is the help text to be incorporated into
	// the larger help display
	if args == nil {
		initErrs = argparser.SubHelp(
			"Compresses every output file with gzip, appending '.gz' to its name.",
			optSet,
		)
		return
	}

	// bail early if getopt fails
	if initErrs = argparser.Parse(args, optSet); len(initErrs) > 0 {
		return
	}

	if c.Level != gzip.DefaultCompression && (c.Level < gzip.BestSpeed || c.Level > gzip.BestCompression) {
		initErrs = append(initErrs, errors.Errorf(
			"level '%d' out of range [%d:%d]",
			c.Level, gzip.BestSpeed, gzip.BestCompression,
		))
	}

	return c, initErrs
}

func (*codec) Extension() string { return ".gz" }

func (c *codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	// the header carries no name or timestamp: identical input, identical file
	return gzip.NewWriterLevel(w, c.Level)
}
