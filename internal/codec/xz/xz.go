package xz

import (
	"io"

	splcodec "github.com/anjor/streamsplit/internal/codec"
	"github.com/anjor/streamsplit/internal/util/argparser"
	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

type config struct {
	DictCap int `getopt:"--dict-size=bytes  LZMA2 dictionary size. Default:"`
}

type codec struct {
	config
	writerConfig xz.WriterConfig
}

func NewCodec(args []string) (_ splcodec.Codec, initErrs []error) {

	c := &codec{config: config{DictCap: 8 * 1024 * 1024}}

	optSet := getopt.New()
	if err := options.RegisterSet("", &c.config, optSet); err != nil {
		initErrs = []error{errors.Errorf("option set registration failed: %s", err)}
		return
	}

	if args == nil {
		initErrs = argparser.SubHelp(
			"Compresses every output file with xz, appending '.xz' to its name.",
			optSet,
		)
		return
	}

	if initErrs = argparser.Parse(args, optSet); len(initErrs) > 0 {
		return
	}

	c.writerConfig = xz.WriterConfig{DictCap: c.DictCap}
	if err := c.writerConfig.Verify(); err != nil {
		initErrs = append(initErrs, errors.Errorf("invalid dict-size '%d': %s", c.DictCap, err))
	}

	return c, initErrs
}

func (*codec) Extension() string { return ".xz" }

func (c *codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return c.writerConfig.NewWriter(w)
}
