package zstd

import (
	"io"

	splcodec "github.com/anjor/streamsplit/internal/codec"
	"github.com/anjor/streamsplit/internal/util/argparser"
	"github.com/klauspost/compress/zstd"
	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
	"github.com/pkg/errors"
)

type config struct {
	Level    string `getopt:"--level=name  Encoder level, one of 'fastest', 'default', 'better', 'best'. Default:"`
	Checksum bool   `getopt:"--checksum    Append a content checksum to every frame"`
}

type codec struct {
	config
	level zstd.EncoderLevel
}

func NewCodec(args []string) (_ splcodec.Codec, initErrs []error) {

	c := &codec{config: config{Level: "default"}}

	optSet := getopt.New()
	if err := options.RegisterSet("", &c.config, optSet); err != nil {
		initErrs = []error{errors.Errorf("option set registration failed: %s", err)}
		return
	}

	if args == nil {
		initErrs = argparser.SubHelp(
			"Compresses every output file with zstandard, appending '.zst' to its name.",
			optSet,
		)
		return
	}

	if initErrs = argparser.Parse(args, optSet); len(initErrs) > 0 {
		return
	}

	var known bool
	if known, c.level = zstd.EncoderLevelFromString(c.Level); !known {
		initErrs = append(initErrs, errors.Errorf("unknown level '%s'", c.Level))
	}

	return c, initErrs
}

func (*codec) Extension() string { return ".zst" }

func (c *codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(
		w,
		zstd.WithEncoderLevel(c.level),
		zstd.WithEncoderCRC(c.Checksum),
		zstd.WithEncoderConcurrency(1),
	)
}
