package noop

import (
	"io"

	splcodec "github.com/anjor/streamsplit/internal/codec"
	"github.com/anjor/streamsplit/internal/util/argparser"
	"github.com/pkg/errors"
)

func NewCodec(args []string) (_ splcodec.Codec, initErrs []error) {

	if args == nil {
		initErrs = argparser.SubHelp(
			"Writes output files as-is. Takes no arguments.\n",
			nil,
		)
		return
	}

	if len(args) > 1 {
		initErrs = append(initErrs, errors.New("codec takes no arguments"))
	}

	return nulCodec{}, initErrs
}

type nulCodec struct{}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func (nulCodec) Extension() string                             { return "" }
func (nulCodec) NewWriter(w io.Writer) (io.WriteCloser, error) { return nopCloser{w}, nil }
