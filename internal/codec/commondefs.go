package splcodec

import "io"

type Initializer func(
	codecCLISubArgs []string,
) (instance Codec, initErrors []error)

type Codec interface {
	// Extension is appended to every output file name, e.g. ".gz"
	Extension() string
	// NewWriter wraps an output file. Close must flush all pending data but
	// must not close the underlying writer.
	NewWriter(w io.Writer) (io.WriteCloser, error)
}
