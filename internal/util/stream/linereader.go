package stream

import (
	"bytes"
	"io"

	"github.com/anjor/streamsplit/internal/constants"
	"github.com/ipfs/go-qringbuf"
	"github.com/pkg/errors"
)

type LineReaderConfig struct {
	BufferSize  int
	SectorSize  int
	MinRead     int
	Separator   byte
	Stats       *qringbuf.Stats
	TrackTiming bool
}

// LineReader hands out separator-terminated lines from a byte stream
// buffered through a quantized ring buffer. Lines longer than a buffer
// region are stitched together in a private carry buffer. The final line is
// returned even if it lacks a separator.
type LineReader struct {
	_ constants.Incomparabe

	qrb   *qringbuf.QuantizedRingBuffer
	sep   byte
	eof   bool
	carry []byte

	pending    []string
	pendingIdx int
}

func NewLineReader(r io.Reader, cfg LineReaderConfig) (*LineReader, error) {
	qrb, err := qringbuf.NewFromReader(r, qringbuf.Config{
		// regions must be able to hold at least a couple of average lines
		MinRegion:   constants.LineRegionSize,
		MinRead:     cfg.MinRead,
		MaxCopy:     constants.LineRegionSize,
		BufferSize:  cfg.BufferSize,
		SectorSize:  cfg.SectorSize,
		Stats:       cfg.Stats,
		TrackTiming: cfg.TrackTiming,
	})
	if err != nil {
		return nil, errors.Wrap(err, "ring buffer setup failed")
	}

	// 0 == no limit, read until EOF
	if err := qrb.StartFill(0); err != nil {
		return nil, errors.Wrap(err, "ring buffer fill failed to start")
	}

	return &LineReader{
		qrb: qrb,
		sep: cfg.Separator,
	}, nil
}

// ReadLine returns the next line including its separator, or io.EOF once
// the stream is exhausted. Any other error is a genuine read failure.
func (lr *LineReader) ReadLine() (string, error) {
	for lr.pendingIdx >= len(lr.pending) {
		if lr.eof {
			if len(lr.carry) > 0 {
				line := string(lr.carry)
				lr.carry = lr.carry[:0]
				return line, nil
			}
			return "", io.EOF
		}

		if err := lr.fill(); err != nil {
			return "", err
		}
	}

	line := lr.pending[lr.pendingIdx]
	lr.pending[lr.pendingIdx] = ""
	lr.pendingIdx++
	return line, nil
}

// Buffered returns the amount of bytes read from the source but not yet
// handed out as lines.
func (lr *LineReader) Buffered() (n int) {
	lr.qrb.Lock()
	n = lr.qrb.Buffered()
	lr.qrb.Unlock()

	n += len(lr.carry)
	for _, l := range lr.pending[lr.pendingIdx:] {
		n += len(l)
	}
	return
}

func (lr *LineReader) fill() error {
	lr.pending = lr.pending[:0]
	lr.pendingIdx = 0

	// everything from the previous region was copied out: retain nothing
	region, readErr := lr.qrb.NextRegion(0)
	if readErr != nil && readErr != io.EOF {
		return readErr
	}
	if readErr == io.EOF || region == nil {
		lr.eof = true
	}
	if region == nil {
		return nil
	}

	buf := region.Bytes()
	for {
		i := bytes.IndexByte(buf, lr.sep)
		if i < 0 {
			break
		}

		if len(lr.carry) > 0 {
			lr.carry = append(lr.carry, buf[:i+1]...)
			lr.pending = append(lr.pending, string(lr.carry))
			lr.carry = lr.carry[:0]
		} else {
			lr.pending = append(lr.pending, string(buf[:i+1]))
		}
		buf = buf[i+1:]
	}
	lr.carry = append(lr.carry, buf...)

	return nil
}
