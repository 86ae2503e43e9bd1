package streamsplit

import (
	"io"
	"os"
	"time"

	"github.com/anjor/streamsplit/internal/constants"
	splstrategy "github.com/anjor/streamsplit/internal/strategy"
	"github.com/anjor/streamsplit/internal/util/stream"
	"github.com/anjor/streamsplit/internal/util/text"
	"github.com/pkg/errors"
)

// ProcessInput splits the configured input: stdin when the input is "-",
// otherwise the named file.
func (spl *Splitter) ProcessInput(stdin io.Reader) error {

	if spl.settings.Input == "-" {
		return spl.ProcessReader(stdin)
	}

	fh, err := spl.fs.Open(spl.settings.Input)
	if err != nil {
		return &IOError{Op: "opening input", Err: err}
	}
	defer fh.Close() //nolint:errcheck

	if osFh, isOsFile := fh.(*os.File); isOsFile {
		if s, err := osFh.Stat(); err != nil {
			spl.log.Warnf("failed to stat() input '%s': %s", spl.settings.Input, err)
		} else {
			for _, opt := range stream.ReadOptimizations {
				if err := opt.Action(osFh, s); err != nil && err != os.ErrInvalid {
					spl.log.Warnf("failed to apply read optimization hint '%s' to input: %s", opt.Name, err)
				}
			}
		}
	}

	return spl.ProcessReader(fh)
}

// ProcessReader runs the split over a stream: it reads one line at a time,
// lets the strategy decide how much of it goes into the current file and
// rotates files whenever the strategy asks for it.
func (spl *Splitter) ProcessReader(inputReader io.Reader) (err error) {

	var usageAtStart resourceUsage
	if sampleResourceUsage != nil {
		usageAtStart = sampleResourceUsage()
	}
	t0 := time.Now()

	defer func() {
		if sampleResourceUsage != nil {
			spl.statSummary.recordResourceUsage(usageAtStart, sampleResourceUsage())
		}
		spl.statSummary.SysStats.ElapsedNsecs = time.Since(t0).Nanoseconds()
	}()

	lr, err := stream.NewLineReader(inputReader, stream.LineReaderConfig{
		BufferSize:  spl.settings.RingBufferSize,
		SectorSize:  spl.settings.RingBufferSectSize,
		MinRead:     spl.settings.RingBufferMinRead,
		Separator:   spl.settings.Separator,
		Stats:       &spl.statSummary.SysStats.Stats,
		TrackTiming: spl.emitters[emStatsText] != nil || spl.emitters[emStatsJsonl] != nil,
	})
	if err != nil {
		return &IOError{Op: "reading input", Err: err}
	}

	in := &spl.statSummary.Input
	defer func() {
		if err != nil {
			err = errors.Wrapf(
				err,
				"failure after input line %s (byte offset %s) with %s bytes buffered/unprocessed",
				text.Commify64(in.Lines),
				text.Commify64(in.Bytes),
				text.Commify(lr.Buffered()),
			)
		}
	}()

	// the first file opens before anything is written
	ctl := &splstrategy.Control{NewFile: true}

	var out *outputFile
	defer func() {
		if out != nil {
			// failed runs still flush what they have, but report nothing
			if closeErr := spl.finishFile(out, err == nil); err == nil {
				err = closeErr
			}
		}
	}()

	for {
		if ctl.Line == "" {
			line, readErr := lr.ReadLine()
			if readErr == io.EOF {
				return nil
			} else if readErr != nil {
				return &IOError{Op: "reading input", Err: readErr}
			}

			ctl.Line = line
			in.Lines++
			in.Bytes += int64(len(line))
		}

		if ctl.NewFile {
			if out != nil {
				// nil first: the deferred close must not see it twice
				prev := out
				out = nil
				if err = spl.finishFile(prev, true); err != nil {
					return err
				}
			}
			if out, err = spl.openFile(); err != nil {
				return err
			}
			ctl.NewFile = false
		}

		frag := spl.strategy.Consume(ctl)
		if constants.PerformSanityChecks {
			if frag == "" && !ctl.NewFile {
				spl.log.Panic("strategy returned an empty fragment without requesting a new file")
			} else if len(frag) > len(ctl.Line) {
				spl.log.Panic("strategy returned a fragment longer than the current line")
			}
		}

		if err = out.write(frag); err != nil {
			return err
		}

		ctl.Line = ctl.Line[len(frag):]
		if ctl.Line == "" && frag != "" {
			out.lines++
		}
	}
}
