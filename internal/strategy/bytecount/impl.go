package bytecount

import (
	splstrategy "github.com/anjor/streamsplit/internal/strategy"
)

type byteCounter struct {
	size      int64
	remaining int64

	lineBoundary bool
	// quota ran out inside a line too long for any file: the rest of that
	// line still goes into the current file
	finishLine bool
}

func (s *byteCounter) Consume(ctl *splstrategy.Control) string {
	if s.lineBoundary {
		return s.consumeWholeLines(ctl)
	}

	frag := ctl.Line
	if int64(len(frag)) > s.remaining {
		frag = frag[:s.remaining]
	}
	s.spend(ctl, int64(len(frag)))
	return frag
}

func (s *byteCounter) consumeWholeLines(ctl *splstrategy.Control) string {
	line := ctl.Line

	if s.finishLine {
		s.finishLine = false
		s.remaining = s.size
		ctl.NewFile = true
		return line
	}

	if int64(len(line)) <= s.remaining {
		s.spend(ctl, int64(len(line)))
		return line
	}

	// does not fit, but a fresh file would take more of it
	if s.remaining < s.size {
		s.remaining = s.size
		ctl.NewFile = true
		return ""
	}

	// longer than a whole file: fill the quota and finish the line on the
	// next call before rotating
	frag := line[:s.remaining]
	s.remaining = 0
	s.finishLine = true
	return frag
}

func (s *byteCounter) spend(ctl *splstrategy.Control, n int64) {
	s.remaining -= n
	if s.remaining == 0 {
		s.remaining = s.size
		ctl.NewFile = true
	}
}
