package breakpoints

import (
	splstrategy "github.com/anjor/streamsplit/internal/strategy"
)

// budget is the amount of lines the current file may still take. Past the
// last breakpoint it is unbounded.
type budget struct {
	lines     int64
	unbounded bool
}

func (b budget) exhausted() bool { return !b.unbounded && b.lines <= 0 }

type splitter struct {
	points []int64
	cursor int
	left   budget
}

func newSplitter(points []int64) *splitter {
	return &splitter{
		points: points,
		// the first file ends right before the first breakpoint
		left: budget{lines: points[0] - 1},
	}
}

func (s *splitter) Consume(ctl *splstrategy.Control) string {

	// a zero-line chunk: close the (empty) current file without consuming
	if s.left.exhausted() {
		s.advance()
		ctl.NewFile = true
		return ""
	}

	if !s.left.unbounded {
		s.left.lines--
		if s.left.exhausted() {
			s.advance()
			ctl.NewFile = true
		}
	}

	return ctl.Line
}

func (s *splitter) advance() {
	s.cursor++
	if s.cursor < len(s.points) {
		s.left = budget{lines: s.points[s.cursor] - s.points[s.cursor-1]}
	} else {
		s.left = budget{unbounded: true}
	}
}
