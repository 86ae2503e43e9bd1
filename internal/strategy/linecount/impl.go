package linecount

import (
	splstrategy "github.com/anjor/streamsplit/internal/strategy"
)

type lineCounter struct {
	lines     int64
	remaining int64
}

func (s *lineCounter) Consume(ctl *splstrategy.Control) string {
	s.remaining--
	if s.remaining == 0 {
		s.remaining = s.lines
		ctl.NewFile = true
	}
	return ctl.Line
}
