// Package strategytest runs strategies in isolation, without any I/O.
package strategytest

import (
	"strings"

	splstrategy "github.com/anjor/streamsplit/internal/strategy"
)

// Split feeds lines through s the same way the drive loop does and returns
// the content of every file that would have been created.
func Split(s splstrategy.Strategy, lines []string) (files []string) {
	ctl := &splstrategy.Control{NewFile: true}
	var cur *strings.Builder

	for _, l := range lines {
		ctl.Line = l
		for ctl.Line != "" {
			if ctl.NewFile {
				if cur != nil {
					files = append(files, cur.String())
				}
				cur = &strings.Builder{}
				ctl.NewFile = false
			}

			frag := s.Consume(ctl)
			if frag == "" && !ctl.NewFile {
				panic("strategy made no progress")
			}
			cur.WriteString(frag)
			ctl.Line = ctl.Line[len(frag):]
		}
	}

	if cur != nil {
		files = append(files, cur.String())
	}
	return
}

// Lines returns n lines produced by gen, each terminated by a newline.
func Lines(n int, gen func(i int) string) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = gen(i+1) + "\n"
	}
	return out
}
