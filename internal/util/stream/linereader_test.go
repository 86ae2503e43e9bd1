package stream

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/anjor/streamsplit/internal/constants"
	"github.com/stretchr/testify/require"
)

func newTestReader(t *testing.T, r io.Reader, sep byte) *LineReader {
	t.Helper()

	lr, err := NewLineReader(r, LineReaderConfig{
		BufferSize: constants.DefaultRingBufferSize,
		SectorSize: constants.DefaultRingBufferSectSize,
		MinRead:    constants.DefaultRingBufferMinRead,
		Separator:  sep,
	})
	require.NoError(t, err)
	return lr
}

func readAll(t *testing.T, lr *LineReader) (lines []string) {
	t.Helper()

	for {
		l, err := lr.ReadLine()
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
		require.NotEmpty(t, l)
		lines = append(lines, l)
	}
}

func TestLines(t *testing.T) {
	lr := newTestReader(t, strings.NewReader("one\ntwo\n\nthree"), '\n')
	require.Equal(t, []string{"one\n", "two\n", "\n", "three"}, readAll(t, lr))

	// stays at EOF
	_, err := lr.ReadLine()
	require.Equal(t, io.EOF, err)
}

func TestEmptyInput(t *testing.T) {
	lr := newTestReader(t, strings.NewReader(""), '\n')
	require.Empty(t, readAll(t, lr))
}

func TestNulSeparator(t *testing.T) {
	lr := newTestReader(t, strings.NewReader("a\nb\x00c\x00"), 0)
	require.Equal(t, []string{"a\nb\x00", "c\x00"}, readAll(t, lr))
}

func TestDefaultBufferSizing(t *testing.T) {
	cfg := LineReaderConfig{
		BufferSize: constants.DefaultRingBufferSize,
		SectorSize: constants.DefaultRingBufferSectSize,
		MinRead:    constants.DefaultRingBufferMinRead,
		Separator:  '\n',
	}
	_, err := NewLineReader(strings.NewReader("a\n"), cfg)
	require.NoError(t, err)

	// the defaults are the smallest buffer accepted
	cfg.BufferSize--
	_, err = NewLineReader(strings.NewReader("a\n"), cfg)
	require.Error(t, err)
}

func TestLinesAcrossRegions(t *testing.T) {
	var in bytes.Buffer
	var want []string

	shortLines := 50000
	if constants.VeryLongTests {
		shortLines = 2000000
	} else if constants.LongTests {
		shortLines = 200000
	}

	// many short lines spanning several regions, then a few lines longer
	// than any single region
	for i := 0; i < shortLines; i++ {
		l := fmt.Sprintf("line %d\n", i)
		want = append(want, l)
		in.WriteString(l)
	}
	for _, n := range []int{
		3 * constants.MaxRegionPayload,
		7*constants.MaxRegionPayload + 13,
	} {
		l := strings.Repeat("y", n) + "\n"
		want = append(want, l)
		in.WriteString(l)
	}
	want = append(want, "tail")
	in.WriteString("tail")

	lr := newTestReader(t, iotest.HalfReader(&in), '\n')
	got := readAll(t, lr)

	require.Equal(t, len(want), len(got))
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("line %d differs: want %d bytes, got %d bytes", i, len(want[i]), len(got[i]))
		}
	}
}

func TestReadError(t *testing.T) {
	boom := fmt.Errorf("boom")
	lr := newTestReader(t, io.MultiReader(strings.NewReader("a\n"), iotest.ErrReader(boom)), '\n')

	var err error
	for err == nil {
		_, err = lr.ReadLine()
	}
	require.NotEqual(t, io.EOF, err)
}
