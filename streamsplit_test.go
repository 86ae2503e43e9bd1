package streamsplit

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/anjor/streamsplit/internal/constants"
	"github.com/anjor/streamsplit/internal/hasher"
	"github.com/anjor/streamsplit/internal/suffix"
	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testRun struct {
	spl    *Splitter
	fs     afero.Fs
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestRun(t *testing.T, modify func(s *Settings)) *testRun {
	t.Helper()

	s := DefaultSettings()
	if modify != nil {
		modify(&s)
	}

	tr := &testRun{
		fs:     afero.NewMemMapFs(),
		stdout: new(bytes.Buffer),
		stderr: new(bytes.Buffer),
	}

	var errs []error
	tr.spl, errs = NewSplitter(s, tr.stdout, tr.stderr)
	require.Empty(t, errs)

	tr.spl.SetFs(tr.fs)
	tr.spl.SetLogger(zaptest.NewLogger(t).Sugar())
	return tr
}

// outputs returns the content of every consecutively numbered output file,
// starting from index 0
func (tr *testRun) outputs(t *testing.T) (names, contents []string) {
	t.Helper()
	for i := 0; ; i++ {
		sfx, err := tr.spl.suffixFunc(i)
		if err != nil {
			return
		}
		name := tr.spl.settings.Prefix + sfx + tr.spl.settings.AdditionalSuffix + tr.spl.codec.Extension()
		exists, err := afero.Exists(tr.fs, name)
		require.NoError(t, err)
		if !exists {
			return
		}
		b, err := afero.ReadFile(tr.fs, name)
		require.NoError(t, err)
		names = append(names, name)
		contents = append(contents, string(b))
	}
}

func numberedLines(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&sb, "line %02d\n", i)
	}
	return sb.String()
}

func TestSplitByLines(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) { s.Strategy = "lines_3" })

	require.NoError(t, tr.spl.ProcessReader(strings.NewReader(strings.Repeat("x\n", 10))))

	names, contents := tr.outputs(t)
	assert.Equal(t, []string{"xx00", "xx01", "xx02", "xx03"}, names)
	assert.Equal(t, []string{"x\nx\nx\n", "x\nx\nx\n", "x\nx\nx\n", "x\n"}, contents)
	assert.Equal(t, "6\n6\n6\n2\n", tr.stdout.String())
}

func TestEmptyInputCreatesNothing(t *testing.T) {
	tr := newTestRun(t, nil)

	require.NoError(t, tr.spl.ProcessReader(strings.NewReader("")))

	names, _ := tr.outputs(t)
	assert.Empty(t, names)
	assert.Empty(t, tr.stdout.String())
}

func TestSplitAtBreakpoints(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) { s.Strategy = "breakpoints_5_12" })

	input := numberedLines(18)
	require.NoError(t, tr.spl.ProcessReader(strings.NewReader(input)))

	_, contents := tr.outputs(t)
	require.Len(t, contents, 3)
	var lineCounts []int
	for _, c := range contents {
		lineCounts = append(lineCounts, strings.Count(c, "\n"))
	}
	if diff := cmp.Diff([]int{4, 7, 7}, lineCounts); diff != "" {
		t.Errorf("lines per file mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, input, strings.Join(contents, ""))
	assert.True(t, strings.HasPrefix(contents[1], "line 05\n"))
	assert.True(t, strings.HasPrefix(contents[2], "line 12\n"))
}

func TestLineBytesKeepsLinesWhole(t *testing.T) {
	const quota = 16

	tr := newTestRun(t, func(s *Settings) {
		s.Strategy = fmt.Sprintf("line-bytes_%d", quota)
		s.SuffixWidth = 4
	})

	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString(strings.Repeat(string(rune('a'+i%26)), (i*7)%40))
		sb.WriteByte('\n')
	}
	input := sb.String()

	require.NoError(t, tr.spl.ProcessReader(strings.NewReader(input)))

	_, contents := tr.outputs(t)
	require.NotEmpty(t, contents)
	require.Equal(t, input, strings.Join(contents, ""))

	for n, c := range contents {
		require.True(t, strings.HasSuffix(c, "\n"), "file %d does not end on a line boundary", n)
		if len(c) > quota {
			require.Equal(t, 1, strings.Count(c, "\n"), "oversize file %d holds more than one line", n)
		}
	}
}

func TestElideEmptyFiles(t *testing.T) {
	for _, elide := range []bool{false, true} {
		tr := newTestRun(t, func(s *Settings) {
			s.Strategy = "breakpoints_1_3"
			s.ElideEmpty = elide
		})

		require.NoError(t, tr.spl.ProcessReader(strings.NewReader("a\nb\nc\nd\n")))

		exists, err := afero.Exists(tr.fs, "xx00")
		require.NoError(t, err)
		assert.Equal(t, !elide, exists)

		// the index of an elided file stays consumed
		b, err := afero.ReadFile(tr.fs, "xx01")
		require.NoError(t, err)
		assert.Equal(t, "a\nb\n", string(b))

		if elide {
			assert.Equal(t, "4\n4\n", tr.stdout.String())
			assert.EqualValues(t, 1, tr.spl.statSummary.Output.Elided)
		} else {
			assert.Equal(t, "0\n4\n4\n", tr.stdout.String())
		}
	}
}

func TestVerboseAndSilent(t *testing.T) {
	input := strings.Repeat("ab\n", 6)

	tr := newTestRun(t, func(s *Settings) {
		s.Strategy = "lines_5"
		s.Verbose = true
	})
	require.NoError(t, tr.spl.ProcessReader(strings.NewReader(input)))
	assert.Equal(t, "creating file 'xx00'\n15\ncreating file 'xx01'\n3\n", tr.stdout.String())

	tr = newTestRun(t, func(s *Settings) {
		s.Strategy = "lines_5"
		s.Silent = true
	})
	require.NoError(t, tr.spl.ProcessReader(strings.NewReader(input)))
	assert.Empty(t, tr.stdout.String())

	names, _ := tr.outputs(t)
	assert.Len(t, names, 2)
}

func TestAlphabeticAdditionalSuffix(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) {
		s.Strategy = "lines_1"
		s.Alphabetic = true
		s.AdditionalSuffix = ".txt"
		s.Prefix = "part-"
	})

	require.NoError(t, tr.spl.ProcessReader(strings.NewReader("1\n2\n3\n")))

	names, contents := tr.outputs(t)
	assert.Equal(t, []string{"part-aa.txt", "part-ab.txt", "part-ac.txt"}, names)
	assert.Equal(t, []string{"1\n", "2\n", "3\n"}, contents)
}

func TestSuffixFormat(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) {
		s.Strategy = "lines_2"
		s.SuffixFormat = "%03d.log"
	})

	require.NoError(t, tr.spl.ProcessReader(strings.NewReader("1\n2\n3\n")))

	for _, name := range []string{"xx000.log", "xx001.log"} {
		exists, err := afero.Exists(tr.fs, name)
		require.NoError(t, err)
		assert.True(t, exists, name)
	}
}

func TestSuffixExhaustion(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) {
		s.Strategy = "lines_1"
		s.SuffixWidth = 1
	})

	err := tr.spl.ProcessReader(strings.NewReader(strings.Repeat("z\n", 11)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, suffix.ErrOutOfRange))

	// everything up to the last available name was written and reported
	names, _ := tr.outputs(t)
	assert.Len(t, names, 10)
	assert.Equal(t, strings.Repeat("2\n", 10), tr.stdout.String())
}

func TestCompressedOutputWithDigests(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) {
		s.Strategy = "lines_500"
		s.Codec = "gzip"
		s.Hash = "sha2-256"
		s.DigestMultibase = "base32"
		s.EmitStderr = []string{emFilesJsonl}
	})

	input := strings.Repeat(numberedLines(99), 6)
	require.NoError(t, tr.spl.ProcessReader(strings.NewReader(input)))

	names, contents := tr.outputs(t)
	require.Equal(t, []string{"xx00.gz", "xx01.gz"}, names)

	var restored bytes.Buffer
	for _, c := range contents {
		r, err := gzip.NewReader(strings.NewReader(c))
		require.NoError(t, err)
		_, err = io.Copy(&restored, r)
		require.NoError(t, err)
	}
	require.Equal(t, input, restored.String())

	// byte counts on stdout are of the uncompressed payload
	assert.Equal(t, fmt.Sprintf("%d\n%d\n", 500*8, (594-500)*8), tr.stdout.String())

	format, err := hasher.Formatter("base32")
	require.NoError(t, err)

	events := strings.Split(strings.TrimSpace(tr.stderr.String()), "\n")
	require.Len(t, events, 2)
	for i, line := range events {
		var ev fileEvent
		require.NoError(t, json.Unmarshal([]byte(line), &ev))

		sum := sha256.Sum256([]byte(contents[i]))
		assert.Equal(t, "file", ev.Event)
		assert.Equal(t, names[i], ev.Name)
		assert.Equal(t, int64(len(contents[i])), ev.WireSize)
		assert.Equal(t, format(sum[:]), ev.Digest)
		assert.True(t, strings.HasPrefix(ev.Digest, "b"))
	}

	var ev fileEvent
	require.NoError(t, json.Unmarshal([]byte(events[0]), &ev))
	assert.EqualValues(t, 500, ev.Lines)
	assert.EqualValues(t, 500*8, ev.Size)
}

func TestRunSummary(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) {
		s.Strategy = "lines_3"
		s.EmitStderr = []string{emStatsJsonl}
	})

	require.NoError(t, tr.spl.ProcessReader(strings.NewReader(strings.Repeat("x\n", 10))))
	require.NoError(t, tr.spl.OutputSummary())

	var sum statSummary
	require.NoError(t, json.Unmarshal(tr.stderr.Bytes(), &sum))
	assert.Equal(t, "summary", sum.EventType)
	assert.EqualValues(t, 10, sum.Input.Lines)
	assert.EqualValues(t, 20, sum.Input.Bytes)
	assert.EqualValues(t, 4, sum.Output.Files)
	assert.EqualValues(t, 20, sum.Output.Payload)

	tr = newTestRun(t, func(s *Settings) { s.EmitStderr = []string{emStatsText} })
	require.NoError(t, tr.spl.ProcessReader(strings.NewReader("x\n")))
	require.NoError(t, tr.spl.OutputSummary())
	assert.Contains(t, tr.stderr.String(), "Read 2 bytes in 1 lines")
}

func TestRecordResourceUsage(t *testing.T) {
	var sum statSummary
	sum.recordResourceUsage(
		resourceUsage{userNsecs: 100, sysNsecs: 10, maxRssBytes: 4096, minFlt: 7, ctxSwYield: 3},
		resourceUsage{userNsecs: 350, sysNsecs: 40, maxRssBytes: 8192, minFlt: 9, ctxSwYield: 3, ctxSwForced: 2},
	)

	sys := sum.SysStats
	assert.EqualValues(t, 250, sys.CpuUserNsecs)
	assert.EqualValues(t, 30, sys.CpuSysNsecs)
	assert.EqualValues(t, 8192, sys.MaxRssBytes)
	assert.EqualValues(t, 2, sys.MinFlt)
	assert.EqualValues(t, 0, sys.CtxSwYield)
	assert.EqualValues(t, 2, sys.CtxSwForced)
}

func TestNamedInput(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) {
		s.Input = "input.txt"
		s.Strategy = "bytes_4"
	})
	require.NoError(t, afero.WriteFile(tr.fs, "input.txt", []byte("0123456789"), 0o644))

	require.NoError(t, tr.spl.ProcessInput(nil))

	_, contents := tr.outputs(t)
	assert.Equal(t, []string{"0123", "4567", "89"}, contents)

	tr = newTestRun(t, func(s *Settings) { s.Input = "missing.txt" })
	err := tr.spl.ProcessInput(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.False(t, errors.Is(err, ErrConfiguration))
}

func TestReadErrorIsReported(t *testing.T) {
	tr := newTestRun(t, func(s *Settings) { s.Strategy = "lines_1" })

	err := tr.spl.ProcessReader(io.MultiReader(
		strings.NewReader("a\nb\n"),
		iotest.ErrReader(errors.New("device on fire")),
	))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
	assert.Contains(t, err.Error(), "device on fire")
}

func TestConfigurationErrorsAccumulate(t *testing.T) {
	s := DefaultSettings()
	s.Strategy = "lines_0"
	s.Codec = "lzma9000"
	s.Hash = "md5"
	s.SuffixWidth = 0
	s.EmitStderr = []string{emStatsText, emFilesJsonl}

	_, errs := NewSplitter(s, io.Discard, io.Discard)
	require.GreaterOrEqual(t, len(errs), 5)
	for _, err := range errs {
		assert.True(t, errors.Is(err, ErrConfiguration), "%s", err)
		assert.False(t, errors.Is(err, ErrIO), "%s", err)
	}
}

func TestEmitterValidation(t *testing.T) {
	for _, tc := range []struct {
		emitters []string
		valid    bool
	}{
		{[]string{emNone}, true},
		{[]string{emStatsText}, true},
		{[]string{emStatsJsonl, emFilesJsonl}, true},
		{[]string{emNone, emFilesJsonl}, false},
		{[]string{emStatsText, emStatsJsonl}, false},
		{[]string{emFilesJsonl, emFilesJsonl}, false},
		{[]string{"car-v1-stream"}, false},
	} {
		s := DefaultSettings()
		s.EmitStderr = tc.emitters
		_, errs := NewSplitter(s, io.Discard, io.Discard)
		assert.Equal(t, tc.valid, len(errs) == 0, "%v: %v", tc.emitters, errs)
	}
}

func TestRepeatedRunsAreIdentical(t *testing.T) {

	iterations := 5
	if constants.LongTests {
		iterations = 25
	}

	var sb strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&sb, "%d %s\n", i, strings.Repeat("~", i%97))
	}
	input := sb.String()

	var first [32]byte
	for iter := 0; iter < iterations; iter++ {
		tr := newTestRun(t, func(s *Settings) {
			s.Strategy = "line-bytes_10K"
			s.Codec = "zstd"
		})
		require.NoError(t, tr.spl.ProcessReader(strings.NewReader(input)))

		h := sha256.New()
		names, contents := tr.outputs(t)
		require.NotEmpty(t, names)
		for i := range names {
			fmt.Fprintf(h, "%s\x00%s\x00", names[i], contents[i])
		}
		io.WriteString(h, tr.stdout.String()) //nolint:errcheck

		var current [32]byte
		copy(current[:], h.Sum(nil))
		if iter == 0 {
			first = current
		} else if current != first {
			t.Errorf("iteration %d: content sum does not match first content sum on iteration [ %s, %s ]", iter, hex.EncodeToString(first[:]), hex.EncodeToString(current[:]))
		}
	}
}
