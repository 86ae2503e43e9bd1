package streamsplit

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/anjor/streamsplit/internal/util/text"
	"github.com/ipfs/go-qringbuf"
	"github.com/klauspost/cpuid/v2"
)

type statSummary struct {
	EventType string `json:"event"`
	Input     struct {
		Lines int64 `json:"lines"`
		Bytes int64 `json:"bytes"`
	} `json:"input"`
	Output struct {
		Files    int64 `json:"files"`
		Elided   int64 `json:"elided"`
		Payload  int64 `json:"payload"`
		WireSize int64 `json:"wiresize"`
	} `json:"output"`
	SysStats struct {
		qringbuf.Stats
		ArgvExpanded    []string `json:"argvExpanded"`
		ArgvInitial     []string `json:"argvInitial"`
		GoVersion       string   `json:"goVersion"`
		CPU             string   `json:"cpu"`
		HashAccelerated bool     `json:"hashAccelerated"`
		ElapsedNsecs    int64    `json:"elapsedNanoseconds"`

		// getrusage() section
		CpuUserNsecs int64 `json:"cpuUserNanoseconds"`
		CpuSysNsecs  int64 `json:"cpuSystemNanoseconds"`
		MaxRssBytes  int64 `json:"maxMemoryUsed"`
		MinFlt       int64 `json:"cacheMinorFaults"`
		MajFlt       int64 `json:"cacheMajorFaults"`
		BioRead      int64 `json:"blockIoReads,omitempty"`
		BioWrite     int64 `json:"blockIoWrites,omitempty"`
		Sigs         int64 `json:"signalsReceived,omitempty"`
		CtxSwYield   int64 `json:"contextSwitchYields"`
		CtxSwForced  int64 `json:"contextSwitchForced"`
	} `json:"sys"`
}

// resourceUsage is one sample of the process counters folded into the
// getrusage() section of the summary.
type resourceUsage struct {
	userNsecs   int64
	sysNsecs    int64
	maxRssBytes int64
	minFlt      int64
	majFlt      int64
	bioRead     int64
	bioWrite    int64
	sigs        int64
	ctxSwYield  int64
	ctxSwForced int64
}

// nil on platforms without getrusage(2)
var sampleResourceUsage func() resourceUsage

// recordResourceUsage stores what a run consumed between two samples. Peak
// memory is not a counter and is taken from the later sample as is.
func (s *statSummary) recordResourceUsage(start, end resourceUsage) {
	sys := &s.SysStats
	sys.CpuUserNsecs = end.userNsecs - start.userNsecs
	sys.CpuSysNsecs = end.sysNsecs - start.sysNsecs
	sys.MaxRssBytes = end.maxRssBytes
	sys.MinFlt = end.minFlt - start.minFlt
	sys.MajFlt = end.majFlt - start.majFlt
	sys.BioRead = end.bioRead - start.bioRead
	sys.BioWrite = end.bioWrite - start.bioWrite
	sys.Sigs = end.sigs - start.sigs
	sys.CtxSwYield = end.ctxSwYield - start.ctxSwYield
	sys.CtxSwForced = end.ctxSwForced - start.ctxSwForced
}

func setStatSummary() (s statSummary) {
	s.EventType = "summary"
	s.SysStats.GoVersion = runtime.Version()
	s.SysStats.CPU = cpuid.CPU.BrandName
	return
}

func (s *statSummary) addFile(out *outputFile, elided bool) {
	if elided {
		s.Output.Elided++
		return
	}
	s.Output.Files++
	s.Output.Payload += out.size
	s.Output.WireSize += out.wire.n
}

// OutputSummary writes the run summary to the configured stats emitter, if
// any.
func (spl *Splitter) OutputSummary() error {

	if w := spl.emitters[emStatsJsonl]; w != nil {
		jsonl, err := json.Marshal(spl.statSummary)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", jsonl); err != nil {
			return &IOError{Op: fmt.Sprintf("emitting '%s'", emStatsJsonl), Err: err}
		}
	}

	if w := spl.emitters[emStatsText]; w != nil {
		if err := spl.writeTextSummary(w); err != nil {
			return &IOError{Op: fmt.Sprintf("emitting '%s'", emStatsText), Err: err}
		}
	}

	return nil
}

func (spl *Splitter) writeTextSummary(w io.Writer) (err error) {
	s := &spl.statSummary
	sys := &s.SysStats

	hashNote := ""
	if spl.hashMaker != nil {
		accel := "no"
		if sys.HashAccelerated {
			accel = "yes"
		}
		hashNote = fmt.Sprintf("\nDigest %s, hardware accelerated: %s", spl.settings.Hash, accel)
	}

	_, err = fmt.Fprintf(w, `
Ran on %s (%s)
Processing took %0.2f seconds using %0.2f vCPU and %0.2f MiB peak memory
Read %s bytes in %s lines
Wrote %s files (%s elided) holding %s bytes, %s bytes on disk%s

`,
		sys.CPU,
		sys.GoVersion,
		float64(sys.ElapsedNsecs)/1e9,
		float64(sys.CpuUserNsecs+sys.CpuSysNsecs)/float64(maxInt64(sys.ElapsedNsecs, 1)),
		float64(sys.MaxRssBytes)/(1024*1024),
		text.Commify64(s.Input.Bytes),
		text.Commify64(s.Input.Lines),
		text.Commify64(s.Output.Files),
		text.Commify64(s.Output.Elided),
		text.Commify64(s.Output.Payload),
		text.Commify64(s.Output.WireSize),
		hashNote,
	)
	return
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
