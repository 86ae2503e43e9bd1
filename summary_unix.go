//go:build !windows
// +build !windows

package streamsplit

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func init() { sampleResourceUsage = getrusage }

func getrusage() (u resourceUsage) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return
	}

	u = resourceUsage{
		userNsecs:   unix.TimevalToNsec(ru.Utime),
		sysNsecs:    unix.TimevalToNsec(ru.Stime),
		maxRssBytes: int64(ru.Maxrss),
		minFlt:      int64(ru.Minflt),
		majFlt:      int64(ru.Majflt),
		bioRead:     int64(ru.Inblock),
		bioWrite:    int64(ru.Oublock),
		sigs:        int64(ru.Nsignals),
		ctxSwYield:  int64(ru.Nvcsw),
		ctxSwForced: int64(ru.Nivcsw),
	}
	// KiB everywhere but darwin
	if runtime.GOOS != "darwin" {
		u.maxRssBytes *= 1024
	}
	return
}
