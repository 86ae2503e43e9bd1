package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/anjor/streamsplit"
	"github.com/anjor/streamsplit/internal/util/stream"
	"github.com/fatih/color"
)

const (
	exitOK          = 0
	exitIOError     = 1
	exitConfigError = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(argv []string, stdin *os.File, stdout, stderr io.Writer) int {

	errPrefix := color.New(color.FgRed, color.Bold).Sprint("streamsplit:")

	// Parse CLI and initialize everything
	// Usage errors are printed by the parser itself
	spl, argErrs := streamsplit.ParseArgv(argv, stdout, stderr)
	if len(argErrs) > 0 {
		return exitConfigError
	} else if spl == nil {
		// --help or --version
		return exitOK
	}

	if spl.ReadsStdin() {
		prepareStdin(stdin, stderr)
	}

	if err := spl.ProcessInput(stdin); err != nil {
		fmt.Fprintf(stderr, "%s %s\n", errPrefix, err)
		if errors.Is(err, streamsplit.ErrConfiguration) {
			return exitConfigError
		}
		return exitIOError
	}

	if err := spl.OutputSummary(); err != nil {
		fmt.Fprintf(stderr, "%s %s\n", errPrefix, err)
		return exitIOError
	}

	return exitOK
}

func prepareStdin(stdin *os.File, stderr io.Writer) {

	inStat, statErr := stdin.Stat()
	if statErr != nil {
		fmt.Fprintf(stderr, "unexpected error stat()ing stdIN: %s\n", statErr)
		return
	}

	if stream.IsTTY(stdin) {
		fmt.Fprint(
			stderr,
			"------\nYou seem to be feeding data straight from a terminal, an odd choice...\nNevertheless will proceed to read until EOF ( Ctrl+D )\n------\n",
		)
	} else if !inStat.Mode().IsRegular() || inStat.Size() > 16*1024*1024 { // SANCHECK - arbitrary
		// Try optimizations if:
		// - not a reguar file (and not a TTY - exempted above)
		// - regular file larger than a certain size (SANCHECK: somewhat arbitrary)
		// An optimization returns os.ErrInvalid when it can't be applied to the file type
		for _, opt := range stream.ReadOptimizations {
			if err := opt.Action(stdin, inStat); err != nil && err != os.ErrInvalid {
				fmt.Fprintf(stderr, "failed to apply read optimization hint '%s' to stdIN: %s\n", opt.Name, err)
			}
		}
	}
}
