package streamsplit

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/anjor/streamsplit/internal/hasher"
	"github.com/anjor/streamsplit/internal/util/text"
	"github.com/pborman/getopt/v2"
	"github.com/pborman/options"
	"github.com/pkg/errors"
)

// Version is reported by --version, overridden at link time for releases.
var Version = "devel"

type emissionTargets map[string]io.Writer

const (
	emNone       = "none"
	emStatsText  = "stats-text"
	emStatsJsonl = "stats-jsonl"
	emFilesJsonl = "files-jsonl"
)

func newEmissionTargets() emissionTargets {
	return emissionTargets{
		emNone:       nil,
		emStatsText:  nil,
		emStatsJsonl: nil,
		emFilesJsonl: nil,
	}
}

// ParseArgv builds a Splitter from a complete argv, program name included.
// Usage problems are printed to stderr together with the help text, and are
// also returned; every one of them matches ErrConfiguration. When help or
// version output was requested both return values are nil.
func ParseArgv(argv []string, stdout, stderr io.Writer) (*Splitter, []error) {

	if len(argv) == 0 {
		argv = []string{"streamsplit"}
	}

	cfg := defaultConfig()
	cfg.initArgvParser()

	// accumulator for multiple errors, to present to the user all at once
	positional, argParseErrs := cfg.getopt(argv)

	if cfg.Help || cfg.HelpAll {
		cfg.printUsage(stdout)
		return nil, nil
	}
	if cfg.Version {
		fmt.Fprintf(stdout, "streamsplit %s\n", Version)
		return nil, nil
	}

	settings, errs := cfg.settings(positional)
	argParseErrs = append(argParseErrs, errs...)

	spl, errs := NewSplitter(settings, stdout, stderr)
	argParseErrs = append(argParseErrs, errs...)

	cfg.erroredStrategies = spl.cfg.erroredStrategies
	cfg.erroredCodecs = spl.cfg.erroredCodecs
	spl.cfg = cfg

	if len(argParseErrs) != 0 {
		fmt.Fprint(stderr, "\nFatal error parsing arguments:\n\n")
		cfg.printUsage(stderr)

		msgs := make([]string, len(argParseErrs))
		for i, e := range argParseErrs {
			msgs[i] = e.Error()
		}
		sort.Strings(msgs)
		fmt.Fprintf(
			stderr,
			"Fatal error parsing arguments:\n\t%s\n",
			strings.Join(msgs, "\n\t"),
		)
		return nil, argParseErrs
	}

	// Opts check out - take a snapshot of what we ended up with
	sys := &spl.statSummary.SysStats
	sys.ArgvInitial = make([]string, len(argv)-1)
	copy(sys.ArgvInitial, argv[1:])

	cfg.optSet.VisitAll(func(o getopt.Option) {
		switch o.LongName() {
		case "help", "help-all", "version",
			"strategy", "lines", "bytes", "line-bytes":
			// shortcuts are folded into the strategy, appended last
		default:
			sys.ArgvExpanded = append(sys.ArgvExpanded, fmt.Sprintf(`--%s=%s`,
				o.LongName(),
				o.Value().String(),
			))
		}
	})
	sort.Strings(sys.ArgvExpanded)
	sys.ArgvExpanded = append(sys.ArgvExpanded, "--strategy="+settings.Strategy)

	return spl, nil
}

// getopt stops at the first operand: collect it and resume, so that options
// may follow the input path. Everything after a "--" is an operand.
func (cfg *config) getopt(argv []string) (positional []string, argErrs []error) {
	args := argv
	for {
		if err := cfg.optSet.Getopt(args, nil); err != nil {
			return positional, []error{&ConfigurationError{Err: err}}
		}

		rest := cfg.optSet.Args()
		if len(rest) == 0 {
			return
		}

		if args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}

		positional = append(positional, rest[0])
		args = append([]string{argv[0]}, rest[1:]...)
	}
}

func (cfg *config) settings(positional []string) (s Settings, argErrs []error) {

	s = DefaultSettings()
	s.Prefix = cfg.Prefix
	s.SuffixWidth = cfg.SuffixWidth
	s.SuffixFormat = cfg.SuffixFormat
	s.Alphabetic = cfg.Alphabetic
	s.AdditionalSuffix = cfg.AdditionalSuffix
	s.Silent = cfg.Silent
	s.Verbose = cfg.Verbose
	s.ElideEmpty = cfg.ElideEmpty
	s.Codec = cfg.requestedCodec
	s.Hash = cfg.hashFunc
	s.DigestMultibase = cfg.DigestMultibase
	s.EmitStderr = cfg.emittersStdErr
	s.LogLevel = cfg.LogLevel
	s.RingBufferSize = cfg.RingBufferSize
	s.RingBufferSectSize = cfg.RingBufferSectSize
	s.RingBufferMinRead = cfg.RingBufferMinRead

	sep, err := parseSeparator(cfg.Separator)
	if err != nil {
		argErrs = append(argErrs, &ConfigurationError{Err: err})
	}
	s.Separator = sep

	if len(positional) > 0 {
		s.Input = positional[0]
	}

	var selected []string
	if cfg.optSet.IsSet("strategy") {
		selected = append(selected, cfg.requestedStrategy)
	}
	for _, shortcut := range []struct {
		option, strategy, value string
	}{
		{"lines", "lines", cfg.Lines},
		{"bytes", "bytes", cfg.Bytes},
		{"line-bytes", "line-bytes", cfg.LineBytes},
	} {
		if cfg.optSet.IsSet(shortcut.option) {
			selected = append(selected, shortcut.strategy+"_"+shortcut.value)
		}
	}
	if len(positional) > 1 {
		selected = append(selected, "breakpoints_"+strings.Join(positional[1:], "_"))
	}

	if len(selected) > 1 {
		argErrs = append(argErrs, configErrorf(
			"only one of --strategy, --lines, --bytes, --line-bytes or positional breakpoints may be given, got: %s",
			strings.Join(selected, ", "),
		))
	} else if len(selected) == 1 {
		s.Strategy = selected[0]
	}

	return
}

func parseSeparator(spec string) (byte, error) {
	switch spec {
	case `\0`:
		return 0, nil
	case `\n`:
		return '\n', nil
	case `\t`:
		return '\t', nil
	}
	if len(spec) != 1 {
		return 0, errors.Errorf("separator '%s' must be a single byte", spec)
	}
	return spec[0], nil
}

func (cfg *config) printUsage(out io.Writer) {
	cfg.optSet.PrintUsage(out)
	if cfg.HelpAll || len(cfg.erroredStrategies) > 0 || len(cfg.erroredCodecs) > 0 {
		printPluginUsage(
			out,
			cfg.erroredStrategies,
			cfg.erroredCodecs,
		)
	} else {
		fmt.Fprint(out, "\nTry --help-all for more info\n\n")
	}
}

func printPluginUsage(
	out io.Writer,
	listStrategies []string,
	listCodecs []string,
) {

	// if nothing was requested explicitly - list everything
	if len(listStrategies) == 0 && len(listCodecs) == 0 {
		for name := range availableStrategies {
			listStrategies = append(listStrategies, name)
		}
		for name := range availableCodecs {
			listCodecs = append(listCodecs, name)
		}
	}

	if len(listStrategies) != 0 {
		fmt.Fprint(out, "\n")
		sort.Strings(listStrategies)
		for _, name := range listStrategies {
			fmt.Fprintf(out, "[S]trategy '%s'\n", name)
			_, h := availableStrategies[name](nil)
			printHelp(out, h)
		}
	}

	if len(listCodecs) != 0 {
		fmt.Fprint(out, "\n")
		sort.Strings(listCodecs)
		for _, name := range listCodecs {
			fmt.Fprintf(out, "[C]odec '%s'\n", name)
			_, h := availableCodecs[name](nil)
			printHelp(out, h)
		}
	}

	fmt.Fprint(out, "\n")
}

func printHelp(out io.Writer, h []error) {
	if len(h) == 0 {
		fmt.Fprint(out, "  -- no helptext available --\n\n")
		return
	}
	lines := make([]string, len(h))
	for i := range h {
		lines[i] = h[i].Error()
	}
	fmt.Fprintln(out, strings.Join(lines, "\n"))
}

func (cfg *config) initArgvParser() {
	// The default documented way of using pborman/options is to muck with globals
	// Operate over objects instead, allowing us to re-parse argv multiple times
	o := getopt.New()
	if err := options.RegisterSet("", cfg, o); err != nil {
		panic(errors.Wrap(err, "option set registration failed"))
	}
	cfg.optSet = o

	o.SetParameters("[INPUT [BREAKPOINT...]]")

	// Several options have the help-text assembled programmatically
	o.FlagLong(&cfg.requestedStrategy, "strategy", 0,
		"Split strategy. One of: "+text.AvailableMapKeys(availableStrategies)+". Without this option or a shortcut the strategy is 'lines_1000'",
		"name_opt1_opt2_..._optN",
	)
	o.FlagLong(&cfg.requestedCodec, "compress", 0,
		"Codec applied to every output file, its extension is appended to the name. One of: "+text.AvailableMapKeys(availableCodecs)+". Default:",
		"codec_opt1_opt2_..._optN",
	)
	o.FlagLong(&cfg.hashFunc, "hash", 0,
		"Digest computed over the stored bytes of every output file, one of: "+text.AvailableMapKeys(hasher.AvailableHashers)+". Default:",
		"algname",
	)
	o.FlagLong(&cfg.emittersStdErr, "emit-stderr", 0, fmt.Sprintf(
		"One or more emitters to activate on stdERR. Available emitters are %s. Default:",
		text.AvailableMapKeys(newEmissionTargets()),
	), "comma,sep,emitters")
}

func (spl *Splitter) setupEmitters(stderr io.Writer) (argErrs []error) {

	spl.emitters = newEmissionTargets()

	activeStderr := make(map[string]bool, len(spl.settings.EmitStderr))
	for _, s := range spl.settings.EmitStderr {
		if val, exists := spl.emitters[s]; !exists {
			argErrs = append(argErrs, configErrorf(
				"invalid emitter '%s' specified for --emit-stderr. Available emitters are: %s",
				s,
				text.AvailableMapKeys(spl.emitters),
			))
		} else if activeStderr[s] || val != nil {
			argErrs = append(argErrs, configErrorf("emitter '%s' specified more than once", s))
		} else if s != emNone {
			spl.emitters[s] = stderr
		}
		activeStderr[s] = true
	}

	for _, exclusiveEmitter := range []string{
		emNone,
		emStatsText,
	} {
		if activeStderr[exclusiveEmitter] && len(activeStderr) > 1 {
			argErrs = append(argErrs, configErrorf(
				"when specified, emitter '%s' must be the sole argument to --emit-stderr",
				exclusiveEmitter,
			))
		}
	}

	return
}
