package streamsplit

import (
	"io"
	"os"
	"strings"

	splcodec "github.com/anjor/streamsplit/internal/codec"
	"github.com/anjor/streamsplit/internal/codec/gzip"
	"github.com/anjor/streamsplit/internal/codec/noop"
	"github.com/anjor/streamsplit/internal/codec/xz"
	"github.com/anjor/streamsplit/internal/codec/zstd"
	"github.com/anjor/streamsplit/internal/constants"
	"github.com/anjor/streamsplit/internal/hasher"
	splstrategy "github.com/anjor/streamsplit/internal/strategy"
	"github.com/anjor/streamsplit/internal/strategy/breakpoints"
	"github.com/anjor/streamsplit/internal/strategy/bytecount"
	"github.com/anjor/streamsplit/internal/strategy/linecount"
	"github.com/anjor/streamsplit/internal/suffix"
	"github.com/anjor/streamsplit/internal/util/argparser"
	"github.com/anjor/streamsplit/internal/util/logging"
	"github.com/anjor/streamsplit/internal/util/text"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var availableStrategies = map[string]splstrategy.Initializer{
	"lines":       linecount.NewStrategy,
	"bytes":       bytecount.NewStrategy,
	"line-bytes":  bytecount.NewLineBoundaryStrategy,
	"breakpoints": breakpoints.NewStrategy,
}
var availableCodecs = map[string]splcodec.Initializer{
	"none": noop.NewCodec,
	"gzip": gzip.NewCodec,
	"zstd": zstd.NewCodec,
	"xz":   xz.NewCodec,
}

// Settings is the resolved configuration of a single split run.
type Settings struct {
	// "-" reads the stream handed to ProcessInput
	Input string

	Prefix           string
	AdditionalSuffix string
	SuffixWidth      int
	// printf format with a single integer conversion, overrides SuffixWidth
	SuffixFormat string
	Alphabetic   bool

	Silent     bool
	Verbose    bool
	ElideEmpty bool
	Separator  byte

	// name_opt1_opt2..., see --help-all
	Strategy string
	Codec    string

	Hash            string
	DigestMultibase string
	EmitStderr      []string
	LogLevel        string

	RingBufferSize     int
	RingBufferSectSize int
	RingBufferMinRead  int
}

func DefaultSettings() Settings {
	return Settings{
		Input:              "-",
		Prefix:             constants.DefaultPrefix,
		SuffixWidth:        constants.DefaultSuffixWidth,
		Separator:          '\n',
		Strategy:           constants.DefaultStrategy,
		Codec:              "none",
		Hash:               "none",
		DigestMultibase:    "base36",
		EmitStderr:         []string{emNone},
		LogLevel:           "warn",
		RingBufferSize:     constants.DefaultRingBufferSize,
		RingBufferSectSize: constants.DefaultRingBufferSectSize,
		RingBufferMinRead:  constants.DefaultRingBufferMinRead,
	}
}

type Splitter struct {
	cfg      config
	settings Settings

	strategy        splstrategy.Strategy
	codec           splcodec.Codec
	suffixFunc      suffix.Func
	hashMaker       hasher.Maker
	formattedDigest func([]byte) string

	fileIndex   int
	statSummary statSummary

	fs       afero.Fs
	log      *zap.SugaredLogger
	stdout   io.Writer
	emitters emissionTargets
}

// NewSplitter validates the settings and sets up the strategy, codec and
// naming for a run. All problems are reported at once.
func NewSplitter(s Settings, stdout, stderr io.Writer) (spl *Splitter, argErrs []error) {

	spl = &Splitter{
		settings:    s,
		statSummary: setStatSummary(),
		fs:          afero.NewOsFs(),
		stdout:      stdout,
	}

	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		argErrs = append(argErrs, configErrorf("invalid log level '%s'", s.LogLevel))
	}
	spl.log = logging.New(stderr, level).Named("streamsplit")

	if s.Input == "" {
		argErrs = append(argErrs, configErrorf("an input path (or '-' for stdIN) is required"))
	}

	argErrs = append(argErrs, spl.setupNaming()...)
	argErrs = append(argErrs, spl.setupStrategy()...)
	argErrs = append(argErrs, spl.setupCodec()...)
	argErrs = append(argErrs, spl.setupDigests()...)
	argErrs = append(argErrs, spl.setupEmitters(stderr)...)

	argErrs = append(argErrs, validateRingBuffer(s)...)

	return
}

// validateRingBuffer applies the sizing rules of the input ring buffer up
// front, so that a bad combination is reported as a configuration problem
// rather than as a failure to read the input.
func validateRingBuffer(s Settings) (argErrs []error) {

	if s.RingBufferMinRead < 1 || s.RingBufferMinRead > constants.LineRegionSize {
		argErrs = append(argErrs, configErrorf(
			"value of --ring-buffer-min-sysread must be between 1 and %d, got '%d'",
			constants.LineRegionSize,
			s.RingBufferMinRead,
		))
	}

	if minSize := 2*constants.LineRegionSize + maxInt(s.RingBufferMinRead, 1); s.RingBufferSize < minSize {
		argErrs = append(argErrs, configErrorf(
			"value of --ring-buffer-size must be at least %d (twice %d plus --ring-buffer-min-sysread), got '%d'",
			minSize,
			constants.LineRegionSize,
			s.RingBufferSize,
		))
	}

	if s.RingBufferSectSize < 1 || (s.RingBufferSize > 0 && s.RingBufferSectSize > s.RingBufferSize/3) {
		argErrs = append(argErrs, configErrorf(
			"value of --ring-buffer-sync-size must be between 1 and a third of --ring-buffer-size, got '%d'",
			s.RingBufferSectSize,
		))
	}

	return
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// SetFs replaces the filesystem output files are created on (and named
// inputs are read from).
func (spl *Splitter) SetFs(fs afero.Fs) {
	spl.fs = fs
}

func (spl *Splitter) SetLogger(l *zap.SugaredLogger) {
	spl.log = l
}

// ReadsStdin reports whether ProcessInput consumes the stream handed to it
// rather than opening a named input.
func (spl *Splitter) ReadsStdin() bool {
	return spl.settings.Input == "-"
}

func (spl *Splitter) setupNaming() (argErrs []error) {
	s := spl.settings

	if s.Prefix == "" && s.AdditionalSuffix == "" && s.SuffixFormat == "" && s.SuffixWidth < 1 {
		argErrs = append(argErrs, configErrorf("output file names can not be empty"))
	}
	if strings.ContainsRune(s.AdditionalSuffix, os.PathSeparator) {
		argErrs = append(argErrs, configErrorf("additional suffix '%s' contains a path separator", s.AdditionalSuffix))
	}

	switch {
	case s.SuffixFormat != "":
		if s.Alphabetic {
			argErrs = append(argErrs, configErrorf("a suffix format can not be combined with alphabetic suffixes"))
		}
		f, err := suffix.FromFormat(s.SuffixFormat)
		if err != nil {
			argErrs = append(argErrs, &ConfigurationError{Err: err})
		}
		spl.suffixFunc = f

	case s.SuffixWidth < 1:
		argErrs = append(argErrs, configErrorf("suffix width must be a positive integer, got '%d'", s.SuffixWidth))

	case s.Alphabetic:
		spl.suffixFunc = suffix.AlphabeticFunc(s.SuffixWidth)

	default:
		spl.suffixFunc = suffix.NumericFunc(s.SuffixWidth)
	}

	return
}

func (spl *Splitter) setupStrategy() (argErrs []error) {

	if spl.settings.Strategy == "" {
		return []error{configErrorf(
			"you must specify a split strategy via '--strategy=name_opt1_opt2...'. Available strategy names are: %s",
			text.AvailableMapKeys(availableStrategies),
		)}
	}

	strategyArgs := argparser.PositionalArgs(spl.settings.Strategy)
	init, exists := availableStrategies[strategyArgs[0]]
	if !exists {
		return []error{configErrorf(
			"strategy '%s' not found. Available strategy names are: %s",
			strategyArgs[0],
			text.AvailableMapKeys(availableStrategies),
		)}
	}

	instance, initErrors := init(strategyArgs)
	if len(initErrors) > 0 {
		spl.cfg.erroredStrategies = append(spl.cfg.erroredStrategies, strategyArgs[0])
		for _, e := range initErrors {
			argErrs = append(argErrs, configErrorf(
				"initialization of strategy '%s' failed: %s",
				strategyArgs[0],
				e,
			))
		}
		return
	}

	spl.strategy = instance
	return
}

func (spl *Splitter) setupCodec() (argErrs []error) {

	codecArgs := argparser.PositionalArgs(spl.settings.Codec)
	init, exists := availableCodecs[codecArgs[0]]
	if !exists {
		return []error{configErrorf(
			"codec '%s' not found. Available codec names are: %s",
			codecArgs[0],
			text.AvailableMapKeys(availableCodecs),
		)}
	}

	instance, initErrors := init(codecArgs)
	if len(initErrors) > 0 {
		spl.cfg.erroredCodecs = append(spl.cfg.erroredCodecs, codecArgs[0])
		for _, e := range initErrors {
			argErrs = append(argErrs, configErrorf(
				"initialization of codec '%s' failed: %s",
				codecArgs[0],
				e,
			))
		}
		return
	}

	spl.codec = instance
	return
}

func (spl *Splitter) setupDigests() (argErrs []error) {

	maker, exists := hasher.AvailableHashers[spl.settings.Hash]
	if !exists {
		argErrs = append(argErrs, configErrorf(
			"hash function '%s' is not valid. Available hash names are %s",
			spl.settings.Hash,
			text.AvailableMapKeys(hasher.AvailableHashers),
		))
	}
	spl.hashMaker = maker
	spl.statSummary.SysStats.HashAccelerated = maker != nil && hasher.Accelerated(spl.settings.Hash)

	f, err := hasher.Formatter(spl.settings.DigestMultibase)
	if err != nil {
		argErrs = append(argErrs, &ConfigurationError{Err: errors.Wrapf(
			err, "available multibases are %s", text.AvailableMapKeys(hasher.AvailableMultibases),
		)})
	}
	spl.formattedDigest = f

	return
}

// ErrConfiguration matches every *ConfigurationError under errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ErrIO matches every *IOError under errors.Is.
var ErrIO = errors.New("i/o error")

type ConfigurationError struct {
	Err error
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Err: errors.Errorf(format, args...)}
}

func (e *ConfigurationError) Error() string        { return e.Err.Error() }
func (e *ConfigurationError) Unwrap() error        { return e.Err }
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string        { return e.Op + ": " + e.Err.Error() }
func (e *IOError) Unwrap() error        { return e.Err }
func (e *IOError) Is(target error) bool { return target == ErrIO }
