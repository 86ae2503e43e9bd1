package streamsplit

import (
	"github.com/anjor/streamsplit/internal/constants"
	"github.com/pborman/getopt/v2"
)

type config struct {
	optSet *getopt.Set

	//
	// Bulk of CLI options definition starts here, the rest further down in initArgvParser()
	//

	Help    bool `getopt:"-h --help         Display basic help"`
	HelpAll bool `getopt:"--help-all        Display full help including options for every currently supported strategy/codec"`
	Version bool `getopt:"--version         Display version information"`

	Prefix           string `getopt:"-f --prefix=PREFIX            Prefix of every output file name. Default:"`
	SuffixWidth      int    `getopt:"-n --digits=N                 Amount of suffix digits (or letters). Default:"`
	Alphabetic       bool   `getopt:"--alphabetic                  Use base-26 letter suffixes (aa, ab, ...) instead of decimal ones"`
	SuffixFormat     string `getopt:"-b --suffix-format=FORMAT     printf-style suffix format with one integer conversion, e.g. '%03d'. Overrides --digits"`
	AdditionalSuffix string `getopt:"--additional-suffix=SUFFIX   Appended to every output file name, after the generated suffix"`

	Silent     bool   `getopt:"-s --silent                   Do not print the byte count of each output file"`
	Verbose    bool   `getopt:"-v --verbose                  Print a diagnostic just before each output file is opened"`
	ElideEmpty bool   `getopt:"-z --elide-empty-files        Remove output files that end up empty"`
	Separator  string `getopt:"-t --separator=CHAR           Line separator, a single byte or one of '\\0' '\\n' '\\t'. Default:"`

	// strategy shortcuts, mutually exclusive with --strategy and positional breakpoints
	Lines     string `getopt:"-l --lines=N                  Put N lines in every output file, same as --strategy=lines_N"`
	Bytes     string `getopt:"--bytes=SIZE                  Put SIZE bytes in every output file, same as --strategy=bytes_SIZE"`
	LineBytes string `getopt:"-C --line-bytes=SIZE          Put at most SIZE bytes of whole lines in every output file, same as --strategy=line-bytes_SIZE"`

	DigestMultibase string `getopt:"--digest-multibase=base      Multibase used when emitting digests, one of 'base32', 'base36'. Default:"`
	LogLevel        string `getopt:"--log-level=level            Diagnostic verbosity on stdERR: debug, info, warn, error. Default:"`

	RingBufferSize     int `getopt:"--ring-buffer-size=bytes        The size of the quantized ring buffer used for ingestion. Default:"`
	RingBufferSectSize int `getopt:"--ring-buffer-sync-size=bytes   (EXPERT SETTING) The size of each buffer synchronization sector. Default:"` // option vaguely named 'sync' to not confuse users
	RingBufferMinRead  int `getopt:"--ring-buffer-min-sysread=bytes (EXPERT SETTING) Perform next read(2) only when the specified amount of free space is available in the buffer. Default:"`

	emittersStdErr []string // Emitter spec: option/helptext in initArgvParser()
	hashFunc       string   // hash function to use: option/helptext in initArgvParser()

	requestedStrategy string // Strategy: option/helptext in initArgvParser()
	requestedCodec    string // Codec: option/helptext in initArgvParser()

	// no-option-attached, these are instantiation error accumulators
	erroredStrategies []string
	erroredCodecs     []string
}

func defaultConfig() config {
	d := DefaultSettings()
	return config{
		Prefix:             d.Prefix,
		SuffixWidth:        d.SuffixWidth,
		Separator:          `\n`,
		DigestMultibase:    d.DigestMultibase,
		LogLevel:           d.LogLevel,
		RingBufferSize:     constants.DefaultRingBufferSize,
		RingBufferSectSize: constants.DefaultRingBufferSectSize,
		RingBufferMinRead:  constants.DefaultRingBufferMinRead,
		emittersStdErr:     d.EmitStderr,
		hashFunc:           d.Hash,
		requestedCodec:     d.Codec,
	}
}
