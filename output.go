package streamsplit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/anjor/streamsplit/internal/constants"
	"github.com/spf13/afero"
)

// SANCHECK: arbitrary, large enough to batch many short lines per write(2)
const outputBufferSize = 128 * 1024

type outputFile struct {
	_ constants.Incomparabe

	name   string
	fh     afero.File
	buf    *bufio.Writer
	wire   countingWriter
	enc    io.WriteCloser
	digest hash.Hash

	size  int64
	lines int64
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (n int, err error) {
	n, err = cw.w.Write(p)
	cw.n += int64(n)
	return
}

// openFile creates (or truncates) the file for the current index and
// advances the index.
func (spl *Splitter) openFile() (*outputFile, error) {

	sfx, err := spl.suffixFunc(spl.fileIndex)
	if err != nil {
		return nil, &IOError{Op: "naming output file", Err: err}
	}
	name := spl.settings.Prefix + sfx + spl.settings.AdditionalSuffix + spl.codec.Extension()

	if spl.settings.Verbose {
		if _, err := fmt.Fprintf(spl.stdout, "creating file '%s'\n", name); err != nil {
			return nil, &IOError{Op: "writing to stdOUT", Err: err}
		}
	}

	fh, err := spl.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return nil, &IOError{Op: "creating output file", Err: err}
	}
	spl.fileIndex++

	out := &outputFile{
		name: name,
		fh:   fh,
	}
	out.wire.w = fh
	out.buf = bufio.NewWriterSize(&out.wire, outputBufferSize)

	var sink io.Writer = out.buf
	if spl.hashMaker != nil {
		out.digest = spl.hashMaker()
		sink = io.MultiWriter(out.buf, out.digest)
	}

	if out.enc, err = spl.codec.NewWriter(sink); err != nil {
		fh.Close() //nolint:errcheck
		return nil, &IOError{Op: "initializing codec for " + name, Err: err}
	}

	spl.log.Debugf("opened output file '%s'", name)
	return out, nil
}

func (out *outputFile) write(frag string) error {
	if len(frag) == 0 {
		return nil
	}
	if _, err := io.WriteString(out.enc, frag); err != nil {
		return &IOError{Op: "writing to " + out.name, Err: err}
	}
	out.size += int64(len(frag))
	return nil
}

// close flushes every layer down to the file and closes it. The file is
// closed even if flushing fails.
func (out *outputFile) close() (err error) {
	if err = out.enc.Close(); err == nil {
		err = out.buf.Flush()
	}
	if closeErr := out.fh.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return &IOError{Op: "closing " + out.name, Err: err}
	}
	return nil
}

type fileEvent struct {
	Event    string `json:"event"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Lines    int64  `json:"lines"`
	WireSize int64  `json:"wiresize"`
	Digest   string `json:"digest,omitempty"`
	Elided   bool   `json:"elided,omitempty"`
}

// finishFile closes out and, when the run is still healthy, reports it.
func (spl *Splitter) finishFile(out *outputFile, report bool) error {

	if err := out.close(); err != nil {
		return err
	}

	elide := out.size == 0 && spl.settings.ElideEmpty
	spl.statSummary.addFile(out, elide)

	if elide {
		if err := spl.fs.Remove(out.name); err != nil {
			return &IOError{Op: "removing empty output file", Err: err}
		}
		spl.log.Debugf("removed empty output file '%s'", out.name)
	}

	if !report {
		return nil
	}

	if !elide && !spl.settings.Silent {
		if _, err := fmt.Fprintf(spl.stdout, "%d\n", out.size); err != nil {
			return &IOError{Op: "writing to stdOUT", Err: err}
		}
	}

	if w := spl.emitters[emFilesJsonl]; w != nil {
		ev := fileEvent{
			Event:    "file",
			Name:     out.name,
			Size:     out.size,
			Lines:    out.lines,
			WireSize: out.wire.n,
			Elided:   elide,
		}
		if out.digest != nil {
			ev.Digest = spl.formattedDigest(out.digest.Sum(nil))
		}

		jsonl, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", jsonl); err != nil {
			return &IOError{Op: fmt.Sprintf("emitting '%s'", emFilesJsonl), Err: err}
		}
	}

	return nil
}
