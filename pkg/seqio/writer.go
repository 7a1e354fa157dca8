package seqio

import (
	"bufio"
	"io"
)

// LineWidth is the number of residues per FASTA line.
const LineWidth = 80

// FASTAWriter writes a single FASTA record, wrapping the sequence at
// LineWidth columns. Sequence bytes can be written in any number of calls.
type FASTAWriter struct {
	w      *bufio.Writer
	width  int
	column int
	err    error
}

// NewFASTAWriter writes the header line ">name" to w and returns a writer
// for the sequence. Close must be called to terminate the last line and
// flush.
func NewFASTAWriter(w io.Writer, name string) (*FASTAWriter, error) {
	fw := &FASTAWriter{w: bufio.NewWriter(w), width: LineWidth}
	if _, err := fw.w.WriteString(">" + name + "\n"); err != nil {
		return nil, err
	}
	return fw, nil
}

// Write appends sequence bytes, inserting a newline every LineWidth residues.
func (fw *FASTAWriter) Write(p []byte) (int, error) {
	if fw.err != nil {
		return 0, fw.err
	}
	var written int
	for len(p) > 0 {
		if fw.column == fw.width {
			if fw.err = fw.w.WriteByte('\n'); fw.err != nil {
				return written, fw.err
			}
			fw.column = 0
		}
		n := min(fw.width-fw.column, len(p))
		if _, fw.err = fw.w.Write(p[:n]); fw.err != nil {
			return written, fw.err
		}
		fw.column += n
		written += n
		p = p[n:]
	}
	return written, nil
}

// Close ends the record with a newline and flushes the buffer. It does not
// close the underlying writer.
func (fw *FASTAWriter) Close() error {
	if fw.err != nil {
		return fw.err
	}
	if fw.column > 0 {
		if fw.err = fw.w.WriteByte('\n'); fw.err != nil {
			return fw.err
		}
	}
	fw.err = fw.w.Flush()
	return fw.err
}
