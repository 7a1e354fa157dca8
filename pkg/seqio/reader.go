package seqio

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

func init() {
	// References routinely contain IUPAC codes and soft-masked bases. They
	// are handled by the model, so the reader must not reject them.
	seq.ValidateSeq = false
}

// Record is one named sequence read from a reference file. Both slices are
// only valid for the duration of the callback they are passed to.
type Record struct {
	Name []byte
	Seq  []byte
}

// ReadFile calls fn for every record in the FASTA or FASTQ file at path.
// Compressed files are detected automatically and "-" reads standard input.
// Reading stops at the first error returned by fn or when ctx is done.
// It returns the number of records read.
func ReadFile(ctx context.Context, path string, fn func(Record) error) (int, error) {
	reader, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read seq file %s", path)
	}
	defer reader.Close()

	var n int
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return n, errors.Wrapf(err, "read seq %d in %s", n, path)
		}
		if err := fn(Record{Name: record.Name, Seq: record.Seq.Seq}); err != nil {
			return n, errors.Wrapf(err, "seq %s in %s", record.Name, path)
		}
		n++
	}
	return n, nil
}
