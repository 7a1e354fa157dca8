package markov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// GenerateTo samples a sequence of length symbols and writes it to w in
// chunks, so very long sequences never need to be held in memory. The
// context is checked between chunks. It returns the number of symbols
// written.
func (g *Generator) GenerateTo(ctx context.Context, w io.Writer, length int) (int64, error) {
	var written int64
	err := g.generate(ctx, length, func(chunk []byte) error {
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return fmt.Errorf("failed to write generated sequence: %w", err)
		}
		return nil
	})
	return written, err
}

// GenerateStream samples a sequence in the background and returns a
// read-only channel of chunks. Each chunk is a fresh slice owned by the
// receiver. The channel is closed once generation is complete or the
// context is cancelled.
//
// The Generator must not be used by other calls until the channel is closed.
func (g *Generator) GenerateStream(ctx context.Context, length int) (<-chan []byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	chunkChan := make(chan []byte)

	go func() {
		defer close(chunkChan)

		err := g.generate(ctx, length, func(chunk []byte) error {
			out := make([]byte, len(chunk))
			copy(out, chunk)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case chunkChan <- out:
				return nil
			}
		})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			g.logger.DebugContext(ctx, "Generation stream cancelled by context")
			return
		}
		if err != nil {
			g.logger.ErrorContext(ctx, "generation stream failed", slog.Any("error", err))
		}
	}()

	return chunkChan, nil
}
