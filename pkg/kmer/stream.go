package kmer

import "io"

// Stream yields the rolling hash of every k-length window of a sequence.
// A Stream is single use; create a new one per sequence.
type Stream struct {
	seq   []byte
	k     int
	mask  Hash
	codec *Codec
	h     Hash
	pos   int
}

// NewStream returns a stream over seq. A nil codec means DefaultCodec.
// Bytes outside the alphabet are encoded as 0; callers that care about
// ambiguous bases must split the sequence first.
func NewStream(seq []byte, k int, c *Codec) *Stream {
	if c == nil {
		c = DefaultCodec
	}
	s := &Stream{
		seq:   seq,
		k:     k,
		mask:  Mask(k),
		codec: c,
		pos:   len(seq),
	}
	if k < 1 || len(seq) < k {
		return s
	}
	// Pre-load the first k-1 symbols.
	for _, b := range seq[:k-1] {
		s.h = s.h<<2 | Hash(c.LenientCode(b))
	}
	s.pos = k - 1
	return s
}

// Next returns the next window hash, or io.EOF once the sequence is consumed.
func (s *Stream) Next() (Hash, error) {
	if s.pos >= len(s.seq) {
		return 0, io.EOF
	}
	s.h = (s.h<<2 | Hash(s.codec.LenientCode(s.seq[s.pos]))) & s.mask
	s.pos++
	return s.h, nil
}

// Len returns the total number of hashes the stream yields, max(0, L-k+1).
func (s *Stream) Len() int {
	if s.k < 1 || len(s.seq) < s.k {
		return 0
	}
	return len(s.seq) - s.k + 1
}
