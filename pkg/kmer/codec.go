package kmer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// AlphabetSize is the number of symbols a 2-bit codec can represent.
	AlphabetSize = 4
	// MaxOrder is the largest supported k. A model of order k holds 4^k rows
	// of counts, so this bounds memory rather than the hash width.
	MaxOrder = 12
	// DefaultSymbols is the nucleotide alphabet used when none is given.
	DefaultSymbols = "ACGT"
)

var (
	// ErrInvalidAlphabet is returned when an alphabet does not hold exactly
	// four distinct symbols.
	ErrInvalidAlphabet = errors.New("kmer: alphabet must contain exactly 4 distinct symbols")
	// ErrInvalidSymbol is returned by strict lookups for bytes outside the alphabet.
	ErrInvalidSymbol = errors.New("kmer: symbol not in alphabet")
	// ErrInvalidOrder is returned when k is outside [1, MaxOrder].
	ErrInvalidOrder = fmt.Errorf("kmer: order must be between 1 and %d", MaxOrder)
)

// Hash is a bit-packed k-mer, most recent symbol in the low two bits.
type Hash uint64

// SymbolError reports the offending byte of a failed strict lookup.
// It matches ErrInvalidSymbol with errors.Is.
type SymbolError struct {
	Symbol byte
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("kmer: symbol %q not in alphabet", e.Symbol)
}

func (e *SymbolError) Is(target error) bool {
	return target == ErrInvalidSymbol
}

// Alphabet is an ordered set of four symbols. Symbols are stored upper-case
// and sorted by byte value, so the code of a symbol is its rank.
type Alphabet [AlphabetSize]byte

// DefaultAlphabet is {A, C, G, T}.
var DefaultAlphabet = Alphabet{'A', 'C', 'G', 'T'}

// NewAlphabet validates and normalises the given symbols.
func NewAlphabet(symbols string) (Alphabet, error) {
	var a Alphabet
	if len(symbols) != AlphabetSize {
		return a, fmt.Errorf("%w: got %d symbols", ErrInvalidAlphabet, len(symbols))
	}
	up := []byte(strings.ToUpper(symbols))
	sort.Slice(up, func(i, j int) bool { return up[i] < up[j] })
	for i := 1; i < len(up); i++ {
		if up[i] == up[i-1] {
			return a, fmt.Errorf("%w: duplicate symbol %q", ErrInvalidAlphabet, up[i])
		}
	}
	copy(a[:], up)
	return a, nil
}

// String returns the symbols in code order.
func (a Alphabet) String() string {
	return string(a[:])
}

// Symbols returns one string per symbol in code order, the form used by
// model dumps.
func (a Alphabet) Symbols() []string {
	out := make([]string, len(a))
	for i, b := range a {
		out[i] = string(b)
	}
	return out
}

// Codec maps alphabet symbols to 2-bit codes and back.
type Codec struct {
	alphabet Alphabet
	// table holds code+1 for every accepted byte, 0 for everything else.
	table [256]uint8
}

// DefaultCodec encodes the default nucleotide alphabet.
var DefaultCodec = NewCodec(DefaultAlphabet)

// NewCodec builds a case-insensitive codec for a validated alphabet.
func NewCodec(a Alphabet) *Codec {
	c := &Codec{alphabet: a}
	for code, sym := range a {
		c.table[sym] = uint8(code) + 1
		c.table[toLower(sym)] = uint8(code) + 1
	}
	return c
}

// Alphabet returns the alphabet the codec was built from.
func (c *Codec) Alphabet() Alphabet {
	return c.alphabet
}

// Code returns the 2-bit code of b.
func (c *Codec) Code(b byte) (uint8, error) {
	v := c.table[b]
	if v == 0 {
		return 0, &SymbolError{Symbol: b}
	}
	return v - 1, nil
}

// LenientCode returns the 2-bit code of b, mapping unknown bytes to 0.
func (c *Codec) LenientCode(b byte) uint8 {
	v := c.table[b]
	if v == 0 {
		return 0
	}
	return v - 1
}

// Symbol returns the symbol for code. Only the low two bits are used.
func (c *Codec) Symbol(code uint8) byte {
	return c.alphabet[code&3]
}

// Decode unpacks the k symbols of h, oldest first.
func (c *Codec) Decode(h Hash, k int) string {
	buf := make([]byte, k)
	c.DecodeTo(buf, h)
	return string(buf)
}

// DecodeTo fills dst with the len(dst) most recent symbols of h.
func (c *Codec) DecodeTo(dst []byte, h Hash) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = c.alphabet[h&3]
		h >>= 2
	}
}

// Encode packs kmer into a Hash, failing on symbols outside the alphabet.
func (c *Codec) Encode(kmer string) (Hash, error) {
	var h Hash
	for i := 0; i < len(kmer); i++ {
		code, err := c.Code(kmer[i])
		if err != nil {
			return 0, fmt.Errorf("encode %q at position %d: %w", kmer, i, err)
		}
		h = h<<2 | Hash(code)
	}
	return h, nil
}

// ValidateOrder checks that k can be used for a model.
func ValidateOrder(k int) error {
	if k < 1 || k > MaxOrder {
		return fmt.Errorf("%w: got %d", ErrInvalidOrder, k)
	}
	return nil
}

// Mask returns 4^k - 1, the bitmask covering a k-mer.
func Mask(k int) Hash {
	return Hash(1)<<(2*uint(k)) - 1
}

// Size returns 4^k, the number of distinct k-mers.
func Size(k int) int {
	return 1 << (2 * uint(k))
}

// Roll appends code to h and drops the oldest symbol of a k-mer.
func Roll(h Hash, code uint8, k int) Hash {
	return (h<<2 | Hash(code)) & Mask(k)
}

// SymbolToCode encodes a nucleotide, case-insensitively.
func SymbolToCode(b byte) (uint8, error) {
	return DefaultCodec.Code(b)
}

// CodeToSymbol decodes a nucleotide code.
func CodeToSymbol(code uint8) byte {
	return DefaultCodec.Symbol(code)
}

// HashToKmer decodes a nucleotide k-mer.
func HashToKmer(h Hash, k int) string {
	return DefaultCodec.Decode(h, k)
}

// KmerToHash encodes a nucleotide k-mer.
func KmerToHash(kmer string) (Hash, error) {
	return DefaultCodec.Encode(kmer)
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
