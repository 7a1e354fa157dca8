package markov

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/CTAG07/mpg/pkg/kmer"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// Keys of a model dump. A dump must contain exactly these three.
const (
	dumpKeyAlphabet    = "alphabet"
	dumpKeyK           = "k"
	dumpKeyTransitions = "transitions"
)

var dumpKeys = []string{dumpKeyAlphabet, dumpKeyK, dumpKeyTransitions}

// maxExactCount is the largest count a float64 dump entry can hold exactly.
const maxExactCount = 1 << 53

// exportedModel is the YAML form of a model. Transitions is built by hand
// so that every count row is written on a single line.
type exportedModel struct {
	Alphabet    []string   `yaml:"alphabet,flow"`
	K           int        `yaml:"k"`
	Transitions *yaml.Node `yaml:"transitions"`
}

// Save writes the model's alphabet, order and raw count matrix as YAML.
// Derived quantities are not persisted; they are recomputed by Fit.
func (m *Model) Save(w io.Writer) error {
	rows := &yaml.Node{Kind: yaml.SequenceNode}
	rows.Content = make([]*yaml.Node, 0, len(m.counts))
	for _, row := range m.counts {
		n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, c := range row {
			n.Content = append(n.Content, &yaml.Node{
				Kind:  yaml.ScalarNode,
				Tag:   "!!int",
				Value: strconv.FormatUint(c, 10),
			})
		}
		rows.Content = append(rows.Content, n)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(exportedModel{
		Alphabet:    m.alphabet.Symbols(),
		K:           m.k,
		Transitions: rows,
	}); err != nil {
		return fmt.Errorf("failed to encode model dump: %w", err)
	}
	return enc.Close()
}

// SaveFile writes the dump to path atomically.
func (m *Model) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write model dump %s: %w", path, err)
	}
	m.logger.Info("Model dump saved",
		slog.String("path", path),
		slog.Int("order", m.k),
	)
	return nil
}

// Load replaces the model with the contents of a YAML dump. The document
// must contain exactly the keys alphabet, k and transitions. On success the
// model is Unfit with the loaded counts; nothing from the previous state is
// kept apart from the Option settings. On failure the model is unchanged.
func (m *Model) Load(r io.Reader) error {
	var doc map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	if strings.Join(keys, ",") != strings.Join(dumpKeys, ",") {
		return fmt.Errorf("%w: expected keys %v, got %v", ErrSchema, dumpKeys, keys)
	}

	var symbols []string
	alphabetNode := doc[dumpKeyAlphabet]
	if err := alphabetNode.Decode(&symbols); err != nil {
		return fmt.Errorf("%w: alphabet: %v", ErrSchema, err)
	}
	for _, s := range symbols {
		if len(s) != 1 {
			return fmt.Errorf("%w: alphabet entry %q is not a single character", ErrSchema, s)
		}
	}

	var k int
	kNode := doc[dumpKeyK]
	if err := kNode.Decode(&k); err != nil {
		return fmt.Errorf("%w: k: %v", ErrSchema, err)
	}

	var raw [][]float64
	transitionsNode := doc[dumpKeyTransitions]
	if err := transitionsNode.Decode(&raw); err != nil {
		return fmt.Errorf("%w: transitions: %v", ErrSchema, err)
	}

	loaded := &Model{opts: m.opts, logger: m.logger}
	if err := loaded.init(k, strings.Join(symbols, "")); err != nil {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	if len(raw) != len(loaded.counts) {
		return fmt.Errorf("%w: order %d needs %d transition rows, got %d", ErrSchema, k, len(loaded.counts), len(raw))
	}
	for ctx, row := range raw {
		if len(row) != kmer.AlphabetSize {
			return fmt.Errorf("%w: transition row %d has %d columns, want %d", ErrSchema, ctx, len(row), kmer.AlphabetSize)
		}
		for a, v := range row {
			if v < 0 || v != math.Trunc(v) || v > maxExactCount {
				return fmt.Errorf("%w: transition count [%d][%d] = %v is not a non-negative integer", ErrSchema, ctx, a, v)
			}
			loaded.counts[ctx][a] = uint64(v)
		}
	}

	*m = *loaded
	m.logger.Debug("Model dump loaded",
		slog.Int("order", m.k),
		slog.String("alphabet", m.alphabet.String()),
	)
	return nil
}

// LoadFile loads a dump from path.
func (m *Model) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	if err := m.Load(f); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
