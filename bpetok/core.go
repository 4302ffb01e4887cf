// Package bpetok is the public facade over the trainer, codec, model
// serializer and vocabulary packages: it ties them into the single
// Tokenizer type an external caller (library user or CLI, spec.md §1)
// actually constructs.
package bpetok

import (
	"github.com/bpetok/internal/codec"
	"github.com/bpetok/internal/errs"
	"github.com/bpetok/internal/hfimport"
	"github.com/bpetok/internal/mergerule"
	"github.com/bpetok/internal/modelfile"
	"github.com/bpetok/internal/pairindex"
	"github.com/bpetok/internal/pretoken"
	"github.com/bpetok/internal/trainer"
	"github.com/bpetok/internal/vocabulary"
)

// ErrorKind classifies a failure the way spec §7 enumerates them.
type ErrorKind = errs.Kind

// Error is the public error type: a failing operation name, its kind, and
// the underlying cause.
type Error = errs.Error

// Error kinds (spec §7).
const (
	InvalidArgument = errs.InvalidArgument
	PatternError    = errs.PatternError
	IoError         = errs.IoError
	FormatError     = errs.FormatError
	StateError      = errs.StateError
)

// TieBreak selects how the trainer resolves equal pair counts (spec §4.2).
type TieBreak = pairindex.TieBreak

// Tie-break strategies (spec §4.2, §8 scenario 5).
const (
	TieFirst   = pairindex.First
	TieLexical = pairindex.Lexical
)

// Merge is one learned rewrite rule.
type Merge = mergerule.Merge

// Options configures a Tokenizer. Build one with New and the With*
// functions below rather than constructing it directly.
type Options struct {
	pattern  string
	tieBreak TieBreak
	verbose  bool
	specials map[string]int
}

// Option mutates an Options value during construction.
type Option func(*Options)

// WithPattern sets the pre-tokenization regex. Empty means a single chunk
// (the "basic" tokenizer of spec §6). Use pretoken.GPT2Pattern or
// pretoken.GPT4Pattern for the named presets.
func WithPattern(pattern string) Option {
	return func(o *Options) { o.pattern = pattern }
}

// WithTieBreak sets the strategy used to resolve equal-count pairs during
// training (spec §4.2). Defaults to TieFirst.
func WithTieBreak(tb TieBreak) Option {
	return func(o *Options) { o.tieBreak = tb }
}

// WithVerbose turns on a slog.Info line per learned merge during training
// (spec §4 supplement: verbose training progress).
func WithVerbose(v bool) Option {
	return func(o *Options) { o.verbose = v }
}

// WithSpecialToken registers a special token string and its reserved ID.
// Neither this option nor Train checks the ID against the learned-token
// range; Load reports FormatError for a saved model whose special ID falls
// inside [0, 256+number of merges).
func WithSpecialToken(token string, id int) Option {
	return func(o *Options) {
		if o.specials == nil {
			o.specials = make(map[string]int)
		}
		o.specials[token] = id
	}
}

func defaultOptions() Options {
	return Options{tieBreak: TieFirst}
}

// Tokenizer is the library's single stateful type: it owns a compiled
// pre-tokenizer, a vocabulary, an ordered merge list and a special-token
// table, and offers Train, Encode, Decode, Save and Load (spec §2, §4).
//
// A Tokenizer is not safe for concurrent mutation; concurrent Encode/Decode
// calls after Train/Load has completed are safe (spec §5).
type Tokenizer struct {
	splitter *pretoken.Splitter
	pattern  string
	tieBreak TieBreak
	verbose  bool

	specialsByString map[string]int
	specialsByID     map[int]string

	merges []Merge
	vocab  *vocabulary.Vocabulary

	// encoder and decoder are built once, whenever merges/vocab/specials
	// change (New, Train, Load, LoadGPT2Reference), and reused across every
	// Encode/Decode call — mirroring the teacher's LoadTokenizerFromFiles,
	// which built pairRank/pairToken once at load time for reuse across many
	// EncodeOffline calls rather than rebuilding them per call.
	encoder *codec.Encoder
	decoder *codec.Decoder
}

// New builds a Tokenizer from options. The pre-tokenization pattern is
// compiled immediately, so a bad pattern fails here with PatternError
// rather than at the first Train or Encode call.
func New(opts ...Option) (*Tokenizer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	splitter, err := pretoken.Compile(o.pattern)
	if err != nil {
		return nil, errs.New(errs.PatternError, "bpetok.New", err)
	}

	specialsByID := make(map[int]string, len(o.specials))
	for tok, id := range o.specials {
		specialsByID[id] = tok
	}

	t := &Tokenizer{
		splitter:         splitter,
		pattern:          o.pattern,
		tieBreak:         o.tieBreak,
		verbose:          o.verbose,
		specialsByString: o.specials,
		specialsByID:     specialsByID,
		vocab:            vocabulary.New(),
	}
	t.rebuild()
	return t, nil
}

// rebuild reconstructs the cached Encoder/Decoder from the Tokenizer's
// current splitter, vocab, merges and special-token tables. Must be called
// after anything that replaces one of those fields.
func (t *Tokenizer) rebuild() {
	t.encoder = codec.NewEncoder(t.vocab, t.merges, t.splitter, t.specialsByString)
	t.decoder = codec.NewDecoder(t.vocab, t.specialsByID)
}

// Train learns merges from corpus up to vocabSize total symbols (spec
// §4.4). Training replaces any merges and vocabulary from a previous Train
// or Load call.
func (t *Tokenizer) Train(corpus string, vocabSize int) error {
	res, err := trainer.Train(corpus, t.splitter, trainer.Options{
		VocabSize: vocabSize,
		TieBreak:  t.tieBreak,
		Verbose:   t.verbose,
	})
	if err != nil {
		return err
	}
	t.merges = res.Merges
	t.vocab = res.Vocab
	t.rebuild()
	return nil
}

// Encode turns text into a sequence of symbol IDs, applying special-token
// pre-splitting, pre-tokenization, and the learned merges in rank order
// (spec §4.5). Reuses the Encoder built by the last Train/Load call rather
// than reconstructing its pair-lookup table on every call.
func (t *Tokenizer) Encode(text string) ([]int, error) {
	ids, err := t.encoder.Encode(text)
	if err != nil {
		return nil, errs.New(errs.PatternError, "bpetok.Encode", err)
	}
	return ids, nil
}

// Decode maps a sequence of symbol IDs back to bytes. Unknown IDs are
// logged and skipped (spec §4.8), never fatal.
func (t *Tokenizer) Decode(ids []int) []byte {
	return t.decoder.Decode(ids)
}

// VocabSize reports 256 + number of learned merges (spec §4.7).
func (t *Tokenizer) VocabSize() int { return t.vocab.Size() }

// Merges returns the learned merge list, in rank order. The caller must
// not mutate the returned slice.
func (t *Tokenizer) Merges() []Merge { return t.merges }

// Save writes the tokenizer's pattern, special tokens and merges to path
// in text-format v1 (spec §4.6/§6). If writeVocab is true, a sibling
// "<path>.vocab" human-readable dump is also produced.
func (t *Tokenizer) Save(path string, writeVocab bool) error {
	specials := make([]modelfile.SpecialToken, 0, len(t.specialsByString))
	for tok, id := range t.specialsByString {
		specials = append(specials, modelfile.SpecialToken{Token: tok, ID: id})
	}

	if err := modelfile.Save(path, modelfile.Model{
		Pattern:  t.pattern,
		Specials: specials,
		Merges:   t.merges,
	}); err != nil {
		return err
	}

	if writeVocab {
		if err := modelfile.WriteVocab(path+".vocab", t.vocab); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a text-format-v1 model file and replaces this Tokenizer's
// pattern, special tokens, merges and vocabulary with it (spec §4.6). The
// vocabulary is rebuilt by replaying merges from ID 256 upward.
func (t *Tokenizer) Load(path string) error {
	m, err := modelfile.Load(path)
	if err != nil {
		return err
	}
	return t.adopt(m)
}

// LoadGPT2Reference seeds this Tokenizer from an externally-trained GPT-2
// vocab.json/merges.txt pair, for comparison or interop testing against a
// reference implementation, without changing this library's own model
// format (spec §4 supplement: GPT-2 reference vocabulary import).
func (t *Tokenizer) LoadGPT2Reference(vocabPath, mergesPath string) error {
	m, err := hfimport.LoadGPT2(vocabPath, mergesPath)
	if err != nil {
		return err
	}
	return t.adopt(m)
}

func (t *Tokenizer) adopt(m modelfile.Model) error {
	vocab, err := vocabulary.FromMerges(m.Merges)
	if err != nil {
		return errs.New(errs.FormatError, "bpetok.adopt", err)
	}

	splitter, err := pretoken.Compile(m.Pattern)
	if err != nil {
		return errs.New(errs.PatternError, "bpetok.adopt", err)
	}

	specialsByString := make(map[string]int, len(m.Specials))
	specialsByID := make(map[int]string, len(m.Specials))
	for _, s := range m.Specials {
		specialsByString[s.Token] = s.ID
		specialsByID[s.ID] = s.Token
	}

	t.pattern = m.Pattern
	t.splitter = splitter
	t.merges = m.Merges
	t.vocab = vocab
	t.specialsByString = specialsByString
	t.specialsByID = specialsByID
	t.rebuild()
	return nil
}

// SaveTokens writes ids to path as the binary encoded-token file format
// named in spec §6 (a flat little-endian uint32 sequence).
func (t *Tokenizer) SaveTokens(path string, ids []int) error {
	return modelfile.WriteTokens(path, ids)
}

// LoadTokens reads a binary encoded-token file produced by SaveTokens.
func LoadTokens(path string) ([]int, error) {
	return modelfile.ReadTokens(path)
}

// LoadSpecialTokensFile reads the special-tokens input file format named
// in spec §6 (plain text, one "token id" pair per line).
func LoadSpecialTokensFile(path string) (map[string]int, error) {
	return modelfile.LoadSpecialTokens(path)
}
