// Package modelfile implements the text-format-v1 model serializer (spec
// §4.6/§6, component C6): saving and loading the pattern, special-token
// table and learned merge list that together define a trained tokenizer,
// plus the two companion artifacts named in §6 — the human-readable vocab
// dump and the binary encoded-token file.
//
// Grounded on the teacher's internal/tokenizer.LoadTokenizerFromFiles for
// the overall "read lines, validate, build" shape, adapted from a
// vocab.json/merges.txt pair to this module's single text-format-v1 file.
package modelfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bpetok/internal/errs"
	"github.com/bpetok/internal/mergerule"
	"github.com/bpetok/internal/vocabulary"
)

// version is the only text-format header this package writes or accepts.
const version = "minbpe v1"

// SpecialToken is one entry of the model's special-token table.
type SpecialToken struct {
	Token string
	ID    int
}

// Model is everything the text-format-v1 file persists: the pre-tokenizer
// pattern, the special-token table, and the ordered merge list. Vocab is
// never stored directly — §4.6 reconstructs it by replaying merges.
type Model struct {
	Pattern  string
	Specials []SpecialToken
	Merges   []mergerule.Merge
}

// Save writes m to path in text-format v1: version line, pattern line,
// special-token count and entries, then the merge list in learned order.
func Save(path string, m Model) error {
	if len(m.Merges) == 0 && len(m.Specials) == 0 {
		return errs.New(errs.StateError, "modelfile.Save", fmt.Errorf("refusing to save a model with no merges"))
	}

	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.IoError, "modelfile.Save", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	fmt.Fprintln(w, version)
	fmt.Fprintln(w, m.Pattern)
	fmt.Fprintln(w, len(m.Specials))
	for _, s := range m.Specials {
		if strings.ContainsAny(s.Token, " \t\n\r") {
			return errs.New(errs.InvalidArgument, "modelfile.Save", fmt.Errorf("special token %q contains whitespace", s.Token))
		}
		fmt.Fprintf(w, "%s %d\n", s.Token, s.ID)
	}
	for _, mg := range m.Merges {
		fmt.Fprintf(w, "%d %d\n", mg.A, mg.B)
	}

	if err := w.Flush(); err != nil {
		return errs.New(errs.IoError, "modelfile.Save", err)
	}
	return nil
}

// Load parses a text-format-v1 file and rebuilds the merge list with its
// implicit IDs (256 + line index), per spec §6. It does not reconstruct the
// vocabulary; callers that need one should pass Merges to
// vocabulary.FromMerges.
func Load(path string) (Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return Model{}, errs.New(errs.IoError, "modelfile.Load", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("empty model file"))
	}
	if sc.Text() != version {
		return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("unrecognised version header %q, want %q", sc.Text(), version))
	}

	if !sc.Scan() {
		return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("missing pattern line"))
	}
	pattern := sc.Text()

	if !sc.Scan() {
		return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("missing special-token count line"))
	}
	nSpecial, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
	if err != nil || nSpecial < 0 {
		return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("invalid special-token count %q", sc.Text()))
	}

	specials := make([]SpecialToken, 0, nSpecial)
	for i := 0; i < nSpecial; i++ {
		if !sc.Scan() {
			return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("truncated special-token table at entry %d", i))
		}
		parts := strings.Fields(sc.Text())
		if len(parts) != 2 {
			return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("malformed special-token line %q", sc.Text()))
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("malformed special-token id %q", parts[1]))
		}
		specials = append(specials, SpecialToken{Token: parts[0], ID: id})
	}

	var merges []mergerule.Merge
	for i := 0; sc.Scan(); i++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("malformed merge line %q", line))
		}
		a, errA := strconv.Atoi(parts[0])
		b, errB := strconv.Atoi(parts[1])
		if errA != nil || errB != nil {
			return Model{}, errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("malformed merge line %q", line))
		}
		merges = append(merges, mergerule.Merge{A: a, B: b, NewID: 256 + i})
	}
	if err := sc.Err(); err != nil {
		return Model{}, errs.New(errs.IoError, "modelfile.Load", err)
	}

	if err := validateSpecials(specials, len(merges)); err != nil {
		return Model{}, err
	}

	return Model{Pattern: pattern, Specials: specials, Merges: merges}, nil
}

// validateSpecials enforces the §9 design note: no special-token ID may
// fall inside the learned-token ID space [0, 256+len(merges)).
func validateSpecials(specials []SpecialToken, numMerges int) error {
	ceiling := 256 + numMerges
	for _, s := range specials {
		if s.ID < ceiling {
			return errs.New(errs.FormatError, "modelfile.Load", fmt.Errorf("special token %q has id %d, which collides with the learned-token range [0,%d)", s.Token, s.ID, ceiling))
		}
	}
	return nil
}

// WriteVocab produces the sibling human-readable vocab dump named in §6:
// one line per entry, `<id, width 6>: "<printable bytes>"`, with
// non-printable bytes rendered as a replacement glyph.
func WriteVocab(path string, vocab *vocabulary.Vocabulary) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.IoError, "modelfile.WriteVocab", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for id := 0; id < vocab.Size(); id++ {
		bs, _ := vocab.Bytes(id)
		fmt.Fprintf(w, "%-6d: \"%s\"\n", id, renderPrintable(bs))
	}
	if err := w.Flush(); err != nil {
		return errs.New(errs.IoError, "modelfile.WriteVocab", err)
	}
	return nil
}

// renderPrintable substitutes the Unicode replacement character for any
// byte outside printable ASCII, so the dump is always readable on a
// terminal regardless of what a merge happened to glue together.
func renderPrintable(bs []byte) string {
	var sb strings.Builder
	for _, b := range bs {
		if b >= 0x20 && b < 0x7f {
			sb.WriteByte(b)
		} else {
			sb.WriteRune('�')
		}
	}
	return sb.String()
}

// WriteTokens writes ids as a flat sequence of little-endian uint32s, the
// binary encoded-token file format named in §6.
func WriteTokens(path string, ids []int) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.New(errs.IoError, "modelfile.WriteTokens", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var buf [4]byte
	for _, id := range ids {
		if id < 0 || uint64(id) > uint64(^uint32(0)) {
			return errs.New(errs.InvalidArgument, "modelfile.WriteTokens", fmt.Errorf("token id %d does not fit in a uint32", id))
		}
		binary.LittleEndian.PutUint32(buf[:], uint32(id))
		if _, err := w.Write(buf[:]); err != nil {
			return errs.New(errs.IoError, "modelfile.WriteTokens", err)
		}
	}
	if err := w.Flush(); err != nil {
		return errs.New(errs.IoError, "modelfile.WriteTokens", err)
	}
	return nil
}

// ReadTokens reads a binary encoded-token file, decoding until EOF.
func ReadTokens(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.IoError, "modelfile.ReadTokens", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var ids []int
	var buf [4]byte
	for {
		_, err := io.ReadFull(r, buf[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.New(errs.FormatError, "modelfile.ReadTokens", fmt.Errorf("truncated token stream: %w", err))
		}
		ids = append(ids, int(binary.LittleEndian.Uint32(buf[:])))
	}
	return ids, nil
}

// LoadSpecialTokens reads the special-tokens input file named in §6: plain
// text, one `token id` pair per line separated by whitespace.
func LoadSpecialTokens(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.New(errs.IoError, "modelfile.LoadSpecialTokens", err)
	}
	defer f.Close()

	out := make(map[string]int)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, errs.New(errs.FormatError, "modelfile.LoadSpecialTokens", fmt.Errorf("malformed line %q", line))
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, errs.New(errs.FormatError, "modelfile.LoadSpecialTokens", fmt.Errorf("malformed id %q", parts[1]))
		}
		out[parts[0]] = id
	}
	if err := sc.Err(); err != nil {
		return nil, errs.New(errs.IoError, "modelfile.LoadSpecialTokens", err)
	}
	return out, nil
}
