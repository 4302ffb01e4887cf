// Package hfimport loads a HuggingFace GPT-2 vocab.json/merges.txt pair and
// undoes GPT-2's byte-to-printable-rune remapping, producing a
// modelfile.Model expressed in this module's own ID space: the first 256
// IDs are raw byte values, exactly like vocabulary.New(), and every merge
// after that is renumbered 256+rank.
//
// Adapted from the teacher's internal/tokenizer.LoadTokenizerFromFiles,
// which built a bespoke Tokenizer struct straight from GPT-2's native ID
// space. That struct is gone here; what is kept is the cursed byte-decoder
// ritual (buildCursedByteDecoder / decodeTokenString) and the vocab/merges
// file parsing, retargeted to emit a model this library's own Save/Load and
// Vocabulary types understand.
package hfimport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bpetok/internal/errs"
	"github.com/bpetok/internal/mergerule"
	"github.com/bpetok/internal/modelfile"
	"github.com/bpetok/internal/pretoken"
)

// gpt2Sources names the two files LoadGPT2 expects to find in a reference
// directory, keyed by the basename FetchGPT2 writes them under.
var gpt2Sources = map[string]string{
	"vocab.json": "https://huggingface.co/openai-community/gpt2/resolve/main/vocab.json",
	"merges.txt": "https://huggingface.co/openai-community/gpt2/resolve/main/merges.txt",
}

// FetchGPT2 downloads the reference vocab.json/merges.txt pair into destDir,
// creating it if necessary, so a caller can immediately follow up with
// LoadGPT2(filepath.Join(destDir, "vocab.json"), filepath.Join(destDir,
// "merges.txt")). Both files are verified non-empty; a short or failed
// download leaves no partial file in destDir under that name.
func FetchGPT2(ctx context.Context, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errs.New(errs.IoError, "hfimport.FetchGPT2", fmt.Errorf("mkdir %s: %w", destDir, err))
	}

	for name, url := range gpt2Sources {
		destPath := filepath.Join(destDir, name)
		slog.Info("hfimport: fetching GPT-2 reference file", "name", name, "dest", destPath)
		if err := fetchOne(ctx, url, destPath); err != nil {
			return errs.New(errs.IoError, "hfimport.FetchGPT2", err)
		}
	}
	return nil
}

func fetchOne(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	if n == 0 {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("download %s: got 0 bytes", url)
	}
	return nil
}

// LoadGPT2 reads vocabPath and mergesPath and returns a Model with
// Pattern set to the GPT-2 split pattern and Merges renumbered into this
// module's ID space, ready for vocabulary.FromMerges or modelfile.Save.
func LoadGPT2(vocabPath, mergesPath string) (modelfile.Model, error) {
	vocab, err := loadVocabJSON(vocabPath)
	if err != nil {
		return modelfile.Model{}, err
	}

	revVocab, err := buildRevVocab(vocab)
	if err != nil {
		return modelfile.Model{}, err
	}

	mergeLines, err := readLines(mergesPath)
	if err != nil {
		return modelfile.Model{}, errs.New(errs.IoError, "hfimport.LoadGPT2", err)
	}

	pairRank, rankedPairs, err := buildPairRank(mergeLines, vocab)
	if err != nil {
		return modelfile.Model{}, err
	}

	pairToken, err := buildPairToken(revVocab, pairRank)
	if err != nil {
		return modelfile.Model{}, err
	}

	merges, err := renumber(revVocab, rankedPairs, pairToken)
	if err != nil {
		return modelfile.Model{}, err
	}

	slog.Info("hfimport: loaded GPT-2 reference vocabulary", "tokens", len(vocab), "merges", len(merges))

	return modelfile.Model{Pattern: pretoken.GPT2Pattern, Merges: merges}, nil
}

// renumber walks rankedPairs (GPT-2 pair IDs in learned order) and assigns
// this module's own sequential IDs, starting from the identity mapping for
// the 256 single-byte tokens.
func renumber(revVocab [][]byte, rankedPairs [][2]int, pairToken map[[2]int]int) ([]mergerule.Merge, error) {
	gptToOur := make(map[int]int, len(revVocab))
	for gptID, bs := range revVocab {
		if len(bs) == 1 {
			gptToOur[gptID] = int(bs[0])
		}
	}

	merges := make([]mergerule.Merge, 0, len(rankedPairs))
	for rank, pair := range rankedPairs {
		ourLeft, ok1 := gptToOur[pair[0]]
		ourRight, ok2 := gptToOur[pair[1]]
		if !ok1 || !ok2 {
			return nil, errs.New(errs.FormatError, "hfimport.renumber", fmt.Errorf("merge %d references a token not yet assigned an id (merges.txt out of order?)", rank))
		}
		gptMerged, ok := pairToken[pair]
		if !ok {
			return nil, errs.New(errs.FormatError, "hfimport.renumber", fmt.Errorf("merge %d has no resulting vocab entry", rank))
		}
		ourMerged := 256 + rank
		gptToOur[gptMerged] = ourMerged
		merges = append(merges, mergerule.Merge{A: ourLeft, B: ourRight, NewID: ourMerged})
	}
	return merges, nil
}

func loadVocabJSON(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.IoError, "hfimport.loadVocabJSON", err)
	}
	var vocab map[string]int
	if err := json.Unmarshal(data, &vocab); err != nil {
		return nil, errs.New(errs.FormatError, "hfimport.loadVocabJSON", err)
	}
	return vocab, nil
}

// buildRevVocab inverts tokenString->id into id->rawBytes, undoing the
// per-token cursed rune remapping along the way.
func buildRevVocab(vocab map[string]int) ([][]byte, error) {
	maxID := -1
	for _, id := range vocab {
		if id > maxID {
			maxID = id
		}
	}
	size := maxID + 1

	byteDecoder := buildCursedByteDecoder()
	revVocab := make([][]byte, size)
	for tokenStr, id := range vocab {
		if id < 0 || id >= size {
			return nil, errs.New(errs.FormatError, "hfimport.buildRevVocab", fmt.Errorf("token id %d out of range", id))
		}
		tokenBytes, err := decodeTokenString(tokenStr, byteDecoder)
		if err != nil {
			return nil, errs.New(errs.FormatError, "hfimport.buildRevVocab", fmt.Errorf("decoding token %q: %w", tokenStr, err))
		}
		revVocab[id] = tokenBytes
	}
	for i, bs := range revVocab {
		if bs == nil {
			return nil, errs.New(errs.FormatError, "hfimport.buildRevVocab", fmt.Errorf("vocab is not dense: id %d unset", i))
		}
	}
	return revVocab, nil
}

func decodeTokenString(s string, byteDecoder map[rune]byte) ([]byte, error) {
	var out []byte
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			return nil, fmt.Errorf("invalid utf8 at %q", s)
		}
		if b, ok := byteDecoder[r]; ok {
			out = append(out, b)
		} else {
			var tmp [utf8.UTFMax]byte
			n := utf8.EncodeRune(tmp[:], r)
			out = append(out, tmp[:n]...)
		}
		s = s[size:]
	}
	return out, nil
}

// buildCursedByteDecoder replays GPT-2's byte->fake-Unicode-rune stand-in
// scheme so vocab.json's token strings can be turned back into raw bytes.
func buildCursedByteDecoder() map[rune]byte {
	var bs []int
	for b := 33; b <= 126; b++ {
		bs = append(bs, b)
	}
	for b := 161; b <= 172; b++ {
		bs = append(bs, b)
	}
	for b := 174; b <= 255; b++ {
		bs = append(bs, b)
	}

	cs := make([]int, len(bs))
	copy(cs, bs)

	next := 256
	for b := 0; b < 256; b++ {
		found := false
		for _, x := range bs {
			if x == b {
				found = true
				break
			}
		}
		if !found {
			bs = append(bs, b)
			cs = append(cs, next)
			next++
		}
	}

	decoder := make(map[rune]byte, 256)
	for i := range bs {
		decoder[rune(cs[i])] = byte(bs[i])
	}
	return decoder
}

// buildPairRank assigns a 0-based learned rank to each merges.txt line and
// returns both the rank lookup and the ranked pair list (index == rank).
func buildPairRank(lines []string, vocab map[string]int) (map[[2]int]int, [][2]int, error) {
	pairRank := make(map[[2]int]int, len(lines))
	var ranked [][2]int

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, nil, errs.New(errs.FormatError, "hfimport.buildPairRank", fmt.Errorf("invalid merge line %q", line))
		}
		leftID, ok1 := vocab[parts[0]]
		rightID, ok2 := vocab[parts[1]]
		if !ok1 || !ok2 {
			return nil, nil, errs.New(errs.FormatError, "hfimport.buildPairRank", fmt.Errorf("merge line %q references an unknown token", line))
		}
		key := [2]int{leftID, rightID}
		if _, exists := pairRank[key]; exists {
			return nil, nil, errs.New(errs.FormatError, "hfimport.buildPairRank", fmt.Errorf("duplicate merge pair %v", key))
		}
		pairRank[key] = len(ranked)
		ranked = append(ranked, key)
	}
	return pairRank, ranked, nil
}

// buildPairToken resolves each ranked pair to the vocab ID of its
// concatenated byte sequence.
func buildPairToken(revVocab [][]byte, pairRank map[[2]int]int) (map[[2]int]int, error) {
	bytesToID := make(map[string]int, len(revVocab))
	for id, bs := range revVocab {
		bytesToID[string(bs)] = id
	}

	pairToken := make(map[[2]int]int, len(pairRank))
	for pair := range pairRank {
		left, right := revVocab[pair[0]], revVocab[pair[1]]
		merged := make([]byte, 0, len(left)+len(right))
		merged = append(merged, left...)
		merged = append(merged, right...)
		id, ok := bytesToID[string(merged)]
		if !ok {
			return nil, errs.New(errs.FormatError, "hfimport.buildPairToken", fmt.Errorf("no vocab entry for merged bytes %q", merged))
		}
		pairToken[pair] = id
	}
	return pairToken, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
