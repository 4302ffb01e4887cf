package codec

import (
	"sort"
	"strings"
)

// part is either a literal run of ordinary text (ID < 0) or a single
// registered special token (ID is its symbol ID).
type part struct {
	text string
	id   int
}

// splitSpecial implements spec §4.5.1 step 1: scan text for any registered
// special-token string, alternating ordinary-text parts with single-token
// special parts. When multiple specials could match at a position, the
// earliest occurrence wins; ties (two specials starting at the same index)
// are broken by longest match (spec §9, Open Question 2), and the special
// token strings are iterated in sorted order so the result never depends on
// Go's randomized map iteration.
func splitSpecial(text string, specials map[string]int) []part {
	if len(specials) == 0 {
		return []part{{text: text, id: -1}}
	}

	keys := make([]string, 0, len(specials))
	for k := range specials {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []part
	pos := 0
	for pos <= len(text) {
		bestStart := -1
		bestKey := ""
		for _, k := range keys {
			if k == "" {
				continue
			}
			idx := strings.Index(text[pos:], k)
			if idx < 0 {
				continue
			}
			start := pos + idx
			if bestStart == -1 || start < bestStart || (start == bestStart && len(k) > len(bestKey)) {
				bestStart = start
				bestKey = k
			}
		}

		if bestStart == -1 {
			if pos < len(text) {
				parts = append(parts, part{text: text[pos:], id: -1})
			}
			break
		}

		if bestStart > pos {
			parts = append(parts, part{text: text[pos:bestStart], id: -1})
		}
		parts = append(parts, part{text: bestKey, id: specials[bestKey]})
		pos = bestStart + len(bestKey)
	}
	return parts
}
