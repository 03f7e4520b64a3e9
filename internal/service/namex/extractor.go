// Package namex extracts a speaker name from a spoken enrollment
// utterance. Extraction is a pure function over static lookup tables;
// it never errors, falling through to a low-confidence guess instead.
//
// Detection methods are tried in strict priority order:
//
//  1. Spelled letters   ("J-O-H-N", "jay oh aitch en")  → high
//  2. NATO alphabet run ("Juliet Oscar Hotel November") → high
//  3. Phonetic w/filler ("my name is Sarah, thanks")    → medium
//  4. Last resort       (filler-stripping, no pattern)  → low
package namex

import (
	"strings"
	"unicode"

	"meeting-transcription-service/internal/models"
)

// Extract parses an utterance into a candidate speaker name.
// The second return value is false when no candidate at all could be
// produced (empty or filler-only input).
func Extract(text string) (models.NameResult, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.NameResult{}, false
	}

	tokens := tokenize(text)

	if name := extractSpelled(tokens); name != "" {
		return models.NameResult{
			Name:       name,
			Confidence: models.NameConfidenceHigh,
			Method:     models.NameMethodSpelled,
		}, true
	}

	if name := extractNATO(tokens); name != "" {
		return models.NameResult{
			Name:       name,
			Confidence: models.NameConfidenceHigh,
			Method:     models.NameMethodNATO,
		}, true
	}

	name, hadFiller := extractPhonetic(text)
	if name == "" {
		return models.NameResult{}, false
	}
	confidence := models.NameConfidenceLow
	if hadFiller {
		confidence = models.NameConfidenceMedium
	}
	return models.NameResult{
		Name:       name,
		Confidence: confidence,
		Method:     models.NameMethodPhonetic,
	}, true
}

// IsValidName reports whether a name is acceptable for a speaker
// mapping: 1-50 characters, at least one letter, and only letters,
// spaces, apostrophes and hyphens.
func IsValidName(name string) bool {
	runes := []rune(name)
	if len(runes) < 1 || len(runes) > 50 {
		return false
	}
	hasLetter := false
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case r == ' ' || r == '\'' || r == '-':
		default:
			return false
		}
	}
	return hasLetter
}

// tokenize splits an utterance into lowercase tokens on whitespace and
// commas. Hyphenated tokens are kept whole when the whole token is a
// known pronunciation ("double-you", "x-ray") and split into their
// parts otherwise, so "J-O-H-N" yields four letter tokens.
func tokenize(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})

	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.Trim(t, ".?!;:\"")
		if t == "" {
			continue
		}
		if _, ok := letterPronunciations[t]; ok {
			tokens = append(tokens, t)
			continue
		}
		if _, ok := natoAlphabet[t]; ok {
			tokens = append(tokens, t)
			continue
		}
		if strings.Contains(t, "-") {
			for _, part := range strings.Split(t, "-") {
				if part != "" {
					tokens = append(tokens, part)
				}
			}
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// letterOf resolves a token to the letter it spells: a single
// alphabetic character or a recognized letter pronunciation.
// Returns 0 when the token spells nothing.
func letterOf(token string) byte {
	if len(token) == 1 && token[0] >= 'a' && token[0] <= 'z' {
		return token[0] - 'a' + 'A'
	}
	if l, ok := letterPronunciations[token]; ok {
		return l
	}
	return 0
}

// extractSpelled finds the longest run of consecutive letter tokens
// and concatenates them. Requires at least two letters.
func extractSpelled(tokens []string) string {
	best := longestRun(tokens, letterOf)
	if len(best) < 2 {
		return ""
	}
	return titleCase(string(best))
}

// extractNATO finds the longest contiguous run of NATO code words (or
// everyday alternates). A run resets on any non-matching token.
func extractNATO(tokens []string) string {
	best := longestRun(tokens, func(t string) byte {
		return natoAlphabet[t]
	})
	if len(best) < 2 {
		return ""
	}
	return titleCase(string(best))
}

// longestRun scans tokens and returns the letters of the longest
// contiguous run where resolve returns a letter. Ties keep the
// earliest run.
func longestRun(tokens []string, resolve func(string) byte) []byte {
	var best, current []byte
	for _, t := range tokens {
		l := resolve(t)
		if l == 0 {
			if len(current) > len(best) {
				best = current
			}
			current = nil
			continue
		}
		current = append(current, l)
	}
	if len(current) > len(best) {
		best = current
	}
	return best
}

// extractPhonetic strips filler phrases around the name and returns
// the first one or two remaining words. The second return value
// reports whether a leading filler phrase was present.
func extractPhonetic(text string) (string, bool) {
	lower := strings.ToLower(text)

	hadFiller := false
	rest := text
	for _, filler := range leadingFillers {
		idx := phraseIndex(lower, filler)
		if idx < 0 {
			continue
		}
		cut := idx + len(filler)
		if cut < len(rest) {
			rest = rest[cut:]
		} else {
			rest = ""
		}
		hadFiller = true
		break
	}

	// A comma ends the name: "Sarah, thanks for having me".
	if i := strings.IndexByte(rest, ','); i >= 0 {
		rest = rest[:i]
	}

	words := strings.Fields(rest)
	kept := make([]string, 0, 2)
	for _, w := range words {
		w = strings.Trim(w, ".?!;:\"")
		if w == "" {
			continue
		}
		if len(kept) > 0 && isTrailingFiller(w) {
			break
		}
		if len(kept) == 0 && isTrailingFiller(w) {
			continue
		}
		kept = append(kept, titleCase(w))
		if len(kept) == 2 {
			break
		}
	}
	return strings.Join(kept, " "), hadFiller
}

func isTrailingFiller(word string) bool {
	w := strings.ToLower(word)
	for _, f := range trailingFillers {
		if w == f {
			return true
		}
	}
	return false
}

// phraseIndex finds a filler phrase in text at a word boundary,
// preferring the last occurrence so "hi, my name is X" works.
func phraseIndex(text, phrase string) int {
	idx := strings.LastIndex(text, phrase)
	for idx >= 0 {
		beforeOK := idx == 0 || !isWordChar(text[idx-1])
		end := idx + len(phrase)
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return idx
		}
		idx = strings.LastIndex(text[:idx], phrase)
	}
	return -1
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '\''
}

// titleCase capitalizes the first letter and lowercases the rest,
// leaving mixed-case words (already cased by the recognizer) alone.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s == strings.ToLower(s) || s == strings.ToUpper(s) {
		s = strings.ToLower(s)
		r := []rune(s)
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
	return s
}
