package chunkers

import (
	"strings"
	"unicode"
)

// commonAbbreviations are tokens whose trailing period does not end a
// sentence. Lookup is case-insensitive on the word before the period.
var commonAbbreviations = map[string]bool{
	"mr":     true,
	"mrs":    true,
	"ms":     true,
	"dr":     true,
	"prof":   true,
	"sr":     true,
	"jr":     true,
	"st":     true,
	"vs":     true,
	"etc":    true,
	"approx": true,
	"dept":   true,
	"est":    true,
	"fig":    true,
	"inc":    true,
	"ltd":    true,
	"co":     true,
	"corp":   true,
	"vol":    true,
	"misc":   true,
}

// SentenceSplitter breaks text into sentences while keeping each
// sentence's terminating punctuation attached. It is deliberately
// heuristic: terminator runs ("...", "?!") stay together, decimals such
// as 3.14 do not split, and common abbreviations are skipped.
type SentenceSplitter struct {
	abbreviations map[string]bool
}

// NewSentenceSplitter creates a splitter with the default abbreviation set
func NewSentenceSplitter() *SentenceSplitter {
	return &SentenceSplitter{
		abbreviations: commonAbbreviations,
	}
}

// Split returns the sentences of text in order. Whitespace around each
// sentence is trimmed; empty sentences are dropped. Text without any
// terminator comes back as a single sentence.
func (s *SentenceSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		if !isTerminator(runes[i]) {
			continue
		}

		// Swallow the full terminator run so "..." and "?!" stay attached
		end := i
		for end+1 < len(runes) && isTerminator(runes[end+1]) {
			end++
		}

		if !s.isBoundary(runes, i, end) {
			i = end
			continue
		}

		if sentence := strings.TrimSpace(string(runes[start : end+1])); sentence != "" {
			sentences = append(sentences, sentence)
		}
		i = end
		start = end + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}

	return sentences
}

// isBoundary reports whether the terminator run ending at end closes a
// sentence. pos is the first terminator of the run.
func (s *SentenceSplitter) isBoundary(runes []rune, pos, end int) bool {
	// Mid-token terminators (decimals, version numbers, e.g./i.e. chains)
	// are not boundaries
	if end+1 < len(runes) && !unicode.IsSpace(runes[end+1]) {
		return false
	}

	if runes[pos] == '.' && pos == end {
		word := trailingWord(runes, pos)
		if s.abbreviations[strings.ToLower(word)] {
			return false
		}
	}

	return true
}

// trailingWord returns the letter run immediately before position pos
func trailingWord(runes []rune, pos int) string {
	start := pos
	for start > 0 && unicode.IsLetter(runes[start-1]) {
		start--
	}
	return string(runes[start:pos])
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// defaultTokenEstimator provides a simple token estimation used when no
// tokenizer provider is configured: whitespace-delimited words plus a
// rough allowance for punctuation.
func defaultTokenEstimator(text string) int {
	if text == "" {
		return 0
	}

	words := strings.Fields(text)
	tokenCount := len(words)

	punctuation := strings.Count(text, ".") + strings.Count(text, ",") +
		strings.Count(text, "!") + strings.Count(text, "?") +
		strings.Count(text, ";") + strings.Count(text, ":")

	return tokenCount + punctuation/2
}
