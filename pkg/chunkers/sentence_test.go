package chunkers

import (
	"testing"
)

func TestSentenceSplitterBasic(t *testing.T) {
	splitter := NewSentenceSplitter()

	testCases := []struct {
		text     string
		expected []string
	}{
		{"A. B. C.", []string{"A.", "B.", "C."}},
		{"First sentence. Second sentence.", []string{"First sentence.", "Second sentence."}},
		{"No terminator here", []string{"No terminator here"}},
		{"Is this a question? Yes!", []string{"Is this a question?", "Yes!"}},
		{"", nil},
		{"   \n\t  ", nil},
	}

	for _, tc := range testCases {
		sentences := splitter.Split(tc.text)
		if len(sentences) != len(tc.expected) {
			t.Errorf("Split(%q): expected %d sentences, got %d (%v)",
				tc.text, len(tc.expected), len(sentences), sentences)
			continue
		}
		for i, expected := range tc.expected {
			if sentences[i] != expected {
				t.Errorf("Split(%q): sentence %d: expected %q, got %q",
					tc.text, i, expected, sentences[i])
			}
		}
	}
}

func TestSentenceSplitterAbbreviations(t *testing.T) {
	splitter := NewSentenceSplitter()

	// Abbreviations must not end a sentence
	sentences := splitter.Split("Dr. Smith went home. He was tired.")
	if len(sentences) != 2 {
		t.Fatalf("Expected 2 sentences, got %d: %v", len(sentences), sentences)
	}
	if sentences[0] != "Dr. Smith went home." {
		t.Errorf("Expected abbreviation kept inside sentence, got %q", sentences[0])
	}

	sentences = splitter.Split("The meeting is at Acme Inc. headquarters today.")
	if len(sentences) != 1 {
		t.Errorf("Expected 1 sentence, got %d: %v", len(sentences), sentences)
	}
}

func TestSentenceSplitterDecimals(t *testing.T) {
	splitter := NewSentenceSplitter()

	// Decimal points must not end a sentence
	sentences := splitter.Split("The value of pi is 3.14159 to five places.")
	if len(sentences) != 1 {
		t.Fatalf("Expected 1 sentence, got %d: %v", len(sentences), sentences)
	}

	sentences = splitter.Split("Version 2.5 shipped. Version 3.0 is next.")
	if len(sentences) != 2 {
		t.Errorf("Expected 2 sentences, got %d: %v", len(sentences), sentences)
	}
}

func TestSentenceSplitterTerminatorRuns(t *testing.T) {
	splitter := NewSentenceSplitter()

	sentences := splitter.Split("Wait... what happened? It worked?!")
	expected := []string{"Wait...", "what happened?", "It worked?!"}
	if len(sentences) != len(expected) {
		t.Fatalf("Expected %d sentences, got %d: %v", len(expected), len(sentences), sentences)
	}
	for i, exp := range expected {
		if sentences[i] != exp {
			t.Errorf("Sentence %d: expected %q, got %q", i, exp, sentences[i])
		}
	}
}

func TestDefaultTokenEstimator(t *testing.T) {
	testCases := []struct {
		text     string
		expected int
	}{
		{"", 0},
		{"hello", 1},
		{"hello world", 2},
		{"Hello, world!", 3},
	}

	for _, tc := range testCases {
		count := defaultTokenEstimator(tc.text)
		if count != tc.expected {
			t.Errorf("Estimate(%q): expected %d tokens, got %d", tc.text, tc.expected, count)
		}
	}
}
