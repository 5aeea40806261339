package pipeline

import (
	"strings"
	"unicode"
)

// Sentence is a complete unit of text ready for synthesis. Seq
// increases monotonically across one segmenter's lifetime
type Sentence struct {
	Text string
	Seq  int
}

// SentenceSegmenter buffers framed text and emits complete sentences
// in arrival order. A trailing fragment with no terminal punctuation
// stays buffered until more text arrives or Flush is called
type SentenceSegmenter struct {
	buffer  string
	nextSeq int
}

// NewSentenceSegmenter creates an empty segmenter
func NewSentenceSegmenter() *SentenceSegmenter {
	return &SentenceSegmenter{}
}

// Push appends a chunk of clean text and returns any sentences that
// completed as a result, in order
func (s *SentenceSegmenter) Push(chunk string) []Sentence {
	s.buffer += chunk

	parts := splitAfterTerminals(s.buffer)
	if len(parts) == 0 {
		return nil
	}

	trimmed := strings.TrimRightFunc(s.buffer, unicode.IsSpace)
	if !endsWithTerminal(trimmed) {
		// Incomplete tail becomes the new buffer
		s.buffer = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	} else {
		s.buffer = ""
	}

	return s.emit(parts)
}

// Flush emits any buffered remainder as one final sentence
func (s *SentenceSegmenter) Flush() []Sentence {
	remainder := s.buffer
	s.buffer = ""

	if strings.TrimSpace(remainder) == "" {
		return nil
	}
	return s.emit([]string{remainder})
}

func (s *SentenceSegmenter) emit(parts []string) []Sentence {
	var out []Sentence
	for _, p := range parts {
		text := strings.TrimSpace(p)
		if text == "" {
			// Blank fragments are dropped without consuming a
			// sequence index
			continue
		}
		out = append(out, Sentence{Text: text, Seq: s.nextSeq})
		s.nextSeq++
	}
	return out
}

// splitAfterTerminals splits text at whitespace runs that follow a
// sentence terminator, consuming the whitespace
func splitAfterTerminals(text string) []string {
	var parts []string
	start := 0
	i := 0

	for i < len(text) {
		if isTerminal(text[i]) && i+1 < len(text) && isSpace(text[i+1]) {
			end := i + 1
			j := end
			for j < len(text) && isSpace(text[j]) {
				j++
			}
			parts = append(parts, text[start:end])
			start = j
			i = j
			continue
		}
		i++
	}

	parts = append(parts, text[start:])
	return parts
}

func endsWithTerminal(s string) bool {
	return s != "" && isTerminal(s[len(s)-1])
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
