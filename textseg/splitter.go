// Package textseg re-segments streamed text fragments into speakable
// sentence chunks so downstream playback can start on the first sentence
// instead of waiting for the whole reply.
package textseg

import (
	"regexp"
	"strings"
)

// sentenceEnd matches a buffer whose trailing characters are sentence
// punctuation followed only by whitespace. Commas are included, matching
// the upstream call gateway's pacing expectations.
var sentenceEnd = regexp.MustCompile(`[,.!?]\s*$`)

// Splitter accumulates text fragments and emits completed sentences as
// soon as sentence-ending punctuation is observed. One pass yields both
// the sentence stream and the full unsegmented text.
type Splitter struct {
	sentence strings.Builder
	full     strings.Builder
}

// NewSplitter creates an empty Splitter.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Push appends one fragment. If the accumulated buffer now ends a
// sentence, the completed sentence is returned (trimmed) and the buffer
// resets for the next one.
func (s *Splitter) Push(fragment string) (string, bool) {
	s.sentence.WriteString(fragment)
	s.full.WriteString(fragment)

	if !sentenceEnd.MatchString(s.sentence.String()) {
		return "", false
	}
	out := strings.TrimSpace(s.sentence.String())
	s.sentence.Reset()
	if out == "" {
		return "", false
	}
	return out, true
}

// Flush returns the trailing, possibly non-sentence-terminated remainder
// at stream end, if any.
func (s *Splitter) Flush() (string, bool) {
	out := strings.TrimSpace(s.sentence.String())
	s.sentence.Reset()
	if out == "" {
		return "", false
	}
	return out, true
}

// Text returns the full concatenation of every fragment pushed so far.
func (s *Splitter) Text() string {
	return s.full.String()
}
