package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// unit is an atomic piece of text. Concatenating all units in order gives
// back the source exactly, separators included.
type unit struct {
	text  string
	start int
	runes int
}

// splitters in priority order: paragraphs, lines, sentences, words, runes.
var splitters = []func(string) []string{
	func(s string) []string { return splitAfter(s, "\n\n") },
	func(s string) []string { return splitAfter(s, "\n") },
	splitSentences,
	splitWords,
	splitRunes,
}

// decompose breaks text into units no longer than size runes, only falling
// back to a finer splitter for pieces that are still too large.
func decompose(text string, offset, level, size int, out []unit) []unit {
	if n := utf8.RuneCountInString(text); n <= size {
		return append(out, unit{text: text, start: offset, runes: n})
	}
	next := min(level+1, len(splitters)-1)
	for _, piece := range splitters[level](text) {
		out = decompose(piece, offset, next, size, out)
		offset += len(piece)
	}
	return out
}

func splitAfter(s, sep string) []string {
	parts := strings.SplitAfter(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences cuts after terminal punctuation and the whitespace that follows it.
func splitSentences(s string) []string {
	var out []string
	begin := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i
		for j < len(s) {
			ws, wsize := utf8.DecodeRuneInString(s[j:])
			if !unicode.IsSpace(ws) {
				break
			}
			j += wsize
		}
		if j == i {
			continue
		}
		out = append(out, s[begin:j])
		begin, i = j, j
	}
	if begin < len(s) {
		out = append(out, s[begin:])
	}
	return out
}

// splitWords keeps each word together with its trailing whitespace.
func splitWords(s string) []string {
	var out []string
	begin := 0
	inSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if inSpace && !space {
			out = append(out, s[begin:i])
			begin = i
		}
		inSpace = space
	}
	if begin < len(s) {
		out = append(out, s[begin:])
	}
	return out
}

func splitRunes(s string) []string {
	out := make([]string, 0, utf8.RuneCountInString(s))
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		out = append(out, s[i:i+size])
		i += size
	}
	return out
}
