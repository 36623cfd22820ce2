package stream

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Chunking selects the delivery unit for text deltas.
type Chunking string

const (
	// ChunkWord emits each word with its trailing whitespace. Leading
	// whitespace is its own unit.
	ChunkWord Chunking = "word"
	// ChunkRune emits one rune per unit.
	ChunkRune Chunking = "rune"
)

// ParseChunking validates a chunking mode name.
func ParseChunking(s string) (Chunking, error) {
	switch c := Chunking(s); c {
	case ChunkWord, ChunkRune:
		return c, nil
	}
	return "", fmt.Errorf("unknown chunking mode %q", s)
}

// Split cuts content into delivery units. Joining the units in order always
// reproduces content byte for byte. Empty content yields no units.
func Split(content string, mode Chunking) []string {
	if content == "" {
		return nil
	}
	if mode == ChunkRune {
		return splitRunes(content)
	}
	return splitWords(content)
}

func splitWords(s string) []string {
	var units []string
	start := 0
	inSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if !space && inSpace && i > start {
			units = append(units, s[start:i])
			start = i
		}
		inSpace = space
	}
	return append(units, s[start:])
}

func splitRunes(s string) []string {
	units := make([]string, 0, utf8.RuneCountInString(s))
	for len(s) > 0 {
		// Invalid bytes decode with size 1 and form their own unit. Encoding a
		// unit as JSON replaces them with U+FFFD.
		_, size := utf8.DecodeRuneInString(s)
		units = append(units, s[:size])
		s = s[size:]
	}
	return units
}
