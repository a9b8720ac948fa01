package plate

import (
	"fmt"
	"regexp"
	"strings"
)

// Vietnamese civil plates: 2-digit region code, 1 series letter,
// 4 or 5 digit serial. Displayed as 30A-1234 or 30A-123.45.
var canonicalPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]-([0-9]{3}\.[0-9]{2}|[0-9]{4})$`)

// OCR confusion maps for the glyph set stamped on the plates. These are
// fixed positional lookups, not a spell-checker.
var letterToDigit = map[byte]byte{
	'O': '0', 'D': '0', 'Q': '0',
	'I': '1', 'L': '1',
	'Z': '2',
	'B': '3',
	'S': '5',
	'G': '6',
}

var digitToLetter = map[byte]byte{
	'0': 'O', '1': 'I', '2': 'Z', '3': 'B', '4': 'A',
	'5': 'S', '6': 'G', '7': 'T', '8': 'B', '9': 'G',
}

// Valid reports whether a plate string is in canonical display form.
// This is the single gate that turns ambiguous OCR output into a hard
// rejection; Correct never errors.
func Valid(canonical string) bool {
	return canonicalPattern.MatchString(canonical)
}

// Correct repairs a raw OCR candidate into canonical display form.
// The input is the concatenation of detected text fragments and may
// carry stray characters from misreads ("HOND30A12345"). Candidates
// that stay shorter than 7 significant characters are returned
// unmodified so the caller's format validation rejects them.
func Correct(raw string) string {
	cleaned := stripNonAlnum(strings.ToUpper(raw))
	if len(cleaned) < 7 {
		return raw
	}

	candidate := cleaned
	if len(candidate) > 8 {
		candidate = bestWindow(candidate)
	}

	repaired := []byte(candidate)
	for i := range repaired {
		if i == 2 {
			if c, ok := digitToLetter[repaired[i]]; ok {
				repaired[i] = c
			}
			continue
		}
		if c, ok := letterToDigit[repaired[i]]; ok {
			repaired[i] = c
		}
	}

	return render(string(repaired))
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// bestWindow slides an 8-character window across an over-length
// candidate and keeps the one that best matches the positional class
// template (digit, digit, letter, digit x5). Recognition tends to
// prepend or append garbage tokens around the true plate substring;
// ties go to the first occurrence.
func bestWindow(s string) string {
	best := s[:8]
	bestScore := -1
	for i := 0; i+8 <= len(s); i++ {
		window := s[i : i+8]
		score := templateScore(window)
		if score > bestScore {
			best = window
			bestScore = score
		}
	}
	return best
}

func templateScore(window string) int {
	score := 0
	for i := 0; i < len(window); i++ {
		isDigit := window[i] >= '0' && window[i] <= '9'
		if i == 2 {
			if !isDigit {
				score++
			}
			continue
		}
		if isDigit {
			score++
		}
	}
	return score
}

func render(plate string) string {
	prefix := plate[:3]
	serial := plate[3:]
	if len(serial) == 5 {
		return fmt.Sprintf("%s-%s.%s", prefix, serial[:3], serial[3:])
	}
	return fmt.Sprintf("%s-%s", prefix, serial)
}
