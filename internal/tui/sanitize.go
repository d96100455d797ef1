package tui

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ansiRE matches ANSI escape sequences: CSI (colors, cursor movement),
// OSC terminated by ST or BEL, charset designation, and other two-byte
// escapes.
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;?]*[A-Za-z]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[()][A-B0-2]` +
	`|` +
	`[#()*+\-./][A-Za-z0-9]` +
	`)`)

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// Flatten turns chat text into a single display line: invalid UTF-8 is
// replaced, escapes are stripped, and runs of whitespace (newlines
// included) collapse to one space.
func Flatten(s string) string {
	s = strings.ToValidUTF8(s, "�")
	s = StripANSI(s)
	return strings.Join(strings.Fields(s), " ")
}

// MiddleTruncate shortens s to maxWidth display columns by replacing its
// middle with an ellipsis. Wide runes (CJK, emoji) count as two columns.
// Below three columns there is no room for the ellipsis and s is cut from
// the right.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return headWithin(s, maxWidth)
	}

	const ellipsis = "…"
	room := maxWidth - 1
	return headWithin(s, (room+1)/2) + ellipsis + tailWithin(s, room/2)
}

// EndTruncate shortens s to maxWidth display columns, ending in an
// ellipsis when anything was cut.
func EndTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return headWithin(s, maxWidth-1) + "…"
}

// headWithin returns the longest prefix of s at most width columns wide.
func headWithin(s string, width int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > width {
			return s[:i]
		}
		w += rw
	}
	return s
}

// tailWithin returns the longest suffix of s at most width columns wide.
func tailWithin(s string, width int) string {
	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > width {
			break
		}
		w += rw
		start = i
	}
	return string(runes[start:])
}
