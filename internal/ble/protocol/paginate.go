package protocol

import (
	"strings"
	"unicode/utf8"
)

// LinesPerScreen is the number of text lines shown together on the display.
const LinesPerScreen = 5

// SplitIntoLines word-wraps text so that each line's rune count (joining
// spaces included) times avgCharWidthPx stays within displayWidthPx. Words are never broken: a
// single word wider than the display is emitted on a line of its own.
// Newlines in text always end the current line. Returns nil when text has
// no words.
func SplitIntoLines(text string, displayWidthPx, avgCharWidthPx int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			// +1 for the joining space
			if (utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word))*avgCharWidthPx <= displayWidthPx {
				current += " " + word
				continue
			}
			lines = append(lines, current)
			current = word
		}
		lines = append(lines, current)
	}
	return lines
}

// SplitIntoScreens groups lines into screens of linesPerScreen; the last
// screen may be shorter. A non-positive linesPerScreen uses LinesPerScreen.
func SplitIntoScreens(lines []string, linesPerScreen int) [][]string {
	if linesPerScreen <= 0 {
		linesPerScreen = LinesPerScreen
	}
	var screens [][]string
	for start := 0; start < len(lines); start += linesPerScreen {
		end := start + linesPerScreen
		if end > len(lines) {
			end = len(lines)
		}
		screens = append(screens, lines[start:end])
	}
	return screens
}
