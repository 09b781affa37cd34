// Package textnorm rewrites free-form text into plain prose for a speech
// synthesizer that has no handling for markdown, emoji or unit notation.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// emphasisStyle is a markdown emphasis marker pair.
type emphasisStyle struct {
	name   string
	re     *regexp.Regexp
	offset int // delimiter length on each side
}

// Bold must be exhausted before italic, otherwise the single-asterisk
// pattern would match halves of a double-asterisk pair.
var emphasisStyles = []emphasisStyle{
	{name: "bold", re: regexp.MustCompile(`\*\*(.*?)\*\*`), offset: 2},
	{name: "italic", re: regexp.MustCompile(`\*(.*?)\*`), offset: 1},
}

// maxEmphasisRewrites bounds the fixed-point loop per style. Each rewrite
// shrinks the text, so real input never gets close.
const maxEmphasisRewrites = 1 << 16

var unitReplacer = strings.NewReplacer(
	"°F", "° Fahrenheit",
	"°C", "° Celsius",
	"°K", "° Kelvin",
)

// Normalize cleans text for speech synthesis. It never fails; the result may
// be empty.
func Normalize(text string) string {
	text = removeBlankLines(text)
	text = StripEmoji(text)
	text = StripEmphasis(text)

	text = strings.ReplaceAll(text, "%", " percent")
	text = strings.ReplaceAll(text, "*", "-")
	text = strings.ReplaceAll(text, "  +", "  -")

	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimFunc(text, isSpace)
	text = collapseSpaces(text)

	return unitReplacer.Replace(text)
}

// StripEmphasis removes bold and italic markers while keeping their content.
// Every round rewrites the first match only and searches again, until the
// style no longer matches.
func StripEmphasis(text string) string {
	for _, style := range emphasisStyles {
		for i := 0; i < maxEmphasisRewrites; i++ {
			loc := style.re.FindStringIndex(text)
			if loc == nil {
				break
			}
			span := text[loc[0]:loc[1]]
			inner := span[style.offset : len(span)-style.offset]
			text = strings.Replace(text, span, inner, 1)
		}
	}
	return text
}

// removeBlankLines drops empty lines and joins the rest with the platform
// line separator.
func removeBlankLines(text string) string {
	lines := splitLines(text)
	kept := lines[:0]
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, lineSeparator)
}

// splitLines splits on every Unicode line boundary; "\r\n" counts as one.
// A trailing boundary does not produce a final empty line.
func splitLines(text string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isLineBoundary(r) {
			i += size
			continue
		}
		lines = append(lines, text[start:i])
		i += size
		if r == '\r' && i < len(text) && text[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// isSpace also treats the ASCII information separators as whitespace.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

// collapseSpaces replaces each run of ASCII spaces with one space. Other
// whitespace is left alone.
func collapseSpaces(text string) string {
	if !strings.Contains(text, "  ") {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' {
			if prevSpace {
				continue
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
