package textnorm

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"bold", "**hello**", "hello"},
		{"italic", "*hi*", "hi"},
		{"bold and italic", "**a** and *b*", "a and b"},
		{"percent", "50% off", "50 percent off"},
		{"fahrenheit", "it's 70°F today", "it's 70° Fahrenheit today"},
		{"celsius", "20°C", "20° Celsius"},
		{"kelvin", "300°K", "300° Kelvin"},
		{"lowercase unit untouched", "70°f", "70°f"},
		{"spaces collapsed", "too   many   spaces", "too many spaces"},
		{"trimmed", "  padded  ", "padded"},
		{"carriage returns", "a\rb", "a\nb"},
		{"unmatched asterisk", "5 * 3", "5 - 3"},
		{"stray markers", "a * b * c", "a b c"},
		{"bold with stray asterisk", "**a*b**", "a-b"},
		{"dangling bold opener", "**a", "a"},
		{"percent inside bold", "**50%**", "50 percent"},
		{"plus list marker", "x  + y", "x - y"},
		{"emoji removed", "hi 👋 there", "hi there"},
		{"emoji only", "🎉🎉", ""},
		{"keycap removed", "press 1️⃣ now", "press now"},
		{"zwj family removed", "family 👨‍👩‍👧 time", "family time"},
		{"skin tone removed", "ok 👍🏽", "ok"},
		{"flag removed", "go 🇺🇸", "go"},
		{"whitespace only", " \t\n\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_BlankLines(t *testing.T) {
	got := Normalize("line1\n\nline2\n")
	assert.Equal(t, "line1"+strings.ReplaceAll(lineSeparator, "\r", "")+"line2", got)

	got = Normalize("a\r\n\r\nb\n\n\nc")
	assert.Equal(t, []string{"a", "b", "c"}, strings.Split(got, "\n"))
}

func TestNormalize_EmphasisDoesNotCrossLines(t *testing.T) {
	assert.Equal(t, "-a\nb-", Normalize("*a\n\nb*"))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"plain text",
		"**Bold** statement with *italic* words",
		"It is 50% likely to be 70°F.",
		"line one\n\n\nline two",
		"mixed   spacing and 👋 emoji",
		"5 * 3 = 15",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_NoResidualMarkers(t *testing.T) {
	bold := regexp.MustCompile(`\*\*(.*?)\*\*`)
	italic := regexp.MustCompile(`\*(.*?)\*`)
	inputs := []string{
		"***triple***",
		"**a** *b* **c*",
		"*****",
		"**nested *inner* bold**",
		"* * * *",
	}
	for _, in := range inputs {
		out := Normalize(in)
		assert.False(t, bold.MatchString(out), "bold marker left in %q", out)
		assert.False(t, italic.MatchString(out), "italic marker left in %q", out)
	}
}

func TestStripEmphasis_FirstMatchFixedPoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**a** **b**", "a b"},
		{"***x***", "x"},
		{"**", ""},
		{"*a**b*", "ab"},
		{"no markers", "no markers"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripEmphasis(tt.in), "input %q", tt.in)
	}
}

func TestStripEmphasis_Pathological(t *testing.T) {
	in := strings.Repeat("*", 10001)
	assert.Equal(t, "*", StripEmphasis(in))
}

func TestStripEmoji_KeepsPlainSymbols(t *testing.T) {
	in := "50 # items * 2 ° done"
	assert.Equal(t, in, StripEmoji(in))
}

func TestIsPictographic(t *testing.T) {
	assert.True(t, IsPictographic('😀'))
	assert.True(t, IsPictographic('©'))
	assert.True(t, IsPictographic('☀'))
	assert.False(t, IsPictographic('a'))
	assert.False(t, IsPictographic('°'))
	assert.False(t, IsPictographic('5'))
}
