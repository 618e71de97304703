package dictation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	pronounIContractionPattern = regexp.MustCompile(`\bi['’](?:m|d|ll|ve|re|s)\b`)
	pronounIWordPattern        = regexp.MustCompile(`\bi\b`)
)

// nonTerminalAbbreviations end in a period that does not close a sentence.
var nonTerminalAbbreviations = map[string]struct{}{
	"e.g":  {},
	"i.e":  {},
	"cf":   {},
	"dr":   {},
	"mr":   {},
	"mrs":  {},
	"ms":   {},
	"prof": {},
	"sr":   {},
	"jr":   {},
	"vs":   {},
	"etc":  {},
}

// capitalizeSentences upper-cases sentence starts and the pronoun "I".
func capitalizeSentences(text string) string {
	text = capitalizeSentenceStarts(text)
	text = pronounIContractionPattern.ReplaceAllStringFunc(text, func(match string) string {
		return "I" + match[1:]
	})
	return capitalizeStandalonePronounI(text)
}

func capitalizeStandalonePronounI(text string) string {
	matches := pronounIWordPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))
	last := 0
	for _, match := range matches {
		start, end := match[0], match[1]
		out.WriteString(text[last:start])
		if partOfInitialism(text, start, end) {
			out.WriteString(text[start:end])
		} else {
			out.WriteString("I")
		}
		last = end
	}
	out.WriteString(text[last:])
	return out.String()
}

// partOfInitialism reports an "i" inside dotted tokens such as "i.e".
func partOfInitialism(text string, start int, end int) bool {
	if end+1 < len(text) && text[end] == '.' && isASCIILetter(text[end+1]) {
		return true
	}
	return start > 1 && text[start-1] == '.' && isASCIILetter(text[start-2])
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func capitalizeSentenceStarts(text string) string {
	runes := []rune(text)

	var out strings.Builder
	out.Grow(len(text))

	capitalizeNext := true
	for i, r := range runes {
		switch {
		case capitalizeNext && unicode.IsLetter(r):
			r = unicode.ToUpper(r)
			capitalizeNext = false
		case capitalizeNext && (unicode.IsDigit(r) || r == '•'):
			capitalizeNext = false
		}
		out.WriteRune(r)

		switch r {
		case '.':
			if isSentenceBoundaryPeriod(runes, i) {
				capitalizeNext = true
			}
		case '!', '?', '\n':
			capitalizeNext = true
		}
	}
	return out.String()
}

// isSentenceBoundaryPeriod rejects decimals, embedded tokens (example.com)
// and known abbreviations.
func isSentenceBoundaryPeriod(runes []rune, idx int) bool {
	if idx+1 < len(runes) {
		next := runes[idx+1]
		if unicode.IsLetter(next) || unicode.IsDigit(next) || next == '.' {
			return false
		}
	}

	start := idx - 1
	for start >= 0 && (unicode.IsLetter(runes[start]) || runes[start] == '.') {
		start--
	}
	token := strings.ToLower(strings.Trim(string(runes[start+1:idx]), "."))
	_, abbreviation := nonTerminalAbbreviations[token]
	return !abbreviation
}
