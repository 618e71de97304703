package dictation

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// attach describes how a spoken mark consumes surrounding whitespace.
type attach uint8

const (
	// attachLeft closes onto the previous word: "hello period" -> "hello."
	attachLeft attach = iota
	// attachRight opens onto the next word: "open quote hi" -> "\"hi"
	attachRight
	// attachBoth joins both neighbours: "well hyphen known" -> "well-known"
	attachBoth
	// attachSpaced keeps one space on each side.
	attachSpaced
	// attachPrefix starts a list item; the symbol carries its own trailing space.
	attachPrefix
)

type mark struct {
	symbol string
	attach attach
}

// spokenMarks maps spoken phrases to their written form.
var spokenMarks = map[string]mark{
	"period":            {".", attachLeft},
	"full stop":         {".", attachLeft},
	"comma":             {",", attachLeft},
	"question mark":     {"?", attachLeft},
	"exclamation mark":  {"!", attachLeft},
	"exclamation point": {"!", attachLeft},
	"semicolon":         {";", attachLeft},
	"colon":             {":", attachLeft},
	"close parenthesis": {")", attachLeft},
	"close quote":       {"\"", attachLeft},
	"open parenthesis":  {"(", attachRight},
	"open quote":        {"\"", attachRight},
	"new line":          {"\n", attachBoth},
	"new paragraph":     {"\n\n", attachBoth},
	"hyphen":            {"-", attachBoth},
	"em dash":           {"—", attachBoth},
	"dash":              {"-", attachSpaced},
	"bullet point":      {"• ", attachPrefix},
	"bullet":            {"• ", attachPrefix},
	"number one":        {"1. ", attachPrefix},
	"number two":        {"2. ", attachPrefix},
	"number three":      {"3. ", attachPrefix},
	"number four":       {"4. ", attachPrefix},
	"number five":       {"5. ", attachPrefix},
}

// punctuationPattern matches any spoken mark, longest phrase first. Whole-word
// checks happen in standsAlone since \b only knows ASCII word characters.
var punctuationPattern = buildPunctuationPattern()

func buildPunctuationPattern() *regexp.Regexp {
	phrases := make([]string, 0, len(spokenMarks))
	for phrase := range spokenMarks {
		phrases = append(phrases, phrase)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	alternatives := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		alternatives = append(alternatives, strings.ReplaceAll(regexp.QuoteMeta(phrase), " ", `\s+`))
	}
	return regexp.MustCompile(`(?i)` + strings.Join(alternatives, "|"))
}

// substitutePunctuation replaces spoken marks and reports whether any matched.
func substitutePunctuation(text string) (string, bool) {
	var b strings.Builder
	last, matched := 0, false
	for _, loc := range punctuationPattern.FindAllStringIndex(text, -1) {
		if loc[0] < last || !standsAlone(text, loc[0], loc[1]) {
			continue
		}
		spec, ok := spokenMarks[strings.Join(strings.Fields(strings.ToLower(text[loc[0]:loc[1]])), " ")]
		if !ok {
			continue
		}
		start := loc[0]
		for start > last && isBlank(text[start-1]) {
			start--
		}
		end := loc[1]
		for end < len(text) && isBlank(text[end]) {
			end++
		}
		matched = true
		b.WriteString(text[last:start])
		b.WriteString(spec.render(start < loc[0], end > loc[1]))
		last = end
	}
	if !matched {
		return text, false
	}
	b.WriteString(text[last:])
	return tidy(b.String()), true
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

// render places the symbol given whether whitespace led or trailed the phrase.
func (m mark) render(lead, trail bool) string {
	switch m.attach {
	case attachLeft:
		if trail {
			return m.symbol + " "
		}
		return m.symbol
	case attachRight:
		if lead {
			return " " + m.symbol
		}
		return m.symbol
	case attachBoth:
		return m.symbol
	case attachSpaced:
		return " " + m.symbol + " "
	default:
		if lead {
			return " " + m.symbol
		}
		return m.symbol
	}
}

// standsAlone reports whether text[start:end] has no letter, digit or
// underscore directly on either side.
func standsAlone(text string, start, end int) bool {
	before, _ := utf8.DecodeLastRuneInString(text[:start])
	after, _ := utf8.DecodeRuneInString(text[end:])
	return !isWordRune(before) && !isWordRune(after)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// tidy trims spaces around newlines and collapses runs of spaces.
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}
