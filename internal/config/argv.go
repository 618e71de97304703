package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	errOpenQuote  = errors.New("unterminated quote")
	errOpenEscape = errors.New("unterminated escape sequence")
)

// argvScanner splits a command line with POSIX shell word rules: single
// quotes are literal, double quotes honor \" and \\, a bare backslash escapes
// the next rune, and # starts a comment at a word boundary. No expansion.
type argvScanner struct {
	src   []rune
	pos   int
	words []string
}

func parseArgv(input string) ([]string, error) {
	s := argvScanner{src: []rune(input)}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("%w in command: %q", err, input)
	}
	return s.words, nil
}

func (s *argvScanner) scan() error {
	for {
		s.skipSpace()
		if s.pos >= len(s.src) || s.src[s.pos] == '#' {
			return nil
		}
		word, err := s.word()
		if err != nil {
			return err
		}
		s.words = append(s.words, word)
	}
}

func (s *argvScanner) skipSpace() {
	for s.pos < len(s.src) && unicode.IsSpace(s.src[s.pos]) {
		s.pos++
	}
}

// word consumes one word; adjacent quoted and bare segments join, so
// --name="a b" is a single argument.
func (s *argvScanner) word() (string, error) {
	var b strings.Builder
	for s.pos < len(s.src) {
		r := s.src[s.pos]
		switch {
		case unicode.IsSpace(r):
			return b.String(), nil
		case r == '\'':
			end := s.find('\'', s.pos+1)
			if end < 0 {
				return "", errOpenQuote
			}
			b.WriteString(string(s.src[s.pos+1 : end]))
			s.pos = end + 1
		case r == '"':
			if err := s.doubleQuoted(&b); err != nil {
				return "", err
			}
		case r == '\\':
			if s.pos+1 >= len(s.src) {
				return "", errOpenEscape
			}
			b.WriteRune(s.src[s.pos+1])
			s.pos += 2
		default:
			b.WriteRune(r)
			s.pos++
		}
	}
	return b.String(), nil
}

func (s *argvScanner) doubleQuoted(b *strings.Builder) error {
	for s.pos++; s.pos < len(s.src); s.pos++ {
		switch r := s.src[s.pos]; {
		case r == '"':
			s.pos++
			return nil
		case r == '\\' && s.pos+1 < len(s.src) && (s.src[s.pos+1] == '"' || s.src[s.pos+1] == '\\'):
			s.pos++
			b.WriteRune(s.src[s.pos])
		default:
			b.WriteRune(r)
		}
	}
	return errOpenQuote
}

func (s *argvScanner) find(target rune, from int) int {
	for i := from; i < len(s.src); i++ {
		if s.src[i] == target {
			return i
		}
	}
	return -1
}

// mustParseArgv is for built-in defaults only.
func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
