package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// UtteranceKind distinguishes recognizer events.
type UtteranceKind string

const (
	UtteranceFinal   UtteranceKind = "final"
	UtterancePartial UtteranceKind = "partial"
	UtteranceLevel   UtteranceKind = "level"
	UtteranceState   UtteranceKind = "state"
)

// Utterance is one recognizer event. Text is set for final and partial,
// Level for level, State for state.
type Utterance struct {
	Kind  UtteranceKind
	Text  string
	Level float64
	State string
	At    time.Time
}

// Recognizer delivers utterances until its channel closes.
type Recognizer interface {
	Utterances() <-chan Utterance
}

// failer is implemented by recognizers that can end on a read error. Err is
// only consulted after the utterance channel closes.
type failer interface {
	Err() error
}

// maxLineBytes bounds one recognizer line.
const maxLineBytes = 1 << 20

// ChanSource adapts a channel to the Recognizer interface.
type ChanSource chan Utterance

func (c ChanSource) Utterances() <-chan Utterance { return c }

// LineReader turns a line stream into utterances. Plain lines are finals;
// `partial:`, `level:` and `state:` prefixes select the other kinds.
type LineReader struct {
	out chan Utterance
	err error
}

// NewLineReader starts reading r until EOF or ctx cancellation. The channel
// closes when reading ends.
func NewLineReader(ctx context.Context, r io.Reader) *LineReader {
	lr := &LineReader{out: make(chan Utterance)}
	go lr.read(ctx, r)
	return lr
}

func (l *LineReader) Utterances() <-chan Utterance { return l.out }

// Err reports why reading stopped early. It is nil after a clean EOF or
// cancellation and must only be read once Utterances has closed.
func (l *LineReader) Err() error { return l.err }

func (l *LineReader) read(ctx context.Context, r io.Reader) {
	defer close(l.out)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		u, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		u.At = time.Now()
		select {
		case l.out <- u:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		l.err = fmt.Errorf("read recognizer input: %w", err)
	}
}

// ParseLine decodes one input line. Blank lines and unparsable levels are
// skipped.
func ParseLine(line string) (Utterance, bool) {
	line = strings.TrimSpace(norm.NFC.String(line))
	if line == "" {
		return Utterance{}, false
	}

	prefix, rest, found := strings.Cut(line, ":")
	if found {
		rest = strings.TrimSpace(rest)
		switch strings.ToLower(strings.TrimSpace(prefix)) {
		case "partial":
			return Utterance{Kind: UtterancePartial, Text: rest}, rest != ""
		case "level":
			level, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				return Utterance{}, false
			}
			return Utterance{Kind: UtteranceLevel, Level: level}, true
		case "state":
			return Utterance{Kind: UtteranceState, State: rest}, rest != ""
		case "final":
			return Utterance{Kind: UtteranceFinal, Text: rest}, rest != ""
		}
	}
	return Utterance{Kind: UtteranceFinal, Text: line}, true
}
