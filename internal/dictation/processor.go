// Package dictation turns dictated utterances into text to type.
package dictation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Directive names the formatting prefix applied to an utterance.
type Directive string

const (
	DirectiveNone       Directive = ""
	DirectiveCapitalize Directive = "capitalize"
	DirectiveUpper      Directive = "all_caps"
	DirectiveLower      Directive = "lowercase"
	DirectiveDelete     Directive = "delete"
)

// UndoPhrase is the whole-utterance undo command.
const UndoPhrase = "undo that"

var formattingPrefixes = []struct {
	phrase    string
	directive Directive
}{
	{"capitalize that", DirectiveCapitalize},
	{"all caps", DirectiveUpper},
	{"lowercase", DirectiveLower},
	{"delete that", DirectiveDelete},
}

// Restorer adds punctuation to unpunctuated text.
type Restorer interface {
	Restore(ctx context.Context, text string) (string, error)
}

// Options controls optional post-processing.
type Options struct {
	AutoPunctuate       bool
	CapitalizeSentences bool
	RestoreTimeout      time.Duration
}

// Result is one processed utterance.
type Result struct {
	Text      string
	Undo      bool
	Directive Directive
	// Punctuated reports that spoken punctuation was substituted.
	Punctuated bool
	// Restored reports that the restorer rewrote the text.
	Restored bool
}

// Processor applies undo, formatting prefixes, spoken punctuation, and
// optional punctuation restoration. It keeps the last emitted text, so
// repeated calls with the same utterance are not side-effect free.
type Processor struct {
	logger   *slog.Logger
	restorer Restorer
	opts     Options

	mu       sync.Mutex
	lastText string
}

// New constructs a processor. A nil restorer disables restoration.
func New(logger *slog.Logger, restorer Restorer, opts Options) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.RestoreTimeout <= 0 {
		opts.RestoreTimeout = 2 * time.Second
	}
	return &Processor{logger: logger, restorer: restorer, opts: opts}
}

// Process converts one utterance.
func (p *Processor) Process(ctx context.Context, utterance string) Result {
	text := strings.Join(strings.Fields(norm.NFC.String(utterance)), " ")
	lower := strings.ToLower(text)

	if lower == UndoPhrase {
		return Result{Undo: true}
	}

	for _, prefix := range formattingPrefixes {
		rest, ok := cutPhrase(text, lower, prefix.phrase)
		if !ok {
			continue
		}
		out := applyDirective(prefix.directive, rest)
		p.remember(out)
		return Result{Text: out, Directive: prefix.directive}
	}

	out, punctuated := substitutePunctuation(text)
	res := Result{Punctuated: punctuated}
	if !punctuated && p.opts.AutoPunctuate && p.restorer != nil && out != "" {
		if restored, ok := p.restore(ctx, out); ok {
			out = restored
			res.Restored = true
		}
	}
	if p.opts.CapitalizeSentences {
		out = capitalizeSentences(out)
	}

	res.Text = out
	p.remember(out)
	return res
}

// LastText returns the most recent non-undo output.
func (p *Processor) LastText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastText
}

func (p *Processor) remember(text string) {
	p.mu.Lock()
	p.lastText = text
	p.mu.Unlock()
}

// restore never fails the pipeline; errors fall back to the manual path.
func (p *Processor) restore(ctx context.Context, text string) (string, bool) {
	restoreCtx, cancel := context.WithTimeout(ctx, p.opts.RestoreTimeout)
	defer cancel()

	restored, err := p.restorer.Restore(restoreCtx, text)
	if err != nil {
		p.logger.Debug("punctuation restore failed; using manual text", "error", err.Error())
		return "", false
	}
	restored = strings.TrimSpace(restored)
	if restored == "" {
		return "", false
	}
	return restored, true
}

// cutPhrase matches phrase as a whole-word prefix of lower and returns the
// original-case remainder.
func cutPhrase(text string, lower string, phrase string) (string, bool) {
	if lower == phrase {
		return "", true
	}
	if !strings.HasPrefix(lower, phrase+" ") {
		return "", false
	}
	return strings.TrimSpace(text[len(phrase):]), true
}

func applyDirective(d Directive, text string) string {
	switch d {
	case DirectiveCapitalize:
		r, size := utf8.DecodeRuneInString(text)
		if r == utf8.RuneError {
			return text
		}
		return string(unicode.ToUpper(r)) + text[size:]
	case DirectiveUpper:
		return strings.ToUpper(text)
	case DirectiveLower:
		return strings.ToLower(text)
	case DirectiveDelete:
		return ""
	default:
		return text
	}
}
