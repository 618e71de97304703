// Package router decides, per utterance, whether it is a command or dictation
// and which table handles it.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/hark/internal/commands"
	"github.com/rbright/hark/internal/contextstate"
	"github.com/rbright/hark/internal/dictation"
	"github.com/rbright/hark/internal/fsm"
)

// ErrEmptyUtterance is returned by callers that reject blank input before routing.
var ErrEmptyUtterance = errors.New("empty utterance")

// Kind is the outcome variant.
type Kind string

const (
	KindExecuted  Kind = "executed"
	KindFailed    Kind = "failed"
	KindUnmatched Kind = "unmatched"
)

// Route names the path an utterance took.
const (
	RouteDictation = "dictation"
	RouteNone      = ""
)

// Outcome is the single result of processing one utterance.
type Outcome struct {
	ID             string               `json:"id"`
	Kind           Kind                 `json:"kind"`
	Message        string               `json:"message"`
	Text           string               `json:"text"`
	Typed          string               `json:"typed,omitempty"`
	Suggestions    []string             `json:"suggestions,omitempty"`
	Tip            string               `json:"tip,omitempty"`
	Route          string               `json:"route,omitempty"`
	Classification Classification       `json:"classification"`
	Context        contextstate.Context `json:"context"`
	At             time.Time            `json:"at"`
	Duration       time.Duration        `json:"duration_ns"`
}

// Mode holds the session toggles that influence routing.
type Mode struct {
	// Typing types dictation-classified text without consulting the tables.
	Typing bool `json:"typing"`
	// Command disables every dictation fallback.
	Command bool `json:"command"`
}

// ContextSource returns the latest tracked context.
type ContextSource interface {
	Snapshot() contextstate.Context
}

// Dictator converts dictated text.
type Dictator interface {
	Process(ctx context.Context, utterance string) dictation.Result
}

// Typist delivers text to the focused application.
type Typist interface {
	Type(ctx context.Context, text string) error
	Undo(ctx context.Context) error
}

// Options tunes the dictation fallback.
type Options struct {
	Classifier            Classifier
	EditorAutoTyping      bool
	GeneralImplicitTyping bool
}

// Router is safe for concurrent use, though the session feeds it one
// utterance at a time.
type Router struct {
	logger    *slog.Logger
	tracker   ContextSource
	dictation Dictator
	typist    Typist
	opts      Options
	now       func() time.Time

	tables  atomic.Pointer[commands.Set]
	typing  atomic.Bool
	command atomic.Bool

	subMu   sync.RWMutex
	subs    map[int]func(Outcome)
	nextSub int
}

// New wires a router. Nil dictation or typist disables the dictation path.
func New(logger *slog.Logger, tracker ContextSource, set *commands.Set, dict Dictator, typist Typist, opts Options) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Classifier.Verbs == nil || opts.Classifier.ShortMaxWords <= 0 || opts.Classifier.DictationMinWords <= 0 {
		c := opts.Classifier
		opts.Classifier = NewClassifier(c.Verbs, c.ShortMaxWords, c.DictationMinWords)
	}
	r := &Router{
		logger:    logger,
		tracker:   tracker,
		dictation: dict,
		typist:    typist,
		opts:      opts,
		now:       time.Now,
		subs:      make(map[int]func(Outcome)),
	}
	if set == nil {
		set = &commands.Set{}
	}
	r.tables.Store(set)
	return r
}

// SetCommands swaps the table set, e.g. after the alias file reloads.
func (r *Router) SetCommands(set *commands.Set) {
	if set != nil {
		r.tables.Store(set)
	}
}

// Commands returns the active table set.
func (r *Router) Commands() *commands.Set { return r.tables.Load() }

// Classify exposes the configured classifier.
func (r *Router) Classify(utterance string) Classification {
	return r.opts.Classifier.Classify(utterance)
}

func (r *Router) SetTyping(on bool)      { r.typing.Store(on) }
func (r *Router) SetCommandMode(on bool) { r.command.Store(on) }

// Mode returns the current toggles.
func (r *Router) Mode() Mode {
	return Mode{Typing: r.typing.Load(), Command: r.command.Load()}
}

// Subscribe registers fn for every published outcome. The returned func unsubscribes.
func (r *Router) Subscribe(fn func(Outcome)) func() {
	if fn == nil {
		return func() {}
	}
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.subMu.Lock()
			delete(r.subs, id)
			r.subMu.Unlock()
		})
	}
}

// Process routes utterance against the latest context snapshot and the
// current mode, publishes the outcome, and returns it.
func (r *Router) Process(ctx context.Context, utterance string) Outcome {
	snap := contextstate.Context{Kind: fsm.StateGeneral}
	if r.tracker != nil {
		snap = r.tracker.Snapshot()
	}
	out := r.Route(ctx, utterance, snap, r.Mode())
	r.publish(out)
	return out
}

// Route is the pure decision: no publishing, no tracker access.
func (r *Router) Route(ctx context.Context, utterance string, c contextstate.Context, mode Mode) (out Outcome) {
	start := r.now()
	text := strings.Join(strings.Fields(utterance), " ")
	out = Outcome{ID: uuid.NewString(), Text: text, Context: c, At: start}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("command handler panicked", "panic", fmt.Sprint(rec), "utterance", text)
			out.Kind = KindFailed
			out.Message = fmt.Sprintf("Failed to run command: %v", rec)
		}
		out.Duration = r.now().Sub(start)
		r.logOutcome(out)
	}()

	if text == "" {
		out.Kind = KindUnmatched
		out.Message = "No speech to process"
		return out
	}

	out.Classification = r.opts.Classifier.Classify(text)
	dictating := out.Classification.Class == ClassDictation

	if mode.Typing && !mode.Command && dictating {
		return r.dictate(ctx, out)
	}

	scope := ScopeFor(c)
	if m, ok := r.tables.Load().Match(scope, text); ok {
		return r.execute(ctx, out, m)
	}

	if dictating && r.acceptsDictation(c, mode) {
		return r.dictate(ctx, out)
	}

	out.Kind = KindUnmatched
	out.Message = "Unknown command: " + text
	out.Suggestions = Hints(scope)
	out.Tip = QuickTip(text)
	return out
}

func (r *Router) acceptsDictation(c contextstate.Context, mode Mode) bool {
	if mode.Command {
		return false
	}
	switch {
	case mode.Typing:
		return true
	case c.Kind == fsm.StateDocumentEditor:
		return r.opts.EditorAutoTyping
	case c.Kind == fsm.StateGeneral:
		return r.opts.GeneralImplicitTyping
	default:
		return false
	}
}

func (r *Router) execute(ctx context.Context, out Outcome, m commands.Match) Outcome {
	out.Route = m.Table
	res := m.Entry.Handler(ctx, commands.Request{
		Utterance: out.Text,
		Param:     m.Param,
		Env:       commands.Env{Browser: out.Context.Browser, Editor: out.Context.Editor},
	})
	out.Message = res.Message
	out.Suggestions = res.Suggestions
	if res.OK {
		out.Kind = KindExecuted
	} else {
		out.Kind = KindFailed
	}
	return out
}

func (r *Router) dictate(ctx context.Context, out Outcome) Outcome {
	out.Route = RouteDictation
	if r.dictation == nil || r.typist == nil {
		out.Kind = KindFailed
		out.Message = "Typing is not available"
		return out
	}

	res := r.dictation.Process(ctx, out.Text)
	if res.Undo {
		if err := r.typist.Undo(ctx); err != nil {
			out.Kind = KindFailed
			out.Message = fmt.Sprintf("Failed to undo: %v", err)
			return out
		}
		out.Kind = KindExecuted
		out.Message = "Undid last dictation"
		return out
	}

	if res.Text == "" {
		out.Kind = KindExecuted
		out.Message = "Nothing to type"
		return out
	}

	if err := r.typist.Type(ctx, res.Text); err != nil {
		out.Kind = KindFailed
		out.Message = fmt.Sprintf("Failed to type text: %v", err)
		return out
	}
	out.Kind = KindExecuted
	out.Typed = res.Text
	out.Message = "Typed: " + res.Text
	return out
}

func (r *Router) publish(out Outcome) {
	r.subMu.RLock()
	subs := make([]func(Outcome), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.subMu.RUnlock()

	for _, fn := range subs {
		r.deliver(fn, out)
	}
}

func (r *Router) deliver(fn func(Outcome), out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("outcome subscriber panicked", "panic", fmt.Sprint(rec), "outcome_id", out.ID)
		}
	}()
	fn(out)
}

func (r *Router) logOutcome(out Outcome) {
	level := slog.LevelInfo
	if out.Kind == KindFailed {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, "outcome",
		"outcome_id", out.ID,
		"kind", string(out.Kind),
		"route", out.Route,
		"context", out.Context.String(),
		"class", string(out.Classification.Class),
		"message", out.Message,
		"duration_ms", out.Duration.Milliseconds(),
	)
}

// ScopeFor maps a tracked context to the table scope.
func ScopeFor(c contextstate.Context) commands.Scope {
	switch c.Kind {
	case fsm.StateDocumentEditor:
		return commands.ScopeEditor
	case fsm.StateBrowser:
		return commands.ScopeBrowser
	default:
		return commands.ScopeGeneral
	}
}
