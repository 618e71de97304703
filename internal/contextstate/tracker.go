// Package contextstate tracks which application context (general, browser,
// document editor) is active and feeds transitions to subscribers.
package contextstate

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/hark/internal/fsm"
)

// DefaultBrowsers are matched case-insensitively as substrings of the frontmost app name.
var DefaultBrowsers = []string{
	"Safari",
	"Google Chrome",
	"Chrome",
	"Firefox",
	"Arc",
	"Brave Browser",
	"Microsoft Edge",
}

// EditorPattern maps a URL host fragment to an editor kind.
type EditorPattern struct {
	Fragment string
	Kind     string
}

// DefaultEditors recognizes Google Docs.
var DefaultEditors = []EditorPattern{{Fragment: "docs.google.com", Kind: "google_docs"}}

// Context is one immutable snapshot of the tracked state.
//
// Kind document_editor always carries a non-empty Browser.
type Context struct {
	Kind    fsm.State `json:"kind"`
	Browser string    `json:"browser,omitempty"`
	Editor  string    `json:"editor,omitempty"`
}

func (c Context) String() string {
	switch c.Kind {
	case fsm.StateBrowser:
		return fmt.Sprintf("browser(%s)", c.Browser)
	case fsm.StateDocumentEditor:
		return fmt.Sprintf("document_editor(%s, %s)", c.Editor, c.Browser)
	default:
		return string(fsm.StateGeneral)
	}
}

// Transition is one FSM edge; identity-only changes do not produce one.
type Transition struct {
	Event fsm.Event `json:"event"`
	From  Context   `json:"from"`
	To    Context   `json:"to"`
	At    time.Time `json:"at"`
}

// Options configures recognized browsers and editor hosts.
type Options struct {
	Browsers []string
	Editors  []EditorPattern
}

// Tracker owns the current Context as a single last-write-wins cell.
type Tracker struct {
	logger   *slog.Logger
	browsers []string
	editors  []EditorPattern
	now      func() time.Time

	// emitMu serializes mutations with their notifications so subscribers
	// observe transitions in the order they were applied.
	emitMu sync.Mutex

	mu      sync.RWMutex
	current Context
	app     string
	url     string
	subs    map[int]func(Transition)
	nextSub int
}

// NewTracker starts in the general context.
func NewTracker(logger *slog.Logger, opts Options) *Tracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	browsers := opts.Browsers
	if len(browsers) == 0 {
		browsers = DefaultBrowsers
	}
	editors := opts.Editors
	if len(editors) == 0 {
		editors = DefaultEditors
	}
	return &Tracker{
		logger:   logger,
		browsers: browsers,
		editors:  editors,
		now:      time.Now,
		current:  Context{Kind: fsm.StateGeneral},
		subs:     make(map[int]func(Transition)),
	}
}

// Snapshot returns the latest known context.
func (t *Tracker) Snapshot() Context {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// App returns the last observed frontmost application name.
func (t *Tracker) App() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.app
}

// URL returns the last observed document URL.
func (t *Tracker) URL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.url
}

// Subscribe registers fn for every transition; the returned func unregisters it.
// Callbacks run synchronously and must not mutate the tracker.
func (t *Tracker) Subscribe(fn func(Transition)) func() {
	if fn == nil {
		return func() {}
	}
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// SetActive marks kind active with identity: a browser name for browser,
// an editor kind for document_editor. Entering the editor from general is a
// desync; the tracker stays in general and returns the transition error.
func (t *Tracker) SetActive(kind fsm.State, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" && kind != fsm.StateGeneral {
		return fmt.Errorf("%s identity must not be empty", kind)
	}
	if !fsm.Valid(kind) {
		return fmt.Errorf("unknown context kind %q", kind)
	}
	return t.apply(func(cur Context) (Context, error) {
		switch kind {
		case fsm.StateBrowser:
			if cur.Kind == fsm.StateDocumentEditor && cur.Browser == identity {
				return cur, nil
			}
			return Context{Kind: fsm.StateBrowser, Browser: identity}, nil
		case fsm.StateDocumentEditor:
			if cur.Kind == fsm.StateGeneral {
				_, err := fsm.Transition(cur.Kind, fsm.EventEnterEditor)
				return cur, err
			}
			return Context{Kind: fsm.StateDocumentEditor, Browser: cur.Browser, Editor: identity}, nil
		default:
			return Context{Kind: fsm.StateGeneral}, nil
		}
	})
}

// SetInactive leaves kind. Leaving the browser also leaves the editor.
// Leaving a context that is not active is a no-op.
func (t *Tracker) SetInactive(kind fsm.State) error {
	if !fsm.Valid(kind) {
		return fmt.Errorf("unknown context kind %q", kind)
	}
	return t.apply(func(cur Context) (Context, error) {
		switch kind {
		case fsm.StateBrowser:
			return Context{Kind: fsm.StateGeneral}, nil
		case fsm.StateDocumentEditor:
			if cur.Kind != fsm.StateDocumentEditor {
				return cur, nil
			}
			return Context{Kind: fsm.StateBrowser, Browser: cur.Browser}, nil
		default:
			return cur, nil
		}
	})
}

// ObserveApp feeds the coarse frontmost-application signal.
func (t *Tracker) ObserveApp(name string) {
	name = strings.TrimSpace(name)
	t.mu.Lock()
	t.app = name
	t.mu.Unlock()

	if browser, ok := t.MatchBrowser(name); ok {
		_ = t.SetActive(fsm.StateBrowser, browser)
		return
	}
	_ = t.SetInactive(fsm.StateBrowser)
}

// ObserveURL feeds the fine document-URL signal. It is ignored outside a
// browser; the kind is checked under the emit lock since the app poller may
// have left the browser while the URL was being fetched.
func (t *Tracker) ObserveURL(rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	t.mu.Lock()
	t.url = rawURL
	t.mu.Unlock()

	editor, isEditor := t.MatchEditor(rawURL)
	_ = t.apply(func(cur Context) (Context, error) {
		switch {
		case cur.Kind == fsm.StateGeneral:
			return cur, nil
		case isEditor:
			return Context{Kind: fsm.StateDocumentEditor, Browser: cur.Browser, Editor: editor}, nil
		case cur.Kind == fsm.StateDocumentEditor:
			return Context{Kind: fsm.StateBrowser, Browser: cur.Browser}, nil
		default:
			return cur, nil
		}
	})
}

// MatchBrowser returns the first configured browser contained in app.
func (t *Tracker) MatchBrowser(app string) (string, bool) {
	lower := strings.ToLower(app)
	if lower == "" {
		return "", false
	}
	for _, b := range t.browsers {
		if strings.Contains(lower, strings.ToLower(b)) {
			return b, true
		}
	}
	return "", false
}

// MatchEditor returns the editor kind whose host fragment is contained in rawURL.
func (t *Tracker) MatchEditor(rawURL string) (string, bool) {
	lower := strings.ToLower(rawURL)
	if lower == "" {
		return "", false
	}
	for _, e := range t.editors {
		if e.Fragment != "" && strings.Contains(lower, strings.ToLower(e.Fragment)) {
			return e.Kind, true
		}
	}
	return "", false
}

// apply computes the target context and walks the FSM one edge at a time so
// every intermediate state is valid. An FSM error demotes to general.
func (t *Tracker) apply(target func(Context) (Context, error)) error {
	t.emitMu.Lock()
	defer t.emitMu.Unlock()

	t.mu.Lock()
	cur := t.current
	next, err := target(cur)
	if err != nil {
		t.mu.Unlock()
		t.logger.Warn("context desync; normalizing to general",
			"context", cur.String(),
			"error", err.Error(),
		)
		return t.demote(err)
	}

	var transitions []Transition
	state := cur
	for _, event := range fsm.Path(cur.Kind, next.Kind) {
		kind, stepErr := fsm.Transition(state.Kind, event)
		if stepErr != nil {
			t.mu.Unlock()
			t.logger.Warn("context desync; normalizing to general",
				"context", state.String(),
				"event", string(event),
				"error", stepErr.Error(),
			)
			return t.demote(stepErr)
		}
		to := intermediate(kind, next, state)
		transitions = append(transitions, Transition{Event: event, From: state, To: to, At: t.now()})
		state = to
	}
	t.current = next
	subs := t.subscribersLocked()
	t.mu.Unlock()

	if len(transitions) == 0 && cur != next {
		t.logger.Debug("context identity changed", "from", cur.String(), "to", next.String())
	}
	for _, tr := range transitions {
		t.logger.Info("context transition",
			"event", string(tr.Event),
			"from", tr.From.String(),
			"to", tr.To.String(),
		)
		notify(subs, tr)
	}
	return nil
}

// demote forces general. A change from a non-general state is still emitted
// as single edges so subscribers stay in sync.
func (t *Tracker) demote(cause error) error {
	t.mu.Lock()
	cur := t.current
	general := Context{Kind: fsm.StateGeneral}
	var transitions []Transition
	state := cur
	for _, event := range fsm.Path(cur.Kind, fsm.StateGeneral) {
		kind, _ := fsm.Transition(state.Kind, event)
		to := intermediate(kind, general, state)
		transitions = append(transitions, Transition{Event: event, From: state, To: to, At: t.now()})
		state = to
	}
	t.current = general
	subs := t.subscribersLocked()
	t.mu.Unlock()

	for _, tr := range transitions {
		notify(subs, tr)
	}
	return cause
}

// intermediate fills identities for a state reached on the way to final.
func intermediate(kind fsm.State, final Context, prev Context) Context {
	if kind == final.Kind {
		return final
	}
	switch kind {
	case fsm.StateBrowser:
		browser := final.Browser
		if browser == "" {
			browser = prev.Browser
		}
		return Context{Kind: fsm.StateBrowser, Browser: browser}
	default:
		return Context{Kind: kind}
	}
}

func (t *Tracker) subscribersLocked() []func(Transition) {
	out := make([]func(Transition), 0, len(t.subs))
	for id := 0; id < t.nextSub; id++ {
		if fn, ok := t.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(subs []func(Transition), tr Transition) {
	for _, fn := range subs {
		fn(tr)
	}
}
