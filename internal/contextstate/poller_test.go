package contextstate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/automation"
	"github.com/rbright/hark/internal/fsm"
)

type scriptedWindow struct {
	mu    sync.Mutex
	apps  []string
	err   error
	calls atomic.Int32
}

func (s *scriptedWindow) FrontmostApp(context.Context) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if len(s.apps) == 0 {
		return "", errors.New("no app")
	}
	app := s.apps[0]
	if len(s.apps) > 1 {
		s.apps = s.apps[1:]
	}
	return app, nil
}

type fixedURL struct {
	url      string
	browsers chan string
}

func (f fixedURL) CurrentURL(_ context.Context, browser string) (string, error) {
	select {
	case f.browsers <- browser:
	default:
	}
	return f.url, nil
}

func fastOptions() PollerOptions {
	return PollerOptions{
		WindowInterval: 5 * time.Millisecond,
		URLInterval:    5 * time.Millisecond,
		ProbeTimeout:   50 * time.Millisecond,
		StopTimeout:    time.Second,
	}
}

func TestPollerDrivesTrackerIntoEditor(t *testing.T) {
	tracker := NewTracker(nil, Options{})
	entered := make(chan Transition, 8)
	tracker.Subscribe(func(tr Transition) {
		if tr.Event == fsm.EventEnterEditor {
			entered <- tr
		}
	})

	window := &scriptedWindow{apps: []string{"Google Chrome"}}
	urls := fixedURL{url: "https://docs.google.com/document/d/abc", browsers: make(chan string, 1)}
	poller := NewPoller(nil, tracker, window, urls, fastOptions())

	require.NoError(t, poller.Start(context.Background()))
	defer func() { require.NoError(t, poller.Stop()) }()

	select {
	case tr := <-entered:
		require.Equal(t, Context{Kind: fsm.StateDocumentEditor, Browser: "Google Chrome", Editor: "google_docs"}, tr.To)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for editor transition")
	}
	require.Equal(t, "Google Chrome", <-urls.browsers)
}

func TestPollerStopsWindowLoopOnPermissionError(t *testing.T) {
	tracker := NewTracker(nil, Options{})
	window := &scriptedWindow{err: errors.New("osascript failed: exit status 1 (Not authorized to send Apple events (-1743))")}
	poller := NewPoller(nil, tracker, window, nil, fastOptions())

	require.NoError(t, poller.Start(context.Background()))

	select {
	case <-poller.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("window loop did not stop after permission error")
	}
	require.EqualValues(t, 1, window.calls.Load())
	require.NoError(t, poller.Stop())
}

func TestPollerKeepsPollingOnTransientErrors(t *testing.T) {
	tracker := NewTracker(nil, Options{})
	window := &scriptedWindow{err: automation.ErrTimedOut}
	poller := NewPoller(nil, tracker, window, nil, fastOptions())

	require.NoError(t, poller.Start(context.Background()))
	require.Eventually(t, func() bool { return window.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, poller.Stop())
}

func TestPollerStopIsIdempotent(t *testing.T) {
	poller := NewPoller(nil, NewTracker(nil, Options{}), &scriptedWindow{apps: []string{"Finder"}}, nil, fastOptions())

	require.NoError(t, poller.Stop())
	require.NoError(t, poller.Start(context.Background()))
	require.NoError(t, poller.Start(context.Background()))
	require.NoError(t, poller.Stop())
	require.NoError(t, poller.Stop())
}

func TestPollerStopIsBounded(t *testing.T) {
	release := make(chan struct{})
	blocking := windowFunc(func(context.Context) (string, error) {
		<-release
		return "Finder", nil
	})
	opts := fastOptions()
	opts.StopTimeout = 20 * time.Millisecond
	poller := NewPoller(nil, NewTracker(nil, Options{}), blocking, nil, opts)

	require.NoError(t, poller.Start(context.Background()))
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	require.ErrorIs(t, poller.Stop(), ErrStopTimeout)
	require.Less(t, time.Since(start), time.Second)

	close(release)
	<-poller.Done()
}

func TestPollerRequiresTracker(t *testing.T) {
	require.Error(t, NewPoller(nil, nil, nil, nil, PollerOptions{}).Start(context.Background()))
}

func TestScriptObserver(t *testing.T) {
	var scripts []string
	obs := ScriptObserver{Executor: automation.ExecutorFunc(func(_ context.Context, script string) (string, error) {
		scripts = append(scripts, script)
		return "https://docs.google.com", nil
	})}

	_, err := obs.FrontmostApp(context.Background())
	require.NoError(t, err)
	require.Equal(t, automation.FrontmostAppScript, scripts[0])

	got, err := obs.CurrentURL(context.Background(), "Safari")
	require.NoError(t, err)
	require.Equal(t, "https://docs.google.com", got)

	_, err = obs.CurrentURL(context.Background(), "Firefox")
	require.ErrorIs(t, err, ErrUnsupportedBrowser)

	_, err = ScriptObserver{}.FrontmostApp(context.Background())
	require.Error(t, err)
}

type windowFunc func(context.Context) (string, error)

func (f windowFunc) FrontmostApp(ctx context.Context) (string, error) { return f(ctx) }
