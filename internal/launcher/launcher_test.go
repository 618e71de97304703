package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/hark/internal/alias"
	"github.com/rbright/hark/internal/automation"
)

type fakeOpener struct {
	mu        sync.Mutex
	installed map[string]bool
	calls     []string
}

func (f *fakeOpener) OpenApplication(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.installed[name] {
		return nil
	}
	return errors.New("Unable to find application named '" + name + "'")
}

type recordingExecutor struct {
	scripts []string
	err     error
}

func (r *recordingExecutor) Execute(_ context.Context, script string) (string, error) {
	r.scripts = append(r.scripts, script)
	return "", r.err
}

func staticInventory(apps ...string) Inventory {
	return InventoryFunc(func(context.Context) ([]string, error) { return apps, nil })
}

func TestOpenResolvesAlias(t *testing.T) {
	opener := &fakeOpener{installed: map[string]bool{"Google Chrome": true}}
	l := New(nil, alias.Default(), opener, nil, nil, Options{})

	res := l.Open(context.Background(), "Chrome")
	require.True(t, res.OK)
	require.Equal(t, "Opened Google Chrome", res.Message)
	require.Equal(t, []string{"Google Chrome"}, opener.calls)
}

func TestOpenRetriesWithInstalledFuzzyMatch(t *testing.T) {
	opener := &fakeOpener{installed: map[string]bool{"Spotify": true}}
	l := New(nil, alias.NewResolver(nil), opener, nil, staticInventory("Safari", "Spotify"), Options{})

	res := l.Open(context.Background(), "spotfy")
	require.True(t, res.OK)
	require.Equal(t, "Opened Spotify", res.Message)
	require.Equal(t, []string{"Spotfy", "Spotify"}, opener.calls)
}

func TestOpenUnknownApplicationFails(t *testing.T) {
	opener := &fakeOpener{installed: map[string]bool{}}
	l := New(nil, alias.Default(), opener, nil, staticInventory("Safari", "Slack", "Spotify"), Options{})

	res := l.Open(context.Background(), "qwertyapp")
	require.False(t, res.OK)
	require.Equal(t, "Could not find application: qwertyapp", res.Message)
	require.Empty(t, res.Suggestions)
}

func TestOpenEmptyName(t *testing.T) {
	l := New(nil, nil, &fakeOpener{}, nil, nil, Options{})
	res := l.Open(context.Background(), "   ")
	require.False(t, res.OK)
	require.Equal(t, "No application name provided", res.Message)
}

func TestSuggestionsPreferAliasPartialMatches(t *testing.T) {
	l := New(nil, alias.NewResolver([]alias.Entry{
		{Alias: "visual studio code", Target: "Visual Studio Code"},
		{Alias: "visual studio", Target: "Visual Studio"},
	}), &fakeOpener{}, nil, staticInventory("Visual Basic"), Options{})

	require.Equal(t, []string{"Visual Studio Code", "Visual Studio"}, l.Suggestions(context.Background(), "studio"))
	require.Equal(t, []string{"Visual Basic"}, l.Suggestions(context.Background(), "basic"))
	require.Nil(t, l.Suggestions(context.Background(), ""))
}

func TestCloseAndSwitch(t *testing.T) {
	exec := &recordingExecutor{}
	l := New(nil, alias.Default(), nil, exec, nil, Options{})

	res := l.Close(context.Background(), "mail")
	require.True(t, res.OK)
	require.Equal(t, "Closed Mail", res.Message)

	res = l.Switch(context.Background(), "vs code")
	require.True(t, res.OK)
	require.Equal(t, "Switched to Visual Studio Code", res.Message)

	require.Equal(t, []string{
		automation.Tell("Mail", "quit"),
		automation.Tell("Visual Studio Code", "activate"),
	}, exec.scripts)
}

func TestCloseSurfacesExecutorError(t *testing.T) {
	exec := &recordingExecutor{err: automation.ErrTimedOut}
	l := New(nil, alias.Default(), nil, exec, nil, Options{})

	res := l.Close(context.Background(), "safari")
	require.False(t, res.OK)
	require.Equal(t, "Failed to close Safari: command timed out", res.Message)
}

func TestInstalledIsCachedUntilCleared(t *testing.T) {
	var calls atomic.Int32
	inv := InventoryFunc(func(context.Context) ([]string, error) {
		calls.Add(1)
		return []string{"Safari"}, nil
	})
	l := New(nil, nil, nil, nil, inv, Options{})

	for range 3 {
		apps, err := l.Installed(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"Safari"}, apps)
	}
	require.EqualValues(t, 1, calls.Load())

	l.ClearCache()
	_, err := l.Installed(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())
}

func TestInstalledErrorIsNotCached(t *testing.T) {
	var calls atomic.Int32
	inv := InventoryFunc(func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("boom")
		}
		return []string{"Notes"}, nil
	})
	l := New(nil, nil, nil, nil, inv, Options{})

	_, err := l.Installed(context.Background())
	require.Error(t, err)

	apps, err := l.Installed(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Notes"}, apps)
}

func TestDirInventoryListsBundles(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	for _, p := range []string{
		filepath.Join(first, "Safari.app"),
		filepath.Join(first, "Notes.app"),
		filepath.Join(first, ".Hidden.app"),
		filepath.Join(first, "readme.txt"),
		filepath.Join(second, "Notes.app"),
		filepath.Join(second, "Slack.app"),
	} {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}

	apps, err := DirInventory{Dirs: []string{first, second, filepath.Join(first, "missing")}}.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Notes", "Safari", "Slack"}, apps)
}
