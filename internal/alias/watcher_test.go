package alias

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases: []\n"), 0o600))

	reloaded := make(chan File, 4)
	w := NewWatcher(path, nil, func(f File) { reloaded <- f })
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  - alias: term\n    target: iTerm\n"), 0o600))

	select {
	case f := <-reloaded:
		require.Equal(t, []Entry{{Alias: "term", Target: "iTerm"}}, f.Aliases)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherIgnoresInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")

	reloaded := make(chan File, 4)
	w := NewWatcher(path, nil, func(f File) { reloaded <- f })
	w.debounce = 20 * time.Millisecond
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  - alias: x\n"), 0o600))

	select {
	case f := <-reloaded:
		t.Fatalf("unexpected reload: %+v", f)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "aliases.yaml"), nil, nil)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
