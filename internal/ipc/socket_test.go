package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireReplacesStaleFile(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	require.NoError(t, os.WriteFile(socketPath, []byte("stale"), 0o600))

	rescued := 0
	lease, err := Acquire(context.Background(), socketPath, AcquireOptions{
		ProbeTimeout: 50 * time.Millisecond,
		Retries:      2,
		Rescue: func(context.Context) error {
			rescued++
			return nil
		},
	})
	require.NoError(t, err)
	defer lease.Close()

	require.Equal(t, 1, rescued)
	require.Equal(t, socketPath, lease.Path())

	info, err := os.Lstat(socketPath)
	require.NoError(t, err)
	require.Equal(t, os.ModeSocket, info.Mode().Type())
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAcquireRefusesResponsiveOwner(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	owner, err := Acquire(context.Background(), socketPath, AcquireOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- Serve(ctx, owner, HandlerFunc(func(_ context.Context, req Request) Response {
			return Response{OK: req.Command == CommandPing}
		}))
	}()

	_, err = Acquire(context.Background(), socketPath, AcquireOptions{ProbeTimeout: 80 * time.Millisecond, Retries: 1})
	require.ErrorIs(t, err, ErrAlreadyRunning)

	cancel()
	require.NoError(t, <-served)
	require.NoError(t, owner.Close())

	_, err = os.Lstat(socketPath)
	require.True(t, errors.Is(err, os.ErrNotExist), "lease close should remove the socket")
}

func TestAcquireKeepsSocketWhenProbeTimesOut(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				time.Sleep(250 * time.Millisecond)
			}(conn)
		}
	}()

	_, err = Acquire(context.Background(), socketPath, AcquireOptions{ProbeTimeout: 30 * time.Millisecond})
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrAlreadyRunning)
	require.Contains(t, err.Error(), "probe existing socket")

	_, statErr := os.Stat(socketPath)
	require.NoError(t, statErr)
	require.NoError(t, listener.Close())
	<-done
}

func TestLeaseCloseLeavesReplacedSocket(t *testing.T) {
	t.Parallel()

	socketPath := filepath.Join(t.TempDir(), "hark.sock")
	lease, err := Acquire(context.Background(), socketPath, AcquireOptions{})
	require.NoError(t, err)

	// Another owner unlinked and rebound the path while this lease was live.
	require.NoError(t, os.Remove(socketPath))
	successor, err := Acquire(context.Background(), socketPath, AcquireOptions{})
	require.NoError(t, err)

	require.NoError(t, lease.Close())
	_, err = os.Lstat(socketPath)
	require.NoError(t, err, "old lease must not remove its successor's socket")

	require.NoError(t, successor.Close())
	_, err = os.Lstat(socketPath)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestAcquireRejectsSharedDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "shared")
	require.NoError(t, os.Mkdir(dir, 0o700))
	require.NoError(t, os.Chmod(dir, 0o777))

	_, err := Acquire(context.Background(), filepath.Join(dir, "hark.sock"), AcquireOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "writable by others")
}

func TestAcquireCreatesPrivateDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "hark")
	lease, err := Acquire(context.Background(), filepath.Join(dir, "hark.sock"), AcquireOptions{})
	require.NoError(t, err)
	defer lease.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestRuntimeSocketPath(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(runtimeDir, "hark.sock"), path)

	tmp := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("TMPDIR", tmp)
	path, err = RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(tmp, "hark", "hark.sock"), path)

	t.Setenv("TMPDIR", "")
	_, err = RuntimeSocketPath()
	require.Error(t, err)
}
