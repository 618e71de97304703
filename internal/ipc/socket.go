package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning reports a responsive owner already bound to the socket.
var ErrAlreadyRunning = errors.New("hark session already running")

// RuntimeSocketPath prefers XDG_RUNTIME_DIR and falls back to a private
// directory under TMPDIR, which macOS already scopes per user.
func RuntimeSocketPath() (string, error) {
	if runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); runtimeDir != "" {
		return filepath.Join(runtimeDir, "hark.sock"), nil
	}
	tmp := strings.TrimSpace(os.Getenv("TMPDIR"))
	if tmp == "" {
		return "", errors.New("neither XDG_RUNTIME_DIR nor TMPDIR is set")
	}
	return filepath.Join(tmp, "hark", "hark.sock"), nil
}

// AcquireOptions tunes stale-socket recovery.
type AcquireOptions struct {
	ProbeTimeout time.Duration
	Retries      int
	// Rescue runs after a stale socket is removed, before the next bind.
	Rescue func(context.Context) error
}

// Lease is the owner's hold on the runtime socket.
type Lease struct {
	net.Listener
	path string
	info os.FileInfo
}

// Path returns the bound socket path.
func (l *Lease) Path() string { return l.path }

// Close stops listening and removes the socket file, unless another owner
// has since replaced it.
func (l *Lease) Close() error {
	err := l.Listener.Close()
	if errors.Is(err, net.ErrClosed) {
		// Serve already closed it on shutdown.
		err = nil
	}
	if current, statErr := os.Lstat(l.path); statErr == nil && os.SameFile(current, l.info) {
		if removeErr := os.Remove(l.path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("remove socket %s: %w", l.path, removeErr)
		}
	}
	return err
}

// Acquire binds path as the single owner. A responsive owner yields
// ErrAlreadyRunning; a dead one is unlinked and the bind retried.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (*Lease, error) {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 200 * time.Millisecond
	}
	if err := ensurePrivateDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		lease, err := bind(path)
		if err == nil {
			return lease, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, probeErr := Probe(ctx, path, opts.ProbeTimeout)
		if alive {
			return nil, ErrAlreadyRunning
		}
		if probeErr != nil {
			// Something holds the socket but did not answer in time.
			return nil, fmt.Errorf("probe existing socket %s: %w", path, probeErr)
		}

		if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, removeErr)
		}
		if opts.Rescue != nil {
			_ = opts.Rescue(ctx)
		}

		if attempt >= opts.Retries {
			return nil, fmt.Errorf("acquire socket %s: still in use after %d retries", path, opts.Retries)
		}
		backoff := time.Duration(25*(attempt+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func bind(path string) (*Lease, error) {
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	// Lease.Close removes the file itself after checking ownership.
	if unix, ok := listener.(*net.UnixListener); ok {
		unix.SetUnlinkOnClose(false)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = listener.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("chmod socket %s: %w", path, err)
	}
	info, err := os.Lstat(path)
	if err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("stat socket %s: %w", path, err)
	}
	return &Lease{Listener: listener, path: path, info: info}, nil
}

// ensurePrivateDir creates dir 0700 and refuses one that other users can
// write, where a planted socket could impersonate the owner.
func ensurePrivateDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("ensure runtime socket dir: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat runtime socket dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("runtime socket dir %s is not a directory", dir)
	}
	if perm := info.Mode().Perm(); perm&0o022 != 0 {
		return fmt.Errorf("runtime socket dir %s is writable by others (mode %04o)", dir, perm)
	}
	return nil
}
