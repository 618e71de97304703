package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Inventory lists installed launchable targets.
type Inventory interface {
	List(ctx context.Context) ([]string, error)
}

// InventoryFunc adapts a function to the Inventory interface.
type InventoryFunc func(context.Context) ([]string, error)

func (f InventoryFunc) List(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// DirInventory scans directories for `*.app` bundles.
type DirInventory struct {
	Dirs []string
}

// DefaultDirs returns /Applications plus the user's ~/Applications.
func DefaultDirs() []string {
	dirs := []string{"/Applications"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "Applications"))
	}
	return dirs
}

// List returns bundle names without the .app suffix, sorted and de-duplicated.
// Missing directories are skipped.
func (d DirInventory) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	apps := make([]string, 0, 64)

	for _, dir := range d.Dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(expandHome(dir))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("scan applications %q: %w", dir, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasSuffix(name, ".app") || strings.HasPrefix(name, ".") {
				continue
			}
			app := strings.TrimSuffix(name, ".app")
			if _, ok := seen[app]; ok {
				continue
			}
			seen[app] = struct{}{}
			apps = append(apps, app)
		}
	}

	sort.Strings(apps)
	return apps, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
