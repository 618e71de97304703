package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is a parsed config together with where it and the alias file live.
type Loaded struct {
	Path      string
	AliasPath string
	Config    Config
	Warnings  []Warning
	// Exists is false when Path was absent and defaults apply.
	Exists bool
}

// Load reads the config at explicitPath, or the XDG location when empty. A
// missing file is not an error: defaults apply with a warning.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: path, Config: Default()}
	content, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", path),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	default:
		loaded.Exists = true
		loaded.Config, loaded.Warnings, err = Parse(string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	loaded.AliasPath, err = ResolveAliasPath(loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("resolve alias file: %w", err)
	}
	return loaded, nil
}
