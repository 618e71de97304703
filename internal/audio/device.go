// Package audio lists capture sources and picks the microphone the external
// recognizer should use.
package audio

import (
	"context"
	"fmt"
)

// Device is one capture source as the sound server reports it.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Lister enumerates capture sources.
type Lister func(context.Context) ([]Device, error)

// Usable reports whether the device can capture right now.
func (d Device) Usable() bool { return d.Available && !d.Muted }

func (d Device) problem() string {
	if d.Muted {
		return "muted"
	}
	return "unavailable"
}

// String renders one listing line; * marks the server default.
func (d Device) String() string {
	mark := " "
	if d.Default {
		mark = "*"
	}
	return fmt.Sprintf("%s id=%s | description=%q | state=%s | available=%s | muted=%s",
		mark, d.ID, d.Description, d.State, yesNo(d.Available), yesNo(d.Muted))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
