package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var errNoDevices = errors.New("no audio input devices found")

// Preference names the wanted input and its fallback. Empty or "default"
// means the server default; anything else is a case-insensitive substring
// of the device id or description.
type Preference struct {
	Input    string
	Fallback string
}

// Selection is the chosen device. Warning is set whenever the preferred
// input could not be used.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// Resolve lists devices and applies pref.
func Resolve(ctx context.Context, list Lister, pref Preference) (Selection, error) {
	devices, err := list(ctx)
	if err != nil {
		return Selection{}, err
	}
	return Choose(devices, pref)
}

// Choose picks the preferred input, falling back when it is muted or
// unavailable. A fallback that is itself unusable is an error.
func Choose(devices []Device, pref Preference) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errNoDevices
	}

	primary, err := pick(devices, pref.Input, "audio.input")
	if err != nil {
		return Selection{}, err
	}
	if primary.Usable() {
		return Selection{Device: primary}, nil
	}

	reason := primary.problem()
	backup, err := pick(devices, pref.Fallback, "audio.fallback")
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input %q is %s: %w", primary.ID, reason, err)
	}
	if !backup.Usable() {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", backup.ID, backup.problem())
	}

	return Selection{
		Device:   backup,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, backup.ID),
		Fallback: backup.ID != primary.ID,
	}, nil
}

func pick(devices []Device, term, key string) (Device, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || term == "default" {
		for _, d := range devices {
			if d.Default {
				return d, nil
			}
		}
		return Device{}, errors.New("default audio source is unavailable")
	}
	for _, d := range devices {
		if matches(d, term) {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%s %q did not match any device", key, term)
}

// matches expects term already lowercased.
func matches(d Device, term string) bool {
	return term != "" &&
		(strings.Contains(strings.ToLower(d.ID), term) || strings.Contains(strings.ToLower(d.Description), term))
}
