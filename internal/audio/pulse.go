package audio

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Pulse port availability values.
const (
	portAvailableUnknown = 0
	portAvailableYes     = 2
)

// ListDevices asks the Pulse-compatible server (PULSE_SERVER or the per-user
// default) for its capture sources. The client library has no context
// support, so ctx only bounds how long the caller waits.
func ListDevices(ctx context.Context) ([]Device, error) {
	type result struct {
		devices []Device
		err     error
	}
	done := make(chan result, 1)
	go func() {
		devices, err := listPulseSources()
		done <- result{devices: devices, err: err}
	}()

	select {
	case r := <-done:
		return r.devices, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("list audio devices: %w", ctx.Err())
	}
}

// SelectDevice resolves pref against the live Pulse sources.
func SelectDevice(ctx context.Context, pref Preference) (Selection, error) {
	return Resolve(ctx, ListDevices, pref)
}

func listPulseSources() ([]Device, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("hark"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	def, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var reply pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(reply))
	for _, info := range reply {
		if info == nil {
			continue
		}
		devices = append(devices, fromSourceInfo(info, def.ID()))
	}
	return devices, nil
}

func fromSourceInfo(info *pulseproto.GetSourceInfoReply, defaultID string) Device {
	return Device{
		ID:          info.SourceName,
		Description: info.Device,
		State:       stateName(info.State),
		Available:   activePortAvailable(info),
		Muted:       info.Mute,
		Default:     info.SourceName == defaultID,
	}
}

func stateName(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// activePortAvailable treats a source without ports, or whose active port
// is missing from the list, as available.
func activePortAvailable(info *pulseproto.GetSourceInfoReply) bool {
	if info == nil {
		return false
	}
	for _, port := range info.Ports {
		if port.Name == info.ActivePortName {
			return port.Available == portAvailableUnknown || port.Available == portAvailableYes
		}
	}
	return true
}
