// Package ipc carries newline-delimited JSON commands between hark CLI
// invocations and the session that owns the runtime socket.
package ipc

import (
	"github.com/rbright/hark/internal/contextstate"
	"github.com/rbright/hark/internal/router"
)

// Commands understood by the owner session.
const (
	CommandPing       = "ping"
	CommandStatus     = "status"
	CommandContext    = "context"
	CommandProcess    = "process"
	CommandSuggest    = "suggest"
	CommandTyping     = "typing"
	CommandMode       = "command"
	CommandAlias      = "alias"
	CommandClearCache = "clear_cache"
	CommandStop       = "stop"
)

// Request is one newline-delimited JSON command sent to the owner session.
type Request struct {
	Command string `json:"command"`
	Text    string `json:"text,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	// Enabled is nil for a toggle.
	Enabled *bool  `json:"enabled,omitempty"`
	Alias   string `json:"alias,omitempty"`
	Target  string `json:"target,omitempty"`
}

// Response is the owner session's reply to one Request.
type Response struct {
	OK          bool                  `json:"ok"`
	State       string                `json:"state,omitempty"`
	Message     string                `json:"message,omitempty"`
	Error       string                `json:"error,omitempty"`
	Outcome     *router.Outcome       `json:"outcome,omitempty"`
	Suggestions []string              `json:"suggestions,omitempty"`
	Context     *contextstate.Context `json:"context,omitempty"`
	Mode        *router.Mode          `json:"mode,omitempty"`
}
