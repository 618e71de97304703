// Package fsm is the application-context state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateGeneral        State = "general"
	StateBrowser        State = "browser"
	StateDocumentEditor State = "document_editor"
)

const (
	EventEnterBrowser Event = "enter_browser"
	EventExitBrowser  Event = "exit_browser"
	EventEnterEditor  Event = "enter_editor"
	EventExitEditor   Event = "exit_editor"
)

// Transition returns the state after event. Impossible edges return the
// current state and an invalid-transition error.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateGeneral:
		switch event {
		case EventEnterBrowser:
			return StateBrowser, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateBrowser:
		switch event {
		case EventExitBrowser:
			return StateGeneral, nil
		case EventEnterEditor:
			return StateDocumentEditor, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateDocumentEditor:
		switch event {
		case EventExitEditor:
			return StateBrowser, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// Path returns the events that move from one state to another, one edge
// per event. Leaving the editor for general passes through browser.
func Path(from State, to State) []Event {
	switch {
	case from == to:
		return nil
	case from == StateGeneral && to == StateBrowser:
		return []Event{EventEnterBrowser}
	case from == StateGeneral && to == StateDocumentEditor:
		return []Event{EventEnterBrowser, EventEnterEditor}
	case from == StateBrowser && to == StateGeneral:
		return []Event{EventExitBrowser}
	case from == StateBrowser && to == StateDocumentEditor:
		return []Event{EventEnterEditor}
	case from == StateDocumentEditor && to == StateBrowser:
		return []Event{EventExitEditor}
	case from == StateDocumentEditor && to == StateGeneral:
		return []Event{EventExitEditor, EventExitBrowser}
	default:
		return nil
	}
}

// Valid reports whether s is a known state.
func Valid(s State) bool {
	switch s {
	case StateGeneral, StateBrowser, StateDocumentEditor:
		return true
	default:
		return false
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
