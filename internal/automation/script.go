package automation

import (
	"fmt"
	"strings"
)

// Modifier is one System Events key modifier.
type Modifier string

const (
	Command Modifier = "command down"
	Shift   Modifier = "shift down"
	Option  Modifier = "option down"
	Control Modifier = "control down"
)

// FrontmostAppScript returns the name of the frontmost application process.
const FrontmostAppScript = `tell application "System Events"
	set frontApp to name of first application process whose frontmost is true
end tell
return frontApp`

// Quote renders s as an AppleScript string literal.
//
// Backslashes and double quotes are escaped so untrusted text (queries, URLs,
// dictated words) cannot terminate the literal and inject script statements.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Tell wraps body lines in a `tell application` block.
func Tell(app string, body ...string) string {
	lines := make([]string, 0, len(body)+2)
	lines = append(lines, "tell application "+Quote(app))
	for _, line := range body {
		lines = append(lines, "\t"+line)
	}
	lines = append(lines, "end tell")
	return strings.Join(lines, "\n")
}

// TellProcess wraps body lines in System Events / process blocks.
func TellProcess(process string, body ...string) string {
	inner := make([]string, 0, len(body)+2)
	inner = append(inner, "tell process "+Quote(process))
	for _, line := range body {
		inner = append(inner, "\t"+line)
	}
	inner = append(inner, "end tell")
	return Tell("System Events", inner...)
}

// Keystroke sends a literal key with optional modifiers to process.
func Keystroke(process string, key string, mods ...Modifier) string {
	return TellProcess(process, KeystrokeLine(Quote(key), mods...))
}

// KeyCode sends a virtual key code with optional modifiers to process.
func KeyCode(process string, code int, mods ...Modifier) string {
	return TellProcess(process, fmt.Sprintf("key code %d%s", code, usingClause(mods)))
}

// KeystrokeLine renders one `keystroke` statement for an already-quoted expression.
func KeystrokeLine(expr string, mods ...Modifier) string {
	return "keystroke " + expr + usingClause(mods)
}

// ClickMenu clicks the menu item at path, e.g. ("Format", "Line spacing", "Single").
func ClickMenu(process string, path ...string) string {
	if len(path) < 2 {
		return ""
	}

	lines := []string{"tell menu bar 1"}
	depth := 1
	lines = append(lines, indent(depth)+"tell menu bar item "+Quote(path[0]))
	depth++
	for i := 1; i < len(path); i++ {
		lines = append(lines, indent(depth)+"tell menu "+Quote(path[i-1]))
		depth++
		if i == len(path)-1 {
			lines = append(lines, indent(depth)+"click menu item "+Quote(path[i]))
			break
		}
		lines = append(lines, indent(depth)+"tell menu item "+Quote(path[i]))
		depth++
	}
	for depth > 0 {
		depth--
		lines = append(lines, indent(depth)+"end tell")
	}
	return TellProcess(process, lines...)
}

// Notification renders a `display notification` statement. An empty sound
// leaves the notification silent.
func Notification(title string, message string, sound string) string {
	stmt := "display notification " + Quote(message) + " with title " + Quote(title)
	if sound = strings.TrimSpace(sound); sound != "" {
		stmt += " sound name " + Quote(sound)
	}
	return stmt
}

func usingClause(mods []Modifier) string {
	switch len(mods) {
	case 0:
		return ""
	case 1:
		return " using " + string(mods[0])
	}
	parts := make([]string, 0, len(mods))
	for _, m := range mods {
		parts = append(parts, string(m))
	}
	return " using {" + strings.Join(parts, ", ") + "}"
}

func indent(depth int) string {
	return strings.Repeat("\t", depth)
}
