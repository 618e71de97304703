package commands

import (
	"context"

	"github.com/rbright/hark/internal/automation"
)

type editorActions struct {
	exec automation.Executor
}

func (e editorActions) handler(build func(process string) string, done string, what string) Handler {
	return func(ctx context.Context, req Request) Result {
		if req.Env.Browser == "" {
			return Result{Message: "No active document editor"}
		}
		return run(ctx, e.exec, build(automation.EditorProcess(req.Env.Browser)), done, what)
	}
}

func (e editorActions) keystroke(key string, done string, what string, mods ...automation.Modifier) Handler {
	return e.handler(func(process string) string {
		return automation.Keystroke(process, key, mods...)
	}, done, what)
}

func (e editorActions) menu(done string, what string, path ...string) Handler {
	return e.handler(func(process string) string {
		return automation.ClickMenu(process, path...)
	}, done, what)
}

// Editor builds the document-editor table: exact formatting toggles plus
// contains-matched color commands.
func Editor(exec automation.Executor) *Table {
	e := editorActions{exec: exec}
	cmdShift := []automation.Modifier{automation.Command, automation.Shift}
	cmdOption := []automation.Modifier{automation.Command, automation.Option}

	bold := e.keystroke("b", "Toggled bold", "toggle bold", automation.Command)
	italic := e.keystroke("i", "Toggled italic", "toggle italic", automation.Command)
	underline := e.keystroke("u", "Toggled underline", "toggle underline", automation.Command)
	bigger := e.keystroke(">", "Increased font size", "increase font size", cmdShift...)
	smaller := e.keystroke("<", "Decreased font size", "decrease font size", cmdShift...)
	single := e.menu("Set to single spacing", "set single spacing", "Format", "Line spacing", "Single")
	double := e.menu("Set to double spacing", "set double spacing", "Format", "Line spacing", "Double")
	oneFive := e.menu("Set to 1.5 line spacing", "set 1.5 spacing", "Format", "Line spacing", "1.5")
	bullets := e.keystroke("8", "Added bullets", "add bullets", cmdShift...)
	removeBullets := e.keystroke("8", "Removed bullets", "remove bullets", cmdShift...)
	numbering := e.keystroke("7", "Added numbering", "add numbering", cmdShift...)
	left := e.keystroke("l", "Aligned left", "align left", cmdShift...)
	center := e.keystroke("e", "Aligned center", "align center", cmdShift...)
	right := e.keystroke("r", "Aligned right", "align right", cmdShift...)
	justify := e.keystroke("j", "Justified text", "justify", cmdShift...)
	h1 := e.keystroke("1", "Applied Heading 1", "apply Heading 1", cmdOption...)
	h2 := e.keystroke("2", "Applied Heading 2", "apply Heading 2", cmdOption...)
	h3 := e.keystroke("3", "Applied Heading 3", "apply Heading 3", cmdOption...)
	normal := e.keystroke("0", "Applied normal text", "apply normal text", cmdOption...)
	strike := e.keystroke("5", "Toggled strikethrough", "toggle strikethrough", cmdShift...)
	clear := e.keystroke(`\`, "Cleared formatting", "clear formatting", automation.Command)
	textColor := e.menu("Opening text color picker", "open color picker", "Format", "Text", "Text color")
	highlight := e.menu("Opening highlight color picker", "open highlight picker", "Format", "Text", "Highlight color")

	exact := func(trigger string, h Handler, category string) Entry {
		return Entry{Trigger: trigger, Mode: Exact, Handler: h, Category: category}
	}

	return NewTable("document_editor", ScopeEditor,
		exact("bold", bold, "formatting"),
		exact("make bold", bold, "formatting"),
		exact("make this bold", bold, "formatting"),
		exact("italic", italic, "formatting"),
		exact("make italic", italic, "formatting"),
		exact("make this italic", italic, "formatting"),
		exact("underline", underline, "formatting"),
		exact("make underline", underline, "formatting"),
		exact("underline this", underline, "formatting"),
		exact("increase font size", bigger, "formatting"),
		exact("bigger text", bigger, "formatting"),
		exact("decrease font size", smaller, "formatting"),
		exact("smaller text", smaller, "formatting"),
		exact("single space", single, "spacing"),
		exact("single spacing", single, "spacing"),
		exact("double space", double, "spacing"),
		exact("double spacing", double, "spacing"),
		exact("one point five spacing", oneFive, "spacing"),
		exact("1.5 spacing", oneFive, "spacing"),
		exact("bullets", bullets, "lists"),
		exact("add bullets", bullets, "lists"),
		exact("bullet list", bullets, "lists"),
		exact("numbered list", numbering, "lists"),
		exact("add numbering", numbering, "lists"),
		exact("remove bullets", removeBullets, "lists"),
		exact("align left", left, "alignment"),
		exact("center", center, "alignment"),
		exact("align center", center, "alignment"),
		exact("align right", right, "alignment"),
		exact("justify", justify, "alignment"),
		exact("justify text", justify, "alignment"),
		exact("heading one", h1, "styles"),
		exact("heading 1", h1, "styles"),
		exact("heading two", h2, "styles"),
		exact("heading 2", h2, "styles"),
		exact("heading three", h3, "styles"),
		exact("heading 3", h3, "styles"),
		exact("normal text", normal, "styles"),
		exact("strikethrough", strike, "formatting"),
		exact("clear formatting", clear, "formatting"),
		Entry{Trigger: "change color to", Mode: Contains, Handler: textColor, Category: "color", Example: "change color to [color]"},
		Entry{Trigger: "text color", Mode: Contains, Handler: textColor, Category: "color", Example: "text color [color]"},
		Entry{Trigger: "highlight", Mode: Contains, Handler: highlight, Category: "color", Example: "highlight text"},
	)
}
