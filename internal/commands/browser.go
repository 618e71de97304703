package commands

import (
	"context"
	"net/url"
	"strings"

	"github.com/rbright/hark/internal/automation"
)

// SearchURL is the query endpoint used by "search for".
const SearchURL = "https://www.google.com/search?q="

// browserActions renders per-browser scripts for the tracked browser.
type browserActions struct {
	exec automation.Executor
}

func (b browserActions) keystroke(key string, done string, what string, mods ...automation.Modifier) Handler {
	return b.handler(func(browser string) string {
		return automation.Keystroke(browser, key, mods...)
	}, done, what)
}

func (b browserActions) keyCode(code int, done string, what string) Handler {
	return b.handler(func(browser string) string {
		return automation.KeyCode(browser, code)
	}, done, what)
}

func (b browserActions) handler(build func(browser string) string, done string, what string) Handler {
	return func(ctx context.Context, req Request) Result {
		browser := automation.BrowserApp(req.Env.Browser)
		if browser == "" {
			return Result{Message: "No active browser"}
		}
		return run(ctx, b.exec, build(browser), done, what)
	}
}

// tabScript uses the tab dictionary when the browser has one, otherwise a keystroke.
func tabScript(browser string, tabLine string, key string, mods ...automation.Modifier) string {
	family := automation.FamilyOf(browser)
	if family == automation.FamilyOther {
		return automation.Keystroke(browser, key, mods...)
	}
	return automation.Tell(browser, strings.ReplaceAll(tabLine, "{tab}", family.TabRef()))
}

func newTabScript(browser string, target string) string {
	switch automation.FamilyOf(browser) {
	case automation.FamilySafari:
		if target == "" {
			return automation.Tell(browser, "tell front window", "\tmake new tab", "end tell")
		}
		return automation.Tell(browser, "tell front window",
			"\tset current tab to (make new tab with properties {URL:"+automation.Quote(target)+"})",
			"end tell")
	case automation.FamilyChromium:
		if target == "" {
			return automation.Tell(browser, "tell front window", "\tmake new tab", "end tell")
		}
		return automation.Tell(browser, "tell front window",
			"\tmake new tab with properties {URL:"+automation.Quote(target)+"}",
			"end tell")
	default:
		if target == "" {
			return automation.Keystroke(browser, "t", automation.Command)
		}
		return typeIntoLocation(browser, "t", target)
	}
}

func navigateScript(browser string, target string) string {
	family := automation.FamilyOf(browser)
	if family == automation.FamilyOther {
		return typeIntoLocation(browser, "l", target)
	}
	return automation.Tell(browser, "set URL of "+family.TabRef()+" of front window to "+automation.Quote(target))
}

// typeIntoLocation focuses the address bar with cmd-<key>, types target and presses Return.
func typeIntoLocation(browser string, key string, target string) string {
	return automation.TellProcess(browser,
		automation.KeystrokeLine(automation.Quote(key), automation.Command),
		"delay 0.2",
		automation.KeystrokeLine(automation.Quote(target)),
		"key code 36",
	)
}

// NormalizeURL adds https:// when the scheme is missing and drops spoken spaces.
func NormalizeURL(raw string) string {
	target := strings.TrimSpace(raw)
	target = strings.ReplaceAll(target, " dot ", ".")
	target = strings.ReplaceAll(target, " ", "")
	if target == "" {
		return ""
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = "https://" + target
	}
	return target
}

// SearchTarget builds the search URL for query.
func SearchTarget(query string) string {
	return SearchURL + url.QueryEscape(strings.TrimSpace(query))
}

// Browser builds the generic exact-phrase browser table.
func Browser(exec automation.Executor) *Table {
	b := browserActions{exec: exec}

	closeTab := b.handler(func(browser string) string {
		return tabScript(browser, "close {tab} of front window", "w", automation.Command)
	}, "Closed current tab", "close tab")
	closeAll := b.handler(func(browser string) string {
		return tabScript(browser, "close every tab of front window", "w", automation.Command, automation.Shift)
	}, "Closed all tabs", "close tabs")
	newTab := b.handler(func(browser string) string { return newTabScript(browser, "") }, "Opened new tab", "open tab")
	back := b.keystroke("[", "Navigated back", "go back", automation.Command)
	forward := b.keystroke("]", "Navigated forward", "go forward", automation.Command)
	refresh := b.keystroke("r", "Refreshed page", "refresh", automation.Command)
	bookmark := b.keystroke("d", "Bookmarked page", "bookmark", automation.Command)
	zoomIn := b.keystroke("+", "Zoomed in", "zoom", automation.Command)
	zoomOut := b.keystroke("-", "Zoomed out", "zoom", automation.Command)
	scrollUp := b.keyCode(126, "Scrolled up", "scroll")
	scrollDown := b.keyCode(125, "Scrolled down", "scroll")
	scrollTop := b.handler(func(browser string) string {
		return automation.TellProcess(browser, automation.KeystrokeLine("(ASCII character 28)", automation.Command))
	}, "Scrolled to top", "scroll")
	scrollBottom := b.handler(func(browser string) string {
		return automation.TellProcess(browser, automation.KeystrokeLine("(ASCII character 31)", automation.Command))
	}, "Scrolled to bottom", "scroll")
	find := b.keystroke("f", "Opened find dialog", "open find", automation.Command)

	exact := func(trigger string, h Handler, category string) Entry {
		return Entry{Trigger: trigger, Mode: Exact, Handler: h, Category: category}
	}

	return NewTable("browser", ScopeBrowser,
		exact("close tab", closeTab, "tabs"),
		exact("close this tab", closeTab, "tabs"),
		exact("close all tabs", closeAll, "tabs"),
		exact("new tab", newTab, "tabs"),
		exact("open new tab", newTab, "tabs"),
		exact("back", back, "navigation"),
		exact("go back", back, "navigation"),
		exact("forward", forward, "navigation"),
		exact("go forward", forward, "navigation"),
		exact("refresh", refresh, "page"),
		exact("reload", refresh, "page"),
		exact("refresh page", refresh, "page"),
		exact("reload page", refresh, "page"),
		exact("bookmark", bookmark, "page"),
		exact("bookmark this", bookmark, "page"),
		exact("bookmark page", bookmark, "page"),
		exact("zoom in", zoomIn, "page"),
		exact("zoom out", zoomOut, "page"),
		exact("scroll up", scrollUp, "scrolling"),
		exact("scroll down", scrollDown, "scrolling"),
		exact("scroll to top", scrollTop, "scrolling"),
		exact("top of page", scrollTop, "scrolling"),
		exact("scroll to bottom", scrollBottom, "scrolling"),
		exact("bottom of page", scrollBottom, "scrolling"),
		exact("find", find, "page"),
		exact("find on page", find, "page"),
	)
}

// BrowserSpecial builds the parameterized browser table (navigation, search, find).
func BrowserSpecial(exec automation.Executor) *Table {
	b := browserActions{exec: exec}

	navigate := func(ctx context.Context, req Request) Result {
		target := NormalizeURL(req.Param)
		if target == "" {
			return Result{Message: "Say a website, like 'go to github.com'"}
		}
		return b.handler(func(browser string) string {
			return navigateScript(browser, target)
		}, "Navigating to "+target, "navigate")(ctx, req)
	}

	search := func(ctx context.Context, req Request) Result {
		query := strings.TrimSpace(req.Param)
		if query == "" {
			return Result{Message: "Say what to search for, like 'search for weather'"}
		}
		return b.handler(func(browser string) string {
			return navigateScript(browser, SearchTarget(query))
		}, "Searching for: "+query, "search")(ctx, req)
	}

	find := func(ctx context.Context, req Request) Result {
		text := req.Param
		if text == "on page" {
			text = ""
		}
		text = strings.TrimSpace(strings.TrimSuffix(text, " on page"))
		if text == "" {
			return b.keystroke("f", "Opened find dialog", "open find", automation.Command)(ctx, req)
		}
		return b.handler(func(browser string) string {
			return automation.TellProcess(browser,
				automation.KeystrokeLine(automation.Quote("f"), automation.Command),
				"delay 0.2",
				automation.KeystrokeLine(automation.Quote(text)),
			)
		}, "Finding: "+text, "find")(ctx, req)
	}

	newTab := func(ctx context.Context, req Request) Result {
		target := ""
		if req.Param != "" {
			target = NormalizeURL(req.Param)
		}
		return b.handler(func(browser string) string {
			return newTabScript(browser, target)
		}, "Opened new tab", "open tab")(ctx, req)
	}

	notAppSwitch := func(param string) bool {
		return param != "app" && !strings.HasPrefix(param, "app ")
	}

	return NewTable("browser_special", ScopeBrowser,
		Entry{Trigger: "go to", Mode: Prefix, Handler: navigate, Accept: notAppSwitch, Category: "navigation", Example: "go to [website]"},
		Entry{Trigger: "navigate to", Mode: Prefix, Handler: navigate, Category: "navigation", Example: "navigate to [website]"},
		Entry{Trigger: "open website", Mode: Prefix, Handler: navigate, Category: "navigation", Example: "open website [website]"},
		Entry{Trigger: "search for", Mode: Prefix, Handler: search, Category: "search", Example: "search for [query]"},
		Entry{Trigger: "search", Mode: Prefix, Handler: search, Category: "search", Example: "search [query]"},
		Entry{Trigger: "google", Mode: Prefix, Handler: search, Category: "search", Example: "google [query]"},
		Entry{Trigger: "find", Mode: Prefix, Handler: find, Category: "page", Example: "find [text] on page"},
		Entry{Trigger: "new tab", Mode: Prefix, Handler: newTab, Category: "tabs", Example: "new tab [website]"},
	)
}
