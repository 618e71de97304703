package automation

import "strings"

// BrowserFamily selects which scripting dictionary a browser understands.
type BrowserFamily int

const (
	// FamilyOther has no usable tab dictionary; actions fall back to keystrokes.
	FamilyOther BrowserFamily = iota
	FamilySafari
	FamilyChromium
)

var chromiumMarkers = []string{"chrome", "chromium", "brave", "edge", "arc", "vivaldi", "opera"}

// FamilyOf classifies a browser by process/application name.
func FamilyOf(browser string) BrowserFamily {
	name := strings.ToLower(browser)
	if strings.Contains(name, "safari") {
		return FamilySafari
	}
	for _, marker := range chromiumMarkers {
		if strings.Contains(name, marker) {
			return FamilyChromium
		}
	}
	return FamilyOther
}

// TabRef is the dictionary term for the focused tab, e.g. "current tab".
func (f BrowserFamily) TabRef() string {
	switch f {
	case FamilySafari:
		return "current tab"
	case FamilyChromium:
		return "active tab"
	default:
		return ""
	}
}

// BrowserApp maps short browser names to their application name.
func BrowserApp(browser string) string {
	name := strings.TrimSpace(browser)
	if strings.EqualFold(name, "chrome") {
		return "Google Chrome"
	}
	return name
}

// EditorProcess is the process that receives document-editor keystrokes.
func EditorProcess(browser string) string {
	if strings.Contains(strings.ToLower(browser), "chrome") {
		return "Google Chrome"
	}
	return BrowserApp(browser)
}

// CurrentURLScript returns a script that prints the focused tab URL.
func CurrentURLScript(browser string) (string, bool) {
	family := FamilyOf(browser)
	if family == FamilyOther {
		return "", false
	}
	return Tell(BrowserApp(browser), "return URL of "+family.TabRef()+" of front window"), true
}
