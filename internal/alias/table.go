package alias

// builtin is the shipped spoken-name table. Order is significant: partial
// containment matching walks it front to back.
var builtin = []Entry{
	// browsers
	{Alias: "chrome", Target: "Google Chrome"},
	{Alias: "firefox", Target: "Firefox"},
	{Alias: "safari", Target: "Safari"},
	{Alias: "brave", Target: "Brave Browser"},
	{Alias: "edge", Target: "Microsoft Edge"},
	{Alias: "arc", Target: "Arc"},

	// development
	{Alias: "vs code", Target: "Visual Studio Code"},
	{Alias: "vscode", Target: "Visual Studio Code"},
	{Alias: "code", Target: "Visual Studio Code"},
	{Alias: "visual studio", Target: "Visual Studio Code"},
	{Alias: "pycharm", Target: "PyCharm"},
	{Alias: "xcode", Target: "Xcode"},
	{Alias: "cursor", Target: "Cursor"},
	{Alias: "sublime", Target: "Sublime Text"},
	{Alias: "atom", Target: "Atom"},

	// communication
	{Alias: "slack", Target: "Slack"},
	{Alias: "discord", Target: "Discord"},
	{Alias: "zoom", Target: "zoom.us"},
	{Alias: "teams", Target: "Microsoft Teams"},
	{Alias: "skype", Target: "Skype"},
	{Alias: "messages", Target: "Messages"},
	{Alias: "mail", Target: "Mail"},
	{Alias: "facetime", Target: "FaceTime"},

	// productivity
	{Alias: "word", Target: "Microsoft Word"},
	{Alias: "excel", Target: "Microsoft Excel"},
	{Alias: "powerpoint", Target: "Microsoft PowerPoint"},
	{Alias: "keynote", Target: "Keynote"},
	{Alias: "pages", Target: "Pages"},
	{Alias: "numbers", Target: "Numbers"},
	{Alias: "notes", Target: "Notes"},
	{Alias: "reminders", Target: "Reminders"},
	{Alias: "calendar", Target: "Calendar"},
	{Alias: "notion", Target: "Notion"},
	{Alias: "obsidian", Target: "Obsidian"},

	// media
	{Alias: "spotify", Target: "Spotify"},
	{Alias: "music", Target: "Music"},
	{Alias: "apple music", Target: "Music"},
	{Alias: "itunes", Target: "Music"},
	{Alias: "vlc", Target: "VLC"},
	{Alias: "photoshop", Target: "Adobe Photoshop"},
	{Alias: "illustrator", Target: "Adobe Illustrator"},
	{Alias: "final cut", Target: "Final Cut Pro"},
	{Alias: "imovie", Target: "iMovie"},

	// utilities
	{Alias: "terminal", Target: "Terminal"},
	{Alias: "finder", Target: "Finder"},
	{Alias: "calculator", Target: "Calculator"},
	{Alias: "preview", Target: "Preview"},
	{Alias: "activity monitor", Target: "Activity Monitor"},
	{Alias: "system preferences", Target: "System Preferences"},
	{Alias: "system settings", Target: "System Settings"},
	{Alias: "app store", Target: "App Store"},

	// other
	{Alias: "docker", Target: "Docker"},
	{Alias: "postman", Target: "Postman"},
	{Alias: "github desktop", Target: "GitHub Desktop"},
	{Alias: "gitkraken", Target: "GitKraken"},
}
