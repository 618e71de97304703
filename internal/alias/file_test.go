package alias

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseFile(t *testing.T) {
	f, err := ParseFile([]byte(`
aliases:
  - alias: Term
    target: iTerm
commands:
  - phrase: "  Lock   Screen "
    script: 'tell application "System Events" to keystroke "q" using {command down, control down}'
    message: Locked screen
`))
	require.NoError(t, err)

	want := File{
		Aliases: []Entry{{Alias: "Term", Target: "iTerm"}},
		Commands: []CustomCommand{{
			Phrase:  "lock screen",
			Script:  `tell application "System Events" to keystroke "q" using {command down, control down}`,
			Message: "Locked screen",
			Match:   "exact",
		}},
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Fatalf("ParseFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFileRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{name: "missing target", payload: "aliases:\n  - alias: x\n", wantErr: "aliases[0].target is required"},
		{name: "bad match", payload: "commands:\n  - phrase: x\n    script: beep\n    match: fuzzy\n", wantErr: "must be one of"},
		{name: "unknown field", payload: "aliasez: []\n", wantErr: "field aliasez not found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFile([]byte(tc.payload))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadFileMissingIsEmpty(t *testing.T) {
	f, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Empty(t, f.Aliases)
}

func TestSaveAliasUpsertsEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hark", "aliases.yaml")

	require.NoError(t, SaveAlias(path, Entry{Alias: "Term", Target: "Terminal"}))
	require.NoError(t, SaveAlias(path, Entry{Alias: "term", Target: "iTerm"}))
	require.NoError(t, SaveAlias(path, Entry{Alias: "ed", Target: "TextEdit"}))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, []Entry{{Alias: "term", Target: "iTerm"}, {Alias: "ed", Target: "TextEdit"}}, f.Aliases)

	require.Error(t, SaveAlias(path, Entry{Alias: "x"}))

	_, err = os.Stat(path + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)
}
