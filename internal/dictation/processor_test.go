package dictation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type restorerFunc func(context.Context, string) (string, error)

func (f restorerFunc) Restore(ctx context.Context, text string) (string, error) { return f(ctx, text) }

func TestProcessSpokenPunctuation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "hello period", want: "hello."},
		{in: "hello comma world period", want: "hello, world."},
		{in: "is it ready question mark", want: "is it ready?"},
		{in: "wow exclamation point", want: "wow!"},
		{in: "dear team colon", want: "dear team:"},
		{in: "first new line second", want: "first\nsecond"},
		{in: "end new paragraph start", want: "end\n\nstart"},
		{in: "a open parenthesis b close parenthesis", want: "a (b)"},
		{in: "she said open quote hi close quote", want: `she said "hi"`},
		{in: "well hyphen known", want: "well-known"},
		{in: "wait dash what", want: "wait - what"},
		{in: "list new line bullet milk new line bullet point eggs", want: "list\n• milk\n• eggs"},
		{in: "number one buy milk", want: "1. buy milk"},
		{in: "the semicolonizer ran", want: "the semicolonizer ran"},
		{in: "periodic comments", want: "periodic comments"},
		{in: "la colonía es grande", want: "la colonía es grande"},
		{in: "the commaé thing", want: "the commaé thing"},
		{in: "écomma later", want: "écomma later"},
		{in: "xperiod period", want: "xperiod."},
		{in: "niño period", want: "niño."},
		{in: "café comma crème", want: "café, crème"},
		{in: "Hello PERIOD", want: "Hello."},
		{in: "  spaced   out  ", want: "spaced out"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			p := New(nil, nil, Options{})
			res := p.Process(context.Background(), tc.in)
			require.Equal(t, tc.want, res.Text)
			require.False(t, res.Undo)
		})
	}
}

func TestProcessUndoKeepsBuffer(t *testing.T) {
	p := New(nil, nil, Options{})

	first := p.Process(context.Background(), "hello period")
	require.Equal(t, "hello.", first.Text)
	require.Equal(t, "hello.", p.LastText())

	undo := p.Process(context.Background(), "  Undo That ")
	require.True(t, undo.Undo)
	require.Empty(t, undo.Text)
	require.Equal(t, "hello.", p.LastText())
}

func TestProcessFormattingPrefixes(t *testing.T) {
	tests := []struct {
		in        string
		want      string
		directive Directive
	}{
		{in: "capitalize that hello world", want: "Hello world", directive: DirectiveCapitalize},
		{in: "all caps loud noises period", want: "LOUD NOISES PERIOD", directive: DirectiveUpper},
		{in: "lowercase QUIET Please", want: "quiet please", directive: DirectiveLower},
		{in: "delete that", want: "", directive: DirectiveDelete},
		{in: "lowercased words stay", want: "lowercased words stay", directive: DirectiveNone},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			res := New(nil, nil, Options{}).Process(context.Background(), tc.in)
			require.Equal(t, tc.want, res.Text)
			require.Equal(t, tc.directive, res.Directive)
		})
	}
}

func TestProcessRepeatedCallsUpdateBuffer(t *testing.T) {
	p := New(nil, nil, Options{})
	a := p.Process(context.Background(), "one")
	p.Process(context.Background(), "two")
	b := p.Process(context.Background(), "one")

	require.Equal(t, a.Text, b.Text)
	require.Equal(t, "one", p.LastText())
}

func TestProcessRestorer(t *testing.T) {
	calls := 0
	restorer := restorerFunc(func(_ context.Context, text string) (string, error) {
		calls++
		return "Hello, how are you?", nil
	})
	p := New(nil, restorer, Options{AutoPunctuate: true})

	res := p.Process(context.Background(), "hello how are you")
	require.True(t, res.Restored)
	require.Equal(t, "Hello, how are you?", res.Text)

	res = p.Process(context.Background(), "hello period")
	require.False(t, res.Restored)
	require.Equal(t, "hello.", res.Text)
	require.Equal(t, 1, calls)
}

func TestProcessRestorerFailureFallsBack(t *testing.T) {
	p := New(nil, restorerFunc(func(context.Context, string) (string, error) {
		return "", errors.New("unavailable")
	}), Options{AutoPunctuate: true})

	res := p.Process(context.Background(), "hello there")
	require.False(t, res.Restored)
	require.Equal(t, "hello there", res.Text)
}

func TestProcessRestorerDisabled(t *testing.T) {
	p := New(nil, restorerFunc(func(context.Context, string) (string, error) {
		t.Fatal("restorer must not be called")
		return "", nil
	}), Options{})

	require.Equal(t, "hello there", p.Process(context.Background(), "hello there").Text)
}

func TestProcessCapitalizeSentences(t *testing.T) {
	p := New(nil, nil, Options{CapitalizeSentences: true})

	res := p.Process(context.Background(), "when i speak period i'm clearer question mark see example.com e.g. this")
	require.Equal(t, "When I speak. I'm clearer? See example.com e.g. this", res.Text)

	res = p.Process(context.Background(), "list new line bullet milk")
	require.Equal(t, "List\n• milk", res.Text)
}
