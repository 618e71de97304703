package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/session"
)

// commandREPL routes typed lines one at a time in the general context.
func (r Runner) commandREPL(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	rt, err := buildRuntime(loaded, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer rt.Close()

	in := r.Stdin
	if in == nil {
		in = os.Stdin
	}

	rn := newRenderer(r.Stdout)
	fmt.Fprintln(r.Stdout, rn.faint.Render("say something; \"exit\" quits"))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(r.Stdout, rn.prompt.Render("hark> "))
		if !scanner.Scan() {
			break
		}
		u, ok := session.ParseLine(scanner.Text())
		if !ok || u.Kind != session.UtteranceFinal {
			continue
		}
		if u.Text == "exit" {
			return 0
		}
		rn.outcome(r.Stdout, rt.router.Process(ctx, u.Text))
		if ctx.Err() != nil {
			fmt.Fprintln(r.Stdout)
			return 0
		}
	}
	fmt.Fprintln(r.Stdout)

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(r.Stderr, "error: read input: %v\n", err)
		return 1
	}
	return 0
}
