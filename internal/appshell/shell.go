// Package appshell adapts a RunContext-style entry point to a process:
// signal handling, argv and the exit status.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// ExitCancelled is returned when SIGINT or SIGTERM stopped the run.
const ExitCancelled = 130

func Main(run func(context.Context, []string, io.Writer, io.Writer) int) {
	os.Exit(main(run, os.Args[1:], os.Stdout, os.Stderr))
}

func main(run func(context.Context, []string, io.Writer, io.Writer) int, argv []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(argv) == 0 {
		argv = []string{"--help"}
	}
	code := run(ctx, argv, stdout, stderr)
	// A signal that lands after the last cancellation check still counts.
	if ctx.Err() != nil && code == 0 {
		code = ExitCancelled
	}
	return code
}
