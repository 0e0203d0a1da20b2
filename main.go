package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wpm-labs/wpm/internal/branding"
	"github.com/wpm-labs/wpm/internal/cli"
	"github.com/wpm-labs/wpm/internal/errs"
)

// version, commit, and date are set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, version, commit, date)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", branding.CLIName(), err)
		os.Exit(errs.ExitCode(err))
	}
}
