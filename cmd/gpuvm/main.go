// Package main is the entry point for the gpuvm CLI.
//
// gpuvm acquires a GPU virtual machine on Google Cloud by searching the
// configured zones and machine types until one combination provisions,
// then bootstraps the machine over SSH with the configured setup payload.
// It reads config.yaml from the working directory and takes no flags:
// one invocation is one acquisition run.
//
// On success the only line written to stdout is a JSON record describing
// the acquired instance; all diagnostics go to stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zcox10/gcp-vm-gpu-setup/cmd/gpuvm/commands"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/orchestration"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// A failed setup payload surfaces its own exit status so callers
		// can distinguish it from acquisition failures.
		var dispatchErr *orchestration.DispatchError
		if errors.As(err, &dispatchErr) && dispatchErr.ExitCode > 0 {
			os.Exit(dispatchErr.ExitCode)
		}
		os.Exit(1)
	}
}
