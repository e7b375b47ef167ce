// Package commands defines the CLI command structure.
//
// gpuvm deliberately has a single command and no flags: everything that
// varies between runs lives in config.yaml, so an invocation is always
// reproducible from the checked-in configuration alone. Execution is
// delegated to the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/zcox10/gcp-vm-gpu-setup/cmd/gpuvm/handlers"
)

// Root returns the root command for the gpuvm CLI.
func Root() *cobra.Command {
	return &cobra.Command{
		Use:          "gpuvm",
		Short:        "Acquire a GPU VM on Google Cloud and run its setup payload",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         handlers.Run,
	}
}
