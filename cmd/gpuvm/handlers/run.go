// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of the
// CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zcox10/gcp-vm-gpu-setup/internal/config"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/orchestration"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/provisioning"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfig reads the run configuration.
	loadConfig = func() (*config.Config, error) {
		return config.LoadFile(config.DefaultPath)
	}

	// newRunner builds the acquisition pipeline.
	newRunner = func(cfg *config.Config, log provisioning.Logger, stdout, remoteOut io.Writer) acquisitionRunner {
		return orchestration.NewRunner(cfg, log, stdout, remoteOut)
	}
)

// acquisitionRunner interface for testing - matches orchestration.Runner.
type acquisitionRunner interface {
	Run(ctx context.Context) error
}

// Run executes one acquisition run: load config, search for capacity,
// report the instance, and dispatch the setup payload.
func Run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := provisioning.DefaultLogger()
	runner := newRunner(cfg, log, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return runner.Run(cmd.Context())
}
