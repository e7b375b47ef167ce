package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zcox10/gcp-vm-gpu-setup/internal/config"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/provisioning"
)

// saveAndRestoreFactories snapshots the injectable factories so tests can
// replace them freely.
func saveAndRestoreFactories(t *testing.T) {
	t.Helper()
	origLoad := loadConfig
	origRunner := newRunner
	t.Cleanup(func() {
		loadConfig = origLoad
		newRunner = origRunner
	})
}

type stubRunner struct {
	err error
	ran bool
}

func (s *stubRunner) Run(context.Context) error {
	s.ran = true
	return s.err
}

func testCommand() *cobra.Command {
	cmd := &cobra.Command{RunE: Run}
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd
}

func TestRun_ConfigLoadFailure(t *testing.T) {
	saveAndRestoreFactories(t)

	loadConfig = func() (*config.Config, error) {
		return nil, errors.New("read config.yaml: no such file")
	}

	err := Run(testCommand(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestRun_DelegatesToRunner(t *testing.T) {
	saveAndRestoreFactories(t)

	loadConfig = func() (*config.Config, error) {
		return &config.Config{}, nil
	}
	stub := &stubRunner{}
	newRunner = func(*config.Config, provisioning.Logger, io.Writer, io.Writer) acquisitionRunner {
		return stub
	}

	require.NoError(t, Run(testCommand(), nil))
	assert.True(t, stub.ran)
}

func TestRun_SurfacesRunnerError(t *testing.T) {
	saveAndRestoreFactories(t)

	loadConfig = func() (*config.Config, error) {
		return &config.Config{}, nil
	}
	stub := &stubRunner{err: errors.New("no candidate zone/machine-type combination could be provisioned")}
	newRunner = func(*config.Config, provisioning.Logger, io.Writer, io.Writer) acquisitionRunner {
		return stub
	}

	err := Run(testCommand(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidate")
}
