package orchestration

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cryptossh "golang.org/x/crypto/ssh"

	"github.com/zcox10/gcp-vm-gpu-setup/internal/config"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/platform/gcp"
	sshx "github.com/zcox10/gcp-vm-gpu-setup/internal/platform/ssh"
	"github.com/zcox10/gcp-vm-gpu-setup/internal/provisioning"
)

const hostKeyScanTimeout = 10 * time.Second

// DispatchError carries the remote payload's exit status so the process
// exit code can surface it verbatim.
type DispatchError struct {
	ExitCode int
	Err      error
}

func (e *DispatchError) Error() string {
	return e.Err.Error()
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Runner executes one acquisition run end to end.
type Runner struct {
	cfg       *config.Config
	log       provisioning.Logger
	stdout    io.Writer // the single machine-readable line, nothing else
	remoteOut io.Writer // streamed payload output

	// Stage seams, overridable in tests.
	connect       func(ctx context.Context) (gcp.Compute, error)
	waitReachable func(ctx context.Context, addr string) error
	scanHostKey   func(addr string) (cryptossh.PublicKey, error)
	recordHostKey func(addr string, key cryptossh.PublicKey) error
	dispatch      func(ctx context.Context, inst provisioning.AcquiredInstance, key cryptossh.PublicKey) (sshx.Result, error)
}

// NewRunner wires the production stages for the given configuration.
func NewRunner(cfg *config.Config, log provisioning.Logger, stdout, remoteOut io.Writer) *Runner {
	r := &Runner{
		cfg:       cfg,
		log:       log,
		stdout:    stdout,
		remoteOut: remoteOut,
	}

	r.connect = func(ctx context.Context) (gcp.Compute, error) {
		creds, err := config.ResolveCredentials(ctx, cfg.GCP.ProjectID)
		if err != nil {
			return nil, err
		}
		return gcp.NewRealClient(ctx, cfg.GCP.ProjectID, creds.TokenSource)
	}
	r.waitReachable = func(ctx context.Context, addr string) error {
		return sshx.WaitReachable(ctx, addr, sshx.DefaultReachOptions())
	}
	r.scanHostKey = func(addr string) (cryptossh.PublicKey, error) {
		return sshx.ScanHostKey(addr, hostKeyScanTimeout)
	}
	r.recordHostKey = func(addr string, key cryptossh.PublicKey) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return sshx.AppendKnownHosts(filepath.Join(home, ".ssh", "known_hosts"), addr, key)
	}
	r.dispatch = r.dispatchPayload

	return r
}

// Run acquires the instance, reports it, waits for reachability, and
// dispatches the setup payload. Each stage gates the next.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Printf("start acquiring %s", r.cfg.GCP.GPUType)

	client, err := r.connect(ctx)
	if err != nil {
		return fmt.Errorf("provider connection failed: %w", err)
	}
	defer func() { _ = client.Close() }()

	instance, err := r.search(ctx, client)
	if err != nil {
		return err
	}

	// The record goes out before reachability: downstream tooling gets
	// the instance identity even if the handoff below fails, because the
	// instance stays allocated either way.
	if err := provisioning.WriteRecord(r.stdout, *instance); err != nil {
		return err
	}

	addr := net.JoinHostPort(instance.ExternalAddress, strconv.Itoa(sshx.DefaultSSHPort))

	r.log.Printf("waiting for %s to accept connections", addr)
	if err := r.waitReachable(ctx, addr); err != nil {
		return fmt.Errorf("instance %s stayed unreachable (it remains allocated; delete it manually if unwanted): %w",
			instance.InstanceName, err)
	}

	hostKey, err := r.scanHostKey(addr)
	if err != nil {
		return fmt.Errorf("failed to pin host key: %w", err)
	}
	if err := r.recordHostKey(addr, hostKey); err != nil {
		return err
	}

	r.log.Printf("dispatching setup payload to %s", addr)
	result, err := r.dispatch(ctx, *instance, hostKey)
	if err != nil {
		return &DispatchError{ExitCode: result.ExitCode, Err: err}
	}

	r.log.Printf("setup completed on %s", instance.InstanceName)
	return nil
}

// search runs the serial candidate search and logs the full attempt
// breakdown on failure so the operator can tell quota problems from
// stockouts.
func (r *Runner) search(ctx context.Context, client gcp.Compute) (*provisioning.AcquiredInstance, error) {
	candidates, err := provisioning.GenerateCandidates(ctx, client, r.cfg.GCP.Zones, r.cfg.GCP.MachineTypes)
	if err != nil {
		return nil, err
	}

	prov := provisioning.NewProvisioner(client, r.cfg.GCP, r.log)
	result, err := provisioning.NewScheduler(prov, r.log).Run(ctx, candidates)
	if err != nil {
		r.log.Printf("%s", provisioning.FormatAttempts(result.Attempts))
		return nil, err
	}
	return result.Instance, nil
}

func (r *Runner) dispatchPayload(ctx context.Context, inst provisioning.AcquiredInstance, hostKey cryptossh.PublicKey) (sshx.Result, error) {
	keyData, err := os.ReadFile(expandHome(r.cfg.Dispatch.PrivateKeyPath)) // #nosec G304
	if err != nil {
		return sshx.Result{ExitCode: -1}, fmt.Errorf("failed to read private key: %w", err)
	}

	payload, err := os.Open(r.cfg.Dispatch.PayloadPath) // #nosec G304
	if err != nil {
		return sshx.Result{ExitCode: -1}, fmt.Errorf("failed to open payload: %w", err)
	}
	defer func() { _ = payload.Close() }()

	addr := net.JoinHostPort(inst.ExternalAddress, strconv.Itoa(sshx.DefaultSSHPort))
	dispatcher, err := sshx.NewDispatcher(addr, r.cfg.Dispatch.RemoteUser, keyData, hostKey)
	if err != nil {
		return sshx.Result{ExitCode: -1}, err
	}

	return dispatcher.Dispatch(ctx, payload, sshx.Args{
		RepoURL:        r.cfg.Dispatch.RepoURL,
		Username:       r.cfg.Dispatch.Username,
		Email:          r.cfg.Dispatch.Email,
		Token:          r.cfg.Dispatch.Token,
		InstanceName:   inst.InstanceName,
		RuntimeVersion: r.cfg.Dispatch.RuntimeVersion,
	}, r.remoteOut)
}

// expandHome resolves a leading ~ so key paths in config.yaml can be
// written portably.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
