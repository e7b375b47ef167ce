package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
)

const (
	defaultDialTimeout = 10 * time.Second

	// remotePayloadPath is the known location the payload lands at,
	// relative to the remote user's home directory.
	remotePayloadPath = "setup.sh"
)

// Args is the payload's fixed positional argument vector, in contract
// order. The payload is opaque; only this order is known here.
type Args struct {
	RepoURL        string
	Username       string
	Email          string
	Token          string
	InstanceName   string
	RuntimeVersion string
}

func (a Args) vector() []string {
	return []string{a.RepoURL, a.Username, a.Email, a.Token, a.InstanceName, a.RuntimeVersion}
}

// Result is what the remote execution produced. Output is streamed as it
// is produced, not captured here, so Result only carries the exit status.
type Result struct {
	ExitCode int
}

// Dispatcher transfers a payload to an acquired instance and executes it.
// The zero value is not usable; construct with NewDispatcher.
type Dispatcher struct {
	addr        string
	user        string
	signer      ssh.Signer
	hostKey     ssh.PublicKey
	dialTimeout time.Duration
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDialTimeout overrides the TCP dial timeout for dispatch sessions.
func WithDialTimeout(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) {
		dp.dialTimeout = d
	}
}

// NewDispatcher validates the credential and the pinned host key up front
// so a run fails before any session is opened if either is unusable.
func NewDispatcher(addr, user string, privateKey []byte, hostKey ssh.PublicKey, opts ...DispatcherOption) (*Dispatcher, error) {
	if addr == "" {
		return nil, fmt.Errorf("dispatcher address cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("dispatcher user cannot be empty")
	}
	if hostKey == nil {
		return nil, fmt.Errorf("dispatcher requires a pinned host key")
	}

	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	d := &Dispatcher{
		addr:        addr,
		user:        user,
		signer:      signer,
		hostKey:     hostKey,
		dialTimeout: defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch uploads the payload, marks it executable, and runs it once with
// elevated privilege and the six-argument vector. Combined output streams
// to out as the remote process produces it. The remote exit status is
// surfaced verbatim in the Result; a non-zero status is also returned as
// an error so callers cannot miss it.
//
// Dispatch does not deduplicate: running it twice runs the payload twice.
// Idempotence is the payload's contract, not enforced here.
func (d *Dispatcher) Dispatch(ctx context.Context, payload io.Reader, args Args, out io.Writer) (Result, error) {
	client, err := d.connect()
	if err != nil {
		return Result{ExitCode: -1}, err
	}
	defer func() { _ = client.Close() }()

	if err := d.upload(client, payload); err != nil {
		return Result{ExitCode: -1}, err
	}

	return d.execute(ctx, client, args, out)
}

func (d *Dispatcher) connect() (*ssh.Client, error) {
	cfg := &ssh.ClientConfig{
		User:            d.user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(d.signer)},
		HostKeyCallback: ssh.FixedHostKey(d.hostKey),
		Timeout:         d.dialTimeout,
	}

	client, err := ssh.Dial("tcp", d.addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.addr, err)
	}
	return client, nil
}

// upload streams the payload into the known remote path and marks it
// executable. Two short sessions; no scp/sftp dependency on the image.
func (d *Dispatcher) upload(client *ssh.Client, payload io.Reader) error {
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open upload session: %w", err)
	}
	session.Stdin = payload
	err = session.Run(fmt.Sprintf("cat > %s", shellQuote(remotePayloadPath)))
	_ = session.Close()
	if err != nil {
		return fmt.Errorf("failed to upload payload to %s: %w", remotePayloadPath, err)
	}

	session, err = client.NewSession()
	if err != nil {
		return fmt.Errorf("failed to open chmod session: %w", err)
	}
	err = session.Run(fmt.Sprintf("chmod +x %s", shellQuote(remotePayloadPath)))
	_ = session.Close()
	if err != nil {
		return fmt.Errorf("failed to mark payload executable: %w", err)
	}
	return nil
}

// execute runs the payload in a single session, streaming combined output.
func (d *Dispatcher) execute(ctx context.Context, client *ssh.Client, args Args, out io.Writer) (Result, error) {
	session, err := client.NewSession()
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to open execution session: %w", err)
	}
	defer func() { _ = session.Close() }()

	session.Stdout = out
	session.Stderr = out

	cmd := remoteCommand(args)

	done := make(chan error, 1)
	if err := session.Start(cmd); err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("failed to start remote setup: %w", err)
	}
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return Result{ExitCode: -1}, fmt.Errorf("remote setup interrupted: %w", ctx.Err())
	case err = <-done:
	}

	if err == nil {
		return Result{ExitCode: 0}, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitStatus()
		return Result{ExitCode: code}, fmt.Errorf("remote setup exited with status %d", code)
	}
	return Result{ExitCode: -1}, fmt.Errorf("remote setup failed: %w", err)
}

// remoteCommand builds the single command line the payload contract
// requires: elevated privilege, six quoted positional arguments.
func remoteCommand(args Args) string {
	parts := []string{"sudo", "./" + remotePayloadPath}
	for _, arg := range args.vector() {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

// shellQuote single-quotes s for a POSIX shell, escaping embedded quotes.
// The token argument in particular can contain characters the shell would
// otherwise interpret.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
