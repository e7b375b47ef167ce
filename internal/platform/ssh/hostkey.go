package ssh

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// errKeyCaptured aborts the scan handshake once the host key is in hand;
// authentication against the target is neither needed nor attempted.
var errKeyCaptured = errors.New("host key captured")

// ScanHostKey connects to addr and returns the host key the server
// presents during the handshake. The connection is abandoned right after
// key exchange. This is trust-on-first-use: whatever key arrives first is
// the key the rest of the run enforces.
func ScanHostKey(addr string, timeout time.Duration) (ssh.PublicKey, error) {
	var captured ssh.PublicKey

	cfg := &ssh.ClientConfig{
		User: "hostkey-scan",
		HostKeyCallback: func(_ string, _ net.Addr, key ssh.PublicKey) error {
			captured = key
			return errKeyCaptured
		},
		Timeout: timeout,
	}

	client, err := ssh.Dial("tcp", addr, cfg)
	if client != nil {
		_ = client.Close()
	}
	if captured == nil {
		return nil, fmt.Errorf("failed to scan host key of %s: %w", addr, err)
	}
	return captured, nil
}

// KnownHostsLine renders the pinned key as a known_hosts entry for addr.
func KnownHostsLine(addr string, key ssh.PublicKey) string {
	return knownhosts.Line([]string{addr}, key)
}

// AppendKnownHosts records the pinned key in the known_hosts file at path,
// creating the file and its directory as needed. The entry is the run's
// only persisted state besides the provider's instance record.
func AppendKnownHosts(path, addr string, key ssh.PublicKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create known_hosts directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open known_hosts: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintln(f, KnownHostsLine(addr, key)); err != nil {
		return fmt.Errorf("failed to write known_hosts entry: %w", err)
	}
	return nil
}
