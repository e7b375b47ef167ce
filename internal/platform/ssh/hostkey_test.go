package ssh

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanHostKey(t *testing.T) {
	srv := startTestServer(t)

	key, err := ScanHostKey(srv.addr(), 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, srv.hostKey().Marshal(), key.Marshal())
}

func TestScanHostKey_NoServer(t *testing.T) {
	_, err := ScanHostKey(refusedAddr(t), 200*time.Millisecond)
	require.Error(t, err)
}

func TestKnownHostsLine(t *testing.T) {
	srv := startTestServer(t)

	line := KnownHostsLine("203.0.113.10:22", srv.hostKey())
	assert.True(t, strings.HasPrefix(line, "203.0.113.10"))
	assert.Contains(t, line, srv.hostKey().Type())
}

func TestAppendKnownHosts(t *testing.T) {
	srv := startTestServer(t)
	path := filepath.Join(t.TempDir(), ".ssh", "known_hosts")

	require.NoError(t, AppendKnownHosts(path, "203.0.113.10:22", srv.hostKey()))
	require.NoError(t, AppendKnownHosts(path, "203.0.113.11:22", srv.hostKey()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "203.0.113.10")
	assert.Contains(t, lines[1], "203.0.113.11")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
