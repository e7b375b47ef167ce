package ssh

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// testServer is a minimal in-process SSH server for dispatcher tests. It
// accepts any client, records every exec command, captures uploaded
// payload bytes, and answers the setup command with scripted output and
// exit status.
type testServer struct {
	t        *testing.T
	listener net.Listener
	signer   ssh.Signer

	mu       sync.Mutex
	commands []string
	uploaded []byte

	output   string
	exitCode uint32
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &testServer{t: t, listener: listener, signer: signer}
	t.Cleanup(func() { _ = listener.Close() })

	cfg := &ssh.ServerConfig{NoClientAuth: true}
	cfg.AddHostKey(signer)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go srv.handleConn(conn, cfg)
		}
	}()

	return srv
}

func (s *testServer) addr() string {
	return s.listener.Addr().String()
}

func (s *testServer) hostKey() ssh.PublicKey {
	return s.signer.PublicKey()
}

func (s *testServer) recordedCommands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *testServer) uploadedPayload() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.uploaded...)
}

func (s *testServer) handleConn(conn net.Conn, cfg *ssh.ServerConfig) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		// Host key scans abandon the handshake on purpose.
		return
	}
	defer func() { _ = sconn.Close() }()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, chReqs, err := newChan.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, chReqs)
	}
}

func (s *testServer) handleSession(ch ssh.Channel, reqs <-chan *ssh.Request) {
	defer func() { _ = ch.Close() }()

	for req := range reqs {
		if req.Type != "exec" {
			_ = req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			continue
		}
		_ = req.Reply(true, nil)

		s.mu.Lock()
		s.commands = append(s.commands, payload.Command)
		s.mu.Unlock()

		s.runCommand(ch, payload.Command)
		return
	}
}

func (s *testServer) runCommand(ch ssh.Channel, command string) {
	var status uint32
	switch {
	case strings.HasPrefix(command, "cat > "):
		data, err := io.ReadAll(ch)
		if err == nil {
			s.mu.Lock()
			s.uploaded = data
			s.mu.Unlock()
		} else {
			status = 1
		}
	case strings.HasPrefix(command, "chmod "):
		// accepted silently
	case strings.HasPrefix(command, "sudo "):
		_, _ = ch.Write([]byte(s.output))
		status = s.exitCode
	default:
		status = 127
	}

	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
}

// clientKeyPEM generates a client private key in a format
// ssh.ParsePrivateKey accepts.
func clientKeyPEM(t *testing.T) []byte {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}
