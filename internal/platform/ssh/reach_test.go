package ssh

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastReachOptions(attempts int) ReachOptions {
	return ReachOptions{
		Attempts:       attempts,
		InitialDelay:   20 * time.Millisecond,
		Multiplier:     2.0,
		ConnectTimeout: 100 * time.Millisecond,
	}
}

// refusedAddr returns an address nothing is listening on.
func refusedAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

func TestWaitReachable_Listening(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()

	err = WaitReachable(context.Background(), listener.Addr().String(), fastReachOptions(3))
	assert.NoError(t, err)
}

func TestWaitReachable_NeverAccepts(t *testing.T) {
	start := time.Now()
	err := WaitReachable(context.Background(), refusedAddr(t), fastReachOptions(3))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 attempts")
	// Schedule for 3 attempts: ~20ms then ~40ms between them.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond, "backoff schedule not honored")
}

func TestWaitReachable_BecomesReachable(t *testing.T) {
	addr := refusedAddr(t)

	// Start listening after the first attempt has failed.
	go func() {
		time.Sleep(30 * time.Millisecond)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return
		}
		time.Sleep(2 * time.Second)
		_ = listener.Close()
	}()

	err := WaitReachable(context.Background(), addr, fastReachOptions(6))
	assert.NoError(t, err)
}

func TestWaitReachable_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitReachable(ctx, refusedAddr(t), ReachOptions{
		Attempts:       10,
		InitialDelay:   time.Hour,
		Multiplier:     2.0,
		ConnectTimeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
}
