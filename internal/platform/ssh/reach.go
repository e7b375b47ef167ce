package ssh

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/zcox10/gcp-vm-gpu-setup/internal/util/retry"
)

const (
	// DefaultSSHPort is the administrative access port probed for
	// reachability.
	DefaultSSHPort = 22

	defaultReachAttempts   = 10
	defaultReachDelay      = 5 * time.Second
	defaultReachMultiplier = 2.0
	defaultConnectTimeout  = 10 * time.Second
)

// ReachOptions bounds the reachability wait.
type ReachOptions struct {
	// Attempts is the total number of connect attempts.
	Attempts int
	// InitialDelay is the wait after the first failed attempt; each
	// subsequent wait is multiplied by Multiplier.
	InitialDelay time.Duration
	Multiplier   float64
	// ConnectTimeout bounds each individual connect, independent of the
	// backoff delay.
	ConnectTimeout time.Duration
}

// DefaultReachOptions returns the standard schedule: 10 attempts starting
// at 5s doubling between them.
func DefaultReachOptions() ReachOptions {
	return ReachOptions{
		Attempts:       defaultReachAttempts,
		InitialDelay:   defaultReachDelay,
		Multiplier:     defaultReachMultiplier,
		ConnectTimeout: defaultConnectTimeout,
	}
}

// WaitReachable blocks until addr accepts a TCP connection or the attempt
// budget is exhausted. Exhaustion is a terminal failure for the run; the
// instance stays allocated for the operator to inspect.
func WaitReachable(ctx context.Context, addr string, opts ReachOptions) error {
	if opts.Attempts == 0 {
		opts = DefaultReachOptions()
	}

	err := retry.Do(ctx, func(context.Context) error {
		conn, dialErr := net.DialTimeout("tcp", addr, opts.ConnectTimeout)
		if dialErr != nil {
			return dialErr
		}
		return conn.Close()
	},
		retry.Attempts(opts.Attempts),
		retry.InitialDelay(opts.InitialDelay),
		retry.Multiplier(opts.Multiplier),
	)
	if err != nil {
		return fmt.Errorf("host %s never became reachable: %w", addr, err)
	}
	return nil
}
