package tor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// ErrNotRunning is returned when the SOCKS address of a stopped daemon is
// requested.
var ErrNotRunning = errors.New("embedded Tor daemon is not running")

// Daemon manages an embedded Tor process.
//
// Bootstrapping takes from several seconds up to a few minutes while tor
// downloads directory information and builds its first circuits.
type Daemon struct {
	process        *tornago.TorProcess
	socksAddr      string
	startupTimeout time.Duration
}

// DaemonOption configures a Daemon.
type DaemonOption func(*Daemon)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) DaemonOption {
	return func(d *Daemon) {
		if timeout > 0 {
			d.startupTimeout = timeout
		}
	}
}

// NewDaemon creates a Daemon. Call Start to launch tor.
func NewDaemon(opts ...DaemonOption) *Daemon {
	d := &Daemon{startupTimeout: 3 * time.Minute}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches tor on OS-assigned ports and blocks until it has
// bootstrapped. If ctx is cancelled meanwhile the process is stopped again
// and ctx.Err() is returned.
func (d *Daemon) Start(ctx context.Context) error {
	if d.process != nil {
		return nil
	}

	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(d.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	type result struct {
		process *tornago.TorProcess
		err     error
	}
	done := make(chan result, 1)
	go func() {
		process, err := tornago.StartTorDaemon(launchCfg)
		done <- result{process: process, err: err}
	}()

	select {
	case <-ctx.Done():
		// Reap the process once bootstrap returns.
		go func() {
			if r := <-done; r.err == nil {
				_ = r.process.Stop() //nolint:errcheck // best effort
			}
		}()
		return ctx.Err()
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("failed to start embedded Tor daemon: %w", r.err)
		}
		d.process = r.process
		d.socksAddr = r.process.SocksAddr()
		return nil
	}
}

// Stop shuts tor down. It is safe to call on a daemon that never started
// and to call more than once.
func (d *Daemon) Stop() error {
	if d.process == nil {
		return nil
	}
	err := d.process.Stop()
	d.process = nil
	d.socksAddr = ""
	return err
}

// SocksAddr returns the "host:port" of tor's SOCKS5 listener.
func (d *Daemon) SocksAddr() (string, error) {
	if d.process == nil {
		return "", ErrNotRunning
	}
	return d.socksAddr, nil
}

// IsRunning reports whether Start succeeded and Stop has not been called.
func (d *Daemon) IsRunning() bool {
	return d.process != nil
}
