// Package backend spawns the backend server and learns its port from the
// first line it writes to stdout.
package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("backend")

// Options describes the backend child process.
type Options struct {
	Command string
	Args    []string
	Dir     string
	// Env is appended to the launcher's own environment.
	Env     []string

	// HandshakeTimeout bounds the wait for the port line. Zero waits forever.
	HandshakeTimeout time.Duration
}

// Process is a running backend whose port is known.
type Process struct {
	cmd    *exec.Cmd
	port   uint16
	stderr *stderrTail

	done    chan struct{}
	waitErr error
}

type handshakeResult struct {
	line string
	err  error
}

// Start spawns the backend and blocks until it announces its port. It makes
// a single attempt. Any failure is a *StartError and the child, if it was
// started, is killed before Start returns.
func Start(ctx context.Context, opts Options) (*Process, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return nil, &StartError{Stage: StageSpawn, Err: errors.New("no backend command configured")}
	}

	cmd := exec.Command(opts.Command, opts.Args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &StartError{Stage: StageSpawn, Err: err}
	}
	tail := newStderrTail(stderrTailLines)
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, &StartError{Stage: StageSpawn, Err: err}
	}
	log.Debugw("backend spawned", "cmd", opts.Command, "pid", cmd.Process.Pid)

	br := bufio.NewReader(stdout)
	resCh := make(chan handshakeResult, 1)
	go func() {
		line, err := br.ReadString('\n')
		resCh <- handshakeResult{line: line, err: err}
	}()

	var timeout <-chan time.Time
	if opts.HandshakeTimeout > 0 {
		t := time.NewTimer(opts.HandshakeTimeout)
		defer t.Stop()
		timeout = t.C
	}

	fail := func(err error) (*Process, error) {
		_ = cmd.Process.Kill()
		// Wait closes stdout under the handshake reader; it only sees EOF or a
		// closed-pipe error, and the result is already discarded.
		_ = cmd.Wait()
		return nil, &StartError{Stage: StageHandshake, Err: err, Stderr: tail.Lines()}
	}

	var port uint16
	select {
	case res := <-resCh:
		if res.err != nil {
			return fail(fmt.Errorf("backend closed stdout before announcing its port: %w", res.err))
		}
		port, err = ParsePort(res.line)
		if err != nil {
			return fail(err)
		}
	case <-timeout:
		return fail(fmt.Errorf("%w after %s", ErrHandshakeTimeout, opts.HandshakeTimeout))
	case <-ctx.Done():
		return fail(ctx.Err())
	}

	p := &Process{
		cmd:    cmd,
		port:   port,
		stderr: tail,
		done:   make(chan struct{}),
	}

	// Output after the handshake is not interpreted. Draining keeps the child
	// from blocking on a full pipe.
	go func() { _, _ = io.Copy(io.Discard, br) }()
	go func() {
		// Wait may close stdout while the drain is still reading. The drained
		// bytes are never used, so losing the tail is fine.
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	log.Infow("backend ready", "port", port, "pid", cmd.Process.Pid)
	return p, nil
}

// Port is the port announced in the handshake.
func (p *Process) Port() uint16 { return p.port }

func (p *Process) PID() int { return p.cmd.Process.Pid }

// Done is closed once the backend has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// Err returns the exit error after Done is closed, nil before.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// StderrTail returns the most recent stderr lines.
func (p *Process) StderrTail() []string { return p.stderr.Lines() }

// Stop interrupts the backend and kills it if it has not exited within grace.
// Stopping an exited backend is a no-op.
func (p *Process) Stop(grace time.Duration) error {
	select {
	case <-p.done:
		return nil
	default:
	}

	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		// Interrupt is not available on every platform.
		return p.kill()
	}

	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-p.done:
		return nil
	case <-t.C:
		log.Warnw("backend ignored interrupt, killing", "pid", p.PID(), "grace", grace)
		return p.kill()
	}
}

func (p *Process) kill() error {
	err := p.cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill backend %d: %w", p.PID(), err)
	}
	<-p.done
	return nil
}
