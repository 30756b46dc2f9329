package launcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/petervdpas/smartpad/internal/backend"
	"github.com/petervdpas/smartpad/internal/config"
	"github.com/petervdpas/smartpad/internal/instance"
)

// SessionEnv carries the session ID into the backend's environment.
const SessionEnv = "SMARTPAD_SESSION_ID"

type BootOptions struct {
	// Dir holds config.json, launcher.toml and the instance socket.
	Dir          string
	ForceBrowser bool
	Backend      config.Backend
	Host         Host
}

// Session is a launcher that owns the instance lock and a running backend.
type Session struct {
	ID         string
	Controller *Controller
	Backend    *backend.Process
	Monitor    *instance.Monitor

	stopGrace time.Duration
}

// Boot takes the instance lock, starts the backend and resolves the startup
// mode, in that order. A second launch returns instance.ErrAlreadyRunning
// before any backend is spawned. Backend failures are *backend.StartError.
func Boot(ctx context.Context, opts BootOptions) (*Session, error) {
	mon, err := instance.Acquire(filepath.Join(opts.Dir, instance.SocketFile))
	if err != nil {
		if errors.Is(err, instance.ErrAlreadyRunning) {
			return nil, err
		}
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}

	id := uuid.NewString()
	proc, err := backend.Start(ctx, backend.Options{
		Command:          opts.Backend.Command,
		Args:             opts.Backend.Args,
		Dir:              opts.Backend.Dir,
		Env:              append(append([]string(nil), opts.Backend.Env...), SessionEnv+"="+id),
		HandshakeTimeout: opts.Backend.HandshakeTimeout,
	})
	if err != nil {
		_ = mon.Close()
		return nil, err
	}

	if opts.Backend.ReadyTimeout > 0 {
		if err := backend.WaitListening(ctx, proc.Port(), opts.Backend.ReadyTimeout); err != nil {
			log.Warnw("backend port not accepting connections yet", "port", proc.Port(), "err", err)
		}
	}

	store := config.NewStore(opts.Dir)
	mode, err := ResolveMode(store, opts.ForceBrowser)
	if err != nil {
		log.Warnw("browser override not persisted", "err", err)
	}

	log.Infow("session started", "session", id, "mode", mode.String(), "port", proc.Port())
	return &Session{
		ID:         id,
		Controller: New(proc.Port(), mode, store, opts.Host),
		Backend:    proc,
		Monitor:    mon,
		stopGrace:  opts.Backend.StopGrace,
	}, nil
}

// ServeRelaunches routes every relaunch signal to the controller until Close.
func (s *Session) ServeRelaunches() error {
	// Relaunch logs its own failures; the monitor keeps serving regardless.
	return s.Monitor.Serve(func() { _ = s.Controller.Relaunch() })
}

// Close releases the instance lock and stops the backend.
func (s *Session) Close() error {
	return closeAll(
		s.Monitor.Close,
		func() error { return s.Backend.Stop(s.stopGrace) },
	)
}

// closeAll runs every step, even after a failure, and reports all errors.
func closeAll(steps ...func() error) error {
	var errs []error
	for _, step := range steps {
		errs = append(errs, step())
	}
	return errors.Join(errs...)
}
