// Package launcher holds the live presentation state shared by the toggle
// command and the relaunch handler.
package launcher

import (
	"fmt"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/smartpad/internal/config"
)

var log = logging.Logger("launcher")

// Store persists the presentation mode.
type Store interface {
	Load() config.Config
	Save(config.Config) error
}

// PersistError means the mode was switched in memory but not saved, so the
// switch will not survive a restart.
type PersistError struct {
	Mode config.Mode
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("mode switched to %s but not saved: %v", e.Mode, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Controller owns the current mode and the backend port. The port is fixed at
// construction, so no presentation can happen before the handshake.
type Controller struct {
	port  uint16
	store Store
	host  Host

	mu   sync.Mutex
	mode config.Mode
}

func New(port uint16, mode config.Mode, store Store, host Host) *Controller {
	return &Controller{
		port:  port,
		store: store,
		host:  host,
		mode:  mode,
	}
}

func (c *Controller) Port() uint16 { return c.port }

func (c *Controller) Mode() config.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Toggle flips the mode and persists it. It returns the new mode's name. When
// saving fails the returned error is a *PersistError and the name still
// reflects the new in-memory mode.
func (c *Controller) Toggle() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mode = c.mode.Other()
	if err := c.store.Save(config.Config{Mode: c.mode}); err != nil {
		log.Warnw("mode switched but not persisted", "mode", c.mode.String(), "err", err)
		return c.mode.String(), &PersistError{Mode: c.mode, Err: err}
	}

	log.Infow("mode toggled", "mode", c.mode.String())
	return c.mode.String(), nil
}

// Present shows the backend in the current mode.
func (c *Controller) Present() error {
	return Present(c.host, c.Mode(), c.port)
}

// Relaunch handles a second launch attempt. Its arguments are irrelevant: the
// live mode decides what is shown.
func (c *Controller) Relaunch() error {
	mode := c.Mode()
	log.Infow("relaunch requested", "mode", mode.String(), "port", c.port)
	if err := Present(c.host, mode, c.port); err != nil {
		log.Errorw("relaunch presentation failed", "err", err)
		return err
	}
	return nil
}
