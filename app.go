// app.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/petervdpas/smartpad/internal/launcher"
	"github.com/petervdpas/smartpad/internal/util"
)

var errWindowNotReady = errors.New("window runtime not started")

// App is bound to the Wails frontend. Its exported methods are the commands
// the bundled UI can call.
type App struct {
	mu  sync.RWMutex
	ctx context.Context

	session  *launcher.Session
	stopping atomic.Bool
}

// ToggleResult is what the frontend receives from ToggleMode.
type ToggleResult struct {
	Mode string `json:"mode"`
}

func NewApp() *App { return &App{} }

func (a *App) attach(s *launcher.Session) { a.session = s }

func (a *App) context() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ctx
}

func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	if err := a.session.Controller.Present(); err != nil {
		log.Errorw("initial presentation failed", "err", err)
	}

	// Relaunch signals are only served once the window runtime exists.
	go func() {
		if err := a.session.ServeRelaunches(); err != nil {
			log.Errorw("instance monitor stopped", "err", err)
		}
	}()
	go a.watchBackend(ctx)
	go a.quitOnSignal(ctx)
}

func (a *App) shutdown(ctx context.Context) {
	a.stopping.Store(true)
	log.Infow("shutting down", "session", a.session.ID)
	if err := a.session.Close(); err != nil {
		log.Errorw("backend stop failed", "err", err)
	}
	log.Infow("shutdown complete")
}

// watchBackend quits the launcher when the backend dies on its own: there is
// nothing left to present.
func (a *App) watchBackend(ctx context.Context) {
	<-a.session.Backend.Done()
	if a.stopping.Load() {
		return
	}
	log.Errorw("backend exited unexpectedly", "err", a.session.Backend.Err(), "stderr", a.session.Backend.StderrTail())
	runtime.Quit(ctx)
}

// quitOnSignal lets Ctrl+C end a browser-mode session whose window is hidden.
func (a *App) quitOnSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	<-sigCh
	log.Infow("signal received, quitting")
	runtime.Quit(ctx)
}

// -------------------------
// Frontend API
// -------------------------

// ToggleMode switches between desktop and browser mode and remembers the
// choice. A save failure is returned as an error although the switch holds
// for this session.
func (a *App) ToggleMode() (ToggleResult, error) {
	name, err := a.session.Controller.Toggle()
	return ToggleResult{Mode: name}, err
}

func (a *App) CurrentMode() string {
	return a.session.Controller.Mode().String()
}

// BackendURL is the address the bundled UI loads.
func (a *App) BackendURL() string {
	return launcher.BackendURL(a.session.Controller.Port())
}

// -------------------------
// Host capabilities
// -------------------------

// wailsHost presents the backend through the Wails window and the system
// browser. It is kept off App so the frontend cannot call it.
type wailsHost struct {
	app *App
}

func (h wailsHost) ShowWindow() error {
	ctx := h.app.context()
	if ctx == nil {
		return errWindowNotReady
	}
	runtime.WindowUnminimise(ctx)
	runtime.WindowShow(ctx)
	// raise above other windows without pinning it there
	runtime.WindowSetAlwaysOnTop(ctx, true)
	runtime.WindowSetAlwaysOnTop(ctx, false)
	return nil
}

func (h wailsHost) OpenURL(url string) error {
	return util.OpenURL(url)
}
