package launcher

import (
	"fmt"

	"github.com/petervdpas/smartpad/internal/backend"
	"github.com/petervdpas/smartpad/internal/config"
)

// Host is the windowing and shell environment the launcher runs in.
type Host interface {
	// ShowWindow creates the native window on first use, otherwise shows and
	// focuses it.
	ShowWindow() error
	// OpenURL asks the default browser to open url.
	OpenURL(url string) error
}

// HostError reports a failed window or browser request.
type HostError struct {
	Mode config.Mode
	Err  error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("present %s: %v", e.Mode, e.Err)
}

func (e *HostError) Unwrap() error { return e.Err }

// BackendURL is the address the browser is pointed at.
func BackendURL(port uint16) string {
	return "http://" + backend.Addr(port)
}

// Present performs the single visible action for mode. It holds no state.
func Present(h Host, mode config.Mode, port uint16) error {
	var err error
	switch mode {
	case config.Browser:
		err = h.OpenURL(BackendURL(port))
	default:
		err = h.ShowWindow()
	}
	if err != nil {
		return &HostError{Mode: mode, Err: err}
	}
	return nil
}
