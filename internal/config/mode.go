package config

import (
	"encoding/json"
	"fmt"
)

// Mode is how the backend is presented to the user.
type Mode int

const (
	// Desktop shows the bundled UI in a native window.
	Desktop Mode = iota
	// Browser opens the backend address in the default web browser.
	Browser
)

// String returns the lowercase name used by the toggle command.
func (m Mode) String() string {
	if m == Browser {
		return "browser"
	}
	return "desktop"
}

// Other returns the opposite mode. There is no third state.
func (m Mode) Other() Mode {
	if m == Browser {
		return Desktop
	}
	return Browser
}

// persisted names, kept stable for files written by earlier releases
const (
	desktopName = "Desktop"
	browserName = "Browser"
)

func (m Mode) MarshalJSON() ([]byte, error) {
	switch m {
	case Desktop:
		return json.Marshal(desktopName)
	case Browser:
		return json.Marshal(browserName)
	default:
		return nil, fmt.Errorf("unknown mode %d", int(m))
	}
}

func (m *Mode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case desktopName:
		*m = Desktop
	case browserName:
		*m = Browser
	default:
		return fmt.Errorf("unknown mode %q", s)
	}
	return nil
}
