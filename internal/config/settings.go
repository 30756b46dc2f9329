package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// SettingsFile is the optional hand-edited launcher configuration.
const SettingsFile = "launcher.toml"

// Settings controls how the backend is started and how the launcher logs.
// Unlike Config, the launcher never writes this file.
type Settings struct {
	Backend  Backend
	LogLevel string
}

// Backend describes the child process that announces its port on stdout.
type Backend struct {
	Command string
	Args    []string
	Dir     string
	Env     []string

	// HandshakeTimeout bounds the wait for the port line. Zero waits forever.
	HandshakeTimeout time.Duration
	// ReadyTimeout bounds the wait for the announced port to accept connections.
	ReadyTimeout     time.Duration
	// StopGrace is how long the backend gets to exit after an interrupt.
	StopGrace        time.Duration
}

const (
	defaultBackendCommand   = "python"
	defaultBackendScript    = "../backend/main.py"
	defaultHandshakeTimeout = 30 * time.Second
	defaultReadyTimeout     = 10 * time.Second
	defaultStopGrace        = 3 * time.Second
	defaultLogLevel         = "info"
)

func DefaultSettings() Settings {
	return Settings{
		Backend: Backend{
			Command:          defaultBackendCommand,
			Args:             []string{defaultBackendScript},
			HandshakeTimeout: defaultHandshakeTimeout,
			ReadyTimeout:     defaultReadyTimeout,
			StopGrace:        defaultStopGrace,
		},
		LogLevel: defaultLogLevel,
	}
}

// LoadSettings parses the TOML settings at path. A missing file yields
// DefaultSettings; blank fields keep their defaults. Malformed content is an
// error because the file is written by hand.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var raw struct {
		Backend struct {
			Command          string   `toml:"command"`
			Args             []string `toml:"args"`
			Dir              string   `toml:"dir"`
			Env              []string `toml:"env"`
			HandshakeTimeout string   `toml:"handshake_timeout"`
			ReadyTimeout     string   `toml:"ready_timeout"`
			StopGrace        string   `toml:"stop_grace"`
		} `toml:"backend"`
		Log struct {
			Level string `toml:"level"`
		} `toml:"log"`
	}
	if err := toml.Unmarshal(b, &raw); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}

	if cmd := strings.TrimSpace(raw.Backend.Command); cmd != "" {
		s.Backend.Command = cmd
		// a custom command brings its own arguments
		s.Backend.Args = raw.Backend.Args
	} else if raw.Backend.Args != nil {
		s.Backend.Args = raw.Backend.Args
	}
	s.Backend.Dir = strings.TrimSpace(raw.Backend.Dir)
	s.Backend.Env = raw.Backend.Env

	for _, d := range []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"backend.handshake_timeout", raw.Backend.HandshakeTimeout, &s.Backend.HandshakeTimeout},
		{"backend.ready_timeout", raw.Backend.ReadyTimeout, &s.Backend.ReadyTimeout},
		{"backend.stop_grace", raw.Backend.StopGrace, &s.Backend.StopGrace},
	} {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", d.key, err)
		}
		if v < 0 {
			return Settings{}, fmt.Errorf("%s: must not be negative", d.key)
		}
		*d.dst = v
	}

	if lvl := strings.TrimSpace(raw.Log.Level); lvl != "" {
		s.LogLevel = strings.ToLower(lvl)
	}

	return s, nil
}
