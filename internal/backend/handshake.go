package backend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrEmptyHandshake   = errors.New("empty handshake line")
	ErrInvalidPort      = errors.New("handshake line is not a port number")
	ErrHandshakeTimeout = errors.New("timed out waiting for handshake line")
)

// ParsePort parses the handshake line: a base-10 TCP port followed by an
// optional line terminator.
func ParsePort(line string) (uint16, error) {
	s := strings.TrimSpace(line)
	if s == "" {
		return 0, ErrEmptyHandshake
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	return uint16(n), nil
}

// Stage names the startup step that failed.
type Stage string

const (
	StageSpawn     Stage = "spawn"
	StageHandshake Stage = "handshake"
)

// StartError is returned by Start. The launcher cannot continue without a
// backend address, so callers treat it as fatal.
type StartError struct {
	Stage Stage
	Err   error

	// Stderr holds the last lines the backend wrote to stderr, if any.
	Stderr []string
}

func (e *StartError) Error() string {
	return fmt.Sprintf("backend %s failed: %v", e.Stage, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }
