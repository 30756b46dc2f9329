// Package instance makes sure only one launcher runs per user. The first
// launch owns a unix socket; later launches signal it and exit before
// spawning a backend of their own.
package instance

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("instance")

// SocketFile is the socket name inside the launcher's config directory.
const SocketFile = "instance.sock"

// ErrAlreadyRunning is returned by Acquire after the running instance has
// been told about the relaunch.
var ErrAlreadyRunning = errors.New("another instance is already running")

const (
	relaunchMsg = "relaunch"
	ioTimeout   = 2 * time.Second
)

// Monitor is the running instance's end of the socket.
type Monitor struct {
	path string
	ln   net.Listener

	closeOnce sync.Once
	closed    chan struct{}
}

// Acquire claims the socket at path. If a live instance already holds it,
// that instance is signalled and ErrAlreadyRunning is returned. A socket left
// behind by a crashed instance is replaced.
func Acquire(path string) (*Monitor, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create instance dir: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		if sigErr := Signal(path); sigErr == nil {
			log.Infow("handed relaunch to running instance", "socket", path)
			return nil, ErrAlreadyRunning
		}

		log.Debugw("removing stale instance socket", "socket", path, "err", err)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket: %w", rmErr)
		}
		ln, err = net.Listen("unix", path)
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", path, err)
		}
	}

	return &Monitor{
		path:   path,
		ln:     ln,
		closed: make(chan struct{}),
	}, nil
}

// Signal tells the instance listening at path that a relaunch happened.
func Signal(path string) error {
	conn, err := net.DialTimeout("unix", path, ioTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(ioTimeout))
	_, err = io.WriteString(conn, relaunchMsg+"\n")
	return err
}

// Serve calls onRelaunch once per relaunch signal until Close. Signals are
// handled one at a time; anything other than a relaunch message is ignored.
func (m *Monitor) Serve(onRelaunch func()) error {
	for {
		conn, err := m.ln.Accept()
		if err != nil {
			select {
			case <-m.closed:
				return nil
			default:
			}
			return fmt.Errorf("accept: %w", err)
		}

		if m.read(conn) {
			onRelaunch()
		}
	}
}

func (m *Monitor) read(conn net.Conn) bool {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(ioTimeout))

	line, err := bufio.NewReader(io.LimitReader(conn, 64)).ReadString('\n')
	if err != nil && line == "" {
		log.Debugw("instance socket read failed", "err", err)
		return false
	}
	if strings.TrimSpace(line) != relaunchMsg {
		log.Warnw("ignoring unexpected instance message", "msg", strings.TrimSpace(line))
		return false
	}
	return true
}

// Close stops Serve and removes the socket.
func (m *Monitor) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.closed)
		err = m.ln.Close()
	})
	return err
}

func (m *Monitor) Path() string { return m.path }
