package backend

import (
	"bytes"
	"strings"
	"sync"

	"github.com/petervdpas/smartpad/internal/util"
)

const stderrTailLines = 50

// stderrTail splits the backend's stderr into lines, logs them and keeps the
// most recent ones for diagnostics.
type stderrTail struct {
	mu      sync.Mutex
	partial bytes.Buffer
	lines   *util.RingBuffer[string]
}

func newStderrTail(max int) *stderrTail {
	return &stderrTail{lines: util.NewRingBuffer[string](max)}
}

// Write implements io.Writer for exec.Cmd.Stderr.
func (t *stderrTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.partial.Write(p)
	for {
		data := t.partial.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i == -1 {
			break
		}
		line := strings.TrimRight(string(data[:i]), "\r")
		t.partial.Next(i + 1)

		if strings.TrimSpace(line) == "" {
			continue
		}
		t.lines.Push(line)
		log.Debugw("backend stderr", "line", line)
	}
	return len(p), nil
}

// Lines returns the retained lines plus any unterminated trailing output.
func (t *stderrTail) Lines() []string {
	t.mu.Lock()
	rest := strings.TrimSpace(t.partial.String())
	t.mu.Unlock()

	out := t.lines.Snapshot()
	if rest != "" {
		out = append(out, rest)
	}
	return out
}
