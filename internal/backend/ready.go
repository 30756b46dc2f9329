package backend

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Addr is the loopback address of a backend port.
func Addr(port uint16) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port)))
}

// WaitListening polls until the announced port accepts TCP connections or the
// timeout elapses. A backend may print its port before it binds, so this
// narrows the window in which the first presentation hits a closed port.
func WaitListening(ctx context.Context, port uint16, timeout time.Duration) error {
	addr := Addr(port)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	for {
		dialCtx, dialCancel := context.WithTimeout(ctx, 200*time.Millisecond)
		c, err := d.DialContext(dialCtx, "tcp", addr)
		dialCancel()
		if err == nil {
			_ = c.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s", addr)
		case <-time.After(100 * time.Millisecond):
		}
	}
}
