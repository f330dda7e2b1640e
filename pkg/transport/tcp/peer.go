package tcp

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Conn is one accepted connection. It is owned by exactly one worker; the
// transport only touches it to impose a shutdown deadline or to force it closed.
type Conn struct {
	net.Conn
	ID       string
	Accepted time.Time

	mu        sync.Mutex
	expireAt  time.Time
	idleAt    time.Time
	closeOnce sync.Once
	closeErr  error
}

func newConn(raw net.Conn) *Conn {
	return &Conn{
		Conn:     raw,
		ID:       uuid.NewString(),
		Accepted: time.Now(),
	}
}

// Close releases the socket. Only the first call reaches the kernel.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.Conn.Close()
	})
	return c.closeErr
}

// expire bounds every pending and future read and write by at. An earlier
// idle deadline on the pending read is left in place.
func (c *Conn) expire(at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expireAt = at
	if err := c.Conn.SetWriteDeadline(at); err != nil {
		return err
	}
	read := at
	if !c.idleAt.IsZero() && c.idleAt.Before(at) {
		read = c.idleAt
	}
	return c.Conn.SetReadDeadline(read)
}

// expired reports whether the shutdown deadline, if any, has passed.
func (c *Conn) expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.expireAt.IsZero() && !time.Now().Before(c.expireAt)
}

// armRead applies the idle timeout to the next read without extending a
// shutdown deadline that is already in place.
func (c *Conn) armRead(idle time.Duration) error {
	if idle <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idleAt = time.Now().Add(idle)
	at := c.idleAt
	if !c.expireAt.IsZero() && c.expireAt.Before(at) {
		at = c.expireAt
	}
	return c.Conn.SetReadDeadline(at)
}
