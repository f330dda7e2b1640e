package tcp

import (
	"errors"
	"net"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ripple-mq/echor/pkg/utils/config"
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// connectionLoop accepts connections and hands each to its own worker. It never
// waits on a worker. Transient accept errors are retried with backoff; it returns
// on shutdown or when the listener itself is gone.
func (t *Transport) connectionLoop() {
	addr := t.listener.Addr()
	defer log.Infof("TCP: accept loop exited: %s", addr)

	queue := t.sem != nil && t.opts.AdmissionPolicy == config.PolicyQueue
	var delay time.Duration

	for {
		if queue {
			// Excess peers stay in the kernel backlog until a worker finishes.
			if err := t.sem.Acquire(t.ctx, 1); err != nil {
				t.finish(nil)
				return
			}
		}

		conn, err := t.listener.Accept()
		if err != nil {
			if queue {
				t.sem.Release(1)
			}
			if errors.Is(err, net.ErrClosed) {
				t.listenerClosed(addr)
				return
			}

			t.stats.acceptErrors.Inc()
			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			log.Warn("TCP: accept failed", "scope", "listener", "addr", addr, "retry_in", delay, "err", err)
			select {
			case <-time.After(delay):
			case <-t.ctx.Done():
			}
			continue
		}
		delay = 0

		if t.sem != nil && !queue && !t.sem.TryAcquire(1) {
			t.reject(conn)
			continue
		}
		t.spawn(conn)
	}
}

// listenerClosed distinguishes our own Shutdown from the socket disappearing
// underneath a running transport.
func (t *Transport) listenerClosed(addr net.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.CompareAndSet(in(Running), Stopped) {
		log.Error("TCP: listener closed while running, no longer accepting", "scope", "listener", "addr", addr, "err", ErrListenerClosed)
		t.finish(ErrListenerClosed)
		return
	}
	t.finish(nil)
}

func (t *Transport) reject(conn net.Conn) {
	t.stats.rejected.Inc()
	log.Warn("TCP: connection limit reached, rejecting", "scope", "listener", "peer", conn.RemoteAddr(), "limit", t.opts.MaxConnections)
	if err := conn.Close(); err != nil {
		log.Debug("TCP: closing rejected connection", "peer", conn.RemoteAddr(), "err", err)
	}
}

func (t *Transport) spawn(raw net.Conn) {
	c := newConn(raw)
	t.conns.Set(c.ID, c)
	t.stats.accepted.Inc()
	t.stats.active.Inc()

	t.wg.Go(func() {
		if t.sem != nil {
			defer t.sem.Release(1)
		}
		t.handleConnection(c)
	})
}
