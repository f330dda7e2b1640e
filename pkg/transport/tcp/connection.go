package tcp

import (
	"errors"
	"io"
	"net"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/panics"

	"github.com/ripple-mq/echor/pkg/utils/pen"
)

// handleConnection echoes c until the peer closes it or it fails, then releases
// it. Nothing that happens here reaches the accept loop or other workers.
func (t *Transport) handleConnection(c *Conn) {
	logger := log.With("scope", "connection", "conn", c.ID, "peer", c.RemoteAddr())
	logger.Info("TCP: accepted connection")

	var (
		reason Reason
		cause  error
		echoed int64
	)
	var pc panics.Catcher
	pc.Try(func() {
		if t.opts.OnAcceptingConn != nil {
			t.opts.OnAcceptingConn(c)
		}
		reason, cause = t.echo(c, logger, &echoed)
	})
	if r := pc.Recovered(); r != nil {
		reason, cause = ReasonPanic, r.AsError()
	}

	if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug("TCP: closing connection", "err", err)
	}
	t.conns.Delete(c.ID)
	t.stats.closed(reason)

	fields := []any{"reason", reason, "bytes", echoed, "duration", time.Since(c.Accepted).Round(time.Millisecond)}
	switch reason {
	case ReasonError, ReasonPanic:
		logger.Warn("TCP: connection closed", append(fields, "err", cause)...)
	default:
		logger.Info("TCP: connection closed", fields...)
	}
}

// echo is the read/write loop. Bytes are treated as opaque: they go back
// exactly as they arrived and are only rendered lossily for debug logs.
func (t *Transport) echo(c *Conn, logger *log.Logger, echoed *int64) (Reason, error) {
	buf := make([]byte, t.opts.BufferSize)
	for {
		if err := c.armRead(t.opts.IdleTimeout); err != nil {
			return ReasonError, err
		}
		n, rerr := c.Read(buf)
		if n > 0 {
			if logger.GetLevel() <= log.DebugLevel {
				logger.Debug("TCP: echo", "bytes", n, "payload", pen.Payload(buf[:n], t.opts.PreviewBytes))
			}
			w, werr := c.Write(buf[:n])
			*echoed += int64(w)
			t.stats.bytesEchoed.Add(int64(w))
			if werr == nil && w < n {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				return t.classify(c, werr)
			}
		}
		if rerr != nil {
			return t.classify(c, rerr)
		}
	}
}

func (t *Transport) classify(c *Conn, err error) (Reason, error) {
	switch {
	case errors.Is(err, io.EOF):
		return ReasonPeerClosed, nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		if c.expired() {
			return ReasonShutdown, nil
		}
		return ReasonIdle, nil
	case errors.Is(err, net.ErrClosed) && t.State() != Running:
		return ReasonShutdown, nil
	default:
		return ReasonError, err
	}
}
