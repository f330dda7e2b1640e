package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/semaphore"

	"github.com/ripple-mq/echor/pkg/utils/collection"
	"github.com/ripple-mq/echor/pkg/utils/config"
)

const defaultBufferSize = 1024

type TransportOpts struct {
	BufferSize      int           // Scratch buffer capacity per connection
	MaxConnections  int           // Live worker bound, 0 means unbounded
	AdmissionPolicy string        // config.PolicyReject or config.PolicyQueue
	GracePeriod     time.Duration // Used by Shutdown when its context has no deadline
	IdleTimeout     time.Duration // Per-read timeout, 0 disables
	PreviewBytes    int           // Payload bytes rendered in debug logs
	OnAcceptingConn func(conn *Conn)
}

// OptsFromConfig maps the server section of c onto TransportOpts.
func OptsFromConfig(c *config.Config) TransportOpts {
	return TransportOpts{
		BufferSize:      c.Server.Buffer_size,
		MaxConnections:  c.Server.Max_connections,
		AdmissionPolicy: c.Server.Admission_policy,
		GracePeriod:     c.Server.Grace_period,
		IdleTimeout:     c.Server.Idle_timeout,
		PreviewBytes:    c.Log.Preview_bytes,
	}
}

// Transport is an echo listener together with the accept loop that supervises
// one worker per connection.
type Transport struct {
	ListenAddr *net.TCPAddr // The address requested at construction
	opts       TransportOpts

	mu       sync.Mutex   // Serialises lifecycle transitions
	listener net.Listener // Bound socket, nil until Listen
	state    *collection.ConcurrentValue[State]
	conns    *collection.ConcurrentMap[string, *Conn] // Live connections by id
	sem      *semaphore.Weighted                      // nil when unbounded
	wg       conc.WaitGroup                           // Live workers
	stats    Stats

	ctx      context.Context // Cancelled when shutdown begins
	cancel   context.CancelFunc
	done     chan struct{} // Closed when the accept loop has exited
	doneOnce sync.Once
	err      error
}

// NewTransport validates addr and prepares a transport; nothing is bound yet.
// An unusable address is reported as a *BindError.
func NewTransport(addr string, opts ...TransportOpts) (*Transport, error) {
	o := OptsFromConfig(config.Conf)
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.AdmissionPolicy == "" {
		o.AdmissionPolicy = config.PolicyReject
	}
	if o.AdmissionPolicy != config.PolicyReject && o.AdmissionPolicy != config.PolicyQueue {
		return nil, fmt.Errorf("unknown admission policy %q", o.AdmissionPolicy)
	}

	if addr == "" {
		return nil, &BindError{Addr: addr, Err: errors.New("empty address")}
	}
	address, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		ListenAddr: address,
		opts:       o,
		state:      collection.NewConcurrentValue(Idle),
		conns:      collection.NewConcurrentMap[string, *Conn](),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	if o.MaxConnections > 0 {
		t.sem = semaphore.NewWeighted(int64(o.MaxConnections))
	}
	return t, nil
}

// Listen binds the socket and starts accepting in the background.
func (t *Transport) Listen() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.CompareAndSet(in(Idle), Running) {
		return fmt.Errorf("transport is %s", t.state.Get())
	}
	listener, err := net.Listen("tcp", t.ListenAddr.String())
	if err != nil {
		t.state.Set(Idle)
		return &BindError{Addr: t.ListenAddr.String(), Err: err}
	}
	t.listener = listener

	log.Info("TCP: started listening",
		"addr", listener.Addr(),
		"max_connections", t.opts.MaxConnections,
		"admission", t.opts.AdmissionPolicy,
		"buffer", t.opts.BufferSize)
	go t.connectionLoop()
	return nil
}

// Addr returns the bound address, or the requested one before Listen.
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr()
	}
	return t.ListenAddr
}

// Shutdown stops accepting, lets live connections keep echoing until the
// context deadline (or the grace period when there is none), and force-closes
// whatever is left once ctx is done. It returns ctx.Err() when connections had
// to be forced. Calling it more than once is safe.
func (t *Transport) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	switch {
	case t.state.CompareAndSet(in(Idle), Stopped):
		t.cancel()
		t.finish(nil)
		t.mu.Unlock()
		return nil
	case t.state.CompareAndSet(in(Running), ShuttingDown):
		log.Info("TCP: shutting down", "addr", t.listener.Addr(), "live", t.conns.Len())
		t.cancel()
		if err := t.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Warn("TCP: closing listener", "scope", "listener", "err", err)
		}
	}
	t.mu.Unlock()

	<-t.done

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(t.opts.GracePeriod)
	}
	for _, c := range t.conns.Values() {
		if err := c.expire(deadline); err != nil {
			log.Debug("TCP: setting shutdown deadline", "conn", c.ID, "err", err)
		}
	}

	drained := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		forced := t.conns.Values()
		for _, c := range forced {
			c.Close()
		}
		if len(forced) > 0 {
			err = ctx.Err()
			log.Warn("TCP: grace period over, closing connections", "forced", len(forced))
		}
		<-drained
	}

	t.state.Set(Stopped)
	log.Info("TCP: stopped", "addr", t.Addr())
	return err
}

// Stop shuts down without a grace period.
func (t *Transport) Stop() error {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := t.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Done is closed once the accept loop has exited, either through Shutdown or
// because the listener failed.
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

// Err is ErrListenerClosed after a fatal listener failure, nil otherwise.
func (t *Transport) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

func (t *Transport) State() State {
	return t.state.Get()
}

func (t *Transport) Stats() Snapshot {
	return t.stats.Snapshot()
}

func (t *Transport) ActiveConnections() int {
	return t.conns.Len()
}

func (t *Transport) finish(err error) {
	t.doneOnce.Do(func() {
		t.err = err
		close(t.done)
	})
}
