package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ripple-mq/echor/internal/cronjob"
	"github.com/ripple-mq/echor/internal/registry"
	"github.com/ripple-mq/echor/internal/stats"
	"github.com/ripple-mq/echor/pkg/transport/tcp"
	"github.com/ripple-mq/echor/pkg/utils/config"
	"github.com/ripple-mq/echor/server/admin"
)

// Server is the echo transport plus its operational side-cars: admin health
// endpoint, stats reporter, zookeeper registration and pprof.
type Server struct {
	ID        string
	cfg       *config.Config
	transport *tcp.Transport
	scheduler *cronjob.CronJobScheduler
	reporter  *stats.Reporter
	admin     *admin.AdminServer
	registry  *registry.Registry
	pprof     *http.Server
}

// NewServer validates addr; nothing is bound until Listen.
func NewServer(addr string, cfg *config.Config) (*Server, error) {
	transport, err := tcp.NewTransport(addr, tcp.OptsFromConfig(cfg))
	if err != nil {
		return nil, err
	}
	scheduler := cronjob.NewCronJobScheduler()
	return &Server{
		ID:        uuid.NewString(),
		cfg:       cfg,
		transport: transport,
		scheduler: scheduler,
		reporter:  stats.NewReporter(transport, scheduler),
	}, nil
}

// Listen binds the echo socket, then starts the side-cars. A bind failure is
// returned as *tcp.BindError and nothing else is started.
func (t *Server) Listen() error {
	if err := t.transport.Listen(); err != nil {
		return err
	}

	if t.cfg.Admin.Addr != "" {
		a, err := admin.NewAdminServer(t.cfg.Admin.Addr)
		if err != nil {
			_ = t.transport.Stop()
			return fmt.Errorf("failed to spin up admin server: %w", err)
		}
		t.admin = a
		t.admin.Listen()
	}

	if err := t.reporter.Start(t.cfg.Stats.Schedule); err != nil {
		log.Warn("stats reporter disabled", "err", err)
	}

	if zkc := t.cfg.Registry.Zookeeper; len(zkc.Servers) > 0 {
		t.register(zkc.Servers, zkc.Base_path, zkc.Session_timeout)
	}

	if t.cfg.Debug.Pprof_addr != "" {
		t.pprof = &http.Server{Addr: t.cfg.Debug.Pprof_addr, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info("Profiling started", "addr", t.cfg.Debug.Pprof_addr)
			if err := t.pprof.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("profiling server stopped", "err", err)
			}
		}()
	}

	if t.admin != nil {
		t.admin.SetServing(true)
	}
	return nil
}

// register is best effort: the echo service works without discovery.
func (t *Server) register(servers []string, base string, timeout time.Duration) {
	r, err := registry.Connect(servers, base, timeout)
	if err != nil {
		log.Warn("registry disabled", "err", err)
		return
	}
	inst := registry.Instance{ID: t.ID, Addr: t.transport.Addr().String(), Started: time.Now()}
	if _, err := r.Register(inst); err != nil {
		log.Warn("registry disabled", "err", err)
		r.Close()
		return
	}
	t.registry = r
}

func (t *Server) Addr() net.Addr {
	return t.transport.Addr()
}

func (t *Server) AdminAddr() net.Addr {
	if t.admin == nil {
		return nil
	}
	return t.admin.Addr
}

// Done is closed when the echo transport stops accepting.
func (t *Server) Done() <-chan struct{} {
	return t.transport.Done()
}

// Err is non-nil when the transport stopped on its own because the listener failed.
func (t *Server) Err() error {
	return t.transport.Err()
}

func (t *Server) Stats() tcp.Snapshot {
	return t.transport.Stats()
}

// Shutdown withdraws the instance from health checks and discovery first, then
// drains the transport within ctx, then stops the side-cars.
func (t *Server) Shutdown(ctx context.Context) error {
	if t.admin != nil {
		t.admin.SetServing(false)
	}
	if t.registry != nil {
		if err := t.registry.Deregister(); err != nil {
			log.Warn("registry", "err", err)
		}
		t.registry.Close()
		t.registry = nil
	}
	t.reporter.Stop()

	err := t.transport.Shutdown(ctx)
	t.reporter.Report()

	if t.admin != nil {
		t.admin.Stop()
		t.admin = nil
	}
	if t.pprof != nil {
		_ = t.pprof.Close()
		t.pprof = nil
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = t.scheduler.Shutdown(stopCtx)
	return err
}
