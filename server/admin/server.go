package admin

import (
	"errors"
	"net"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-checked service, next to the overall "" entry.
const ServiceName = "echor.Echo"

// AdminServer exposes grpc.health.v1 and server reflection for operators and
// orchestrators. It never touches echo traffic.
type AdminServer struct {
	Addr     net.Addr
	listener net.Listener
	server   *grpc.Server
	health   *health.Server
}

func NewAdminServer(addr string) (*AdminServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	return &AdminServer{
		Addr:     listener.Addr(),
		listener: listener,
		server:   s,
		health:   hs,
	}, nil
}

// Listen serves in the background; the socket is already bound.
func (t *AdminServer) Listen() {
	go func() {
		log.Infof("started admin server, listening on: %s", t.Addr)
		if err := t.server.Serve(t.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("admin server stopped", "addr", t.Addr, "err", err)
		}
	}()
}

// SetServing flips both health entries.
func (t *AdminServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	t.health.SetServingStatus("", status)
	t.health.SetServingStatus(ServiceName, status)
}

// Stop reports NOT_SERVING to watchers and stops the server.
func (t *AdminServer) Stop() {
	t.health.Shutdown()
	t.server.GracefulStop()
	_ = t.listener.Close()
}
