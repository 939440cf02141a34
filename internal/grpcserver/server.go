// Package grpcserver exposes the standard gRPC health service, driven by
// record store pings.
package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"salesdash/internal/log"
	"salesdash/internal/store"
)

// ServiceName is the health service name reported alongside "".
const ServiceName = "salesdash"

const pingTimeout = 5 * time.Second

type Server struct {
	addr   string
	lis    net.Listener
	Server *grpc.Server
	health *health.Server
	pinger store.Pinger
	logger *log.Logger
}

// New registers the health service. Status starts NOT_SERVING until the
// first successful Check.
func New(addr string, pinger store.Pinger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	srv := &Server{
		addr:   addr,
		Server: s,
		health: hs,
		pinger: pinger,
		logger: logger.WithComponent(log.ComponentGRPC),
	}
	srv.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return srv
}

func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	s.lis = lis
	s.logger.Info("gRPC health server listening", "addr", lis.Addr().String())
	return s.Server.Serve(lis)
}

// Check pings the store once and publishes the result.
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.WarnContext(ctx, "Store ping failed", log.FieldError, err)
	}
	s.setStatus(status)
	return status
}

// Watch runs Check every interval until ctx ends.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.Server.GracefulStop()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
