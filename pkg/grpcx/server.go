// Package grpcx runs the gRPC side listener: the standard health service,
// kept in step with a dependency check, plus server reflection.
package grpcx

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Checker returns nil while the process can serve traffic.
type Checker func(ctx context.Context) error

type Server struct {
	log      *slog.Logger
	gs       *grpc.Server
	health   *health.Server
	services []string
	check    Checker
	interval time.Duration
}

// NewServer reports the overall status ("") and each named service as
// SERVING or NOT_SERVING according to check, re-checked every interval.
func NewServer(log *slog.Logger, check Checker, interval time.Duration, services ...string) *Server {
	gs := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Server{
		log:      log,
		gs:       gs,
		health:   hs,
		services: append([]string{""}, services...),
		check:    check,
		interval: interval,
	}
}

func (s *Server) Run(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve blocks until ctx is cancelled, then drains in-flight RPCs.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- s.gs.Serve(lis) }()
	s.log.Info("grpc server listening", "addr", lis.Addr().String())

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.gs.GracefulStop()
			return nil
		case err := <-errCh:
			return fmt.Errorf("grpc serve: %w", err)
		case <-t.C:
			s.refresh(ctx)
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.check(pctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		s.log.Warn("health check failed", "err", err)
	}
	for _, svc := range s.services {
		s.health.SetServingStatus(svc, status)
	}
}
