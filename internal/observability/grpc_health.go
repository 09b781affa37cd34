package observability

import (
	"context"
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHealthServer exposes grpc.health.v1.Health for orchestrators that poll
// over gRPC. The overall ("") status follows the readiness checks.
type GRPCHealthServer struct {
	server   *grpc.Server
	health   *health.Server
	checks   map[string]HealthCheckFunc
	interval time.Duration
}

// NewGRPCHealthServer creates a gRPC server with only the health service registered
func NewGRPCHealthServer(checks map[string]HealthCheckFunc, interval time.Duration) *GRPCHealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	return &GRPCHealthServer{
		server:   s,
		health:   hs,
		checks:   checks,
		interval: interval,
	}
}

// Serve checks dependencies on an interval and serves on lis until ctx is
// cancelled or the server stops
func (g *GRPCHealthServer) Serve(ctx context.Context, lis net.Listener) error {
	go g.watch(ctx)

	if err := g.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc health server: %w", err)
	}
	return nil
}

// Refresh runs the readiness checks once and publishes the result
func (g *GRPCHealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	deps, ok := CheckDependencies(ctx, g.checks)
	for name, dep := range deps {
		g.health.SetServingStatus(name, servingStatus(dep.Status == "healthy"))
	}
	status := servingStatus(ok)
	g.health.SetServingStatus("", status)
	return status
}

// Stop marks every service NOT_SERVING and stops the server gracefully
func (g *GRPCHealthServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}

func (g *GRPCHealthServer) watch(ctx context.Context) {
	logger := GetLogger()
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	last := g.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := g.Refresh(ctx)
			if status != last {
				logger.Info().Str("status", status.String()).Msg("gRPC health status changed")
				last = status
			}
		}
	}
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
