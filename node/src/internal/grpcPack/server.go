// Package grpcPack exposes the standard gRPC health service for the tuple
// space node, so orchestrators can probe it without speaking the frame
// protocol.
package grpcPack

import (
	"net"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "tuplespace.TupleSpace"

// HealthServer serves grpc.health.v1.Health
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	logger *shared.Logger
}

// NewHealthServer creates a health server reporting NOT_SERVING until SetServing(true)
func NewHealthServer(logger *shared.Logger) *HealthServer {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryRecoveryInterceptor(logger)),
		grpc.ChainStreamInterceptor(StreamRecoveryInterceptor(logger)),
	)
	h := health.NewServer()
	healthpb.RegisterHealthServer(s, h)

	hs := &HealthServer{grpc: s, health: h, logger: logger}
	hs.SetServing(false)
	return hs
}

// SetServing updates both the overall and the tuple space status
func (s *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve blocks serving health checks on l
func (s *HealthServer) Serve(l net.Listener) error {
	s.logger.Info("gRPC health server listening on %s", l.Addr())
	return s.grpc.Serve(l)
}

// Stop marks every service NOT_SERVING and drains in-flight calls
func (s *HealthServer) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
