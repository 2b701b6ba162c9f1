package rpc

import (
	"context"
	"net"
	"time"

	"github.com/goatnetwork/covered-call/internal/config"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	ProgramServiceName = "covered_call.v1.Program"

	healthCheckInterval = 5 * time.Second
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping() error
}

type HealthServer struct {
	pinger Pinger
	health *health.Server
	logger *log.Entry
}

func NewHealthServer(pinger Pinger) *HealthServer {
	return &HealthServer{
		pinger: pinger,
		health: health.NewServer(),
		logger: log.WithFields(log.Fields{"module": "rpc"}),
	}
}

// Register adds the health and reflection services to server.
func (s *HealthServer) Register(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, s.health)
	reflection.Register(server)
	s.refresh()
}

func (s *HealthServer) refresh() {
	status := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(); err != nil {
		s.logger.Warnf("Ledger database ping failed: %v", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ProgramServiceName, status)
}

func (s *HealthServer) Start(ctx context.Context) {
	addr := ":" + config.AppConfig.RPCPort
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		s.logger.Fatalf("failed to listen: %v", err)
	}

	server := grpc.NewServer()
	s.Register(server)

	go func() {
		ticker := time.NewTicker(healthCheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				server.GracefulStop()
				return
			case <-ticker.C:
				s.refresh()
			}
		}
	}()

	s.logger.Infof("gRPC server is running on port %s", config.AppConfig.RPCPort)
	if err := server.Serve(lis); err != nil {
		s.logger.Fatalf("failed to serve: %v", err)
	}
	s.logger.Info("gRPC server stopped")
}
