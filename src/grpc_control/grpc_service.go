package grpc_control

import (
	"fmt"
	"net"
	"sync"
	"time"

	"polygon-ingestor/src/interfaces"
	"polygon-ingestor/src/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// -----------------------------------------------------------------------------
// gRPC control plane: exposes the standard health service so orchestration
// tooling can probe whether the ingestor session is live. Serving status
// tracks the data source state.
// -----------------------------------------------------------------------------

const healthServiceName = "polygon.ingestor"

type GRPCService struct {
	Name       string
	Logger     *logger.Logger
	DataSource interfaces.IDataSource

	host string
	port int

	server *grpc.Server
	health *health.Server

	mu      sync.Mutex
	done    chan struct{}
	running bool
}

// -----------------------------------------------------------------------------

// NewGRPCService creates a new gRPC control service instance
func NewGRPCService(host string, port int, dataSource interfaces.IDataSource, logger *logger.Logger) *GRPCService {
	return &GRPCService{
		Name:       "GRPCService",
		Logger:     logger,
		DataSource: dataSource,
		host:       host,
		port:       port,
	}
}

// -----------------------------------------------------------------------------

// Start begins listening and serves until Stop is called.
func (gs *GRPCService) Start() error {
	gs.mu.Lock()
	if gs.running {
		gs.mu.Unlock()
		return fmt.Errorf("gRPC service is already running")
	}

	address := fmt.Sprintf("%s:%d", gs.host, gs.port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		gs.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	gs.server = grpc.NewServer(
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
	)

	gs.health = health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs.server, gs.health)

	gs.done = make(chan struct{})
	gs.running = true
	gs.mu.Unlock()

	go gs.statusUpdater()

	gs.Logger.Info("%s : control server listening on %s", gs.Name, address)
	return gs.server.Serve(listener)
}

// -----------------------------------------------------------------------------

// Stop gracefully shuts down the gRPC server with a timeout.
func (gs *GRPCService) Stop() {
	gs.mu.Lock()
	if !gs.running {
		gs.mu.Unlock()
		return
	}
	gs.running = false
	close(gs.done)
	server := gs.server
	gs.mu.Unlock()

	gs.Logger.Info("%s : shutting down control server", gs.Name)

	stopped := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		gs.Logger.Info("%s : control server stopped gracefully", gs.Name)
	case <-time.After(30 * time.Second):
		gs.Logger.Warning("%s : graceful stop timed out, forcing shutdown", gs.Name)
		server.Stop()
	}
}

// -----------------------------------------------------------------------------

// statusUpdater keeps the health serving status in sync with the data
// source state.
func (gs *GRPCService) statusUpdater() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	gs.updateStatus()
	for {
		select {
		case <-gs.done:
			gs.health.SetServingStatus(healthServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
			return
		case <-ticker.C:
			gs.updateStatus()
		}
	}
}

// -----------------------------------------------------------------------------

// updateStatus maps the data source status to a health serving status.
func (gs *GRPCService) updateStatus() {
	status := gs.DataSource.GetStatus()

	serving := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if status.Running {
		serving = grpc_health_v1.HealthCheckResponse_SERVING
	}

	gs.health.SetServingStatus(healthServiceName, serving)
	gs.health.SetServingStatus("", serving)
}
