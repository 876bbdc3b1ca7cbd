// Package grpc exposes the record service as the HydroSync gRPC API.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/hydrotrack/internal/logging"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
	"github.com/dmitrijs2005/hydrotrack/internal/server/models"
	"github.com/dmitrijs2005/hydrotrack/internal/server/services"
)

// RecordService is the business logic behind the API.
type RecordService interface {
	Get(ctx context.Context, userID string) (*models.UserRecord, error)
	SetField(ctx context.Context, userID, field, value string, version int64) (services.SetResult, error)
	Delete(ctx context.Context, userID string) (bool, error)
}

type GRPCServer struct {
	pb.UnimplementedHydroSyncServer
	address         string
	records         RecordService
	logger          logging.Logger
	jwtSecret       []byte
	shutdownTimeout time.Duration
}

func NewGRPCServer(a string, l logging.Logger, rs RecordService, secretKey string, shutdownTimeout time.Duration) (*GRPCServer, error) {
	return &GRPCServer{
		address:         a,
		logger:          l.With("module", "grpc_server"),
		records:         rs,
		jwtSecret:       []byte(secretKey),
		shutdownTimeout: shutdownTimeout,
	}, nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully. In-flight calls still running after the shutdown timeout
// are cut.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	pb.RegisterHydroSyncServer(srv, s)

	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping gRPC server...")
		s.stop(srv)
		close(stopped)
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}

func (s *GRPCServer) stop(srv *grpc.Server) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn(context.Background(), "graceful stop timed out")
		srv.Stop()
		<-done
	}
}
