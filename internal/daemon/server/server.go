// Package server implements the gRPC control server for the daemon.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"

	"github.com/gatehouse-io/gatehouse/internal/daemon/runner"
)

// Server is the daemon's gRPC control server.
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	port       int
	pid        int
	runner     *runner.Runner

	pendingUpdate atomic.Pointer[UpdateNotice]

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New creates a new server listening on the specified port.
// Pass port 0 for dynamic allocation.
func New(port int, r *runner.Runner) (*Server, error) {
	listener, err := (&net.ListenConfig{}).Listen(context.TODO(), "tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	// Get actual port if dynamically allocated
	actualPort := listener.Addr().(*net.TCPAddr).Port

	grpcServer := grpc.NewServer()

	srv := &Server{
		grpcServer: grpcServer,
		listener:   listener,
		port:       actualPort,
		pid:        os.Getpid(),
		runner:     r,
		shutdownCh: make(chan struct{}),
	}

	RegisterShipperServiceServer(grpcServer, &shipperService{server: srv, runner: r})

	return srv, nil
}

// Port returns the port the server is listening on.
func (s *Server) Port() int {
	return s.port
}

// ShutdownRequested is closed when a client asks the daemon to stop.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdownCh
}

// RequestShutdown signals the daemon to stop. Safe to call more than once.
func (s *Server) RequestShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownCh)
	})
}

// Serve starts serving requests. This blocks until Stop is called.
func (s *Server) Serve() error {
	s.startUpdateCheck()
	return s.grpcServer.Serve(s.listener)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
