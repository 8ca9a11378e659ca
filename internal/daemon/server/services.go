package server

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/gatehouse-io/gatehouse/internal/daemon/runner"
)

// ============================================================================
// Control Service Definition
// ============================================================================

// ShipperServiceServer is the server interface for the daemon control plane.
type ShipperServiceServer interface {
	GetStatus(context.Context, *StatusRequest) (*DaemonStatus, error)
	FlushNow(context.Context, *FlushRequest) (*FlushReply, error)
	Shutdown(context.Context, *ShutdownRequest) (*ShutdownReply, error)
}

// StatusRequest asks for daemon status.
type StatusRequest struct{}

// DaemonStatus reports the daemon's runtime state.
type DaemonStatus struct {
	PID            int       `json:"pid"`
	Port           int       `json:"port"`
	StartedAt      time.Time `json:"started_at"`
	Sink           string    `json:"sink"`
	FilesTracked   int       `json:"files_tracked"`
	EntriesShipped int64     `json:"entries_shipped"`
	BatchesFailed  int64     `json:"batches_failed"`
	LastShipAt     time.Time `json:"last_ship_at"`

	UpdateAvailable bool   `json:"update_available,omitempty"`
	LatestVersion   string `json:"latest_version,omitempty"`
}

// FlushRequest asks for an immediate ship cycle.
type FlushRequest struct{}

// FlushReply reports the cycle outcome.
type FlushReply struct {
	EntriesShipped int64  `json:"entries_shipped"`
	Error          string `json:"error,omitempty"`
}

// ShutdownRequest asks the daemon to stop.
type ShutdownRequest struct{}

// ShutdownReply acknowledges a shutdown request.
type ShutdownReply struct{}

const serviceName = "gatehouse.ShipperService"

// Method full paths used by the client.
const (
	methodGetStatus = "/" + serviceName + "/GetStatus"
	methodFlushNow  = "/" + serviceName + "/FlushNow"
	methodShutdown  = "/" + serviceName + "/Shutdown"
)

// ============================================================================
// Registration
// ============================================================================

// RegisterShipperServiceServer registers srv with the gRPC server using a
// hand-rolled service descriptor (the control messages are JSON-encoded,
// no protoc involved).
func RegisterShipperServiceServer(s *grpc.Server, srv ShipperServiceServer) {
	s.RegisterService(&shipperServiceDesc, srv)
}

var shipperServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ShipperServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "FlushNow", Handler: flushNowHandler},
		{MethodName: "Shutdown", Handler: shutdownHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gatehouse/control",
}

func getStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShipperServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetStatus}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ShipperServiceServer).GetStatus(ctx, req.(*StatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func flushNowHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FlushRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShipperServiceServer).FlushNow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodFlushNow}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ShipperServiceServer).FlushNow(ctx, req.(*FlushRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func shutdownHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ShutdownRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShipperServiceServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodShutdown}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ShipperServiceServer).Shutdown(ctx, req.(*ShutdownRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ============================================================================
// Client
// ============================================================================

// ShipperServiceClient is the client for the daemon control plane.
type ShipperServiceClient struct {
	cc *grpc.ClientConn
}

// NewShipperServiceClient wraps a connection.
func NewShipperServiceClient(cc *grpc.ClientConn) *ShipperServiceClient {
	return &ShipperServiceClient{cc: cc}
}

func (c *ShipperServiceClient) invoke(ctx context.Context, method string, in, out interface{}) error {
	return c.cc.Invoke(ctx, method, in, out, grpc.CallContentSubtype(CodecName))
}

// GetStatus fetches daemon status.
func (c *ShipperServiceClient) GetStatus(ctx context.Context, in *StatusRequest) (*DaemonStatus, error) {
	out := new(DaemonStatus)
	if err := c.invoke(ctx, methodGetStatus, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FlushNow triggers an immediate ship cycle.
func (c *ShipperServiceClient) FlushNow(ctx context.Context, in *FlushRequest) (*FlushReply, error) {
	out := new(FlushReply)
	if err := c.invoke(ctx, methodFlushNow, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Shutdown asks the daemon to stop.
func (c *ShipperServiceClient) Shutdown(ctx context.Context, in *ShutdownRequest) (*ShutdownReply, error) {
	out := new(ShutdownReply)
	if err := c.invoke(ctx, methodShutdown, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ============================================================================
// Service Implementation
// ============================================================================

type shipperService struct {
	server *Server
	runner *runner.Runner
}

func (s *shipperService) GetStatus(ctx context.Context, _ *StatusRequest) (*DaemonStatus, error) {
	st := s.runner.Status()
	status := &DaemonStatus{
		PID:            s.server.pid,
		Port:           s.server.port,
		StartedAt:      st.StartedAt,
		Sink:           st.Sink,
		FilesTracked:   st.FilesTracked,
		EntriesShipped: st.EntriesShipped,
		BatchesFailed:  st.BatchesFailed,
		LastShipAt:     st.LastShipAt,
	}
	if n := s.server.PendingUpdate(); n != nil {
		status.UpdateAvailable = true
		status.LatestVersion = n.Version
	}
	return status, nil
}

func (s *shipperService) FlushNow(ctx context.Context, _ *FlushRequest) (*FlushReply, error) {
	before := s.runner.Status().EntriesShipped
	reply := &FlushReply{}
	if err := s.runner.FlushNow(ctx); err != nil {
		reply.Error = err.Error()
	}
	reply.EntriesShipped = s.runner.Status().EntriesShipped - before
	return reply, nil
}

func (s *shipperService) Shutdown(ctx context.Context, _ *ShutdownRequest) (*ShutdownReply, error) {
	s.server.RequestShutdown()
	return &ShutdownReply{}, nil
}
