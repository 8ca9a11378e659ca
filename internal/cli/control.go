package cli

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/gatehouse-io/gatehouse/internal/config"
	"github.com/gatehouse-io/gatehouse/internal/daemon/server"
)

// controlClient dials the running daemon's control port and returns a
// service client plus the connection closer. Callers must run close even
// when an RPC fails.
func controlClient() (*server.ShipperServiceClient, func(), error) {
	info, err := config.LoadDaemonInfo()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load daemon info: %w", err)
	}
	if info == nil {
		return nil, nil, fmt.Errorf("daemon not running")
	}

	addr := fmt.Sprintf("%s:%d", info.Host, info.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	return server.NewShipperServiceClient(conn), func() { _ = conn.Close() }, nil
}
