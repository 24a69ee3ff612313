package service

import (
	"context"

	"github.com/TegaJeremy/Take-Am-Platform/internal/gateway/directory"
)

// Directory is the user-service port. The lifecycle services depend on
// this interface so tests can run without the network.
type Directory interface {
	// IsAgentOnDuty must return an error (not false) when the lookup
	// itself fails; the accept transition treats that as fatal.
	IsAgentOnDuty(ctx context.Context, agentID string) (bool, error)
	// GetTrader returns (nil, nil) when the profile does not exist.
	GetTrader(ctx context.Context, traderID string) (*directory.Trader, error)
	// FindTraderByPhone returns a NotFound domain error when absent.
	FindTraderByPhone(ctx context.Context, phone string) (*directory.Trader, error)
}

// SMSSender is the notification port.
type SMSSender interface {
	Send(ctx context.Context, to, message string) error
}
