package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TegaJeremy/Take-Am-Platform/internal/models"
)

type ListTraderRequestsParams struct {
	Status  *string
	AgentID *string
}

type ListGradingsParams struct {
	AgentID       *string
	TraderID      *string
	PaymentStatus *string
	Limit         int
	Offset        int
	OldestFirst   bool
}

// RequestStats reports counts per lifecycle status over the whole request
// population.
type RequestStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Accepted  int64 `json:"accepted"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// PendingPaymentSummary is what the settlement reminder and the admin
// dashboard need to chase unpaid gradings.
type PendingPaymentSummary struct {
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Repository is the persistence port for the intake workflow. The
// Claim/Complete/Cancel/MarkPaid operations are conditional writes: they
// mutate a row only while it is still in the expected state and report
// whether a row actually changed. That single-statement check-and-set is
// what keeps the lifecycle invariants safe under concurrent callers.
type Repository interface {
	// Trader requests.
	InsertTraderRequest(ctx context.Context, item *models.TraderRequest) error
	GetTraderRequestByID(ctx context.Context, id string) (*models.TraderRequest, error)
	ListTraderRequestsByTrader(ctx context.Context, traderID string) ([]models.TraderRequest, error)
	ListPendingTraderRequests(ctx context.Context) ([]models.TraderRequest, error)
	GetAgentActiveRequest(ctx context.Context, agentID string) (*models.TraderRequest, error)
	ListTraderRequests(ctx context.Context, params ListTraderRequestsParams) ([]models.TraderRequest, error)
	GetRequestStats(ctx context.Context) (RequestStats, error)

	// ClaimTraderRequest flips PENDING -> ACCEPTED for the given agent in
	// one conditional update. false means the request was gone or already
	// taken.
	ClaimTraderRequest(ctx context.Context, id, agentID string, at time.Time) (bool, error)
	// CompleteTraderRequest flips ACCEPTED -> COMPLETED for the owning
	// agent.
	CompleteTraderRequest(ctx context.Context, id, agentID string, at time.Time) (bool, error)
	// CancelTraderRequest flips PENDING -> CANCELLED for the owning
	// trader.
	CancelTraderRequest(ctx context.Context, id, traderID string) (bool, error)

	// Gradings.
	InsertGrading(ctx context.Context, item *models.Grading) error
	SaveGrading(ctx context.Context, item *models.Grading) error
	GetGradingByID(ctx context.Context, id string) (*models.Grading, error)
	GetGradingByRequestID(ctx context.Context, requestID string) (*models.Grading, error)
	ListGradingsByRequestIDs(ctx context.Context, requestIDs []string) ([]models.Grading, error)
	ListGradings(ctx context.Context, params ListGradingsParams) ([]models.Grading, int64, error)
	SummarizePendingPayments(ctx context.Context) (PendingPaymentSummary, error)

	// MarkGradingPaid stamps PAID + paidAt unless the record is already
	// PAID.
	MarkGradingPaid(ctx context.Context, id string, at time.Time) (bool, error)

	// Settings.
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
}
