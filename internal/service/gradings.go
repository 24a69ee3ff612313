package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/auth"
	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/models"
	"github.com/TegaJeremy/Take-Am-Platform/internal/pricing"
	"github.com/TegaJeremy/Take-Am-Platform/internal/repository"
)

// GradingService handles walk-in gradings (keyed by trader phone rather
// than a request) and the settlement side shared by both kinds of grading.
type GradingService struct {
	Repo      repository.Repository
	Directory Directory
	Pricing   *PricingService
	Notifier  *Notifier
	Logger    *zap.Logger
}

type SubmitGradingInput struct {
	TraderPhone string
	GradeA      decimal.Decimal
	GradeB      decimal.Decimal
	GradeC      decimal.Decimal
	GradeD      decimal.Decimal
	AgentNotes  *string
}

// Submit grades goods for a trader identified by phone. The trader must
// exist in the directory; this lookup is load-bearing (the settlement
// snapshot comes from it), so failure here is fatal unlike read-side
// enrichment.
func (s *GradingService) Submit(ctx context.Context, agent auth.Identity, input SubmitGradingInput) (*models.Grading, error) {
	phone := strings.TrimSpace(input.TraderPhone)
	if phone == "" {
		return nil, domain.Validation("trader phone number is required")
	}

	trader, err := s.Directory.FindTraderByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	basePrice, err := s.Pricing.BasePrice(ctx)
	if err != nil {
		return nil, err
	}
	breakdown, err := pricing.Compute(pricing.Weights{
		A: input.GradeA,
		B: input.GradeB,
		C: input.GradeC,
		D: input.GradeD,
	}, basePrice)
	if err != nil {
		return nil, err
	}

	item := &models.Grading{
		ID:                uuid.NewString(),
		TraderID:          trader.ID,
		TraderPhone:       trader.PhoneNumber,
		TraderName:        trader.FullName,
		TraderBankAccount: trader.BankAccountNumber,
		TraderBankName:    trader.BankName,
		AgentID:           agent.ID,
		AgentName:         agent.Name,
		AgentPhone:        agent.Phone,
		AgentNotes:        input.AgentNotes,
		PaymentStatus:     models.PaymentStatusPending,
		GradedAt:          time.Now().UTC(),
	}
	applyBreakdown(item, breakdown)

	if err := s.Repo.InsertGrading(ctx, item); err != nil {
		return nil, domain.Upstream(err, "failed to save grading")
	}
	if s.Notifier != nil {
		s.Notifier.GradingSubmitted(ctx, item)
	}
	if s.Logger != nil {
		s.Logger.Info("grading submitted",
			zap.String("grading_id", item.ID),
			zap.String("agent_id", agent.ID),
			zap.String("trader_phone", item.TraderPhone),
			zap.String("total_amount", item.TotalAmount.String()),
		)
	}
	return item, nil
}

func (s *GradingService) GetByID(ctx context.Context, id string) (*models.Grading, error) {
	item, err := s.Repo.GetGradingByID(ctx, id)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch grading")
	}
	if item == nil {
		return nil, domain.NotFound("grading not found")
	}
	return item, nil
}

// GradingPage is a paginated slice of gradings plus the unpaged total.
type GradingPage struct {
	Total    int64            `json:"total"`
	Gradings []models.Grading `json:"gradings"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
	HasMore  bool             `json:"hasMore"`
}

func (s *GradingService) ListForAgent(ctx context.Context, agentID string, paymentStatus *string, limit, offset int) (*GradingPage, error) {
	params := repository.ListGradingsParams{
		AgentID:       &agentID,
		PaymentStatus: paymentStatus,
		Limit:         limit,
		Offset:        offset,
	}
	return s.page(ctx, params)
}

func (s *GradingService) ListAll(ctx context.Context, params repository.ListGradingsParams) (*GradingPage, error) {
	return s.page(ctx, params)
}

func (s *GradingService) page(ctx context.Context, params repository.ListGradingsParams) (*GradingPage, error) {
	items, total, err := s.Repo.ListGradings(ctx, params)
	if err != nil {
		return nil, domain.Upstream(err, "failed to list gradings")
	}
	if items == nil {
		items = []models.Grading{}
	}
	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	return &GradingPage{
		Total:    total,
		Gradings: items,
		Limit:    limit,
		Offset:   offset,
		HasMore:  total > int64(offset+len(items)),
	}, nil
}

// PendingPayments lists unpaid gradings oldest first with the summed
// amount still owed, for the admin settlement queue.
type PendingPayments struct {
	TotalPendingAmount decimal.Decimal  `json:"totalPendingAmount"`
	TotalPendingCount  int64            `json:"totalPendingCount"`
	PendingPayments    []models.Grading `json:"pendingPayments"`
}

func (s *GradingService) PendingPayments(ctx context.Context) (*PendingPayments, error) {
	status := models.PaymentStatusPending
	items, _, err := s.Repo.ListGradings(ctx, repository.ListGradingsParams{
		PaymentStatus: &status,
		Limit:         500,
		OldestFirst:   true,
	})
	if err != nil {
		return nil, domain.Upstream(err, "failed to list pending payments")
	}
	summary, err := s.Repo.SummarizePendingPayments(ctx)
	if err != nil {
		return nil, domain.Upstream(err, "failed to summarize pending payments")
	}
	if items == nil {
		items = []models.Grading{}
	}
	return &PendingPayments{
		TotalPendingAmount: summary.TotalAmount,
		TotalPendingCount:  summary.Count,
		PendingPayments:    items,
	}, nil
}

// MarkPaid settles a grading. PAID is terminal: a second call conflicts
// and changes nothing.
func (s *GradingService) MarkPaid(ctx context.Context, id string) (*models.Grading, error) {
	item, err := s.Repo.GetGradingByID(ctx, id)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch grading")
	}
	if item == nil {
		return nil, domain.NotFound("grading not found")
	}
	if item.PaymentStatus == models.PaymentStatusPaid {
		return nil, domain.Conflict("payment already marked as paid")
	}

	now := time.Now().UTC()
	ok, err := s.Repo.MarkGradingPaid(ctx, id, now)
	if err != nil {
		return nil, domain.Upstream(err, "failed to mark grading paid")
	}
	if !ok {
		return nil, domain.Conflict("payment already marked as paid")
	}

	item.PaymentStatus = models.PaymentStatusPaid
	item.PaidAt = &now
	if s.Notifier != nil {
		s.Notifier.PaymentConfirmed(ctx, item)
	}
	if s.Logger != nil {
		s.Logger.Info("grading marked paid",
			zap.String("grading_id", item.ID),
			zap.String("total_amount", item.TotalAmount.String()),
		)
	}
	return item, nil
}
