package service

import (
	"context"
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

// AgentRequestService drives the request lifecycle from the agent side:
// accept, grade, close. Transitions go through the repository's
// conditional writes so concurrent agents cannot double-claim a request.
type AgentRequestService struct {
	Repo      repository.Repository
	Directory Directory
	Pricing   *PricingService
	Notifier  *Notifier
	Logger    *zap.Logger
}

type GradeInput struct {
	GradeA     decimal.Decimal
	GradeB     decimal.Decimal
	GradeC     decimal.Decimal
	GradeD     decimal.Decimal
	AgentNotes *string
}

func (s *AgentRequestService) ListPending(ctx context.Context) ([]models.TraderRequest, error) {
	items, err := s.Repo.ListPendingTraderRequests(ctx)
	if err != nil {
		return nil, domain.Upstream(err, "failed to list pending requests")
	}
	return items, nil
}

// CurrentRequest returns the agent's active request with its grading, or
// nil when the agent holds none.
func (s *AgentRequestService) CurrentRequest(ctx context.Context, agentID string) (*RequestDetail, error) {
	request, err := s.Repo.GetAgentActiveRequest(ctx, agentID)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch current request")
	}
	if request == nil {
		return nil, nil
	}
	grading, err := s.Repo.GetGradingByRequestID(ctx, request.ID)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch grading")
	}
	return &RequestDetail{TraderRequest: *request, Grading: grading}, nil
}

// Accept claims a pending request for the agent. Preconditions: the agent
// is clocked in (directory says so; a directory outage aborts the
// transition), the agent holds no other active request, and the target is
// still PENDING. The final claim is a single conditional update, so when
// two agents race for the same request exactly one wins and the other gets
// a conflict.
func (s *AgentRequestService) Accept(ctx context.Context, agentID, requestID string) (*models.TraderRequest, error) {
	onDuty, err := s.Directory.IsAgentOnDuty(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !onDuty {
		return nil, domain.Forbidden("you must clock in before accepting requests")
	}

	active, err := s.Repo.GetAgentActiveRequest(ctx, agentID)
	if err != nil {
		return nil, domain.Upstream(err, "failed to check active request")
	}
	if active != nil {
		return nil, domain.Conflict("you already have an active request, close it first")
	}

	request, err := s.Repo.GetTraderRequestByID(ctx, requestID)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch request")
	}
	if request == nil {
		return nil, domain.NotFound("request not found")
	}
	if request.Status != models.RequestStatusPending {
		return nil, domain.Conflict("request is not available")
	}

	now := time.Now().UTC()
	ok, err := s.Repo.ClaimTraderRequest(ctx, requestID, agentID, now)
	if err != nil {
		return nil, domain.Upstream(err, "failed to accept request")
	}
	if !ok {
		// Another agent got there between our read and the claim.
		return nil, domain.Conflict("request is not available")
	}

	request.Status = models.RequestStatusAccepted
	request.AgentID = &agentID
	request.AcceptedAt = &now
	if s.Logger != nil {
		s.Logger.Info("request accepted",
			zap.String("request_id", requestID),
			zap.String("agent_id", agentID),
		)
	}
	return request, nil
}

// Grade records (or re-records) the grading for the agent's accepted
// request. Resubmitting before close overwrites the same record; the
// request itself stays ACCEPTED until Close.
func (s *AgentRequestService) Grade(ctx context.Context, agent auth.Identity, requestID string, input GradeInput) (*models.Grading, error) {
	request, err := s.ownedAcceptedRequest(ctx, agent.ID, requestID)
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

	now := time.Now().UTC()
	existing, err := s.Repo.GetGradingByRequestID(ctx, requestID)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch grading")
	}

	if existing == nil {
		item := &models.Grading{
			ID:            uuid.NewString(),
			RequestID:     &request.ID,
			TraderID:      request.TraderID,
			TraderPhone:   request.TraderPhone,
			TraderName:    request.TraderName,
			AgentID:       agent.ID,
			AgentName:     agent.Name,
			AgentPhone:    agent.Phone,
			AgentNotes:    input.AgentNotes,
			PaymentStatus: models.PaymentStatusPending,
			GradedAt:      now,
		}
		s.enrichBankDetails(ctx, item)
		applyBreakdown(item, breakdown)
		if err := s.Repo.InsertGrading(ctx, item); err != nil {
			return nil, domain.Upstream(err, "failed to save grading")
		}
		return item, nil
	}

	existing.AgentNotes = input.AgentNotes
	existing.GradedAt = now
	applyBreakdown(existing, breakdown)
	if err := s.Repo.SaveGrading(ctx, existing); err != nil {
		return nil, domain.Upstream(err, "failed to save grading")
	}
	return existing, nil
}

// Close completes the agent's accepted request. A grading must exist; the
// trader is then told the weight and the amount they will receive.
func (s *AgentRequestService) Close(ctx context.Context, agentID, requestID string) (*models.TraderRequest, error) {
	request, err := s.ownedAcceptedRequest(ctx, agentID, requestID)
	if err != nil {
		return nil, err
	}

	grading, err := s.Repo.GetGradingByRequestID(ctx, requestID)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch grading")
	}
	if grading == nil {
		return nil, domain.Validation("complete grading before closing the request")
	}

	now := time.Now().UTC()
	ok, err := s.Repo.CompleteTraderRequest(ctx, requestID, agentID, now)
	if err != nil {
		return nil, domain.Upstream(err, "failed to close request")
	}
	if !ok {
		return nil, domain.Conflict("request is not open for closing")
	}

	request.Status = models.RequestStatusCompleted
	request.CompletedAt = &now
	if s.Notifier != nil {
		s.Notifier.RequestClosed(ctx, request.TraderPhone, grading)
	}
	if s.Logger != nil {
		s.Logger.Info("request completed",
			zap.String("request_id", requestID),
			zap.String("agent_id", agentID),
			zap.String("total_amount", grading.TotalAmount.String()),
		)
	}
	return request, nil
}

func (s *AgentRequestService) ListAll(ctx context.Context, params repository.ListTraderRequestsParams) ([]RequestDetail, error) {
	requests, err := s.Repo.ListTraderRequests(ctx, params)
	if err != nil {
		return nil, domain.Upstream(err, "failed to list requests")
	}
	svc := TraderRequestService{Repo: s.Repo}
	return svc.attachGradings(ctx, requests)
}

func (s *AgentRequestService) Statistics(ctx context.Context) (repository.RequestStats, error) {
	stats, err := s.Repo.GetRequestStats(ctx)
	if err != nil {
		return repository.RequestStats{}, domain.Upstream(err, "failed to compute statistics")
	}
	return stats, nil
}

// ownedAcceptedRequest collapses "missing", "not yours" and "wrong state"
// into one not-found answer so agents cannot probe other agents'
// assignments.
func (s *AgentRequestService) ownedAcceptedRequest(ctx context.Context, agentID, requestID string) (*models.TraderRequest, error) {
	request, err := s.Repo.GetTraderRequestByID(ctx, requestID)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch request")
	}
	if request == nil ||
		request.AgentID == nil ||
		*request.AgentID != agentID ||
		request.Status != models.RequestStatusAccepted {
		return nil, domain.NotFound("request not found or not assigned to you")
	}
	return request, nil
}

// enrichBankDetails copies the trader's settlement details into the
// grading snapshot. Best-effort: grading proceeds without them.
func (s *AgentRequestService) enrichBankDetails(ctx context.Context, item *models.Grading) {
	if s.Directory == nil {
		return
	}
	profile, err := s.Directory.GetTrader(ctx, item.TraderID)
	if err != nil || profile == nil {
		if err != nil && s.Logger != nil {
			s.Logger.Warn("trader profile lookup failed during grading",
				zap.String("trader_id", item.TraderID),
				zap.Error(err),
			)
		}
		return
	}
	item.TraderBankAccount = profile.BankAccountNumber
	item.TraderBankName = profile.BankName
}

func applyBreakdown(item *models.Grading, b pricing.Breakdown) {
	item.GradeAWeight = b.GradeA.Weight
	item.GradeBWeight = b.GradeB.Weight
	item.GradeCWeight = b.GradeC.Weight
	item.GradeDWeight = b.GradeD.Weight
	item.GradeAAmount = b.GradeA.Amount
	item.GradeBAmount = b.GradeB.Amount
	item.GradeCAmount = b.GradeC.Amount
	item.GradeDAmount = b.GradeD.Amount
	item.TotalWeight = b.TotalWeight
	item.TotalAmount = b.TotalAmount
	item.BaseReferencePrice = b.BaseReferencePrice
}
