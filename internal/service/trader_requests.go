package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/auth"
	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/gateway/directory"
	"github.com/TegaJeremy/Take-Am-Platform/internal/models"
	"github.com/TegaJeremy/Take-Am-Platform/internal/repository"
)

// RequestDetail pairs a request with its grading, when one exists.
type RequestDetail struct {
	models.TraderRequest
	Grading *models.Grading `json:"grading,omitempty"`
}

type TraderRequestService struct {
	Repo      repository.Repository
	Directory Directory
	Logger    *zap.Logger
}

type CreateRequestInput struct {
	Address *string
	Notes   *string
}

// Create opens a new PENDING request for the calling trader. The profile
// lookup is best-effort: a missing or unreachable directory never blocks a
// trader from asking for pickup, the token identity is enough.
func (s *TraderRequestService) Create(ctx context.Context, ident auth.Identity, input CreateRequestInput) (*models.TraderRequest, *directory.Trader, error) {
	profile := s.lookupTrader(ctx, ident.ID)

	traderID := ident.ID
	traderName := ident.Name
	traderPhone := ident.Phone
	if profile != nil {
		if profile.ID != "" {
			traderID = profile.ID
		}
		if profile.FullName != "" {
			traderName = profile.FullName
		}
		if profile.PhoneNumber != "" {
			traderPhone = profile.PhoneNumber
		}
	}
	if traderPhone == "" {
		return nil, nil, domain.Validation("trader phone number is required")
	}
	if traderName == "" {
		traderName = "Trader"
	}

	item := &models.TraderRequest{
		ID:            uuid.NewString(),
		TraderID:      traderID,
		TraderPhone:   traderPhone,
		TraderName:    traderName,
		TraderAddress: input.Address,
		Notes:         input.Notes,
		Status:        models.RequestStatusPending,
	}
	if err := s.Repo.InsertTraderRequest(ctx, item); err != nil {
		return nil, nil, domain.Upstream(err, "failed to create request")
	}
	return item, profile, nil
}

// ListMine returns the trader's own requests, newest first, each with its
// grading when graded, plus the trader profile for display.
func (s *TraderRequestService) ListMine(ctx context.Context, traderID string) ([]RequestDetail, *directory.Trader, error) {
	requests, err := s.Repo.ListTraderRequestsByTrader(ctx, traderID)
	if err != nil {
		return nil, nil, domain.Upstream(err, "failed to list requests")
	}
	details, err := s.attachGradings(ctx, requests)
	if err != nil {
		return nil, nil, err
	}
	return details, s.lookupTrader(ctx, traderID), nil
}

// GetByID fetches one request, restricted to its owning trader.
func (s *TraderRequestService) GetByID(ctx context.Context, ident auth.Identity, id string) (*RequestDetail, *directory.Trader, error) {
	request, err := s.Repo.GetTraderRequestByID(ctx, id)
	if err != nil {
		return nil, nil, domain.Upstream(err, "failed to fetch request")
	}
	if request == nil {
		return nil, nil, domain.NotFound("request not found")
	}
	if request.TraderID != ident.ID {
		return nil, nil, domain.Forbidden("access denied")
	}
	detail := RequestDetail{TraderRequest: *request}
	grading, err := s.Repo.GetGradingByRequestID(ctx, request.ID)
	if err != nil {
		return nil, nil, domain.Upstream(err, "failed to fetch grading")
	}
	detail.Grading = grading
	return &detail, s.lookupTrader(ctx, request.TraderID), nil
}

// Cancel withdraws a request that no agent has taken yet. The conditional
// write means a concurrent accept and cancel resolve cleanly: whichever
// lands first wins.
func (s *TraderRequestService) Cancel(ctx context.Context, ident auth.Identity, id string) (*models.TraderRequest, error) {
	request, err := s.Repo.GetTraderRequestByID(ctx, id)
	if err != nil {
		return nil, domain.Upstream(err, "failed to fetch request")
	}
	if request == nil {
		return nil, domain.NotFound("request not found")
	}
	if request.TraderID != ident.ID {
		return nil, domain.Forbidden("access denied")
	}
	if request.Status != models.RequestStatusPending {
		return nil, domain.Conflict("only pending requests can be cancelled")
	}

	ok, err := s.Repo.CancelTraderRequest(ctx, id, ident.ID)
	if err != nil {
		return nil, domain.Upstream(err, "failed to cancel request")
	}
	if !ok {
		return nil, domain.Conflict("request is no longer pending")
	}
	request.Status = models.RequestStatusCancelled
	return request, nil
}

func (s *TraderRequestService) attachGradings(ctx context.Context, requests []models.TraderRequest) ([]RequestDetail, error) {
	details := make([]RequestDetail, 0, len(requests))
	if len(requests) == 0 {
		return details, nil
	}
	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ID)
	}
	gradings, err := s.Repo.ListGradingsByRequestIDs(ctx, ids)
	if err != nil {
		return nil, domain.Upstream(err, "failed to list gradings")
	}
	byRequest := make(map[string]*models.Grading, len(gradings))
	for i := range gradings {
		g := gradings[i]
		if g.RequestID != nil {
			byRequest[*g.RequestID] = &gradings[i]
		}
	}
	for _, r := range requests {
		details = append(details, RequestDetail{
			TraderRequest: r,
			Grading:       byRequest[r.ID],
		})
	}
	return details, nil
}

// lookupTrader is read-side enrichment: failures degrade to nil.
func (s *TraderRequestService) lookupTrader(ctx context.Context, traderID string) *directory.Trader {
	if s.Directory == nil {
		return nil
	}
	profile, err := s.Directory.GetTrader(ctx, traderID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("trader profile lookup failed",
				zap.String("trader_id", traderID),
				zap.Error(err),
			)
		}
		return nil
	}
	return profile
}
