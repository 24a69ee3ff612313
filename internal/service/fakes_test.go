package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/gateway/directory"
	"github.com/TegaJeremy/Take-Am-Platform/internal/models"
	"github.com/TegaJeremy/Take-Am-Platform/internal/repository"
)

// fakeRepo is an in-memory Repository. The conditional writes take the
// same lock as everything else, so they are atomic exactly like the SQL
// they stand in for.
type fakeRepo struct {
	mu       sync.Mutex
	requests map[string]*models.TraderRequest
	gradings map[string]*models.Grading
	settings map[string]*models.SystemSetting
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		requests: map[string]*models.TraderRequest{},
		gradings: map[string]*models.Grading{},
		settings: map[string]*models.SystemSetting{},
	}
}

func (f *fakeRepo) InsertTraderRequest(_ context.Context, item *models.TraderRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	f.requests[item.ID] = &cp
	return nil
}

func (f *fakeRepo) GetTraderRequestByID(_ context.Context, id string) (*models.TraderRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (f *fakeRepo) ListTraderRequestsByTrader(_ context.Context, traderID string) ([]models.TraderRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TraderRequest
	for _, r := range f.requests {
		if r.TraderID == traderID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPendingTraderRequests(_ context.Context) ([]models.TraderRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TraderRequest
	for _, r := range f.requests {
		if r.Status == models.RequestStatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetAgentActiveRequest(_ context.Context, agentID string) (*models.TraderRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.AgentID != nil && *r.AgentID == agentID && r.Status == models.RequestStatusAccepted {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListTraderRequests(_ context.Context, params repository.ListTraderRequestsParams) ([]models.TraderRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TraderRequest
	for _, r := range f.requests {
		if params.Status != nil && r.Status != *params.Status {
			continue
		}
		if params.AgentID != nil && (r.AgentID == nil || *r.AgentID != *params.AgentID) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) GetRequestStats(_ context.Context) (repository.RequestStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats repository.RequestStats
	for _, r := range f.requests {
		stats.Total++
		switch r.Status {
		case models.RequestStatusPending:
			stats.Pending++
		case models.RequestStatusAccepted:
			stats.Accepted++
		case models.RequestStatusCompleted:
			stats.Completed++
		case models.RequestStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

func (f *fakeRepo) ClaimTraderRequest(_ context.Context, id, agentID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.Status != models.RequestStatusPending || r.AgentID != nil {
		return false, nil
	}
	r.Status = models.RequestStatusAccepted
	r.AgentID = &agentID
	r.AcceptedAt = &at
	return true, nil
}

func (f *fakeRepo) CompleteTraderRequest(_ context.Context, id, agentID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.Status != models.RequestStatusAccepted || r.AgentID == nil || *r.AgentID != agentID {
		return false, nil
	}
	r.Status = models.RequestStatusCompleted
	r.CompletedAt = &at
	return true, nil
}

func (f *fakeRepo) CancelTraderRequest(_ context.Context, id, traderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok || r.Status != models.RequestStatusPending || r.TraderID != traderID {
		return false, nil
	}
	r.Status = models.RequestStatusCancelled
	return true, nil
}

func (f *fakeRepo) InsertGrading(_ context.Context, item *models.Grading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	f.gradings[item.ID] = &cp
	return nil
}

func (f *fakeRepo) SaveGrading(_ context.Context, item *models.Grading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	f.gradings[item.ID] = &cp
	return nil
}

func (f *fakeRepo) GetGradingByID(_ context.Context, id string) (*models.Grading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.gradings[id]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (f *fakeRepo) GetGradingByRequestID(_ context.Context, requestID string) (*models.Grading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.gradings {
		if g.RequestID != nil && *g.RequestID == requestID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) ListGradingsByRequestIDs(_ context.Context, requestIDs []string) ([]models.Grading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := map[string]bool{}
	for _, id := range requestIDs {
		ids[id] = true
	}
	var out []models.Grading
	for _, g := range f.gradings {
		if g.RequestID != nil && ids[*g.RequestID] {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListGradings(_ context.Context, params repository.ListGradingsParams) ([]models.Grading, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Grading
	for _, g := range f.gradings {
		if params.AgentID != nil && g.AgentID != *params.AgentID {
			continue
		}
		if params.TraderID != nil && g.TraderID != *params.TraderID {
			continue
		}
		if params.PaymentStatus != nil && g.PaymentStatus != *params.PaymentStatus {
			continue
		}
		out = append(out, *g)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) SummarizePendingPayments(_ context.Context) (repository.PendingPaymentSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := repository.PendingPaymentSummary{TotalAmount: decimal.Zero}
	for _, g := range f.gradings {
		if g.PaymentStatus == models.PaymentStatusPending {
			summary.Count++
			summary.TotalAmount = summary.TotalAmount.Add(g.TotalAmount)
		}
	}
	return summary, nil
}

func (f *fakeRepo) MarkGradingPaid(_ context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gradings[id]
	if !ok || g.PaymentStatus == models.PaymentStatusPaid {
		return false, nil
	}
	g.PaymentStatus = models.PaymentStatusPaid
	g.PaidAt = &at
	return true, nil
}

func (f *fakeRepo) GetSystemSettingByKey(_ context.Context, key string) (*models.SystemSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.settings[key]
	if !ok {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (f *fakeRepo) UpsertSystemSetting(_ context.Context, item *models.SystemSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *item
	f.settings[item.Key] = &cp
	return nil
}

func (f *fakeRepo) gradingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gradings)
}

// fakeDirectory stands in for the user service.
type fakeDirectory struct {
	onDuty    bool
	onDutyErr error
	traders   map[string]*directory.Trader
	byPhone   map[string]*directory.Trader
	lookupErr error
}

func (f *fakeDirectory) IsAgentOnDuty(_ context.Context, _ string) (bool, error) {
	if f.onDutyErr != nil {
		return false, f.onDutyErr
	}
	return f.onDuty, nil
}

func (f *fakeDirectory) GetTrader(_ context.Context, traderID string) (*directory.Trader, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.traders[traderID], nil
}

func (f *fakeDirectory) FindTraderByPhone(_ context.Context, phone string) (*directory.Trader, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	t, ok := f.byPhone[phone]
	if !ok {
		return nil, domain.NotFound("trader not found with phone number %s", phone)
	}
	return t, nil
}

type sentMessage struct {
	to   string
	body string
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []sentMessage
}

func (f *fakeSender) Send(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{to: to, body: message})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}
