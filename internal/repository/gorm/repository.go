package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TegaJeremy/Take-Am-Platform/internal/models"
	"github.com/TegaJeremy/Take-Am-Platform/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- trader requests --------------------------------------------------------

func (s *Store) InsertTraderRequest(ctx context.Context, item *models.TraderRequest) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetTraderRequestByID(ctx context.Context, id string) (*models.TraderRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.TraderRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTraderRequestsByTrader(ctx context.Context, traderID string) ([]models.TraderRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.TraderRequest
	err := s.db.WithContext(ctx).
		Where("trader_id = ?", traderID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPendingTraderRequests(ctx context.Context) ([]models.TraderRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.TraderRequest
	err := s.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetAgentActiveRequest(ctx context.Context, agentID string) (*models.TraderRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.TraderRequest
	err := s.db.WithContext(ctx).
		Where("agent_id = ? AND status = ?", agentID, models.RequestStatusAccepted).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTraderRequests(ctx context.Context, params repository.ListTraderRequestsParams) ([]models.TraderRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.TraderRequest{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.AgentID != nil && strings.TrimSpace(*params.AgentID) != "" {
		query = query.Where("agent_id = ?", strings.TrimSpace(*params.AgentID))
	}
	var items []models.TraderRequest
	if err := query.Order("created_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) GetRequestStats(ctx context.Context) (repository.RequestStats, error) {
	var stats repository.RequestStats
	if s == nil || s.db == nil {
		return stats, nil
	}
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Model(&models.TraderRequest{}).
		Select("status, count(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return stats, err
	}
	for _, r := range rows {
		stats.Total += r.N
		switch r.Status {
		case models.RequestStatusPending:
			stats.Pending = r.N
		case models.RequestStatusAccepted:
			stats.Accepted = r.N
		case models.RequestStatusCompleted:
			stats.Completed = r.N
		case models.RequestStatusCancelled:
			stats.Cancelled = r.N
		}
	}
	return stats, nil
}

// ClaimTraderRequest is the accept transition. The WHERE clause carries the
// whole precondition, so two agents racing for the same request resolve at
// the database: exactly one update touches the row.
func (s *Store) ClaimTraderRequest(ctx context.Context, id, agentID string, at time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.TraderRequest{}).
		Where("id = ? AND status = ? AND agent_id IS NULL", id, models.RequestStatusPending).
		Updates(map[string]any{
			"status":      models.RequestStatusAccepted,
			"agent_id":    agentID,
			"accepted_at": at,
			"updated_at":  at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) CompleteTraderRequest(ctx context.Context, id, agentID string, at time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.TraderRequest{}).
		Where("id = ? AND agent_id = ? AND status = ?", id, agentID, models.RequestStatusAccepted).
		Updates(map[string]any{
			"status":       models.RequestStatusCompleted,
			"completed_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *Store) CancelTraderRequest(ctx context.Context, id, traderID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.TraderRequest{}).
		Where("id = ? AND trader_id = ? AND status = ?", id, traderID, models.RequestStatusPending).
		Updates(map[string]any{
			"status":     models.RequestStatusCancelled,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

// --- gradings ---------------------------------------------------------------

func (s *Store) InsertGrading(ctx context.Context, item *models.Grading) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveGrading(ctx context.Context, item *models.Grading) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetGradingByID(ctx context.Context, id string) (*models.Grading, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Grading
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetGradingByRequestID(ctx context.Context, requestID string) (*models.Grading, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Grading
	err := s.db.WithContext(ctx).Where("request_id = ?", requestID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListGradingsByRequestIDs(ctx context.Context, requestIDs []string) ([]models.Grading, error) {
	if s == nil || s.db == nil || len(requestIDs) == 0 {
		return nil, nil
	}
	var items []models.Grading
	err := s.db.WithContext(ctx).
		Where("request_id IN ?", requestIDs).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListGradings(ctx context.Context, params repository.ListGradingsParams) ([]models.Grading, int64, error) {
	if s == nil || s.db == nil {
		return nil, 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Grading{})
	if params.AgentID != nil && strings.TrimSpace(*params.AgentID) != "" {
		query = query.Where("agent_id = ?", strings.TrimSpace(*params.AgentID))
	}
	if params.TraderID != nil && strings.TrimSpace(*params.TraderID) != "" {
		query = query.Where("trader_id = ?", strings.TrimSpace(*params.TraderID))
	}
	if params.PaymentStatus != nil && strings.TrimSpace(*params.PaymentStatus) != "" {
		query = query.Where("payment_status = ?", strings.TrimSpace(*params.PaymentStatus))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order := "graded_at desc"
	if params.OldestFirst {
		order = "graded_at asc"
	}
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.Grading
	if err := query.Order(order).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Store) SummarizePendingPayments(ctx context.Context) (repository.PendingPaymentSummary, error) {
	var summary repository.PendingPaymentSummary
	if s == nil || s.db == nil {
		return summary, nil
	}
	type row struct {
		N     int64
		Total decimal.Decimal
	}
	var r row
	err := s.db.WithContext(ctx).
		Model(&models.Grading{}).
		Select("count(*) AS n, COALESCE(sum(total_amount), 0) AS total").
		Where("payment_status = ?", models.PaymentStatusPending).
		Scan(&r).Error
	if err != nil {
		return summary, err
	}
	summary.Count = r.N
	summary.TotalAmount = r.Total
	return summary, nil
}

// MarkGradingPaid is monotonic: a record that is already PAID is left
// untouched and reported as not updated.
func (s *Store) MarkGradingPaid(ctx context.Context, id string, at time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Grading{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": models.PaymentStatusPaid,
			"paid_at":        at,
			"updated_at":     at,
		})
	return res.RowsAffected > 0, res.Error
}

// --- settings ---------------------------------------------------------------

func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
	}).Create(item).Error
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
