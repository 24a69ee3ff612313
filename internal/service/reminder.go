package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/repository"
)

// SettlementReminder periodically surfaces the unpaid-grading backlog so
// the ops channel sees how much money is still owed to traders.
type SettlementReminder struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

func (s *SettlementReminder) Run(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	summary, err := s.Repo.SummarizePendingPayments(ctx)
	if err != nil {
		return err
	}
	if summary.Count == 0 {
		return nil
	}
	if s.Logger != nil {
		s.Logger.Info("pending settlements outstanding",
			zap.Int64("count", summary.Count),
			zap.String("total_amount", summary.TotalAmount.String()),
		)
	}
	return nil
}
