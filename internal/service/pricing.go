package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/domain"
	"github.com/TegaJeremy/Take-Am-Platform/internal/models"
	"github.com/TegaJeremy/Take-Am-Platform/internal/repository"
)

const SettingBaseReferencePrice = "pricing.base_reference_price"

// PricingService owns the base reference price. The BRP lives in the
// settings table, is read at grading time, and is frozen into each record:
// updating it here never rewrites history.
type PricingService struct {
	Repo    repository.Repository
	Default decimal.Decimal
	Logger  *zap.Logger
}

// EnsureDefaults seeds the BRP setting on first boot.
func (s *PricingService) EnsureDefaults(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	existing, err := s.Repo.GetSystemSettingByKey(ctx, SettingBaseReferencePrice)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	seed := s.Default
	if seed.Sign() <= 0 {
		seed = decimal.NewFromInt(100)
	}
	now := time.Now().UTC()
	return s.Repo.UpsertSystemSetting(ctx, &models.SystemSetting{
		Key:         SettingBaseReferencePrice,
		Value:       seed.String(),
		Description: "base reference price per kg",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// BasePrice returns the BRP currently in force.
func (s *PricingService) BasePrice(ctx context.Context) (decimal.Decimal, error) {
	setting, err := s.Repo.GetSystemSettingByKey(ctx, SettingBaseReferencePrice)
	if err != nil {
		return decimal.Zero, domain.Upstream(err, "failed to read base reference price")
	}
	if setting == nil || setting.Value == "" {
		if s.Default.Sign() > 0 {
			return s.Default, nil
		}
		return decimal.NewFromInt(100), nil
	}
	price, err := decimal.NewFromString(setting.Value)
	if err != nil || price.Sign() <= 0 {
		if s.Logger != nil {
			s.Logger.Warn("stored base reference price is invalid, using default",
				zap.String("value", setting.Value))
		}
		return decimal.NewFromInt(100), nil
	}
	return price, nil
}

// UpdateBasePrice changes the BRP for future gradings only.
func (s *PricingService) UpdateBasePrice(ctx context.Context, price decimal.Decimal) error {
	if price.Sign() <= 0 {
		return domain.Validation("base reference price must be positive")
	}
	err := s.Repo.UpsertSystemSetting(ctx, &models.SystemSetting{
		Key:         SettingBaseReferencePrice,
		Value:       price.String(),
		Description: "base reference price per kg",
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return domain.Upstream(err, "failed to update base reference price")
	}
	if s.Logger != nil {
		s.Logger.Info("base reference price updated", zap.String("price", price.String()))
	}
	return nil
}
