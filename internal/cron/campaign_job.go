package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/logger"
)

// CampaignWindowJobParams configures the scheduled campaign sweep.
type CampaignWindowJobParams struct {
	Logger     *logger.Logger
	Promotions campaignRepository
}

type campaignRepository interface {
	ListDueForActivation(ctx context.Context, now time.Time) ([]models.Promotion, error)
	ListDueForDeactivation(ctx context.Context, now time.Time) ([]models.Promotion, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// NewCampaignWindowJob constructs the job that flips promotions on and off
// as their scheduled windows open and close.
func NewCampaignWindowJob(params CampaignWindowJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Promotions == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	return &campaignWindowJob{
		logg:  params.Logger,
		promo: params.Promotions,
		now:   time.Now,
	}, nil
}

type campaignWindowJob struct {
	logg  *logger.Logger
	promo campaignRepository
	now   func() time.Time
}

func (j *campaignWindowJob) Name() string { return "campaign-windows" }

func (j *campaignWindowJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.activateDue(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.deactivateExpired(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *campaignWindowJob) activateDue(ctx context.Context) error {
	now := j.now().UTC()
	promos, err := j.promo.ListDueForActivation(ctx, now)
	if err != nil {
		return fmt.Errorf("query campaigns due for activation: %w", err)
	}
	count := 0
	for _, promo := range promos {
		if err := j.promo.SetActive(ctx, promo.ID, true); err != nil {
			return fmt.Errorf("activate campaign %s: %w", promo.ID, err)
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "campaign activation loop complete")
	return nil
}

func (j *campaignWindowJob) deactivateExpired(ctx context.Context) error {
	now := j.now().UTC()
	promos, err := j.promo.ListDueForDeactivation(ctx, now)
	if err != nil {
		return fmt.Errorf("query expired campaigns: %w", err)
	}
	count := 0
	for _, promo := range promos {
		if err := j.promo.SetActive(ctx, promo.ID, false); err != nil {
			return fmt.Errorf("deactivate campaign %s: %w", promo.ID, err)
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "campaign expiry loop complete")
	return nil
}
