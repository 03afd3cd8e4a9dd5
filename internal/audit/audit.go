package audit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/types"
)

// Entry is one recorded action against an entity.
type Entry struct {
	ActorID    *uuid.UUID
	ActorEmail string
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Details    types.JSONMap
}

// Service writes audit rows. RecordTx joins the caller's transaction so the
// audit row lands atomically with the change it describes; Record is for
// best-effort trails outside one.
type Service interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error
	Record(ctx context.Context, entry Entry)
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error)
}

type service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(db *gorm.DB, log *logger.Logger) (Service, error) {
	if db == nil {
		return nil, errors.New("audit: db is required")
	}
	if log == nil {
		return nil, errors.New("audit: logger is required")
	}
	return &service{db: db, log: log}, nil
}

func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx).Create(rowFromEntry(entry)).Error
}

// Record never fails the caller; a lost audit row is logged and dropped.
func (s *service) Record(ctx context.Context, entry Entry) {
	if err := s.db.WithContext(ctx).Create(rowFromEntry(entry)).Error; err != nil {
		ctx = s.log.WithFields(ctx, map[string]any{
			"action":      entry.Action,
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID.String(),
		})
		s.log.Error(ctx, "failed to write audit log", err)
	}
}

func (s *service) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLog, error) {
	var rows []models.AuditLog
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func rowFromEntry(entry Entry) *models.AuditLog {
	var actorEmail *string
	if entry.ActorEmail != "" {
		actorEmail = &entry.ActorEmail
	}
	return &models.AuditLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		ActorEmail: actorEmail,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Details:    entry.Details,
	}
}
