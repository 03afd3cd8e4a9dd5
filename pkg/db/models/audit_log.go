package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/centrelabs/backoffice/pkg/types"
)

// AuditLog is an append-only record of state-changing actions. Rows are
// written in the same transaction as the change they describe.
type AuditLog struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    *uuid.UUID    `gorm:"column:actor_id;type:uuid"`
	ActorEmail *string       `gorm:"column:actor_email"`
	Action     string        `gorm:"column:action;not null;index"`
	EntityType string        `gorm:"column:entity_type;not null"`
	EntityID   uuid.UUID     `gorm:"column:entity_id;type:uuid;not null;index"`
	Details    types.JSONMap `gorm:"column:details;type:jsonb"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime;index"`
}
