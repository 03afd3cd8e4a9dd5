package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/centrelabs/backoffice/pkg/enums"
)

// OutboxEvent is a transactional outbox row. Events are inserted in the same
// transaction as the state change they announce and drained by the publisher
// worker, so a published event always reflects a committed write.
type OutboxEvent struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID               `gorm:"column:aggregate_id;type:uuid;not null;index"`
	EventType     enums.OutboxEventType   `gorm:"column:event_type;not null"`
	Payload       json.RawMessage         `gorm:"column:payload;type:jsonb;not null"`
	Status        enums.OutboxStatus      `gorm:"column:status;not null;default:pending;index"`
	Attempts      int                     `gorm:"column:attempts;not null;default:0"`
	LastError     *string                 `gorm:"column:last_error"`
	PublishedAt   *time.Time              `gorm:"column:published_at"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime;index"`
}
