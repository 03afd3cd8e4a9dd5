package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/centrelabs/backoffice/pkg/enums"
)

// Notification is a stored message surfaced in the back office. CustomerID
// is nil for operational notifications addressed to staff, such as low-stock
// alerts.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID *uuid.UUID             `gorm:"column:customer_id;type:uuid;index"`
	Type       enums.NotificationType `gorm:"column:type;not null"`
	Title      string                 `gorm:"column:title;not null"`
	Message    string                 `gorm:"column:message;not null"`
	Link       *string                `gorm:"column:link"`
	ReadAt     *time.Time             `gorm:"column:read_at"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime;index"`
}
