package outbox

import (
	"errors"

	"gorm.io/gorm"

	"github.com/centrelabs/backoffice/pkg/db/models"
)

type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&entry).Error
}

func (r *DLQRepository) List(limit int) ([]models.OutboxDLQ, error) {
	var rows []models.OutboxDLQ
	err := r.db.Order("failed_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
