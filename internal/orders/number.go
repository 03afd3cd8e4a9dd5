package orders

import (
	"context"
	"fmt"
	"time"
)

// nextOrderNumber derives a human-readable order number like
// CL-20260310-0042 from the day's order count. It runs inside the creation
// transaction; the unique index on order_number catches the rare collision
// and fails the order rather than issuing a duplicate.
func nextOrderNumber(ctx context.Context, repo Repository, prefix string, now time.Time) (string, error) {
	day := now.UTC().Truncate(24 * time.Hour)
	count, err := repo.CountCreatedSince(ctx, day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, now.UTC().Format("20060102"), count+1), nil
}
