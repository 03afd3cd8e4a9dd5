package analytics

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// OrderRevenueRow mirrors the order_revenue BigQuery schema. Cancellations
// append a compensating row with negated amounts rather than mutating the
// original.
type OrderRevenueRow struct {
	EventID      string             `bigquery:"event_id"`
	EventType    string             `bigquery:"event_type"`
	OccurredAt   time.Time          `bigquery:"occurred_at"`
	FinancialDay civil.Date         `bigquery:"financial_day"`
	OrderID      string             `bigquery:"order_id"`
	OrderNumber  string             `bigquery:"order_number"`
	CustomerID   string             `bigquery:"customer_id"`
	TotalCents   int64              `bigquery:"total_cents"`
	ItemCount    *int64             `bigquery:"item_count"`
	CancelReason *string            `bigquery:"cancel_reason"`
	Payload      cbigquery.NullJSON `bigquery:"payload"`
}
