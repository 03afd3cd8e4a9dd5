package orders

import "github.com/centrelabs/backoffice/pkg/enums"

// inventoryEffect is what a status transition does to reserved stock.
type inventoryEffect int

const (
	effectNone inventoryEffect = iota
	effectCommit
	effectCommitDelivered
	effectRelease
)

// effectForTransition maps a transition to its inventory side effect.
// Commits and releases only fire out of pre-fulfillment states; everything
// else, including staff edits of terminal labels, moves no stock.
func effectForTransition(from, to enums.OrderStatus) inventoryEffect {
	if !from.IsPreFulfillment() {
		return effectNone
	}
	switch to {
	case enums.OrderStatusShipped, enums.OrderStatusProcessing, enums.OrderStatusLabelCreated:
		return effectCommit
	case enums.OrderStatusDelivered:
		return effectCommitDelivered
	case enums.OrderStatusCancelled, enums.OrderStatusRefunded:
		return effectRelease
	}
	return effectNone
}
