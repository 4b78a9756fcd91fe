package domain

import "time"

type OrderLineEvent struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

type OrderCreatedEvent struct {
	OrderID int64            `json:"order_id"`
	Lines   []OrderLineEvent `json:"lines"`
}

// ReconciliationFailure records a line the stock reconciler could not apply.
// Failed lines never block their siblings; they end up here for operators.
type ReconciliationFailure struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
