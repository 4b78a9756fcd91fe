package domain

import "time"

type Order struct {
	ID        int64       `db:"id" json:"id"`
	Lines     []OrderLine `json:"lines"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderLine is owned by its Order and is removed with it. Price is in minor
// currency units.
type OrderLine struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Price     int64 `db:"price" json:"price"`
	Quantity  int32 `db:"quantity" json:"quantity"`
}

// NewOrderLine carries the caller-supplied fields of a line before ids are
// assigned.
type NewOrderLine struct {
	ProductID int64
	Price     int64
	Quantity  int32
}

// LineUpdate overwrites the mutable fields of an existing line.
type LineUpdate struct {
	LineID   int64
	Price    int64
	Quantity int32
}
