package domain

// OrderCreatedEvent is the immutable snapshot of an order's lines taken
// inside the creation transaction. Later line updates do not change it.
type OrderCreatedEvent struct {
	OrderID int64       `json:"order_id"`
	Lines   []EventLine `json:"lines"`
}

type EventLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	lines := make([]EventLine, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, EventLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	return &OrderCreatedEvent{
		OrderID: order.ID,
		Lines:   lines,
	}
}
