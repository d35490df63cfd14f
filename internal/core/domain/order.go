package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

var OrderTransitions = NewTransitionTable("order",
	Transition[OrderStatus]{From: OrderPending, Action: ActionPay, To: OrderPaid},
	Transition[OrderStatus]{From: OrderPending, Action: ActionCancel, To: OrderCancelled},
	Transition[OrderStatus]{From: OrderPaid, Action: ActionRefund, To: OrderRefunded},
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderPending, OrderPaid, OrderCancelled, OrderRefunded:
		return st, nil
	}
	return "", Validationf("status must be one of: PENDING, PAID, CANCELLED, REFUNDED")
}

// Order is a purchase of a single agent.
type Order struct {
	ID        string
	UserID    string
	AgentID   string
	Amount    int64
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
