package domain

import "time"

// Wire patterns used as routing keys (and topics) for outbound events.
const (
	PatternOrderCreated      = "orders.created"
	PatternOrderConfirmed    = "orders.confirmed"
	PatternOrderCancelled    = "orders.cancelled"
	PatternOrderShipped      = "orders.shipped"
	PatternOrderDelivered    = "orders.delivered"
	PatternStockReservation  = "stock.reserve"
	PatternStockCompensation = "stock.compensate"
)

// DomainEvent is the closed set of facts an Order can emit. The unexported
// method keeps the set closed to this package; handlers switch over the
// seven concrete types.
type DomainEvent interface {
	Pattern() string
	AggregateID() OrderID
	OccurredOn() time.Time
	isDomainEvent()
}

// ProductLine is the slimmed-down product payload carried by saga events.
type ProductLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ProductPayload is the full line-item payload carried by OrderCreatedEvent.
type ProductPayload struct {
	ID          string   `json:"id"`
	Quantity    int      `json:"quantity"`
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

type OrderCreatedEvent struct {
	ID           string           `json:"id"`
	CustomerID   string           `json:"customerId"`
	OrderDate    int64            `json:"orderDate"`
	DeliveryDate int64            `json:"deliveryDate"`
	Status       string           `json:"status"`
	Products     []ProductPayload `json:"products"`
	Price        float64          `json:"price"`
	At           time.Time        `json:"-"`
}

func (e OrderCreatedEvent) Pattern() string       { return PatternOrderCreated }
func (e OrderCreatedEvent) AggregateID() OrderID  { return OrderID(e.ID) }
func (e OrderCreatedEvent) OccurredOn() time.Time { return e.At }
func (OrderCreatedEvent) isDomainEvent()          {}

type OrderConfirmedEvent struct {
	ID string    `json:"id"`
	At time.Time `json:"-"`
}

func (e OrderConfirmedEvent) Pattern() string       { return PatternOrderConfirmed }
func (e OrderConfirmedEvent) AggregateID() OrderID  { return OrderID(e.ID) }
func (e OrderConfirmedEvent) OccurredOn() time.Time { return e.At }
func (OrderConfirmedEvent) isDomainEvent()          {}

type OrderCancelledEvent struct {
	ID     string    `json:"id"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"-"`
}

func (e OrderCancelledEvent) Pattern() string       { return PatternOrderCancelled }
func (e OrderCancelledEvent) AggregateID() OrderID  { return OrderID(e.ID) }
func (e OrderCancelledEvent) OccurredOn() time.Time { return e.At }
func (OrderCancelledEvent) isDomainEvent()          {}

type OrderShippedEvent struct {
	ID string    `json:"id"`
	At time.Time `json:"-"`
}

func (e OrderShippedEvent) Pattern() string       { return PatternOrderShipped }
func (e OrderShippedEvent) AggregateID() OrderID  { return OrderID(e.ID) }
func (e OrderShippedEvent) OccurredOn() time.Time { return e.At }
func (OrderShippedEvent) isDomainEvent()          {}

type OrderDeliveredEvent struct {
	ID string    `json:"id"`
	At time.Time `json:"-"`
}

func (e OrderDeliveredEvent) Pattern() string       { return PatternOrderDelivered }
func (e OrderDeliveredEvent) AggregateID() OrderID  { return OrderID(e.ID) }
func (e OrderDeliveredEvent) OccurredOn() time.Time { return e.At }
func (OrderDeliveredEvent) isDomainEvent()          {}

// StockReservationRequestedEvent asks the stock service to reserve inventory
// for every line item before the order may be confirmed.
type StockReservationRequestedEvent struct {
	OrderID  string        `json:"orderId"`
	Products []ProductLine `json:"products"`
	At       time.Time     `json:"-"`
}

func (e StockReservationRequestedEvent) Pattern() string       { return PatternStockReservation }
func (e StockReservationRequestedEvent) AggregateID() OrderID  { return OrderID(e.OrderID) }
func (e StockReservationRequestedEvent) OccurredOn() time.Time { return e.At }
func (StockReservationRequestedEvent) isDomainEvent()          {}

// StockCompensationRequestedEvent asks the stock service to release inventory
// previously reserved for a confirmed order that is being cancelled.
type StockCompensationRequestedEvent struct {
	OrderID  string        `json:"orderId"`
	Products []ProductLine `json:"products"`
	At       time.Time     `json:"-"`
}

func (e StockCompensationRequestedEvent) Pattern() string       { return PatternStockCompensation }
func (e StockCompensationRequestedEvent) AggregateID() OrderID  { return OrderID(e.OrderID) }
func (e StockCompensationRequestedEvent) OccurredOn() time.Time { return e.At }
func (StockCompensationRequestedEvent) isDomainEvent()          {}
