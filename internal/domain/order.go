package domain

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
)

// Order is the aggregate root. State changes go through its methods only;
// every successful mutation appends domain events that stay owned by this
// instance until the orchestrator drains them with ClearEvents.
type Order struct {
	id           OrderID
	customerID   CustomerID
	orderDate    OrderDate
	deliveryDate OrderDate
	status       OrderStatus
	products     []Product
	version      int64
	events       []DomainEvent
}

// CreateOrder builds a new PENDING order with a fresh id and records an
// OrderCreatedEvent. At least one product is required.
func CreateOrder(customerID CustomerID, products []Product, orderDate, deliveryDate OrderDate) (*Order, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: customer id must not be empty", ErrValidation)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one product", ErrValidation)
	}

	o := &Order{
		id:           NewOrderID(),
		customerID:   customerID,
		orderDate:    orderDate,
		deliveryDate: deliveryDate,
		status:       StatusPending,
		products:     append([]Product(nil), products...),
		version:      1,
	}
	o.record(OrderCreatedEvent{
		ID:           o.id.String(),
		CustomerID:   o.customerID.String(),
		OrderDate:    o.orderDate.Millis(),
		DeliveryDate: o.deliveryDate.Millis(),
		Status:       string(o.status),
		Products:     o.productPayloads(),
		Price:        o.Price(),
		At:           time.Now().UTC(),
	})
	return o, nil
}

// RestoreOrder rebuilds an aggregate from persisted state without emitting
// events.
func RestoreOrder(id OrderID, customerID CustomerID, orderDate, deliveryDate OrderDate, status OrderStatus, products []Product, version int64) *Order {
	return &Order{
		id:           id,
		customerID:   customerID,
		orderDate:    orderDate,
		deliveryDate: deliveryDate,
		status:       status,
		products:     append([]Product(nil), products...),
		version:      version,
	}
}

func (o *Order) ID() OrderID             { return o.id }
func (o *Order) CustomerID() CustomerID  { return o.customerID }
func (o *Order) OrderDate() OrderDate    { return o.orderDate }
func (o *Order) DeliveryDate() OrderDate { return o.deliveryDate }
func (o *Order) Status() OrderStatus     { return o.status }
func (o *Order) Version() int64          { return o.version }

// Products returns a copy; callers cannot mutate the aggregate through it.
func (o *Order) Products() []Product {
	return append([]Product(nil), o.products...)
}

// Price is the sum of line-item subtotals.
func (o *Order) Price() float64 {
	var total float64
	for _, p := range o.products {
		total += p.Subtotal()
	}
	return total
}

// RequestConfirmation asks the stock service to reserve inventory. The order
// stays PENDING; confirmation only happens once the reservation succeeds.
func (o *Order) RequestConfirmation() error {
	if o.status != StatusPending {
		return newTransitionError(o.id, o.status, "request confirmation")
	}
	o.record(StockReservationRequestedEvent{
		OrderID:  o.id.String(),
		Products: o.productLines(),
		At:       time.Now().UTC(),
	})
	o.version++
	return nil
}

// Confirm moves a PENDING order to CONFIRMED.
func (o *Order) Confirm() error {
	if o.status != StatusPending {
		return newTransitionError(o.id, o.status, "confirm")
	}
	o.status = StatusConfirmed
	o.record(OrderConfirmedEvent{ID: o.id.String(), At: time.Now().UTC()})
	o.version++
	return nil
}

// Cancel is legal from PENDING or CONFIRMED. A confirmed order additionally
// requests stock compensation before the cancellation event: inventory is
// released only if it was reserved.
func (o *Order) Cancel(reason string) error {
	if o.status != StatusPending && o.status != StatusConfirmed {
		return newTransitionError(o.id, o.status, "cancel")
	}
	if o.status == StatusConfirmed {
		o.record(StockCompensationRequestedEvent{
			OrderID:  o.id.String(),
			Products: o.productLines(),
			At:       time.Now().UTC(),
		})
	}
	o.status = StatusCancelled
	o.record(OrderCancelledEvent{ID: o.id.String(), Reason: reason, At: time.Now().UTC()})
	o.version++
	return nil
}

// Ship moves a CONFIRMED order to SHIPPED.
func (o *Order) Ship() error {
	if o.status != StatusConfirmed {
		return newTransitionError(o.id, o.status, "ship")
	}
	o.status = StatusShipped
	o.record(OrderShippedEvent{ID: o.id.String(), At: time.Now().UTC()})
	o.version++
	return nil
}

// Deliver moves a SHIPPED order to DELIVERED.
func (o *Order) Deliver() error {
	if o.status != StatusShipped {
		return newTransitionError(o.id, o.status, "deliver")
	}
	o.status = StatusDelivered
	o.record(OrderDeliveredEvent{ID: o.id.String(), At: time.Now().UTC()})
	o.version++
	return nil
}

// PendingEvents returns a copy of the accumulated, not yet published events.
func (o *Order) PendingEvents() []DomainEvent {
	return append([]DomainEvent(nil), o.events...)
}

// ClearEvents drains the pending events. Only the orchestrator may call it,
// and only after a successful persist+publish cycle; earlier calls lose events.
func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) record(event DomainEvent) {
	o.events = append(o.events, event)
}

func (o *Order) productLines() []ProductLine {
	lines := make([]ProductLine, 0, len(o.products))
	for _, p := range o.products {
		lines = append(lines, ProductLine{ProductID: p.ID().String(), Quantity: p.Quantity().Int()})
	}
	return lines
}

func (o *Order) productPayloads() []ProductPayload {
	payloads := make([]ProductPayload, 0, len(o.products))
	for _, p := range o.products {
		payload := ProductPayload{ID: p.ID().String(), Quantity: p.Quantity().Int()}
		if name, ok := p.Name(); ok {
			s := name.String()
			payload.Name = &s
		}
		if desc, ok := p.Description(); ok {
			s := desc.String()
			payload.Description = &s
		}
		if price, ok := p.Price(); ok {
			v := price
			payload.Price = &v
		}
		payloads = append(payloads, payload)
	}
	return payloads
}
