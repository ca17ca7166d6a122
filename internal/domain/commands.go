package domain

import "fmt"

// Wire command shapes consumed by both the synchronous API and the inbound
// message pipeline. binding tags drive gin, validate tags drive the async
// schema validation.

type ProductInput struct {
	ID          string   `json:"id" binding:"required" validate:"required"`
	Quantity    int      `json:"quantity" binding:"required,gt=0" validate:"required,gt=0"`
	Name        string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

type CreateOrderCommand struct {
	CustomerID   string         `json:"customerId" binding:"required" validate:"required"`
	OrderDate    int64          `json:"orderDate,omitempty" validate:"omitempty,gt=0"`
	DeliveryDate int64          `json:"deliveryDate,omitempty" validate:"omitempty,gt=0"`
	Products     []ProductInput `json:"products" binding:"required,min=1,dive" validate:"required,min=1,dive"`
}

// ToProducts builds the validated line items of the command.
func (c CreateOrderCommand) ToProducts() ([]Product, error) {
	products := make([]Product, 0, len(c.Products))
	for i, input := range c.Products {
		id, err := ParseProductID(input.ID)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		quantity, err := NewProductQuantity(input.Quantity)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", i, err)
		}
		var name *ProductName
		if input.Name != "" {
			n, err := NewProductName(input.Name)
			if err != nil {
				return nil, fmt.Errorf("product %d: %w", i, err)
			}
			name = &n
		}
		var description *ProductDescription
		if input.Description != "" {
			d, err := NewProductDescription(input.Description)
			if err != nil {
				return nil, fmt.Errorf("product %d: %w", i, err)
			}
			description = &d
		}
		products = append(products, NewProduct(id, quantity, name, description, input.Price))
	}
	return products, nil
}

type GetOrderCommand struct {
	ID string `json:"id" validate:"required"`
}

type GetOrdersCommand struct {
	IDs []string `json:"ids,omitempty" validate:"omitempty,dive,required"`
}

type ConfirmOrderCommand struct {
	ID string `json:"id" validate:"required,uuid4"`
}

type CancelOrderCommand struct {
	ID     string `json:"id" validate:"required,uuid4"`
	Reason string `json:"reason,omitempty"`
}

type ShipOrderCommand struct {
	ID string `json:"id" validate:"required,uuid4"`
}

type DeliverOrderCommand struct {
	ID string `json:"id" validate:"required,uuid4"`
}

// StockReservedReply is the stock service's success reply to stock.reserve.
type StockReservedReply struct {
	OrderID string `json:"orderId" validate:"required,uuid4"`
}

// StockRejectedReply is the stock service's failure reply to stock.reserve.
type StockRejectedReply struct {
	OrderID string `json:"orderId" validate:"required,uuid4"`
	Reason  string `json:"reason,omitempty"`
}
