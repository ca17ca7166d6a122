package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrValidation marks every value-object construction failure so the
// boundary layers can classify them without knowing each message.
var ErrValidation = errors.New("validation error")

type OrderID string

func NewOrderID() OrderID {
	return OrderID(uuid.New().String())
}

func ParseOrderID(s string) (OrderID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: order id must not be empty", ErrValidation)
	}
	return OrderID(s), nil
}

func (id OrderID) String() string { return string(id) }

type CustomerID string

func ParseCustomerID(s string) (CustomerID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: customer id must not be empty", ErrValidation)
	}
	return CustomerID(s), nil
}

func (id CustomerID) String() string { return string(id) }

type ProductID string

func ParseProductID(s string) (ProductID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: product id must not be empty", ErrValidation)
	}
	return ProductID(s), nil
}

func (id ProductID) String() string { return string(id) }

// OrderDate is a point in time as strictly positive milliseconds since epoch.
type OrderDate int64

func NewOrderDate(millis int64) (OrderDate, error) {
	if millis <= 0 {
		return 0, fmt.Errorf("%w: order date must be a positive timestamp, got %d", ErrValidation, millis)
	}
	return OrderDate(millis), nil
}

func OrderDateFromTime(t time.Time) OrderDate {
	return OrderDate(t.UnixMilli())
}

func (d OrderDate) IsAfter(other OrderDate) bool  { return d > other }
func (d OrderDate) IsBefore(other OrderDate) bool { return d < other }

func (d OrderDate) AddDays(days int) OrderDate {
	return d + OrderDate(int64(days)*24*int64(time.Hour/time.Millisecond))
}

func (d OrderDate) Millis() int64   { return int64(d) }
func (d OrderDate) Time() time.Time { return time.UnixMilli(int64(d)).UTC() }

// ProductQuantity is a strictly positive amount of a product.
type ProductQuantity int

func NewProductQuantity(n int) (ProductQuantity, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: quantity must be greater than zero, got %d", ErrValidation, n)
	}
	return ProductQuantity(n), nil
}

func (q ProductQuantity) Add(other ProductQuantity) ProductQuantity {
	return q + other
}

// Subtract fails when the result would drop below one.
func (q ProductQuantity) Subtract(other ProductQuantity) (ProductQuantity, error) {
	result := int(q) - int(other)
	if result <= 0 {
		return 0, fmt.Errorf("%w: cannot subtract %d from %d", ErrValidation, int(other), int(q))
	}
	return ProductQuantity(result), nil
}

func (q ProductQuantity) Int() int { return int(q) }

const (
	productNameMinLen = 2
	productNameMaxLen = 100
)

type ProductName string

func NewProductName(s string) (ProductName, error) {
	s = strings.TrimSpace(s)
	if len(s) < productNameMinLen || len(s) > productNameMaxLen {
		return "", fmt.Errorf("%w: product name length must be between %d and %d, got %d",
			ErrValidation, productNameMinLen, productNameMaxLen, len(s))
	}
	return ProductName(s), nil
}

func (n ProductName) String() string { return string(n) }

const productDescriptionMaxLen = 500

type ProductDescription string

func NewProductDescription(s string) (ProductDescription, error) {
	s = strings.TrimSpace(s)
	if len(s) > productDescriptionMaxLen {
		return "", fmt.Errorf("%w: product description must not exceed %d characters, got %d",
			ErrValidation, productDescriptionMaxLen, len(s))
	}
	return ProductDescription(s), nil
}

// Truncate returns the description unchanged when it fits in n characters,
// otherwise the first n-3 characters followed by "...".
func (d ProductDescription) Truncate(n int) string {
	s := string(d)
	if len(s) <= n {
		return s
	}
	if n < 3 {
		return "..."
	}
	return s[:n-3] + "..."
}

func (d ProductDescription) String() string { return string(d) }
