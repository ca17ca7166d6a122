package domain

// Product is an immutable order line item. Name, description and price are
// optional; a missing price contributes zero to the order total.
type Product struct {
	id          ProductID
	quantity    ProductQuantity
	name        *ProductName
	description *ProductDescription
	price       *float64
}

func NewProduct(id ProductID, quantity ProductQuantity, name *ProductName, description *ProductDescription, price *float64) Product {
	return Product{
		id:          id,
		quantity:    quantity,
		name:        name,
		description: description,
		price:       price,
	}
}

func (p Product) ID() ProductID             { return p.id }
func (p Product) Quantity() ProductQuantity { return p.quantity }

func (p Product) Name() (ProductName, bool) {
	if p.name == nil {
		return "", false
	}
	return *p.name, true
}

func (p Product) Description() (ProductDescription, bool) {
	if p.description == nil {
		return "", false
	}
	return *p.description, true
}

func (p Product) Price() (float64, bool) {
	if p.price == nil {
		return 0, false
	}
	return *p.price, true
}

func (p Product) Subtotal() float64 {
	if p.price == nil {
		return 0
	}
	return *p.price * float64(p.quantity)
}
