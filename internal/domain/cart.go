package domain

import "github.com/shopspring/decimal"

// CartLine is a cart item joined with the product it references.
type CartLine struct {
	ProductID int64           `db:"product_id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	Quantity  int             `db:"quantity"`
	SubTotal  decimal.Decimal `db:"-"`
}

type CartSummary struct {
	Items       []CartLine
	TotalItems  int
	TotalAmount decimal.Decimal
}
