package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at"`
}

// Units a product's size can be expressed in.
const (
	UnitKG    = "KG"
	UnitGram  = "GRAM"
	UnitLiter = "LITER"
	UnitPiece = "PIECE"
)

type Product struct {
	ID          int64           `db:"id" json:"id"`
	Slug        string          `db:"slug" json:"slug"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	CategoryID  int64           `db:"category_id" json:"category_id"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Size        *int            `db:"size" json:"size"`
	Unit        *string         `db:"unit" json:"unit"` // KG | GRAM | LITER | PIECE
	IsAvailable bool            `db:"is_available" json:"is_available"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

// NewProduct is the input for creating a catalog entry.
type NewProduct struct {
	Name        string
	Description string
	CategoryID  int64
	Price       decimal.Decimal
	Stock       int
	Size        *int
	Unit        *string
	IsAvailable bool
}

// ProductPatch carries a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	CategoryID  *int64
	Price       *decimal.Decimal
	Stock       *int
	Size        *int
	Unit        *string
	IsAvailable *bool
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.CategoryID == nil && p.Price == nil &&
		p.Stock == nil && p.Size == nil && p.Unit == nil && p.IsAvailable == nil
}

// ProductQuery describes a catalog listing request.
type ProductQuery struct {
	Q     string
	Skip  int
	Limit int
}
