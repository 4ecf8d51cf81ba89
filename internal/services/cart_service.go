package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"shopapi/internal/domain"
	applog "shopapi/internal/log"
	"shopapi/internal/repos"
)

// CartService mutates one user's cart. Every operation runs as a single
// transaction: stock is read and compared inside the same transaction that
// writes the quantity, and any error rolls the whole operation back.
type CartService struct {
	Carts *repos.CartRepo
}

func NewCartService(carts *repos.CartRepo) *CartService {
	return &CartService{Carts: carts}
}

// AddItem adds qty of a product to the user's cart, creating the cart and
// the line as needed. Repeated adds accumulate.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, qty int) error {
	if qty < 1 {
		return fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}
	return s.Carts.Atomic(ctx, func(tx *sqlx.Tx) error {
		p, err := s.Carts.Product(ctx, tx, productID)
		if err != nil {
			return err
		}
		if !p.IsAvailable {
			return fmt.Errorf("product %d: %w", productID, domain.ErrUnavailable)
		}
		cartID, err := s.Carts.EnsureCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		existing, err := s.Carts.Quantity(ctx, tx, cartID, productID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing+qty > p.Stock {
			return stockError(productID, existing+qty, p.Stock)
		}
		ok, err := s.Carts.AddQuantity(ctx, tx, cartID, productID, qty)
		if err != nil {
			return err
		}
		if !ok {
			return stockError(productID, existing+qty, p.Stock)
		}
		applog.Info(nil, "cart.item.add", map[string]any{
			"user_id": userID, "product_id": productID, "quantity": existing + qty,
		})
		return nil
	})
}

// SetItemQuantity replaces the quantity of an existing line.
func (s *CartService) SetItemQuantity(ctx context.Context, userID, productID int64, qty int) error {
	if qty < 1 {
		return fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}
	return s.Carts.Atomic(ctx, func(tx *sqlx.Tx) error {
		cartID, err := s.Carts.CartID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, err := s.Carts.Quantity(ctx, tx, cartID, productID); err != nil {
			return err
		}
		p, err := s.Carts.Product(ctx, tx, productID)
		if err != nil {
			return err
		}
		if qty > p.Stock {
			return stockError(productID, qty, p.Stock)
		}
		ok, err := s.Carts.SetQuantity(ctx, tx, cartID, productID, qty)
		if err != nil {
			return err
		}
		if !ok {
			return stockError(productID, qty, p.Stock)
		}
		applog.Info(nil, "cart.item.set", map[string]any{
			"user_id": userID, "product_id": productID, "quantity": qty,
		})
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.Carts.Atomic(ctx, func(tx *sqlx.Tx) error {
		cartID, err := s.Carts.CartID(ctx, tx, userID)
		if err != nil {
			return err
		}
		n, err := s.Carts.RemoveItem(ctx, tx, cartID, productID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("product %d not in cart: %w", productID, domain.ErrNotFound)
		}
		applog.Info(nil, "cart.item.remove", map[string]any{"user_id": userID, "product_id": productID})
		return nil
	})
}

// ClearCart deletes every line in the user's cart and returns how many were removed.
func (s *CartService) ClearCart(ctx context.Context, userID int64) (int64, error) {
	var removed int64
	err := s.Carts.Atomic(ctx, func(tx *sqlx.Tx) error {
		cartID, err := s.Carts.CartID(ctx, tx, userID)
		if err != nil {
			return err
		}
		removed, err = s.Carts.Clear(ctx, tx, cartID)
		return err
	})
	return removed, err
}

// Summary prices the cart at current product prices. A user without a cart
// gets an empty summary, not an error.
func (s *CartService) Summary(ctx context.Context, userID int64) (domain.CartSummary, error) {
	sum := domain.CartSummary{Items: []domain.CartLine{}, TotalAmount: decimal.Zero}
	err := s.Carts.Atomic(ctx, func(tx *sqlx.Tx) error {
		cartID, err := s.Carts.CartID(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		lines, err := s.Carts.Lines(ctx, tx, cartID)
		if err != nil {
			return err
		}
		total := decimal.Zero
		for i := range lines {
			lines[i].SubTotal = lines[i].Price.Mul(decimal.NewFromInt(int64(lines[i].Quantity)))
			total = total.Add(lines[i].SubTotal)
			sum.TotalItems += lines[i].Quantity
		}
		sum.Items = lines
		sum.TotalAmount = total.Round(2)
		return nil
	})
	return sum, err
}

func stockError(productID int64, want, stock int) error {
	return fmt.Errorf("product %d: requested %d, only %d in stock: %w", productID, want, stock, domain.ErrInsufficientStock)
}
