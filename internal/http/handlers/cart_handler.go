package handlers

import (
	"fmt"

	"shopapi/internal/domain"
	applog "shopapi/internal/log"
	"shopapi/internal/services"
	"shopapi/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  *int  `json:"quantity" validate:"omitempty,min=1,max=100"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=100"`
}

type cartLineOut struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	SubTotal  string `json:"sub_total"`
}

type cartSummaryOut struct {
	Items       []cartLineOut `json:"items"`
	TotalItems  int           `json:"total_items"`
	TotalAmount string        `json:"total_amount"`
}

func cartProductID(c *fiber.Ctx) (int64, error) {
	id, ok := validate.ID(c.Params("product_id"))
	if !ok {
		return 0, fmt.Errorf("product id must be a positive integer: %w", domain.ErrValidation)
	}
	return id, nil
}

// POST /cart/items
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addItemRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, "cart.add", err)
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	u := currentUser(c)
	if err := h.Cart.AddItem(c.UserContext(), u.ID, req.ProductID, qty); err != nil {
		return fail(c, "cart.add.fail", err)
	}
	return ack(c, fiber.StatusCreated, "Product added to cart successfully")
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	sum, err := h.Cart.Summary(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "cart.view.fail", err)
	}
	out := cartSummaryOut{
		Items:       make([]cartLineOut, 0, len(sum.Items)),
		TotalItems:  sum.TotalItems,
		TotalAmount: sum.TotalAmount.StringFixed(2),
	}
	for _, it := range sum.Items {
		out.Items = append(out.Items, cartLineOut{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.StringFixed(2),
			Quantity:  it.Quantity,
			SubTotal:  it.SubTotal.StringFixed(2),
		})
	}
	return c.JSON(out)
}

// PUT /cart/items/:product_id
func (h *CartHandler) Update(c *fiber.Ctx) error {
	pid, err := cartProductID(c)
	if err != nil {
		return fail(c, "cart.update", err)
	}
	var req setQuantityRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, "cart.update", err)
	}
	if err := h.Cart.SetItemQuantity(c.UserContext(), currentUser(c).ID, pid, req.Quantity); err != nil {
		return fail(c, "cart.update.fail", err)
	}
	return ack(c, fiber.StatusOK, "Cart item quantity updated successfully")
}

// DELETE /cart/items/:product_id
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	pid, err := cartProductID(c)
	if err != nil {
		return fail(c, "cart.remove", err)
	}
	if err := h.Cart.RemoveItem(c.UserContext(), currentUser(c).ID, pid); err != nil {
		return fail(c, "cart.remove.fail", err)
	}
	return ack(c, fiber.StatusOK, "Product removed from cart successfully")
}

// DELETE /cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	n, err := h.Cart.ClearCart(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "cart.clear.fail", err)
	}
	applog.Audit(c, "cart.clear", map[string]any{"removed": n})
	return ack(c, fiber.StatusOK, fmt.Sprintf("Removed %d item(s) from cart", n))
}
