package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"shopapi/internal/domain"
	"shopapi/internal/log"
	"shopapi/internal/services"
	"shopapi/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

type productCreateRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"max=2000"`
	CategoryID  int64            `json:"category_id" validate:"required,gt=0"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Stock       *int             `json:"stock" validate:"required,min=0"`
	Size        *int             `json:"size" validate:"omitempty,min=0"`
	Unit        *string          `json:"unit" validate:"omitempty,oneof=KG GRAM LITER PIECE"`
	IsAvailable *bool            `json:"is_available"`
}

type productUpdateRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	CategoryID  *int64           `json:"category_id" validate:"omitempty,gt=0"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
	Size        *int             `json:"size" validate:"omitempty,min=0"`
	Unit        *string          `json:"unit" validate:"omitempty,oneof=KG GRAM LITER PIECE"`
	IsAvailable *bool            `json:"is_available"`
}

// checkPrice enforces a non-negative amount with at most two decimal places.
func checkPrice(p *decimal.Decimal) error {
	if p == nil {
		return nil
	}
	if p.IsNegative() {
		return fmt.Errorf("price must be at least 0: %w", domain.ErrValidation)
	}
	if !p.Equal(p.Round(2)) {
		return fmt.Errorf("price must have at most 2 decimal places: %w", domain.ErrValidation)
	}
	return nil
}

func productID(c *fiber.Ctx) (int64, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return 0, fmt.Errorf("product id must be a positive integer: %w", domain.ErrValidation)
	}
	return id, nil
}

// GET /products/?q=&skip=&limit=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		return fail(c, "product.list", fmt.Errorf("enter a valid keyword (letters/numbers only, max 50): %w", domain.ErrValidation))
	}
	skip, limit, ok := validate.Page(c.Query("skip"), c.Query("limit"), services.DefaultPageSize, services.MaxPageSize)
	if !ok {
		return fail(c, "product.list", fmt.Errorf("skip must be >= 0 and limit in [1,%d]: %w", services.MaxPageSize, domain.ErrValidation))
	}
	products, err := h.Catalog.ListProducts(c.UserContext(), domain.ProductQuery{Q: q, Skip: skip, Limit: limit})
	if err != nil {
		return fail(c, "product.list.fail", err)
	}
	return c.JSON(products)
}

// GET /products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return fail(c, "product.detail", err)
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "product.detail.fail", err)
	}
	return c.JSON(p)
}

// POST /products (admin)
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req productCreateRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, "product.create", err)
	}
	if err := checkPrice(req.Price); err != nil {
		return fail(c, "product.create", err)
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), domain.NewProduct{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       *req.Price,
		Stock:       *req.Stock,
		Size:        req.Size,
		Unit:        req.Unit,
		IsAvailable: available,
	})
	if err != nil {
		return fail(c, "product.create.fail", err)
	}
	log.Audit(c, "admin.product.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PATCH /products/:id (admin)
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return fail(c, "product.update", err)
	}
	var req productUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, "product.update", err)
	}
	if err := checkPrice(req.Price); err != nil {
		return fail(c, "product.update", err)
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	patch := domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Price:       req.Price,
		Stock:       req.Stock,
		Size:        req.Size,
		Unit:        req.Unit,
		IsAvailable: req.IsAvailable,
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, patch)
	if err != nil {
		return fail(c, "product.update.fail", err)
	}
	log.Audit(c, "admin.product.update", map[string]any{"product_id": id, "empty": patch.Empty()})
	return c.JSON(p)
}

// DELETE /products/:id (admin)
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return fail(c, "product.delete", err)
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "product.delete.fail", err)
	}
	log.Audit(c, "admin.product.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
