package handlers

import (
	"shopapi/internal/log"
	"shopapi/internal/services"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=35"`
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "category.list.fail", err)
	}
	return c.JSON(cats)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return fail(c, "category.create", err)
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return fail(c, "category.create.fail", err)
	}
	log.Audit(c, "admin.category.create", map[string]any{"category_id": cat.ID, "name": cat.Name})
	return c.Status(fiber.StatusCreated).JSON(cat)
}
