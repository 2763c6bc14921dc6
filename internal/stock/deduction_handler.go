package stock

import (
	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"

	"github.com/gofiber/fiber/v2"
)

// POST /api/orders/:id/deduct-stock
// Sipariş akışı tarafından, sipariş ayarlardaki tetikleyici duruma geçtiğinde çağrılır.
func DeductStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		orderID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		result, err := DeductForOrder(database.DB, tenantID, uint(orderID))
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}

// POST /api/orders/:id/reverse-stock
// Sipariş iptal/iade edildiğinde çağrılır.
func ReverseStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		orderID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		result, err := ReverseForOrder(database.DB, tenantID, uint(orderID))
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}
