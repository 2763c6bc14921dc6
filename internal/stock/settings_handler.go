package stock

import (
	"strings"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type UpdateSettingsRequest struct {
	EnableAutoDeduction *bool   `json:"enable_auto_deduction"`
	DeductOnStatus      *string `json:"deduct_on_status"`
	LowStockAlertDays   *int    `json:"low_stock_alert_days"`
	PONumberPrefix      *string `json:"po_number_prefix"`
}

type SettingsResponse struct {
	EnableAutoDeduction bool   `json:"enable_auto_deduction"`
	DeductOnStatus      string `json:"deduct_on_status"`
	LowStockAlertDays   int    `json:"low_stock_alert_days"`
	PONumberPrefix      string `json:"po_number_prefix"`
}

func toSettingsResponse(s *models.StockSettings) SettingsResponse {
	return SettingsResponse{
		EnableAutoDeduction: s.EnableAutoDeduction,
		DeductOnStatus:      s.DeductOnStatus,
		LowStockAlertDays:   s.LowStockAlertDays,
		PONumberPrefix:      s.PONumberPrefix,
	}
}

// GET /api/stock/settings
// İlk okuma varsayılanlarla satır oluşturur.
func GetSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		settings, err := GetSettings(database.DB, tenantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar okunamadı")
		}
		return c.JSON(toSettingsResponse(settings))
	}
}

// PATCH /api/stock/settings
func UpdateSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		settings, err := GetSettings(database.DB, tenantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar okunamadı")
		}

		var body UpdateSettingsRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.EnableAutoDeduction != nil {
			settings.EnableAutoDeduction = *body.EnableAutoDeduction
		}
		if body.DeductOnStatus != nil {
			status := strings.ToUpper(strings.TrimSpace(*body.DeductOnStatus))
			if status == "" {
				return fiber.NewError(fiber.StatusBadRequest, "deduct_on_status boş olamaz")
			}
			settings.DeductOnStatus = status
		}
		if body.LowStockAlertDays != nil {
			if *body.LowStockAlertDays < 1 {
				return fiber.NewError(fiber.StatusBadRequest, "low_stock_alert_days en az 1 olmalı")
			}
			settings.LowStockAlertDays = *body.LowStockAlertDays
		}
		if body.PONumberPrefix != nil {
			prefix := strings.ToUpper(strings.TrimSpace(*body.PONumberPrefix))
			if prefix == "" || len(prefix) > 10 {
				return fiber.NewError(fiber.StatusBadRequest, "po_number_prefix 1-10 karakter olmalı")
			}
			settings.PONumberPrefix = prefix
		}

		if err := database.DB.Save(settings).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar güncellenemedi")
		}
		return c.JSON(toSettingsResponse(settings))
	}
}
