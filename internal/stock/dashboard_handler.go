package stock

import (
	"time"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type DashboardResponse struct {
	TotalItems       int64              `json:"total_items"`
	ActiveItems      int64              `json:"active_items"`
	LowStockCount    int64              `json:"low_stock_count"`
	ExpiringCount    int64              `json:"expiring_count"`
	OpenOrderCount   int64              `json:"open_order_count"`
	TotalValuation   decimal.Decimal    `json:"total_valuation"`
	WasteCostLast30d decimal.Decimal    `json:"waste_cost_last_30d"`
	RecentMovements  []MovementResponse `json:"recent_movements"`
}

// GET /api/stock/dashboard
func DashboardHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var resp DashboardResponse

		database.DB.Model(&models.StockItem{}).
			Where("tenant_id = ?", tenantID).Count(&resp.TotalItems)
		database.DB.Model(&models.StockItem{}).
			Where("tenant_id = ? AND is_active = ?", tenantID, true).Count(&resp.ActiveItems)
		database.DB.Model(&models.StockItem{}).
			Where("tenant_id = ? AND is_active = ? AND current_stock <= min_stock", tenantID, true).
			Count(&resp.LowStockCount)

		settings, err := GetSettings(database.DB, tenantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar okunamadı")
		}
		now := time.Now()
		cutoff := now.AddDate(0, 0, settings.LowStockAlertDays)
		database.DB.Model(&models.StockBatch{}).
			Where("tenant_id = ? AND quantity > 0 AND expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ?", tenantID, now, cutoff).
			Count(&resp.ExpiringCount)

		database.DB.Model(&models.PurchaseOrder{}).
			Where("tenant_id = ? AND status IN ?", tenantID, []models.PurchaseOrderStatus{
				models.PurchaseOrderSubmitted, models.PurchaseOrderPartiallyReceived,
			}).Count(&resp.OpenOrderCount)

		valuation, err := TotalValuation(tenantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok değeri hesaplanamadı")
		}
		resp.TotalValuation = valuation

		var wastes []models.WasteLog
		if err := database.DB.
			Where("tenant_id = ? AND created_at >= ?", tenantID, time.Now().AddDate(0, 0, -30)).
			Find(&wastes).Error; err == nil {
			total := decimal.Zero
			for _, w := range wastes {
				total = total.Add(w.Cost)
			}
			resp.WasteCostLast30d = total
		}

		var recent []models.IngredientMovement
		if err := database.DB.Preload("StockItem").
			Where("tenant_id = ?", tenantID).
			Order("created_at DESC, id DESC").
			Limit(10).
			Find(&recent).Error; err == nil {
			resp.RecentMovements = make([]MovementResponse, 0, len(recent))
			for i := range recent {
				resp.RecentMovements = append(resp.RecentMovements, toMovementResponse(&recent[i]))
			}
		}

		return c.JSON(resp)
	}
}

// TotalValuation - Aktif kalemlerin CurrentStock x CostPerUnit toplamı.
// decimal toplaması uygulamada yapılır, SQL SUM float'a düşürmesin diye.
func TotalValuation(tenantID uint) (decimal.Decimal, error) {
	var items []models.StockItem
	if err := database.DB.
		Select("current_stock", "cost_per_unit").
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Find(&items).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.CurrentStock.Mul(item.CostPerUnit))
	}
	return total, nil
}

type ValuationRow struct {
	StockItemID  uint            `json:"stock_item_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	Value        decimal.Decimal `json:"value"`
}

type ValuationResponse struct {
	TotalValue decimal.Decimal `json:"total_value"`
	Items      []ValuationRow  `json:"items"`
}

// GET /api/stock/valuation
// Kalem bazında envanter değeri dökümü.
func ValuationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var items []models.StockItem
		if err := database.DB.
			Where("tenant_id = ? AND is_active = ?", tenantID, true).
			Order("name ASC").
			Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok değeri hesaplanamadı")
		}

		resp := ValuationResponse{Items: make([]ValuationRow, 0, len(items))}
		for _, item := range items {
			value := item.CurrentStock.Mul(item.CostPerUnit)
			resp.TotalValue = resp.TotalValue.Add(value)
			resp.Items = append(resp.Items, ValuationRow{
				StockItemID:  item.ID,
				Name:         item.Name,
				Unit:         string(item.Unit),
				CurrentStock: item.CurrentStock,
				CostPerUnit:  item.CostPerUnit,
				Value:        value,
			})
		}
		return c.JSON(resp)
	}
}
