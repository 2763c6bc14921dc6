package stock

import (
	"strconv"
	"time"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateWasteLogRequest struct {
	StockItemID uint    `json:"stock_item_id"`
	Quantity    float64 `json:"quantity"`
	Reason      string  `json:"reason"`
	Notes       string  `json:"notes"`
}

type WasteLogResponse struct {
	ID            uint            `json:"id"`
	StockItemID   uint            `json:"stock_item_id"`
	StockItemName string          `json:"stock_item_name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	Reason        string          `json:"reason"`
	Notes         string          `json:"notes"`
	Cost          decimal.Decimal `json:"cost"`
	CreatedAt     string          `json:"created_at"`
}

func toWasteLogResponse(w *models.WasteLog) WasteLogResponse {
	resp := WasteLogResponse{
		ID:          w.ID,
		StockItemID: w.StockItemID,
		Quantity:    w.Quantity,
		Reason:      string(w.Reason),
		Notes:       w.Notes,
		Cost:        w.Cost,
		CreatedAt:   w.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if w.StockItem.ID != 0 {
		resp.StockItemName = w.StockItem.Name
		resp.Unit = string(w.StockItem.Unit)
	}
	return resp
}

// POST /api/stock/waste
// Sipariş düşümünün aksine zayiat stoğu eksiye düşüremez: yetersiz stok 422.
func CreateWasteLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var body CreateWasteLogRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity pozitif olmalı")
		}
		reason := models.WasteReason(body.Reason)
		if !models.ValidWasteReason(reason) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz zayiat sebebi: "+body.Reason)
		}

		item, err := fetchStockItem(database.DB, tenantID, body.StockItemID)
		if err != nil {
			return err
		}

		qty := decimal.NewFromFloat(body.Quantity)
		waste := models.WasteLog{
			TenantID:    tenantID,
			StockItemID: item.ID,
			Quantity:    qty,
			Reason:      reason,
			Notes:       body.Notes,
			Cost:        qty.Mul(item.CostPerUnit),
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			_, insufficient, err := applyGuardedDecrement(tx, tenantID, item.ID, qty)
			if err != nil {
				return err
			}
			if insufficient {
				return fiber.NewError(fiber.StatusUnprocessableEntity,
					"Yetersiz stok: zayiat mevcut stoktan fazla olamaz")
			}

			if err := tx.Create(&waste).Error; err != nil {
				return err
			}

			cost := item.CostPerUnit
			return appendMovement(tx, &models.IngredientMovement{
				TenantID:      tenantID,
				StockItemID:   item.ID,
				Type:          models.MovementWaste,
				Quantity:      qty.Neg(),
				CostPerUnit:   &cost,
				Notes:         "Zayiat: " + string(reason),
				ReferenceType: models.RefWasteLog,
				ReferenceID:   strconv.FormatUint(uint64(waste.ID), 10),
			})
		})
		if err != nil {
			return err
		}

		database.DB.Preload("StockItem").First(&waste, waste.ID)
		logger.Infow("zayiat kaydedildi",
			"tenant_id", tenantID, "stock_item_id", item.ID, "reason", reason, "quantity", qty)
		return c.Status(fiber.StatusCreated).JSON(toWasteLogResponse(&waste))
	}
}

// GET /api/stock/waste
func ListWasteLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("StockItem").Where("tenant_id = ?", tenantID)
		if reason := c.Query("reason"); reason != "" {
			query = query.Where("reason = ?", reason)
		}
		if itemStr := c.Query("stock_item_id"); itemStr != "" {
			if itemID, err := strconv.Atoi(itemStr); err == nil {
				query = query.Where("stock_item_id = ?", itemID)
			}
		}
		if from := c.Query("from"); from != "" {
			if t, err := time.Parse("2006-01-02", from); err == nil {
				query = query.Where("created_at >= ?", t)
			}
		}
		if to := c.Query("to"); to != "" {
			if t, err := time.Parse("2006-01-02", to); err == nil {
				query = query.Where("created_at < ?", t.AddDate(0, 0, 1))
			}
		}

		var logs []models.WasteLog
		if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Zayiat kayıtları listelenemedi")
		}

		resp := make([]WasteLogResponse, 0, len(logs))
		for i := range logs {
			resp = append(resp, toWasteLogResponse(&logs[i]))
		}
		return c.JSON(resp)
	}
}

type WasteSummaryRow struct {
	Reason    string          `json:"reason"`
	Count     int64           `json:"count"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

type WasteSummaryResponse struct {
	From      string             `json:"from"`
	To        string             `json:"to"`
	TotalCost decimal.Decimal    `json:"total_cost"`
	ByReason  []WasteSummaryRow  `json:"by_reason"`
	Recent    []WasteLogResponse `json:"recent"` // Penceredeki en yeni kayıtlar
}

const wasteSummaryRecentLimit = 10

// GET /api/stock/waste/summary?from=YYYY-MM-DD&to=YYYY-MM-DD
// Sebep bazında adet ve toplam maliyet, artı en yeni kayıtlardan bir örneklem
// döker; varsayılan pencere son 30 gün.
func WasteSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		to := time.Now()
		from := to.AddDate(0, 0, -30)
		if s := c.Query("from"); s != "" {
			if t, err := time.Parse("2006-01-02", s); err == nil {
				from = t
			}
		}
		if s := c.Query("to"); s != "" {
			if t, err := time.Parse("2006-01-02", s); err == nil {
				to = t.AddDate(0, 0, 1)
			}
		}

		var logs []models.WasteLog
		if err := database.DB.Preload("StockItem").
			Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, from, to).
			Order("created_at DESC").
			Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Zayiat özeti hesaplanamadı")
		}

		// decimal toplamları SQL SUM yerine uygulamada hesaplanır
		type agg struct {
			count int64
			cost  decimal.Decimal
		}
		byReason := make(map[string]*agg)
		total := decimal.Zero
		for _, w := range logs {
			a, ok := byReason[string(w.Reason)]
			if !ok {
				a = &agg{}
				byReason[string(w.Reason)] = a
			}
			a.count++
			a.cost = a.cost.Add(w.Cost)
			total = total.Add(w.Cost)
		}

		resp := WasteSummaryResponse{
			From:      from.Format("2006-01-02"),
			To:        to.Format("2006-01-02"),
			TotalCost: total,
			ByReason:  make([]WasteSummaryRow, 0, len(byReason)),
			Recent:    []WasteLogResponse{},
		}
		for i := range logs {
			if i == wasteSummaryRecentLimit {
				break
			}
			resp.Recent = append(resp.Recent, toWasteLogResponse(&logs[i]))
		}
		for _, r := range []models.WasteReason{
			models.WasteExpired, models.WasteSpoiled, models.WasteDamaged,
			models.WasteOverproduction, models.WastePreparationWaste,
			models.WasteCustomerReturn, models.WasteOther,
		} {
			if a, ok := byReason[string(r)]; ok {
				resp.ByReason = append(resp.ByReason, WasteSummaryRow{
					Reason: string(r), Count: a.count, TotalCost: a.cost,
				})
			}
		}
		return c.JSON(resp)
	}
}
