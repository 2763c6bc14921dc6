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

type CreateMovementRequest struct {
	StockItemID uint    `json:"stock_item_id"`
	Type        string  `json:"type"`     // IN, OUT, ADJUSTMENT
	Quantity    float64 `json:"quantity"` // ADJUSTMENT için mutlak hedef, diğerlerinde pozitif miktar
	Notes       string  `json:"notes"`
}

type MovementResponse struct {
	ID            uint             `json:"id"`
	StockItemID   uint             `json:"stock_item_id"`
	StockItemName string           `json:"stock_item_name"`
	Unit          string           `json:"unit"`
	Type          string           `json:"type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	CostPerUnit   *decimal.Decimal `json:"cost_per_unit"`
	Notes         string           `json:"notes"`
	ReferenceType string           `json:"reference_type"`
	ReferenceID   string           `json:"reference_id"`
	CreatedAt     string           `json:"created_at"`
}

func toMovementResponse(m *models.IngredientMovement) MovementResponse {
	resp := MovementResponse{
		ID:            m.ID,
		StockItemID:   m.StockItemID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		CostPerUnit:   m.CostPerUnit,
		Notes:         m.Notes,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CreatedAt:     m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if m.StockItem.ID != 0 {
		resp.StockItemName = m.StockItem.Name
		resp.Unit = string(m.StockItem.Unit)
	}
	return resp
}

// GET /api/stock/movements
// Defter salt okunur dökülür; filtreler: stock_item_id, type, reference_type,
// reference_id, from, to. Sayfalama limit/offset ile.
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("StockItem").Where("tenant_id = ?", tenantID)
		if itemStr := c.Query("stock_item_id"); itemStr != "" {
			if itemID, err := strconv.Atoi(itemStr); err == nil {
				query = query.Where("stock_item_id = ?", itemID)
			}
		}
		if mtype := c.Query("type"); mtype != "" {
			query = query.Where("type = ?", mtype)
		}
		if refType := c.Query("reference_type"); refType != "" {
			query = query.Where("reference_type = ?", refType)
		}
		if refID := c.Query("reference_id"); refID != "" {
			query = query.Where("reference_id = ?", refID)
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

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		offset := c.QueryInt("offset", 0)
		if offset < 0 {
			offset = 0
		}

		var movements []models.IngredientMovement
		if err := query.
			Order("created_at DESC, id DESC").
			Limit(limit).Offset(offset).
			Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareketler listelenemedi")
		}

		resp := make([]MovementResponse, 0, len(movements))
		for i := range movements {
			resp = append(resp, toMovementResponse(&movements[i]))
		}
		return c.JSON(resp)
	}
}

// POST /api/stock/movements
// Elle hareket: IN stok ekler, OUT yetersizse reddeder, ADJUSTMENT stoku
// verilen mutlak değere çeker (defterdeki kayıt farktır).
func CreateMovementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var body CreateMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		mtype := models.MovementType(body.Type)
		if !models.ValidManualMovementType(mtype) {
			return fiber.NewError(fiber.StatusBadRequest, "Elle oluşturulabilen tipler: IN, OUT, ADJUSTMENT")
		}
		if mtype != models.MovementAdjustment && body.Quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity pozitif olmalı")
		}
		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity negatif olamaz")
		}

		item, err := fetchStockItem(database.DB, tenantID, body.StockItemID)
		if err != nil {
			return err
		}

		qty := decimal.NewFromFloat(body.Quantity)
		var movement models.IngredientMovement

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var ledgerQty decimal.Decimal

			switch mtype {
			case models.MovementIn:
				if _, err := applyStockDelta(tx, tenantID, item.ID, qty); err != nil {
					return err
				}
				ledgerQty = qty

			case models.MovementOut:
				_, insufficient, err := applyGuardedDecrement(tx, tenantID, item.ID, qty)
				if err != nil {
					return err
				}
				if insufficient {
					return fiber.NewError(fiber.StatusUnprocessableEntity,
						"Yetersiz stok: çıkış mevcut stoktan fazla olamaz")
				}
				ledgerQty = qty.Neg()

			case models.MovementAdjustment:
				// Mutlak hedefe çekilir; defter kaydı fark kadardır
				var current models.StockItem
				if err := tx.Select("current_stock").First(&current, "id = ?", item.ID).Error; err != nil {
					return err
				}
				delta := qty.Sub(current.CurrentStock)
				if !delta.IsZero() {
					if _, err := applyStockDelta(tx, tenantID, item.ID, delta); err != nil {
						return err
					}
				}
				ledgerQty = delta
			}

			cost := item.CostPerUnit
			movement = models.IngredientMovement{
				TenantID:      tenantID,
				StockItemID:   item.ID,
				Type:          mtype,
				Quantity:      ledgerQty,
				CostPerUnit:   &cost,
				Notes:         body.Notes,
				ReferenceType: models.RefManual,
				ReferenceID:   "",
			}
			return appendMovement(tx, &movement)
		})
		if err != nil {
			return err
		}

		database.DB.Preload("StockItem").First(&movement, movement.ID)
		return c.Status(fiber.StatusCreated).JSON(toMovementResponse(&movement))
	}
}

type MovementSummaryRow struct {
	Type     string          `json:"type"`
	Count    int64           `json:"count"`
	TotalIn  decimal.Decimal `json:"total_in"`
	TotalOut decimal.Decimal `json:"total_out"`
}

// GET /api/stock/movements/summary?from=&to=
func MovementSummaryHandler() fiber.Handler {
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

		var movements []models.IngredientMovement
		if err := database.DB.
			Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, from, to).
			Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Hareket özeti hesaplanamadı")
		}

		byType := make(map[string]*MovementSummaryRow)
		for _, m := range movements {
			row, ok := byType[string(m.Type)]
			if !ok {
				row = &MovementSummaryRow{Type: string(m.Type)}
				byType[string(m.Type)] = row
			}
			row.Count++
			if m.Quantity.IsNegative() {
				row.TotalOut = row.TotalOut.Add(m.Quantity.Abs())
			} else {
				row.TotalIn = row.TotalIn.Add(m.Quantity)
			}
		}

		resp := make([]MovementSummaryRow, 0, len(byType))
		for _, t := range []models.MovementType{
			models.MovementIn, models.MovementOut, models.MovementAdjustment,
			models.MovementOrderDeduction, models.MovementCountAdjustment,
			models.MovementPOReceive, models.MovementWaste,
		} {
			if row, ok := byType[string(t)]; ok {
				resp = append(resp, *row)
			}
		}
		return c.JSON(resp)
	}
}
