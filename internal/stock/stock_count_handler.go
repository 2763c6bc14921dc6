package stock

import (
	"fmt"
	"strconv"
	"time"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateStockCountRequest struct {
	Name         string `json:"name"`
	Notes        string `json:"notes"`
	CategoryID   *uint  `json:"category_id"`    // Verilirse sadece o kategorinin kalemleri sayılır
	StockItemIDs []uint `json:"stock_item_ids"` // Verilirse sadece bu kalemler sayılır
}

type CountItemRequest struct {
	CountedQty float64 `json:"counted_qty"`
}

type StockCountItemResponse struct {
	ID            uint             `json:"id"`
	StockItemID   uint             `json:"stock_item_id"`
	StockItemName string           `json:"stock_item_name"`
	Unit          string           `json:"unit"`
	ExpectedQty   decimal.Decimal  `json:"expected_qty"`
	CountedQty    *decimal.Decimal `json:"counted_qty"`
	Variance      *decimal.Decimal `json:"variance"`
}

type StockCountResponse struct {
	ID          uint                     `json:"id"`
	Name        string                   `json:"name"`
	Status      string                   `json:"status"`
	Notes       string                   `json:"notes"`
	CompletedAt string                   `json:"completed_at,omitempty"`
	Items       []StockCountItemResponse `json:"items"`
	CreatedAt   string                   `json:"created_at"`
}

func toStockCountResponse(sc *models.StockCount) StockCountResponse {
	resp := StockCountResponse{
		ID:        sc.ID,
		Name:      sc.Name,
		Status:    string(sc.Status),
		Notes:     sc.Notes,
		Items:     make([]StockCountItemResponse, 0, len(sc.Items)),
		CreatedAt: sc.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if sc.CompletedAt != nil {
		resp.CompletedAt = sc.CompletedAt.Format("2006-01-02 15:04:05")
	}
	for _, it := range sc.Items {
		ir := StockCountItemResponse{
			ID:          it.ID,
			StockItemID: it.StockItemID,
			ExpectedQty: it.ExpectedQty,
			CountedQty:  it.CountedQty,
			Variance:    it.Variance,
		}
		if it.StockItem.ID != 0 {
			ir.StockItemName = it.StockItem.Name
			ir.Unit = string(it.StockItem.Unit)
		}
		resp.Items = append(resp.Items, ir)
	}
	return resp
}

func fetchStockCount(db *gorm.DB, tenantID uint, countID int) (*models.StockCount, error) {
	var sc models.StockCount
	err := db.Preload("Items.StockItem").First(&sc, "id = ? AND tenant_id = ?", countID, tenantID).Error
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Sayım bulunamadı")
	}
	return &sc, nil
}

// POST /api/stock/counts
// Sayım açılırken seçili kalemlerin CurrentStock anlık görüntüsü beklenen
// miktar olarak dondurulur.
func CreateStockCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var body CreateStockCountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		query := database.DB.Where("tenant_id = ? AND is_active = ?", tenantID, true)
		if body.CategoryID != nil {
			query = query.Where("category_id = ?", *body.CategoryID)
		}
		if len(body.StockItemIDs) > 0 {
			query = query.Where("id IN ?", body.StockItemIDs)
		}

		var items []models.StockItem
		if err := query.Order("id ASC").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemleri okunamadı")
		}
		if len(items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Sayılacak kalem yok")
		}

		name := body.Name
		if name == "" {
			name = "Sayım " + time.Now().Format("2006-01-02")
		}

		sc := models.StockCount{
			TenantID: tenantID,
			Name:     name,
			Status:   models.StockCountInProgress,
			Notes:    body.Notes,
			Items:    make([]models.StockCountItem, 0, len(items)),
		}
		for _, it := range items {
			sc.Items = append(sc.Items, models.StockCountItem{
				StockItemID: it.ID,
				ExpectedQty: it.CurrentStock,
			})
		}

		if err := database.DB.Create(&sc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayım oluşturulamadı")
		}

		database.DB.Preload("Items.StockItem").First(&sc, sc.ID)
		return c.Status(fiber.StatusCreated).JSON(toStockCountResponse(&sc))
	}
}

// GET /api/stock/counts
func ListStockCountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("Items.StockItem").Where("tenant_id = ?", tenantID)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}

		var counts []models.StockCount
		if err := query.Order("created_at DESC").Find(&counts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayımlar listelenemedi")
		}

		resp := make([]StockCountResponse, 0, len(counts))
		for i := range counts {
			resp = append(resp, toStockCountResponse(&counts[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/stock/counts/:id
func GetStockCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		countID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}
		sc, err := fetchStockCount(database.DB, tenantID, countID)
		if err != nil {
			return err
		}
		return c.JSON(toStockCountResponse(sc))
	}
}

// PATCH /api/stock/counts/:id/items/:itemId
// Sayılan miktar girilir; fark o an hesaplanıp satıra yazılır. Stok DEĞİŞMEZ.
func UpdateCountItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		countID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}
		rowID, err := c.ParamsInt("itemId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz itemId")
		}

		sc, err := fetchStockCount(database.DB, tenantID, countID)
		if err != nil {
			return err
		}
		if sc.Status != models.StockCountInProgress {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Sayım %s durumunda, satır güncellenemez", sc.Status))
		}

		var body CountItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.CountedQty < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "counted_qty negatif olamaz")
		}

		var row models.StockCountItem
		if err := database.DB.First(&row, "id = ? AND stock_count_id = ?", rowID, sc.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Sayım satırı bulunamadı")
		}

		counted := decimal.NewFromFloat(body.CountedQty)
		variance := counted.Sub(row.ExpectedQty)
		row.CountedQty = &counted
		row.Variance = &variance
		if err := database.DB.Save(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayım satırı güncellenemedi")
		}

		database.DB.Preload("StockItem").First(&row, row.ID)
		return c.JSON(StockCountItemResponse{
			ID:            row.ID,
			StockItemID:   row.StockItemID,
			StockItemName: row.StockItem.Name,
			Unit:          string(row.StockItem.Unit),
			ExpectedQty:   row.ExpectedQty,
			CountedQty:    row.CountedQty,
			Variance:      row.Variance,
		})
	}
}

// POST /api/stock/counts/:id/finalize
func FinalizeStockCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		countID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		sc, err := FinalizeStockCount(database.DB, tenantID, uint(countID))
		if err != nil {
			return err
		}
		return c.JSON(toStockCountResponse(sc))
	}
}

// FinalizeStockCount sayımı kapatır. Tüm satırlar sayılmış olmalı: sayılmamış
// satır varken kapatma HİÇBİR ŞEY değiştirmeden reddedilir. Farkı sıfır
// olmayan her satır için stok sayılan değere çekilir ve fark COUNT_ADJUSTMENT
// olarak deftere yazılır; farksız satırlar hareket üretmez. Tek transaction,
// kalem id'sine göre artan sırada.
func FinalizeStockCount(db *gorm.DB, tenantID, countID uint) (*models.StockCount, error) {
	var sc models.StockCount
	if err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("stock_item_id ASC")
	}).First(&sc, "id = ? AND tenant_id = ?", countID, tenantID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Sayım bulunamadı")
	}
	if sc.Status != models.StockCountInProgress {
		return nil, fiber.NewError(fiber.StatusConflict,
			fmt.Sprintf("Sayım %s durumunda, kapatılamaz", sc.Status))
	}

	var uncounted int
	for _, row := range sc.Items {
		if row.CountedQty == nil {
			uncounted++
		}
	}
	if uncounted > 0 {
		return nil, fiber.NewError(fiber.StatusUnprocessableEntity,
			fmt.Sprintf("Sayım kapatılamaz: %d kalem henüz sayılmadı", uncounted))
	}

	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, row := range sc.Items {
			if row.Variance == nil || row.Variance.IsZero() {
				continue
			}

			// Stok, sayım anındaki beklenen değere göre değil MUTLAK sayılan
			// değere çekilir; fark hareketi sayım satırındaki farktır.
			var current models.StockItem
			if err := tx.Select("current_stock").First(&current, "id = ?", row.StockItemID).Error; err != nil {
				return err
			}
			delta := row.CountedQty.Sub(current.CurrentStock)
			if !delta.IsZero() {
				if _, err := applyStockDelta(tx, tenantID, row.StockItemID, delta); err != nil {
					return err
				}
			}

			if err := appendMovement(tx, &models.IngredientMovement{
				TenantID:      tenantID,
				StockItemID:   row.StockItemID,
				Type:          models.MovementCountAdjustment,
				Quantity:      *row.Variance,
				Notes:         fmt.Sprintf("Sayım düzeltmesi: %s", sc.Name),
				ReferenceType: models.RefStockCount,
				ReferenceID:   strconv.FormatUint(uint64(sc.ID), 10),
			}); err != nil {
				return err
			}
		}

		return tx.Model(&models.StockCount{}).Where("id = ?", sc.ID).Updates(map[string]interface{}{
			"status":       models.StockCountCompleted,
			"completed_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	var result models.StockCount
	if err := db.Preload("Items.StockItem").First(&result, sc.ID).Error; err != nil {
		return nil, err
	}
	logger.Infow("sayım kapatıldı", "tenant_id", tenantID, "count_id", sc.ID)
	return &result, nil
}

// POST /api/stock/counts/:id/cancel
func CancelStockCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		countID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		sc, err := fetchStockCount(database.DB, tenantID, countID)
		if err != nil {
			return err
		}
		if sc.Status != models.StockCountInProgress {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Sayım %s durumunda, iptal edilemez", sc.Status))
		}

		sc.Status = models.StockCountCancelled
		if err := database.DB.Model(sc).UpdateColumn("status", models.StockCountCancelled).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sayım iptal edilemedi")
		}
		return c.JSON(toStockCountResponse(sc))
	}
}
