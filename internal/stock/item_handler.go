package stock

import (
	"fmt"
	"strconv"
	"strings"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateStockItemRequest struct {
	Name         string   `json:"name"`
	SKU          string   `json:"sku"`
	Unit         string   `json:"unit"`
	Description  string   `json:"description"`
	CurrentStock *float64 `json:"current_stock"` // Açılış stoku (opsiyonel)
	MinStock     *float64 `json:"min_stock"`
	CostPerUnit  *float64 `json:"cost_per_unit"`
	TrackExpiry  bool     `json:"track_expiry"`
	CategoryID   *uint    `json:"category_id"`
}

type UpdateStockItemRequest struct {
	Name        *string  `json:"name"`
	SKU         *string  `json:"sku"`
	Unit        *string  `json:"unit"`
	Description *string  `json:"description"`
	MinStock    *float64 `json:"min_stock"`
	CostPerUnit *float64 `json:"cost_per_unit"`
	TrackExpiry *bool    `json:"track_expiry"`
	IsActive    *bool    `json:"is_active"`
	CategoryID  *uint    `json:"category_id"`
}

type StockItemResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Unit         string          `json:"unit"`
	Description  string          `json:"description"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	TrackExpiry  bool            `json:"track_expiry"`
	IsActive     bool            `json:"is_active"`
	CategoryID   *uint           `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type StockBatchResponse struct {
	ID          uint            `json:"id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
	ReceivedAt  string          `json:"received_at"`
	ExpiryDate  string          `json:"expiry_date,omitempty"`
}

type StockItemDetailResponse struct {
	StockItemResponse
	Batches   []StockBatchResponse        `json:"batches"`
	PriceList []SupplierStockItemResponse `json:"price_list"`
}

func toStockItemResponse(item *models.StockItem) StockItemResponse {
	resp := StockItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		SKU:          item.SKU,
		Unit:         string(item.Unit),
		Description:  item.Description,
		CurrentStock: item.CurrentStock,
		MinStock:     item.MinStock,
		CostPerUnit:  item.CostPerUnit,
		TrackExpiry:  item.TrackExpiry,
		IsActive:     item.IsActive,
		CategoryID:   item.CategoryID,
		CreatedAt:    item.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if item.Category != nil {
		resp.CategoryName = item.Category.Name
	}
	return resp
}

func validStockUnit(u string) bool {
	switch models.StockUnit(u) {
	case models.UnitKG, models.UnitG, models.UnitL, models.UnitML, models.UnitPCS,
		models.UnitBox, models.UnitBag, models.UnitCan, models.UnitBottle,
		models.UnitBunch, models.UnitSlice, models.UnitPortion:
		return true
	}
	return false
}

// POST /api/stock/items
func CreateStockItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var body CreateStockItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunludur")
		}
		if !validStockUnit(body.Unit) {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ölçü birimi: "+body.Unit)
		}

		// Kategori kontrolü (tenant'a ait olmalı)
		if body.CategoryID != nil {
			var cat models.StockItemCategory
			if err := database.DB.First(&cat, "id = ? AND tenant_id = ?", *body.CategoryID, tenantID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
		}

		opening := decimal.Zero
		if body.CurrentStock != nil {
			opening = decimal.NewFromFloat(*body.CurrentStock)
			if opening.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "current_stock negatif olamaz")
			}
		}
		minStock := decimal.Zero
		if body.MinStock != nil {
			minStock = decimal.NewFromFloat(*body.MinStock)
		}
		costPerUnit := decimal.Zero
		if body.CostPerUnit != nil {
			costPerUnit = decimal.NewFromFloat(*body.CostPerUnit)
		}

		item := models.StockItem{
			TenantID:     tenantID,
			Name:         strings.TrimSpace(body.Name),
			SKU:          strings.TrimSpace(body.SKU),
			Unit:         models.StockUnit(body.Unit),
			Description:  body.Description,
			CurrentStock: opening,
			MinStock:     minStock,
			CostPerUnit:  costPerUnit,
			TrackExpiry:  body.TrackExpiry,
			IsActive:     true,
			CategoryID:   body.CategoryID,
		}

		// Açılış stoku da defterde görünsün: kalem + IN hareketi tek transaction
		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}

		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi oluşturulamadı")
		}

		if opening.IsPositive() {
			cost := costPerUnit
			if err := appendMovement(tx, &models.IngredientMovement{
				TenantID:      tenantID,
				StockItemID:   item.ID,
				Type:          models.MovementIn,
				Quantity:      opening,
				CostPerUnit:   &cost,
				Notes:         "Açılış stoku",
				ReferenceType: models.RefManual,
				ReferenceID:   strconv.FormatUint(uint64(item.ID), 10),
			}); err != nil {
				tx.Rollback()
				return fiber.NewError(fiber.StatusInternalServerError, "Stok hareketi kaydedilemedi")
			}
		}

		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(toStockItemResponse(&item))
	}
}

// PATCH /api/stock/items/:id
// CurrentStock burada değiştirilemez; onu sadece iş akışı bileşenleri yazar.
func UpdateStockItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		itemID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		item, err := fetchStockItem(database.DB, tenantID, uint(itemID))
		if err != nil {
			return err
		}

		var body UpdateStockItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		if body.Name != nil {
			if strings.TrimSpace(*body.Name) == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			item.Name = strings.TrimSpace(*body.Name)
		}
		if body.SKU != nil {
			item.SKU = strings.TrimSpace(*body.SKU)
		}
		if body.Unit != nil {
			if !validStockUnit(*body.Unit) {
				return fiber.NewError(fiber.StatusBadRequest, "Geçersiz ölçü birimi: "+*body.Unit)
			}
			item.Unit = models.StockUnit(*body.Unit)
		}
		if body.Description != nil {
			item.Description = *body.Description
		}
		if body.MinStock != nil {
			item.MinStock = decimal.NewFromFloat(*body.MinStock)
		}
		if body.CostPerUnit != nil {
			item.CostPerUnit = decimal.NewFromFloat(*body.CostPerUnit)
		}
		if body.TrackExpiry != nil {
			item.TrackExpiry = *body.TrackExpiry
		}
		if body.IsActive != nil {
			item.IsActive = *body.IsActive
		}
		if body.CategoryID != nil {
			var cat models.StockItemCategory
			if err := database.DB.First(&cat, "id = ? AND tenant_id = ?", *body.CategoryID, tenantID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Kategori bulunamadı")
			}
			item.CategoryID = body.CategoryID
		}

		if err := database.DB.Save(item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi güncellenemedi")
		}

		return c.JSON(toStockItemResponse(item))
	}
}

// DELETE /api/stock/items/:id
// Reçete veya hareket referansı varsa silinmez, pasife çekilir.
func DeleteStockItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		itemID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		item, err := fetchStockItem(database.DB, tenantID, uint(itemID))
		if err != nil {
			return err
		}

		var recipeRefs int64
		database.DB.Model(&models.RecipeIngredient{}).Where("stock_item_id = ?", item.ID).Count(&recipeRefs)
		var movementRefs int64
		database.DB.Model(&models.IngredientMovement{}).Where("stock_item_id = ?", item.ID).Count(&movementRefs)

		if recipeRefs > 0 || movementRefs > 0 {
			if err := database.DB.Model(item).UpdateColumn("is_active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi pasife çekilemedi")
			}
			return c.JSON(fiber.Map{
				"message": fmt.Sprintf("Stok kalemi referanslı olduğu için pasife çekildi (%d reçete, %d hareket)", recipeRefs, movementRefs),
			})
		}

		if err := database.DB.Delete(item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemi silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Stok kalemi silindi"})
	}
}

// GET /api/stock/items
func ListStockItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		query := database.DB.Preload("Category").Where("tenant_id = ?", tenantID)

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			like := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
		}
		if catStr := c.Query("category_id"); catStr != "" {
			if catID, err := strconv.Atoi(catStr); err == nil {
				query = query.Where("category_id = ?", catID)
			}
		}
		if activeStr := c.Query("is_active"); activeStr != "" {
			if active, err := strconv.ParseBool(activeStr); err == nil {
				query = query.Where("is_active = ?", active)
			}
		}

		sortBy := c.Query("sort_by", "name")
		switch sortBy {
		case "name", "current_stock", "min_stock", "cost_per_unit", "created_at":
		default:
			sortBy = "name"
		}
		sortOrder := "ASC"
		if strings.EqualFold(c.Query("sort_order"), "desc") {
			sortOrder = "DESC"
		}

		var items []models.StockItem
		if err := query.Order(sortBy + " " + sortOrder).Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok kalemleri listelenemedi")
		}

		resp := make([]StockItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toStockItemResponse(&items[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/stock/items/:id
// Tükenmemiş partiler en yakın SKT önce gelecek şekilde, fiyat listesiyle birlikte döner.
func GetStockItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		itemID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var item models.StockItem
		err = database.DB.
			Preload("Category").
			Preload("Batches", func(db *gorm.DB) *gorm.DB {
				return db.Where("quantity > 0").Order("expiry_date ASC NULLS LAST")
			}).
			Preload("SupplierStockItems.Supplier").
			First(&item, "id = ? AND tenant_id = ?", itemID, tenantID).Error
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
		}

		detail := StockItemDetailResponse{
			StockItemResponse: toStockItemResponse(&item),
			Batches:           make([]StockBatchResponse, 0, len(item.Batches)),
			PriceList:         make([]SupplierStockItemResponse, 0, len(item.SupplierStockItems)),
		}
		for _, b := range item.Batches {
			detail.Batches = append(detail.Batches, toStockBatchResponse(&b))
		}
		for _, s := range item.SupplierStockItems {
			detail.PriceList = append(detail.PriceList, toSupplierStockItemResponse(&s))
		}

		return c.JSON(detail)
	}
}

func toStockBatchResponse(b *models.StockBatch) StockBatchResponse {
	resp := StockBatchResponse{
		ID:          b.ID,
		BatchNumber: b.BatchNumber,
		Quantity:    b.Quantity,
		CostPerUnit: b.CostPerUnit,
		ReceivedAt:  b.ReceivedAt.Format("2006-01-02"),
	}
	if b.ExpiryDate != nil {
		resp.ExpiryDate = b.ExpiryDate.Format("2006-01-02")
	}
	return resp
}

// GET /api/stock/items/low-stock
func LowStockItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		items, err := LowStockItems(database.DB, tenantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Düşük stok sorgusu başarısız")
		}

		resp := make([]StockItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, toStockItemResponse(&items[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/stock/items/expiring-soon?days=3
func ExpiringSoonHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		days := 0
		if daysStr := c.Query("days"); daysStr != "" {
			if n, err := strconv.Atoi(daysStr); err == nil && n > 0 {
				days = n
			}
		}
		if days == 0 {
			settings, err := GetSettings(database.DB, tenantID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar okunamadı")
			}
			days = settings.LowStockAlertDays
		}

		batches, err := ExpiringBatches(database.DB, tenantID, days)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "SKT sorgusu başarısız")
		}

		type expiringBatchResponse struct {
			StockBatchResponse
			StockItemID   uint   `json:"stock_item_id"`
			StockItemName string `json:"stock_item_name"`
			Unit          string `json:"unit"`
		}
		resp := make([]expiringBatchResponse, 0, len(batches))
		for i := range batches {
			resp = append(resp, expiringBatchResponse{
				StockBatchResponse: toStockBatchResponse(&batches[i]),
				StockItemID:        batches[i].StockItemID,
				StockItemName:      batches[i].StockItem.Name,
				Unit:               string(batches[i].StockItem.Unit),
			})
		}
		return c.JSON(resp)
	}
}
