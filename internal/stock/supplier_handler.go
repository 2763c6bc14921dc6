package stock

import (
	"strings"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SupplierRequest struct {
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	PaymentTerms string `json:"payment_terms"`
	Notes        string `json:"notes"`
	IsActive     *bool  `json:"is_active"`
}

type SupplierResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ContactName  string `json:"contact_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	PaymentTerms string `json:"payment_terms"`
	Notes        string `json:"notes"`
	IsActive     bool   `json:"is_active"`
}

type SupplierStockItemRequest struct {
	StockItemID uint    `json:"stock_item_id"`
	SupplierSKU string  `json:"supplier_sku"`
	UnitPrice   float64 `json:"unit_price"`
	IsPreferred bool    `json:"is_preferred"`
}

type SupplierStockItemResponse struct {
	ID            uint            `json:"id"`
	SupplierID    uint            `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	StockItemID   uint            `json:"stock_item_id"`
	StockItemName string          `json:"stock_item_name,omitempty"`
	SupplierSKU   string          `json:"supplier_sku"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IsPreferred   bool            `json:"is_preferred"`
}

func toSupplierResponse(s *models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:           s.ID,
		Name:         s.Name,
		ContactName:  s.ContactName,
		Email:        s.Email,
		Phone:        s.Phone,
		Address:      s.Address,
		PaymentTerms: s.PaymentTerms,
		Notes:        s.Notes,
		IsActive:     s.IsActive,
	}
}

func toSupplierStockItemResponse(s *models.SupplierStockItem) SupplierStockItemResponse {
	resp := SupplierStockItemResponse{
		ID:          s.ID,
		SupplierID:  s.SupplierID,
		StockItemID: s.StockItemID,
		SupplierSKU: s.SupplierSKU,
		UnitPrice:   s.UnitPrice,
		IsPreferred: s.IsPreferred,
	}
	if s.Supplier.ID != 0 {
		resp.SupplierName = s.Supplier.Name
	}
	if s.StockItem.ID != 0 {
		resp.StockItemName = s.StockItem.Name
	}
	return resp
}

// POST /api/stock/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunludur")
		}

		supplier := models.Supplier{
			TenantID:     tenantID,
			Name:         strings.TrimSpace(body.Name),
			ContactName:  body.ContactName,
			Email:        body.Email,
			Phone:        body.Phone,
			Address:      body.Address,
			PaymentTerms: body.PaymentTerms,
			Notes:        body.Notes,
			IsActive:     true,
		}
		if err := database.DB.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi oluşturulamadı")
		}
		return c.Status(fiber.StatusCreated).JSON(toSupplierResponse(&supplier))
	}
}

// GET /api/stock/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		query := database.DB.Where("tenant_id = ?", tenantID)
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
		}

		var suppliers []models.Supplier
		if err := query.Order("name ASC").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçiler listelenemedi")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for i := range suppliers {
			resp = append(resp, toSupplierResponse(&suppliers[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/stock/suppliers/:id
func GetSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		supplierID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var supplier models.Supplier
		if err := database.DB.
			Preload("SupplierStockItems.StockItem").
			First(&supplier, "id = ? AND tenant_id = ?", supplierID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		type supplierDetail struct {
			SupplierResponse
			PriceList []SupplierStockItemResponse `json:"price_list"`
		}
		detail := supplierDetail{
			SupplierResponse: toSupplierResponse(&supplier),
			PriceList:        make([]SupplierStockItemResponse, 0, len(supplier.SupplierStockItems)),
		}
		for i := range supplier.SupplierStockItems {
			detail.PriceList = append(detail.PriceList, toSupplierStockItemResponse(&supplier.SupplierStockItems[i]))
		}
		return c.JSON(detail)
	}
}

// PATCH /api/stock/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		supplierID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ? AND tenant_id = ?", supplierID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if strings.TrimSpace(body.Name) != "" {
			supplier.Name = strings.TrimSpace(body.Name)
		}
		supplier.ContactName = body.ContactName
		supplier.Email = body.Email
		supplier.Phone = body.Phone
		supplier.Address = body.Address
		supplier.PaymentTerms = body.PaymentTerms
		supplier.Notes = body.Notes
		if body.IsActive != nil {
			supplier.IsActive = *body.IsActive
		}

		if err := database.DB.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi güncellenemedi")
		}
		return c.JSON(toSupplierResponse(&supplier))
	}
}

// DELETE /api/stock/suppliers/:id
// Açık siparişi olan tedarikçi silinmez, pasife çekilir.
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		supplierID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ? AND tenant_id = ?", supplierID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		var openOrders int64
		database.DB.Model(&models.PurchaseOrder{}).
			Where("supplier_id = ? AND status NOT IN ?", supplier.ID,
				[]models.PurchaseOrderStatus{models.PurchaseOrderReceived, models.PurchaseOrderCancelled}).
			Count(&openOrders)
		if openOrders > 0 {
			if err := database.DB.Model(&supplier).UpdateColumn("is_active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi pasife çekilemedi")
			}
			return c.JSON(fiber.Map{"message": "Tedarikçinin açık siparişleri olduğu için pasife çekildi"})
		}

		if err := database.DB.Select("SupplierStockItems").Delete(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Tedarikçi silinemedi")
		}
		return c.JSON(fiber.Map{"message": "Tedarikçi silindi"})
	}
}

// POST /api/stock/suppliers/:id/items
// Fiyat listesine kalem ekler veya mevcut satırı günceller; stok etkisi yoktur.
func UpsertSupplierItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		supplierID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ? AND tenant_id = ?", supplierID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		var body SupplierStockItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.UnitPrice < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "unit_price negatif olamaz")
		}

		if _, err := fetchStockItem(database.DB, tenantID, body.StockItemID); err != nil {
			return err
		}

		var row models.SupplierStockItem
		err = database.DB.
			Where("supplier_id = ? AND stock_item_id = ?", supplier.ID, body.StockItemID).
			First(&row).Error
		if err == nil {
			row.SupplierSKU = body.SupplierSKU
			row.UnitPrice = decimal.NewFromFloat(body.UnitPrice)
			row.IsPreferred = body.IsPreferred
			if err := database.DB.Save(&row).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Fiyat listesi güncellenemedi")
			}
			return c.JSON(toSupplierStockItemResponse(&row))
		}

		row = models.SupplierStockItem{
			SupplierID:  supplier.ID,
			StockItemID: body.StockItemID,
			SupplierSKU: body.SupplierSKU,
			UnitPrice:   decimal.NewFromFloat(body.UnitPrice),
			IsPreferred: body.IsPreferred,
		}
		if err := database.DB.Create(&row).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat listesine eklenemedi")
		}
		return c.Status(fiber.StatusCreated).JSON(toSupplierStockItemResponse(&row))
	}
}

// DELETE /api/stock/suppliers/:id/items/:itemId
func RemoveSupplierItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		supplierID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}
		rowID, err := c.ParamsInt("itemId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz itemId")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ? AND tenant_id = ?", supplierID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Tedarikçi bulunamadı")
		}

		result := database.DB.Where("id = ? AND supplier_id = ?", rowID, supplier.ID).Delete(&models.SupplierStockItem{})
		if result.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fiyat listesi satırı silinemedi")
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusNotFound, "Fiyat listesi satırı bulunamadı")
		}
		return c.JSON(fiber.Map{"message": "Fiyat listesi satırı silindi"})
	}
}
