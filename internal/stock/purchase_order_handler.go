package stock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseOrderItemRequest struct {
	StockItemID     uint    `json:"stock_item_id"`
	QuantityOrdered float64 `json:"quantity_ordered"`
	UnitPrice       float64 `json:"unit_price"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID   uint                       `json:"supplier_id"`
	Notes        string                     `json:"notes"`
	ExpectedDate string                     `json:"expected_date"` // YYYY-MM-DD
	Items        []PurchaseOrderItemRequest `json:"items"`
}

type ReceiveLineRequest struct {
	PurchaseOrderItemID uint    `json:"purchase_order_item_id"`
	QuantityReceived    float64 `json:"quantity_received"`
	BatchNumber         string  `json:"batch_number"`
	ExpiryDate          string  `json:"expiry_date"` // YYYY-MM-DD (opsiyonel)
}

type ReceivePurchaseOrderRequest struct {
	Lines []ReceiveLineRequest `json:"lines"`
}

type PurchaseOrderItemResponse struct {
	ID               uint            `json:"id"`
	StockItemID      uint            `json:"stock_item_id"`
	StockItemName    string          `json:"stock_item_name"`
	Unit             string          `json:"unit"`
	QuantityOrdered  decimal.Decimal `json:"quantity_ordered"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

type PurchaseOrderResponse struct {
	ID           uint                        `json:"id"`
	OrderNumber  string                      `json:"order_number"`
	SupplierID   uint                        `json:"supplier_id"`
	SupplierName string                      `json:"supplier_name"`
	Status       string                      `json:"status"`
	Notes        string                      `json:"notes"`
	ExpectedDate string                      `json:"expected_date,omitempty"`
	SubmittedAt  string                      `json:"submitted_at,omitempty"`
	ReceivedAt   string                      `json:"received_at,omitempty"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	Items        []PurchaseOrderItemResponse `json:"items"`
	CreatedAt    string                      `json:"created_at"`
}

func toPurchaseOrderResponse(po *models.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:          po.ID,
		OrderNumber: po.OrderNumber,
		SupplierID:  po.SupplierID,
		Status:      string(po.Status),
		Notes:       po.Notes,
		Items:       make([]PurchaseOrderItemResponse, 0, len(po.Items)),
		CreatedAt:   po.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if po.Supplier.ID != 0 {
		resp.SupplierName = po.Supplier.Name
	}
	if po.ExpectedDate != nil {
		resp.ExpectedDate = po.ExpectedDate.Format("2006-01-02")
	}
	if po.SubmittedAt != nil {
		resp.SubmittedAt = po.SubmittedAt.Format("2006-01-02 15:04:05")
	}
	if po.ReceivedAt != nil {
		resp.ReceivedAt = po.ReceivedAt.Format("2006-01-02 15:04:05")
	}
	total := decimal.Zero
	for _, it := range po.Items {
		lineTotal := it.QuantityOrdered.Mul(it.UnitPrice)
		total = total.Add(lineTotal)
		ir := PurchaseOrderItemResponse{
			ID:               it.ID,
			StockItemID:      it.StockItemID,
			QuantityOrdered:  it.QuantityOrdered,
			QuantityReceived: it.QuantityReceived,
			UnitPrice:        it.UnitPrice,
			LineTotal:        lineTotal,
		}
		if it.StockItem.ID != 0 {
			ir.StockItemName = it.StockItem.Name
			ir.Unit = string(it.StockItem.Unit)
		}
		resp.Items = append(resp.Items, ir)
	}
	resp.TotalAmount = total
	return resp
}

// generateOrderNumber - PREFIX-YYYYMMDDHHMMSS-XXXXXXXX biçiminde numara üretir.
// Tenant+numara üzerindeki unique index olası çakışmayı yakalar.
func generateOrderNumber(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102150405"), suffix)
}

func fetchPurchaseOrder(db *gorm.DB, tenantID uint, poID int) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := db.
		Preload("Supplier").
		Preload("Items.StockItem").
		First(&po, "id = ? AND tenant_id = ?", poID, tenantID).Error
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Satınalma siparişi bulunamadı")
	}
	return &po, nil
}

// POST /api/stock/purchase-orders
func CreatePurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var body CreatePurchaseOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Siparişte en az bir kalem olmalı")
		}

		var supplier models.Supplier
		if err := database.DB.First(&supplier, "id = ? AND tenant_id = ?", body.SupplierID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Tedarikçi bulunamadı")
		}

		items := make([]models.PurchaseOrderItem, 0, len(body.Items))
		seen := make(map[uint]bool, len(body.Items))
		for _, line := range body.Items {
			if line.QuantityOrdered <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "quantity_ordered pozitif olmalı")
			}
			if line.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "unit_price negatif olamaz")
			}
			if seen[line.StockItemID] {
				return fiber.NewError(fiber.StatusBadRequest, "Aynı stok kalemi siparişte iki kez geçemez")
			}
			seen[line.StockItemID] = true
			if _, err := fetchStockItem(database.DB, tenantID, line.StockItemID); err != nil {
				return err
			}
			items = append(items, models.PurchaseOrderItem{
				StockItemID:     line.StockItemID,
				QuantityOrdered: decimal.NewFromFloat(line.QuantityOrdered),
				UnitPrice:       decimal.NewFromFloat(line.UnitPrice),
			})
		}

		settings, err := GetSettings(database.DB, tenantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar okunamadı")
		}

		po := models.PurchaseOrder{
			TenantID:    tenantID,
			OrderNumber: generateOrderNumber(settings.PONumberPrefix),
			SupplierID:  supplier.ID,
			Status:      models.PurchaseOrderDraft,
			Notes:       body.Notes,
			Items:       items,
		}
		if body.ExpectedDate != "" {
			t, err := time.Parse("2006-01-02", body.ExpectedDate)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "expected_date biçimi YYYY-MM-DD olmalı")
			}
			po.ExpectedDate = &t
		}

		if err := database.DB.Create(&po).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Satınalma siparişi oluşturulamadı")
		}

		database.DB.Preload("Supplier").Preload("Items.StockItem").First(&po, po.ID)
		logger.Infow("satınalma siparişi oluşturuldu", "tenant_id", tenantID, "order_number", po.OrderNumber)
		return c.Status(fiber.StatusCreated).JSON(toPurchaseOrderResponse(&po))
	}
}

// GET /api/stock/purchase-orders
func ListPurchaseOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		query := database.DB.
			Preload("Supplier").
			Preload("Items.StockItem").
			Where("tenant_id = ?", tenantID)
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", strings.ToUpper(status))
		}
		if supplierStr := c.Query("supplier_id"); supplierStr != "" {
			if supplierID, err := strconv.Atoi(supplierStr); err == nil {
				query = query.Where("supplier_id = ?", supplierID)
			}
		}

		var orders []models.PurchaseOrder
		if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}

		resp := make([]PurchaseOrderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toPurchaseOrderResponse(&orders[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/stock/purchase-orders/:id
func GetPurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		poID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}
		po, err := fetchPurchaseOrder(database.DB, tenantID, poID)
		if err != nil {
			return err
		}
		return c.JSON(toPurchaseOrderResponse(po))
	}
}

// POST /api/stock/purchase-orders/:id/submit
// Sadece DRAFT gönderilebilir.
func SubmitPurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		poID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		po, err := fetchPurchaseOrder(database.DB, tenantID, poID)
		if err != nil {
			return err
		}
		if po.Status != models.PurchaseOrderDraft {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Sipariş %s durumunda, sadece DRAFT gönderilebilir", po.Status))
		}

		now := time.Now()
		po.Status = models.PurchaseOrderSubmitted
		po.SubmittedAt = &now
		if err := database.DB.Model(po).Updates(map[string]interface{}{
			"status":       models.PurchaseOrderSubmitted,
			"submitted_at": now,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş gönderilemedi")
		}
		return c.JSON(toPurchaseOrderResponse(po))
	}
}

// POST /api/stock/purchase-orders/:id/cancel
// Terminal durumlar (RECEIVED, CANCELLED) iptal edilemez.
// İptal, daha önce kabul edilmiş miktarları GERİ ALMAZ.
func CancelPurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		poID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		po, err := fetchPurchaseOrder(database.DB, tenantID, poID)
		if err != nil {
			return err
		}
		if po.Status == models.PurchaseOrderReceived || po.Status == models.PurchaseOrderCancelled {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Sipariş %s durumunda, iptal edilemez", po.Status))
		}

		po.Status = models.PurchaseOrderCancelled
		if err := database.DB.Model(po).UpdateColumn("status", models.PurchaseOrderCancelled).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Sipariş iptal edilemedi")
		}
		return c.JSON(toPurchaseOrderResponse(po))
	}
}

// POST /api/stock/purchase-orders/:id/receive
// Kısmi kabul desteklenir. Her satır için: quantity_received artırılır (sipariş
// edilen aşılamaz), stok artırılır, birim maliyet son alış fiyatıyla güncellenir,
// parti bilgisi verildiyse StockBatch oluşturulur ve PO_RECEIVE hareketi yazılır.
// Satırların toplamı sipariş durumunu belirler.
func ReceivePurchaseOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}
		poID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var body ReceivePurchaseOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if len(body.Lines) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "En az bir kabul satırı gerekli")
		}

		po, err := ReceivePurchaseOrder(database.DB, tenantID, uint(poID), body.Lines)
		if err != nil {
			return err
		}
		return c.JSON(toPurchaseOrderResponse(po))
	}
}

// ReceivePurchaseOrder mal kabulünü tek transaction içinde uygular.
// Stok artışları kalem id'sine göre artan sırada yazılır.
func ReceivePurchaseOrder(db *gorm.DB, tenantID, poID uint, lines []ReceiveLineRequest) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := db.Preload("Items").First(&po, "id = ? AND tenant_id = ?", poID, tenantID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Satınalma siparişi bulunamadı")
	}
	if po.Status != models.PurchaseOrderSubmitted && po.Status != models.PurchaseOrderPartiallyReceived {
		return nil, fiber.NewError(fiber.StatusConflict,
			fmt.Sprintf("Sipariş %s durumunda, mal kabulü yapılamaz", po.Status))
	}

	itemsByID := make(map[uint]*models.PurchaseOrderItem, len(po.Items))
	for i := range po.Items {
		itemsByID[po.Items[i].ID] = &po.Items[i]
	}

	type receipt struct {
		line   ReceiveLineRequest
		poItem *models.PurchaseOrderItem
		qty    decimal.Decimal
		expiry *time.Time
	}
	receipts := make([]receipt, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if line.QuantityReceived <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "quantity_received pozitif olmalı")
		}
		if seen[line.PurchaseOrderItemID] {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Aynı sipariş kalemi iki kez kabul edilemez")
		}
		seen[line.PurchaseOrderItemID] = true

		poItem, ok := itemsByID[line.PurchaseOrderItemID]
		if !ok {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Sipariş kalemi bulunamadı")
		}
		r := receipt{line: line, poItem: poItem, qty: decimal.NewFromFloat(line.QuantityReceived)}
		if line.ExpiryDate != "" {
			t, err := time.Parse("2006-01-02", line.ExpiryDate)
			if err != nil {
				return nil, fiber.NewError(fiber.StatusBadRequest, "expiry_date biçimi YYYY-MM-DD olmalı")
			}
			r.expiry = &t
		}
		receipts = append(receipts, r)
	}

	// Kilit sırası sabit: stok kalemi id'sine göre artan
	for i := 0; i < len(receipts); i++ {
		for j := i + 1; j < len(receipts); j++ {
			if receipts[j].poItem.StockItemID < receipts[i].poItem.StockItemID {
				receipts[i], receipts[j] = receipts[j], receipts[i]
			}
		}
	}

	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, r := range receipts {
			// Aşım kontrolü store tarafında: koşullu artış, etkilenen satır yoksa aşım var demektir
			res := tx.Model(&models.PurchaseOrderItem{}).
				Where("id = ? AND quantity_received + ? <= quantity_ordered", r.poItem.ID, r.qty).
				UpdateColumn("quantity_received", gorm.Expr("quantity_received + ?", r.qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fiber.NewError(fiber.StatusUnprocessableEntity,
					fmt.Sprintf("Kabul miktarı sipariş edileni aşıyor (kalem %d)", r.poItem.ID))
			}

			if _, err := applyStockDelta(tx, tenantID, r.poItem.StockItemID, r.qty); err != nil {
				return err
			}

			// Son alış fiyatı yeni birim maliyet olur
			if err := tx.Model(&models.StockItem{}).
				Where("id = ?", r.poItem.StockItemID).
				UpdateColumn("cost_per_unit", r.poItem.UnitPrice).Error; err != nil {
				return err
			}

			if r.line.BatchNumber != "" || r.expiry != nil {
				poItemID := r.poItem.ID
				batch := models.StockBatch{
					TenantID:            tenantID,
					StockItemID:         r.poItem.StockItemID,
					BatchNumber:         r.line.BatchNumber,
					Quantity:            r.qty,
					CostPerUnit:         r.poItem.UnitPrice,
					ReceivedAt:          now,
					ExpiryDate:          r.expiry,
					PurchaseOrderItemID: &poItemID,
				}
				if err := tx.Create(&batch).Error; err != nil {
					return err
				}
			}

			cost := r.poItem.UnitPrice
			if err := appendMovement(tx, &models.IngredientMovement{
				TenantID:      tenantID,
				StockItemID:   r.poItem.StockItemID,
				Type:          models.MovementPOReceive,
				Quantity:      r.qty,
				CostPerUnit:   &cost,
				Notes:         fmt.Sprintf("Mal kabul: %s", po.OrderNumber),
				ReferenceType: models.RefPurchaseOrder,
				ReferenceID:   strconv.FormatUint(uint64(po.ID), 10),
			}); err != nil {
				return err
			}
		}

		// Durumu güncel satırlardan yeniden hesapla
		var items []models.PurchaseOrderItem
		if err := tx.Where("purchase_order_id = ?", po.ID).Find(&items).Error; err != nil {
			return err
		}
		allReceived := true
		anyReceived := false
		for _, it := range items {
			if it.QuantityReceived.IsPositive() {
				anyReceived = true
			}
			if it.QuantityReceived.LessThan(it.QuantityOrdered) {
				allReceived = false
			}
		}

		updates := map[string]interface{}{}
		switch {
		case allReceived:
			updates["status"] = models.PurchaseOrderReceived
			updates["received_at"] = now
		case anyReceived:
			updates["status"] = models.PurchaseOrderPartiallyReceived
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.PurchaseOrder{}).Where("id = ?", po.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var result models.PurchaseOrder
	if err := db.Preload("Supplier").Preload("Items.StockItem").First(&result, po.ID).Error; err != nil {
		return nil, err
	}
	logger.Infow("mal kabulü yapıldı",
		"tenant_id", tenantID, "order_number", result.OrderNumber, "status", result.Status)
	return &result, nil
}
