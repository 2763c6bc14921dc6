package stock

import (
	"strings"
	"testing"

	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func seedPurchaseOrder(t *testing.T, db *gorm.DB, status models.PurchaseOrderStatus, itemID uint, ordered, price string) *models.PurchaseOrder {
	t.Helper()
	supplier := models.Supplier{TenantID: testTenant, Name: "Toptancı", IsActive: true}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("tedarikçi oluşturulamadı: %v", err)
	}
	po := models.PurchaseOrder{
		TenantID:    testTenant,
		OrderNumber: generateOrderNumber("PO"),
		SupplierID:  supplier.ID,
		Status:      status,
		Items: []models.PurchaseOrderItem{{
			StockItemID:     itemID,
			QuantityOrdered: dec(ordered),
			UnitPrice:       dec(price),
		}},
	}
	if err := db.Create(&po).Error; err != nil {
		t.Fatalf("sipariş oluşturulamadı: %v", err)
	}
	return &po
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	n := generateOrderNumber("PO")
	parts := strings.Split(n, "-")
	if len(parts) != 3 {
		t.Fatalf("PREFIX-TARIH-EK biçimi bekleniyordu: %q", n)
	}
	if parts[0] != "PO" {
		t.Errorf("önek PO olmalı: %q", parts[0])
	}
	if len(parts[1]) != 14 {
		t.Errorf("tarih bölümü 14 hane olmalı: %q", parts[1])
	}
	if len(parts[2]) != 8 {
		t.Errorf("rastgele ek 8 karakter olmalı: %q", parts[2])
	}
	if generateOrderNumber("PO") == n {
		t.Error("ardışık numaralar farklı olmalı")
	}
}

func TestReceivePartialThenComplete(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Peynir", "10", "5", "40")
	po := seedPurchaseOrder(t, db, models.PurchaseOrderSubmitted, item.ID, "50", "45")

	// İlk kabul: 20 -> PARTIALLY_RECEIVED
	result, err := ReceivePurchaseOrder(db, testTenant, po.ID, []ReceiveLineRequest{
		{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: 20},
	})
	if err != nil {
		t.Fatalf("kabul başarısız: %v", err)
	}
	if result.Status != models.PurchaseOrderPartiallyReceived {
		t.Errorf("durum PARTIALLY_RECEIVED olmalı: %s", result.Status)
	}
	assertDecimal(t, currentStockOf(t, db, item.ID), "30", "kısmi kabul sonrası stok")
	assertDecimal(t, result.Items[0].QuantityReceived, "20", "kabul edilen miktar")

	// Son alış fiyatı birim maliyeti günceller
	var updated models.StockItem
	db.First(&updated, item.ID)
	assertDecimal(t, updated.CostPerUnit, "45", "son maliyet")

	// İkinci kabul: 30 -> RECEIVED
	result, err = ReceivePurchaseOrder(db, testTenant, po.ID, []ReceiveLineRequest{
		{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: 30},
	})
	if err != nil {
		t.Fatalf("ikinci kabul başarısız: %v", err)
	}
	if result.Status != models.PurchaseOrderReceived {
		t.Errorf("durum RECEIVED olmalı: %s", result.Status)
	}
	if result.ReceivedAt == nil {
		t.Error("receivedAt doldurulmalı")
	}
	assertDecimal(t, currentStockOf(t, db, item.ID), "60", "tam kabul sonrası stok")

	movements := movementsFor(t, db, item.ID, models.MovementPOReceive)
	if len(movements) != 2 {
		t.Fatalf("2 PO_RECEIVE hareketi bekleniyordu, %d var", len(movements))
	}
	assertDecimal(t, movements[0].Quantity, "20", "ilk kabul hareketi")
	assertDecimal(t, movements[1].Quantity, "30", "ikinci kabul hareketi")
}

func TestReceiveRejectsOverReceipt(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Peynir", "10", "5", "40")
	po := seedPurchaseOrder(t, db, models.PurchaseOrderSubmitted, item.ID, "50", "45")

	_, err := ReceivePurchaseOrder(db, testTenant, po.ID, []ReceiveLineRequest{
		{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: 60},
	})
	if err == nil {
		t.Fatal("aşırı kabul reddedilmeliydi")
	}
	fe, ok := err.(*fiber.Error)
	if !ok || fe.Code != fiber.StatusUnprocessableEntity {
		t.Errorf("422 bekleniyordu: %v", err)
	}

	// Reddedilen kabul hiçbir şey değiştirmemeli
	assertDecimal(t, currentStockOf(t, db, item.ID), "10", "stok değişmemeli")
	var poItem models.PurchaseOrderItem
	db.First(&poItem, po.Items[0].ID)
	assertDecimal(t, poItem.QuantityReceived, "0", "kabul miktarı değişmemeli")
	if got := movementsFor(t, db, item.ID, models.MovementPOReceive); len(got) != 0 {
		t.Errorf("hareket yazılmamalıydı, %d var", len(got))
	}
}

func TestReceiveRejectsWrongStatus(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Peynir", "10", "5", "40")

	for _, status := range []models.PurchaseOrderStatus{
		models.PurchaseOrderDraft, models.PurchaseOrderReceived, models.PurchaseOrderCancelled,
	} {
		po := seedPurchaseOrder(t, db, status, item.ID, "50", "45")
		_, err := ReceivePurchaseOrder(db, testTenant, po.ID, []ReceiveLineRequest{
			{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: 10},
		})
		if err == nil {
			t.Errorf("%s durumunda kabul reddedilmeliydi", status)
			continue
		}
		if fe, ok := err.(*fiber.Error); !ok || fe.Code != fiber.StatusConflict {
			t.Errorf("%s için 409 bekleniyordu: %v", status, err)
		}
	}
}

func TestReceiveCreatesBatch(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Süt", "0", "5", "10")
	po := seedPurchaseOrder(t, db, models.PurchaseOrderSubmitted, item.ID, "24", "12")

	_, err := ReceivePurchaseOrder(db, testTenant, po.ID, []ReceiveLineRequest{
		{
			PurchaseOrderItemID: po.Items[0].ID,
			QuantityReceived:    24,
			BatchNumber:         "SUT-2026-08",
			ExpiryDate:          "2026-09-05",
		},
	})
	if err != nil {
		t.Fatalf("kabul başarısız: %v", err)
	}

	var batch models.StockBatch
	if err := db.First(&batch, "stock_item_id = ?", item.ID).Error; err != nil {
		t.Fatalf("parti oluşturulmalıydı: %v", err)
	}
	if batch.BatchNumber != "SUT-2026-08" {
		t.Errorf("parti numarası yanlış: %q", batch.BatchNumber)
	}
	assertDecimal(t, batch.Quantity, "24", "parti miktarı")
	assertDecimal(t, batch.CostPerUnit, "12", "parti maliyeti")
	if batch.ExpiryDate == nil || batch.ExpiryDate.Format("2006-01-02") != "2026-09-05" {
		t.Errorf("SKT yanlış: %v", batch.ExpiryDate)
	}
	if batch.PurchaseOrderItemID == nil || *batch.PurchaseOrderItemID != po.Items[0].ID {
		t.Error("parti sipariş kalemine bağlanmalı")
	}
}

func TestReceiveWithoutBatchInfoCreatesNoBatch(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Tuz", "0", "1", "2")
	po := seedPurchaseOrder(t, db, models.PurchaseOrderSubmitted, item.ID, "10", "3")

	if _, err := ReceivePurchaseOrder(db, testTenant, po.ID, []ReceiveLineRequest{
		{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: 10},
	}); err != nil {
		t.Fatalf("kabul başarısız: %v", err)
	}

	var count int64
	db.Model(&models.StockBatch{}).Where("stock_item_id = ?", item.ID).Count(&count)
	if count != 0 {
		t.Errorf("parti bilgisi verilmeden parti oluşmamalı, %d var", count)
	}
}
