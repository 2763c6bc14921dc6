package stock

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"restopos-backend/internal/models"
	"restopos-backend/internal/notify"
)

type captureNotifier struct {
	alerts []notify.StockAlert
}

func (c *captureNotifier) Publish(ctx context.Context, alerts []notify.StockAlert) error {
	c.alerts = append(c.alerts, alerts...)
	return nil
}

func (c *captureNotifier) Close() error { return nil }

func TestDeductForOrder(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 30)

	result, err := DeductForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("düşüm başarısız: %v", err)
	}
	if !result.Deducted {
		t.Fatalf("düşüm yapılmalıydı, skipped=%q", result.Skipped)
	}

	assertDecimal(t, currentStockOf(t, db, item.ID), "40", "30x2 düşüm sonrası stok")

	movements := movementsFor(t, db, item.ID, models.MovementOrderDeduction)
	if len(movements) != 1 {
		t.Fatalf("1 düşüm hareketi bekleniyordu, %d var", len(movements))
	}
	assertDecimal(t, movements[0].Quantity, "-60", "defter kaydı")
}

func TestDeductForOrderClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 60) // ihtiyaç 120 > stok 100

	capture := &captureNotifier{}
	SetNotifier(capture)
	defer SetNotifier(notify.NoopNotifier{})

	result, err := DeductForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("düşüm asla bloklanmamalı: %v", err)
	}
	if !result.Deducted {
		t.Fatalf("düşüm yapılmalıydı, skipped=%q", result.Skipped)
	}

	// Stok sıfıra sabitlenir, eksiye düşmez
	assertDecimal(t, currentStockOf(t, db, item.ID), "0", "clamp sonrası stok")

	// Defter TAM ihtiyacı taşır, clamp'lenmiş miktarı değil
	movements := movementsFor(t, db, item.ID, models.MovementOrderDeduction)
	if len(movements) != 1 {
		t.Fatalf("1 düşüm hareketi bekleniyordu, %d var", len(movements))
	}
	assertDecimal(t, movements[0].Quantity, "-120", "defter tam ihtiyacı taşımalı")

	if len(result.Shortfalls) != 1 {
		t.Fatalf("1 açık bekleniyordu, %d var", len(result.Shortfalls))
	}
	assertDecimal(t, result.Shortfalls[0].Shortfall, "20", "açık miktarı")

	// Shortfall + düşük stok uyarıları yayınlanmış olmalı
	var shortfallAlert, lowStockAlert bool
	for _, a := range capture.alerts {
		switch a.Type {
		case notify.AlertOrderShortfall:
			shortfallAlert = true
		case notify.AlertLowStock:
			lowStockAlert = true
		}
	}
	if !shortfallAlert {
		t.Error("ORDER_SHORTFALL uyarısı yayınlanmadı")
	}
	if !lowStockAlert {
		t.Error("LOW_STOCK uyarısı yayınlanmadı")
	}
}

func TestDeductForOrderReportsLowStock(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "20", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 6) // 20 - 12 = 8, eşik 10'un altı

	result, err := DeductForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("düşüm başarısız: %v", err)
	}

	// Eşiğe inen kalem çağırana dönen sonuçta görünür olmalı
	if len(result.LowStock) != 1 {
		t.Fatalf("1 düşük stok kaydı bekleniyordu, %d var", len(result.LowStock))
	}
	if result.LowStock[0].StockItemID != item.ID {
		t.Errorf("düşük stok kalemi %d bekleniyordu, %d var", item.ID, result.LowStock[0].StockItemID)
	}
	assertDecimal(t, result.LowStock[0].NewStock, "8", "düşük stok satırı yeni stoğu taşımalı")

	body, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("sonuç serileştirilemedi: %v", err)
	}
	if !strings.Contains(string(body), `"low_stock"`) {
		t.Error("yanıt gövdesi low_stock listesini içermeli")
	}
}

func TestDeductForOrderIdempotent(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 10)

	if _, err := DeductForOrder(db, testTenant, order.ID); err != nil {
		t.Fatalf("ilk düşüm başarısız: %v", err)
	}
	second, err := DeductForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("ikinci çağrı hata vermemeli: %v", err)
	}
	if second.Deducted {
		t.Error("ikinci çağrı no-op olmalıydı")
	}
	assertDecimal(t, currentStockOf(t, db, item.ID), "80", "stok iki kez düşülmemeli")
}

func TestDeductForOrderRespectsYield(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Hamur", "50", "0", "3")
	// 4 porsiyonluk hazırlık 8 birim malzeme ister -> porsiyon başı 2
	product := seedProductWithRecipe(t, db, "Börek", 4, map[uint]string{item.ID: "8"})
	order := seedOrder(t, db, product.ID, 5)

	if _, err := DeductForOrder(db, testTenant, order.ID); err != nil {
		t.Fatalf("düşüm başarısız: %v", err)
	}
	// 5 x (8/4) = 10
	assertDecimal(t, currentStockOf(t, db, item.ID), "40", "yield'e bölünmüş düşüm")
}

func TestDeductForOrderAccumulatesAcrossLines(t *testing.T) {
	db := newTestDB(t)
	shared := seedItem(t, db, "Domates", "100", "0", "2")
	p1 := seedProductWithRecipe(t, db, "Salata", 1, map[uint]string{shared.ID: "3"})
	p2 := seedProductWithRecipe(t, db, "Menemen", 1, map[uint]string{shared.ID: "4"})

	order := seedOrder(t, db, p1.ID, 2)
	if err := db.Create(&models.OrderItem{OrderID: order.ID, ProductID: p2.ID, Quantity: 3}).Error; err != nil {
		t.Fatalf("sipariş satırı eklenemedi: %v", err)
	}

	if _, err := DeductForOrder(db, testTenant, order.ID); err != nil {
		t.Fatalf("düşüm başarısız: %v", err)
	}

	// 2x3 + 3x4 = 18 tek hareket olarak düşer
	assertDecimal(t, currentStockOf(t, db, shared.ID), "82", "satırlar arası toplanmış düşüm")
	movements := movementsFor(t, db, shared.ID, models.MovementOrderDeduction)
	if len(movements) != 1 {
		t.Fatalf("kalem başına tek hareket bekleniyordu, %d var", len(movements))
	}
	assertDecimal(t, movements[0].Quantity, "-18", "toplanmış defter kaydı")
}

func TestDeductForOrderSkipsWhenDisabled(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 10)

	settings, err := GetSettings(db, testTenant)
	if err != nil {
		t.Fatalf("ayarlar okunamadı: %v", err)
	}
	settings.EnableAutoDeduction = false
	if err := db.Save(settings).Error; err != nil {
		t.Fatalf("ayarlar güncellenemedi: %v", err)
	}

	result, err := DeductForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("kapalıyken hata vermemeli: %v", err)
	}
	if result.Deducted {
		t.Error("otomatik düşüm kapalıyken düşüm yapılmamalı")
	}
	assertDecimal(t, currentStockOf(t, db, item.ID), "100", "stok değişmemeli")
}

func TestDeductForOrderIgnoresProductsWithoutRecipe(t *testing.T) {
	db := newTestDB(t)
	product := models.Product{TenantID: testTenant, Name: "Su", Price: dec("10"), IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	order := seedOrder(t, db, product.ID, 3)

	result, err := DeductForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("reçetesiz sipariş hata vermemeli: %v", err)
	}
	if result.Deducted {
		t.Error("reçetesiz sipariş düşüm üretmemeli")
	}
}

func TestReverseForOrder(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 60) // clamp senaryosu

	if _, err := DeductForOrder(db, testTenant, order.ID); err != nil {
		t.Fatalf("düşüm başarısız: %v", err)
	}
	assertDecimal(t, currentStockOf(t, db, item.ID), "0", "düşüm sonrası stok")

	result, err := ReverseForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("iade başarısız: %v", err)
	}
	if !result.Reversed {
		t.Fatalf("iade yapılmalıydı, skipped=%q", result.Skipped)
	}

	// Defterdeki tam ihtiyaç (120) geri yazılır
	assertDecimal(t, currentStockOf(t, db, item.ID), "120", "iade sonrası stok")

	ins := movementsFor(t, db, item.ID, models.MovementIn)
	var reversal *models.IngredientMovement
	for i := range ins {
		if ins[i].ReferenceType == models.RefOrder {
			reversal = &ins[i]
		}
	}
	if reversal == nil {
		t.Fatal("iade IN hareketi bulunamadı")
	}
	assertDecimal(t, reversal.Quantity, "120", "iade hareketi miktarı")
}

func TestReverseForOrderIdempotent(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 10)

	if _, err := DeductForOrder(db, testTenant, order.ID); err != nil {
		t.Fatalf("düşüm başarısız: %v", err)
	}
	if _, err := ReverseForOrder(db, testTenant, order.ID); err != nil {
		t.Fatalf("ilk iade başarısız: %v", err)
	}
	second, err := ReverseForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("ikinci iade hata vermemeli: %v", err)
	}
	if second.Reversed {
		t.Error("ikinci iade no-op olmalıydı")
	}
	assertDecimal(t, currentStockOf(t, db, item.ID), "100", "stok iki kez iade edilmemeli")
}

func TestReverseForOrderWithoutDeduction(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 10)

	result, err := ReverseForOrder(db, testTenant, order.ID)
	if err != nil {
		t.Fatalf("düşümsüz iade hata vermemeli: %v", err)
	}
	if result.Reversed {
		t.Error("düşüm yokken iade no-op olmalıydı")
	}
}
