package stock

import (
	"testing"

	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestApplyStockDelta(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "10", "0", "5")

	newStock, err := applyStockDelta(db, testTenant, item.ID, dec("2.5"))
	if err != nil {
		t.Fatalf("artış başarısız: %v", err)
	}
	assertDecimal(t, newStock, "12.5", "artış sonrası")

	newStock, err = applyStockDelta(db, testTenant, item.ID, dec("-20"))
	if err != nil {
		t.Fatalf("azalış başarısız: %v", err)
	}
	// applyStockDelta clamp YAPMAZ; clamp kararı çağıranın
	assertDecimal(t, newStock, "-7.5", "eksiye düşen ara değer")
}

func TestApplyStockDeltaUnknownItem(t *testing.T) {
	db := newTestDB(t)
	_, err := applyStockDelta(db, testTenant, 42, dec("1"))
	if err == nil {
		t.Fatal("bilinmeyen kalem hata vermeli")
	}
	if fe, ok := err.(*fiber.Error); !ok || fe.Code != fiber.StatusNotFound {
		t.Errorf("404 bekleniyordu: %v", err)
	}
}

func TestApplyStockDeltaWrongTenant(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "10", "0", "5")

	_, err := applyStockDelta(db, testTenant+1, item.ID, dec("1"))
	if err == nil {
		t.Fatal("yabancı tenant'ın kalemi görünmez olmalı")
	}
	if fe, ok := err.(*fiber.Error); !ok || fe.Code != fiber.StatusNotFound {
		t.Errorf("404 bekleniyordu: %v", err)
	}
	assertDecimal(t, currentStockOf(t, db, item.ID), "10", "stok değişmemeli")
}

func TestApplyGuardedDecrement(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "10", "0", "5")

	newStock, insufficient, err := applyGuardedDecrement(db, testTenant, item.ID, dec("4"))
	if err != nil {
		t.Fatalf("düşüş başarısız: %v", err)
	}
	if insufficient {
		t.Fatal("stok yeterliydi")
	}
	assertDecimal(t, newStock, "6", "korumalı düşüş")

	_, insufficient, err = applyGuardedDecrement(db, testTenant, item.ID, dec("7"))
	if err != nil {
		t.Fatalf("beklenmeyen hata: %v", err)
	}
	if !insufficient {
		t.Fatal("yetersiz stok raporlanmalıydı")
	}
	assertDecimal(t, currentStockOf(t, db, item.ID), "6", "reddedilen düşüş yazmamalı")

	// Tam sınır: kalan stokun tamamı düşülebilir
	newStock, insufficient, err = applyGuardedDecrement(db, testTenant, item.ID, dec("6"))
	if err != nil || insufficient {
		t.Fatalf("tam sınır düşüşü kabul edilmeli: err=%v insufficient=%v", err, insufficient)
	}
	assertDecimal(t, newStock, "0", "sıfıra inen stok")
}

func TestGetSettingsLazyDefaults(t *testing.T) {
	db := newTestDB(t)

	var count int64
	db.Model(&models.StockSettings{}).Count(&count)
	if count != 0 {
		t.Fatalf("başlangıçta ayar satırı olmamalı, %d var", count)
	}

	settings, err := GetSettings(db, testTenant)
	if err != nil {
		t.Fatalf("ayarlar okunamadı: %v", err)
	}
	if !settings.EnableAutoDeduction {
		t.Error("varsayılan: otomatik düşüm açık")
	}
	if settings.DeductOnStatus != "COMPLETED" {
		t.Errorf("varsayılan tetikleyici COMPLETED olmalı: %q", settings.DeductOnStatus)
	}
	if settings.LowStockAlertDays != 3 {
		t.Errorf("varsayılan SKT penceresi 3 gün olmalı: %d", settings.LowStockAlertDays)
	}
	if settings.PONumberPrefix != "PO" {
		t.Errorf("varsayılan önek PO olmalı: %q", settings.PONumberPrefix)
	}

	// İkinci okuma aynı satırı döner, yenisini oluşturmaz
	again, err := GetSettings(db, testTenant)
	if err != nil {
		t.Fatalf("ikinci okuma başarısız: %v", err)
	}
	if again.ID != settings.ID {
		t.Error("aynı ayar satırı dönmeli")
	}
	db.Model(&models.StockSettings{}).Count(&count)
	if count != 1 {
		t.Errorf("tek ayar satırı olmalı, %d var", count)
	}
}

func TestGetSettingsPerTenant(t *testing.T) {
	db := newTestDB(t)

	s1, err := GetSettings(db, 1)
	if err != nil {
		t.Fatalf("tenant 1 ayarları okunamadı: %v", err)
	}
	s2, err := GetSettings(db, 2)
	if err != nil {
		t.Fatalf("tenant 2 ayarları okunamadı: %v", err)
	}
	if s1.ID == s2.ID {
		t.Error("her tenant kendi ayar satırını almalı")
	}
}
