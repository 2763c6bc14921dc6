package stock

import (
	"context"
	"testing"
	"time"

	"restopos-backend/internal/models"
	"restopos-backend/internal/notify"
)

func TestLowStockItems(t *testing.T) {
	db := newTestDB(t)
	low := seedItem(t, db, "Un", "5", "10", "3")
	boundary := seedItem(t, db, "Şeker", "10", "10", "4")
	seedItem(t, db, "Tuz", "50", "10", "1")

	inactive := seedItem(t, db, "Eski Kalem", "0", "10", "2")
	db.Model(inactive).UpdateColumn("is_active", false)

	items, err := LowStockItems(db, testTenant)
	if err != nil {
		t.Fatalf("sorgu başarısız: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("2 düşük stoklu kalem bekleniyordu, %d var", len(items))
	}
	ids := map[uint]bool{items[0].ID: true, items[1].ID: true}
	if !ids[low.ID] {
		t.Error("eşik altı kalem listede olmalı")
	}
	if !ids[boundary.ID] {
		t.Error("eşiğe eşit kalem de listede olmalı")
	}
}

func TestExpiringBatches(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Süt", "30", "5", "10")

	soon := time.Now().AddDate(0, 0, 2)
	far := time.Now().AddDate(0, 0, 30)
	past := time.Now().AddDate(0, 0, -1)

	for _, tc := range []struct {
		expiry *time.Time
		qty    string
	}{
		{&soon, "10"}, // Pencere içinde
		{&far, "10"},  // Pencere dışında
		{&past, "5"},  // Çoktan dolmuş, hariç
		{&soon, "0"},  // Tükenmiş parti hariç
		{nil, "5"},    // SKT'siz parti hariç
	} {
		batch := models.StockBatch{
			TenantID:    testTenant,
			StockItemID: item.ID,
			Quantity:    dec(tc.qty),
			CostPerUnit: dec("10"),
			ReceivedAt:  time.Now(),
			ExpiryDate:  tc.expiry,
		}
		if err := db.Create(&batch).Error; err != nil {
			t.Fatalf("parti oluşturulamadı: %v", err)
		}
	}

	batches, err := ExpiringBatches(db, testTenant, 3)
	if err != nil {
		t.Fatalf("sorgu başarısız: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("yalnızca pencere içindeki parti bekleniyordu, %d var", len(batches))
	}
	if batches[0].ExpiryDate == nil || !batches[0].ExpiryDate.After(time.Now()) {
		t.Error("dönen partinin SKT'si gelecekte olmalı")
	}
}

func TestExpiringBatchesExcludesAlreadyExpired(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Yoğurt", "20", "5", "6")

	expired := time.Now().AddDate(0, 0, -2)
	if err := db.Create(&models.StockBatch{
		TenantID:    testTenant,
		StockItemID: item.ID,
		Quantity:    dec("8"),
		CostPerUnit: dec("6"),
		ReceivedAt:  time.Now().AddDate(0, 0, -10),
		ExpiryDate:  &expired,
	}).Error; err != nil {
		t.Fatalf("parti oluşturulamadı: %v", err)
	}

	batches, err := ExpiringBatches(db, testTenant, 7)
	if err != nil {
		t.Fatalf("sorgu başarısız: %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("dolmuş parti listelenmemeli, %d var", len(batches))
	}
}

func TestScanAndNotify(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, "Un", "2", "10", "3")
	item := seedItem(t, db, "Süt", "30", "5", "10")

	soon := time.Now().AddDate(0, 0, 1)
	if err := db.Create(&models.StockBatch{
		TenantID:    testTenant,
		StockItemID: item.ID,
		Quantity:    dec("10"),
		CostPerUnit: dec("10"),
		ReceivedAt:  time.Now(),
		ExpiryDate:  &soon,
	}).Error; err != nil {
		t.Fatalf("parti oluşturulamadı: %v", err)
	}

	capture := &captureNotifier{}
	SetNotifier(capture)
	defer SetNotifier(notify.NoopNotifier{})

	n, err := ScanAndNotify(context.Background(), db, testTenant)
	if err != nil {
		t.Fatalf("tarama başarısız: %v", err)
	}
	if n != 2 {
		t.Fatalf("2 uyarı bekleniyordu, %d var", n)
	}

	var lowStock, expiring bool
	for _, a := range capture.alerts {
		switch a.Type {
		case notify.AlertLowStock:
			lowStock = true
		case notify.AlertExpiringBatch:
			expiring = true
			if a.BatchID == 0 {
				t.Error("SKT uyarısı parti kimliği taşımalı")
			}
		}
	}
	if !lowStock {
		t.Error("LOW_STOCK uyarısı bekleniyordu")
	}
	if !expiring {
		t.Error("EXPIRING_BATCH uyarısı bekleniyordu")
	}
}

func TestScanAndNotifyQuietWhenHealthy(t *testing.T) {
	db := newTestDB(t)
	seedItem(t, db, "Un", "100", "10", "3")

	capture := &captureNotifier{}
	SetNotifier(capture)
	defer SetNotifier(notify.NoopNotifier{})

	n, err := ScanAndNotify(context.Background(), db, testTenant)
	if err != nil {
		t.Fatalf("tarama başarısız: %v", err)
	}
	if n != 0 || len(capture.alerts) != 0 {
		t.Errorf("sağlıklı stokta uyarı olmamalı: n=%d alerts=%d", n, len(capture.alerts))
	}
}
