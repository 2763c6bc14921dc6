package stock

import (
	"testing"
)

func TestReconcileBalancedLedger(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 30)

	if _, err := DeductForOrder(db, testTenant, order.ID); err != nil {
		t.Fatalf("düşüm başarısız: %v", err)
	}

	rows, err := Reconcile(db, testTenant)
	if err != nil {
		t.Fatalf("mutabakat başarısız: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("1 satır bekleniyordu, %d var", len(rows))
	}
	// Açılış 100 - düşüm 60 = 40, defter de aynı
	assertDecimal(t, rows[0].CurrentStock, "40", "kayıtlı stok")
	assertDecimal(t, rows[0].LedgerTotal, "40", "defter toplamı")
	assertDecimal(t, rows[0].Drift, "0", "drift sıfır olmalı")
}

func TestReconcileDetectsClampDrift(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "100", "10", "5")
	product := seedProductWithRecipe(t, db, "Pizza", 1, map[uint]string{item.ID: "2"})
	order := seedOrder(t, db, product.ID, 60) // ihtiyaç 120, clamp 0

	if _, err := DeductForOrder(db, testTenant, order.ID); err != nil {
		t.Fatalf("düşüm başarısız: %v", err)
	}

	rows, err := Reconcile(db, testTenant)
	if err != nil {
		t.Fatalf("mutabakat başarısız: %v", err)
	}
	// Stok 0'da durur, defter 100-120=-20 der: drift clamp'lenen 20
	assertDecimal(t, rows[0].CurrentStock, "0", "clamp sonrası stok")
	assertDecimal(t, rows[0].LedgerTotal, "-20", "defter toplamı")
	assertDecimal(t, rows[0].Drift, "20", "clamp driftı")
}
