package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType - Stok hareketi tipi
type MovementType string

const (
	MovementIn              MovementType = "IN"
	MovementOut             MovementType = "OUT"
	MovementAdjustment      MovementType = "ADJUSTMENT"
	MovementOrderDeduction  MovementType = "ORDER_DEDUCTION"
	MovementCountAdjustment MovementType = "COUNT_ADJUSTMENT"
	MovementPOReceive       MovementType = "PO_RECEIVE"
	MovementWaste           MovementType = "WASTE"
)

// Hareket referans tipleri
const (
	RefOrder         = "ORDER"
	RefPurchaseOrder = "PURCHASE_ORDER"
	RefStockCount    = "STOCK_COUNT"
	RefWasteLog      = "WASTE_LOG"
	RefManual        = "MANUAL"
)

// IngredientMovement - Stok miktarı değişikliklerinin append-only defteri.
// Kayıtlar insert sonrası ASLA güncellenmez veya silinmez.
// Negatif miktar = stok azalışı. Her CurrentStock değişikliği aynı
// transaction içinde buraya tam olarak karşılık gelen kaydı yazar.
type IngredientMovement struct {
	ID            uint             `gorm:"primaryKey"`
	TenantID      uint             `gorm:"index;not null"`
	StockItemID   uint             `gorm:"index;not null"`
	StockItem     StockItem        `gorm:"foreignKey:StockItemID"`
	Type          MovementType     `gorm:"size:30;not null;index"`
	Quantity      decimal.Decimal  `gorm:"type:decimal(18,4);not null"` // İşaretli miktar
	CostPerUnit   *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Notes         string           `gorm:"size:500"`
	ReferenceType string           `gorm:"size:30;index:idx_movement_ref,priority:1"`
	ReferenceID   string           `gorm:"size:64;index:idx_movement_ref,priority:2"` // Kaynak kaydın serbest biçimli işaretçisi
	CreatedAt     time.Time        `gorm:"index"`
}

// ValidManualMovementType - Elle oluşturulabilen hareket tipleri.
// İş akışı tipleri (ORDER_DEDUCTION, PO_RECEIVE vs.) sadece ilgili motor tarafından yazılır.
func ValidManualMovementType(t MovementType) bool {
	return t == MovementIn || t == MovementOut || t == MovementAdjustment
}
