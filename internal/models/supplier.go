package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier - Tedarikçi
type Supplier struct {
	ID           uint   `gorm:"primaryKey"`
	TenantID     uint   `gorm:"index;not null"`
	Name         string `gorm:"size:100;not null"`
	ContactName  string `gorm:"size:100"`
	Email        string `gorm:"size:100"`
	Phone        string `gorm:"size:50"`
	Address      string `gorm:"size:255"`
	PaymentTerms string `gorm:"size:100"` // ör: "30 gün vade"
	Notes        string `gorm:"size:500"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	SupplierStockItems []SupplierStockItem `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE"`
	PurchaseOrders     []PurchaseOrder     `gorm:"foreignKey:SupplierID"`
}

// SupplierStockItem - Tedarikçi fiyat listesi satırı (stok etkisi yok)
type SupplierStockItem struct {
	ID          uint            `gorm:"primaryKey"`
	SupplierID  uint            `gorm:"index;not null"`
	Supplier    Supplier        `gorm:"foreignKey:SupplierID"`
	StockItemID uint            `gorm:"index;not null"`
	StockItem   StockItem       `gorm:"foreignKey:StockItemID"`
	SupplierSKU string          `gorm:"size:50"` // Tedarikçinin kendi stok kodu
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	IsPreferred bool            `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
