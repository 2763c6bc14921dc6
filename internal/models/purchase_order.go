package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus - Satınalma siparişi durumu
type PurchaseOrderStatus string

const (
	PurchaseOrderDraft             PurchaseOrderStatus = "DRAFT"
	PurchaseOrderSubmitted         PurchaseOrderStatus = "SUBMITTED"
	PurchaseOrderPartiallyReceived PurchaseOrderStatus = "PARTIALLY_RECEIVED"
	PurchaseOrderReceived          PurchaseOrderStatus = "RECEIVED" // Terminal
	PurchaseOrderCancelled         PurchaseOrderStatus = "CANCELLED" // Terminal
)

// PurchaseOrder - Tedarikçi siparişi
// Durum makinesi: DRAFT -> SUBMITTED -> {PARTIALLY_RECEIVED <-> PARTIALLY_RECEIVED, RECEIVED};
// terminal olmayan her durumdan CANCELLED'a geçilebilir.
type PurchaseOrder struct {
	ID           uint                `gorm:"primaryKey"`
	TenantID     uint                `gorm:"index;not null;uniqueIndex:idx_po_tenant_number,priority:1"`
	OrderNumber  string              `gorm:"size:64;not null;uniqueIndex:idx_po_tenant_number,priority:2"`
	SupplierID   uint                `gorm:"index;not null"`
	Supplier     Supplier            `gorm:"foreignKey:SupplierID"`
	Status       PurchaseOrderStatus `gorm:"size:20;not null;default:DRAFT;index"`
	Notes        string              `gorm:"size:500"`
	ExpectedDate *time.Time
	SubmittedAt  *time.Time
	ReceivedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

// PurchaseOrderItem - Sipariş kalemi
// QuantityReceived 0'dan başlar, sadece artar ve QuantityOrdered'ı aşamaz.
type PurchaseOrderItem struct {
	ID               uint            `gorm:"primaryKey"`
	PurchaseOrderID  uint            `gorm:"index;not null"`
	StockItemID      uint            `gorm:"index;not null"`
	StockItem        StockItem       `gorm:"foreignKey:StockItemID"`
	QuantityOrdered  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	QuantityReceived decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
