package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItemCategory - Stok kalemi kategorisi (ör: "Et", "Süt Ürünleri", "İçecek")
type StockItemCategory struct {
	ID          uint   `gorm:"primaryKey"`
	TenantID    uint   `gorm:"index;not null"`
	Name        string `gorm:"size:100;not null"`
	Description string `gorm:"size:255"`
	Color       string `gorm:"size:20"` // Arayüzde gösterilecek renk kodu
	CreatedAt   time.Time
	UpdatedAt   time.Time

	StockItems []StockItem `gorm:"foreignKey:CategoryID"`
}

// StockItem - Takip edilen stok kalemi (hammadde/malzeme)
// CurrentStock SADECE iş akışı bileşenleri tarafından değiştirilir;
// her değişiklik aynı transaction içinde bir IngredientMovement kaydıyla eşleşmek zorunda.
type StockItem struct {
	ID           uint            `gorm:"primaryKey"`
	TenantID     uint            `gorm:"index;not null"`
	Name         string          `gorm:"size:100;not null"`
	SKU          string          `gorm:"size:50;index"`
	Unit         StockUnit       `gorm:"size:20;not null"` // KG, G, L, ML, PCS vs.
	Description  string          `gorm:"size:255"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Düşük stok eşiği
	CostPerUnit  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Son bilinen birim maliyet
	TrackExpiry  bool            `gorm:"not null;default:false"`
	IsActive     bool            `gorm:"not null;default:true"`
	CategoryID   *uint           `gorm:"index"`
	Category     *StockItemCategory
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Batches            []StockBatch        `gorm:"foreignKey:StockItemID"`
	SupplierStockItems []SupplierStockItem `gorm:"foreignKey:StockItemID"`
}

// StockUnit - Ölçü birimi
type StockUnit string

const (
	UnitKG      StockUnit = "KG"
	UnitG       StockUnit = "G"
	UnitL       StockUnit = "L"
	UnitML      StockUnit = "ML"
	UnitPCS     StockUnit = "PCS"
	UnitBox     StockUnit = "BOX"
	UnitBag     StockUnit = "BAG"
	UnitCan     StockUnit = "CAN"
	UnitBottle  StockUnit = "BOTTLE"
	UnitBunch   StockUnit = "BUNCH"
	UnitSlice   StockUnit = "SLICE"
	UnitPortion StockUnit = "PORTION"
)
