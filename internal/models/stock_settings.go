package models

import "time"

// StockSettings - Tenant başına tek satır stok ayarı.
// İlk okumada varsayılanlarla tembel (lazy) oluşturulur, global state tutulmaz.
type StockSettings struct {
	ID                  uint   `gorm:"primaryKey"`
	TenantID            uint   `gorm:"uniqueIndex;not null"`
	EnableAutoDeduction bool   `gorm:"not null;default:true"`
	DeductOnStatus      string `gorm:"size:30;not null;default:COMPLETED"` // Düşümü tetikleyen sipariş durumu
	LowStockAlertDays   int    `gorm:"not null;default:3"`                 // SKT uyarı penceresi (gün)
	PONumberPrefix      string `gorm:"size:10;not null;default:PO"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
