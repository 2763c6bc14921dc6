package models

import "time"

// Order - Sipariş akışının (harici işbirlikçi) yazdığı sipariş kaydı.
// Düşüm motoru siparişi satırlarıyla okur; durum geçişlerini burası yönetmez.
type Order struct {
	ID          uint   `gorm:"primaryKey"`
	TenantID    uint   `gorm:"index;not null"`
	OrderNumber string `gorm:"size:64;not null;index"`
	Status      string `gorm:"size:30;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem - Sipariş satırı
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"`
	OrderID   uint    `gorm:"index;not null"`
	ProductID uint    `gorm:"index;not null"`
	Product   Product `gorm:"foreignKey:ProductID"`
	Quantity  int     `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
