package notify

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Uyarı tipleri
const (
	AlertLowStock       = "LOW_STOCK"
	AlertExpiringBatch  = "EXPIRING_BATCH"
	AlertOrderShortfall = "ORDER_SHORTFALL"
)

// StockAlert - Bildirim kanalına itilen uyarı olayı.
// Kanalın kendisi (websocket, push vs.) harici işbirlikçinin sorumluluğu;
// core sadece Notifier arayüzüne yazar.
type StockAlert struct {
	Type          string          `json:"type"`
	TenantID      uint            `json:"tenant_id"`
	StockItemID   uint            `json:"stock_item_id"`
	StockItemName string          `json:"stock_item_name"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinStock      decimal.Decimal `json:"min_stock,omitempty"`
	BatchID       uint            `json:"batch_id,omitempty"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	Shortfall     decimal.Decimal `json:"shortfall,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type Notifier interface {
	Publish(ctx context.Context, alerts []StockAlert) error
	Close() error
}

// NoopNotifier - Broker yapılandırılmadığında kullanılır.
type NoopNotifier struct{}

func (NoopNotifier) Publish(ctx context.Context, alerts []StockAlert) error { return nil }
func (NoopNotifier) Close() error                                           { return nil }
