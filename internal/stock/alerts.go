package stock

import (
	"context"
	"time"

	"restopos-backend/internal/models"
	"restopos-backend/internal/notify"

	"gorm.io/gorm"
)

// LowStockItems - Eşiğin altındaki (veya eşit) aktif kalemler.
func LowStockItems(db *gorm.DB, tenantID uint) ([]models.StockItem, error) {
	var items []models.StockItem
	err := db.Preload("Category").
		Where("tenant_id = ? AND is_active = ? AND current_stock <= min_stock", tenantID, true).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

// ExpiringBatches - days gün içinde SKT'si dolacak, henüz dolmamış ve
// tükenmemiş partiler. Çoktan dolmuş partiler listeye girmez.
func ExpiringBatches(db *gorm.DB, tenantID uint, days int) ([]models.StockBatch, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, days)
	var batches []models.StockBatch
	err := db.Preload("StockItem").
		Where("tenant_id = ? AND quantity > 0 AND expiry_date IS NOT NULL AND expiry_date >= ? AND expiry_date <= ?", tenantID, now, cutoff).
		Order("expiry_date ASC").
		Find(&batches).Error
	return batches, err
}

// ScanAndNotify - Tek tenant için düşük stok ve SKT uyarılarını toplayıp
// bildirim kanalına iter. Periyodik tarayıcı ve elle tetikleme bunu kullanır.
func ScanAndNotify(ctx context.Context, db *gorm.DB, tenantID uint) (int, error) {
	settings, err := GetSettings(db, tenantID)
	if err != nil {
		return 0, err
	}

	var alerts []notify.StockAlert
	now := time.Now()

	items, err := LowStockItems(db, tenantID)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		alerts = append(alerts, notify.StockAlert{
			Type:          notify.AlertLowStock,
			TenantID:      tenantID,
			StockItemID:   item.ID,
			StockItemName: item.Name,
			CurrentStock:  item.CurrentStock,
			MinStock:      item.MinStock,
			CreatedAt:     now,
		})
	}

	batches, err := ExpiringBatches(db, tenantID, settings.LowStockAlertDays)
	if err != nil {
		return 0, err
	}
	for _, b := range batches {
		alerts = append(alerts, notify.StockAlert{
			Type:          notify.AlertExpiringBatch,
			TenantID:      tenantID,
			StockItemID:   b.StockItemID,
			StockItemName: b.StockItem.Name,
			CurrentStock:  b.Quantity,
			BatchID:       b.ID,
			ExpiryDate:    b.ExpiryDate,
			CreatedAt:     now,
		})
	}

	if len(alerts) == 0 {
		return 0, nil
	}
	if err := notifier.Publish(ctx, alerts); err != nil {
		return 0, err
	}
	return len(alerts), nil
}

// RunAlertScanner - Tüm tenant'ları aralıklı tarar; ctx iptaliyle durur.
func RunAlertScanner(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var tenantIDs []uint
			if err := db.Model(&models.StockItem{}).
				Distinct("tenant_id").
				Pluck("tenant_id", &tenantIDs).Error; err != nil {
				logger.Warnw("uyarı taraması tenant listesi alınamadı", "error", err)
				continue
			}
			for _, tenantID := range tenantIDs {
				n, err := ScanAndNotify(ctx, db, tenantID)
				if err != nil {
					logger.Warnw("uyarı taraması başarısız", "tenant_id", tenantID, "error", err)
					continue
				}
				if n > 0 {
					logger.Infow("stok uyarıları gönderildi", "tenant_id", tenantID, "count", n)
				}
			}
		}
	}
}
