package stock

import (
	"errors"

	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var logger = zap.NewNop().Sugar()

// SetLogger - main tarafından uygulama logger'ı verilir.
func SetLogger(l *zap.SugaredLogger) {
	logger = l
}

// applyStockDelta - CurrentStock'u store tarafında değerlendirilen tek bir
// atomik UPDATE ile değiştirir (read-modify-write YOK). Postgres'te bu UPDATE
// satırı transaction sonuna kadar kilitler, aynı kaleme yazan eşzamanlı
// işlemler burada serileşir. Yeni stok değeri aynı transaction içinden okunur.
func applyStockDelta(tx *gorm.DB, tenantID, itemID uint, delta decimal.Decimal) (decimal.Decimal, error) {
	res := tx.Model(&models.StockItem{}).
		Where("id = ? AND tenant_id = ?", itemID, tenantID).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", delta))
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
	}

	var item models.StockItem
	if err := tx.Select("current_stock").First(&item, "id = ?", itemID).Error; err != nil {
		return decimal.Zero, err
	}
	return item.CurrentStock, nil
}

// applyGuardedDecrement - Stok yeterliyse atomik düşer; yetersizse hiçbir şey
// yazmadan insufficient=true döner. Zayiat ve elle OUT hareketi bunu kullanır.
func applyGuardedDecrement(tx *gorm.DB, tenantID, itemID uint, qty decimal.Decimal) (decimal.Decimal, bool, error) {
	res := tx.Model(&models.StockItem{}).
		Where("id = ? AND tenant_id = ? AND current_stock >= ?", itemID, tenantID, qty).
		UpdateColumn("current_stock", gorm.Expr("current_stock - ?", qty))
	if res.Error != nil {
		return decimal.Zero, false, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, true, nil
	}

	var item models.StockItem
	if err := tx.Select("current_stock").First(&item, "id = ?", itemID).Error; err != nil {
		return decimal.Zero, false, err
	}
	return item.CurrentStock, false, nil
}

// appendMovement - Deftere tek kayıt ekler. Defter append-only: bu paketin
// hiçbir yeri IngredientMovement üzerinde Update/Delete çağırmaz.
func appendMovement(tx *gorm.DB, m *models.IngredientMovement) error {
	return tx.Create(m).Error
}

// GetSettings - Tenant ayarlarını okur, yoksa varsayılanlarla oluşturur.
func GetSettings(db *gorm.DB, tenantID uint) (*models.StockSettings, error) {
	var s models.StockSettings
	err := db.First(&s, "tenant_id = ?", tenantID).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	s = models.StockSettings{
		TenantID:            tenantID,
		EnableAutoDeduction: true,
		DeductOnStatus:      "COMPLETED",
		LowStockAlertDays:   3,
		PONumberPrefix:      "PO",
	}
	if err := db.Create(&s).Error; err != nil {
		// Yarış durumu: başka bir istek aynı anda oluşturduysa tekrar oku
		if err2 := db.First(&s, "tenant_id = ?", tenantID).Error; err2 == nil {
			return &s, nil
		}
		return nil, err
	}
	return &s, nil
}

// fetchStockItem - Tenant'a ait kalemi okur; yoksa/yabancı tenant'a aitse 404.
func fetchStockItem(db *gorm.DB, tenantID, itemID uint) (*models.StockItem, error) {
	var item models.StockItem
	if err := db.First(&item, "id = ? AND tenant_id = ?", itemID, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
		}
		return nil, err
	}
	return &item, nil
}
