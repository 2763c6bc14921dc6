package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"restopos-backend/internal/models"
	"restopos-backend/internal/notify"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var notifier notify.Notifier = notify.NoopNotifier{}

// SetNotifier - main tarafından uyarı kanalı verilir.
func SetNotifier(n notify.Notifier) {
	notifier = n
}

// DeductionResult - Bir sipariş düşümünün sonucu.
type DeductionResult struct {
	OrderID    uint              `json:"order_id"`
	Deducted   bool              `json:"deducted"`
	Skipped    string            `json:"skipped,omitempty"` // Düşüm yapılmadıysa sebep
	Lines      []DeductionLine   `json:"lines"`
	Shortfalls []DeductionLine   `json:"shortfalls"`
	LowStock   []DeductionLine   `json:"low_stock"` // Düşüm sonrası eşiğe inen kalemler
	Alerts     []notify.StockAlert `json:"-"`
}

// DeductionLine - Tek stok kalemine uygulanan düşüm.
type DeductionLine struct {
	StockItemID   uint            `json:"stock_item_id"`
	StockItemName string          `json:"stock_item_name"`
	Required      decimal.Decimal `json:"required"`
	NewStock      decimal.Decimal `json:"new_stock"`
	Shortfall     decimal.Decimal `json:"shortfall"`
}

// collectRequirements - Siparişin tüm satırlarını reçeteler üzerinden stok
// kalemi başına toplam ihtiyaca indirger. Reçetesiz ürün düşüm üretmez.
func collectRequirements(db *gorm.DB, tenantID uint, order *models.Order) (map[uint]decimal.Decimal, error) {
	required := make(map[uint]decimal.Decimal)
	for _, line := range order.Items {
		var recipe models.Recipe
		err := db.Preload("Ingredients").
			First(&recipe, "product_id = ? AND tenant_id = ?", line.ProductID, tenantID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}

		yield := decimal.NewFromInt(int64(recipe.Yield))
		if yield.IsZero() {
			yield = decimal.NewFromInt(1)
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		for _, ing := range recipe.Ingredients {
			need := ing.Quantity.Div(yield).Mul(qty)
			if need.LessThanOrEqual(decimal.Zero) {
				continue
			}
			required[ing.StockItemID] = required[ing.StockItemID].Add(need)
		}
	}
	return required, nil
}

// DeductForOrder - Sipariş için otomatik stok düşümü.
//
// Kurallar:
//   - Satış asla bloklanmaz: stok yetersizse sıfıra sabitlenir (clamp),
//     defter kaydı yine de TAM ihtiyacı taşır; açık, shortfall olarak raporlanır.
//   - Aynı sipariş için ikinci çağrı no-op'tur (defterdeki ORDER_DEDUCTION
//     kaydına bakılır).
//   - Tüm kalemler tek transaction içinde, kalem id'sine göre artan sırada yazılır.
func DeductForOrder(db *gorm.DB, tenantID, orderID uint) (*DeductionResult, error) {
	settings, err := GetSettings(db, tenantID)
	if err != nil {
		return nil, err
	}
	result := &DeductionResult{
		OrderID:    orderID,
		Lines:      []DeductionLine{},
		Shortfalls: []DeductionLine{},
		LowStock:   []DeductionLine{},
	}
	if !settings.EnableAutoDeduction {
		result.Skipped = "Otomatik düşüm bu tenant için kapalı"
		return result, nil
	}

	var order models.Order
	if err := db.Preload("Items").First(&order, "id = ? AND tenant_id = ?", orderID, tenantID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
	}

	refID := strconv.FormatUint(uint64(orderID), 10)
	var already int64
	db.Model(&models.IngredientMovement{}).
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ? AND type = ?",
			tenantID, models.RefOrder, refID, models.MovementOrderDeduction).
		Count(&already)
	if already > 0 {
		result.Skipped = "Bu siparişin stoğu zaten düşülmüş"
		return result, nil
	}

	required, err := collectRequirements(db, tenantID, &order)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 {
		result.Skipped = "Siparişte reçeteli ürün yok"
		return result, nil
	}

	itemIDs := make([]uint, 0, len(required))
	for id := range required {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	var alerts []notify.StockAlert
	err = db.Transaction(func(tx *gorm.DB) error {
		for _, itemID := range itemIDs {
			need := required[itemID]

			var item models.StockItem
			if err := tx.First(&item, "id = ? AND tenant_id = ?", itemID, tenantID).Error; err != nil {
				return fiber.NewError(fiber.StatusNotFound, "Stok kalemi bulunamadı")
			}

			newStock, err := applyStockDelta(tx, tenantID, itemID, need.Neg())
			if err != nil {
				return err
			}

			line := DeductionLine{
				StockItemID:   itemID,
				StockItemName: item.Name,
				Required:      need,
			}

			if newStock.IsNegative() {
				// Eksiye düşen fark sıfıra sabitlenir; açık raporlanır
				line.Shortfall = newStock.Neg()
				if _, err := applyStockDelta(tx, tenantID, itemID, newStock.Neg()); err != nil {
					return err
				}
				newStock = decimal.Zero
				result.Shortfalls = append(result.Shortfalls, line)
				alerts = append(alerts, notify.StockAlert{
					Type:          notify.AlertOrderShortfall,
					TenantID:      tenantID,
					StockItemID:   itemID,
					StockItemName: item.Name,
					CurrentStock:  newStock,
					Shortfall:     line.Shortfall,
					CreatedAt:     time.Now(),
				})
			}
			line.NewStock = newStock
			result.Lines = append(result.Lines, line)

			cost := item.CostPerUnit
			if err := appendMovement(tx, &models.IngredientMovement{
				TenantID:      tenantID,
				StockItemID:   itemID,
				Type:          models.MovementOrderDeduction,
				Quantity:      need.Neg(), // Defter tam ihtiyacı taşır, clamp'lenmiş farkı değil
				CostPerUnit:   &cost,
				Notes:         fmt.Sprintf("Sipariş düşümü: %s", order.OrderNumber),
				ReferenceType: models.RefOrder,
				ReferenceID:   refID,
			}); err != nil {
				return err
			}

			if newStock.LessThanOrEqual(item.MinStock) {
				result.LowStock = append(result.LowStock, line)
				alerts = append(alerts, notify.StockAlert{
					Type:          notify.AlertLowStock,
					TenantID:      tenantID,
					StockItemID:   itemID,
					StockItemName: item.Name,
					CurrentStock:  newStock,
					MinStock:      item.MinStock,
					CreatedAt:     time.Now(),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Deducted = true
	result.Alerts = alerts
	if len(alerts) > 0 {
		if err := notifier.Publish(context.Background(), alerts); err != nil {
			// Uyarı kanalı düşse bile düşüm geçerli kalır
			logger.Warnw("stok uyarıları gönderilemedi", "error", err)
		}
	}

	logger.Infow("sipariş düşümü tamamlandı",
		"tenant_id", tenantID, "order_id", orderID,
		"lines", len(result.Lines), "shortfalls", len(result.Shortfalls))
	return result, nil
}

// ReversalResult - Sipariş iadesinin sonucu.
type ReversalResult struct {
	OrderID  uint            `json:"order_id"`
	Reversed bool            `json:"reversed"`
	Skipped  string          `json:"skipped,omitempty"`
	Lines    []DeductionLine `json:"lines"`
}

// ReverseForOrder - İptal/iade edilen siparişin düşümünü geri alır.
// Defterdeki ORDER_DEDUCTION kayıtlarının aynısı IN olarak geri yazılır;
// ikinci çağrı no-op'tur (aynı referansla IN kaydı varsa).
func ReverseForOrder(db *gorm.DB, tenantID, orderID uint) (*ReversalResult, error) {
	result := &ReversalResult{OrderID: orderID, Lines: []DeductionLine{}}
	refID := strconv.FormatUint(uint64(orderID), 10)

	var order models.Order
	if err := db.First(&order, "id = ? AND tenant_id = ?", orderID, tenantID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Sipariş bulunamadı")
	}

	var deductions []models.IngredientMovement
	if err := db.Where("tenant_id = ? AND reference_type = ? AND reference_id = ? AND type = ?",
		tenantID, models.RefOrder, refID, models.MovementOrderDeduction).
		Order("stock_item_id ASC").
		Find(&deductions).Error; err != nil {
		return nil, err
	}
	if len(deductions) == 0 {
		result.Skipped = "Bu sipariş için düşüm kaydı yok"
		return result, nil
	}

	var alreadyReversed int64
	db.Model(&models.IngredientMovement{}).
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ? AND type = ?",
			tenantID, models.RefOrder, refID, models.MovementIn).
		Count(&alreadyReversed)
	if alreadyReversed > 0 {
		result.Skipped = "Bu siparişin düşümü zaten geri alınmış"
		return result, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, d := range deductions {
			restore := d.Quantity.Neg() // Düşüm negatifti, iade pozitif
			newStock, err := applyStockDelta(tx, tenantID, d.StockItemID, restore)
			if err != nil {
				return err
			}
			result.Lines = append(result.Lines, DeductionLine{
				StockItemID: d.StockItemID,
				Required:    restore,
				NewStock:    newStock,
			})

			if err := appendMovement(tx, &models.IngredientMovement{
				TenantID:      tenantID,
				StockItemID:   d.StockItemID,
				Type:          models.MovementIn,
				Quantity:      restore,
				CostPerUnit:   d.CostPerUnit,
				Notes:         fmt.Sprintf("Sipariş iadesi: %s", order.OrderNumber),
				ReferenceType: models.RefOrder,
				ReferenceID:   refID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Reversed = true
	logger.Infow("sipariş düşümü geri alındı",
		"tenant_id", tenantID, "order_id", orderID, "lines", len(result.Lines))
	return result, nil
}
