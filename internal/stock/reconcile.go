package stock

import (
	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReconcileRow - Defter toplamı ile kayıtlı stok arasındaki fark.
// Drift, clamp'lenen sipariş düşümlerinden beklenen bir durumdur: defter tam
// ihtiyacı taşır, stok sıfırda durur. Beklenmeyen drift veri hatasına işarettir.
type ReconcileRow struct {
	StockItemID  uint            `json:"stock_item_id"`
	Name         string          `json:"name"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	LedgerTotal  decimal.Decimal `json:"ledger_total"`
	Drift        decimal.Decimal `json:"drift"` // CurrentStock - LedgerTotal
}

// Reconcile - Her kalem için defter hareketlerinin toplamını kayıtlı stokla karşılaştırır.
func Reconcile(db *gorm.DB, tenantID uint) ([]ReconcileRow, error) {
	var items []models.StockItem
	if err := db.Where("tenant_id = ?", tenantID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}

	var movements []models.IngredientMovement
	if err := db.Select("stock_item_id", "quantity").
		Where("tenant_id = ?", tenantID).
		Find(&movements).Error; err != nil {
		return nil, err
	}

	totals := make(map[uint]decimal.Decimal, len(items))
	for _, m := range movements {
		totals[m.StockItemID] = totals[m.StockItemID].Add(m.Quantity)
	}

	rows := make([]ReconcileRow, 0, len(items))
	for _, item := range items {
		ledger := totals[item.ID]
		rows = append(rows, ReconcileRow{
			StockItemID:  item.ID,
			Name:         item.Name,
			CurrentStock: item.CurrentStock,
			LedgerTotal:  ledger,
			Drift:        item.CurrentStock.Sub(ledger),
		})
	}
	return rows, nil
}

// GET /api/stock/reconcile?only_drift=true&stock_item_id=5
func ReconcileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		rows, err := Reconcile(database.DB, tenantID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Mutabakat hesaplanamadı")
		}

		if itemID := c.QueryInt("stock_item_id", 0); itemID > 0 {
			filtered := rows[:0]
			for _, row := range rows {
				if row.StockItemID == uint(itemID) {
					filtered = append(filtered, row)
				}
			}
			rows = filtered
		}
		if c.QueryBool("only_drift", false) {
			filtered := rows[:0]
			for _, row := range rows {
				if !row.Drift.IsZero() {
					filtered = append(filtered, row)
				}
			}
			rows = filtered
		}
		return c.JSON(rows)
	}
}
