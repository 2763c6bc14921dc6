package stock

import (
	"testing"

	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testTenant uint = 1

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate başarısız: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedItem(t *testing.T, db *gorm.DB, name string, current, min, cost string) *models.StockItem {
	t.Helper()
	item := models.StockItem{
		TenantID:     testTenant,
		Name:         name,
		Unit:         models.UnitKG,
		CurrentStock: dec(current),
		MinStock:     dec(min),
		CostPerUnit:  dec(cost),
		IsActive:     true,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("stok kalemi oluşturulamadı: %v", err)
	}
	if item.CurrentStock.IsPositive() {
		cost := item.CostPerUnit
		if err := db.Create(&models.IngredientMovement{
			TenantID:      testTenant,
			StockItemID:   item.ID,
			Type:          models.MovementIn,
			Quantity:      item.CurrentStock,
			CostPerUnit:   &cost,
			Notes:         "Açılış stoku",
			ReferenceType: models.RefManual,
		}).Error; err != nil {
			t.Fatalf("açılış hareketi yazılamadı: %v", err)
		}
	}
	return &item
}

func seedProductWithRecipe(t *testing.T, db *gorm.DB, name string, yield int, ingredients map[uint]string) *models.Product {
	t.Helper()
	product := models.Product{TenantID: testTenant, Name: name, Price: dec("100"), IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("ürün oluşturulamadı: %v", err)
	}
	recipe := models.Recipe{
		TenantID:  testTenant,
		ProductID: product.ID,
		Name:      name,
		Yield:     yield,
	}
	for itemID, qty := range ingredients {
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			StockItemID: itemID,
			Quantity:    dec(qty),
		})
	}
	if err := db.Create(&recipe).Error; err != nil {
		t.Fatalf("reçete oluşturulamadı: %v", err)
	}
	return &product
}

func seedOrder(t *testing.T, db *gorm.DB, productID uint, quantity int) *models.Order {
	t.Helper()
	order := models.Order{
		TenantID:    testTenant,
		OrderNumber: "ORD-TEST",
		Status:      "COMPLETED",
		Items:       []models.OrderItem{{ProductID: productID, Quantity: quantity}},
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("sipariş oluşturulamadı: %v", err)
	}
	return &order
}

func currentStockOf(t *testing.T, db *gorm.DB, itemID uint) decimal.Decimal {
	t.Helper()
	var item models.StockItem
	if err := db.First(&item, itemID).Error; err != nil {
		t.Fatalf("stok kalemi okunamadı: %v", err)
	}
	return item.CurrentStock
}

func movementsFor(t *testing.T, db *gorm.DB, itemID uint, mtype models.MovementType) []models.IngredientMovement {
	t.Helper()
	var movements []models.IngredientMovement
	if err := db.Where("stock_item_id = ? AND type = ?", itemID, mtype).
		Order("id ASC").Find(&movements).Error; err != nil {
		t.Fatalf("hareketler okunamadı: %v", err)
	}
	return movements
}

func assertDecimal(t *testing.T, got decimal.Decimal, want string, msg string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s: beklenen %s, gelen %s", msg, want, got)
	}
}
