package database

import (
	"log"

	"restopos-backend/internal/config"
	"restopos-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Veritabanına bağlanılamadı: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("AutoMigrate hatası: %v", err)
	}

	log.Println("Veritabanı bağlantısı başarılı. Migration tamamlandı.")
}

// Migrate - Tüm tabloları oluşturur/günceller. Testler kendi DB'leri için de çağırır.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Harici işbirlikçilerin yazdığı master data
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		// Stok çekirdeği
		&models.StockItemCategory{},
		&models.StockItem{},
		&models.StockBatch{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Supplier{},
		&models.SupplierStockItem{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
		&models.StockCount{},
		&models.StockCountItem{},
		&models.WasteLog{},
		&models.IngredientMovement{}, // Append-only defter
		&models.StockSettings{},
	)
}
