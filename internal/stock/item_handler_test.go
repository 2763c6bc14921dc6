package stock

import (
	"testing"

	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

func TestCreateStockItemWithOpeningStock(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db)
	app.Post("/items", CreateStockItemHandler())

	opening := 25.0
	cost := 8.0
	resp := doJSON(t, app, "POST", "/items", CreateStockItemRequest{
		Name:         "Zeytinyağı",
		SKU:          "ZYT-01",
		Unit:         "L",
		CurrentStock: &opening,
		CostPerUnit:  &cost,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("201 bekleniyordu: %d", resp.StatusCode)
	}

	var body StockItemResponse
	decodeJSON(t, resp, &body)
	assertDecimal(t, body.CurrentStock, "25", "açılış stoku")

	// Açılış stoku defterde IN olarak görünmeli (mutabakat için)
	movements := movementsFor(t, db, body.ID, models.MovementIn)
	if len(movements) != 1 {
		t.Fatalf("1 açılış hareketi bekleniyordu, %d var", len(movements))
	}
	assertDecimal(t, movements[0].Quantity, "25", "açılış hareketi")
}

func TestCreateStockItemRejectsInvalidUnit(t *testing.T) {
	db := newTestDB(t)
	app := newTestApp(t, db)
	app.Post("/items", CreateStockItemHandler())

	resp := doJSON(t, app, "POST", "/items", CreateStockItemRequest{
		Name: "Garip", Unit: "TON",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("400 bekleniyordu: %d", resp.StatusCode)
	}
}

func TestDeleteStockItemDeactivatesWhenReferenced(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "10", "0", "5") // Açılış hareketi referansı var

	app := newTestApp(t, db)
	app.Delete("/items/:id", DeleteStockItemHandler())

	resp := doJSON(t, app, "DELETE", "/items/1", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 bekleniyordu: %d", resp.StatusCode)
	}

	var after models.StockItem
	if err := db.First(&after, item.ID).Error; err != nil {
		t.Fatal("referanslı kalem silinmemeli, pasife çekilmeli")
	}
	if after.IsActive {
		t.Error("kalem pasife çekilmeliydi")
	}
}

func TestDeleteStockItemHardDeletesWhenUnreferenced(t *testing.T) {
	db := newTestDB(t)
	item := models.StockItem{
		TenantID: testTenant, Name: "Yeni", Unit: models.UnitPCS, IsActive: true,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("kalem oluşturulamadı: %v", err)
	}

	app := newTestApp(t, db)
	app.Delete("/items/:id", DeleteStockItemHandler())

	resp := doJSON(t, app, "DELETE", "/items/1", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 bekleniyordu: %d", resp.StatusCode)
	}

	var count int64
	db.Model(&models.StockItem{}).Count(&count)
	if count != 0 {
		t.Error("referanssız kalem tamamen silinmeliydi")
	}
}

func TestUpdateStockItemCannotTouchCurrentStock(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Un", "10", "0", "5")

	app := newTestApp(t, db)
	app.Patch("/items/:id", UpdateStockItemHandler())

	// current_stock alanı istek tipinde yok; gönderilse de yok sayılır
	resp := doJSON(t, app, "PATCH", "/items/1", map[string]interface{}{
		"name":          "Tam Buğday Unu",
		"current_stock": 999,
		"min_stock":     4,
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("200 bekleniyordu: %d", resp.StatusCode)
	}

	var after models.StockItem
	db.First(&after, item.ID)
	if after.Name != "Tam Buğday Unu" {
		t.Errorf("isim güncellenmeli: %q", after.Name)
	}
	assertDecimal(t, after.CurrentStock, "10", "current_stock elle değişmez")
	assertDecimal(t, after.MinStock, "4", "min_stock güncellenir")
}
