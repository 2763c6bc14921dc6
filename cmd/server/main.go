package main

import (
	"context"
	"log"
	"strings"
	"time"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/config"
	"restopos-backend/internal/database"
	"restopos-backend/internal/notify"
	"restopos-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Logger oluşturulamadı: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()
	stock.SetLogger(logger)

	// Uyarı kanalı: broker tanımlıysa Kafka, değilse noop
	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.KafkaBrokers != "" {
		kn := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaAlertTopic, logger)
		defer kn.Close()
		notifier = kn
	}
	stock.SetNotifier(notifier)

	// Periyodik düşük stok / SKT taraması
	if cfg.AlertInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go stock.RunAlertScanner(ctx, database.DB, time.Duration(cfg.AlertInterval)*time.Second)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logger.Errorw("Beklenmeyen hata", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	stockRoutes := protected.Group("/stock")

	// Kategoriler
	stockRoutes.Post("/categories", stock.CreateCategoryHandler())
	stockRoutes.Get("/categories", stock.ListCategoriesHandler())
	stockRoutes.Patch("/categories/:id", stock.UpdateCategoryHandler())
	stockRoutes.Delete("/categories/:id", stock.DeleteCategoryHandler())

	// Stok kalemleri
	stockRoutes.Post("/items", stock.CreateStockItemHandler())
	stockRoutes.Get("/items", stock.ListStockItemsHandler())
	stockRoutes.Get("/items/low-stock", stock.LowStockItemsHandler())
	stockRoutes.Get("/items/expiring-soon", stock.ExpiringSoonHandler())
	stockRoutes.Post("/items/import", stock.ImportStockItemsHandler())
	stockRoutes.Get("/items/:id", stock.GetStockItemHandler())
	stockRoutes.Patch("/items/:id", stock.UpdateStockItemHandler())
	stockRoutes.Delete("/items/:id", stock.DeleteStockItemHandler())

	// Reçeteler
	stockRoutes.Post("/recipes", stock.CreateRecipeHandler())
	stockRoutes.Get("/recipes", stock.ListRecipesHandler())
	stockRoutes.Get("/recipes/by-product/:productId", stock.GetRecipeByProductHandler())
	stockRoutes.Get("/recipes/check/:productId", stock.CheckStockHandler())
	stockRoutes.Put("/recipes/:id", stock.UpdateRecipeHandler())
	stockRoutes.Delete("/recipes/:id", stock.DeleteRecipeHandler())

	// Tedarikçiler
	stockRoutes.Post("/suppliers", stock.CreateSupplierHandler())
	stockRoutes.Get("/suppliers", stock.ListSuppliersHandler())
	stockRoutes.Get("/suppliers/:id", stock.GetSupplierHandler())
	stockRoutes.Patch("/suppliers/:id", stock.UpdateSupplierHandler())
	stockRoutes.Delete("/suppliers/:id", stock.DeleteSupplierHandler())
	stockRoutes.Post("/suppliers/:id/items", stock.UpsertSupplierItemHandler())
	stockRoutes.Delete("/suppliers/:id/items/:itemId", stock.RemoveSupplierItemHandler())

	// Satınalma siparişleri
	stockRoutes.Post("/purchase-orders", stock.CreatePurchaseOrderHandler())
	stockRoutes.Get("/purchase-orders", stock.ListPurchaseOrdersHandler())
	stockRoutes.Get("/purchase-orders/:id", stock.GetPurchaseOrderHandler())
	stockRoutes.Post("/purchase-orders/:id/submit", stock.SubmitPurchaseOrderHandler())
	stockRoutes.Post("/purchase-orders/:id/receive", stock.ReceivePurchaseOrderHandler())
	stockRoutes.Post("/purchase-orders/:id/cancel", stock.CancelPurchaseOrderHandler())

	// Sayımlar
	stockRoutes.Post("/counts", stock.CreateStockCountHandler())
	stockRoutes.Get("/counts", stock.ListStockCountsHandler())
	stockRoutes.Get("/counts/:id", stock.GetStockCountHandler())
	stockRoutes.Patch("/counts/:id/items/:itemId", stock.UpdateCountItemHandler())
	stockRoutes.Post("/counts/:id/finalize", stock.FinalizeStockCountHandler())
	stockRoutes.Post("/counts/:id/cancel", stock.CancelStockCountHandler())

	// Zayiat
	stockRoutes.Post("/waste", stock.CreateWasteLogHandler())
	stockRoutes.Get("/waste", stock.ListWasteLogsHandler())
	stockRoutes.Get("/waste/summary", stock.WasteSummaryHandler())

	// Hareket defteri
	stockRoutes.Post("/movements", stock.CreateMovementHandler())
	stockRoutes.Get("/movements", stock.ListMovementsHandler())
	stockRoutes.Get("/movements/summary", stock.MovementSummaryHandler())

	// Ayarlar, özet ve mutabakat
	stockRoutes.Get("/settings", stock.GetSettingsHandler())
	stockRoutes.Patch("/settings", stock.UpdateSettingsHandler())
	stockRoutes.Get("/dashboard", stock.DashboardHandler())
	stockRoutes.Get("/valuation", stock.ValuationHandler())
	stockRoutes.Get("/reconcile", stock.ReconcileHandler())

	// Sipariş akışının çağırdığı düşüm/iade uçları
	protected.Post("/orders/:id/deduct-stock", stock.DeductStockHandler())
	protected.Post("/orders/:id/reverse-stock", stock.ReverseStockHandler())

	logger.Infow("Server çalışıyor", "port", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
