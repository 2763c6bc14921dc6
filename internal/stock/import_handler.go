package stock

import (
	"fmt"
	"strconv"
	"strings"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Beklenen sütun sırası: Ad | SKU | Birim | Mevcut Stok | Min Stok | Birim Maliyet | Kategori
const importColumnCount = 7

type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

func parseImportDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	// Türkçe ondalık ayracı desteklenir
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}

// POST /api/stock/items/import
// XLSX dosyasından stok kalemlerini topluca içeri alır. SKU doluysa SKU
// üzerinden, boşsa isim üzerinden eşleştirir: eşleşen kalem güncellenir
// (mevcut stok DEĞİŞMEZ), eşleşmeyen kalem açılış stokuyla oluşturulur.
func ImportStockItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyası okunamadı: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel dosyasında sheet bulunamadı")
		}
		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Sheet okunamadı: "+err.Error())
		}
		if len(rows) < 2 {
			return fiber.NewError(fiber.StatusBadRequest, "Dosyada veri satırı yok (ilk satır başlık)")
		}

		result := ImportResult{Errors: []string{}}

		// İlk satır başlık, atlanır
		for i, row := range rows[1:] {
			rowNum := i + 2
			for len(row) < importColumnCount {
				row = append(row, "")
			}

			name := strings.TrimSpace(row[0])
			if name == "" {
				result.Skipped++
				continue
			}
			sku := strings.TrimSpace(row[1])
			unit := strings.ToUpper(strings.TrimSpace(row[2]))
			if !validStockUnit(unit) {
				result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz birim %q", rowNum, row[2]))
				result.Skipped++
				continue
			}

			currentStock, err := parseImportDecimal(row[3])
			if err != nil || currentStock.IsNegative() {
				result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz mevcut stok %q", rowNum, row[3]))
				result.Skipped++
				continue
			}
			minStock, err := parseImportDecimal(row[4])
			if err != nil || minStock.IsNegative() {
				result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz min stok %q", rowNum, row[4]))
				result.Skipped++
				continue
			}
			costPerUnit, err := parseImportDecimal(row[5])
			if err != nil || costPerUnit.IsNegative() {
				result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: geçersiz birim maliyet %q", rowNum, row[5]))
				result.Skipped++
				continue
			}

			var categoryID *uint
			if catName := strings.TrimSpace(row[6]); catName != "" {
				cat, err := getOrCreateCategory(database.DB, tenantID, catName)
				if err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: kategori oluşturulamadı", rowNum))
					result.Skipped++
					continue
				}
				categoryID = &cat.ID
			}

			// Eşleştirme: SKU doluysa SKU, değilse isim
			var existing models.StockItem
			query := database.DB.Where("tenant_id = ?", tenantID)
			if sku != "" {
				query = query.Where("sku = ?", sku)
			} else {
				query = query.Where("LOWER(name) = ?", strings.ToLower(name))
			}
			findErr := query.First(&existing).Error

			if findErr == nil {
				existing.Name = name
				existing.Unit = models.StockUnit(unit)
				existing.MinStock = minStock
				existing.CostPerUnit = costPerUnit
				if categoryID != nil {
					existing.CategoryID = categoryID
				}
				if err := database.DB.Save(&existing).Error; err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: güncelleme başarısız", rowNum))
					result.Skipped++
					continue
				}
				result.Updated++
				continue
			}

			item := models.StockItem{
				TenantID:     tenantID,
				Name:         name,
				SKU:          sku,
				Unit:         models.StockUnit(unit),
				CurrentStock: currentStock,
				MinStock:     minStock,
				CostPerUnit:  costPerUnit,
				IsActive:     true,
				CategoryID:   categoryID,
			}
			err = database.DB.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&item).Error; err != nil {
					return err
				}
				if currentStock.IsPositive() {
					cost := costPerUnit
					return appendMovement(tx, &models.IngredientMovement{
						TenantID:      tenantID,
						StockItemID:   item.ID,
						Type:          models.MovementIn,
						Quantity:      currentStock,
						CostPerUnit:   &cost,
						Notes:         "Excel içe aktarım açılış stoku",
						ReferenceType: models.RefManual,
						ReferenceID:   strconv.FormatUint(uint64(item.ID), 10),
					})
				}
				return nil
			})
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Satır %d: kayıt başarısız", rowNum))
				result.Skipped++
				continue
			}
			result.Created++
		}

		logger.Infow("stok kalemleri içeri aktarıldı",
			"tenant_id", tenantID, "created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
		return c.JSON(result)
	}
}

func getOrCreateCategory(db *gorm.DB, tenantID uint, name string) (*models.StockItemCategory, error) {
	var cat models.StockItemCategory
	err := db.First(&cat, "tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(name)).Error
	if err == nil {
		return &cat, nil
	}
	cat = models.StockItemCategory{TenantID: tenantID, Name: name}
	if err := db.Create(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}
