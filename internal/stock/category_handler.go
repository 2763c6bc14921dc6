package stock

import (
	"strings"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	ItemCount   int64  `json:"item_count"`
}

// POST /api/stock/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if strings.TrimSpace(body.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunludur")
		}

		// Aynı tenant içinde isim tekrarı kabul edilmez
		var existing int64
		database.DB.Model(&models.StockItemCategory{}).
			Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(strings.TrimSpace(body.Name))).
			Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu isimde bir kategori zaten var")
		}

		cat := models.StockItemCategory{
			TenantID:    tenantID,
			Name:        strings.TrimSpace(body.Name),
			Description: body.Description,
			Color:       body.Color,
		}
		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(CategoryResponse{
			ID: cat.ID, Name: cat.Name, Description: cat.Description, Color: cat.Color,
		})
	}
}

// GET /api/stock/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var categories []models.StockItemCategory
		if err := database.DB.Where("tenant_id = ?", tenantID).Order("name ASC").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}

		resp := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			var count int64
			database.DB.Model(&models.StockItem{}).Where("category_id = ?", cat.ID).Count(&count)
			resp = append(resp, CategoryResponse{
				ID: cat.ID, Name: cat.Name, Description: cat.Description, Color: cat.Color, ItemCount: count,
			})
		}
		return c.JSON(resp)
	}
}

// PATCH /api/stock/categories/:id
func UpdateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		catID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var cat models.StockItemCategory
		if err := database.DB.First(&cat, "id = ? AND tenant_id = ?", catID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if strings.TrimSpace(body.Name) != "" {
			cat.Name = strings.TrimSpace(body.Name)
		}
		cat.Description = body.Description
		cat.Color = body.Color

		if err := database.DB.Save(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori güncellenemedi")
		}
		return c.JSON(CategoryResponse{ID: cat.ID, Name: cat.Name, Description: cat.Description, Color: cat.Color})
	}
}

// DELETE /api/stock/categories/:id
// Kalemler silinmez, kategorisiz bırakılır.
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		catID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var cat models.StockItemCategory
		if err := database.DB.First(&cat, "id = ? AND tenant_id = ?", catID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Kategori bulunamadı")
		}

		if err := database.DB.Model(&models.StockItem{}).
			Where("category_id = ?", cat.ID).
			Update("category_id", nil).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori bağlantıları kaldırılamadı")
		}
		if err := database.DB.Delete(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategori silinemedi")
		}

		return c.JSON(fiber.Map{"message": "Kategori silindi"})
	}
}
