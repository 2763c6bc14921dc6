package stock

import (
	"errors"
	"strings"

	"restopos-backend/internal/auth"
	"restopos-backend/internal/database"
	"restopos-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecipeIngredientRequest struct {
	StockItemID uint    `json:"stock_item_id"`
	Quantity    float64 `json:"quantity"`
}

type RecipeRequest struct {
	ProductID   uint                      `json:"product_id"`
	Name        string                    `json:"name"`
	Notes       string                    `json:"notes"`
	Yield       int                       `json:"yield"`
	Ingredients []RecipeIngredientRequest `json:"ingredients"`
}

type RecipeIngredientResponse struct {
	ID            uint            `json:"id"`
	StockItemID   uint            `json:"stock_item_id"`
	StockItemName string          `json:"stock_item_name"`
	Unit          string          `json:"unit"`
	Quantity      decimal.Decimal `json:"quantity"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
}

type RecipeResponse struct {
	ID          uint                       `json:"id"`
	ProductID   uint                       `json:"product_id"`
	Name        string                     `json:"name"`
	Notes       string                     `json:"notes"`
	Yield       int                        `json:"yield"`
	Ingredients []RecipeIngredientResponse `json:"ingredients"`
	UnitCost    decimal.Decimal            `json:"unit_cost"`
}

func toRecipeResponse(r *models.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:          r.ID,
		ProductID:   r.ProductID,
		Name:        r.Name,
		Notes:       r.Notes,
		Yield:       r.Yield,
		Ingredients: make([]RecipeIngredientResponse, 0, len(r.Ingredients)),
	}
	yield := decimal.NewFromInt(int64(r.Yield))
	if yield.IsZero() {
		yield = decimal.NewFromInt(1)
	}
	total := decimal.Zero
	for _, ing := range r.Ingredients {
		ir := RecipeIngredientResponse{
			ID:          ing.ID,
			StockItemID: ing.StockItemID,
			Quantity:    ing.Quantity,
		}
		if ing.StockItem.ID != 0 {
			ir.StockItemName = ing.StockItem.Name
			ir.Unit = string(ing.StockItem.Unit)
			ir.CurrentStock = ing.StockItem.CurrentStock
			total = total.Add(ing.Quantity.Mul(ing.StockItem.CostPerUnit))
		}
		resp.Ingredients = append(resp.Ingredients, ir)
	}
	// Reçete maliyeti yield'e bölünerek porsiyon başına verilir
	resp.UnitCost = total.Div(yield).Round(4)
	return resp
}

func validateRecipeIngredients(tenantID uint, ingredients []RecipeIngredientRequest) ([]models.RecipeIngredient, error) {
	if len(ingredients) == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Reçetede en az bir malzeme olmalı")
	}
	seen := make(map[uint]bool, len(ingredients))
	out := make([]models.RecipeIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.Quantity <= 0 {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Malzeme miktarı pozitif olmalı")
		}
		if seen[ing.StockItemID] {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Aynı malzeme reçetede iki kez geçemez")
		}
		seen[ing.StockItemID] = true

		var item models.StockItem
		if err := database.DB.First(&item, "id = ? AND tenant_id = ?", ing.StockItemID, tenantID).Error; err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Stok kalemi bulunamadı")
		}
		out = append(out, models.RecipeIngredient{
			StockItemID: ing.StockItemID,
			Quantity:    decimal.NewFromFloat(ing.Quantity),
		})
	}
	return out, nil
}

// POST /api/stock/recipes
func CreateRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var body RecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ? AND tenant_id = ?", body.ProductID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Ürün bulunamadı")
		}

		// Ürün başına tek reçete
		var existing int64
		database.DB.Model(&models.Recipe{}).Where("product_id = ?", body.ProductID).Count(&existing)
		if existing > 0 {
			return fiber.NewError(fiber.StatusConflict, "Bu ürünün zaten bir reçetesi var")
		}

		yield := body.Yield
		if yield <= 0 {
			yield = 1
		}

		ingredients, err := validateRecipeIngredients(tenantID, body.Ingredients)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(body.Name)
		if name == "" {
			name = product.Name
		}

		recipe := models.Recipe{
			TenantID:    tenantID,
			ProductID:   body.ProductID,
			Name:        name,
			Notes:       body.Notes,
			Yield:       yield,
			Ingredients: ingredients,
		}
		if err := database.DB.Create(&recipe).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete oluşturulamadı")
		}

		database.DB.Preload("Ingredients.StockItem").First(&recipe, recipe.ID)
		return c.Status(fiber.StatusCreated).JSON(toRecipeResponse(&recipe))
	}
}

// PUT /api/stock/recipes/:id
// Malzeme listesi komple değiştirilir.
func UpdateRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		recipeID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var recipe models.Recipe
		if err := database.DB.First(&recipe, "id = ? AND tenant_id = ?", recipeID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}

		var body RecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		ingredients, err := validateRecipeIngredients(tenantID, body.Ingredients)
		if err != nil {
			return err
		}

		if strings.TrimSpace(body.Name) != "" {
			recipe.Name = strings.TrimSpace(body.Name)
		}
		recipe.Notes = body.Notes
		if body.Yield > 0 {
			recipe.Yield = body.Yield
		}

		tx := database.DB.Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem başlatılamadı")
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete malzemeleri güncellenemedi")
		}
		for i := range ingredients {
			ingredients[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&ingredients).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete malzemeleri kaydedilemedi")
		}
		if err := tx.Save(&recipe).Error; err != nil {
			tx.Rollback()
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete güncellenemedi")
		}
		if err := tx.Commit().Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlem tamamlanamadı")
		}

		database.DB.Preload("Ingredients.StockItem").First(&recipe, recipe.ID)
		return c.JSON(toRecipeResponse(&recipe))
	}
}

// DELETE /api/stock/recipes/:id
func DeleteRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		recipeID, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz id")
		}

		var recipe models.Recipe
		if err := database.DB.First(&recipe, "id = ? AND tenant_id = ?", recipeID, tenantID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Reçete bulunamadı")
		}
		if err := database.DB.Select("Ingredients").Delete(&recipe).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete silinemedi")
		}
		return c.JSON(fiber.Map{"message": "Reçete silindi"})
	}
}

// GET /api/stock/recipes
func ListRecipesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		var recipes []models.Recipe
		if err := database.DB.
			Preload("Ingredients.StockItem").
			Where("tenant_id = ?", tenantID).
			Order("name ASC").
			Find(&recipes).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçeteler listelenemedi")
		}

		resp := make([]RecipeResponse, 0, len(recipes))
		for i := range recipes {
			resp = append(resp, toRecipeResponse(&recipes[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/stock/recipes/by-product/:productId
func GetRecipeByProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		productID, err := c.ParamsInt("productId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz productId")
		}

		var recipe models.Recipe
		err = database.DB.
			Preload("Ingredients.StockItem").
			First(&recipe, "product_id = ? AND tenant_id = ?", productID, tenantID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Bu ürünün reçetesi yok")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete okunamadı")
		}
		return c.JSON(toRecipeResponse(&recipe))
	}
}

type CheckStockResponse struct {
	ProductID   uint            `json:"product_id"`
	HasRecipe   bool            `json:"has_recipe"`
	CanProduce  bool            `json:"can_produce"`
	MaxQuantity decimal.Decimal `json:"max_quantity"`
	Shortages   []StockShortage `json:"shortages"`
}

type StockShortage struct {
	StockItemID   uint            `json:"stock_item_id"`
	StockItemName string          `json:"stock_item_name"`
	Required      decimal.Decimal `json:"required"`
	Available     decimal.Decimal `json:"available"`
}

// GET /api/stock/recipes/check/:productId?quantity=1
// Mevcut stokla üretilebilirlik projeksiyonu; stok değiştirmez.
func CheckStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID, err := auth.TenantID(c)
		if err != nil {
			return err
		}

		productID, err := c.ParamsInt("productId")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz productId")
		}
		quantity := c.QueryInt("quantity", 1)
		if quantity <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "quantity pozitif olmalı")
		}

		result, err := CheckProductStock(database.DB, tenantID, uint(productID), quantity)
		if err != nil {
			return err
		}
		return c.JSON(result)
	}
}

// CheckProductStock reçetesiz ürünü sınırsız kabul eder; porsiyon başı
// ihtiyaç sıfırsa o malzeme üst sınır koymaz.
func CheckProductStock(db *gorm.DB, tenantID, productID uint, quantity int) (*CheckStockResponse, error) {
	var recipe models.Recipe
	err := db.
		Preload("Ingredients.StockItem").
		First(&recipe, "product_id = ? AND tenant_id = ?", productID, tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CheckStockResponse{
				ProductID:   productID,
				HasRecipe:   false,
				CanProduce:  true,
				MaxQuantity: decimal.NewFromInt(int64(quantity)),
				Shortages:   []StockShortage{},
			}, nil
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "Reçete okunamadı")
	}

	yield := decimal.NewFromInt(int64(recipe.Yield))
	if yield.IsZero() {
		yield = decimal.NewFromInt(1)
	}
	qty := decimal.NewFromInt(int64(quantity))

	resp := &CheckStockResponse{
		ProductID:  productID,
		HasRecipe:  true,
		CanProduce: true,
		Shortages:  []StockShortage{},
	}

	var maxQty *decimal.Decimal
	for _, ing := range recipe.Ingredients {
		if ing.StockItem.ID == 0 {
			continue
		}
		perUnit := ing.Quantity.Div(yield)
		if perUnit.LessThanOrEqual(decimal.Zero) {
			continue
		}
		required := perUnit.Mul(qty)
		available := ing.StockItem.CurrentStock

		if available.LessThan(required) {
			resp.CanProduce = false
			resp.Shortages = append(resp.Shortages, StockShortage{
				StockItemID:   ing.StockItemID,
				StockItemName: ing.StockItem.Name,
				Required:      required,
				Available:     available,
			})
		}

		producible := available.Div(perUnit).Floor()
		if maxQty == nil || producible.LessThan(*maxQty) {
			maxQty = &producible
		}
	}

	if maxQty == nil {
		// Tüm malzemeler sıfır ihtiyaçlıysa sınır yok
		resp.MaxQuantity = decimal.NewFromInt(int64(quantity))
	} else {
		resp.MaxQuantity = *maxQty
	}
	return resp, nil
}
