package auth

import (
	"fmt"
	"strings"

	"restopos-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxTenantIDKey = "tenant_id"
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
)

// JWTMiddleware - Harici auth katmanının verdiği token'ı çözer ve doğrulanmış
// tenant kimliğini context'e koyar. Her core çağrısı bu tenant'a filtrelenir.
func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("geçersiz imzalama yöntemi")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token çözümlenemedi")
		}
		if claims.TenantID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "Token tenant bilgisi içermiyor")
		}

		c.Locals(CtxTenantIDKey, claims.TenantID)
		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)

		return c.Next()
	}
}

// TenantID - Middleware'in koyduğu tenant kimliğini okur.
func TenantID(c *fiber.Ctx) (uint, error) {
	val := c.Locals(CtxTenantIDKey)
	tenantID, ok := val.(uint)
	if !ok || tenantID == 0 {
		return 0, fiber.NewError(fiber.StatusForbidden, "Tenant bilgisi alınamadı")
	}
	return tenantID, nil
}
