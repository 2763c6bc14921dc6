package auth

import "github.com/golang-jwt/jwt/v5"

// JWTCustomClaims - Harici auth servisi tarafından imzalanan token içeriği.
// TenantID orada doğrulanmış olarak gelir; bu modül kullanıcı/şifre tutmaz.
type JWTCustomClaims struct {
	TenantID uint   `json:"tenant_id"`
	UserID   uint   `json:"user_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
