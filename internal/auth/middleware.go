package auth

import (
	"fmt"
	"strings"

	"bizops-backend/internal/config"
	"bizops-backend/internal/database"
	"bizops-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserRoleKey = "user_role"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header is missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header must be 'Bearer <token>'")
		}

		token, err := jwt.ParseWithClaims(parts[1], &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token claims could not be read")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if HasRole(c, allowedRoles...) {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, "You are not allowed to perform this action")
	}
}

// HasRole reports whether the caller's role is one of allowedRoles.
func HasRole(c *fiber.Ctx, allowedRoles ...models.UserRole) bool {
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return false
	}
	for _, r := range allowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated caller as recorded in audit logs and created_by columns.
type Actor struct {
	ID   uint
	Name string
	Role models.UserRole
}

func CurrentActor(c *fiber.Ctx) (Actor, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok {
		return Actor{}, fiber.NewError(fiber.StatusForbidden, "User information is missing")
	}

	var user models.User
	if err := database.DB.WithContext(c.UserContext()).First(&user, "id = ?", userID).Error; err != nil {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "User not found")
	}

	return Actor{ID: user.ID, Name: user.Name, Role: user.Role}, nil
}
