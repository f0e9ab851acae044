package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/aiworkspace/workspace-backend/internal/api/middleware"
	"github.com/aiworkspace/workspace-backend/internal/services"
)

// LoginRequest represents an admin login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the configured admin credential and marks the session.
func Login(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid request body",
			})
		}

		if !credentialsMatch(svc, req.Username, req.Password) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Invalid Credentials",
			})
		}

		if err := middleware.SetAdmin(svc.Sessions, c); err != nil {
			svc.Logger.WithError(err).Error("failed to persist admin session")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Login failed",
			})
		}

		return c.JSON(fiber.Map{"success": true})
	}
}

// Logout clears the admin flag unconditionally.
func Logout(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := middleware.ClearAdmin(svc.Sessions, c); err != nil {
			svc.Logger.WithError(err).Warn("failed to clear admin session")
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

// CheckAuth reports the session's current admin flag.
func CheckAuth(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"is_admin": middleware.IsAdmin(svc.Sessions, c),
		})
	}
}

// credentialsMatch compares against the configured admin identity. The
// password config may hold either a plaintext value or a bcrypt hash;
// plaintext goes through a constant-time compare.
func credentialsMatch(svc *services.Services, username, password string) bool {
	admin := svc.Config.Admin
	if subtle.ConstantTimeCompare([]byte(username), []byte(admin.Username)) != 1 {
		return false
	}
	if strings.HasPrefix(admin.Password, "$2a$") || strings.HasPrefix(admin.Password, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(admin.Password)) == 1
}
