package auth

import (
	"github.com/gofiber/fiber/v3"
)

// identify valida as credenciais presentes na requisição.
// Retorna nil, nil quando a requisição não traz credenciais.
func identify(provider AuthProvider, c fiber.Ctx) (*UserIdentity, error) {
	credentials := provider.ExtractToken(c)
	if credentials == "" {
		return nil, nil
	}
	return provider.ValidateToken(credentials)
}

// AuthMiddleware exige credenciais válidas em toda requisição
func AuthMiddleware(provider AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		if provider == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Auth provider não configurado")
		}

		user, err := identify(provider, c)
		switch {
		case err != nil:
			return fiber.NewError(fiber.StatusUnauthorized, "Credenciais inválidas: "+err.Error())
		case user == nil:
			return fiber.NewError(fiber.StatusUnauthorized, "Credenciais requeridas")
		}

		c.Locals(UserContextKey, user)
		return c.Next()
	}
}

// OptionalAuthMiddleware registra o usuário quando há credenciais válidas, sem bloquear
func OptionalAuthMiddleware(provider AuthProvider) fiber.Handler {
	return func(c fiber.Ctx) error {
		if provider != nil {
			if user, err := identify(provider, c); err == nil && user != nil {
				c.Locals(UserContextKey, user)
			}
		}
		return c.Next()
	}
}

// RequireRole exige um usuário autenticado com a role informada
func RequireRole(role string) fiber.Handler {
	return func(c fiber.Ctx) error {
		user := GetCurrentUser(c)
		if user == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Autenticação requerida")
		}

		if !user.HasRole(role) {
			return fiber.NewError(fiber.StatusForbidden, "Acesso negado: role '"+role+"' requerida")
		}
		return c.Next()
	}
}

// IsAuthenticated verifica se o usuário está autenticado
func IsAuthenticated(c fiber.Ctx) bool {
	return GetCurrentUser(c) != nil
}
