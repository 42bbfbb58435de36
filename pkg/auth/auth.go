package auth

import (
	"github.com/gofiber/fiber/v3"
)

// AuthProvider valida as credenciais de uma requisição
type AuthProvider interface {
	// ValidateToken valida as credenciais e retorna a identidade do usuário
	ValidateToken(token string) (*UserIdentity, error)

	// ExtractToken extrai as credenciais do contexto Fiber
	ExtractToken(c fiber.Ctx) string
}

// Roles usadas pelo host
const (
	RoleReader = "reader"
	RoleWriter = "writer"
)

// UserIdentity representa a identidade do usuário autenticado
type UserIdentity struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole verifica se o usuário possui uma role específica
func (u *UserIdentity) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// CanWrite indica se o usuário pode criar, alterar e excluir entidades
func (u *UserIdentity) CanWrite() bool {
	return u.HasRole(RoleWriter)
}

// UserContextKey chave para armazenar usuário no contexto
const UserContextKey = "user"

// GetCurrentUser obtém o usuário autenticado do contexto
func GetCurrentUser(c fiber.Ctx) *UserIdentity {
	if u, ok := c.Locals(UserContextKey).(*UserIdentity); ok {
		return u
	}
	return nil
}
