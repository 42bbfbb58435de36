package basic

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/auth"
	"github.com/gofiber/fiber/v3"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials indica usuário ou senha incorretos
var ErrInvalidCredentials = errors.New("credenciais inválidas")

// UserValidator valida usuário e senha e retorna a identidade
type UserValidator func(username, password string) (*auth.UserIdentity, error)

// BasicAuthConfig configurações para Basic Authentication
type BasicAuthConfig struct {
	Realm string // Realm para o WWW-Authenticate header
}

// DefaultBasicAuthConfig retorna configuração padrão
func DefaultBasicAuthConfig() *BasicAuthConfig {
	return &BasicAuthConfig{
		Realm: "Restricted",
	}
}

// BasicAuth implementa AuthProvider com o header Authorization: Basic
type BasicAuth struct {
	config        *BasicAuthConfig
	userValidator UserValidator
}

// NewBasicAuth cria uma nova instância de BasicAuth
func NewBasicAuth(config *BasicAuthConfig, validator UserValidator) *BasicAuth {
	if config == nil {
		config = DefaultBasicAuthConfig()
	}

	if validator == nil {
		panic("BasicAuth requires a UserValidator function")
	}

	return &BasicAuth{
		config:        config,
		userValidator: validator,
	}
}

// ValidateToken decodifica as credenciais base64 usuario:senha e as valida
func (b *BasicAuth) ValidateToken(token string) (*auth.UserIdentity, error) {
	credentials, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	username, password, found := strings.Cut(string(credentials), ":")
	if !found || username == "" {
		return nil, errors.New("formato de credenciais inválido")
	}

	return b.userValidator(username, password)
}

// ExtractToken extrai as credenciais do header Authorization
func (b *BasicAuth) ExtractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(authHeader, "Basic ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Basic ")
}

// GetRealm retorna o realm configurado
func (b *BasicAuth) GetRealm() string {
	return b.config.Realm
}

// SendUnauthorizedResponse envia resposta 401 com WWW-Authenticate header
func (b *BasicAuth) SendUnauthorizedResponse(c fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="`+b.config.Realm+`"`)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "Unauthorized",
			"message": "Autenticação requerida",
		},
	})
}

// BasicAuthMiddleware exige credenciais válidas e envia WWW-Authenticate quando faltam
func BasicAuthMiddleware(basicAuth *BasicAuth) fiber.Handler {
	return func(c fiber.Ctx) error {
		if basicAuth == nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Auth provider não configurado")
		}

		token := basicAuth.ExtractToken(c)
		if token == "" {
			return basicAuth.SendUnauthorizedResponse(c)
		}

		user, err := basicAuth.ValidateToken(token)
		if err != nil || user == nil {
			return basicAuth.SendUnauthorizedResponse(c)
		}

		c.Locals(auth.UserContextKey, user)
		return c.Next()
	}
}

// NewBcryptValidator valida contra hashes bcrypt por usuário; todos recebem as roles informadas
func NewBcryptValidator(hashes map[string]string, roles ...string) UserValidator {
	return func(username, password string) (*auth.UserIdentity, error) {
		hash, ok := hashes[username]
		if !ok {
			// mantém o custo da comparação para usuários inexistentes
			bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrInvalidCredentials
		}

		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			return nil, ErrInvalidCredentials
		}

		return &auth.UserIdentity{
			Username: username,
			Roles:    append([]string(nil), roles...),
		}, nil
	}
}

// HashPassword gera o hash bcrypt usado em AUTH_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.MinCost)
