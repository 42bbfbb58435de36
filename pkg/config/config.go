package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Chaves de configuração. No ambiente viram DB_DRIVER, SERVER_PORT etc.
const (
	KeyDBDriver           = "db.driver"
	KeyDBConnectionString = "db.connection_string"
	KeyDBMaxOpenConns     = "db.max_open_conns"
	KeyDBMaxIdleConns     = "db.max_idle_conns"
	KeyDBConnMaxLifetime  = "db.conn_max_lifetime"
	KeyDBInitSchema       = "db.init_schema"
	KeyServerHost         = "server.host"
	KeyServerPort         = "server.port"
	KeyServerRoutePrefix  = "server.route_prefix"
	KeyAuthUser           = "auth.user"
	KeyAuthPasswordHash   = "auth.password_hash"
	KeyAuthRealm          = "auth.realm"
	KeyServiceName        = "service.name"
	KeyServiceDisplayName = "service.display_name"
	KeyServiceDescription = "service.description"
	KeyLogSQL             = "log.sql"
)

// EnvConfig representa as configurações carregadas do .env, do ambiente e das flags
type EnvConfig struct {
	// Banco de dados
	DBDriver           string
	DBConnectionString string
	DBMaxOpenConns     int
	DBMaxIdleConns     int
	DBConnMaxLifetime  time.Duration
	DBInitSchema       bool

	// Servidor
	ServerHost        string
	ServerPort        int
	ServerRoutePrefix string

	// Autenticação básica das operações de escrita
	AuthUser         string
	AuthPasswordHash string
	AuthRealm        string

	// Serviço do sistema operacional
	ServiceName        string
	ServiceDisplayName string
	ServiceDescription string

	LogSQL bool

	// EnvFile é o .env usado, vazio quando nenhum foi encontrado
	EnvFile string
}

// NewViper cria uma instância com os valores padrão e leitura automática do ambiente
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyDBDriver, "sqlite")
	v.SetDefault(KeyDBConnectionString, ":memory:")
	v.SetDefault(KeyDBMaxOpenConns, 25)
	v.SetDefault(KeyDBMaxIdleConns, 5)
	v.SetDefault(KeyDBConnMaxLifetime, 5*time.Minute)
	v.SetDefault(KeyDBInitSchema, true)
	v.SetDefault(KeyServerHost, "localhost")
	v.SetDefault(KeyServerPort, 8080)
	v.SetDefault(KeyServerRoutePrefix, "/odata")
	v.SetDefault(KeyAuthRealm, "Restricted")
	v.SetDefault(KeyServiceName, "odata-jpa")
	v.SetDefault(KeyServiceDisplayName, "OData JPA Service")
	v.SetDefault(KeyServiceDescription, "Serviço OData com consultas JPQL")
	v.SetDefault(KeyLogSQL, false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// LoadEnvConfig carrega o .env mais próximo (sem sobrescrever o ambiente) e lê a configuração
func LoadEnvConfig(v *viper.Viper) (*EnvConfig, error) {
	if v == nil {
		v = NewViper()
	}

	envFile := findEnvFile()
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("erro ao carregar arquivo .env: %w", err)
		}
	}

	config := &EnvConfig{
		DBDriver:           v.GetString(KeyDBDriver),
		DBConnectionString: v.GetString(KeyDBConnectionString),
		DBMaxOpenConns:     v.GetInt(KeyDBMaxOpenConns),
		DBMaxIdleConns:     v.GetInt(KeyDBMaxIdleConns),
		DBConnMaxLifetime:  v.GetDuration(KeyDBConnMaxLifetime),
		DBInitSchema:       v.GetBool(KeyDBInitSchema),
		ServerHost:         v.GetString(KeyServerHost),
		ServerPort:         v.GetInt(KeyServerPort),
		ServerRoutePrefix:  v.GetString(KeyServerRoutePrefix),
		AuthUser:           v.GetString(KeyAuthUser),
		AuthPasswordHash:   v.GetString(KeyAuthPasswordHash),
		AuthRealm:          v.GetString(KeyAuthRealm),
		ServiceName:        v.GetString(KeyServiceName),
		ServiceDisplayName: v.GetString(KeyServiceDisplayName),
		ServiceDescription: v.GetString(KeyServiceDescription),
		LogSQL:             v.GetBool(KeyLogSQL),
		EnvFile:            envFile,
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate verifica os valores obrigatórios
func (c *EnvConfig) Validate() error {
	if c.DBDriver == "" {
		return fmt.Errorf("DB_DRIVER é obrigatório")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT inválida: %d", c.ServerPort)
	}
	if c.AuthUser != "" && c.AuthPasswordHash == "" {
		return fmt.Errorf("AUTH_PASSWORD_HASH é obrigatório quando AUTH_USER está definido")
	}
	if c.ServerRoutePrefix != "" && !strings.HasPrefix(c.ServerRoutePrefix, "/") {
		c.ServerRoutePrefix = "/" + c.ServerRoutePrefix
	}
	c.ServerRoutePrefix = strings.TrimSuffix(c.ServerRoutePrefix, "/")
	return nil
}

// Address retorna host:porta do servidor
func (c *EnvConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// AuthEnabled indica se as operações de escrita exigem autenticação
func (c *EnvConfig) AuthEnabled() bool {
	return c.AuthUser != ""
}

// findEnvFile busca o arquivo .env no diretório atual e nos diretórios pai
func findEnvFile() string {
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}
