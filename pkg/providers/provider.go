package providers

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DatabaseProvider é a conexão com um banco e o dialeto usado para gerar SQL
type DatabaseProvider interface {
	Connect(connectionString string) error
	Close() error
	GetConnection() *sql.DB
	GetDriverName() string
	GetDialect() Dialect
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// PoolConfig configura o pool de conexões do database/sql
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// BaseProvider implementa funcionalidades comuns a todos os providers
type BaseProvider struct {
	db         *sql.DB
	driverName string
	dialect    Dialect
	pool       PoolConfig
}

// NewBaseProvider cria um BaseProvider; connection pode ser nil até Connect
func NewBaseProvider(connection *sql.DB, driverName string, dialect Dialect) *BaseProvider {
	return &BaseProvider{
		db:         connection,
		driverName: driverName,
		dialect:    dialect,
	}
}

// SetPoolConfig define o pool aplicado na próxima conexão
func (p *BaseProvider) SetPoolConfig(pool PoolConfig) {
	p.pool = pool
}

// open abre e testa a conexão com o driver registrado no database/sql
func (p *BaseProvider) open(connectionString string) error {
	db, err := sql.Open(p.driverName, connectionString)
	if err != nil {
		return fmt.Errorf("failed to open %s connection: %w", p.dialect.GetName(), err)
	}

	if p.pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.pool.MaxOpenConns)
	}
	if p.pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.pool.MaxIdleConns)
	}
	lifetime := p.pool.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}
	db.SetConnMaxLifetime(lifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping %s: %w", p.dialect.GetName(), err)
	}

	p.db = db
	return nil
}

// GetConnection retorna a conexão com o banco
func (p *BaseProvider) GetConnection() *sql.DB {
	return p.db
}

// GetDriverName retorna o nome do driver
func (p *BaseProvider) GetDriverName() string {
	return p.driverName
}

// GetDialect retorna o dialeto SQL do provider
func (p *BaseProvider) GetDialect() Dialect {
	return p.dialect
}

// BeginTx inicia uma transação
func (p *BaseProvider) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if p.db == nil {
		return nil, fmt.Errorf("database connection is nil - make sure the provider is properly connected")
	}
	return p.db.BeginTx(ctx, opts)
}

// Close fecha a conexão com o banco
func (p *BaseProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// ProviderFactory é uma função que cria um provider de banco de dados
type ProviderFactory func() DatabaseProvider

var (
	providerRegistryMu sync.RWMutex
	providerRegistry   = make(map[string]ProviderFactory)
)

// RegisterProvider registra uma factory de provider para um tipo específico
func RegisterProvider(dbType string, factory ProviderFactory) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[strings.ToLower(dbType)] = factory
}

// NewProvider cria um provider não conectado para o tipo informado
func NewProvider(dbType string) (DatabaseProvider, error) {
	providerRegistryMu.RLock()
	factory, exists := providerRegistry[strings.ToLower(dbType)]
	providerRegistryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported database driver: %s", dbType)
	}
	return factory(), nil
}

// RegisteredProviders lista os tipos de banco registrados
func RegisteredProviders() []string {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()

	names := make([]string, 0, len(providerRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterProvider("sqlite", func() DatabaseProvider { return NewSQLiteProvider() })
	RegisterProvider("mysql", func() DatabaseProvider { return NewMySQLProvider() })
	RegisterProvider("postgresql", func() DatabaseProvider { return NewPostgreSQLProvider() })
	RegisterProvider("postgres", func() DatabaseProvider { return NewPostgreSQLProvider() })
	RegisterProvider("oracle", func() DatabaseProvider { return NewOracleProvider() })
}
