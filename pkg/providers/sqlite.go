package providers

import (
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implementa o provider para SQLite
type SQLiteProvider struct {
	*BaseProvider
}

// NewSQLiteProvider cria uma nova instância do provider SQLite
func NewSQLiteProvider() *SQLiteProvider {
	return &SQLiteProvider{
		BaseProvider: NewBaseProvider(nil, "sqlite", &SQLiteDialect{}),
	}
}

// Connect abre o arquivo (ou ":memory:") e habilita chaves estrangeiras
func (p *SQLiteProvider) Connect(connectionString string) error {
	if connectionString == "" {
		connectionString = ":memory:"
	}

	// Cada conexão em memória é um banco distinto
	if strings.Contains(connectionString, ":memory:") {
		p.pool.MaxOpenConns = 1
		p.pool.MaxIdleConns = 1
		p.pool.ConnMaxLifetime = -1
	}

	if err := p.open(connectionString); err != nil {
		return err
	}

	if _, err := p.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
	}
	return nil
}
