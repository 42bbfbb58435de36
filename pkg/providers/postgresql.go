package providers

import (
	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgreSQLProvider implementa o provider para PostgreSQL
type PostgreSQLProvider struct {
	*BaseProvider
}

// NewPostgreSQLProvider cria uma nova instância do provider PostgreSQL
func NewPostgreSQLProvider() *PostgreSQLProvider {
	return &PostgreSQLProvider{
		BaseProvider: NewBaseProvider(nil, "pgx", &PostgreSQLDialect{}),
	}
}

// Connect conecta ao banco PostgreSQL
func (p *PostgreSQLProvider) Connect(connectionString string) error {
	return p.open(connectionString)
}
