package providers

import (
	_ "github.com/go-sql-driver/mysql"
)

// MySQLProvider implementa o provider para MySQL
type MySQLProvider struct {
	*BaseProvider
}

// NewMySQLProvider cria uma nova instância do provider MySQL
func NewMySQLProvider() *MySQLProvider {
	return &MySQLProvider{
		BaseProvider: NewBaseProvider(nil, "mysql", &MySQLDialect{}),
	}
}

// Connect conecta ao banco MySQL
func (p *MySQLProvider) Connect(connectionString string) error {
	return p.open(connectionString)
}
