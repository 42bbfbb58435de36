package providers

import (
	_ "github.com/sijms/go-ora/v2"
)

// OracleProvider implementa o provider para Oracle
type OracleProvider struct {
	*BaseProvider
}

// NewOracleProvider cria uma nova instância do provider Oracle
func NewOracleProvider() *OracleProvider {
	return &OracleProvider{
		BaseProvider: NewBaseProvider(nil, "oracle", &OracleDialect{}),
	}
}

// Connect conecta ao banco Oracle
func (p *OracleProvider) Connect(connectionString string) error {
	return p.open(connectionString)
}
