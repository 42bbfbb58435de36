package providers

import (
	"fmt"
	"strings"
)

// Dialect define as diferenças de SQL entre os bancos suportados
type Dialect interface {
	// GetName retorna o nome do dialeto (sqlite, mysql, postgresql, oracle)
	GetName() string

	// Placeholder retorna o marcador do parâmetro nomeado name na posição index (base 1)
	Placeholder(name string, index int) string

	// NamedArgs indica se os argumentos são passados com sql.Named
	NamedArgs() bool

	// BuildLimitClause constrói cláusula LIMIT/OFFSET (ou equivalente)
	BuildLimitClause(top, skip int) string

	// QuoteIdentifier adiciona quotes apropriados para identificadores
	QuoteIdentifier(identifier string) string

	// BuildDateExtractFunction constrói função de extração de data (YEAR, MONTH, DAY)
	BuildDateExtractFunction(functionName, arg string) string

	// BuildModFunction constrói o resto da divisão
	BuildModFunction(left, right string) string
}

// GetDialect retorna a implementação de dialect apropriada
func GetDialect(name string) Dialect {
	switch strings.ToLower(name) {
	case "mysql":
		return &MySQLDialect{}
	case "postgresql", "postgres", "pgx":
		return &PostgreSQLDialect{}
	case "oracle":
		return &OracleDialect{}
	default:
		return &SQLiteDialect{}
	}
}

// limitOffset é a forma LIMIT/OFFSET comum a sqlite, mysql e postgresql
func limitOffset(top, skip int) string {
	if top > 0 && skip > 0 {
		return fmt.Sprintf("LIMIT %d OFFSET %d", top, skip)
	} else if top > 0 {
		return fmt.Sprintf("LIMIT %d", top)
	} else if skip > 0 {
		return fmt.Sprintf("LIMIT -1 OFFSET %d", skip)
	}
	return ""
}

// SQLiteDialect implementa Dialect para SQLite (modernc.org/sqlite)
type SQLiteDialect struct{}

func (d *SQLiteDialect) GetName() string {
	return "sqlite"
}

func (d *SQLiteDialect) Placeholder(name string, index int) string {
	return ":" + name
}

func (d *SQLiteDialect) NamedArgs() bool {
	return true
}

func (d *SQLiteDialect) BuildLimitClause(top, skip int) string {
	return limitOffset(top, skip)
}

func (d *SQLiteDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, identifier)
}

// BuildDateExtractFunction usa strftime; datas são gravadas como texto ISO
func (d *SQLiteDialect) BuildDateExtractFunction(functionName, arg string) string {
	format := map[string]string{"YEAR": "%Y", "MONTH": "%m", "DAY": "%d"}[strings.ToUpper(functionName)]
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", format, arg)
}

func (d *SQLiteDialect) BuildModFunction(left, right string) string {
	return fmt.Sprintf("(%s %% %s)", left, right)
}

// MySQLDialect implementa Dialect para MySQL
type MySQLDialect struct{}

func (d *MySQLDialect) GetName() string {
	return "mysql"
}

func (d *MySQLDialect) Placeholder(name string, index int) string {
	return "?"
}

func (d *MySQLDialect) NamedArgs() bool {
	return false
}

// BuildLimitClause constrói cláusula LIMIT/OFFSET para MySQL
func (d *MySQLDialect) BuildLimitClause(top, skip int) string {
	if top <= 0 && skip > 0 {
		return fmt.Sprintf("LIMIT 18446744073709551615 OFFSET %d", skip)
	}
	return limitOffset(top, skip)
}

// QuoteIdentifier adiciona backticks para identificadores MySQL
func (d *MySQLDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf("`%s`", identifier)
}

func (d *MySQLDialect) BuildDateExtractFunction(functionName, arg string) string {
	return fmt.Sprintf("%s(%s)", strings.ToUpper(functionName), arg)
}

func (d *MySQLDialect) BuildModFunction(left, right string) string {
	return fmt.Sprintf("MOD(%s, %s)", left, right)
}

// PostgreSQLDialect implementa Dialect para PostgreSQL (pgx)
type PostgreSQLDialect struct{}

func (d *PostgreSQLDialect) GetName() string {
	return "postgresql"
}

func (d *PostgreSQLDialect) Placeholder(name string, index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgreSQLDialect) NamedArgs() bool {
	return false
}

// BuildLimitClause constrói cláusula LIMIT/OFFSET para PostgreSQL
func (d *PostgreSQLDialect) BuildLimitClause(top, skip int) string {
	if top <= 0 && skip > 0 {
		return fmt.Sprintf("OFFSET %d", skip)
	}
	return limitOffset(top, skip)
}

// QuoteIdentifier adiciona aspas duplas para identificadores PostgreSQL
func (d *PostgreSQLDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, identifier)
}

func (d *PostgreSQLDialect) BuildDateExtractFunction(functionName, arg string) string {
	return fmt.Sprintf("EXTRACT(%s FROM %s)", strings.ToUpper(functionName), arg)
}

func (d *PostgreSQLDialect) BuildModFunction(left, right string) string {
	return fmt.Sprintf("MOD(%s, %s)", left, right)
}

// OracleDialect implementa Dialect para Oracle (go-ora)
type OracleDialect struct{}

func (d *OracleDialect) GetName() string {
	return "oracle"
}

func (d *OracleDialect) Placeholder(name string, index int) string {
	return ":" + name
}

func (d *OracleDialect) NamedArgs() bool {
	return true
}

// BuildLimitClause constrói cláusula OFFSET/FETCH para Oracle
func (d *OracleDialect) BuildLimitClause(top, skip int) string {
	if top > 0 && skip > 0 {
		return fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", skip, top)
	} else if top > 0 {
		return fmt.Sprintf("FETCH NEXT %d ROWS ONLY", top)
	} else if skip > 0 {
		return fmt.Sprintf("OFFSET %d ROWS", skip)
	}
	return ""
}

// QuoteIdentifier usa maiúsculas; identificadores Oracle sem aspas são criados assim
func (d *OracleDialect) QuoteIdentifier(identifier string) string {
	return fmt.Sprintf(`"%s"`, strings.ToUpper(identifier))
}

func (d *OracleDialect) BuildDateExtractFunction(functionName, arg string) string {
	return fmt.Sprintf("EXTRACT(%s FROM %s)", strings.ToUpper(functionName), arg)
}

func (d *OracleDialect) BuildModFunction(left, right string) string {
	return fmt.Sprintf("MOD(%s, %s)", left, right)
}
