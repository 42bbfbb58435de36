package demo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Códigos de ServiceError
const (
	MissingData = "MISSING_DATA"
	NotFound    = "NOT_FOUND"
	Duplicated  = "DUPLICATED"
)

// ServiceError é um erro de regra de negócio dos serviços
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError cria um ServiceError com mensagem formatada
func NewServiceError(code, format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsServiceError verifica se err é um ServiceError com o código informado
func IsServiceError(err error, code string) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr) && serviceErr.Code == code
}

var (
	oracleUniquePattern     = regexp.MustCompile(`ORA-00001`)
	oracleForeignKeyPattern = regexp.MustCompile(`ORA-0229[12]`)
)

// DescribeError traduz erros de serviço, validação e banco em uma mensagem legível
func DescribeError(err error) string {
	if err == nil {
		return ""
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062:
			return duplicatedMessage
		case 1451, 1452:
			return foreignKeyMessage
		}
		return strings.ToUpper(mysqlErr.Message)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return duplicatedMessage
		case "23503":
			return foreignKeyMessage
		}
		return strings.ToUpper(pgErr.Message)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		if msg := constraintMessage(sqliteErr.Error()); msg != "" {
			return msg
		}
	}

	if msg := constraintMessage(err.Error()); msg != "" {
		return msg
	}
	return strings.ToUpper(err.Error())
}

const (
	duplicatedMessage = "YA EXISTE UN REGISTRO CON LOS MISMOS DATOS"
	foreignKeyMessage = "EL REGISTRO HACE REFERENCIA A DATOS INEXISTENTES O ESTA REFERENCIADO POR OTROS REGISTROS"
)

// constraintMessage reconhece as mensagens de violação de restrição do sqlite e do oracle
func constraintMessage(text string) string {
	switch {
	case strings.Contains(text, "UNIQUE constraint failed"),
		strings.Contains(text, "PRIMARY KEY constraint failed"),
		oracleUniquePattern.MatchString(text):
		return duplicatedMessage
	case strings.Contains(text, "FOREIGN KEY constraint failed"),
		oracleForeignKeyPattern.MatchString(text):
		return foreignKeyMessage
	}
	return ""
}
