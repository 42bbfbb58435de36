package odata

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
)

// Códigos de erro devolvidos ao cliente
const (
	CodeBadRequest             = "BadRequest"
	CodePropertyNotFound       = "PropertyNotFound"
	CodeInvalidDate            = "InvalidDate"
	CodeInvalidMethodArguments = "InvalidMethodArguments"
	CodeInvalidFilter          = "InvalidFilter"
	CodeNotImplemented         = "NotImplemented"
	CodeEntityNotFound         = "EntityNotFound"
	CodeInternalError          = "InternalError"
)

// ODataError representa o corpo de erro no formato OData
type ODataError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Target  string `json:"target,omitempty"`
}

// ApplicationError é um erro destinado ao cliente, com o status HTTP correspondente
type ApplicationError struct {
	Status  int
	Code    string
	Message string
	Target  string
	Err     error
}

func (e *ApplicationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// ODataError converte para o corpo de resposta
func (e *ApplicationError) ODataError() *ODataError {
	return &ODataError{
		Code:    e.Code,
		Message: e.Message,
		Target:  e.Target,
	}
}

// NewApplicationError cria um novo erro de aplicação
func NewApplicationError(status int, code, message string) *ApplicationError {
	return &ApplicationError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

// BadRequestError cria um erro de requisição inválida
func BadRequestError(message string) *ApplicationError {
	return NewApplicationError(fiber.StatusBadRequest, CodeBadRequest, message)
}

// BadRequestErrorf cria um erro de requisição inválida com mensagem formatada
func BadRequestErrorf(format string, args ...interface{}) *ApplicationError {
	return BadRequestError(fmt.Sprintf(format, args...))
}

// PropertyNotFoundError cria um erro de propriedade não encontrada
func PropertyNotFoundError(propertyName, entityName string) *ApplicationError {
	return &ApplicationError{
		Status:  fiber.StatusBadRequest,
		Code:    CodePropertyNotFound,
		Message: fmt.Sprintf("Property '%s' not found in entity '%s'", propertyName, entityName),
		Target:  fmt.Sprintf("%s.%s", entityName, propertyName),
	}
}

// InvalidDateError cria um erro para datas fora do formato yyyy-MM-dd
func InvalidDateError(value string, err error) *ApplicationError {
	return &ApplicationError{
		Status:  fiber.StatusBadRequest,
		Code:    CodeInvalidDate,
		Message: fmt.Sprintf("Invalid date '%s', expected yyyy-MM-dd", value),
		Err:     err,
	}
}

// InvalidMethodArgumentsError cria um erro para argumentos inválidos de um método
func InvalidMethodArgumentsError(method, message string) *ApplicationError {
	return &ApplicationError{
		Status:  fiber.StatusBadRequest,
		Code:    CodeInvalidMethodArguments,
		Message: message,
		Target:  method,
	}
}

// InvalidFilterError cria um erro de filtro inválido
func InvalidFilterError(filter string, err error) *ApplicationError {
	return &ApplicationError{
		Status:  fiber.StatusBadRequest,
		Code:    CodeInvalidFilter,
		Message: fmt.Sprintf("Invalid filter expression: %s", filter),
		Target:  "$filter",
		Err:     err,
	}
}

// NotImplementedError cria um erro para construções não suportadas
func NotImplementedError(message string) *ApplicationError {
	return NewApplicationError(fiber.StatusNotImplemented, CodeNotImplemented, message)
}

// EntityNotFoundError cria um erro de entidade não encontrada
func EntityNotFoundError(message string) *ApplicationError {
	return NewApplicationError(fiber.StatusNotFound, CodeEntityNotFound, message)
}

// InternalError encapsula um erro inesperado
func InternalError(err error) *ApplicationError {
	return &ApplicationError{
		Status:  fiber.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "Internal server error",
		Err:     err,
	}
}

// AsApplicationError extrai um ApplicationError da cadeia de erros
func AsApplicationError(err error) (*ApplicationError, bool) {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf retorna o status HTTP de um erro; erros desconhecidos são 500
func StatusOf(err error) int {
	if err == nil {
		return fiber.StatusOK
	}
	if appErr, ok := AsApplicationError(err); ok {
		return appErr.Status
	}
	return fiber.StatusInternalServerError
}
