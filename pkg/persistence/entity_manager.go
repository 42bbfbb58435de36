package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/jpql"
	"github.com/fitlcarlos/go-data-jpa/pkg/providers"
)

// DefaultBatchSize é o número máximo de chaves em cada IN (...) de carga de navegações
const DefaultBatchSize = 100

var (
	// ErrEntityNotFound indica que nenhuma linha foi afetada pela chave informada
	ErrEntityNotFound = errors.New("entity not found")
	// ErrUnknownEntity indica um valor cujo tipo não está no registry
	ErrUnknownEntity = errors.New("entity type is not registered")
)

// executor é atendido por *sql.DB e *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// EntityManager executa consultas JPQL e operações de escrita sobre as entidades do registry
type EntityManager struct {
	db        *sql.DB
	exec      executor
	dialect   providers.Dialect
	registry  *edm.Registry
	logger    *log.Logger
	logSQL    bool
	batchSize int
}

// NewEntityManager cria um EntityManager sobre um provider conectado
func NewEntityManager(provider providers.DatabaseProvider, registry *edm.Registry, logger *log.Logger) (*EntityManager, error) {
	db := provider.GetConnection()
	if db == nil {
		return nil, fmt.Errorf("database connection is nil - make sure the provider is properly connected")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	return &EntityManager{
		db:        db,
		exec:      db,
		dialect:   provider.GetDialect(),
		registry:  registry,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}, nil
}

// SetLogSQL habilita o log de cada comando executado
func (em *EntityManager) SetLogSQL(enabled bool) {
	em.logSQL = enabled
}

// SetBatchSize define o tamanho dos lotes de carga de navegações
func (em *EntityManager) SetBatchSize(size int) {
	if size > 0 {
		em.batchSize = size
	}
}

// Dialect retorna o dialeto do banco
func (em *EntityManager) Dialect() providers.Dialect {
	return em.dialect
}

// Registry retorna o registry das entidades
func (em *EntityManager) Registry() *edm.Registry {
	return em.registry
}

// Transaction executa fn em uma transação; erro ou pânico fazem rollback.
// Dentro de uma transação, fn recebe o próprio EntityManager.
func (em *EntityManager) Transaction(ctx context.Context, fn func(tx *EntityManager) error) (err error) {
	if _, inTx := em.exec.(*sql.Tx); inTx {
		return fn(em)
	}

	tx, err := em.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txManager := *em
	txManager.exec = tx

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				em.logger.Printf("rollback failed: %v", rbErr)
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(&txManager)
}

// ResultList executa a consulta e carrega as navegações de LEFT JOIN FETCH
func (em *EntityManager) ResultList(ctx context.Context, query *jpql.Query) ([]interface{}, error) {
	return em.PagedResultList(ctx, query, 0, 0)
}

// PagedResultList é como ResultList limitando o resultado com top e skip
func (em *EntityManager) PagedResultList(ctx context.Context, query *jpql.Query, top, skip int) ([]interface{}, error) {
	stmt, err := Render(query, em.dialect, top, skip)
	if err != nil {
		return nil, err
	}

	result, err := em.queryEntities(ctx, query.EntityType, stmt)
	if err != nil {
		return nil, err
	}

	if err := em.loadFetches(ctx, query.EntityType, result, query.Fetches); err != nil {
		return nil, err
	}
	return result, nil
}

// Find busca uma entidade pela chave; retorna nil quando não existe
func (em *EntityManager) Find(ctx context.Context, et *edm.EntityType, keys map[string]interface{}, fetches ...jpql.Fetch) (interface{}, error) {
	query := &jpql.Query{
		EntityType: et,
		Fetches:    fetches,
		Params:     make(map[string]interface{}),
	}

	conditions := make([]string, 0, len(et.Keys))
	for i, prop := range et.KeyProperties() {
		value, ok := keys[prop.Name]
		if !ok {
			return nil, fmt.Errorf("missing key %s for entity %s", prop.Name, et.Name)
		}
		name := fmt.Sprintf("value%d", i)
		query.Params[name] = value
		conditions = append(conditions, fmt.Sprintf("%s.%s = :%s", jpql.Alias, prop.JPAPath(), name))
	}
	query.Where = strings.Join(conditions, " AND ")

	result, err := em.ResultList(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

// Persist insere a entidade. Uma chave inteira única com valor zero é gerada pelo banco.
func (em *EntityManager) Persist(ctx context.Context, entity interface{}) error {
	et, value, err := em.entityValue(entity)
	if err != nil {
		return err
	}

	args := newArgList(em.dialect)
	var columns, placeholders []string
	var generated *edm.Property

	keys := et.KeyProperties()
	for _, prop := range et.Properties {
		field := value.FieldByName(prop.GoField)
		if len(keys) == 1 && prop == keys[0] && isIntKind(field) && field.Int() == 0 {
			generated = prop
			continue
		}

		v, err := columnValue(field, prop)
		if err != nil {
			return err
		}
		columns = append(columns, em.dialect.QuoteIdentifier(prop.Column))
		placeholders = append(placeholders, args.add(v))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		em.dialect.QuoteIdentifier(et.Table), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	res, err := em.execContext(ctx, query, args.values)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", et.Name, err)
	}

	if generated != nil {
		if id, err := res.LastInsertId(); err == nil {
			value.FieldByName(generated.GoField).SetInt(id)
		}
	}
	return nil
}

// Merge atualiza todas as colunas não chave da entidade
func (em *EntityManager) Merge(ctx context.Context, entity interface{}) error {
	et, value, err := em.entityValue(entity)
	if err != nil {
		return err
	}

	args := newArgList(em.dialect)
	var sets []string
	for _, prop := range et.Properties {
		if prop.IsKey {
			continue
		}
		v, err := columnValue(value.FieldByName(prop.GoField), prop)
		if err != nil {
			return err
		}
		sets = append(sets, fmt.Sprintf("%s = %s", em.dialect.QuoteIdentifier(prop.Column), args.add(v)))
	}
	if len(sets) == 0 {
		return nil
	}

	where, err := em.keyCondition(et, value, args)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		em.dialect.QuoteIdentifier(et.Table), strings.Join(sets, ", "), where)

	if _, err := em.execContext(ctx, query, args.values); err != nil {
		return fmt.Errorf("failed to update %s: %w", et.Name, err)
	}
	return nil
}

// Remove exclui a entidade pela chave; ErrEntityNotFound quando nenhuma linha é afetada
func (em *EntityManager) Remove(ctx context.Context, entity interface{}) error {
	et, value, err := em.entityValue(entity)
	if err != nil {
		return err
	}

	args := newArgList(em.dialect)
	where, err := em.keyCondition(et, value, args)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", em.dialect.QuoteIdentifier(et.Table), where)
	res, err := em.execContext(ctx, query, args.values)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", et.Name, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrEntityNotFound
	}
	return nil
}

// Exec executa um comando SQL arbitrário (DDL, carga de dados)
func (em *EntityManager) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := em.execContext(ctx, query, args)
	return err
}

func (em *EntityManager) keyCondition(et *edm.EntityType, value reflect.Value, args *argList) (string, error) {
	var conditions []string
	for _, prop := range et.KeyProperties() {
		v, err := columnValue(value.FieldByName(prop.GoField), prop)
		if err != nil {
			return "", err
		}
		conditions = append(conditions, fmt.Sprintf("%s = %s", em.dialect.QuoteIdentifier(prop.Column), args.add(v)))
	}
	if len(conditions) == 0 {
		return "", fmt.Errorf("entity %s has no primary key", et.Name)
	}
	return strings.Join(conditions, " AND "), nil
}

// entityValue resolve o EntityType e o valor endereçável de um ponteiro para struct
func (em *EntityManager) entityValue(entity interface{}) (*edm.EntityType, reflect.Value, error) {
	value := reflect.ValueOf(entity)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return nil, reflect.Value{}, fmt.Errorf("entity must be a non-nil pointer, got %T", entity)
	}

	et, ok := em.registry.EntityTypeOf(entity)
	if !ok {
		return nil, reflect.Value{}, fmt.Errorf("%w: %T", ErrUnknownEntity, entity)
	}
	return et, value.Elem(), nil
}

func (em *EntityManager) queryEntities(ctx context.Context, et *edm.EntityType, stmt *Statement) ([]interface{}, error) {
	if em.logSQL {
		em.logger.Printf("SQL: %s %v", stmt.SQL, stmt.Args)
	}

	rows, err := em.exec.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", et.Name, err)
	}
	defer rows.Close()

	return scanEntities(rows, et)
}

func (em *EntityManager) execContext(ctx context.Context, query string, args []interface{}) (sql.Result, error) {
	if em.logSQL {
		em.logger.Printf("SQL: %s %v", query, args)
	}
	return em.exec.ExecContext(ctx, query, args...)
}

func isIntKind(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}
