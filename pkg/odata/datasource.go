package odata

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/fitlcarlos/go-data-jpa/pkg/expression"
)

// QueryOptions representa as opções de consulta aplicadas a uma coleção
type QueryOptions struct {
	Filter  expression.Expression
	OrderBy []expression.OrderByItem
	Expand  []expression.ExpandItem

	// Top e Skip <= 0 não limitam o resultado
	Top  int
	Skip int
}

// SetPaging interpreta $top e $skip; valores vazios são ignorados
func (o *QueryOptions) SetPaging(top, skip string) error {
	var err error
	if o.Top, err = parseNonNegative("$top", top); err != nil {
		return err
	}
	if o.Skip, err = parseNonNegative("$skip", skip); err != nil {
		return err
	}
	return nil
}

func parseNonNegative(option, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		appErr := BadRequestErrorf("%s must be a non-negative integer: %s", option, value)
		appErr.Target = option
		return 0, appErr
	}
	return n, nil
}

// ParseQueryOptions analisa $filter, $orderby e $expand. Erros de sintaxe são BadRequest.
func ParseQueryOptions(ctx context.Context, filter, orderBy, expand string) (QueryOptions, error) {
	var options QueryOptions
	var err error

	if options.Filter, err = expression.ParseFilter(ctx, filter); err != nil {
		return options, InvalidFilterError(filter, err)
	}

	if options.OrderBy, err = expression.ParseOrderBy(ctx, orderBy); err != nil {
		appErr := BadRequestError(err.Error())
		appErr.Target = "$orderby"
		return options, appErr
	}

	if options.Expand, err = expression.ParseExpand(expand); err != nil {
		appErr := BadRequestError(err.Error())
		appErr.Target = "$expand"
		return options, appErr
	}

	return options, nil
}

// DataSource adapta um entity set às operações de leitura e escrita
type DataSource interface {
	// EntitySet retorna o nome do entity set atendido
	EntitySet() string

	// NewEntity retorna um valor vazio para decodificar o corpo da requisição
	NewEntity() interface{}

	Create(ctx context.Context, entity interface{}) (interface{}, error)

	// Update substitui (PUT) ou aplica apenas as propriedades presentes no JSON (PATCH)
	Update(ctx context.Context, keys KeyPredicates, entity interface{}, propertiesInJSON []string, isPut bool) (interface{}, error)

	Delete(ctx context.Context, keys KeyPredicates) error

	// ReadFromKey retorna nil sem erro quando a entidade não existe
	ReadFromKey(ctx context.Context, keys KeyPredicates, expand []expression.ExpandItem) (interface{}, error)

	ReadAll(ctx context.Context, options QueryOptions) (interface{}, error)
}

// DataSources guarda os data sources por entity set
type DataSources struct {
	mu      sync.RWMutex
	sources map[string]DataSource
}

// NewDataSources cria um conjunto vazio
func NewDataSources() *DataSources {
	return &DataSources{sources: make(map[string]DataSource)}
}

// Register adiciona um data source
func (d *DataSources) Register(source DataSource) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.sources[source.EntitySet()]; exists {
		return fmt.Errorf("data source for %s already registered", source.EntitySet())
	}
	d.sources[source.EntitySet()] = source
	return nil
}

// Get retorna o data source do entity set
func (d *DataSources) Get(entitySet string) (DataSource, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	source, ok := d.sources[entitySet]
	return source, ok
}

// EntitySets retorna os entity sets atendidos em ordem alfabética
func (d *DataSources) EntitySets() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.sources))
	for name := range d.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
