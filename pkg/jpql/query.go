package jpql

import (
	"context"
	"fmt"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/expression"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
)

// Fetch é um LEFT JOIN FETCH sobre uma navegação da entidade raiz
type Fetch struct {
	Path        string
	Navigations []*edm.NavigationProperty
}

// OrderBy é um item da cláusula ORDER BY
type OrderBy struct {
	Path       string
	Descending bool
}

// Query é uma consulta JPQL pronta para execução
type Query struct {
	EntityType *edm.EntityType
	Distinct   bool
	Fetches    []Fetch
	Where      string
	OrderBy    []OrderBy
	Params     map[string]interface{}
}

// ParamNames retorna os nomes dos parâmetros em ordem de criação
func (q *Query) ParamNames() []string {
	return paramNames(q.Params)
}

// String renderiza a consulta JPQL
func (q *Query) String() string {
	var sb strings.Builder

	sb.WriteString("SELECT ")
	if q.Distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(Alias)
	sb.WriteString(" FROM ")
	sb.WriteString(q.EntityType.Name)
	sb.WriteString(" ")
	sb.WriteString(Alias)

	for _, fetch := range q.Fetches {
		sb.WriteString(" LEFT JOIN FETCH ")
		sb.WriteString(fetch.Path)
	}

	if q.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(q.Where)
	}

	if len(q.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, item := range q.OrderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(item.Path)
			if item.Descending {
				sb.WriteString(" DESC")
			} else {
				sb.WriteString(" ASC")
			}
		}
	}

	return sb.String()
}

// QueryBuilder monta uma Query a partir das opções de consulta
type QueryBuilder struct {
	translator *Translator
	entityType *edm.EntityType
	distinct   bool
	expand     []expression.ExpandItem
	filter     expression.Expression
	orderBy    []expression.OrderByItem
}

// NewQueryBuilder cria um builder usando o tradutor informado (nil usa o padrão)
func NewQueryBuilder(translator *Translator) *QueryBuilder {
	if translator == nil {
		translator = defaultTranslator
	}
	return &QueryBuilder{translator: translator}
}

func (b *QueryBuilder) SetDistinct(distinct bool) *QueryBuilder {
	b.distinct = distinct
	return b
}

func (b *QueryBuilder) SetEntityType(et *edm.EntityType) *QueryBuilder {
	b.entityType = et
	return b
}

func (b *QueryBuilder) SetExpandOption(items []expression.ExpandItem) *QueryBuilder {
	b.expand = items
	return b
}

func (b *QueryBuilder) SetFilterOption(filter expression.Expression) *QueryBuilder {
	b.filter = filter
	return b
}

func (b *QueryBuilder) SetOrderByOption(items []expression.OrderByItem) *QueryBuilder {
	b.orderBy = items
	return b
}

// SetQueryOptions aplica filtro, ordenação e expansão de uma vez
func (b *QueryBuilder) SetQueryOptions(options odata.QueryOptions) *QueryBuilder {
	return b.SetFilterOption(options.Filter).
		SetOrderByOption(options.OrderBy).
		SetExpandOption(options.Expand)
}

// Build traduz filtro e ordenação com um único acumulador de parâmetros
func (b *QueryBuilder) Build(ctx context.Context) (*Query, error) {
	if b.entityType == nil {
		return nil, fmt.Errorf("query builder requires an entity type")
	}

	v := b.translator.newVisitContext(ctx, b.entityType)
	query := &Query{
		EntityType: b.entityType,
		Distinct:   b.distinct,
		Params:     v.params,
	}

	fetches, err := b.buildFetches()
	if err != nil {
		return nil, err
	}
	query.Fetches = fetches

	if b.filter != nil {
		where, err := v.visit(b.filter)
		if err != nil {
			return nil, err
		}
		query.Where = where.text()
	}

	for _, item := range b.orderBy {
		result, err := v.visit(item.Expression)
		if err != nil {
			return nil, err
		}
		if !result.isTerm() {
			return nil, odata.BadRequestErrorf("$orderby item %s must be a property or expression", item.Expression)
		}
		query.OrderBy = append(query.OrderBy, OrderBy{Path: result.jpql, Descending: item.Descending})
	}

	return query, nil
}

// buildFetches resolve os caminhos de $expand; prefixos repetidos geram um único fetch
func (b *QueryBuilder) buildFetches() ([]Fetch, error) {
	var fetches []Fetch
	seen := make(map[string]bool)

	for _, item := range b.expand {
		current := b.entityType
		path := Alias
		var navigations []*edm.NavigationProperty

		for _, name := range item.Path {
			nav, ok := current.Navigation(name)
			if !ok {
				return nil, odata.PropertyNotFoundError(name, current.Name)
			}
			navigations = append(navigations, nav)
			path += "." + nav.JPAPath()
			current = nav.Target

			if !seen[path] {
				seen[path] = true
				fetches = append(fetches, Fetch{
					Path:        path,
					Navigations: append([]*edm.NavigationProperty(nil), navigations...),
				})
			}
		}
	}

	return fetches, nil
}
