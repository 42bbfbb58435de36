package persistence

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/jpql"
	"github.com/fitlcarlos/go-data-jpa/pkg/providers"
)

const rootAlias = "t0"

var (
	pathPattern        = regexp.MustCompile(`\b` + jpql.Alias + `((?:\.[A-Za-z_][A-Za-z0-9_]*)+)`)
	dateExtractPattern = regexp.MustCompile(`\b(DAY|MONTH|YEAR)\(([^()]+)\)`)
	modPattern         = regexp.MustCompile(`\bMOD\(([^,()]+), ([^()]+)\)`)
	paramPattern       = regexp.MustCompile(`:(value\d+)\b`)
)

// Statement é um comando SQL pronto para o database/sql
type Statement struct {
	SQL  string
	Args []interface{}
}

// join é um LEFT JOIN gerado por um caminho que atravessa uma navegação
type join struct {
	alias       string
	parentAlias string
	nav         *edm.NavigationProperty
}

// renderer converte uma jpql.Query no SQL do dialeto
type renderer struct {
	dialect providers.Dialect
	root    *edm.EntityType
	joins   []join
	aliases map[string]string
}

// Render converte a consulta JPQL em SQL. Caminhos e.a.b viram colunas com LEFT JOIN,
// funções de data e MOD passam pelo dialeto e :valueN vira o marcador do banco.
// top e skip <= 0 não limitam o resultado.
func Render(query *jpql.Query, dialect providers.Dialect, top, skip int) (*Statement, error) {
	if query == nil || query.EntityType == nil {
		return nil, fmt.Errorf("query requires an entity type")
	}

	r := &renderer{
		dialect: dialect,
		root:    query.EntityType,
		aliases: make(map[string]string),
	}

	where, err := r.expression(query.Where)
	if err != nil {
		return nil, err
	}

	orderBy := make([]string, 0, len(query.OrderBy))
	for _, item := range query.OrderBy {
		term, err := r.expression(item.Path)
		if err != nil {
			return nil, err
		}
		if item.Descending {
			term += " DESC"
		} else {
			term += " ASC"
		}
		orderBy = append(orderBy, term)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	// Junções a-um não repetem linhas da raiz; só a junção de coleção precisa de DISTINCT.
	// Assim ORDER BY em colunas de junção segue válido no PostgreSQL e no Oracle.
	if r.hasCollectionJoin() {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(r.columns(rootAlias, r.root))
	sb.WriteString(" FROM ")
	sb.WriteString(dialect.QuoteIdentifier(r.root.Table))
	sb.WriteString(" ")
	sb.WriteString(rootAlias)

	for _, j := range r.joins {
		fmt.Fprintf(&sb, " LEFT JOIN %s %s ON %s.%s = %s.%s",
			dialect.QuoteIdentifier(j.nav.Target.Table), j.alias,
			j.alias, dialect.QuoteIdentifier(j.nav.TargetColumn),
			j.parentAlias, dialect.QuoteIdentifier(j.nav.LocalColumn))
	}

	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orderBy, ", "))
	}
	if limit := dialect.BuildLimitClause(top, skip); limit != "" {
		sb.WriteString(" ")
		sb.WriteString(limit)
	}

	return bindParams(sb.String(), query.Params, dialect)
}

// expression resolve caminhos e funções de um trecho JPQL
func (r *renderer) expression(text string) (string, error) {
	if text == "" {
		return "", nil
	}

	var resolveErr error
	resolved := pathPattern.ReplaceAllStringFunc(text, func(match string) string {
		column, err := r.resolvePath(strings.TrimPrefix(match, jpql.Alias+"."))
		if err != nil && resolveErr == nil {
			resolveErr = err
		}
		return column
	})
	if resolveErr != nil {
		return "", resolveErr
	}

	resolved = dateExtractPattern.ReplaceAllStringFunc(resolved, func(match string) string {
		parts := dateExtractPattern.FindStringSubmatch(match)
		return r.dialect.BuildDateExtractFunction(parts[1], parts[2])
	})
	resolved = modPattern.ReplaceAllStringFunc(resolved, func(match string) string {
		parts := modPattern.FindStringSubmatch(match)
		return r.dialect.BuildModFunction(parts[1], parts[2])
	})

	return resolved, nil
}

// resolvePath converte um caminho JPA em alias.coluna. Propriedades cujo caminho
// atravessa uma navegação (pais.id) são resolvidas na própria tabela sem junção.
func (r *renderer) resolvePath(path string) (string, error) {
	segments := strings.Split(path, ".")
	current := r.root
	alias := rootAlias
	navPath := ""

	for i := range segments {
		if prop, ok := current.PropertyByPath(strings.Join(segments[i:], ".")); ok {
			return alias + "." + r.dialect.QuoteIdentifier(prop.Column), nil
		}

		nav, ok := current.NavigationByPath(segments[i])
		if !ok {
			break
		}
		if navPath != "" {
			navPath += "."
		}
		navPath += segments[i]
		alias = r.join(navPath, alias, nav)
		current = nav.Target
	}

	return "", fmt.Errorf("cannot resolve path %s.%s on entity %s", jpql.Alias, path, r.root.Name)
}

func (r *renderer) join(navPath, parentAlias string, nav *edm.NavigationProperty) string {
	if alias, ok := r.aliases[navPath]; ok {
		return alias
	}
	alias := "t" + strconv.Itoa(len(r.joins)+1)
	r.aliases[navPath] = alias
	r.joins = append(r.joins, join{alias: alias, parentAlias: parentAlias, nav: nav})
	return alias
}

func (r *renderer) hasCollectionJoin() bool {
	for _, j := range r.joins {
		if j.nav.Collection {
			return true
		}
	}
	return false
}

func (r *renderer) columns(alias string, et *edm.EntityType) string {
	return selectColumns(alias, et, r.dialect)
}

func selectColumns(alias string, et *edm.EntityType, dialect providers.Dialect) string {
	columns := make([]string, len(et.Properties))
	for i, prop := range et.Properties {
		columns[i] = alias + "." + dialect.QuoteIdentifier(prop.Column)
	}
	return strings.Join(columns, ", ")
}

// bindParams troca :valueN pelo marcador do dialeto na ordem em que aparecem
func bindParams(text string, params map[string]interface{}, dialect providers.Dialect) (*Statement, error) {
	args := newArgList(dialect)
	var bindErr error

	rendered := paramPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimPrefix(match, ":")
		value, ok := params[name]
		if !ok {
			if bindErr == nil {
				bindErr = fmt.Errorf("parameter %s has no value", name)
			}
			return match
		}
		return args.addNamed(name, value)
	})
	if bindErr != nil {
		return nil, bindErr
	}

	return &Statement{SQL: rendered, Args: args.values}, nil
}

// argList acumula argumentos no formato esperado pelo dialeto
type argList struct {
	dialect providers.Dialect
	values  []interface{}
}

func newArgList(dialect providers.Dialect) *argList {
	return &argList{dialect: dialect}
}

// add registra um argumento com nome gerado
func (a *argList) add(value interface{}) string {
	return a.addNamed("p"+strconv.Itoa(len(a.values)), value)
}

func (a *argList) addNamed(name string, value interface{}) string {
	value = normalizeArg(value)
	if a.dialect.NamedArgs() {
		a.values = append(a.values, sql.Named(name, value))
	} else {
		a.values = append(a.values, value)
	}
	return a.dialect.Placeholder(name, len(a.values))
}

// normalizeArg converte valores do modelo para tipos aceitos pelos drivers
func normalizeArg(value interface{}) interface{} {
	switch v := value.(type) {
	case edm.EnumMember:
		return v.Ordinal()
	case int32:
		return int64(v)
	}
	return value
}
