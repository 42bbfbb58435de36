package persistence

import (
	"database/sql"
	"testing"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/jpql"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
	"github.com/fitlcarlos/go-data-jpa/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const provinciaColumns = `t0."id", t0."pais_id", t0."nombre", t0."fundacion", t0."estado"`

func buildQuery(t *testing.T, et *edm.EntityType, filter, orderBy, expand string) *jpql.Query {
	t.Helper()

	options, err := odata.ParseQueryOptions(background, filter, orderBy, expand)
	require.NoError(t, err)

	query, err := jpql.NewQueryBuilder(nil).SetEntityType(et).SetQueryOptions(options).Build(background)
	require.NoError(t, err)
	return query
}

func TestRender(t *testing.T) {
	reg := newTestRegistry()
	provincias, _ := reg.EntitySet("Provincias")

	tests := []struct {
		name     string
		dialect  string
		filter   string
		orderBy  string
		top      int
		skip     int
		expected string
		args     []interface{}
	}{
		{
			name:     "NavigationJoin",
			dialect:  "sqlite",
			filter:   "nombre eq 'X' and pais/nombre eq 'Y'",
			orderBy:  "id desc",
			expected: `SELECT ` + provinciaColumns + ` FROM "provincias" t0 LEFT JOIN "paises" t1 ON t1."id" = t0."pais_id" WHERE t0."nombre" = :value0 AND t1."nombre" = :value1 ORDER BY t0."id" DESC`,
			args:     []interface{}{sql.Named("value0", "X"), sql.Named("value1", "Y")},
		},
		{
			name:     "PositionalWithLimit",
			dialect:  "postgresql",
			filter:   "nombre eq 'X' and pais/nombre eq 'Y'",
			top:      10,
			skip:     20,
			expected: `SELECT ` + provinciaColumns + ` FROM "provincias" t0 LEFT JOIN "paises" t1 ON t1."id" = t0."pais_id" WHERE t0."nombre" = $1 AND t1."nombre" = $2 LIMIT 10 OFFSET 20`,
			args:     []interface{}{"X", "Y"},
		},
		{
			name:     "ForeignKeyPathWithoutJoin",
			dialect:  "mysql",
			filter:   "paisId eq 1",
			expected: "SELECT t0.`id`, t0.`pais_id`, t0.`nombre`, t0.`fundacion`, t0.`estado` FROM `provincias` t0 WHERE t0.`pais_id` = ?",
			args:     []interface{}{int64(1)},
		},
		{
			name:     "DateExtract",
			dialect:  "sqlite",
			filter:   "year(fundacion) eq 1573",
			expected: `SELECT ` + provinciaColumns + ` FROM "provincias" t0 WHERE CAST(strftime('%Y', t0."fundacion") AS INTEGER) = :value0`,
			args:     []interface{}{sql.Named("value0", int64(1573))},
		},
		{
			name:     "DateExtractOracle",
			dialect:  "oracle",
			filter:   "month(fundacion) eq 7",
			expected: `SELECT t0."ID", t0."PAIS_ID", t0."NOMBRE", t0."FUNDACION", t0."ESTADO" FROM "PROVINCIAS" t0 WHERE EXTRACT(MONTH FROM t0."FUNDACION") = :value0`,
			args:     []interface{}{sql.Named("value0", int64(7))},
		},
		{
			name:     "Mod",
			dialect:  "sqlite",
			filter:   "id mod 2 eq 1",
			expected: `SELECT ` + provinciaColumns + ` FROM "provincias" t0 WHERE (t0."id" % :value0) = :value1`,
			args:     []interface{}{sql.Named("value0", int64(2)), sql.Named("value1", int64(1))},
		},
		{
			name:     "IsNullAndNot",
			dialect:  "postgresql",
			filter:   "not (nombre eq null)",
			expected: `SELECT ` + provinciaColumns + ` FROM "provincias" t0 WHERE NOT (t0."nombre" IS NULL)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := buildQuery(t, provincias, tt.filter, tt.orderBy, "")

			stmt, err := Render(query, providers.GetDialect(tt.dialect), tt.top, tt.skip)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, stmt.SQL)
			assert.Equal(t, tt.args, stmt.Args)
		})
	}
}

func TestRender_EnumArgs(t *testing.T) {
	stmt, err := Render(&jpql.Query{
		EntityType: newTestEnvType(t, "Provincias"),
		Where:      "e.estado = :value0",
		Params:     map[string]interface{}{"value0": edm.EnumMember{Name: "INACTIVE", Value: 1}},
	}, providers.GetDialect("mysql"), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1)}, stmt.Args)
}

func TestRender_Errors(t *testing.T) {
	et := newTestEnvType(t, "Provincias")
	dialect := providers.GetDialect("sqlite")

	_, err := Render(&jpql.Query{EntityType: et, Where: "e.foo = :value0", Params: map[string]interface{}{"value0": 1}}, dialect, 0, 0)
	assert.Error(t, err)

	_, err = Render(&jpql.Query{EntityType: et, Where: "e.nombre = :value0", Params: map[string]interface{}{}}, dialect, 0, 0)
	assert.Error(t, err)

	_, err = Render(&jpql.Query{}, dialect, 0, 0)
	assert.Error(t, err)
}

func TestRender_CollectionJoinIsDistinct(t *testing.T) {
	paises := newTestEnvType(t, "Paises")
	query := buildQuery(t, paises, "", "provincias/nombre", "")

	stmt, err := Render(query, providers.GetDialect("sqlite"), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT t0."id", t0."nombre" FROM "paises" t0 LEFT JOIN "provincias" t1 ON t1."pais_id" = t0."id" ORDER BY t1."nombre" ASC`, stmt.SQL)
}

func TestRender_DistinctWithToOneJoin(t *testing.T) {
	provincias := newTestEnvType(t, "Provincias")

	options, err := odata.ParseQueryOptions(background, "day(fundacion) eq 1", "pais/nombre desc", "")
	require.NoError(t, err)
	query, err := jpql.NewQueryBuilder(nil).
		SetDistinct(true).
		SetEntityType(provincias).
		SetQueryOptions(options).
		Build(background)
	require.NoError(t, err)
	require.True(t, query.Distinct)

	stmt, err := Render(query, providers.GetDialect("postgresql"), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, `SELECT `+provinciaColumns+` FROM "provincias" t0 LEFT JOIN "paises" t1 ON t1."id" = t0."pais_id" WHERE EXTRACT(DAY FROM t0."fundacion") = $1 ORDER BY t1."nombre" DESC`, stmt.SQL)
}

func newTestEnvType(t *testing.T, set string) *edm.EntityType {
	t.Helper()
	et, ok := newTestRegistry().EntitySet(set)
	require.True(t, ok)
	return et
}
