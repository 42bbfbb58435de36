package jpql

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/expression"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translate(t *testing.T, et *edm.EntityType, filter string) (*Fragment, error) {
	t.Helper()

	expr, err := expression.ParseFilter(context.Background(), filter)
	require.NoError(t, err)
	return Translate(context.Background(), expr, et)
}

func TestTranslate(t *testing.T) {
	model := newTestModel(t)

	tests := []struct {
		name     string
		filter   string
		where    string
		expected map[string]interface{}
	}{
		{
			name:     "Int32Coercion",
			filter:   "id eq 5",
			where:    "e.id = :value0",
			expected: map[string]interface{}{"value0": int32(5)},
		},
		{
			name:     "Int64ThroughNavigation",
			filter:   "pais/poblacion gt 1000",
			where:    "e.pais.poblacion > :value0",
			expected: map[string]interface{}{"value0": int64(1000)},
		},
		{
			name:     "Date",
			filter:   "fundacion eq 2020-01-15",
			where:    "e.fundacion = :value0",
			expected: map[string]interface{}{"value0": edm.NewDate(2020, time.January, 15)},
		},
		{
			name:     "StringStripsQuotes",
			filter:   "nombre eq 'Cordoba'",
			where:    "e.nombre = :value0",
			expected: map[string]interface{}{"value0": "Cordoba"},
		},
		{
			name:     "StringUnescapesQuotes",
			filter:   "nombre eq 'O''Higgins'",
			where:    "e.nombre = :value0",
			expected: map[string]interface{}{"value0": "O'Higgins"},
		},
		{
			name:     "Contains",
			filter:   "contains(nombre,'abc')",
			where:    "e.nombre LIKE :value0",
			expected: map[string]interface{}{"value0": "%abc%"},
		},
		{
			name:     "StartsWith",
			filter:   "startswith(nombre,'abc')",
			where:    "e.nombre LIKE :value0",
			expected: map[string]interface{}{"value0": "abc%"},
		},
		{
			name:     "EndsWith",
			filter:   "endswith(nombre,'abc')",
			where:    "e.nombre LIKE :value0",
			expected: map[string]interface{}{"value0": "%abc"},
		},
		{
			name:     "And",
			filter:   "nombre eq 'Cordoba' and id gt 2",
			where:    "e.nombre = :value0 AND e.id > :value1",
			expected: map[string]interface{}{"value0": "Cordoba", "value1": int32(2)},
		},
		{
			name:     "OrOfAnd",
			filter:   "id eq 1 or id eq 2 and nombre eq 'x'",
			where:    "e.id = :value0 OR (e.id = :value1 AND e.nombre = :value2)",
			expected: map[string]interface{}{"value0": int32(1), "value1": int32(2), "value2": "x"},
		},
		{
			name:     "AndOfOr",
			filter:   "(id eq 1 or id eq 2) and nombre eq 'x'",
			where:    "(e.id = :value0 OR e.id = :value1) AND e.nombre = :value2",
			expected: map[string]interface{}{"value0": int32(1), "value1": int32(2), "value2": "x"},
		},
		{
			name:     "Not",
			filter:   "not (id eq 1)",
			where:    "NOT (e.id = :value0)",
			expected: map[string]interface{}{"value0": int32(1)},
		},
		{
			name:     "DayRegistersInt32",
			filter:   "day(fundacion) eq 15",
			where:    "DAY(e.fundacion) = :value0",
			expected: map[string]interface{}{"value0": int32(15)},
		},
		{
			name:     "YearAndMonth",
			filter:   "year(fundacion) ge 2000 and month(fundacion) le 6",
			where:    "YEAR(e.fundacion) >= :value0 AND MONTH(e.fundacion) <= :value1",
			expected: map[string]interface{}{"value0": int32(2000), "value1": int32(6)},
		},
		{
			name:     "PathOverride",
			filter:   "paisId eq 3",
			where:    "e.pais.id = :value0",
			expected: map[string]interface{}{"value0": int32(3)},
		},
		{
			name:     "FieldNameLookup",
			filter:   "paisID eq 3",
			where:    "e.pais.id = :value0",
			expected: map[string]interface{}{"value0": int32(3)},
		},
		{
			name:     "IsNull",
			filter:   "nombre eq null",
			where:    "e.nombre IS NULL",
			expected: map[string]interface{}{},
		},
		{
			name:     "IsNotNull",
			filter:   "nombre ne null",
			where:    "e.nombre IS NOT NULL",
			expected: map[string]interface{}{},
		},
		{
			name:     "PathComparison",
			filter:   "nombre eq pais/nombre",
			where:    "e.nombre = e.pais.nombre",
			expected: map[string]interface{}{},
		},
		{
			name:     "Mod",
			filter:   "id mod 2 eq 0",
			where:    "MOD(e.id, :value0) = :value1",
			expected: map[string]interface{}{"value0": int32(2), "value1": int32(0)},
		},
		{
			name:     "ArithmeticKeepsLeftType",
			filter:   "id add 1 gt 5",
			where:    "e.id + :value0 > :value1",
			expected: map[string]interface{}{"value0": int32(1), "value1": int32(5)},
		},
		{
			name:     "GroupedAdditionTimesLiteral",
			filter:   "(id add 1) mul 2 eq 10",
			where:    "(e.id + :value0) * :value1 = :value2",
			expected: map[string]interface{}{"value0": int32(1), "value1": int32(2), "value2": int32(10)},
		},
		{
			name:     "PathTimesGroupedAddition",
			filter:   "id mul (id add 1) eq 10",
			where:    "e.id * (e.id + :value0) = :value1",
			expected: map[string]interface{}{"value0": int32(1), "value1": int32(10)},
		},
		{
			name:     "NestedSubtractionOnTheRight",
			filter:   "id sub (id sub 1) eq 1",
			where:    "e.id - (e.id - :value0) = :value1",
			expected: map[string]interface{}{"value0": int32(1), "value1": int32(1)},
		},
		{
			name:     "LeftAssociativeSubtractionHasNoParentheses",
			filter:   "id sub 1 sub 2 eq 0",
			where:    "e.id - :value0 - :value1 = :value2",
			expected: map[string]interface{}{"value0": int32(1), "value1": int32(2), "value2": int32(0)},
		},
		{
			name:     "MultiplicationBeforeAddition",
			filter:   "id add id mul 2 eq 6",
			where:    "e.id + e.id * :value0 = :value1",
			expected: map[string]interface{}{"value0": int32(2), "value1": int32(6)},
		},
		{
			name:     "IntParseFailureKeepsRawText",
			filter:   "id eq 'abc'",
			where:    "e.id = :value0",
			expected: map[string]interface{}{"value0": "'abc'"},
		},
		{
			name:     "EnumNumeric",
			filter:   "estado eq Demo.Status'INACTIVE'",
			where:    "e.estado = :value0",
			expected: map[string]interface{}{"value0": int32(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragment, err := translate(t, model.provincias, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.where, fragment.Where)
			assert.Equal(t, tt.expected, fragment.Params)
		})
	}
}

func TestTranslate_EnumTreatments(t *testing.T) {
	model := newTestModel(t)

	t.Run("Name", func(t *testing.T) {
		fragment, err := translate(t, model.formTypes, "status eq Demo.Status'ACTIVE'")
		require.NoError(t, err)
		assert.Equal(t, "e.status = :value0", fragment.Where)
		assert.Equal(t, "ACTIVE", fragment.Params["value0"])
	})

	t.Run("Enumeration", func(t *testing.T) {
		fragment, err := translate(t, model.tickets, "status ne Demo.Status'INACTIVE'")
		require.NoError(t, err)
		assert.Equal(t, "e.status <> :value0", fragment.Where)
		assert.Equal(t, edm.EnumMember{Name: "INACTIVE", Value: 1}, fragment.Params["value0"])
	})

	t.Run("NoMatchingProperty", func(t *testing.T) {
		_, err := translate(t, model.provincias, "estado eq Demo.Other'ACTIVE'")
		assertStatus(t, err, fiber.StatusBadRequest)

		_, err = translate(t, model.provincias, "estado eq Demo.Status'UNKNOWN'")
		assertStatus(t, err, fiber.StatusBadRequest)
	})
}

func TestTranslate_Errors(t *testing.T) {
	model := newTestModel(t)

	tests := []struct {
		name   string
		filter string
		status int
		code   string
	}{
		{"InvalidDate", "fundacion eq 2020-13-40", fiber.StatusBadRequest, odata.CodeInvalidDate},
		{"UnknownRootProperty", "foo eq 1", fiber.StatusBadRequest, odata.CodePropertyNotFound},
		{"UnknownNavigatedProperty", "pais/foo eq 1", fiber.StatusBadRequest, odata.CodePropertyNotFound},
		{"UnknownNavigation", "region/nombre eq 'x'", fiber.StatusBadRequest, odata.CodePropertyNotFound},
		{"NavigationAsProperty", "pais eq 1", fiber.StatusBadRequest, odata.CodePropertyNotFound},
		{"ContainsOnNonString", "contains(id,'1')", fiber.StatusBadRequest, odata.CodeInvalidMethodArguments},
		{"ContainsWithPathValue", "contains(nombre,nombre)", fiber.StatusBadRequest, odata.CodeInvalidMethodArguments},
		{"DayWithLiteral", "day('x') eq 1", fiber.StatusBadRequest, odata.CodeInvalidMethodArguments},
		{"LiteralOnTheLeft", "'abc' eq nombre", fiber.StatusBadRequest, odata.CodeBadRequest},
		{"NullWithGreaterThan", "nombre gt null", fiber.StatusBadRequest, odata.CodeBadRequest},
		{"UnsupportedMethod", "length(nombre) eq 3", fiber.StatusNotImplemented, odata.CodeNotImplemented},
		{"Has", "estado has Demo.Status'ACTIVE'", fiber.StatusNotImplemented, odata.CodeNotImplemented},
		{"In", "id in (1,2)", fiber.StatusNotImplemented, odata.CodeNotImplemented},
		{"Lambda", "pais/any(p: p/id eq 1)", fiber.StatusNotImplemented, odata.CodeNotImplemented},
		{"Alias", "id eq @p", fiber.StatusNotImplemented, odata.CodeNotImplemented},
		{"TypeLiteral", "isof(nombre,Edm.String)", fiber.StatusNotImplemented, odata.CodeNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragment, err := translate(t, model.provincias, tt.filter)
			assert.Nil(t, fragment)
			require.Error(t, err)

			appErr, ok := odata.AsApplicationError(err)
			require.True(t, ok, err.Error())
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestTranslate_SequentialParameterNames(t *testing.T) {
	model := newTestModel(t)

	fragment, err := translate(t, model.provincias,
		"id eq 1 and id eq 2 and id eq 3 and id eq 4 and id eq 5 and id eq 6 and id eq 7 and id eq 8 and id eq 9 and id eq 10 and id eq 11")
	require.NoError(t, err)

	names := fragment.ParamNames()
	require.Len(t, names, 11)
	assert.Equal(t, "value0", names[0])
	assert.Equal(t, "value10", names[10])
	assert.Equal(t, int32(11), fragment.Params["value10"])
}

func TestTranslate_IndependentCalls(t *testing.T) {
	model := newTestModel(t)

	first, err := translate(t, model.provincias, "id eq 1")
	require.NoError(t, err)
	second, err := translate(t, model.provincias, "id eq 2")
	require.NoError(t, err)

	assert.Equal(t, first.Where, second.Where)
	assert.Equal(t, int32(1), first.Params["value0"])
	assert.Equal(t, int32(2), second.Params["value0"])
}

func TestTranslate_NilAndCancelled(t *testing.T) {
	model := newTestModel(t)

	fragment, err := Translate(context.Background(), nil, model.provincias)
	require.NoError(t, err)
	assert.Empty(t, fragment.Where)
	assert.Empty(t, fragment.Params)

	_, err = Translate(context.Background(), &expression.Literal{Text: "1"}, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	expr, err := expression.ParseFilter(context.Background(), "id eq 1")
	require.NoError(t, err)
	_, err = Translate(ctx, expr, model.provincias)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslator_LogsIntFallback(t *testing.T) {
	model := newTestModel(t)

	var buf bytes.Buffer
	translator := NewTranslator(log.New(&buf, "", 0))

	expr, err := expression.ParseFilter(context.Background(), "id eq 1.5")
	require.NoError(t, err)

	fragment, err := translator.Translate(context.Background(), expr, model.provincias)
	require.NoError(t, err)
	assert.Equal(t, "1.5", fragment.Params["value0"])
	assert.Contains(t, buf.String(), "Edm.Int32")
}

func TestGroupOfAndConvertOperator(t *testing.T) {
	assert.Equal(t, LogicalOperator, GroupOf(expression.BinaryOr))
	assert.Equal(t, ComparisonOperator, GroupOf(expression.BinaryLe))
	assert.Equal(t, ArithmeticOperator, GroupOf(expression.BinaryMod))
	assert.Equal(t, UnsupportedOperator, GroupOf(expression.BinaryHas))

	op, err := ConvertOperator(expression.BinaryNe)
	require.NoError(t, err)
	assert.Equal(t, " <> ", op)

	_, err = ConvertOperator(expression.BinaryIn)
	assertStatus(t, err, fiber.StatusNotImplemented)
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, odata.StatusOf(err))
}
