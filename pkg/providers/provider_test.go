package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDialect(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"sqlite", "sqlite"},
		{"mysql", "mysql"},
		{"postgres", "postgresql"},
		{"pgx", "postgresql"},
		{"Oracle", "oracle"},
		{"unknown", "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetDialect(tt.name).GetName())
		})
	}
}

func TestDialect_Placeholders(t *testing.T) {
	assert.Equal(t, ":value0", GetDialect("sqlite").Placeholder("value0", 1))
	assert.Equal(t, ":value3", GetDialect("oracle").Placeholder("value3", 4))
	assert.Equal(t, "?", GetDialect("mysql").Placeholder("value0", 1))
	assert.Equal(t, "$2", GetDialect("postgresql").Placeholder("value1", 2))

	assert.True(t, GetDialect("sqlite").NamedArgs())
	assert.True(t, GetDialect("oracle").NamedArgs())
	assert.False(t, GetDialect("mysql").NamedArgs())
	assert.False(t, GetDialect("postgresql").NamedArgs())
}

func TestDialect_Functions(t *testing.T) {
	assert.Equal(t, "CAST(strftime('%d', t0.fundacion) AS INTEGER)", GetDialect("sqlite").BuildDateExtractFunction("day", "t0.fundacion"))
	assert.Equal(t, "YEAR(t0.fundacion)", GetDialect("mysql").BuildDateExtractFunction("year", "t0.fundacion"))
	assert.Equal(t, "EXTRACT(MONTH FROM t0.fundacion)", GetDialect("postgresql").BuildDateExtractFunction("month", "t0.fundacion"))
	assert.Equal(t, "EXTRACT(DAY FROM t0.fundacion)", GetDialect("oracle").BuildDateExtractFunction("DAY", "t0.fundacion"))

	assert.Equal(t, "(t0.id % :value0)", GetDialect("sqlite").BuildModFunction("t0.id", ":value0"))
	assert.Equal(t, "MOD(t0.id, ?)", GetDialect("mysql").BuildModFunction("t0.id", "?"))
}

func TestDialect_LimitAndQuote(t *testing.T) {
	assert.Equal(t, "LIMIT 10 OFFSET 5", GetDialect("sqlite").BuildLimitClause(10, 5))
	assert.Equal(t, "LIMIT 10", GetDialect("postgresql").BuildLimitClause(10, 0))
	assert.Equal(t, "OFFSET 5", GetDialect("postgresql").BuildLimitClause(0, 5))
	assert.Equal(t, "OFFSET 5 ROWS FETCH NEXT 10 ROWS ONLY", GetDialect("oracle").BuildLimitClause(10, 5))
	assert.Empty(t, GetDialect("mysql").BuildLimitClause(0, 0))

	assert.Equal(t, `"provincias"`, GetDialect("sqlite").QuoteIdentifier("provincias"))
	assert.Equal(t, "`provincias`", GetDialect("mysql").QuoteIdentifier("provincias"))
	assert.Equal(t, `"PROVINCIAS"`, GetDialect("oracle").QuoteIdentifier("provincias"))
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"sqlite", "mysql", "postgresql", "postgres", "oracle"} {
		provider, err := NewProvider(name)
		require.NoError(t, err, name)
		assert.NotNil(t, provider.GetDialect())
		assert.Nil(t, provider.GetConnection())
	}

	_, err := NewProvider("db2")
	assert.Error(t, err)

	assert.Contains(t, RegisteredProviders(), "sqlite")
}

func TestSQLiteProvider_Connect(t *testing.T) {
	provider := NewSQLiteProvider()
	require.NoError(t, provider.Connect(":memory:"))
	defer provider.Close()

	db := provider.GetConnection()
	require.NotNil(t, db)
	assert.Equal(t, "sqlite", provider.GetDriverName())

	_, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, nome TEXT)`)
	require.NoError(t, err)

	tx, err := provider.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	_, err = tx.Exec(`INSERT INTO t (id, nome) VALUES (1, 'a')`)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestBaseProvider_NotConnected(t *testing.T) {
	provider := NewMySQLProvider()
	_, err := provider.BeginTx(context.Background(), nil)
	assert.Error(t, err)
	assert.NoError(t, provider.Close())
}
