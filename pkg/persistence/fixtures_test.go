package persistence

import (
	"context"
	"testing"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/providers"
	"github.com/stretchr/testify/require"
)

type testStatus int

const (
	statusActive testStatus = iota
	statusInactive
)

var testStatusEnum = &edm.EnumType{
	Name: "Status",
	Members: []edm.EnumMember{
		{Name: "ACTIVE", Value: 0},
		{Name: "INACTIVE", Value: 1},
	},
}

func (testStatus) EnumType() *edm.EnumType { return testStatusEnum }

type testPais struct {
	TableName  string           `table:"paises"`
	ID         int32            `json:"id" column:"id" primaryKey:"true"`
	Nombre     string           `json:"nombre" column:"nombre"`
	Provincias []*testProvincia `json:"provincias,omitempty" manyAssociation:"foreignKey:pais_id;references:id"`
}

type testProvincia struct {
	TableName string     `table:"provincias"`
	ID        int32      `json:"id" column:"id" primaryKey:"true"`
	PaisID    int32      `json:"paisId" column:"pais_id" primaryKey:"true" jpa:"path:pais.id"`
	Nombre    *string    `json:"nombre" column:"nombre"`
	Fundacion edm.Date   `json:"fundacion" column:"fundacion"`
	Estado    testStatus `json:"estado" column:"estado" jpa:"treatedAs:numeric"`
	Pais      *testPais  `json:"pais,omitempty" association:"foreignKey:pais_id;references:id"`
}

type testFormType struct {
	TableName string     `table:"form_types"`
	ID        int32      `json:"id" column:"id" primaryKey:"true"`
	Name      string     `json:"name" column:"name"`
	Status    testStatus `json:"status" column:"status" jpa:"treatedAs:name"`
}

const testSchema = `
CREATE TABLE paises (
	id INTEGER PRIMARY KEY,
	nombre TEXT NOT NULL
);
CREATE TABLE provincias (
	id INTEGER NOT NULL,
	pais_id INTEGER NOT NULL REFERENCES paises(id),
	nombre TEXT,
	fundacion TEXT,
	estado INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (pais_id, id)
);
CREATE TABLE form_types (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	status TEXT NOT NULL
);
INSERT INTO paises (id, nombre) VALUES (1, 'ARGENTINA'), (2, 'CHILE'), (3, 'URUGUAY');
INSERT INTO provincias (id, pais_id, nombre, fundacion, estado) VALUES
	(1, 1, 'CORDOBA', '1573-07-06', 0),
	(2, 1, 'MENDOZA', '1561-03-02', 1),
	(3, 1, 'SALTA', '1582-04-16', 0),
	(1, 2, 'BIOBIO', '1974-10-11', 0);
`

type testEnv struct {
	registry   *edm.Registry
	em         *EntityManager
	provincias *edm.EntityType
	paises     *edm.EntityType
	formTypes  *edm.EntityType
}

func newTestRegistry() *edm.Registry {
	reg := edm.NewRegistry("Demo")
	reg.MustRegisterEntity("Provincias", testProvincia{})
	reg.MustRegisterEntity("Paises", testPais{})
	reg.MustRegisterEntity("FormTypes", testFormType{})
	return reg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	provider := providers.NewSQLiteProvider()
	require.NoError(t, provider.Connect(":memory:"))
	t.Cleanup(func() { provider.Close() })

	_, err := provider.GetConnection().Exec(testSchema)
	require.NoError(t, err)

	reg := newTestRegistry()
	em, err := NewEntityManager(provider, reg, nil)
	require.NoError(t, err)

	env := &testEnv{registry: reg, em: em}
	env.provincias, _ = reg.EntitySet("Provincias")
	env.paises, _ = reg.EntitySet("Paises")
	env.formTypes, _ = reg.EntitySet("FormTypes")
	return env
}

func strPtr(s string) *string { return &s }

var background = context.Background()
