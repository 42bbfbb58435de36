package jpql

import (
	"testing"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
)

type testStatus int

var testStatusEnum = &edm.EnumType{
	Name: "Status",
	Members: []edm.EnumMember{
		{Name: "ACTIVE", Value: 0},
		{Name: "INACTIVE", Value: 1},
	},
}

func (testStatus) EnumType() *edm.EnumType { return testStatusEnum }

type testPais struct {
	TableName string `table:"paises"`
	ID        int32  `json:"id" column:"id" primaryKey:"true"`
	Nombre    string `json:"nombre" column:"nombre"`
	Poblacion int64  `json:"poblacion" column:"poblacion"`
}

type testProvincia struct {
	TableName string     `table:"provincias"`
	ID        int32      `json:"id" column:"id" primaryKey:"true"`
	PaisID    int32      `json:"paisId" column:"pais_id" primaryKey:"true" jpa:"path:pais.id"`
	Nombre    string     `json:"nombre" column:"nombre"`
	Fundacion edm.Date   `json:"fundacion" column:"fundacion"`
	Estado    testStatus `json:"estado" column:"estado" jpa:"treatedAs:numeric"`
	Pais      *testPais  `json:"pais,omitempty" association:"foreignKey:pais_id;references:id"`
}

type testFormType struct {
	ID     int32      `json:"id" primaryKey:"true"`
	Name   string     `json:"name"`
	Status testStatus `json:"status" jpa:"treatedAs:name"`
}

type testTicket struct {
	ID     int32      `json:"id" primaryKey:"true"`
	Status testStatus `json:"status"`
}

type testModel struct {
	registry   *edm.Registry
	provincias *edm.EntityType
	formTypes  *edm.EntityType
	tickets    *edm.EntityType
}

func newTestModel(t *testing.T) *testModel {
	t.Helper()

	reg := edm.NewRegistry("Demo")
	return &testModel{
		registry:   reg,
		provincias: reg.MustRegisterEntity("Provincias", testProvincia{}),
		formTypes:  reg.MustRegisterEntity("FormTypes", testFormType{}),
		tickets:    reg.MustRegisterEntity("Tickets", testTicket{}),
	}
}
