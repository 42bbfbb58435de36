package demo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
	"github.com/fitlcarlos/go-data-jpa/pkg/persistence"
	"github.com/fitlcarlos/go-data-jpa/pkg/providers"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var background = context.Background()

func newTestEntityManager(t *testing.T) *persistence.EntityManager {
	t.Helper()

	provider := providers.NewSQLiteProvider()
	require.NoError(t, provider.Connect(":memory:"))
	t.Cleanup(func() { provider.Close() })

	registry, err := NewRegistry()
	require.NoError(t, err)

	em, err := persistence.NewEntityManager(provider, registry, nil)
	require.NoError(t, err)
	require.NoError(t, InitSchema(background, em, true))
	return em
}

func strPtr(s string) *string { return &s }

func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	appErr, ok := odata.AsApplicationError(err)
	require.True(t, ok, "expected ApplicationError, got %v", err)
	assert.Equal(t, status, appErr.Status)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry()
	require.NoError(t, err)

	provincias, ok := registry.EntitySet(ProvinciasEntitySet)
	require.True(t, ok)
	assert.Equal(t, []string{"id", "paisId"}, provincias.Keys)

	paisID, ok := provincias.Property("paisId")
	require.True(t, ok)
	assert.Equal(t, "pais.id", paisID.JPAPath())

	_, ok = provincias.Navigation("pais")
	assert.True(t, ok)

	formTypes, ok := registry.EntitySet(FormTypesEntitySet)
	require.True(t, ok)
	status, ok := formTypes.Property("status")
	require.True(t, ok)
	assert.Equal(t, edm.TreatedAsName, status.TreatedAs)

	_, ok = registry.EnumType("Demo.FormTypeStatus")
	assert.True(t, ok)
}

func TestFormTypeStatus_JSON(t *testing.T) {
	data, err := json.Marshal(FormTypeInactive)
	require.NoError(t, err)
	assert.Equal(t, `"INACTIVE"`, string(data))

	var status FormTypeStatus
	require.NoError(t, json.Unmarshal([]byte(`"DRAFT"`), &status))
	assert.Equal(t, FormTypeDraft, status)

	require.NoError(t, json.Unmarshal([]byte(`1`), &status))
	assert.Equal(t, FormTypeInactive, status)

	assert.Error(t, json.Unmarshal([]byte(`"UNKNOWN"`), &status))
	assert.Equal(t, "7", FormTypeStatus(7).String())
	assert.False(t, FormTypeStatus(7).Valid())
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Service", NewServiceError(NotFound, "NO SE ENCUENTRA EL PAIS CON ID %d", 9), "NO SE ENCUENTRA EL PAIS CON ID 9"},
		{"WrappedService", fmt.Errorf("create: %w", NewServiceError(Duplicated, "DUP")), "DUP"},
		{"Validation", &ValidationError{Errors: []FieldError{{Field: "nombre", Message: "EL NOMBRE ES OBLIGATORIO"}}}, "NOMBRE: EL NOMBRE ES OBLIGATORIO"},
		{"MySQLDuplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, duplicatedMessage},
		{"MySQLForeignKey", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, foreignKeyMessage},
		{"MySQLOther", &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, "TABLE DOESN'T EXIST"},
		{"PostgresDuplicate", &pgconn.PgError{Code: "23505", Message: "duplicate key"}, duplicatedMessage},
		{"PostgresForeignKey", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), foreignKeyMessage},
		{"OracleDuplicate", errors.New("ORA-00001: unique constraint (DEMO.PK) violated"), duplicatedMessage},
		{"OracleForeignKey", errors.New("ORA-02292: integrity constraint violated - child record found"), foreignKeyMessage},
		{"Other", errors.New("connection refused"), "CONNECTION REFUSED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DescribeError(tt.err))
		})
	}

	assert.Empty(t, DescribeError(nil))
}

func TestDescribeError_SQLite(t *testing.T) {
	em := newTestEntityManager(t)

	err := em.Persist(background, &Pais{ID: 1, Nombre: "ARGENTINA"})
	require.Error(t, err)
	assert.Equal(t, duplicatedMessage, DescribeError(err))

	err = em.Persist(background, &Provincia{ID: 1, PaisID: 99, Nombre: strPtr("X")})
	require.Error(t, err)
	assert.Equal(t, foreignKeyMessage, DescribeError(err))
}

func TestProvinciaForm(t *testing.T) {
	form := NewProvinciaForm(&Provincia{ID: 5, PaisID: 1, Nombre: strPtr("  tucuman ")})
	assert.Equal(t, "TUCUMAN", form.Nombre)
	assert.NoError(t, form.Validate())

	err := ProvinciaForm{}.Validate()
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Len(t, validationErr.Errors, 3)

	long := ProvinciaForm{ID: 1, PaisID: 1, Nombre: string(make([]byte, 101))}
	assert.Error(t, long.Validate())
}

func TestFormTypeForm(t *testing.T) {
	assert.NoError(t, FormTypeForm{Name: "ALTA", Status: FormTypeActive}.Validate())

	err := FormTypeForm{ID: -1, Status: FormTypeStatus(9)}.Validate()
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Len(t, validationErr.Errors, 3)
}

func TestFormTypeService(t *testing.T) {
	em := newTestEntityManager(t)
	service, err := NewFormTypeService(em)
	require.NoError(t, err)

	_, err = service.FindOne(background, 0)
	assert.True(t, IsServiceError(err, MissingData))
	assert.EqualError(t, err, "ENTITY ID CAN NOT BE NULL")

	_, err = service.FindOne(background, 99)
	assert.True(t, IsServiceError(err, NotFound))
	assert.EqualError(t, err, "COULD NOT BE FOUND AN ENTITY WITH ID 99")

	created, err := service.Save(background, FormTypeForm{Name: "REINGRESO", Status: FormTypeDraft, Created: edm.NewDate(2020, time.January, 15)})
	require.NoError(t, err)
	assert.Equal(t, int32(4), created.ID)

	found, err := service.FindOne(background, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "REINGRESO", found.Name)
	assert.Equal(t, FormTypeDraft, found.Status)
	assert.Equal(t, edm.NewDate(2020, time.January, 15), found.Created)

	_, err = service.Save(background, FormTypeForm{ID: created.ID, Name: "REINGRESO", Status: FormTypeActive})
	require.NoError(t, err)
	found, err = service.FindOne(background, created.ID)
	require.NoError(t, err)
	assert.Equal(t, FormTypeActive, found.Status)
	assert.True(t, found.Created.IsZero())

	require.NoError(t, service.Delete(background, found))
	assert.True(t, IsServiceError(service.Delete(background, found), NotFound))
}

func TestProvinciaService(t *testing.T) {
	em := newTestEntityManager(t)
	service, err := NewProvinciaService(em)
	require.NoError(t, err)

	created, err := service.Create(background, ProvinciaForm{ID: 5, PaisID: 1, Nombre: "TUCUMAN"})
	require.NoError(t, err)
	require.NotNil(t, created.Pais)
	assert.Equal(t, "ARGENTINA", created.Pais.Nombre)

	_, err = service.Create(background, ProvinciaForm{ID: 5, PaisID: 1, Nombre: "TUCUMAN"})
	assert.True(t, IsServiceError(err, Duplicated))

	_, err = service.Create(background, ProvinciaForm{ID: 1, PaisID: 9, Nombre: "X"})
	assert.True(t, IsServiceError(err, NotFound))

	_, err = service.Update(background, ProvinciaForm{ID: 9, PaisID: 1, Nombre: "X"})
	assert.True(t, IsServiceError(err, NotFound))

	require.NoError(t, service.Delete(background, 1, 5))
	found, err := service.FindByID(background, 1, 5)
	require.NoError(t, err)
	assert.Nil(t, found)
	assert.True(t, IsServiceError(service.Delete(background, 1, 5), NotFound))
}
