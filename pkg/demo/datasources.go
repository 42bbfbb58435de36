package demo

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/expression"
	"github.com/fitlcarlos/go-data-jpa/pkg/jpql"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
	"github.com/fitlcarlos/go-data-jpa/pkg/persistence"
)

// ProvinciaDataSource atende o entity set Provincias
type ProvinciaDataSource struct {
	em         *persistence.EntityManager
	service    *ProvinciaService
	translator *jpql.Translator
	entityType *edm.EntityType
	logger     *log.Logger
}

// NewProvinciaDataSource cria o data source; logger nil descarta as mensagens
func NewProvinciaDataSource(em *persistence.EntityManager, logger *log.Logger) (*ProvinciaDataSource, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	service, err := NewProvinciaService(em)
	if err != nil {
		return nil, err
	}

	return &ProvinciaDataSource{
		em:         em,
		service:    service,
		translator: jpql.NewTranslator(logger),
		entityType: service.provincias,
		logger:     logger,
	}, nil
}

func (d *ProvinciaDataSource) EntitySet() string {
	return ProvinciasEntitySet
}

func (d *ProvinciaDataSource) NewEntity() interface{} {
	return &Provincia{}
}

func (d *ProvinciaDataSource) Create(ctx context.Context, entity interface{}) (interface{}, error) {
	provincia, ok := entity.(*Provincia)
	if !ok {
		return nil, odata.BadRequestError("LOS DATOS NO CORRESPONDEN A LA ENTIDAD PROVINCIA")
	}

	form := NewProvinciaForm(provincia)
	if err := form.Validate(); err != nil {
		return nil, d.badRequest(err)
	}

	created, err := d.service.Create(ctx, form)
	if err != nil {
		return nil, d.badRequest(err)
	}
	return created, nil
}

// Update com PUT substitui a provincia; com PATCH aplica apenas o nombre presente no JSON
func (d *ProvinciaDataSource) Update(ctx context.Context, keys odata.KeyPredicates, entity interface{}, propertiesInJSON []string, isPut bool) (interface{}, error) {
	provincia, ok := entity.(*Provincia)
	if !ok {
		return nil, odata.BadRequestError("LOS DATOS NO CORRESPONDEN A LA ENTIDAD PROVINCIA")
	}

	paisID, id, err := provinciaKeys(keys)
	if err != nil {
		return nil, err
	}

	var form ProvinciaForm
	if isPut {
		form = NewProvinciaForm(provincia)
		form.ID = id
		form.PaisID = paisID
	} else {
		current, err := d.service.FindByID(ctx, paisID, id)
		if err != nil {
			return nil, d.badRequest(err)
		}
		if current == nil {
			return nil, odata.EntityNotFoundError(fmt.Sprintf("LA PROVINCIA CON ID (PAIS=%d,PROVINCIA=%d) NO EXISTE", paisID, id))
		}

		if containsProperty(propertiesInJSON, "nombre") {
			current.Nombre = normalizeName(provincia.Nombre)
		}
		form = NewProvinciaForm(current)
	}

	if err := form.Validate(); err != nil {
		return nil, d.badRequest(err)
	}

	updated, err := d.service.Update(ctx, form)
	if err != nil {
		return nil, d.badRequest(err)
	}
	return updated, nil
}

func (d *ProvinciaDataSource) Delete(ctx context.Context, keys odata.KeyPredicates) error {
	paisID, id, err := provinciaKeys(keys)
	if err != nil {
		return err
	}

	if err := d.service.Delete(ctx, paisID, id); err != nil {
		return d.badRequest(err)
	}
	return nil
}

func (d *ProvinciaDataSource) ReadFromKey(ctx context.Context, keys odata.KeyPredicates, expand []expression.ExpandItem) (interface{}, error) {
	paisID, id, err := provinciaKeys(keys)
	if err != nil {
		return nil, err
	}

	fetches, err := expandFetches(ctx, d.translator, d.entityType, expand)
	if err != nil {
		return nil, err
	}

	provincia, err := d.service.FindByID(ctx, paisID, id, fetches...)
	if err != nil || provincia == nil {
		return nil, err
	}
	return provincia, nil
}

// ReadAll executa a consulta JPQL distinta montada a partir de $filter, $orderby e $expand
func (d *ProvinciaDataSource) ReadAll(ctx context.Context, options odata.QueryOptions) (interface{}, error) {
	result, err := readAll(ctx, d.em, d.translator, d.entityType, options)
	if err != nil {
		return nil, err
	}

	provincias := make([]*Provincia, len(result))
	for i, r := range result {
		provincias[i] = r.(*Provincia)
	}
	return provincias, nil
}

func (d *ProvinciaDataSource) badRequest(err error) error {
	d.logger.Printf("Provincias: %v", err)
	return odata.BadRequestError(DescribeError(err))
}

func provinciaKeys(keys odata.KeyPredicates) (paisID, id int32, err error) {
	if paisID, err = keys.Int32("paisId"); err != nil {
		return 0, 0, err
	}
	if id, err = keys.Int32("id"); err != nil {
		return 0, 0, err
	}
	return paisID, id, nil
}

// FormTypeDataSource atende o entity set FormTypes
type FormTypeDataSource struct {
	em         *persistence.EntityManager
	service    *FormTypeService
	translator *jpql.Translator
	entityType *edm.EntityType
	logger     *log.Logger
}

func NewFormTypeDataSource(em *persistence.EntityManager, logger *log.Logger) (*FormTypeDataSource, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	service, err := NewFormTypeService(em)
	if err != nil {
		return nil, err
	}

	return &FormTypeDataSource{
		em:         em,
		service:    service,
		translator: jpql.NewTranslator(logger),
		entityType: service.formTypes,
		logger:     logger,
	}, nil
}

func (d *FormTypeDataSource) EntitySet() string {
	return FormTypesEntitySet
}

func (d *FormTypeDataSource) NewEntity() interface{} {
	return &FormType{}
}

func (d *FormTypeDataSource) Create(ctx context.Context, entity interface{}) (interface{}, error) {
	formType, ok := entity.(*FormType)
	if !ok {
		return nil, odata.BadRequestError("THE DATA DOES NOT MATCH THE FORMTYPE ENTITY")
	}

	form := NewFormTypeForm(formType)
	if err := form.Validate(); err != nil {
		return nil, d.badRequest(err)
	}

	saved, err := d.service.Save(ctx, form)
	if err != nil {
		return nil, d.badRequest(err)
	}
	return saved, nil
}

func (d *FormTypeDataSource) Update(ctx context.Context, keys odata.KeyPredicates, entity interface{}, propertiesInJSON []string, isPut bool) (interface{}, error) {
	formType, ok := entity.(*FormType)
	if !ok {
		return nil, odata.BadRequestError("THE DATA DOES NOT MATCH THE FORMTYPE ENTITY")
	}

	id, err := keys.Int32("id")
	if err != nil {
		return nil, err
	}

	current, err := d.service.FindOne(ctx, id)
	if err != nil {
		if IsServiceError(err, NotFound) {
			return nil, odata.EntityNotFoundError(DescribeError(err))
		}
		return nil, d.badRequest(err)
	}

	var form FormTypeForm
	if isPut {
		form = NewFormTypeForm(formType)
	} else {
		form = NewFormTypeForm(current)
		if containsProperty(propertiesInJSON, "name") {
			form.Name = strings.TrimSpace(formType.Name)
		}
		if containsProperty(propertiesInJSON, "status") {
			form.Status = formType.Status
		}
		if containsProperty(propertiesInJSON, "created") {
			form.Created = formType.Created
		}
	}
	form.ID = id

	if err := form.Validate(); err != nil {
		return nil, d.badRequest(err)
	}

	saved, err := d.service.Save(ctx, form)
	if err != nil {
		return nil, d.badRequest(err)
	}
	return saved, nil
}

func (d *FormTypeDataSource) Delete(ctx context.Context, keys odata.KeyPredicates) error {
	id, err := keys.Int32("id")
	if err != nil {
		return err
	}

	formType, err := d.service.FindOne(ctx, id)
	if err == nil {
		err = d.service.Delete(ctx, formType)
	}
	if err != nil {
		return d.badRequest(err)
	}
	return nil
}

// ReadFromKey converte o NotFound do serviço em resultado vazio
func (d *FormTypeDataSource) ReadFromKey(ctx context.Context, keys odata.KeyPredicates, expand []expression.ExpandItem) (interface{}, error) {
	id, err := keys.Int32("id")
	if err != nil {
		return nil, err
	}
	if _, err := expandFetches(ctx, d.translator, d.entityType, expand); err != nil {
		return nil, err
	}

	formType, err := d.service.FindOne(ctx, id)
	if err != nil {
		if IsServiceError(err, NotFound) {
			return nil, nil
		}
		return nil, d.badRequest(err)
	}
	return formType, nil
}

func (d *FormTypeDataSource) ReadAll(ctx context.Context, options odata.QueryOptions) (interface{}, error) {
	result, err := readAll(ctx, d.em, d.translator, d.entityType, options)
	if err != nil {
		return nil, err
	}

	formTypes := make([]*FormType, len(result))
	for i, r := range result {
		formTypes[i] = r.(*FormType)
	}
	return formTypes, nil
}

func (d *FormTypeDataSource) badRequest(err error) error {
	d.logger.Printf("FormTypes: %v", err)
	return odata.BadRequestError(DescribeError(err))
}

func readAll(ctx context.Context, em *persistence.EntityManager, translator *jpql.Translator, et *edm.EntityType, options odata.QueryOptions) ([]interface{}, error) {
	query, err := jpql.NewQueryBuilder(translator).
		SetDistinct(true).
		SetEntityType(et).
		SetQueryOptions(options).
		Build(ctx)
	if err != nil {
		return nil, err
	}

	return em.PagedResultList(ctx, query, options.Top, options.Skip)
}

// expandFetches resolve os itens de $expand nos fetches da entidade
func expandFetches(ctx context.Context, translator *jpql.Translator, et *edm.EntityType, expand []expression.ExpandItem) ([]jpql.Fetch, error) {
	if len(expand) == 0 {
		return nil, nil
	}

	query, err := jpql.NewQueryBuilder(translator).
		SetEntityType(et).
		SetExpandOption(expand).
		Build(ctx)
	if err != nil {
		return nil, err
	}
	return query.Fetches, nil
}

// normalizeName remove espaços e converte para maiúsculas; vazio vira nil
func normalizeName(name *string) *string {
	if name == nil {
		return nil
	}
	normalized := strings.ToUpper(strings.TrimSpace(*name))
	if normalized == "" {
		return nil
	}
	return &normalized
}

func containsProperty(properties []string, name string) bool {
	for _, p := range properties {
		if p == name {
			return true
		}
	}
	return false
}
