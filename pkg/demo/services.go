package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/jpql"
	"github.com/fitlcarlos/go-data-jpa/pkg/persistence"
)

// entityTypeOf resolve o tipo mapeado de uma entidade
func entityTypeOf(em *persistence.EntityManager, entity interface{}) (*edm.EntityType, error) {
	et, ok := em.Registry().EntityTypeOf(entity)
	if !ok {
		return nil, fmt.Errorf("%T: %w", entity, persistence.ErrUnknownEntity)
	}
	return et, nil
}

// ProvinciaService mantém as provincias
type ProvinciaService struct {
	em         *persistence.EntityManager
	provincias *edm.EntityType
	paises     *edm.EntityType
}

// NewProvinciaService cria o serviço sobre o EntityManager informado
func NewProvinciaService(em *persistence.EntityManager) (*ProvinciaService, error) {
	provincias, err := entityTypeOf(em, Provincia{})
	if err != nil {
		return nil, err
	}
	paises, err := entityTypeOf(em, Pais{})
	if err != nil {
		return nil, err
	}
	return &ProvinciaService{em: em, provincias: provincias, paises: paises}, nil
}

// FindByID retorna nil quando a provincia não existe
func (s *ProvinciaService) FindByID(ctx context.Context, paisID, id int32, fetches ...jpql.Fetch) (*Provincia, error) {
	return s.findByID(ctx, s.em, paisID, id, fetches...)
}

func (s *ProvinciaService) findByID(ctx context.Context, em *persistence.EntityManager, paisID, id int32, fetches ...jpql.Fetch) (*Provincia, error) {
	found, err := em.Find(ctx, s.provincias, map[string]interface{}{"paisId": paisID, "id": id}, fetches...)
	if err != nil || found == nil {
		return nil, err
	}
	return found.(*Provincia), nil
}

// Create insere uma provincia nova em um pais existente
func (s *ProvinciaService) Create(ctx context.Context, form ProvinciaForm) (*Provincia, error) {
	var provincia *Provincia

	err := s.em.Transaction(ctx, func(tx *persistence.EntityManager) error {
		pais, err := tx.Find(ctx, s.paises, map[string]interface{}{"id": form.PaisID})
		if err != nil {
			return err
		}
		if pais == nil {
			return NewServiceError(NotFound, "NO SE ENCUENTRA EL PAIS CON ID %d", form.PaisID)
		}

		existing, err := s.findByID(ctx, tx, form.PaisID, form.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return NewServiceError(Duplicated, "YA EXISTE UNA PROVINCIA CON ID (PAIS=%d,PROVINCIA=%d)", form.PaisID, form.ID)
		}

		provincia = form.Entity()
		if err := tx.Persist(ctx, provincia); err != nil {
			return err
		}
		provincia.Pais = pais.(*Pais)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return provincia, nil
}

// Update substitui os dados de uma provincia existente
func (s *ProvinciaService) Update(ctx context.Context, form ProvinciaForm) (*Provincia, error) {
	var provincia *Provincia

	err := s.em.Transaction(ctx, func(tx *persistence.EntityManager) error {
		existing, err := s.findByID(ctx, tx, form.PaisID, form.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return NewServiceError(NotFound, "NO SE ENCUENTRA LA PROVINCIA CON ID (PAIS=%d,PROVINCIA=%d)", form.PaisID, form.ID)
		}

		provincia = form.Entity()
		return tx.Merge(ctx, provincia)
	})
	if err != nil {
		return nil, err
	}
	return provincia, nil
}

// Delete exclui a provincia
func (s *ProvinciaService) Delete(ctx context.Context, paisID, id int32) error {
	err := s.em.Remove(ctx, &Provincia{PaisID: paisID, ID: id})
	if errors.Is(err, persistence.ErrEntityNotFound) {
		return NewServiceError(NotFound, "NO SE ENCUENTRA LA PROVINCIA CON ID (PAIS=%d,PROVINCIA=%d)", paisID, id)
	}
	return err
}

// FormTypeService mantém os tipos de formulário
type FormTypeService struct {
	em        *persistence.EntityManager
	formTypes *edm.EntityType
}

func NewFormTypeService(em *persistence.EntityManager) (*FormTypeService, error) {
	formTypes, err := entityTypeOf(em, FormType{})
	if err != nil {
		return nil, err
	}
	return &FormTypeService{em: em, formTypes: formTypes}, nil
}

// FindOne falha com MissingData para id zero e NotFound quando não existe
func (s *FormTypeService) FindOne(ctx context.Context, id int32) (*FormType, error) {
	if id == 0 {
		return nil, NewServiceError(MissingData, "ENTITY ID CAN NOT BE NULL")
	}

	found, err := s.em.Find(ctx, s.formTypes, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, NewServiceError(NotFound, "COULD NOT BE FOUND AN ENTITY WITH ID %d", id)
	}
	return found.(*FormType), nil
}

// Save insere ou atualiza pelo id; id zero é gerado pelo banco
func (s *FormTypeService) Save(ctx context.Context, form FormTypeForm) (*FormType, error) {
	formType := form.Entity()

	err := s.em.Transaction(ctx, func(tx *persistence.EntityManager) error {
		if formType.ID != 0 {
			existing, err := tx.Find(ctx, s.formTypes, map[string]interface{}{"id": formType.ID})
			if err != nil {
				return err
			}
			if existing != nil {
				return tx.Merge(ctx, formType)
			}
		}
		return tx.Persist(ctx, formType)
	})
	if err != nil {
		return nil, err
	}
	return formType, nil
}

func (s *FormTypeService) Delete(ctx context.Context, formType *FormType) error {
	err := s.em.Remove(ctx, formType)
	if errors.Is(err, persistence.ErrEntityNotFound) {
		return NewServiceError(NotFound, "COULD NOT BE FOUND AN ENTITY WITH ID %d", formType.ID)
	}
	return err
}
