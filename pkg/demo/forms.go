package demo

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
)

// FieldError descreve uma regra violada em um campo do formulário
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError agrupa as regras violadas por um formulário
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		messages[i] = fmt.Sprintf("%s: %s", strings.ToUpper(fe.Field), fe.Message)
	}
	return strings.Join(messages, "; ")
}

type validator struct {
	errors []FieldError
}

func (v *validator) add(field, format string, args ...interface{}) {
	v.errors = append(v.errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) result() error {
	if len(v.errors) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errors}
}

// ProvinciaForm são os dados de entrada para criar ou atualizar uma provincia
type ProvinciaForm struct {
	ID     int32
	PaisID int32
	Nombre string
}

// NewProvinciaForm normaliza o nome em maiúsculas sem espaços nas bordas
func NewProvinciaForm(provincia *Provincia) ProvinciaForm {
	form := ProvinciaForm{
		ID:     provincia.ID,
		PaisID: provincia.PaisID,
	}
	if provincia.Nombre != nil {
		form.Nombre = strings.ToUpper(strings.TrimSpace(*provincia.Nombre))
	}
	return form
}

// Validate aplica as regras do formulário
func (f ProvinciaForm) Validate() error {
	v := &validator{}

	if f.ID <= 0 {
		v.add("id", "EL ID DE LA PROVINCIA DEBE SER MAYOR A CERO")
	}
	if f.PaisID <= 0 {
		v.add("paisId", "EL ID DEL PAIS DEBE SER MAYOR A CERO")
	}
	if f.Nombre == "" {
		v.add("nombre", "EL NOMBRE ES OBLIGATORIO")
	} else if utf8.RuneCountInString(f.Nombre) > 100 {
		v.add("nombre", "EL NOMBRE NO PUEDE SUPERAR LOS %d CARACTERES", 100)
	}

	return v.result()
}

// Entity converte o formulário na entidade persistida
func (f ProvinciaForm) Entity() *Provincia {
	nombre := f.Nombre
	return &Provincia{ID: f.ID, PaisID: f.PaisID, Nombre: &nombre}
}

// FormTypeForm são os dados de entrada de um FormType
type FormTypeForm struct {
	ID      int32
	Name    string
	Status  FormTypeStatus
	Created edm.Date
}

func NewFormTypeForm(formType *FormType) FormTypeForm {
	return FormTypeForm{
		ID:      formType.ID,
		Name:    strings.TrimSpace(formType.Name),
		Status:  formType.Status,
		Created: formType.Created,
	}
}

func (f FormTypeForm) Validate() error {
	v := &validator{}

	if f.ID < 0 {
		v.add("id", "THE ID CAN NOT BE NEGATIVE")
	}
	if f.Name == "" {
		v.add("name", "THE NAME IS REQUIRED")
	} else if utf8.RuneCountInString(f.Name) > 50 {
		v.add("name", "THE NAME CAN NOT BE LONGER THAN %d CHARACTERS", 50)
	}
	if !f.Status.Valid() {
		v.add("status", "INVALID STATUS %d", int(f.Status))
	}

	return v.result()
}

func (f FormTypeForm) Entity() *FormType {
	return &FormType{ID: f.ID, Name: f.Name, Status: f.Status, Created: f.Created}
}
