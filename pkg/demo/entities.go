package demo

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
)

// Namespace é o namespace do modelo de exemplo
const Namespace = "Demo"

// Entity sets expostos pelo modelo de exemplo
const (
	ProvinciasEntitySet = "Provincias"
	FormTypesEntitySet  = "FormTypes"
)

// Pais é alcançado apenas pela navegação de Provincia
type Pais struct {
	TableName string `table:"paises"`
	ID        int32  `json:"id" column:"id" primaryKey:"true"`
	Nombre    string `json:"nombre" column:"nombre" odata:"not null;length:100"`
	Prefijo   *int32 `json:"prefijo,omitempty" column:"prefijo" odata:"null"`
}

// Provincia tem chave composta (paisId, id)
type Provincia struct {
	TableName string  `table:"provincias"`
	ID        int32   `json:"id" column:"id" primaryKey:"true"`
	PaisID    int32   `json:"paisId" column:"pais_id" primaryKey:"true" jpa:"path:pais.id"`
	Nombre    *string `json:"nombre" column:"nombre" odata:"null;length:100"`
	Pais      *Pais   `json:"pais,omitempty" association:"foreignKey:pais_id;references:id"`
}

// FormTypeStatus é persistido e exposto pelo nome do membro
type FormTypeStatus int

const (
	FormTypeActive FormTypeStatus = iota
	FormTypeInactive
	FormTypeDraft
)

var formTypeStatusEnum = &edm.EnumType{
	Namespace: Namespace,
	Name:      "FormTypeStatus",
	Members: []edm.EnumMember{
		{Name: "ACTIVE", Value: int(FormTypeActive)},
		{Name: "INACTIVE", Value: int(FormTypeInactive)},
		{Name: "DRAFT", Value: int(FormTypeDraft)},
	},
}

// EnumType implementa edm.Enumerated
func (FormTypeStatus) EnumType() *edm.EnumType {
	return formTypeStatusEnum
}

func (s FormTypeStatus) String() string {
	if member, ok := formTypeStatusEnum.MemberByValue(int(s)); ok {
		return member.Name
	}
	return strconv.Itoa(int(s))
}

// Valid verifica se o valor é um membro do enum
func (s FormTypeStatus) Valid() bool {
	_, ok := formTypeStatusEnum.MemberByValue(int(s))
	return ok
}

func (s FormTypeStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON aceita o nome ou o ordinal
func (s *FormTypeStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		member, ok := formTypeStatusEnum.MemberByName(name)
		if !ok {
			return fmt.Errorf("invalid %s value: %s", formTypeStatusEnum.FullQualifiedName(), name)
		}
		*s = FormTypeStatus(member.Value)
		return nil
	}

	var ordinal int
	if err := json.Unmarshal(data, &ordinal); err != nil {
		return fmt.Errorf("invalid %s value: %s", formTypeStatusEnum.FullQualifiedName(), string(data))
	}
	*s = FormTypeStatus(ordinal)
	return nil
}

// FormType é um tipo de formulário com status tratado pelo nome
type FormType struct {
	TableName string         `table:"form_types"`
	ID        int32          `json:"id" column:"id" primaryKey:"true"`
	Name      string         `json:"name" column:"name" odata:"not null;length:50"`
	Status    FormTypeStatus `json:"status" column:"status" jpa:"treatedAs:name"`
	Created   edm.Date       `json:"created" column:"created"`
}

// NewRegistry cria o registry com os entity sets do modelo de exemplo
func NewRegistry() (*edm.Registry, error) {
	registry := edm.NewRegistry(Namespace)

	if _, err := registry.RegisterEntity(ProvinciasEntitySet, Provincia{}); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", ProvinciasEntitySet, err)
	}
	if _, err := registry.RegisterEntity(FormTypesEntitySet, FormType{}); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", FormTypesEntitySet, err)
	}

	return registry, nil
}
