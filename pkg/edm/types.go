package edm

import (
	"fmt"
	"reflect"
	"strings"
)

// Type representa o tipo semântico de uma propriedade
type Type string

const (
	TypeInt32          Type = "Edm.Int32"
	TypeInt64          Type = "Edm.Int64"
	TypeString         Type = "Edm.String"
	TypeDate           Type = "Edm.Date"
	TypeBoolean        Type = "Edm.Boolean"
	TypeDouble         Type = "Edm.Double"
	TypeDecimal        Type = "Edm.Decimal"
	TypeDateTimeOffset Type = "Edm.DateTimeOffset"
	TypeEnum           Type = "Edm.Enum"
)

// TreatedAs define como um valor de enum é persistido e comparado
type TreatedAs int

const (
	// TreatedAsEnumeration usa o próprio membro do enum
	TreatedAsEnumeration TreatedAs = iota
	// TreatedAsName usa o nome do membro
	TreatedAsName
	// TreatedAsNumeric usa o ordinal do membro
	TreatedAsNumeric
)

// String retorna o nome do tratamento
func (t TreatedAs) String() string {
	switch t {
	case TreatedAsName:
		return "NAME"
	case TreatedAsNumeric:
		return "NUMERIC"
	default:
		return "ENUMERATION"
	}
}

// ParseTreatedAs converte o texto da tag no tratamento correspondente
func ParseTreatedAs(s string) (TreatedAs, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "enumeration":
		return TreatedAsEnumeration, nil
	case "name":
		return TreatedAsName, nil
	case "numeric":
		return TreatedAsNumeric, nil
	}
	return TreatedAsEnumeration, fmt.Errorf("invalid treatedAs value: %s", s)
}

// EnumMember representa um membro de um tipo enum
type EnumMember struct {
	Name  string
	Value int
}

// Ordinal retorna o valor persistido do membro
func (m EnumMember) Ordinal() int64 {
	return int64(m.Value)
}

// String retorna o nome do membro
func (m EnumMember) String() string {
	return m.Name
}

// EnumType representa um tipo enum declarado no modelo
type EnumType struct {
	Namespace string
	Name      string
	Members   []EnumMember
}

// FullQualifiedName retorna Namespace.Name
func (e *EnumType) FullQualifiedName() string {
	if e.Namespace == "" {
		return e.Name
	}
	return e.Namespace + "." + e.Name
}

// MemberByName busca um membro pelo nome
func (e *EnumType) MemberByName(name string) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m, true
		}
	}
	return EnumMember{}, false
}

// MemberByValue busca um membro pelo ordinal
func (e *EnumType) MemberByValue(value int) (EnumMember, bool) {
	for _, m := range e.Members {
		if m.Value == value {
			return m, true
		}
	}
	return EnumMember{}, false
}

// Enumerated é implementado por tipos Go que representam enums do modelo
type Enumerated interface {
	EnumType() *EnumType
}

// Property representa uma propriedade primitiva de uma entidade
type Property struct {
	Name      string // nome OData
	Field     string // nome do campo persistente
	Path      string // caminho JPA explícito (opcional)
	GoField   string
	Column    string
	Type      Type
	Enum      *EnumType
	TreatedAs TreatedAs
	IsKey     bool
	Nullable  bool
	MaxLength int
}

// JPAPath retorna o caminho usado nas consultas JPQL
func (p *Property) JPAPath() string {
	if p.Path != "" {
		return p.Path
	}
	return p.Field
}

// Matches verifica se o nome informado corresponde ao nome OData ou ao campo
func (p *Property) Matches(name string) bool {
	return p.Name == name || p.Field == name
}

// FilterType retorna o tipo usado para coerção de literais comparados com a propriedade
func (p *Property) FilterType() Type {
	if p.Enum == nil {
		return p.Type
	}
	switch p.TreatedAs {
	case TreatedAsNumeric:
		return TypeInt32
	case TreatedAsName:
		return TypeString
	default:
		return TypeEnum
	}
}

// NavigationProperty representa um relacionamento entre entidades
type NavigationProperty struct {
	Name       string
	Field      string
	Path       string
	GoField    string
	Target     *EntityType
	Collection bool

	// LocalColumn e TargetColumn definem a condição de junção
	// local.LocalColumn = target.TargetColumn
	LocalColumn  string
	TargetColumn string
}

// JPAPath retorna o caminho usado nas consultas JPQL
func (n *NavigationProperty) JPAPath() string {
	if n.Path != "" {
		return n.Path
	}
	return n.Field
}

// Matches verifica se o nome informado corresponde ao nome OData ou ao campo
func (n *NavigationProperty) Matches(name string) bool {
	return n.Name == name || n.Field == name
}

// EntityType representa a tabela de mapeamento de uma entidade
type EntityType struct {
	Namespace   string
	Name        string
	EntitySet   string
	Table       string
	Keys        []string
	Properties  []*Property
	Navigations []*NavigationProperty
	GoType      reflect.Type
}

// New cria um ponteiro para uma nova instância da struct mapeada
func (e *EntityType) New() interface{} {
	return reflect.New(e.GoType).Interface()
}

// FullQualifiedName retorna Namespace.Name
func (e *EntityType) FullQualifiedName() string {
	if e.Namespace == "" {
		return e.Name
	}
	return e.Namespace + "." + e.Name
}

// Property busca uma propriedade pelo nome OData ou pelo nome do campo
func (e *EntityType) Property(name string) (*Property, bool) {
	for _, p := range e.Properties {
		if p.Matches(name) {
			return p, true
		}
	}
	return nil, false
}

// PropertyByPath busca uma propriedade pelo caminho JPA
func (e *EntityType) PropertyByPath(path string) (*Property, bool) {
	for _, p := range e.Properties {
		if p.JPAPath() == path {
			return p, true
		}
	}
	return nil, false
}

// Navigation busca um relacionamento pelo nome OData ou pelo nome do campo
func (e *EntityType) Navigation(name string) (*NavigationProperty, bool) {
	for _, n := range e.Navigations {
		if n.Matches(name) {
			return n, true
		}
	}
	return nil, false
}

// NavigationByPath busca um relacionamento pelo caminho JPA
func (e *EntityType) NavigationByPath(path string) (*NavigationProperty, bool) {
	for _, n := range e.Navigations {
		if n.JPAPath() == path {
			return n, true
		}
	}
	return nil, false
}

// KeyProperties retorna as propriedades chave na ordem declarada
func (e *EntityType) KeyProperties() []*Property {
	keys := make([]*Property, 0, len(e.Keys))
	for _, k := range e.Keys {
		if p, ok := e.Property(k); ok {
			keys = append(keys, p)
		}
	}
	return keys
}

// EnumProperties retorna as propriedades cujo tipo é um enum
func (e *EntityType) EnumProperties() []*Property {
	var props []*Property
	for _, p := range e.Properties {
		if p.Enum != nil {
			props = append(props, p)
		}
	}
	return props
}
