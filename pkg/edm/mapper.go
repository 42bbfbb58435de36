package edm

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	enumeratedType = reflect.TypeOf((*Enumerated)(nil)).Elem()
	dateType       = reflect.TypeOf(Date{})
	timeType       = reflect.TypeOf(time.Time{})
)

// EntityMapper constrói tabelas de mapeamento a partir das tags das structs.
// A reflexão acontece uma única vez por tipo; o resultado é reaproveitado.
type EntityMapper struct {
	namespace string
	types     map[reflect.Type]*EntityType
	enums     map[string]*EnumType
}

// NewEntityMapper cria um novo mapper para o namespace informado
func NewEntityMapper(namespace string) *EntityMapper {
	return &EntityMapper{
		namespace: namespace,
		types:     make(map[reflect.Type]*EntityType),
		enums:     make(map[string]*EnumType),
	}
}

// MapEntity mapeia uma struct (ou ponteiro para struct) para EntityType
func (m *EntityMapper) MapEntity(entity interface{}) (*EntityType, error) {
	t := reflect.TypeOf(entity)
	if t == nil {
		return nil, fmt.Errorf("entity must be a struct, got nil")
	}
	return m.mapType(t)
}

// Enums retorna os enums encontrados durante o mapeamento
func (m *EntityMapper) Enums() []*EnumType {
	enums := make([]*EnumType, 0, len(m.enums))
	for _, e := range m.enums {
		enums = append(enums, e)
	}
	return enums
}

func (m *EntityMapper) mapType(t reflect.Type) (*EntityType, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity must be a struct, got %s", t.Kind())
	}

	if et, ok := m.types[t]; ok {
		return et, nil
	}

	et := &EntityType{
		Namespace: m.namespace,
		Name:      t.Name(),
		Table:     strings.ToLower(t.Name()),
		GoType:    t,
	}
	// Registra antes de mapear os campos para suportar relacionamentos cíclicos
	m.types[t] = et

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Name == "TableName" {
			if table := field.Tag.Get("table"); table != "" {
				et.Table = strings.TrimSpace(strings.Split(table, ";")[0])
			}
			continue
		}

		name, skip := jsonName(field)
		if skip {
			continue
		}

		if m.isRelationship(field.Type) {
			nav, err := m.mapNavigation(field, name)
			if err != nil {
				delete(m.types, t)
				return nil, fmt.Errorf("error mapping field %s: %w", field.Name, err)
			}
			et.Navigations = append(et.Navigations, nav)
			continue
		}

		prop, err := m.mapProperty(field, name)
		if err != nil {
			delete(m.types, t)
			return nil, fmt.Errorf("error mapping field %s: %w", field.Name, err)
		}
		et.Properties = append(et.Properties, prop)

		if prop.IsKey {
			et.Keys = append(et.Keys, prop.Name)
		}
	}

	return et, nil
}

// mapProperty mapeia um campo primitivo
func (m *EntityMapper) mapProperty(field reflect.StructField, name string) (*Property, error) {
	prop := &Property{
		Name:     name,
		Field:    defaultFieldName(field.Name),
		GoField:  field.Name,
		Column:   strings.ToLower(field.Name),
		Nullable: field.Type.Kind() == reflect.Ptr,
	}

	ft := field.Type
	if ft.Kind() == reflect.Ptr {
		ft = ft.Elem()
	}

	if enum := m.enumOf(ft); enum != nil {
		prop.Type = TypeEnum
		prop.Enum = enum
	} else {
		prop.Type = mapGoType(ft)
	}

	if column := field.Tag.Get("column"); column != "" {
		prop.Column = column
	}

	if pk := field.Tag.Get("primaryKey"); pk != "" && pk != "false" {
		prop.IsKey = true
	}

	if tag := field.Tag.Get("odata"); tag != "" {
		if err := parseODataTag(tag, prop); err != nil {
			return nil, err
		}
	}

	if tag := field.Tag.Get("jpa"); tag != "" {
		for key, value := range tagPairs(tag) {
			switch key {
			case "field":
				prop.Field = value
			case "path":
				prop.Path = value
			case "treatedAs":
				treatedAs, err := ParseTreatedAs(value)
				if err != nil {
					return nil, err
				}
				prop.TreatedAs = treatedAs
			}
		}
	}

	return prop, nil
}

// mapNavigation mapeia um relacionamento (struct, ponteiro ou slice)
func (m *EntityMapper) mapNavigation(field reflect.StructField, name string) (*NavigationProperty, error) {
	nav := &NavigationProperty{
		Name:    name,
		Field:   defaultFieldName(field.Name),
		GoField: field.Name,
	}

	target := field.Type
	if target.Kind() == reflect.Slice {
		nav.Collection = true
		target = target.Elem()
	}

	et, err := m.mapType(target)
	if err != nil {
		return nil, err
	}
	nav.Target = et

	// association: a chave estrangeira está na entidade local (N:1)
	if association := field.Tag.Get("association"); association != "" {
		pairs := tagPairs(association)
		nav.LocalColumn = pairs["foreignKey"]
		nav.TargetColumn = pairs["references"]
	}

	// manyAssociation: a chave estrangeira está na entidade relacionada (1:N)
	if many := field.Tag.Get("manyAssociation"); many != "" {
		pairs := tagPairs(many)
		nav.LocalColumn = pairs["references"]
		nav.TargetColumn = pairs["foreignKey"]
		nav.Collection = true
	}

	if nav.LocalColumn == "" || nav.TargetColumn == "" {
		return nil, fmt.Errorf("navigation %s requires association or manyAssociation tag", field.Name)
	}

	if tag := field.Tag.Get("jpa"); tag != "" {
		pairs := tagPairs(tag)
		if f, ok := pairs["field"]; ok {
			nav.Field = f
		}
		if p, ok := pairs["path"]; ok {
			nav.Path = p
		}
	}

	return nav, nil
}

// enumOf retorna o EnumType quando o tipo implementa Enumerated
func (m *EntityMapper) enumOf(t reflect.Type) *EnumType {
	if !t.Implements(enumeratedType) {
		return nil
	}
	enum := reflect.Zero(t).Interface().(Enumerated).EnumType()
	if enum == nil {
		return nil
	}
	if enum.Namespace == "" {
		enum.Namespace = m.namespace
	}
	if known, ok := m.enums[enum.FullQualifiedName()]; ok {
		return known
	}
	m.enums[enum.FullQualifiedName()] = enum
	return enum
}

// isRelationship verifica se o tipo representa um relacionamento
func (m *EntityMapper) isRelationship(t reflect.Type) bool {
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != dateType && t != timeType
}

// parseODataTag processa a tag odata
func parseODataTag(tag string, prop *Property) error {
	for _, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)

		switch {
		case part == "not null":
			prop.Nullable = false
		case part == "null":
			prop.Nullable = true
		case strings.HasPrefix(part, "length:"):
			length, err := strconv.Atoi(strings.TrimPrefix(part, "length:"))
			if err != nil {
				return fmt.Errorf("invalid length in odata tag: %s", part)
			}
			prop.MaxLength = length
		case strings.HasPrefix(part, "type:"):
			prop.Type = Type(strings.TrimPrefix(part, "type:"))
		}
	}
	return nil
}

// tagPairs interpreta tags no formato chave:valor;chave:valor
func tagPairs(tag string) map[string]string {
	pairs := make(map[string]string)
	for _, part := range strings.Split(tag, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(part), ":")
		if !found {
			continue
		}
		pairs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return pairs
}

func jsonName(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	if name := strings.Split(tag, ",")[0]; name != "" {
		return name, false
	}
	return field.Name, false
}

// defaultFieldName converte o nome Go para o nome do campo persistente (ID -> id, PaisID -> paisID)
func defaultFieldName(goName string) string {
	runes := []rune(goName)
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}

	switch {
	case upper == 0:
		return goName
	case upper == 1 || upper == len(runes):
		for i := 0; i < upper; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	default:
		for i := 0; i < upper-1; i++ {
			runes[i] = unicode.ToLower(runes[i])
		}
	}
	return string(runes)
}

// mapGoType mapeia tipos Go para tipos semânticos
func mapGoType(t reflect.Type) Type {
	switch t {
	case dateType:
		return TypeDate
	case timeType:
		return TypeDateTimeOffset
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Uint8, reflect.Uint16:
		return TypeInt32
	case reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return TypeInt64
	case reflect.Float32, reflect.Float64:
		return TypeDouble
	case reflect.Bool:
		return TypeBoolean
	default:
		return TypeString
	}
}
