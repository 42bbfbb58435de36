package persistence

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
)

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// scanEntities lê as linhas na ordem de et.Properties e cria uma struct por linha
func scanEntities(rows *sql.Rows, et *edm.EntityType) ([]interface{}, error) {
	var result []interface{}

	for rows.Next() {
		raw := make([]interface{}, len(et.Properties))
		dest := make([]interface{}, len(et.Properties))
		for i := range raw {
			dest[i] = &raw[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", et.Name, err)
		}

		entity := et.New()
		value := reflect.ValueOf(entity).Elem()
		for i, prop := range et.Properties {
			field := value.FieldByName(prop.GoField)
			if !field.IsValid() {
				continue
			}
			if err := setField(field, prop, raw[i]); err != nil {
				return nil, fmt.Errorf("failed to set %s.%s: %w", et.Name, prop.Name, err)
			}
		}
		result = append(result, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// setField converte o valor do driver para o tipo do campo
func setField(field reflect.Value, prop *edm.Property, raw interface{}) error {
	if raw == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	if field.Kind() == reflect.Ptr {
		ptr := reflect.New(field.Type().Elem())
		if err := setField(ptr.Elem(), prop, raw); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	if prop.Enum != nil {
		return setEnum(field, prop.Enum, raw)
	}

	if reflect.PointerTo(field.Type()).Implements(scannerType) {
		return field.Addr().Interface().(sql.Scanner).Scan(raw)
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(asString(raw))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := asInt(raw)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := asInt(raw)
		if err != nil {
			return err
		}
		field.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := asFloat(raw)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := asBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Struct:
		if field.Type() != timeType {
			return fmt.Errorf("unsupported struct type %s", field.Type())
		}
		t, err := asTime(raw)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

// setEnum aceita o nome ou o ordinal do membro
func setEnum(field reflect.Value, enum *edm.EnumType, raw interface{}) error {
	text := asString(raw)
	if member, ok := enum.MemberByName(text); ok {
		field.SetInt(int64(member.Value))
		return nil
	}

	n, err := asInt(raw)
	if err != nil {
		return fmt.Errorf("value %v is not a member of %s", raw, enum.FullQualifiedName())
	}
	if _, ok := enum.MemberByValue(int(n)); !ok {
		return fmt.Errorf("value %d is not a member of %s", n, enum.FullQualifiedName())
	}
	field.SetInt(n)
	return nil
}

// columnValue extrai o valor gravado para uma propriedade
func columnValue(field reflect.Value, prop *edm.Property) (interface{}, error) {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return nil, nil
		}
		field = field.Elem()
	}

	if prop.Enum != nil {
		member, ok := prop.Enum.MemberByValue(int(field.Int()))
		if !ok {
			return nil, fmt.Errorf("value %d is not a member of %s", field.Int(), prop.Enum.FullQualifiedName())
		}
		if prop.TreatedAs == edm.TreatedAsName {
			return member.Name, nil
		}
		return member.Ordinal(), nil
	}

	if field.Type().Implements(valuerType) {
		return field.Interface().(driver.Valuer).Value()
	}

	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return field.Int(), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(field.Uint()), nil
	}
	return field.Interface(), nil
}

func asString(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return fmt.Sprint(raw)
}

func asInt(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	s := strings.TrimSpace(asString(raw))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %v to integer", raw)
	}
	return int64(f), nil
}

func asFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(asString(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %v to float", raw)
	}
	return f, nil
}

func asBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	}
	s := strings.TrimSpace(asString(raw))
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	n, err := asInt(raw)
	if err != nil {
		return false, fmt.Errorf("cannot convert %v to bool", raw)
	}
	return n != 0, nil
}

func asTime(raw interface{}) (time.Time, error) {
	if t, ok := raw.(time.Time); ok {
		return t, nil
	}
	s := strings.TrimSpace(asString(raw))
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", edm.DateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot convert %v to time", raw)
}
