package persistence

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/jpql"
)

// owners é um conjunto de structs do mesmo tipo que recebem uma navegação
type owners struct {
	et     *edm.EntityType
	values []reflect.Value
}

// loadFetches carrega cada navegação de LEFT JOIN FETCH com consultas IN (...) em lote.
// Os fetches chegam com prefixos antes dos caminhos mais longos.
func (em *EntityManager) loadFetches(ctx context.Context, root *edm.EntityType, result []interface{}, fetches []jpql.Fetch) error {
	if len(result) == 0 || len(fetches) == 0 {
		return nil
	}

	rootOwners := owners{et: root}
	for _, entity := range result {
		rootOwners.values = append(rootOwners.values, reflect.ValueOf(entity).Elem())
	}

	for _, fetch := range fetches {
		if len(fetch.Navigations) == 0 {
			continue
		}

		parents := rootOwners
		for _, nav := range fetch.Navigations[:len(fetch.Navigations)-1] {
			parents = children(parents, nav)
		}

		if err := em.loadNavigation(ctx, parents, fetch.Navigations[len(fetch.Navigations)-1]); err != nil {
			return fmt.Errorf("failed to fetch %s: %w", fetch.Path, err)
		}
	}
	return nil
}

// children percorre uma navegação já carregada
func children(parents owners, nav *edm.NavigationProperty) owners {
	next := owners{et: nav.Target}
	for _, parent := range parents.values {
		field := parent.FieldByName(nav.GoField)
		if !field.IsValid() {
			continue
		}
		switch field.Kind() {
		case reflect.Ptr:
			if !field.IsNil() {
				next.values = append(next.values, field.Elem())
			}
		case reflect.Slice:
			for i := 0; i < field.Len(); i++ {
				item := field.Index(i)
				if item.Kind() == reflect.Ptr {
					if item.IsNil() {
						continue
					}
					item = item.Elem()
				}
				next.values = append(next.values, item)
			}
		case reflect.Struct:
			next.values = append(next.values, field)
		}
	}
	return next
}

// loadNavigation busca os alvos de nav para todos os donos e os atribui
func (em *EntityManager) loadNavigation(ctx context.Context, parents owners, nav *edm.NavigationProperty) error {
	localProp := propertyByColumn(parents.et, nav.LocalColumn)
	if localProp == nil {
		return fmt.Errorf("entity %s has no column %s", parents.et.Name, nav.LocalColumn)
	}
	targetProp := propertyByColumn(nav.Target, nav.TargetColumn)
	if targetProp == nil {
		return fmt.Errorf("entity %s has no column %s", nav.Target.Name, nav.TargetColumn)
	}

	var keys []interface{}
	seen := make(map[string]bool)
	for _, parent := range parents.values {
		v, err := columnValue(parent.FieldByName(localProp.GoField), localProp)
		if err != nil {
			return err
		}
		if v == nil {
			continue
		}
		k := fmt.Sprint(v)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, v)
		}
	}

	targets := make(map[string][]reflect.Value)
	for start := 0; start < len(keys); start += em.batchSize {
		end := start + em.batchSize
		if end > len(keys) {
			end = len(keys)
		}

		loaded, err := em.queryIn(ctx, nav.Target, nav.TargetColumn, keys[start:end])
		if err != nil {
			return err
		}
		for _, entity := range loaded {
			value := reflect.ValueOf(entity).Elem()
			v, err := columnValue(value.FieldByName(targetProp.GoField), targetProp)
			if err != nil {
				return err
			}
			k := fmt.Sprint(v)
			targets[k] = append(targets[k], value)
		}
	}

	for _, parent := range parents.values {
		v, err := columnValue(parent.FieldByName(localProp.GoField), localProp)
		if err != nil {
			return err
		}
		assign(parent.FieldByName(nav.GoField), targets[fmt.Sprint(v)])
	}
	return nil
}

func (em *EntityManager) queryIn(ctx context.Context, et *edm.EntityType, column string, keys []interface{}) ([]interface{}, error) {
	args := newArgList(em.dialect)
	placeholders := make([]string, len(keys))
	for i, key := range keys {
		placeholders[i] = args.add(key)
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s WHERE %s.%s IN (%s)",
		selectColumns(rootAlias, et, em.dialect),
		em.dialect.QuoteIdentifier(et.Table), rootAlias,
		rootAlias, em.dialect.QuoteIdentifier(column),
		strings.Join(placeholders, ", "))

	return em.queryEntities(ctx, et, &Statement{SQL: query, Args: args.values})
}

// assign grava os alvos no campo da navegação (ponteiro, struct ou slice)
func assign(field reflect.Value, targets []reflect.Value) {
	if !field.IsValid() {
		return
	}

	switch field.Kind() {
	case reflect.Ptr:
		if len(targets) == 0 {
			field.Set(reflect.Zero(field.Type()))
			return
		}
		field.Set(targets[0].Addr())
	case reflect.Struct:
		if len(targets) > 0 {
			field.Set(targets[0])
		}
	case reflect.Slice:
		slice := reflect.MakeSlice(field.Type(), 0, len(targets))
		pointers := field.Type().Elem().Kind() == reflect.Ptr
		for _, target := range targets {
			if pointers {
				slice = reflect.Append(slice, target.Addr())
			} else {
				slice = reflect.Append(slice, target)
			}
		}
		field.Set(slice)
	}
}

func propertyByColumn(et *edm.EntityType, column string) *edm.Property {
	for _, prop := range et.Properties {
		if strings.EqualFold(prop.Column, column) {
			return prop
		}
	}
	return nil
}
