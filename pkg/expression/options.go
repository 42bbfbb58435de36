package expression

import (
	"context"
	"fmt"
	"strings"
)

// OrderByItem representa um item de $orderby
type OrderByItem struct {
	Expression Expression
	Descending bool
}

// ExpandItem representa um item de $expand (caminho de navegação)
type ExpandItem struct {
	Path []string
}

func (e ExpandItem) String() string {
	return strings.Join(e.Path, "/")
}

// ParseOrderBy analisa um $orderby como "Nombre desc, Pais/Nombre"
func ParseOrderBy(ctx context.Context, orderBy string) ([]OrderByItem, error) {
	var items []OrderByItem

	for _, part := range splitTopLevel(orderBy) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		item := OrderByItem{}
		fields := strings.Fields(part)
		switch strings.ToLower(fields[len(fields)-1]) {
		case "desc":
			item.Descending = true
			part = strings.TrimSpace(part[:strings.LastIndex(part, fields[len(fields)-1])])
		case "asc":
			part = strings.TrimSpace(part[:strings.LastIndex(part, fields[len(fields)-1])])
		}

		expr, err := GetGlobalParser().ParseFilter(ctx, part)
		if err != nil {
			return nil, fmt.Errorf("invalid $orderby item '%s': %w", part, err)
		}
		if expr == nil {
			return nil, fmt.Errorf("invalid $orderby item '%s'", part)
		}
		item.Expression = expr
		items = append(items, item)
	}

	return items, nil
}

// ParseExpand analisa um $expand como "Pais,Items/Product"
func ParseExpand(expand string) ([]ExpandItem, error) {
	var items []ExpandItem

	for _, part := range splitTopLevel(expand) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "(") {
			return nil, fmt.Errorf("nested options in $expand are not supported: %s", part)
		}

		path := strings.Split(part, "/")
		for _, segment := range path {
			if strings.TrimSpace(segment) == "" || segment == "*" {
				return nil, fmt.Errorf("invalid $expand item: %s", part)
			}
		}
		items = append(items, ExpandItem{Path: path})
	}

	return items, nil
}

// splitTopLevel divide por vírgulas fora de parênteses e strings
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	inString := false
	start := 0

	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}
