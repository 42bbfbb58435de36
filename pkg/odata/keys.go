package odata

import (
	"strconv"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
)

// KeyPredicates guarda o texto de cada chave da URL, como em Provincias(paisId=1,id=2)
type KeyPredicates map[string]string

// Text retorna o texto da chave sem aspas
func (k KeyPredicates) Text(name string) (string, error) {
	value, ok := k[name]
	if !ok {
		return "", BadRequestErrorf("missing key '%s'", name)
	}
	if len(value) >= 2 && strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") {
		value = strings.ReplaceAll(value[1:len(value)-1], "''", "'")
	}
	return value, nil
}

// Int32 retorna a chave convertida para int32
func (k KeyPredicates) Int32(name string) (int32, error) {
	text, err := k.Text(name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, BadRequestErrorf("key '%s' must be an integer: %s", name, text)
	}
	return int32(value), nil
}

// ParseKeyPredicates interpreta o conteúdo entre parênteses de um segmento de URL.
// Uma chave simples pode ser informada sem nome: Provincias(5).
func ParseKeyPredicates(segment string, et *edm.EntityType) (KeyPredicates, error) {
	segment = strings.TrimSpace(segment)
	segment = strings.TrimPrefix(segment, "(")
	segment = strings.TrimSuffix(segment, ")")
	if segment == "" {
		return nil, BadRequestError("empty key predicate")
	}

	keys := make(KeyPredicates)
	parts := splitKeyParts(segment)

	if len(parts) == 1 && !strings.Contains(parts[0], "=") {
		if len(et.Keys) != 1 {
			return nil, BadRequestErrorf("entity '%s' has a composite key", et.Name)
		}
		keys[et.Keys[0]] = strings.TrimSpace(parts[0])
		return keys, nil
	}

	for _, part := range parts {
		name, value, found := strings.Cut(part, "=")
		if !found {
			return nil, BadRequestErrorf("invalid key predicate '%s'", part)
		}
		name = strings.TrimSpace(name)

		prop, ok := et.Property(name)
		if !ok || !prop.IsKey {
			return nil, BadRequestErrorf("'%s' is not a key of entity '%s'", name, et.Name)
		}
		keys[prop.Name] = strings.TrimSpace(value)
	}

	for _, key := range et.Keys {
		if _, ok := keys[key]; !ok {
			return nil, BadRequestErrorf("missing key '%s'", key)
		}
	}

	return keys, nil
}

// splitKeyParts divide por vírgulas fora de strings
func splitKeyParts(s string) []string {
	var parts []string
	inString := false
	start := 0

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inString = !inString
		case ',':
			if !inString {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
