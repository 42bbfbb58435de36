package expression

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// TokenType representa os tipos de tokens de um $filter
type TokenType int

const (
	TokenSkip TokenType = iota - 1
	_
	TokenProperty
	TokenFunction
	TokenArithmetic
	TokenString
	TokenNumber
	TokenOpenParen
	TokenCloseParen
	TokenComma
	TokenColon
	TokenLogical
	TokenComparison
	TokenBoolean
	TokenNull
	TokenDateTime
	TokenDate
	TokenTime
	TokenGuid
	TokenDuration
	TokenGeographyPoint
	TokenGeometryPoint
	TokenEnum
	TokenAlias
	TokenQualifiedName
	TokenMinus
)

// Token representa um token no parsing
type Token struct {
	Type     TokenType
	Value    string
	Position int
}

var (
	filterTokenizer     *Tokenizer
	filterTokenizerOnce sync.Once
)

// FilterTokenizer retorna o tokenizer compartilhado para filtros
func FilterTokenizer() *Tokenizer {
	filterTokenizerOnce.Do(func() {
		filterTokenizer = createFilterTokenizer()
	})
	return filterTokenizer
}

// createFilterTokenizer cria o tokenizer de filtros OData. A ordem dos padrões importa.
func createFilterTokenizer() *Tokenizer {
	t := &Tokenizer{}

	t.Add(`^(?i)\b(and|or|not)\b`, TokenLogical)
	t.Add(`^(?i)\b(eq|ne|gt|ge|lt|le|has|in)\b`, TokenComparison)
	t.Add(`^(?i)\b(add|sub|mul|divby|div|mod)\b`, TokenArithmetic)
	t.Add(`^(?i)\b(contains|startswith|endswith|length|indexof|substring|tolower|toupper|trim|concat|year|month|day|hour|minute|second|now|date|time|round|floor|ceiling|cast|isof)\b`, TokenFunction)

	t.Add(`^\(`, TokenOpenParen)
	t.Add(`^\)`, TokenCloseParen)
	t.Add(`^,`, TokenComma)
	t.Add(`^:`, TokenColon)

	// 12345678-1234-5678-9012-123456789012
	t.Add(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`, TokenGuid)
	t.Add(`^geography'[^']*'`, TokenGeographyPoint)
	t.Add(`^geometry'[^']*'`, TokenGeometryPoint)
	t.Add(`^duration'[^']*'`, TokenDuration)
	t.Add(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:\d{2})?`, TokenDateTime)
	t.Add(`^\d{4}-\d{2}-\d{2}`, TokenDate)
	t.Add(`^\d{2}:\d{2}:\d{2}(\.\d+)?`, TokenTime)

	t.Add(`^(?i)\b(true|false)\b`, TokenBoolean)
	t.Add(`^(?i)\bnull\b`, TokenNull)

	// Aspas simples são escapadas duplicando-as: 'O''Higgins'
	t.Add(`^'(?:[^']|'')*'`, TokenString)
	t.Add(`^\d+(\.\d+)?([eE][+-]?\d+)?[dDfFmMlL]?`, TokenNumber)
	t.Add(`^-`, TokenMinus)

	t.Add(`^@[a-zA-Z_][a-zA-Z0-9_]*`, TokenAlias)
	// Namespace.Tipo'Membro'
	t.Add(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)+'[^']*'`, TokenEnum)
	t.Add(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)+`, TokenQualifiedName)
	// Propriedades e caminhos (deve vir por último)
	t.Add(`^\$?[a-zA-Z_][a-zA-Z0-9_]*(/[a-zA-Z_][a-zA-Z0-9_]*)*`, TokenProperty)

	t.Add(`^\s+`, TokenSkip)

	return t
}

// Tokenizer é responsável por tokenizar strings
type Tokenizer struct {
	patterns []tokenPattern
}

type tokenPattern struct {
	regex     *regexp.Regexp
	tokenType TokenType
}

// Add adiciona um padrão de token ao tokenizer
func (t *Tokenizer) Add(pattern string, tokenType TokenType) {
	t.patterns = append(t.patterns, tokenPattern{
		regex:     regexp.MustCompile(pattern),
		tokenType: tokenType,
	})
}

// Tokenize tokeniza uma string em tokens
func (t *Tokenizer) Tokenize(ctx context.Context, input string) ([]*Token, error) {
	var tokens []*Token
	position := 0

	for position < len(input) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		remaining := input[position:]
		matched := false

		for _, pattern := range t.patterns {
			match := pattern.regex.FindString(remaining)
			if match == "" {
				continue
			}

			if pattern.tokenType != TokenSkip {
				tokens = append(tokens, &Token{
					Type:     pattern.tokenType,
					Value:    match,
					Position: position,
				})
			}
			position += len(match)
			matched = true
			break
		}

		if !matched {
			return nil, fmt.Errorf("unable to tokenize at position %d: '%s'", position, strings.TrimSpace(remaining))
		}
	}

	return tokens, nil
}
