package expression

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Associativity associatividade dos operadores
type Associativity int

const (
	AssocLeft Associativity = iota
	AssocRight
)

// OperatorInfo informações sobre operadores
type OperatorInfo struct {
	Precedence    int
	Associativity Associativity
}

var (
	globalParser     *Parser
	globalParserOnce sync.Once
)

// GetGlobalParser retorna a instância compartilhada do parser
func GetGlobalParser() *Parser {
	globalParserOnce.Do(func() {
		globalParser = &Parser{
			tokenizer: FilterTokenizer(),
			operators: map[string]OperatorInfo{
				// Operadores lógicos (precedência mais baixa)
				"or":  {Precedence: 1, Associativity: AssocLeft},
				"and": {Precedence: 2, Associativity: AssocLeft},
				"not": {Precedence: 3, Associativity: AssocRight},

				// Operadores de comparação
				"eq":  {Precedence: 4, Associativity: AssocLeft},
				"ne":  {Precedence: 4, Associativity: AssocLeft},
				"gt":  {Precedence: 4, Associativity: AssocLeft},
				"ge":  {Precedence: 4, Associativity: AssocLeft},
				"lt":  {Precedence: 4, Associativity: AssocLeft},
				"le":  {Precedence: 4, Associativity: AssocLeft},
				"has": {Precedence: 4, Associativity: AssocLeft},
				"in":  {Precedence: 4, Associativity: AssocLeft},

				// Operadores aritméticos
				"add":   {Precedence: 5, Associativity: AssocLeft},
				"sub":   {Precedence: 5, Associativity: AssocLeft},
				"mul":   {Precedence: 6, Associativity: AssocLeft},
				"div":   {Precedence: 6, Associativity: AssocLeft},
				"divby": {Precedence: 6, Associativity: AssocLeft},
				"mod":   {Precedence: 6, Associativity: AssocLeft},
			},
		}
	})
	return globalParser
}

// Parser constrói árvores de expressão a partir de textos $filter
type Parser struct {
	tokenizer *Tokenizer
	operators map[string]OperatorInfo
}

// NewParser retorna o parser compartilhado
func NewParser() *Parser {
	return GetGlobalParser()
}

// ParseFilter analisa um $filter usando o parser compartilhado
func ParseFilter(ctx context.Context, filter string) (Expression, error) {
	return GetGlobalParser().ParseFilter(ctx, filter)
}

// ParseFilter analisa uma expressão de filtro. Filtro vazio retorna nil sem erro.
func (p *Parser) ParseFilter(ctx context.Context, filter string) (Expression, error) {
	if strings.TrimSpace(filter) == "" {
		return nil, nil
	}

	tokens, err := p.tokenizer.Tokenize(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("tokenization error: %w", err)
	}

	state := &parseState{
		ctx:       ctx,
		parser:    p,
		tokens:    tokens,
		variables: make(map[string]bool),
	}

	expr, err := state.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if tok := state.peek(); tok != nil {
		return nil, fmt.Errorf("unexpected token '%s' at position %d", tok.Value, tok.Position)
	}

	return expr, nil
}

// parseState guarda a posição corrente e as variáveis de lambda em escopo
type parseState struct {
	ctx       context.Context
	parser    *Parser
	tokens    []*Token
	pos       int
	variables map[string]bool
}

func (s *parseState) peek() *Token {
	if s.pos >= len(s.tokens) {
		return nil
	}
	return s.tokens[s.pos]
}

func (s *parseState) next() *Token {
	tok := s.peek()
	if tok != nil {
		s.pos++
	}
	return tok
}

func (s *parseState) expect(tokenType TokenType, what string) (*Token, error) {
	tok := s.next()
	if tok == nil {
		return nil, fmt.Errorf("expected %s but reached end of expression", what)
	}
	if tok.Type != tokenType {
		return nil, fmt.Errorf("expected %s at position %d, got '%s'", what, tok.Position, tok.Value)
	}
	return tok, nil
}

// parseExpression aplica precedence climbing sobre a tabela de operadores
func (s *parseState) parseExpression(minPrecedence int) (Expression, error) {
	select {
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	default:
	}

	left, err := s.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := s.peek()
		if tok == nil || !isBinaryToken(tok) {
			return left, nil
		}

		name := strings.ToLower(tok.Value)
		info, exists := s.parser.operators[name]
		if !exists || name == "not" {
			return nil, fmt.Errorf("unexpected operator '%s' at position %d", tok.Value, tok.Position)
		}
		if info.Precedence < minPrecedence {
			return left, nil
		}
		s.next()

		kind, _ := ParseBinaryOperator(name)

		var right Expression
		if kind == BinaryIn {
			right, err = s.parseCollection()
		} else {
			nextPrecedence := info.Precedence + 1
			if info.Associativity == AssocRight {
				nextPrecedence = info.Precedence
			}
			right, err = s.parseExpression(nextPrecedence)
		}
		if err != nil {
			return nil, err
		}

		left = &Binary{Operator: kind, Left: left, Right: right}
	}
}

func (s *parseState) parseUnary() (Expression, error) {
	tok := s.peek()
	if tok == nil {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	if tok.Type == TokenLogical && strings.EqualFold(tok.Value, "not") {
		s.next()
		operand, err := s.parseExpression(s.parser.operators["not"].Precedence)
		if err != nil {
			return nil, err
		}
		return &Unary{Operator: UnaryNot, Operand: operand}, nil
	}

	if tok.Type == TokenMinus {
		s.next()
		operand, err := s.parsePrimary()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(*Literal); ok && lit.Kind == LiteralNumber {
			return &Literal{Text: "-" + lit.Text, Kind: LiteralNumber}, nil
		}
		return &Unary{Operator: UnaryMinus, Operand: operand}, nil
	}

	return s.parsePrimary()
}

func (s *parseState) parsePrimary() (Expression, error) {
	tok := s.next()
	if tok == nil {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	switch tok.Type {
	case TokenOpenParen:
		expr, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := s.expect(TokenCloseParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenString:
		return &Literal{Text: tok.Value, Kind: LiteralString}, nil
	case TokenNumber:
		return &Literal{Text: tok.Value, Kind: LiteralNumber}, nil
	case TokenBoolean:
		return &Literal{Text: strings.ToLower(tok.Value), Kind: LiteralBoolean}, nil
	case TokenNull:
		return &Literal{Text: "null", Kind: LiteralNull}, nil
	case TokenDate:
		return &Literal{Text: tok.Value, Kind: LiteralDate}, nil
	case TokenDateTime:
		return &Literal{Text: tok.Value, Kind: LiteralDateTime}, nil
	case TokenTime:
		return &Literal{Text: tok.Value, Kind: LiteralTime}, nil
	case TokenGuid:
		return &Literal{Text: tok.Value, Kind: LiteralGuid}, nil
	case TokenDuration:
		return &Literal{Text: tok.Value, Kind: LiteralDuration}, nil
	case TokenGeographyPoint:
		return &Literal{Text: tok.Value, Kind: LiteralGeography}, nil
	case TokenGeometryPoint:
		return &Literal{Text: tok.Value, Kind: LiteralGeometry}, nil

	case TokenEnum:
		return parseEnumLiteral(tok.Value), nil
	case TokenAlias:
		return &Alias{Name: strings.TrimPrefix(tok.Value, "@")}, nil
	case TokenQualifiedName:
		return &TypeLiteral{Type: tok.Value}, nil

	case TokenFunction:
		if next := s.peek(); next != nil && next.Type == TokenOpenParen {
			return s.parseMethodCall(tok)
		}
		// Nome de função usado como propriedade (ex: uma coluna "date")
		return s.parsePath(tok)

	case TokenProperty:
		return s.parsePath(tok)
	}

	return nil, fmt.Errorf("unexpected token '%s' at position %d", tok.Value, tok.Position)
}

func (s *parseState) parseMethodCall(tok *Token) (Expression, error) {
	s.next() // (
	call := &MethodCall{Method: MethodKind(strings.ToLower(tok.Value))}

	if next := s.peek(); next != nil && next.Type == TokenCloseParen {
		s.next()
		return call, nil
	}

	for {
		param, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		call.Parameters = append(call.Parameters, param)

		sep := s.next()
		if sep == nil {
			return nil, fmt.Errorf("unterminated call to %s", tok.Value)
		}
		if sep.Type == TokenCloseParen {
			return call, nil
		}
		if sep.Type != TokenComma {
			return nil, fmt.Errorf("expected ',' or ')' at position %d, got '%s'", sep.Position, sep.Value)
		}
	}
}

// parsePath classifica os segmentos: todos menos o último são navegações
func (s *parseState) parsePath(tok *Token) (Expression, error) {
	names := strings.Split(tok.Value, "/")

	last := strings.ToLower(names[len(names)-1])
	if (last == "any" || last == "all") && len(names) > 1 {
		if next := s.peek(); next != nil && next.Type == TokenOpenParen {
			source, err := s.memberOf(names[:len(names)-1])
			if err != nil {
				return nil, err
			}
			if source.Variable == "" && len(source.Segments) > 0 {
				source.Segments[len(source.Segments)-1].Kind = SegmentNavigation
			}
			return s.parseLambda(last, source)
		}
	}

	if len(names) == 1 && s.variables[names[0]] {
		return &LambdaRef{Variable: names[0]}, nil
	}

	return s.memberOf(names)
}

func (s *parseState) memberOf(names []string) (*Member, error) {
	member := &Member{}
	if s.variables[names[0]] {
		member.Variable = names[0]
		names = names[1:]
	}

	for i, name := range names {
		kind := SegmentNavigation
		if i == len(names)-1 {
			kind = SegmentPrimitiveProperty
		}
		member.Segments = append(member.Segments, Segment{Kind: kind, Name: name})
	}
	return member, nil
}

func (s *parseState) parseLambda(function string, source *Member) (Expression, error) {
	s.next() // (
	lambda := &Lambda{Function: function, Source: source}

	if next := s.peek(); next != nil && next.Type == TokenCloseParen {
		s.next()
		return lambda, nil
	}

	variable, err := s.expect(TokenProperty, "lambda variable")
	if err != nil {
		return nil, err
	}
	if _, err := s.expect(TokenColon, "':'"); err != nil {
		return nil, err
	}

	lambda.Variable = variable.Value
	s.variables[variable.Value] = true
	body, err := s.parseExpression(0)
	delete(s.variables, variable.Value)
	if err != nil {
		return nil, err
	}
	lambda.Body = body

	if _, err := s.expect(TokenCloseParen, "')'"); err != nil {
		return nil, err
	}
	return lambda, nil
}

func (s *parseState) parseCollection() (Expression, error) {
	if _, err := s.expect(TokenOpenParen, "'(' after in"); err != nil {
		return nil, err
	}

	collection := &Collection{}
	for {
		item, err := s.parseExpression(0)
		if err != nil {
			return nil, err
		}
		collection.Items = append(collection.Items, item)

		sep := s.next()
		if sep == nil {
			return nil, fmt.Errorf("unterminated in list")
		}
		if sep.Type == TokenCloseParen {
			return collection, nil
		}
		if sep.Type != TokenComma {
			return nil, fmt.Errorf("expected ',' or ')' at position %d, got '%s'", sep.Position, sep.Value)
		}
	}
}

func parseEnumLiteral(value string) *Enum {
	quote := strings.Index(value, "'")
	members := strings.Trim(value[quote:], "'")

	enum := &Enum{Type: value[:quote]}
	for _, m := range strings.Split(members, ",") {
		if m = strings.TrimSpace(m); m != "" {
			enum.Values = append(enum.Values, m)
		}
	}
	return enum
}

func isBinaryToken(tok *Token) bool {
	switch tok.Type {
	case TokenLogical, TokenComparison, TokenArithmetic:
		return true
	}
	return false
}
