package jpql

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/fitlcarlos/go-data-jpa/pkg/edm"
	"github.com/fitlcarlos/go-data-jpa/pkg/expression"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
)

// Alias é o alias fixo da entidade raiz nas consultas
const Alias = "e"

// Fragment é o resultado da tradução de um $filter
type Fragment struct {
	Where  string
	Params map[string]interface{}
}

// ParamNames retorna os nomes dos parâmetros em ordem de criação
func (f *Fragment) ParamNames() []string {
	return paramNames(f.Params)
}

// Translator traduz árvores de $filter em fragmentos JPQL
type Translator struct {
	logger *log.Logger
}

// NewTranslator cria um tradutor; logger nil descarta as mensagens
func NewTranslator(logger *log.Logger) *Translator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Translator{logger: logger}
}

var defaultTranslator = NewTranslator(nil)

// Translate traduz usando o tradutor padrão
func Translate(ctx context.Context, expr expression.Expression, et *edm.EntityType) (*Fragment, error) {
	return defaultTranslator.Translate(ctx, expr, et)
}

// Translate percorre a árvore em pós-ordem e devolve a cláusula WHERE com os parâmetros.
// Qualquer erro interrompe a tradução; não há resultado parcial.
func (t *Translator) Translate(ctx context.Context, expr expression.Expression, et *edm.EntityType) (*Fragment, error) {
	if et == nil {
		return nil, fmt.Errorf("entity type is required")
	}

	v := t.newVisitContext(ctx, et)
	if expr == nil {
		return &Fragment{Params: v.params}, nil
	}

	result, err := v.visit(expr)
	if err != nil {
		return nil, err
	}

	return &Fragment{Where: result.text(), Params: v.params}, nil
}

func (t *Translator) newVisitContext(ctx context.Context, et *edm.EntityType) *visitContext {
	return &visitContext{
		ctx:    ctx,
		root:   et,
		params: make(map[string]interface{}),
		types:  make(map[string]edm.Type),
		logger: t.logger,
	}
}

// visitContext acumula parâmetros e tipos de uma única tradução
type visitContext struct {
	ctx     context.Context
	root    *edm.EntityType
	params  map[string]interface{}
	types   map[string]edm.Type
	counter int
	logger  *log.Logger
}

type operandKind int

const (
	operandPath operandKind = iota
	operandFragment
	operandLiteral
	operandValue
)

// operand é o valor produzido pela visita de um nó
type operand struct {
	kind    operandKind
	jpql    string
	literal *expression.Literal
	value   interface{}

	// logical indica um fragmento AND/OR e o operador que o produziu
	logical   bool
	logicalOp expression.BinaryOperatorKind

	// arithmetic indica um fragmento aritmético infixo e o operador que o produziu
	arithmetic bool
	arithOp    expression.BinaryOperatorKind
}

func (o operand) text() string {
	switch o.kind {
	case operandLiteral:
		return o.literal.Text
	case operandValue:
		return fmt.Sprint(o.value)
	}
	return o.jpql
}

func (o operand) isTerm() bool {
	return o.kind == operandPath || o.kind == operandFragment
}

func (v *visitContext) nextParam() string {
	name := "value" + strconv.Itoa(v.counter)
	v.counter++
	return name
}

func (v *visitContext) visit(expr expression.Expression) (operand, error) {
	select {
	case <-v.ctx.Done():
		return operand{}, v.ctx.Err()
	default:
	}

	switch e := expr.(type) {
	case *expression.Binary:
		left, err := v.visit(e.Left)
		if err != nil {
			return operand{}, err
		}
		right, err := v.visit(e.Right)
		if err != nil {
			return operand{}, err
		}
		return v.visitBinaryOperator(e.Operator, left, right)

	case *expression.Unary:
		inner, err := v.visit(e.Operand)
		if err != nil {
			return operand{}, err
		}
		return v.visitUnaryOperator(e.Operator, inner), nil

	case *expression.MethodCall:
		params := make([]operand, 0, len(e.Parameters))
		for _, p := range e.Parameters {
			param, err := v.visit(p)
			if err != nil {
				return operand{}, err
			}
			params = append(params, param)
		}
		return v.visitMethodCall(e.Method, params)

	case *expression.Member:
		return v.visitMember(e)

	case *expression.Literal:
		return operand{kind: operandLiteral, literal: e}, nil

	case *expression.Enum:
		return v.visitEnum(e)

	case *expression.Lambda:
		return operand{}, odata.NotImplementedError(fmt.Sprintf("Lambda expression %s not implemented", e.Function))
	case *expression.LambdaRef:
		return operand{}, odata.NotImplementedError(fmt.Sprintf("Lambda reference %s not implemented", e.Variable))
	case *expression.Alias:
		return operand{}, odata.NotImplementedError(fmt.Sprintf("Alias @%s not implemented", e.Name))
	case *expression.TypeLiteral:
		return operand{}, odata.NotImplementedError(fmt.Sprintf("Type literal %s not implemented", e.Type))
	case *expression.Collection:
		return operand{}, odata.NotImplementedError("Binary operator in not implemented")
	}

	return operand{}, odata.NotImplementedError(fmt.Sprintf("Expression %T not implemented", expr))
}

func (v *visitContext) visitBinaryOperator(op expression.BinaryOperatorKind, left, right operand) (operand, error) {
	group := GroupOf(op)
	if group == UnsupportedOperator {
		return operand{}, odata.NotImplementedError(fmt.Sprintf("Binary operator %s not implemented", op))
	}

	jpqlOp, err := ConvertOperator(op)
	if err != nil && op != expression.BinaryMod {
		return operand{}, err
	}

	if group == LogicalOperator {
		var sb strings.Builder
		sb.WriteString(v.logicalTerm(op, left))
		sb.WriteString(jpqlOp)
		sb.WriteString(v.logicalTerm(op, right))
		return operand{kind: operandFragment, jpql: sb.String(), logical: true, logicalOp: op}, nil
	}

	if !left.isTerm() {
		return operand{}, odata.BadRequestErrorf("left operand of %s must be a property or expression, got %s", op, left.text())
	}
	leftText := v.arithmeticTerm(op, left, false)
	leftType := v.types[leftText]

	// Comparação entre dois caminhos não gera parâmetro
	if right.isTerm() {
		rightText := v.arithmeticTerm(op, right, true)
		return v.registerResult(op, leftType, v.combine(op, jpqlOp, leftText, rightText)), nil
	}

	if right.kind == operandLiteral && right.literal.Kind == expression.LiteralNull {
		switch op {
		case expression.BinaryEq:
			return operand{kind: operandFragment, jpql: leftText + " IS NULL"}, nil
		case expression.BinaryNe:
			return operand{kind: operandFragment, jpql: leftText + " IS NOT NULL"}, nil
		}
		return operand{}, odata.BadRequestErrorf("null can only be compared with eq or ne")
	}

	param := v.nextParam()
	value, err := v.coerce(leftText, leftType, right)
	if err != nil {
		return operand{}, err
	}
	v.params[param] = value

	return v.registerResult(op, leftType, v.combine(op, jpqlOp, leftText, ":"+param)), nil
}

func (v *visitContext) combine(op expression.BinaryOperatorKind, jpqlOp, left, right string) string {
	if op == expression.BinaryMod {
		return fmt.Sprintf("MOD(%s, %s)", left, right)
	}
	return left + jpqlOp + right
}

// registerResult registra o tipo de fragmentos aritméticos com o tipo do operando esquerdo
func (v *visitContext) registerResult(op expression.BinaryOperatorKind, leftType edm.Type, fragment string) operand {
	result := operand{kind: operandFragment, jpql: fragment}
	if GroupOf(op) != ArithmeticOperator {
		return result
	}
	if leftType != "" {
		v.types[fragment] = leftType
	}
	// MOD(x, y) já é um termo fechado
	if op != expression.BinaryMod {
		result.arithmetic = true
		result.arithOp = op
	}
	return result
}

// arithmeticTerm coloca entre parênteses um fragmento aritmético que ligaria
// mais fraco que o operador pai. À direita, só + e * aceitam o mesmo operador sem parênteses.
func (v *visitContext) arithmeticTerm(op expression.BinaryOperatorKind, o operand, right bool) string {
	if !o.arithmetic || GroupOf(op) != ArithmeticOperator || op == expression.BinaryMod {
		return o.jpql
	}

	parent, child := arithmeticPrecedence(op), arithmeticPrecedence(o.arithOp)
	wrap := child < parent
	if right && child == parent {
		wrap = !(o.arithOp == op && (op == expression.BinaryAdd || op == expression.BinaryMul))
	}
	if !wrap {
		return o.jpql
	}

	wrapped := "(" + o.jpql + ")"
	if typ, ok := v.types[o.jpql]; ok {
		v.types[wrapped] = typ
	}
	return wrapped
}

// logicalTerm coloca entre parênteses um operando lógico de outro tipo
func (v *visitContext) logicalTerm(op expression.BinaryOperatorKind, o operand) string {
	if o.logical && o.logicalOp != op {
		return "(" + o.jpql + ")"
	}
	return o.text()
}

// coerce converte o operando direito conforme o tipo registrado do esquerdo
func (v *visitContext) coerce(path string, typ edm.Type, right operand) (interface{}, error) {
	raw := right.text()

	switch typ {
	case edm.TypeInt32:
		if n, ok := intValue(right); ok {
			return int32(n), nil
		}
		if n, err := strconv.ParseInt(raw, 10, 32); err == nil {
			return int32(n), nil
		}
		v.logger.Printf("valor '%s' não é Edm.Int32 para %s; usando valor original", raw, path)
	case edm.TypeInt64:
		if n, ok := intValue(right); ok {
			return int64(n), nil
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, nil
		}
		v.logger.Printf("valor '%s' não é Edm.Int64 para %s; usando valor original", raw, path)
	case edm.TypeDate:
		date, err := edm.ParseDate(raw)
		if err != nil {
			return nil, odata.InvalidDateError(raw, err)
		}
		return date, nil
	case edm.TypeString:
		return unquote(raw), nil
	}

	if right.kind == operandValue {
		return right.value, nil
	}
	return raw, nil
}

func intValue(o operand) (int, bool) {
	if o.kind != operandValue {
		return 0, false
	}
	n, ok := o.value.(int)
	return n, ok
}

func (v *visitContext) visitUnaryOperator(op expression.UnaryOperatorKind, inner operand) operand {
	if op == expression.UnaryNot {
		return operand{kind: operandFragment, jpql: fmt.Sprintf("NOT (%s)", inner.text())}
	}
	return inner
}

func (v *visitContext) visitMethodCall(method expression.MethodKind, params []operand) (operand, error) {
	switch method {
	case expression.MethodContains, expression.MethodStartsWith, expression.MethodEndsWith:
		if len(params) != 2 || params[0].kind != operandPath || v.types[params[0].jpql] != edm.TypeString ||
			params[1].kind != operandLiteral || params[1].literal.Kind != expression.LiteralString {
			return operand{}, odata.InvalidMethodArgumentsError(string(method),
				fmt.Sprintf("%s needs two parameters of type Edm.String", method))
		}

		text := unquote(params[1].literal.Text)
		param := v.nextParam()

		switch method {
		case expression.MethodContains:
			v.params[param] = "%" + text + "%"
		case expression.MethodStartsWith:
			v.params[param] = text + "%"
		default:
			v.params[param] = "%" + text
		}

		return operand{kind: operandFragment, jpql: params[0].jpql + " LIKE :" + param}, nil

	case expression.MethodDay, expression.MethodMonth, expression.MethodYear:
		if len(params) != 1 || params[0].kind != operandPath {
			return operand{}, odata.InvalidMethodArgumentsError(string(method),
				fmt.Sprintf("%s needs one property parameter", method))
		}

		fragment := fmt.Sprintf("%s(%s)", strings.ToUpper(string(method)), params[0].jpql)
		v.types[fragment] = edm.TypeInt32
		return operand{kind: operandFragment, jpql: fragment}, nil
	}

	return operand{}, odata.NotImplementedError(fmt.Sprintf("Method call %s not implemented", method))
}

// visitMember resolve o caminho OData para o caminho JPA a partir da entidade raiz
func (v *visitContext) visitMember(m *expression.Member) (operand, error) {
	if m.Variable != "" {
		return operand{}, odata.NotImplementedError(fmt.Sprintf("Lambda variable %s not implemented", m.Variable))
	}
	if len(m.Segments) == 0 {
		return operand{}, odata.BadRequestError("empty property path")
	}

	current := v.root
	segments := make([]string, 0, len(m.Segments))
	var prop *edm.Property

	for _, segment := range m.Segments {
		if prop != nil {
			return operand{}, odata.PropertyNotFoundError(segment.Name, prop.Name)
		}

		switch segment.Kind {
		case expression.SegmentNavigation:
			nav, ok := current.Navigation(segment.Name)
			if !ok {
				return operand{}, odata.PropertyNotFoundError(segment.Name, current.Name)
			}
			segments = append(segments, nav.JPAPath())
			current = nav.Target

		case expression.SegmentPrimitiveProperty:
			p, ok := current.Property(segment.Name)
			if !ok {
				return operand{}, odata.PropertyNotFoundError(segment.Name, current.Name)
			}
			segments = append(segments, p.JPAPath())
			prop = p
		}
	}

	if prop == nil {
		return operand{}, odata.BadRequestErrorf("path %s does not end in a primitive property", m.Path())
	}

	path := Alias + "." + strings.Join(segments, ".")
	v.types[path] = prop.FilterType()

	return operand{kind: operandPath, jpql: path}, nil
}

// visitEnum procura, nas propriedades da entidade raiz, o enum com o mesmo nome qualificado
func (v *visitContext) visitEnum(e *expression.Enum) (operand, error) {
	for _, prop := range v.root.EnumProperties() {
		if prop.Enum.FullQualifiedName() != e.Type {
			continue
		}

		for _, member := range prop.Enum.Members {
			if !containsString(e.Values, member.Name) {
				continue
			}

			switch prop.TreatedAs {
			case edm.TreatedAsName:
				return operand{kind: operandValue, value: member.Name}, nil
			case edm.TreatedAsNumeric:
				return operand{kind: operandValue, value: member.Value}, nil
			default:
				return operand{kind: operandValue, value: member}, nil
			}
		}
	}

	return operand{}, odata.BadRequestErrorf("enum literal %s does not match any property of entity %s", e, v.root.Name)
}

// unquote remove as aspas externas e desfaz o escape de aspas duplicadas
func unquote(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		s = s[1 : len(s)-1]
	} else {
		s = strings.Trim(s, "'")
	}
	return strings.ReplaceAll(s, "''", "'")
}

func containsString(values []string, s string) bool {
	for _, value := range values {
		if value == s {
			return true
		}
	}
	return false
}

// paramNames ordena value0, value1, ..., value10 numericamente
func paramNames(params map[string]interface{}) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(names[i], "value"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(names[j], "value"))
		return ni < nj
	})
	return names
}
