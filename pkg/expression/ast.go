package expression

import (
	"fmt"
	"strings"
)

// Expression é um nó da árvore de $filter. O conjunto de nós é fechado:
// Binary, Unary, Member, Literal, MethodCall, Enum, Lambda, LambdaRef,
// Alias, TypeLiteral e Collection.
type Expression interface {
	expressionNode()
	String() string
}

// BinaryOperatorKind representa um operador binário OData
type BinaryOperatorKind int

const (
	BinaryAnd BinaryOperatorKind = iota
	BinaryOr
	BinaryEq
	BinaryNe
	BinaryGt
	BinaryGe
	BinaryLt
	BinaryLe
	BinaryHas
	BinaryIn
	BinaryAdd
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMod
)

var binaryOperatorNames = map[BinaryOperatorKind]string{
	BinaryAnd: "and",
	BinaryOr:  "or",
	BinaryEq:  "eq",
	BinaryNe:  "ne",
	BinaryGt:  "gt",
	BinaryGe:  "ge",
	BinaryLt:  "lt",
	BinaryLe:  "le",
	BinaryHas: "has",
	BinaryIn:  "in",
	BinaryAdd: "add",
	BinarySub: "sub",
	BinaryMul: "mul",
	BinaryDiv: "div",
	BinaryMod: "mod",
}

func (k BinaryOperatorKind) String() string {
	if name, ok := binaryOperatorNames[k]; ok {
		return name
	}
	return fmt.Sprintf("BinaryOperatorKind(%d)", int(k))
}

// ParseBinaryOperator converte o texto do operador no seu tipo
func ParseBinaryOperator(s string) (BinaryOperatorKind, bool) {
	s = strings.ToLower(s)
	if s == "divby" {
		return BinaryDiv, true
	}
	for kind, name := range binaryOperatorNames {
		if name == s {
			return kind, true
		}
	}
	return 0, false
}

// UnaryOperatorKind representa um operador unário OData
type UnaryOperatorKind int

const (
	UnaryNot UnaryOperatorKind = iota
	UnaryMinus
)

func (k UnaryOperatorKind) String() string {
	if k == UnaryNot {
		return "not"
	}
	return "-"
}

// MethodKind é o nome de um método OData
type MethodKind string

const (
	MethodContains   MethodKind = "contains"
	MethodStartsWith MethodKind = "startswith"
	MethodEndsWith   MethodKind = "endswith"
	MethodLength     MethodKind = "length"
	MethodIndexOf    MethodKind = "indexof"
	MethodSubstring  MethodKind = "substring"
	MethodToLower    MethodKind = "tolower"
	MethodToUpper    MethodKind = "toupper"
	MethodTrim       MethodKind = "trim"
	MethodConcat     MethodKind = "concat"
	MethodYear       MethodKind = "year"
	MethodMonth      MethodKind = "month"
	MethodDay        MethodKind = "day"
	MethodHour       MethodKind = "hour"
	MethodMinute     MethodKind = "minute"
	MethodSecond     MethodKind = "second"
	MethodNow        MethodKind = "now"
	MethodDate       MethodKind = "date"
	MethodTime       MethodKind = "time"
	MethodRound      MethodKind = "round"
	MethodFloor      MethodKind = "floor"
	MethodCeiling    MethodKind = "ceiling"
	MethodCast       MethodKind = "cast"
	MethodIsOf       MethodKind = "isof"
)

// Binary representa um operador binário
type Binary struct {
	Operator BinaryOperatorKind
	Left     Expression
	Right    Expression
}

// Unary representa um operador unário
type Unary struct {
	Operator UnaryOperatorKind
	Operand  Expression
}

// SegmentKind classifica um segmento de caminho
type SegmentKind int

const (
	SegmentNavigation SegmentKind = iota
	SegmentPrimitiveProperty
)

// Segment é um passo de um caminho de propriedade
type Segment struct {
	Kind SegmentKind
	Name string
}

// Member representa um caminho de propriedade, como Pais/Nombre.
// Variable é preenchido quando o caminho parte de uma variável de lambda.
type Member struct {
	Variable string
	Segments []Segment
}

// LiteralKind classifica um literal
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
	LiteralNull
	LiteralDate
	LiteralDateTime
	LiteralTime
	LiteralGuid
	LiteralDuration
	LiteralGeography
	LiteralGeometry
)

// Literal guarda o texto original do literal; strings mantêm as aspas
type Literal struct {
	Text string
	Kind LiteralKind
}

// MethodCall representa uma chamada de método como contains(Nombre,'a')
type MethodCall struct {
	Method     MethodKind
	Parameters []Expression
}

// Enum representa um literal de enum como Ns.Color'RED'
type Enum struct {
	Type   string
	Values []string
}

// Lambda representa any/all sobre uma coleção
type Lambda struct {
	Function string
	Variable string
	Source   *Member
	Body     Expression
}

// LambdaRef representa a referência à variável de uma lambda
type LambdaRef struct {
	Variable string
}

// Alias representa um parâmetro @alias
type Alias struct {
	Name string
}

// TypeLiteral representa um nome de tipo qualificado como Edm.String
type TypeLiteral struct {
	Type string
}

// Collection representa a lista do operador in
type Collection struct {
	Items []Expression
}

func (*Binary) expressionNode()      {}
func (*Unary) expressionNode()       {}
func (*Member) expressionNode()      {}
func (*Literal) expressionNode()     {}
func (*MethodCall) expressionNode()  {}
func (*Enum) expressionNode()        {}
func (*Lambda) expressionNode()      {}
func (*LambdaRef) expressionNode()   {}
func (*Alias) expressionNode()       {}
func (*TypeLiteral) expressionNode() {}
func (*Collection) expressionNode()  {}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

func (u *Unary) String() string {
	if u.Operator == UnaryNot {
		return fmt.Sprintf("not (%s)", u.Operand)
	}
	return "-" + u.Operand.String()
}

// Path retorna os nomes dos segmentos separados por /
func (m *Member) Path() string {
	names := make([]string, len(m.Segments))
	for i, s := range m.Segments {
		names[i] = s.Name
	}
	return strings.Join(names, "/")
}

func (m *Member) String() string {
	if m.Variable != "" {
		return m.Variable + "/" + m.Path()
	}
	return m.Path()
}

func (l *Literal) String() string {
	return l.Text
}

func (c *MethodCall) String() string {
	params := make([]string, len(c.Parameters))
	for i, p := range c.Parameters {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", c.Method, strings.Join(params, ","))
}

func (e *Enum) String() string {
	return fmt.Sprintf("%s'%s'", e.Type, strings.Join(e.Values, ","))
}

func (l *Lambda) String() string {
	if l.Body == nil {
		return fmt.Sprintf("%s/%s()", l.Source, l.Function)
	}
	return fmt.Sprintf("%s/%s(%s:%s)", l.Source, l.Function, l.Variable, l.Body)
}

func (r *LambdaRef) String() string {
	return r.Variable
}

func (a *Alias) String() string {
	return "@" + a.Name
}

func (t *TypeLiteral) String() string {
	return t.Type
}

func (c *Collection) String() string {
	items := make([]string, len(c.Items))
	for i, item := range c.Items {
		items[i] = item.String()
	}
	return "(" + strings.Join(items, ",") + ")"
}
