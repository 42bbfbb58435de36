package jpql

import (
	"fmt"

	"github.com/fitlcarlos/go-data-jpa/pkg/expression"
	"github.com/fitlcarlos/go-data-jpa/pkg/odata"
)

// BinaryOperatorGroup agrupa operadores binários pela forma de tradução
type BinaryOperatorGroup int

const (
	LogicalOperator BinaryOperatorGroup = iota
	ComparisonOperator
	ArithmeticOperator
	UnsupportedOperator
)

func (g BinaryOperatorGroup) String() string {
	switch g {
	case LogicalOperator:
		return "logical"
	case ComparisonOperator:
		return "comparison"
	case ArithmeticOperator:
		return "arithmetic"
	}
	return "unsupported"
}

// GroupOf classifica um operador binário
func GroupOf(op expression.BinaryOperatorKind) BinaryOperatorGroup {
	switch op {
	case expression.BinaryAnd, expression.BinaryOr:
		return LogicalOperator
	case expression.BinaryEq, expression.BinaryNe,
		expression.BinaryGt, expression.BinaryGe,
		expression.BinaryLt, expression.BinaryLe:
		return ComparisonOperator
	case expression.BinaryAdd, expression.BinarySub,
		expression.BinaryMul, expression.BinaryDiv, expression.BinaryMod:
		return ArithmeticOperator
	}
	return UnsupportedOperator
}

// arithmeticPrecedence segue a precedência de JPQL: * e / ligam antes de + e -
func arithmeticPrecedence(op expression.BinaryOperatorKind) int {
	switch op {
	case expression.BinaryMul, expression.BinaryDiv, expression.BinaryMod:
		return 2
	case expression.BinaryAdd, expression.BinarySub:
		return 1
	}
	return 0
}

var jpqlOperators = map[expression.BinaryOperatorKind]string{
	expression.BinaryAnd: " AND ",
	expression.BinaryOr:  " OR ",
	expression.BinaryEq:  " = ",
	expression.BinaryNe:  " <> ",
	expression.BinaryGt:  " > ",
	expression.BinaryGe:  " >= ",
	expression.BinaryLt:  " < ",
	expression.BinaryLe:  " <= ",
	expression.BinaryAdd: " + ",
	expression.BinarySub: " - ",
	expression.BinaryMul: " * ",
	expression.BinaryDiv: " / ",
}

// ConvertOperator retorna o operador JPQL, com espaços, para um operador OData.
// mod não tem operador infixo em JPQL e é tratado como MOD(x, y).
func ConvertOperator(op expression.BinaryOperatorKind) (string, error) {
	if jpqlOp, ok := jpqlOperators[op]; ok {
		return jpqlOp, nil
	}
	return "", odata.NotImplementedError(fmt.Sprintf("Binary operator %s not implemented", op))
}
