package resolvercore

import (
	"fmt"
	"math"
	"strings"
)

// NodePosition marks where a node's source text starts, for error
// reporting; end positions aren't tracked since the evaluator never
// needs to re-slice the source.
type NodePosition struct {
	Start int
}

// ExprNode is an expression tree node. ToString normalizes the node back
// to formula text, ignoring whitespace differences; nothing outside the
// node types themselves calls it.
type ExprNode interface {
	Eval(ctx *evalContext) (Scalar, error)
	ToString() string
}

// LiteralNode is a typed literal: number, string, boolean, or the Empty
// literal an empty formula parses to.
type LiteralNode struct {
	Value Scalar
}

func (n *LiteralNode) Eval(ctx *evalContext) (Scalar, error) { return n.Value, nil }

func (n *LiteralNode) ToString() string {
	switch n.Value.Kind() {
	case ScalarText:
		return fmt.Sprintf("%q", n.Value.AsString())
	case ScalarBool:
		if n.Value.AsBool() {
			return "TRUE"
		}
		return "FALSE"
	case ScalarNumber:
		return formatNumber(n.Value.number)
	default:
		return ""
	}
}

// ColumnRefNode is a {columnId} or {columnId#subfield} reference. Column
// refs always resolve against the environment the evaluator was handed —
// the board the formula lives on, never a nested mirror's target board
// (spec §3 invariant).
type ColumnRefNode struct {
	ColumnID string
	SubField string
}

func (n *ColumnRefNode) Eval(ctx *evalContext) (Scalar, error) {
	val, ok := ctx.env[n.ColumnID]
	if !ok {
		return Empty, nil
	}
	if n.SubField == "" {
		return val, nil
	}
	if compound, ok := ctx.compound[n.ColumnID]; ok {
		if field, ok := compound[n.SubField]; ok {
			return field, nil
		}
	}
	return Empty, nil
}

func (n *ColumnRefNode) ToString() string {
	if n.SubField != "" {
		return "{" + n.ColumnID + "#" + n.SubField + "}"
	}
	return "{" + n.ColumnID + "}"
}

// FunctionCallNode invokes a builtin by name over evaluated arguments.
// Unknown names evaluate to Empty rather than erroring — the parser never
// rejects an unrecognized function name (spec §4.2), and the evaluator
// keeps that tolerance.
type FunctionCallNode struct {
	Name string
	Args []ExprNode
}

func (n *FunctionCallNode) Eval(ctx *evalContext) (Scalar, error) {
	args := make([]Scalar, len(n.Args))
	for i, a := range n.Args {
		v, err := a.Eval(ctx)
		if err != nil {
			return Empty, err
		}
		args[i] = v
	}
	fn, ok := functionTable[n.Name]
	if !ok {
		return Empty, nil
	}
	return fn(ctx, args)
}

func (n *FunctionCallNode) ToString() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.ToString()
	}
	return n.Name + "(" + strings.Join(parts, ",") + ")"
}

// BinaryOpNode applies a binary operator. + is numeric when both operands
// coerce to number, else string concatenation; & is always concatenation;
// comparisons coerce to number except equality, which compares
// numerically when both operands coerce, else by string (spec §4.4).
type BinaryOpNode struct {
	Op    string
	Left  ExprNode
	Right ExprNode
}

func (n *BinaryOpNode) Eval(ctx *evalContext) (Scalar, error) {
	l, err := n.Left.Eval(ctx)
	if err != nil {
		return Empty, err
	}
	r, err := n.Right.Eval(ctx)
	if err != nil {
		return Empty, err
	}
	return evalBinaryOp(n.Op, l, r), nil
}

func evalBinaryOp(op string, l, r Scalar) Scalar {
	switch op {
	case "&":
		return TextScalar(l.AsString() + r.AsString())
	case "+":
		ln, lok := l.AsNumber()
		rn, rok := r.AsNumber()
		if lok && rok {
			return NumberScalar(ln + rn)
		}
		return TextScalar(l.AsString() + r.AsString())
	case "-":
		ln, _ := l.AsNumber()
		rn, _ := r.AsNumber()
		return NumberScalar(ln - rn)
	case "*":
		ln, _ := l.AsNumber()
		rn, _ := r.AsNumber()
		return NumberScalar(ln * rn)
	case "/":
		ln, _ := l.AsNumber()
		rn, _ := r.AsNumber()
		if rn == 0 {
			return NumberScalar(0)
		}
		return NumberScalar(ln / rn)
	case "%":
		ln, _ := l.AsNumber()
		rn, _ := r.AsNumber()
		if rn == 0 {
			return NumberScalar(0)
		}
		return NumberScalar(math.Mod(ln, rn))
	case "=":
		return BoolScalar(scalarsEqual(l, r))
	case "<>":
		return BoolScalar(!scalarsEqual(l, r))
	case "<", "<=", ">", ">=":
		ln, _ := l.AsNumber()
		rn, _ := r.AsNumber()
		switch op {
		case "<":
			return BoolScalar(ln < rn)
		case "<=":
			return BoolScalar(ln <= rn)
		case ">":
			return BoolScalar(ln > rn)
		default:
			return BoolScalar(ln >= rn)
		}
	default:
		return Empty
	}
}

func scalarsEqual(l, r Scalar) bool {
	ln, lok := l.AsNumber()
	rn, rok := r.AsNumber()
	if lok && rok {
		return ln == rn
	}
	return l.AsString() == r.AsString()
}

func (n *BinaryOpNode) ToString() string {
	return n.Left.ToString() + n.Op + n.Right.ToString()
}

// UnaryOpNode applies a unary operator: "-" negates, and a unary "+"
// returns its operand unchanged. Both bind tighter than any binary
// operator (spec §4.2).
type UnaryOpNode struct {
	Op      string
	Operand ExprNode
}

func (n *UnaryOpNode) Eval(ctx *evalContext) (Scalar, error) {
	v, err := n.Operand.Eval(ctx)
	if err != nil {
		return Empty, err
	}
	if n.Op == "-" {
		num, _ := v.AsNumber()
		return NumberScalar(-num), nil
	}
	return v, nil
}

func (n *UnaryOpNode) ToString() string {
	return n.Op + n.Operand.ToString()
}

// evalContext is the environment an ExprNode tree evaluates against: a
// flat ColumnId -> Scalar map plus any compound (sub-field) values for
// columns the extractor represented as structured scalars. The evaluator
// never issues remote calls; this environment is assumed fully populated
// by the resolver before evaluation starts (spec §4.4).
type evalContext struct {
	env      map[string]Scalar
	compound map[string]map[string]Scalar
	clock    Clock
}

func newEvalContext(env map[string]Scalar, compound map[string]map[string]Scalar, clock Clock) *evalContext {
	if clock == nil {
		clock = systemClock{}
	}
	return &evalContext{env: env, compound: compound, clock: clock}
}

// Evaluate walks an expression tree against a resolved environment. It's
// the single entry point the resolver uses once it has gathered scalars
// for every dependency column id.
func Evaluate(node ExprNode, env map[string]Scalar, compound map[string]map[string]Scalar, clock Clock) (Scalar, error) {
	if node == nil {
		return Empty, nil
	}
	return node.Eval(newEvalContext(env, compound, clock))
}
