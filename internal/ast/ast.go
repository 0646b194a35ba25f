// Package ast defines the parsed representation of rowlang scripts: the
// script header (imports, typed INPUT/OUTPUT parameter lists, optional ERROR
// block and precision setting), expression nodes and statement nodes. The
// types here are pure data; evaluation semantics live in internal/eval.
package ast

import (
	"fmt"
	"strings"
)

// ExprType identifies the concrete kind of an expression node.
type ExprType int

const (
	ExprNumber ExprType = iota
	ExprString
	ExprFString
	ExprBool
	ExprNull
	ExprIdent
	ExprArray
	ExprBinary
	ExprUnary
	ExprTernary
	ExprWhen
	ExprCall
	ExprMember
	ExprIndex
	ExprSlice
	ExprSpread
	ExprLambda
	ExprPipeline
)

// Expr is a parsed expression node.
type Expr interface {
	Type() ExprType
	String() string
}

// NumberExpr is a numeric literal.
type NumberExpr struct {
	Value float64
}

func (e *NumberExpr) Type() ExprType { return ExprNumber }
func (e *NumberExpr) String() string { return fmt.Sprintf("%v", e.Value) }

// StringExpr is a string literal.
type StringExpr struct {
	Value string
}

func (e *StringExpr) Type() ExprType { return ExprString }
func (e *StringExpr) String() string { return fmt.Sprintf("%q", e.Value) }

// FStringPart is one segment of an interpolated string: either literal text
// or an embedded expression. Embedded expressions are parsed once, at parse
// time.
type FStringPart struct {
	Text string
	Expr Expr
}

// FStringExpr is an interpolated string literal.
type FStringExpr struct {
	Parts []FStringPart
}

func (e *FStringExpr) Type() ExprType { return ExprFString }

func (e *FStringExpr) String() string {
	var sb strings.Builder
	sb.WriteString("f\"")
	for _, p := range e.Parts {
		if p.Expr != nil {
			sb.WriteString("{")
			sb.WriteString(p.Expr.String())
			sb.WriteString("}")
		} else {
			sb.WriteString(p.Text)
		}
	}
	sb.WriteString("\"")
	return sb.String()
}

// BoolExpr is a boolean literal.
type BoolExpr struct {
	Value bool
}

func (e *BoolExpr) Type() ExprType { return ExprBool }
func (e *BoolExpr) String() string { return fmt.Sprintf("%v", e.Value) }

// NullExpr is the null literal.
type NullExpr struct{}

func (e *NullExpr) Type() ExprType { return ExprNull }
func (e *NullExpr) String() string { return "null" }

// IdentExpr references a variable by name.
type IdentExpr struct {
	Name string
}

func (e *IdentExpr) Type() ExprType { return ExprIdent }
func (e *IdentExpr) String() string { return e.Name }

// ArrayExpr is an array literal. Spread elements are flattened at
// evaluation time.
type ArrayExpr struct {
	Elements []Expr
}

func (e *ArrayExpr) Type() ExprType { return ExprArray }

func (e *ArrayExpr) String() string {
	parts := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpGt
	OpLt
	OpGtEq
	OpLtEq
	OpEq
	OpNotEq
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpPow:
		return "^"
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGtEq:
		return ">="
	case OpLtEq:
		return "<="
	case OpEq:
		return "=="
	case OpNotEq:
		return "!="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	}
	return "?"
}

// BinaryExpr applies a binary operator to two operands.
type BinaryExpr struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (e *BinaryExpr) Type() ExprType { return ExprBinary }

func (e *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left.String(), e.Op.String(), e.Right.String())
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

func (op UnaryOp) String() string {
	if op == UnaryNeg {
		return "-"
	}
	return "not "
}

// UnaryExpr applies a unary operator to an operand.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
}

func (e *UnaryExpr) Type() ExprType { return ExprUnary }

func (e *UnaryExpr) String() string {
	return fmt.Sprintf("(%s%s)", e.Op.String(), e.Operand.String())
}

// TernaryExpr is cond ? then : else. Chained ternaries associate to the
// right: a ? b : c ? d : e parses as a ? b : (c ? d : e).
type TernaryExpr struct {
	Condition Expr
	Then      Expr
	Else      Expr
}

func (e *TernaryExpr) Type() ExprType { return ExprTernary }

func (e *TernaryExpr) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Condition.String(), e.Then.String(), e.Else.String())
}

// WhenBranch is one condition/result pair in a when expression.
type WhenBranch struct {
	Condition Expr
	Result    Expr
}

// WhenExpr evaluates branch conditions in order and yields the first truthy
// branch's result, the else result, or null.
type WhenExpr struct {
	Branches []WhenBranch
	Else     Expr
}

func (e *WhenExpr) Type() ExprType { return ExprWhen }

func (e *WhenExpr) String() string {
	var sb strings.Builder
	sb.WriteString("when")
	for _, b := range e.Branches {
		fmt.Fprintf(&sb, " %s -> %s", b.Condition.String(), b.Result.String())
	}
	if e.Else != nil {
		fmt.Fprintf(&sb, " else -> %s", e.Else.String())
	}
	return sb.String()
}

// CallExpr calls a named function. The callee may be a scope-bound lambda, a
// package-qualified function ("pkg.fn"), a user function or a builtin.
type CallExpr struct {
	Callee string
	Args   []Expr
}

func (e *CallExpr) Type() ExprType { return ExprCall }

func (e *CallExpr) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(parts, ", "))
}

// MemberExpr accesses a package member: object.member.
type MemberExpr struct {
	Object string
	Member string
}

func (e *MemberExpr) Type() ExprType { return ExprMember }
func (e *MemberExpr) String() string { return e.Object + "." + e.Member }

// IndexExpr indexes into a base expression. On a bare identifier base a
// negative index is a row-history lookup rather than array indexing.
type IndexExpr struct {
	Base  Expr
	Index Expr
}

func (e *IndexExpr) Type() ExprType { return ExprIndex }

func (e *IndexExpr) String() string {
	return fmt.Sprintf("%s[%s]", e.Base.String(), e.Index.String())
}

// SliceExpr slices a base expression. Nil Start means "from the beginning";
// nil End means "to the current value". On a bare identifier base a negative
// bound is a row-history slice.
type SliceExpr struct {
	Base  Expr
	Start Expr
	End   Expr
}

func (e *SliceExpr) Type() ExprType { return ExprSlice }

func (e *SliceExpr) String() string {
	start, end := "", ""
	if e.Start != nil {
		start = e.Start.String()
	}
	if e.End != nil {
		end = e.End.String()
	}
	return fmt.Sprintf("%s[%s:%s]", e.Base.String(), start, end)
}

// SpreadExpr is ...expr, flattened inside array literals and destructuring.
type SpreadExpr struct {
	Inner Expr
}

func (e *SpreadExpr) Type() ExprType { return ExprSpread }
func (e *SpreadExpr) String() string { return "..." + e.Inner.String() }

// LambdaExpr is an anonymous single-expression function.
type LambdaExpr struct {
	Params []string
	Body   Expr
}

func (e *LambdaExpr) Type() ExprType { return ExprLambda }

func (e *LambdaExpr) String() string {
	return fmt.Sprintf("(%s) -> %s", strings.Join(e.Params, ", "), e.Body.String())
}

// PipelineExpr is v |> f(a) |> g(b); each stage must be a call expression
// receiving the running value as its first argument.
type PipelineExpr struct {
	Value  Expr
	Stages []Expr
}

func (e *PipelineExpr) Type() ExprType { return ExprPipeline }

func (e *PipelineExpr) String() string {
	parts := make([]string, 0, len(e.Stages)+1)
	parts = append(parts, e.Value.String())
	for _, s := range e.Stages {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, " |> ")
}
