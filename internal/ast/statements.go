package ast

// StmtType identifies the concrete kind of a statement node.
type StmtType int

const (
	StmtAssign StmtType = iota
	StmtDestructure
	StmtIf
	StmtReturn
	StmtExpr
)

// Stmt is a parsed statement node.
type Stmt interface {
	StmtType() StmtType
}

// AssignStmt binds the value of an expression to a variable name.
type AssignStmt struct {
	Name  string
	Value Expr
	Mut   bool
}

func (s *AssignStmt) StmtType() StmtType { return StmtAssign }

// DestructureKind distinguishes the pattern elements of a destructuring
// assignment.
type DestructureKind int

const (
	DestructureBind DestructureKind = iota
	DestructureIgnore
	DestructureRest
)

// DestructureElem is one element of a destructuring pattern: a name binding,
// an ignored slot (_) or a rest collector (...name).
type DestructureElem struct {
	Kind DestructureKind
	Name string
}

// DestructureStmt unpacks an array value into multiple bindings:
// [a, _, ...rest] = expr.
type DestructureStmt struct {
	Pattern []DestructureElem
	Value   Expr
}

func (s *DestructureStmt) StmtType() StmtType { return StmtDestructure }

// IfStmt is a conditional statement block. A Return inside either branch
// propagates out of the enclosing body.
type IfStmt struct {
	Condition Expr
	Then      []Stmt
	Else      []Stmt
}

func (s *IfStmt) StmtType() StmtType { return StmtIf }

// ReturnStmt terminates the body and yields the expression's value.
type ReturnStmt struct {
	Value Expr
}

func (s *ReturnStmt) StmtType() StmtType { return StmtReturn }

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	Expr Expr
}

func (s *ExprStmt) StmtType() StmtType { return StmtExpr }
