package ast

// TypeAnnotation is the declared type of a script parameter. Annotations are
// informational; the runtime stays dynamically typed.
type TypeAnnotation int

const (
	TypeNone TypeAnnotation = iota
	TypeNumber
	TypeDecimal
	TypeString
	TypeBool
	TypeArray
	TypeNull
)

func (t TypeAnnotation) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeDecimal:
		return "decimal"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeArray:
		return "array"
	case TypeNull:
		return "null"
	}
	return ""
}

// Parameter declares one named input, output or function parameter. Default
// is non-nil only for trailing function parameters with default values; the
// default expression is evaluated at call time.
type Parameter struct {
	Name    string
	Type    TypeAnnotation
	Default Expr
}

// FunctionDef is a named, reusable user function definition. Required
// parameters precede parameters carrying defaults.
type FunctionDef struct {
	Name       string
	Params     []Parameter
	ReturnType TypeAnnotation
	Body       []Stmt
	Private    bool
}

// RequiredParams reports how many leading parameters have no default value.
func (f *FunctionDef) RequiredParams() int {
	n := 0
	for _, p := range f.Params {
		if p.Default != nil {
			break
		}
		n++
	}
	return n
}

// VariableDef is a package-level variable binding.
type VariableDef struct {
	Name    string
	Value   Expr
	Mut     bool
	Private bool
}

// Precision configures fixed-point rounding of decimal results.
type Precision struct {
	Scale int32
}

// ScriptKind distinguishes data scripts from package scripts.
type ScriptKind int

const (
	KindData ScriptKind = iota
	KindPackage
)

// Script is a fully parsed rowlang script. A data script declares its I/O
// columns and a statement body executed once per row; a package script
// declares importable variables and functions.
type Script struct {
	Kind ScriptKind

	// Data script fields.
	Imports    []string
	Input      []Parameter
	Output     []Parameter
	ErrorBlock []Stmt
	Precision  *Precision
	Body       []Stmt

	// Package script fields.
	Name      string
	Variables []VariableDef
	Functions []FunctionDef
}
