package lexer

import "fmt"

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	// Keywords.
	TokenReturn TokenType = iota
	TokenIf
	TokenElif
	TokenElse
	TokenWhen
	TokenPackage
	TokenMut
	TokenNull
	TokenTrue
	TokenFalse
	TokenAnd
	TokenOr
	TokenNot
	TokenUnderscore

	// Header declarations of the form -- NAME ... --.
	TokenInput
	TokenOutput
	TokenImport
	TokenError
	TokenErrorEnd
	TokenPrecision

	// Literals and identifiers.
	TokenIdentifier
	TokenNumber
	TokenString
	TokenFString

	// Operators.
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenCaret
	TokenGreater
	TokenLess
	TokenGreaterEq
	TokenLessEq
	TokenEqual
	TokenNotEqual
	TokenAssign
	TokenArrow
	TokenPipeline

	// Delimiters.
	TokenLeftParen
	TokenRightParen
	TokenLeftBracket
	TokenRightBracket
	TokenLeftBrace
	TokenRightBrace
	TokenComma
	TokenColon
	TokenQuestion
	TokenSpread
	TokenDot

	// Layout.
	TokenNewline
	TokenIndent
	TokenDedent
	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenReturn: "return", TokenIf: "if", TokenElif: "elif", TokenElse: "else",
	TokenWhen: "when", TokenPackage: "package", TokenMut: "mut", TokenNull: "null",
	TokenTrue: "true", TokenFalse: "false", TokenAnd: "and", TokenOr: "or",
	TokenNot: "not", TokenUnderscore: "_",
	TokenInput: "INPUT", TokenOutput: "OUTPUT", TokenImport: "IMPORT",
	TokenError: "ERROR", TokenErrorEnd: "ERROR_END", TokenPrecision: "PRECISION",
	TokenIdentifier: "identifier", TokenNumber: "number", TokenString: "string",
	TokenFString: "f-string",
	TokenPlus:   "+", TokenMinus: "-", TokenStar: "*", TokenSlash: "/",
	TokenPercent: "%", TokenCaret: "^", TokenGreater: ">", TokenLess: "<",
	TokenGreaterEq: ">=", TokenLessEq: "<=", TokenEqual: "==", TokenNotEqual: "!=",
	TokenAssign: "=", TokenArrow: "->", TokenPipeline: "|>",
	TokenLeftParen: "(", TokenRightParen: ")", TokenLeftBracket: "[",
	TokenRightBracket: "]", TokenLeftBrace: "{", TokenRightBrace: "}",
	TokenComma: ",", TokenColon: ":", TokenQuestion: "?", TokenSpread: "...",
	TokenDot:     ".",
	TokenNewline: "newline", TokenIndent: "indent", TokenDedent: "dedent",
	TokenEOF: "eof",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Segment is one piece of an interpolated string: literal text, or the raw
// source of an embedded expression to be parsed later.
type Segment struct {
	Text   string
	IsExpr bool
}

// Token is one lexical unit with its source position.
type Token struct {
	Type     TokenType
	Lexeme   string
	Text     string    // payload of identifiers, strings and declarations
	Number   float64   // payload of number literals
	Segments []Segment // payload of f-strings
	Line     int
	Column   int
}

func (t Token) String() string {
	switch t.Type {
	case TokenIdentifier:
		return fmt.Sprintf("identifier(%s)", t.Text)
	case TokenNumber:
		return fmt.Sprintf("number(%v)", t.Number)
	case TokenString:
		return fmt.Sprintf("string(%q)", t.Text)
	}
	return t.Type.String()
}
