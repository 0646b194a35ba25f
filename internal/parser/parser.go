// Package parser builds the ast representation of rowlang source using
// recursive descent over the lexer's token stream. Operator precedence, from
// loosest to tightest: pipeline, ternary, or, and, comparison, additive,
// multiplicative, power (right-associative), unary, call/index/member.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/lexer"
)

// Error is a syntax error with its source position.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error [%d:%d]: %s", e.Line, e.Column, e.Message)
}

// Parser consumes a token stream and produces a Script.
type Parser struct {
	tokens  []lexer.Token
	current int

	// Lambda shorthand detection is suppressed while parsing a when-branch
	// condition, where "ident ->" introduces the branch result instead.
	noLambda bool
}

// Parse lexes and parses a complete script.
func Parse(source string) (*ast.Script, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return New(tokens).Parse()
}

// ParseExpression lexes and parses a single expression, for embedded
// contexts such as f-string segments.
func ParseExpression(source string) (ast.Expr, error) {
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	p := New(tokens)
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	if !p.atEnd() {
		return nil, p.errorf("unexpected token after expression: %s", p.peek())
	}
	return expr, nil
}

// New returns a Parser over the given tokens.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a package script or a data script.
func (p *Parser) Parse() (*ast.Script, error) {
	p.skipNewlines()
	if p.match(lexer.TokenPackage) {
		return p.parsePackageScript()
	}
	return p.parseDataScript()
}

func (p *Parser) parsePackageScript() (*ast.Script, error) {
	name, err := p.expectIdentifier("expected package name")
	if err != nil {
		return nil, err
	}
	if err := p.consumeNewlines(); err != nil {
		return nil, err
	}

	script := &ast.Script{Kind: ast.KindPackage, Name: name}
	for !p.atEnd() {
		p.skipNewlines()
		if p.atEnd() {
			break
		}
		if p.isFunctionDefinition() {
			fn, err := p.parseFunctionDef()
			if err != nil {
				return nil, err
			}
			script.Functions = append(script.Functions, *fn)
		} else {
			v, err := p.parseVariableDef()
			if err != nil {
				return nil, err
			}
			script.Variables = append(script.Variables, *v)
		}
		p.skipNewlines()
	}
	return script, nil
}

func (p *Parser) parseDataScript() (*ast.Script, error) {
	script := &ast.Script{Kind: ast.KindData}

	// Header declarations.
	for !p.atEnd() {
		p.skipNewlines()
		switch p.peek().Type {
		case lexer.TokenImport:
			for _, name := range strings.Split(p.advance().Text, ",") {
				if name = strings.TrimSpace(name); name != "" {
					script.Imports = append(script.Imports, name)
				}
			}
		case lexer.TokenInput:
			params, err := p.parseParamList(p.advance().Text)
			if err != nil {
				return nil, err
			}
			script.Input = params
		case lexer.TokenOutput:
			params, err := p.parseParamList(p.advance().Text)
			if err != nil {
				return nil, err
			}
			script.Output = params
		case lexer.TokenError:
			p.advance()
			if err := p.consumeNewlines(); err != nil {
				return nil, err
			}
			block, err := p.parseBlockUntilErrorEnd()
			if err != nil {
				return nil, err
			}
			script.ErrorBlock = block
		case lexer.TokenPrecision:
			script.Precision = parsePrecision(p.advance().Text)
		default:
			goto body
		}
	}

body:
	for !p.atEnd() {
		p.skipNewlines()
		if p.atEnd() {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		script.Body = append(script.Body, stmt)
	}
	return script, nil
}

// parseParamList parses header parameter content such as
// "code:string, close:number".
func (p *Parser) parseParamList(content string) ([]ast.Parameter, error) {
	var params []ast.Parameter
	for _, part := range strings.Split(content, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, typeName, ok := strings.Cut(part, ":")
		if !ok {
			return nil, p.errorf("malformed parameter: %s", part)
		}
		annotation, err := typeAnnotation(strings.TrimSpace(typeName))
		if err != nil {
			return nil, p.errorf("%v in parameter %s", err, part)
		}
		params = append(params, ast.Parameter{Name: strings.TrimSpace(name), Type: annotation})
	}
	return params, nil
}

func typeAnnotation(name string) (ast.TypeAnnotation, error) {
	switch name {
	case "number":
		return ast.TypeNumber, nil
	case "decimal":
		return ast.TypeDecimal, nil
	case "string":
		return ast.TypeString, nil
	case "bool":
		return ast.TypeBool, nil
	case "array":
		return ast.TypeArray, nil
	case "null":
		return ast.TypeNull, nil
	}
	return ast.TypeNone, fmt.Errorf("unknown type %q", name)
}

// parsePrecision extracts the scale from header content such as
// "PRECISION 6". A missing or malformed scale falls back to 6.
func parsePrecision(content string) *ast.Precision {
	scale := int64(6)
	fields := strings.Fields(content)
	if len(fields) > 0 {
		if n, err := strconv.ParseInt(fields[len(fields)-1], 10, 32); err == nil && n >= 0 {
			scale = n
		}
	}
	return &ast.Precision{Scale: int32(scale)}
}

func (p *Parser) parseBlockUntilErrorEnd() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.atEnd() && !p.check(lexer.TokenErrorEnd) {
		p.skipNewlines()
		if p.check(lexer.TokenErrorEnd) {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.consume(lexer.TokenErrorEnd, "expected -- ERROR_END --"); err != nil {
		return nil, err
	}
	return stmts, nil
}

// isFunctionDefinition looks ahead for the "name(" pattern that starts a
// package function definition.
func (p *Parser) isFunctionDefinition() bool {
	i := p.current
	if i < len(p.tokens) && p.tokens[i].Type == lexer.TokenMut {
		i++
	}
	return i+1 < len(p.tokens) &&
		p.tokens[i].Type == lexer.TokenIdentifier &&
		p.tokens[i+1].Type == lexer.TokenLeftParen
}

func (p *Parser) parseVariableDef() (*ast.VariableDef, error) {
	isMut := p.match(lexer.TokenMut)
	name, err := p.expectIdentifier("expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenAssign, "expected ="); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	return &ast.VariableDef{
		Name:    name,
		Value:   value,
		Mut:     isMut,
		Private: strings.HasPrefix(name, "_"),
	}, nil
}

func (p *Parser) parseFunctionDef() (*ast.FunctionDef, error) {
	name, err := p.expectIdentifier("expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenLeftParen, "expected ("); err != nil {
		return nil, err
	}

	var params []ast.Parameter
	sawDefault := false
	for !p.check(lexer.TokenRightParen) {
		paramName, err := p.expectIdentifier("expected parameter name")
		if err != nil {
			return nil, err
		}
		param := ast.Parameter{Name: paramName}
		if p.match(lexer.TokenColon) {
			typeName, err := p.expectIdentifier("expected type name")
			if err != nil {
				return nil, err
			}
			if param.Type, err = typeAnnotation(typeName); err != nil {
				return nil, p.errorf("%v", err)
			}
		}
		if p.match(lexer.TokenAssign) {
			if param.Default, err = p.parseTernary(); err != nil {
				return nil, err
			}
			sawDefault = true
		} else if sawDefault {
			return nil, p.errorf("required parameter %s follows a parameter with a default", paramName)
		}
		params = append(params, param)
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.consume(lexer.TokenRightParen, "expected )"); err != nil {
		return nil, err
	}

	returnType := ast.TypeNone
	if p.match(lexer.TokenArrow) {
		typeName, err := p.expectIdentifier("expected return type")
		if err != nil {
			return nil, err
		}
		if returnType, err = typeAnnotation(typeName); err != nil {
			return nil, p.errorf("%v", err)
		}
	}

	if _, err := p.consume(lexer.TokenColon, "expected :"); err != nil {
		return nil, err
	}
	if err := p.consumeNewlines(); err != nil {
		return nil, err
	}
	body, err := p.parseIndentedBlock("function body")
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDef{
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		Private:    strings.HasPrefix(name, "_"),
	}, nil
}

func (p *Parser) parseIndentedBlock(what string) ([]ast.Stmt, error) {
	if _, err := p.consume(lexer.TokenIndent, "expected indented "+what); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.check(lexer.TokenDedent) && !p.atEnd() {
		p.skipNewlines()
		if p.check(lexer.TokenDedent) {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if !p.atEnd() {
		if _, err := p.consume(lexer.TokenDedent, "expected end of "+what); err != nil {
			return nil, err
		}
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	p.skipNewlines()

	if p.match(lexer.TokenReturn) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		p.skipNewlines()
		return &ast.ReturnStmt{Value: expr}, nil
	}

	if p.match(lexer.TokenIf) {
		return p.parseIfStatement()
	}

	if p.check(lexer.TokenLeftBracket) {
		checkpoint := p.current
		if stmt, err := p.parseDestructure(); err == nil {
			return stmt, nil
		}
		p.current = checkpoint
	}

	if p.check(lexer.TokenIdentifier) {
		checkpoint := p.current
		name := p.advance().Text
		if p.match(lexer.TokenAssign) {
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			p.skipNewlines()
			return &ast.AssignStmt{Name: name, Value: value}, nil
		}
		p.current = checkpoint
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	return &ast.ExprStmt{Expr: expr}, nil
}

// parseIfStatement parses an if block with optional elif chain and else
// block. Each elif becomes a nested if in the else branch.
func (p *Parser) parseIfStatement() (ast.Stmt, error) {
	condition, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenColon, "expected :"); err != nil {
		return nil, err
	}
	if err := p.consumeNewlines(); err != nil {
		return nil, err
	}
	then, err := p.parseIndentedBlock("if block")
	if err != nil {
		return nil, err
	}
	p.skipNewlines()

	stmt := &ast.IfStmt{Condition: condition, Then: then}

	if p.match(lexer.TokenElif) {
		nested, err := p.parseIfStatement()
		if err != nil {
			return nil, err
		}
		stmt.Else = []ast.Stmt{nested}
		return stmt, nil
	}

	if p.match(lexer.TokenElse) {
		if _, err := p.consume(lexer.TokenColon, "expected :"); err != nil {
			return nil, err
		}
		if err := p.consumeNewlines(); err != nil {
			return nil, err
		}
		if stmt.Else, err = p.parseIndentedBlock("else block"); err != nil {
			return nil, err
		}
		p.skipNewlines()
	}
	return stmt, nil
}

func (p *Parser) parseDestructure() (ast.Stmt, error) {
	if _, err := p.consume(lexer.TokenLeftBracket, "expected ["); err != nil {
		return nil, err
	}

	var pattern []ast.DestructureElem
	for !p.check(lexer.TokenRightBracket) {
		switch {
		case p.match(lexer.TokenUnderscore):
			pattern = append(pattern, ast.DestructureElem{Kind: ast.DestructureIgnore})
		case p.match(lexer.TokenSpread):
			name, err := p.expectIdentifier("expected name after ...")
			if err != nil {
				return nil, err
			}
			pattern = append(pattern, ast.DestructureElem{Kind: ast.DestructureRest, Name: name})
		default:
			name, err := p.expectIdentifier("expected name in pattern")
			if err != nil {
				return nil, err
			}
			pattern = append(pattern, ast.DestructureElem{Kind: ast.DestructureBind, Name: name})
		}
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if _, err := p.consume(lexer.TokenRightBracket, "expected ]"); err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenAssign, "expected ="); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	return &ast.DestructureStmt{Pattern: pattern, Value: value}, nil
}

// Expression parsing, loosest binding first.

func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parsePipeline()
}

func (p *Parser) parsePipeline() (ast.Expr, error) {
	expr, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	var stages []ast.Expr
	for p.match(lexer.TokenPipeline) {
		stage, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	if len(stages) > 0 {
		return &ast.PipelineExpr{Value: expr, Stages: stages}, nil
	}
	return expr, nil
}

// parseTernary parses cond ? then : else. The then branch binds at or
// level; the else branch recurses so chains associate to the right.
func (p *Parser) parseTernary() (ast.Expr, error) {
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.match(lexer.TokenQuestion) {
		return expr, nil
	}
	then, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenColon, "expected : in ternary"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ast.TernaryExpr{Condition: expr, Then: then, Else: els}, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: ast.OpOr, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.match(lexer.TokenAnd) {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: ast.OpAnd, Right: right}
	}
	return left, nil
}

var comparisonOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokenGreater:   ast.OpGt,
	lexer.TokenLess:      ast.OpLt,
	lexer.TokenGreaterEq: ast.OpGtEq,
	lexer.TokenLessEq:    ast.OpLtEq,
	lexer.TokenEqual:     ast.OpEq,
	lexer.TokenNotEqual:  ast.OpNotEq,
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseAddition()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.peek().Type]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseAddition() (ast.Expr, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.peek().Type {
		case lexer.TokenPlus:
			op = ast.OpAdd
		case lexer.TokenMinus:
			op = ast.OpSub
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parseMultiplication() (ast.Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.peek().Type {
		case lexer.TokenStar:
			op = ast.OpMul
		case lexer.TokenSlash:
			op = ast.OpDiv
		case lexer.TokenPercent:
			op = ast.OpMod
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
}

func (p *Parser) parsePower() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.match(lexer.TokenCaret) {
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Left: left, Op: ast.OpPow, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.match(lexer.TokenMinus) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.UnaryNeg, Operand: operand}, nil
	}
	if p.match(lexer.TokenNot) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.UnaryNot, Operand: operand}, nil
	}
	return p.parseCall()
}

// parseCall handles call, index, slice and member-access suffixes.
func (p *Parser) parseCall() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(lexer.TokenLeftParen):
			var args []ast.Expr
			for !p.check(lexer.TokenRightParen) {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(lexer.TokenComma) {
					break
				}
			}
			if _, err := p.consume(lexer.TokenRightParen, "expected )"); err != nil {
				return nil, err
			}
			switch callee := expr.(type) {
			case *ast.IdentExpr:
				expr = &ast.CallExpr{Callee: callee.Name, Args: args}
			case *ast.MemberExpr:
				expr = &ast.CallExpr{Callee: callee.Object + "." + callee.Member, Args: args}
			default:
				return nil, p.errorf("only functions can be called")
			}

		case p.match(lexer.TokenLeftBracket):
			if expr, err = p.parseIndexOrSlice(expr); err != nil {
				return nil, err
			}

		case p.match(lexer.TokenDot):
			member, err := p.expectIdentifier("expected member name")
			if err != nil {
				return nil, err
			}
			ident, ok := expr.(*ast.IdentExpr)
			if !ok {
				return nil, p.errorf("member access requires an identifier base")
			}
			expr = &ast.MemberExpr{Object: ident.Name, Member: member}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseIndexOrSlice(base ast.Expr) (ast.Expr, error) {
	// [:end] or [:]
	if p.match(lexer.TokenColon) {
		var end ast.Expr
		if !p.check(lexer.TokenRightBracket) {
			var err error
			if end, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		if _, err := p.consume(lexer.TokenRightBracket, "expected ]"); err != nil {
			return nil, err
		}
		return &ast.SliceExpr{Base: base, End: end}, nil
	}

	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.match(lexer.TokenColon) {
		var end ast.Expr
		if !p.check(lexer.TokenRightBracket) {
			if end, err = p.parseExpression(); err != nil {
				return nil, err
			}
		}
		if _, err := p.consume(lexer.TokenRightBracket, "expected ]"); err != nil {
			return nil, err
		}
		return &ast.SliceExpr{Base: base, Start: first, End: end}, nil
	}
	if _, err := p.consume(lexer.TokenRightBracket, "expected ]"); err != nil {
		return nil, err
	}
	return &ast.IndexExpr{Base: base, Index: first}, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		return &ast.NumberExpr{Value: tok.Number}, nil

	case lexer.TokenString:
		p.advance()
		return &ast.StringExpr{Value: tok.Text}, nil

	case lexer.TokenFString:
		p.advance()
		return fstringExpr(tok.Segments)

	case lexer.TokenTrue:
		p.advance()
		return &ast.BoolExpr{Value: true}, nil

	case lexer.TokenFalse:
		p.advance()
		return &ast.BoolExpr{Value: false}, nil

	case lexer.TokenNull:
		p.advance()
		return &ast.NullExpr{}, nil

	case lexer.TokenWhen:
		p.advance()
		return p.parseWhen()

	case lexer.TokenIdentifier:
		p.advance()
		if p.check(lexer.TokenArrow) && !p.noLambda {
			p.current--
			return p.parseLambda()
		}
		return &ast.IdentExpr{Name: tok.Text}, nil

	case lexer.TokenLeftParen:
		p.advance()
		if p.isLambdaParams() {
			p.current--
			return p.parseLambda()
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenRightParen, "expected )"); err != nil {
			return nil, err
		}
		return expr, nil

	case lexer.TokenLeftBracket:
		p.advance()
		var elements []ast.Expr
		for !p.check(lexer.TokenRightBracket) {
			el, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		if _, err := p.consume(lexer.TokenRightBracket, "expected ]"); err != nil {
			return nil, err
		}
		return &ast.ArrayExpr{Elements: elements}, nil

	case lexer.TokenSpread:
		p.advance()
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &ast.SpreadExpr{Inner: inner}, nil
	}
	return nil, p.errorf("unexpected token: %s", tok)
}

// parseWhen parses the inline when form:
// when c1 -> r1, c2 -> r2, else -> r3
func (p *Parser) parseWhen() (ast.Expr, error) {
	expr := &ast.WhenExpr{}
	for {
		if p.match(lexer.TokenElse) {
			if _, err := p.consume(lexer.TokenArrow, "expected -> after else"); err != nil {
				return nil, err
			}
			els, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			expr.Else = els
			break
		}

		p.noLambda = true
		cond, err := p.parseOr()
		p.noLambda = false
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenArrow, "expected -> after when condition"); err != nil {
			return nil, err
		}
		result, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		expr.Branches = append(expr.Branches, ast.WhenBranch{Condition: cond, Result: result})

		if !p.match(lexer.TokenComma) {
			break
		}
	}
	if len(expr.Branches) == 0 && expr.Else == nil {
		return nil, p.errorf("when requires at least one branch")
	}
	return expr, nil
}

func (p *Parser) parseLambda() (ast.Expr, error) {
	var params []string
	if p.match(lexer.TokenLeftParen) {
		for !p.check(lexer.TokenRightParen) {
			name, err := p.expectIdentifier("expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, name)
			if !p.match(lexer.TokenComma) {
				break
			}
		}
		if _, err := p.consume(lexer.TokenRightParen, "expected )"); err != nil {
			return nil, err
		}
	} else {
		name, err := p.expectIdentifier("expected parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, name)
	}

	if _, err := p.consume(lexer.TokenArrow, "expected ->"); err != nil {
		return nil, err
	}
	body, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ast.LambdaExpr{Params: params, Body: body}, nil
}

// isLambdaParams looks ahead from an already-consumed ( for the
// "ident, ident, ...) ->" pattern.
func (p *Parser) isLambdaParams() bool {
	i := p.current
	for {
		if i >= len(p.tokens) {
			return false
		}
		if p.tokens[i].Type == lexer.TokenRightParen {
			i++
			break
		}
		if p.tokens[i].Type != lexer.TokenIdentifier {
			return false
		}
		i++
		if i < len(p.tokens) && p.tokens[i].Type == lexer.TokenComma {
			i++
		}
	}
	return i < len(p.tokens) && p.tokens[i].Type == lexer.TokenArrow
}

// fstringExpr converts lexed f-string segments into an expression node,
// parsing each embedded expression once.
func fstringExpr(segments []lexer.Segment) (ast.Expr, error) {
	parts := make([]ast.FStringPart, 0, len(segments))
	for _, seg := range segments {
		if !seg.IsExpr {
			parts = append(parts, ast.FStringPart{Text: seg.Text})
			continue
		}
		expr, err := ParseExpression(seg.Text)
		if err != nil {
			return nil, err
		}
		parts = append(parts, ast.FStringPart{Expr: expr})
	}
	return &ast.FStringExpr{Parts: parts}, nil
}

// Token stream helpers.

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == lexer.TokenEOF
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	if !p.atEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, message string) (lexer.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorf("%s", message)
}

func (p *Parser) expectIdentifier(message string) (string, error) {
	if p.check(lexer.TokenIdentifier) {
		return p.advance().Text, nil
	}
	return "", p.errorf("%s", message)
}

func (p *Parser) skipNewlines() {
	for p.match(lexer.TokenNewline) {
	}
}

func (p *Parser) consumeNewlines() error {
	if !p.match(lexer.TokenNewline) {
		return p.errorf("expected newline")
	}
	p.skipNewlines()
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	tok := p.peek()
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}
