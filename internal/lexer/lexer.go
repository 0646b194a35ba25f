// Package lexer tokenizes rowlang source. The language is line and
// indentation oriented: the lexer emits Newline, Indent and Dedent tokens
// (one indent level per 4 spaces or one tab), recognizes the -- NAME ... --
// header declarations and scans f-string literals into segments.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Error is a lexical error with its source position.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error [%d:%d]: %s", e.Line, e.Column, e.Message)
}

// Lexer scans rowlang source into tokens.
type Lexer struct {
	source  []rune
	current int
	line    int
	column  int
	indents []int
	pending []Token
}

// New returns a Lexer over the given source.
func New(source string) *Lexer {
	return &Lexer{
		source:  []rune(source),
		line:    1,
		column:  1,
		indents: []int{0},
	}
}

// Tokenize scans the whole source, ending with an EOF token.
func Tokenize(source string) ([]Token, error) {
	lx := New(source)
	var tokens []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Next returns the next token.
func (lx *Lexer) Next() (Token, error) {
	if len(lx.pending) > 0 {
		tok := lx.pending[0]
		lx.pending = lx.pending[1:]
		return tok, nil
	}

	lx.skipSpaces()

	if lx.atEnd() {
		// Close any open indentation levels before EOF.
		for len(lx.indents) > 1 {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.pending = append(lx.pending, lx.token(TokenDedent, ""))
		}
		if len(lx.pending) > 0 {
			tok := lx.pending[0]
			lx.pending = lx.pending[1:]
			return tok, nil
		}
		return lx.token(TokenEOF, ""), nil
	}

	ch := lx.peek()
	line, col := lx.line, lx.column

	if ch == '\n' {
		lx.advance()
		layout, err := lx.handleIndent()
		if err != nil {
			return Token{}, err
		}
		if len(layout) > 0 {
			lx.pending = append(lx.pending, layout...)
		}
		return Token{Type: TokenNewline, Lexeme: "\n", Line: line, Column: col}, nil
	}

	if ch == '#' {
		for !lx.atEnd() && lx.peek() != '\n' {
			lx.advance()
		}
		return lx.Next()
	}

	if ch == '-' && lx.peekAt(1) == '-' {
		return lx.scanDeclaration()
	}

	if ch >= '0' && ch <= '9' {
		return lx.scanNumber()
	}

	if ch == '"' || ch == '\'' {
		return lx.scanString(ch)
	}

	if ch == 'f' && (lx.peekAt(1) == '"' || lx.peekAt(1) == '\'') {
		return lx.scanFString()
	}

	if isIdentStart(ch) {
		return lx.scanIdentifier()
	}

	return lx.scanOperator()
}

func (lx *Lexer) peek() rune {
	if lx.atEnd() {
		return 0
	}
	return lx.source[lx.current]
}

func (lx *Lexer) peekAt(n int) rune {
	if lx.current+n >= len(lx.source) {
		return 0
	}
	return lx.source[lx.current+n]
}

func (lx *Lexer) advance() rune {
	ch := lx.source[lx.current]
	lx.current++
	if ch == '\n' {
		lx.line++
		lx.column = 1
	} else {
		lx.column++
	}
	return ch
}

func (lx *Lexer) atEnd() bool {
	return lx.current >= len(lx.source)
}

func (lx *Lexer) skipSpaces() {
	for !lx.atEnd() {
		switch lx.peek() {
		case ' ', '\t', '\r':
			lx.advance()
		default:
			return
		}
	}
}

func (lx *Lexer) token(t TokenType, lexeme string) Token {
	return Token{Type: t, Lexeme: lexeme, Line: lx.line, Column: lx.column}
}

func (lx *Lexer) errorf(line, col int, format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: line, Column: col}
}

// handleIndent measures the leading whitespace of the line just started and
// emits Indent/Dedent tokens against the indentation stack. Blank and
// comment-only lines do not affect indentation.
func (lx *Lexer) handleIndent() ([]Token, error) {
	level := 0
	line := lx.line
	for !lx.atEnd() {
		switch lx.peek() {
		case ' ':
			level++
			lx.advance()
		case '\t':
			level += 4
			lx.advance()
		default:
			goto measured
		}
	}
measured:
	if lx.atEnd() || lx.peek() == '\n' || lx.peek() == '#' {
		return nil, nil
	}

	current := lx.indents[len(lx.indents)-1]
	switch {
	case level > current:
		lx.indents = append(lx.indents, level)
		return []Token{{Type: TokenIndent, Lexeme: strings.Repeat(" ", level), Line: line, Column: 1}}, nil
	case level < current:
		var tokens []Token
		for len(lx.indents) > 0 && lx.indents[len(lx.indents)-1] > level {
			lx.indents = lx.indents[:len(lx.indents)-1]
			tokens = append(tokens, Token{Type: TokenDedent, Line: line, Column: 1})
		}
		if len(lx.indents) == 0 || lx.indents[len(lx.indents)-1] != level {
			return nil, lx.errorf(line, 1, "misaligned indentation")
		}
		return tokens, nil
	}
	return nil, nil
}

func (lx *Lexer) scanNumber() (Token, error) {
	line, col := lx.line, lx.column
	var sb strings.Builder

	for !lx.atEnd() && lx.peek() >= '0' && lx.peek() <= '9' {
		sb.WriteRune(lx.advance())
	}
	if !lx.atEnd() && lx.peek() == '.' && lx.peekAt(1) >= '0' && lx.peekAt(1) <= '9' {
		sb.WriteRune(lx.advance())
		for !lx.atEnd() && lx.peek() >= '0' && lx.peek() <= '9' {
			sb.WriteRune(lx.advance())
		}
	}
	if !lx.atEnd() && (lx.peek() == 'e' || lx.peek() == 'E') {
		sb.WriteRune(lx.advance())
		if !lx.atEnd() && (lx.peek() == '+' || lx.peek() == '-') {
			sb.WriteRune(lx.advance())
		}
		for !lx.atEnd() && lx.peek() >= '0' && lx.peek() <= '9' {
			sb.WriteRune(lx.advance())
		}
	}

	text := sb.String()
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, lx.errorf(line, col, "invalid number: %s", text)
	}
	return Token{Type: TokenNumber, Lexeme: text, Number: n, Line: line, Column: col}, nil
}

func (lx *Lexer) scanString(quote rune) (Token, error) {
	line, col := lx.line, lx.column
	lx.advance() // opening quote

	var sb strings.Builder
	for !lx.atEnd() && lx.peek() != quote {
		ch := lx.advance()
		if ch == '\\' && !lx.atEnd() {
			sb.WriteRune(unescape(lx.advance()))
			continue
		}
		sb.WriteRune(ch)
	}
	if lx.atEnd() {
		return Token{}, lx.errorf(line, col, "unterminated string")
	}
	lx.advance() // closing quote

	value := sb.String()
	return Token{
		Type:   TokenString,
		Lexeme: string(quote) + value + string(quote),
		Text:   value,
		Line:   line,
		Column: col,
	}, nil
}

// scanFString scans f"...{expr}..." into literal and expression segments.
// Expression source text is kept raw; the parser parses it.
func (lx *Lexer) scanFString() (Token, error) {
	line, col := lx.line, lx.column
	lx.advance() // 'f'
	quote := lx.advance()

	var segments []Segment
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			segments = append(segments, Segment{Text: sb.String()})
			sb.Reset()
		}
	}

	for !lx.atEnd() && lx.peek() != quote {
		ch := lx.advance()
		switch {
		case ch == '\\' && !lx.atEnd():
			sb.WriteRune(unescape(lx.advance()))
		case ch == '{':
			flush()
			var expr strings.Builder
			depth := 1
			for !lx.atEnd() {
				c := lx.advance()
				if c == '{' {
					depth++
				} else if c == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				expr.WriteRune(c)
			}
			if depth != 0 {
				return Token{}, lx.errorf(line, col, "unterminated expression in f-string")
			}
			segments = append(segments, Segment{Text: expr.String(), IsExpr: true})
		default:
			sb.WriteRune(ch)
		}
	}
	if lx.atEnd() {
		return Token{}, lx.errorf(line, col, "unterminated f-string")
	}
	lx.advance() // closing quote
	flush()

	return Token{Type: TokenFString, Segments: segments, Line: line, Column: col}, nil
}

var keywords = map[string]TokenType{
	"return":  TokenReturn,
	"if":      TokenIf,
	"elif":    TokenElif,
	"else":    TokenElse,
	"when":    TokenWhen,
	"package": TokenPackage,
	"mut":     TokenMut,
	"null":    TokenNull,
	"true":    TokenTrue,
	"false":   TokenFalse,
	"and":     TokenAnd,
	"or":      TokenOr,
	"not":     TokenNot,
	"_":       TokenUnderscore,
}

func (lx *Lexer) scanIdentifier() (Token, error) {
	line, col := lx.line, lx.column
	var sb strings.Builder
	for !lx.atEnd() && isIdentContinue(lx.peek()) {
		sb.WriteRune(lx.advance())
	}
	text := sb.String()
	if t, ok := keywords[text]; ok {
		return Token{Type: t, Lexeme: text, Line: line, Column: col}, nil
	}
	return Token{Type: TokenIdentifier, Lexeme: text, Text: text, Line: line, Column: col}, nil
}

// scanDeclaration reads a -- NAME ... -- header line and carries its inner
// content in the token payload.
func (lx *Lexer) scanDeclaration() (Token, error) {
	line, col := lx.line, lx.column
	var sb strings.Builder
	for !lx.atEnd() && lx.peek() != '\n' {
		sb.WriteRune(lx.advance())
		if sb.Len() >= 4 && strings.HasSuffix(sb.String(), "--") {
			break
		}
	}
	text := sb.String()

	content := ""
	if start := strings.Index(text, "--"); start >= 0 {
		if end := strings.LastIndex(text, "--"); end > start+2 {
			content = strings.TrimSpace(text[start+2 : end])
		}
	}

	upper := strings.ToUpper(text)
	tok := Token{Lexeme: text, Line: line, Column: col}
	switch {
	case strings.Contains(upper, "INPUT"):
		tok.Type = TokenInput
		tok.Text = strings.TrimSpace(trimWordPrefix(content, "input"))
	case strings.Contains(upper, "OUTPUT"):
		tok.Type = TokenOutput
		tok.Text = strings.TrimSpace(trimWordPrefix(content, "output"))
	case strings.Contains(upper, "IMPORT"):
		tok.Type = TokenImport
		tok.Text = strings.TrimSpace(trimWordPrefix(content, "import"))
	case strings.Contains(upper, "ERROR_END"):
		tok.Type = TokenErrorEnd
	case strings.Contains(upper, "ERROR"):
		tok.Type = TokenError
	case strings.Contains(upper, "PRECISION"):
		tok.Type = TokenPrecision
		tok.Text = content
	default:
		return Token{}, lx.errorf(line, col, "unknown declaration: %s", text)
	}
	return tok, nil
}

func trimWordPrefix(s, word string) string {
	if len(s) >= len(word) && strings.EqualFold(s[:len(word)], word) {
		return s[len(word):]
	}
	return s
}

func (lx *Lexer) scanOperator() (Token, error) {
	line, col := lx.line, lx.column
	ch := lx.advance()

	mk := func(t TokenType, lexeme string) (Token, error) {
		return Token{Type: t, Lexeme: lexeme, Line: line, Column: col}, nil
	}

	switch ch {
	case '+':
		return mk(TokenPlus, "+")
	case '-':
		if lx.peek() == '>' {
			lx.advance()
			return mk(TokenArrow, "->")
		}
		return mk(TokenMinus, "-")
	case '*':
		return mk(TokenStar, "*")
	case '/':
		return mk(TokenSlash, "/")
	case '%':
		return mk(TokenPercent, "%")
	case '^':
		return mk(TokenCaret, "^")
	case '>':
		if lx.peek() == '=' {
			lx.advance()
			return mk(TokenGreaterEq, ">=")
		}
		return mk(TokenGreater, ">")
	case '<':
		if lx.peek() == '=' {
			lx.advance()
			return mk(TokenLessEq, "<=")
		}
		return mk(TokenLess, "<")
	case '=':
		if lx.peek() == '=' {
			lx.advance()
			return mk(TokenEqual, "==")
		}
		return mk(TokenAssign, "=")
	case '!':
		if lx.peek() == '=' {
			lx.advance()
			return mk(TokenNotEqual, "!=")
		}
	case '|':
		if lx.peek() == '>' {
			lx.advance()
			return mk(TokenPipeline, "|>")
		}
	case '(':
		return mk(TokenLeftParen, "(")
	case ')':
		return mk(TokenRightParen, ")")
	case '[':
		return mk(TokenLeftBracket, "[")
	case ']':
		return mk(TokenRightBracket, "]")
	case '{':
		return mk(TokenLeftBrace, "{")
	case '}':
		return mk(TokenRightBrace, "}")
	case ',':
		return mk(TokenComma, ",")
	case ':':
		return mk(TokenColon, ":")
	case '?':
		return mk(TokenQuestion, "?")
	case '.':
		if lx.peek() == '.' && lx.peekAt(1) == '.' {
			lx.advance()
			lx.advance()
			return mk(TokenSpread, "...")
		}
		return mk(TokenDot, ".")
	}
	return Token{}, lx.errorf(line, col, "unexpected character: %q", ch)
}

func unescape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	}
	return ch
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isIdentContinue(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}
