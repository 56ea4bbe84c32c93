package parser

import (
	"fmt"
	"strconv"

	"github.com/thiremani/calculon/ast"
	"github.com/thiremani/calculon/lexer"
	"github.com/thiremani/calculon/token"
	"github.com/thiremani/calculon/types"
)

const (
	_ int = iota
	LOWEST
	OR          // or ||
	AND         // and &&
	LESSGREATER // > or <
	SUM         // +
	PRODUCT     // *
	PREFIX      // -X or !X
	POSTFIX     // v.x
)

var precedences = map[token.TokenType]int{
	token.LOR:    OR,
	token.LAND:   AND,
	token.EQL:    LESSGREATER,
	token.NEQ:    LESSGREATER,
	token.LSS:    LESSGREATER,
	token.GTR:    LESSGREATER,
	token.LEQ:    LESSGREATER,
	token.GEQ:    LESSGREATER,
	token.ADD:    SUM,
	token.SUB:    SUM,
	token.MUL:    PRODUCT,
	token.QUO:    PRODUCT,
	token.REM:    PRODUCT,
	token.PERIOD: POSTFIX,
}

// operatorNames are the intrinsic names operators desugar to. None of them
// is a valid identifier, so programs can't shadow them.
var operatorNames = map[token.TokenType]string{
	token.ADD:  "+",
	token.SUB:  "-",
	token.MUL:  "*",
	token.QUO:  "/",
	token.REM:  "%",
	token.EQL:  "==",
	token.NEQ:  "!=",
	token.LSS:  "<",
	token.GTR:  ">",
	token.LEQ:  "<=",
	token.GEQ:  ">=",
	token.LAND: "and",
	token.LOR:  "or",
}

const (
	NegateOp = "unary-"
	NotOp    = "!"
)

var laneNames = map[string]bool{"x": true, "y": true, "z": true, "w": true}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

type Parser struct {
	l      *lexer.Lexer
	errors []*token.CompileError

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []*token.CompileError{},
	}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumber)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NOT, p.parsePrefixExpression)
	p.registerPrefix(token.SUB, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACK, p.parseVector)
	p.registerPrefix(token.LET, p.parseLet)
	p.registerPrefix(token.IF, p.parseCondition)
	p.registerPrefix(token.RETURN, p.parseReturn)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tt := range operatorNames {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	p.registerInfix(token.PERIOD, p.parseMethod)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) Errors() []*token.CompileError {
	return p.errors
}

// Err returns the first error, if any.
func (p *Parser) Err() error {
	if len(p.errors) == 0 {
		return nil
	}
	return p.errors[0]
}

func (p *Parser) fail(pos token.Position, format string, args ...any) {
	p.errors = append(p.errors, token.Errorf(pos, format, args...))
}

func (p *Parser) peekError(t token.TokenType) {
	p.fail(p.peekToken.Pos, "expected next token to be %s, got %s instead", t, describe(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.EOF {
		p.fail(tok.Pos, "unexpected end of input")
		return
	}
	p.fail(tok.Pos, "unexpected %s", describe(tok))
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER, token.ILLEGAL:
		return "'" + tok.Literal + "'"
	}
	return "'" + tok.Type.String() + "'"
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

// ParseExpression parses the whole input as a single expression.
func (p *Parser) ParseExpression() ast.Node {
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if !p.peekTokenIs(token.EOF) {
		p.fail(p.peekToken.Pos, "unexpected %s after end of expression", describe(p.peekToken))
		return nil
	}
	return expr
}

func (p *Parser) parseExpression(precedence int) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	left := prefix()

	for left != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *Parser) parseIdentifier() ast.Node {
	tok := p.curToken
	if !p.peekTokenIs(token.LPAREN) {
		return ast.NewVariable(tok.Pos, tok.Literal)
	}
	p.nextToken()
	args, ok := p.parseList(token.RPAREN)
	if !ok {
		return nil
	}
	return ast.NewFunctionCall(tok.Pos, tok.Literal, args)
}

// parseList parses comma separated expressions up to end. curToken is the
// opening delimiter on entry and the closing one on return.
func (p *Parser) parseList(end token.TokenType) ([]ast.Node, bool) {
	list := []ast.Node{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}

	p.nextToken()
	for {
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil, false
		}
		list = append(list, expr)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}

	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

func (p *Parser) parseNumber() ast.Node {
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.fail(p.curToken.Pos, "could not parse %q as a number", p.curToken.Literal)
		return nil
	}
	return ast.NewConstant(p.curToken.Pos, v)
}

func (p *Parser) parseBoolean() ast.Node {
	return ast.NewBoolean(p.curToken.Pos, p.curTokenIs(token.TRUE))
}

func (p *Parser) parsePrefixExpression() ast.Node {
	tok := p.curToken
	p.nextToken()
	operand := p.parseExpression(PREFIX)
	if operand == nil {
		return nil
	}

	if tok.Type == token.NOT {
		return ast.NewFunctionCall(tok.Pos, NotOp, []ast.Node{operand})
	}
	if c, ok := operand.(*ast.Constant); ok {
		return ast.NewConstant(tok.Pos, -c.Value)
	}
	return ast.NewFunctionCall(tok.Pos, NegateOp, []ast.Node{operand})
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	tok := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return ast.NewFunctionCall(tok.Pos, operatorNames[tok.Type], []ast.Node{left, right})
}

// parseMethod handles v.x lane access and v.f(args) call sugar.
func (p *Parser) parseMethod(recv ast.Node) ast.Node {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	tok := p.curToken

	if laneNames[tok.Literal] && !p.peekTokenIs(token.LPAREN) {
		return ast.NewFunctionCall(tok.Pos, "."+tok.Literal, []ast.Node{recv})
	}

	args := []ast.Node{recv}
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		rest, ok := p.parseList(token.RPAREN)
		if !ok {
			return nil
		}
		args = append(args, rest...)
	}
	return ast.NewFunctionCall(tok.Pos, tok.Literal, args)
}

func (p *Parser) parseGroupedExpression() ast.Node {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

// parseVector parses [a, b, c] or the splat form [v; n].
func (p *Parser) parseVector() ast.Node {
	tok := p.curToken
	if p.peekTokenIs(token.RBRACK) {
		p.fail(tok.Pos, "vectors must have at least one element")
		return nil
	}

	p.nextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}

	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
		if !p.expectPeek(token.NUMBER) {
			return nil
		}
		arity, ok := p.parseArity()
		if !ok || !p.expectPeek(token.RBRACK) {
			return nil
		}
		return ast.NewVectorSplat(tok.Pos, first, arity)
	}

	elems := []ast.Node{first}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		elem := p.parseExpression(LOWEST)
		if elem == nil {
			return nil
		}
		elems = append(elems, elem)
	}
	if !p.expectPeek(token.RBRACK) {
		return nil
	}
	if len(elems) > types.MaxArity {
		p.fail(tok.Pos, "vector has %d elements, the maximum is %d", len(elems), types.MaxArity)
		return nil
	}
	return ast.NewVector(tok.Pos, elems)
}

func (p *Parser) parseArity() (int, bool) {
	n, err := strconv.Atoi(p.curToken.Literal)
	if err != nil || n < 1 {
		p.fail(p.curToken.Pos, "vector arity must be a positive integer, got %s", describe(p.curToken))
		return 0, false
	}
	if n > types.MaxArity {
		p.fail(p.curToken.Pos, "vector arity %d exceeds the maximum of %d", n, types.MaxArity)
		return 0, false
	}
	return n, true
}

// parseLet parses variable and function definitions:
//
//	let x[: type] = value (in|;) body
//	let f(a[: type], ...)[: type] = value (in|;) body
func (p *Parser) parseLet() ast.Node {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	nameTok := p.curToken
	if types.IsReservedTypeName(nameTok.Literal) {
		p.fail(nameTok.Pos, "'%s' is a type name and can't be redefined", nameTok.Literal)
		return nil
	}

	var params []*ast.Param
	isFunction := false
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		var ok bool
		if params, ok = p.parseParams(); !ok {
			return nil
		}
		isFunction = true
	}

	typeName := ""
	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		var ok bool
		if typeName, ok = p.parseTypeName(); !ok {
			return nil
		}
	}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}

	if !p.peekTokenIs(token.IN) && !p.peekTokenIs(token.SEMICOLON) {
		p.fail(p.peekToken.Pos, "expected 'in' or ';' after definition of '%s', got %s instead", nameTok.Literal, describe(p.peekToken))
		return nil
	}
	p.nextToken()
	p.nextToken()
	body := p.parseExpression(LOWEST)
	if body == nil {
		return nil
	}

	if isFunction {
		fb := ast.NewFunctionBody(nameTok.Pos, params, typeName, value)
		return ast.NewDefineFunction(nameTok.Pos, nameTok.Literal, fb, body)
	}
	return ast.NewDefineVariable(nameTok.Pos, nameTok.Literal, typeName, value, body)
}

// parseParams parses "(name[: type], ...)". curToken is '(' on entry and
// ')' on return.
func (p *Parser) parseParams() ([]*ast.Param, bool) {
	params := []*ast.Param{}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}

	for {
		if !p.expectPeek(token.IDENT) {
			return nil, false
		}
		param := &ast.Param{Name: p.curToken.Literal, Pos: p.curToken.Pos}
		if types.IsReservedTypeName(param.Name) {
			p.fail(param.Pos, "'%s' is a type name and can't be used as a parameter", param.Name)
			return nil, false
		}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil, false
			}
			var ok bool
			if param.TypeName, ok = p.parseTypeName(); !ok {
				return nil, false
			}
		}
		params = append(params, param)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return params, true
}

// parseTypeName parses real, boolean, vector and vector*N, returning the
// canonical name. curToken is the type's identifier on entry.
func (p *Parser) parseTypeName() (string, bool) {
	tok := p.curToken
	if !types.IsReservedTypeName(tok.Literal) {
		p.fail(tok.Pos, "unknown type '%s'", tok.Literal)
		return "", false
	}
	if tok.Literal != "vector" {
		return tok.Literal, true
	}
	if !p.peekTokenIs(token.MUL) {
		return types.VectorName(3), true
	}
	p.nextToken()
	if !p.expectPeek(token.NUMBER) {
		return "", false
	}
	n, ok := p.parseArity()
	if !ok {
		return "", false
	}
	return types.VectorName(n), true
}

func (p *Parser) parseCondition() ast.Node {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	if p.peekTokenIs(token.THEN) {
		p.nextToken()
	}

	p.nextToken()
	then := p.parseExpression(LOWEST)
	if then == nil || !p.expectPeek(token.ELSE) {
		return nil
	}

	p.nextToken()
	els := p.parseExpression(LOWEST)
	if els == nil {
		return nil
	}
	return ast.NewCondition(tok.Pos, cond, then, els)
}

// parseReturn parses "return [name = value, ...] [;]". The assignments
// become nested definitions around the bare return.
func (p *Parser) parseReturn() ast.Node {
	tok := p.curToken

	type assignment struct {
		name  token.Token
		value ast.Node
	}
	var assigns []assignment
	for p.peekTokenIs(token.IDENT) {
		p.nextToken()
		name := p.curToken
		if !p.expectPeek(token.ASSIGN) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		assigns = append(assigns, assignment{name, value})

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if !p.peekTokenIs(token.IDENT) {
			p.peekError(token.IDENT)
			return nil
		}
	}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}

	var node ast.Node = ast.NewReturn(tok.Pos)
	for i := len(assigns) - 1; i >= 0; i-- {
		a := assigns[i]
		node = ast.NewDefineVariable(a.name.Pos, a.name.Literal, "", a.value, node)
	}
	return node
}

// Signature is the externally declared interface of a program.
type Signature struct {
	Params         []*ast.Param
	Outputs        []*ast.Param
	ReturnTypeName string
}

func (s *Signature) String() string {
	str := "(" + joinParams(s.Params) + ")"
	switch {
	case s.ReturnTypeName != "":
		str += ": " + s.ReturnTypeName
	case len(s.Outputs) > 0:
		str += ": (" + joinParams(s.Outputs) + ")"
	}
	return str
}

func joinParams(params []*ast.Param) string {
	s := ""
	for i, param := range params {
		if i > 0 {
			s += ", "
		}
		s += param.String()
	}
	return s
}

// ParseSignature parses "(params)", "(params): type" or
// "(params): (outputs)". Untyped names default to real.
func ParseSignature(src string) (*Signature, error) {
	p := New(lexer.New(src))
	sig := &Signature{}

	if !p.curTokenIs(token.LPAREN) {
		p.fail(p.curToken.Pos, "signature must start with '(', got %s", describe(p.curToken))
		return nil, p.Err()
	}
	params, ok := p.parseParams()
	if !ok {
		return nil, p.Err()
	}
	sig.Params = defaultReal(params)

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			outputs, ok := p.parseParams()
			if !ok {
				return nil, p.Err()
			}
			sig.Outputs = defaultReal(outputs)
		} else {
			if !p.expectPeek(token.IDENT) {
				return nil, p.Err()
			}
			if sig.ReturnTypeName, ok = p.parseTypeName(); !ok {
				return nil, p.Err()
			}
		}
	}

	if !p.peekTokenIs(token.EOF) {
		p.fail(p.peekToken.Pos, "unexpected %s after signature", describe(p.peekToken))
		return nil, p.Err()
	}
	if err := checkUnique(sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func defaultReal(params []*ast.Param) []*ast.Param {
	for _, param := range params {
		if param.TypeName == "" {
			param.TypeName = "real"
		}
	}
	return params
}

func checkUnique(sig *Signature) error {
	seen := make(map[string]bool)
	for _, list := range [][]*ast.Param{sig.Params, sig.Outputs} {
		for _, param := range list {
			if seen[param.Name] {
				return token.Errorf(param.Pos, "'%s' is declared more than once in the signature", param.Name)
			}
			seen[param.Name] = true
		}
	}
	return nil
}

// Parse parses a program against its signature and links the tree.
func Parse(source string, sig *Signature) (*ast.Toplevel, error) {
	if sig == nil {
		return nil, fmt.Errorf("no signature given")
	}
	p := New(lexer.New(source))
	body := p.ParseExpression()
	if err := p.Err(); err != nil {
		return nil, err
	}

	top := ast.NewToplevel(sig.Params, sig.Outputs, sig.ReturnTypeName, body)
	ast.Link(top)
	return top, nil
}
