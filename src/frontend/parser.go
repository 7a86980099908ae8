// parser.go implements the recursive-descent parser. Grounded in spirit on
// tree.go's driver (src/frontend/tree.go), which starts a grammar engine over
// a lexer's token stream and assembles ir.Node values; the language calls for a hand-written
// parser rather than a goyacc grammar, so the engine here is a conventional Pratt/precedence-
// climbing recursive-descent parser reading from the Lexer's pull-based NextToken/Peek
// instead of a yacc action table.
package frontend

import (
	"strconv"

	"bcplfe/src/diag"
	"bcplfe/src/ir"
)

// Parser builds an AST from a token stream, synchronising to a statement boundary on
// syntactic error.
type Parser struct {
	lex  *Lexer
	cur  Token
	bag  *diag.Bag
	last bool // last_token_was_value for IsValueEnd(); tracked via cur itself, kept for clarity.
}

// NewParser returns a Parser reading src, reporting diagnostics into bag.
func NewParser(src string, bag *diag.Bag) *Parser {
	p := &Parser{lex: NewLexer(src, bag), bag: bag}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.lex.NextToken()
}

func (p *Parser) check(k TokenKind) bool {
	return p.cur.Kind == k
}

func (p *Parser) match(k TokenKind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

// expect consumes a token of kind k, reporting a syntactic diagnostic if the current token
// does not match.
func (p *Parser) expect(k TokenKind) Token {
	if p.check(k) {
		t := p.cur
		p.advance()
		return t
	}
	p.bag.Errorf(diag.Syntactic, p.cur.Line, p.cur.Column,
		"expected %s, got %s %q", k, p.cur.Kind, p.cur.Lexeme)
	return p.cur
}

// synchronize skips the offending current token, then advances until a semicolon is
// consumed or a statement/declaration-starting keyword is current.
func (p *Parser) synchronize() {
	for !p.check(EOF) {
		if p.cur.Kind == SEMI {
			p.advance()
			return
		}
		p.advance()
		switch p.cur.Kind {
		case LET, FLETKW, MANIFEST, STATIC, GLOBAL, GLOBALS, CLASS,
			IF, UNLESS, TEST, WHILE, UNTIL, FOR, FOREACH, SWITCHON, REPEAT,
			GOTO, RETURN, FINISH, BREAK, LOOP, ENDCASE, RESULTIS:
			return
		}
		p.advance()
	}
}

// Parse parses the whole token stream into a Program node.
func (p *Parser) Parse() *ir.Node {
	prog := &ir.Node{Kind: ir.Program}
	for !p.check(EOF) {
		if d := p.parseTopDecl(); d != nil {
			prog.Children = append(prog.Children, d)
		}
	}
	return prog
}

// parseTopDecl parses one file-scope declaration. Only declarations are accepted at file
// scope.
func (p *Parser) parseTopDecl() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	switch p.cur.Kind {
	case LET, FLETKW:
		return p.parseLetShaped(true)
	case MANIFEST:
		return p.parseManifest()
	case STATIC, FSTATIC:
		return p.parseStatic()
	case GLOBAL:
		return p.parseGlobalSingle()
	case GLOBALS:
		return p.parseGlobalsBlock()
	case CLASS:
		return p.parseClass()
	case SEMI:
		p.advance()
		return nil
	default:
		p.bag.Errorf(diag.Syntactic, line, col, "expected a declaration, got %s %q", p.cur.Kind, p.cur.Lexeme)
		p.synchronize()
		return nil
	}
}

// parseLetShaped implements the unified LET/FLET rule, the centerpiece of the parser.
// atFileScope gates whether a parameter list after the name may produce a
// FunctionDeclaration/RoutineDeclaration: when false (block scope), a parameter list is a
// syntactic error and parseLetShaped reports it and falls back to an empty LetDeclaration
// rather than letting a bodyless function/routine leak into a block's statement list.
func (p *Parser) parseLetShaped(atFileScope bool) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	isFloat := p.cur.Kind == FLETKW
	p.advance() // Consume LET/FLET.

	isVirtual, isFinal := false, false
	for {
		if p.match(VIRTUAL) {
			isVirtual = true
			continue
		}
		if p.match(FINAL) {
			isFinal = true
			continue
		}
		break
	}

	nameTok := p.expect(IDENTIFIER)
	name := nameTok.Lexeme

	if p.check(LPAREN) {
		if !atFileScope {
			// Functions and routines nest only at file scope or inside a class; a block
			// may only bind plain variables. Report the error but keep parsing the
			// parameter list and body so the token stream stays in sync, then hand back
			// an empty LetDeclaration so the caller never sees a stray function/routine
			// shape where it expects a variable binding.
			p.bag.Errorf(diag.Syntactic, line, col,
				"function or routine %q cannot be declared inside a block", name)
			p.parseParamList()
			if p.match(EQ) || p.match(ASSIGN) {
				p.parseExpression()
			} else {
				p.expect(BE)
				p.parseStatement()
			}
			return &ir.Node{Kind: ir.LetDeclaration, Line: line, Col: col, IsFloat: isFloat}
		}
		// LET name ( params ) = expr | LET name ( params ) BE stmt.
		params := p.parseParamList()
		if p.match(EQ) || p.match(ASSIGN) {
			body := p.parseExpression()
			return &ir.Node{
				Kind: ir.FunctionDeclaration, Line: line, Col: col, Name: name,
				IsFloat: isFloat, IsVirtual: isVirtual, IsFinal: isFinal,
				Params: params, Children: []*ir.Node{body},
			}
		}
		p.expect(BE)
		body := p.parseStatement()
		return &ir.Node{
			Kind: ir.RoutineDeclaration, Line: line, Col: col, Name: name,
			IsVirtual: isVirtual, IsFinal: isFinal, Params: params, Children: []*ir.Node{body},
		}
	}

	// LET n1, n2, ... [AS type] = e1, e2, ...
	names := []string{name}
	for p.match(COMMA) {
		names = append(names, p.expect(IDENTIFIER).Lexeme)
	}

	hasExplicit := false
	var explicit ir.VarType
	if p.match(AS) {
		hasExplicit = true
		explicit = p.parseTypeName()
	}

	var inits []*ir.Node
	if p.match(EQ) || p.match(ASSIGN) {
		inits = append(inits, p.parseExpression())
		for p.match(COMMA) {
			inits = append(inits, p.parseExpression())
		}
	}

	return &ir.Node{
		Kind: ir.LetDeclaration, Line: line, Col: col, Names: names,
		IsFloat: isFloat, HasExplicit: hasExplicit, ExplicitType: explicit, Children: inits,
	}
}

func (p *Parser) parseTypeName() ir.VarType {
	switch p.cur.Kind {
	case TYPE_INT:
		p.advance()
		return ir.INTEGER
	case TYPE_FLOAT:
		p.advance()
		return ir.FLOAT
	case TYPE_STRING:
		p.advance()
		return ir.STRING
	case TYPE_LIST:
		p.advance()
		return ir.LIST
	case TYPE_VEC:
		p.advance()
		return ir.VEC
	case TYPE_ANY:
		p.advance()
		return ir.ANY
	case PAIR:
		p.advance()
		return ir.PAIR
	case FPAIR:
		p.advance()
		return ir.FPAIR
	case QUAD:
		p.advance()
		return ir.QUAD
	case OCT:
		p.advance()
		return ir.OCT
	case FOCT:
		p.advance()
		return ir.FOCT
	default:
		name := p.expect(IDENTIFIER).Lexeme
		_ = name // A bare identifier names a class type; resolved to POINTER_TO_OBJECT downstream.
		return ir.POINTER_TO_OBJECT
	}
}

func (p *Parser) parseParamList() []string {
	p.expect(LPAREN)
	var params []string
	if !p.check(RPAREN) {
		params = append(params, p.expect(IDENTIFIER).Lexeme)
		for p.match(COMMA) {
			params = append(params, p.expect(IDENTIFIER).Lexeme)
		}
	}
	p.expect(RPAREN)
	return params
}

func (p *Parser) parseManifest() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	name := p.expect(IDENTIFIER).Lexeme
	p.expect(EQ)
	valTok := p.expect(INTEGER)
	v, _ := strconv.Atoi(valTok.Lexeme)
	return &ir.Node{Kind: ir.ManifestDeclaration, Line: line, Col: col, Name: name, ManifestValue: v}
}

func (p *Parser) parseStatic() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	name := p.expect(IDENTIFIER).Lexeme
	var init *ir.Node
	if p.match(EQ) || p.match(ASSIGN) {
		init = p.parseExpression()
	}
	var children []*ir.Node
	if init != nil {
		children = []*ir.Node{init}
	}
	return &ir.Node{Kind: ir.StaticDeclaration, Line: line, Col: col, Name: name, Children: children}
}

func (p *Parser) parseGlobalSingle() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	name := p.expect(IDENTIFIER).Lexeme
	return &ir.Node{Kind: ir.GlobalVariableDeclaration, Line: line, Col: col, Name: name}
}

// parseGlobalsBlock flattens a `GLOBALS { ... }` block into individual
// GlobalVariableDeclaration entries.
func (p *Parser) parseGlobalsBlock() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	p.expect(LBRACE)
	block := &ir.Node{Kind: ir.GlobalDeclaration, Line: line, Col: col}
	for !p.check(RBRACE) && !p.check(EOF) {
		name := p.expect(IDENTIFIER).Lexeme
		block.Children = append(block.Children, &ir.Node{Kind: ir.GlobalVariableDeclaration, Name: name})
		if !p.match(COMMA) {
			break
		}
	}
	p.expect(RBRACE)
	return block
}

func (p *Parser) parseClass() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	name := p.expect(IDENTIFIER).Lexeme
	parent := ""
	if p.match(EXTENDS) {
		parent = p.expect(IDENTIFIER).Lexeme
	}
	p.expect(LBRACE)

	vis := ir.Public
	var members []*ir.Node
	for !p.check(RBRACE) && !p.check(EOF) {
		switch p.cur.Kind {
		case PUBLIC:
			p.advance()
			p.expect(COLON)
			vis = ir.Public
		case PRIVATE:
			p.advance()
			p.expect(COLON)
			vis = ir.Private
		case PROTECTED:
			p.advance()
			p.expect(COLON)
			vis = ir.Protected
		case LET, FLETKW:
			m := p.parseLetShaped(true)
			m.Visibility = vis
			members = append(members, m)
		default:
			p.bag.Errorf(diag.Syntactic, p.cur.Line, p.cur.Column, "unexpected token in class body: %s", p.cur.Kind)
			p.synchronize()
		}
	}
	p.expect(RBRACE)
	return &ir.Node{Kind: ir.ClassDeclaration, Line: line, Col: col, Name: name, ParentName: parent, Children: members}
}

// ----------------------
// ----- Statements -----
// ----------------------

func (p *Parser) parseBlock() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.expect(LBRACE)
	block := &ir.Node{Kind: ir.BlockStatement, Line: line, Col: col}
	declEnd := 0
	for !p.check(RBRACE) && !p.check(EOF) {
		if p.check(LET) || p.check(FLETKW) {
			// Inside a block, LET lowers to a declaration (no initializers) plus an
			// assignment statement carrying the initializers.
			decl, assign := p.parseBlockLet()
			block.Children = append(block.Children, decl)
			declEnd = len(block.Children)
			if assign != nil {
				block.Children = append(block.Children, assign)
			}
			continue
		}
		block.Children = append(block.Children, p.parseStatement())
	}
	p.expect(RBRACE)
	block.Declared = declEnd
	return block
}

func (p *Parser) parseBlockLet() (decl, assign *ir.Node) {
	full := p.parseLetShaped(false)
	inits := full.Children
	full.Children = nil
	if len(inits) == 0 {
		return full, nil
	}
	lhs := &ir.Node{Kind: ir.CompoundStatement}
	for _, n := range full.Names {
		lhs.Children = append(lhs.Children, &ir.Node{Kind: ir.VariableAccess, Name: n, Line: full.Line, Col: full.Col})
	}
	rhs := &ir.Node{Kind: ir.CompoundStatement, Children: inits}
	assign = &ir.Node{Kind: ir.Assignment, Line: full.Line, Col: full.Col, Children: []*ir.Node{lhs, rhs}}
	return full, assign
}

func (p *Parser) parseStatement() *ir.Node {
	switch p.cur.Kind {
	case LBRACE:
		return p.parseBlock()
	case IF:
		return p.parseIfUnless(ir.IfStatement)
	case UNLESS:
		return p.parseIfUnless(ir.UnlessStatement)
	case TEST:
		return p.parseTest()
	case WHILE:
		return p.parseWhileUntil(ir.WhileStatement)
	case UNTIL:
		return p.parseWhileUntil(ir.UntilStatement)
	case REPEAT:
		return p.parseRepeat()
	case FOR:
		return p.parseFor()
	case FOREACH:
		return p.parseForEach()
	case SWITCHON:
		return p.parseSwitchon()
	case GOTO:
		return p.parseNamedJump(ir.GotoStatement, true)
	case RETURN:
		return p.parseSimpleJump(ir.ReturnStatement)
	case FINISH:
		return p.parseSimpleJump(ir.FinishStatement)
	case BREAK:
		return p.parseSimpleJump(ir.BreakStatement)
	case LOOP:
		return p.parseSimpleJump(ir.LoopStatement)
	case ENDCASE:
		return p.parseSimpleJump(ir.EndcaseStatement)
	case RESULTIS:
		return p.parseResultis()
	case SEND:
		// SEND e desugars to RESULTIS e.
		return p.parseResultisLike(SEND)
	case ACCEPT:
		return p.parseAcceptOrRemanage(ir.RemanageStatement)
	case REMANAGE:
		return p.parseAcceptOrRemanage(ir.RemanageStatement)
	case DEFER:
		return p.parseUnaryStatement(ir.DeferStatement)
	case RETAIN:
		return p.parseUnaryStatement(ir.RetainStatement)
	case FREEVEC, FREELIST:
		return p.parseUnaryStatement(ir.FreeStatement)
	case BRK:
		// BRK is a debugger breakpoint trap; it carries no operands and has no effect on
		// control flow, so it is recorded as an empty CompoundStatement.
		line, col := p.cur.Line, p.cur.Column
		p.advance()
		p.match(SEMI)
		return &ir.Node{Kind: ir.CompoundStatement, Line: line, Col: col}
	default:
		return p.parseExprOrAssignStatement()
	}
}

func (p *Parser) parseIfUnless(kind ir.NodeKind) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	cond := p.parseExpression()
	p.match(THEN)
	body := p.parseStatement()
	return &ir.Node{Kind: kind, Line: line, Col: col, Children: []*ir.Node{cond, body}}
}

func (p *Parser) parseTest() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	cond := p.parseExpression()
	p.match(THEN)
	thenBody := p.parseStatement()
	p.expect(ELSE)
	elseBody := p.parseStatement()
	return &ir.Node{Kind: ir.TestStatement, Line: line, Col: col, Children: []*ir.Node{cond, thenBody, elseBody}}
}

func (p *Parser) parseWhileUntil(kind ir.NodeKind) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	cond := p.parseExpression()
	p.match(DO)
	body := p.parseStatement()
	return &ir.Node{Kind: kind, Line: line, Col: col, Children: []*ir.Node{cond, body}}
}

func (p *Parser) parseRepeat() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	body := p.parseStatement()
	loopType := ir.RepeatLoop
	var children = []*ir.Node{body}
	if p.match(WHILE) {
		loopType = ir.RepeatWhile
		children = append(children, p.parseExpression())
	} else if p.match(UNTIL) {
		loopType = ir.RepeatUntil
		children = append(children, p.parseExpression())
	}
	return &ir.Node{Kind: ir.RepeatStatement, Line: line, Col: col, LoopType: loopType, Children: children}
}

func (p *Parser) parseFor() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	name := p.expect(IDENTIFIER).Lexeme
	p.expect(EQ)
	from := p.parseExpression()
	p.expect(TO)
	to := p.parseExpression()
	var by *ir.Node
	if p.match(BY) {
		by = p.parseExpression()
	}
	p.match(DO)
	body := p.parseStatement()
	children := []*ir.Node{from, to}
	if by != nil {
		children = append(children, by)
	}
	children = append(children, body)
	return &ir.Node{Kind: ir.ForStatement, Line: line, Col: col, Name: name, Children: children}
}

// parseForEach accepts FOREACH v IN coll, FOREACH t, v IN coll, or FOREACH (a, b) IN coll,
// with an optional AS type filter.
func (p *Parser) parseForEach() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	var names []string
	if p.match(LPAREN) {
		names = append(names, p.expect(IDENTIFIER).Lexeme)
		for p.match(COMMA) {
			names = append(names, p.expect(IDENTIFIER).Lexeme)
		}
		p.expect(RPAREN)
	} else {
		names = append(names, p.expect(IDENTIFIER).Lexeme)
		if p.match(COMMA) {
			names = append(names, p.expect(IDENTIFIER).Lexeme)
		}
	}
	p.expect(IN)
	coll := p.parseExpression()
	hasFilter := false
	var filter ir.VarType
	if p.match(AS) {
		hasFilter = true
		filter = p.parseTypeName()
	}
	p.match(DO)
	body := p.parseStatement()
	return &ir.Node{
		Kind: ir.ForEachStatement, Line: line, Col: col, Names: names,
		HasFilter: hasFilter, FilterType: filter, Children: []*ir.Node{coll, body},
	}
}

// parseSwitchon parses `SWITCHON e { CASE k: stmt ... [DEFAULT: stmt] }`.
func (p *Parser) parseSwitchon() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	selector := p.parseExpression()
	p.expect(LBRACE)
	n := &ir.Node{Kind: ir.SwitchonStatement, Line: line, Col: col, Children: []*ir.Node{selector}}
	for !p.check(RBRACE) && !p.check(EOF) {
		switch p.cur.Kind {
		case CASE:
			cline, ccol := p.cur.Line, p.cur.Column
			p.advance()
			val := p.parseExpression()
			p.expect(COLON)
			var stmts []*ir.Node
			for !p.check(CASE) && !p.check(DEFAULT) && !p.check(RBRACE) && !p.check(EOF) {
				stmts = append(stmts, p.parseStatement())
			}
			n.Children = append(n.Children, &ir.Node{Kind: ir.CaseClause, Line: cline, Col: ccol, Children: append([]*ir.Node{val}, stmts...)})
		case DEFAULT:
			dline, dcol := p.cur.Line, p.cur.Column
			p.advance()
			p.expect(COLON)
			var stmts []*ir.Node
			for !p.check(CASE) && !p.check(DEFAULT) && !p.check(RBRACE) && !p.check(EOF) {
				stmts = append(stmts, p.parseStatement())
			}
			n.Children = append(n.Children, &ir.Node{Kind: ir.DefaultClause, Line: dline, Col: dcol, Children: stmts})
		default:
			p.bag.Errorf(diag.Syntactic, p.cur.Line, p.cur.Column, "expected CASE or DEFAULT, got %s", p.cur.Kind)
			p.synchronize()
		}
	}
	p.expect(RBRACE)
	return n
}

func (p *Parser) parseNamedJump(kind ir.NodeKind, needsLabel bool) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	var name string
	if needsLabel {
		name = p.expect(IDENTIFIER).Lexeme
	}
	p.match(SEMI)
	return &ir.Node{Kind: kind, Line: line, Col: col, Name: name}
}

func (p *Parser) parseSimpleJump(kind ir.NodeKind) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	var children []*ir.Node
	if !p.check(SEMI) && !p.check(RBRACE) {
		children = append(children, p.parseExpression())
	}
	p.match(SEMI)
	return &ir.Node{Kind: kind, Line: line, Col: col, Children: children}
}

func (p *Parser) parseResultis() *ir.Node {
	return p.parseSimpleJump(ir.ResultisStatement)
}

// parseResultisLike handles SEND's desugaring to RESULTIS.
func (p *Parser) parseResultisLike(_ TokenKind) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	expr := p.parseExpression()
	p.match(SEMI)
	return &ir.Node{Kind: ir.ResultisStatement, Line: line, Col: col, Children: []*ir.Node{expr}}
}

// parseAcceptOrRemanage handles ACCEPT and REMANAGE: ACCEPT n, ... desugars to
// REMANAGE n, ....
func (p *Parser) parseAcceptOrRemanage(kind ir.NodeKind) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	var args []*ir.Node
	args = append(args, p.parseExpression())
	for p.match(COMMA) {
		args = append(args, p.parseExpression())
	}
	p.match(SEMI)
	return &ir.Node{Kind: kind, Line: line, Col: col, Children: args}
}

func (p *Parser) parseUnaryStatement(kind ir.NodeKind) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.advance()
	expr := p.parseExpression()
	p.match(SEMI)
	return &ir.Node{Kind: kind, Line: line, Col: col, Children: []*ir.Node{expr}}
}

// parseExprOrAssignStatement parses an expression statement: if it turns out to be a
// FunctionCall it stands alone as a RoutineCallStatement, else a `:=` is required and the
// result is an Assignment.
func (p *Parser) parseExprOrAssignStatement() *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	lhsList := []*ir.Node{p.parseExpression()}
	for p.match(COMMA) {
		lhsList = append(lhsList, p.parseExpression())
	}

	if len(lhsList) == 1 && lhsList[0].Kind == ir.FunctionCall && !p.check(ASSIGN) {
		p.match(SEMI)
		return &ir.Node{Kind: ir.RoutineCallStatement, Line: line, Col: col, Children: []*ir.Node{lhsList[0]}}
	}

	p.expect(ASSIGN)
	rhsList := []*ir.Node{p.parseExpression()}
	for p.match(COMMA) {
		rhsList = append(rhsList, p.parseExpression())
	}
	p.match(SEMI)
	lhs := &ir.Node{Kind: ir.CompoundStatement, Children: lhsList}
	rhs := &ir.Node{Kind: ir.CompoundStatement, Children: rhsList}
	return &ir.Node{Kind: ir.Assignment, Line: line, Col: col, Children: []*ir.Node{lhs, rhs}}
}

// -----------------------
// ----- Expressions -----
// -----------------------

// Precedence levels, low to high.
const (
	precNone = iota
	precConditional
	precOr
	precAnd
	precEquiv
	precRelational
	precShift
	precAdditive
	precMultiplicative
)

func binaryPrecedence(k TokenKind) int {
	switch k {
	case ARROW:
		return precConditional
	case OR, PIPE:
		return precOr
	case AND, AMP:
		return precAnd
	case EQV, NEQV:
		return precEquiv
	case EQ, NE, LT, LE, GT, GE:
		return precRelational
	case SHL, SHR:
		return precShift
	case PLUS, MINUS:
		return precAdditive
	case STAR, SLASH, REM:
		return precMultiplicative
	}
	return precNone
}

func (p *Parser) parseExpression() *ir.Node {
	return p.parseBinary(precConditional)
}

func (p *Parser) parseBinary(minPrec int) *ir.Node {
	left := p.parseUnary()
	for {
		prec := binaryPrecedence(p.cur.Kind)
		if prec < minPrec || prec == precNone {
			break
		}
		opTok := p.cur
		p.advance()

		if opTok.Kind == ARROW {
			// Right-associative ternary: e -> a, b.
			thenExpr := p.parseExpression()
			p.expect(COMMA)
			elseExpr := p.parseExpression()
			left = &ir.Node{Kind: ir.ConditionalExpression, Line: opTok.Line, Col: opTok.Column,
				Children: []*ir.Node{left, thenExpr, elseExpr}}
			continue
		}

		right := p.parseBinary(prec + 1)
		left = &ir.Node{Kind: ir.BinaryOp, Line: opTok.Line, Col: opTok.Column, Op: opTok.Lexeme,
			Children: []*ir.Node{left, right}}
	}
	return left
}

func (p *Parser) parseUnary() *ir.Node {
	switch p.cur.Kind {
	case NOT, MINUS, AT, INDIR, CHARIND, TILDE, FLOATKW, FIX, FSQRT, ENTIER, TRUNC:
		op := p.cur
		p.advance()
		operand := p.parseUnary()
		return &ir.Node{Kind: ir.UnaryOp, Line: op.Line, Col: op.Column, Op: op.Lexeme, Children: []*ir.Node{operand}}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() *ir.Node {
	n := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case LPAREN:
			n = p.finishCall(n)
		case VECIND:
			op := p.cur
			p.advance()
			idx := p.parseUnary()
			n = &ir.Node{Kind: ir.VectorAccess, Line: op.Line, Col: op.Column, Children: []*ir.Node{n, idx}}
		case CHARVECIND:
			op := p.cur
			p.advance()
			idx := p.parseUnary()
			n = &ir.Node{Kind: ir.CharIndirection, Line: op.Line, Col: op.Column, Children: []*ir.Node{n, idx}}
		case BITFIELD:
			op := p.cur
			p.advance()
			idx := p.parseUnary()
			n = &ir.Node{Kind: ir.Bitfield, Line: op.Line, Col: op.Column, Children: []*ir.Node{n, idx}}
		case DOT:
			op := p.cur
			p.advance()
			member := p.expect(IDENTIFIER).Lexeme
			access := &ir.Node{Kind: ir.MemberAccessExpression, Line: op.Line, Col: op.Column, Name: member, Children: []*ir.Node{n}}
			if p.check(LPAREN) {
				n = p.finishCall(access)
			} else {
				n = access
			}
		default:
			return n
		}
	}
}

func (p *Parser) finishCall(callee *ir.Node) *ir.Node {
	line, col := p.cur.Line, p.cur.Column
	p.expect(LPAREN)
	children := []*ir.Node{callee}
	if !p.check(RPAREN) {
		children = append(children, p.parseExpression())
		for p.match(COMMA) {
			children = append(children, p.parseExpression())
		}
	}
	p.expect(RPAREN)
	return &ir.Node{Kind: ir.FunctionCall, Line: line, Col: col, Children: children}
}

func (p *Parser) parsePrimary() *ir.Node {
	tok := p.cur
	switch tok.Kind {
	case INTEGER:
		p.advance()
		v, _ := strconv.ParseInt(tok.Lexeme, 0, 64)
		return &ir.Node{Kind: ir.IntegerLiteral, Line: tok.Line, Col: tok.Column, IntVal: int(v)}
	case FLOAT:
		p.advance()
		v, _ := strconv.ParseFloat(tok.Lexeme, 64)
		return &ir.Node{Kind: ir.FloatLiteral, Line: tok.Line, Col: tok.Column, FloatVal: v}
	case STRINGLIT:
		p.advance()
		return &ir.Node{Kind: ir.StringLiteral, Line: tok.Line, Col: tok.Column, StringVal: tok.Lexeme}
	case CHARLIT:
		p.advance()
		r := rune(0)
		if len(tok.Lexeme) > 0 {
			r = []rune(tok.Lexeme)[0]
		}
		return &ir.Node{Kind: ir.CharLiteral, Line: tok.Line, Col: tok.Column, IntVal: int(r)}
	case TRUE:
		p.advance()
		return &ir.Node{Kind: ir.BoolLiteral, Line: tok.Line, Col: tok.Column, BoolVal: true}
	case FALSE:
		p.advance()
		return &ir.Node{Kind: ir.BoolLiteral, Line: tok.Line, Col: tok.Column, BoolVal: false}
	case IDENTIFIER:
		p.advance()
		return &ir.Node{Kind: ir.VariableAccess, Line: tok.Line, Col: tok.Column, Name: tok.Lexeme}
	case SUPER:
		p.advance()
		p.expect(DOT)
		member := p.expect(IDENTIFIER).Lexeme
		return &ir.Node{Kind: ir.SuperMethodAccessExpression, Line: tok.Line, Col: tok.Column, Name: member}
	case NEW:
		return p.parseNew()
	case LPAREN:
		p.advance()
		e := p.parseExpression()
		p.expect(RPAREN)
		return e
	case VALOF:
		p.advance()
		body := p.parseBlock()
		return &ir.Node{Kind: ir.ValofExpression, Line: tok.Line, Col: tok.Column, Children: body.Children, Declared: body.Declared}
	case FVALOF:
		p.advance()
		body := p.parseBlock()
		return &ir.Node{Kind: ir.FloatValofExpression, Line: tok.Line, Col: tok.Column, Children: body.Children, Declared: body.Declared}
	case VEC, FVEC:
		return p.parseVecAllocation()
	case TABLE, FTABLE:
		return p.parseTableExpression()
	case LIST, MANIFESTLIST:
		return p.parseListExpression()
	default:
		p.bag.Errorf(diag.Syntactic, tok.Line, tok.Column, "unexpected token %s %q in expression", tok.Kind, tok.Lexeme)
		p.advance()
		return &ir.Node{Kind: ir.IntegerLiteral, Line: tok.Line, Col: tok.Column}
	}
}

func (p *Parser) parseNew() *ir.Node {
	tok := p.cur
	p.advance()
	className := p.expect(IDENTIFIER).Lexeme
	var args []*ir.Node
	if p.match(LPAREN) {
		if !p.check(RPAREN) {
			args = append(args, p.parseExpression())
			for p.match(COMMA) {
				args = append(args, p.parseExpression())
			}
		}
		p.expect(RPAREN)
	}
	return &ir.Node{Kind: ir.NewExpression, Line: tok.Line, Col: tok.Column, Name: className, Children: args}
}

func (p *Parser) parseVecAllocation() *ir.Node {
	tok := p.cur
	isFloat := tok.Kind == FVEC
	p.advance()
	size := p.parseExpression()
	return &ir.Node{Kind: ir.VecAllocation, Line: tok.Line, Col: tok.Column, IsFloat: isFloat, Children: []*ir.Node{size}}
}

func (p *Parser) parseTableExpression() *ir.Node {
	tok := p.cur
	isFloat := tok.Kind == FTABLE
	p.advance()
	var entries []*ir.Node
	if p.match(LBRACE) {
		if !p.check(RBRACE) {
			entries = append(entries, p.parseExpression())
			for p.match(COMMA) {
				entries = append(entries, p.parseExpression())
			}
		}
		p.expect(RBRACE)
	}
	return &ir.Node{Kind: ir.TableExpression, Line: tok.Line, Col: tok.Column, IsFloat: isFloat, Children: entries}
}

func (p *Parser) parseListExpression() *ir.Node {
	tok := p.cur
	isManifest := tok.Kind == MANIFESTLIST
	p.advance()
	var entries []*ir.Node
	if p.match(LPAREN) {
		if !p.check(RPAREN) {
			entries = append(entries, p.parseExpression())
			for p.match(COMMA) {
				entries = append(entries, p.parseExpression())
			}
		}
		p.expect(RPAREN)
	}
	return &ir.Node{Kind: ir.ListExpression, Line: tok.Line, Col: tok.Column, IsManifestList: isManifest, Children: entries}
}
