// Package parser implements the AMPL-2023 recursive-descent parser and
// interleaved type checker described in spec.md §4.5 — one function
// per non-terminal of the grammar in spec.md §4.5, each consuming the
// one-token lookahead from an internal/scanner.Scanner and, for
// expression productions, returning the synthesized value-type.
//
// Grounded production-by-production on original_source/amplc.c's
// parse_* family, and rendered in the one-function-per-production,
// expect-driven idiom of rochus-keller-ActiveOberon's AoParser.go
// (FIRST-set predicates, an expect helper that reports and advances).
package parser

import (
	"fmt"

	"go.uber.org/zap"

	"amplc/internal/diag"
	"amplc/internal/scanner"
	"amplc/internal/symtab"
	"amplc/internal/token"
	"amplc/internal/valtype"
)

// Result is what a successful compile reports about the program's
// subroutine frames, since spec.md §1 notes the front-end "reports
// acceptance/rejection and the per-subroutine frame width — no tree
// need be materialized".
type Result struct {
	MainWidth   uint
	Subroutines map[string]uint
}

// Parser drives one compile. Its mutable state — the lookahead, the
// active scope (held by table), and the current subroutine's return
// type — is exactly the "global mutable state" of spec.md §5, grouped
// here into one struct per Design Note 3 rather than left as package
// globals.
type Parser struct {
	scan  *scanner.Scanner
	table *symtab.Table
	sink  *diag.Sink
	log   *zap.SugaredLogger

	cur        token.Token
	returnType valtype.Type // current subroutine's return type
	indent     int

	result Result
}

// New creates a parser reading from scan, using table for scope
// resolution and sink for diagnostics. log may be zap.NewNop().Sugar()
// to disable the per-production trace entirely (the Go analogue of
// amplc.c's DBG_start/DBG_end being compiled out without DEBUG_PARSER).
func New(scan *scanner.Scanner, table *symtab.Table, sink *diag.Sink, log *zap.SugaredLogger) *Parser {
	return &Parser{
		scan:   scan,
		table:  table,
		sink:   sink,
		log:    log,
		result: Result{Subroutines: make(map[string]uint)},
	}
}

// CurrentKindName implements diag.TokenSource.
func (p *Parser) CurrentKindName() string { return p.cur.Kind.String() }

// Advance scans the first lookahead token. The caller (internal/compiler's
// Compile) must invoke this exactly once before Parse, matching
// amplc.c's main calling get_token(&token) once before parse_program().
func (p *Parser) Advance() { p.next() }

func (p *Parser) trace(production string) func() {
	p.log.Debugf("%*s<%s>", p.indent, "", production)
	p.indent += 2
	return func() {
		p.indent -= 2
		p.log.Debugf("%*s</%s>", p.indent, "", production)
	}
}

func (p *Parser) next() {
	p.cur = p.scan.Advance()
}

func (p *Parser) fatal(pos token.Position, kind diag.ErrorKind, args ...any) {
	p.sink.Fatalf(pos, kind, args...)
}

// expect consumes the lookahead if it matches kind, else reports
// ERR_EXPECT at the lookahead's position.
func (p *Parser) expect(kind token.Kind) {
	if p.cur.Kind == kind {
		p.next()
		return
	}
	p.fatal(p.cur.Pos, diag.ErrExpect, kind.String())
	panic("unreachable")
}

// expectID consumes an identifier lookahead, copying its lexeme (Go
// strings are immutable and already independent of the scanner's
// internal buffer, so no separate copy step is needed, unlike
// amplc.c's estrdup).
func (p *Parser) expectID() (string, token.Position) {
	if p.cur.Kind == token.Ident {
		id, pos := p.cur.Lexeme, p.cur.Pos
		p.next()
		return id, pos
	}
	p.fatal(p.cur.Pos, diag.ErrExpect, token.Ident.String())
	panic("unreachable")
}

// chktypes reports ERR_TYPE_MISMATCH at pos, with context formatted
// from format/args, unless found and expected denote the same type.
func (p *Parser) chktypes(found, expected valtype.Type, pos token.Position, format string, args ...any) {
	if !found.Equal(expected) {
		context := fmt.Sprintf(format, args...)
		p.fatal(pos, diag.ErrTypeMismatch, expected.String(), found.String(), context)
	}
}

// --- Parser routines --------------------------------------------------

// Parse recognizes the whole program and returns the computed frame
// widths. It must be called with the first token already scanned into
// the parser's lookahead (see Advance and internal/compiler.Compile),
// matching amplc.c's main calling get_token(&token) once before
// parse_program().
func (p *Parser) Parse() Result {
	p.parseProgram()
	return p.result
}

// program = "program" id ":" { subdef } "main" ":" body .
func (p *Parser) parseProgram() {
	defer p.trace("program")()

	origin := token.Position{Line: 1, Col: 0}
	if p.cur.Kind == token.EOF {
		p.fatal(origin, diag.ErrExpect, token.Program.String())
	}
	p.expect(token.Program)
	p.expectID()
	p.expect(token.Colon)

	for p.cur.Kind == token.Ident {
		p.parseSubdef()
	}

	p.expect(token.Main)
	p.expect(token.Colon)

	// main runs in the global scope and behaves like a procedure: a
	// bare "return" halts it, a "return expr" is rejected. The source
	// program leaves return_type unset here, which makes a bare
	// "return" inside main a silent no-op in the original; treating
	// main as an implicit procedure is the sensible reading and is
	// recorded in DESIGN.md.
	p.returnType = valtype.NoneType().Callable()
	p.parseBody()
	p.result.MainWidth = p.table.VariablesWidth()

	// A body only loops on ";"; anything left over once that loop
	// gives up is trailing garbage after the program's envelope, which
	// is reported the same way any other missing terminator is.
	if p.cur.Kind != token.EOF {
		p.fatal(p.cur.Pos, diag.ErrExpect, token.EOF.String())
	}
}

// subdef = id "(" type id { "," type id } ")" [ "->" type ] ":" body .
func (p *Parser) parseSubdef() {
	defer p.trace("subdef")()

	subID, subPos := p.expectID()
	p.expect(token.LParen)

	type param struct {
		name string
		typ  valtype.Type
		pos  token.Position
	}

	t1 := p.parseType()
	id, pos := p.expectID()
	params := []param{{name: id, typ: t1, pos: pos}}

	for p.cur.Kind == token.Comma {
		p.next()
		t1 = p.parseType()
		id, pos = p.expectID()
		params = append(params, param{name: id, typ: t1, pos: pos})
	}

	p.expect(token.RParen)

	paramTypes := make([]valtype.Type, len(params))
	for i, pr := range params {
		paramTypes[i] = pr.typ
	}

	subType := valtype.NoneType().Callable()
	if p.cur.Kind == token.Arrow {
		p.next()
		subType = p.parseType().Callable()
	}

	prop := &symtab.IDPropt{
		Type:    subType,
		NParams: uint(len(params)),
		Params:  paramTypes,
	}

	if !p.table.OpenSubroutine(subID, prop) {
		p.fatal(subPos, diag.ErrMultipleDefinition, subID)
	}

	for _, pr := range params {
		if _, ok := p.table.Find(pr.name); ok {
			p.fatal(pr.pos, diag.ErrMultipleDefinition, pr.name)
		}
		if !p.table.Insert(pr.name, &symtab.IDPropt{Type: pr.typ}) {
			p.fatal(pr.pos, diag.ErrMultipleDefinition, pr.name)
		}
	}

	p.returnType = subType
	p.expect(token.Colon)
	p.parseBody()
	p.result.Subroutines[subID] = p.table.VariablesWidth()
	p.table.CloseSubroutine()
	p.returnType = valtype.NoneType()
}

// body = { vardef } statements .
func (p *Parser) parseBody() {
	defer p.trace("body")()

	for p.cur.Kind == token.Bool || p.cur.Kind == token.Int_ {
		p.parseVardef()
	}
	p.parseStatements()
}

// type = ("bool" | "int") [ "array" ] .
func (p *Parser) parseType() valtype.Type {
	defer p.trace("type")()

	var t valtype.Type
	switch p.cur.Kind {
	case token.Bool:
		t = valtype.Bool()
		p.next()
	case token.Int_:
		t = valtype.Int()
		p.next()
	default:
		p.fatal(p.cur.Pos, diag.ErrExpectedTypeSpecifier)
		panic("unreachable")
	}

	if p.cur.Kind == token.Array {
		p.next()
		t = t.Array()
	}
	return t
}

// vardef = type id { "," id } ";" .
func (p *Parser) parseVardef() {
	defer p.trace("vardef")()

	t1 := p.parseType()
	id, pos := p.expectID()
	p.declareVariable(id, pos, t1)

	for p.cur.Kind == token.Comma {
		p.next()
		id, pos = p.expectID()
		p.declareVariable(id, pos, t1)
	}

	p.expect(token.Semicolon)
}

func (p *Parser) declareVariable(id string, pos token.Position, t valtype.Type) {
	if _, ok := p.table.Find(id); ok {
		p.fatal(pos, diag.ErrMultipleDefinition, id)
	}
	if !p.table.Insert(id, &symtab.IDPropt{Type: t}) {
		p.fatal(pos, diag.ErrMultipleDefinition, id)
	}
}

// statements = "chillax" | statement { ";" statement } .
func (p *Parser) parseStatements() {
	defer p.trace("statements")()

	if p.cur.Kind == token.Chillax {
		p.next()
		return
	}
	p.parseStatement()
	for p.cur.Kind == token.Semicolon {
		p.next()
		p.parseStatement()
	}
}

// statement = assign | call | if | input | output | return | while .
func (p *Parser) parseStatement() {
	defer p.trace("statement")()

	switch p.cur.Kind {
	case token.Let:
		p.parseAssign()
	case token.Ident:
		p.parseCall()
	case token.If:
		p.parseIf()
	case token.Input:
		p.parseInput()
	case token.Output:
		p.parseOutput()
	case token.Return:
		p.parseReturn()
	case token.While:
		p.parseWhile()
	default:
		p.fatal(p.cur.Pos, diag.ErrExpectedStatement)
	}
}

// assign = "let" id [ index ] "=" ( expr | "array" simple ) .
func (p *Parser) parseAssign() {
	defer p.trace("assign")()

	p.expect(token.Let)
	id, idPos := p.expectID()

	prop, ok := p.table.Find(id)
	if !ok {
		p.fatal(idPos, diag.ErrUnknownIdentifier, id)
	}
	if prop.Type.IsCallable() {
		p.fatal(idPos, diag.ErrNotAVariable, id)
	}

	targetType := prop.Type
	indexed := false

	if p.cur.Kind == token.LBrack {
		if !prop.Type.IsArray() {
			p.fatal(idPos, diag.ErrNotAnArray, id)
		}
		targetType = prop.Type.Elem()
		indexed = true
		p.parseIndex(id)
	}

	p.expect(token.Eq)
	pos := p.cur.Pos

	switch {
	case token.StartsExpr(p.cur.Kind):
		rhs := p.parseExpr()
		if indexed {
			p.chktypes(rhs, targetType, pos, "for allocation to indexed array '%s'", id)
		} else {
			p.chktypes(rhs, targetType, pos, "for assignment to '%s'", id)
		}
	case p.cur.Kind == token.Array:
		if !prop.Type.IsArray() {
			p.fatal(idPos, diag.ErrNotAnArray, id)
		}
		p.next()
		pos = p.cur.Pos
		size := p.parseSimple()
		p.chktypes(size, valtype.Int(), pos, "for array size of '%s'", id)
	default:
		p.fatal(p.cur.Pos, diag.ErrExpectedExpressionOrArrayAllocation)
	}
}

// call = id arglist .
func (p *Parser) parseCall() {
	defer p.trace("call")()

	id, idPos := p.expectID()

	prop, ok := p.table.Find(id)
	if !ok {
		p.fatal(idPos, diag.ErrUnknownIdentifier, id)
	}

	// parse_call in amplc.c tests IS_FUNCTION before the general
	// callability test; a function name used as a statement therefore
	// reports ERR_NOT_A_PROCEDURE rather than a generic message — an
	// observable ordering spec.md §9 asks to preserve verbatim.
	if prop.Type.IsFunction() {
		p.fatal(idPos, diag.ErrNotAProcedure, id)
	}
	if !prop.Type.IsCallable() {
		p.fatal(idPos, diag.ErrNotAProcedure, id)
	}

	p.parseArglist(id, idPos, prop)
}

// if = "if" expr ":" statements { "elif" expr ":" statements } [ "else" ":" statements ] "end" .
func (p *Parser) parseIf() {
	defer p.trace("if")()

	p.expect(token.If)
	pos := p.cur.Pos
	cond := p.parseExpr()
	p.chktypes(cond, valtype.Bool(), pos, "for 'if' guard")
	p.expect(token.Colon)
	p.parseStatements()

	for p.cur.Kind == token.Elif {
		p.next()
		pos = p.cur.Pos
		cond = p.parseExpr()
		p.chktypes(cond, valtype.Bool(), pos, "for 'elif' guard")
		p.expect(token.Colon)
		p.parseStatements()
	}

	if p.cur.Kind == token.Else {
		p.next()
		p.expect(token.Colon)
		p.parseStatements()
	}

	p.expect(token.End)
}

// input = "input" "(" id [ index ] ")" .
func (p *Parser) parseInput() {
	defer p.trace("input")()

	p.expect(token.Input)
	p.expect(token.LParen)
	id, pos := p.expectID()

	prop, ok := p.table.Find(id)
	if !ok {
		p.fatal(pos, diag.ErrUnknownIdentifier, id)
	}

	if p.cur.Kind == token.LBrack {
		if !prop.Type.IsArray() {
			p.fatal(pos, diag.ErrNotAnArray, id)
		}
		p.parseIndex(id)
	} else if prop.Type.IsArray() {
		p.fatal(pos, diag.ErrExpectedScalar, id)
	}

	p.expect(token.RParen)
}

// output = "output" "(" (string | expr) { ".." (string | expr) } ")" .
func (p *Parser) parseOutput() {
	defer p.trace("output")()

	p.expect(token.Output)
	p.expect(token.LParen)
	p.parseOutputOperand()

	for p.cur.Kind == token.DotDot {
		p.next()
		p.parseOutputOperand()
	}

	p.expect(token.RParen)
}

func (p *Parser) parseOutputOperand() {
	pos := p.cur.Pos
	switch {
	case p.cur.Kind == token.String:
		p.parseString()
	case token.StartsExpr(p.cur.Kind):
		t := p.parseExpr()
		if t.IsArray() {
			p.fatal(pos, diag.ErrIllegalArrayOperation, "'output'")
		}
	default:
		p.fatal(p.cur.Pos, diag.ErrExpectedExpressionOrString)
	}
}

// return = "return" [ expr ] .
func (p *Parser) parseReturn() {
	defer p.trace("return")()

	pos := p.cur.Pos
	p.expect(token.Return)

	if token.StartsExpr(p.cur.Kind) {
		if p.returnType.IsProcedure() {
			p.fatal(pos, diag.ErrReturnExpressionNotAllowed)
		}
		exprPos := p.cur.Pos
		got := p.parseExpr()
		want := p.returnType.SetReturnType()
		p.chktypes(got.SetReturnType(), want, exprPos, "for 'return' statement")
		return
	}

	if p.returnType.IsFunction() {
		p.fatal(pos, diag.ErrMissingReturnExpression)
	} else if p.returnType.IsProcedure() {
		// a bare "return" ends a procedure; nothing further to check.
		return
	}
}

// while = "while" expr ":" statements "end" .
func (p *Parser) parseWhile() {
	defer p.trace("while")()

	p.expect(token.While)
	pos := p.cur.Pos
	cond := p.parseExpr()
	p.chktypes(cond, valtype.Bool(), pos, "for 'while' guard")
	p.expect(token.Colon)
	p.parseStatements()
	p.expect(token.End)
}

// arglist = "(" [ expr { "," expr } ] ")" .
func (p *Parser) parseArglist(id string, idPos token.Position, prop *symtab.IDPropt) {
	defer p.trace("arglist")()

	p.expect(token.LParen)

	if token.StartsExpr(p.cur.Kind) {
		i := 0
		pos := p.cur.Pos
		arg := p.parseExpr()
		p.checkArgument(id, arg, prop, i, pos)
		i++

		for p.cur.Kind == token.Comma {
			if uint(i) >= prop.NParams {
				p.fatal(idPos, diag.ErrTooManyArguments, id)
			}
			p.next()
			pos = p.cur.Pos
			arg = p.parseExpr()
			p.checkArgument(id, arg, prop, i, pos)
			i++
		}

		if uint(i) < prop.NParams {
			p.fatal(idPos, diag.ErrTooFewArguments, id)
		}
	} else if prop.NParams > 0 {
		p.fatal(idPos, diag.ErrTooFewArguments, id)
	}

	p.expect(token.RParen)
}

func (p *Parser) checkArgument(id string, arg valtype.Type, prop *symtab.IDPropt, i int, pos token.Position) {
	if i >= len(prop.Params) {
		return
	}
	param := prop.Params[i]
	ok := (arg.IsArray() && param.IsArray() && arg.Base() == param.Base()) ||
		(!arg.IsArray() && !param.IsArray() &&
			((arg.IsInteger() && param.IsInteger()) ||
				(arg.IsBoolean() && param.IsBoolean()) ||
				(arg.IsCallable() && param.IsCallable())))
	if !ok {
		p.chktypes(arg, param, pos, "for argument %d of call to '%s'", i+1, id)
	}
}

// index = "[" simple "]" .
func (p *Parser) parseIndex(id string) valtype.Type {
	defer p.trace("index")()

	p.expect(token.LBrack)
	pos := p.cur.Pos
	t := p.parseSimple()
	p.chktypes(t, valtype.Int(), pos, "for array index of '%s'", id)
	p.expect(token.RBrack)
	return t
}

// expr = simple [ relop simple ] .
func (p *Parser) parseExpr() valtype.Type {
	defer p.trace("expr")()

	t1 := p.parseSimple()
	if !token.IsRelOp(p.cur.Kind) {
		return t1
	}

	opKind := p.cur.Kind
	if t1.IsArray() {
		p.fatal(p.cur.Pos, diag.ErrIllegalArrayOperation, opKind.String())
	}
	pos := p.cur.Pos
	p.parseRelop()
	t2 := p.parseSimple()

	if t2.IsArray() {
		p.fatal(pos, diag.ErrIllegalArrayOperation, opKind.String())
	}

	if opKind == token.Eq || opKind == token.NotEq {
		p.chktypes(t1, t2, pos, "for operator %s", opKind.String())
	} else {
		p.chktypes(t1, valtype.Int(), pos, "for operator %s", opKind.String())
		p.chktypes(t2, valtype.Int(), pos, "for operator %s", opKind.String())
	}
	return valtype.Bool()
}

// relop = "=" | ">=" | ">" | "<=" | "<" | "/=" .
func (p *Parser) parseRelop() {
	p.next()
}

// simple = [ "-" ] term { addop term } .
func (p *Parser) parseSimple() valtype.Type {
	defer p.trace("simple")()

	if p.cur.Kind == token.Minus {
		minusPos := p.cur.Pos
		p.next()
		t := p.parseTerm()
		if t.IsArray() {
			p.fatal(minusPos, diag.ErrIllegalArrayOperation, "unary minus")
		}
		checkPos := minusPos
		checkPos.Col++
		p.chktypes(t, valtype.Int(), checkPos, "for unary minus")
		return t
	}

	t0 := p.parseTerm()
	if token.IsAddOp(p.cur.Kind) && t0.IsArray() {
		p.fatal(p.cur.Pos, diag.ErrIllegalArrayOperation, p.cur.Kind.String())
	}

	for token.IsAddOp(p.cur.Kind) {
		opKind := p.cur.Kind
		pos := p.cur.Pos
		p.next()
		t1 := p.parseTerm()
		if t1.IsArray() {
			p.fatal(pos, diag.ErrIllegalArrayOperation, opKind.String())
		}
		if opKind == token.Or {
			p.chktypes(t0, valtype.Bool(), pos, "for operator %s", opKind.String())
			p.chktypes(t1, valtype.Bool(), pos, "for operator %s", opKind.String())
		} else {
			if !t0.IsInteger() {
				p.chktypes(t0, valtype.Int(), pos, "for operator %s", opKind.String())
			}
			if !t1.IsInteger() {
				p.chktypes(t1, valtype.Int(), pos, "for operator %s", opKind.String())
			}
		}
	}
	return t0
}

// term = factor { mulop factor } .
func (p *Parser) parseTerm() valtype.Type {
	defer p.trace("term")()

	t0 := p.parseFactor()
	if token.IsMulOp(p.cur.Kind) && t0.IsArray() {
		p.fatal(p.cur.Pos, diag.ErrIllegalArrayOperation, p.cur.Kind.String())
	}

	for token.IsMulOp(p.cur.Kind) {
		opKind := p.cur.Kind
		pos := p.cur.Pos
		p.parseMulop()
		t1 := p.parseFactor()

		if t1.IsArray() {
			p.fatal(pos, diag.ErrIllegalArrayOperation, opKind.String())
		}
		if opKind == token.And {
			p.chktypes(t0, valtype.Bool(), pos, "for operator %s", opKind.String())
			p.chktypes(t1, valtype.Bool(), pos, "for operator %s", opKind.String())
		} else {
			p.chktypes(t0, valtype.Int(), pos, "for operator %s", opKind.String())
			p.chktypes(t1, valtype.Int(), pos, "for operator %s", opKind.String())
		}
	}
	return t0
}

// mulop = "and" | "/" | "*" | "rem" .
func (p *Parser) parseMulop() {
	p.next()
}

// factor = id [ index | arglist ] | num | "(" expr ")" | "not" factor | "true" | "false" .
func (p *Parser) parseFactor() valtype.Type {
	defer p.trace("factor")()

	switch p.cur.Kind {
	case token.Ident:
		id, pos := p.expectID()
		prop, ok := p.table.Find(id)
		if !ok {
			p.fatal(pos, diag.ErrUnknownIdentifier, id)
		}

		switch {
		case p.cur.Kind == token.LBrack:
			if !prop.Type.IsArray() {
				p.fatal(pos, diag.ErrNotAnArray, id)
			}
			t := prop.Type.Elem()
			p.parseIndex(id)
			return t
		case p.cur.Kind == token.LParen:
			if !prop.Type.IsFunction() {
				p.fatal(pos, diag.ErrNotAFunction, id)
			}
			t := prop.Type.SetReturnType()
			p.parseArglist(id, pos, prop)
			return t
		default:
			return prop.Type
		}
	case token.Int:
		p.next()
		return valtype.Int()
	case token.LParen:
		p.expect(token.LParen)
		t := p.parseExpr()
		p.expect(token.RParen)
		return t
	case token.Not:
		notPos := p.cur.Pos
		p.expect(token.Not)
		pos := p.cur.Pos
		t := p.parseFactor()
		if t.IsArray() {
			p.fatal(notPos, diag.ErrIllegalArrayOperation, "'not'")
		}
		p.chktypes(t, valtype.Bool(), pos, "for 'not'")
		return valtype.Bool()
	case token.True:
		p.expect(token.True)
		return valtype.Bool()
	case token.False:
		p.expect(token.False)
		return valtype.Bool()
	default:
		p.fatal(p.cur.Pos, diag.ErrExpectedFactor)
		panic("unreachable")
	}
}

// string = '"' { printable ASCII } '"' .
func (p *Parser) parseString() {
	p.next()
}

