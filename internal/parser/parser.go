// Package parser implements a recursive-descent producer of HIR nodes with
// span information, per spec §1 (a collaborator specified only at
// interface: it turns a token stream into the HIR trees the MIR encoder
// consumes).
package parser

import (
	"fmt"

	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/hir"
	"github.com/malphas-lang/malphas-lang/internal/interner"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

// Precedence ladder: comparison < sum < product < application < primary.
const (
	precedenceLowest = iota
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedenceApplication
)

var precedences = map[lexer.TokenType]int{
	lexer.EQ:       precedenceComparison,
	lexer.NOT_EQ:   precedenceComparison,
	lexer.LT:       precedenceComparison,
	lexer.LE:       precedenceComparison,
	lexer.GT:       precedenceComparison,
	lexer.GE:       precedenceComparison,
	lexer.PLUS:     precedenceSum,
	lexer.MINUS:    precedenceSum,
	lexer.ASTERISK: precedenceProduct,
	lexer.SLASH:    precedenceProduct,
	lexer.LPAREN:   precedenceApplication,
}

var binOps = map[lexer.TokenType]hir.Op{
	lexer.PLUS:     hir.OpAdd,
	lexer.MINUS:    hir.OpSub,
	lexer.ASTERISK: hir.OpMul,
	lexer.SLASH:    hir.OpDiv,
	lexer.EQ:       hir.OpEq,
	lexer.NOT_EQ:   hir.OpNeq,
	lexer.GE:       hir.OpGe,
	lexer.LE:       hir.OpLe,
	lexer.GT:       hir.OpGt,
	lexer.LT:       hir.OpLt,
}

// ParseError is a recoverable diagnostic produced while parsing.
type ParseError struct {
	Message string
	Span    lexer.Span
}

// Parser turns a token stream into a slice of top-level HIR statements.
type Parser struct {
	lx      *lexer.Lexer
	interns *interner.Interner

	curTok  lexer.Token
	peekTok lexer.Token

	errors []ParseError
}

// New creates a parser reading from lx, interning identifiers via interns.
func New(lx *lexer.Lexer, interns *interner.Interner) *Parser {
	p := &Parser{lx: lx, interns: interns}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the recoverable diagnostics accumulated during parsing.
func (p *Parser) Errors() []ParseError { return p.errors }

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lx.NextToken()
}

func (p *Parser) errorf(span lexer.Span, format string, args ...any) {
	p.errors = append(p.errors, ParseError{Message: fmt.Sprintf(format, args...), Span: span})
}

func (p *Parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	if p.curTok.Type != t {
		p.errorf(p.curTok.Span, "expected %s, got %s %q", t, p.curTok.Type, p.curTok.Raw)
		return p.curTok, false
	}
	tok := p.curTok
	p.nextToken()
	return tok, true
}

func mergeSpan(a, b lexer.Span) lexer.Span {
	return lexer.Span{Filename: a.Filename, Line: a.Line, Column: a.Column, Start: a.Start, End: b.End}
}

// ParseProgram parses a whole source file as a flat list of top-level
// statements (the implicit outermost scope).
func (p *Parser) ParseProgram() []hir.Stmt {
	var stmts []hir.Stmt
	for p.curTok.Type != lexer.EOF {
		stmt := p.parseStmt()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else {
			p.nextToken() // skip the offending token to keep making progress
		}
	}
	return stmts
}

func (p *Parser) parseBlock() []hir.Stmt {
	if _, ok := p.expect(lexer.LBRACE); !ok {
		return nil
	}
	var stmts []hir.Stmt
	for p.curTok.Type != lexer.RBRACE && p.curTok.Type != lexer.EOF {
		stmt := p.parseStmt()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else {
			p.nextToken()
		}
	}
	p.expect(lexer.RBRACE)
	return stmts
}

func (p *Parser) parseStmt() hir.Stmt {
	switch p.curTok.Type {
	case lexer.LET:
		return p.parseLetStmt()
	case lexer.PRINT:
		return p.parsePrintStmt()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.LOOP:
		return p.parseLoopStmt()
	case lexer.BREAK:
		return p.parseControlFlowStmt(hir.Break)
	case lexer.CONTINUE:
		return p.parseControlFlowStmt(hir.Continue)
	case lexer.LBRACE:
		start := p.curTok.Span
		body := p.parseBlock()
		return hir.NewScopeStmt(body, mergeSpan(start, p.curTok.Span))
	case lexer.IDENT:
		return p.parseMutStmt()
	default:
		p.errorf(p.curTok.Span, "unexpected token %s %q at statement position", p.curTok.Type, p.curTok.Raw)
		return nil
	}
}

func (p *Parser) parseLetStmt() hir.Stmt {
	start := p.curTok.Span
	p.nextToken() // consume 'let'

	pat := p.parsePattern()

	if _, ok := p.expect(lexer.ASSIGN); !ok {
		return nil
	}
	expr := p.parseExpr(precedenceLowest)
	end := p.curTok.Span
	if p.curTok.Type == lexer.SEMICOLON {
		p.nextToken()
	}
	return hir.NewLetStmt(pat, expr, mergeSpan(start, end))
}

func (p *Parser) parseMutStmt() hir.Stmt {
	start := p.curTok.Span
	ident := p.parseIdentPattern()

	if _, ok := p.expect(lexer.ASSIGN); !ok {
		return nil
	}
	expr := p.parseExpr(precedenceLowest)
	end := p.curTok.Span
	if p.curTok.Type == lexer.SEMICOLON {
		p.nextToken()
	}
	return hir.NewMutStmt(ident, expr, mergeSpan(start, end))
}

func (p *Parser) parsePattern() hir.Pattern {
	switch p.curTok.Type {
	case lexer.MUT:
		p.nextToken()
		return p.parseIdentPatternMode(hir.ModeReference)
	case lexer.IDENT:
		return p.parseIdentPattern()
	case lexer.LPAREN:
		start := p.curTok.Span
		p.nextToken()
		var elems []hir.Pattern
		for p.curTok.Type != lexer.RPAREN && p.curTok.Type != lexer.EOF {
			elems = append(elems, p.parsePattern())
			if p.curTok.Type == lexer.COMMA {
				p.nextToken()
			}
		}
		end := p.curTok.Span
		p.expect(lexer.RPAREN)
		return hir.NewTuplePattern(elems, mergeSpan(start, end))
	default:
		lit, span := p.parseLiteralValue()
		return hir.NewLiteralPattern(lit, span)
	}
}

func (p *Parser) parseIdentPattern() hir.Pattern {
	return p.parseIdentPatternMode(hir.ModeValue)
}

func (p *Parser) parseIdentPatternMode(mode hir.BindingMode) hir.Pattern {
	tok, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	return hir.NewIdentPattern(p.interns.Intern(tok.Raw), mode, tok.Span)
}

func (p *Parser) parsePrintStmt() hir.Stmt {
	start := p.curTok.Span
	p.nextToken() // consume 'print'
	tok, ok := p.expect(lexer.IDENT)
	if !ok {
		return nil
	}
	end := p.curTok.Span
	if p.curTok.Type == lexer.SEMICOLON {
		p.nextToken()
	}
	return hir.NewPrintStmt(p.interns.Intern(tok.Raw), mergeSpan(start, end))
}

func (p *Parser) parseLoopStmt() hir.Stmt {
	start := p.curTok.Span
	p.nextToken() // consume 'loop'
	body := p.parseBlock()
	return hir.NewLoopStmt(body, mergeSpan(start, p.curTok.Span))
}

func (p *Parser) parseControlFlowStmt(kind hir.ControlFlowKind) hir.Stmt {
	start := p.curTok.Span
	p.nextToken()
	end := start
	if p.curTok.Type == lexer.SEMICOLON {
		end = p.curTok.Span
		p.nextToken()
	}
	return hir.NewControlFlowStmt(kind, nil, nil, mergeSpan(start, end))
}

func (p *Parser) parseIfStmt() hir.Stmt {
	start := p.curTok.Span
	head := p.parseIfClause()

	var elseIf []hir.IfClause
	var elseBody []hir.Stmt
	hasElse := false

	for p.curTok.Type == lexer.ELSE {
		p.nextToken() // consume 'else'
		if p.curTok.Type == lexer.IF {
			elseIf = append(elseIf, p.parseIfClause())
			continue
		}
		elseBody = p.parseBlock()
		hasElse = true
		break
	}

	return hir.NewIfStmt(head, elseIf, elseBody, hasElse, mergeSpan(start, p.curTok.Span))
}

func (p *Parser) parseIfClause() hir.IfClause {
	p.nextToken() // consume 'if'
	cond := p.parseExpr(precedenceLowest)
	body := p.parseBlock()
	return hir.IfClause{Cond: cond, Body: body}
}

func (p *Parser) parseExpr(prec int) hir.Expr {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for p.curTok.Type != lexer.SEMICOLON && prec < p.peekPrecedence(p.curTok.Type) {
		op, ok := binOps[p.curTok.Type]
		if !ok {
			break
		}
		opSpan := p.curTok.Span
		opPrec := precedences[p.curTok.Type]
		p.nextToken()
		right := p.parseExpr(opPrec)
		left = hir.NewBinOpExpr(op, left, right, mergeSpan(opSpan, right.Span()))
	}

	return left
}

// peekPrecedence reports the binding power of tok considered as an infix
// operator continuing the expression already parsed.
func (p *Parser) peekPrecedence(tok lexer.TokenType) int {
	if prec, ok := precedences[tok]; ok {
		return prec
	}
	return precedenceLowest
}

func (p *Parser) parsePrefix() hir.Expr {
	switch p.curTok.Type {
	case lexer.INT, lexer.FLOAT, lexer.TRUE, lexer.FALSE, lexer.STRING:
		lit, span := p.parseLiteralValue()
		return p.parsePostfix(hir.NewSimpleLiteral(lit, span))
	case lexer.IDENT:
		tok := p.curTok
		p.nextToken()
		return p.parsePostfix(hir.NewSimpleIdent(p.interns.Intern(tok.Raw), tok.Span))
	case lexer.LPAREN:
		start := p.curTok.Span
		p.nextToken()
		inner := p.parseExpr(precedenceLowest)
		end := p.curTok.Span
		p.expect(lexer.RPAREN)
		return p.parsePostfix(hir.NewParenExpr(inner, mergeSpan(start, end)))
	default:
		p.errorf(p.curTok.Span, "unexpected token %s %q in expression", p.curTok.Type, p.curTok.Raw)
		return nil
	}
}

// parsePostfix recognizes call syntax `callee(args, ...)`. Function
// application is reserved: the encoder emits an "unimplemented" diagnostic
// for it (spec §9 Open Questions).
func (p *Parser) parsePostfix(callee hir.Expr) hir.Expr {
	for p.curTok.Type == lexer.LPAREN {
		start := p.curTok.Span
		p.nextToken()
		var args []hir.Expr
		for p.curTok.Type != lexer.RPAREN && p.curTok.Type != lexer.EOF {
			args = append(args, p.parseExpr(precedenceLowest))
			if p.curTok.Type == lexer.COMMA {
				p.nextToken()
			}
		}
		end := p.curTok.Span
		p.expect(lexer.RPAREN)
		callee = hir.NewFuncAppExpr(callee, args, mergeSpan(start, end))
		_ = end
	}
	return callee
}

func (p *Parser) parseLiteralValue() (hir.Literal, lexer.Span) {
	tok := p.curTok
	defer p.nextToken()

	switch tok.Type {
	case lexer.TRUE:
		return hir.Literal{Kind: hir.LitBool, Bool: true}, tok.Span
	case lexer.FALSE:
		return hir.Literal{Kind: hir.LitBool, Bool: false}, tok.Span
	case lexer.FLOAT:
		var f float64
		fmt.Sscanf(tok.Raw, "%g", &f)
		return hir.Literal{Kind: hir.LitFloat, Float: f}, tok.Span
	case lexer.STRING:
		return hir.Literal{Kind: hir.LitStr, Str: tok.Value}, tok.Span
	case lexer.INT:
		var n uint64
		fmt.Sscanf(tok.Raw, "%d", &n)
		return hir.Literal{Kind: hir.LitInt, Int: n}, tok.Span
	default:
		p.errorf(tok.Span, "expected a literal, got %s %q", tok.Type, tok.Raw)
		return hir.Literal{}, tok.Span
	}
}

// ToDiagnostic converts a parse error into a shared diagnostic.
func (e ParseError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: diag.SeverityError,
		Code:     diag.CodeParserUnexpectedToken,
		Message:  e.Message,
		Span: diag.Span{
			Filename: e.Span.Filename,
			Line:     e.Span.Line,
			Column:   e.Span.Column,
			Start:    e.Span.Start,
			End:      e.Span.End,
		},
	}
}
