package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malphas-lang/malphas-lang/internal/hir"
	"github.com/malphas-lang/malphas-lang/internal/interner"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
)

func parseProgram(t *testing.T, src string) ([]hir.Stmt, *Parser) {
	t.Helper()
	in := interner.New()
	p := New(lexer.New(src), in)
	stmts := p.ParseProgram()
	return stmts, p
}

func TestParseLetAndPrint(t *testing.T) {
	stmts, p := parseProgram(t, `let x = 1; print x;`)
	require.Empty(t, p.Errors())
	require.Len(t, stmts, 2)

	let, ok := stmts[0].(*hir.LetStmt)
	require.True(t, ok, "expected *hir.LetStmt, got %T", stmts[0])

	ident, ok := let.Pat.(*hir.IdentPattern)
	require.True(t, ok, "expected *hir.IdentPattern, got %T", let.Pat)
	require.Equal(t, hir.ModeValue, ident.Mode)

	lit, ok := let.Expr.(*hir.SimpleExpr)
	require.True(t, ok, "expected *hir.SimpleExpr, got %T", let.Expr)
	require.NotNil(t, lit.Lit)
	require.Equal(t, hir.LitInt, lit.Lit.Kind)
	require.EqualValues(t, 1, lit.Lit.Int)

	_, ok = stmts[1].(*hir.PrintStmt)
	require.True(t, ok, "expected *hir.PrintStmt, got %T", stmts[1])
}

func TestParseMutReassignment(t *testing.T) {
	stmts, p := parseProgram(t, `let mut x = 0; x = 1;`)
	require.Empty(t, p.Errors())
	require.Len(t, stmts, 2)

	mutStmt, ok := stmts[1].(*hir.MutStmt)
	require.True(t, ok, "expected *hir.MutStmt, got %T", stmts[1])

	ident, ok := mutStmt.Pat.(*hir.IdentPattern)
	require.True(t, ok, "expected *hir.IdentPattern, got %T", mutStmt.Pat)
	require.Equal(t, hir.ModeValue, ident.Mode)
}

func TestParseBinOpPrecedence(t *testing.T) {
	stmts, p := parseProgram(t, `let x = 1 + 2 * 3;`)
	require.Empty(t, p.Errors())

	let := stmts[0].(*hir.LetStmt)
	add, ok := let.Expr.(*hir.BinOpExpr)
	require.True(t, ok, "expected top-level add, got %+v", let.Expr)
	require.Equal(t, hir.OpAdd, add.Op)

	mul, ok := add.Right.(*hir.BinOpExpr)
	require.True(t, ok, "expected multiplication nested on the right, got %+v", add.Right)
	require.Equal(t, hir.OpMul, mul.Op)
}

func TestParseIfElseIfElse(t *testing.T) {
	src := `
if a >= b {
	print a;
} else if a == b {
	print b;
} else {
	print a;
}
`
	stmts, p := parseProgram(t, src)
	require.Empty(t, p.Errors())

	ifStmt, ok := stmts[0].(*hir.IfStmt)
	require.True(t, ok, "expected *hir.IfStmt, got %T", stmts[0])
	require.Len(t, ifStmt.ElseIf, 1)
	require.True(t, ifStmt.HasElse)
	require.Len(t, ifStmt.Else, 1)
}

func TestParseLoopAndBreak(t *testing.T) {
	stmts, p := parseProgram(t, `loop { break; }`)
	require.Empty(t, p.Errors())

	loop, ok := stmts[0].(*hir.LoopStmt)
	require.True(t, ok, "expected *hir.LoopStmt, got %T", stmts[0])
	require.Len(t, loop.Body, 1)

	brk, ok := loop.Body[0].(*hir.ControlFlowStmt)
	require.True(t, ok, "expected a break statement, got %+v", loop.Body[0])
	require.Equal(t, hir.Break, brk.Kind)
}

func TestParseRecordsErrorOnMalformedInput(t *testing.T) {
	_, p := parseProgram(t, `let = 1;`)
	require.NotEmpty(t, p.Errors())
}

func TestIdenticalIdentifiersInternToSameSymbol(t *testing.T) {
	stmts, _ := parseProgram(t, `let x = 1; let y = x;`)
	let1 := stmts[0].(*hir.LetStmt)
	let2 := stmts[1].(*hir.LetStmt)
	ref := let2.Expr.(*hir.SimpleExpr)
	bound := let1.Pat.(*hir.IdentPattern)
	require.Equal(t, bound.Name, ref.Ident)
}
