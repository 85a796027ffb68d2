package interp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malphas-lang/malphas-lang/internal/encoder"
	"github.com/malphas-lang/malphas-lang/internal/infer"
	"github.com/malphas-lang/malphas-lang/internal/interner"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
	"github.com/malphas-lang/malphas-lang/internal/parser"
)

func run(t *testing.T, src string) string {
	t.Helper()
	p := parser.New(lexer.New(src), interner.New())
	stmts := p.ParseProgram()
	require.Empty(t, p.Errors())

	frame, diags := encoder.EncodeProgram(stmts)
	require.Empty(t, diags)

	_, diags = infer.Resolve(frame)
	require.Empty(t, diags)

	var b strings.Builder
	require.NoError(t, Run(frame, &b))
	return strings.TrimRight(b.String(), "\n")
}

func TestScenarioSingleLetAndPrint(t *testing.T) {
	require.Equal(t, "1", run(t, `let x = 1; print x;`))
}

func TestScenarioTwoLetsAndPrints(t *testing.T) {
	require.Equal(t, "2\n3", run(t, `let x = 2; let y = 3; print x; print y;`))
}

func TestScenarioArithmeticPrecedence(t *testing.T) {
	require.Equal(t, "7", run(t, `let x = 1; let y = 2; let z = x + y * 3; print z;`))
}

func TestScenarioIfElseTakesTrueBranch(t *testing.T) {
	src := `let x = 5; if x > 3 { print x; } else { let y = 0; print y; }`
	require.Equal(t, "5", run(t, src))
}

func TestScenarioLoopWithBreak(t *testing.T) {
	src := `let i = 0; loop { if i >= 3 { break; } print i; i = i + 1; }`
	require.Equal(t, "0\n1\n2", run(t, src))
}

func TestScenarioElseIfChainSecondClauseMatches(t *testing.T) {
	src := `let a = 1; let b = 2; if a == b { print a; } else if a < b { print b; } else { print a; }`
	require.Equal(t, "2", run(t, src))
}
