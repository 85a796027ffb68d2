package c

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malphas-lang/malphas-lang/internal/encoder"
	"github.com/malphas-lang/malphas-lang/internal/infer"
	"github.com/malphas-lang/malphas-lang/internal/interner"
	"github.com/malphas-lang/malphas-lang/internal/lexer"
	"github.com/malphas-lang/malphas-lang/internal/parser"
	"github.com/malphas-lang/malphas-lang/internal/types"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	p := parser.New(lexer.New(src), interner.New())
	stmts := p.ParseProgram()
	require.Empty(t, p.Errors())

	frame, diags := encoder.EncodeProgram(stmts)
	require.Empty(t, diags)

	regTypes, diags := infer.Resolve(frame)
	require.Empty(t, diags)

	var b strings.Builder
	require.NoError(t, Emit(&b, frame, regTypes))
	return b.String()
}

func TestEmitPrintsHeaderAndLocalsFrame(t *testing.T) {
	out := compile(t, `let x = 1; print x;`)
	require.Contains(t, out, "#include <stdint.h>")
	require.Contains(t, out, "char locals[")
	require.Contains(t, out, `printf("%d\n"`)
}

func TestEmitBoolPrintfSpecifier(t *testing.T) {
	out := compile(t, `let a = 1; let b = 2; let c = a == b; print c;`)
	require.Contains(t, out, `printf("%b\n"`)
}

func TestEmitBranchAndGoto(t *testing.T) {
	out := compile(t, `
let a = 1;
if a == 1 {
	print a;
}
`)
	require.Contains(t, out, "if (")
	require.Contains(t, out, "!= 0) goto _label_")
	require.Contains(t, out, "goto _label_")
}

func TestBuildLayoutPacksByAlignmentThenSize(t *testing.T) {
	layout := BuildLayout([]types.Type{types.Bool, types.I32, types.Bool})
	require.Equal(t, 4, layout.Align)
	require.Equal(t, 6, layout.Size, "expected frame size 6 (4-byte i32 + two 1-byte bools)")
	// The i32 register, having the larger alignment, must be assigned
	// offset 0 regardless of its position in the input slice.
	require.Equal(t, 0, layout.Offsets[1])
}
