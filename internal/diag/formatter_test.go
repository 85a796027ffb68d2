package diag_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/malphas-lang/malphas-lang/internal/diag"
)

func TestFormatterLinePrefixes(t *testing.T) {
	f := diag.NewFormatter()

	encoderDiag := diag.Diagnostic{
		Stage:    diag.StageEncoder,
		Severity: diag.SeverityError,
		Code:     diag.CodeEncoderUnresolvedIdent,
		Message:  "unresolved identifier `x`",
		Span:     diag.Span{Filename: "main.ma", Line: 3, Column: 5},
	}
	require.Equal(t, "ERROR: unresolved identifier `x` (main.ma:3:5)", f.Line(encoderDiag))

	inferDiag := diag.Diagnostic{
		Stage:    diag.StageInfer,
		Severity: diag.SeverityError,
		Code:     diag.CodeInferTypeConflict,
		Message:  "expected i32, found bool",
	}
	require.Equal(t, "TypeError(INFER_TYPE_CONFLICT): expected i32, found bool", f.Line(inferDiag))

	note := diag.Diagnostic{
		Severity: diag.SeverityNote,
		Message:  "resolved 3 registers",
	}
	require.Equal(t, "DEBUG: resolved 3 registers", f.Line(note))
}
