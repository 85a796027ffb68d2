package diag

// Stage identifies which compiler phase produced the diagnostic.
type Stage string

const (
	StageLexer   Stage = "lexer"
	StageParser  Stage = "parser"
	StageEncoder Stage = "encoder"
	StageInfer   Stage = "infer"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Code is a stable identifier for a diagnostic.
type Code string

const (
	CodeLexerUnterminatedString       Code = "LEXER_UNTERMINATED_STRING"
	CodeLexerUnterminatedBlockComment Code = "LEXER_UNTERMINATED_BLOCK_COMMENT"
	CodeLexerIllegalRune              Code = "LEXER_ILLEGAL_RUNE"

	CodeParserUnexpectedToken Code = "PARSER_UNEXPECTED_TOKEN"

	CodeEncoderUnresolvedIdent  Code = "ENCODER_UNRESOLVED_IDENT"
	CodeEncoderInvalidPattern   Code = "ENCODER_INVALID_PATTERN"
	CodeEncoderBreakOutsideLoop Code = "ENCODER_BREAK_OUTSIDE_LOOP"
	CodeInferTypeConflict       Code = "INFER_TYPE_CONFLICT"
	CodeInferUnresolvedVar      Code = "INFER_UNRESOLVED_VAR"

	// CodeEncoderUnsupported covers source forms the grammar accepts but
	// the encoder does not yet lower: function values, prefix/postfix
	// operators, tuples, and continue (spec §9 Design Notes).
	CodeEncoderUnsupported Code = "ENCODER_UNSUPPORTED"
)

// Span represents a location in source code.
type Span struct {
	Filename string
	Line     int
	Column   int
	Start    int
	End      int
}

// Diagnostic is a compiler diagnostic surfaced to end-users.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Code     Code
	Message  string
	Span     Span
}
