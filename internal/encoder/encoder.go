// Package encoder lowers HIR statement trees into the register-based MIR
// control-flow graph the inference and codegen passes consume. It is
// grounded directly on the original project's encode pass: a scope stack
// addressed by index (never by pointer, so a child scope can outlive a
// popped parent reference), a loop-frame stack for break targets, and a
// "short-circuit" if/else-if/else lowering where only the conditions up to
// the first true branch are ever evaluated.
package encoder

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/malphas-lang/malphas-lang/internal/diag"
	"github.com/malphas-lang/malphas-lang/internal/hir"
	"github.com/malphas-lang/malphas-lang/internal/mir"
)

// scope is one frame of the lexical scope tree, referenced by index so it
// can be pushed and popped without invalidating references held elsewhere.
type scope struct {
	parent int // -1 for the root scope
	locals map[hir.Ident]mir.Reg
}

// loopFrame records the blocks a break/continue inside the current loop
// should target. continueTarget re-enters the loop's condition/body entry;
// breakTarget is the block immediately after the loop.
type loopFrame struct {
	continueTarget mir.BlockID
	breakTarget    mir.BlockID
}

// Encoder holds all state threaded through one HIR-to-MIR lowering pass.
// One Encoder lowers exactly one top-level program into one StackFrame;
// nested function literals would get their own Encoder if they were
// implemented (spec §1 Non-goals: closures with captures are excluded).
type Encoder struct {
	frame *mir.StackFrame

	scopes       []scope
	currentScope int
	currentBlock mir.BlockID

	loopStack []loopFrame

	diags []diag.Diagnostic
}

// New creates an encoder with an empty frame and a single entry block.
func New() *Encoder {
	e := &Encoder{frame: mir.NewStackFrame(), currentScope: -1}
	e.currentBlock = e.frame.NewBlock()
	e.openScope()
	return e
}

// EncodeProgram lowers a flat list of top-level statements and returns the
// resulting frame together with any diagnostics raised along the way.
func EncodeProgram(stmts []hir.Stmt) (*mir.StackFrame, []diag.Diagnostic) {
	e := New()
	e.encodeBody(stmts)
	e.closeScope()
	return e.frame, e.diags
}

func (e *Encoder) error(code diag.Code, span hir.Node, message string) {
	e.diags = append(e.diags, diag.Diagnostic{
		Stage:    diag.StageEncoder,
		Severity: diag.SeverityError,
		Code:     code,
		Message:  message,
		Span: diag.Span{
			Filename: span.Span().Filename,
			Line:     span.Span().Line,
			Column:   span.Span().Column,
			Start:    span.Span().Start,
			End:      span.Span().End,
		},
	})
}

// --- primitive operations ---

func (e *Encoder) newBlock() mir.BlockID {
	return e.frame.NewBlock()
}

func (e *Encoder) openScope() int {
	e.scopes = append(e.scopes, scope{parent: e.currentScope, locals: map[hir.Ident]mir.Reg{}})
	e.currentScope = len(e.scopes) - 1
	return e.currentScope
}

func (e *Encoder) closeScope() {
	e.currentScope = e.scopes[e.currentScope].parent
}

func (e *Encoder) insert(name hir.Ident, reg mir.Reg) {
	e.scopes[e.currentScope].locals[name] = reg
}

func (e *Encoder) get(name hir.Ident) (mir.Reg, bool) {
	for idx := e.currentScope; idx != -1; idx = e.scopes[idx].parent {
		if reg, ok := e.scopes[idx].locals[name]; ok {
			return reg, true
		}
	}
	return 0, false
}

// visibleNames walks the scope chain from the current scope out to the
// root, collecting every bound identifier in scope at this point. Used to
// enrich an unresolved-identifier diagnostic with what was actually
// visible, sorted for a deterministic message.
func (e *Encoder) visibleNames() []hir.Ident {
	var names []hir.Ident
	for idx := e.currentScope; idx != -1; idx = e.scopes[idx].parent {
		names = append(names, maps.Keys(e.scopes[idx].locals)...)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func (e *Encoder) temp() mir.Reg {
	return e.frame.NewReg()
}

func (e *Encoder) emit(instr mir.Mir) {
	e.frame.Emit(e.currentBlock, instr)
}

// jump emits an unconditional Jump from the current block to target and
// records the CFG edge. It does not itself switch the current block.
func (e *Encoder) jump(target mir.BlockID) {
	e.emit(mir.Jump{Target: target})
	e.frame.AddEdge(e.currentBlock, target)
}

// branch emits a BranchTrue from the current block to target and records
// the CFG edge; like jump, it leaves the current block unchanged so the
// caller can keep emitting the fallthrough path into the same block.
func (e *Encoder) branch(cond mir.Reg, target mir.BlockID) {
	e.emit(mir.BranchTrue{Cond: cond, Target: target})
	e.frame.AddEdge(e.currentBlock, target)
}

// --- statements ---

func (e *Encoder) encodeBody(stmts []hir.Stmt) {
	for _, s := range stmts {
		e.encodeStmt(s)
	}
}

func (e *Encoder) encodeStmt(s hir.Stmt) {
	switch v := s.(type) {
	case *hir.LetStmt:
		e.encodeLetStmt(v)
	case *hir.MutStmt:
		e.encodeMutStmt(v)
	case *hir.PrintStmt:
		e.encodePrintStmt(v)
	case *hir.ScopeStmt:
		e.openScope()
		e.encodeBody(v.Body)
		e.closeScope()
	case *hir.LoopStmt:
		e.encodeLoopStmt(v)
	case *hir.IfStmt:
		e.encodeIfStmt(v)
	case *hir.ControlFlowStmt:
		e.encodeControlFlowStmt(v)
	default:
		panic("encoder: unhandled statement node")
	}
}

func (e *Encoder) bindingName(pat hir.Pattern, span hir.Node) (hir.Ident, bool) {
	ident, ok := pat.(*hir.IdentPattern)
	if !ok {
		e.error(diag.CodeEncoderInvalidPattern, span, "only a bare identifier is allowed in a binding position")
		return 0, false
	}
	return ident.Name, true
}

func (e *Encoder) encodeLetStmt(s *hir.LetStmt) {
	name, ok := e.bindingName(s.Pat, s)
	if !ok {
		return
	}
	reg := e.temp()
	e.encodeExprInto(s.Expr, reg)
	e.insert(name, reg)
}

func (e *Encoder) encodeMutStmt(s *hir.MutStmt) {
	name, ok := e.bindingName(s.Pat, s)
	if !ok {
		return
	}
	reg, ok := e.get(name)
	if !ok {
		e.error(diag.CodeEncoderUnresolvedIdent, s, "assignment to an unresolved identifier")
		return
	}
	e.encodeExprInto(s.Expr, reg)
}

func (e *Encoder) encodePrintStmt(s *hir.PrintStmt) {
	reg, ok := e.get(s.Ident)
	if !ok {
		e.error(diag.CodeEncoderUnresolvedIdent, s, "print of an unresolved identifier")
		return
	}
	e.emit(mir.PrintOp{From: reg})
}

// encodeLoopStmt lowers an unconditional loop: control jumps into a fresh
// body block, the body is encoded inline, and control jumps back to the
// body's own entry — the only way out is a `break` inside the body, which
// targets the block created after the loop.
func (e *Encoder) encodeLoopStmt(s *hir.LoopStmt) {
	bodyBlock := e.newBlock()
	exitBlock := e.newBlock()

	e.jump(bodyBlock)

	e.currentBlock = bodyBlock
	e.loopStack = append(e.loopStack, loopFrame{continueTarget: bodyBlock, breakTarget: exitBlock})

	e.openScope()
	e.encodeBody(s.Body)
	e.closeScope()

	e.jump(bodyBlock)

	e.loopStack = e.loopStack[:len(e.loopStack)-1]
	e.currentBlock = exitBlock
}

func (e *Encoder) encodeControlFlowStmt(s *hir.ControlFlowStmt) {
	if len(e.loopStack) == 0 {
		e.error(diag.CodeEncoderBreakOutsideLoop, s, "break or continue used outside of a loop")
		return
	}
	top := e.loopStack[len(e.loopStack)-1]

	switch s.Kind {
	case hir.Break:
		e.jump(top.breakTarget)
	case hir.Continue:
		// The opcode stays in the MIR enum (mir.Jump doubles for it), but
		// the encoder does not yet lower continue into a real back-edge.
		e.error(diag.CodeEncoderUnsupported, s, "continue is reserved but not yet implemented")
		_ = top.continueTarget
	}

	// Anything lexically following a break/continue in the same HIR block
	// is unreachable. Keep encoding it into a fresh, parentless block so
	// the frame stays well-formed (every instruction still lives in some
	// block) without recording a bogus edge into dead code. Edges out of
	// it are still recorded when later code jumps from it (for example a
	// loop's back-edge or an if's jump to its join block).
	e.currentBlock = e.newBlock()
}

// encodeIfStmt lowers an if / else-if* / else? chain using the
// per-clause-condition-block redesign: each clause's condition is
// evaluated in its own block, which branches to that clause's body on
// true and falls through to the next clause's condition block (or the
// final else, or the join block) on false. This means a clause's
// condition is never evaluated once an earlier clause has already
// matched — the "short-circuit" behavior preferred over eagerly
// evaluating every condition up front.
func (e *Encoder) encodeIfStmt(s *hir.IfStmt) {
	clauses := append([]hir.IfClause{s.Head}, s.ElseIf...)
	joinBlock := e.newBlock()

	for _, clause := range clauses {
		condReg := e.encodeExpr(clause.Cond)

		bodyBlock := e.newBlock()
		nextCondBlock := e.newBlock()

		e.branch(condReg, bodyBlock)
		e.jump(nextCondBlock)

		e.currentBlock = bodyBlock
		e.openScope()
		e.encodeBody(clause.Body)
		e.closeScope()
		e.jump(joinBlock)

		e.currentBlock = nextCondBlock
	}

	if s.HasElse {
		e.openScope()
		e.encodeBody(s.Else)
		e.closeScope()
	}
	e.jump(joinBlock)

	e.currentBlock = joinBlock
}

// --- expressions ---

// encodeExpr lowers expr into a fresh register and returns it.
func (e *Encoder) encodeExpr(expr hir.Expr) mir.Reg {
	dest := e.temp()
	e.encodeExprInto(expr, dest)
	return dest
}

// encodeExprInto lowers expr so its result lands directly in dest, avoiding
// an extra register-to-register copy when the destination is already known
// (e.g. a `mut` reassignment writing back into the variable's own register).
func (e *Encoder) encodeExprInto(expr hir.Expr, dest mir.Reg) {
	switch v := expr.(type) {
	case *hir.SimpleExpr:
		e.encodeSimpleInto(v, dest)
	case *hir.BinOpExpr:
		left := e.encodeExpr(v.Left)
		right := e.encodeExpr(v.Right)
		e.emit(mir.BinOp{Kind: binOpKind(v.Op), Out: dest, Left: left, Right: right})
	case *hir.ParenExpr:
		e.encodeExprInto(v.Inner, dest)
	case *hir.FuncExpr:
		e.error(diag.CodeEncoderUnsupported, v, "function literals are reserved but not yet implemented")
	case *hir.FuncAppExpr:
		e.error(diag.CodeEncoderUnsupported, v, "function application is reserved but not yet implemented")
	case *hir.PreOpExpr:
		e.error(diag.CodeEncoderUnsupported, v, "prefix operators are reserved but not yet implemented")
	case *hir.PostOpExpr:
		e.error(diag.CodeEncoderUnsupported, v, "postfix operators are reserved but not yet implemented")
	case *hir.TupleExpr:
		e.error(diag.CodeEncoderUnsupported, v, "tuples are reserved but not yet implemented")
	case *hir.ScopeExpr:
		e.error(diag.CodeEncoderUnsupported, v, "scope expressions are reserved but not yet implemented")
	default:
		panic("encoder: unhandled expression node")
	}
}

// unresolvedMessage builds a diagnostic message naming every identifier
// symbol currently in scope, so the formatter has something to show
// besides "not found" (spec's diagnostics carry no suggestion mechanism,
// so this is the full extent of the context offered).
func (e *Encoder) unresolvedMessage() string {
	visible := e.visibleNames()
	if len(visible) == 0 {
		return "reference to an unresolved identifier (no bindings in scope)"
	}
	parts := make([]string, len(visible))
	for i, sym := range visible {
		parts[i] = fmt.Sprintf("#%d", sym)
	}
	return "reference to an unresolved identifier (in scope: " + strings.Join(parts, ", ") + ")"
}

func (e *Encoder) encodeSimpleInto(v *hir.SimpleExpr, dest mir.Reg) {
	if v.Lit == nil {
		reg, ok := e.get(v.Ident)
		if !ok {
			e.error(diag.CodeEncoderUnresolvedIdent, v, e.unresolvedMessage())
			return
		}
		e.emit(mir.LoadReg{To: dest, From: reg})
		return
	}

	switch v.Lit.Kind {
	case hir.LitBool:
		e.emit(mir.LoadOp{To: dest, Value: mir.LoadBool(v.Lit.Bool)})
	case hir.LitInt:
		if v.Lit.Int > 0xFFFF {
			e.error(diag.CodeEncoderUnsupported, v, fmt.Sprintf("integer literal %d does not fit in 16 bits", v.Lit.Int))
			return
		}
		e.emit(mir.LoadOp{To: dest, Value: mir.LoadInt(v.Lit.Int)})
	case hir.LitFloat:
		e.error(diag.CodeEncoderUnsupported, v, "float literals are reserved but not yet implemented")
	case hir.LitStr:
		e.error(diag.CodeEncoderUnsupported, v, "string literals are reserved but not yet implemented")
	default:
		panic("encoder: unhandled literal kind")
	}
}

func binOpKind(op hir.Op) mir.BinOpType {
	switch op {
	case hir.OpAdd:
		return mir.BinAdd
	case hir.OpSub:
		return mir.BinSub
	case hir.OpMul:
		return mir.BinMul
	case hir.OpDiv:
		return mir.BinDiv
	case hir.OpEq:
		return mir.BinEq
	case hir.OpNeq:
		return mir.BinNeq
	case hir.OpGe:
		return mir.BinGe
	case hir.OpLe:
		return mir.BinLe
	case hir.OpGt:
		return mir.BinGt
	case hir.OpLt:
		return mir.BinLt
	default:
		panic("encoder: unhandled operator " + string(op))
	}
}
