// Package mir is the register-based mid-level IR the encoder produces and
// inference resolves: a control-flow graph of basic blocks operating on a
// flat register file, one per function-like unit ("stack frame").
package mir

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/malphas-lang/malphas-lang/internal/types"
)

// Reg is an index into a StackFrame's register file.
type Reg int

// BlockID is an index into a StackFrame's block list.
type BlockID int

// BinOpType names the two-operand arithmetic and comparison instructions.
type BinOpType int

const (
	BinAdd BinOpType = iota
	BinSub
	BinMul
	BinDiv
	BinEq
	BinNeq
	BinGe
	BinLe
	BinGt
	BinLt
)

// Load is an immediate value small enough to bake directly into a Load
// instruction, without going through a register-to-register copy.
type Load interface {
	loadNode()
}

// LoadBool is a boolean immediate.
type LoadBool bool

func (LoadBool) loadNode() {}

// LoadInt is an integer immediate (spec's "U8/U16 immediate" — the encoder
// rejects integer literals wider than 16 bits with a diagnostic).
type LoadInt uint16

func (LoadInt) loadNode() {}

// Mir is one instruction in a basic block.
type Mir interface {
	mirNode()
}

// Jump unconditionally transfers control to Target.
type Jump struct {
	Target BlockID
}

func (Jump) mirNode() {}

// BranchTrue transfers control to Target when the value in Cond is
// non-zero, falling through to the next instruction otherwise.
type BranchTrue struct {
	Cond   Reg
	Target BlockID
}

func (BranchTrue) mirNode() {}

// LoadOp materializes an immediate value into To.
type LoadOp struct {
	To    Reg
	Value Load
}

func (LoadOp) mirNode() {}

// LoadReg copies the value in From into To.
type LoadReg struct {
	To   Reg
	From Reg
}

func (LoadReg) mirNode() {}

// PrintOp prints the value held in From.
type PrintOp struct {
	From Reg
}

func (PrintOp) mirNode() {}

// BinOp applies Kind to Left and Right, storing the result in Out.
type BinOp struct {
	Kind        BinOpType
	Out         Reg
	Left, Right Reg
}

func (BinOp) mirNode() {}

// PreOp applies a prefix unary operator. Reserved: the encoder never emits
// this for the current source surface (no unary operators in spec §6).
type PreOp struct {
	Kind BinOpType
	Out  Reg
	From Reg
}

func (PreOp) mirNode() {}

// CreateFunc, LoadFunction, PushArg, PopArg and CallFunction model calling a
// nested function value. Reserved: function literals are parsed (hir.FuncExpr)
// but not lowered — spec §1 Non-goals excludes closures with captures, and
// the encoder reports an "unsupported" diagnostic rather than emitting these
// forms. internal/infer still
// implements their constraint rules so the algorithm matches spec §4.2 in
// full, exercised directly by hand-built frames in its tests.
type CreateFunc struct {
	Binding    Reg
	Ret        Reg
	InnerFrame *StackFrame
}

func (CreateFunc) mirNode() {}

type LoadFunction struct {
	Func Reg
	Ret  Reg
}

func (LoadFunction) mirNode() {}

type PushArg struct {
	From Reg
}

func (PushArg) mirNode() {}

type PopArg struct {
	To Reg
}

func (PopArg) mirNode() {}

type CallFunction struct {
	Func Reg
	Out  Reg
}

func (CallFunction) mirNode() {}

// BlockMeta tracks a block's neighbors in the CFG, kept symmetric: every
// edge recorded as u's child is also recorded as v's parent (spec §8
// invariant).
type BlockMeta struct {
	Parents  map[BlockID]struct{}
	Children map[BlockID]struct{}
}

func newBlockMeta() BlockMeta {
	return BlockMeta{Parents: map[BlockID]struct{}{}, Children: map[BlockID]struct{}{}}
}

// Block is a straight-line sequence of instructions ending, if reachable,
// in a Jump or BranchTrue.
type Block struct {
	ID    BlockID
	Code  []Mir
	Meta  BlockMeta
}

// FrameMeta carries bookkeeping that doesn't participate in code generation
// directly but is needed by inference and by the testable-property checks.
type FrameMeta struct {
	MaxRegCount int
}

// StackFrame is one function-like lowering unit: a flat register file plus
// a basic-block CFG, and — after inference — a resolved type per register.
type StackFrame struct {
	Blocks    []*Block
	RegTypes  []types.Type // not written by any pass; internal/infer.Resolve returns the types separately
	Meta      FrameMeta
	EntryReg  []Reg // registers bound to parameters, in declaration order
}

// NewStackFrame creates an empty frame with no blocks.
func NewStackFrame() *StackFrame {
	return &StackFrame{}
}

// NewBlock appends a fresh, empty block and returns its id.
func (f *StackFrame) NewBlock() BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, &Block{ID: id, Meta: newBlockMeta()})
	return id
}

// Block returns the block with the given id.
func (f *StackFrame) Block(id BlockID) *Block {
	return f.Blocks[id]
}

// AddEdge records a CFG edge symmetrically in both endpoints' metadata.
func (f *StackFrame) AddEdge(from, to BlockID) {
	f.Block(from).Meta.Children[to] = struct{}{}
	f.Block(to).Meta.Parents[from] = struct{}{}
}

// SortedParents and SortedChildren give deterministic iteration order over
// a block's neighbor sets, used by Print and anything else that must not
// depend on Go's randomized map order (spec §8's CFG invariants are about
// set membership, not iteration order, but diagnostics and snapshots need
// a stable rendering).
func (m BlockMeta) SortedParents() []BlockID {
	ks := maps.Keys(m.Parents)
	slices.Sort(ks)
	return ks
}

func (m BlockMeta) SortedChildren() []BlockID {
	ks := maps.Keys(m.Children)
	slices.Sort(ks)
	return ks
}

// NewReg allocates a fresh register index by bumping Meta.MaxRegCount.
func (f *StackFrame) NewReg() Reg {
	r := Reg(f.Meta.MaxRegCount)
	f.Meta.MaxRegCount++
	return r
}

// Emit appends an instruction to the named block.
func (f *StackFrame) Emit(id BlockID, instr Mir) {
	b := f.Block(id)
	b.Code = append(b.Code, instr)
}
