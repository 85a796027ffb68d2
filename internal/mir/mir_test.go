package mir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBlockAndEdgesAreSymmetric(t *testing.T) {
	f := NewStackFrame()
	a := f.NewBlock()
	b := f.NewBlock()
	f.AddEdge(a, b)

	_, ok := f.Block(a).Meta.Children[b]
	require.True(t, ok, "expected %d to be a child of %d", b, a)

	_, ok = f.Block(b).Meta.Parents[a]
	require.True(t, ok, "expected %d to be a parent of %d", a, b)
}

func TestNewRegGrowsMaxRegCount(t *testing.T) {
	f := NewStackFrame()
	r0 := f.NewReg()
	r1 := f.NewReg()
	require.NotEqual(t, r0, r1)
	require.Equal(t, 2, f.Meta.MaxRegCount)
}

func TestPrintRendersJumpAndBinOp(t *testing.T) {
	f := NewStackFrame()
	entry := f.NewBlock()
	target := f.NewBlock()
	r0 := f.NewReg()
	r1 := f.NewReg()
	r2 := f.NewReg()
	f.Emit(entry, LoadOp{To: r0, Value: LoadInt(1)})
	f.Emit(entry, LoadOp{To: r1, Value: LoadInt(2)})
	f.Emit(entry, BinOp{Kind: BinAdd, Out: r2, Left: r0, Right: r1})
	f.Emit(entry, Jump{Target: target})
	f.AddEdge(entry, target)

	want := "block0: preds=[] succs=[1]\n    r0 = load 1\n    r1 = load 2\n    r2 = r0 + r1\n    jump block1\n" +
		"block1: preds=[0] succs=[]\n"
	require.Equal(t, want, Print(f))
}
