// Package c emits a single, self-contained C source file from a resolved
// MIR frame. It is grounded directly on the original project's
// compile_to_c.rs: pack registers into one byte-addressed local frame by
// alignment/size, then print one goto-labeled block per MIR block.
package c

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/malphas-lang/malphas-lang/internal/mir"
	"github.com/malphas-lang/malphas-lang/internal/types"
)

// Layout assigns each register a byte offset into a single packed frame.
// Registers are grouped by type and packed largest-alignment-first, which
// gives optimal packing whenever align <= size and size is a multiple of
// align (true for bool and i32 here); other cases may leave small holes.
type Layout struct {
	Offsets []int
	Size    int
	Align   int
}

// BuildLayout computes a Layout for the given per-register types.
func BuildLayout(regTypes []types.Type) Layout {
	order := make([]int, len(regTypes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := regTypes[order[i]], regTypes[order[j]]
		if a.Align != b.Align {
			return a.Align > b.Align
		}
		return a.Size > b.Size
	})

	offsets := make([]int, len(regTypes))
	size, align := 0, 1
	for _, reg := range order {
		t := regTypes[reg]
		if t.Align > align {
			align = t.Align
		}
		mask := t.Align - 1
		if mask > 0 {
			size = (size + mask) &^ mask
		}
		offsets[reg] = size
		size += t.Size
	}

	return Layout{Offsets: offsets, Size: size, Align: align}
}

// cType returns the C type name for a primitive, or ("", false) for unit
// and anything this emitter does not know how to represent.
func cType(t types.Type) (string, bool) {
	if t.Variant != types.VariantPrimitive {
		return "", false
	}
	switch t.Primitive {
	case types.PrimitiveBool:
		return "_Bool", true
	case types.PrimitiveI32:
		return "int32_t", true
	default:
		return "", false
	}
}

// getLocal renders the lvalue expression reading/writing register reg as
// type cTy out of the packed `locals` array.
func getLocal(layout Layout, reg mir.Reg, cTy string) string {
	return fmt.Sprintf("*((%s*)(locals + %d))", cTy, layout.Offsets[reg])
}

// Emit writes a complete, compilable C translation unit for frame to w,
// using regTypes (as produced by internal/infer) to pick field widths.
func Emit(w io.Writer, frame *mir.StackFrame, regTypes []types.Type) error {
	layout := BuildLayout(regTypes)

	if _, err := fmt.Fprintf(w, "#include <stdio.h>\n#include <stdint.h>\nint main() {\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "char locals[%d] __attribute__((aligned(%d)));\n", layout.Size, layout.Align); err != nil {
		return err
	}

	for _, blk := range frame.Blocks {
		if _, err := fmt.Fprintf(w, "\n_label_%d:\n", blk.ID); err != nil {
			return err
		}
		for _, instr := range blk.Code {
			line, err := emitInstr(instr, layout, regTypes)
			if err != nil {
				return err
			}
			if line == "" {
				continue
			}
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
		if len(blk.Meta.Children) == 0 {
			if _, err := io.WriteString(w, "return 0;\n"); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(w, "}")
	return err
}

func emitInstr(instr mir.Mir, layout Layout, regTypes []types.Type) (string, error) {
	var b strings.Builder

	switch v := instr.(type) {
	case mir.Jump:
		fmt.Fprintf(&b, "goto _label_%d;\n", v.Target)

	case mir.BranchTrue:
		fmt.Fprintf(&b, "if (%s != 0) goto _label_%d;\n", getLocal(layout, v.Cond, "_Bool"), v.Target)

	case mir.LoadOp:
		cTy, ok := cType(regTypes[v.To])
		if !ok {
			return "", fmt.Errorf("register %d: unsupported type for Load", v.To)
		}
		fmt.Fprintf(&b, "%s = %s;\n", getLocal(layout, v.To, cTy), loadValue(v.Value))

	case mir.LoadReg:
		t := regTypes[v.To]
		if t.Size == 0 {
			return "", nil // unit: nothing to copy
		}
		cTy, ok := cType(t)
		if !ok {
			return "", fmt.Errorf("register %d: unsupported type for LoadReg", v.To)
		}
		fmt.Fprintf(&b, "%s = %s;\n", getLocal(layout, v.To, cTy), getLocal(layout, v.From, cTy))

	case mir.PrintOp:
		cTy, ok := cType(regTypes[v.From])
		if !ok {
			return "", fmt.Errorf("register %d: unsupported type for Print", v.From)
		}
		spec := "d"
		if cTy == "_Bool" {
			spec = "b"
		}
		fmt.Fprintf(&b, "printf(\"%%%s\\n\", %s);\n", spec, getLocal(layout, v.From, cTy))

	case mir.BinOp:
		if err := emitBinOp(&b, v, layout, regTypes); err != nil {
			return "", err
		}

	default:
		return "", fmt.Errorf("emit: unsupported instruction %T", instr)
	}

	return b.String(), nil
}

func emitBinOp(b *strings.Builder, v mir.BinOp, layout Layout, regTypes []types.Type) error {
	arith := func(sym string) {
		fmt.Fprintf(b, "%s = %s %s %s;\n",
			getLocal(layout, v.Out, "int32_t"), getLocal(layout, v.Left, "int32_t"), sym, getLocal(layout, v.Right, "int32_t"))
	}
	cmp := func(sym string) {
		fmt.Fprintf(b, "%s = %s %s %s;\n",
			getLocal(layout, v.Out, "_Bool"), getLocal(layout, v.Left, "int32_t"), sym, getLocal(layout, v.Right, "int32_t"))
	}

	switch v.Kind {
	case mir.BinAdd:
		arith("+")
	case mir.BinSub:
		arith("-")
	case mir.BinMul:
		arith("*")
	case mir.BinDiv:
		arith("/")
	case mir.BinGt:
		cmp(">")
	case mir.BinLt:
		cmp("<")
	case mir.BinGe:
		cmp(">=")
	case mir.BinLe:
		cmp("<=")
	case mir.BinEq, mir.BinNeq:
		cTy, ok := cType(regTypes[v.Left])
		if !ok {
			return fmt.Errorf("register %d: unsupported operand type for comparison", v.Left)
		}
		sym := "=="
		if v.Kind == mir.BinNeq {
			sym = "!="
		}
		fmt.Fprintf(b, "%s = %s %s %s;\n",
			getLocal(layout, v.Out, "_Bool"), getLocal(layout, v.Left, cTy), sym, getLocal(layout, v.Right, cTy))
	default:
		return fmt.Errorf("emit: unsupported binary operator %d", v.Kind)
	}
	return nil
}

func loadValue(l mir.Load) string {
	switch v := l.(type) {
	case mir.LoadBool:
		if v {
			return "1"
		}
		return "0"
	case mir.LoadInt:
		return fmt.Sprintf("%d", uint16(v))
	default:
		return "0"
	}
}
