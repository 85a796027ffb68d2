package mir

import (
	"fmt"
	"strings"
)

// Print renders a frame as a human-readable block listing, used by the
// `--emit-mir` CLI flag (spec §6) and by tests asserting on lowering shape.
func Print(f *StackFrame) string {
	var b strings.Builder
	for _, blk := range f.Blocks {
		fmt.Fprintf(&b, "block%d: preds=%v succs=%v\n", blk.ID, blk.Meta.SortedParents(), blk.Meta.SortedChildren())
		for _, instr := range blk.Code {
			fmt.Fprintf(&b, "    %s\n", printInstr(instr))
		}
	}
	return b.String()
}

func printInstr(m Mir) string {
	switch v := m.(type) {
	case Jump:
		return fmt.Sprintf("jump block%d", v.Target)
	case BranchTrue:
		return fmt.Sprintf("branch_true r%d, block%d", v.Cond, v.Target)
	case LoadOp:
		return fmt.Sprintf("r%d = load %s", v.To, printLoad(v.Value))
	case LoadReg:
		return fmt.Sprintf("r%d = r%d", v.To, v.From)
	case PrintOp:
		return fmt.Sprintf("print r%d", v.From)
	case BinOp:
		return fmt.Sprintf("r%d = r%d %s r%d", v.Out, v.Left, printBinOp(v.Kind), v.Right)
	case PreOp:
		return fmt.Sprintf("r%d = %s r%d", v.Out, printBinOp(v.Kind), v.From)
	case CreateFunc:
		return fmt.Sprintf("r%d = create_func", v.Binding)
	case LoadFunction:
		return fmt.Sprintf("r%d = load_function r%d", v.Ret, v.Func)
	case PushArg:
		return fmt.Sprintf("push_arg r%d", v.From)
	case PopArg:
		return fmt.Sprintf("r%d = pop_arg", v.To)
	case CallFunction:
		return fmt.Sprintf("r%d = call r%d", v.Out, v.Func)
	default:
		return fmt.Sprintf("<unknown %T>", m)
	}
}

func printLoad(l Load) string {
	switch v := l.(type) {
	case LoadBool:
		return fmt.Sprintf("%t", bool(v))
	case LoadInt:
		return fmt.Sprintf("%d", uint16(v))
	default:
		return "<unknown>"
	}
}

func printBinOp(k BinOpType) string {
	switch k {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinEq:
		return "=="
	case BinNeq:
		return "!="
	case BinGe:
		return ">="
	case BinLe:
		return "<="
	case BinGt:
		return ">"
	case BinLt:
		return "<"
	default:
		return "?"
	}
}
