// Package interp executes a resolved MIR frame directly, without going
// through the C backend. It exists so the pipeline's end-to-end behavior
// (spec §8 scenarios) can be asserted in-process, the way mna-nenuphar's
// machine package walks its own bytecode frame by frame.
package interp

import (
	"fmt"
	"io"

	"github.com/malphas-lang/malphas-lang/internal/mir"
)

// maxSteps bounds execution so a malformed or genuinely infinite program
// (a loop with no reachable break) cannot hang the interpreter forever.
const maxSteps = 1_000_000

// Value is whatever a register currently holds: a bool or an int32.
type Value any

// Run executes frame from its entry block, writing each Print to w, until
// it reaches a block with no outgoing Jump/BranchTrue (an implicit halt).
func Run(frame *mir.StackFrame, w io.Writer) error {
	regs := make([]Value, frame.Meta.MaxRegCount)
	block := mir.BlockID(0)

	for step := 0; ; step++ {
		if step >= maxSteps {
			return fmt.Errorf("interp: exceeded %d steps without halting", maxSteps)
		}

		blk := frame.Block(block)
		next, halted, err := runBlock(blk, regs, w)
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
		block = next
	}
}

func runBlock(blk *mir.Block, regs []Value, w io.Writer) (mir.BlockID, bool, error) {
	for _, instr := range blk.Code {
		switch v := instr.(type) {
		case mir.LoadOp:
			regs[v.To] = loadValue(v.Value)

		case mir.LoadReg:
			regs[v.To] = regs[v.From]

		case mir.PrintOp:
			if _, err := fmt.Fprintln(w, formatValue(regs[v.From])); err != nil {
				return 0, false, err
			}

		case mir.BinOp:
			out, err := evalBinOp(v.Kind, regs[v.Left], regs[v.Right])
			if err != nil {
				return 0, false, err
			}
			regs[v.Out] = out

		case mir.Jump:
			return v.Target, false, nil

		case mir.BranchTrue:
			if truthy(regs[v.Cond]) {
				return v.Target, false, nil
			}

		case mir.CreateFunc, mir.LoadFunction, mir.PushArg, mir.PopArg, mir.CallFunction:
			return 0, false, fmt.Errorf("interp: function values are not implemented")

		default:
			return 0, false, fmt.Errorf("interp: unsupported instruction %T", instr)
		}
	}
	return 0, true, nil
}

func loadValue(l mir.Load) Value {
	switch v := l.(type) {
	case mir.LoadBool:
		return bool(v)
	case mir.LoadInt:
		return int32(v)
	default:
		return nil
	}
}

func formatValue(v Value) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int32:
		return fmt.Sprintf("%d", x)
	default:
		return "<unset>"
	}
}

func truthy(v Value) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int32:
		return x != 0
	default:
		return false
	}
}

func evalBinOp(kind mir.BinOpType, left, right Value) (Value, error) {
	switch kind {
	case mir.BinAdd, mir.BinSub, mir.BinMul, mir.BinDiv, mir.BinGt, mir.BinLt, mir.BinGe, mir.BinLe:
		l, lok := left.(int32)
		r, rok := right.(int32)
		if !lok || !rok {
			return nil, fmt.Errorf("interp: arithmetic/comparison operand is not an i32")
		}
		switch kind {
		case mir.BinAdd:
			return l + r, nil
		case mir.BinSub:
			return l - r, nil
		case mir.BinMul:
			return l * r, nil
		case mir.BinDiv:
			if r == 0 {
				return nil, fmt.Errorf("interp: division by zero")
			}
			return l / r, nil
		case mir.BinGt:
			return l > r, nil
		case mir.BinLt:
			return l < r, nil
		case mir.BinGe:
			return l >= r, nil
		case mir.BinLe:
			return l <= r, nil
		}
	case mir.BinEq:
		return left == right, nil
	case mir.BinNeq:
		return left != right, nil
	}
	return nil, fmt.Errorf("interp: unsupported binary operator %d", kind)
}
