// Package types defines the small, closed type lattice the inference pass
// resolves registers to: booleans, 32-bit integers, and the empty unit type.
// There is no user-declared type in this language (spec §1 Non-goals: no
// structs, enums, traits) — Variant exists as a lattice point for future
// growth the same way the original implementation's Variant enum did, but
// only the Primitive arm is ever constructed here.
package types

// Primitive names one of the built-in scalar kinds.
type Primitive int

const (
	PrimitiveUnit Primitive = iota
	PrimitiveBool
	PrimitiveI32
)

func (p Primitive) String() string {
	switch p {
	case PrimitiveUnit:
		return "unit"
	case PrimitiveBool:
		return "bool"
	case PrimitiveI32:
		return "i32"
	default:
		return "unknown"
	}
}

// Variant distinguishes the shape of a Type. VariantPrimitive covers unit,
// bool and i32; internal/infer also produces a bare VariantFunction type
// (no size or alignment) for registers holding a function value.
// VariantStruct is reserved and never constructed.
type Variant int

const (
	VariantPrimitive Variant = iota
	VariantStruct
	VariantFunction
)

// Type is a fully-resolved MIR register type: its C layout (Size, Align)
// plus enough shape information for the emitter to pick a representation.
type Type struct {
	Variant   Variant
	Primitive Primitive

	// Size and Align are in bytes, matching the C ABI the emitter targets.
	Size  int
	Align int
}

// Unit, Bool and I32 are the only primitive types this front end produces.
var (
	Unit = Type{Variant: VariantPrimitive, Primitive: PrimitiveUnit, Size: 0, Align: 1}
	Bool = Type{Variant: VariantPrimitive, Primitive: PrimitiveBool, Size: 1, Align: 1}
	I32  = Type{Variant: VariantPrimitive, Primitive: PrimitiveI32, Size: 4, Align: 4}
)

// String renders the type the way diagnostics quote it (spec §7 TypeError
// messages: "expected i32, found bool").
func (t Type) String() string {
	if t.Variant == VariantPrimitive {
		return t.Primitive.String()
	}
	return "<unsupported>"
}

// Eq reports whether two types are the same concrete type.
func (t Type) Eq(other Type) bool {
	return t == other
}
