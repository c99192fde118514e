// Package valtype implements the AMPL-2023 value-type algebra: a
// compact, total representation of base kind × array bit × callable
// bit, as specified in spec.md §3 and §4.4, and grounded on
// original_source/amplc.c's ValType bit flags (TYPE_BOOLEAN,
// TYPE_INTEGER, TYPE_ARRAY, TYPE_CALLABLE, TYPE_NONE).
package valtype

// Base is the scalar base kind of a value-type.
type Base int

const (
	// None is the base-none "no type", reserved for the implicit
	// return type of a procedure and for uninitialized slots.
	None Base = iota
	IntBase
	BoolBase
)

func (b Base) String() string {
	switch b {
	case IntBase:
		return "int"
	case BoolBase:
		return "bool"
	default:
		return "none"
	}
}

// Type is an immutable value-type: a base kind plus two independent
// attribute bits.
type Type struct {
	base     Base
	array    bool
	callable bool
}

// Int is the plain scalar integer type.
func Int() Type { return Type{base: IntBase} }

// Bool is the plain scalar boolean type.
func Bool() Type { return Type{base: BoolBase} }

// NoneType is the base-none, non-callable "no type" value.
func NoneType() Type { return Type{base: None} }

// Array returns t with the array attribute set.
func (t Type) Array() Type {
	t.array = true
	return t
}

// Callable returns t with the callable attribute set.
func (t Type) Callable() Type {
	t.callable = true
	return t
}

// Base returns the scalar base kind.
func (t Type) Base() Base { return t.base }

// IsArray reports whether t carries the array attribute.
func (t Type) IsArray() bool { return t.array }

// IsCallable reports whether t carries the callable attribute.
func (t Type) IsCallable() bool { return t.callable }

// IsFunction reports whether t is callable with a non-none base.
func (t Type) IsFunction() bool { return t.callable && t.base != None }

// IsProcedure reports whether t is callable with base none.
func (t Type) IsProcedure() bool { return t.callable && t.base == None }

// IsInteger reports whether t has the integer base and is not
// callable. The array bit is not consulted, so an int array also
// reports true.
func (t Type) IsInteger() bool {
	return t.base == IntBase && !t.callable
}

// IsBoolean reports whether t has the boolean base and is not
// callable. The array bit is not consulted, so a bool array also
// reports true.
func (t Type) IsBoolean() bool {
	return t.base == BoolBase && !t.callable
}

// Elem returns t with the array bit stripped, i.e. the element type of
// an array, or t itself if t is not an array.
func (t Type) Elem() Type {
	t.array = false
	return t
}

// SetReturnType strips the callable bit, yielding the value-type of a
// return expression from a callable's declared return type. It is
// idempotent.
func (t Type) SetReturnType() Type {
	t.callable = false
	return t
}

// Equal reports whether t and u denote the same value-type: same base,
// same array bit, same callable bit.
func (t Type) Equal(u Type) bool {
	return t.base == u.base && t.array == u.array && t.callable == u.callable
}

// String renders t for diagnostics, the Go analogue of
// amplc.c's get_valtype_string.
func (t Type) String() string {
	s := t.base.String()
	if t.array {
		s += " array"
	}
	if t.callable {
		if t.base == None {
			s = "procedure"
		} else {
			s = t.base.String() + " function"
		}
	}
	return s
}
