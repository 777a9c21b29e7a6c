package tp

import (
	"strconv"
	"strings"
)

type (
	// Type is a high level type recovered for a location or a value.
	// Size is in bits.
	Type interface {
		Size() int
		String() string
	}

	Sign int8

	Void struct{}

	Bool struct{}

	Char struct{}

	Int struct {
		Bits int16
		Sign Sign
	}

	Float struct {
		Bits int16
	}

	Ptr struct {
		X Type
	}

	Array struct {
		X   Type
		Len int // < 0 is unbounded
	}

	Func struct {
		Ret    Type
		Params []Type
	}

	// Sized is a type known only by its size.
	Sized struct {
		Bits int16
	}

	Name string
)

const (
	Unsigned Sign = -1
	Unknown  Sign = 0
	Signed   Sign = 1
)

// PtrBits is the size of a pointer on the decompiled machine.
const PtrBits = 32

func (s Sign) MaybeSigned() bool { return s >= Unknown }

func (s Sign) String() string {
	switch s {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	default:
		return "unknown"
	}
}

func (Void) Size() int { return 0 }
func (Bool) Size() int { return 1 }
func (Char) Size() int { return 8 }
func (x Int) Size() int { return int(x.Bits) }
func (x Float) Size() int { return int(x.Bits) }
func (Ptr) Size() int { return PtrBits }
func (Func) Size() int { return 0 }
func (x Sized) Size() int { return int(x.Bits) }
func (x Name) Size() int { return 0 }
func (x Array) Size() int {
	if x.Len < 0 {
		return 0
	}

	return x.X.Size() * x.Len
}

func (Void) String() string { return "void" }
func (Bool) String() string { return "bool" }
func (Char) String() string { return "char" }
func (x Name) String() string {
	return string(x)
}

func (x Int) String() string {
	var s string

	switch x.Bits {
	case 8:
		s = "char"
	case 16:
		s = "short"
	case 64:
		s = "long long"
	default:
		s = "int"
	}

	if x.Sign == Unsigned {
		s = "unsigned " + s
	}

	return s
}

func (x Float) String() string {
	switch x.Bits {
	case 32:
		return "float"
	case 80:
		return "long double"
	default:
		return "double"
	}
}

func (x Ptr) String() string {
	s := str(x.X)

	if _, ok := x.X.(Ptr); ok {
		return s + "*"
	}

	return s + " *"
}

func (x Array) String() string {
	if x.Len < 0 {
		return str(x.X) + "[]"
	}

	return str(x.X) + "[" + strconv.Itoa(x.Len) + "]"
}

func (x Func) String() string {
	return str(x.Ret) + " " + x.ParamList()
}

// ParamList is the parenthesized parameter list, "(void)" when empty.
func (x Func) ParamList() string {
	if len(x.Params) == 0 {
		return "(void)"
	}

	var b strings.Builder

	b.WriteByte('(')

	for i, p := range x.Params {
		if i != 0 {
			b.WriteString(", ")
		}

		b.WriteString(str(p))
	}

	b.WriteByte(')')

	return b.String()
}

func (x Sized) String() string {
	return "__size" + strconv.Itoa(int(x.Bits))
}

func str(t Type) string {
	if t == nil {
		return "void"
	}

	return t.String()
}
