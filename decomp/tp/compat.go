package tp

// Equal reports whether a and b denote the same type.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.String() == b.String()
}

// IsInteger reports whether t is an integer-like type (Int, Char, Bool).
func IsInteger(t Type) bool {
	switch t.(type) {
	case Int, Char, Bool:
		return true
	}

	return false
}

func IsPointer(t Type) bool {
	_, ok := t.(Ptr)
	return ok
}

func IsFunc(t Type) bool {
	_, ok := t.(Func)
	return ok
}

func IsVoid(t Type) bool {
	if t == nil {
		return true
	}

	_, ok := t.(Void)
	return ok
}

func IsChar(t Type) bool {
	_, ok := t.(Char)
	return ok
}

// SignOf returns integer signedness of t.
// ok is false for non-integer types.
func SignOf(t Type) (s Sign, ok bool) {
	switch t := t.(type) {
	case Int:
		return t.Sign, true
	case Char:
		return Signed, true
	case Bool:
		return Unsigned, true
	}

	return Unknown, false
}

// Compatible reports whether a value of type a can be used where b is expected
// without an explicit cast.
func Compatible(a, b Type) bool {
	if IsVoid(a) || IsVoid(b) {
		return true
	}

	if Equal(a, b) {
		return true
	}

	switch a := a.(type) {
	case Sized:
		return a.Size() == b.Size()
	case Int:
		switch b := b.(type) {
		case Int:
			return a.Bits == b.Bits && (a.Sign == Unknown || b.Sign == Unknown || a.Sign == b.Sign)
		case Sized, Char:
			return a.Size() == b.Size()
		}
	case Ptr:
		if b, ok := b.(Ptr); ok {
			return Compatible(a.X, b.X)
		}

		if b, ok := b.(Sized); ok {
			return b.Size() == PtrBits
		}
	case Array:
		if b, ok := b.(Array); ok {
			return Compatible(a.X, b.X)
		}
	}

	if _, ok := b.(Sized); ok {
		return a.Size() == b.Size()
	}

	return false
}
