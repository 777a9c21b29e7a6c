package simp

import (
	"math"

	"tlog.app/go/tlog"

	"github.com/slowlang/decomp/decomp/exp"
)

type (
	Options struct {
		// WordBits is the machine word width constants are folded to.
		// 0 means 32.
		WordBits int
	}

	// Simplifier is a bottom-up constant folding and algebraic simplification pass.
	Simplifier struct {
		exp.NopModifier

		bits     uint
		modified bool
	}
)

const maxPasses = 100

func NewSimplifier(opts Options) *Simplifier {
	return &Simplifier{bits: opts.bits()}
}

func (o Options) bits() uint {
	if o.WordBits <= 0 || o.WordBits > 64 {
		return 32
	}

	return uint(o.WordBits)
}

// Simplify rewrites e until no rule applies and returns the result.
func Simplify(e exp.Exp, opts Options) exp.Exp {
	orig := e

	for i := 0; i < maxPasses; i++ {
		s := NewSimplifier(opts)
		e = exp.Modify(e, s)

		if !s.Modified() {
			break
		}
	}

	if tlog.If("simp") {
		tlog.Printw("simplify", "from", orig, "to", e)
	}

	return e
}

func (s *Simplifier) Modified() bool { return s.modified }

func (s *Simplifier) Reset() { s.modified = false }

func (s *Simplifier) changed(e exp.Exp) exp.Exp {
	s.modified = true
	return e
}

func (s *Simplifier) PreModify(e exp.Exp) (exp.Exp, bool) {
	if t, ok := e.(*exp.Typed); ok && t.X.Op() == exp.OpRegOf {
		return s.changed(t.X), true
	}

	return e, true
}

func (s *Simplifier) PostModify(e exp.Exp) exp.Exp {
	switch e := e.(type) {
	case *exp.Unary:
		return s.unary(e)
	case *exp.Binary:
		return s.binary(e)
	case *exp.Ternary:
		return s.ternary(e)
	case *exp.Ref:
		if e.Def == exp.NoDef && e.X.Op() == exp.OpDF {
			return s.changed(exp.Int(0))
		}
	}

	return e
}

// wrap truncates k to the word width, keeping it sign extended.
func (s *Simplifier) wrap(k int64) int64 {
	if s.bits >= 64 {
		return k
	}

	sh := 64 - s.bits

	return k << sh >> sh
}

// uns is the unsigned bit pattern of k at the word width.
func (s *Simplifier) uns(k int64) uint64 {
	if s.bits >= 64 {
		return uint64(k)
	}

	return uint64(k) & (1<<s.bits - 1)
}

func (s *Simplifier) unary(u *exp.Unary) exp.Exp {
	op := u.Op()
	x := u.X

	switch op {
	case exp.OpNot, exp.OpLNot:
		if b, ok := x.(*exp.Binary); ok {
			if inv, ok := b.Op().Inverse(); ok {
				b.SetOp(inv)
				return s.changed(b)
			}
		}
	}

	if k, ok := exp.IntValue(x); ok {
		switch op {
		case exp.OpNeg:
			return s.changed(exp.Int(s.wrap(-k)))
		case exp.OpNot:
			return s.changed(exp.Int(s.wrap(^k)))
		case exp.OpLNot:
			return s.changed(exp.Int(b2i(k == 0)))
		}
	}

	switch op {
	case exp.OpNeg, exp.OpNot, exp.OpLNot, exp.OpFNeg:
		if x.Op() == op {
			return s.changed(exp.MustUnary(x).X)
		}
	case exp.OpMemOf:
		if x.Op() == exp.OpAddrOf {
			return s.changed(exp.MustUnary(x).X)
		}
	case exp.OpAddrOf:
		if x.Op() == exp.OpMemOf {
			return s.changed(exp.MustUnary(x).X)
		}
	}

	if op == exp.OpLNot {
		switch x.Op() {
		case exp.OpTrue:
			return s.changed(exp.False())
		case exp.OpFalse:
			return s.changed(exp.True())
		}
	}

	return u
}

func (s *Simplifier) binary(b *exp.Binary) exp.Exp {
	op := b.Op()

	k1, c1 := exp.IntValue(b.X)
	k2, c2 := exp.IntValue(b.Y)

	if c1 && c2 {
		if r, ok := s.fold(op, k1, k2); ok {
			return s.changed(exp.Int(r))
		}
	}

	if f, ok := s.foldFloat(b); ok {
		return s.changed(f)
	}

	if exp.Equal(b.X, b.Y) {
		switch op {
		case exp.OpBitXor, exp.OpMinus:
			return s.changed(exp.Int(0))
		case exp.OpBitOr, exp.OpBitAnd, exp.OpAnd, exp.OpOr:
			return s.changed(b.X)
		case exp.OpEquals, exp.OpLessEq, exp.OpGtrEq, exp.OpLessEqUns, exp.OpGtrEqUns:
			return s.changed(exp.True())
		case exp.OpNotEqual, exp.OpLess, exp.OpGtr, exp.OpLessUns, exp.OpGtrUns:
			return s.changed(exp.False())
		}
	}

	// constants go to the right

	if c1 && !c2 {
		switch op {
		case exp.OpPlus, exp.OpMult, exp.OpMults, exp.OpBitOr, exp.OpBitAnd, exp.OpBitXor, exp.OpEquals, exp.OpNotEqual:
			b.X, b.Y = b.Y, b.X
			return s.changed(b)
		}

		if m, ok := mirror(op); ok {
			b.SetOp(m)
			b.X, b.Y = b.Y, b.X

			return s.changed(b)
		}
	}

	if isBool(b.X) && !isBool(b.Y) && (op == exp.OpAnd || op == exp.OpOr) {
		b.X, b.Y = b.Y, b.X
		return s.changed(b)
	}

	if r, ok := s.additive(b, k2, c2); ok {
		return s.changed(r)
	}

	if r, ok := s.identity(b, k2, c2); ok {
		return s.changed(r)
	}

	if op == exp.OpShiftL && c2 && k2 > 0 && k2 < int64(s.bits) {
		return s.changed(exp.NewBinary(exp.OpMult, b.X, exp.Int(s.wrap(1<<k2))))
	}

	if r, ok := s.compare(b, k2, c2); ok {
		return s.changed(r)
	}

	if r, ok := s.multiply(b, k2, c2); ok {
		return s.changed(r)
	}

	return b
}

func (s *Simplifier) fold(op exp.Oper, k1, k2 int64) (int64, bool) {
	k1, k2 = s.wrap(k1), s.wrap(k2)
	u1, u2 := s.uns(k1), s.uns(k2)

	var r int64

	switch op {
	case exp.OpPlus:
		r = k1 + k2
	case exp.OpMinus:
		r = k1 - k2
	case exp.OpMults:
		r = k1 * k2
	case exp.OpMult:
		r = int64(u1 * u2)
	case exp.OpDivs, exp.OpMods:
		if k2 == 0 {
			return 0, false
		}

		if op == exp.OpDivs {
			r = k1 / k2
		} else {
			r = k1 % k2
		}
	case exp.OpDiv, exp.OpMod:
		if u2 == 0 {
			return 0, false
		}

		if op == exp.OpDiv {
			r = int64(u1 / u2)
		} else {
			r = int64(u1 % u2)
		}
	case exp.OpBitAnd:
		r = k1 & k2
	case exp.OpBitOr:
		r = k1 | k2
	case exp.OpBitXor:
		r = k1 ^ k2
	case exp.OpShiftL, exp.OpShiftR, exp.OpShiftRA:
		if k2 < 0 {
			return 0, false
		}

		switch {
		case k2 >= int64(s.bits) && op == exp.OpShiftRA && k1 < 0:
			r = -1
		case k2 >= int64(s.bits):
			r = 0
		case op == exp.OpShiftL:
			r = k1 << k2
		case op == exp.OpShiftR:
			r = int64(u1 >> k2)
		default:
			r = k1 >> k2
		}
	case exp.OpEquals:
		r = b2i(k1 == k2)
	case exp.OpNotEqual:
		r = b2i(k1 != k2)
	case exp.OpLess:
		r = b2i(k1 < k2)
	case exp.OpGtr:
		r = b2i(k1 > k2)
	case exp.OpLessEq:
		r = b2i(k1 <= k2)
	case exp.OpGtrEq:
		r = b2i(k1 >= k2)
	case exp.OpLessUns:
		r = b2i(u1 < u2)
	case exp.OpGtrUns:
		r = b2i(u1 > u2)
	case exp.OpLessEqUns:
		r = b2i(u1 <= u2)
	case exp.OpGtrEqUns:
		r = b2i(u1 >= u2)
	case exp.OpAnd:
		r = b2i(k1 != 0 && k2 != 0)
	case exp.OpOr:
		r = b2i(k1 != 0 || k2 != 0)
	default:
		return 0, false
	}

	return s.wrap(r), true
}

func (s *Simplifier) foldFloat(b *exp.Binary) (exp.Exp, bool) {
	x, ok1 := b.X.(*exp.Const)
	y, ok2 := b.Y.(*exp.Const)

	if !ok1 || !ok2 || x.Op() != exp.OpFltConst || y.Op() != exp.OpFltConst {
		return nil, false
	}

	switch b.Op() {
	case exp.OpFPlus:
		return exp.Flt(x.F + y.F), true
	case exp.OpFMinus:
		return exp.Flt(x.F - y.F), true
	case exp.OpFMult:
		return exp.Flt(x.F * y.F), true
	case exp.OpFDiv:
		if y.F == 0 {
			return nil, false
		}

		return exp.Flt(x.F / y.F), true
	}

	return nil, false
}

// additive handles reassociation of constants in + and - chains.
func (s *Simplifier) additive(b *exp.Binary, k2 int64, c2 bool) (exp.Exp, bool) {
	op := b.Op()

	if op != exp.OpPlus && op != exp.OpMinus {
		return nil, false
	}

	if c2 {
		if l, ok := b.X.(*exp.Binary); ok && (l.Op() == exp.OpPlus || l.Op() == exp.OpMinus) {
			if k1, ok := exp.IntValue(l.Y); ok {
				// (x ± a) ± b -> x + (±a ± b)
				if l.Op() == exp.OpMinus {
					k1 = -k1
				}

				if op == exp.OpMinus {
					k2 = -k2
				}

				return exp.Plus(l.X, exp.Int(s.wrap(k1+k2))), true
			}
		}

		// a + -K -> a - K
		if k2 < 0 && s.wrap(-k2) > 0 {
			if op == exp.OpPlus {
				return exp.Minus(b.X, exp.Int(s.wrap(-k2))), true
			}

			return exp.Plus(b.X, exp.Int(s.wrap(-k2))), true
		}
	}

	// x*k ± x -> x*(k ± 1)
	if l, ok := b.X.(*exp.Binary); ok && isMult(l.Op()) && exp.IsIntConst(l.Y) && exp.Equal(l.X, b.Y) {
		l.Y = exp.NewBinary(op, l.Y, exp.Int(1))
		return l, true
	}

	// x + x*k -> x*(k + 1)
	if r, ok := b.Y.(*exp.Binary); ok && op == exp.OpPlus && isMult(r.Op()) && exp.IsIntConst(r.Y) && exp.Equal(r.X, b.X) {
		r.Y = exp.Plus(r.Y, exp.Int(1))
		return r, true
	}

	// x*n ± n -> (x ± 1)*n
	if l, ok := b.X.(*exp.Binary); ok && c2 && isMult(l.Op()) && exp.IsIntConstValue(l.Y, k2) && k2 != 0 {
		return exp.NewBinary(l.Op(), exp.NewBinary(op, l.X, exp.Int(1)), l.Y), true
	}

	// a + x*n ± n -> a + (x ± 1)*n
	if l, ok := b.X.(*exp.Binary); ok && c2 && l.Op() == exp.OpPlus {
		if m, ok := l.Y.(*exp.Binary); ok && isMult(m.Op()) && exp.IsIntConstValue(m.Y, k2) && k2 != 0 {
			return exp.Plus(l.X, exp.NewBinary(m.Op(), exp.NewBinary(op, m.X, exp.Int(1)), m.Y)), true
		}
	}

	return nil, false
}

// identity removes neutral and absorbing operands.
func (s *Simplifier) identity(b *exp.Binary, k2 int64, c2 bool) (exp.Exp, bool) {
	op := b.Op()

	if c2 {
		k2 = s.wrap(k2)

		switch {
		case k2 == 0 && (op == exp.OpPlus || op == exp.OpMinus || op == exp.OpBitOr || op == exp.OpBitXor ||
			op == exp.OpShiftL || op == exp.OpShiftR || op == exp.OpShiftRA):
			return b.X, true
		case k2 == 0 && (op == exp.OpMult || op == exp.OpMults || op == exp.OpBitAnd):
			return exp.Int(0), true
		case k2 == 1 && (op == exp.OpMult || op == exp.OpMults || op == exp.OpDiv || op == exp.OpDivs):
			return b.X, true
		case k2 == 1 && (op == exp.OpMod || op == exp.OpMods):
			return exp.Int(0), true
		case k2 == -1 && op == exp.OpBitAnd:
			return b.X, true
		case op == exp.OpAnd && k2 != 0:
			return b.X, true
		case op == exp.OpAnd:
			return exp.False(), true
		case op == exp.OpOr && k2 != 0:
			return exp.True(), true
		case op == exp.OpOr:
			return b.X, true
		}
	}

	switch b.Y.Op() {
	case exp.OpTrue:
		switch op {
		case exp.OpAnd:
			return b.X, true
		case exp.OpOr:
			return exp.True(), true
		}
	case exp.OpFalse:
		switch op {
		case exp.OpAnd:
			return exp.False(), true
		case exp.OpOr:
			return b.X, true
		}
	}

	switch op {
	case exp.OpDiv, exp.OpDivs:
		// (x*y)/y -> x
		if l, ok := b.X.(*exp.Binary); ok && isMult(l.Op()) && exp.Equal(l.Y, b.Y) && !exp.IsIntConstValue(b.Y, 0) {
			return l.X, true
		}
	case exp.OpMod, exp.OpMods:
		// x%x -> 0, (a*x)%x -> 0
		if exp.Equal(b.X, b.Y) {
			return exp.Int(0), true
		}

		if l, ok := b.X.(*exp.Binary); ok && isMult(l.Op()) && exp.Equal(l.Y, b.Y) {
			return exp.Int(0), true
		}
	case exp.OpFMinus:
		// 0.0 - x -> -x
		if c, ok := b.X.(*exp.Const); ok && c.Op() == exp.OpFltConst && c.F == 0 && !math.Signbit(c.F) {
			return exp.NewUnary(exp.OpFNeg, b.Y), true
		}
	case exp.OpSize:
		if exp.IsLocation(b.Y) || b.Y.Op().IsConst() {
			return b.Y, true
		}
	}

	return nil, false
}

// compare normalizes comparisons.
func (s *Simplifier) compare(b *exp.Binary, k2 int64, c2 bool) (exp.Exp, bool) {
	op := b.Op()

	if op.IsEquality() {
		// -x == y -> x == -y
		if l, ok := b.X.(*exp.Unary); ok && l.Op() == exp.OpNeg {
			return exp.NewBinary(op, l.X, exp.NewUnary(exp.OpNeg, b.Y)), true
		}

		if c2 && k2 == 0 {
			if l, ok := b.X.(*exp.Binary); ok {
				switch l.Op() {
				case exp.OpPlus:
					// x + y == 0 -> x == -y
					return exp.NewBinary(op, l.X, exp.NewUnary(exp.OpNeg, l.Y)), true
				case exp.OpMinus:
					// x - y == 0 -> x == y
					return exp.NewBinary(op, l.X, l.Y), true
				}
			}
		}
	}

	if c2 {
		if l, ok := b.X.(*exp.Binary); ok && l.Op().IsComparison() {
			switch {
			case op == exp.OpEquals && k2 == 0, op == exp.OpNotEqual && k2 == 1:
				inv, _ := l.Op().Inverse()
				l.SetOp(inv)

				return l, true
			case op == exp.OpEquals && k2 == 1, op == exp.OpNotEqual && k2 == 0:
				return l, true
			case op == exp.OpEquals:
				return exp.False(), true
			case op == exp.OpNotEqual:
				return exp.True(), true
			}
		}
	}

	if op == exp.OpOr {
		l, ok1 := b.X.(*exp.Binary)
		r, ok2 := b.Y.(*exp.Binary)

		if ok1 && ok2 && r.Op() == exp.OpEquals && exp.Equal(l.X, r.X) && exp.Equal(l.Y, r.Y) {
			switch l.Op() {
			case exp.OpLessEq, exp.OpGtrEq, exp.OpLessEqUns, exp.OpGtrEqUns, exp.OpEquals:
				return l, true
			case exp.OpLess:
				return exp.NewBinary(exp.OpLessEq, l.X, l.Y), true
			case exp.OpGtr:
				return exp.NewBinary(exp.OpGtrEq, l.X, l.Y), true
			case exp.OpLessUns:
				return exp.NewBinary(exp.OpLessEqUns, l.X, l.Y), true
			case exp.OpGtrUns:
				return exp.NewBinary(exp.OpGtrEqUns, l.X, l.Y), true
			}
		}
	}

	return nil, false
}

func (s *Simplifier) multiply(b *exp.Binary, k2 int64, c2 bool) (exp.Exp, bool) {
	op := b.Op()

	// a*n*m -> a*(n*m)
	if c2 && isMult(op) {
		if l, ok := b.X.(*exp.Binary); ok && l.Op() == op {
			if k1, ok := exp.IntValue(l.Y); ok {
				return exp.NewBinary(op, l.X, exp.Int(s.wrap(k1*k2))), true
			}
		}
	}

	// (x*a + y*b) / c -> x*(a/c) + y*(b/c) when both divide
	if c2 && k2 != 0 && (op == exp.OpDiv || op == exp.OpDivs || op == exp.OpMod || op == exp.OpMods) {
		l, ok := b.X.(*exp.Binary)
		if !ok || l.Op() != exp.OpPlus {
			return nil, false
		}

		m1, ok1 := l.X.(*exp.Binary)
		m2, ok2 := l.Y.(*exp.Binary)

		if !ok1 || !ok2 || !isMult(m1.Op()) || !isMult(m2.Op()) {
			return nil, false
		}

		a, oka := exp.IntValue(m1.Y)
		c, okb := exp.IntValue(m2.Y)

		if !oka || !okb || a%k2 != 0 || c%k2 != 0 {
			return nil, false
		}

		if op == exp.OpMod || op == exp.OpMods {
			return exp.Int(0), true
		}

		return exp.Plus(
			exp.NewBinary(m1.Op(), m1.X, exp.Int(a/k2)),
			exp.NewBinary(m2.Op(), m2.X, exp.Int(c/k2)),
		), true
	}

	return nil, false
}

func (s *Simplifier) ternary(t *exp.Ternary) exp.Exp {
	switch t.Op() {
	case exp.OpTern:
		if k, ok := exp.IntValue(t.X); ok {
			if k != 0 {
				return s.changed(t.Y)
			}

			return s.changed(t.Z)
		}

		switch t.X.Op() {
		case exp.OpTrue:
			return s.changed(t.Y)
		case exp.OpFalse:
			return s.changed(t.Z)
		}

		if exp.IsIntConstValue(t.Y, 1) && exp.IsIntConstValue(t.Z, 0) {
			return s.changed(t.X)
		}

		if exp.IsIntConstValue(t.Y, 0) && exp.IsIntConstValue(t.Z, 1) {
			return s.changed(exp.Not(t.X))
		}

		if exp.Equal(t.Y, t.Z) {
			return s.changed(t.Y)
		}
	case exp.OpSgnEx, exp.OpZfill, exp.OpTruncu, exp.OpTruncs:
		from, ok1 := exp.IntValue(t.X)
		to, ok2 := exp.IntValue(t.Y)
		k, ok3 := exp.IntValue(t.Z)

		if !ok1 || !ok2 || !ok3 || from <= 0 || from > 64 || to <= 0 || to > 64 {
			break
		}

		switch t.Op() {
		case exp.OpSgnEx:
			return s.changed(exp.Int(s.wrap(sext(k, from))))
		case exp.OpZfill:
			return s.changed(exp.Int(s.wrap(zext(k, from))))
		case exp.OpTruncu:
			if from > to {
				return s.changed(exp.Int(zext(k, to)))
			}
		case exp.OpTruncs:
			if from > to {
				return s.changed(exp.Int(sext(k, to)))
			}
		}
	case exp.OpFsize:
		if t.Z.Op() == exp.OpItof || t.Z.Op() == exp.OpFltConst {
			return s.changed(t.Z)
		}
	case exp.OpItof:
		if k, ok := exp.IntValue(t.Z); ok && exp.IsIntConstValue(t.Y, 32) {
			return s.changed(exp.Flt(float64(math.Float32frombits(uint32(k)))))
		}
	case exp.OpAt:
		k, ok1 := exp.IntValue(t.X)
		hi, ok2 := exp.IntValue(t.Y)
		lo, ok3 := exp.IntValue(t.Z)

		if ok1 && ok2 && ok3 && lo >= 0 && hi >= lo && hi < 64 {
			return s.changed(exp.Int(zext(int64(s.uns(k)>>lo), hi-lo+1)))
		}
	}

	return t
}

func mirror(op exp.Oper) (exp.Oper, bool) {
	switch op {
	case exp.OpLess:
		return exp.OpGtr, true
	case exp.OpGtr:
		return exp.OpLess, true
	case exp.OpLessEq:
		return exp.OpGtrEq, true
	case exp.OpGtrEq:
		return exp.OpLessEq, true
	case exp.OpLessUns:
		return exp.OpGtrUns, true
	case exp.OpGtrUns:
		return exp.OpLessUns, true
	case exp.OpLessEqUns:
		return exp.OpGtrEqUns, true
	case exp.OpGtrEqUns:
		return exp.OpLessEqUns, true
	}

	return op, false
}

func isMult(op exp.Oper) bool { return op == exp.OpMult || op == exp.OpMults }

func isBool(e exp.Exp) bool { return e.Op() == exp.OpTrue || e.Op() == exp.OpFalse }

func b2i(v bool) int64 {
	if v {
		return 1
	}

	return 0
}

func sext(k, bits int64) int64 {
	if bits >= 64 {
		return k
	}

	sh := 64 - bits

	return k << sh >> sh
}

func zext(k, bits int64) int64 {
	if bits >= 64 {
		return k
	}

	return k & (1<<bits - 1)
}
