package codegen

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/decomp/decomp/conf"
	"github.com/slowlang/decomp/decomp/exp"
	"github.com/slowlang/decomp/decomp/ir"
	"github.com/slowlang/decomp/decomp/tp"
)

var (
	i32 = tp.Int{Bits: 32, Sign: tp.Signed}
	u32 = tp.Int{Bits: 32, Sign: tp.Unsigned}
)

func l(n string) exp.Exp { return exp.Local(n) }
func k(v int64) exp.Exp { return exp.Int(v) }

func bin(op exp.Oper, x, y exp.Exp) exp.Exp { return exp.NewBinary(op, x, y) }
func tern(op exp.Oper, x, y, z exp.Exp) exp.Exp { return exp.NewTernary(op, x, y, z) }

func list(l ...exp.Exp) exp.Exp {
	var e exp.Exp = exp.NewTerminal(exp.OpNil)

	for i := len(l) - 1; i >= 0; i-- {
		e = bin(exp.OpList, l[i], e)
	}

	return e
}

func TestRenderPrecedence(t *testing.T) {
	for _, tc := range []struct {
		e exp.Exp
		s string
	}{
		{exp.Plus(l("a"), bin(exp.OpMult, l("b"), l("c"))), "a + b * c"},
		{bin(exp.OpMult, exp.Plus(l("a"), l("b")), l("c")), "(a + b) * c"},
		{exp.Minus(exp.Minus(l("a"), l("b")), l("c")), "a - b - c"},
		{exp.Minus(l("a"), exp.Minus(l("b"), l("c"))), "a - (b - c)"},
		{bin(exp.OpAnd, bin(exp.OpOr, l("a"), l("b")), l("c")), "(a || b) && c"},
		{bin(exp.OpBitOr, bin(exp.OpShiftL, l("a"), k(2)), l("b")), "a << 2 | b"},
		{exp.Not(bin(exp.OpEquals, l("a"), l("b"))), "!(a == b)"},
		{exp.NewUnary(exp.OpNot, l("a")), "~a"},
		{exp.NewUnary(exp.OpNeg, exp.Plus(l("a"), l("b"))), "-(a + b)"},
		{exp.NewUnary(exp.OpNeg, k(-5)), "- -5"},
		{exp.Tern(bin(exp.OpLess, l("a"), l("b")), l("a"), l("b")), "(a < b) ? a : b"},
		{exp.Plus(exp.Tern(l("c"), k(1), k(2)), k(3)), "((c) ? 1 : 2) + 3"},
		{bin(exp.OpArrayIndex, exp.Mem(l("p")), k(1)), "(*p)[1]"},
		{exp.Mem(exp.Plus(l("p"), k(4))), "*(p + 4)"},
	} {
		assert.Equal(t, tc.s, Render(tc.e, nil), "%v", tc.e)
	}
}

func TestRenderConst(t *testing.T) {
	for _, tc := range []struct {
		e exp.Exp
		s string
	}{
		{k(5), "5"},
		{k(2047), "2047"},
		{k(-2047), "-2047"},
		{k(2048), "0x800"},
		{k(-4096), "0xfffff000"},
		{k(0x100000000), "0x100000000"},
		{exp.IntTyped(-1, u32), "0xffffffff"},
		{exp.IntTyped(-96, u32), "4294967200U"},
		{exp.IntTyped(-1, i32), "-1"},
		{exp.IntTyped('a', tp.Char{}), "'a'"},
		{exp.IntTyped('\n', tp.Char{}), `'\n'`},
		{exp.IntTyped('\'', tp.Char{}), `'\''`},
		{exp.Long(5), "5LL"},
		{exp.Long(4096), "0x1000LL"},
		{exp.Flt(2), "2."},
		{exp.Flt(1.5), "1.5"},
		{exp.Flt(1.0 / 3), "0.3333333333333333"},
		{exp.Flt(123456789), "1.23456789e+08"},
		{exp.Flt(1e20), "1.0e+20"},
		{exp.Flt(-2e-7), "-2.0e-07"},
		{exp.Str("hi"), `"hi"`},
		{exp.FuncName("main"), "main"},
		{bin(exp.OpLessUns, l("a"), k(-1)), "a < 0xffffffff"},
		{exp.NewTyped(u32, k(-96)), "4294967200U"},
	} {
		assert.Equal(t, tc.s, Render(tc.e, nil), "%v", tc.e)
	}
}

func TestRenderFloatReadsBack(t *testing.T) {
	for _, f := range []float64{0, 2, -0.5, 1.0 / 3, 0.1, 123456789, 1e20, 6.02214076e23, 5e-324, math.MaxFloat64} {
		s := Render(exp.Flt(f), nil)

		assert.Contains(t, s, ".", "%v", f)

		back, err := strconv.ParseFloat(s, 64)
		if assert.NoError(t, err, s) {
			assert.Equal(t, f, back, s)
		}
	}
}

func TestRenderUnsignedWidth(t *testing.T) {
	assert.Equal(t, "a < 0xffffffff", Render(bin(exp.OpLessUns, l("a"), k(-1)), nil))
	assert.Equal(t, "a < 0xffff", Render(bin(exp.OpLessUns, l("a"), k(-1)), &conf.Settings{WordBits: 16}))
	assert.Equal(t, "a < 0xffffffffffffffff", Render(bin(exp.OpLessUns, l("a"), k(-1)), &conf.Settings{WordBits: 64}))
	assert.Equal(t, "0xff", Render(exp.IntTyped(-1, tp.Int{Bits: 8, Sign: tp.Unsigned}), &conf.Settings{WordBits: 64}))
}

func TestRenderIdioms(t *testing.T) {
	p := exp.Mem(l("p"))

	for _, tc := range []struct {
		e exp.Exp
		s string
	}{
		{exp.AddrOf(exp.Mem(l("p"))), "p"},
		{exp.AddrOf(l("x")), "&x"},
		{bin(exp.OpBitAnd, l("a"), k(0xfffffff0)), "a & ~0xf"},
		{bin(exp.OpBitAnd, l("a"), k(0xff)), "a & 0xff"},
		{tern(exp.OpAt, l("a"), k(7), k(4)), "(a >> 4 & 0xf)"},
		{tern(exp.OpAt, l("a"), k(1), k(0)), "(a >> 0 & 3)"},
		{exp.NewTyped(i32, p.Clone()), "*(int *)p"},
		{exp.NewTyped(i32, l("x")), "(int)x"},
		{exp.NewTyped(i32, exp.NewTyped(i32, l("x"))), "(int)x"},
		{tern(exp.OpSgnEx, k(16), k(32), l("x")), "(int)x"},
		{tern(exp.OpTruncs, k(32), k(8), l("x")), "(char)x"},
		{tern(exp.OpTruncu, k(32), k(8), l("x")), "(unsigned char)x"},
		{tern(exp.OpZfill, k(16), k(32), p.Clone()), "*(unsigned short *)p"},
		{tern(exp.OpZfill, k(16), k(32), l("x")), "x"},
		{tern(exp.OpFsize, k(64), k(64), p.Clone()), "*(double *)p"},
		{tern(exp.OpItof, k(32), k(64), l("x")), "(double)x"},
		{tern(exp.OpFtoi, k(64), k(32), l("x")), "(int)x"},
		{exp.NewUnary(exp.OpSqrt, l("a")), "sqrt(a)"},
		{exp.NewUnary(exp.OpLoge, l("a")), "log(a)"},
		{bin(exp.OpPow, l("a"), k(2)), "pow(a, 2)"},
		{bin(exp.OpRotateL, l("a"), k(3)), "ROTL(a, 3)"},
		{bin(exp.OpSize, k(16), l("a")), "a"},
		{bin(exp.OpFlagCall, exp.FuncName("SUBFLAGS"), list(l("a"), l("b"))), "SUBFLAGS(a, b)"},
		{list(k(1), k(2)), "{ 1, 2 }"},
		{bin(exp.OpArrayIndex, exp.Global("arr"), k(3)), "arr[3]"},
		{bin(exp.OpMemberAccess, p.Clone(), exp.Str("f")), "p->f"},
		{bin(exp.OpMemberAccess, l("s"), exp.Str("f")), "s.f"},
		{exp.Reg(24), "r24"},
		{exp.PC(), "pc"},
		{exp.NewTerminal(exp.OpFlags), "flags"},
		{exp.NewTerminal(exp.OpZF), "ZF"},
		{exp.True(), "true"},
		{exp.NewUnary(exp.OpMachFtr, exp.Str("%rdtsc")), "/* machine specific */ (int) rdtsc"},
	} {
		assert.Equal(t, tc.s, Render(tc.e, nil), "%v", tc.e)
	}
}

func TestRenderNoDecompile(t *testing.T) {
	s := &conf.Settings{NoDecompile: true}

	assert.Equal(t, "MEMOF(p + 4)", Render(exp.Mem(exp.Plus(l("p"), k(4))), s))
	assert.Equal(t, "DOUBLE_MEMOF(p)", Render(tern(exp.OpFsize, k(64), k(64), exp.Mem(l("p"))), s))
	assert.Equal(t, "FLOAT_MEMOF(p)", Render(exp.NewTyped(tp.Float{Bits: 32}, exp.Mem(l("p"))), s))
}

func TestRenderGlobalAddr(t *testing.T) {
	prog := ir.NewProgram("test")
	prog.AddGlobal(&ir.Global{Name: "arr", Type: tp.Array{X: i32, Len: 4}})
	prog.AddGlobal(&ir.Global{Name: "msg", Type: tp.Ptr{X: tp.Char{}}})
	prog.AddGlobal(&ir.Global{Name: "n", Type: i32})

	r := NewRenderer(nil)
	r.Prog = prog

	assert.Equal(t, "arr", string(r.AppendExp(nil, exp.AddrOf(exp.Global("arr")), PrecNone)))
	assert.Equal(t, "msg", string(r.AppendExp(nil, exp.AddrOf(exp.Global("msg")), PrecNone)))
	assert.Equal(t, "&n", string(r.AppendExp(nil, exp.AddrOf(exp.Global("n")), PrecNone)))
}

func TestRenderUnrenderable(t *testing.T) {
	r := NewRenderer(nil)
	r.Proc = ir.NewProc("f", 0x100)

	b := r.AppendExp(nil, exp.Plus(l("a"), exp.Wild()), PrecNone)
	assert.Equal(t, "a + ", string(b))

	b = r.AppendExp(nil, exp.NewUnary(exp.OpSignExt, l("a")), PrecNone)
	assert.Empty(t, b)

	require.Len(t, r.Warnings(), 2)
	assert.Equal(t, Warning{Proc: "f", Op: exp.OpWild, Msg: "case not implemented"}, r.Warnings()[0])
	assert.Equal(t, exp.OpSignExt, r.Warnings()[1].Op)

	b = r.AppendExp(nil, exp.NewRef(l("x"), 3), PrecNone)
	assert.Equal(t, "x", string(b))
	assert.Len(t, r.Warnings(), 3)
}

func TestTypeIdent(t *testing.T) {
	r := NewRenderer(nil)

	for _, tc := range []struct {
		t tp.Type
		s string
	}{
		{i32, "int x"},
		{nil, "int x"},
		{tp.Ptr{X: tp.Char{}}, "char *x"},
		{tp.Ptr{X: tp.Array{X: i32, Len: 4}}, "int *x"},
		{tp.Array{X: i32, Len: 4}, "int x[4]"},
		{tp.Ptr{X: tp.Func{Ret: tp.Void{}, Params: []tp.Type{i32}}}, "void (*x)(int)"},
		{tp.Void{}, "int x"},
	} {
		assert.Equal(t, tc.s, string(r.appendTypeIdent(nil, tc.t, "x")), "%v", tc.t)
	}

	assert.Len(t, r.Warnings(), 1)
}
