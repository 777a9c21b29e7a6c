package codegen

import "github.com/slowlang/decomp/decomp/exp"

// Prec is the binding strength of a C operator.
type Prec int8

const (
	PrecNone Prec = iota
	PrecComma
	PrecAssign
	PrecCond
	PrecLogOr
	PrecLogAnd
	PrecBitIOr
	PrecBitXor
	PrecBitAnd
	PrecEqual
	PrecRel
	PrecBitShift
	PrecAdd
	PrecMult
	PrecUnary
	PrecPrim
)

type binop struct {
	sym  string
	prec Prec
	uns  bool
}

var binops = map[exp.Oper]binop{
	exp.OpPlus:   {" + ", PrecAdd, false},
	exp.OpFPlus:  {" + ", PrecAdd, false},
	exp.OpMinus:  {" - ", PrecAdd, false},
	exp.OpFMinus: {" - ", PrecAdd, false},

	exp.OpMult:  {" * ", PrecMult, false},
	exp.OpMults: {" * ", PrecMult, false},
	exp.OpFMult: {" * ", PrecMult, false},
	exp.OpDiv:   {" / ", PrecMult, false},
	exp.OpDivs:  {" / ", PrecMult, false},
	exp.OpFDiv:  {" / ", PrecMult, false},
	exp.OpMod:   {" % ", PrecMult, false},
	exp.OpMods:  {" % ", PrecMult, false},

	exp.OpAnd: {" && ", PrecLogAnd, false},
	exp.OpOr:  {" || ", PrecLogOr, false},

	exp.OpEquals:   {" == ", PrecEqual, false},
	exp.OpNotEqual: {" != ", PrecEqual, false},

	exp.OpLess:      {" < ", PrecRel, false},
	exp.OpGtr:       {" > ", PrecRel, false},
	exp.OpLessEq:    {" <= ", PrecRel, false},
	exp.OpGtrEq:     {" >= ", PrecRel, false},
	exp.OpLessUns:   {" < ", PrecRel, true},
	exp.OpGtrUns:    {" > ", PrecRel, true},
	exp.OpLessEqUns: {" <= ", PrecRel, true},
	exp.OpGtrEqUns:  {" >= ", PrecRel, true},

	exp.OpBitAnd: {" & ", PrecBitAnd, false},
	exp.OpBitOr:  {" | ", PrecBitIOr, false},
	exp.OpBitXor: {" ^ ", PrecBitXor, false},

	exp.OpShiftL:  {" << ", PrecBitShift, false},
	exp.OpShiftR:  {" >> ", PrecBitShift, false},
	exp.OpShiftRA: {" >> ", PrecBitShift, false},
}

var unops = map[exp.Oper]string{
	exp.OpNot:  "~",
	exp.OpLNot: "!",
	exp.OpNeg:  "-",
	exp.OpFNeg: "-",
}

var mathCalls = map[exp.Oper]string{
	exp.OpSqrt:   "sqrt",
	exp.OpSin:    "sin",
	exp.OpCos:    "cos",
	exp.OpTan:    "tan",
	exp.OpArcTan: "atan",
	exp.OpLog2:   "log2",
	exp.OpLog10:  "log10",
	exp.OpLoge:   "log",
	exp.OpFabs:   "fabs",
	exp.OpFround: "round",
	exp.OpFtrunc: "trunc",
}

var rotates = map[exp.Oper]string{
	exp.OpRotateL:  "ROTL",
	exp.OpRotateR:  "ROTR",
	exp.OpRotateLC: "ROTLC",
	exp.OpRotateRC: "ROTRC",
}

func open(b []byte, cur, p Prec) []byte {
	if p < cur {
		b = append(b, '(')
	}

	return b
}

func closep(b []byte, cur, p Prec) []byte {
	if p < cur {
		b = append(b, ')')
	}

	return b
}
