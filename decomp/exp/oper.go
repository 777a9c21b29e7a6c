package exp

import "strconv"

type (
	// Oper identifies what an expression node represents.
	// Each Oper belongs to exactly one node variant, see Arity.
	Oper int16
)

const (
	OpInvalid Oper = iota

	// binary

	OpPlus
	OpMinus
	OpMult // unsigned
	OpMults
	OpDiv // unsigned
	OpDivs
	OpMod // unsigned
	OpMods
	OpFPlus
	OpFMinus
	OpFMult
	OpFDiv
	OpPow
	OpAnd // logical
	OpOr
	OpEquals
	OpNotEqual
	OpLess
	OpGtr
	OpLessEq
	OpGtrEq
	OpLessUns
	OpGtrUns
	OpLessEqUns
	OpGtrEqUns
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShiftL
	OpShiftR
	OpShiftRA
	OpRotateL
	OpRotateR
	OpRotateLC
	OpRotateRC
	OpList
	OpFlagCall
	OpSize
	OpArrayIndex
	OpMemberAccess

	// unary

	OpNot // bitwise
	OpLNot
	OpNeg
	OpFNeg
	OpMemOf
	OpRegOf
	OpAddrOf
	OpLocal
	OpParam
	OpGlobal
	OpTemp
	OpSqrt
	OpSin
	OpCos
	OpTan
	OpArcTan
	OpLog2
	OpLog10
	OpLoge
	OpFabs
	OpFround
	OpFtrunc
	OpMachFtr
	OpSignExt

	// ternary

	OpAt
	OpTern
	OpSgnEx
	OpZfill
	OpTruncu
	OpTruncs
	OpFsize
	OpItof
	OpFtoi

	// wrappers

	OpTypedExp
	OpSubscript

	// constants

	OpIntConst
	OpLongConst
	OpFltConst
	OpStrConst
	OpFuncConst

	// terminals

	OpNil
	OpTrue
	OpFalse
	OpPC
	OpFlags
	OpFflags
	OpDefineAll
	OpWild
	OpWildIntConst
	OpWildStrConst
	OpWildMemOf
	OpWildRegOf
	OpWildAddrOf

	// machine flags, must stay last

	OpZF
	OpCF
	OpNF
	OpOF
	OpDF
	OpFZF
	OpFLF
	OpFGF

	opEnd
)

var opNames = [...]string{
	OpInvalid: "Invalid",

	OpPlus:         "Plus",
	OpMinus:        "Minus",
	OpMult:         "Mult",
	OpMults:        "Mults",
	OpDiv:          "Div",
	OpDivs:         "Divs",
	OpMod:          "Mod",
	OpMods:         "Mods",
	OpFPlus:        "FPlus",
	OpFMinus:       "FMinus",
	OpFMult:        "FMult",
	OpFDiv:         "FDiv",
	OpPow:          "Pow",
	OpAnd:          "And",
	OpOr:           "Or",
	OpEquals:       "Equals",
	OpNotEqual:     "NotEqual",
	OpLess:         "Less",
	OpGtr:          "Gtr",
	OpLessEq:       "LessEq",
	OpGtrEq:        "GtrEq",
	OpLessUns:      "LessUns",
	OpGtrUns:       "GtrUns",
	OpLessEqUns:    "LessEqUns",
	OpGtrEqUns:     "GtrEqUns",
	OpBitAnd:       "BitAnd",
	OpBitOr:        "BitOr",
	OpBitXor:       "BitXor",
	OpShiftL:       "ShiftL",
	OpShiftR:       "ShiftR",
	OpShiftRA:      "ShiftRA",
	OpRotateL:      "RotateL",
	OpRotateR:      "RotateR",
	OpRotateLC:     "RotateLC",
	OpRotateRC:     "RotateRC",
	OpList:         "List",
	OpFlagCall:     "FlagCall",
	OpSize:         "Size",
	OpArrayIndex:   "ArrayIndex",
	OpMemberAccess: "MemberAccess",

	OpNot:     "Not",
	OpLNot:    "LNot",
	OpNeg:     "Neg",
	OpFNeg:    "FNeg",
	OpMemOf:   "MemOf",
	OpRegOf:   "RegOf",
	OpAddrOf:  "AddrOf",
	OpLocal:   "Local",
	OpParam:   "Param",
	OpGlobal:  "Global",
	OpTemp:    "Temp",
	OpSqrt:    "Sqrt",
	OpSin:     "Sin",
	OpCos:     "Cos",
	OpTan:     "Tan",
	OpArcTan:  "ArcTan",
	OpLog2:    "Log2",
	OpLog10:   "Log10",
	OpLoge:    "Loge",
	OpFabs:    "Fabs",
	OpFround:  "Fround",
	OpFtrunc:  "Ftrunc",
	OpMachFtr: "MachFtr",
	OpSignExt: "SignExt",

	OpAt:     "At",
	OpTern:   "Tern",
	OpSgnEx:  "SgnEx",
	OpZfill:  "Zfill",
	OpTruncu: "Truncu",
	OpTruncs: "Truncs",
	OpFsize:  "Fsize",
	OpItof:   "Itof",
	OpFtoi:   "Ftoi",

	OpTypedExp:  "TypedExp",
	OpSubscript: "Subscript",

	OpIntConst:  "IntConst",
	OpLongConst: "LongConst",
	OpFltConst:  "FltConst",
	OpStrConst:  "StrConst",
	OpFuncConst: "FuncConst",

	OpNil:          "Nil",
	OpTrue:         "True",
	OpFalse:        "False",
	OpPC:           "PC",
	OpFlags:        "Flags",
	OpFflags:       "Fflags",
	OpDefineAll:    "DefineAll",
	OpWild:         "Wild",
	OpWildIntConst: "WildIntConst",
	OpWildStrConst: "WildStrConst",
	OpWildMemOf:    "WildMemOf",
	OpWildRegOf:    "WildRegOf",
	OpWildAddrOf:   "WildAddrOf",

	OpZF:  "ZF",
	OpCF:  "CF",
	OpNF:  "NF",
	OpOF:  "OF",
	OpDF:  "DF",
	OpFZF: "FZF",
	OpFLF: "FLF",
	OpFGF: "FGF",
}

func (op Oper) String() string {
	if op >= 0 && op < opEnd {
		return opNames[op]
	}

	return "Oper(" + strconv.Itoa(int(op)) + ")"
}

// Arity is the number of subexpressions of a node with this operator.
func (op Oper) Arity() int {
	switch {
	case op >= OpPlus && op <= OpMemberAccess:
		return 2
	case op >= OpNot && op <= OpSignExt:
		return 1
	case op >= OpAt && op <= OpFtoi:
		return 3
	case op == OpTypedExp || op == OpSubscript:
		return 1
	}

	return 0
}

func (op Oper) IsBinary() bool { return op >= OpPlus && op <= OpMemberAccess }
func (op Oper) IsUnary() bool { return op >= OpNot && op <= OpSignExt }
func (op Oper) IsTernary() bool { return op >= OpAt && op <= OpFtoi }
func (op Oper) IsConst() bool { return op >= OpIntConst && op <= OpFuncConst }

func (op Oper) IsTerminal() bool {
	return op >= OpNil && op < opEnd
}

func (op Oper) IsMachineFlag() bool { return op >= OpZF && op < opEnd }

func (op Oper) IsComparison() bool {
	return op >= OpEquals && op <= OpGtrEqUns
}

func (op Oper) IsEquality() bool { return op == OpEquals || op == OpNotEqual }

func (op Oper) IsLocation() bool {
	switch op {
	case OpMemOf, OpRegOf, OpLocal, OpParam, OpGlobal, OpTemp:
		return true
	}

	return false
}

// IsFlags reports whether op names the flags register or one of its bits.
func (op Oper) IsFlags() bool {
	return op == OpFlags || op == OpFflags || op.IsMachineFlag()
}

func (op Oper) IsWild() bool { return op >= OpWild && op <= OpWildAddrOf }

// Inverse is the comparison that is true exactly when op is false.
// ok is false for non-comparisons.
func (op Oper) Inverse() (_ Oper, ok bool) {
	switch op {
	case OpEquals:
		return OpNotEqual, true
	case OpNotEqual:
		return OpEquals, true
	case OpLess:
		return OpGtrEq, true
	case OpGtr:
		return OpLessEq, true
	case OpLessEq:
		return OpGtr, true
	case OpGtrEq:
		return OpLess, true
	case OpLessUns:
		return OpGtrEqUns, true
	case OpGtrUns:
		return OpLessEqUns, true
	case OpLessEqUns:
		return OpGtrUns, true
	case OpGtrEqUns:
		return OpLessUns, true
	}

	return op, false
}
