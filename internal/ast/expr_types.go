package ast

import (
	"capsule/internal/source"
)

// ExprKind enumerates the different kinds of expressions.
type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprCall
	ExprMethodCall
	ExprBinary
	ExprUnary
	ExprGroup
	ExprMember
	ExprBlock
	ExprClosure
	ExprStruct // synthesized environment constructors only
)

// Expr represents an expression node in the AST.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ExprBinaryOp enumerates binary operator kinds, assignments included.
type ExprBinaryOp uint8

const (
	ExprBinaryAdd ExprBinaryOp = iota
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryMod

	ExprBinaryLogicalAnd
	ExprBinaryLogicalOr

	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq

	ExprBinaryAssign
	ExprBinaryAddAssign
	ExprBinarySubAssign
	ExprBinaryMulAssign
	ExprBinaryDivAssign
	ExprBinaryModAssign
)

var binaryOpText = [...]string{
	ExprBinaryAdd: "+", ExprBinarySub: "-", ExprBinaryMul: "*", ExprBinaryDiv: "/", ExprBinaryMod: "%",
	ExprBinaryLogicalAnd: "&&", ExprBinaryLogicalOr: "||",
	ExprBinaryEq: "==", ExprBinaryNotEq: "!=", ExprBinaryLess: "<", ExprBinaryLessEq: "<=",
	ExprBinaryGreater: ">", ExprBinaryGreaterEq: ">=",
	ExprBinaryAssign: "=", ExprBinaryAddAssign: "+=", ExprBinarySubAssign: "-=",
	ExprBinaryMulAssign: "*=", ExprBinaryDivAssign: "/=", ExprBinaryModAssign: "%=",
}

func (op ExprBinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// IsAssign reports whether op stores into its left operand.
func (op ExprBinaryOp) IsAssign() bool {
	return op >= ExprBinaryAssign
}

// IsComparison covers equality, ordering and the logical connectives;
// their operands are only inspected.
func (op ExprBinaryOp) IsComparison() bool {
	return op >= ExprBinaryLogicalAnd && op <= ExprBinaryGreaterEq
}

// ExprUnaryOp enumerates unary operator kinds.
type ExprUnaryOp uint8

const (
	ExprUnaryMinus ExprUnaryOp = iota
	ExprUnaryNot
	ExprUnaryRef    // &x
	ExprUnaryRefMut // &mut x
	ExprUnaryDeref  // *x
)

func (op ExprUnaryOp) String() string {
	switch op {
	case ExprUnaryMinus:
		return "-"
	case ExprUnaryNot:
		return "!"
	case ExprUnaryRef:
		return "&"
	case ExprUnaryRefMut:
		return "&mut "
	case ExprUnaryDeref:
		return "*"
	}
	return "?"
}

type ExprLitKind uint8

const (
	ExprLitInt ExprLitKind = iota
	ExprLitFloat
	ExprLitString
	ExprLitTrue
	ExprLitFalse
)

type ExprIdentData struct {
	Name source.StringID
}

type ExprLiteralData struct {
	Kind  ExprLitKind
	Value source.StringID
}

type ExprBinaryData struct {
	Op    ExprBinaryOp
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      ExprUnaryOp
	Operand ExprID
}

type ExprCallData struct {
	Target ExprID
	Args   []ExprID
}

// ExprMethodCallData is `receiver.name(args)`.
type ExprMethodCallData struct {
	Receiver ExprID
	Name     source.StringID
	NameSpan source.Span
	Args     []ExprID
}

type ExprMemberData struct {
	Target ExprID
	Field  source.StringID
}

type ExprGroupData struct {
	Inner ExprID
}

// ExprBlockData is `{ stmts; tail }`; Tail is NoExprID for a unit block.
type ExprBlockData struct {
	Stmts []StmtID
	Tail  ExprID
}

type ClosureParam struct {
	Name source.StringID
	Span source.Span
	Type TypeID // NoTypeID when inferred
}

// ExprClosureData is `[move] |params| [-> T] body`.
type ExprClosureData struct {
	Params   []ClosureParam
	Result   TypeID
	Body     ExprID
	Move     bool
	MoveSpan source.Span
	// BarSpan is the opening `|` or `||`; a `move ` fix inserts before it.
	BarSpan source.Span
}

type StructFieldInit struct {
	Name  source.StringID
	Value ExprID
}

type ExprStructData struct {
	Type   source.StringID
	Fields []StructFieldInit
}
