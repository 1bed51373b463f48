package ast

import "xdtrace/internal/token"

type (
	// Name is a variable reference.
	Name struct {
		Loc
		ID string
	}

	// Const is a literal: int64, float64, string, bool or nil.
	Const struct {
		Loc
		Value any
	}

	// Attribute is X.Name.
	Attribute struct {
		Loc
		X    Expr
		Name string
	}

	// Subscript is X[Index].
	Subscript struct {
		Loc
		X     Expr
		Index Expr
	}

	// Keyword is one name=value argument.
	Keyword struct {
		Name  string
		Value Expr
	}

	// Call is Fn(Args..., Keywords..., *Star, **DStar).
	Call struct {
		Loc
		Fn       Expr
		Args     []Expr
		Keywords []Keyword
		Star     Expr // *args, may be nil
		DStar    Expr // **kwargs, may be nil
	}

	// BinOp is L Op R for arithmetic operators.
	BinOp struct {
		Loc
		Op   token.Kind
		L, R Expr
	}

	// UnaryOp is -X, +X or not X.
	UnaryOp struct {
		Loc
		Op token.Kind
		X  Expr
	}

	// BoolOp is L and R, L or R.
	BoolOp struct {
		Loc
		Op   token.Kind
		L, R Expr
	}

	// Compare is a comparison chain: L Ops[0] Rs[0] Ops[1] Rs[1] ...
	Compare struct {
		Loc
		L   Expr
		Ops []CmpOp
		Rs  []Expr
	}

	// IfExpr is Then if Cond else Else.
	IfExpr struct {
		Loc
		Cond, Then, Else Expr
	}

	// List is [Elts...].
	List struct {
		Loc
		Elts []Expr
	}

	// Tuple is (Elts...) or a bare comma list.
	Tuple struct {
		Loc
		Elts []Expr
	}

	// Dict is {Keys[i]: Values[i]...}.
	Dict struct {
		Loc
		Keys, Values []Expr
	}
)

// CmpOp is a comparison operator.
type CmpOp uint8

const (
	CmpEq CmpOp = iota + 1
	CmpNotEq
	CmpLt
	CmpLtE
	CmpGt
	CmpGtE
	CmpIn
	CmpNotIn
	CmpIs
	CmpIsNot
)

// String returns the string representation of CmpOp.
func (op CmpOp) String() string {
	switch op {
	case CmpEq:
		return "=="
	case CmpNotEq:
		return "!="
	case CmpLt:
		return "<"
	case CmpLtE:
		return "<="
	case CmpGt:
		return ">"
	case CmpGtE:
		return ">="
	case CmpIn:
		return "in"
	case CmpNotIn:
		return "not in"
	case CmpIs:
		return "is"
	case CmpIsNot:
		return "is not"
	default:
		return "?"
	}
}

func (*Name) exprNode()      {}
func (*Const) exprNode()     {}
func (*Attribute) exprNode() {}
func (*Subscript) exprNode() {}
func (*Call) exprNode()      {}
func (*BinOp) exprNode()     {}
func (*UnaryOp) exprNode()   {}
func (*BoolOp) exprNode()    {}
func (*Compare) exprNode()   {}
func (*IfExpr) exprNode()    {}
func (*List) exprNode()      {}
func (*Tuple) exprNode()     {}
func (*Dict) exprNode()      {}
