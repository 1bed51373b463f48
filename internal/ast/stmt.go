package ast

import "xdtrace/internal/token"

type (
	// ExprStmt evaluates X for its effects.
	ExprStmt struct {
		Loc
		X Expr
	}

	// Assign is Targets[0] = Targets[1] = ... = Value.
	Assign struct {
		Loc
		Targets []Expr
		Value   Expr
	}

	// AugAssign is Target Op= Value; Op is the binary operator.
	AugAssign struct {
		Loc
		Target Expr
		Op     token.Kind
		Value  Expr
	}

	// Param is one named positional parameter.
	Param struct {
		Name    string
		Default Expr // nil when required
	}

	// FuncDef is a def statement.
	FuncDef struct {
		Loc
		Name    string
		Params  []Param
		VarArgs string
		KwArgs  string
		Body    []Stmt
	}

	// ClassDef is a class statement.
	ClassDef struct {
		Loc
		Name  string
		Bases []Expr
		Body  []Stmt
	}

	// Return leaves the current function; Value may be nil.
	Return struct {
		Loc
		Value Expr
	}

	// If is if/elif/else; elif chains nest in Else.
	If struct {
		Loc
		Cond Expr
		Body []Stmt
		Else []Stmt
	}

	// While is a while loop.
	While struct {
		Loc
		Cond Expr
		Body []Stmt
	}

	// For is a for-in loop.
	For struct {
		Loc
		Target Expr
		Iter   Expr
		Body   []Stmt
	}

	Break    struct{ Loc }
	Continue struct{ Loc }
	Pass     struct{ Loc }

	// Alias is one imported name with its optional binding name.
	Alias struct {
		Name   string
		AsName string
	}

	// Import is import a.b [as c], ...
	Import struct {
		Loc
		Names []Alias
	}

	// ImportFrom is from module import a [as b], ...
	ImportFrom struct {
		Loc
		Module string
		Names  []Alias
	}

	// Raise raises Exc, or re-raises the active exception when Exc is nil.
	Raise struct {
		Loc
		Exc Expr
	}

	// Handler is one except clause. Type nil catches everything.
	Handler struct {
		Loc
		Type Expr
		Name string
		Body []Stmt
	}

	// Try is try/except/else/finally.
	Try struct {
		Loc
		Body     []Stmt
		Handlers []Handler
		Else     []Stmt
		Finally  []Stmt
	}

	// Global declares module-level bindings inside a function.
	Global struct {
		Loc
		Names []string
	}
)

func (*ExprStmt) stmtNode()   {}
func (*Assign) stmtNode()     {}
func (*AugAssign) stmtNode()  {}
func (*FuncDef) stmtNode()    {}
func (*ClassDef) stmtNode()   {}
func (*Return) stmtNode()     {}
func (*If) stmtNode()         {}
func (*While) stmtNode()      {}
func (*For) stmtNode()        {}
func (*Break) stmtNode()      {}
func (*Continue) stmtNode()   {}
func (*Pass) stmtNode()       {}
func (*Import) stmtNode()     {}
func (*ImportFrom) stmtNode() {}
func (*Raise) stmtNode()      {}
func (*Try) stmtNode()        {}
func (*Global) stmtNode()     {}
