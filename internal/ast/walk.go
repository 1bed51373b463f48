package ast

// Inspect visits n and its children depth-first while f returns true.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	exprs := func(xs []Expr) {
		for _, x := range xs {
			Inspect(x, f)
		}
	}
	stmts := func(ss []Stmt) {
		for _, s := range ss {
			Inspect(s, f)
		}
	}
	switch n := n.(type) {
	case *Attribute:
		Inspect(n.X, f)
	case *Subscript:
		Inspect(n.X, f)
		Inspect(n.Index, f)
	case *Call:
		Inspect(n.Fn, f)
		exprs(n.Args)
		for _, kw := range n.Keywords {
			Inspect(kw.Value, f)
		}
		inspectOpt(n.Star, f)
		inspectOpt(n.DStar, f)
	case *BinOp:
		Inspect(n.L, f)
		Inspect(n.R, f)
	case *UnaryOp:
		Inspect(n.X, f)
	case *BoolOp:
		Inspect(n.L, f)
		Inspect(n.R, f)
	case *Compare:
		Inspect(n.L, f)
		exprs(n.Rs)
	case *IfExpr:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *List:
		exprs(n.Elts)
	case *Tuple:
		exprs(n.Elts)
	case *Dict:
		exprs(n.Keys)
		exprs(n.Values)
	case *ExprStmt:
		Inspect(n.X, f)
	case *Assign:
		exprs(n.Targets)
		Inspect(n.Value, f)
	case *AugAssign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *FuncDef:
		for _, p := range n.Params {
			inspectOpt(p.Default, f)
		}
		stmts(n.Body)
	case *ClassDef:
		exprs(n.Bases)
		stmts(n.Body)
	case *Return:
		inspectOpt(n.Value, f)
	case *If:
		Inspect(n.Cond, f)
		stmts(n.Body)
		stmts(n.Else)
	case *While:
		Inspect(n.Cond, f)
		stmts(n.Body)
	case *For:
		Inspect(n.Target, f)
		Inspect(n.Iter, f)
		stmts(n.Body)
	case *Raise:
		inspectOpt(n.Exc, f)
	case *Try:
		stmts(n.Body)
		for i := range n.Handlers {
			inspectOpt(n.Handlers[i].Type, f)
			stmts(n.Handlers[i].Body)
		}
		stmts(n.Else)
		stmts(n.Finally)
	}
}

func inspectOpt(x Expr, f func(Node) bool) {
	if x != nil {
		Inspect(x, f)
	}
}
