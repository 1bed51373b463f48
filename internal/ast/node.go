// Package ast defines the syntax tree of the script language.
//
// Nodes are plain pointer structs; every node records the 1-based line of
// its first token, which is what the interpreter reports in frames.
package ast

import "xdtrace/internal/source"

// Loc is the position of a node.
type Loc struct {
	Span source.Span
	Line int
}

// Pos returns the node position.
func (l Loc) Pos() Loc { return l }

// Node is implemented by every tree node.
type Node interface {
	Pos() Loc
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Module is a parsed source file.
type Module struct {
	Path string
	Body []Stmt
}
