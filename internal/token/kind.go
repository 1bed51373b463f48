package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF
	// Newline ends a logical line.
	Newline
	// Indent opens a block.
	Indent
	// Dedent closes a block.
	Dedent

	// Ident represents an identifier token.
	Ident

	KwDef      // def
	KwClass    // class
	KwReturn   // return
	KwIf       // if
	KwElif     // elif
	KwElse     // else
	KwWhile    // while
	KwFor      // for
	KwIn       // in
	KwBreak    // break
	KwContinue // continue
	KwPass     // pass
	KwImport   // import
	KwFrom     // from
	KwAs       // as
	KwRaise    // raise
	KwTry      // try
	KwExcept   // except
	KwFinally  // finally
	KwGlobal   // global
	KwAnd      // and
	KwOr       // or
	KwNot      // not
	KwIs       // is
	KwNone     // None
	KwTrue     // True
	KwFalse    // False

	// IntLit represents the integer literal token.
	IntLit
	// FloatLit represents the float literal token.
	FloatLit
	// StringLit represents the string literal token.
	StringLit

	Plus             // +
	Minus            // -
	Star             // *
	StarStar         // **
	Slash            // /
	SlashSlash       // //
	Percent          // %
	Assign           // =
	PlusAssign       // +=
	MinusAssign      // -=
	StarAssign       // *=
	SlashAssign      // /=
	SlashSlashAssign // //=
	PercentAssign    // %=
	EqEq             // ==
	BangEq           // !=
	Lt               // <
	LtEq             // <=
	Gt               // >
	GtEq             // >=
	Colon            // :
	Semicolon        // ;
	Comma            // ,
	Dot              // .
	LParen           // (
	RParen           // )
	LBracket         // [
	RBracket         // ]
	LBrace           // {
	RBrace           // }
)

var kindNames = [...]string{
	Invalid:          "invalid",
	EOF:              "end of file",
	Newline:          "newline",
	Indent:           "indent",
	Dedent:           "dedent",
	Ident:            "identifier",
	KwDef:            "def",
	KwClass:          "class",
	KwReturn:         "return",
	KwIf:             "if",
	KwElif:           "elif",
	KwElse:           "else",
	KwWhile:          "while",
	KwFor:            "for",
	KwIn:             "in",
	KwBreak:          "break",
	KwContinue:       "continue",
	KwPass:           "pass",
	KwImport:         "import",
	KwFrom:           "from",
	KwAs:             "as",
	KwRaise:          "raise",
	KwTry:            "try",
	KwExcept:         "except",
	KwFinally:        "finally",
	KwGlobal:         "global",
	KwAnd:            "and",
	KwOr:             "or",
	KwNot:            "not",
	KwIs:             "is",
	KwNone:           "None",
	KwTrue:           "True",
	KwFalse:          "False",
	IntLit:           "integer literal",
	FloatLit:         "float literal",
	StringLit:        "string literal",
	Plus:             "+",
	Minus:            "-",
	Star:             "*",
	StarStar:         "**",
	Slash:            "/",
	SlashSlash:       "//",
	Percent:          "%",
	Assign:           "=",
	PlusAssign:       "+=",
	MinusAssign:      "-=",
	StarAssign:       "*=",
	SlashAssign:      "/=",
	SlashSlashAssign: "//=",
	PercentAssign:    "%=",
	EqEq:             "==",
	BangEq:           "!=",
	Lt:               "<",
	LtEq:             "<=",
	Gt:               ">",
	GtEq:             ">=",
	Colon:            ":",
	Semicolon:        ";",
	Comma:            ",",
	Dot:              ".",
	LParen:           "(",
	RParen:           ")",
	LBracket:         "[",
	RBracket:         "]",
	LBrace:           "{",
	RBrace:           "}",
}

// String returns the string representation of Kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// AugmentedBase maps an augmented assignment operator to its binary
// operator; ok is false for every other kind.
func (k Kind) AugmentedBase() (Kind, bool) {
	switch k {
	case PlusAssign:
		return Plus, true
	case MinusAssign:
		return Minus, true
	case StarAssign:
		return Star, true
	case SlashAssign:
		return Slash, true
	case SlashSlashAssign:
		return SlashSlash, true
	case PercentAssign:
		return Percent, true
	default:
		return Invalid, false
	}
}
