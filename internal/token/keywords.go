package token

var keywords = map[string]Kind{
	"def":      KwDef,
	"class":    KwClass,
	"return":   KwReturn,
	"if":       KwIf,
	"elif":     KwElif,
	"else":     KwElse,
	"while":    KwWhile,
	"for":      KwFor,
	"in":       KwIn,
	"break":    KwBreak,
	"continue": KwContinue,
	"pass":     KwPass,
	"import":   KwImport,
	"from":     KwFrom,
	"as":       KwAs,
	"raise":    KwRaise,
	"try":      KwTry,
	"except":   KwExcept,
	"finally":  KwFinally,
	"global":   KwGlobal,
	"and":      KwAnd,
	"or":       KwOr,
	"not":      KwNot,
	"is":       KwIs,
	"None":     KwNone,
	"True":     KwTrue,
	"False":    KwFalse,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
