package lexer

import (
	"xdtrace/internal/diag"
	"xdtrace/internal/source"
)

type Options struct {
	Reporter diag.Reporter // может быть nil - тогда ошибки игнорируем (но продолжаем лексить)
	TabWidth int           // columns per tab when measuring indentation; default 8
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	diag.ReportError(lx.opts.Reporter, code, sp, msg)
}
