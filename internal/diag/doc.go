// Package diag defines the diagnostic model shared by the lexer and the
// parser of the script language.
//
// Producers emit through a Reporter; BagReporter collects into a Bag, which
// sorts deterministically. A non-empty Bag of errors becomes a *SyntaxError,
// the error value returned to callers that load source text. Pretty renders
// diagnostics with the offending line and a caret underline.
package diag
