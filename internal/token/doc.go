// Package token defines lexical token kinds of the script language.
// Invariants:
//   - Token.Text is a slice of the original source (no copies, no unescaping).
//   - Token.Span matches Text exactly, except for the synthetic Newline,
//     Indent and Dedent tokens whose spans are empty.
//   - Comments and blank lines never reach the token stream.
package token
