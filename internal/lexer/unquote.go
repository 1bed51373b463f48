package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errNotQuoted = errors.New("string literal is not quoted")

// Unquote decodes the text of a StringLit token. Unknown escape sequences
// are kept verbatim, backslash included.
func Unquote(text string) (string, error) {
	n := 1
	if len(text) >= 6 && (strings.HasPrefix(text, `"""`) || strings.HasPrefix(text, `'''`)) {
		n = 3
	}
	if len(text) < 2*n || text[0] != text[len(text)-1] || (text[0] != '"' && text[0] != '\'') {
		return "", errNotQuoted
	}
	body := text[n : len(text)-n]
	if !strings.Contains(body, `\`) {
		return body, nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch e := body[i]; e {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case '\n':
			// line continuation inside the literal
		case 'x', 'u', 'U':
			size := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if i+size >= len(body) {
				return "", fmt.Errorf("truncated \\%c escape", e)
			}
			v, err := strconv.ParseUint(body[i+1:i+1+size], 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return "", fmt.Errorf("invalid \\%c escape", e)
			}
			sb.WriteRune(rune(v))
			i += size
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String(), nil
}
