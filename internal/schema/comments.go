package schema

import (
	"errors"
	"fmt"
)

var ErrUnterminatedComment = errors.New("unterminated block comment")

// StripComments removes "// ..." line comments and "/* ... */" block comments from a
// JSON document. Comment markers inside string literals are left untouched. Removed
// comments are replaced by spaces (newlines are kept) so byte offsets and line numbers
// in later parse errors still point at the original text.
func StripComments(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)

	inString := false
	for i := 0; i < len(out); i++ {
		c := out[i]

		if inString {
			switch c {
			case '\\':
				i++ // skip the escaped byte
			case '"':
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true

		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			for ; i < len(out) && out[i] != '\n'; i++ {
				out[i] = ' '
			}

		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			start := i
			out[i], out[i+1] = ' ', ' '
			i += 2
			closed := false
			for ; i < len(out); i++ {
				if out[i] == '*' && i+1 < len(out) && out[i+1] == '/' {
					out[i], out[i+1] = ' ', ' '
					i++
					closed = true
					break
				}
				if out[i] != '\n' {
					out[i] = ' '
				}
			}
			if !closed {
				return nil, fmt.Errorf("%w at offset %d", ErrUnterminatedComment, start)
			}
		}
	}
	return out, nil
}
