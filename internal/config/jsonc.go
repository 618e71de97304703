package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// normalizeJSONC blanks out comments and trailing commas in one pass.
// Byte offsets and line breaks are preserved so decode errors still point at
// the original line and column.
func normalizeJSONC(content string) (string, error) {
	out := make([]byte, 0, len(content))
	pendingComma := -1

	for i := 0; i < len(content); i++ {
		ch := content[i]

		switch {
		case ch == '"':
			end, err := skipString(content, i)
			if err != nil {
				return "", err
			}
			out = append(out, content[i:end]...)
			i = end - 1
			pendingComma = -1

		case ch == '/' && i+1 < len(content) && content[i+1] == '/':
			for i < len(content) && content[i] != '\n' && content[i] != '\r' {
				out = append(out, ' ')
				i++
			}
			i--

		case ch == '/' && i+1 < len(content) && content[i+1] == '*':
			out = append(out, ' ', ' ')
			i += 2
			closed := false
			for ; i < len(content); i++ {
				if content[i] == '*' && i+1 < len(content) && content[i+1] == '/' {
					out = append(out, ' ', ' ')
					i++
					closed = true
					break
				}
				out = append(out, blank(content[i]))
			}
			if !closed {
				return "", fmt.Errorf("unterminated block comment in JSONC")
			}

		case ch == ',':
			out = append(out, ch)
			pendingComma = len(out) - 1

		case ch == '}' || ch == ']':
			if pendingComma >= 0 {
				out[pendingComma] = ' '
				pendingComma = -1
			}
			out = append(out, ch)

		case isJSONWhitespace(ch):
			out = append(out, ch)

		default:
			out = append(out, ch)
			pendingComma = -1
		}
	}
	return string(out), nil
}

// skipString returns the index just past the string literal starting at start.
// An unterminated literal is left for the JSON decoder to report.
func skipString(content string, start int) (int, error) {
	for i := start + 1; i < len(content); i++ {
		switch content[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}
	return len(content), nil
}

func blank(ch byte) byte {
	if ch == '\n' || ch == '\r' || ch == '\t' {
		return ch
	}
	return ' '
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}
	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}
	limit := min(int(offset), len(content))

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
