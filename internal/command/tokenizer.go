package command

import (
	"strconv"
	"strings"
	"unicode"
)

// tokenize splits a REPL line into arguments. Double quotes group words and
// "" yields an empty argument. A backslash escapes the next rune; \n, \r, \t,
// \0 and \xHH produce the matching byte so binary values can be typed.
func tokenize(input string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	quoted := false // current token had quotes, keep it even when empty
	escaped := false

	flush := func() {
		if current.Len() > 0 || quoted {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		quoted = false
	}

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if escaped {
			escaped = false
			switch r {
			case 'n':
				current.WriteByte('\n')
			case 'r':
				current.WriteByte('\r')
			case 't':
				current.WriteByte('\t')
			case '0':
				current.WriteByte(0)
			case 'x':
				if i+2 < len(runes) {
					if b, err := strconv.ParseUint(string(runes[i+1:i+3]), 16, 8); err == nil {
						current.WriteByte(byte(b))
						i += 2
						continue
					}
				}
				current.WriteRune(r)
			default:
				current.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case unicode.IsSpace(r) && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}

	flush()
	return tokens
}

// Split tokenizes a command line the way the REPL does.
func Split(line string) []string {
	return tokenize(line)
}
