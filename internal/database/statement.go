package database

import (
	"strings"
	"unicode"
)

// LooksLikeSelect reports whether the first keyword of query is SELECT.
// Leading whitespace, comments and opening parentheses are skipped.
//
// This is a lexical hint only: "WITH ... SELECT" and "WITH ... DELETE"
// both return false. Sessions classify results from the driver's result
// description instead, so use this only before execution, e.g. to ask
// for confirmation.
func LooksLikeSelect(query string) bool {
	return strings.EqualFold(leadingKeyword(query), "select")
}

func leadingKeyword(query string) string {
	s := query
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || r == '('
		})
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool {
				return !unicode.IsLetter(r) && r != '_'
			})
			if end < 0 {
				return s
			}
			return s[:end]
		}
	}
}
