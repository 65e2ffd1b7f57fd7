/*
Copyright © 2026 3 Leaps <info@3leaps.net>
*/
package pattern

import (
	"strings"
)

const (
	ReasonRegexCompileError = "regex_compile_error"
	ReasonGlobToRegexError  = "glob_syntax_error"
)

// GlobToRegexp converts a glob to an unanchored regular expression body.
// Character classes and alternation groups are escaped; the conversion is for
// display and is not used for matching.
func GlobToRegexp(glob string) (string, error) {
	if glob == "" {
		return "", ErrEmptyPattern
	}

	if strings.HasPrefix(glob, "!") {
		return "", ErrNegationNotSupported
	}

	var result strings.Builder

	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			if i+1 < len(glob) && glob[i+1] == '*' {
				if i+2 < len(glob) && glob[i+2] == '/' {
					result.WriteString("(.*/)?")
					i += 2
				} else {
					result.WriteString(".*")
					i++
				}
			} else {
				result.WriteString("[^/]*")
			}
		case '?':
			result.WriteString("[^/]")
		case '.', '+', '(', ')', '[', ']', '{', '}', '^', '$', '|', '\\':
			result.WriteByte('\\')
			result.WriteByte(c)
		default:
			result.WriteByte(c)
		}
	}

	return result.String(), nil
}

var (
	ErrEmptyPattern         = errorString("empty pattern")
	ErrNegationNotSupported = errorString("negation patterns not supported")
)

type errorString string

func (e errorString) Error() string { return string(e) }
