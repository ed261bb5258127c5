package scenario

import (
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

// Expand replaces ${NAME} and $NAME references in s, where NAME is a
// letter or underscore followed by letters, digits or underscores. Lookup
// order is the run's saved variables, then the suite env, then the process
// environment. RANDOM yields a fresh number in [100, 1099) on every
// reference. Unknown names expand to the empty string.
//
// "$$" is a literal dollar. Any other "$" that does not start a reference
// is kept as written, so "cost $5" and "p@ss$-word" pass through intact.
// Substituted values are not expanded again.
func Expand(s string, scopes ...map[string]string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '$' || i+1 == len(s) {
			b.WriteByte(s[i])
			i++
			continue
		}
		name, width := reference(s[i+1:])
		switch {
		case s[i+1] == '$':
			b.WriteByte('$')
			i += 2
		case width == 0:
			b.WriteByte('$')
			i++
		default:
			b.WriteString(lookup(name, scopes))
			i += 1 + width
		}
	}
	return b.String()
}

// reference parses the text after a '$'. It returns the variable name and
// the number of bytes it spans, or width 0 when s does not start one.
func reference(s string) (name string, width int) {
	if s[0] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 || !isIdent(s[1:end]) {
			return "", 0
		}
		return s[1:end], end + 1
	}
	n := 0
	for n < len(s) && isIdentByte(s[n], n == 0) {
		n++
	}
	return s[:n], n
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i], i == 0) {
			return false
		}
	}
	return true
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		return true
	case '0' <= c && c <= '9':
		return !first
	}
	return false
}

func lookup(name string, scopes []map[string]string) string {
	if name == "RANDOM" {
		return strconv.Itoa(rand.IntN(999) + 100)
	}
	for _, scope := range scopes {
		if v, ok := scope[name]; ok {
			return v
		}
	}
	return os.Getenv(name)
}
