// Package glob converts the include/exclude shell-glob patterns used by the
// scanner and by the chunk and hash stages into anchored regular expressions
// matched against tree-relative paths.
package glob

import (
	"fmt"
	"regexp"
	"strings"
)

// metacharsOutsideClass are regex-significant characters that escapeLiteral
// backslash-escapes when emitting a literal: those with no glob meaning of
// their own, plus star, question mark, bracket and brace, which reach
// escapeLiteral only when backslash-escaped in the pattern (unescaped, they
// are handled as dedicated glob syntax elsewhere).
const metacharsOutsideClass = `.+()|^$\*?[]{}`

// GlobToRegexp compiles a shell-glob pattern into a regular expression
// anchored so it matches a whole tree-relative path component: an
// unrooted pattern ("*.js") matches at the start of the path or
// immediately after any "/"; a rooted pattern ("/index.html") matches only
// at the very start.
func GlobToRegexp(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	anchor := `(^|/)`
	if strings.HasPrefix(pattern, "/") {
		anchor = `^`
		pattern = pattern[1:]
	}

	runes := []rune(pattern)
	var out strings.Builder
	out.WriteString(anchor)

	stars := 0
	braceDepth := 0

	flushStars := func() error {
		switch stars {
		case 0:
			// nothing pending
		case 1:
			out.WriteString(`[^/]*`)
		case 2:
			out.WriteString(`.*`)
		default:
			return fmt.Errorf("too many stars in pattern %q", pattern)
		}
		stars = 0
		return nil
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if c != '*' {
			if err := flushStars(); err != nil {
				return nil, err
			}
		}

		switch c {
		case '*':
			stars++
		case '\\':
			if i+1 >= len(runes) {
				out.WriteString(`\\`)
				continue
			}
			i++
			out.WriteString(escapeLiteral(runes[i]))
		case '?':
			out.WriteString(`[^/]`)
		case '[':
			end, err := scanBracket(runes, i)
			if err != nil {
				return nil, err
			}
			out.WriteString(string(runes[i : end+1]))
			i = end
		case ']':
			return nil, fmt.Errorf("mismatched ']' in pattern %q", pattern)
		case '{':
			if braceDepth > 0 {
				return nil, fmt.Errorf("can't nest { in pattern %q", pattern)
			}
			braceDepth++
			out.WriteString(`(`)
		case '}':
			if braceDepth == 0 {
				return nil, fmt.Errorf("mismatched '{' and '}' in pattern %q", pattern)
			}
			braceDepth--
			out.WriteString(`)`)
		case ',':
			if braceDepth > 0 {
				out.WriteString(`|`)
			} else {
				out.WriteString(`,`)
			}
		default:
			out.WriteString(escapeLiteral(c))
		}
	}

	if err := flushStars(); err != nil {
		return nil, err
	}
	if braceDepth > 0 {
		return nil, fmt.Errorf("mismatched '{' and '}' in pattern %q", pattern)
	}

	out.WriteString(`$`)

	expr := out.String()
	if ignoreCase {
		expr = `(?i)` + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
	}
	return re, nil
}

// scanBracket finds the index of the ']' closing the bracket expression
// that starts at runes[start] (which must be '['), treating backslash
// escapes and POSIX class/collating/equivalence sub-expressions
// ("[:alpha:]", "[.a.]", "[=a=]") as opaque so an embedded ']' inside one
// of those doesn't end the bracket expression early.
func scanBracket(runes []rune, start int) (end int, err error) {
	j := start + 1
	if j < len(runes) && (runes[j] == '^' || runes[j] == '!') {
		j++
	}
	if j < len(runes) && runes[j] == ']' {
		j++ // a ']' immediately after '[' or '[^' is a literal member
	}
	for j < len(runes) {
		switch {
		case runes[j] == '\\' && j+1 < len(runes):
			j += 2
		case runes[j] == '[' && j+1 < len(runes) && strings.ContainsRune(":.=", runes[j+1]):
			delim := runes[j+1]
			k := j + 2
			for k+1 < len(runes) && !(runes[k] == delim && runes[k+1] == ']') {
				k++
			}
			if k+1 >= len(runes) {
				return 0, fmt.Errorf("mismatched '[' and ']'")
			}
			j = k + 2
		case runes[j] == ']':
			return j, nil
		default:
			j++
		}
	}
	return 0, fmt.Errorf("mismatched '[' and ']'")
}

// escapeLiteral returns c, backslash-escaped if it would otherwise carry
// regex meaning.
func escapeLiteral(c rune) string {
	if strings.ContainsRune(metacharsOutsideClass, c) {
		return `\` + string(c)
	}
	return string(c)
}

// Matcher holds a compiled set of include/exclude glob patterns, matched in
// the order the chunk and hash stages require: exclude first, then include.
type Matcher struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewMatcher compiles include and exclude glob pattern lists.
func NewMatcher(include, exclude []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range exclude {
		re, err := GlobToRegexp(p, false)
		if err != nil {
			return nil, err
		}
		m.exclude = append(m.exclude, re)
	}
	for _, p := range include {
		re, err := GlobToRegexp(p, false)
		if err != nil {
			return nil, err
		}
		m.include = append(m.include, re)
	}
	return m, nil
}

// Included reports whether relativePath matches at least one include
// pattern and no exclude pattern. An empty include list never matches
// (nothing is implicitly included).
func (m *Matcher) Included(relativePath string) bool {
	for _, re := range m.exclude {
		if re.MatchString(relativePath) {
			return false
		}
	}
	for _, re := range m.include {
		if re.MatchString(relativePath) {
			return true
		}
	}
	return false
}

// Excluded reports whether relativePath matches any exclude pattern,
// ignoring include patterns entirely. Used by the scanner, which only
// prunes, and never positively includes.
func (m *Matcher) Excluded(relativePath string) bool {
	for _, re := range m.exclude {
		if re.MatchString(relativePath) {
			return true
		}
	}
	return false
}
