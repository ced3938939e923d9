package filter

import (
	"regexp"
	"strings"
)

// pattern is a compiled rsync-style glob. Listing keys are always
// slash-separated relative paths, so matching never sees OS separators.
type pattern struct {
	re      *regexp.Regexp
	spec    string
	dirOnly bool
}

// compile builds a matcher from an rsync-style glob spec. A trailing
// slash restricts the pattern to directories. A leading slash, or any
// interior slash, anchors the pattern at the tree root; a bare name
// matches at any depth.
func compile(spec string) (*pattern, error) {
	p := &pattern{spec: spec}

	body := spec
	if strings.HasSuffix(body, "/") {
		p.dirOnly = true
		body = strings.TrimSuffix(body, "/")
	}

	anchored := strings.HasPrefix(body, "/")
	body = strings.TrimPrefix(body, "/")
	if strings.Contains(body, "/") {
		anchored = true
	}

	expr := translate(body)
	if anchored {
		expr = "^" + expr + "$"
	} else {
		expr = "(^|/)" + expr + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	p.re = re
	return p, nil
}

func (p *pattern) match(relPath string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	return p.re.MatchString(relPath)
}

// translate converts one glob body into a regular expression fragment.
// `*` stops at slashes, `**` crosses them, `?` is any single non-slash
// character, and `[...]` classes pass through with `!` negation mapped
// to `^`.
func translate(body string) string {
	var b strings.Builder
	for i := 0; i < len(body); {
		switch c := body[i]; c {
		case '*':
			switch {
			case strings.HasPrefix(body[i:], "**/"):
				b.WriteString("(.*/)?")
				i += 3
			case strings.HasPrefix(body[i:], "**"):
				b.WriteString(".*")
				i += 2
			default:
				b.WriteString("[^/]*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			cls, rest := scanClass(body[i:])
			if cls == "" {
				b.WriteString(regexp.QuoteMeta("["))
				i++
				break
			}
			b.WriteString(cls)
			i += rest
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	return b.String()
}

// scanClass consumes a [...] class at the start of s, returning the
// translated class and its length in s, or "" when the class is
// unterminated.
func scanClass(s string) (string, int) {
	j := 1
	if j < len(s) && s[j] == '!' {
		j++
	}
	// A ] directly after the opening (or negation) is a literal member.
	if j < len(s) && s[j] == ']' {
		j++
	}
	for j < len(s) && s[j] != ']' {
		j++
	}
	if j >= len(s) {
		return "", 0
	}
	cls := s[1:j]
	if strings.HasPrefix(cls, "!") {
		cls = "^" + cls[1:]
	}
	return "[" + cls + "]", j + 1
}
