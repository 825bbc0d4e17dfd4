package pattern

import (
	"regexp"
	"strings"

	"github.com/vyrodovalexey/avaroute/internal/util"
)

const (
	// segmentCapture matches one path segment.
	segmentCapture = `([^/]+)`

	// wildcardSuffix is the pattern suffix that matches any remainder.
	wildcardSuffix = "/*"
)

// identifierPattern is the dynamic segment token grammar.
var identifierPattern = regexp.MustCompile(`:[A-Za-z0-9_-]+`)

// Matcher is a compiled pattern. It is immutable and safe for concurrent use.
type Matcher struct {
	pattern     string
	expression  string
	identifiers []string
	regex       *regexp.Regexp
}

// Compile compiles pattern using a private, unbounded-lifetime regexp.
func Compile(pattern string) (*Matcher, error) {
	return compile(pattern, nil)
}

// compile translates pattern into an anchored expression and compiles it,
// going through cache when one is given.
func compile(pattern string, cache *Cache) (*Matcher, error) {
	if pattern == "" {
		return nil, util.NewPatternError(pattern, nil)
	}

	expression, identifiers := translate(pattern)

	var (
		regex *regexp.Regexp
		err   error
	)
	if cache != nil {
		regex, err = cache.get(expression)
	} else {
		regex, err = regexp.Compile(expression)
	}
	if err != nil {
		return nil, util.NewPatternError(pattern, err)
	}

	return &Matcher{
		pattern:     pattern,
		expression:  expression,
		identifiers: identifiers,
		regex:       regex,
	}, nil
}

// translate walks pattern left to right, quoting literal text, turning
// every :identifier into a segment capture and a trailing /* into an
// optional remainder.
func translate(pattern string) (expression string, identifiers []string) {
	body := pattern
	wildcard := false
	switch {
	case body == "*":
		body, wildcard = "", true
	case strings.HasSuffix(body, wildcardSuffix):
		body, wildcard = strings.TrimSuffix(body, wildcardSuffix), true
	}

	var b strings.Builder
	b.WriteString("(?i)^")

	last := 0
	for _, loc := range identifierPattern.FindAllStringIndex(body, -1) {
		b.WriteString(regexp.QuoteMeta(body[last:loc[0]]))
		b.WriteString(segmentCapture)
		identifiers = append(identifiers, body[loc[0]+1:loc[1]])
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(body[last:]))

	if wildcard {
		if body == "" {
			b.WriteString(".*")
		} else {
			b.WriteString("(?:/.*)?")
		}
	}
	b.WriteString("$")

	return b.String(), identifiers
}

// Match reports whether path matches and returns the captured substrings
// in declaration order.
func (m *Matcher) Match(path string) (matched bool, captures []string) {
	groups := m.regex.FindStringSubmatch(path)
	if groups == nil {
		return false, nil
	}
	return true, groups[1:]
}

// Params matches path and binds every identifier to its capture. When
// the capture count disagrees with the identifier count the match still
// succeeds but no parameters are bound. A repeated identifier keeps its
// last capture.
func (m *Matcher) Params(path string) (params map[string]string, matched bool) {
	matched, captures := m.Match(path)
	if !matched {
		return nil, false
	}

	params = make(map[string]string, len(m.identifiers))
	if len(m.identifiers) == 0 || len(captures) != len(m.identifiers) {
		return params, true
	}

	for i, name := range m.identifiers {
		params[name] = captures[i]
	}
	return params, true
}

// Pattern returns the source pattern.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Expression returns the generated regular expression.
func (m *Matcher) Expression() string {
	return m.expression
}

// Identifiers returns the dynamic segment names in declaration order.
func (m *Matcher) Identifiers() []string {
	out := make([]string, len(m.identifiers))
	copy(out, m.identifiers)
	return out
}

// HasWildcard checks if a pattern ends with the wildcard suffix.
func HasWildcard(pattern string) bool {
	return pattern == "*" || strings.HasSuffix(pattern, wildcardSuffix)
}

// Expand substitutes every :identifier in template with its value from
// params. Identifiers without a value are left untouched.
func Expand(template string, params map[string]string) string {
	return identifierPattern.ReplaceAllStringFunc(template, func(token string) string {
		if value, ok := params[token[1:]]; ok {
			return value
		}
		return token
	})
}
