package routing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/vyrodovalexey/avaroute/internal/util"
)

// Decompose splits raw into its path, the URL without its query, and
// its query parameters. For repeated keys the last value wins; a key
// without a value maps to "". Only '&' separates items, so ';' and '+'
// are part of a value. The fragment stays on the path. An empty
// or unparseable raw yields ErrMalformedURL.
func Decompose(raw string) (path string, query Parameters, err error) {
	if raw == "" {
		return "", nil, fmt.Errorf("%w: empty url", util.ErrMalformedURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", util.ErrMalformedURL, err)
	}

	query, err = parseQuery(u.RawQuery)
	if err != nil {
		return "", nil, fmt.Errorf("%w: query: %w", util.ErrMalformedURL, err)
	}

	return stripQuery(raw), query, nil
}

// parseQuery splits a raw query on '&' only. Items are percent-decoded
// but '+' and ';' are kept literally. Empty items are skipped.
func parseQuery(rawQuery string) (Parameters, error) {
	query := make(Parameters)
	for item := range strings.SplitSeq(rawQuery, "&") {
		if item == "" {
			continue
		}
		key, value, _ := strings.Cut(item, "=")
		key, err := url.PathUnescape(key)
		if err != nil {
			return nil, err
		}
		value, err = url.PathUnescape(value)
		if err != nil {
			return nil, err
		}
		query[key] = value
	}
	return query, nil
}

// stripQuery removes the query component, keeping any fragment.
func stripQuery(raw string) string {
	q := strings.IndexByte(raw, '?')
	if q < 0 {
		return raw
	}
	h := strings.IndexByte(raw, '#')
	switch {
	case h >= 0 && h < q:
		return raw
	case h >= 0:
		return raw[:q] + raw[h:]
	default:
		return raw[:q]
	}
}
