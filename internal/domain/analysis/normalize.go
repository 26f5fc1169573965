package analysis

import (
	"net/url"
	"sort"
	"strings"
)

// NormalizeURL canonicalizes a URL for cache and storage keys:
// scheme forced to https, fragment dropped, trailing slash stripped (an
// empty or root path becomes "/"), query pairs sorted by key then value.
//
// Malformed input is passed through unchanged; the cache key just never
// matches anything useful. Idempotent.
func NormalizeURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = "https"
	u.Fragment = ""

	// Bare domain and root form collapse to one key.
	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	if u.RawQuery != "" {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var b strings.Builder
		for _, k := range keys {
			vals := q[k]
			sort.Strings(vals)
			for _, v := range vals {
				if b.Len() > 0 {
					b.WriteByte('&')
				}
				b.WriteString(url.QueryEscape(k))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
		u.RawQuery = b.String()
	}

	return u.String()
}
