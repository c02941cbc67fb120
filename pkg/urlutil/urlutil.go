package urlutil

import (
	"net/url"
	"strings"
)

// Resolve maps a raw href, as found on the page at base, to an absolute URL.
// It returns ok=false when the href cannot yield a crawlable URL.
//
// The rules are evaluated in order:
//   - fragment-only hrefs ("#...") are dropped
//   - "javascript:" pseudo-URLs are dropped
//   - protocol-relative hrefs ("//host/p") borrow base's scheme
//   - absolute hrefs ("http...") are parsed as-is
//   - root-relative hrefs ("/p") replace base's path
//   - anything else is joined onto base's path, with runs of '/'
//     collapsed to a single '/'
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: a successfully resolved URL resolves to itself
func Resolve(base *url.URL, href string) (*url.URL, bool) {
	switch {
	case strings.HasPrefix(href, "#"):
		return nil, false

	case strings.HasPrefix(href, "javascript"):
		return nil, false

	case strings.HasPrefix(href, "//"):
		u, err := url.Parse(base.Scheme + ":" + href)
		if err != nil || u.Host == "" {
			return nil, false
		}
		return u, true

	case strings.HasPrefix(href, "http"):
		u, err := url.Parse(href)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, false
		}
		return u, true

	case strings.HasPrefix(href, "/"):
		u := *base
		u.Path = href
		u.RawPath = ""
		return &u, true

	default:
		// A page linking to the path it already sits on would
		// re-enqueue itself forever.
		if href != "" && strings.HasSuffix(base.Path, href) {
			return nil, false
		}
		u := *base
		u.Path = CollapseSlashes(base.Path + "/" + href)
		u.RawPath = ""
		return &u, true
	}
}

// CollapseSlashes rewrites runs of consecutive '/' in a path to a single '/'.
func CollapseSlashes(path string) string {
	var needsCollapse bool
	for i := 1; i < len(path); i++ {
		if path[i] == '/' && path[i-1] == '/' {
			needsCollapse = true
			break
		}
	}
	if !needsCollapse {
		return path
	}
	var b strings.Builder
	b.Grow(len(path))
	lastChar := byte(0)
	for i := 0; i < len(path); i++ {
		if path[i] == '/' && lastChar == '/' {
			continue
		}
		b.WriteByte(path[i])
		lastChar = path[i]
	}
	return b.String()
}

// SiteRoot derives the canonical root of the site hosting u: same scheme and
// host, path cleared to "/", query and fragment dropped.
func SiteRoot(u *url.URL) *url.URL {
	root := *u
	root.Path = "/"
	root.RawPath = ""
	root.RawQuery = ""
	root.ForceQuery = false
	root.Fragment = ""
	root.RawFragment = ""
	return &root
}
