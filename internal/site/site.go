package site

import (
	"net/url"

	"github.com/babariviere/unibot/pkg/urlutil"
)

/*
Site groups the URLs observed on one host.

- root is the canonical URL of the host (path cleared to "/")
- subs are the same-host URLs seen so far, in insertion order
- trap marks a host on which a spider trap was detected
- fullyCrawled marks a host whose frontier work is exhausted

Invariants:
- every sub shares root's host
- root itself never appears in subs
- (root, sub) uniquely identifies a visited page; dedup against root and
  subs is the indexer's job, AddSub does not re-check
*/
type Site struct {
	root         *url.URL
	subs         []*url.URL
	trap         bool
	fullyCrawled bool
}

// New builds a Site from the first URL observed on its host. The URL itself
// becomes the first sub unless it is the root.
func New(u *url.URL) *Site {
	s := &Site{
		root: urlutil.SiteRoot(u),
	}
	if !pathsEqual(u.Path, s.root.Path) {
		s.subs = append(s.subs, u)
	}
	return s
}

// AddSub appends a same-host URL to subs. URLs on a different host are
// ignored silently.
func (s *Site) AddSub(u *url.URL) {
	if u.Host != s.root.Host {
		return
	}
	s.subs = append(s.subs, u)
}

// Contains reports whether u identifies a page already recorded on this
// site: same host, and a path matching the root's or any sub's.
func (s *Site) Contains(u *url.URL) bool {
	if u.Host != s.root.Host {
		return false
	}
	if pathsEqual(u.Path, s.root.Path) {
		return true
	}
	for _, sub := range s.subs {
		if pathsEqual(sub.Path, u.Path) {
			return true
		}
	}
	return false
}

// SameHost reports whether u lives on this site's host.
func (s *Site) SameHost(u *url.URL) bool {
	return u.Host == s.root.Host
}

func (s *Site) Root() *url.URL {
	return s.root
}

// Subs returns the observed sub-URLs in insertion order.
func (s *Site) Subs() []*url.URL {
	subs := make([]*url.URL, len(s.subs))
	copy(subs, s.subs)
	return subs
}

func (s *Site) IsTrap() bool {
	return s.trap
}

func (s *Site) SetTrap(trap bool) {
	s.trap = trap
}

func (s *Site) IsFullyCrawled() bool {
	return s.fullyCrawled
}

func (s *Site) SetFullyCrawled() {
	s.fullyCrawled = true
}

// pathsEqual treats the empty path and "/" as the same page.
func pathsEqual(a, b string) bool {
	if a == "" {
		a = "/"
	}
	if b == "" {
		b = "/"
	}
	return a == b
}
