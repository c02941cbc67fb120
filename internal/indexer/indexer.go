package indexer

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/babariviere/unibot/internal/site"
	"github.com/babariviere/unibot/pkg/failure"
)

/*
Indexer Responsibilities
- Record every visited URL exactly once
- Partition visited URLs into sites by host
- Detect spider traps (degenerate same-host paths)
- Knows nothing about:
	- fetching
	- parsing
	- the frontier

It is the seen-set of the crawl: a URL is "indexed" iff some site
contains it.
*/

// DefaultTrapThreshold is the URL string length above which a same-host
// URL is taken as evidence of a crawl cycle.
const DefaultTrapThreshold = 200

type Indexer struct {
	mu            sync.Mutex
	sites         []*site.Site
	trapThreshold int
}

func New() *Indexer {
	return NewWithTrapThreshold(DefaultTrapThreshold)
}

// NewWithTrapThreshold overrides the spider-trap length heuristic.
// A threshold <= 0 falls back to the default.
func NewWithTrapThreshold(threshold int) *Indexer {
	if threshold <= 0 {
		threshold = DefaultTrapThreshold
	}
	return &Indexer{
		trapThreshold: threshold,
	}
}

// Add records u on its site, creating the site on first contact with the
// host. It reports "already present" and trap detection through the error
// by contract: the worker loop relies on both signals.
func (i *Indexer) Add(u *url.URL) failure.ClassifiedError {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, s := range i.sites {
		if s.Contains(u) {
			return &IndexError{
				Message: fmt.Sprintf("%s is already indexed", u),
				Cause:   ErrCauseAlreadyIndexed,
			}
		}
		if !s.SameHost(u) {
			continue
		}
		if s.IsTrap() {
			return &IndexError{
				Message: fmt.Sprintf("site %s contains a spider trap", s.Root().Host),
				Cause:   ErrCauseSpiderTrap,
			}
		}
		if len(u.String()) > i.trapThreshold {
			// An excessively long URL on a known host is taken as
			// evidence of a cycle; the whole site is quarantined.
			s.SetTrap(true)
			return &IndexError{
				Message: fmt.Sprintf("url length %d exceeds %d on %s", len(u.String()), i.trapThreshold, s.Root().Host),
				Cause:   ErrCauseSpiderTrap,
			}
		}
		s.AddSub(u)
		return nil
	}

	i.sites = append(i.sites, site.New(u))
	return nil
}

// IsIndexed reports whether some site contains u.
func (i *Indexer) IsIndexed(u *url.URL) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, s := range i.sites {
		if s.Contains(u) {
			return true
		}
	}
	return false
}

// Sites returns the indexed sites in first-contact order.
func (i *Indexer) Sites() []*site.Site {
	i.mu.Lock()
	defer i.mu.Unlock()

	sites := make([]*site.Site, len(i.sites))
	copy(sites, i.sites)
	return sites
}

// URLs returns every indexed URL: each site's root followed by its subs,
// sites in first-contact order.
func (i *Indexer) URLs() []*url.URL {
	i.mu.Lock()
	defer i.mu.Unlock()

	var urls []*url.URL
	for _, s := range i.sites {
		urls = append(urls, s.Root())
		urls = append(urls, s.Subs()...)
	}
	return urls
}

// Roots returns each site's canonical root URL.
func (i *Indexer) Roots() []*url.URL {
	i.mu.Lock()
	defer i.mu.Unlock()

	var roots []*url.URL
	for _, s := range i.sites {
		roots = append(roots, s.Root())
	}
	return roots
}

// Subs returns every indexed sub-URL across all sites.
func (i *Indexer) Subs() []*url.URL {
	i.mu.Lock()
	defer i.mu.Unlock()

	var subs []*url.URL
	for _, s := range i.sites {
		subs = append(subs, s.Subs()...)
	}
	return subs
}
