package crawler_test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/babariviere/unibot/internal/fetcher"
	"github.com/babariviere/unibot/internal/metadata"
	"github.com/babariviere/unibot/pkg/failure"
	"github.com/babariviere/unibot/pkg/retry"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err, "invalid url %q", raw)
	return u
}

// htmlPage renders a minimal page whose body carries one anchor per href.
func htmlPage(hrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, href := range hrefs {
		fmt.Fprintf(&b, `<a href=%q>link</a>`, href)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// scriptedFetcher serves canned bodies by URL string. URLs without an
// entry yield a network-failure FetchError, like an unreachable host.
type scriptedFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func newScriptedFetcher(pages map[string]string) *scriptedFetcher {
	return &scriptedFetcher{pages: pages}
}

func (f *scriptedFetcher) Init(httpClient *http.Client) {}

func (f *scriptedFetcher) Fetch(
	ctx context.Context,
	fetchParam fetcher.FetchParam,
	retryParam retry.RetryParam,
) (fetcher.FetchResult, failure.ClassifiedError) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := fetchParam.FetchURL()
	f.calls = append(f.calls, target.String())

	body, ok := f.pages[target.String()]
	if !ok {
		return fetcher.FetchResult{}, &fetcher.FetchError{
			Message:   fmt.Sprintf("no route to %s", target),
			Retryable: false,
			Cause:     fetcher.ErrCauseNetworkFailure,
		}
	}
	return fetcher.NewFetchResultForTest(
		target,
		[]byte(body),
		http.StatusOK,
		map[string]string{"Content-Type": "text/html"},
		time.Now(),
	), nil
}

func (f *scriptedFetcher) fetchCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, call := range f.calls {
		if call == rawURL {
			n++
		}
	}
	return n
}

// noopSleeper keeps worker tests free of real delays.
type noopSleeper struct {
	mu     sync.Mutex
	sleeps int
	onEach func(n int)
}

func (s *noopSleeper) Sleep(d time.Duration) {
	s.mu.Lock()
	s.sleeps++
	n := s.sleeps
	hook := s.onEach
	s.mu.Unlock()
	if hook != nil {
		hook(n)
	}
}

type nullSink struct{}

func (nullSink) RecordFetch(fetchUrl string, httpStatus int, duration time.Duration, retryCount int) {
}

func (nullSink) RecordError(observedAt time.Time, packageName string, action string, cause metadata.ErrorCause, errorString string, attrs []metadata.Attribute) {
}

func (nullSink) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
}

// drain collects every URL from a closed-when-done visited channel.
func drain(ch <-chan *url.URL) []string {
	var visited []string
	for u := range ch {
		visited = append(visited, u.String())
	}
	return visited
}
