package crawler_test

import (
	"context"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/babariviere/unibot/internal/config"
	"github.com/babariviere/unibot/internal/crawler"
	"github.com/babariviere/unibot/internal/extractor"
	"github.com/babariviere/unibot/internal/frontier"
	"github.com/babariviere/unibot/internal/indexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerFixture struct {
	worker   *crawler.Worker
	frontier *frontier.Frontier
	indexer  *indexer.Indexer
	running  *atomic.Int64
	stop     *atomic.Bool
	sleeper  *noopSleeper
	fetcher  *scriptedFetcher
}

func newWorkerFixture(t *testing.T, pages map[string]string) *workerFixture {
	t.Helper()
	fr := frontier.New()
	idx := indexer.New()
	running := &atomic.Int64{}
	stop := &atomic.Bool{}
	sleeper := &noopSleeper{}
	scripted := newScriptedFetcher(pages)
	domExtractor := extractor.NewDomExtractor(nullSink{})

	w := crawler.NewWorkerWithDeps(
		scripted,
		&domExtractor,
		fr,
		idx,
		running,
		stop,
		nil,
		nullSink{},
		sleeper,
	)
	return &workerFixture{
		worker:   w,
		frontier: fr,
		indexer:  idx,
		running:  running,
		stop:     stop,
		sleeper:  sleeper,
		fetcher:  scripted,
	}
}

func (fx *workerFixture) run(t *testing.T, cfg config.Config, seeds ...string) []string {
	t.Helper()
	for _, seed := range seeds {
		fx.frontier.Enqueue(fx.indexer, mustURL(t, seed))
	}
	out := make(chan *url.URL, 256)
	fx.running.Add(1)
	fx.worker.Run(context.Background(), cfg, out)
	return drain(out)
}

func defaultTestConfig() config.Config {
	return *config.WithDefault().WithSleepInterval(0).WithMaxAttempt(1)
}

func TestWorkerLinearTwoPageSite(t *testing.T) {
	// Seed page links to /p1; /p1 links back to the already-indexed root
	// and carries a fragment anchor.
	fx := newWorkerFixture(t, map[string]string{
		"http://a/":   htmlPage("/p1"),
		"http://a/p1": htmlPage("#top", "/"),
	})

	visited := fx.run(t, defaultTestConfig(), "http://a/")

	assert.Equal(t, []string{"http://a/", "http://a/p1"}, visited)

	sites := fx.indexer.Sites()
	require.Len(t, sites, 1)
	assert.Equal(t, "http://a/", sites[0].Root().String())
	require.Len(t, sites[0].Subs(), 1)
	assert.Equal(t, "http://a/p1", sites[0].Subs()[0].String())
	assert.Zero(t, fx.running.Load())
}

func TestWorkerSiteOnlyFilter(t *testing.T) {
	fx := newWorkerFixture(t, map[string]string{
		"http://a/":  htmlPage("http://b/x", "/y"),
		"http://a/y": htmlPage(),
		"http://b/x": htmlPage(),
	})

	cfg := *config.SiteOnly().WithSleepInterval(0).WithMaxAttempt(1)
	visited := fx.run(t, cfg, "http://a/")

	assert.Equal(t, []string{"http://a/", "http://a/y"}, visited)
	assert.Zero(t, fx.fetcher.fetchCount("http://b/x"), "filtered URL must never be dequeued")
}

func TestWorkerSpiderTrap(t *testing.T) {
	long := "/" + strings.Repeat("x", 210)
	fx := newWorkerFixture(t, map[string]string{
		"http://a/":       htmlPage(long),
		"http://a" + long: htmlPage(),
	})

	visited := fx.run(t, defaultTestConfig(), "http://a/")

	assert.Equal(t, []string{"http://a/"}, visited, "oversized URL is fetched but never visited")

	sites := fx.indexer.Sites()
	require.Len(t, sites, 1)
	assert.True(t, sites[0].IsTrap())
	assert.Empty(t, sites[0].Subs())
}

func TestWorkerDropsFragmentAndJavascriptHrefs(t *testing.T) {
	fx := newWorkerFixture(t, map[string]string{
		"http://a/":  htmlPage("#top", "javascript:void(0)", "/p"),
		"http://a/p": htmlPage(),
	})

	visited := fx.run(t, defaultTestConfig(), "http://a/")

	assert.Equal(t, []string{"http://a/", "http://a/p"}, visited)
}

func TestWorkerSkipsPageOnFetchError(t *testing.T) {
	// /dead has no scripted body, so its fetch fails; the worker moves on.
	fx := newWorkerFixture(t, map[string]string{
		"http://a/":      htmlPage("/dead", "/alive"),
		"http://a/alive": htmlPage(),
	})

	visited := fx.run(t, defaultTestConfig(), "http://a/")

	assert.Equal(t, []string{"http://a/", "http://a/alive"}, visited)
	assert.False(t, fx.indexer.IsIndexed(mustURL(t, "http://a/dead")))
}

func TestWorkerVisitsURLAtMostOnce(t *testing.T) {
	// Both pages link to each other; each must be emitted exactly once.
	fx := newWorkerFixture(t, map[string]string{
		"http://a/":   htmlPage("/p1", "/p1", "/"),
		"http://a/p1": htmlPage("/", "/p1"),
	})

	visited := fx.run(t, defaultTestConfig(), "http://a/")

	seen := map[string]int{}
	for _, v := range visited {
		seen[v]++
	}
	for v, n := range seen {
		assert.Equal(t, 1, n, "url %s visited %d times", v, n)
	}
}

func TestWorkerEveryVisitedURLIsIndexed(t *testing.T) {
	fx := newWorkerFixture(t, map[string]string{
		"http://a/":   htmlPage("/p1", "/p2"),
		"http://a/p1": htmlPage(),
		"http://a/p2": htmlPage(),
	})

	visited := fx.run(t, defaultTestConfig(), "http://a/")

	for _, v := range visited {
		assert.True(t, fx.indexer.IsIndexed(mustURL(t, v)), "visited %s not indexed", v)
	}
}

func TestWorkerObservesStopFlag(t *testing.T) {
	fx := newWorkerFixture(t, map[string]string{
		"http://a/":   htmlPage("/p1"),
		"http://a/p1": htmlPage("/p2"),
		"http://a/p2": htmlPage(),
	})

	// Request a stop during the first iteration's sleep; the worker must
	// finish that iteration and exit before dequeuing /p1.
	fx.sleeper.onEach = func(n int) {
		if n == 1 {
			fx.stop.Store(true)
		}
	}

	visited := fx.run(t, defaultTestConfig(), "http://a/")

	assert.Equal(t, []string{"http://a/"}, visited)
	assert.Equal(t, 1, fx.frontier.Size(), "p1 stays pending after stop")
}

func TestWorkerOnCrawledCallback(t *testing.T) {
	fx := newWorkerFixture(t, map[string]string{
		"http://a/": htmlPage(),
	})

	var crawled []string
	cfg := *config.WithDefault().
		WithSleepInterval(0).
		WithMaxAttempt(1).
		WithOnCrawled(func(u *url.URL, doc *goquery.Document) {
			crawled = append(crawled, u.String())
			assert.NotNil(t, doc)
		})

	fx.run(t, cfg, "http://a/")

	assert.Equal(t, []string{"http://a/"}, crawled)
}

func TestWorkerCrawlOnce(t *testing.T) {
	fx := newWorkerFixture(t, map[string]string{
		"http://a/": htmlPage("/p1"),
	})
	fx.frontier.Enqueue(fx.indexer, mustURL(t, "http://a/"))

	u, body, err := fx.worker.CrawlOnce(context.Background(), defaultTestConfig())

	require.Nil(t, err)
	assert.Equal(t, "http://a/", u.String())
	assert.Contains(t, string(body), "/p1")
	assert.True(t, fx.indexer.IsIndexed(u))
	// CrawlOnce does not expand links
	assert.True(t, fx.frontier.IsEmpty())
}

func TestWorkerCrawlOnceEmptyFrontier(t *testing.T) {
	fx := newWorkerFixture(t, map[string]string{})

	_, _, err := fx.worker.CrawlOnce(context.Background(), defaultTestConfig())

	require.NotNil(t, err)
	var fErr *frontier.FrontierError
	assert.ErrorAs(t, err, &fErr)
}
