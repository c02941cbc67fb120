package crawler

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/babariviere/unibot/internal/config"
	"github.com/babariviere/unibot/internal/frontier"
	"github.com/babariviere/unibot/internal/indexer"
	"github.com/babariviere/unibot/internal/metadata"
	"github.com/babariviere/unibot/internal/site"
	"github.com/babariviere/unibot/internal/storage"
)

/*
Coordinator owns the crawl control plane: the shared frontier, the
indexer, the running counter and the stop flag. It spawns N workers on
independent goroutines, each with its own outbound channel of visited
URLs.

The coordinator does not join workers. Callers drain the returned
channels (each is closed by its worker) or poll RunningCount until it
reaches zero. Workers terminate independently when they observe an
empty frontier; a worker may exit while another is still producing, and
the workers still running then carry the rest of the crawl with less
parallelism. No enqueued URL is abandoned: a worker checks the frontier
again after enqueueing the links of its current page.
*/

// visitedChannelBuffer bounds each worker's outbound channel. Sends
// never block: a consumer that stops draining loses URLs past the
// buffer, not the crawl.
const visitedChannelBuffer = 256

type Coordinator struct {
	workers      []*Worker
	frontier     *frontier.Frontier
	indexer      *indexer.Indexer
	running      atomic.Int64
	stop         atomic.Bool
	recorder     metadata.Recorder
	sink         storage.Sink
	crawlStarted time.Time
}

func New() *Coordinator {
	return NewWithTrapThreshold(indexer.DefaultTrapThreshold)
}

// NewWithTrapThreshold builds a coordinator whose indexer flags spider
// traps above the given URL length.
func NewWithTrapThreshold(threshold int) *Coordinator {
	c := &Coordinator{
		frontier: frontier.New(),
		indexer:  indexer.NewWithTrapThreshold(threshold),
		recorder: metadata.NewRecorder("unibot"),
	}
	c.addWorker()
	return c
}

func (c *Coordinator) addWorker() {
	c.workers = append(c.workers, NewWorker(
		c.frontier,
		c.indexer,
		&c.running,
		&c.stop,
		&c.recorder,
	))
}

// CreateWorkers resets the pool to n workers sharing the coordinator's
// state. A count below one still yields a single worker.
func (c *Coordinator) CreateWorkers(n int) {
	c.workers = c.workers[:0]
	for i := 0; i < n; i++ {
		c.addWorker()
	}
	if len(c.workers) == 0 {
		c.addWorker()
	}
}

// Enqueue seeds the frontier. It may be called before or during a crawl;
// URLs already pending or indexed are ignored.
func (c *Coordinator) Enqueue(u *url.URL) {
	c.frontier.Enqueue(c.indexer, u)
}

// Start launches every worker on its own goroutine and returns the
// receive ends of their visited-URL channels, one per worker. Each
// channel is closed when its worker terminates.
func (c *Coordinator) Start(ctx context.Context, cfg config.Config) []<-chan *url.URL {
	c.crawlStarted = time.Now()

	if target := cfg.StoreTarget(); target != "" && c.sink == nil {
		sink, err := storage.New(target, &c.recorder)
		if err == nil {
			c.sink = sink
		}
		// Storage is best-effort: a failed backend leaves the crawl
		// running without persistence; the error is already recorded.
	}

	channels := make([]<-chan *url.URL, 0, len(c.workers))
	for _, w := range c.workers {
		w.SetSink(c.sink)
		out := make(chan *url.URL, visitedChannelBuffer)
		channels = append(channels, out)
		c.running.Add(1)
		go w.Run(ctx, cfg, out)
	}
	return channels
}

// CrawlOnce fetches and indexes a single URL from the frontier, returning
// it with the raw body.
func (c *Coordinator) CrawlOnce(ctx context.Context, cfg config.Config) (*url.URL, []byte, error) {
	u, body, err := c.workers[0].CrawlOnce(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return u, body, nil
}

func (c *Coordinator) RunningCount() int {
	return int(c.running.Load())
}

func (c *Coordinator) SetStop(stop bool) {
	c.stop.Store(stop)
}

func (c *Coordinator) StopRequested() bool {
	return c.stop.Load()
}

// IndexerSnapshot returns the indexed sites in first-contact order.
func (c *Coordinator) IndexerSnapshot() []*site.Site {
	return c.indexer.Sites()
}

// FrontierSnapshot returns the pending URLs in dequeue order.
func (c *Coordinator) FrontierSnapshot() []*url.URL {
	return c.frontier.Snapshot()
}

// VisitedURLs returns every indexed URL.
func (c *Coordinator) VisitedURLs() []*url.URL {
	return c.indexer.URLs()
}

// Finish records the terminal crawl summary and releases the sink.
// Call it once, after RunningCount has reached zero.
func (c *Coordinator) Finish(totalErrors int) {
	if c.sink != nil {
		c.sink.Close()
		c.sink = nil
	}
	c.recorder.RecordFinalCrawlStats(
		len(c.indexer.URLs()),
		len(c.indexer.Sites()),
		totalErrors,
		time.Since(c.crawlStarted),
	)
}
