package crawler

import (
	"context"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/babariviere/unibot/internal/config"
	"github.com/babariviere/unibot/internal/extractor"
	"github.com/babariviere/unibot/internal/fetcher"
	"github.com/babariviere/unibot/internal/frontier"
	"github.com/babariviere/unibot/internal/indexer"
	"github.com/babariviere/unibot/internal/metadata"
	"github.com/babariviere/unibot/internal/storage"
	"github.com/babariviere/unibot/pkg/failure"
	"github.com/babariviere/unibot/pkg/retry"
	"github.com/babariviere/unibot/pkg/timeutil"
	"github.com/babariviere/unibot/pkg/urlutil"
)

/*
Worker runs one fetch-parse-enqueue loop.

Failure semantics:
- A fetch or parse failure terminates the page, never the worker
- Already-indexed and spider-trap signals from the indexer are benign:
  another worker may have indexed the URL between dequeue and Add
- Storage failures are recorded by the sink and otherwise ignored

The worker owns its fetcher and its outbound channel sender; shared
state (frontier, indexer, running, stop) is handed in at construction.
*/

type Worker struct {
	htmlFetcher  fetcher.Fetcher
	domExtractor extractor.Extractor
	frontier     *frontier.Frontier
	indexer      *indexer.Indexer
	running      *atomic.Int64
	stop         *atomic.Bool
	sink         storage.Sink
	metadataSink metadata.MetadataSink
	sleeper      timeutil.Sleeper
}

// NewWorker wires a worker to the coordinator's shared state with the
// production fetcher and extractor.
func NewWorker(
	fr *frontier.Frontier,
	idx *indexer.Indexer,
	running *atomic.Int64,
	stop *atomic.Bool,
	metadataSink metadata.MetadataSink,
) *Worker {
	htmlFetcher := fetcher.NewHtmlFetcher(metadataSink)
	domExtractor := extractor.NewDomExtractor(metadataSink)
	realSleeper := timeutil.NewRealSleeper()
	return &Worker{
		htmlFetcher:  &htmlFetcher,
		domExtractor: &domExtractor,
		frontier:     fr,
		indexer:      idx,
		running:      running,
		stop:         stop,
		metadataSink: metadataSink,
		sleeper:      &realSleeper,
	}
}

// NewWorkerWithDeps creates a Worker with injected collaborators for
// testing.
func NewWorkerWithDeps(
	htmlFetcher fetcher.Fetcher,
	domExtractor extractor.Extractor,
	fr *frontier.Frontier,
	idx *indexer.Indexer,
	running *atomic.Int64,
	stop *atomic.Bool,
	sink storage.Sink,
	metadataSink metadata.MetadataSink,
	sleeper timeutil.Sleeper,
) *Worker {
	return &Worker{
		htmlFetcher:  htmlFetcher,
		domExtractor: domExtractor,
		frontier:     fr,
		indexer:      idx,
		running:      running,
		stop:         stop,
		sink:         sink,
		metadataSink: metadataSink,
		sleeper:      sleeper,
	}
}

// SetSink attaches a body sink. A nil sink disables storage.
func (w *Worker) SetSink(sink storage.Sink) {
	w.sink = sink
}

// CrawlOnce fetches and indexes a single URL from the frontier and returns
// it with the raw body. It is the single-step crawl used by the library
// surface; the recursive loop is Run.
func (w *Worker) CrawlOnce(ctx context.Context, cfg config.Config) (*url.URL, []byte, failure.ClassifiedError) {
	u, err := w.frontier.Dequeue()
	if err != nil {
		return nil, nil, err
	}
	result, fetchErr := w.htmlFetcher.Fetch(ctx, fetcher.NewFetchParam(u, cfg.UserAgent()), retryParamFromConfig(cfg))
	if fetchErr != nil {
		return nil, nil, fetchErr
	}
	if indexErr := w.indexer.Add(u); indexErr != nil {
		return nil, nil, indexErr
	}
	return u, result.Body(), nil
}

// Run consumes the frontier until it observes emptiness or the stop flag,
// emitting each visited URL on out. It decrements the running counter and
// closes out on exit.
func (w *Worker) Run(ctx context.Context, cfg config.Config, out chan<- *url.URL) {
	defer func() {
		close(out)
		w.running.Add(-1)
	}()

	w.stop.Store(false)
	for !w.frontier.IsEmpty() && !w.stop.Load() {
		u, err := w.frontier.Dequeue()
		if err != nil {
			// Another worker drained the queue between the emptiness
			// check and the dequeue.
			break
		}

		result, fetchErr := w.htmlFetcher.Fetch(ctx, fetcher.NewFetchParam(u, cfg.UserAgent()), retryParamFromConfig(cfg))
		if fetchErr != nil {
			continue
		}

		if indexErr := w.indexer.Add(u); indexErr != nil {
			// UrlAlreadyIndexed and SpiderTrap are control signals:
			// the page lost the re-discovery race or its site is
			// quarantined.
			continue
		}

		doc, parseErr := w.domExtractor.Parse(u, result.Body())
		if parseErr != nil {
			continue
		}

		cfg.OnCrawled(u, doc)
		if w.sink != nil {
			// Best-effort; the sink records its own failures.
			_, _ = w.sink.Write(u, result.Body())
		}

		select {
		case out <- u:
		default:
			// Consumer stopped draining; the visit still counts.
		}

		for _, href := range w.domExtractor.Attributes(doc, "href") {
			if strings.HasPrefix(href, "#") {
				continue
			}
			candidate, ok := urlutil.Resolve(u, href)
			if !ok {
				continue
			}
			if !cfg.Accept(u, candidate) {
				continue
			}
			w.frontier.Enqueue(w.indexer, candidate)
		}

		w.sleeper.Sleep(cfg.SleepInterval())
	}
}

func retryParamFromConfig(cfg config.Config) retry.RetryParam {
	return retry.NewRetryParam(
		cfg.BackoffInitialDuration(),
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)
}
