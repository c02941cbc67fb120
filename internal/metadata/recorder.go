package metadata

import (
	"log/slog"
	"os"
	"time"
)

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Content hashes
- Crawl-wide visited and site counts

Logging Goals
- Debuggable crawl behavior
- Post-run auditability
- Failure diagnostics

Structured logging only. Allowed values: primitives, timestamps, URLs as
strings, hashes, status codes, durations, identifiers.
*/

// MetadataSink receives observational events from crawl stages.
// Emission is observational only and MUST NOT influence scheduling,
// retries, or crawl termination.
type MetadataSink interface {
	RecordFetch(fetchUrl string, httpStatus int, duration time.Duration, retryCount int)
	RecordError(observedAt time.Time, packageName string, action string, cause ErrorCause, errorString string, attrs []Attribute)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

// CrawlFinalizer records the terminal summary of a completed crawl,
// exactly once.
type CrawlFinalizer interface {
	RecordFinalCrawlStats(totalVisited int, totalSites int, totalErrors int, duration time.Duration)
}

type Recorder struct {
	scope  string
	logger *slog.Logger
}

func NewRecorder(scope string) Recorder {
	return Recorder{
		scope:  scope,
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

// NewRecorderWithLogger allows tests and embedders to capture output.
func NewRecorderWithLogger(scope string, logger *slog.Logger) Recorder {
	return Recorder{
		scope:  scope,
		logger: logger,
	}
}

func (r *Recorder) RecordFetch(fetchUrl string, httpStatus int, duration time.Duration, retryCount int) {
	r.logger.Debug("fetch",
		slog.String("scope", r.scope),
		slog.String(string(AttrURL), fetchUrl),
		slog.Int(string(AttrHTTPStatus), httpStatus),
		slog.Duration("duration", duration),
		slog.Int("retries", retryCount),
	)
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	args := []any{
		slog.String("scope", r.scope),
		slog.Time(string(AttrTime), observedAt),
		slog.String("package", packageName),
		slog.String("action", action),
		slog.String("cause", cause.String()),
		slog.String("error", errorString),
	}
	for _, attr := range attrs {
		args = append(args, slog.String(string(attr.Key), attr.Value))
	}
	r.logger.Warn("crawl error", args...)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	args := []any{
		slog.String("scope", r.scope),
		slog.String("kind", string(kind)),
		slog.String(string(AttrWritePath), path),
	}
	for _, attr := range attrs {
		args = append(args, slog.String(string(attr.Key), attr.Value))
	}
	r.logger.Debug("artifact", args...)
}

func (r *Recorder) RecordFinalCrawlStats(totalVisited int, totalSites int, totalErrors int, duration time.Duration) {
	stats := crawlStats{
		totalVisited: totalVisited,
		totalSites:   totalSites,
		totalErrors:  totalErrors,
		durationMs:   duration.Milliseconds(),
	}
	r.logger.Info("crawl finished",
		slog.String("scope", r.scope),
		slog.Int("visited", stats.totalVisited),
		slog.Int("sites", stats.totalSites),
		slog.Int("errors", stats.totalErrors),
		slog.Int64("duration_ms", stats.durationMs),
	)
}
