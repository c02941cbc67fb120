package metadata

import (
	"time"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

const (
	// CauseUnknown: the failure does not map cleanly to any known category.
	CauseUnknown ErrorCause = iota
	// CauseNetworkFailure: transport or remote availability (timeouts, DNS,
	// connection resets).
	CauseNetworkFailure
	// CausePolicyDisallow: crawling denied by an explicit policy
	// (403/401, rate-limit enforcement).
	CausePolicyDisallow
	// CauseContentInvalid: content fetched but not processable.
	CauseContentInvalid
	// CauseStorageFailure: failure persisting crawl artifacts.
	CauseStorageFailure
	// CauseRetryFailure: a retry loop exhausted its attempts.
	CauseRetryFailure
	// CauseInvariantViolation: an internal consistency check failed.
	CauseInvariantViolation
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseRetryFailure:
		return "retry_failure"
	case CauseInvariantViolation:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

type ArtifactKind string

const (
	ArtifactBody ArtifactKind = "body"
)

type FetchEvent struct {
	fetchUrl   string
	httpStatus int
	duration   time.Duration
	retryCount int
}

/*
crawlStats
  - Represents a terminal, derived summary of a completed crawl
  - Contains only aggregate counts and durations
  - Is computed by the coordinator after crawl termination
  - Is recorded exactly once
  - Must not influence scheduling, retries, or crawl termination
*/
type crawlStats struct {
	totalVisited int
	totalSites   int
	totalErrors  int
	durationMs   int64
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
	AttrWorker     AttributeKey = "worker"
)
