package fetcher

import (
	"context"
	"net/http"

	"github.com/babariviere/unibot/pkg/failure"
	"github.com/babariviere/unibot/pkg/retry"
)

// Fetcher is the HTTP boundary of the crawl: given a URL it yields the
// response body or a classified I/O error. Each worker owns one Fetcher.
type Fetcher interface {
	Init(httpClient *http.Client)
	Fetch(
		ctx context.Context,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (FetchResult, failure.ClassifiedError)
}
