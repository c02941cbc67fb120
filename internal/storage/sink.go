package storage

import (
	"net/url"
	"strings"

	"github.com/babariviere/unibot/internal/metadata"
	"github.com/babariviere/unibot/pkg/failure"
)

/*
Responsibilities
- Persist fetched bodies verbatim
- Derive a deterministic key per URL

Output Characteristics
- Stable layout per backend
- Idempotent writes: reruns overwrite the same key
- Best-effort from the worker's perspective: write failures are
  recorded, never propagated into crawl control flow
*/

// Sink persists one fetched body per URL.
type Sink interface {
	Write(u *url.URL, body []byte) (WriteResult, failure.ClassifiedError)
	Close()
}

// New constructs a Sink for a storage target string:
//   - "dir:<path>" writes one file per URL under <path>
//   - "bolt:<file>:<bucket>" stores bodies in a bbolt bucket
//   - anything without a known scheme is treated as a directory path
func New(target string, metadataSink metadata.MetadataSink) (Sink, failure.ClassifiedError) {
	scheme, rest, ok := strings.Cut(target, ":")
	if !ok {
		scheme, rest = "dir", target
	}
	switch scheme {
	case "dir":
		sink := NewDirSink(rest, metadataSink)
		return &sink, nil
	case "bolt":
		return NewBoltSink(rest, metadataSink)
	default:
		// A bare path like "out/crawl" has no scheme; a Windows-style
		// path would land here too.
		sink := NewDirSink(target, metadataSink)
		return &sink, nil
	}
}
