package frontier

import (
	"net/url"
	"sync"

	"github.com/babariviere/unibot/internal/indexer"
	"github.com/babariviere/unibot/pkg/failure"
)

/*
Frontier Responsibilities
- Maintain FIFO ordering of URLs pending fetch
- Deduplicate against itself and against the indexer
- Knows nothing about:
	- fetching
	- parsing
	- site classification

Lock ordering is fixed: the frontier lock is taken before any indexer
read. Workers that need both always go through Enqueue, so the two locks
are never acquired in the opposite order.
*/

type Frontier struct {
	mu      sync.Mutex
	queue   *FIFOQueue[*url.URL]
	members Set[string]
}

func New() *Frontier {
	return &Frontier{
		queue:   NewFIFOQueue[*url.URL](),
		members: NewSet[string](),
	}
}

// Enqueue appends u to the tail unless it is already pending or already
// indexed. Duplicate inserts are ignored silently; repeated enqueue of the
// same URL leaves the frontier unchanged after the first.
func (f *Frontier) Enqueue(idx *indexer.Indexer, u *url.URL) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := u.String()
	if f.members.Contains(key) {
		return
	}
	if idx.IsIndexed(u) {
		return
	}
	f.queue.Enqueue(u)
	f.members.Add(key)
}

// Dequeue removes and returns the head of the queue.
func (f *Frontier) Dequeue() (*url.URL, failure.ClassifiedError) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.queue.Dequeue()
	if !ok {
		return nil, &FrontierError{
			Message: "dequeue on empty frontier",
			Cause:   ErrCauseQueueEmpty,
		}
	}
	f.members.Remove(u.String())
	return u, nil
}

func (f *Frontier) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.queue.Size() == 0
}

func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.queue.Size()
}

// Snapshot returns a copy of the pending URLs in dequeue order, for
// read-only inspection.
func (f *Frontier) Snapshot() []*url.URL {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]*url.URL, f.queue.Size())
	copy(items, *f.queue)
	return items
}

func (f *Frontier) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queue = NewFIFOQueue[*url.URL]()
	f.members.Clear()
}
