package engine

import (
	"github.com/roach88/yamlpath/internal/docio"
	"github.com/roach88/yamlpath/internal/ir"
)

// pending is one right-hand document waiting to be merged.
type pending struct {
	Source *docio.Source
	Index  int
}

// Document returns the queued document.
func (p pending) Document() *ir.Document {
	return p.Source.Documents[p.Index]
}

// documentQueue is a FIFO of right-hand documents owned by one run.
//
// Documents of one source are enqueued together, in stream order, and the
// queue is drained before the next source is loaded.
type documentQueue struct {
	items []pending
}

func newDocumentQueue() *documentQueue {
	return &documentQueue{items: make([]pending, 0, 8)}
}

// EnqueueSource queues the documents of src from index from onwards.
// Returns the number of documents queued.
func (q *documentQueue) EnqueueSource(src *docio.Source, from int) int {
	n := 0
	for i := from; i < len(src.Documents); i++ {
		q.items = append(q.items, pending{Source: src, Index: i})
		n++
	}
	return n
}

// TryDequeue removes and returns the front document.
// Returns (pending{}, false) if the queue is empty.
func (q *documentQueue) TryDequeue() (pending, bool) {
	if len(q.items) == 0 {
		return pending{}, false
	}

	p := q.items[0]
	// Release the source so its documents can be collected once merged.
	q.items[0] = pending{}
	q.items = q.items[1:]
	return p, true
}
