// Package engine implements the merge orchestrator.
//
// The engine turns an ordered list of sources into one merged document. It
// owns the prime document for the whole run and feeds every right-hand
// document to a merge.Merger, strictly in order.
//
// STATE MACHINE:
//
//	INIT -> LOAD_PRIME -> MERGE_NEXT_SOURCE* -> MAYBE_DRAIN_STDIN -> EMIT -> DONE
//
// FAILED is reachable from every state. A failed run writes nothing to the
// output sink and nothing to the journal.
//
// Document Flow:
//  1. INIT validates the source list before any source is opened
//  2. LOAD_PRIME parses the first source; its first document becomes the
//     prime and the rest of its stream is queued
//  3. MERGE_NEXT_SOURCE drains the queue, then loads the next source and
//     queues its documents
//  4. MAYBE_DRAIN_STDIN treats unread, non-interactive stdin as a final source
//  5. EMIT serializes the prime into a buffer, then writes it to the sink
//
// Empty documents in any stream are skipped.
//
// The engine is single-threaded. Merge order is part of the result, so
// documents are never merged concurrently.
package engine
