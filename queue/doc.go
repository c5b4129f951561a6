// Package queue drains the persisted message queue and hands entries to the
// response pipeline.
//
// The Worker type polls for pending entries, claims them atomically and
// processes each on a bounded worker pool. Entries that fail are retried up
// to a configurable limit before staying failed for operator inspection.
//
// The Reconciler type periodically returns entries stuck in the processing
// state (for example after a crash mid-run) back to pending so no inbound
// message is silently dropped.
package queue
