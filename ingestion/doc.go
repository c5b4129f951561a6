// Package ingestion turns uploaded knowledge documents into retrievable
// context.
//
// The Pipeline type stores documents and generates their embeddings
// asynchronously on a worker pool. A document becomes visible to similarity
// search only once its embedding is stored, so a slow or failing embedding
// run never surfaces half-processed documents. Reprocess sweeps documents
// whose embedding run failed (or was interrupted) and retries them.
package ingestion
