// Package agent runs the response pipeline for inbound messages.
//
// The Orchestrator drives the stages in order: normalize the message into a
// text query (transcribing audio, describing images), embed the query,
// retrieve relevant knowledge documents, assemble the prompt context from
// retrieved documents and recent conversation turns, generate a reply,
// deliver it over the channel and append an audit record. Each external call
// is bounded by a per-call timeout, and failures identify their stage so the
// work queue can record and retry them.
//
// BuildContext is a pure function and the retrieval, confidence and
// normalization pieces are independently usable.
package agent
