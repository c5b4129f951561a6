// Package gateway exposes the HTTP surface: the WhatsApp webhook that feeds
// the message queue, the document upload endpoint and a health probe.
//
// The webhook handler does the minimum synchronous work (parse, de-dup,
// persist, enqueue) and returns immediately. Response generation happens
// asynchronously on the queue worker so a slow model call never blocks the
// provider's webhook delivery.
package gateway
