// Package whatsapp handles the WhatsApp channel: decoding Evolution API
// webhook payloads into provider-independent inbound messages and status
// updates, and sending outbound messages through an Evolution instance.
//
// Phone numbers are normalized to digits-only form at this boundary so the
// rest of the system never sees JIDs or formatting variants.
package whatsapp
