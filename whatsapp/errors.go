package whatsapp

import "errors"

var (
	// ErrMalformedPayload indicates the webhook body could not be decoded.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrUnknownEvent indicates an event type the pipeline does not handle.
	ErrUnknownEvent = errors.New("unknown webhook event")

	// ErrMissingMessageKey indicates a payload without the provider message
	// key (remote JID and message id).
	ErrMissingMessageKey = errors.New("payload is missing the message key")

	// ErrSendFailed indicates the provider rejected an outbound message.
	ErrSendFailed = errors.New("message send failed")
)
