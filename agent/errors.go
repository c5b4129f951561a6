package agent

import (
	"errors"
	"fmt"

	"github.com/poiesic/brokerit/core"
)

var (
	// ErrNoContent indicates a message yielded no text to process after
	// normalization.
	ErrNoContent = errors.New("message has no content to process")

	// ErrMissingMediaURL indicates a media message without a media
	// reference.
	ErrMissingMediaURL = errors.New("media message has no media url")
)

// Pipeline stage names used in StageError and logs.
const (
	StageNormalize = "normalize"
	StageEmbed     = "embed"
	StageRetrieve  = "retrieve"
	StageGenerate  = "generate"
	StageDeliver   = "deliver"
	StageLog       = "log"
)

// StageError wraps a failure with the pipeline stage it occurred in and the
// message being processed, so queue error records identify the failure
// point.
type StageError struct {
	Stage     string
	MessageId core.ID
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for message %d: %v", e.Stage, e.MessageId, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// stageErr builds a StageError.
func stageErr(stage string, messageID core.ID, err error) error {
	return &StageError{Stage: stage, MessageId: messageID, Err: err}
}
