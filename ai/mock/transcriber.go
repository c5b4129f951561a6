package mock

import "context"

// MockTranscriber is a test double for ai.Transcriber.
// It allows custom behavior injection via function fields.
type MockTranscriber struct {
	// TranscribeAudioFunc is called by TranscribeAudio if set.
	// If nil, uses default deterministic behavior.
	TranscribeAudioFunc func(ctx context.Context, audioURL string) (string, error)

	callCount int
}

// NewMockTranscriber creates a mock transcriber with default deterministic
// behavior. Note: Returns concrete type to allow test assertions.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// TranscribeAudio returns a canned transcription.
func (m *MockTranscriber) TranscribeAudio(ctx context.Context, audioURL string) (string, error) {
	m.callCount++

	if m.TranscribeAudioFunc != nil {
		return m.TranscribeAudioFunc(ctx, audioURL)
	}

	return "Mock transcription of " + audioURL, nil
}

// CallCount returns the number of times TranscribeAudio was called.
func (m *MockTranscriber) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockTranscriber) Reset() {
	m.callCount = 0
	m.TranscribeAudioFunc = nil
}
