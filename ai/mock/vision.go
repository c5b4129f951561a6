package mock

import "context"

// MockVisionAnalyzer is a test double for ai.VisionAnalyzer.
// It allows custom behavior injection via function fields.
type MockVisionAnalyzer struct {
	// AnalyzeImageFunc is called by AnalyzeImage if set.
	// If nil, uses default deterministic behavior.
	AnalyzeImageFunc func(ctx context.Context, imageURL, caption string) (string, error)

	callCount int
}

// NewMockVisionAnalyzer creates a mock vision analyzer with default
// deterministic behavior. Note: Returns concrete type to allow test
// assertions.
func NewMockVisionAnalyzer() *MockVisionAnalyzer {
	return &MockVisionAnalyzer{}
}

// AnalyzeImage returns a canned description.
func (m *MockVisionAnalyzer) AnalyzeImage(ctx context.Context, imageURL, caption string) (string, error) {
	m.callCount++

	if m.AnalyzeImageFunc != nil {
		return m.AnalyzeImageFunc(ctx, imageURL, caption)
	}

	return "Mock description of " + imageURL, nil
}

// CallCount returns the number of times AnalyzeImage was called.
func (m *MockVisionAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockVisionAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeImageFunc = nil
}
