package mock

import (
	"context"
	"fmt"
)

// MockResponder is a test double for ai.Responder.
// It allows custom behavior injection via function fields.
type MockResponder struct {
	// GenerateResponseFunc is called by GenerateResponse if set.
	// If nil, uses default deterministic behavior.
	GenerateResponseFunc func(ctx context.Context, query, contextBlock string) (string, error)

	callCount   int
	lastQuery   string
	lastContext string
}

// NewMockResponder creates a mock responder with default deterministic
// behavior. Note: Returns concrete type to allow test assertions.
func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

// GenerateResponse returns a canned reply echoing the query.
func (m *MockResponder) GenerateResponse(ctx context.Context, query, contextBlock string) (string, error) {
	m.callCount++
	m.lastQuery = query
	m.lastContext = contextBlock

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, query, contextBlock)
	}

	return fmt.Sprintf("Mock response to: %s", query), nil
}

// CallCount returns the number of times GenerateResponse was called.
func (m *MockResponder) CallCount() int {
	return m.callCount
}

// LastQuery returns the query of the most recent call.
func (m *MockResponder) LastQuery() string {
	return m.lastQuery
}

// LastContext returns the context block of the most recent call.
func (m *MockResponder) LastContext() string {
	return m.lastContext
}

// Reset clears the call count and injected behavior.
func (m *MockResponder) Reset() {
	m.callCount = 0
	m.lastQuery = ""
	m.lastContext = ""
	m.GenerateResponseFunc = nil
}
