package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, rows []model.EnrichedTransaction, summary report.Summary) (string, error)
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error   error
	Summary report.Summary
	Rows    []model.EnrichedTransaction
}

var _ ReportWriter = (*MockWriter)(nil)

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements ReportWriter. Without a WriteFunc it reports "mock-sheet".
func (m *MockWriter) Write(ctx context.Context, rows []model.EnrichedTransaction, summary report.Summary) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++

	id, err := "mock-sheet", error(nil)
	if m.WriteFunc != nil {
		id, err = m.WriteFunc(ctx, rows, summary)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{Rows: rows, Summary: summary, Error: err})
	return id, err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = nil
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError configures the mock to fail every Write call.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, []model.EnrichedTransaction, report.Summary) (string, error) {
		return "", err
	}
}
