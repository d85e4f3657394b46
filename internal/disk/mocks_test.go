package disk

import (
	"context"
	"sync"
)

// runCall records one Runner invocation.
type runCall struct {
	Name string
	Args []string
}

// mockRunner is a test double for Runner.
type mockRunner struct {
	mu sync.Mutex

	RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

	Calls []runCall
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		RunFunc: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, nil
		},
	}
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, runCall{Name: name, Args: append([]string(nil), args...)})
	m.mu.Unlock()
	return m.RunFunc(ctx, name, args...)
}
