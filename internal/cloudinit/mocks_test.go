package cloudinit

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// mockAuthor is a test double for ISOAuthor. It snapshots the staged
// files at call time, since the builder removes them afterwards.
type mockAuthor struct {
	mu sync.Mutex

	AuthorFunc func(ctx context.Context, isoPath string, files []string) error

	ISOPaths []string
	Staged   map[string]string
}

func newMockAuthor() *mockAuthor {
	return &mockAuthor{
		AuthorFunc: func(ctx context.Context, isoPath string, files []string) error {
			return os.WriteFile(isoPath, []byte("iso"), 0644)
		},
		Staged: make(map[string]string),
	}
}

func (m *mockAuthor) Author(ctx context.Context, isoPath string, files []string) error {
	m.mu.Lock()
	m.ISOPaths = append(m.ISOPaths, isoPath)
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			m.mu.Unlock()
			return err
		}
		m.Staged[filepath.Base(f)] = string(data)
	}
	m.mu.Unlock()
	return m.AuthorFunc(ctx, isoPath, files)
}

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
