// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shikhar109/Downloder/internal/engine"
)

// MockEngine is a test double for [engine.Engine]. RunFunc decides the
// behavior per call; when nil, the engine "downloads" a small file named
// video.mp4 into the destination directory.
type MockEngine struct {
	RunFunc func(ctx context.Context, url string, cfg engine.Config, destDir string) (*engine.Report, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockEngine) Run(ctx context.Context, url string, cfg engine.Config, destDir string) (*engine.Report, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, url, cfg, destDir)
	}

	path := filepath.Join(destDir, "video.mp4")
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		return nil, err
	}
	return &engine.Report{ReportedPath: path}, nil
}

// Calls returns the URLs Run was invoked with, in order.
func (m *MockEngine) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// FailingEngine always fails with the given output text, mimicking a
// yt-dlp stderr dump.
func FailingEngine(output string, exitCode int) *MockEngine {
	return &MockEngine{
		RunFunc: func(context.Context, string, engine.Config, string) (*engine.Report, error) {
			return nil, &engine.RunError{ExitCode: exitCode, Output: output, Err: fmt.Errorf("exit status %d", exitCode)}
		},
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
