// package engine wraps the external yt-dlp extraction binary.
//
// The engine performs the actual network fetch, site-specific parsing and
// stream merge; this package only builds its invocation and interprets its
// exit status. It is never reimplemented here.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shikhar109/Downloder/internal/shared"
)

// Engine runs one extraction into destDir and reports where the final file
// landed. Implementations must be safe for concurrent use.
type Engine interface {
	Run(ctx context.Context, url string, cfg Config, destDir string) (*Report, error)
}

// Report describes a completed extraction.
type Report struct {
	// ReportedPath is the output path the engine printed after its final
	// move/merge step. The engine substitutes metadata (title, ext) into
	// its output template, so this is the first place to look for the
	// artifact, not a guarantee.
	ReportedPath string
}

// RunError carries the engine's combined output and exit code so failures
// can be classified upstream.
type RunError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("engine exited with code %d: %s", e.ExitCode, e.Output)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// YtDlp invokes the yt-dlp binary via os/exec.
type YtDlp struct {
	binary string
	logger *log.Logger
}

// NewYtDlp creates an engine backed by the given yt-dlp binary path
// (resolved through PATH when not absolute).
func NewYtDlp(binary string, logger *log.Logger) *YtDlp {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlp{binary: binary, logger: logger}
}

// Run executes one download. The engine handles its own transient-fault
// retries per cfg; a context cancellation kills the process.
func (y *YtDlp) Run(ctx context.Context, url string, cfg Config, destDir string) (*Report, error) {
	args := append(cfg.Args(destDir), url)

	cmd := exec.CommandContext(ctx, y.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if y.logger != nil {
		y.logger.Debug("invoking engine", "binary", y.binary, "dest", destDir)
	}

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrEngineUnavailable, y.binary)
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = strings.TrimSpace(stdout.String())
		}
		return nil, &RunError{ExitCode: exitCode, Output: output, Err: err}
	}

	return &Report{ReportedPath: lastLine(stdout.String())}, nil
}

// lastLine returns the final non-empty line of the engine's stdout, which
// holds the printed after-move filepath.
func lastLine(s string) string {
	lines := strings.Split(s, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
