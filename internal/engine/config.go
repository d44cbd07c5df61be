package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// DefaultOutputTemplate names the artifact after the source title; the
// engine substitutes the real extension after merging.
const DefaultOutputTemplate = "%(title)s.%(ext)s"

// Config enumerates every engine option this backend sets. It is built
// fresh per request and never mutated after construction; a retry rebuilds
// it instead of patching.
type Config struct {
	FormatSpec       string
	MergeContainer   string
	OutputTemplate   string
	UserAgent        string
	ExtraHeaders     map[string]string
	CookieFile       string
	SocketTimeout    time.Duration
	Retries          int
	ExtractorRetries int
	AllowPlaylist    bool
	SkipCertCheck    bool
}

// Args renders the config into the engine's argv, with the output template
// anchored under destDir. The URL is appended by the caller.
func (c Config) Args(destDir string) []string {
	template := c.OutputTemplate
	if template == "" {
		template = DefaultOutputTemplate
	}

	args := []string{
		"--format", c.FormatSpec,
		"--merge-output-format", c.MergeContainer,
		"--output", filepath.Join(destDir, template),
		"--quiet", "--no-warnings", "--no-progress", "--newline", "--no-colors",
		"--socket-timeout", strconv.Itoa(int(c.SocketTimeout / time.Second)),
		"--retries", strconv.Itoa(c.Retries),
		"--extractor-retries", strconv.Itoa(c.ExtractorRetries),
		// Learn the final artifact path from the engine itself rather
		// than guessing at template substitution.
		"--print", "after_move:filepath", "--no-simulate",
		"--write-info-json",
	}

	if !c.AllowPlaylist {
		args = append(args, "--no-playlist")
	}
	if c.SkipCertCheck {
		args = append(args, "--no-check-certificates")
	}
	if c.UserAgent != "" {
		args = append(args, "--user-agent", c.UserAgent)
	}

	// Sorted for a deterministic argv.
	keys := make([]string, 0, len(c.ExtraHeaders))
	for k := range c.ExtraHeaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--add-header", fmt.Sprintf("%s:%s", k, c.ExtraHeaders[k]))
	}

	if c.CookieFile != "" {
		args = append(args, "--cookies", c.CookieFile)
	}

	return args
}
