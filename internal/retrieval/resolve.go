package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoArtifact is returned when the engine reported success but no output
// file could be located in the workspace.
var ErrNoArtifact = fmt.Errorf("no artifact found in workspace")

// fallbackExtensions orders the directory-scan probe after the canonical
// merge container. The engine's merge-then-rename step can leave the final
// file under a different extension than its template implied.
var fallbackExtensions = []string{"mkv", "webm", "mov", "avi", "flv", "m4a", "mp3", "opus", "ogg", "wav"}

// sidecarSuffixes are engine byproducts that are never the artifact.
var sidecarSuffixes = []string{".part", ".ytdl", ".temp", ".info.json", ".description", ".jpg", ".jpeg", ".png", ".webp"}

// ResolveArtifact locates the produced file. Probe order:
//
//  1. the engine-reported path, verbatim
//  2. the reported base name with the canonical merge extension
//  3. a sorted scan of dir, merge container first, then known media
//     extensions
//
// Resolution is deterministic for a fixed directory state. Returns
// [ErrNoArtifact] when every probe misses.
func ResolveArtifact(reported, dir, mergeContainer string) (string, error) {
	if reported != "" {
		if isRegularFile(reported) {
			return reported, nil
		}
		candidate := strings.TrimSuffix(reported, filepath.Ext(reported)) + "." + mergeContainer
		if isRegularFile(candidate) {
			return candidate, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan workspace: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || isSidecar(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, ext := range append([]string{mergeContainer}, fallbackExtensions...) {
		for _, name := range names {
			if strings.EqualFold(strings.TrimPrefix(filepath.Ext(name), "."), ext) {
				return filepath.Join(dir, name), nil
			}
		}
	}

	return "", ErrNoArtifact
}

func isSidecar(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range sidecarSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
