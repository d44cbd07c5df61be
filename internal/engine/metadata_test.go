package engine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMetadata(t *testing.T) {
	t.Run("ParsesSidecar", func(t *testing.T) {
		dir := t.TempDir()
		sidecar := `{"id":"abc123","title":"My Clip","extractor":"youtube","ext":"mp4","duration":12.5,"unrelated":{"nested":true}}`
		if err := os.WriteFile(filepath.Join(dir, "My Clip.info.json"), []byte(sidecar), 0o644); err != nil {
			t.Fatalf("failed to write sidecar: %v", err)
		}

		meta, ok := ReadMetadata(dir)
		if !ok {
			t.Fatal("expected metadata")
		}
		if meta.ID != "abc123" || meta.Title != "My Clip" || meta.Extractor != "youtube" {
			t.Errorf("unexpected metadata: %+v", meta)
		}
		if meta.Duration != 12.5 {
			t.Errorf("expected duration 12.5, got %v", meta.Duration)
		}
	})

	t.Run("NoSidecar", func(t *testing.T) {
		if _, ok := ReadMetadata(t.TempDir()); ok {
			t.Error("expected no metadata in empty directory")
		}
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		if _, ok := ReadMetadata("/does/not/exist"); ok {
			t.Error("expected no metadata for missing directory")
		}
	})

	t.Run("MalformedJSONIsBestEffort", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "x.info.json"), []byte("{not json"), 0o644); err != nil {
			t.Fatalf("failed to write sidecar: %v", err)
		}

		// gjson returns zero values rather than failing; the download
		// itself must not care.
		meta, ok := ReadMetadata(dir)
		if !ok {
			t.Fatal("expected best-effort metadata")
		}
		if meta.Title != "" {
			t.Errorf("expected empty title, got %q", meta.Title)
		}
	})
}
