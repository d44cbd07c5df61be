package retrieval

import (
	"os"
	"sync"
	"testing"
)

func TestWorkspaceManager(t *testing.T) {
	t.Run("AllocateCreatesDirectory", func(t *testing.T) {
		manager := NewWorkspaceManager(t.TempDir(), nil)

		ws, err := manager.Allocate()
		if err != nil {
			t.Fatalf("failed to allocate workspace: %v", err)
		}

		info, err := os.Stat(ws.Root)
		if err != nil {
			t.Fatalf("workspace directory should exist: %v", err)
		}
		if !info.IsDir() {
			t.Error("workspace root should be a directory")
		}
	})

	t.Run("ConcurrentAllocationsAreDisjoint", func(t *testing.T) {
		manager := NewWorkspaceManager(t.TempDir(), nil)

		const n = 32
		var wg sync.WaitGroup
		roots := make(chan string, n)

		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ws, err := manager.Allocate()
				if err != nil {
					t.Errorf("allocation failed: %v", err)
					return
				}
				roots <- ws.Root
			}()
		}
		wg.Wait()
		close(roots)

		seen := map[string]bool{}
		for root := range roots {
			if seen[root] {
				t.Fatalf("duplicate workspace directory: %s", root)
			}
			seen[root] = true
		}
		if len(seen) != n {
			t.Errorf("expected %d distinct workspaces, got %d", n, len(seen))
		}
	})

	t.Run("ReleaseRemovesDirectory", func(t *testing.T) {
		manager := NewWorkspaceManager(t.TempDir(), nil)

		ws, err := manager.Allocate()
		if err != nil {
			t.Fatalf("failed to allocate workspace: %v", err)
		}
		if err := os.WriteFile(ws.Root+"/artifact.mp4", []byte("media"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		ws.Release()

		if _, err := os.Stat(ws.Root); !os.IsNotExist(err) {
			t.Errorf("workspace directory should be gone, stat err: %v", err)
		}
		if !ws.Released() {
			t.Error("workspace should report released")
		}
	})

	t.Run("ReleaseIsIdempotent", func(t *testing.T) {
		manager := NewWorkspaceManager(t.TempDir(), nil)

		ws, err := manager.Allocate()
		if err != nil {
			t.Fatalf("failed to allocate workspace: %v", err)
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ws.Release()
			}()
		}
		wg.Wait()

		// And again after the dust settles.
		ws.Release()
	})
}
