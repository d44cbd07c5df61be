package engine

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Metadata is the subset of the engine's info.json sidecar this backend
// cares about.
type Metadata struct {
	ID        string
	Title     string
	Extractor string
	Ext       string
	Duration  float64
}

// ReadMetadata locates the info.json sidecar the engine wrote into dir and
// extracts the fields above. Returns false when no sidecar exists or it
// cannot be read; metadata is best-effort and never fails a download.
func ReadMetadata(dir string) (*Metadata, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}

	var sidecars []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".info.json") {
			sidecars = append(sidecars, entry.Name())
		}
	}
	if len(sidecars) == 0 {
		return nil, false
	}
	sort.Strings(sidecars)

	data, err := os.ReadFile(filepath.Join(dir, sidecars[0]))
	if err != nil {
		return nil, false
	}

	meta := &Metadata{
		ID:        gjson.GetBytes(data, "id").String(),
		Title:     gjson.GetBytes(data, "title").String(),
		Extractor: gjson.GetBytes(data, "extractor").String(),
		Ext:       gjson.GetBytes(data, "ext").String(),
		Duration:  gjson.GetBytes(data, "duration").Float(),
	}
	return meta, true
}
