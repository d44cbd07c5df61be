package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shikhar109/Downloder/internal/cookies"
	"github.com/shikhar109/Downloder/internal/history"
	"github.com/shikhar109/Downloder/internal/retrieval"
	"github.com/shikhar109/Downloder/internal/shared"
)

// maxCookieUploadBytes bounds the multipart form held in memory; cookie
// bundles are tiny.
const maxCookieUploadBytes = 4 << 20

// IndexHandler reports backend status and whether the shared cookie
// artifact is present, so the frontend can gate its upload prompt.
type IndexHandler struct {
	Cookies *cookies.Store
}

func (h *IndexHandler) Routes() []string {
	return []string{"/"}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// "/" is the mux catch-all; anything else under it is unknown.
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found", "")
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "CutCraft backend running",
		"cookies_present": h.Cookies.Present(),
	})
}

// DownloadHandler accepts {"url": ...} and streams back the retrieved
// artifact as an attachment.
type DownloadHandler struct {
	Orchestrator *retrieval.Orchestrator
	Logger       *log.Logger
}

func (h *DownloadHandler) Routes() []string {
	return []string{"/download"}
}

type downloadRequest struct {
	URL string `json:"url"`
}

func (h *DownloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", "")
		return
	}

	result, err := h.Orchestrator.Retrieve(r.Context(), req.URL)
	if err != nil {
		kind := retrieval.KindOf(err)
		writeError(w, statusForKind(kind), messageForKind(kind), retrieval.DetailOf(err))
		return
	}
	// Workspace cleanup happens after the file has been streamed,
	// including on client disconnect.
	defer result.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	http.ServeFile(w, r, result.ArtifactPath)
}

// messageForKind is the client-facing summary line per failure kind; the
// actionable specifics travel in the detail field.
func messageForKind(kind retrieval.ErrorKind) string {
	switch kind {
	case retrieval.KindInvalidInput:
		return "No valid URL provided"
	case retrieval.KindAuthRequired:
		return "Sign in to confirm you're not a bot. Cookies required."
	case retrieval.KindNotFound:
		return "Video not found or restricted"
	case retrieval.KindArtifactMissing:
		return "Download finished but file missing"
	default:
		return "Download failed"
	}
}

// CookiesHandler serves the admin-gated cookie mutation endpoints.
type CookiesHandler struct {
	Store  *cookies.Store
	Logger *log.Logger
}

func (h *CookiesHandler) Routes() []string {
	return []string{"/upload_cookies", "/delete_cookies"}
}

func (h *CookiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/upload_cookies":
		h.upload(w, r)
	case "/delete_cookies":
		h.delete(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found", "")
	}
}

func (h *CookiesHandler) upload(w http.ResponseWriter, r *http.Request) {
	// Reject unauthenticated callers before buffering any of the form.
	if err := h.Store.Authorize(r.Header.Get("X-ADMIN-KEY")); err != nil {
		h.writeStoreError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxCookieUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", "")
		return
	}

	file, _, err := r.FormFile("cookies")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part named 'cookies' found. Use form field 'cookies'.", "")
		return
	}
	defer file.Close()

	if err := h.Store.Replace(file, r.Header.Get("X-ADMIN-KEY")); err != nil {
		h.writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "cookies uploaded",
		"path":   h.Store.Path(),
	})
}

func (h *CookiesHandler) delete(w http.ResponseWriter, r *http.Request) {
	existed, err := h.Store.Delete(r.Header.Get("X-ADMIN-KEY"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	status := "cookies deleted"
	if !existed {
		status = "no cookies present"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *CookiesHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAdminKeyUnset):
		writeError(w, http.StatusInternalServerError, "ADMIN_KEY not set on server. Set ADMIN_KEY as an environment variable.", "")
	case errors.Is(err, shared.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized. Provide correct X-ADMIN-KEY header.", "")
	case errors.Is(err, shared.ErrEmptyCookies):
		writeError(w, http.StatusBadRequest, "No file selected", "")
	default:
		if h.Logger != nil {
			h.Logger.Error("cookie store failure", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "Failed to update cookies", "")
	}
}

// HistoryHandler lists recent retrieval attempts.
type HistoryHandler struct {
	Repo   *history.Repository
	Logger *log.Logger
}

func (h *HistoryHandler) Routes() []string {
	return []string{"/history"}
}

type historyEntry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Outcome   string    `json:"outcome"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Artifact  string    `json:"artifact,omitempty"`
	Title     string    `json:"title,omitempty"`
	ElapsedMS int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.Repo == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured", "")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	records, err := h.Repo.Recent(limit)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("history query failed", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "failed to load history", "")
		return
	}

	entries := make([]historyEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, historyEntry{
			ID:        rec.ID,
			URL:       rec.URL,
			Outcome:   rec.Outcome,
			ErrorKind: rec.ErrorKind,
			Detail:    rec.Detail,
			Artifact:  rec.Artifact,
			Title:     rec.Title,
			ElapsedMS: rec.ElapsedMS,
			CreatedAt: rec.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"downloads": entries})
}
