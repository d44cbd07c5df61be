package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/shikhar109/Downloder/internal/cookies"
	"github.com/shikhar109/Downloder/internal/engine"
	"github.com/shikhar109/Downloder/internal/history"
	"github.com/shikhar109/Downloder/internal/retrieval"
	"github.com/shikhar109/Downloder/internal/shared"
	testutil "github.com/shikhar109/Downloder/internal/testing"
)

type gatewayFixture struct {
	handler http.Handler
	cookies *cookies.Store
}

func newGateway(t *testing.T, eng engine.Engine, adminKey string) *gatewayFixture {
	t.Helper()

	store := cookies.NewStore(filepath.Join(t.TempDir(), "cookies.txt"), adminKey, nil)
	logger := shared.NewLogger(io.Discard)

	orch := retrieval.NewOrchestrator(retrieval.OrchestratorOpts{
		Engine:     eng,
		Workspaces: retrieval.NewWorkspaceManager(t.TempDir(), logger),
		Cookies:    store,
		Logger:     logger,
	})

	srv := New(Opts{
		Addr:         "127.0.0.1:0",
		Orchestrator: orch,
		Cookies:      store,
		Logger:       logger,
	})

	return &gatewayFixture{handler: srv.Handler(), cookies: store}
}

func postDownload(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/download", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func multipartCookies(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("cookies", "cookies.txt")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return payload
}

func TestIndexHandler(t *testing.T) {
	t.Run("ReportsStatusAndCookiePresence", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		payload := decodeBody(t, rec)
		if payload["cookies_present"] != false {
			t.Error("expected cookies_present false")
		}
		if payload["status"] == "" {
			t.Error("expected a status string")
		}
	})

	t.Run("UnknownPathIs404", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestDownloadHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		rec := postDownload(t, f.handler, `{"url": "https://valid.example/watch?v=abc"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, "video.mp4") {
			t.Errorf("unexpected Content-Disposition: %q", cd)
		}
		if rec.Body.String() != "media" {
			t.Errorf("unexpected body: %q", rec.Body.String())
		}
	})

	t.Run("MissingURL", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		rec := postDownload(t, f.handler, `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("InvalidJSONBody", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		rec := postDownload(t, f.handler, `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("BotBlockWithoutCookies", func(t *testing.T) {
		eng := testutil.FailingEngine("ERROR: Sign in to confirm you're not a bot", 1)
		f := newGateway(t, eng, "secret")

		rec := postDownload(t, f.handler, `{"url": "https://valid.example/watch?v=blocked"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		payload := decodeBody(t, rec)
		if !strings.Contains(payload["error"].(string), "bot") {
			t.Errorf("expected bot-block message, got %v", payload["error"])
		}
		if payload["detail"] == nil || payload["detail"] == "" {
			t.Error("expected actionable detail")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		eng := testutil.FailingEngine("ERROR: Video unavailable", 1)
		f := newGateway(t, eng, "secret")

		rec := postDownload(t, f.handler, `{"url": "https://valid.example/watch?v=gone"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("ArtifactMissing", func(t *testing.T) {
		eng := &testutil.MockEngine{
			RunFunc: func(ctx context.Context, url string, cfg engine.Config, destDir string) (*engine.Report, error) {
				return &engine.Report{}, nil
			},
		}
		f := newGateway(t, eng, "secret")

		rec := postDownload(t, f.handler, `{"url": "https://valid.example/watch?v=abc"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		req := httptest.NewRequest(http.MethodGet, "/download", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("ConcurrentDownloadsDoNotInterfere", func(t *testing.T) {
		eng := &testutil.MockEngine{
			RunFunc: func(ctx context.Context, url string, cfg engine.Config, destDir string) (*engine.Report, error) {
				path := filepath.Join(destDir, "video.mp4")
				return &engine.Report{ReportedPath: path}, os.WriteFile(path, []byte(url), 0o644)
			},
		}
		f := newGateway(t, eng, "secret")

		ts := httptest.NewServer(f.handler)
		defer ts.Close()

		const n = 8
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				url := fmt.Sprintf("https://valid.example/watch?v=%d", i)
				body := fmt.Sprintf(`{"url": %q}`, url)

				resp, err := http.Post(ts.URL+"/download", "application/json", strings.NewReader(body))
				if err != nil {
					t.Errorf("request %d failed: %v", i, err)
					return
				}
				defer resp.Body.Close()

				if resp.StatusCode != http.StatusOK {
					t.Errorf("request %d: expected 200, got %d", i, resp.StatusCode)
					return
				}
				data, err := io.ReadAll(resp.Body)
				if err != nil || string(data) != url {
					t.Errorf("request %d observed foreign artifact: %q (%v)", i, data, err)
				}
			}(i)
		}
		wg.Wait()
	})
}

func TestCookiesEndpoints(t *testing.T) {
	t.Run("UploadThenIndexReportsPresence", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		body, contentType := multipartCookies(t, "# Netscape HTTP Cookie File\n")
		req := httptest.NewRequest(http.MethodPost, "/upload_cookies", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-ADMIN-KEY", "secret")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if payload := decodeBody(t, rec); payload["status"] != "cookies uploaded" {
			t.Errorf("unexpected status: %v", payload["status"])
		}

		idx := httptest.NewRequest(http.MethodGet, "/", nil)
		idxRec := httptest.NewRecorder()
		f.handler.ServeHTTP(idxRec, idx)
		if payload := decodeBody(t, idxRec); payload["cookies_present"] != true {
			t.Error("index should report cookies_present true after upload")
		}
	})

	t.Run("UploadWrongKey", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		body, contentType := multipartCookies(t, "data")
		req := httptest.NewRequest(http.MethodPost, "/upload_cookies", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-ADMIN-KEY", "wrong")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if f.cookies.Present() {
			t.Error("unauthorized upload must not install cookies")
		}
	})

	t.Run("UploadRejectsWrongKeyBeforeReadingBody", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		// The body is not even valid multipart; an unauthorized caller
		// must get 401, never a parse-side 400.
		req := httptest.NewRequest(http.MethodPost, "/upload_cookies", strings.NewReader("garbage"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		req.Header.Set("X-ADMIN-KEY", "wrong")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("UploadMissingFilePart", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		writer.WriteField("other", "x")
		writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/upload_cookies", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("X-ADMIN-KEY", "secret")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("NoAdminKeyConfiguredFailsClosed", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "")

		body, contentType := multipartCookies(t, "data")
		req := httptest.NewRequest(http.MethodPost, "/upload_cookies", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-ADMIN-KEY", "anything")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}

		del := httptest.NewRequest(http.MethodPost, "/delete_cookies", nil)
		del.Header.Set("X-ADMIN-KEY", "anything")
		delRec := httptest.NewRecorder()
		f.handler.ServeHTTP(delRec, del)

		if delRec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500 for delete, got %d", delRec.Code)
		}
	})

	t.Run("DeleteFlow", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		del := httptest.NewRequest(http.MethodPost, "/delete_cookies", nil)
		del.Header.Set("X-ADMIN-KEY", "secret")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, del)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if payload := decodeBody(t, rec); payload["status"] != "no cookies present" {
			t.Errorf("unexpected status: %v", payload["status"])
		}

		body, contentType := multipartCookies(t, "data")
		up := httptest.NewRequest(http.MethodPost, "/upload_cookies", body)
		up.Header.Set("Content-Type", contentType)
		up.Header.Set("X-ADMIN-KEY", "secret")
		f.handler.ServeHTTP(httptest.NewRecorder(), up)

		del2 := httptest.NewRequest(http.MethodPost, "/delete_cookies", nil)
		del2.Header.Set("X-ADMIN-KEY", "secret")
		rec2 := httptest.NewRecorder()
		f.handler.ServeHTTP(rec2, del2)

		if payload := decodeBody(t, rec2); payload["status"] != "cookies deleted" {
			t.Errorf("unexpected status: %v", payload["status"])
		}
		if f.cookies.Present() {
			t.Error("cookies should be gone")
		}
	})

	t.Run("DeleteWrongKey", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		del := httptest.NewRequest(http.MethodPost, "/delete_cookies", nil)
		del.Header.Set("X-ADMIN-KEY", "wrong")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, del)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestHistoryHandler(t *testing.T) {
	t.Run("NotConfigured", func(t *testing.T) {
		f := newGateway(t, &testutil.MockEngine{}, "secret")

		req := httptest.NewRequest(http.MethodGet, "/history", nil)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("ListsRecords", func(t *testing.T) {
		db, err := shared.NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		if err := shared.RunMigrations(db); err != nil {
			t.Fatalf("failed to migrate: %v", err)
		}
		repo := history.NewRepository(db)
		if err := repo.Insert(history.Record{ID: "a", URL: "https://v/1", Outcome: "success", Artifact: "one.mp4"}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}

		handler := &HistoryHandler{Repo: repo}
		req := httptest.NewRequest(http.MethodGet, "/history?limit=5", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		payload := decodeBody(t, rec)
		downloads, ok := payload["downloads"].([]any)
		if !ok || len(downloads) != 1 {
			t.Errorf("expected one download entry, got %v", payload["downloads"])
		}
	})
}
