// package retrieval orchestrates one media download end to end: workspace
// allocation, engine configuration, failure classification, artifact
// resolution and guaranteed cleanup.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shikhar109/Downloder/internal/cookies"
	"github.com/shikhar109/Downloder/internal/engine"
	"github.com/shikhar109/Downloder/internal/history"
	"github.com/shikhar109/Downloder/internal/shared"
	"golang.org/x/sync/semaphore"
)

// ErrorKind is the closed failure taxonomy. Classification happens once at
// the engine boundary; everything above deals only in these kinds plus a
// human-readable detail string.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "invalid_input"
	KindAuthRequired    ErrorKind = "auth_required"
	KindNotFound        ErrorKind = "not_found"
	KindArtifactMissing ErrorKind = "artifact_missing"
	KindGeneric         ErrorKind = "generic"
)

// Error is the tagged failure value returned by Retrieve.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from an error returned by Retrieve. Unknown
// errors are generic.
func KindOf(err error) ErrorKind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return KindGeneric
}

// DetailOf extracts the human-actionable detail from an error returned by
// Retrieve.
func DetailOf(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Detail
	}
	return ""
}

// Client-facing messages for the bot-block case. The frontend keys its
// cookie-upload prompt off these.
const (
	authRequiredMessage = "Sign in to confirm you're not a bot. Cookies required."
	authRequiredDetail  = "The video requires a logged-in session. Upload cookies.txt via /upload_cookies with your ADMIN_KEY to allow downloads."
	staleCookiesDetail  = "Cookies are present on the server but the source still refused the request; they may be stale or invalid."
)

// Result is the terminal value of one successful retrieval. The artifact
// lives inside the request's workspace, so the caller must finish streaming
// it before calling Close.
type Result struct {
	RequestID    string
	URL          string
	ArtifactPath string
	Filename     string
	Title        string
	Elapsed      time.Duration

	release func()
}

// Close releases the workspace holding the artifact. Idempotent.
func (r *Result) Close() {
	if r.release != nil {
		r.release()
	}
}

// Options holds the per-process retrieval policy. Zero values take the
// defaults below.
type Options struct {
	FormatSpec       string
	MergeContainer   string
	SocketTimeout    time.Duration
	Retries          int
	ExtractorRetries int
	SkipCertCheck    bool
	ExtraHeaders     map[string]string
	MaxConcurrent    int64
}

func (o *Options) fillDefaults() {
	if o.FormatSpec == "" {
		o.FormatSpec = "bestvideo+bestaudio/best"
	}
	if o.MergeContainer == "" {
		o.MergeContainer = "mp4"
	}
	if o.SocketTimeout <= 0 {
		o.SocketTimeout = 20 * time.Second
	}
	if o.Retries <= 0 {
		o.Retries = 3
	}
	if o.ExtractorRetries <= 0 {
		o.ExtractorRetries = 3
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 4
	}
	if o.ExtraHeaders == nil {
		o.ExtraHeaders = map[string]string{
			"Referer":         "https://www.youtube.com/",
			"Accept-Language": "en-US,en;q=0.9",
		}
	}
}

// Orchestrator drives the retrieval state machine. All fields are set at
// construction; the only shared mutable resource it touches is the cookie
// store, which is read atomically.
type Orchestrator struct {
	engine     engine.Engine
	workspaces *WorkspaceManager
	cookies    *cookies.Store
	agents     *engine.UserAgentPool
	history    *history.Repository
	metrics    Metrics
	logger     *log.Logger
	opts       Options
	sem        *semaphore.Weighted
}

// OrchestratorOpts contains dependencies for creating an Orchestrator.
// History and Metrics are optional.
type OrchestratorOpts struct {
	Engine     engine.Engine
	Workspaces *WorkspaceManager
	Cookies    *cookies.Store
	Agents     *engine.UserAgentPool
	History    *history.Repository
	Metrics    Metrics
	Logger     *log.Logger
	Options    Options
}

// NewOrchestrator creates an Orchestrator with the provided dependencies.
func NewOrchestrator(opts OrchestratorOpts) *Orchestrator {
	opts.Options.fillDefaults()
	if opts.Metrics == nil {
		opts.Metrics = NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Agents == nil {
		opts.Agents = engine.NewUserAgentPool(nil, engine.PolicyRoundRobin)
	}
	return &Orchestrator{
		engine:     opts.Engine,
		workspaces: opts.Workspaces,
		cookies:    opts.Cookies,
		agents:     opts.Agents,
		history:    opts.History,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		opts:       opts.Options,
		sem:        semaphore.NewWeighted(opts.Options.MaxConcurrent),
	}
}

// CookiesPresent reports whether the shared credential artifact exists.
func (o *Orchestrator) CookiesPresent() bool {
	return o.cookies != nil && o.cookies.Present()
}

// Retrieve downloads the media at rawURL and returns the resolved artifact.
//
// On success the caller owns the result and must call Close after streaming
// the file; on failure the workspace is already gone and the returned error
// carries an [ErrorKind]. Cleanup runs on every path.
func (o *Orchestrator) Retrieve(ctx context.Context, rawURL string) (*Result, error) {
	requestID := shared.ShortID()
	logger := shared.WithLogger(o.logger, "request", requestID)

	// Cheap fast-fail before any filesystem work.
	rawURL = strings.TrimSpace(rawURL)
	if err := validateURL(rawURL); err != nil {
		return nil, &Error{Kind: KindInvalidInput, Detail: err.Error(), Err: err}
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, &Error{Kind: KindGeneric, Detail: "request cancelled", Err: err}
	}
	defer o.sem.Release(1)

	o.metrics.RetrievalStarted()
	started := time.Now()

	result, err := o.retrieve(ctx, requestID, rawURL, logger)
	elapsed := time.Since(started)

	outcome := "success"
	if err != nil {
		outcome = string(KindOf(err))
	}
	o.metrics.RetrievalFinished(outcome, elapsed.Seconds())
	o.record(requestID, rawURL, result, err, elapsed)

	if result != nil {
		result.Elapsed = elapsed
	}
	return result, err
}

func (o *Orchestrator) retrieve(ctx context.Context, requestID, rawURL string, logger *log.Logger) (*Result, error) {
	ws, err := o.workspaces.Allocate()
	if err != nil {
		logger.Error("workspace allocation failed", "error", err)
		return nil, &Error{Kind: KindGeneric, Detail: "failed to prepare download", Err: err}
	}

	// One release covers every exit below, panics included. The success
	// return hands the workspace to the caller through Result.Close.
	handedOff := false
	defer func() {
		if !handedOff {
			ws.Release()
		}
	}()

	cfg := o.buildConfig()
	logger.Info("starting retrieval", "url", rawURL, "workspace", ws.ID, "cookies", cfg.CookieFile != "")

	report, err := o.engine.Run(ctx, rawURL, cfg, ws.Root)
	if err != nil {
		return nil, o.classifyFailure(err, logger)
	}

	artifact, err := ResolveArtifact(report.ReportedPath, ws.Root, cfg.MergeContainer)
	if err != nil {
		logger.Error("artifact resolution failed", "workspace", ws.ID, "error", err)
		return nil, &Error{Kind: KindArtifactMissing, Detail: "download finished but file missing", Err: err}
	}

	result := &Result{
		RequestID:    requestID,
		URL:          rawURL,
		ArtifactPath: artifact,
		Filename:     filepath.Base(artifact),
		release:      ws.Release,
	}
	if meta, ok := engine.ReadMetadata(ws.Root); ok {
		result.Title = meta.Title
	}

	logger.Info("retrieval complete", "artifact", result.Filename)
	handedOff = true
	return result, nil
}

// buildConfig assembles a fresh engine config from policy defaults plus the
// current cookie store state. Rebuilt per request, never patched.
func (o *Orchestrator) buildConfig() engine.Config {
	ua := o.agents.Next()
	headers := map[string]string{"User-Agent": ua}
	for k, v := range o.opts.ExtraHeaders {
		headers[k] = v
	}

	cfg := engine.Config{
		FormatSpec:       o.opts.FormatSpec,
		MergeContainer:   o.opts.MergeContainer,
		OutputTemplate:   engine.DefaultOutputTemplate,
		UserAgent:        ua,
		ExtraHeaders:     headers,
		SocketTimeout:    o.opts.SocketTimeout,
		Retries:          o.opts.Retries,
		ExtractorRetries: o.opts.ExtractorRetries,
		AllowPlaylist:    false,
		SkipCertCheck:    o.opts.SkipCertCheck,
	}
	if o.cookies != nil && o.cookies.Present() {
		cfg.CookieFile = o.cookies.Path()
	}
	return cfg
}

// classifyFailure maps an engine error onto the closed taxonomy. A
// bot-block without cookies on file is actionable (the client can arrange
// an upload); with cookies present it is not, so it degrades to generic
// rather than looping.
func (o *Orchestrator) classifyFailure(err error, logger *log.Logger) *Error {
	var runErr *engine.RunError
	if !errors.As(err, &runErr) {
		logger.Error("engine invocation failed", "error", err)
		return &Error{Kind: KindGeneric, Detail: "download failed", Err: err}
	}

	kind := Classify(runErr.Output)
	logger.Warn("engine failure", "kind", kind, "exit_code", runErr.ExitCode)

	switch kind {
	case KindAuthRequired:
		if o.CookiesPresent() {
			return &Error{Kind: KindGeneric, Detail: staleCookiesDetail, Err: err}
		}
		return &Error{Kind: KindAuthRequired, Detail: authRequiredDetail, Err: fmt.Errorf("%s: %w", authRequiredMessage, err)}
	case KindNotFound:
		return &Error{Kind: KindNotFound, Detail: "video not found or restricted", Err: err}
	default:
		return &Error{Kind: KindGeneric, Detail: runErr.Output, Err: err}
	}
}

// record persists the attempt to the history store when one is configured.
// History failures are logged only; they never affect the response.
func (o *Orchestrator) record(requestID, rawURL string, result *Result, retrieveErr error, elapsed time.Duration) {
	if o.history == nil {
		return
	}

	rec := history.Record{
		ID:        requestID,
		URL:       rawURL,
		Outcome:   "success",
		ElapsedMS: elapsed.Milliseconds(),
	}
	if retrieveErr != nil {
		rec.Outcome = "failure"
		rec.ErrorKind = string(KindOf(retrieveErr))
		rec.Detail = DetailOf(retrieveErr)
	} else if result != nil {
		rec.Artifact = result.Filename
		rec.Title = result.Title
	}

	if err := o.history.Insert(rec); err != nil {
		o.logger.Warn("failed to record retrieval", "request", requestID, "error", err)
	}
}

// validateURL enforces a non-empty absolute http(s) URL.
func validateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: no URL provided", shared.ErrInvalidInput)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: malformed URL", shared.ErrInvalidInput)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: URL must be absolute http(s)", shared.ErrInvalidInput)
	}
	return nil
}
