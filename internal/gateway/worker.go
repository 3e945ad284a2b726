package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/pantry/internal/core/generation"
	"github.com/example/pantry/internal/core/resource"
	"github.com/example/pantry/internal/core/scope"
	"github.com/example/pantry/internal/models"
	"github.com/example/pantry/internal/ports/secondary"
)

// Responses larger than this are proxied through without caching.
const maxCacheableBody = 8 << 20

// offlineHTML is the last-resort navigation response when neither the
// network nor any cached page can answer.
const offlineHTML = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Offline</title></head>
<body>
<h1>You are offline</h1>
<p>This page is not available right now. Reconnect and try again.</p>
</body>
</html>`

// offlineJSON is the structured offline error for api requests, so
// clients can distinguish "no network" from a server-side failure.
const offlineJSON = `{"error":"OFFLINE","message":"backend unreachable and no cached response"}`

// placeholderGIF is a 1x1 transparent GIF served when an image is
// missing from both network and cache, keeping page layouts intact.
var placeholderGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80,
	0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04,
	0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01,
	0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// WorkerConfig carries a worker's tunables.
type WorkerConfig struct {
	Version           string
	NavigationTimeout time.Duration
	APITimeout        time.Duration
}

// Worker is one cache gateway. It proxies its scope's traffic to the
// upstream backend, applying a per-resource-class caching policy so
// governed paths keep resolving while the upstream is unreachable.
type Worker struct {
	scope     scope.Descriptor
	cfg       WorkerConfig
	cacheRepo secondary.CacheRepository
	upstream  *url.URL
	proxy     *httputil.ReverseProxy
	client    *http.Client
	hub       *Hub
	logger    *zap.Logger
	now       func() time.Time
}

// NewWorker creates a gateway worker for one scope.
func NewWorker(desc scope.Descriptor, cfg WorkerConfig, cacheRepo secondary.CacheRepository, upstreamURL string, hub *Hub, logger *zap.Logger) (*Worker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub()
	}
	upstream, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", upstreamURL, err)
	}
	return &Worker{
		scope:     desc,
		cfg:       cfg,
		cacheRepo: cacheRepo,
		upstream:  upstream,
		proxy:     httputil.NewSingleHostReverseProxy(upstream),
		client:    &http.Client{},
		hub:       hub,
		logger:    logger.With(zap.String("scope", desc.Name)),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Scope returns the descriptor this worker governs.
func (w *Worker) Scope() scope.Descriptor {
	return w.scope
}

// Events returns the worker's event hub.
func (w *Worker) Events() *Hub {
	return w.hub
}

// Install precaches the scope's shell paths. Failures are logged and
// skipped; install never blocks startup on an unreachable upstream.
func (w *Worker) Install(ctx context.Context) {
	if err := w.ensurePartitions(ctx); err != nil {
		w.logger.Error("failed to create cache partitions", zap.Error(err))
		return
	}
	for _, p := range w.scope.PrecachePaths {
		class := resource.Classify(p, "text/html")
		resp, err := w.fetch(ctx, p, "text/html", w.cfg.NavigationTimeout)
		if err != nil || resp.status != http.StatusOK {
			w.logger.Warn("precache skipped", zap.String("path", p), zap.Error(err))
			continue
		}
		w.store(ctx, class, p, resp)
	}
	w.logger.Info("install finished", zap.Int("precache_paths", len(w.scope.PrecachePaths)))
}

// Activate makes this worker's version current: partitions for the
// running version are created, partitions from older versions in the
// same namespace are purged, and attached clients are told to reload.
func (w *Worker) Activate(ctx context.Context) error {
	if err := w.ensurePartitions(ctx); err != nil {
		return err
	}
	parts, err := w.cacheRepo.ListPartitions(ctx, w.scope.Namespace)
	if err != nil {
		return fmt.Errorf("failed to list partitions: %w", err)
	}
	for _, p := range parts {
		if !generation.IsStale(p.Name, w.scope.Namespace, w.cfg.Version) {
			continue
		}
		if err := w.cacheRepo.DeletePartition(ctx, p.Name); err != nil {
			return fmt.Errorf("failed to purge partition %s: %w", p.Name, err)
		}
		w.logger.Info("purged stale partition", zap.String("partition", p.Name))
	}
	w.hub.Publish(Activated{Scope: w.scope.Name, Version: w.cfg.Version, At: w.now()})
	w.hub.Publish(ReloadRequested{Scope: w.scope.Name})
	w.logger.Info("activated", zap.String("version", w.cfg.Version))
	return nil
}

// HandleMessage executes one command against this worker.
func (w *Worker) HandleMessage(ctx context.Context, msg Message) error {
	switch m := msg.(type) {
	case SkipWaiting:
		return w.Activate(ctx)
	case ClearCache:
		err := w.clearNamespace(ctx)
		if m.Reply != nil {
			m.Reply <- err
		}
		return err
	case CacheMenuData:
		if err := w.ensurePartitions(ctx); err != nil {
			return err
		}
		entry := &models.CacheEntry{
			Partition:   w.partition(generation.ClassAPI),
			RequestKey:  "/api/menu",
			Status:      http.StatusOK,
			ContentType: "application/json",
			Body:        m.Body,
			StoredAt:    w.now(),
		}
		if err := w.cacheRepo.Put(ctx, entry); err != nil {
			return fmt.Errorf("failed to seed menu cache: %w", err)
		}
		w.logger.Info("menu data cached", zap.Int("bytes", len(m.Body)))
		return nil
	default:
		return fmt.Errorf("unknown message type %T", msg)
	}
}

func (w *Worker) clearNamespace(ctx context.Context) error {
	parts, err := w.cacheRepo.ListPartitions(ctx, w.scope.Namespace)
	if err != nil {
		return fmt.Errorf("failed to list partitions: %w", err)
	}
	for _, p := range parts {
		if err := w.cacheRepo.DeletePartition(ctx, p.Name); err != nil {
			return fmt.Errorf("failed to delete partition %s: %w", p.Name, err)
		}
	}
	w.logger.Info("namespace cleared", zap.Int("partitions", len(parts)))
	return nil
}

func (w *Worker) ensurePartitions(ctx context.Context) error {
	for _, name := range generation.Current(w.scope.Namespace, w.cfg.Version) {
		parsed, _ := generation.Parse(name)
		p := &models.CachePartition{
			Name:      name,
			Namespace: w.scope.Namespace,
			Class:     parsed.Class,
			Version:   parsed.Version,
			CreatedAt: w.now(),
		}
		if err := w.cacheRepo.EnsurePartition(ctx, p); err != nil {
			return fmt.Errorf("failed to ensure partition %s: %w", name, err)
		}
	}
	return nil
}

// ServeHTTP dispatches a request to the caching policy of its resource
// class. Requests the scope may not intercept pass straight through.
func (w *Worker) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	guard := scope.CanIntercept(w.scope, scope.RequestContext{
		Method:     r.Method,
		Path:       r.URL.Path,
		SameOrigin: true,
	})
	if !guard.Allowed {
		w.logger.Debug("passthrough", zap.String("path", r.URL.Path), zap.String("reason", guard.Reason))
		w.proxy.ServeHTTP(rw, r)
		return
	}

	class := resource.Classify(r.URL.Path, r.Header.Get("Accept"))
	switch class {
	case resource.ClassBypass:
		w.proxy.ServeHTTP(rw, r)
	case resource.ClassNavigation:
		w.serveNavigation(rw, r)
	case resource.ClassAPI:
		w.serveAPI(rw, r)
	case resource.ClassStatic:
		w.serveCacheFirst(rw, r, generation.ClassStatic, w.missStatic)
	case resource.ClassImage:
		w.serveImage(rw, r)
	case resource.ClassMedia:
		w.serveCacheFirst(rw, r, generation.ClassStatic, w.missMedia)
	default:
		w.proxy.ServeHTTP(rw, r)
	}
}

// serveNavigation is network-first with a short timeout. A governed
// page request always gets an HTML answer: live page, cached page,
// cached fallback page, or the inline offline notice.
func (w *Worker) serveNavigation(rw http.ResponseWriter, r *http.Request) {
	key := requestKey(r)
	resp, err := w.fetch(r.Context(), key, r.Header.Get("Accept"), w.cfg.NavigationTimeout)
	if err == nil && resp.status == http.StatusOK {
		w.store(r.Context(), resource.ClassNavigation, key, resp)
		writeFetched(rw, resp, "miss")
		return
	}
	if err == nil && resp.status < http.StatusInternalServerError {
		// A client-level answer (redirect, 404, auth challenge) is
		// real; pass it along rather than masking it with cache.
		writeFetched(rw, resp, "miss")
		return
	}

	// Transport failure or upstream 5xx: both mean the backend cannot
	// serve right now, so a cached copy wins.
	for _, candidate := range []string{key, w.scope.FallbackPath} {
		if entry := w.lookup(r.Context(), generation.ClassRuntime, candidate); entry != nil {
			writeEntry(rw, entry, "hit")
			return
		}
		if entry := w.lookup(r.Context(), generation.ClassStatic, candidate); entry != nil {
			writeEntry(rw, entry, "hit")
			return
		}
	}

	if err == nil {
		// 5xx with nothing cached: surface the upstream error as-is.
		writeFetched(rw, resp, "miss")
		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Header().Set("X-Pantry-Cache", "offline")
	rw.WriteHeader(http.StatusServiceUnavailable)
	io.WriteString(rw, offlineHTML)
}

// serveAPI is network-first with the longer api timeout, falling back
// to the cached response and then to a structured offline error.
func (w *Worker) serveAPI(rw http.ResponseWriter, r *http.Request) {
	key := requestKey(r)
	resp, err := w.fetch(r.Context(), key, r.Header.Get("Accept"), w.cfg.APITimeout)
	if err == nil && resp.status == http.StatusOK {
		w.store(r.Context(), resource.ClassAPI, key, resp)
		writeFetched(rw, resp, "miss")
		return
	}
	if err == nil && resp.status < http.StatusInternalServerError {
		writeFetched(rw, resp, "miss")
		return
	}

	// Server errors fall back to the cached response like a dead
	// network would.
	if entry := w.lookup(r.Context(), generation.ClassAPI, key); entry != nil {
		writeEntry(rw, entry, "hit")
		return
	}

	if err == nil {
		writeFetched(rw, resp, "miss")
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.Header().Set("X-Pantry-Cache", "offline")
	rw.WriteHeader(http.StatusServiceUnavailable)
	io.WriteString(rw, offlineJSON)
}

// serveCacheFirst answers from cache when possible and defers to miss
// otherwise. Static assets are content-hashed, so a cached copy never
// goes stale within a version.
func (w *Worker) serveCacheFirst(rw http.ResponseWriter, r *http.Request, class string, miss func(http.ResponseWriter, *http.Request, string)) {
	key := requestKey(r)
	if entry := w.lookup(r.Context(), class, key); entry != nil {
		writeEntry(rw, entry, "hit")
		return
	}
	miss(rw, r, key)
}

func (w *Worker) missStatic(rw http.ResponseWriter, r *http.Request, key string) {
	resp, err := w.fetch(r.Context(), key, r.Header.Get("Accept"), w.cfg.APITimeout)
	if err != nil {
		rw.Header().Set("X-Pantry-Cache", "offline")
		http.Error(rw, "asset unavailable offline", http.StatusServiceUnavailable)
		return
	}
	if resp.status == http.StatusOK {
		w.store(r.Context(), resource.ClassStatic, key, resp)
	}
	writeFetched(rw, resp, "miss")
}

func (w *Worker) missMedia(rw http.ResponseWriter, r *http.Request, key string) {
	resp, err := w.fetch(r.Context(), key, r.Header.Get("Accept"), w.cfg.APITimeout)
	if err != nil {
		rw.Header().Set("X-Pantry-Cache", "offline")
		http.Error(rw, "media unavailable offline", http.StatusServiceUnavailable)
		return
	}
	if resp.status == http.StatusOK {
		w.store(r.Context(), resource.ClassMedia, key, resp)
	}
	writeFetched(rw, resp, "miss")
}

// serveImage is stale-while-revalidate: a cached image is served
// immediately and refreshed in the background. The refresh write is
// generation-guarded so a slow fetch can never clobber a newer entry.
func (w *Worker) serveImage(rw http.ResponseWriter, r *http.Request) {
	key := requestKey(r)
	if entry := w.lookup(r.Context(), generation.ClassImages, key); entry != nil {
		writeEntry(rw, entry, "stale")
		go w.revalidateImage(key, r.Header.Get("Accept"), entry.Generation)
		return
	}

	resp, err := w.fetch(r.Context(), key, r.Header.Get("Accept"), w.cfg.APITimeout)
	if err == nil && resp.status == http.StatusOK {
		w.store(r.Context(), resource.ClassImage, key, resp)
		writeFetched(rw, resp, "miss")
		return
	}
	if err == nil {
		writeFetched(rw, resp, "miss")
		return
	}

	rw.Header().Set("Content-Type", "image/gif")
	rw.Header().Set("X-Pantry-Cache", "placeholder")
	rw.WriteHeader(http.StatusOK)
	rw.Write(placeholderGIF)
}

// revalidateImage refreshes one cached image. It runs detached from
// the request, so the observed generation guards the write: if another
// refresh landed first, this one is dropped.
func (w *Worker) revalidateImage(key, accept string, observed int64) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.APITimeout)
	defer cancel()

	resp, err := w.fetch(ctx, key, accept, w.cfg.APITimeout)
	if err != nil || resp.status != http.StatusOK {
		return
	}
	entry := &models.CacheEntry{
		Partition:   w.partition(generation.ClassImages),
		RequestKey:  key,
		Status:      resp.status,
		ContentType: resp.contentType,
		Body:        resp.body,
		StoredAt:    w.now(),
	}
	ok, err := w.cacheRepo.CompareAndPut(ctx, entry, observed)
	if err != nil {
		w.logger.Error("image revalidation write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !ok {
		w.logger.Debug("image revalidation lost the race", zap.String("key", key))
	}
}

// fetched is an upstream response buffered for caching.
type fetched struct {
	status      int
	contentType string
	body        []byte
}

func (w *Worker) fetch(ctx context.Context, key, accept string, timeout time.Duration) (*fetched, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := *w.upstream
	if i := strings.IndexByte(key, '?'); i >= 0 {
		target.Path = key[:i]
		target.RawQuery = key[i+1:]
	} else {
		target.Path = key
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCacheableBody))
	if err != nil {
		return nil, err
	}
	return &fetched{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        body,
	}, nil
}

// store caches a successful response in the partition of its class.
// The partition is created on first use; a worker may serve before its
// activation ran.
func (w *Worker) store(ctx context.Context, class resource.Class, key string, resp *fetched) {
	pclass := partitionClass(class)
	p := &models.CachePartition{
		Name:      w.partition(pclass),
		Namespace: w.scope.Namespace,
		Class:     pclass,
		Version:   w.cfg.Version,
		CreatedAt: w.now(),
	}
	if err := w.cacheRepo.EnsurePartition(ctx, p); err != nil {
		w.logger.Warn("cache partition unavailable", zap.String("partition", p.Name), zap.Error(err))
		return
	}
	entry := &models.CacheEntry{
		Partition:   w.partition(partitionClass(class)),
		RequestKey:  key,
		Status:      resp.status,
		ContentType: resp.contentType,
		Body:        resp.body,
		StoredAt:    w.now(),
	}
	if err := w.cacheRepo.Put(ctx, entry); err != nil {
		// A failed cache write must not fail the response.
		w.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (w *Worker) lookup(ctx context.Context, class, key string) *models.CacheEntry {
	entry, err := w.cacheRepo.Get(ctx, w.partition(class), key)
	if err != nil {
		w.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return entry
}

func (w *Worker) partition(class string) string {
	return generation.Name(w.scope.Namespace, class, w.cfg.Version)
}

// partitionClass maps a resource class onto its partition class.
// Media shares the static partition.
func partitionClass(class resource.Class) string {
	switch class {
	case resource.ClassNavigation:
		return generation.ClassRuntime
	case resource.ClassAPI:
		return generation.ClassAPI
	case resource.ClassImage:
		return generation.ClassImages
	default:
		return generation.ClassStatic
	}
}

func requestKey(r *http.Request) string {
	if r.URL.RawQuery != "" {
		return r.URL.Path + "?" + r.URL.RawQuery
	}
	return r.URL.Path
}

func writeFetched(rw http.ResponseWriter, resp *fetched, cache string) {
	if resp.contentType != "" {
		rw.Header().Set("Content-Type", resp.contentType)
	}
	rw.Header().Set("X-Pantry-Cache", cache)
	rw.WriteHeader(resp.status)
	rw.Write(resp.body)
}

func writeEntry(rw http.ResponseWriter, entry *models.CacheEntry, cache string) {
	if entry.ContentType != "" {
		rw.Header().Set("Content-Type", entry.ContentType)
	}
	rw.Header().Set("X-Pantry-Cache", cache)
	rw.WriteHeader(entry.Status)
	rw.Write(entry.Body)
}
