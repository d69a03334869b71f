// Package gateway orchestrates request flow to upstream text-generation
// providers: validation, dedup, rate limiting, context assembly, dispatch,
// caching, and usage accounting.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-ai/inkgate/pkg/cache"
	"github.com/inkwell-ai/inkgate/pkg/config"
	"github.com/inkwell-ai/inkgate/pkg/dedup"
	"github.com/inkwell-ai/inkgate/pkg/models"
	"github.com/inkwell-ai/inkgate/pkg/pricing"
	"github.com/inkwell-ai/inkgate/pkg/provider"
	"github.com/inkwell-ai/inkgate/pkg/ratelimit"
)

// UsageLog persists one accounting record per attempted provider call.
type UsageLog interface {
	Append(ctx context.Context, rec models.UsageRecord) error
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

const defaultMaxTokens = 500

// Gateway mediates all provider traffic. Requests enter through Submit,
// are processed by a fixed worker pool, and resolve through the returned
// Handle.
type Gateway struct {
	cfg       *config.Config
	cache     *cache.Tiered // nil when caching is disabled
	registry  *provider.Registry
	limiter   *ratelimit.Limiter
	estimator *pricing.Estimator
	dedup     *dedup.Deduplicator
	usageLog  UsageLog        // nil disables accounting
	contexts  ContextProvider // nil disables context assembly

	tasks chan *task
	wg    sync.WaitGroup
	done  chan struct{}

	mu      sync.Mutex
	handles map[string]*Handle
	closed  bool
}

type task struct {
	req    models.NormalizedRequest
	handle *Handle
}

// Handle tracks one submitted request. Submit returns immediately; callers
// block on Result (or poll Done) for the outcome.
type Handle struct {
	ID          string
	Fingerprint string

	cancel context.CancelFunc
	ctx    context.Context

	once sync.Once
	done chan struct{}
	resp *models.Response
	err  error
}

func newHandle(fingerprint string) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		ID:          uuid.NewString(),
		Fingerprint: fingerprint,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

func (h *Handle) complete(resp *models.Response, err error) {
	h.once.Do(func() {
		h.resp = resp
		h.err = err
		close(h.done)
	})
}

// Done is closed once the request has resolved.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result blocks until the request resolves or ctx is cancelled.
func (h *Handle) Result(ctx context.Context) (*models.Response, error) {
	select {
	case <-h.done:
		return h.resp, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// New builds a Gateway and starts its worker pool. The cache, usage log, and
// context provider may each be nil; the gateway degrades gracefully without
// them.
func New(cfg *config.Config, c *cache.Tiered, reg *provider.Registry, ul UsageLog, cp ContextProvider) *Gateway {
	g := &Gateway{
		cfg:       cfg,
		cache:     c,
		registry:  reg,
		limiter:   ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.QueueDepth),
		estimator: pricing.New(cfg.Pricing),
		dedup:     dedup.New(c),
		usageLog:  ul,
		contexts:  cp,
		tasks:     make(chan *task, cfg.Workers.QueueDepth),
		done:      make(chan struct{}),
		handles:   make(map[string]*Handle),
	}

	workers := cfg.Workers.Count
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.wg.Add(1)
		go g.worker()
	}

	if c != nil && cfg.Cache.SweepInterval > 0 {
		go g.sweepLoop()
	}

	return g
}

// Submit validates a request and enqueues it for dispatch. It never blocks:
// when the queue is full it fails fast with ErrQueueFull.
func (g *Gateway) Submit(req models.NormalizedRequest) (*Handle, error) {
	g.normalize(&req)
	if err := g.validate(req); err != nil {
		return nil, err
	}

	h := newHandle(Fingerprint(req))

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, ErrClosed
	}
	g.handles[h.ID] = h
	g.mu.Unlock()

	select {
	case g.tasks <- &task{req: req, handle: h}:
		return h, nil
	default:
		g.forget(h.ID)
		return nil, ErrQueueFull
	}
}

// Cancel abandons the wait for a submitted request. Any provider call already
// in flight continues and still populates the cache.
func (g *Gateway) Cancel(handleID string) bool {
	g.mu.Lock()
	h, ok := g.handles[handleID]
	g.mu.Unlock()
	if !ok {
		return false
	}
	h.cancel()
	return true
}

func (g *Gateway) forget(handleID string) {
	g.mu.Lock()
	delete(g.handles, handleID)
	g.mu.Unlock()
}

func (g *Gateway) normalize(req *models.NormalizedRequest) {
	if req.Provider == "" {
		req.Provider = g.cfg.DefaultProvider
	}
	if req.Model == "" && req.Provider == g.cfg.DefaultProvider {
		req.Model = g.cfg.DefaultModel
	}
	if req.Params.MaxTokens == 0 {
		req.Params.MaxTokens = defaultMaxTokens
	}
	if req.Timeout == 0 {
		req.Timeout = g.cfg.Request.Timeout
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
}

func (g *Gateway) validate(req models.NormalizedRequest) error {
	if req.Prompt == "" {
		return &ValidationError{Field: "prompt", Reason: "must not be empty"}
	}
	if req.Model == "" {
		return &ValidationError{Field: "model", Reason: "must not be empty"}
	}
	if _, ok := g.registry.Get(req.Provider); !ok {
		return &ValidationError{Field: "provider", Reason: fmt.Sprintf("%q is not configured", req.Provider)}
	}
	if req.Provider != "ollama" {
		p, _ := g.cfg.Provider(req.Provider)
		if p.APIKey == "" {
			return &ValidationError{Field: "provider", Reason: fmt.Sprintf("no API key configured for %q", req.Provider)}
		}
	}
	if req.Params.Temperature < 0 || req.Params.Temperature > 2 {
		return &ValidationError{Field: "temperature", Reason: "must be between 0 and 2"}
	}
	if req.Params.TopP < 0 || req.Params.TopP > 1 {
		return &ValidationError{Field: "top_p", Reason: "must be between 0 and 1"}
	}
	if req.Params.MaxTokens < 0 {
		return &ValidationError{Field: "max_tokens", Reason: "must be positive"}
	}
	return nil
}

func (g *Gateway) worker() {
	defer g.wg.Done()
	for {
		select {
		case <-g.done:
			return
		case t := <-g.tasks:
			g.process(t)
		}
	}
}

func (g *Gateway) process(t *task) {
	defer g.forget(t.handle.ID)

	waitCtx := t.handle.ctx
	if g.cfg.Request.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(waitCtx, g.cfg.Request.WaitTimeout)
		defer cancel()
	}

	payload, fromCache, err := g.dedup.ExecuteOnce(waitCtx, t.handle.Fingerprint, func() ([]byte, error) {
		return g.execute(t.req, t.handle.Fingerprint)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && t.handle.ctx.Err() == nil {
			err = ErrWaitTimeout
		}
		t.handle.complete(nil, err)
		return
	}

	var resp models.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		t.handle.complete(nil, fmt.Errorf("decode cached response: %w", err))
		return
	}
	resp.Cached = fromCache
	t.handle.complete(&resp, nil)
}

// execute performs one real provider call: rate limiting, context assembly,
// dispatch, cost estimation, and usage accounting. It runs at most once per
// fingerprint at a time, under the deduplicator.
func (g *Gateway) execute(req models.NormalizedRequest, fingerprint string) ([]byte, error) {
	client, ok := g.registry.Get(req.Provider)
	if !ok {
		return nil, &ValidationError{Field: "provider", Reason: fmt.Sprintf("%q is not configured", req.Provider)}
	}

	ctx := context.Background()

	// Local ollama is not rate limited.
	if req.Provider != "ollama" {
		if err := g.acquireSlot(req.Provider); err != nil {
			return nil, err
		}
	}

	req.SystemPrompt = g.assembleContext(ctx, req)

	start := time.Now()
	result, err := client.Send(ctx, req)
	latency := time.Since(start)

	var pErr *provider.Error
	rateLimited := errors.As(err, &pErr) && pErr.Kind == provider.KindRateLimited
	if req.Provider != "ollama" {
		g.limiter.RecordResult(req.Provider, rateLimited)
	}

	if err != nil {
		g.recordUsage(req, fingerprint, nil, 0, latency, err)
		return nil, err
	}

	cost, costErr := g.estimator.Estimate(req.Provider, req.Model, result.InputTokens, result.OutputTokens)
	known := costErr == nil
	if costErr != nil && !errors.Is(costErr, pricing.ErrUnknownPricing) {
		return nil, costErr
	}
	if !known {
		log.Printf("no pricing for %s/%s, recording zero cost", req.Provider, req.Model)
	}

	g.recordUsage(req, fingerprint, result, cost, latency, nil)

	resp := models.Response{
		Text:         result.Text,
		Provider:     req.Provider,
		Model:        req.Model,
		InputTokens:  result.InputTokens,
		OutputTokens: result.OutputTokens,
		Cost:         cost,
		CostKnown:    known,
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return payload, nil
}

// acquireSlot takes a rate-limit slot, queuing when a FIFO queue is
// configured and failing fast otherwise.
func (g *Gateway) acquireSlot(providerName string) error {
	if g.cfg.RateLimit.QueueDepth > 0 {
		waitCtx := context.Background()
		if g.cfg.Request.WaitTimeout > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(waitCtx, g.cfg.Request.WaitTimeout)
			defer cancel()
		}
		return g.limiter.Wait(waitCtx, providerName)
	}

	ok, retryAfter := g.limiter.TryAcquire(providerName)
	if !ok {
		return &ratelimit.Error{Provider: providerName, RetryAfter: retryAfter}
	}
	return nil
}

// assembleContext merges project context into the system prompt. Context
// assembly is best-effort: a failing provider logs and falls through to the
// bare request.
func (g *Gateway) assembleContext(ctx context.Context, req models.NormalizedRequest) string {
	if g.contexts == nil || req.ProjectID == "" {
		return req.SystemPrompt
	}

	block, err := g.contexts.BuildContext(ctx, req.ProjectID)
	if err != nil {
		log.Printf("context assembly failed for project %s: %v", req.ProjectID, err)
		return req.SystemPrompt
	}

	rendered := renderContext(block, g.cfg.Context.TokenBudget)
	if rendered == "" {
		return req.SystemPrompt
	}
	if req.SystemPrompt == "" {
		return rendered
	}
	return rendered + "\n" + req.SystemPrompt
}

// recordUsage appends one accounting row. Only attempted provider calls are
// recorded; cache hits and rate-limit denials never reach here.
func (g *Gateway) recordUsage(req models.NormalizedRequest, fingerprint string, result *models.ProviderResult, cost float64, latency time.Duration, callErr error) {
	if g.usageLog == nil {
		return
	}

	rec := models.UsageRecord{
		Provider:    req.Provider,
		Model:       req.Model,
		Fingerprint: fingerprint,
		Cost:        cost,
		Latency:     latency,
		Success:     callErr == nil,
		CreatedAt:   time.Now().UTC(),
	}
	if result != nil {
		rec.InputTokens = result.InputTokens
		rec.OutputTokens = result.OutputTokens
		rec.TotalTokens = result.InputTokens + result.OutputTokens
	}
	if callErr != nil {
		var pErr *provider.Error
		if errors.As(callErr, &pErr) {
			rec.ErrorKind = string(pErr.Kind)
		} else {
			rec.ErrorKind = "error"
		}
	}

	if err := g.usageLog.Append(context.Background(), rec); err != nil {
		log.Printf("usage record failed: %v", err)
	}
}

func (g *Gateway) sweepLoop() {
	ticker := time.NewTicker(g.cfg.Cache.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			if n, err := g.cache.SweepExpired(); err != nil {
				log.Printf("cache sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("cache sweep removed %d expired entries", n)
			}
			if g.usageLog != nil && g.cfg.Usage.RetentionDays > 0 {
				retention := time.Duration(g.cfg.Usage.RetentionDays) * 24 * time.Hour
				if _, err := g.usageLog.PurgeOlderThan(context.Background(), retention); err != nil {
					log.Printf("usage purge failed: %v", err)
				}
			}
		}
	}
}

// CacheStats reports cache hit counters and storage footprint.
func (g *Gateway) CacheStats() (models.CacheStats, error) {
	if g.cache == nil {
		return models.CacheStats{}, nil
	}
	return g.cache.Stats()
}

// ClearCache drops every cached response.
func (g *Gateway) ClearCache() error {
	if g.cache == nil {
		return nil
	}
	return g.cache.Clear()
}

// SweepCache removes expired entries immediately.
func (g *Gateway) SweepCache() (int64, error) {
	if g.cache == nil {
		return 0, nil
	}
	return g.cache.SweepExpired()
}

// RateLimitStatus reports the current window for one provider.
func (g *Gateway) RateLimitStatus(providerName string) models.RateLimitStatus {
	return g.limiter.Status(providerName)
}

// AvailableProviders lists providers that are ready to serve: configured with
// credentials, plus local ollama which needs none.
func (g *Gateway) AvailableProviders() []string {
	var out []string
	for _, name := range g.registry.Available() {
		if name == "ollama" {
			out = append(out, name)
			continue
		}
		if p, ok := g.cfg.Provider(name); ok && p.APIKey != "" {
			out = append(out, name)
		}
	}
	return out
}

// Pricing exposes the effective pricing table.
func (g *Gateway) Pricing() []models.ModelPricing {
	return g.estimator.Table()
}

var probeModels = map[string]string{
	"openai":    "gpt-3.5-turbo",
	"anthropic": "claude-3-haiku",
	"google":    "gemini-pro",
	"ollama":    "llama2",
}

// TestConnection sends a minimal probe request through the full pipeline and
// reports whether the provider answered.
func (g *Gateway) TestConnection(ctx context.Context, providerName string) error {
	model := probeModels[providerName]
	if providerName == g.cfg.DefaultProvider && g.cfg.DefaultModel != "" {
		model = g.cfg.DefaultModel
	}

	h, err := g.Submit(models.NormalizedRequest{
		Provider: providerName,
		Model:    model,
		Prompt:   "Hello",
		Params:   models.Params{MaxTokens: 5},
	})
	if err != nil {
		return err
	}
	_, err = h.Result(ctx)
	return err
}

// Close stops the worker pool and sweeper. In-flight requests are abandoned.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.mu.Unlock()

	close(g.done)
	g.wg.Wait()
}
