package main

import (
	"context"
	"errors"
	"time"

	"github.com/papercrew/papercrew/internal/cache"
	"github.com/papercrew/papercrew/llm"
)

// =============================================================================
// 📊 指标埋点包装器
// =============================================================================

// providerMetrics 是 Provider 埋点所需的最小指标接口。
type providerMetrics interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// cacheMetrics 是缓存埋点所需的最小指标接口。
type cacheMetrics interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

// instrumentedProvider 记录每次 LLM 调用的耗时、状态与 token 消耗。
type instrumentedProvider struct {
	inner   llm.Provider
	metrics providerMetrics
}

// instrumentProvider 包装一个 Provider 上报调用指标。metrics 为 nil 时原样返回。
func instrumentProvider(p llm.Provider, m providerMetrics) llm.Provider {
	if m == nil {
		return p
	}
	return &instrumentedProvider{inner: p, metrics: m}
}

func (p *instrumentedProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	start := time.Now()
	resp, err := p.inner.Completion(ctx, req)

	status := "ok"
	var promptTokens, completionTokens int
	if err != nil {
		status = "error"
	} else {
		promptTokens = resp.Usage.PromptTokens
		completionTokens = resp.Usage.CompletionTokens
	}
	p.metrics.RecordLLMRequest(p.inner.Name(), requestModel(req), status,
		time.Since(start), promptTokens, completionTokens)
	return resp, err
}

// Stream 只统计发起阶段; token 消耗在流式分块里不可靠, 记 0。
func (p *instrumentedProvider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	start := time.Now()
	ch, err := p.inner.Stream(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordLLMRequest(p.inner.Name(), requestModel(req), status, time.Since(start), 0, 0)
	return ch, err
}

func (p *instrumentedProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return p.inner.HealthCheck(ctx)
}

func (p *instrumentedProvider) Name() string { return p.inner.Name() }

func requestModel(req *llm.ChatRequest) string {
	if req != nil {
		return req.Model
	}
	return ""
}

// instrumentedCache 记录缓存命中与未命中。
type instrumentedCache struct {
	inner     cache.Store
	metrics   cacheMetrics
	cacheType string
}

// instrumentCache 包装一个缓存后端上报命中率指标。metrics 为 nil 时原样返回。
func instrumentCache(store cache.Store, m cacheMetrics, cacheType string) cache.Store {
	if m == nil {
		return store
	}
	return &instrumentedCache{inner: store, metrics: m, cacheType: cacheType}
}

func (c *instrumentedCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.inner.Get(ctx, key)
	if err == nil {
		c.metrics.RecordCacheHit(c.cacheType)
	} else if errors.Is(err, cache.ErrCacheMiss) {
		c.metrics.RecordCacheMiss(c.cacheType)
	}
	return data, err
}

func (c *instrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, key, value, ttl)
}

func (c *instrumentedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}
