package llm

import (
	"context"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimitedProvider 用令牌桶约束底层 Provider 的请求速率。
// 超出速率的调用会阻塞等待令牌，上下文取消时返回 ErrRateLimited。
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimitedProvider 按每分钟请求数包装一个 Provider。
// rpm <= 0 表示不限流。
func NewRateLimitedProvider(inner Provider, rpm int) *RateLimitedProvider {
	var limiter *rate.Limiter
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
	}
	return &RateLimitedProvider{inner: inner, limiter: limiter}
}

// NewSharedLimiter 构造一个可被多个 Provider 共享的令牌桶，
// 用于对整个团队施加统一的每分钟请求上限。rpm <= 0 返回 nil（不限流）。
func NewSharedLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)
}

// NewRateLimitedProviderWithLimiter 用已有的限流器包装一个 Provider。
// 多个 Provider 传入同一个 limiter 时共享同一配额。limiter 为 nil 表示不限流。
func NewRateLimitedProviderWithLimiter(inner Provider, limiter *rate.Limiter) *RateLimitedProvider {
	return &RateLimitedProvider{inner: inner, limiter: limiter}
}

func (p *RateLimitedProvider) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return &Error{
			Code:       ErrRateLimited,
			Message:    "local rate limit wait aborted: " + err.Error(),
			HTTPStatus: http.StatusTooManyRequests,
			Retryable:  true,
			Provider:   p.inner.Name(),
		}
	}
	return nil
}

func (p *RateLimitedProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.inner.Completion(ctx, req)
}

func (p *RateLimitedProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return p.inner.Stream(ctx, req)
}

func (p *RateLimitedProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return p.inner.HealthCheck(ctx)
}

func (p *RateLimitedProvider) Name() string { return p.inner.Name() }
