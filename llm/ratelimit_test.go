package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls int
}

func (s *stubProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	s.calls++
	return &ChatResponse{
		Model: req.Model,
		Choices: []ChatChoice{{
			Message: Message{Role: RoleAssistant, Content: "ok"},
		}},
	}, nil
}

func (s *stubProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk)
	close(ch)
	return ch, nil
}

func (s *stubProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return &HealthStatus{Healthy: true}, nil
}

func (s *stubProvider) Name() string { return "stub" }

func TestRateLimitedProvider_PassThrough(t *testing.T) {
	stub := &stubProvider{}
	p := NewRateLimitedProvider(stub, 100)

	resp, err := p.Completion(context.Background(), &ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "ok", FirstText(resp))
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "stub", p.Name())
}

func TestRateLimitedProvider_Unlimited(t *testing.T) {
	stub := &stubProvider{}
	p := NewRateLimitedProvider(stub, 0)

	for i := 0; i < 50; i++ {
		_, err := p.Completion(context.Background(), &ChatRequest{Model: "m"})
		require.NoError(t, err)
	}
	assert.Equal(t, 50, stub.calls)
}

func TestRateLimitedProvider_CancelledContext(t *testing.T) {
	stub := &stubProvider{}
	// rpm=1 的桶在第一次调用后耗尽
	p := NewRateLimitedProvider(stub, 1)

	_, err := p.Completion(context.Background(), &ChatRequest{Model: "m"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Completion(ctx, &ChatRequest{Model: "m"})
	require.Error(t, err)

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrRateLimited, llmErr.Code)
	assert.True(t, llmErr.Retryable)
	assert.Equal(t, 1, stub.calls)
}

func TestSharedLimiter_SpansProviders(t *testing.T) {
	assert.Nil(t, NewSharedLimiter(0))

	// rpm=1 的共享桶：第一个 Provider 的调用耗尽配额后,
	// 第二个 Provider 也被同一个桶拦下
	limiter := NewSharedLimiter(1)
	stubA := &stubProvider{}
	stubB := &stubProvider{}
	pa := NewRateLimitedProviderWithLimiter(stubA, limiter)
	pb := NewRateLimitedProviderWithLimiter(stubB, limiter)

	_, err := pa.Completion(context.Background(), &ChatRequest{Model: "m"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pb.Completion(ctx, &ChatRequest{Model: "m"})
	require.Error(t, err)

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrRateLimited, llmErr.Code)
	assert.Equal(t, 1, stubA.calls)
	assert.Equal(t, 0, stubB.calls)
}

func TestRateLimitedProviderWithLimiter_NilLimiter(t *testing.T) {
	stub := &stubProvider{}
	p := NewRateLimitedProviderWithLimiter(stub, nil)

	for i := 0; i < 10; i++ {
		_, err := p.Completion(context.Background(), &ChatRequest{Model: "m"})
		require.NoError(t, err)
	}
	assert.Equal(t, 10, stub.calls)
}

func TestFirstText(t *testing.T) {
	assert.Empty(t, FirstText(nil))
	assert.Empty(t, FirstText(&ChatResponse{}))
	assert.Equal(t, "x", FirstText(&ChatResponse{
		Choices: []ChatChoice{{Message: Message{Content: "x"}}},
	}))
}
