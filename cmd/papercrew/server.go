package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/papercrew/papercrew/api/handlers"
	"github.com/papercrew/papercrew/citation"
	"github.com/papercrew/papercrew/config"
	"github.com/papercrew/papercrew/crew"
	"github.com/papercrew/papercrew/internal/cache"
	"github.com/papercrew/papercrew/internal/metrics"
	"github.com/papercrew/papercrew/internal/server"
	"github.com/papercrew/papercrew/llm"
	"github.com/papercrew/papercrew/llm/providers"
	"github.com/papercrew/papercrew/llm/providers/gemini"
	"github.com/papercrew/papercrew/llm/providers/groq"
	"github.com/papercrew/papercrew/llm/providers/openrouter"
	"github.com/papercrew/papercrew/report"
	"github.com/papercrew/papercrew/run"
	"github.com/papercrew/papercrew/tools"
	"github.com/papercrew/papercrew/workflow"
)

// =============================================================================
// 🏗️ 服务器组装
// =============================================================================

// Server 组装并持有 PaperCrew 服务的全部组件。
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	collector    *metrics.Collector
	store        *run.Store
	researchCrew *crew.Crew
	redisClient  *redis.Client

	httpManager    *server.Manager
	metricsManager *server.Manager

	cancelBackground context.CancelFunc
}

// NewServer 按配置构建全部组件并装配路由。
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logger,
	}

	s.collector = metrics.NewCollector("papercrew", logger)

	// 缓存后端: 配置了 Redis 地址则用 Redis, 否则进程内缓存
	var cacheStore cache.Store
	if cfg.Redis.Addr != "" {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		cacheStore = cache.NewRedisStore(s.redisClient, "papercrew")
		logger.Info("using redis cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		cacheStore = cache.NewMemoryStore()
		logger.Info("using in-memory cache")
	}
	cacheStore = instrumentCache(cacheStore, s.collector, "search")

	// 引用引擎与研究工具集
	engine := citation.NewEngine(logger)
	registry := tools.NewDefaultRegistry(logger)
	if err := tools.RegisterResearchTools(registry, tools.ResearchToolsConfig{
		CitationEngine:   engine,
		SearchCache:      cacheStore,
		SearchCacheTTL:   cfg.Research.SearchCacheTTL,
		MaxSearchResults: cfg.Research.MaxSearchResults,
		SerperAPIKey:     cfg.Research.SerperAPIKey,
	}, logger); err != nil {
		return nil, fmt.Errorf("register research tools: %w", err)
	}
	executor := tools.NewDefaultExecutor(registry, logger)

	// LLM Provider
	llmProviders := buildProviders(cfg, s.collector, logger)

	// 研究团队: 每个角色绑定其 Provider 与默认模型
	s.researchCrew = crew.New(crew.Config{
		Name:    "papercrew",
		Process: crew.ProcessType(cfg.Crew.Process),
		Verbose: cfg.Crew.Verbose,
	}, logger)
	for _, role := range crew.ResearchRoles() {
		provider, ok := llmProviders[role.Provider]
		if !ok {
			return nil, fmt.Errorf("no provider configured for role %s (%s)", role.Name, role.Provider)
		}
		agent := crew.NewResearchAgent(role, provider, registry, executor, logger,
			crew.WithModel(modelFor(cfg, role.Provider)),
			crew.WithMaxToolRounds(cfg.Crew.MaxToolRounds),
		)
		s.researchCrew.AddMember(agent, role)
	}

	s.store = run.NewStore(logger)
	generator := report.NewGenerator(logger)

	// 每次运行一条独立流水线, 进度回调路由到运行存储
	pipelineFn := func(ctx context.Context, req workflow.Request, progress workflow.ProgressFunc) (*workflow.Result, error) {
		req.Requirements = s.applyRequirementDefaults(req.Requirements)
		p := workflow.NewPipeline(s.researchCrew, s.logger,
			workflow.WithProgress(progress),
			workflow.WithMetrics(s.collector),
		)
		return p.Run(ctx, req)
	}

	// Handler
	researchHandler := handlers.NewResearchHandler(s.store, pipelineFn, generator, logger,
		handlers.WithRunMetrics(s.collector),
	)
	citationHandler := handlers.NewCitationHandler(engine, cfg.Research.DefaultCitationStyle, logger)

	healthHandler := handlers.NewHealthHandler(logger)
	for name, provider := range llmProviders {
		healthHandler.RegisterCheck(handlers.NewProviderHealthCheck(name, provider))
	}
	if s.redisClient != nil {
		healthHandler.RegisterCheck(handlers.NewRedisHealthCheck("redis", func(ctx context.Context) error {
			return s.redisClient.Ping(ctx).Err()
		}))
	}

	// 路由
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler.HandleHealthz)
	mux.HandleFunc("GET /readyz", healthHandler.HandleReady)
	mux.HandleFunc("GET /version", healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("POST /api/v1/research", researchHandler.HandleCreate)
	mux.HandleFunc("GET /api/v1/research", researchHandler.HandleList)
	mux.HandleFunc("GET /api/v1/research/{id}", researchHandler.HandleGet)
	mux.HandleFunc("GET /api/v1/research/{id}/report", researchHandler.HandleReport)
	mux.HandleFunc("GET /api/v1/research/{id}/download", researchHandler.HandleDownload)
	mux.HandleFunc("GET /api/v1/research/{id}/progress", researchHandler.HandleProgress)

	mux.HandleFunc("POST /api/v1/citations/format", citationHandler.HandleFormat)

	// 中间件链
	bgCtx, cancel := context.WithCancel(context.Background())
	s.cancelBackground = cancel

	handler := Chain(mux,
		Recovery(logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(logger),
		MetricsMiddleware(s.collector),
		RateLimiter(bgCtx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, logger),
	)

	s.httpManager = server.NewManager(handler, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
	}, logger)

	// Prometheus 指标走独立端口
	if cfg.Server.MetricsPort > 0 {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		s.metricsManager = server.NewManager(metricsMux, server.Config{
			Addr:            fmt.Sprintf(":%d", cfg.Server.MetricsPort),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		}, logger)
	}

	return s, nil
}

// Start 启动 HTTP 与指标服务器（非阻塞）。
func (s *Server) Start() error {
	if err := s.httpManager.Start(); err != nil {
		return err
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Start(); err != nil {
			return err
		}
	}
	s.logger.Info("server started",
		zap.String("addr", s.httpManager.Addr()),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

// WaitForShutdown 阻塞等待关闭信号并优雅退出。
func (s *Server) WaitForShutdown() {
	s.httpManager.WaitForShutdown()

	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(context.Background()); err != nil {
			s.logger.Error("metrics server shutdown failed", zap.Error(err))
		}
	}
	if s.cancelBackground != nil {
		s.cancelBackground()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Warn("redis close failed", zap.Error(err))
		}
	}
}

// =============================================================================
// 🔧 组件构建辅助函数
// =============================================================================

// buildProviders 按配置构建全部 LLM Provider。每个 Provider 先套上自己的 RPM
// 限流, 再共享一个团队级的 Crew.MaxRPM 令牌桶, 最外层上报调用指标。
func buildProviders(cfg *config.Config, collector *metrics.Collector, logger *zap.Logger) map[string]llm.Provider {
	crewLimiter := llm.NewSharedLimiter(cfg.Crew.MaxRPM)

	wrap := func(p llm.Provider, rpm int) llm.Provider {
		p = rateLimited(p, rpm)
		if crewLimiter != nil {
			p = llm.NewRateLimitedProviderWithLimiter(p, crewLimiter)
		}
		return instrumentProvider(p, collector)
	}

	out := make(map[string]llm.Provider, 3)

	out[crew.ProviderGemini] = wrap(gemini.NewGeminiProvider(providers.GeminiConfig{
		BaseProviderConfig: baseConfig(cfg.Providers.Gemini),
	}, logger), cfg.Providers.Gemini.RateLimitRPM)

	out[crew.ProviderOpenRouter] = wrap(openrouter.NewOpenRouterProvider(providers.OpenRouterConfig{
		BaseProviderConfig: baseConfig(cfg.Providers.OpenRouter),
		Title:              "PaperCrew",
	}, logger), cfg.Providers.OpenRouter.RateLimitRPM)

	out[crew.ProviderGroq] = wrap(groq.NewGroqProvider(providers.GroqConfig{
		BaseProviderConfig: baseConfig(cfg.Providers.Groq),
	}, logger), cfg.Providers.Groq.RateLimitRPM)

	return out
}

func baseConfig(pc config.ProviderConfig) providers.BaseProviderConfig {
	return providers.BaseProviderConfig{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
		Model:   pc.Model,
		Timeout: pc.Timeout,
	}
}

func rateLimited(p llm.Provider, rpm int) llm.Provider {
	if rpm <= 0 {
		return p
	}
	return llm.NewRateLimitedProvider(p, rpm)
}

func modelFor(cfg *config.Config, provider string) string {
	switch provider {
	case crew.ProviderGemini:
		return cfg.Providers.Gemini.Model
	case crew.ProviderOpenRouter:
		return cfg.Providers.OpenRouter.Model
	case crew.ProviderGroq:
		return cfg.Providers.Groq.Model
	default:
		return ""
	}
}

// applyRequirementDefaults 用配置补齐请求中未指定的论文要求。
func (s *Server) applyRequirementDefaults(reqs workflow.Requirements) workflow.Requirements {
	if strings.TrimSpace(reqs.CitationStyle) == "" {
		reqs.CitationStyle = s.cfg.Research.DefaultCitationStyle
	}
	if reqs.EnableDataAnalysis == nil && !s.cfg.Research.EnableDataAnalysis {
		disabled := false
		reqs.EnableDataAnalysis = &disabled
	}
	if reqs.EnablePresentation == nil && !s.cfg.Research.EnablePresentation {
		disabled := false
		reqs.EnablePresentation = &disabled
	}
	if reqs.EnablePlagiarismCheck == nil && !s.cfg.Research.EnablePlagiarismCheck {
		disabled := false
		reqs.EnablePlagiarismCheck = &disabled
	}
	return reqs
}
