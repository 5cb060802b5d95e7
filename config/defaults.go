// =============================================================================
// 📦 PaperCrew 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Providers: DefaultProvidersConfig(),
		Research:  DefaultResearchConfig(),
		Crew:      DefaultCrewConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultProvidersConfig 返回默认 Provider 配置
func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		Gemini:     DefaultProviderConfig("gemini-2.0-flash"),
		OpenRouter: DefaultProviderConfig("openrouter/auto"),
		Groq:       DefaultProviderConfig("llama-3.3-70b-versatile"),
	}
}

// DefaultProviderConfig 返回单个 Provider 的默认配置
func DefaultProviderConfig(model string) ProviderConfig {
	return ProviderConfig{
		Model:        model,
		Timeout:      30 * time.Second,
		MaxRetries:   3,
		RateLimitRPM: 100,
	}
}

// DefaultResearchConfig 返回默认研究流水线配置
func DefaultResearchConfig() ResearchConfig {
	return ResearchConfig{
		DefaultCitationStyle:  "APA",
		MaxSearchResults:      20,
		EnableDataAnalysis:    true,
		EnablePresentation:    true,
		EnablePlagiarismCheck: true,
		SearchCacheTTL:        10 * time.Minute,
	}
}

// DefaultCrewConfig 返回默认团队配置
func DefaultCrewConfig() CrewConfig {
	return CrewConfig{
		Process:       "hierarchical",
		MaxRPM:        100,
		MaxToolRounds: 4,
		Verbose:       true,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     "",
		Password: "",
		DB:       0,
		PoolSize: 10,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}
