// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	// 验证服务器默认值
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)

	// 验证 Provider 默认值
	assert.Equal(t, "gemini-2.0-flash", cfg.Providers.Gemini.Model)
	assert.Equal(t, 30*time.Second, cfg.Providers.Gemini.Timeout)
	assert.Equal(t, 3, cfg.Providers.OpenRouter.MaxRetries)
	assert.Equal(t, 100, cfg.Providers.Groq.RateLimitRPM)

	// 验证研究流水线默认值
	assert.Equal(t, "APA", cfg.Research.DefaultCitationStyle)
	assert.Equal(t, 20, cfg.Research.MaxSearchResults)
	assert.True(t, cfg.Research.EnableDataAnalysis)
	assert.True(t, cfg.Research.EnablePresentation)
	assert.True(t, cfg.Research.EnablePlagiarismCheck)
	assert.Equal(t, 10*time.Minute, cfg.Research.SearchCacheTTL)

	// 验证团队默认值
	assert.Equal(t, "hierarchical", cfg.Crew.Process)
	assert.Equal(t, 100, cfg.Crew.MaxRPM)
	assert.Equal(t, 4, cfg.Crew.MaxToolRounds)
	assert.True(t, cfg.Crew.Verbose)

	// 验证 Log 默认值
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestDefaultConfig_Valid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	// 不指定配置文件，应该返回默认值
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "hierarchical", cfg.Crew.Process)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	// 创建临时配置文件
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s

providers:
  gemini:
    api_key: "gm-key"
    model: "gemini-2.5-pro"
    timeout: 45s
  openrouter:
    api_key: "or-key"
    rate_limit_rpm: 30

research:
  default_citation_style: "MLA"
  max_search_results: 5
  enable_presentation: false

crew:
  process: "sequential"
  max_tool_rounds: 2

redis:
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

log:
  level: "debug"
  format: "console"
`
	err := os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err)

	// 加载配置
	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// 验证 YAML 值覆盖了默认值
	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "gm-key", cfg.Providers.Gemini.APIKey)
	assert.Equal(t, "gemini-2.5-pro", cfg.Providers.Gemini.Model)
	assert.Equal(t, 45*time.Second, cfg.Providers.Gemini.Timeout)
	assert.Equal(t, "or-key", cfg.Providers.OpenRouter.APIKey)
	assert.Equal(t, 30, cfg.Providers.OpenRouter.RateLimitRPM)
	// 未覆盖的字段保留默认值
	assert.Equal(t, 3, cfg.Providers.Gemini.MaxRetries)

	assert.Equal(t, "MLA", cfg.Research.DefaultCitationStyle)
	assert.Equal(t, 5, cfg.Research.MaxSearchResults)
	assert.False(t, cfg.Research.EnablePresentation)
	assert.True(t, cfg.Research.EnableDataAnalysis)

	assert.Equal(t, "sequential", cfg.Crew.Process)
	assert.Equal(t, 2, cfg.Crew.MaxToolRounds)

	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoader_LoadFromJSON(t *testing.T) {
	// JSON 设置文件走同一条解析路径
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "settings.json")

	jsonContent := `{
  "research": {
    "default_citation_style": "CHICAGO",
    "max_search_results": 10
  },
  "crew": {
    "max_rpm": 50
  }
}`
	require.NoError(t, os.WriteFile(configPath, []byte(jsonContent), 0644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "CHICAGO", cfg.Research.DefaultCitationStyle)
	assert.Equal(t, 10, cfg.Research.MaxSearchResults)
	assert.Equal(t, 50, cfg.Crew.MaxRPM)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath("/nonexistent/config.yaml").
		Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server: [not a map"), 0644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	assert.Error(t, err)
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("PAPERCREW_SERVER_HTTP_PORT", "9999")
	t.Setenv("PAPERCREW_PROVIDERS_GEMINI_API_KEY", "env-key")
	t.Setenv("PAPERCREW_PROVIDERS_GEMINI_TIMEOUT", "90s")
	t.Setenv("PAPERCREW_RESEARCH_ENABLE_PLAGIARISM_CHECK", "false")
	t.Setenv("PAPERCREW_LOG_OUTPUT_PATHS", "stdout, /var/log/papercrew.log")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "env-key", cfg.Providers.Gemini.APIKey)
	assert.Equal(t, 90*time.Second, cfg.Providers.Gemini.Timeout)
	assert.False(t, cfg.Research.EnablePlagiarismCheck)
	assert.Equal(t, []string{"stdout", "/var/log/papercrew.log"}, cfg.Log.OutputPaths)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8888\n"), 0644))

	t.Setenv("PAPERCREW_SERVER_HTTP_PORT", "7777")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.HTTPPort)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("PC_CREW_PROCESS", "sequential")

	cfg, err := NewLoader().WithEnvPrefix("PC").Load()
	require.NoError(t, err)
	assert.Equal(t, "sequential", cfg.Crew.Process)
}

func TestLoader_BareAPIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "bare-gemini")
	t.Setenv("OPENROUTER_API_KEY", "bare-openrouter")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "bare-gemini", cfg.Providers.Gemini.APIKey)
	assert.Equal(t, "bare-openrouter", cfg.Providers.OpenRouter.APIKey)
}

func TestLoader_BareAPIKeyDoesNotOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "bare-gemini")
	t.Setenv("PAPERCREW_PROVIDERS_GEMINI_API_KEY", "prefixed-wins")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed-wins", cfg.Providers.Gemini.APIKey)
}

func TestLoader_WithValidator(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(cfg *Config) error {
			return cfg.Validate()
		}).
		Load()
	assert.NoError(t, err)

	t.Setenv("PAPERCREW_CREW_PROCESS", "consensus")
	_, err = NewLoader().
		WithValidator(func(cfg *Config) error {
			return cfg.Validate()
		}).
		Load()
	assert.ErrorContains(t, err, "process must be sequential or hierarchical")
}

// --- Validate 测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad http port", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid HTTP port"},
		{"bad process", func(c *Config) { c.Crew.Process = "swarm" }, "process must be"},
		{"bad tool rounds", func(c *Config) { c.Crew.MaxToolRounds = 0 }, "max_tool_rounds"},
		{"bad citation style", func(c *Config) { c.Research.DefaultCitationStyle = "IEEE" }, "default_citation_style"},
		{"lowercase style ok", func(c *Config) { c.Research.DefaultCitationStyle = "mla" }, ""},
		{"bad search results", func(c *Config) { c.Research.MaxSearchResults = 0 }, "max_search_results"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

// --- 点分路径访问测试 ---

func TestConfig_Get(t *testing.T) {
	cfg := DefaultConfig()

	val, ok := cfg.Get("research.default_citation_style")
	require.True(t, ok)
	assert.Equal(t, "APA", val)

	val, ok = cfg.Get("server.http_port")
	require.True(t, ok)
	assert.Equal(t, 8080, val)

	val, ok = cfg.Get("providers.gemini.timeout")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, val)

	_, ok = cfg.Get("research.unknown")
	assert.False(t, ok)
	_, ok = cfg.Get("server.http_port.deep")
	assert.False(t, ok)
}

func TestConfig_GetString(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "hierarchical", cfg.GetString("crew.process", "x"))
	assert.Equal(t, "fallback", cfg.GetString("no.such.path", "fallback"))
	// 类型不符时返回 fallback
	assert.Equal(t, "fallback", cfg.GetString("server.http_port", "fallback"))
}

func TestMustLoad(t *testing.T) {
	cfg := MustLoad("")
	assert.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}
