// =============================================================================
// 📦 PaperCrew 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML/JSON 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("PAPERCREW").
//	    Load()
//
// 配置优先级: 默认值 → 配置文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 PaperCrew 的完整配置结构
type Config struct {
	// Server 服务器配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Providers LLM Provider 配置
	Providers ProvidersConfig `yaml:"providers" env:"PROVIDERS"`

	// Research 研究流水线配置
	Research ResearchConfig `yaml:"research" env:"RESEARCH"`

	// Crew 团队执行配置
	Crew CrewConfig `yaml:"crew" env:"CREW"`

	// Redis 缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每 IP 每秒请求上限
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发容量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// ProvidersConfig 各 LLM Provider 的配置集合
type ProvidersConfig struct {
	// Gemini Google Gemini 配置
	Gemini ProviderConfig `yaml:"gemini" env:"GEMINI"`
	// OpenRouter OpenRouter 配置
	OpenRouter ProviderConfig `yaml:"openrouter" env:"OPENROUTER"`
	// Groq Groq 配置
	Groq ProviderConfig `yaml:"groq" env:"GROQ"`
}

// ProviderConfig 单个 LLM Provider 的连接配置
type ProviderConfig struct {
	// API Key
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// 基础 URL（可选）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 默认模型
	Model string `yaml:"model" env:"MODEL"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 每分钟请求上限（0 表示不限流）
	RateLimitRPM int `yaml:"rate_limit_rpm" env:"RATE_LIMIT_RPM"`
}

// ResearchConfig 研究流水线配置
type ResearchConfig struct {
	// 默认引用格式: APA, MLA, CHICAGO
	DefaultCitationStyle string `yaml:"default_citation_style" env:"DEFAULT_CITATION_STYLE"`
	// 单次检索最大结果数
	MaxSearchResults int `yaml:"max_search_results" env:"MAX_SEARCH_RESULTS"`
	// 是否启用数据分析阶段
	EnableDataAnalysis bool `yaml:"enable_data_analysis" env:"ENABLE_DATA_ANALYSIS"`
	// 是否启用演示文稿阶段
	EnablePresentation bool `yaml:"enable_presentation" env:"ENABLE_PRESENTATION"`
	// 是否启用查重阶段
	EnablePlagiarismCheck bool `yaml:"enable_plagiarism_check" env:"ENABLE_PLAGIARISM_CHECK"`
	// 检索结果缓存 TTL
	SearchCacheTTL time.Duration `yaml:"search_cache_ttl" env:"SEARCH_CACHE_TTL"`
	// Serper 搜索 API Key（可选）
	SerperAPIKey string `yaml:"serper_api_key" env:"SERPER_API_KEY"`
}

// CrewConfig 团队执行配置
type CrewConfig struct {
	// 执行流程: sequential, hierarchical
	Process string `yaml:"process" env:"PROCESS"`
	// 团队整体每分钟请求上限
	MaxRPM int `yaml:"max_rpm" env:"MAX_RPM"`
	// Agent 单任务最大工具调用轮数
	MaxToolRounds int `yaml:"max_tool_rounds" env:"MAX_TOOL_ROUNDS"`
	// 是否输出详细日志
	Verbose bool `yaml:"verbose" env:"VERBOSE"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址（留空使用进程内缓存）
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader 创建新的配置加载器
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "PAPERCREW",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator 添加配置验证器
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
// 优先级: 默认值 → 配置文件 → 环境变量
func (l *Loader) Load() (*Config, error) {
	// 1. 从默认值开始
	cfg := DefaultConfig()

	// 2. 如果指定了配置文件，从文件加载
	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// 3. 从环境变量覆盖
	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// 4. 兜底读取无前缀的常用 API Key
	fillAPIKeysFromEnv(cfg)

	// 5. 运行验证器
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

// loadFromFile 从配置文件加载。JSON 是 YAML 的子集，
// 因此 .json 设置文件走同一条解析路径。
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 文件不存在，使用默认值
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv 从环境变量加载配置
func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv 递归设置结构体字段
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		// 获取 env tag
		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		// 如果是结构体，递归处理
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		// 获取环境变量值
		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		// 设置字段值
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

// fillAPIKeysFromEnv 支持不带前缀的常规环境变量名
// (GEMINI_API_KEY 等)，仅在对应 Key 仍为空时生效。
func fillAPIKeysFromEnv(cfg *Config) {
	fallbacks := []struct {
		dst *string
		env string
	}{
		{&cfg.Providers.Gemini.APIKey, "GEMINI_API_KEY"},
		{&cfg.Providers.OpenRouter.APIKey, "OPENROUTER_API_KEY"},
		{&cfg.Providers.Groq.APIKey, "GROQ_API_KEY"},
		{&cfg.Research.SerperAPIKey, "SERPER_API_KEY"},
	}
	for _, f := range fallbacks {
		if *f.dst == "" {
			*f.dst = os.Getenv(f.env)
		}
	}
}

// setFieldValue 设置字段值
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// 特殊处理 time.Duration
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 支持逗号分隔的字符串切片
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// 🔍 辅助函数
// =============================================================================

// MustLoad 加载配置，失败时 panic
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv 仅从环境变量加载配置
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate 验证配置
func (c *Config) Validate() error {
	var errs []string

	// 验证服务器配置
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}

	// 验证流程类型
	switch c.Crew.Process {
	case "sequential", "hierarchical":
	default:
		errs = append(errs, "process must be sequential or hierarchical")
	}
	if c.Crew.MaxToolRounds <= 0 {
		errs = append(errs, "max_tool_rounds must be positive")
	}
	if c.Crew.MaxRPM < 0 {
		errs = append(errs, "max_rpm must not be negative")
	}

	// 验证引用格式
	switch strings.ToUpper(c.Research.DefaultCitationStyle) {
	case "APA", "MLA", "CHICAGO":
	default:
		errs = append(errs, "default_citation_style must be APA, MLA or CHICAGO")
	}
	if c.Research.MaxSearchResults <= 0 {
		errs = append(errs, "max_search_results must be positive")
	}

	// 验证日志级别
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log level must be debug, info, warn or error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
