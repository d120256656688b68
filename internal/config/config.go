package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// DefaultBackendURL 是本地开发时后端服务的地址。
const DefaultBackendURL = "http://localhost:8000"

// Config 聚合整个客户端的配置项。
type Config struct {
	Backend BackendConfig
	Server  ServerConfig
	Log     LogConfig
	Watch   WatchConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	backend, err := loadBackendConfig()
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Backend: backend,
		Server:  server,
		Log:     logCfg,
		Watch:   WatchConfig{Dir: strings.TrimSpace(os.Getenv("WATCH_DIR"))},
	}, nil
}

// BackendConfig 描述问答/索引后端的连接配置。
type BackendConfig struct {
	BaseURL string
	// Timeout 为 0 表示不限制请求时长。
	Timeout time.Duration
}

func loadBackendConfig() (BackendConfig, error) {
	baseURL := getEnvOrDefault("API_URL", "")
	if baseURL == "" {
		// 兼容前端 .env 中的变量名。
		baseURL = getEnvOrDefault("REACT_APP_API_URL", DefaultBackendURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return BackendConfig{}, fmt.Errorf("invalid API_URL value %q: scheme must be http or https", baseURL)
	}

	timeout, err := parseOptionalIntEnv("BACKEND_TIMEOUT")
	if err != nil {
		return BackendConfig{}, err
	}

	cfg := BackendConfig{BaseURL: baseURL}
	if timeout != nil {
		if *timeout < 0 {
			return BackendConfig{}, fmt.Errorf("invalid BACKEND_TIMEOUT value %d: must not be negative", *timeout)
		}
		cfg.Timeout = time.Duration(*timeout) * time.Second
	}
	return cfg, nil
}

// ServerConfig 描述本地会话 API 的 HTTP 服务配置。
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// loadServerConfig 解析服务器监听地址和跨域来源。
func loadServerConfig() (ServerConfig, error) {
	origins := parseListEnv("CORS_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, CORSOrigins: origins}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, CORSOrigins: origins}, nil
}

// LogConfig 描述日志级别和输出位置。
type LogConfig struct {
	Level zapcore.Level
	// File 为空时输出到 stderr。
	File string
}

func loadLogConfig() (LogConfig, error) {
	raw := getEnvOrDefault("LOG_LEVEL", "info")
	level, err := zapcore.ParseLevel(raw)
	if err != nil {
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value %q: %w", raw, err)
	}

	return LogConfig{
		Level: level,
		File:  strings.TrimSpace(os.Getenv("LOG_FILE")),
	}, nil
}

// WatchConfig 描述自动上传目录。
type WatchConfig struct {
	Dir string
}

// Enabled 表示是否配置了监听目录。
func (c WatchConfig) Enabled() bool {
	return c.Dir != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
