package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Session SessionConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Log: loadLogConfig(), Session: session}, nil
}

// ServerConfig 描述 HTTP 与 WebSocket 服务配置。
type ServerConfig struct {
	HTTPAddr        string
	WSAddr          string
	StaticDir       string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// SharedListener 表示 WebSocket 是否与静态页面共用同一个端口。
func (c ServerConfig) SharedListener() bool {
	return c.HTTPAddr == c.WSAddr
}

// LogConfig 描述日志输出配置。
type LogConfig struct {
	Environment string
	Level       string
}

// SessionConfig 描述单个聊天连接的配置。
type SessionConfig struct {
	SendBuffer int
}

func loadServerConfig() (ServerConfig, error) {
	httpAddr, err := parseAddrEnv("HTTP_PORT", "4444")
	if err != nil {
		return ServerConfig{}, err
	}

	wsAddr, err := parseAddrEnv("WS_PORT", "5555")
	if err != nil {
		return ServerConfig{}, err
	}

	shutdown, err := parseOptionalIntEnv("SHUTDOWN_TIMEOUT")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdownTimeout := 10 * time.Second // 默认10秒
	if shutdown != nil {
		if *shutdown < 0 {
			return ServerConfig{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT value %d: must not be negative", *shutdown)
		}
		shutdownTimeout = time.Duration(*shutdown) * time.Second
	}

	return ServerConfig{
		HTTPAddr:        httpAddr,
		WSAddr:          wsAddr,
		StaticDir:       getEnvOrDefault("STATIC_DIR", "client/build"),
		AllowedOrigins:  parseListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Environment: getEnvOrDefault("APP_ENV", "development"),
		Level:       getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

func loadSessionConfig() (SessionConfig, error) {
	buffer, err := parseOptionalIntEnv("WS_SEND_BUFFER")
	if err != nil {
		return SessionConfig{}, err
	}

	sendBuffer := 16
	if buffer != nil {
		if *buffer < 1 {
			return SessionConfig{}, fmt.Errorf("invalid WS_SEND_BUFFER value %d: must be positive", *buffer)
		}
		sendBuffer = *buffer
	}

	return SessionConfig{SendBuffer: sendBuffer}, nil
}

// parseAddrEnv 解析监听地址，允许 "8080"、":8080" 或 "127.0.0.1:8080"。
func parseAddrEnv(key, defaultPort string) (string, error) {
	port := getEnvOrDefault(key, defaultPort)

	if strings.Contains(port, ":") {
		return port, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid %s value: %q", key, port)
	}

	return ":" + port, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
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
