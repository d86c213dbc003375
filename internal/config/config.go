package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个网关的配置项。
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Chat     ChatConfig
	Geo      GeoConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	geo, err := loadGeoConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Upstream: upstream,
		Chat:     loadChatConfig(),
		Geo:      geo,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// UpstreamConfig 描述外部翻译后端的访问配置。
type UpstreamConfig struct {
	BaseURL   string
	ChatWSURL string
	Timeout   time.Duration
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	timeoutSeconds := 120 // 语音翻译可能耗时较长
	if override, err := parseOptionalIntEnv("UPSTREAM_TIMEOUT"); err != nil {
		return UpstreamConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return UpstreamConfig{}, fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return UpstreamConfig{
		BaseURL:   getEnvOrDefault("UPSTREAM_BASE_URL", "http://127.0.0.1:8000"),
		ChatWSURL: getEnvOrDefault("CHAT_WS_URL", "ws://127.0.0.1:8000/ws/chat/global"),
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// ChatConfig 描述全局聊天的默认配置。
type ChatConfig struct {
	DefaultLanguage string
}

func loadChatConfig() ChatConfig {
	return ChatConfig{
		DefaultLanguage: getEnvOrDefault("CHAT_DEFAULT_LANGUAGE", "English"),
	}
}

// GeoConfig 描述国家语言查询的配置，RedisAddr 为空时使用进程内缓存。
type GeoConfig struct {
	BaseURL   string
	RedisAddr string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

func loadGeoConfig() (GeoConfig, error) {
	ttlSeconds := 0
	if override, err := parseOptionalIntEnv("GEO_CACHE_TTL"); err != nil {
		return GeoConfig{}, err
	} else if override != nil {
		ttlSeconds = *override
	}

	timeoutSeconds := 10
	if override, err := parseOptionalIntEnv("GEO_TIMEOUT"); err != nil {
		return GeoConfig{}, err
	} else if override != nil {
		timeoutSeconds = *override
	}

	return GeoConfig{
		BaseURL:   getEnvOrDefault("GEO_BASE_URL", "https://restcountries.com/v3.1"),
		RedisAddr: strings.TrimSpace(os.Getenv("GEO_REDIS_ADDR")),
		CacheTTL:  time.Duration(ttlSeconds) * time.Second,
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
	}, nil
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
