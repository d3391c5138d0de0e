/*
 * @Author: AsisYu 2773943729@qq.com
 * @Date: 2026-10-19
 * @Description: 环境变量配置
 */
package config

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"whoisd/pkg/logger"
	"whoisd/types"

	"github.com/joho/godotenv"
)

// Config 服务配置
type Config struct {
	Port    string
	Env     string
	LogFile string

	WhoisTimeout       time.Duration
	WhoisFollow        int
	WhoisIgnorePrivacy bool
	Proxy              *types.ProxyOptions
	DNSServer          string

	RedisAddr     string
	RedisPassword string

	JWTSecret          string
	AuthEnabled        bool
	RateLimitPerMinute int

	WorkerPoolSize      int
	HealthCheckInterval time.Duration
	CORSOrigins         []string
}

// LoadDotEnv 加载 .env 文件，文件不存在不算错误
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Load 从环境变量读取配置
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getString("PORT", "8080"),
		Env:                 getString("APP_ENV", logger.DeriveEnvironment()),
		LogFile:             os.Getenv("LOG_FILE"),
		WhoisTimeout:        time.Duration(getInt("WHOIS_TIMEOUT_MS", int(types.DefaultTimeout/time.Millisecond))) * time.Millisecond,
		WhoisFollow:         getInt("WHOIS_FOLLOW", types.DefaultFollow),
		WhoisIgnorePrivacy:  getBool("WHOIS_IGNORE_PRIVACY", true),
		DNSServer:           os.Getenv("DNS_SERVER"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AuthEnabled:         getBool("API_AUTH_ENABLED", false),
		RateLimitPerMinute:  getInt("RATE_LIMIT_PER_MINUTE", 60),
		WorkerPoolSize:      getInt("WORKER_POOL_SIZE", runtime.NumCPU()*2),
		HealthCheckInterval: getDuration("HEALTH_CHECK_INTERVAL", 10*time.Minute),
		CORSOrigins:         getList("CORS_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	if proxy := os.Getenv("WHOIS_SOCKS5_PROXY"); proxy != "" {
		p, err := ParseProxy(proxy)
		if err != nil {
			return nil, err
		}
		p.Username = os.Getenv("WHOIS_SOCKS5_USER")
		p.Password = os.Getenv("WHOIS_SOCKS5_PASSWORD")
		cfg.Proxy = p
	}

	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("API_AUTH_ENABLED requires JWT_SECRET")
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 1
	}
	return cfg, nil
}

// WhoisOptions 由配置生成默认查询参数
func (c *Config) WhoisOptions() types.Options {
	opts := types.DefaultOptions()
	opts.Timeout = c.WhoisTimeout
	opts.Follow = c.WhoisFollow
	opts.IgnorePrivacy = types.Bool(c.WhoisIgnorePrivacy)
	opts.Proxy = c.Proxy
	return opts.Normalize()
}

// Addr 监听地址
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// ParseProxy 支持 host 或 host:port，可带 socks5:// 前缀
func ParseProxy(s string) (*types.ProxyOptions, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "socks5://")
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return &types.ProxyOptions{Host: s}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid SOCKS5 proxy port %q", portStr)
	}
	return &types.ProxyOptions{Host: host, Port: port}, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Module("Config").Warnf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Module("Config").Warnf("invalid %s=%q, using %v", key, v, def)
		return def
	}
	return b
}

// getDuration 接受 time.ParseDuration 格式，纯数字按秒处理
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	logger.Module("Config").Warnf("invalid %s=%q, using %v", key, v, def)
	return def
}

func getList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
