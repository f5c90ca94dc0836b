package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port      string
	RedisHost string
	RedisPort string

	DNSResolver string

	// API credentials for the external reputation sources. Empty key means
	// the source is skipped, never a hard failure.
	AbuseIPDBKey string
	URLHausKey   string

	SandboxURL  string
	RendererURL string
	GeoDBPath   string

	EnableWhois bool
	EnableGeo   bool

	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Port:         getEnv("PORT", "5000"),
		RedisHost:    getEnv("REDIS_HOST", "localhost"),
		RedisPort:    getEnv("REDIS_PORT", "6379"),
		DNSResolver:  getEnv("DNS_RESOLVER", "8.8.8.8:53"),
		AbuseIPDBKey: os.Getenv("ABUSEIPDB_KEY"),
		URLHausKey:   os.Getenv("URLHAUS_KEY"),
		SandboxURL:   os.Getenv("SANDBOX_URL"),
		RendererURL:  os.Getenv("REPORT_RENDERER_URL"),
		GeoDBPath:    os.Getenv("GEOIP_DB_PATH"),
		EnableWhois:  getEnvBool("ENABLE_WHOIS", true),
		EnableGeo:    getEnvBool("ENABLE_GEO", true),
		CacheTTL:     time.Duration(getEnvInt("CACHE_TTL_MINUTES", 60)) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
