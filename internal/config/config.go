package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures all runtime settings. Values layer as defaults, then
// an optional properties file, then environment variables.
type Config struct {
	BindAddr string
	LogFile  string
	LogLevel string

	EcoFlowBaseURL   string
	EcoFlowAccessKey string
	EcoFlowSecretKey string
	DeviceSN         string

	PollInterval time.Duration
	CacheTTL     time.Duration

	BreakerMaxFailures  int
	BreakerResetTimeout time.Duration

	MQTTBroker   string
	MQTTClientID string
	MQTTTopic    string

	KafkaBrokers []string
	KafkaTopic   string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration
}

const defaultPropsEnv = "ECOFLOW_PROPERTIES"

func defaults() Config {
	return Config{
		BindAddr:            ":8080",
		LogFile:             "./plug-backend.log",
		LogLevel:            "info",
		EcoFlowBaseURL:      "https://api.ecoflow.com",
		PollInterval:        10 * time.Second,
		CacheTTL:            10 * time.Second,
		BreakerMaxFailures:  5,
		BreakerResetTimeout: 30 * time.Second,
		MQTTClientID:        "plug-backend",
		MQTTTopic:           "plug/samples",
		KafkaTopic:          "plug.samples",
		HTTPReadTimeout:     10 * time.Second,
		HTTPWriteTimeout:    30 * time.Second,
		ShutdownTimeout:     10 * time.Second,
	}
}

// Load resolves the configuration. A properties file path can be given
// via ECOFLOW_PROPERTIES; a missing file is not an error. Environment
// variables win over properties, which win over defaults.
func Load() Config {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv(defaultPropsEnv)); path != "" {
		applyProperties(&cfg, path)
	}
	applyEnv(&cfg)
	return cfg
}

func applyProperties(cfg *Config, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "//") {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}
		setProperty(cfg, strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1]))
	}
}

func setProperty(cfg *Config, key, value string) {
	switch strings.ToLower(key) {
	case "bind_addr":
		cfg.BindAddr = value
	case "log_file":
		cfg.LogFile = value
	case "log_level":
		cfg.LogLevel = value
	case "ecoflow_base_url":
		cfg.EcoFlowBaseURL = value
	case "ecoflow_access_key":
		cfg.EcoFlowAccessKey = value
	case "ecoflow_secret_key":
		cfg.EcoFlowSecretKey = value
	case "device_sn":
		cfg.DeviceSN = value
	case "poll_interval_ms":
		if d, ok := parseMillis(value); ok {
			cfg.PollInterval = d
		}
	case "cache_ttl_ms":
		if d, ok := parseMillis(value); ok {
			cfg.CacheTTL = d
		}
	case "breaker_max_failures":
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			cfg.BreakerMaxFailures = n
		}
	case "breaker_reset_timeout_ms":
		if d, ok := parseMillis(value); ok {
			cfg.BreakerResetTimeout = d
		}
	case "mqtt_broker":
		cfg.MQTTBroker = value
	case "mqtt_client_id":
		cfg.MQTTClientID = value
	case "mqtt_topic":
		cfg.MQTTTopic = value
	case "kafka_brokers":
		cfg.KafkaBrokers = splitAndTrim(value)
	case "kafka_topic":
		cfg.KafkaTopic = value
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
}

func applyEnv(cfg *Config) {
	cfg.BindAddr = envStr("PLUG_BIND_ADDR", cfg.BindAddr)
	cfg.LogFile = envStr("PLUG_LOGFILE", cfg.LogFile)
	cfg.LogLevel = envStr("PLUG_LOG_LEVEL", cfg.LogLevel)
	cfg.EcoFlowBaseURL = envStr("ECOFLOW_BASE_URL", cfg.EcoFlowBaseURL)
	cfg.EcoFlowAccessKey = envStr("ECOFLOW_ACCESS_KEY", cfg.EcoFlowAccessKey)
	cfg.EcoFlowSecretKey = envStr("ECOFLOW_SECRET_KEY", cfg.EcoFlowSecretKey)
	cfg.DeviceSN = envStr("ECOFLOW_DEVICE_SN", cfg.DeviceSN)
	cfg.PollInterval = envDur("PLUG_POLL_INTERVAL", cfg.PollInterval)
	cfg.CacheTTL = envDur("PLUG_CACHE_TTL", cfg.CacheTTL)
	cfg.BreakerMaxFailures = envInt("PLUG_BREAKER_MAX_FAILURES", cfg.BreakerMaxFailures)
	cfg.BreakerResetTimeout = envDur("PLUG_BREAKER_RESET_TIMEOUT", cfg.BreakerResetTimeout)
	cfg.MQTTBroker = envStr("PLUG_MQTT_BROKER", cfg.MQTTBroker)
	cfg.MQTTClientID = envStr("PLUG_MQTT_CLIENT_ID", cfg.MQTTClientID)
	cfg.MQTTTopic = envStr("PLUG_MQTT_TOPIC", cfg.MQTTTopic)
	if v := strings.TrimSpace(os.Getenv("PLUG_KAFKA_BROKERS")); v != "" {
		cfg.KafkaBrokers = splitAndTrim(v)
	}
	cfg.KafkaTopic = envStr("PLUG_KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.HTTPReadTimeout = envDur("PLUG_HTTP_READ_TIMEOUT", cfg.HTTPReadTimeout)
	cfg.HTTPWriteTimeout = envDur("PLUG_HTTP_WRITE_TIMEOUT", cfg.HTTPWriteTimeout)
	cfg.ShutdownTimeout = envDur("PLUG_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func parseMillis(v string) (time.Duration, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * time.Millisecond, true
}

func splitAndTrim(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
