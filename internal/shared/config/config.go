package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeFile  = "file"
	ModeTexts = "texts"

	defaultEndpoint       = "http://127.0.0.1:5000/analyze"
	defaultTimeoutSeconds = 120
	defaultMaxUploadBytes = 10 << 20
)

// Config holds application configuration.
type Config struct {
	Env             string
	Port            string
	CORSAllowOrigin []string
	AnalyzeEndpoint string
	AnalyzeBaseURL  string
	InputMode       string
	RequestTimeout  time.Duration
	MaxUploadBytes  int64
	SubmitRate      float64
	SubmitBurst     int
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	LogLevel        string
}

// Load reads configuration from an optional YAML file and environment variables.
// Environment variables win over file values.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	file, err := loadFile(os.Getenv("REPORTCARD_CONFIG"))
	if err != nil {
		log.Printf("config: ignoring config file: %v", err)
	}

	return Config{
		Env:             normalizeEnv(getEnv("ENV", pick(file.Env, "dev"))),
		Port:            getEnv("PORT", pick(file.Server.Port, "8080")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", pick(strings.Join(file.Server.CORSAllowOrigins, ","), "http://localhost:5173"))),
		AnalyzeEndpoint: getEnv("ANALYZE_ENDPOINT", pick(file.Analyze.Endpoint, defaultEndpoint)),
		AnalyzeBaseURL:  getEnv("ANALYZE_BASE_URL", file.Analyze.BaseURL),
		InputMode:       normalizeMode(getEnv("INPUT_MODE", pick(file.Analyze.Mode, ModeFile))),
		RequestTimeout:  time.Duration(getEnvInt("ANALYZE_TIMEOUT_SECONDS", pickInt(file.Analyze.TimeoutSeconds, defaultTimeoutSeconds))) * time.Second,
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", pickInt(file.Server.MaxUploadBytes, defaultMaxUploadBytes))),
		SubmitRate:      getEnvFloat("SUBMIT_RATE_PER_SECOND", 1),
		SubmitBurst:     getEnvInt("SUBMIT_BURST", 5),
		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", pick(file.Storage.Type, "local"))),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", pick(file.Storage.LocalDir, "./data")),
		AWSRegion:       getEnv("AWS_REGION", file.Storage.AWSRegion),
		S3Bucket:        getEnv("S3_BUCKET", file.Storage.S3Bucket),
		S3Prefix:        getEnv("S3_PREFIX", file.Storage.S3Prefix),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		LogLevel:        getEnv("LOG_LEVEL", pick(file.LogLevel, "info")),
	}
}

// Validate reports configuration that cannot produce a working client.
func (c Config) Validate() error {
	switch c.InputMode {
	case ModeFile, ModeTexts:
	default:
		return fmt.Errorf("INPUT_MODE must be %q or %q, got %q", ModeFile, ModeTexts, c.InputMode)
	}
	if _, err := c.Endpoint(); err != nil {
		return err
	}
	if c.ObjectStoreType == "s3" && strings.TrimSpace(c.S3Bucket) == "" {
		return errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
	}
	if c.RequestTimeout < 0 {
		return errors.New("ANALYZE_TIMEOUT_SECONDS must not be negative")
	}
	return nil
}

// Endpoint returns the absolute analysis URL. A relative ANALYZE_ENDPOINT is
// resolved against ANALYZE_BASE_URL.
func (c Config) Endpoint() (string, error) {
	raw := strings.TrimSpace(c.AnalyzeEndpoint)
	if raw == "" {
		return "", errors.New("ANALYZE_ENDPOINT is required")
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse ANALYZE_ENDPOINT: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base := strings.TrimSpace(c.AnalyzeBaseURL)
	if base == "" {
		return "", fmt.Errorf("ANALYZE_ENDPOINT %q is relative and ANALYZE_BASE_URL is not set", raw)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse ANALYZE_BASE_URL: %w", err)
	}
	if !baseURL.IsAbs() {
		return "", fmt.Errorf("ANALYZE_BASE_URL %q must be absolute", base)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return parsed
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %v", key, raw, def)
		return def
	}
	return parsed
}

func pick(val, def string) string {
	if strings.TrimSpace(val) != "" {
		return val
	}
	return def
}

func pickInt(val, def int) int {
	if val != 0 {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeMode(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "text", "texts":
		return ModeTexts
	case "file", "pdf":
		return ModeFile
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
