// Package config centralizes how VerseVault reads environment variables and
// exposes them as typed values.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration shared by the server, the worker
// and the CLI.
type Config struct {
	Address string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	GeminiAPIKey      string
	GenModel          string
	LLMMaxTokens      int
	LLMTemperature    float64
	LLMRequestsPerMin int
	LLMTimeout        time.Duration
	SystemPromptFile  string

	ChunkSize      int
	FetchTimeout   time.Duration
	ProcessingPool int
	TaskUniqueTTL  time.Duration
	LogLevel       string
}

const (
	defaultAddress        = ":8080"
	defaultRedisAddr      = ""
	defaultS3Region       = "us-east-1"
	defaultGenModel       = "gemini-1.5-flash"
	defaultLLMMaxTokens   = 16000
	defaultLLMTemperature = 0.1
	defaultLLMTimeout     = 3 * time.Minute
	defaultChunkSize      = 25000
	defaultFetchTimeout   = 60 * time.Second
	defaultWorkerCount    = 2
	defaultUniqueTTL      = 30 * time.Minute
	defaultLogLevel       = "info"
)

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Address:           readEnv("VERSEVAULT_ADDRESS", defaultAddress),
		DatabaseURL:       readEnv("DATABASE_URL", ""),
		RedisAddr:         readEnv("REDIS_ADDR", defaultRedisAddr),
		RedisPassword:     readEnv("REDIS_PASSWORD", ""),
		RedisDB:           parseInt("REDIS_DB", 0),
		S3Endpoint:        readEnv("S3_ENDPOINT", ""),
		S3AccessKey:       readEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       readEnv("S3_SECRET_KEY", ""),
		S3Region:          readEnv("S3_REGION", defaultS3Region),
		S3UseSSL:          parseBool("S3_USE_SSL", true),
		GeminiAPIKey:      readEnv("GEMINI_API_KEY", ""),
		GenModel:          readEnv("GEN_MODEL", defaultGenModel),
		LLMMaxTokens:      parseInt("LLM_MAX_TOKENS", defaultLLMMaxTokens),
		LLMTemperature:    parseFloat("LLM_TEMPERATURE", defaultLLMTemperature),
		LLMRequestsPerMin: parseInt("LLM_REQUESTS_PER_MINUTE", 0),
		LLMTimeout:        parseDuration("LLM_TIMEOUT", defaultLLMTimeout),
		SystemPromptFile:  readEnv("SYSTEM_PROMPT_FILE", ""),
		ChunkSize:         parseInt("CHUNK_SIZE", defaultChunkSize),
		FetchTimeout:      parseDuration("FETCH_TIMEOUT", defaultFetchTimeout),
		ProcessingPool:    parseInt("VERSEVAULT_WORKERS", defaultWorkerCount),
		TaskUniqueTTL:     parseDuration("TASK_UNIQUE_TTL", defaultUniqueTTL),
		LogLevel:          strings.ToLower(readEnv("LOG_LEVEL", defaultLogLevel)),
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = defaultLLMMaxTokens
	}
	if cfg.LLMTemperature < 0 || cfg.LLMTemperature > 2 {
		cfg.LLMTemperature = defaultLLMTemperature
	}
	if cfg.ProcessingPool <= 0 {
		cfg.ProcessingPool = defaultWorkerCount
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = defaultLLMTimeout
	}
	if cfg.TaskUniqueTTL <= 0 {
		cfg.TaskUniqueTTL = defaultUniqueTTL
	}
	return cfg, nil
}

// Requirement names a dependency a binary needs configured.
type Requirement int

const (
	NeedDatabase Requirement = iota
	NeedRedis
	NeedLLM
)

// Validate checks that the settings a binary depends on are present.
func (c *Config) Validate(needs ...Requirement) error {
	var errs []error
	for _, n := range needs {
		switch n {
		case NeedDatabase:
			if c.DatabaseURL == "" {
				errs = append(errs, errors.New("DATABASE_URL not set"))
			}
		case NeedRedis:
			if c.RedisAddr == "" {
				errs = append(errs, errors.New("REDIS_ADDR not set"))
			}
		case NeedLLM:
			if c.GeminiAPIKey == "" {
				errs = append(errs, errors.New("GEMINI_API_KEY not set"))
			}
		}
	}
	return errors.Join(errs...)
}

// ObjectStorageEnabled reports whether s3:// references can be resolved.
func (c *Config) ObjectStorageEnabled() bool {
	return c.S3Endpoint != ""
}

// SystemPrompt returns the contents of SystemPromptFile, or "" when unset.
func (c *Config) SystemPrompt() (string, error) {
	if c.SystemPromptFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.SystemPromptFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
