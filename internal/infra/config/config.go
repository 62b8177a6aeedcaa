package config

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/argon2"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Sessions     SessionsConfig     `yaml:"sessions"`
	LLM          LLMConfig          `yaml:"llm"`
	Health       HealthConfig       `yaml:"health"`
	Logger       LoggerConfig       `yaml:"logger"`
	Tracer       TracerConfig       `yaml:"tracer"`
}

// OrchestratorConfig controls message dispatch.
type OrchestratorConfig struct {
	// WorkerTimeout bounds every single worker invocation.
	WorkerTimeout time.Duration `yaml:"worker_timeout"`
	// MaxParallelWorkers caps concurrent supporting-worker calls per message.
	MaxParallelWorkers int `yaml:"max_parallel_workers"`
	// ContextWindow is how many recent messages a TaskRequest carries.
	ContextWindow int `yaml:"context_window"`
	// InitTimeout bounds worker initialization at startup.
	InitTimeout time.Duration `yaml:"init_timeout"`
	// DisabledAgents lists worker tags that are not constructed.
	DisabledAgents []string `yaml:"disabled_agents,omitempty"`
}

// SessionsConfig bounds the in-memory conversation store.
type SessionsConfig struct {
	MaxSessions int           `yaml:"max_sessions"`
	IdleTTL     time.Duration `yaml:"idle_ttl"`
}

// LLMConfig configures the completion collaborator used by workers.
type LLMConfig struct {
	// Provider is "openai" for any OpenAI-compatible endpoint or "canned"
	// to run fully offline.
	Provider          string               `yaml:"provider"`
	BaseURL           string               `yaml:"base_url"`
	APIKey            string               `yaml:"api_key"`
	Model             string               `yaml:"model"`
	MaxTokens         int                  `yaml:"max_tokens"`
	Temperature       float64              `yaml:"temperature"`
	ConnTimeout       time.Duration        `yaml:"conn_timeout"`
	RespTimeout       time.Duration        `yaml:"resp_timeout"`
	RequestsPerMinute int                  `yaml:"requests_per_minute"`
	Burst             int                  `yaml:"burst"`
	CircuitBreaker    CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig configures the breaker around the completion client.
type CircuitBreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// HealthConfig controls the scheduled health report of `salesdesk serve`.
type HealthConfig struct {
	Schedule string `yaml:"schedule"` // cron expression, e.g. "@every 5m"; empty disables
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TracerConfig holds tracing settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			WorkerTimeout:      30 * time.Second,
			MaxParallelWorkers: 4,
			ContextWindow:      5,
			InitTimeout:        30 * time.Second,
		},
		Sessions: SessionsConfig{
			MaxSessions: 1000,
			IdleTTL:     time.Hour,
		},
		LLM: LLMConfig{
			Provider:          "canned",
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			MaxTokens:         1024,
			Temperature:       0.7,
			ConnTimeout:       10 * time.Second,
			RespTimeout:       60 * time.Second,
			RequestsPerMinute: 60,
			Burst:             5,
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Health: HealthConfig{
			Schedule: "@every 5m",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Enabled:  false,
			Exporter: "noop",
		},
	}
}

// Load reads a YAML config file, applies env var overrides, and decrypts secrets.
// A missing file is not an error: defaults plus env overrides are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	if err := validatePermissions(absPath); err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if passphrase := os.Getenv("SALESDESK_CONFIG_KEY"); passphrase != "" {
		if err := decryptSecrets(cfg, passphrase); err != nil {
			return nil, fmt.Errorf("decrypt secrets: %w", err)
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps SALESDESK_* env vars to config fields.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SALESDESK_WORKER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Orchestrator.WorkerTimeout = d
		}
	}
	if v := os.Getenv("SALESDESK_MAX_PARALLEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Orchestrator.MaxParallelWorkers = n
		}
	}
	if v := os.Getenv("SALESDESK_DISABLED_AGENTS"); v != "" {
		cfg.Orchestrator.DisabledAgents = splitAndTrim(v, ",")
	}

	if v := os.Getenv("SALESDESK_SESSIONS_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Sessions.MaxSessions = n
		}
	}
	if v := os.Getenv("SALESDESK_SESSIONS_IDLE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Sessions.IdleTTL = d
		}
	}

	if v := os.Getenv("SALESDESK_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("SALESDESK_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("SALESDESK_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("SALESDESK_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("SALESDESK_HEALTH_SCHEDULE"); v != "" {
		cfg.Health.Schedule = v
	}

	if v := os.Getenv("SALESDESK_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SALESDESK_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("SALESDESK_LOG_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}

	if v := os.Getenv("SALESDESK_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("SALESDESK_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
}

// splitAndTrim splits s by sep and trims whitespace from each element.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// decryptSecrets finds "enc:..." values and decrypts them in place.
func decryptSecrets(cfg *Config, passphrase string) error {
	if strings.HasPrefix(cfg.LLM.APIKey, "enc:") {
		decrypted, err := DecryptValue(strings.TrimPrefix(cfg.LLM.APIKey, "enc:"), passphrase)
		if err != nil {
			return fmt.Errorf("llm api_key: %w", err)
		}
		cfg.LLM.APIKey = decrypted
	}
	return nil
}

// EncryptValue encrypts a plaintext value with AES-256-GCM using a passphrase.
func EncryptValue(plaintext, passphrase string) (string, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	// Format: hex(salt) + ":" + hex(nonce+ciphertext)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptValue decrypts a value produced by EncryptValue.
func DecryptValue(encrypted, passphrase string) (string, error) {
	salt, data, ok := strings.Cut(encrypted, ":")
	if !ok {
		return "", fmt.Errorf("invalid encrypted format")
	}

	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("decode salt: %w", err)
	}
	payload, err := hex.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	gcm, err := newGCM(passphrase, saltBytes)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(payload) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	plaintext, err := gcm.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	// Argon2id, 32-byte key.
	key := argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// validatePermissions checks the config file is not group/world writable.
func validatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat config: %w", err)
	}
	mode := info.Mode().Perm()
	if mode&0o022 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %o (want 0600 or 0644)", path, mode)
	}
	return nil
}
