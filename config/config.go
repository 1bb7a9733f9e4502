package config

import (
	"time"

	"github.com/cnosuke/mcp-upstream/types"
	"github.com/cockroachdb/errors"
	"github.com/jinzhu/configor"
)

const (
	MinTimeout = time.Second
	MaxTimeout = 60 * time.Second
)

// CandidateConfig - Upstream endpoint variant declared in the config file
type CandidateConfig struct {
	ID      string `yaml:"id"`
	Path    string `yaml:"path"` // Appended to upstream.base_url unless it is an absolute URL
	Method  string `yaml:"method"`
	Body    string `yaml:"body"`
	Timeout int    `yaml:"timeout"` // Seconds, 0 inherits the operation timeout
}

// OperationConfig - Per-operation policy overrides
type OperationConfig struct {
	Strategy   string            `yaml:"strategy"`
	Timeout    int               `yaml:"timeout"` // Seconds, 0 inherits fetch.timeout
	Candidates []CandidateConfig `yaml:"candidates"`
}

// Config - Application configuration
type Config struct {
	Upstream struct {
		BaseURL    string `yaml:"base_url" default:"https://api.tikhub.io" env:"UPSTREAM_BASE_URL"`
		APIKey     string `yaml:"api_key" env:"UPSTREAM_API_KEY"`
		AuthHeader string `yaml:"auth_header" default:"Authorization" env:"UPSTREAM_AUTH_HEADER"`
		AuthScheme string `yaml:"auth_scheme" default:"Bearer" env:"UPSTREAM_AUTH_SCHEME"`
		UserAgent  string `yaml:"user_agent" default:"mcp-upstream/1.0" env:"UPSTREAM_USER_AGENT"`
	} `yaml:"upstream"`

	Fetch struct {
		Timeout        int   `yaml:"timeout" default:"15" env:"FETCH_TIMEOUT"` // Timeout in seconds
		MaxBodyBytes   int64 `yaml:"max_body_bytes" default:"8388608" env:"FETCH_MAX_BODY_BYTES"`
		MaxAttempts    int   `yaml:"max_attempts" default:"1" env:"FETCH_MAX_ATTEMPTS"`
		RetryBackoffMs int   `yaml:"retry_backoff_ms" default:"250" env:"FETCH_RETRY_BACKOFF_MS"`
		// Keep trying sibling candidates after a 401/402/403 instead of aborting
		ContinueOnAuthReject bool `yaml:"continue_on_auth_reject" env:"FETCH_CONTINUE_ON_AUTH_REJECT"`
	} `yaml:"fetch"`

	Operations struct {
		Trending OperationConfig `yaml:"trending"`
		Search   OperationConfig `yaml:"search"`
		UserInfo OperationConfig `yaml:"user_info"`
		Diagnose OperationConfig `yaml:"diagnose"`
	} `yaml:"operations"`

	Log struct {
		Level string `yaml:"level" default:"info" env:"LOG_LEVEL"`
		Path  string `yaml:"path" env:"LOG_PATH"` // Empty logs to stderr
	} `yaml:"log"`
}

// LoadConfig - Load configuration file
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	var files []string
	if path != "" {
		files = append(files, path)
	}
	err := configor.New(&configor.Config{
		Debug:      false,
		Verbose:    false,
		Silent:     true,
		AutoReload: false,
	}).Load(cfg, files...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values configor cannot express as defaults.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	if c.Fetch.MaxAttempts < 1 {
		return errors.Newf("fetch.max_attempts must be at least 1, got %d", c.Fetch.MaxAttempts)
	}
	ops := map[string]OperationConfig{
		"trending":  c.Operations.Trending,
		"search":    c.Operations.Search,
		"user_info": c.Operations.UserInfo,
		"diagnose":  c.Operations.Diagnose,
	}
	for name, op := range ops {
		switch types.Strategy(op.Strategy) {
		case "", types.StrategySequential, types.StrategyParallel:
		default:
			return errors.Newf("operations.%s.strategy: unknown strategy %q", name, op.Strategy)
		}
		for i, cand := range op.Candidates {
			if cand.ID == "" || cand.Path == "" {
				return errors.Newf("operations.%s.candidates[%d]: id and path are required", name, i)
			}
		}
	}
	return nil
}

// FetchTimeout returns the default per-candidate deadline.
func (c *Config) FetchTimeout() time.Duration {
	return Seconds(c.Fetch.Timeout, 15*time.Second)
}

// RetryBackoff returns the pause between attempts of the same candidate.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Fetch.RetryBackoffMs) * time.Millisecond
}

// OperationTimeout returns the deadline for candidates of one operation.
func (c *Config) OperationTimeout(op OperationConfig) time.Duration {
	return Seconds(op.Timeout, c.FetchTimeout())
}

// Seconds converts a seconds setting to a duration clamped to
// [MinTimeout, MaxTimeout]. Zero or negative values yield fallback.
func Seconds(secs int, fallback time.Duration) time.Duration {
	if secs <= 0 {
		return fallback
	}
	d := time.Duration(secs) * time.Second
	if d < MinTimeout {
		return MinTimeout
	}
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}
