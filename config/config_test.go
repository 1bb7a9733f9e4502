package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://api.tikhub.io", cfg.Upstream.BaseURL)
	assert.Equal(t, "Authorization", cfg.Upstream.AuthHeader)
	assert.Equal(t, "Bearer", cfg.Upstream.AuthScheme)
	assert.Equal(t, 15, cfg.Fetch.Timeout)
	assert.Equal(t, 1, cfg.Fetch.MaxAttempts)
	assert.False(t, cfg.Fetch.ContinueOnAuthReject)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff())
}

func TestLoadConfig_Operations(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
fetch:
  timeout: 20
  continue_on_auth_reject: true
operations:
  search:
    strategy: parallel
    timeout: 90
    candidates:
      - id: custom
        path: /api/v1/custom?keyword={keyword}
        method: POST
`))
	require.NoError(t, err)

	assert.True(t, cfg.Fetch.ContinueOnAuthReject)
	assert.Equal(t, "parallel", cfg.Operations.Search.Strategy)
	require.Len(t, cfg.Operations.Search.Candidates, 1)
	assert.Equal(t, "custom", cfg.Operations.Search.Candidates[0].ID)
	assert.Equal(t, MaxTimeout, cfg.OperationTimeout(cfg.Operations.Search))
	assert.Equal(t, 20*time.Second, cfg.OperationTimeout(cfg.Operations.Trending))
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{
			name: "unknown strategy",
			body: "operations:\n  trending:\n    strategy: fastest\n",
			msg:  "unknown strategy",
		},
		{
			name: "candidate without path",
			body: "operations:\n  user_info:\n    candidates:\n      - id: x\n",
			msg:  "id and path are required",
		},
		{
			name: "zero attempts",
			body: "fetch:\n  max_attempts: -1\n",
			msg:  "max_attempts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, 3*time.Second, Seconds(0, 3*time.Second))
	assert.Equal(t, 3*time.Second, Seconds(-1, 3*time.Second))
	assert.Equal(t, 10*time.Second, Seconds(10, 3*time.Second))
	assert.Equal(t, MaxTimeout, Seconds(600, 3*time.Second))
}
