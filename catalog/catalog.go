// Package catalog maps logical operations to their upstream candidate lists
// and extraction rules. Candidate order encodes observed reliability: the
// first entry is the one most likely to return data.
package catalog

import (
	"strings"

	"github.com/cnosuke/mcp-upstream/config"
	"github.com/cnosuke/mcp-upstream/runner"
	"github.com/cnosuke/mcp-upstream/types"
)

const (
	OpTrending = "trending"
	OpSearch   = "search"
	OpUserInfo = "user_info"
	OpDiagnose = "diagnose"
)

// Operation - Everything the runner needs for one logical operation
type Operation[T any] struct {
	Name       string
	Strategy   types.Strategy
	Candidates []types.EndpointCandidate
	Extraction runner.Extraction[T]
}

// Request builds a runner request for this operation.
func (o Operation[T]) Request(credential string, params map[string]string) runner.Request {
	return runner.Request{
		Operation:  o.Name,
		Candidates: o.Candidates,
		Credential: credential,
		Params:     params,
		Strategy:   o.Strategy,
	}
}

type endpoint struct {
	id     string
	path   string
	method string
	body   string
}

func build[T any](cfg *config.Config, name string, opCfg config.OperationConfig, defaults []endpoint, strategy types.Strategy, ex runner.Extraction[T]) Operation[T] {
	timeout := cfg.OperationTimeout(opCfg)
	base := strings.TrimRight(cfg.Upstream.BaseURL, "/")

	var candidates []types.EndpointCandidate
	if len(opCfg.Candidates) > 0 {
		for _, c := range opCfg.Candidates {
			candidates = append(candidates, types.EndpointCandidate{
				ID:      c.ID,
				URL:     resolve(base, c.Path),
				Method:  c.Method,
				Body:    c.Body,
				Timeout: config.Seconds(c.Timeout, timeout),
			})
		}
	} else {
		for _, e := range defaults {
			candidates = append(candidates, types.EndpointCandidate{
				ID:      e.id,
				URL:     resolve(base, e.path),
				Method:  e.method,
				Body:    e.body,
				Timeout: timeout,
			})
		}
	}

	if opCfg.Strategy != "" {
		strategy = types.Strategy(opCfg.Strategy)
	}
	return Operation[T]{
		Name:       name,
		Strategy:   strategy,
		Candidates: candidates,
		Extraction: ex,
	}
}

func resolve(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
