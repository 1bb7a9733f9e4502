package types

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"time"
)

// EndpointCandidate - One upstream endpoint variant serving a logical operation
type EndpointCandidate struct {
	ID      string        `json:"id" yaml:"id"`
	URL     string        `json:"url" yaml:"url"`                   // May contain {name} placeholders
	Method  string        `json:"method,omitempty" yaml:"method"`   // Defaults to GET
	Body    string        `json:"body,omitempty" yaml:"body"`       // Optional request body template
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout"` // Zero means the runner default
}

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Expand renders the URL and body templates. URL values are query-escaped,
// body values are escaped as JSON string contents. Unknown names render empty.
func (c EndpointCandidate) Expand(params map[string]string) EndpointCandidate {
	out := c
	out.URL = placeholder.ReplaceAllStringFunc(c.URL, func(m string) string {
		return url.QueryEscape(params[m[1:len(m)-1]])
	})
	if c.Body != "" {
		out.Body = placeholder.ReplaceAllStringFunc(c.Body, func(m string) string {
			return jsonEscape(params[m[1:len(m)-1]])
		})
	}
	return out
}

func jsonEscape(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	b := bytes.TrimSpace(buf.Bytes())
	return string(b[1 : len(b)-1])
}
