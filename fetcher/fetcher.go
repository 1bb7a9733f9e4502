package fetcher

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	ierrors "github.com/cnosuke/mcp-upstream/internal/errors"
	"github.com/cnosuke/mcp-upstream/probe"
	"github.com/cnosuke/mcp-upstream/types"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// ErrBodyTooLarge marks a 2xx response whose body exceeded MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response exceeds max_body_bytes")

type Config struct {
	Timeout      time.Duration // Used when a candidate carries no timeout
	UserAgent    string
	AuthHeader   string
	AuthScheme   string
	MaxBodyBytes int64
}

// Kind tags the variant held by an Outcome.
type Kind int

const (
	KindSuccess Kind = iota
	KindHTTPError
	KindTimeout
	KindTransportError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http_error"
	case KindTimeout:
		return "timeout"
	case KindTransportError:
		return "transport_error"
	}
	return "unknown"
}

// Outcome - Result of a single upstream call
type Outcome struct {
	Kind    Kind
	Status  int    // HTTP status, zero unless a response arrived
	Body    []byte // Set for KindSuccess
	Message string // Upstream message for KindHTTPError
	Err     error  // Cause for KindTimeout and KindTransportError
	Elapsed time.Duration
}

// Fetcher issues one HTTP call for a candidate under its deadline.
// It never retries.
type Fetcher interface {
	Fetch(ctx context.Context, c types.EndpointCandidate, credential string) *Outcome
}

// httpFetcher implements the Fetcher interface using HTTP.
type httpFetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	authHeader   string
	authScheme   string
	maxBodyBytes int64
}

// NewHTTPFetcher creates a new httpFetcher. Deadlines are enforced per request
// through the request context, so the client itself carries no timeout.
func NewHTTPFetcher(cfg *Config, client *http.Client) (Fetcher, error) {
	if cfg.Timeout <= 0 {
		return nil, errors.Newf("fetch timeout must be positive, got %s", cfg.Timeout)
	}
	if client == nil {
		client = &http.Client{}
	}
	authHeader := cfg.AuthHeader
	if authHeader == "" {
		authHeader = "Authorization"
	}

	zap.S().Infow("creating new HTTP fetcher",
		"timeout", cfg.Timeout,
		"user_agent", cfg.UserAgent,
		"auth_header", authHeader,
		"max_body_bytes", cfg.MaxBodyBytes)

	return &httpFetcher{
		client:       client,
		timeout:      cfg.Timeout,
		userAgent:    cfg.UserAgent,
		authHeader:   authHeader,
		authScheme:   cfg.AuthScheme,
		maxBodyBytes: cfg.MaxBodyBytes,
	}, nil
}

func (f *httpFetcher) Fetch(ctx context.Context, c types.EndpointCandidate, credential string) *Outcome {
	start := time.Now()
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = f.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := f.do(ctx, c, credential)
	out.Elapsed = time.Since(start)

	zap.S().Debugw("candidate fetched",
		"candidate", c.ID,
		"kind", out.Kind.String(),
		"status", out.Status,
		"bytes", len(out.Body),
		"elapsed", out.Elapsed)

	return out
}

func (f *httpFetcher) do(ctx context.Context, c types.EndpointCandidate, credential string) *Outcome {
	method := strings.ToUpper(c.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if c.Body != "" {
		body = strings.NewReader(c.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL, body)
	if err != nil {
		return &Outcome{Kind: KindTransportError, Err: ierrors.Wrap(err, "failed to create request")}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if credential != "" {
		value := credential
		if f.authScheme != "" {
			value = f.authScheme + " " + credential
		}
		req.Header.Set(f.authHeader, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return failure(ctx, ierrors.Wrap(err, "failed to execute request"))
	}
	defer resp.Body.Close()

	reader := io.Reader(resp.Body)
	if f.maxBodyBytes > 0 {
		// One byte past the limit tells a full body from a cut one.
		reader = io.LimitReader(resp.Body, f.maxBodyBytes+1)
	}
	bodyBytes, err := io.ReadAll(reader)
	if err != nil {
		return failure(ctx, ierrors.Wrap(err, "failed to read response body"))
	}
	oversized := f.maxBodyBytes > 0 && int64(len(bodyBytes)) > f.maxBodyBytes
	if oversized {
		bodyBytes = bodyBytes[:f.maxBodyBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Outcome{
			Kind:    KindHTTPError,
			Status:  resp.StatusCode,
			Message: probe.Message(bodyBytes),
		}
	}
	if oversized {
		return &Outcome{
			Kind:   KindTransportError,
			Status: resp.StatusCode,
			Err:    errors.Wrapf(ErrBodyTooLarge, "limit %d bytes", f.maxBodyBytes),
		}
	}

	return &Outcome{
		Kind:   KindSuccess,
		Status: resp.StatusCode,
		Body:   bodyBytes,
	}
}

func failure(ctx context.Context, err error) *Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Outcome{Kind: KindTimeout, Err: err}
	}
	return &Outcome{Kind: KindTransportError, Err: err}
}
