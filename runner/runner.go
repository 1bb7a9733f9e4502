// Package runner executes a logical request against an ordered list of
// equivalent upstream candidates and returns the first usable data.
//
// Sequential runs stop at the first candidate yielding records. Parallel runs
// issue every candidate at once, wait for all of them, and pick the winner by
// declared position rather than arrival time.
package runner

import (
	"context"
	"net/http"
	"time"

	"github.com/cnosuke/mcp-upstream/fetcher"
	"github.com/cnosuke/mcp-upstream/normalize"
	"github.com/cnosuke/mcp-upstream/probe"
	"github.com/cnosuke/mcp-upstream/types"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

var (
	ErrNoCandidates    = errors.New("no endpoint candidates")
	ErrInvalidStrategy = errors.New("unknown strategy")
)

// Options - Policy shared by every request a Runner executes
type Options struct {
	DefaultTimeout    time.Duration
	AbortOnAuthReject bool
	MaxAttempts       int // Per candidate, including the first call
	RetryBackoff      time.Duration
}

// Request - One logical request as supplied by the routing layer
type Request struct {
	Operation  string
	Candidates []types.EndpointCandidate
	Credential string
	Params     map[string]string
	Strategy   types.Strategy
}

// Extraction describes how records are pulled out of a successful response.
type Extraction[T any] struct {
	Lists  []probe.Path
	Fields normalize.FieldMap[T]
	// Keep drops normalized records that carry no usable data.
	Keep func(T) bool
}

type Runner struct {
	fetcher fetcher.Fetcher
	opts    Options
}

func New(f fetcher.Fetcher, opts Options) *Runner {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Runner{fetcher: f, opts: opts}
}

// Run dispatches req to the sequential or parallel strategy.
func Run[T any](ctx context.Context, r *Runner, req Request, ex Extraction[T]) (*types.Result[T], error) {
	switch req.Strategy {
	case types.StrategySequential, "":
		return Sequential(ctx, r, req, ex)
	case types.StrategyParallel:
		return Parallel(ctx, r, req, ex)
	}
	return nil, errors.Wrapf(ErrInvalidStrategy, "strategy %q", req.Strategy)
}

func validate(req Request) error {
	if len(req.Candidates) == 0 {
		return errors.Wrapf(ErrNoCandidates, "operation %q", req.Operation)
	}
	seen := make(map[string]bool, len(req.Candidates))
	for i, c := range req.Candidates {
		if c.ID == "" {
			return errors.Newf("candidate %d of %q has no id", i, req.Operation)
		}
		if seen[c.ID] {
			return errors.Newf("duplicate candidate id %q in %q", c.ID, req.Operation)
		}
		seen[c.ID] = true
	}
	return nil
}

func newResult[T any](req Request, strategy types.Strategy) *types.Result[T] {
	return &types.Result[T]{
		RequestID:   uuid.NewString(),
		Operation:   req.Operation,
		Strategy:    strategy,
		Records:     []T{},
		Diagnostics: make([]types.Diagnostic, 0, len(req.Candidates)),
	}
}

// attempt is the settled state of one candidate.
type attempt[T any] struct {
	records []T
	diag    types.Diagnostic
}

// try runs one candidate, retrying transient failures up to MaxAttempts.
func try[T any](ctx context.Context, r *Runner, req Request, c types.EndpointCandidate, ex Extraction[T]) attempt[T] {
	if c.Timeout <= 0 {
		c.Timeout = r.opts.DefaultTimeout
	}
	c = c.Expand(req.Params)
	start := time.Now()

	var res attempt[T]
	for n := 1; ; n++ {
		out := r.fetcher.Fetch(ctx, c, req.Credential)
		res = evaluate(c.ID, out, ex)
		res.diag.Attempts = n

		zap.S().Debugw("candidate attempt",
			"operation", req.Operation,
			"candidate", c.ID,
			"attempt", n,
			"outcome", res.diag.Outcome,
			"http_status", res.diag.HTTPStatus,
			"items", res.diag.ItemCount)

		if n >= r.opts.MaxAttempts || !retryable(res.diag) || !sleep(ctx, r.opts.RetryBackoff) {
			break
		}
	}
	res.diag.ElapsedMs = time.Since(start).Milliseconds()
	return res
}

func evaluate[T any](id string, out *fetcher.Outcome, ex Extraction[T]) attempt[T] {
	d := types.Diagnostic{CandidateID: id, HTTPStatus: out.Status}
	switch out.Kind {
	case fetcher.KindTimeout:
		d.Outcome = types.OutcomeTimeout
		d.Message = errMessage(out.Err)
		return attempt[T]{diag: d}
	case fetcher.KindTransportError:
		d.Outcome = types.OutcomeTransportError
		d.Message = errMessage(out.Err)
		return attempt[T]{diag: d}
	case fetcher.KindHTTPError:
		d.Outcome = types.OutcomeHTTPError
		if AuthRejected(out.Status) {
			d.Outcome = types.OutcomeAuthRejected
		}
		d.Message = out.Message
		return attempt[T]{diag: d}
	}

	d.Outcome = types.OutcomeEmpty
	if !gjson.ValidBytes(out.Body) {
		d.Message = "response is not valid JSON"
		return attempt[T]{diag: d}
	}
	doc := gjson.ParseBytes(out.Body)
	if code := doc.Get("code"); code.Type == gjson.Number {
		d.UpstreamCode = code.Int()
	}
	d.Message = probe.Message(out.Body)
	data := doc.Get("data")
	d.DataKeys, d.ListFields = probe.Shape(data)

	records := normalize.All(probe.List(doc, ex.Lists), ex.Fields, ex.Keep)
	d.ItemCount = len(records)
	if len(records) > 0 {
		d.Outcome = types.OutcomeData
	} else {
		d.Sample = probe.Sample(data)
	}
	return attempt[T]{records: records, diag: d}
}

// AuthRejected reports whether an HTTP status means the credential itself
// was refused (unauthorized, payment required, forbidden).
func AuthRejected(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusForbidden:
		return true
	}
	return false
}

func retryable(d types.Diagnostic) bool {
	switch d.Outcome {
	case types.OutcomeTimeout, types.OutcomeTransportError:
		// A transport error with a status had a response, e.g. an oversized body.
		return d.HTTPStatus == 0
	case types.OutcomeHTTPError:
		return d.HTTPStatus == http.StatusTooManyRequests || d.HTTPStatus >= 500
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Summarize derives the aggregate status of a run that produced no records.
func Summarize(diags []types.Diagnostic) types.Status {
	if len(diags) == 0 {
		return types.StatusEmptyNoData
	}
	transport, auth := 0, 0
	for _, d := range diags {
		switch {
		case d.Outcome.Transport():
			transport++
		case d.Outcome == types.OutcomeAuthRejected:
			auth++
		}
	}
	switch {
	case transport == len(diags):
		return types.StatusAllTransportFailed
	case auth > 0 && auth+transport == len(diags):
		return types.StatusAuthRejected
	}
	return types.StatusEmptyNoData
}

func finish[T any](res *types.Result[T], start time.Time) {
	res.Elapsed = time.Since(start)
	zap.S().Infow("request finished",
		"request_id", res.RequestID,
		"operation", res.Operation,
		"strategy", res.Strategy,
		"status", res.Status,
		"winner", res.Winner,
		"records", len(res.Records),
		"attempted", len(res.Diagnostics),
		"elapsed", res.Elapsed)
}
