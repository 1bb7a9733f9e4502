package runner

import (
	"context"
	"sync"
	"time"

	"github.com/cnosuke/mcp-upstream/types"
	"go.uber.org/zap"
)

// Parallel issues every candidate concurrently, each under its own deadline,
// and waits for all of them. The winner is the lowest-index candidate with
// records, independent of completion order. Diagnostics keep declaration order.
func Parallel[T any](ctx context.Context, r *Runner, req Request, ex Extraction[T]) (*types.Result[T], error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	start := time.Now()
	res := newResult[T](req, types.StrategyParallel)
	zap.S().Debugw("parallel run started",
		"request_id", res.RequestID,
		"operation", req.Operation,
		"candidates", len(req.Candidates))

	results := make([]attempt[T], len(req.Candidates))

	wg := &sync.WaitGroup{}
	for i, c := range req.Candidates {
		wg.Add(1)
		go func(index int, c types.EndpointCandidate) {
			defer wg.Done()
			results[index] = try(ctx, r, req, c, ex)
		}(i, c)
	}
	wg.Wait()

	for i, a := range results {
		res.Diagnostics = append(res.Diagnostics, a.diag)
		if res.Winner == "" && len(a.records) > 0 {
			res.Records = a.records
			res.Winner = req.Candidates[i].ID
		}
	}

	if res.Winner != "" {
		res.Status = types.StatusData
	} else {
		res.Status = Summarize(res.Diagnostics)
	}
	finish(res, start)
	return res, nil
}
