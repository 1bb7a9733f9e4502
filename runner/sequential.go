package runner

import (
	"context"
	"time"

	"github.com/cnosuke/mcp-upstream/types"
	"go.uber.org/zap"
)

// Sequential tries candidates in declared order and returns the records of
// the first one that yields any. Diagnostics cover attempted candidates only.
// With AbortOnAuthReject set, an auth-rejected candidate ends the run.
func Sequential[T any](ctx context.Context, r *Runner, req Request, ex Extraction[T]) (*types.Result[T], error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	start := time.Now()
	res := newResult[T](req, types.StrategySequential)
	zap.S().Debugw("sequential run started",
		"request_id", res.RequestID,
		"operation", req.Operation,
		"candidates", len(req.Candidates))

	for _, c := range req.Candidates {
		if ctx.Err() != nil {
			break
		}
		a := try(ctx, r, req, c, ex)
		res.Diagnostics = append(res.Diagnostics, a.diag)

		if len(a.records) > 0 {
			res.Records = a.records
			res.Winner = c.ID
			res.Status = types.StatusData
			finish(res, start)
			return res, nil
		}
		if a.diag.Outcome == types.OutcomeAuthRejected && r.opts.AbortOnAuthReject {
			zap.S().Warnw("credential rejected, skipping remaining candidates",
				"request_id", res.RequestID,
				"candidate", c.ID,
				"http_status", a.diag.HTTPStatus,
				"message", a.diag.Message)
			res.Status = types.StatusAuthRejected
			finish(res, start)
			return res, nil
		}
	}

	res.Status = Summarize(res.Diagnostics)
	finish(res, start)
	return res, nil
}
