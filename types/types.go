package types

import "time"

// Strategy selects how a candidate list is executed.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
)

// OutcomeKind classifies what happened to one candidate.
type OutcomeKind string

const (
	OutcomeData           OutcomeKind = "data"
	OutcomeEmpty          OutcomeKind = "empty"
	OutcomeHTTPError      OutcomeKind = "http_error"
	OutcomeAuthRejected   OutcomeKind = "auth_rejected"
	OutcomeTimeout        OutcomeKind = "timeout"
	OutcomeTransportError OutcomeKind = "transport_error"
)

// Transport reports whether the candidate never got a usable HTTP response.
func (k OutcomeKind) Transport() bool {
	return k == OutcomeTimeout || k == OutcomeTransportError
}

// Status is the aggregate outcome of one request.
type Status string

const (
	StatusData               Status = "data"
	StatusEmptyNoData        Status = "empty_no_data"
	StatusAuthRejected       Status = "auth_rejected"
	StatusAllTransportFailed Status = "all_transport_failed"
)

// Diagnostic - Audit entry for one attempted candidate
type Diagnostic struct {
	CandidateID  string      `json:"candidate_id"`
	Outcome      OutcomeKind `json:"outcome"`
	HTTPStatus   int         `json:"http_status,omitempty"`
	UpstreamCode int64       `json:"upstream_code,omitempty"`
	ItemCount    int         `json:"item_count"`
	Message      string      `json:"message,omitempty"`
	Attempts     int         `json:"attempts"`
	ElapsedMs    int64       `json:"elapsed_ms"`

	// Shape of the response's data object, set when the body was JSON
	DataKeys   []string       `json:"data_keys,omitempty"`
	ListFields map[string]int `json:"list_fields,omitempty"` // Array length per data key
	Sample     string         `json:"sample,omitempty"`      // Leading raw data, kept when nothing was extracted
}

// Result - Normalized records plus the diagnostics that produced them
type Result[T any] struct {
	RequestID   string        `json:"request_id"`
	Operation   string        `json:"operation"`
	Strategy    Strategy      `json:"strategy"`
	Status      Status        `json:"status"`
	Winner      string        `json:"winner,omitempty"` // Candidate id whose records were returned
	Records     []T           `json:"records"`
	Diagnostics []Diagnostic  `json:"diagnostics"`
	Elapsed     time.Duration `json:"-"`
}
