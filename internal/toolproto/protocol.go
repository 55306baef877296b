package toolproto

import "encoding/json"

// Operations exposed by the tool server.
const (
	opInitialize = "initialize"
	opSearchJobs = "search_jobs"
	opApplyToJob = "apply_to_job"
)

// request is a single frame sent to the tool server. Frames are
// newline-delimited JSON. Every request carries the run correlation
// identifier so the server can tag its own logs.
type request struct {
	Seq           uint64 `json:"seq"`
	Op            string `json:"op"`
	Args          any    `json:"args,omitempty"`
	CorrelationID string `json:"correlation_id"`
}

// response is a single frame received from the tool server. Responses are
// matched to requests by sequence number; arrival order is not assumed.
type response struct {
	Seq    uint64          `json:"seq"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *responseError  `json:"error,omitempty"`
}

type responseError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}
