package runner

// Job is one unit of department work. The id doubles as the idempotency key
// and the execution id of the command the job turns into.
type Job struct {
	ID         string                 `json:"id" yaml:"id"`
	Role       string                 `json:"role" yaml:"role"`
	Command    string                 `json:"command" yaml:"command"`
	Params     map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
	ApprovalID string                 `json:"approvalId,omitempty" yaml:"approvalId,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// StateSkipped marks a job short-circuited by the idempotency cache. The
// remaining result states mirror the execution states.
const StateSkipped = "SKIPPED"

// Result is the outcome of one job.
type Result struct {
	JobID      string                 `json:"jobId"`
	State      string                 `json:"state"`
	Reason     string                 `json:"reason,omitempty"`
	ApprovalID string                 `json:"approvalId,omitempty"`
	Result     map[string]interface{} `json:"result,omitempty"`
	Failure    map[string]interface{} `json:"failure,omitempty"`
}
