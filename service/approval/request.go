package approval

// Request carries the decision context captured when governance withholds an
// execution pending human approval.
type Request struct {
	ExecutionID    string                 `json:"executionId"`
	Command        string                 `json:"command"`                  // the requested directive
	PayloadSummary map[string]interface{} `json:"payloadSummary,omitempty"` // expanded input parameters (best-effort)
	Scope          string                 `json:"scope,omitempty"`
	RiskLevel      string                 `json:"riskLevel,omitempty"`
}
