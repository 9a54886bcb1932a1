package flowcore

// ExecutionResult is the introspectable outcome of a captured execution
// pass, for downstream tooling (UI, tests, debuggers).
type ExecutionResult struct {
	// RunID uniquely identifies this execution pass, for correlating
	// ExecutionResult with trace/observability output.
	RunID string

	// NodeResults holds, for every node reached in the pass, the combined
	// inputs and outputs of that node. On failure it holds only the
	// nodes completed before the error.
	NodeResults map[string]map[string]DataValue

	ErrorNodeID   string
	ErrorMessage  string
}

// Success reports whether the pass completed without an error. Any
// recorded error counts, including one not attributable to a node
// (ErrorNodeID "unknown").
func (r ExecutionResult) Success() bool {
	return r.ErrorNodeID == "" && r.ErrorMessage == ""
}

func newExecutionResult(runID string) *ExecutionResult {
	return &ExecutionResult{
		RunID:       runID,
		NodeResults: make(map[string]map[string]DataValue),
	}
}

func (r *ExecutionResult) recordError(err error) {
	r.ErrorMessage = err.Error()
	if id := extractErrorNodeID(err); id != "" {
		r.ErrorNodeID = id
	} else {
		r.ErrorNodeID = "unknown"
	}
}
