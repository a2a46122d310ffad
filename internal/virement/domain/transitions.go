package virement

// The execution lifecycle forms a closed graph. Terminal states have no
// outgoing edges; a corrected retry is a brand-new order.
var executionGraph = map[string][]string{
	ExecutionNotExecuted: {ExecutionInProgress},
	ExecutionInProgress:  {ExecutionExecuted, ExecutionPartial, ExecutionRejected, ExecutionBlocked},
	ExecutionExecuted:    {},
	ExecutionPartial:     {},
	ExecutionRejected:    {},
	ExecutionBlocked:     {},
}

var validationGraph = map[string][]string{
	ValidationPending:  {ValidationApproved, ValidationRejected},
	ValidationApproved: {},
	ValidationRejected: {},
}

// CanTransitionExecution reports whether the execution graph allows from→to.
func CanTransitionExecution(from, to string) bool {
	for _, next := range executionGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionValidation reports whether the validation graph allows from→to.
func CanTransitionValidation(from, to string) bool {
	for _, next := range validationGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsExecutionStatus reports whether s is a known execution status.
func IsExecutionStatus(s string) bool {
	_, ok := executionGraph[s]
	return ok
}

// IsTerminalExecution reports whether s is a terminal execution status.
func IsTerminalExecution(s string) bool {
	next, ok := executionGraph[s]
	return ok && len(next) == 0
}

// MotifRequired reports whether the target status must carry a motif.
func MotifRequired(to string) bool {
	return to == ExecutionRejected || to == ExecutionBlocked
}

// RecoveryRequestable reports whether funds recovery may be requested for an
// order in the given execution status: money was, or may have been, moved.
func RecoveryRequestable(executionStatus string) bool {
	switch executionStatus {
	case ExecutionExecuted, ExecutionPartial, ExecutionRejected, ExecutionBlocked:
		return true
	default:
		return false
	}
}
