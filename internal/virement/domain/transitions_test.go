package virement

import (
	"testing"

	"virement-backoffice/internal/amount"
)

func TestExecutionGraphEdges(t *testing.T) {
	allowed := []struct{ from, to string }{
		{ExecutionNotExecuted, ExecutionInProgress},
		{ExecutionInProgress, ExecutionExecuted},
		{ExecutionInProgress, ExecutionPartial},
		{ExecutionInProgress, ExecutionRejected},
		{ExecutionInProgress, ExecutionBlocked},
	}
	for _, edge := range allowed {
		if !CanTransitionExecution(edge.from, edge.to) {
			t.Errorf("expected %s -> %s to be allowed", edge.from, edge.to)
		}
	}

	forbidden := []struct{ from, to string }{
		{ExecutionNotExecuted, ExecutionExecuted},
		{ExecutionNotExecuted, ExecutionRejected},
		{ExecutionExecuted, ExecutionInProgress},
		{ExecutionRejected, ExecutionInProgress},
		{ExecutionRejected, ExecutionExecuted},
		{ExecutionBlocked, ExecutionExecuted},
		{ExecutionPartial, ExecutionExecuted},
		{ExecutionInProgress, ExecutionNotExecuted},
	}
	for _, edge := range forbidden {
		if CanTransitionExecution(edge.from, edge.to) {
			t.Errorf("expected %s -> %s to be forbidden", edge.from, edge.to)
		}
	}
}

func TestTerminalExecutionStatesHaveNoExit(t *testing.T) {
	terminals := []string{ExecutionExecuted, ExecutionPartial, ExecutionRejected, ExecutionBlocked}
	all := []string{ExecutionNotExecuted, ExecutionInProgress, ExecutionExecuted, ExecutionPartial, ExecutionRejected, ExecutionBlocked}
	for _, terminal := range terminals {
		if !IsTerminalExecution(terminal) {
			t.Errorf("expected %s to be terminal", terminal)
		}
		for _, target := range all {
			if CanTransitionExecution(terminal, target) {
				t.Errorf("terminal %s must not reach %s", terminal, target)
			}
		}
	}
	if IsTerminalExecution(ExecutionNotExecuted) || IsTerminalExecution(ExecutionInProgress) {
		t.Error("non-terminal state reported terminal")
	}
}

func TestValidationGraph(t *testing.T) {
	if !CanTransitionValidation(ValidationPending, ValidationApproved) {
		t.Error("pending -> validated must be allowed")
	}
	if !CanTransitionValidation(ValidationPending, ValidationRejected) {
		t.Error("pending -> rejected must be allowed")
	}
	if CanTransitionValidation(ValidationApproved, ValidationRejected) {
		t.Error("a decided order cannot be re-decided")
	}
	if CanTransitionValidation(ValidationRejected, ValidationApproved) {
		t.Error("a rejected order cannot be approved later")
	}
}

func TestIsExecutionStatus(t *testing.T) {
	for _, status := range []string{ExecutionNotExecuted, ExecutionInProgress, ExecutionExecuted, ExecutionPartial, ExecutionRejected, ExecutionBlocked} {
		if !IsExecutionStatus(status) {
			t.Errorf("expected %s to be known", status)
		}
	}
	if IsExecutionStatus("DONE") {
		t.Error("unknown status accepted")
	}
}

func TestMotifRequired(t *testing.T) {
	if !MotifRequired(ExecutionRejected) || !MotifRequired(ExecutionBlocked) {
		t.Error("REJETE and BLOQUE require a motif")
	}
	if MotifRequired(ExecutionExecuted) || MotifRequired(ExecutionPartial) || MotifRequired(ExecutionInProgress) {
		t.Error("motif must not be required outside REJETE/BLOQUE")
	}
}

func TestRecoveryRequestable(t *testing.T) {
	for _, status := range []string{ExecutionExecuted, ExecutionPartial, ExecutionRejected, ExecutionBlocked} {
		if !RecoveryRequestable(status) {
			t.Errorf("recovery must be requestable in %s", status)
		}
	}
	for _, status := range []string{ExecutionNotExecuted, ExecutionInProgress} {
		if RecoveryRequestable(status) {
			t.Errorf("recovery must not be requestable in %s", status)
		}
	}
}

func TestBuildReference(t *testing.T) {
	if got := BuildReference(2026, 42); got != "OV-2026-00042" {
		t.Errorf("unexpected reference %q", got)
	}
	if got := BuildReference(2026, 123456); got != "OV-2026-123456" {
		t.Errorf("sequence beyond five digits must not be clipped, got %q", got)
	}
}

func TestTransferredAmountSkipsRejectedLines(t *testing.T) {
	lines := []TransferLine{
		{Amount: amount.Amount(150000), Status: LineValid},
		{Amount: amount.Amount(200499), Status: LineRejected, RejectReason: "RIB cloture"},
		{Amount: amount.Amount(100000), Status: LineValid},
	}
	if got := TransferredAmount(lines); got != amount.Amount(250000) {
		t.Errorf("transferred amount = %d, want 250000", got)
	}
}
