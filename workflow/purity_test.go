package workflow_test

import (
	"testing"

	"github.com/dshills/corelang-go/workflow"
)

func TestAnalyzerIsPurePerCallTarget(t *testing.T) {
	a := workflow.NewAnalyzer()

	a.RecordClosure("makeAdder", true)
	a.RecordClosure("makeAdder", true)
	a.RecordClosure("fetchUser", false)

	if !a.IsPure("makeAdder") {
		t.Fatalf("expected makeAdder to be pure: every recorded closure had no required effects")
	}
	if a.IsPure("fetchUser") {
		t.Fatalf("expected fetchUser to be impure")
	}
}

func TestAnalyzerUnknownTargetIsNotPure(t *testing.T) {
	a := workflow.NewAnalyzer()
	if a.IsPure("neverSeen") {
		t.Fatalf("expected an unrecorded call-target to report impure, not pure")
	}
}

func TestAnalyzerOneImpureClosureTaintsTheTarget(t *testing.T) {
	a := workflow.NewAnalyzer()
	a.RecordClosure("helper", true)
	a.RecordClosure("helper", false)

	if a.IsPure("helper") {
		t.Fatalf("expected a single impure recording to make the whole call-target impure")
	}
}

func TestAnalyzerReportByTargetAndSnapshot(t *testing.T) {
	a := workflow.NewAnalyzer()
	a.RecordClosure("a", true)
	a.RecordClosure("b", false)
	a.RecordClosure("b", false)

	report := a.ReportByTarget()
	if !report["a"] {
		t.Fatalf("expected a to report pure")
	}
	if report["b"] {
		t.Fatalf("expected b to report impure")
	}

	snap := a.Snapshot()
	if snap.Total != 3 || snap.Pure != 1 {
		t.Fatalf("expected aggregate Total=3 Pure=1, got %+v", snap)
	}
}
