package access

import "testing"

func TestRecordSuccessAndGetPreference(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("m1", "us-east-1", MethodDirect)

	p, ok := tr.GetPreference("m1", "us-east-1")
	if !ok {
		t.Fatal("expected preference to be recorded")
	}
	if !p.PreferDirect || p.LearnedFromError {
		t.Errorf("got %+v, want prefer_direct=true, learned_from_error=false", p)
	}
}

func TestRecordProfileRequirementRegional(t *testing.T) {
	tr := NewTracker()
	tr.RecordProfileRequirement("m1", "us-east-1", true)

	p, ok := tr.GetPreference("m1", "us-east-1")
	if !ok {
		t.Fatal("expected preference to be recorded")
	}
	if !p.PreferRegional || !p.LearnedFromError {
		t.Errorf("got %+v, want prefer_regional=true, learned_from_error=true", p)
	}
	if !tr.RequiresProfile("m1", "us-east-1") {
		t.Error("expected RequiresProfile=true after profile requirement")
	}
}

func TestRecordProfileRequirementGlobalFallback(t *testing.T) {
	tr := NewTracker()
	tr.RecordProfileRequirement("m1", "us-east-1", false)

	p, _ := tr.GetPreference("m1", "us-east-1")
	if !p.PreferGlobal {
		t.Errorf("expected prefer_global when no regional profile, got %+v", p)
	}
}

func TestRequiresProfileFalseByDefault(t *testing.T) {
	tr := NewTracker()
	if tr.RequiresProfile("unknown", "us-east-1") {
		t.Error("expected RequiresProfile=false for unknown key")
	}
}

func TestResetForTesting(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("m1", "us-east-1", MethodDirect)
	tr.ResetForTesting()
	if _, ok := tr.GetPreference("m1", "us-east-1"); ok {
		t.Error("expected no preference after reset")
	}
}

func TestDefaultTrackerSingleton(t *testing.T) {
	if DefaultTracker() != DefaultTracker() {
		t.Error("expected DefaultTracker to return the same instance")
	}
}

func TestRecordSuccessLastWriteWins(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess("m1", "us-east-1", MethodDirect)
	tr.RecordSuccess("m1", "us-east-1", MethodGlobal)

	p, _ := tr.GetPreference("m1", "us-east-1")
	if !p.PreferGlobal || p.PreferDirect {
		t.Errorf("expected last write (global) to win, got %+v", p)
	}
}
