package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	cause := errors.New("down")

	h := Healthy("ok")
	if h.Status != StatusHealthy || h.Message != "ok" || h.Timestamp.IsZero() {
		t.Errorf("Healthy() = %+v", h)
	}

	d := Degraded("slow").WithDetails(map[string]any{"k": 1})
	if d.Status != StatusDegraded || d.Details["k"] != 1 {
		t.Errorf("Degraded() = %+v", d)
	}

	u := Unhealthy("bad", cause)
	if u.Status != StatusUnhealthy || !errors.Is(u.Error, cause) {
		t.Errorf("Unhealthy() = %+v", u)
	}
}

func TestCheckerFunc(t *testing.T) {
	checker := NewCheckerFunc("fn", func(ctx context.Context) Result {
		return Degraded("meh")
	})

	if checker.Name() != "fn" {
		t.Errorf("Name() = %v, want fn", checker.Name())
	}
	if got := checker.Check(context.Background()); got.Status != StatusDegraded {
		t.Errorf("Check().Status = %v, want degraded", got.Status)
	}
}
