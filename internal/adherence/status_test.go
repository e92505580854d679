package adherence

import (
	"testing"
	"time"

	"github.com/dukerupert/clarus/internal/model"
)

var today = time.Date(2026, 2, 5, 12, 0, 0, 0, time.UTC)

func med() model.Medication {
	return model.Medication{ID: "m1", MemberID: "user_default", Name: "Metformin", Active: true}
}

func logEntry(date, status string, ts int64) model.MedicationLog {
	return model.MedicationLog{ID: date + status, MedicationID: "m1", Date: date, Status: status, Timestamp: ts}
}

func TestPendingWithoutLogs(t *testing.T) {
	if got := ComputeStatus(med(), nil, today); got != StatusPending {
		t.Errorf("status = %q, want %q", got, StatusPending)
	}
}

func TestLatestLogWins(t *testing.T) {
	logs := []model.MedicationLog{
		logEntry("2026-02-05", model.DoseSkipped, 200),
		logEntry("2026-02-05", model.DoseTaken, 100),
		logEntry("2026-02-04", model.DoseTaken, 300),
	}
	if got := ComputeStatus(med(), logs, today); got != StatusSkipped {
		t.Errorf("status = %q, want %q", got, StatusSkipped)
	}
}

func TestPendingLogStaysPending(t *testing.T) {
	logs := []model.MedicationLog{logEntry("2026-02-05", model.DosePending, 1)}
	if got := ComputeStatus(med(), logs, today); got != StatusPending {
		t.Errorf("status = %q, want %q", got, StatusPending)
	}
}

func TestNotDue(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*model.Medication)
	}{
		{"inactive", func(m *model.Medication) { m.Active = false }},
		{"not started", func(m *model.Medication) { m.StartDate = "2026-02-06" }},
		{"ended", func(m *model.Medication) { m.EndDate = "2026-02-04" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := med()
			tt.mod(&m)
			if got := ComputeStatus(m, nil, today); got != StatusNotDue {
				t.Errorf("status = %q, want %q", got, StatusNotDue)
			}
		})
	}
}

func TestBadBoundsIgnored(t *testing.T) {
	m := med()
	m.StartDate = "soon"
	if !IsDueOn(m, today) {
		t.Error("unparseable start date should not block the dose")
	}
}

func TestRate(t *testing.T) {
	m := med()
	m.StartDate = "2026-02-02" // four due days in the window
	logs := []model.MedicationLog{
		logEntry("2026-02-02", model.DoseTaken, 1),
		logEntry("2026-02-03", model.DoseSkipped, 2),
		logEntry("2026-02-05", model.DoseTaken, 3),
		logEntry("2026-01-30", model.DoseTaken, 4),
	}
	if got := Rate(m, logs, today); got != 0.5 {
		t.Errorf("rate = %v, want 0.5", got)
	}

	m.Active = false
	if got := Rate(m, logs, today); got != 0 {
		t.Errorf("inactive rate = %v, want 0", got)
	}
}

func TestToday(t *testing.T) {
	other := med()
	other.ID = "m2"
	out := Today([]model.Medication{med(), other}, []model.MedicationLog{logEntry("2026-02-05", model.DoseTaken, 1)}, today)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Status != StatusTaken || out[1].Status != StatusPending {
		t.Errorf("statuses = %q, %q", out[0].Status, out[1].Status)
	}
}
