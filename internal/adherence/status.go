// Package adherence derives daily dose status from medication logs.
package adherence

import (
	"time"

	"github.com/dukerupert/clarus/internal/model"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusSkipped Status = "skipped"
	StatusNotDue  Status = "not_due"
)

type MedicationWithStatus struct {
	model.Medication
	Status Status `json:"status"`
	// Rate is the share of the last RateWindow scheduled days marked taken.
	Rate float64 `json:"rate"`
}

// RateWindow is the number of days Rate looks back over, today included.
const RateWindow = 7

// IsDueOn reports whether med is scheduled on date. Inactive medications
// and dates outside StartDate..EndDate are never due. Unparseable bounds
// are ignored.
func IsDueOn(med model.Medication, date time.Time) bool {
	if !med.Active {
		return false
	}
	day := date.Format(time.DateOnly)
	if med.StartDate != "" && validDate(med.StartDate) && day < med.StartDate {
		return false
	}
	if med.EndDate != "" && validDate(med.EndDate) && day > med.EndDate {
		return false
	}
	return true
}

// ComputeStatus returns the dose status of med on today. The most recent
// log for the day wins; a pending log leaves the dose pending.
func ComputeStatus(med model.Medication, logs []model.MedicationLog, today time.Time) Status {
	if !IsDueOn(med, today) {
		return StatusNotDue
	}
	if l := latestFor(med.ID, logs, today.Format(time.DateOnly)); l != nil {
		switch l.Status {
		case model.DoseTaken:
			return StatusTaken
		case model.DoseSkipped:
			return StatusSkipped
		}
	}
	return StatusPending
}

// Rate is the fraction of due days in the trailing window marked taken.
// It is zero when no day in the window was due.
func Rate(med model.Medication, logs []model.MedicationLog, today time.Time) float64 {
	due, taken := 0, 0
	for i := 0; i < RateWindow; i++ {
		day := today.AddDate(0, 0, -i)
		if !IsDueOn(med, day) {
			continue
		}
		due++
		if l := latestFor(med.ID, logs, day.Format(time.DateOnly)); l != nil && l.Status == model.DoseTaken {
			taken++
		}
	}
	if due == 0 {
		return 0
	}
	return float64(taken) / float64(due)
}

// Today annotates every medication with its status for today.
func Today(meds []model.Medication, logs []model.MedicationLog, today time.Time) []MedicationWithStatus {
	out := make([]MedicationWithStatus, 0, len(meds))
	for _, m := range meds {
		out = append(out, MedicationWithStatus{
			Medication: m,
			Status:     ComputeStatus(m, logs, today),
			Rate:       Rate(m, logs, today),
		})
	}
	return out
}

func latestFor(medID string, logs []model.MedicationLog, day string) *model.MedicationLog {
	var latest *model.MedicationLog
	for i := range logs {
		l := &logs[i]
		if l.MedicationID != medID || l.Date != day {
			continue
		}
		if latest == nil || l.Timestamp >= latest.Timestamp {
			latest = l
		}
	}
	return latest
}

func validDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
