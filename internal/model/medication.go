package model

type Medication struct {
	ID               string `json:"id"`
	MemberID         string `json:"memberId"`
	Name             string `json:"name"`
	Strength         string `json:"strength,omitempty"`
	Timing           string `json:"timing"`
	Instructions     string `json:"instructions,omitempty"`
	StartDate        string `json:"startDate,omitempty"`
	EndDate          string `json:"endDate,omitempty"`
	Active           bool   `json:"active"`
	RefillsRemaining *int   `json:"refillsRemaining,omitempty"`
}

const (
	DoseTaken   = "taken"
	DoseSkipped = "skipped"
	DosePending = "pending"
)

// MedicationLog records one scheduled dose for a day.
type MedicationLog struct {
	ID           string `json:"id"`
	MedicationID string `json:"medicationId"`
	Date         string `json:"date"` // YYYY-MM-DD
	Status       string `json:"status"`
	Timestamp    int64  `json:"timestamp"`
}
