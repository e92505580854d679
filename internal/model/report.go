package model

type ReportType string

const (
	ReportLab          ReportType = "lab"
	ReportPrescription ReportType = "prescription"
	ReportScan         ReportType = "scan"
	ReportOther        ReportType = "other"
)

const (
	InsightNormal = "normal"
	InsightHigh   = "high"
	InsightLow    = "low"
)

// Insight is one extracted reading from a lab or scan document.
type Insight struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Status      string `json:"status"`
	Explanation string `json:"explanation"`
}

type MedicalReport struct {
	ID       string     `json:"id"`
	MemberID string     `json:"memberId"`
	Type     ReportType `json:"type"`
	Title    string     `json:"title"`
	Date     string     `json:"date"`
	Summary  string     `json:"summary"`
	Insights []Insight  `json:"insights"`
	ImageURL string     `json:"imageUrl,omitempty"`
}
