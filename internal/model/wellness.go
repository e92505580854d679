package model

type WellnessType string

const (
	WellnessBreathing WellnessType = "breathing"
	WellnessGratitude WellnessType = "gratitude"
	WellnessGrounding WellnessType = "grounding"
)

type WellnessSession struct {
	ID        string       `json:"id"`
	Type      WellnessType `json:"type"`
	Timestamp int64        `json:"timestamp"`
	Points    int          `json:"points"`
	Note      string       `json:"note,omitempty"`
}
