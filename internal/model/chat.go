package model

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Risk is the model's self-reported severity for a chat turn.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskModerate Risk = "moderate"
	RiskHigh     Risk = "high"
)

// ParseRisk returns the tier named by s and whether s was a known tier.
func ParseRisk(s string) (Risk, bool) {
	switch Risk(s) {
	case RiskLow, RiskModerate, RiskHigh:
		return Risk(s), true
	}
	return "", false
}

type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	IsRisk    Risk   `json:"isRisk,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}
