package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/dukerupert/clarus/internal/model"
)

const (
	msgSummaryNoKey   = "Unable to generate summary. API Key missing."
	msgSummaryFailure = "Summary generation failed."

	msgInteractionsNoKey   = "Safety check unavailable."
	msgInteractionsFailure = "Unable to verify interactions at this time."
	msgInteractionsEmpty   = "No interactions found."
	msgNoMedications       = "No medications to check."

	msgInsightNoKey   = "Stay hydrated and get enough rest."
	msgInsightFailure = "Take a deep breath and relax."
	msgInsightEmpty   = "Health is wealth."
)

// summaryTurns is how many recent chat messages feed the doctor summary.
const summaryTurns = 4

// DoctorSummary writes a pre-visit paragraph for member.
func (s *Service) DoctorSummary(ctx context.Context, member model.FamilyMember, history []model.ChatMessage, meds []model.Medication) string {
	if !s.configured() {
		return msgSummaryNoKey
	}

	conditions := "None listed"
	if len(member.MedicalHistory) > 0 {
		conditions = strings.Join(member.MedicalHistory, ", ")
	}
	allergies := "None"
	if len(member.Allergies) > 0 {
		allergies = strings.Join(member.Allergies, ", ")
	}
	recent := history
	if len(recent) > summaryTurns {
		recent = recent[len(recent)-summaryTurns:]
	}
	turns := make([]string, 0, len(recent))
	for _, m := range recent {
		turns = append(turns, fmt.Sprintf("%s: %s", m.Role, m.Text))
	}

	prompt := fmt.Sprintf(`Create a concise medical summary for a doctor's visit based on this context. Format as: "Patient presents with [conditions]. Recent concerns include [symptoms from chat]. Current medications: [meds]. Allergies: [allergies]."
User: %s
Conditions: %s
Allergies: %s
Current Meds: %s
Recent Chat: %s`, member.Name, conditions, allergies, medicationNames(meds), strings.Join(turns, "\n"))

	text, err := s.generateText(ctx, prompt)
	if err != nil {
		s.logger.Error("doctor summary failed", "member_id", member.ID, "error", err)
		return msgSummaryFailure
	}
	if strings.TrimSpace(text) == "" {
		return msgSummaryFailure
	}
	return text
}

// CheckInteractions asks for drug-drug and drug-allergy conflicts. An empty
// medication list is answered without a remote call.
func (s *Service) CheckInteractions(ctx context.Context, meds []model.Medication, allergies []string) string {
	if !s.configured() {
		return msgInteractionsNoKey
	}
	if len(meds) == 0 {
		return msgNoMedications
	}

	prompt := fmt.Sprintf(`Review these medications: %s.
Patient allergies: %s.
Identify any potential serious drug-drug interactions or drug-allergy conflicts.
Keep it brief (max 3 sentences). If safe, say "No significant interactions found."`,
		medicationNames(meds), strings.Join(allergies, ", "))

	text, err := s.generateText(ctx, prompt)
	if err != nil {
		s.logger.Error("interaction check failed", "error", err)
		return msgInteractionsFailure
	}
	if strings.TrimSpace(text) == "" {
		return msgInteractionsEmpty
	}
	return text
}

// FastInsight returns a one-sentence tip about topic.
func (s *Service) FastInsight(ctx context.Context, topic string) string {
	if !s.configured() {
		return msgInsightNoKey
	}

	prompt := fmt.Sprintf("Give me a 1-sentence interesting medical fact, wellness tip, or encouraging quote about %s. Do not use markdown.", topic)
	text, err := s.generateText(ctx, prompt)
	if err != nil {
		s.logger.Error("insight failed", "topic", topic, "error", err)
		return msgInsightFailure
	}
	if strings.TrimSpace(text) == "" {
		return msgInsightEmpty
	}
	return strings.TrimSpace(text)
}

func medicationNames(meds []model.Medication) string {
	names := make([]string, 0, len(meds))
	for _, m := range meds {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}
