package advisor

import (
	"context"
	"regexp"
	"strings"

	"github.com/dukerupert/clarus/internal/gemini"
	"github.com/dukerupert/clarus/internal/model"
)

const (
	msgChatNoKey   = "Error: Gemini API key not detected. Please ensure your environment is configured correctly."
	msgChatFailure = "I am having trouble connecting to the medical database right now. Please try again in a moment."
)

const chatTemperature = 0.3

const chatSystemPrompt = `You are Clarus, a premium medical companion.

MANDATORY SAFETY RULES:
1. NEVER diagnose a condition. Use "possible reasons" or "associated with".
2. NEVER prescribe medication or dosages.
3. NEVER advise stopping current medication.
4. ALWAYS advise consulting a doctor for persistent or worsening symptoms.
5. If symptoms indicate emergency (chest pain, stroke signs, severe bleeding), flag as HIGH risk and advise immediate ER visit.

STRUCTURE YOUR RESPONSE:
**Summary**: 1 sentence recap of user's issue.
**Possible Reasons**: Bullet points of non-diagnostic possibilities.
**What to Monitor**: Specific signs to watch for.
**Self-care**: Safe, conservative steps (rest, hydration).
**When to see a doctor**: Specific thresholds.

At the very end, strictly output JSON risk level:
` + "```json\n{ \"risk\": \"low\" | \"moderate\" | \"high\" }\n```"

var riskMarker = regexp.MustCompile("```json\\s*\\{\\s*\"risk\"\\s*:\\s*\"(low|moderate|high)\"\\s*\\}\\s*```")

// Reply is a parsed conversational turn.
type Reply struct {
	Text string     `json:"text"`
	Risk model.Risk `json:"risk"`
}

// ParseReply strips every risk marker from text. The last marker sets the
// tier; without one the tier is fallback.
func ParseReply(text string, fallback model.Risk) Reply {
	risk := fallback
	matches := riskMarker.FindAllStringSubmatch(text, -1)
	if len(matches) > 0 {
		risk = model.Risk(matches[len(matches)-1][1])
	}
	clean := riskMarker.ReplaceAllString(text, "")
	return Reply{Text: strings.TrimSpace(clean), Risk: risk}
}

// Chat sends history plus the new user text and parses the reply. Failures
// become canned replies at low risk.
func (s *Service) Chat(ctx context.Context, history []model.ChatMessage, text string) Reply {
	if !s.configured() {
		return Reply{Text: msgChatNoKey, Risk: model.RiskLow}
	}

	contents := make([]gemini.Content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, gemini.Text(string(m.Role), m.Text))
	}
	contents = append(contents, gemini.Text(string(model.RoleUser), text))

	temp := chatTemperature
	resp, err := s.gen.GenerateContent(ctx, &gemini.Request{
		Model:       s.cfg.ChatModel,
		System:      chatSystemPrompt,
		Contents:    contents,
		Temperature: &temp,
	})
	if err != nil {
		s.logger.Error("chat request failed", "model", s.cfg.ChatModel, "error", err)
		return Reply{Text: msgChatFailure, Risk: model.RiskLow}
	}

	reply := ParseReply(resp.Text(), s.cfg.MissingRisk)
	if reply.Risk == model.RiskHigh {
		s.logger.Warn("high risk chat turn")
	}
	return reply
}
