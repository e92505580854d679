package advisor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/clarus/internal/gemini"
	"github.com/dukerupert/clarus/internal/model"
)

var (
	ErrNotConfigured   = errors.New("advisor: model api key not configured")
	ErrUnsupportedKind = errors.New("advisor: unsupported document kind")
)

// Generator is the remote model transport. *gemini.Client satisfies it.
type Generator interface {
	Configured() bool
	GenerateContent(ctx context.Context, r *gemini.Request) (*gemini.Response, error)
}

type Config struct {
	ChatModel   string
	FastModel   string
	SpeechModel string

	// MissingRisk is the tier assigned when a chat reply carries no risk marker.
	MissingRisk model.Risk
}

// Service turns chat turns and documents into structured results using the
// remote model. It never touches the store.
type Service struct {
	gen    Generator
	cfg    Config
	logger *slog.Logger
}

func New(gen Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gemini-3-pro-preview"
	}
	if cfg.FastModel == "" {
		cfg.FastModel = "gemini-2.5-flash"
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	if _, ok := model.ParseRisk(string(cfg.MissingRisk)); !ok {
		cfg.MissingRisk = model.RiskLow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, cfg: cfg, logger: logger}
}

func (s *Service) configured() bool {
	return s.gen != nil && s.gen.Configured()
}

// generateText runs a single-prompt request on the fast model.
func (s *Service) generateText(ctx context.Context, prompt string) (string, error) {
	resp, err := s.gen.GenerateContent(ctx, &gemini.Request{
		Model:    s.cfg.FastModel,
		Contents: []gemini.Content{gemini.Text("user", prompt)},
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
