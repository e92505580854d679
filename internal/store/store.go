package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/clarus/internal/model"
)

// Store is the namespaced persistence facade over a Medium. Every list is
// stored as one JSON value and rewritten in full on each mutation.
type Store struct {
	medium Medium
	logger *slog.Logger
	now    func() time.Time

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

func New(medium Medium, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{medium: medium, logger: logger, now: time.Now}
}

func defaultMembers() []model.FamilyMember {
	return []model.FamilyMember{
		{
			ID:             "user_default",
			Name:           "Me",
			Relation:       "Self",
			Color:          "bg-slate-800",
			AvatarText:     "ME",
			MedicalHistory: []string{"Mild Asthma"},
			Allergies:      []string{"Penicillin"},
		},
	}
}

func defaultChat(now time.Time) []model.ChatMessage {
	ms := now.UnixMilli()
	return []model.ChatMessage{
		{
			ID:        "msg_1",
			Role:      model.RoleUser,
			Text:      "I have been having a throbbing headache on the right side since morning.",
			Timestamp: ms - 10000000,
		},
		{
			ID:   "msg_2",
			Role: model.RoleModel,
			Text: "**Summary**: You are experiencing a one-sided throbbing headache.\n\n" +
				"**Possible Reasons**:\n*   Migraine\n*   Tension headache\n*   Dehydration\n\n" +
				"**Self-care**:\n*   Rest in a dark, quiet room.\n*   Drink water.\n*   Apply a cool compress.\n\n" +
				"**When to see a doctor**:\n*   If pain becomes severe or is accompanied by vision changes.",
			IsRisk:    model.RiskModerate,
			Timestamp: ms - 9999000,
		},
	}
}

// EnsureSeeded writes the sample data once per namespace.
func (s *Store) EnsureSeeded(ns Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureSeeded(ns)
}

func (s *Store) ensureSeeded(ns Namespace) error {
	_, ok, err := s.medium.Get(ns.key(suffixInit))
	if err != nil {
		return fmt.Errorf("check seed marker: %w", err)
	}
	if ok {
		return nil
	}

	seeds := []struct {
		suffix string
		value  any
	}{
		{suffixFamily, defaultMembers()},
		{suffixChat, defaultChat(s.now())},
		{suffixReports, []model.MedicalReport{}},
		{suffixMedications, []model.Medication{}},
		{suffixCareTeam, []model.Caregiver{}},
		{suffixNotes, []model.SharedNote{}},
	}
	for _, seed := range seeds {
		if err := s.write(ns, seed.suffix, seed.value); err != nil {
			return fmt.Errorf("seed %s: %w", seed.suffix, err)
		}
	}

	if err := s.medium.Set(ns.key(suffixInit), "true"); err != nil {
		return fmt.Errorf("set seed marker: %w", err)
	}
	s.logger.Debug("seeded namespace", "namespace", string(ns))
	return nil
}

func (s *Store) write(ns Namespace, suffix string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", suffix, err)
	}
	return s.medium.Set(ns.key(suffix), string(data))
}

// readList decodes the list under suffix. Missing or corrupt values yield fallback.
func readList[T any](s *Store, ns Namespace, suffix string, fallback []T) ([]T, error) {
	raw, ok, err := s.medium.Get(ns.key(suffix))
	if err != nil {
		return nil, err
	}
	if !ok {
		return fallback, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("discarding corrupt list", "namespace", string(ns), "key", suffix, "error", err)
		return fallback, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// seededList seeds the namespace, then reads the list under suffix.
func seededList[T any](s *Store, ns Namespace, suffix string, fallback []T) ([]T, error) {
	if err := s.ensureSeeded(ns); err != nil {
		return nil, err
	}
	return readList(s, ns, suffix, fallback)
}

// appendList reads, appends (or prepends when newestFirst) and rewrites the list.
func appendList[T any](s *Store, ns Namespace, suffix string, fallback []T, item T, newestFirst bool) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := seededList(s, ns, suffix, fallback)
	if err != nil {
		return nil, err
	}

	updated := make([]T, 0, len(current)+1)
	if newestFirst {
		updated = append(updated, item)
		updated = append(updated, current...)
	} else {
		updated = append(updated, current...)
		updated = append(updated, item)
	}

	if err := s.write(ns, suffix, updated); err != nil {
		return nil, err
	}
	return updated, nil
}
