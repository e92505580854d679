package store

import (
	"fmt"

	"github.com/dukerupert/clarus/internal/model"
)

// WellnessLogs returns completed sessions newest first.
func (s *Store) WellnessLogs(ns Namespace) ([]model.WellnessSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs, err := seededList(s, ns, suffixWellness, []model.WellnessSession{})
	if err != nil {
		return nil, fmt.Errorf("get wellness logs: %w", err)
	}
	return logs, nil
}

func (s *Store) AddWellnessLog(ns Namespace, w model.WellnessSession) ([]model.WellnessSession, error) {
	logs, err := appendList(s, ns, suffixWellness, []model.WellnessSession{}, w, true)
	if err != nil {
		return nil, fmt.Errorf("add wellness log: %w", err)
	}
	return logs, nil
}

// CalmPoints sums the points of every stored session. It is never persisted.
func (s *Store) CalmPoints(ns Namespace) (int, error) {
	logs, err := s.WellnessLogs(ns)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, l := range logs {
		total += l.Points
	}
	return total, nil
}
