package store

import (
	"fmt"

	"github.com/dukerupert/clarus/internal/model"
)

func (s *Store) CareTeam(ns Namespace) ([]model.Caregiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, err := seededList(s, ns, suffixCareTeam, []model.Caregiver{})
	if err != nil {
		return nil, fmt.Errorf("get care team: %w", err)
	}
	return team, nil
}

func (s *Store) AddCaregiver(ns Namespace, c model.Caregiver) ([]model.Caregiver, error) {
	team, err := appendList(s, ns, suffixCareTeam, []model.Caregiver{}, c, false)
	if err != nil {
		return nil, fmt.Errorf("add caregiver: %w", err)
	}
	return team, nil
}

// SharedNotes returns notes newest first.
func (s *Store) SharedNotes(ns Namespace) ([]model.SharedNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes, err := seededList(s, ns, suffixNotes, []model.SharedNote{})
	if err != nil {
		return nil, fmt.Errorf("get shared notes: %w", err)
	}
	return notes, nil
}

func (s *Store) AddSharedNote(ns Namespace, n model.SharedNote) ([]model.SharedNote, error) {
	notes, err := appendList(s, ns, suffixNotes, []model.SharedNote{}, n, true)
	if err != nil {
		return nil, fmt.Errorf("add shared note: %w", err)
	}
	return notes, nil
}
