package store

import (
	"fmt"

	"github.com/dukerupert/clarus/internal/model"
)

// FamilyMembers returns the namespace's members, or the sample member when
// nothing readable is stored.
func (s *Store) FamilyMembers(ns Namespace) ([]model.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, err := seededList(s, ns, suffixFamily, defaultMembers())
	if err != nil {
		return nil, fmt.Errorf("get family members: %w", err)
	}
	return members, nil
}

func (s *Store) SaveFamilyMembers(ns Namespace, members []model.FamilyMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if members == nil {
		members = []model.FamilyMember{}
	}
	if err := s.write(ns, suffixFamily, members); err != nil {
		return fmt.Errorf("save family members: %w", err)
	}
	return nil
}

func (s *Store) AddFamilyMember(ns Namespace, m model.FamilyMember) ([]model.FamilyMember, error) {
	members, err := appendList(s, ns, suffixFamily, defaultMembers(), m, false)
	if err != nil {
		return nil, fmt.Errorf("add family member: %w", err)
	}
	return members, nil
}

// UpdateFamilyMember merges u into the member with the given id and rewrites
// the list. An unknown id leaves the list unchanged.
func (s *Store) UpdateFamilyMember(ns Namespace, id string, u model.FamilyMemberUpdate) ([]model.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, err := seededList(s, ns, suffixFamily, defaultMembers())
	if err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}

	for i, m := range members {
		if m.ID == id {
			members[i] = u.Apply(m)
		}
	}

	if err := s.write(ns, suffixFamily, members); err != nil {
		return nil, fmt.Errorf("update family member: %w", err)
	}
	return members, nil
}

// FamilyMember returns the member with the given id, or nil.
func (s *Store) FamilyMember(ns Namespace, id string) (*model.FamilyMember, error) {
	members, err := s.FamilyMembers(ns)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}
