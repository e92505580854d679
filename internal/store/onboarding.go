package store

import "fmt"

func (s *Store) HasSeenOnboarding(ns Namespace) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, _, err := s.medium.Get(ns.key(suffixOnboarding))
	if err != nil {
		return false, fmt.Errorf("get onboarding flag: %w", err)
	}
	return v == "true", nil
}

func (s *Store) CompleteOnboarding(ns Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.medium.Set(ns.key(suffixOnboarding), "true"); err != nil {
		return fmt.Errorf("set onboarding flag: %w", err)
	}
	return nil
}
