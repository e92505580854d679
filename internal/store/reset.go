package store

import (
	"fmt"
	"strings"
)

var knownSuffixes = map[string]bool{
	suffixChat:        true,
	suffixReports:     true,
	suffixFamily:      true,
	suffixMedications: true,
	suffixMedLogs:     true,
	suffixCareTeam:    true,
	suffixNotes:       true,
	suffixWellness:    true,
	suffixInit:        true,
	suffixOnboarding:  true,
}

// namespaceKeys lists the stored keys that belong to ns, keyed by suffix.
// Keys of a longer namespace sharing the prefix (user "a" vs "a_b") are
// skipped because their remainder is not a known suffix.
func (s *Store) namespaceKeys(ns Namespace) (map[string]string, error) {
	keys, err := s.medium.Keys(ns.Prefix())
	if err != nil {
		return nil, err
	}
	owned := make(map[string]string)
	for _, k := range keys {
		suffix := strings.TrimPrefix(k, ns.Prefix())
		if knownSuffixes[suffix] {
			owned[suffix] = k
		}
	}
	return owned, nil
}

// ClearAll deletes every key in ns. It does nothing for the Guest namespace.
func (s *Store) ClearAll(ns Namespace) error {
	if ns == Guest || ns == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearAll(ns)
}

func (s *Store) clearAll(ns Namespace) error {
	owned, err := s.namespaceKeys(ns)
	if err != nil {
		return fmt.Errorf("clear namespace: %w", err)
	}
	for _, k := range owned {
		if err := s.medium.Remove(k); err != nil {
			return fmt.Errorf("clear namespace: %w", err)
		}
	}
	s.logger.Info("cleared namespace", "namespace", string(ns), "keys", len(owned))
	return nil
}

// Snapshot returns the raw stored values of ns keyed by suffix.
func (s *Store) Snapshot(ns Namespace) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned, err := s.namespaceKeys(ns)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	snap := make(map[string]string, len(owned))
	for suffix, k := range owned {
		v, ok, err := s.medium.Get(k)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
		if ok {
			snap[suffix] = v
		}
	}
	return snap, nil
}

// Restore replaces the content of ns with a snapshot. Unknown suffixes are rejected
// before anything is deleted.
func (s *Store) Restore(ns Namespace, snap map[string]string) error {
	if ns == Guest || ns == "" {
		return fmt.Errorf("restore: guest namespace cannot be restored")
	}
	for suffix := range snap {
		if !knownSuffixes[suffix] {
			return fmt.Errorf("restore: unknown key %q", suffix)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearAll(ns); err != nil {
		return err
	}
	for suffix, value := range snap {
		if err := s.medium.Set(ns.key(suffix), value); err != nil {
			return fmt.Errorf("restore %s: %w", suffix, err)
		}
	}
	return nil
}
