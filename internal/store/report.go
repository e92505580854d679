package store

import (
	"fmt"

	"github.com/dukerupert/clarus/internal/model"
)

// Reports returns reports newest first, filtered to memberID when non-empty.
func (s *Store) Reports(ns Namespace, memberID string) ([]model.MedicalReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reports, err := seededList(s, ns, suffixReports, []model.MedicalReport{})
	if err != nil {
		return nil, fmt.Errorf("get reports: %w", err)
	}
	if memberID == "" {
		return reports, nil
	}
	filtered := []model.MedicalReport{}
	for _, r := range reports {
		if r.MemberID == memberID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// AddReport prepends r and returns the full list.
func (s *Store) AddReport(ns Namespace, r model.MedicalReport) ([]model.MedicalReport, error) {
	reports, err := appendList(s, ns, suffixReports, []model.MedicalReport{}, r, true)
	if err != nil {
		return nil, fmt.Errorf("add report: %w", err)
	}
	return reports, nil
}
