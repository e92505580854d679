package store

import (
	"fmt"

	"github.com/dukerupert/clarus/internal/model"
)

// Medications returns all medications, or only memberID's when it is non-empty.
func (s *Store) Medications(ns Namespace, memberID string) ([]model.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meds, err := seededList(s, ns, suffixMedications, []model.Medication{})
	if err != nil {
		return nil, fmt.Errorf("get medications: %w", err)
	}
	if memberID == "" {
		return meds, nil
	}
	filtered := []model.Medication{}
	for _, m := range meds {
		if m.MemberID == memberID {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func (s *Store) AddMedication(ns Namespace, med model.Medication) ([]model.Medication, error) {
	meds, err := appendList(s, ns, suffixMedications, []model.Medication{}, med, false)
	if err != nil {
		return nil, fmt.Errorf("add medication: %w", err)
	}
	return meds, nil
}

// MedicationLogs returns dose logs, filtered to medicationID when non-empty.
func (s *Store) MedicationLogs(ns Namespace, medicationID string) ([]model.MedicationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs, err := seededList(s, ns, suffixMedLogs, []model.MedicationLog{})
	if err != nil {
		return nil, fmt.Errorf("get medication logs: %w", err)
	}
	if medicationID == "" {
		return logs, nil
	}
	filtered := []model.MedicationLog{}
	for _, l := range logs {
		if l.MedicationID == medicationID {
			filtered = append(filtered, l)
		}
	}
	return filtered, nil
}

func (s *Store) AddMedicationLog(ns Namespace, l model.MedicationLog) ([]model.MedicationLog, error) {
	logs, err := appendList(s, ns, suffixMedLogs, []model.MedicationLog{}, l, false)
	if err != nil {
		return nil, fmt.Errorf("add medication log: %w", err)
	}
	return logs, nil
}
