package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/clarus/internal/database"
	"github.com/dukerupert/clarus/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// forEachMedium runs fn against the in-memory and the SQLite medium.
func forEachMedium(t *testing.T, fn func(t *testing.T, s *Store, m Medium)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		m := NewMemoryMedium()
		fn(t, New(m, quietLogger()), m)
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := database.Open(database.MemoryPath)
		if err != nil {
			t.Fatalf("open test db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		m := NewSQLiteMedium(db)
		fn(t, New(m, quietLogger()), m)
	})
}

func TestNamespaceFor(t *testing.T) {
	if got := NamespaceFor(nil); got != Guest {
		t.Errorf("NamespaceFor(nil) = %q, want %q", got, Guest)
	}
	if got := NamespaceFor(&model.User{ID: "u1"}); got != "u1" {
		t.Errorf("NamespaceFor(u1) = %q, want u1", got)
	}
	if got := Namespace("u1").key(suffixChat); got != "clarus_u1_chat" {
		t.Errorf("key = %q, want clarus_u1_chat", got)
	}
}

func TestSeedOnFirstRead(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		members, err := s.FamilyMembers("u1")
		if err != nil {
			t.Fatalf("family members: %v", err)
		}
		if len(members) != 1 || members[0].ID != "user_default" {
			t.Fatalf("members = %+v, want sample member", members)
		}
		if members[0].Allergies[0] != "Penicillin" {
			t.Errorf("allergies = %v, want [Penicillin]", members[0].Allergies)
		}

		chat, err := s.ChatHistory("u1")
		if err != nil {
			t.Fatalf("chat: %v", err)
		}
		if len(chat) != 2 || chat[1].IsRisk != model.RiskModerate {
			t.Errorf("chat = %+v, want two sample messages", chat)
		}

		for _, suffix := range []string{suffixReports, suffixMedications, suffixCareTeam, suffixNotes} {
			v, ok, _ := m.Get(Namespace("u1").key(suffix))
			if !ok || v != "[]" {
				t.Errorf("%s = %q (present=%v), want []", suffix, v, ok)
			}
		}
		if v, _, _ := m.Get(Namespace("u1").key(suffixInit)); v != "true" {
			t.Errorf("init marker = %q, want true", v)
		}
	})
}

func TestEnsureSeededIdempotent(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		ns := Namespace("u1")
		if err := s.EnsureSeeded(ns); err != nil {
			t.Fatalf("seed: %v", err)
		}
		first, _ := s.Snapshot(ns)

		if err := s.EnsureSeeded(ns); err != nil {
			t.Fatalf("seed again: %v", err)
		}
		second, _ := s.Snapshot(ns)

		if len(first) != len(second) {
			t.Fatalf("snapshot sizes differ: %d vs %d", len(first), len(second))
		}
		for k, v := range first {
			if second[k] != v {
				t.Errorf("%s changed after second seed", k)
			}
		}
	})
}

func TestSeedDoesNotOverwriteData(t *testing.T) {
	s := New(NewMemoryMedium(), quietLogger())
	ns := Namespace("u1")
	if _, err := s.AddFamilyMember(ns, model.FamilyMember{ID: "m1", Name: "Alex"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.EnsureSeeded(ns); err != nil {
		t.Fatalf("seed: %v", err)
	}
	members, _ := s.FamilyMembers(ns)
	if len(members) != 2 {
		t.Errorf("len = %d, want 2 (sample + added)", len(members))
	}
}

func TestAppendOrder(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		ns := Namespace("u1")
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("c%d", i)
			team, err := s.AddCaregiver(ns, model.Caregiver{ID: id})
			if err != nil {
				t.Fatalf("add caregiver: %v", err)
			}
			if team[len(team)-1].ID != id {
				t.Errorf("returned list tail = %q, want %q", team[len(team)-1].ID, id)
			}
		}
		team, _ := s.CareTeam(ns)
		for i, c := range team {
			if want := fmt.Sprintf("c%d", i); c.ID != want {
				t.Errorf("team[%d] = %q, want %q", i, c.ID, want)
			}
		}
	})
}

func TestAppendChatMessages(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		ns := Namespace("u1")
		if err := s.SaveChatHistory(ns, []model.ChatMessage{{ID: "a"}}); err != nil {
			t.Fatalf("save: %v", err)
		}
		history, err := s.AppendChatMessages(ns, model.ChatMessage{ID: "b"}, model.ChatMessage{ID: "c"})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		stored, _ := s.ChatHistory(ns)
		for _, got := range [][]model.ChatMessage{history, stored} {
			if len(got) != 3 || got[0].ID != "a" || got[2].ID != "c" {
				t.Errorf("history = %+v, want a b c", got)
			}
		}
	})
}

func TestNewestFirstLists(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		ns := Namespace("u1")
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("%d", i)
			if _, err := s.AddReport(ns, model.MedicalReport{ID: "r" + id, MemberID: "m1"}); err != nil {
				t.Fatalf("add report: %v", err)
			}
			if _, err := s.AddSharedNote(ns, model.SharedNote{ID: "n" + id}); err != nil {
				t.Fatalf("add note: %v", err)
			}
			if _, err := s.AddWellnessLog(ns, model.WellnessSession{ID: "w" + id, Points: 5}); err != nil {
				t.Fatalf("add wellness: %v", err)
			}
		}

		reports, _ := s.Reports(ns, "")
		notes, _ := s.SharedNotes(ns)
		logs, _ := s.WellnessLogs(ns)
		for i := 0; i < 3; i++ {
			want := fmt.Sprintf("%d", 2-i)
			if reports[i].ID != "r"+want {
				t.Errorf("reports[%d] = %q, want r%s", i, reports[i].ID, want)
			}
			if notes[i].ID != "n"+want {
				t.Errorf("notes[%d] = %q, want n%s", i, notes[i].ID, want)
			}
			if logs[i].ID != "w"+want {
				t.Errorf("logs[%d] = %q, want w%s", i, logs[i].ID, want)
			}
		}
	})
}

func TestMedicationsByMember(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		ns := Namespace("u1")
		if _, err := s.AddFamilyMember(ns, model.FamilyMember{ID: "m1", Name: "Alex"}); err != nil {
			t.Fatalf("add member: %v", err)
		}
		if _, err := s.AddMedication(ns, model.Medication{ID: "x1", MemberID: "m1", Name: "Metformin", Timing: "1-0-1"}); err != nil {
			t.Fatalf("add medication: %v", err)
		}

		meds, err := s.Medications(ns, "m1")
		if err != nil {
			t.Fatalf("medications: %v", err)
		}
		if len(meds) != 1 || meds[0].ID != "x1" || meds[0].Name != "Metformin" {
			t.Errorf("medications(m1) = %+v, want [x1]", meds)
		}

		other, _ := s.Medications(ns, "other")
		if other == nil || len(other) != 0 {
			t.Errorf("medications(other) = %#v, want empty non-nil slice", other)
		}
	})
}

func TestMedicationLogs(t *testing.T) {
	s := New(NewMemoryMedium(), quietLogger())
	ns := Namespace("u1")
	s.AddMedicationLog(ns, model.MedicationLog{ID: "l1", MedicationID: "x1", Date: "2026-01-02", Status: model.DoseTaken})
	s.AddMedicationLog(ns, model.MedicationLog{ID: "l2", MedicationID: "x2", Date: "2026-01-02", Status: model.DoseSkipped})

	logs, err := s.MedicationLogs(ns, "x1")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "l1" {
		t.Errorf("logs(x1) = %+v, want [l1]", logs)
	}
	all, _ := s.MedicationLogs(ns, "")
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}
}

func TestUpdateFamilyMember(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		ns := Namespace("u1")
		s.AddFamilyMember(ns, model.FamilyMember{ID: "m1", Name: "Alex", Relation: "Child", Color: "bg-red"})

		name := "Alexandra"
		allergies := []string{"Peanuts"}
		members, err := s.UpdateFamilyMember(ns, "m1", model.FamilyMemberUpdate{Name: &name, Allergies: &allergies})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		got := members[1]
		if got.Name != "Alexandra" || got.Relation != "Child" || got.Color != "bg-red" {
			t.Errorf("member = %+v, want merged name with untouched relation/color", got)
		}
		if len(got.Allergies) != 1 || got.Allergies[0] != "Peanuts" {
			t.Errorf("allergies = %v, want [Peanuts]", got.Allergies)
		}

		before, _ := s.FamilyMembers(ns)
		after, err := s.UpdateFamilyMember(ns, "missing", model.FamilyMemberUpdate{Name: &name})
		if err != nil {
			t.Fatalf("update missing: %v", err)
		}
		if len(after) != len(before) || after[0].Name != before[0].Name || after[1].Name != before[1].Name {
			t.Errorf("unknown id changed list: %+v -> %+v", before, after)
		}
	})
}

func TestCalmPointsMatchesLog(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		ns := Namespace("u1")
		points, err := s.CalmPoints(ns)
		if err != nil || points != 0 {
			t.Fatalf("initial points = %d (%v), want 0", points, err)
		}

		want := 0
		for i, p := range []int{10, 5, 20, 0, 15} {
			s.AddWellnessLog(ns, model.WellnessSession{ID: fmt.Sprintf("w%d", i), Type: model.WellnessBreathing, Points: p})
			want += p
			got, err := s.CalmPoints(ns)
			if err != nil {
				t.Fatalf("points: %v", err)
			}
			if got != want {
				t.Errorf("after %d sessions points = %d, want %d", i+1, got, want)
			}
		}
	})
}

func TestNamespaceIsolation(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		s.AddFamilyMember("alice", model.FamilyMember{ID: "a1", Name: "Alice's kid"})
		s.AddFamilyMember("bob", model.FamilyMember{ID: "b1", Name: "Bob's kid"})

		for ns, forbidden := range map[Namespace]string{"alice": "b1", "bob": "a1", Guest: "a1"} {
			members, err := s.FamilyMembers(ns)
			if err != nil {
				t.Fatalf("members(%s): %v", ns, err)
			}
			for _, mem := range members {
				if mem.ID == forbidden {
					t.Errorf("namespace %q sees %q", ns, forbidden)
				}
			}
		}
	})
}

func TestClearAll(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		s.AddWellnessLog("a", model.WellnessSession{ID: "w1", Points: 3})
		s.AddWellnessLog("a_b", model.WellnessSession{ID: "w2", Points: 4})
		s.AddWellnessLog(Guest, model.WellnessSession{ID: "w3", Points: 5})
		s.CompleteOnboarding("a")

		if err := s.ClearAll("a"); err != nil {
			t.Fatalf("clear: %v", err)
		}

		keys, _ := m.Keys(Namespace("a").key(""))
		for _, k := range keys {
			if suffix := k[len(Namespace("a").Prefix()):]; knownSuffixes[suffix] {
				t.Errorf("key %q survived ClearAll", k)
			}
		}
		if p, _ := s.CalmPoints("a_b"); p != 4 {
			t.Errorf("namespace a_b points = %d, want 4", p)
		}
		if seen, _ := s.HasSeenOnboarding("a"); seen {
			t.Error("onboarding flag should be cleared")
		}

		if err := s.ClearAll(Guest); err != nil {
			t.Fatalf("clear guest: %v", err)
		}
		if p, _ := s.CalmPoints(Guest); p != 5 {
			t.Errorf("guest points = %d, want 5 (ClearAll must not touch guest)", p)
		}
	})
}

func TestCorruptDataReadsAsEmpty(t *testing.T) {
	forEachMedium(t, func(t *testing.T, s *Store, m Medium) {
		ns := Namespace("u1")
		s.EnsureSeeded(ns)
		m.Set(ns.key(suffixMedications), "{not json")
		m.Set(ns.key(suffixFamily), "[[[")

		meds, err := s.Medications(ns, "")
		if err != nil {
			t.Fatalf("medications: %v", err)
		}
		if len(meds) != 0 {
			t.Errorf("medications = %+v, want empty", meds)
		}
		members, err := s.FamilyMembers(ns)
		if err != nil {
			t.Fatalf("members: %v", err)
		}
		if len(members) != 1 || members[0].ID != "user_default" {
			t.Errorf("members = %+v, want sample default", members)
		}
	})
}

func TestOnboardingFlag(t *testing.T) {
	s := New(NewMemoryMedium(), quietLogger())
	if seen, _ := s.HasSeenOnboarding("u1"); seen {
		t.Fatal("fresh namespace should not have seen onboarding")
	}
	if err := s.CompleteOnboarding("u1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if seen, _ := s.HasSeenOnboarding("u1"); !seen {
		t.Error("expected onboarding seen")
	}
	if seen, _ := s.HasSeenOnboarding("u2"); seen {
		t.Error("flag leaked into another namespace")
	}
}

func TestOnboardingWaitsForStoreLock(t *testing.T) {
	m := NewMemoryMedium()
	s := New(m, quietLogger())

	s.mu.Lock()
	done := make(chan error, 1)
	go func() { done <- s.CompleteOnboarding("u1") }()

	select {
	case <-done:
		t.Fatal("CompleteOnboarding ran while the store was locked")
	case <-time.After(50 * time.Millisecond):
	}
	if _, ok, _ := m.Get(Namespace("u1").key(suffixOnboarding)); ok {
		t.Error("flag written while the store was locked")
	}
	s.mu.Unlock()

	if err := <-done; err != nil {
		t.Fatalf("complete: %v", err)
	}
	if seen, _ := s.HasSeenOnboarding("u1"); !seen {
		t.Error("expected onboarding seen")
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := New(NewMemoryMedium(), quietLogger())
	s.AddWellnessLog("u1", model.WellnessSession{ID: "w1", Points: 7})
	s.CompleteOnboarding("u1")

	snap, err := s.Snapshot("u1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	s.AddWellnessLog("u1", model.WellnessSession{ID: "w2", Points: 100})
	if err := s.Restore("u1", snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if p, _ := s.CalmPoints("u1"); p != 7 {
		t.Errorf("points after restore = %d, want 7", p)
	}
	if seen, _ := s.HasSeenOnboarding("u1"); !seen {
		t.Error("onboarding flag should be restored")
	}

	if err := s.Restore("u1", map[string]string{"bogus": "x"}); err == nil {
		t.Error("expected error for unknown snapshot key")
	}
	if err := s.Restore(Guest, snap); err == nil {
		t.Error("expected error restoring into guest")
	}
}

type failingMedium struct{ Medium }

var errQuota = errors.New("quota exceeded")

func (failingMedium) Set(string, string) error { return errQuota }

func TestMediumErrorsPropagate(t *testing.T) {
	s := New(failingMedium{NewMemoryMedium()}, quietLogger())
	_, err := s.AddCaregiver("u1", model.Caregiver{ID: "c1"})
	if !errors.Is(err, errQuota) {
		t.Errorf("err = %v, want quota error", err)
	}
	if err := s.CompleteOnboarding("u1"); !errors.Is(err, errQuota) {
		t.Errorf("err = %v, want quota error", err)
	}
}
