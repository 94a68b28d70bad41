package store

import (
	"errors"
	"testing"
	"time"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/models"
)

func TestStateDefaultsToWaiting(t *testing.T) {
	s := NewMemory()
	state, err := s.State()
	if err != nil {
		t.Fatalf("State() error: %v", err)
	}
	if state.Status != models.StatusWaiting || state.CurrentRound != 0 {
		t.Errorf("initial state = %+v", state)
	}
}

func TestTeamsOrderedByRegistration(t *testing.T) {
	s := NewMemory()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"gamma", "alpha", "beta"} {
		err := s.SaveTeam(models.Team{
			ID:           name,
			Name:         name,
			Endpoint:     "http://agents.local/" + name,
			RegisteredAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SaveTeam(%s): %v", name, err)
		}
	}

	teams, err := s.Teams()
	if err != nil {
		t.Fatalf("Teams(): %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("got %d teams", len(teams))
	}
	for i, want := range []string{"gamma", "alpha", "beta"} {
		if teams[i].Name != want {
			t.Errorf("teams[%d] = %s, want %s", i, teams[i].Name, want)
		}
	}
}

func TestSaveTeamRequiresID(t *testing.T) {
	s := NewMemory()
	if err := s.SaveTeam(models.Team{Name: "nameless"}); err == nil {
		t.Error("SaveTeam without id should fail")
	}
}

func TestMatchRoundTrip(t *testing.T) {
	s := NewMemory()
	m := &models.MatchRecord{
		ID:         "m-1",
		RoundIndex: 2,
		TeamAID:    "a",
		TeamBID:    "b",
		Status:     models.MatchScheduled,
		BankMsA:    240000,
		BankMsB:    240000,
	}
	if err := s.SaveMatch(m); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}

	got, err := s.Match("m-1")
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if got.RoundIndex != 2 || got.BankMsA != 240000 || got.Status != models.MatchScheduled {
		t.Errorf("round-tripped match = %+v", got)
	}

	if _, err := s.Match("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing match error = %v, want ErrNotFound", err)
	}
}

func TestSaveMatchIsIdempotentAndLastWriterWins(t *testing.T) {
	s := NewMemory()
	m := &models.MatchRecord{ID: "m-1", Status: models.MatchScheduled}
	for i := 0; i < 3; i++ {
		if err := s.SaveMatch(m); err != nil {
			t.Fatalf("SaveMatch replay %d: %v", i, err)
		}
	}

	m.Status = models.MatchFinished
	m.PointsA, m.PointsB = 3, 1
	if err := s.SaveMatch(m); err != nil {
		t.Fatalf("SaveMatch update: %v", err)
	}

	matches, err := s.Matches()
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("replayed writes produced %d records, want 1", len(matches))
	}
	if matches[0].Status != models.MatchFinished || matches[0].PointsA != 3 {
		t.Errorf("last write lost: %+v", matches[0])
	}
}

func TestMatchesSortedByRound(t *testing.T) {
	s := NewMemory()
	for _, m := range []*models.MatchRecord{
		{ID: "z", RoundIndex: 3},
		{ID: "a", RoundIndex: 1},
		{ID: "n", RoundIndex: 1},
	} {
		if err := s.SaveMatch(m); err != nil {
			t.Fatal(err)
		}
	}
	matches, err := s.Matches()
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	want := []string{"a", "n", "z"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}

func TestScheduleRoundTripAndReset(t *testing.T) {
	s := NewMemory()

	sched, err := s.Schedule()
	if err != nil || sched != nil {
		t.Fatalf("empty store Schedule() = %v, %v", sched, err)
	}

	if err := s.SaveSchedule(&models.Schedule{Rounds: []models.Round{
		{Index: 1, MatchIDs: []string{"m-1"}},
	}}); err != nil {
		t.Fatalf("SaveSchedule: %v", err)
	}
	if err := s.SaveTeam(models.Team{ID: "t1", Name: "one"}); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	sched, err = s.Schedule()
	if err != nil || sched != nil {
		t.Errorf("Schedule after reset = %v, %v", sched, err)
	}
	teams, err := s.Teams()
	if err != nil || len(teams) != 0 {
		t.Errorf("Teams after reset = %v, %v", teams, err)
	}
	state, err := s.State()
	if err != nil || state.Status != models.StatusWaiting {
		t.Errorf("State after reset = %+v, %v", state, err)
	}
}
