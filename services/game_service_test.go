package services

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/wfunc/avalon/avalon"
	"github.com/wfunc/avalon/logger"
	"github.com/wfunc/avalon/models"
)

func init() {
	logger.InitDevelopment()
}

type recordedResult struct {
	GameName   string
	PlayerName string
	IsWinner   bool
}

// fakeStore collects recorded results in memory and can be told to fail.
type fakeStore struct {
	records []recordedResult
	failing bool
}

func (f *fakeStore) RecordResult(gameName, playerName string, isWinner bool, score int) error {
	if f.failing {
		return errors.New("store down")
	}
	f.records = append(f.records, recordedResult{gameName, playerName, isWinner})
	return nil
}

func (f *fakeStore) Leaderboard(gameName string) ([]models.LeaderboardEntry, error) {
	return []models.LeaderboardEntry{}, nil
}

func (f *fakeStore) PlayerStats(gameName, playerName string) (*models.PlayerStats, error) {
	return &models.PlayerStats{}, nil
}

func (f *fakeStore) Close() error { return nil }

func newTestService(store *fakeStore) *GameService {
	engine := avalon.NewEngine(rand.New(rand.NewSource(1)))
	return NewGameService(engine, store, nil, nil)
}

func fillTable(t *testing.T, s *GameService, count int) []string {
	t.Helper()
	s.Reset(count, false, false, false)
	names := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		name := fmt.Sprintf("p%d", i)
		if _, err := s.Join(name); err != nil {
			t.Fatalf("Join(%s): %v", name, err)
		}
		names = append(names, name)
	}
	return names
}

func TestLobbyReflectsTable(t *testing.T) {
	s := newTestService(&fakeStore{})
	s.Reset(5, false, true, false)

	lobby := s.Lobby()
	if lobby.Status != avalon.PhaseJoining {
		t.Fatalf("status = %s, want %s", lobby.Status, avalon.PhaseJoining)
	}
	if lobby.TargetCount != 5 || lobby.CurrentCount != 0 {
		t.Fatalf("counts = %d/%d, want 0/5", lobby.CurrentCount, lobby.TargetCount)
	}
	if !lobby.ExcaliburEnabled || lobby.LancelotEnabled {
		t.Fatalf("modifier flags wrong: %+v", lobby)
	}

	if _, err := s.Join("alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	lobby = s.Lobby()
	if lobby.CurrentCount != 1 || lobby.Players[0] != "alice" {
		t.Fatalf("lobby after join = %+v", lobby)
	}
}

func TestFiveRejectionsRecordsEvilWin(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store)
	names := fillTable(t, s, 5)

	for round := 0; round < 5; round++ {
		snap := s.Status(names[0])
		team := names[:snap.RequiredTeamSize]
		if _, err := s.ProposeTeam(team, snap.Captain); err != nil {
			t.Fatalf("ProposeTeam round %d: %v", round, err)
		}
		for _, n := range names {
			s.VoteTeam(n, avalon.VoteReject)
		}
	}

	snap := s.Status(names[0])
	if snap.Status != avalon.PhaseEnded || snap.GameWinner != avalon.WinnerEvil {
		t.Fatalf("game = %s winner %q, want ended/evil", snap.Status, snap.GameWinner)
	}
	if len(store.records) != 5 {
		t.Fatalf("recorded %d results, want 5", len(store.records))
	}
	winners := 0
	for _, r := range store.records {
		if r.GameName != "Avalon" {
			t.Fatalf("game name = %q", r.GameName)
		}
		if r.IsWinner {
			winners++
		}
	}
	if winners != 2 {
		t.Fatalf("recorded %d winners, want 2 evil players", winners)
	}
}

func TestStoreFailureDoesNotUndoGame(t *testing.T) {
	store := &fakeStore{failing: true}
	s := newTestService(store)
	names := fillTable(t, s, 5)

	for round := 0; round < 5; round++ {
		snap := s.Status(names[0])
		if _, err := s.ProposeTeam(names[:snap.RequiredTeamSize], snap.Captain); err != nil {
			t.Fatalf("ProposeTeam: %v", err)
		}
		for _, n := range names {
			s.VoteTeam(n, avalon.VoteReject)
		}
	}

	snap := s.Status(names[0])
	if snap.Status != avalon.PhaseEnded {
		t.Fatalf("game should end even with a dead store, got %s", snap.Status)
	}
	if len(store.records) != 0 {
		t.Fatalf("failing store recorded %d results", len(store.records))
	}
}

func TestMissionFlowThroughService(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store)
	names := fillTable(t, s, 5)

	for mission := 0; mission < 3; mission++ {
		snap := s.Status(names[0])
		team := []string{}
		for _, n := range names {
			if !avalon.IsEvil(s.Status(n).YourRole) {
				team = append(team, n)
			}
			if len(team) == snap.RequiredTeamSize {
				break
			}
		}
		if _, err := s.ProposeTeam(team, snap.Captain); err != nil {
			t.Fatalf("ProposeTeam mission %d: %v", mission, err)
		}
		for _, n := range names {
			s.VoteTeam(n, avalon.VoteApprove)
		}
		for _, n := range team {
			s.VoteMission(n, avalon.VoteSuccess)
		}
	}

	snap := s.Status(names[0])
	if snap.Status != avalon.PhaseAssassin {
		t.Fatalf("after three successes status = %s, want %s", snap.Status, avalon.PhaseAssassin)
	}
	if len(store.records) != 0 {
		t.Fatalf("results recorded before assassination: %d", len(store.records))
	}

	var merlin string
	for _, n := range names {
		if s.Status(n).YourRole == avalon.RoleMerlin {
			merlin = n
		}
	}
	winner, err := s.Assassinate(merlin)
	if err != nil {
		t.Fatalf("Assassinate: %v", err)
	}
	if winner != avalon.WinnerEvil {
		t.Fatalf("shot merlin, winner = %q", winner)
	}
	if len(store.records) != 5 {
		t.Fatalf("recorded %d results, want 5", len(store.records))
	}
}

func TestLancelotRequestedAtFiveSeatsKeepsServing(t *testing.T) {
	// 5 seats deal no Lancelots even when the module is requested, so no
	// swap deck exists. Resolving missions must keep working and keep the
	// service answering.
	s := newTestService(&fakeStore{})
	s.Reset(5, true, false, false)
	names := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		name := fmt.Sprintf("p%d", i)
		if _, err := s.Join(name); err != nil {
			t.Fatalf("Join(%s): %v", name, err)
		}
		names = append(names, name)
	}

	snap := s.Status(names[0])
	team := names[:snap.RequiredTeamSize]
	if _, err := s.ProposeTeam(team, snap.Captain); err != nil {
		t.Fatalf("ProposeTeam: %v", err)
	}
	for _, n := range names {
		s.VoteTeam(n, avalon.VoteApprove)
	}
	for _, n := range team {
		s.VoteMission(n, avalon.VoteSuccess)
	}

	snap = s.Status(names[0])
	if len(snap.MissionHistory) != 1 {
		t.Fatalf("mission should have resolved, got %d records", len(snap.MissionHistory))
	}
	if snap.LancelotSwapped {
		t.Fatal("no deck means no swap")
	}

	// The table is still responsive: a second proposal goes through.
	if _, err := s.ProposeTeam(names[:snap.RequiredTeamSize], snap.Captain); err != nil {
		t.Fatalf("service stopped serving after the mission: %v", err)
	}
}

func TestRecordVoteFailManualBump(t *testing.T) {
	s := newTestService(&fakeStore{})
	fillTable(t, s, 5)

	if got := s.RecordVoteFail(); got != 1 {
		t.Fatalf("first bump = %d", got)
	}
	if got := s.RecordVoteFail(); got != 2 {
		t.Fatalf("second bump = %d", got)
	}
	snap := s.Status("p1")
	if snap.VoteFailCount != 2 {
		t.Fatalf("status vote_fail_count = %d, want 2", snap.VoteFailCount)
	}
}
