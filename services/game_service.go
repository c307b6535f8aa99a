package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/wfunc/avalon/avalon"
	"github.com/wfunc/avalon/broadcast"
	"github.com/wfunc/avalon/logger"
	"github.com/wfunc/avalon/models"
	"github.com/wfunc/avalon/monitor"
	"github.com/wfunc/avalon/network"
	"github.com/wfunc/avalon/persistence"
)

const gameName = "Avalon"

// GameService owns the single live table. Every mutating call runs under
// one mutex: transitions read and conditionally write several fields
// (captain cursor, phase, tallies) and must never interleave. The lock is
// always released through defer so a panicking transition cannot wedge the
// table. Result recording and sync pushes happen after the transition has
// committed and can never roll it back.
type GameService struct {
	mu     sync.Mutex
	engine *avalon.Engine
	game   *avalon.Game

	store  persistence.Store
	caster broadcast.Broadcaster
	mon    *monitor.Monitor
}

// NewGameService wires the coordinator. store, caster and mon may each be
// nil; the game runs fine without persistence, push or metrics.
func NewGameService(engine *avalon.Engine, store persistence.Store, caster broadcast.Broadcaster, mon *monitor.Monitor) *GameService {
	return &GameService{
		engine: engine,
		game:   avalon.NewGame(),
		store:  store,
		caster: caster,
		mon:    mon,
	}
}

// LobbyInfo is the public lobby view; it carries no hidden information.
type LobbyInfo struct {
	Status            avalon.Phase `json:"status"`
	CurrentCount      int          `json:"current_count"`
	TargetCount       int          `json:"target_count"`
	Players           []string     `json:"players"`
	PreviousPlayers   []string     `json:"previous_players"`
	ExcaliburEnabled  bool         `json:"excalibur_enabled"`
	LancelotEnabled   bool         `json:"lancelot_enabled"`
	LadyOfLakeEnabled bool         `json:"lady_of_lake_enabled"`
}

// locked runs fn under the table mutex, releasing it even if fn panics.
func (s *GameService) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *GameService) Reset(seatTarget int, lancelot, excalibur, ladyOfLake bool) []string {
	defer s.track(time.Now())
	var previous []string
	s.locked(func() {
		previous = s.engine.Reset(s.game, seatTarget, lancelot, excalibur, ladyOfLake)
	})

	s.notifyChanged()
	return previous
}

func (s *GameService) Clear() []string {
	defer s.track(time.Now())
	var previous []string
	s.locked(func() {
		previous = s.engine.Clear(s.game)
	})

	s.notifyChanged()
	return previous
}

func (s *GameService) ForceEnd() error {
	defer s.track(time.Now())
	var err error
	s.locked(func() {
		err = s.engine.ForceEnd(s.game)
	})

	if err == nil {
		s.notifyChanged()
	}
	return err
}

func (s *GameService) Lobby() LobbyInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return LobbyInfo{
		Status:            s.game.Phase,
		CurrentCount:      len(s.game.Players),
		TargetCount:       s.game.TargetCount,
		Players:           s.game.PlayerNames(),
		PreviousPlayers:   s.game.PreviousPlayers,
		ExcaliburEnabled:  s.game.ExcaliburEnabled,
		LancelotEnabled:   s.game.LancelotEnabled,
		LadyOfLakeEnabled: s.game.LadyOfLakeEnabled,
	}
}

func (s *GameService) Join(name string) (rejoined bool, err error) {
	defer s.track(time.Now())
	s.locked(func() {
		rejoined, err = s.engine.Join(s.game, name)
	})

	if err == nil {
		s.notifyChanged()
	}
	return rejoined, err
}

func (s *GameService) ProposeTeam(team []string, proposerName string) (required int, err error) {
	defer s.track(time.Now())
	s.locked(func() {
		required, err = s.engine.ProposeTeam(s.game, team, proposerName)
	})

	if err == nil {
		s.notifyChanged()
	}
	return required, err
}

func (s *GameService) VoteTeam(name, vote string) {
	defer s.track(time.Now())
	var winner string
	s.locked(func() {
		if s.engine.VoteTeam(s.game, name, vote) == avalon.OutcomeEvil {
			winner = avalon.WinnerEvil
		}
	})

	if winner != "" {
		s.recordResults(winner)
	}
	s.notifyChanged()
}

func (s *GameService) VoteMission(name, action string) {
	defer s.track(time.Now())
	var winner string
	s.locked(func() {
		needResolve, _ := s.engine.VoteMission(s.game, name, action)
		if needResolve {
			if s.engine.ResolveMission(s.game).GameEnd == avalon.OutcomeEvil {
				winner = avalon.WinnerEvil
			}
		}
	})

	if winner != "" {
		s.recordResults(winner)
	}
	s.notifyChanged()
}

func (s *GameService) AssignExcalibur(target string) error {
	defer s.track(time.Now())
	var err error
	s.locked(func() {
		err = s.engine.AssignExcalibur(s.game, target)
	})

	if err == nil {
		s.notifyChanged()
	}
	return err
}

// UseExcalibur applies (or skips) the flip and immediately resolves the
// round, mirroring how the decision always finalizes the mission.
func (s *GameService) UseExcalibur(target string) (*avalon.ExcaliburResult, error) {
	defer s.track(time.Now())
	var (
		result *avalon.ExcaliburResult
		winner string
		err    error
	)
	s.locked(func() {
		if err = s.engine.UseExcalibur(s.game, target); err != nil {
			return
		}
		result = s.game.ExcaliburResult
		if s.engine.ResolveMission(s.game).GameEnd == avalon.OutcomeEvil {
			winner = avalon.WinnerEvil
		}
	})
	if err != nil {
		return nil, err
	}

	if winner != "" {
		s.recordResults(winner)
	}
	s.notifyChanged()
	return result, nil
}

func (s *GameService) InspectLadyOfLake(target string) (alignment string, err error) {
	defer s.track(time.Now())
	s.locked(func() {
		alignment, _, err = s.engine.InspectLadyOfLake(s.game, target)
	})

	if err == nil {
		s.notifyChanged()
	}
	return alignment, err
}

func (s *GameService) Assassinate(target string) (winner string, err error) {
	defer s.track(time.Now())
	s.locked(func() {
		winner, err = s.engine.Assassinate(s.game, target)
	})

	if err != nil {
		return "", err
	}
	s.recordResults(winner)
	s.notifyChanged()
	return winner, nil
}

// RecordVoteFail bumps the rejection counter by hand, for table-talk
// corrections. No end-game check runs here.
func (s *GameService) RecordVoteFail() (count int) {
	defer s.track(time.Now())
	s.locked(func() {
		s.game.VoteFailCount++
		count = s.game.VoteFailCount
	})

	s.notifyChanged()
	return count
}

// Status projects the table for one viewer. It takes the same lock as the
// mutations so the snapshot is always consistent.
func (s *GameService) Status(viewerName string) avalon.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.BuildStatus(s.game, viewerName)
}

func (s *GameService) Leaderboard() ([]models.LeaderboardEntry, error) {
	if s.store == nil {
		return []models.LeaderboardEntry{}, nil
	}
	return s.store.Leaderboard(gameName)
}

// recordResults hands the finalized win list to the store. Failures are
// logged and swallowed: a dead database must never undo a committed game.
func (s *GameService) recordResults(winner string) {
	var results []avalon.PlayerResult
	s.locked(func() {
		results = s.engine.Results(s.game, winner)
	})

	if s.mon != nil {
		s.mon.IncGamesFinished()
	}
	if s.caster != nil {
		data, _ := json.Marshal(map[string]string{"winner": winner})
		s.caster.BroadcastToAll(network.MsgTypeGameEnd, data)
	}
	if s.store == nil {
		return
	}
	for _, r := range results {
		if err := s.store.RecordResult(gameName, r.Name, r.Winner, 0); err != nil {
			logger.Log.Errorf("Failed to record result for %s: %v", r.Name, err)
		}
	}
}

// notifyChanged tells every connected phone to re-fetch its status view.
func (s *GameService) notifyChanged() {
	if s.caster == nil {
		return
	}
	var phase avalon.Phase
	s.locked(func() {
		phase = s.game.Phase
	})

	data, _ := json.Marshal(map[string]string{"status": string(phase)})
	s.caster.BroadcastToAll(network.MsgTypeStateSync, data)
}

func (s *GameService) track(start time.Time) {
	if s.mon == nil {
		return
	}
	s.mon.IncActions()
	s.mon.ObserveActionLatency(time.Since(start))
}
