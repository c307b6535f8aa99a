package avalon

import (
	"fmt"
	"math/rand"
)

// Outcome of an end-game check.
type Outcome string

const (
	// OutcomeNone means the game continues.
	OutcomeNone Outcome = ""
	// OutcomeAssassin means good reached three successes and the evil side
	// gets its assassination shot before a winner is declared.
	OutcomeAssassin Outcome = "assassin"
	// OutcomeEvil means evil won outright (three fails or five rejections).
	OutcomeEvil Outcome = "evil"
)

// Engine applies transitions to a Game. It holds no game state itself, only
// the random source used for role shuffles, captain draws and swap cards.
// The caller is responsible for serializing calls on one Game.
type Engine struct {
	rng *rand.Rand
}

// NewEngine creates an engine around the given random source. Tests pass a
// fixed-seed source to get deterministic deals.
func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// Reset wipes the table for a new game and returns the roster of the
// previous one.
func (e *Engine) Reset(g *Game, seatTarget int, lancelot, excalibur, ladyOfLake bool) []string {
	previous := g.PlayerNames()
	*g = *NewGame()
	g.TargetCount = seatTarget
	g.LancelotEnabled = lancelot
	g.ExcaliburEnabled = excalibur
	g.LadyOfLakeEnabled = ladyOfLake
	g.Phase = PhaseJoining
	g.PreviousPlayers = previous
	return previous
}

// Clear wipes the table back to empty, keeping only the previous roster.
func (e *Engine) Clear(g *Game) []string {
	previous := g.PlayerNames()
	*g = *NewGame()
	g.PreviousPlayers = previous
	return previous
}

// ForceEnd ends the game from any live phase without declaring a winner.
func (e *Engine) ForceEnd(g *Game) error {
	return g.setPhase(PhaseEnded)
}

// Join seats a player. Joining with a name that is already seated is a
// no-op success at any phase, so reconnecting phones never error. Filling
// the last seat irreversibly deals roles and starts the game.
func (e *Engine) Join(g *Game, name string) (rejoined bool, err error) {
	if g.FindPlayer(name) != nil {
		return true, nil
	}
	if g.Phase != PhaseJoining {
		return false, ErrWrongPhase
	}
	if len(g.Players) >= g.TargetCount {
		return false, ErrRoomFull
	}

	g.Players = append(g.Players, &Player{Name: name, Role: RoleServant})

	if len(g.Players) >= g.TargetCount {
		e.assignRoles(g)
		g.CaptainIndex = e.rng.Intn(len(g.Players))
		e.refreshCaptain(g)
		e.setupLadyOfLake(g)

		// The 12-seat set always contains the Lancelots, so the module is
		// force-enabled from the dealt roles rather than the request flag.
		hasLancelot := false
		for _, p := range g.Players {
			if IsLancelot(p.Role) {
				hasLancelot = true
				break
			}
		}
		if hasLancelot {
			g.LancelotEnabled = true
			e.setupLancelotCards(g)
		}
		g.setPhase(PhaseActive)
	}

	return false, nil
}

// assignRoles shuffles the canonical multiset for the seat count and deals
// one role per seat. Seats past the end of the multiset fall back to the
// loyal servant; validated seat targets never reach that branch.
func (e *Engine) assignRoles(g *Game) {
	preset := rolesFor(g.TargetCount, g.LancelotEnabled)
	roles := make([]Role, len(preset))
	copy(roles, preset)
	e.rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})
	for i, p := range g.Players {
		if i < len(roles) {
			p.Role = roles[i]
		} else {
			p.Role = RoleServant
		}
	}
}

// setupLancelotCards draws the five-round swap deck from a pool of seven
// cards holding two swaps, so a game sees at most two flips and possibly
// none.
func (e *Engine) setupLancelotCards(g *Game) {
	cards := []bool{true, true, false, false, false, false, false}
	e.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	g.LancelotSwapCards = cards[:5]
	g.LancelotSwapReveal = make([]*bool, 5)
	g.LancelotSwapped = false
}

// setupLadyOfLake seeds the token with the seat counter-clockwise of the
// first captain. The initial holder goes straight into history: they can
// never be inspected, even though they never inspected anyone.
func (e *Engine) setupLadyOfLake(g *Game) {
	if g.TargetCount < 8 || !g.LadyOfLakeEnabled {
		return
	}
	holderIndex := (g.CaptainIndex - 1 + len(g.Players)) % len(g.Players)
	holder := g.Players[holderIndex].Name
	g.LadyOfLakeHolder = holder
	g.LadyOfLakeInitialHolder = holder
	g.LadyOfLakeHistory = []string{holder}
}

// CurrentMissionSize returns the required team size for the next mission,
// clamped to the last table entry once five rounds are exceeded.
func (e *Engine) CurrentMissionSize(g *Game) int {
	roundIdx := len(g.Missions)
	sizes := sizesFor(g.TargetCount)
	if roundIdx < len(sizes) {
		return sizes[roundIdx]
	}
	return sizes[len(sizes)-1]
}

func (e *Engine) refreshCaptain(g *Game) {
	if len(g.Players) == 0 {
		return
	}
	g.CaptainIndex = g.CaptainIndex % len(g.Players)
	g.CaptainName = g.Players[g.CaptainIndex].Name
}

func (e *Engine) advanceCaptain(g *Game) {
	g.CaptainIndex = (g.CaptainIndex + 1) % len(g.Players)
	g.CaptainName = g.Players[g.CaptainIndex].Name
}

// AssassinPlayer returns the seat that performs the assassination: the
// dedicated assassin if dealt, otherwise Morgana.
func (e *Engine) AssassinPlayer(g *Game) *Player {
	for _, p := range g.Players {
		if p.Role == RoleAssassin {
			return p
		}
	}
	for _, p := range g.Players {
		if p.Role == RoleMorgana {
			return p
		}
	}
	return nil
}

// CheckGameEnd evaluates all end conditions, in precedence order: three
// successes open the assassination phase before fail or rejection counts
// are even looked at.
func (e *Engine) CheckGameEnd(g *Game) Outcome {
	successCount, failCount := 0, 0
	for _, m := range g.Missions {
		switch m.Result {
		case ResultSuccess:
			successCount++
		case ResultFail:
			failCount++
		}
	}

	if successCount >= 3 {
		g.setPhase(PhaseAssassin)
		return OutcomeAssassin
	}
	if failCount >= 3 {
		g.setPhase(PhaseEnded)
		g.GameWinner = WinnerEvil
		return OutcomeEvil
	}
	if g.VoteFailCount >= 5 {
		g.setPhase(PhaseEnded)
		g.GameWinner = WinnerEvil
		return OutcomeEvil
	}
	return OutcomeNone
}

// ProposeTeam opens a team vote for the given team. The proposer defaults
// to the current captain; a named proposer must be seated.
func (e *Engine) ProposeTeam(g *Game, team []string, proposerName string) (int, error) {
	required := e.CurrentMissionSize(g)
	if len(team) != required {
		return required, fmt.Errorf("%w: this round needs %d players", ErrInvalidTeamSize, required)
	}

	proposer := proposerName
	if proposer == "" {
		proposer = g.CaptainName
	}
	if proposer != "" && g.FindPlayer(proposer) == nil {
		return required, ErrUnknownPlayer
	}

	g.CurrentMissionTeam = append([]string(nil), team...)
	g.TeamProposer = proposer
	g.VoteTeamActive = true
	g.TeamVotes = make(map[string]string)
	g.LastVoteResult = ""
	return required, nil
}

// VoteTeam records one seat's approve/reject. Re-votes from the same seat
// overwrite. An out-of-phase vote is a silent no-op so late or duplicate
// client messages never error. Once every seat has voted the proposal
// resolves; ties reject. Returns a non-empty Outcome when the fifth
// consecutive rejection ends the game.
func (e *Engine) VoteTeam(g *Game, name, vote string) Outcome {
	if !g.VoteTeamActive {
		return OutcomeNone
	}

	g.TeamVotes[name] = vote

	if len(g.TeamVotes) < len(g.Players) {
		return OutcomeNone
	}

	approve, reject := 0, 0
	for _, v := range g.TeamVotes {
		switch v {
		case VoteApprove:
			approve++
		case VoteReject:
			reject++
		}
	}
	g.LastVoteSnapshot = copyVotes(g.TeamVotes)

	if approve > reject {
		g.VoteTeamActive = false
		g.LastVoteResult = "approved"
		g.VoteFailCount = 0
		if g.ExcaliburEnabled && g.TargetCount >= 8 {
			g.ExcaliburPhase = ExcaliburAssign
			g.ExcaliburHolder = ""
			g.ExcaliburResult = nil
		} else {
			g.MissionActive = true
			g.MissionVotes = nil
			g.MissionVotedPlayers = nil
		}
		return OutcomeNone
	}

	g.History = append(g.History, ProposalRecord{
		RoundNum:      len(g.Missions) + 1,
		ProposalIndex: g.VoteFailCount + 1,
		Team:          append([]string(nil), g.CurrentMissionTeam...),
		Captain:       g.CaptainName,
		Votes:         copyVotes(g.TeamVotes),
		MissionVotes:  map[string]string{},
		Result:        ResultRejected,
	})
	g.VoteTeamActive = false
	g.MissionActive = false
	g.CurrentMissionTeam = nil
	g.VoteFailCount++
	g.LastVoteResult = "rejected"
	e.advanceCaptain(g)
	return e.CheckGameEnd(g)
}

// VoteMission records one team member's success/fail token. The first vote
// from a name sticks; later ones are ignored rather than overwritten,
// unlike team votes. Good-aligned players are coerced to success; a
// Lancelot whose current side is evil is coerced to fail so the token
// always matches their side of the moment.
//
// When the last token lands, either the round pauses for the Excalibur
// holder's decision (excaliburDecide) or the caller must resolve the
// mission (needResolve).
func (e *Engine) VoteMission(g *Game, name, action string) (needResolve, excaliburDecide bool) {
	if !g.MissionActive {
		return false, false
	}
	if g.hasVotedMission(name) {
		return false, false
	}

	vote := action
	if p := g.FindPlayer(name); p != nil {
		currentlyEvil := CurrentlyEvil(p, g.LancelotSwapped)
		if !currentlyEvil {
			vote = VoteSuccess
		}
		if currentlyEvil && IsLancelot(p.Role) {
			vote = VoteFail
		}
	}

	g.MissionVotes = append(g.MissionVotes, vote)
	g.MissionVotedPlayers = append(g.MissionVotedPlayers, name)

	if len(g.MissionVotes) == len(g.CurrentMissionTeam) {
		if g.ExcaliburEnabled && g.ExcaliburHolder != "" && g.ExcaliburPhase != ExcaliburDone {
			g.ExcaliburPhase = ExcaliburDecide
			g.MissionActive = false
			return false, true
		}
		return true, false
	}
	return false, false
}

// ResolveResult reports what happened after a mission resolved.
type ResolveResult struct {
	// LadyOfLake is true when the Lady interstitial now blocks the next
	// proposal; captain rotation is deferred until the inspection.
	LadyOfLake bool
	GameEnd    Outcome
}

// ResolveMission finalizes the round: fail threshold, history, Lancelot
// card reveal, end-game evaluation and the Lady of the Lake trigger.
func (e *Engine) ResolveMission(g *Game) ResolveResult {
	failCount := 0
	for _, v := range g.MissionVotes {
		if v == VoteFail {
			failCount++
		}
	}
	roundIdx := len(g.Missions)

	// One fail sinks a mission, except the 4th round at 7+ seats, which
	// takes two.
	isFail := failCount >= 1
	if g.TargetCount >= 7 && roundIdx == 3 {
		isFail = failCount >= 2
	}

	missionVotes := make(map[string]string, len(g.MissionVotedPlayers))
	for i, name := range g.MissionVotedPlayers {
		missionVotes[name] = g.MissionVotes[i]
	}
	proposalResult := ResultApprovedSuccess
	missionResult := ResultSuccess
	if isFail {
		proposalResult = ResultApprovedFail
		missionResult = ResultFail
	}
	g.History = append(g.History, ProposalRecord{
		RoundNum:      roundIdx + 1,
		ProposalIndex: g.VoteFailCount + 1,
		Team:          append([]string(nil), g.CurrentMissionTeam...),
		Captain:       g.CaptainName,
		Votes:         copyVotes(g.LastVoteSnapshot),
		MissionVotes:  missionVotes,
		Result:        proposalResult,
	})
	g.Missions = append(g.Missions, MissionRecord{
		RoundNum:  roundIdx + 1,
		Team:      append([]string(nil), g.CurrentMissionTeam...),
		FailCount: failCount,
		Result:    missionResult,
	})

	g.MissionActive = false
	g.CurrentMissionTeam = nil
	g.ExcaliburPhase = ExcaliburNone
	g.ExcaliburHolder = ""

	// The deck only exists when the deal produced Lancelots; a requested
	// flag at a table without them must not touch it.
	if g.LancelotEnabled && roundIdx < len(g.LancelotSwapCards) {
		card := g.LancelotSwapCards[roundIdx]
		g.LancelotSwapReveal[roundIdx] = &card
		if card {
			g.LancelotSwapped = !g.LancelotSwapped
		}
	}

	completed := len(g.Missions)
	end := e.CheckGameEnd(g)
	if g.LadyOfLakeEnabled && end == OutcomeNone &&
		(completed == 2 || completed == 3 || completed == 4) {
		g.LadyOfLakeActive = true
		g.LadyOfLakeResult = nil
		g.LadyOfLakeInspector = ""
		return ResolveResult{LadyOfLake: true, GameEnd: OutcomeNone}
	}
	if end == OutcomeNone {
		e.advanceCaptain(g)
		// Rotation cannot end the game, but the original rechecks here.
		end = e.CheckGameEnd(g)
	}
	return ResolveResult{LadyOfLake: false, GameEnd: end}
}

// AssignExcalibur hands the sword to a team member other than the proposer
// and starts the mission.
func (e *Engine) AssignExcalibur(g *Game, target string) error {
	if g.ExcaliburPhase != ExcaliburAssign {
		return ErrWrongPhase
	}
	proposer := g.TeamProposer
	if proposer == "" {
		proposer = g.CaptainName
	}
	if target == proposer {
		return fmt.Errorf("%w: cannot keep the sword yourself", ErrInvalidTarget)
	}
	if !g.onTeam(target) {
		return fmt.Errorf("%w: must be on this round's team", ErrInvalidTarget)
	}

	g.ExcaliburHolder = target
	g.ExcaliburPhase = ExcaliburMission
	g.MissionActive = true
	g.MissionVotes = nil
	g.MissionVotedPlayers = nil
	return nil
}

// UseExcalibur flips one already-cast mission vote, or skips when target is
// empty. Either way the decision is final and the round proceeds to
// resolution.
func (e *Engine) UseExcalibur(g *Game, target string) error {
	if g.ExcaliburPhase != ExcaliburDecide {
		return ErrWrongPhase
	}

	if target != "" {
		idx := -1
		for i, name := range g.MissionVotedPlayers {
			if name == target {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: not among this round's voters", ErrInvalidTarget)
		}
		original := g.MissionVotes[idx]
		flipped := VoteFail
		if original == VoteFail {
			flipped = VoteSuccess
		}
		g.MissionVotes[idx] = flipped
		g.ExcaliburResult = &ExcaliburResult{Target: target, OriginalVote: original}
	} else {
		g.ExcaliburResult = nil
	}

	g.ExcaliburPhase = ExcaliburDone
	return nil
}

// InspectLadyOfLake resolves a pending inspection: the current holder
// learns the target's effective alignment, the token passes to the target,
// and normal flow resumes.
func (e *Engine) InspectLadyOfLake(g *Game, target string) (alignment string, end Outcome, err error) {
	if !g.LadyOfLakeActive {
		return "", OutcomeNone, ErrWrongPhase
	}
	for _, held := range g.LadyOfLakeHistory {
		if held == target {
			return "", OutcomeNone, fmt.Errorf("%w: has already held the token", ErrInvalidTarget)
		}
	}
	targetPlayer := g.FindPlayer(target)
	if targetPlayer == nil {
		return "", OutcomeNone, ErrUnknownPlayer
	}

	alignment = WinnerGood
	if CurrentlyEvil(targetPlayer, g.LancelotSwapped) {
		alignment = WinnerEvil
	}

	g.LadyOfLakeInspector = g.LadyOfLakeHolder
	g.LadyOfLakeResult = &LadyResult{Target: target, Alignment: alignment}
	g.LadyOfLakeHistory = append(g.LadyOfLakeHistory, target)
	g.LadyOfLakeHolder = target
	g.LadyOfLakeActive = false

	e.advanceCaptain(g)
	return alignment, e.CheckGameEnd(g), nil
}

// Assassinate resolves the final shot. Only hitting Merlin's printed role
// wins for evil; every other target is an equivalent miss. Lancelot swaps
// never move Merlin, so the check ignores effective alignment.
func (e *Engine) Assassinate(g *Game, target string) (winner string, err error) {
	if g.Phase != PhaseAssassin {
		return "", ErrWrongPhase
	}

	g.AssassinTarget = target
	if p := g.FindPlayer(target); p != nil && p.Role == RoleMerlin {
		g.GameWinner = WinnerEvil
	} else {
		g.GameWinner = WinnerGood
	}
	g.setPhase(PhaseEnded)
	return g.GameWinner, nil
}

// Results builds the per-player win/loss list for the result store. Win
// attribution uses effective alignment: a Lancelot counts where they ended
// up, not where they started.
func (e *Engine) Results(g *Game, winner string) []PlayerResult {
	results := make([]PlayerResult, 0, len(g.Players))
	for _, p := range g.Players {
		evil := CurrentlyEvil(p, g.LancelotSwapped)
		won := (winner == WinnerEvil && evil) || (winner == WinnerGood && !evil)
		results = append(results, PlayerResult{Name: p.Name, Winner: won})
	}
	return results
}

func copyVotes(votes map[string]string) map[string]string {
	out := make(map[string]string, len(votes))
	for k, v := range votes {
		out[k] = v
	}
	return out
}
