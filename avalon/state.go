package avalon

// Vote values for team proposals and mission execution.
const (
	VoteApprove = "approve"
	VoteReject  = "reject"
	VoteSuccess = "success"
	VoteFail    = "fail"
)

// Proposal / mission results as recorded in history.
const (
	ResultRejected        = "rejected"
	ResultApprovedSuccess = "approved_success"
	ResultApprovedFail    = "approved_fail"
	ResultSuccess         = "success"
	ResultFail            = "fail"
)

// Winning sides.
const (
	WinnerGood = "good"
	WinnerEvil = "evil"
)

// ExcaliburPhase tracks the sword's sub-flow within a round.
type ExcaliburPhase string

const (
	ExcaliburNone    ExcaliburPhase = "none"
	ExcaliburAssign  ExcaliburPhase = "assign"
	ExcaliburMission ExcaliburPhase = "mission"
	ExcaliburDecide  ExcaliburPhase = "decide"
	ExcaliburDone    ExcaliburPhase = "done"
)

// Player is one seat. Seats are identified by name; there is no separate id.
type Player struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// MissionRecord is the immutable outcome of one resolved mission.
type MissionRecord struct {
	RoundNum  int      `json:"round_num"`
	Team      []string `json:"team"`
	FailCount int      `json:"fail_count"`
	Result    string   `json:"result"`
}

// ProposalRecord is one completed proposal, rejected or carried through a
// mission. MissionVotes is empty for rejected proposals.
type ProposalRecord struct {
	RoundNum      int               `json:"round_num"`
	ProposalIndex int               `json:"proposal_index"`
	Team          []string          `json:"team"`
	Captain       string            `json:"captain"`
	Votes         map[string]string `json:"votes"`
	MissionVotes  map[string]string `json:"mission_votes"`
	Result        string            `json:"result"`
}

// LadyResult is an inspection outcome, shown only to the inspector.
type LadyResult struct {
	Target    string `json:"target"`
	Alignment string `json:"alignment"`
}

// ExcaliburResult records an applied flip, shown only to the sword holder.
type ExcaliburResult struct {
	Target       string `json:"target"`
	OriginalVote string `json:"original_vote"`
}

// PlayerResult is one row of the finalized win/loss list handed to the
// result store when a game produces a winner.
type PlayerResult struct {
	Name   string `json:"player_name"`
	Winner bool   `json:"is_winner"`
}

// Game is the full state of the single live table. It is a plain value:
// the engine mutates it, the coordinating service owns it and serializes
// access, and the view layer projects it per viewer.
type Game struct {
	TargetCount   int
	Players       []*Player
	Missions      []MissionRecord
	History       []ProposalRecord
	Phase         Phase
	VoteFailCount int

	VoteTeamActive   bool
	TeamVotes        map[string]string
	LastVoteResult   string
	LastVoteSnapshot map[string]string

	MissionActive       bool
	CurrentMissionTeam  []string
	MissionVotes        []string
	MissionVotedPlayers []string

	CaptainIndex int
	CaptainName  string
	TeamProposer string

	AssassinTarget string
	GameWinner     string

	LadyOfLakeEnabled       bool
	LadyOfLakeHolder        string
	LadyOfLakeHistory       []string
	LadyOfLakeActive        bool
	LadyOfLakeResult        *LadyResult
	LadyOfLakeInspector     string
	LadyOfLakeInitialHolder string

	LancelotEnabled    bool
	LancelotSwapCards  []bool
	LancelotSwapped    bool
	LancelotSwapReveal []*bool

	ExcaliburEnabled bool
	ExcaliburHolder  string
	ExcaliburPhase   ExcaliburPhase
	ExcaliburResult  *ExcaliburResult

	// PreviousPlayers carries the roster of the last game across resets
	// for lobby convenience.
	PreviousPlayers []string
}

// NewGame returns an empty table.
func NewGame() *Game {
	return &Game{
		TargetCount:      6,
		Phase:            PhaseEmpty,
		TeamVotes:        make(map[string]string),
		LastVoteSnapshot: make(map[string]string),
		ExcaliburPhase:   ExcaliburNone,
	}
}

// FindPlayer returns the seat with the given name, or nil.
func (g *Game) FindPlayer(name string) *Player {
	for _, p := range g.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PlayerNames returns the seating order as names.
func (g *Game) PlayerNames() []string {
	names := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		names = append(names, p.Name)
	}
	return names
}

func (g *Game) onTeam(name string) bool {
	for _, member := range g.CurrentMissionTeam {
		if member == name {
			return true
		}
	}
	return false
}

func (g *Game) hasVotedMission(name string) bool {
	for _, voted := range g.MissionVotedPlayers {
		if voted == name {
			return true
		}
	}
	return false
}
