package avalon

// RevealedPlayer is one seat with its role exposed, used once the game has
// ended.
type RevealedPlayer struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Snapshot is the per-viewer projection of the table. Every field that
// carries hidden information is redacted according to who is asking; the
// transport must map it to the response body as-is.
type Snapshot struct {
	Status       Phase    `json:"status"`
	CurrentCount int      `json:"current_count"`
	TargetCount  int      `json:"target_count"`
	PlayersList  []string `json:"players_list"`

	MissionHistory []MissionRecord `json:"mission_history"`
	VoteFailCount  int             `json:"vote_fail_count"`

	YourRole        Role             `json:"your_role"`
	Vision          []VisionEntry    `json:"vision"`
	RevealedPlayers []RevealedPlayer `json:"revealed_players"`

	MissionActive bool     `json:"mission_active"`
	MissionTeam   []string `json:"mission_team"`
	HasActed      bool     `json:"has_acted"`

	VoteTeamActive   bool              `json:"vote_team_active"`
	TeamVotes        map[string]string `json:"team_votes"`
	LastVoteResult   string            `json:"last_vote_result,omitempty"`
	LastVoteSnapshot map[string]string `json:"last_vote_snapshot"`

	Captain          string `json:"captain,omitempty"`
	TeamProposer     string `json:"team_proposer,omitempty"`
	RequiredTeamSize int    `json:"required_team_size"`

	GameWinner     string `json:"game_winner,omitempty"`
	AssassinTarget string `json:"assassin_target,omitempty"`
	AssassinRole   Role   `json:"assassin_role,omitempty"`

	LadyOfLakeHolder    string      `json:"lady_of_lake_holder,omitempty"`
	LadyOfLakeActive    bool        `json:"lady_of_lake_active"`
	LadyOfLakeResult    *LadyResult `json:"lady_of_lake_result"`
	LadyOfLakeInspector string      `json:"lady_of_lake_inspector,omitempty"`
	LadyOfLakeHistory   []string    `json:"lady_of_lake_history"`

	LancelotEnabled    bool    `json:"lancelot_enabled"`
	LancelotSwapped    bool    `json:"lancelot_swapped"`
	LancelotSwapReveal []*bool `json:"lancelot_swap_reveal"`
	CurrentAlignment   string  `json:"current_alignment,omitempty"`

	ExcaliburEnabled bool             `json:"excalibur_enabled"`
	ExcaliburHolder  string           `json:"excalibur_holder,omitempty"`
	ExcaliburPhase   ExcaliburPhase   `json:"excalibur_phase"`
	ExcaliburResult  *ExcaliburResult `json:"excalibur_result"`

	History []ProposalRecord `json:"history,omitempty"`
}

// BuildStatus renders the table for one viewer.
//
// Redaction rules: roles of others are never exposed except at game end;
// the vision list is the viewer's own; the assassin's role (not its
// holder) is common knowledge; Lady and Excalibur results go only to the
// inspector / sword holder; a viewer's own effective alignment is shown
// only to Lancelots.
func (e *Engine) BuildStatus(g *Game, viewerName string) Snapshot {
	if g.Phase == PhaseEmpty {
		// Fixed all-empty snapshot rather than field-by-field defaults.
		return Snapshot{
			Status:             PhaseEmpty,
			PlayersList:        []string{},
			MissionHistory:     []MissionRecord{},
			Vision:             []VisionEntry{},
			RevealedPlayers:    []RevealedPlayer{},
			MissionTeam:        []string{},
			TeamVotes:          map[string]string{},
			LastVoteSnapshot:   map[string]string{},
			RequiredTeamSize:   2,
			LadyOfLakeHistory:  []string{},
			LancelotSwapReveal: []*bool{},
			ExcaliburPhase:     ExcaliburNone,
		}
	}

	viewer := g.FindPlayer(viewerName)

	var assassinRole Role
	if assassin := e.AssassinPlayer(g); assassin != nil {
		assassinRole = assassin.Role
	}

	currentAlignment := ""
	if viewer != nil && IsLancelot(viewer.Role) {
		if CurrentlyEvil(viewer, g.LancelotSwapped) {
			currentAlignment = WinnerEvil
		} else {
			currentAlignment = WinnerGood
		}
	}

	// The snapshot outlives the lock under which it was built: the
	// transport encodes it while later votes mutate the game. Everything
	// mutable is copied, never aliased.
	snap := Snapshot{
		Status:           g.Phase,
		CurrentCount:     len(g.Players),
		TargetCount:      g.TargetCount,
		PlayersList:      g.PlayerNames(),
		MissionHistory:   copySlice(g.Missions),
		VoteFailCount:    g.VoteFailCount,
		Vision:           []VisionEntry{},
		RevealedPlayers:  []RevealedPlayer{},
		MissionActive:    g.MissionActive,
		MissionTeam:      copySlice(g.CurrentMissionTeam),
		HasActed:         g.hasVotedMission(viewerName),
		VoteTeamActive:   g.VoteTeamActive,
		TeamVotes:        copyVotes(g.TeamVotes),
		LastVoteResult:   g.LastVoteResult,
		LastVoteSnapshot: copyVotes(g.LastVoteSnapshot),
		Captain:          g.CaptainName,
		TeamProposer:     g.TeamProposer,
		RequiredTeamSize: e.CurrentMissionSize(g),
		GameWinner:       g.GameWinner,
		AssassinTarget:   g.AssassinTarget,
		AssassinRole:     assassinRole,

		LadyOfLakeHolder:  g.LadyOfLakeHolder,
		LadyOfLakeActive:  g.LadyOfLakeActive,
		LadyOfLakeHistory: copySlice(g.LadyOfLakeHistory),

		LancelotEnabled:    g.LancelotEnabled,
		LancelotSwapped:    g.LancelotSwapped,
		LancelotSwapReveal: copySlice(g.LancelotSwapReveal),
		CurrentAlignment:   currentAlignment,

		ExcaliburEnabled: g.ExcaliburEnabled,
		ExcaliburPhase:   g.ExcaliburPhase,
	}

	if viewer != nil {
		snap.YourRole = viewer.Role
	}

	// Inspection results belong to the recorded inspector alone.
	if g.LadyOfLakeInspector == viewerName {
		snap.LadyOfLakeResult = g.LadyOfLakeResult
		snap.LadyOfLakeInspector = g.LadyOfLakeInspector
	}

	snap.ExcaliburHolder = g.ExcaliburHolder
	if g.ExcaliburHolder == viewerName {
		snap.ExcaliburResult = g.ExcaliburResult
	}

	if viewer != nil && (g.Phase == PhaseActive || g.Phase == PhaseAssassin) {
		snap.Vision = Vision(viewer, g.Players)
	}

	if g.Phase == PhaseEnded {
		for _, p := range g.Players {
			snap.RevealedPlayers = append(snap.RevealedPlayers, RevealedPlayer{Name: p.Name, Role: p.Role})
		}
		snap.History = copySlice(g.History)
	}

	return snap
}

// copySlice detaches a snapshot field from the game's backing array. A nil
// input comes back as an empty slice so the JSON stays a list, never null.
func copySlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
