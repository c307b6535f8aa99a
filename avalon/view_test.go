package avalon

import (
	"testing"
)

func TestBuildStatus_EmptyTableFixedSnapshot(t *testing.T) {
	e := testEngine(30)
	snap := e.BuildStatus(NewGame(), "anyone")

	if snap.Status != PhaseEmpty {
		t.Fatalf("want empty status, got %s", snap.Status)
	}
	if snap.RequiredTeamSize != 2 {
		t.Errorf("empty snapshot carries the fixed default team size, got %d", snap.RequiredTeamSize)
	}
	if snap.PlayersList == nil || snap.MissionHistory == nil || snap.Vision == nil ||
		snap.TeamVotes == nil || snap.LadyOfLakeHistory == nil {
		t.Error("empty snapshot must use empty collections, not nulls")
	}
	if snap.ExcaliburPhase != ExcaliburNone {
		t.Errorf("want excalibur none, got %s", snap.ExcaliburPhase)
	}
}

func TestBuildStatus_RolesHiddenWhileRunning(t *testing.T) {
	e := testEngine(31)
	g := activeGame(RoleMerlin, RolePercival, RoleServant, RoleMorgana, RoleAssassin)

	snap := e.BuildStatus(g, "p3")
	if snap.YourRole != RoleServant {
		t.Errorf("viewer sees their own role, got %q", snap.YourRole)
	}
	if len(snap.RevealedPlayers) != 0 {
		t.Error("no roles may be revealed before the game ends")
	}
	// The acting role (not its holder) is common knowledge.
	if snap.AssassinRole != RoleAssassin {
		t.Errorf("assassin role is public, got %q", snap.AssassinRole)
	}
	if len(snap.Vision) != 0 {
		t.Errorf("a servant has no vision, got %v", snap.Vision)
	}

	merlinView := e.BuildStatus(g, "p1")
	if len(merlinView.Vision) != 2 {
		t.Errorf("Merlin should see Morgana and the Assassin, got %v", merlinView.Vision)
	}

	stranger := e.BuildStatus(g, "nobody")
	if stranger.YourRole != "" || len(stranger.Vision) != 0 {
		t.Error("an unseated viewer gets no role and no vision")
	}
}

func TestBuildStatus_EndedRevealsEveryone(t *testing.T) {
	e := testEngine(32)
	g := activeGame(RoleMerlin, RolePercival, RoleServant, RoleMorgana, RoleAssassin)
	g.History = append(g.History, ProposalRecord{RoundNum: 1, Result: ResultRejected})
	g.Phase = PhaseEnded
	g.GameWinner = WinnerGood

	snap := e.BuildStatus(g, "p3")
	if len(snap.RevealedPlayers) != 5 {
		t.Fatalf("every role is revealed at game end, got %d", len(snap.RevealedPlayers))
	}
	if snap.RevealedPlayers[0].Role != RoleMerlin {
		t.Errorf("reveal keeps seating order, got %q", snap.RevealedPlayers[0].Role)
	}
	if len(snap.History) != 1 {
		t.Error("proposal history becomes public at game end")
	}
	if snap.GameWinner != WinnerGood {
		t.Errorf("want winner good, got %q", snap.GameWinner)
	}
}

func TestBuildStatus_LadyResultOnlyForInspector(t *testing.T) {
	e := testEngine(33)
	g := activeGame(
		RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant,
		RoleMorgana, RoleAssassin, RoleMinion,
	)
	g.LadyOfLakeInspector = "p8"
	g.LadyOfLakeResult = &LadyResult{Target: "p6", Alignment: WinnerEvil}

	inspector := e.BuildStatus(g, "p8")
	if inspector.LadyOfLakeResult == nil || inspector.LadyOfLakeResult.Target != "p6" {
		t.Error("the inspector must see their own result")
	}
	if inspector.LadyOfLakeInspector != "p8" {
		t.Error("the inspector field is shown to the inspector")
	}

	other := e.BuildStatus(g, "p6")
	if other.LadyOfLakeResult != nil || other.LadyOfLakeInspector != "" {
		t.Error("inspection results must be hidden from everyone else, including the target")
	}
}

func TestBuildStatus_ExcaliburResultOnlyForHolder(t *testing.T) {
	e := testEngine(34)
	g := activeGame(
		RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant,
		RoleMorgana, RoleAssassin, RoleMinion,
	)
	g.ExcaliburEnabled = true
	g.ExcaliburHolder = "p2"
	g.ExcaliburResult = &ExcaliburResult{Target: "p6", OriginalVote: VoteFail}

	holder := e.BuildStatus(g, "p2")
	if holder.ExcaliburResult == nil {
		t.Error("the sword holder sees the applied flip")
	}
	other := e.BuildStatus(g, "p6")
	if other.ExcaliburResult != nil {
		t.Error("the flip is hidden from everyone else")
	}
	if other.ExcaliburHolder != "p2" {
		t.Error("who holds the sword is public")
	}
}

func TestBuildStatus_AlignmentOnlyForLancelots(t *testing.T) {
	e := testEngine(35)
	g := activeGame(
		RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant,
		RoleLancelotGood, RoleMorgana, RoleMordred, RoleOberon, RoleLancelotEvil,
	)
	g.LancelotEnabled = true
	g.LancelotSwapped = true

	lancelot := e.BuildStatus(g, "p6")
	if lancelot.CurrentAlignment != WinnerEvil {
		t.Errorf("swapped Lancelot Good must see itself as evil, got %q", lancelot.CurrentAlignment)
	}
	morgana := e.BuildStatus(g, "p7")
	if morgana.CurrentAlignment != "" {
		t.Errorf("non-Lancelots never get an explicit alignment label, got %q", morgana.CurrentAlignment)
	}
}

func TestBuildStatus_SnapshotDetachedFromGame(t *testing.T) {
	// Snapshots are handed to the JSON encoder after the service lock is
	// released, so later transitions must never show through them.
	e := testEngine(37)
	g := activeGame(RoleMerlin, RolePercival, RoleServant, RoleMorgana, RoleAssassin)
	if _, err := e.ProposeTeam(g, []string{"p1", "p2"}, "p1"); err != nil {
		t.Fatalf("ProposeTeam: %v", err)
	}
	e.VoteTeam(g, "p1", VoteApprove)

	snap := e.BuildStatus(g, "p1")
	if len(snap.TeamVotes) != 1 {
		t.Fatalf("snapshot should hold the single cast vote, got %v", snap.TeamVotes)
	}

	e.VoteTeam(g, "p2", VoteReject)
	g.CurrentMissionTeam = append(g.CurrentMissionTeam, "p3")
	g.Missions = append(g.Missions, MissionRecord{RoundNum: 1, Result: ResultSuccess})

	if len(snap.TeamVotes) != 1 {
		t.Errorf("a later vote leaked into the snapshot: %v", snap.TeamVotes)
	}
	if len(snap.MissionTeam) != 2 {
		t.Errorf("team mutation leaked into the snapshot: %v", snap.MissionTeam)
	}
	if len(snap.MissionHistory) != 0 {
		t.Errorf("mission record leaked into the snapshot: %v", snap.MissionHistory)
	}
}

func TestBuildStatus_AssassinRoleFallsBackToMorgana(t *testing.T) {
	e := testEngine(36)
	g := activeGame(RoleMerlin, RolePercival, RoleServant, RoleMorgana, RoleMinion)

	snap := e.BuildStatus(g, "p1")
	if snap.AssassinRole != RoleMorgana {
		t.Errorf("without a dedicated assassin Morgana takes the shot, got %q", snap.AssassinRole)
	}
}
