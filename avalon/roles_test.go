package avalon

import (
	"testing"
)

func visionOf(t *testing.T, viewer *Player, all []*Player) map[string]string {
	t.Helper()
	seen := make(map[string]string)
	for _, entry := range Vision(viewer, all) {
		seen[entry.Name] = entry.Identity
	}
	return seen
}

func TestVision_Merlin(t *testing.T) {
	players := []*Player{
		{Name: "merlin", Role: RoleMerlin},
		{Name: "percival", Role: RolePercival},
		{Name: "morgana", Role: RoleMorgana},
		{Name: "mordred", Role: RoleMordred},
		{Name: "oberon", Role: RoleOberon},
		{Name: "lancelot_evil", Role: RoleLancelotEvil},
	}

	seen := visionOf(t, players[0], players)

	for _, name := range []string{"morgana", "oberon", "lancelot_evil"} {
		if seen[name] != IdentityEvil {
			t.Errorf("Merlin should see %s as %q, got %q", name, IdentityEvil, seen[name])
		}
	}
	// Mordred hides from Merlin.
	if _, ok := seen["mordred"]; ok {
		t.Error("Merlin should not see Mordred")
	}
	if _, ok := seen["percival"]; ok {
		t.Error("Merlin should not see Percival")
	}
}

func TestVision_PercivalCannotDistinguish(t *testing.T) {
	players := []*Player{
		{Name: "percival", Role: RolePercival},
		{Name: "merlin", Role: RoleMerlin},
		{Name: "morgana", Role: RoleMorgana},
		{Name: "servant", Role: RoleServant},
	}

	seen := visionOf(t, players[0], players)

	if seen["merlin"] != IdentityMaybeMerlin || seen["morgana"] != IdentityMaybeMerlin {
		t.Errorf("Percival must see Merlin and Morgana under the same label, got %v", seen)
	}
	if len(seen) != 2 {
		t.Errorf("Percival should see exactly 2 players, got %v", seen)
	}
}

func TestVision_EvilTeam(t *testing.T) {
	players := []*Player{
		{Name: "morgana", Role: RoleMorgana},
		{Name: "assassin", Role: RoleAssassin},
		{Name: "mordred", Role: RoleMordred},
		{Name: "oberon", Role: RoleOberon},
		{Name: "lancelot_evil", Role: RoleLancelotEvil},
		{Name: "merlin", Role: RoleMerlin},
	}

	seen := visionOf(t, players[0], players)

	if seen["assassin"] != IdentityAlly || seen["mordred"] != IdentityAlly {
		t.Errorf("Morgana should see fellow core evil as allies, got %v", seen)
	}
	if seen["lancelot_evil"] != IdentityRedLancelot {
		t.Errorf("Lancelot Evil should carry the distinct tag, got %q", seen["lancelot_evil"])
	}
	if _, ok := seen["oberon"]; ok {
		t.Error("Oberon must not appear in the evil team's vision")
	}
	if _, ok := seen["merlin"]; ok {
		t.Error("evil must not see Merlin")
	}
}

func TestVision_BlindViewers(t *testing.T) {
	players := []*Player{
		{Name: "oberon", Role: RoleOberon},
		{Name: "lancelot_evil", Role: RoleLancelotEvil},
		{Name: "servant", Role: RoleServant},
		{Name: "morgana", Role: RoleMorgana},
	}

	for _, viewer := range players[:3] {
		if seen := visionOf(t, viewer, players); len(seen) != 0 {
			t.Errorf("%s should see nothing, got %v", viewer.Name, seen)
		}
	}
}

func TestCurrentlyEvil_LancelotSwap(t *testing.T) {
	good := &Player{Name: "lg", Role: RoleLancelotGood}
	evil := &Player{Name: "le", Role: RoleLancelotEvil}
	morgana := &Player{Name: "m", Role: RoleMorgana}
	servant := &Player{Name: "s", Role: RoleServant}

	if CurrentlyEvil(good, false) || !CurrentlyEvil(evil, false) {
		t.Fatal("unswapped Lancelots must keep their printed alignment")
	}
	if !CurrentlyEvil(good, true) || CurrentlyEvil(evil, true) {
		t.Fatal("swap must flip both Lancelots")
	}
	// Swap state never touches non-Lancelots.
	if !CurrentlyEvil(morgana, true) || CurrentlyEvil(servant, true) {
		t.Fatal("non-Lancelot alignment must ignore the swap flag")
	}
}

func TestCurrentlyEvil_DoubleToggleInvariant(t *testing.T) {
	p := &Player{Name: "lg", Role: RoleLancelotGood}
	swapped := false
	for i := 0; i < 6; i++ {
		swapped = !swapped
	}
	if CurrentlyEvil(p, swapped) != CurrentlyEvil(p, false) {
		t.Error("an even number of toggles must restore the original alignment")
	}
}
