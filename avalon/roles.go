package avalon

// Role is the hidden identity assigned to a seat at game start. It never
// changes; a Lancelot's side can flip, but the role itself stays fixed.
type Role string

const (
	RoleMerlin       Role = "Merlin"
	RolePercival     Role = "Percival"
	RoleServant      Role = "Loyal Servant"
	RoleMorgana      Role = "Morgana"
	RoleAssassin     Role = "Assassin"
	RoleMordred      Role = "Mordred"
	RoleOberon       Role = "Oberon"
	RoleMinion       Role = "Minion"
	RoleLancelotGood Role = "Lancelot Good"
	RoleLancelotEvil Role = "Lancelot Evil"
)

// Identity labels shown in a viewer's vision list.
const (
	IdentityEvil        = "evil"
	IdentityMaybeMerlin = "merlin?"
	IdentityAlly        = "ally"
	IdentityRedLancelot = "red_lancelot"
)

// IsEvil reports the static alignment of a role, ignoring Lancelot swaps.
func IsEvil(role Role) bool {
	switch role {
	case RoleMorgana, RoleAssassin, RoleMordred, RoleOberon, RoleMinion, RoleLancelotEvil:
		return true
	}
	return false
}

// IsLancelot reports whether a role is one of the two Lancelot variants.
func IsLancelot(role Role) bool {
	return role == RoleLancelotGood || role == RoleLancelotEvil
}

// CurrentlyEvil is the effective alignment of a player: the static evil set,
// except that both Lancelots flip together whenever the swap flag is set.
// Mission-vote coercion, Lady of the Lake inspections and final win
// attribution all go through here; vision never does.
func CurrentlyEvil(p *Player, lancelotSwapped bool) bool {
	if IsLancelot(p.Role) {
		originalEvil := p.Role == RoleLancelotEvil
		if lancelotSwapped {
			return !originalEvil
		}
		return originalEvil
	}
	return IsEvil(p.Role)
}

// VisionEntry is one revealed seat in a viewer's vision list.
type VisionEntry struct {
	Name     string `json:"name"`
	Identity string `json:"identity"`
}

// Vision computes what the viewer knows about the other seats. It is a pure
// function of original roles: a swapped Lancelot is still seen where the
// printed card says.
//
// The asymmetries matter: Merlin sees Oberon, but Oberon sees no one; the
// core evil roles see Lancelot Evil (tagged separately), but Lancelot Evil
// sees no one.
func Vision(viewer *Player, all []*Player) []VisionEntry {
	vision := []VisionEntry{}

	for _, target := range all {
		if target.Name == viewer.Name {
			continue
		}
		identity := ""

		switch {
		case viewer.Role == RoleMerlin:
			switch target.Role {
			case RoleMorgana, RoleAssassin, RoleMinion, RoleOberon, RoleLancelotEvil:
				identity = IdentityEvil
			}
		case viewer.Role == RolePercival:
			if target.Role == RoleMerlin || target.Role == RoleMorgana {
				identity = IdentityMaybeMerlin
			}
		case coreEvil(viewer.Role):
			if coreEvil(target.Role) {
				identity = IdentityAlly
			} else if target.Role == RoleLancelotEvil {
				identity = IdentityRedLancelot
			}
		}

		// Oberon is textually on the evil team but shares no vision.
		if viewer.Role == RoleOberon {
			identity = ""
		}

		if identity != "" {
			vision = append(vision, VisionEntry{Name: target.Name, Identity: identity})
		}
	}
	return vision
}

// coreEvil is the mutually-visible evil block. Oberon and Lancelot Evil are
// evil but not part of it.
func coreEvil(role Role) bool {
	switch role {
	case RoleMorgana, RoleAssassin, RoleMordred, RoleMinion:
		return true
	}
	return false
}
