package avalon

// Canonical role multisets keyed by seat count. Seat count 10 has a second
// variant used when the Lancelot module is requested; 11 is not a supported
// table size.
var rolePresets = map[int][]Role{
	5:  {RoleMerlin, RolePercival, RoleServant, RoleMorgana, RoleAssassin},
	6:  {RoleMerlin, RolePercival, RoleServant, RoleServant, RoleMorgana, RoleAssassin},
	7:  {RoleMerlin, RolePercival, RoleServant, RoleServant, RoleMorgana, RoleAssassin, RoleOberon},
	8:  {RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant, RoleMorgana, RoleAssassin, RoleMinion},
	9:  {RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant, RoleServant, RoleMorgana, RoleAssassin, RoleMordred},
	10: {RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant, RoleServant, RoleMorgana, RoleAssassin, RoleOberon, RoleMordred},
	12: {RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant, RoleServant,
		RoleLancelotGood,
		RoleMorgana, RoleAssassin, RoleMordred, RoleOberon, RoleLancelotEvil},
}

var rolePreset10Lancelot = []Role{
	RoleMerlin, RolePercival, RoleServant, RoleServant, RoleServant,
	RoleLancelotGood,
	RoleMorgana, RoleMordred, RoleOberon, RoleLancelotEvil,
}

// Mission team sizes per round, keyed by seat count.
var missionSizes = map[int][]int{
	5:  {2, 3, 2, 3, 3},
	6:  {2, 3, 4, 3, 4},
	7:  {2, 3, 3, 4, 4},
	8:  {3, 4, 4, 5, 5},
	9:  {3, 4, 4, 5, 5},
	10: {3, 4, 4, 5, 5},
	12: {3, 4, 5, 6, 6},
}

// rolesFor selects the multiset for a seat count. An unconfigured count
// falls back to the 6-seat table; validated seat targets should make that
// unreachable, but the fallback is kept as-is from the original rules data.
func rolesFor(count int, lancelotEnabled bool) []Role {
	if lancelotEnabled && count == 10 {
		return rolePreset10Lancelot
	}
	if preset, ok := rolePresets[count]; ok {
		return preset
	}
	return rolePresets[6]
}

// sizesFor returns the mission-size row for a seat count, with the same
// 6-seat fallback as rolesFor.
func sizesFor(count int) []int {
	if sizes, ok := missionSizes[count]; ok {
		return sizes
	}
	return missionSizes[6]
}
