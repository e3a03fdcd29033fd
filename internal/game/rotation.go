package game

// Roles is the shooter/fader assignment.
type Roles struct {
	Shooter string
	Fader   string
}

// occupiedRing returns the occupied seats in seat ring order.
func occupiedRing(ring []string, owners map[string]string) []string {
	occupied := make([]string, 0, len(owners))
	for _, s := range ring {
		if _, ok := owners[s]; ok {
			occupied = append(occupied, s)
		}
	}
	return occupied
}

// NextRoles passes the dice clockwise among occupied seats only. The new
// fader is the occupied seat directly behind the new shooter.
func NextRoles(ring []string, owners map[string]string, shooter string) Roles {
	occupied := occupiedRing(ring, owners)
	switch len(occupied) {
	case 0:
		return Roles{Shooter: ring[0], Fader: ring[len(ring)-1]}
	case 1:
		return Roles{Shooter: occupied[0], Fader: occupied[0]}
	}

	idx := indexOf(occupied, shooter)
	if idx < 0 {
		idx = 0
	}
	n := len(occupied)
	next := (idx + 1) % n
	return Roles{
		Shooter: occupied[next],
		Fader:   occupied[(next-1+n)%n],
	}
}

// RepairRoles restores the role invariants after an occupancy change while
// the shooter keeps the dice. It reports false when the shooter seat is empty
// and a full rotation is needed instead.
func RepairRoles(ring []string, owners map[string]string, current Roles) (Roles, bool) {
	occupied := occupiedRing(ring, owners)
	switch len(occupied) {
	case 0:
		return current, false
	case 1:
		return Roles{Shooter: occupied[0], Fader: occupied[0]}, current.Shooter == occupied[0]
	}

	idx := indexOf(occupied, current.Shooter)
	if idx < 0 {
		return current, false
	}
	if current.Fader != current.Shooter && indexOf(occupied, current.Fader) >= 0 {
		return current, true
	}
	n := len(occupied)
	return Roles{Shooter: current.Shooter, Fader: occupied[(idx-1+n)%n]}, true
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
