package game

// SwapPair is the magician's structured swap, decoded from the wire form.
type SwapPair struct {
	First  int
	Second int
}

// Contains reports whether seat is one of the swapped pair.
func (p SwapPair) Contains(seat int) bool {
	return seat == p.First || seat == p.Second
}

// Other returns the counterpart of seat within the pair.
func (p SwapPair) Other(seat int) int {
	if seat == p.First {
		return p.Second
	}
	return p.First
}

// NightActions is the structured record of everything that happened during
// one night, keyed by effect rather than by role.
type NightActions struct {
	WolfKill             *int
	GuardProtect         *int
	WitchSave            *int
	WitchPoison          *int
	WolfQueenCharm       *int
	DreamTarget          *int
	MagicianSwap         *SwapPair
	NightmareBlock       *int
	NightmareBlockedWolf bool
	SeerCheck            *int
}

// RoleSeatMap locates the seats of roles whose passives matter for death
// computation. A nil entry means the role is not on the board.
type RoleSeatMap struct {
	Witcher      *int
	WolfQueen    *int
	Dreamcatcher *int
	SpiritKnight *int
	Seer         *int
	Witch        *int
	Guard        *int
}

func seatEq(a *int, b int) bool {
	return a != nil && *a == b
}

// ComputeNightDeaths applies the canonical resolution order and returns the
// sorted list of dying seats.
//
//  1. A nightmare-blocked wolf means no kill this night.
//  2. Otherwise the wolf target is the tentative death.
//  3. 同守同救必死: guard and witch on the same seat cancel each other.
//  4. Otherwise either one cancels the kill.
//  5. Poison always lands unless the target is the witcher.
//  6. A dying wolf queen takes her charmed target along.
//  7. The dream target cannot be knifed; a dying dreamcatcher takes the
//     dream target along regardless of other protection.
//  8. Magician swap reshuffles a death set containing exactly one of the pair.
func ComputeNightDeaths(a NightActions, seats RoleSeatMap) []int {
	deaths := make(map[int]bool)

	kill := -1
	if !a.NightmareBlockedWolf && a.WolfKill != nil && *a.WolfKill >= 0 {
		kill = *a.WolfKill
	}

	if kill >= 0 {
		guarded := seatEq(a.GuardProtect, kill)
		saved := seatEq(a.WitchSave, kill)
		dreamed := seatEq(a.DreamTarget, kill)
		switch {
		case dreamed:
			// protected by the dream
		case guarded && saved:
			deaths[kill] = true
		case guarded || saved:
			// canceled
		default:
			deaths[kill] = true
		}
	}

	if a.WitchPoison != nil && !seatEq(seats.Witcher, *a.WitchPoison) {
		deaths[*a.WitchPoison] = true
	}

	if seats.WolfQueen != nil && deaths[*seats.WolfQueen] && a.WolfQueenCharm != nil {
		deaths[*a.WolfQueenCharm] = true
	}

	if seats.Dreamcatcher != nil && deaths[*seats.Dreamcatcher] && a.DreamTarget != nil {
		deaths[*a.DreamTarget] = true
	}

	if a.MagicianSwap != nil {
		first, second := a.MagicianSwap.First, a.MagicianSwap.Second
		if deaths[first] != deaths[second] {
			if deaths[first] {
				delete(deaths, first)
				deaths[second] = true
			} else {
				delete(deaths, second)
				deaths[first] = true
			}
		}
	}

	return sortedSeats(deaths)
}
