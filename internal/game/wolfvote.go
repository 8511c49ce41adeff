package game

import "sort"

// AbstainVote is the explicit "empty knife" sentinel on the wire.
const AbstainVote = -1

// ResolveWolfVotes maps wolf seat -> target seat to the final kill target.
// Abstentions (-1) are discarded; no remaining votes or a tie at the top
// yields nil (empty knife), otherwise the unique plurality winner.
func ResolveWolfVotes(votes map[int]int) *int {
	tally := make(map[int]int)
	for _, target := range votes {
		if target == AbstainVote {
			continue
		}
		tally[target]++
	}
	if len(tally) == 0 {
		return nil
	}

	max := 0
	for _, n := range tally {
		if n > max {
			max = n
		}
	}

	var leaders []int
	for target, n := range tally {
		if n == max {
			leaders = append(leaders, target)
		}
	}
	if len(leaders) != 1 {
		return nil
	}

	winner := leaders[0]
	return &winner
}

// sortedSeats turns a death set into the sorted slice the protocol carries.
func sortedSeats(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for seat := range set {
		out = append(out, seat)
	}
	sort.Ints(out)
	return out
}
