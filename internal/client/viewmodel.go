package client

import (
	"fmt"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/game"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/models"
)

// SeatPlayer is the per-seat player payload the UI renders.
type SeatPlayer struct {
	UID         string
	DisplayName string
	AvatarURL   string
	IsBot       bool
	Role        *string
}

// SeatViewModel is one seat tile. Pure projection; holds no references into
// coordinator state.
type SeatViewModel struct {
	Seat           int
	TemplateRole   string
	Player         *SeatPlayer
	IsMySpot       bool
	IsWolf         bool
	IsSelected     bool
	DisabledReason string
	ShowReadyBadge bool
	WolfVoteTarget *int
}

// ActionerState says whether the viewer acts right now and whether the wolf
// pack is visible to them.
type ActionerState struct {
	ImActioner bool
	ShowWolves bool
}

// DetermineActionerState decides acting rights for the current step.
//
// A viewer whose role matches the current action role acts. During a wolf
// meeting every participating wolf is an actioner (revote allowed) and sees
// the pack when the meeting allows it; non-voting wolves never see the pack
// and never act in the meeting. Outside meetings, a role whose action is
// already recorded is done acting.
func DetermineActionerState(actorRole, currentRole game.RoleID, schema *game.StepSchema, actionRecorded bool) ActionerState {
	if schema == nil || actorRole == "" {
		return ActionerState{}
	}
	spec, ok := game.Spec(actorRole)
	if !ok {
		return ActionerState{}
	}

	if schema.Kind == game.SchemaWolfVote {
		if !spec.ParticipatesInWolfVote {
			return ActionerState{}
		}
		show := schema.Meeting != nil && schema.Meeting.CanSeeEachOther
		return ActionerState{ImActioner: true, ShowWolves: show}
	}

	if actorRole != currentRole {
		return ActionerState{}
	}
	if actionRecorded {
		return ActionerState{}
	}
	return ActionerState{ImActioner: true}
}

// BuildSeatViewModels projects the public snapshot into seat tiles for one
// viewer.
func BuildSeatViewModels(state *models.PublicState, myUID string, schema *game.StepSchema, actioner ActionerState, selected map[int]bool) []SeatViewModel {
	if state == nil {
		return nil
	}

	mySeat := -1
	for seat, slot := range state.Players {
		if slot != nil && slot.UID == myUID {
			mySeat = seat
			break
		}
	}

	tiles := make([]SeatViewModel, len(state.TemplateRoles))
	for seat := range state.TemplateRoles {
		tile := SeatViewModel{
			Seat:         seat,
			TemplateRole: state.TemplateRoles[seat],
			IsMySpot:     seat == mySeat,
			IsSelected:   selected[seat],
		}

		slot := state.Players[seat]
		if slot != nil {
			tile.Player = &SeatPlayer{
				UID:         slot.UID,
				DisplayName: slot.DisplayName,
				AvatarURL:   slot.AvatarURL,
				IsBot:       slot.IsBot,
				Role:        slot.Role,
			}
		}

		// Pack membership reads the assigned role, not the template slot:
		// the deal decides who the wolves are.
		if actioner.ShowWolves && slot != nil && slot.Role != nil {
			if spec, ok := game.Spec(game.RoleID(*slot.Role)); ok {
				tile.IsWolf = spec.Faction == game.FactionWolf && spec.CanSeeWolves
			}
		}

		// Schema constraints are only a UX hint here; the coordinator stays
		// authoritative on the real tap.
		if schema != nil && schema.Has(game.ConstraintNotSelf) && seat == mySeat && actioner.ImActioner {
			tile.DisabledReason = game.ReasonNotSelf
		}

		if slot != nil && slot.Role != nil {
			if spec, ok := game.Spec(game.RoleID(*slot.Role)); ok && spec.ParticipatesInWolfVote {
				if target, voted := state.CurrentNightResults.WolfVotesBySeat[seat]; voted && actioner.ShowWolves {
					t := target
					tile.WolfVoteTarget = &t
				} else if state.WolfVoteStatus[seat] {
					tile.ShowReadyBadge = true
				}
			}
		}

		tiles[seat] = tile
	}
	return tiles
}

// RoleDisplayItem is one chip in the board composition strip.
type RoleDisplayItem struct {
	Role        game.RoleID
	DisplayName string
	Count       int
}

// RoleStats summarizes a template for chip rendering.
type RoleStats struct {
	WolfCount     int
	GodCount      int
	SpecialCount  int
	VillagerCount int
	Items         []RoleDisplayItem
}

// GetRoleStats counts a role list per faction and folds duplicates into
// display chips, preserving first-appearance order.
func GetRoleStats(roles []game.RoleID) RoleStats {
	var stats RoleStats
	index := make(map[game.RoleID]int)
	for _, r := range roles {
		spec, ok := game.Spec(r)
		if !ok {
			continue
		}
		switch spec.Faction {
		case game.FactionWolf:
			stats.WolfCount++
		case game.FactionGod:
			stats.GodCount++
		case game.FactionSpecial:
			stats.SpecialCount++
		case game.FactionVillager:
			stats.VillagerCount++
		}
		if i, seen := index[r]; seen {
			stats.Items[i].Count++
			continue
		}
		index[r] = len(stats.Items)
		stats.Items = append(stats.Items, RoleDisplayItem{
			Role:        r,
			DisplayName: spec.DisplayName,
			Count:       1,
		})
	}
	return stats
}

// GetWolfVoteSummary renders wolf-meeting progress: voted count over the
// seats whose assigned role takes part in the meeting.
func GetWolfVoteSummary(state *models.PublicState) string {
	if state == nil {
		return ""
	}
	total := 0
	for _, slot := range state.Players {
		if slot == nil || slot.Role == nil {
			continue
		}
		if spec, ok := game.Spec(game.RoleID(*slot.Role)); ok && spec.ParticipatesInWolfVote {
			total++
		}
	}
	voted := 0
	for _, hasVoted := range state.WolfVoteStatus {
		if hasVoted {
			voted++
		}
	}
	return fmt.Sprintf("%d/%d 狼人已投票", voted, total)
}
