package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/game"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/models"
)

func rolePtr(r game.RoleID) *string {
	s := string(r)
	return &s
}

func meetingSchema() *game.StepSchema {
	for _, step := range game.NightOrder() {
		if step.StepID == game.StepWolfKill {
			schema := step.Schema
			return &schema
		}
	}
	return nil
}

func seerSchema() *game.StepSchema {
	for _, step := range game.NightOrder() {
		if step.StepID == game.StepSeerCheck {
			schema := step.Schema
			return &schema
		}
	}
	return nil
}

func boardState() *models.PublicState {
	return &models.PublicState{
		RoomCode:      "123456",
		Status:        models.StatusOngoing,
		TemplateRoles: []string{"wolf", "wolfQueen", "seer", "gargoyle", "villager"},
		Players: map[int]*models.PublicSlot{
			0: {UID: "u0", SeatNumber: 0, Role: rolePtr(game.RoleWolf)},
			1: {UID: "u1", SeatNumber: 1, Role: rolePtr(game.RoleWolfQueen)},
			2: {UID: "u2", SeatNumber: 2, Role: rolePtr(game.RoleSeer)},
			3: {UID: "u3", SeatNumber: 3, Role: rolePtr(game.RoleGargoyle)},
			4: {UID: "u4", SeatNumber: 4, Role: rolePtr(game.RoleVillager)},
		},
	}
}

func TestDetermineActionerState_MatchingRoleActs(t *testing.T) {
	state := DetermineActionerState(game.RoleSeer, game.RoleSeer, seerSchema(), false)
	assert.True(t, state.ImActioner)
	assert.False(t, state.ShowWolves)
}

func TestDetermineActionerState_RecordedActionEndsTurn(t *testing.T) {
	state := DetermineActionerState(game.RoleSeer, game.RoleSeer, seerSchema(), true)
	assert.False(t, state.ImActioner)
}

func TestDetermineActionerState_MeetingWolvesAllAct(t *testing.T) {
	// Every participating wolf is an actioner during the meeting (revote),
	// and sees the pack when the meeting allows it.
	for _, role := range []game.RoleID{game.RoleWolf, game.RoleWolfQueen, game.RoleNightmare, game.RoleSpiritKnight} {
		state := DetermineActionerState(role, game.RoleWolf, meetingSchema(), false)
		assert.True(t, state.ImActioner, "%s must act in the meeting", role)
		assert.True(t, state.ShowWolves, "%s must see the pack", role)
	}
}

func TestDetermineActionerState_NonVotingWolvesNeverSeePack(t *testing.T) {
	for _, role := range []game.RoleID{game.RoleGargoyle, game.RoleWolfRobot} {
		state := DetermineActionerState(role, game.RoleWolf, meetingSchema(), false)
		assert.False(t, state.ImActioner, "%s must not act in the meeting", role)
		assert.False(t, state.ShowWolves, "%s must not see the pack", role)
	}
}

func TestDetermineActionerState_OtherRolesSitOut(t *testing.T) {
	state := DetermineActionerState(game.RoleSeer, game.RoleWolf, meetingSchema(), false)
	assert.False(t, state.ImActioner)
	assert.False(t, state.ShowWolves)
}

func TestBuildSeatViewModels_WolfBadgesReadAssignedRole(t *testing.T) {
	state := boardState()
	// The template slots disagree with the deal; badges must follow the deal.
	state.TemplateRoles = []string{"villager", "seer", "wolf", "wolfQueen", "gargoyle"}
	tiles := BuildSeatViewModels(state, "u0", meetingSchema(), ActionerState{ImActioner: true, ShowWolves: true}, nil)
	require.Len(t, tiles, 5)

	// Pack-visible wolves: wolf and wolfQueen. The gargoyle hides even from
	// the pack, and good roles never badge.
	assert.True(t, tiles[0].IsWolf)
	assert.True(t, tiles[1].IsWolf)
	assert.False(t, tiles[2].IsWolf)
	assert.False(t, tiles[3].IsWolf)
	assert.False(t, tiles[4].IsWolf)

	assert.True(t, tiles[0].IsMySpot)
	assert.False(t, tiles[1].IsMySpot)
}

func TestBuildSeatViewModels_NoPackVisibilityNoBadges(t *testing.T) {
	tiles := BuildSeatViewModels(boardState(), "u2", seerSchema(), ActionerState{ImActioner: true}, nil)
	for _, tile := range tiles {
		assert.False(t, tile.IsWolf, "seat %d", tile.Seat)
	}
}

func TestBuildSeatViewModels_DisabledReasonFromSchema(t *testing.T) {
	tiles := BuildSeatViewModels(boardState(), "u2", seerSchema(), ActionerState{ImActioner: true}, nil)
	assert.Equal(t, game.ReasonNotSelf, tiles[2].DisabledReason)
	assert.Empty(t, tiles[0].DisabledReason)

	// A spectator gets no disabled hints.
	tiles = BuildSeatViewModels(boardState(), "u4", seerSchema(), ActionerState{}, nil)
	assert.Empty(t, tiles[4].DisabledReason)
}

func TestBuildSeatViewModels_VoteTargetVsReadyBadge(t *testing.T) {
	state := boardState()
	state.WolfVoteStatus = map[int]bool{0: true}
	state.CurrentNightResults.WolfVotesBySeat = map[int]int{0: 4}

	// A pack-visible viewer sees the vote target, not the badge.
	tiles := BuildSeatViewModels(state, "u0", meetingSchema(), ActionerState{ImActioner: true, ShowWolves: true}, nil)
	require.NotNil(t, tiles[0].WolfVoteTarget)
	assert.Equal(t, 4, *tiles[0].WolfVoteTarget)
	assert.False(t, tiles[0].ShowReadyBadge)

	// Everyone else sees only the ready badge.
	tiles = BuildSeatViewModels(state, "u2", meetingSchema(), ActionerState{}, nil)
	assert.Nil(t, tiles[0].WolfVoteTarget)
	assert.True(t, tiles[0].ShowReadyBadge)
}

func TestGetRoleStats_CountsAndChips(t *testing.T) {
	roles := []game.RoleID{game.RoleWolf, game.RoleWolf, game.RoleSeer, game.RoleWitch, game.RoleVillager, game.RoleVillager, game.RoleVillager}
	stats := GetRoleStats(roles)

	assert.Equal(t, 2, stats.WolfCount)
	assert.Equal(t, 2, stats.GodCount)
	assert.Equal(t, 3, stats.VillagerCount)

	require.Len(t, stats.Items, 4)
	assert.Equal(t, game.RoleWolf, stats.Items[0].Role)
	assert.Equal(t, 2, stats.Items[0].Count)
	assert.Equal(t, "狼人", stats.Items[0].DisplayName)
	assert.Equal(t, 3, stats.Items[3].Count)
}

func TestGetWolfVoteSummary(t *testing.T) {
	state := boardState()
	state.WolfVoteStatus = map[int]bool{0: true}

	// wolf and wolfQueen participate; the gargoyle does not.
	assert.Equal(t, "1/2 狼人已投票", GetWolfVoteSummary(state))

	state.WolfVoteStatus[1] = true
	assert.Equal(t, "2/2 狼人已投票", GetWolfVoteSummary(state))
}
