package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seat(n int) *int { return &n }

func TestComputeNightDeaths_PlainKill(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{WolfKill: seat(3)}, RoleSeatMap{})
	assert.Equal(t, []int{3}, deaths)
}

func TestComputeNightDeaths_EmptyKnife(t *testing.T) {
	assert.Empty(t, ComputeNightDeaths(NightActions{}, RoleSeatMap{}))

	knife := AbstainVote
	assert.Empty(t, ComputeNightDeaths(NightActions{WolfKill: &knife}, RoleSeatMap{}))
}

func TestComputeNightDeaths_GuardCancelsKill(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:     seat(3),
		GuardProtect: seat(3),
	}, RoleSeatMap{})
	assert.Empty(t, deaths)
}

func TestComputeNightDeaths_WitchSaveCancelsKill(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:  seat(3),
		WitchSave: seat(3),
	}, RoleSeatMap{})
	assert.Empty(t, deaths)
}

func TestComputeNightDeaths_DoubleSaveDies(t *testing.T) {
	// 同守同救必死
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:     seat(3),
		GuardProtect: seat(3),
		WitchSave:    seat(3),
	}, RoleSeatMap{})
	assert.Equal(t, []int{3}, deaths)
}

func TestComputeNightDeaths_PoisonAlwaysLands(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WitchPoison: seat(5),
	}, RoleSeatMap{})
	assert.Equal(t, []int{5}, deaths)
}

func TestComputeNightDeaths_WitcherIsPoisonImmune(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WitchPoison: seat(5),
	}, RoleSeatMap{Witcher: seat(5)})
	assert.Empty(t, deaths)
}

func TestComputeNightDeaths_NightmareBlockedWolfMeansNoKill(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:             seat(2),
		NightmareBlockedWolf: true,
	}, RoleSeatMap{})
	assert.Empty(t, deaths)
}

func TestComputeNightDeaths_WolfQueenTakesCharmAlong(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:       seat(4),
		WitchPoison:    seat(4),
		WolfQueenCharm: seat(1),
	}, RoleSeatMap{WolfQueen: seat(4)})
	assert.Equal(t, []int{1, 4}, deaths)
}

func TestComputeNightDeaths_CharmSurvivesWhenQueenDoes(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:       seat(2),
		WolfQueenCharm: seat(1),
	}, RoleSeatMap{WolfQueen: seat(4)})
	assert.Equal(t, []int{2}, deaths)
}

func TestComputeNightDeaths_DreamTargetImmuneToKnife(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:    seat(6),
		DreamTarget: seat(6),
	}, RoleSeatMap{Dreamcatcher: seat(2)})
	assert.Empty(t, deaths)
}

func TestComputeNightDeaths_DyingDreamcatcherTakesDreamTarget(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:    seat(2),
		DreamTarget: seat(6),
	}, RoleSeatMap{Dreamcatcher: seat(2)})
	assert.Equal(t, []int{2, 6}, deaths)
}

func TestComputeNightDeaths_MagicianSwapMovesDeath(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:     seat(2),
		MagicianSwap: &SwapPair{First: 2, Second: 3},
	}, RoleSeatMap{})
	assert.Equal(t, []int{3}, deaths)
}

func TestComputeNightDeaths_SwapNoopWhenBothOrNeitherDying(t *testing.T) {
	both := ComputeNightDeaths(NightActions{
		WolfKill:     seat(2),
		WitchPoison:  seat(3),
		MagicianSwap: &SwapPair{First: 2, Second: 3},
	}, RoleSeatMap{})
	assert.Equal(t, []int{2, 3}, both)

	neither := ComputeNightDeaths(NightActions{
		WolfKill:     seat(7),
		MagicianSwap: &SwapPair{First: 2, Second: 3},
	}, RoleSeatMap{})
	assert.Equal(t, []int{7}, neither)
}

func TestComputeNightDeaths_ResultIsSortedAscending(t *testing.T) {
	deaths := ComputeNightDeaths(NightActions{
		WolfKill:    seat(9),
		WitchPoison: seat(1),
	}, RoleSeatMap{})
	assert.Equal(t, []int{1, 9}, deaths)
}
