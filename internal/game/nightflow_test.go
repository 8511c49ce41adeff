package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planFor(t *testing.T, roles ...RoleID) []NightStep {
	t.Helper()
	plan := BuildNightPlan(roles)
	require.NotEmpty(t, plan)
	return plan
}

func TestNightFlow_HappyPathSingleStep(t *testing.T) {
	flow := NewNightFlow(planFor(t, RoleSeer, RoleVillager))

	require.NoError(t, flow.Dispatch(EventStartNight))
	assert.Equal(t, PhaseNightBeginAudio, flow.Phase())

	require.NoError(t, flow.Dispatch(EventNightBeginAudioDone))
	assert.Equal(t, PhaseRoleBeginAudio, flow.Phase())
	assert.Equal(t, RoleSeer, flow.CurrentRole())

	require.NoError(t, flow.Dispatch(EventRoleBeginAudioDone))
	assert.Equal(t, PhaseWaitingForAction, flow.Phase())

	require.NoError(t, flow.Dispatch(EventActionSubmitted))
	assert.Equal(t, PhaseRoleEndAudio, flow.Phase())

	require.NoError(t, flow.Dispatch(EventRoleEndAudioDone))
	assert.Equal(t, PhaseNightEndAudio, flow.Phase())

	require.NoError(t, flow.Dispatch(EventNightEndAudioDone))
	assert.Equal(t, PhaseEnded, flow.Phase())
}

func TestNightFlow_StepsAdvanceInGlobalOrder(t *testing.T) {
	flow := NewNightFlow(planFor(t, RoleWolf, RoleSeer, RoleWitch, RoleVillager))

	require.NoError(t, flow.Dispatch(EventStartNight))
	require.NoError(t, flow.Dispatch(EventNightBeginAudioDone))
	assert.Equal(t, RoleWolf, flow.CurrentRole())

	require.NoError(t, flow.Dispatch(EventRoleBeginAudioDone))
	require.NoError(t, flow.Dispatch(EventActionSubmitted))
	require.NoError(t, flow.Dispatch(EventRoleEndAudioDone))
	assert.Equal(t, 1, flow.CurrentStepIndex())
	assert.Equal(t, RoleWitch, flow.CurrentRole())

	require.NoError(t, flow.Dispatch(EventRoleBeginAudioDone))
	require.NoError(t, flow.Dispatch(EventActionSubmitted))
	require.NoError(t, flow.Dispatch(EventRoleEndAudioDone))
	assert.Equal(t, RoleSeer, flow.CurrentRole())
}

func TestNightFlow_EmptyPlanSkipsStraightToNightEnd(t *testing.T) {
	flow := NewNightFlow(BuildNightPlan([]RoleID{RoleVillager, RoleVillager}))

	require.NoError(t, flow.Dispatch(EventStartNight))
	require.NoError(t, flow.Dispatch(EventNightBeginAudioDone))
	assert.Equal(t, PhaseNightEndAudio, flow.Phase())
}

func TestNightFlow_WrongPhaseEventIsIdempotentNoop(t *testing.T) {
	flow := NewNightFlow(planFor(t, RoleSeer, RoleWolf))
	require.NoError(t, flow.Dispatch(EventStartNight))
	require.NoError(t, flow.Dispatch(EventNightBeginAudioDone))
	require.NoError(t, flow.Dispatch(EventRoleBeginAudioDone))

	index := flow.CurrentStepIndex()
	phase := flow.Phase()

	// Duplicate audio callbacks must not move the machine.
	err := flow.Dispatch(EventRoleEndAudioDone)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, index, flow.CurrentStepIndex())
	assert.Equal(t, phase, flow.Phase())

	err = flow.Dispatch(EventNightEndAudioDone)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, index, flow.CurrentStepIndex())
	assert.Equal(t, phase, flow.Phase())
}

func TestNightFlow_ResetFromAnyPhase(t *testing.T) {
	flow := NewNightFlow(planFor(t, RoleSeer))
	require.NoError(t, flow.Dispatch(EventStartNight))
	require.NoError(t, flow.Dispatch(EventNightBeginAudioDone))

	require.NoError(t, flow.Dispatch(EventReset))
	assert.Equal(t, PhaseIdle, flow.Phase())
	assert.Equal(t, 0, flow.CurrentStepIndex())
	assert.Empty(t, flow.Trace())
}

func TestNightFlow_RecordActionOnlyWhileWaiting(t *testing.T) {
	flow := NewNightFlow(planFor(t, RoleSeer))
	require.NoError(t, flow.Dispatch(EventStartNight))

	target := 2
	err := flow.RecordAction(RoleSeer, &target)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, flow.Dispatch(EventNightBeginAudioDone))
	require.NoError(t, flow.Dispatch(EventRoleBeginAudioDone))

	err = flow.RecordAction(RoleWitch, &target)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, flow.RecordAction(RoleSeer, &target))
	require.Len(t, flow.Trace(), 1)
	assert.Equal(t, RoleSeer, flow.Trace()[0].Role)
}

func TestBuildNightPlan_KeepsGlobalOrderSubsequence(t *testing.T) {
	plan := BuildNightPlan([]RoleID{RoleVillager, RoleSeer, RoleWolf, RoleMagician, RoleWitch})

	var ids []string
	for _, step := range plan {
		ids = append(ids, step.StepID)
	}
	assert.Equal(t, []string{StepMagicianSwap, StepWolfKill, StepWitchPotion, StepSeerCheck}, ids)
}

func TestBuildNightPlan_VillagerOnlyTemplateHasNoSteps(t *testing.T) {
	assert.Empty(t, BuildNightPlan([]RoleID{RoleVillager, RoleVillager, RoleWitcher, RoleSpiritKnight}))
}
