package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpec_EveryNightStepRoleIsRegistered(t *testing.T) {
	for _, step := range NightOrder() {
		_, ok := Spec(step.Role)
		assert.True(t, ok, "step %s references unregistered role %s", step.StepID, step.Role)
	}
}

func TestSpec_PackVisibilityAndVoting(t *testing.T) {
	// The pack-visible voters.
	for _, r := range []RoleID{RoleWolf, RoleWolfQueen, RoleNightmare, RoleSpiritKnight} {
		spec := MustSpec(r)
		assert.True(t, spec.CanSeeWolves, "%s", r)
		assert.True(t, spec.ParticipatesInWolfVote, "%s", r)
		assert.Equal(t, FactionWolf, spec.Faction)
	}
	// Hidden wolves neither vote nor see the pack.
	for _, r := range []RoleID{RoleGargoyle, RoleWolfRobot} {
		spec := MustSpec(r)
		assert.False(t, spec.CanSeeWolves, "%s", r)
		assert.False(t, spec.ParticipatesInWolfVote, "%s", r)
		assert.Equal(t, FactionWolf, spec.Faction)
	}
}

func TestSpec_SeerLabelsFollowFaction(t *testing.T) {
	assert.Equal(t, TeamLabelWolf, MustSpec(RoleGargoyle).TeamLabel)
	assert.Equal(t, TeamLabelGood, MustSpec(RoleSeer).TeamLabel)
	assert.Equal(t, TeamLabelGood, MustSpec(RoleVillager).TeamLabel)
}

func TestRevealRoles(t *testing.T) {
	for _, r := range []RoleID{RoleSeer, RolePsychic, RoleGargoyle, RoleWolfRobot} {
		assert.True(t, IsRevealRole(r), "%s", r)
	}
	for _, r := range []RoleID{RoleWolf, RoleWitch, RoleMagician, RoleVillager} {
		assert.False(t, IsRevealRole(r), "%s", r)
	}
}

func TestNightOrder_WolfMeetingConfig(t *testing.T) {
	var meeting *MeetingConfig
	for _, step := range NightOrder() {
		if step.StepID == StepWolfKill {
			meeting = step.Schema.Meeting
		}
	}
	require.NotNil(t, meeting)
	assert.True(t, meeting.CanSeeEachOther)
	assert.ElementsMatch(t, []RoleID{RoleWolfQueen, RoleSpiritKnight}, meeting.ForbiddenTargets)
}
