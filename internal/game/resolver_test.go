package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func target(n int) *int { return &n }

func chooseCtx(schema StepSchema, actorSeat int, actorRole RoleID) ResolveContext {
	return ResolveContext{
		Schema:    schema,
		ActorSeat: actorSeat,
		ActorRole: actorRole,
		SeatRoles: map[int]RoleID{},
		NumSeats:  9,
	}
}

// The standing schema/resolver alignment invariant: for every schema whose
// constraints contain notSelf the resolver rejects self-target, and for
// every schema without it the resolver accepts self-target.
func TestResolverSchemaAlignment_SelfTarget(t *testing.T) {
	for _, step := range NightOrder() {
		step := step
		t.Run(step.StepID, func(t *testing.T) {
			const actorSeat = 3
			ctx := ResolveContext{
				Schema:    step.Schema,
				ActorSeat: actorSeat,
				ActorRole: step.Role,
				SeatRoles: map[int]RoleID{actorSeat: step.Role},
				NumSeats:  9,
			}

			var in ActionInput
			switch step.Schema.Kind {
			case SchemaSwap:
				in = ActionInput{Swap: &SwapPair{First: actorSeat, Second: 5}}
			case SchemaCompound:
				in = ActionInput{Save: target(actorSeat)}
			default:
				in = ActionInput{Target: target(actorSeat)}
			}

			verdict := Resolve(ctx, in)
			if step.Schema.Has(ConstraintNotSelf) ||
				(step.Schema.Kind == SchemaCompound && len(step.Schema.Steps) > 0 && step.Schema.Steps[0].Constraints != nil) {
				assert.False(t, verdict.Valid, "schema with notSelf must reject self-target")
				assert.Equal(t, ReasonNotSelf, verdict.Reason)
			} else {
				assert.True(t, verdict.Valid, "schema without notSelf must accept self-target: %s", verdict.Reason)
			}
		})
	}
}

func TestResolveChooseSeat_ValidTarget(t *testing.T) {
	schema := StepSchema{Kind: SchemaChooseSeat, Constraints: []Constraint{ConstraintNotSelf}}
	verdict := Resolve(chooseCtx(schema, 0, RoleSeer), ActionInput{Target: target(4)})
	require.True(t, verdict.Valid)
	require.NotNil(t, verdict.Effect)
	assert.Equal(t, ActionTarget, verdict.Effect.Kind)
	assert.Equal(t, 4, *verdict.Effect.Target)
}

func TestResolveChooseSeat_OutOfRange(t *testing.T) {
	schema := StepSchema{Kind: SchemaChooseSeat}
	for _, bad := range []int{-2, 9, 100} {
		verdict := Resolve(chooseCtx(schema, 0, RoleSeer), ActionInput{Target: target(bad)})
		assert.False(t, verdict.Valid, "seat %d", bad)
		assert.Equal(t, ReasonInvalidTarget, verdict.Reason)
	}
}

func TestResolveChooseSeat_SkipRules(t *testing.T) {
	mustPick := StepSchema{Kind: SchemaChooseSeat}
	verdict := Resolve(chooseCtx(mustPick, 0, RoleSeer), ActionInput{})
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonSkipNotAllowed, verdict.Reason)

	skippable := StepSchema{Kind: SchemaChooseSeat, AllowSkip: true}
	verdict = Resolve(chooseCtx(skippable, 0, RoleGuard), ActionInput{})
	require.True(t, verdict.Valid)
	assert.Nil(t, verdict.Effect.Target)
}

func TestResolveSwap_Validation(t *testing.T) {
	schema := StepSchema{Kind: SchemaSwap, Constraints: []Constraint{ConstraintNotSelf}}

	verdict := Resolve(chooseCtx(schema, 0, RoleMagician), ActionInput{Swap: &SwapPair{First: 2, Second: 2}})
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonSwapSameSeat, verdict.Reason)

	verdict = Resolve(chooseCtx(schema, 0, RoleMagician), ActionInput{Swap: &SwapPair{First: 0, Second: 3}})
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonNotSelf, verdict.Reason)

	verdict = Resolve(chooseCtx(schema, 0, RoleMagician), ActionInput{Swap: &SwapPair{First: 2, Second: 12}})
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonInvalidTarget, verdict.Reason)

	verdict = Resolve(chooseCtx(schema, 0, RoleMagician), ActionInput{Swap: &SwapPair{First: 2, Second: 3}})
	require.True(t, verdict.Valid)
	assert.Equal(t, ActionSwap, verdict.Effect.Kind)
}

func wolfMeetingSchema() StepSchema {
	for _, step := range NightOrder() {
		if step.StepID == StepWolfKill {
			return step.Schema
		}
	}
	panic("wolf kill step missing from night order")
}

func TestResolveWolfVote_NeutralAllowsSelf(t *testing.T) {
	ctx := ResolveContext{
		Schema:    wolfMeetingSchema(),
		ActorSeat: 2,
		ActorRole: RoleWolf,
		SeatRoles: map[int]RoleID{2: RoleWolf},
		NumSeats:  9,
	}
	verdict := Resolve(ctx, ActionInput{Target: target(2)})
	assert.True(t, verdict.Valid)
}

func TestResolveWolfVote_SpiritKnightCannotVoteSelf(t *testing.T) {
	ctx := ResolveContext{
		Schema:    wolfMeetingSchema(),
		ActorSeat: 2,
		ActorRole: RoleSpiritKnight,
		SeatRoles: map[int]RoleID{2: RoleSpiritKnight},
		NumSeats:  9,
	}
	verdict := Resolve(ctx, ActionInput{Target: target(2)})
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonSpiritKnightSelf, verdict.Reason)

	// Other seats remain fair game for the knight.
	verdict = Resolve(ctx, ActionInput{Target: target(4)})
	assert.True(t, verdict.Valid)
}

func TestResolveWolfVote_ForbiddenMeetingTargets(t *testing.T) {
	ctx := ResolveContext{
		Schema:    wolfMeetingSchema(),
		ActorSeat: 1,
		ActorRole: RoleWolf,
		SeatRoles: map[int]RoleID{5: RoleWolfQueen, 6: RoleSpiritKnight, 7: RoleVillager},
		NumSeats:  9,
	}

	verdict := Resolve(ctx, ActionInput{Target: target(5)})
	assert.False(t, verdict.Valid)
	assert.Equal(t, fmt.Sprintf("不能投%s", MustSpec(RoleWolfQueen).DisplayName), verdict.Reason)

	verdict = Resolve(ctx, ActionInput{Target: target(6)})
	assert.False(t, verdict.Valid)
	assert.Equal(t, fmt.Sprintf("不能投%s", MustSpec(RoleSpiritKnight).DisplayName), verdict.Reason)

	verdict = Resolve(ctx, ActionInput{Target: target(7)})
	assert.True(t, verdict.Valid)
}

func TestResolveWolfVote_AbstainAlwaysAllowed(t *testing.T) {
	ctx := ResolveContext{
		Schema:    wolfMeetingSchema(),
		ActorSeat: 2,
		ActorRole: RoleSpiritKnight,
		SeatRoles: map[int]RoleID{},
		NumSeats:  9,
	}
	knife := AbstainVote
	verdict := Resolve(ctx, ActionInput{Target: &knife})
	require.True(t, verdict.Valid)
	assert.Equal(t, AbstainVote, *verdict.Effect.Target)
}

func witchSchema() StepSchema {
	for _, step := range NightOrder() {
		if step.StepID == StepWitchPotion {
			return step.Schema
		}
	}
	panic("witch step missing from night order")
}

func TestResolveCompound_WitchSaveHasNotSelf(t *testing.T) {
	ctx := chooseCtx(witchSchema(), 3, RoleWitch)

	verdict := Resolve(ctx, ActionInput{Save: target(3)})
	assert.False(t, verdict.Valid)
	assert.Equal(t, ReasonNotSelf, verdict.Reason)

	verdict = Resolve(ctx, ActionInput{Save: target(5)})
	require.True(t, verdict.Valid)
	require.NotNil(t, verdict.Effect.Witch)
	assert.Equal(t, 5, *verdict.Effect.Witch.Save)
}

func TestResolveCompound_WitchPoisonAllowsSelf(t *testing.T) {
	ctx := chooseCtx(witchSchema(), 3, RoleWitch)
	verdict := Resolve(ctx, ActionInput{Poison: target(3)})
	require.True(t, verdict.Valid)
	assert.Equal(t, 3, *verdict.Effect.Witch.Poison)
}

func TestResolveCompound_SkipIsAllowed(t *testing.T) {
	ctx := chooseCtx(witchSchema(), 3, RoleWitch)
	verdict := Resolve(ctx, ActionInput{})
	require.True(t, verdict.Valid)
	require.NotNil(t, verdict.Effect.Witch)
	assert.Nil(t, verdict.Effect.Witch.Save)
	assert.Nil(t, verdict.Effect.Witch.Poison)
}
