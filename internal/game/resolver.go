package game

import "fmt"

// Rejection reasons surfaced to players. The UI mirrors these checks off the
// schema to disable seats early, but still forwards every tap; the
// coordinator stays authoritative.
const (
	ReasonNotSelf          = "不能选择自己"
	ReasonInvalidTarget    = "无效目标"
	ReasonSwapSameSeat     = "不能交换相同座位"
	ReasonSkipNotAllowed   = "本回合必须选择目标"
	ReasonSpiritKnightSelf = "恶灵骑士不能投自己"
	ReasonNightmareBlocked = "你被梦魇封锁，本回合只能跳过"
)

// ActionKind tags the normalized role action variants.
type ActionKind string

const (
	ActionTarget ActionKind = "target"
	ActionWitch  ActionKind = "witch"
	ActionSwap   ActionKind = "swap"
)

// WitchChoice is the witch's compound decision. A nil field means the potion
// was not used.
type WitchChoice struct {
	Save   *int
	Poison *int
}

// RoleAction is the recorded, semantically-decoded action of one role.
type RoleAction struct {
	Kind   ActionKind
	Target *int
	Witch  *WitchChoice
	Swap   *SwapPair
}

// ActionInput is a proposed action after wire decoding. Swap is populated by
// the coordinator from the legacy encoded target; Save/Poison come from the
// extra payload.
type ActionInput struct {
	Target *int
	Swap   *SwapPair
	Save   *int
	Poison *int
}

// IsSkip reports whether the input carries nothing at all.
func (in ActionInput) IsSkip() bool {
	return in.Target == nil && in.Swap == nil && in.Save == nil && in.Poison == nil
}

// Verdict is the resolver's accept/reject decision.
type Verdict struct {
	Valid  bool
	Reason string
	Effect *RoleAction
}

func reject(reason string) Verdict {
	return Verdict{Reason: reason}
}

func accept(effect *RoleAction) Verdict {
	return Verdict{Valid: true, Effect: effect}
}

// ResolveContext is everything the resolver needs beyond the input itself.
// SeatRoles is the post-swap seat -> role map for target-based rules.
type ResolveContext struct {
	Schema    StepSchema
	ActorSeat int
	ActorRole RoleID
	SeatRoles map[int]RoleID
	NumSeats  int
}

func (c ResolveContext) validSeat(seat int) bool {
	return seat >= 0 && seat < c.NumSeats
}

// Resolve validates a proposed input against the step schema and produces
// the normalized effect on acceptance. Schema constraints are the single
// source of truth; there are no per-role special cases here beyond the
// spirit-knight meeting rule.
func Resolve(ctx ResolveContext, in ActionInput) Verdict {
	switch ctx.Schema.Kind {
	case SchemaChooseSeat:
		return resolveChooseSeat(ctx, in)
	case SchemaSwap:
		return resolveSwap(ctx, in)
	case SchemaWolfVote:
		return resolveWolfVote(ctx, in)
	case SchemaCompound:
		return resolveCompound(ctx, in)
	}
	return reject(ReasonInvalidTarget)
}

func resolveChooseSeat(ctx ResolveContext, in ActionInput) Verdict {
	if in.Target == nil {
		if !ctx.Schema.AllowSkip {
			return reject(ReasonSkipNotAllowed)
		}
		return accept(&RoleAction{Kind: ActionTarget})
	}
	t := *in.Target
	if !ctx.validSeat(t) {
		return reject(ReasonInvalidTarget)
	}
	if ctx.Schema.Has(ConstraintNotSelf) && t == ctx.ActorSeat {
		return reject(ReasonNotSelf)
	}
	return accept(&RoleAction{Kind: ActionTarget, Target: in.Target})
}

func resolveSwap(ctx ResolveContext, in ActionInput) Verdict {
	if in.Swap == nil {
		return reject(ReasonSkipNotAllowed)
	}
	pair := *in.Swap
	if !ctx.validSeat(pair.First) || !ctx.validSeat(pair.Second) {
		return reject(ReasonInvalidTarget)
	}
	if pair.First == pair.Second {
		return reject(ReasonSwapSameSeat)
	}
	if ctx.Schema.Has(ConstraintNotSelf) && pair.Contains(ctx.ActorSeat) {
		return reject(ReasonNotSelf)
	}
	return accept(&RoleAction{Kind: ActionSwap, Swap: &pair})
}

// resolveWolfVote is neutral: any seat, self included, except the
// actor-specific spirit-knight rule and the meeting's forbidden target roles.
// The "immune to wolf kill" UI filter is deliberately not enforced here.
func resolveWolfVote(ctx ResolveContext, in ActionInput) Verdict {
	if in.Target == nil {
		return reject(ReasonSkipNotAllowed)
	}
	t := *in.Target
	if t == AbstainVote {
		return accept(&RoleAction{Kind: ActionTarget, Target: in.Target})
	}
	if !ctx.validSeat(t) {
		return reject(ReasonInvalidTarget)
	}
	if ctx.ActorRole == RoleSpiritKnight && t == ctx.ActorSeat {
		return reject(ReasonSpiritKnightSelf)
	}
	if ctx.Schema.Meeting != nil {
		targetRole := ctx.SeatRoles[t]
		for _, forbidden := range ctx.Schema.Meeting.ForbiddenTargets {
			if targetRole == forbidden {
				return reject(fmt.Sprintf("不能投%s", MustSpec(forbidden).DisplayName))
			}
		}
	}
	return accept(&RoleAction{Kind: ActionTarget, Target: in.Target})
}

func resolveCompound(ctx ResolveContext, in ActionInput) Verdict {
	if in.Save == nil && in.Poison == nil {
		if !ctx.Schema.AllowSkip {
			return reject(ReasonSkipNotAllowed)
		}
		return accept(&RoleAction{Kind: ActionWitch, Witch: &WitchChoice{}})
	}
	choice := &WitchChoice{}
	for _, sub := range ctx.Schema.Steps {
		var target *int
		switch sub.Name {
		case "save":
			target = in.Save
		case "poison":
			target = in.Poison
		}
		if target == nil {
			continue
		}
		if !ctx.validSeat(*target) {
			return reject(ReasonInvalidTarget)
		}
		for _, c := range sub.Constraints {
			if c == ConstraintNotSelf && *target == ctx.ActorSeat {
				return reject(ReasonNotSelf)
			}
		}
		switch sub.Name {
		case "save":
			choice.Save = target
		case "poison":
			choice.Poison = target
		}
	}
	return accept(&RoleAction{Kind: ActionWitch, Witch: choice})
}
