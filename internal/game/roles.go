package game

// RoleID identifies a role in the static registry.
type RoleID string

const (
	RoleWolf         RoleID = "wolf"
	RoleWolfQueen    RoleID = "wolfQueen"
	RoleNightmare    RoleID = "nightmare"
	RoleSpiritKnight RoleID = "spiritKnight"
	RoleGargoyle     RoleID = "gargoyle"
	RoleWolfRobot    RoleID = "wolfRobot"
	RoleSeer         RoleID = "seer"
	RoleWitch        RoleID = "witch"
	RoleGuard        RoleID = "guard"
	RolePsychic      RoleID = "psychic"
	RoleDreamcatcher RoleID = "dreamcatcher"
	RoleWitcher      RoleID = "witcher"
	RoleMagician     RoleID = "magician"
	RoleVillager     RoleID = "villager"
)

// Faction groups roles for board composition.
type Faction string

const (
	FactionWolf     Faction = "wolf"
	FactionGod      Faction = "god"
	FactionSpecial  Faction = "special"
	FactionVillager Faction = "villager"
)

// Team labels used for seer results.
const (
	TeamLabelWolf = "狼人"
	TeamLabelGood = "好人"
)

// RoleSpec is the static description of one role. Specs are the single source
// of truth; resolver and UI logic read from them.
type RoleSpec struct {
	ID                     RoleID
	DisplayName            string
	Faction                Faction
	TeamLabel              string
	CanSeeWolves           bool
	ParticipatesInWolfVote bool
}

var roleSpecs = map[RoleID]RoleSpec{
	RoleWolf:         {ID: RoleWolf, DisplayName: "狼人", Faction: FactionWolf, TeamLabel: TeamLabelWolf, CanSeeWolves: true, ParticipatesInWolfVote: true},
	RoleWolfQueen:    {ID: RoleWolfQueen, DisplayName: "狼美人", Faction: FactionWolf, TeamLabel: TeamLabelWolf, CanSeeWolves: true, ParticipatesInWolfVote: true},
	RoleNightmare:    {ID: RoleNightmare, DisplayName: "梦魇", Faction: FactionWolf, TeamLabel: TeamLabelWolf, CanSeeWolves: true, ParticipatesInWolfVote: true},
	RoleSpiritKnight: {ID: RoleSpiritKnight, DisplayName: "恶灵骑士", Faction: FactionWolf, TeamLabel: TeamLabelWolf, CanSeeWolves: true, ParticipatesInWolfVote: true},
	RoleGargoyle:     {ID: RoleGargoyle, DisplayName: "石像鬼", Faction: FactionWolf, TeamLabel: TeamLabelWolf},
	RoleWolfRobot:    {ID: RoleWolfRobot, DisplayName: "机械狼", Faction: FactionWolf, TeamLabel: TeamLabelWolf},
	RoleSeer:         {ID: RoleSeer, DisplayName: "预言家", Faction: FactionGod, TeamLabel: TeamLabelGood},
	RoleWitch:        {ID: RoleWitch, DisplayName: "女巫", Faction: FactionGod, TeamLabel: TeamLabelGood},
	RoleGuard:        {ID: RoleGuard, DisplayName: "守卫", Faction: FactionGod, TeamLabel: TeamLabelGood},
	RolePsychic:      {ID: RolePsychic, DisplayName: "通灵师", Faction: FactionGod, TeamLabel: TeamLabelGood},
	RoleDreamcatcher: {ID: RoleDreamcatcher, DisplayName: "摄梦人", Faction: FactionGod, TeamLabel: TeamLabelGood},
	RoleWitcher:      {ID: RoleWitcher, DisplayName: "猎魔人", Faction: FactionGod, TeamLabel: TeamLabelGood},
	RoleMagician:     {ID: RoleMagician, DisplayName: "魔术师", Faction: FactionGod, TeamLabel: TeamLabelGood},
	RoleVillager:     {ID: RoleVillager, DisplayName: "村民", Faction: FactionVillager, TeamLabel: TeamLabelGood},
}

// Spec returns the static spec for a role. Unknown roles return a zero spec
// with ok=false; callers treat those as protocol errors.
func Spec(id RoleID) (RoleSpec, bool) {
	s, ok := roleSpecs[id]
	return s, ok
}

// MustSpec is Spec for roles already validated against the registry.
func MustSpec(id RoleID) RoleSpec {
	return roleSpecs[id]
}

// KnownRole reports whether id is in the registry.
func KnownRole(id RoleID) bool {
	_, ok := roleSpecs[id]
	return ok
}

// IsWolfFaction reports whether the role sits on the wolf side of the board.
func IsWolfFaction(id RoleID) bool {
	return roleSpecs[id].Faction == FactionWolf
}

// RevealRoles act, then wait for an explicit ack of their private reveal
// before the night advances.
var revealRoles = map[RoleID]bool{
	RoleSeer:      true,
	RolePsychic:   true,
	RoleGargoyle:  true,
	RoleWolfRobot: true,
}

// IsRevealRole reports whether a role's action produces a private reveal.
func IsRevealRole(id RoleID) bool {
	return revealRoles[id]
}

// ============================================================================
// SCHEMAS AND THE NIGHT PLAN
// ============================================================================

// SchemaKind enumerates the shapes of valid step inputs.
type SchemaKind string

const (
	SchemaChooseSeat SchemaKind = "chooseSeat"
	SchemaSwap       SchemaKind = "swap"
	SchemaWolfVote   SchemaKind = "wolfVote"
	SchemaCompound   SchemaKind = "compound"
)

// Constraint restricts valid targets for a step or sub-step.
type Constraint string

const (
	ConstraintNotSelf Constraint = "notSelf"
)

// MeetingConfig configures a wolfVote step.
type MeetingConfig struct {
	CanSeeEachOther bool
	// ForbiddenTargets are roles that the meeting vote must not target.
	ForbiddenTargets []RoleID
}

// SubStep is one leg of a compound schema.
type SubStep struct {
	Name        string
	Constraints []Constraint
}

// StepSchema enumerates the shape of valid inputs for one night step.
type StepSchema struct {
	Kind        SchemaKind
	Constraints []Constraint
	// AllowSkip permits a null target (beyond the nightmare-block skip,
	// which is always legal for the blocked actor).
	AllowSkip bool
	Meeting   *MeetingConfig
	Steps     []SubStep
}

// Has reports whether the schema carries the constraint.
func (s StepSchema) Has(c Constraint) bool {
	for _, have := range s.Constraints {
		if have == c {
			return true
		}
	}
	return false
}

// NightStep is one entry in the ordered night plan.
type NightStep struct {
	StepID string
	Role   RoleID
	Schema StepSchema
}

// Step ids, also carried in ROLE_TURN announcements.
const (
	StepMagicianSwap   = "magicianSwap"
	StepNightmareBlock = "nightmareBlock"
	StepGuardProtect   = "guardProtect"
	StepDreamDream     = "dreamcatcherDream"
	StepWolfKill       = "wolfKill"
	StepWolfQueenCharm = "wolfQueenCharm"
	StepWitchPotion    = "witchPotion"
	StepSeerCheck      = "seerCheck"
	StepPsychicCommune = "psychicCommune"
	StepGargoyleGaze   = "gargoyleGaze"
	StepWolfRobotScan  = "wolfRobotScan"
)

// nightOrder is the globally-ordered list of first-night steps. A template's
// night plan keeps the subsequence whose role is present in the template.
var nightOrder = []NightStep{
	{StepID: StepMagicianSwap, Role: RoleMagician, Schema: StepSchema{
		Kind:        SchemaSwap,
		Constraints: []Constraint{ConstraintNotSelf},
	}},
	{StepID: StepNightmareBlock, Role: RoleNightmare, Schema: StepSchema{
		Kind:        SchemaChooseSeat,
		Constraints: []Constraint{ConstraintNotSelf},
	}},
	{StepID: StepGuardProtect, Role: RoleGuard, Schema: StepSchema{
		Kind:      SchemaChooseSeat,
		AllowSkip: true,
	}},
	{StepID: StepDreamDream, Role: RoleDreamcatcher, Schema: StepSchema{
		Kind:        SchemaChooseSeat,
		Constraints: []Constraint{ConstraintNotSelf},
	}},
	{StepID: StepWolfKill, Role: RoleWolf, Schema: StepSchema{
		Kind: SchemaWolfVote,
		Meeting: &MeetingConfig{
			CanSeeEachOther:  true,
			ForbiddenTargets: []RoleID{RoleWolfQueen, RoleSpiritKnight},
		},
	}},
	{StepID: StepWolfQueenCharm, Role: RoleWolfQueen, Schema: StepSchema{
		Kind:        SchemaChooseSeat,
		Constraints: []Constraint{ConstraintNotSelf},
	}},
	{StepID: StepWitchPotion, Role: RoleWitch, Schema: StepSchema{
		Kind:      SchemaCompound,
		AllowSkip: true,
		Steps: []SubStep{
			{Name: "save", Constraints: []Constraint{ConstraintNotSelf}},
			{Name: "poison"},
		},
	}},
	{StepID: StepSeerCheck, Role: RoleSeer, Schema: StepSchema{
		Kind:        SchemaChooseSeat,
		Constraints: []Constraint{ConstraintNotSelf},
	}},
	{StepID: StepPsychicCommune, Role: RolePsychic, Schema: StepSchema{
		Kind:        SchemaChooseSeat,
		Constraints: []Constraint{ConstraintNotSelf},
	}},
	{StepID: StepGargoyleGaze, Role: RoleGargoyle, Schema: StepSchema{
		Kind:        SchemaChooseSeat,
		Constraints: []Constraint{ConstraintNotSelf},
	}},
	{StepID: StepWolfRobotScan, Role: RoleWolfRobot, Schema: StepSchema{
		Kind: SchemaChooseSeat,
	}},
}

// NightOrder returns a copy of the global step ordering.
func NightOrder() []NightStep {
	out := make([]NightStep, len(nightOrder))
	copy(out, nightOrder)
	return out
}

// BuildNightPlan derives the immutable night plan for a template: the ordered
// subsequence of nightOrder whose role appears in the template.
func BuildNightPlan(template []RoleID) []NightStep {
	present := make(map[RoleID]bool, len(template))
	for _, r := range template {
		present[r] = true
	}
	var plan []NightStep
	for _, step := range nightOrder {
		if present[step.Role] {
			plan = append(plan, step)
		}
	}
	return plan
}
