package models

// ============================================================================
// GAME LIFECYCLE
// ============================================================================

// GameStatus is the host-owned lifecycle state of a room.
type GameStatus string

const (
	StatusUnseated GameStatus = "unseated"
	StatusSeated   GameStatus = "seated"
	StatusAssigned GameStatus = "assigned"
	StatusReady    GameStatus = "ready"
	StatusOngoing  GameStatus = "ongoing"
	StatusEnded    GameStatus = "ended"
)

// Ordinal orders statuses for monotonicity checks. Seated/Unseated may toggle
// pre-game, every other move is forward-only (restart excepted).
func (s GameStatus) Ordinal() int {
	switch s {
	case StatusUnseated:
		return 0
	case StatusSeated:
		return 1
	case StatusAssigned:
		return 2
	case StatusReady:
		return 3
	case StatusOngoing:
		return 4
	case StatusEnded:
		return 5
	}
	return -1
}

// ============================================================================
// PUBLIC SNAPSHOT
// ============================================================================

// PublicSlot is what every player sees about one seat.
type PublicSlot struct {
	UID           string  `json:"uid"`
	SeatNumber    int     `json:"seatNumber"`
	DisplayName   string  `json:"displayName,omitempty"`
	AvatarURL     string  `json:"avatarUrl,omitempty"`
	Role          *string `json:"role"`
	HasViewedRole bool    `json:"hasViewedRole"`
	IsBot         bool    `json:"isBot,omitempty"`
}

// NightProgress is per-night derived data published alongside state so
// observers can render progress. Sensitive targets (the final kill) stay in
// private envelopes.
type NightProgress struct {
	WolfVotesBySeat map[int]int `json:"wolfVotesBySeat,omitempty"`
}

// PublicState is the authoritative snapshot broadcast to every player.
type PublicState struct {
	RoomCode             string              `json:"roomCode"`
	HostUID              string              `json:"hostUid"`
	Status               GameStatus          `json:"status"`
	TemplateRoles        []string            `json:"templateRoles"`
	Players              map[int]*PublicSlot `json:"players"`
	CurrentStepIndex     int                 `json:"currentStepIndex"`
	IsAudioPlaying       bool                `json:"isAudioPlaying"`
	WolfVoteStatus       map[int]bool        `json:"wolfVoteStatus,omitempty"`
	NightmareBlockedSeat *int                `json:"nightmareBlockedSeat,omitempty"`
	CurrentNightResults  NightProgress       `json:"currentNightResults"`
}

// ============================================================================
// PUBLIC CHANNEL (host -> everyone)
// ============================================================================

type PublicType string

const (
	PublicStateUpdate      PublicType = "STATE_UPDATE"
	PublicRoleTurn         PublicType = "ROLE_TURN"
	PublicNightEnd         PublicType = "NIGHT_END"
	PublicSeatRejected     PublicType = "SEAT_REJECTED"
	PublicSeatActionAck    PublicType = "SEAT_ACTION_ACK"
	PublicSnapshotResponse PublicType = "SNAPSHOT_RESPONSE"
	PublicGameRestarted    PublicType = "GAME_RESTARTED"
	PublicPrivateEffect    PublicType = "PRIVATE_EFFECT"
)

// RoleTurn announces whose step it is. Carries no sensitive data.
type RoleTurn struct {
	Role         string `json:"role"`
	PendingSeats []int  `json:"pendingSeats"`
	StepID       string `json:"stepId"`
}

// SeatRejected is the public rejection of a JOIN attempt.
type SeatRejected struct {
	Seat       int    `json:"seat"`
	RequestUID string `json:"requestUid"`
	Reason     string `json:"reason"`
}

// SeatActionAck closes the loop on the requestId-based seat protocol.
type SeatActionAck struct {
	RequestID string `json:"requestId"`
	ToUID     string `json:"toUid"`
	Success   bool   `json:"success"`
	Seat      int    `json:"seat"`
	Reason    string `json:"reason,omitempty"`
}

// Seat-action and transport failure reasons surfaced to players.
const (
	ReasonSeatTaken         = "seat_taken"
	ReasonNotSeated         = "not_seated"
	ReasonBadStatus         = "bad_status"
	ReasonTimeoutOrRejected = "timeout_or_rejected"
)

// PublicMessage is the discriminated union carried on the broadcast channel.
// Exactly one payload field matching Type is set.
type PublicMessage struct {
	Type     PublicType `json:"type"`
	Revision uint64     `json:"revision"`

	State        *PublicState   `json:"state,omitempty"`        // STATE_UPDATE, SNAPSHOT_RESPONSE
	RoleTurn     *RoleTurn      `json:"roleTurn,omitempty"`     // ROLE_TURN
	Deaths       []int          `json:"deaths,omitempty"`       // NIGHT_END
	SeatRejected *SeatRejected  `json:"seatRejected,omitempty"` // SEAT_REJECTED
	SeatAck      *SeatActionAck `json:"seatAck,omitempty"`      // SEAT_ACTION_ACK
	RequestID    string         `json:"requestId,omitempty"`    // SNAPSHOT_RESPONSE
	ToUID        string         `json:"toUid,omitempty"`        // SNAPSHOT_RESPONSE
	Private      *PrivateEffect `json:"private,omitempty"`      // PRIVATE_EFFECT
}

// ============================================================================
// PRIVATE ENVELOPES (anti-cheat)
// ============================================================================

type PrivateKind string

const (
	PrivateWitchContext   PrivateKind = "WITCH_CONTEXT"
	PrivateSeerReveal     PrivateKind = "SEER_REVEAL"
	PrivatePsychicReveal  PrivateKind = "PSYCHIC_REVEAL"
	PrivateGargoyleReveal PrivateKind = "GARGOYLE_REVEAL"
	PrivateWolfRobotRev   PrivateKind = "WOLF_ROBOT_REVEAL"
	PrivateActionRejected PrivateKind = "ACTION_REJECTED"
)

// WitchContext tells the witch who was knifed and which potions apply.
type WitchContext struct {
	KilledSeat *int   `json:"killedSeat"`
	CanSave    bool   `json:"canSave"`
	CanPoison  bool   `json:"canPoison"`
	Phase      string `json:"phase"`
}

// RevealResult is the payload of every reveal kind.
type RevealResult struct {
	TargetSeat int    `json:"targetSeat"`
	Result     string `json:"result"`
}

// ActionRejected carries a human-readable rejection for a UI alert.
type ActionRejected struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// PrivatePayload is the tagged union inside a private envelope.
type PrivatePayload struct {
	Kind         PrivateKind     `json:"kind"`
	WitchContext *WitchContext   `json:"witchContext,omitempty"`
	Reveal       *RevealResult   `json:"reveal,omitempty"`
	Rejection    *ActionRejected `json:"rejection,omitempty"`
}

// PrivateEffect is a payload addressed to exactly one UID. The transport may
// fan it out; recipients filter strictly by ToUID before any use.
type PrivateEffect struct {
	ToUID    string         `json:"toUid"`
	Revision uint64         `json:"revision"`
	Payload  PrivatePayload `json:"payload"`
}

// ============================================================================
// POINT-TO-POINT (player -> host)
// ============================================================================

type ClientType string

const (
	ClientRequestState      ClientType = "REQUEST_STATE"
	ClientJoin              ClientType = "JOIN"
	ClientLeave             ClientType = "LEAVE"
	ClientAction            ClientType = "ACTION"
	ClientRevealAck         ClientType = "REVEAL_ACK"
	ClientWolfVote          ClientType = "WOLF_VOTE"
	ClientViewedRole        ClientType = "VIEWED_ROLE"
	ClientSeatActionRequest ClientType = "SEAT_ACTION_REQUEST"
	ClientSnapshotRequest   ClientType = "SNAPSHOT_REQUEST"
)

// Seat-action verbs.
const (
	SeatActionSit     = "sit"
	SeatActionStandup = "standup"
)

// ActionExtra carries role-specific sub-inputs that do not fit the single
// wire target. Today that is only the witch's compound choice.
type ActionExtra struct {
	WitchSave   *int `json:"witchSave,omitempty"`
	WitchPoison *int `json:"witchPoison,omitempty"`
}

// IsEmpty reports whether the extra carries nothing. A nightmare-blocked
// actor may only submit an empty extra.
func (e *ActionExtra) IsEmpty() bool {
	return e == nil || (e.WitchSave == nil && e.WitchPoison == nil)
}

// ClientMessage is the discriminated union on the point-to-point channel.
type ClientMessage struct {
	Type ClientType `json:"type"`
	UID  string     `json:"uid"`

	Seat         int          `json:"seat,omitempty"`
	Role         string       `json:"role,omitempty"`
	Target       *int         `json:"target,omitempty"`
	Extra        *ActionExtra `json:"extra,omitempty"`
	Revision     uint64       `json:"revision,omitempty"`     // REVEAL_ACK
	RequestID    string       `json:"requestId,omitempty"`    // SEAT_ACTION_REQUEST, SNAPSHOT_REQUEST
	Action       string       `json:"action,omitempty"`       // sit | standup
	DisplayName  string       `json:"displayName,omitempty"`  // JOIN, sit
	AvatarURL    string       `json:"avatarUrl,omitempty"`    // JOIN, sit
	LastRevision *uint64      `json:"lastRevision,omitempty"` // SNAPSHOT_REQUEST
}
