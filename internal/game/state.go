package game

import (
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/models"
)

// Slot is one occupied seat in the authoritative state.
type Slot struct {
	UID           string
	SeatNumber    int
	DisplayName   string
	AvatarURL     string
	Role          *RoleID
	HasViewedRole bool
	IsBot         bool
}

// State is the authoritative game state, exclusively owned by the
// coordinator. Players hold derived copies overwritten by snapshots.
type State struct {
	RoomCode string
	HostUID  string
	Template []RoleID
	Status   models.GameStatus

	Players map[int]*Slot

	// Night caches, cleared on restart.
	Actions         map[RoleID]*RoleAction
	WolfVotes       map[int]int
	LastNightDeaths []int

	CurrentStepIndex    int
	CurrentNightResults models.NightProgress
	IsAudioPlaying      bool
}

// NewState builds the pre-game state for a template.
func NewState(roomCode, hostUID string, template []RoleID) *State {
	return &State{
		RoomCode:  roomCode,
		HostUID:   hostUID,
		Template:  template,
		Status:    models.StatusUnseated,
		Players:   make(map[int]*Slot),
		Actions:   make(map[RoleID]*RoleAction),
		WolfVotes: make(map[int]int),
	}
}

// NumSeats is the board size derived from the template.
func (s *State) NumSeats() int {
	return len(s.Template)
}

// SeatOf returns the seat currently held by uid, or -1.
func (s *State) SeatOf(uid string) int {
	for seat, slot := range s.Players {
		if slot != nil && slot.UID == uid {
			return seat
		}
	}
	return -1
}

// SeatOfRole returns the seat whose assigned role is id, or nil.
func (s *State) SeatOfRole(id RoleID) *int {
	for seat, slot := range s.Players {
		if slot != nil && slot.Role != nil && *slot.Role == id {
			seat := seat
			return &seat
		}
	}
	return nil
}

// AllSeatsFull reports whether every seat holds a player.
func (s *State) AllSeatsFull() bool {
	for seat := 0; seat < s.NumSeats(); seat++ {
		if s.Players[seat] == nil {
			return false
		}
	}
	return true
}

// AllViewedRole reports whether every occupied slot has viewed its role.
func (s *State) AllViewedRole() bool {
	for _, slot := range s.Players {
		if slot != nil && !slot.HasViewedRole {
			return false
		}
	}
	return true
}

// AssignedSeatRoles returns the seat -> assigned role map (pre-swap).
func (s *State) AssignedSeatRoles() map[int]RoleID {
	out := make(map[int]RoleID, len(s.Players))
	for seat, slot := range s.Players {
		if slot != nil && slot.Role != nil {
			out[seat] = *slot.Role
		}
	}
	return out
}

// EffectiveSeatRoles returns the seat -> role map with the magician swap
// applied, if one was recorded this night. Reveals read through this map.
func (s *State) EffectiveSeatRoles() map[int]RoleID {
	roles := s.AssignedSeatRoles()
	if act, ok := s.Actions[RoleMagician]; ok && act.Swap != nil {
		a, b := act.Swap.First, act.Swap.Second
		ra, okA := roles[a]
		rb, okB := roles[b]
		if okA && okB {
			roles[a], roles[b] = rb, ra
		}
	}
	return roles
}

// NightmareBlockedSeat returns the seat blocked by the nightmare this night,
// or nil.
func (s *State) NightmareBlockedSeat() *int {
	if act, ok := s.Actions[RoleNightmare]; ok && act.Target != nil {
		return act.Target
	}
	return nil
}

// ParticipatingWolfSeats returns, in ascending seat order, the seats whose
// assigned role takes part in the wolf meeting vote.
func (s *State) ParticipatingWolfSeats() []int {
	var seats []int
	for seat := 0; seat < s.NumSeats(); seat++ {
		slot := s.Players[seat]
		if slot != nil && slot.Role != nil && MustSpec(*slot.Role).ParticipatesInWolfVote {
			seats = append(seats, seat)
		}
	}
	return seats
}

// SeatsOfRole returns, in ascending order, every seat assigned the role.
func (s *State) SeatsOfRole(id RoleID) []int {
	var seats []int
	for seat := 0; seat < s.NumSeats(); seat++ {
		slot := s.Players[seat]
		if slot != nil && slot.Role != nil && *slot.Role == id {
			seats = append(seats, seat)
		}
	}
	return seats
}

// ClearNightCaches wipes per-night derived data.
func (s *State) ClearNightCaches() {
	s.Actions = make(map[RoleID]*RoleAction)
	s.WolfVotes = make(map[int]int)
	s.LastNightDeaths = nil
	s.CurrentStepIndex = 0
	s.CurrentNightResults = models.NightProgress{}
}

// Snapshot projects the authoritative state into the public wire form.
// Sensitive targets (final kill, reveals, witch context) are not part of the
// snapshot; they live in private envelopes.
func (s *State) Snapshot() *models.PublicState {
	players := make(map[int]*models.PublicSlot, s.NumSeats())
	for seat := 0; seat < s.NumSeats(); seat++ {
		slot := s.Players[seat]
		if slot == nil {
			players[seat] = nil
			continue
		}
		var role *string
		if slot.Role != nil {
			r := string(*slot.Role)
			role = &r
		}
		players[seat] = &models.PublicSlot{
			UID:           slot.UID,
			SeatNumber:    slot.SeatNumber,
			DisplayName:   slot.DisplayName,
			AvatarURL:     slot.AvatarURL,
			Role:          role,
			HasViewedRole: slot.HasViewedRole,
			IsBot:         slot.IsBot,
		}
	}

	templateRoles := make([]string, len(s.Template))
	for i, r := range s.Template {
		templateRoles[i] = string(r)
	}

	var voteStatus map[int]bool
	if len(s.WolfVotes) > 0 {
		voteStatus = make(map[int]bool, len(s.WolfVotes))
		for seat := range s.WolfVotes {
			voteStatus[seat] = true
		}
	}

	var progress models.NightProgress
	if len(s.CurrentNightResults.WolfVotesBySeat) > 0 {
		progress.WolfVotesBySeat = make(map[int]int, len(s.CurrentNightResults.WolfVotesBySeat))
		for k, v := range s.CurrentNightResults.WolfVotesBySeat {
			progress.WolfVotesBySeat[k] = v
		}
	}

	return &models.PublicState{
		RoomCode:             s.RoomCode,
		HostUID:              s.HostUID,
		Status:               s.Status,
		TemplateRoles:        templateRoles,
		Players:              players,
		CurrentStepIndex:     s.CurrentStepIndex,
		IsAudioPlaying:       s.IsAudioPlaying,
		WolfVoteStatus:       voteStatus,
		NightmareBlockedSeat: s.NightmareBlockedSeat(),
		CurrentNightResults:  progress,
	}
}
