package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/models"
)

// Transport carries the host's two outbound streams. Broadcast fans a public
// message out to the whole room; SendTo targets one UID. The transport may
// fan targeted messages out as well — recipients filter by toUid.
type Transport interface {
	Broadcast(msg models.PublicMessage)
	SendTo(uid string, msg models.PublicMessage)
}

// Strict invariant violations are bugs, not expected conditions.
var ErrInvariant = errors.New("coordinator invariant violated")

// ErrBadStatus rejects host operations issued in the wrong lifecycle state.
var ErrBadStatus = errors.New("operation not valid in current status")

// Action names echoed in ACTION_REJECTED payloads.
const (
	rejectedSubmitAction   = "submitAction"
	rejectedSubmitWolfVote = "submitWolfVote"
)

// The magician encodes first + second*100 on the wire; seats beyond this
// bound are a protocol error regardless of board size.
const maxWireSeat = 11

type revealKey struct {
	Revision uint64
	Role     RoleID
}

// Options tune coordinator timing and randomness.
type Options struct {
	// NightBeginPause is the fixed pause after the night-begin clip before
	// the first role step starts.
	NightBeginPause time.Duration
	// Seed fixes role shuffling for tests; 0 uses the current time.
	Seed int64
}

// Coordinator owns the authoritative state of one room. Peer-message
// handlers, host operations and audio-done callbacks are serialized on one
// mutex: within a handler, state mutation, the revision bump and the public
// broadcast are atomic.
type Coordinator struct {
	mu        sync.Mutex
	log       *zap.Logger
	transport Transport
	audio     AudioPlayer

	state    *State
	flow     *NightFlow
	revision uint64

	pendingRevealAcks map[revealKey]struct{}
	rng               *rand.Rand
	pause             time.Duration

	// gen invalidates audio callbacks queued before a restart.
	gen uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator builds the host coordinator for one room.
func NewCoordinator(roomCode, hostUID string, template []RoleID, transport Transport, audio AudioPlayer, log *zap.Logger, opts Options) (*Coordinator, error) {
	if len(template) == 0 {
		return nil, fmt.Errorf("empty template")
	}
	for _, r := range template {
		if !KnownRole(r) {
			return nil, fmt.Errorf("unknown role in template: %s", r)
		}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		log:               log,
		transport:         transport,
		audio:             audio,
		state:             NewState(roomCode, hostUID, template),
		pendingRevealAcks: make(map[revealKey]struct{}),
		rng:               rand.New(rand.NewSource(seed)),
		pause:             opts.NightBeginPause,
		ctx:               ctx,
		cancel:            cancel,
	}, nil
}

// Close tears the room down deterministically: stops audio and cancels any
// in-flight clip goroutines.
func (c *Coordinator) Close() {
	c.cancel()
	c.audio.Stop()
}

// Revision returns the current host revision.
func (c *Coordinator) Revision() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// Status returns the current lifecycle status.
func (c *Coordinator) Status() models.GameStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Status
}

// FlowPhase exposes the night controller phase, PhaseIdle when absent.
func (c *Coordinator) FlowPhase() FlowPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flow == nil {
		return PhaseIdle
	}
	return c.flow.Phase()
}

// PendingRevealCount reports how many reveal acks block night advance.
func (c *Coordinator) PendingRevealCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pendingRevealAcks)
}

// SnapshotState returns the current public snapshot and its revision.
func (c *Coordinator) SnapshotState() (*models.PublicState, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot(), c.revision
}

// ============================================================================
// PEER MESSAGE DISPATCH
// ============================================================================

// HandleMessage routes one inbound point-to-point message. Malformed
// payloads are logged and dropped with no state change.
func (c *Coordinator) HandleMessage(msg models.ClientMessage) {
	switch msg.Type {
	case models.ClientSeatActionRequest:
		c.HandleSeatRequest(msg.RequestID, msg.Action, msg.Seat, msg.UID, msg.DisplayName, msg.AvatarURL)
	case models.ClientJoin:
		c.HandleJoin(msg.Seat, msg.UID, msg.DisplayName, msg.AvatarURL)
	case models.ClientLeave:
		c.HandleLeave(msg.Seat, msg.UID)
	case models.ClientViewedRole:
		c.HandleViewedRole(msg.Seat)
	case models.ClientAction:
		c.HandleAction(msg.Seat, RoleID(msg.Role), msg.Target, msg.Extra)
	case models.ClientWolfVote:
		c.HandleWolfVote(msg.Seat, msg.Target)
	case models.ClientRevealAck:
		c.HandleRevealAck(msg.Seat, RoleID(msg.Role), msg.Revision)
	case models.ClientSnapshotRequest:
		c.HandleSnapshotRequest(msg.RequestID, msg.UID)
	case models.ClientRequestState:
		c.HandleRequestState(msg.UID)
	default:
		c.log.Warn("dropping unknown peer message", zap.String("type", string(msg.Type)))
	}
}

// ============================================================================
// SEAT MANAGEMENT
// ============================================================================

// HandleSeatRequest processes a requestId-carrying sit/standup and answers
// with a targeted ack.
func (c *Coordinator) HandleSeatRequest(requestID, action string, seat int, uid, displayName, avatarURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if uid == "" || requestID == "" || seat < 0 || seat >= c.state.NumSeats() {
		c.log.Warn("dropping malformed seat request",
			zap.String("requestId", requestID), zap.Int("seat", seat))
		return
	}

	ack := func(success bool, reason string) {
		c.transport.SendTo(uid, models.PublicMessage{
			Type:     models.PublicSeatActionAck,
			Revision: c.revision,
			SeatAck: &models.SeatActionAck{
				RequestID: requestID,
				ToUID:     uid,
				Success:   success,
				Seat:      seat,
				Reason:    reason,
			},
		})
	}

	if c.state.Status != models.StatusUnseated && c.state.Status != models.StatusSeated {
		ack(false, models.ReasonBadStatus)
		return
	}

	switch action {
	case models.SeatActionSit:
		if taken := c.state.Players[seat]; taken != nil && taken.UID != uid {
			ack(false, models.ReasonSeatTaken)
			return
		}
		c.clearSeatsOf(uid)
		c.state.Players[seat] = &Slot{
			UID:         uid,
			SeatNumber:  seat,
			DisplayName: displayName,
			AvatarURL:   avatarURL,
		}
	case models.SeatActionStandup:
		slot := c.state.Players[seat]
		if slot == nil || slot.UID != uid {
			ack(false, models.ReasonNotSeated)
			return
		}
		delete(c.state.Players, seat)
	default:
		c.log.Warn("dropping seat request with unknown action", zap.String("action", action))
		return
	}

	c.refreshSeatingStatus()
	ack(true, "")
	c.broadcastStateLocked()
}

// HandleJoin is the legacy JOIN path: failures go out as a public
// SEAT_REJECTED instead of a targeted ack.
func (c *Coordinator) HandleJoin(seat int, uid, displayName, avatarURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if uid == "" || seat < 0 || seat >= c.state.NumSeats() {
		return
	}

	rejectWith := func(reason string) {
		c.transport.Broadcast(models.PublicMessage{
			Type:     models.PublicSeatRejected,
			Revision: c.revision,
			SeatRejected: &models.SeatRejected{
				Seat:       seat,
				RequestUID: uid,
				Reason:     reason,
			},
		})
	}

	if c.state.Status != models.StatusUnseated && c.state.Status != models.StatusSeated {
		rejectWith(models.ReasonBadStatus)
		return
	}
	if taken := c.state.Players[seat]; taken != nil && taken.UID != uid {
		rejectWith(models.ReasonSeatTaken)
		return
	}

	c.clearSeatsOf(uid)
	c.state.Players[seat] = &Slot{
		UID:         uid,
		SeatNumber:  seat,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
	}
	c.refreshSeatingStatus()
	c.broadcastStateLocked()
}

// HandleLeave clears the seat if the requester owns it.
func (c *Coordinator) HandleLeave(seat int, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != models.StatusUnseated && c.state.Status != models.StatusSeated {
		return
	}
	slot := c.state.Players[seat]
	if slot == nil || slot.UID != uid {
		return
	}
	delete(c.state.Players, seat)
	c.refreshSeatingStatus()
	c.broadcastStateLocked()
}

// SeatBot seats a host-controlled bot. Bots auto-view their role.
func (c *Coordinator) SeatBot(seat int, displayName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != models.StatusUnseated && c.state.Status != models.StatusSeated {
		return ErrBadStatus
	}
	if seat < 0 || seat >= c.state.NumSeats() {
		return fmt.Errorf("seat %d out of range", seat)
	}
	if c.state.Players[seat] != nil {
		return fmt.Errorf("seat %d occupied", seat)
	}
	c.state.Players[seat] = &Slot{
		UID:         fmt.Sprintf("bot-%s-%d", c.state.RoomCode, seat),
		SeatNumber:  seat,
		DisplayName: displayName,
		IsBot:       true,
	}
	c.refreshSeatingStatus()
	c.broadcastStateLocked()
	return nil
}

// clearSeatsOf defensively removes every seat held by uid. Keeps at most one
// slot per UID no matter how requests race.
func (c *Coordinator) clearSeatsOf(uid string) {
	for seat, slot := range c.state.Players {
		if slot != nil && slot.UID == uid {
			delete(c.state.Players, seat)
		}
	}
}

func (c *Coordinator) refreshSeatingStatus() {
	if c.state.Status != models.StatusUnseated && c.state.Status != models.StatusSeated {
		return
	}
	if c.state.AllSeatsFull() {
		c.state.Status = models.StatusSeated
	} else {
		c.state.Status = models.StatusUnseated
	}
}

// ============================================================================
// ROLE ASSIGNMENT AND GAME START
// ============================================================================

// AssignRoles shuffles the template and deals to occupied seats in seat
// order. Only valid once every seat is filled.
func (c *Coordinator) AssignRoles() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != models.StatusSeated {
		return fmt.Errorf("%w: assignRoles requires seated, have %s", ErrBadStatus, c.state.Status)
	}

	deck := make([]RoleID, len(c.state.Template))
	copy(deck, c.state.Template)
	for i := len(deck) - 1; i > 0; i-- {
		j := c.rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}

	for seat := 0; seat < c.state.NumSeats(); seat++ {
		slot := c.state.Players[seat]
		if slot == nil {
			continue
		}
		role := deck[seat]
		slot.Role = &role
		slot.HasViewedRole = slot.IsBot
	}

	c.state.Status = models.StatusAssigned
	if c.state.AllViewedRole() {
		c.state.Status = models.StatusReady
	}
	c.broadcastStateLocked()
	return nil
}

// HandleViewedRole marks a seat's role as viewed; when everyone has looked,
// the room becomes ready.
func (c *Coordinator) HandleViewedRole(seat int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != models.StatusAssigned {
		return
	}
	slot := c.state.Players[seat]
	if slot == nil {
		return
	}
	slot.HasViewedRole = true
	if c.state.AllViewedRole() {
		c.state.Status = models.StatusReady
	}
	c.broadcastStateLocked()
}

// StartGame derives the night plan, spins up the night controller and kicks
// off the night-begin narration. Only valid in Ready.
func (c *Coordinator) StartGame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != models.StatusReady {
		return fmt.Errorf("%w: startGame requires ready, have %s", ErrBadStatus, c.state.Status)
	}

	c.state.ClearNightCaches()
	c.pendingRevealAcks = make(map[revealKey]struct{})
	c.flow = NewNightFlow(BuildNightPlan(c.state.Template))
	if err := c.flow.Dispatch(EventStartNight); err != nil {
		return err
	}
	c.state.Status = models.StatusOngoing
	c.state.IsAudioPlaying = true
	c.broadcastStateLocked()

	gen := c.gen
	go func() {
		_ = c.audio.PlayNightBeginAudio(c.ctx)
		if c.pause > 0 {
			select {
			case <-time.After(c.pause):
			case <-c.ctx.Done():
				return
			}
		}
		c.onNightBeginAudioDone(gen)
	}()
	return nil
}

// ============================================================================
// AUDIO-DONE EVENTS
// ============================================================================

func (c *Coordinator) onNightBeginAudioDone(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.flow == nil {
		return
	}
	if err := c.flow.Dispatch(EventNightBeginAudioDone); err != nil {
		c.log.Info("duplicate night begin audio callback ignored", zap.Error(err))
		return
	}
	c.afterStepAdvanceLocked()
}

func (c *Coordinator) onRoleBeginAudioDone(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.flow == nil {
		return
	}
	if err := c.flow.Dispatch(EventRoleBeginAudioDone); err != nil {
		c.log.Info("duplicate role begin audio callback ignored", zap.Error(err))
		return
	}
	c.state.IsAudioPlaying = false
	c.broadcastStateLocked()
}

func (c *Coordinator) onRoleEndAudioDone(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.flow == nil {
		return
	}
	if err := c.flow.Dispatch(EventRoleEndAudioDone); err != nil {
		c.log.Info("duplicate role end audio callback ignored", zap.Error(err))
		return
	}
	c.afterStepAdvanceLocked()
}

func (c *Coordinator) onNightEndAudioDone(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.flow == nil {
		return
	}
	if err := c.flow.Dispatch(EventNightEndAudioDone); err != nil {
		c.log.Info("duplicate night end audio callback ignored", zap.Error(err))
		return
	}
	c.state.IsAudioPlaying = false
	c.state.Status = models.StatusEnded
	c.flow = nil
	c.broadcastStateLocked()
	c.transport.Broadcast(models.PublicMessage{
		Type:     models.PublicNightEnd,
		Revision: c.revision,
		Deaths:   append([]int{}, c.state.LastNightDeaths...),
	})
}

// afterStepAdvanceLocked routes the controller into the next role step or
// into the night-end narration.
func (c *Coordinator) afterStepAdvanceLocked() {
	switch c.flow.Phase() {
	case PhaseRoleBeginAudio:
		c.beginRoleStepLocked()
	case PhaseNightEndAudio:
		c.enterNightEndLocked()
	}
}

// beginRoleStepLocked announces the step, ships private step context and
// starts the role-begin narration.
func (c *Coordinator) beginRoleStepLocked() {
	step, ok := c.flow.CurrentStep()
	if !ok {
		c.log.Error("role step announced past end of plan", zap.Error(ErrInvariant))
		return
	}
	c.state.CurrentStepIndex = c.flow.CurrentStepIndex()
	c.state.IsAudioPlaying = true
	c.broadcastStateLocked()

	c.transport.Broadcast(models.PublicMessage{
		Type:     models.PublicRoleTurn,
		Revision: c.revision,
		RoleTurn: &models.RoleTurn{
			Role:         string(step.Role),
			PendingSeats: c.pendingSeatsFor(step),
			StepID:       step.StepID,
		},
	})
	c.sendStepContextLocked(step)

	gen := c.gen
	go func() {
		_ = c.audio.PlayRoleBeginningAudio(c.ctx, step.Role)
		c.onRoleBeginAudioDone(gen)
	}()
}

func (c *Coordinator) pendingSeatsFor(step NightStep) []int {
	if step.Schema.Kind == SchemaWolfVote {
		return c.state.ParticipatingWolfSeats()
	}
	return c.state.SeatsOfRole(step.Role)
}

// sendStepContextLocked ships step-specific private context; today that is
// the witch's kill briefing.
func (c *Coordinator) sendStepContextLocked(step NightStep) {
	if step.Role != RoleWitch {
		return
	}
	witchSeat := c.state.SeatOfRole(RoleWitch)
	if witchSeat == nil {
		return
	}
	slot := c.state.Players[*witchSeat]
	if slot == nil {
		return
	}

	var killed *int
	if act, ok := c.state.Actions[RoleWolf]; ok && act.Target != nil && *act.Target >= 0 {
		killed = act.Target
	}
	canSave := killed != nil && *killed != *witchSeat
	c.sendPrivateLocked(slot.UID, models.PrivatePayload{
		Kind: models.PrivateWitchContext,
		WitchContext: &models.WitchContext{
			KilledSeat: killed,
			CanSave:    canSave,
			CanPoison:  true,
			Phase:      "act",
		},
	})
}

// ============================================================================
// ACTION HANDLING
// ============================================================================

// HandleAction validates and records a role action submission. Precondition
// races (wrong phase, wrong role, wrong status) are silent no-ops; schema
// rejections answer privately.
func (c *Coordinator) HandleAction(seat int, role RoleID, target *int, extra *models.ActionExtra) {
	c.mu.Lock()
	defer c.mu.Unlock()

	flow, ok := c.actionPreconditionsLocked(seat, role)
	if !ok {
		return
	}
	step, _ := flow.CurrentStep()
	slot := c.state.Players[seat]

	// A nightmare-blocked actor may only skip, whatever the step wants.
	if blocked := c.state.NightmareBlockedSeat(); blocked != nil && *blocked == seat {
		if target != nil || !extra.IsEmpty() {
			c.sendRejectionLocked(slot.UID, rejectedSubmitAction, ReasonNightmareBlocked)
			return
		}
		c.recordBlockedSkipLocked(flow, step, seat, role)
		return
	}

	input, ok := c.decodeInputLocked(step, target, extra)
	if !ok {
		return
	}
	if step.Schema.Kind == SchemaWolfVote {
		// Un-blocked wolves vote through WOLF_VOTE; a bare ACTION here is a
		// client racing the step machine.
		return
	}

	verdict := Resolve(ResolveContext{
		Schema:    step.Schema,
		ActorSeat: seat,
		ActorRole: role,
		SeatRoles: c.state.EffectiveSeatRoles(),
		NumSeats:  c.state.NumSeats(),
	}, input)
	if !verdict.Valid {
		c.sendRejectionLocked(slot.UID, rejectedSubmitAction, verdict.Reason)
		return
	}

	c.state.Actions[role] = verdict.Effect
	if err := flow.RecordAction(role, target); err != nil {
		c.log.Error("action recorded outside waitingForAction", zap.Error(errors.Join(ErrInvariant, err)))
		return
	}
	c.broadcastStateLocked()

	if IsRevealRole(role) && verdict.Effect.Target != nil {
		c.sendRevealLocked(slot.UID, role, *verdict.Effect.Target)
		c.pendingRevealAcks[revealKey{Revision: c.revision, Role: role}] = struct{}{}
		return
	}
	c.submitAndAdvanceLocked(flow, step)
}

// actionPreconditionsLocked applies the silent-drop checks shared by action
// and vote submissions.
func (c *Coordinator) actionPreconditionsLocked(seat int, role RoleID) (*NightFlow, bool) {
	if c.state.Status != models.StatusOngoing {
		return nil, false
	}
	flow := c.flow
	if flow == nil {
		c.log.Error("ongoing status with no night controller", zap.Error(ErrInvariant))
		return nil, false
	}
	if flow.Phase() != PhaseWaitingForAction {
		return nil, false
	}
	if seat < 0 || seat >= c.state.NumSeats() {
		return nil, false
	}
	slot := c.state.Players[seat]
	if slot == nil || slot.Role == nil {
		return nil, false
	}
	// The declared role is checked against the controller's step and the
	// seat's assigned role. Mid-night swaps change reveals, not actors.
	step, ok := flow.CurrentStep()
	if !ok {
		return nil, false
	}
	if step.Schema.Kind == SchemaWolfVote {
		if !MustSpec(*slot.Role).ParticipatesInWolfVote {
			return nil, false
		}
		if role != "" && role != RoleWolf && role != *slot.Role {
			return nil, false
		}
		return flow, true
	}
	if role != step.Role || *slot.Role != role {
		return nil, false
	}
	return flow, true
}

// decodeInputLocked turns the wire form into a structured ActionInput,
// decoding the legacy magician target. Protocol violations log and drop.
func (c *Coordinator) decodeInputLocked(step NightStep, target *int, extra *models.ActionExtra) (ActionInput, bool) {
	if step.Schema.Kind == SchemaSwap {
		if target == nil {
			return ActionInput{}, true
		}
		t := *target
		if t < 100 {
			c.log.Warn("magician target below encoding floor", zap.Int("target", t))
			return ActionInput{}, false
		}
		first, second := t%100, t/100
		if first < 0 || first > maxWireSeat || second < 1 || second > maxWireSeat {
			c.log.Warn("magician swap seat out of wire range",
				zap.Int("first", first), zap.Int("second", second))
			return ActionInput{}, false
		}
		return ActionInput{Swap: &SwapPair{First: first, Second: second}}, true
	}

	in := ActionInput{Target: target}
	if extra != nil {
		in.Save = extra.WitchSave
		in.Poison = extra.WitchPoison
	}
	return in, true
}

// recordBlockedSkipLocked completes a blocked actor's turn. On a wolf step
// the skip is an explicit empty-knife vote so finalization can proceed.
func (c *Coordinator) recordBlockedSkipLocked(flow *NightFlow, step NightStep, seat int, role RoleID) {
	if step.Schema.Kind == SchemaWolfVote {
		c.state.WolfVotes[seat] = AbstainVote
		c.snapshotWolfVotesLocked()
		c.broadcastStateLocked()
		c.maybeFinalizeWolfVoteLocked(flow, step)
		return
	}
	if err := flow.RecordAction(role, nil); err != nil {
		c.log.Error("blocked skip outside waitingForAction", zap.Error(errors.Join(ErrInvariant, err)))
		return
	}
	c.broadcastStateLocked()
	c.submitAndAdvanceLocked(flow, step)
}

// submitAndAdvanceLocked moves the controller out of WaitingForAction and
// starts the role-end narration.
func (c *Coordinator) submitAndAdvanceLocked(flow *NightFlow, step NightStep) {
	if err := flow.Dispatch(EventActionSubmitted); err != nil {
		c.log.Info("duplicate action submission ignored", zap.Error(err))
		return
	}
	c.state.IsAudioPlaying = true
	c.broadcastStateLocked()

	gen := c.gen
	go func() {
		_ = c.audio.PlayRoleEndingAudio(c.ctx, step.Role)
		c.onRoleEndAudioDone(gen)
	}()
}

// ============================================================================
// REVEALS
// ============================================================================

// sendRevealLocked computes and ships the private reveal for the acting
// role. Results read the post-swap role map.
func (c *Coordinator) sendRevealLocked(uid string, role RoleID, targetSeat int) {
	effective := c.state.EffectiveSeatRoles()
	targetRole, ok := effective[targetSeat]
	if !ok {
		c.log.Error("reveal against roleless seat", zap.Int("seat", targetSeat), zap.Error(ErrInvariant))
		return
	}
	spec := MustSpec(targetRole)

	var kind models.PrivateKind
	var result string
	switch role {
	case RoleSeer:
		kind, result = models.PrivateSeerReveal, spec.TeamLabel
	case RolePsychic:
		kind, result = models.PrivatePsychicReveal, spec.DisplayName
	case RoleGargoyle:
		kind, result = models.PrivateGargoyleReveal, spec.DisplayName
	case RoleWolfRobot:
		kind, result = models.PrivateWolfRobotRev, spec.DisplayName
	default:
		return
	}

	c.sendPrivateLocked(uid, models.PrivatePayload{
		Kind:   kind,
		Reveal: &models.RevealResult{TargetSeat: targetSeat, Result: result},
	})
}

// HandleRevealAck releases a reveal-gated step. Stale acks are silently
// dropped.
func (c *Coordinator) HandleRevealAck(seat int, role RoleID, revision uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != models.StatusOngoing || c.flow == nil {
		return
	}
	if c.flow.Phase() != PhaseWaitingForAction || c.flow.CurrentRole() != role {
		return
	}
	if revision != c.revision {
		return
	}
	key := revealKey{Revision: revision, Role: role}
	if _, ok := c.pendingRevealAcks[key]; !ok {
		return
	}
	slot := c.state.Players[seat]
	if slot == nil || slot.Role == nil || *slot.Role != role {
		return
	}

	delete(c.pendingRevealAcks, key)
	step, _ := c.flow.CurrentStep()
	c.submitAndAdvanceLocked(c.flow, step)
}

// ============================================================================
// WOLF MEETING
// ============================================================================

// HandleWolfVote records one wolf's vote; revotes overwrite until the pack
// finalizes.
func (c *Coordinator) HandleWolfVote(seat int, target *int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	flow, ok := c.actionPreconditionsLocked(seat, "")
	if !ok {
		return
	}
	step, _ := flow.CurrentStep()
	if step.Schema.Kind != SchemaWolfVote {
		return
	}
	slot := c.state.Players[seat]
	if target == nil {
		return
	}

	if blocked := c.state.NightmareBlockedSeat(); blocked != nil && *blocked == seat && *target != AbstainVote {
		c.sendRejectionLocked(slot.UID, rejectedSubmitWolfVote, ReasonNightmareBlocked)
		return
	}

	verdict := Resolve(ResolveContext{
		Schema:    step.Schema,
		ActorSeat: seat,
		ActorRole: *slot.Role,
		SeatRoles: c.state.EffectiveSeatRoles(),
		NumSeats:  c.state.NumSeats(),
	}, ActionInput{Target: target})
	if !verdict.Valid {
		c.sendRejectionLocked(slot.UID, rejectedSubmitWolfVote, verdict.Reason)
		return
	}

	c.state.WolfVotes[seat] = *target
	c.snapshotWolfVotesLocked()
	c.broadcastStateLocked()
	c.maybeFinalizeWolfVoteLocked(flow, step)
}

func (c *Coordinator) snapshotWolfVotesLocked() {
	snap := make(map[int]int, len(c.state.WolfVotes))
	for seat, target := range c.state.WolfVotes {
		snap[seat] = target
	}
	c.state.CurrentNightResults.WolfVotesBySeat = snap
}

// maybeFinalizeWolfVoteLocked runs the resolver once every participating
// wolf has voted. Once-guarded so duplicate triggers cannot re-finalize.
func (c *Coordinator) maybeFinalizeWolfVoteLocked(flow *NightFlow, step NightStep) {
	for _, seat := range c.state.ParticipatingWolfSeats() {
		if _, voted := c.state.WolfVotes[seat]; !voted {
			return
		}
	}
	if _, done := c.state.Actions[RoleWolf]; done {
		return
	}

	final := ResolveWolfVotes(c.state.WolfVotes)
	c.state.Actions[RoleWolf] = &RoleAction{Kind: ActionTarget, Target: final}

	raw := final
	if raw == nil {
		abstain := AbstainVote
		raw = &abstain
	}
	if err := flow.RecordAction(RoleWolf, raw); err != nil {
		c.log.Error("wolf finalize outside waitingForAction", zap.Error(errors.Join(ErrInvariant, err)))
		return
	}
	c.broadcastStateLocked()
	c.submitAndAdvanceLocked(flow, step)
}

// ============================================================================
// NIGHT END
// ============================================================================

// enterNightEndLocked computes deaths and starts the closing narration.
func (c *Coordinator) enterNightEndLocked() {
	c.state.LastNightDeaths = ComputeNightDeaths(c.nightActionsLocked(), c.roleSeatsLocked())
	c.state.CurrentStepIndex = c.flow.CurrentStepIndex()
	c.state.IsAudioPlaying = true
	c.broadcastStateLocked()

	gen := c.gen
	go func() {
		_ = c.audio.PlayNightEndAudio(c.ctx)
		c.onNightEndAudioDone(gen)
	}()
}

// nightActionsLocked projects the recorded role actions into the structured
// night record the death calculator consumes.
func (c *Coordinator) nightActionsLocked() NightActions {
	var a NightActions
	if act, ok := c.state.Actions[RoleWolf]; ok {
		a.WolfKill = act.Target
	}
	if act, ok := c.state.Actions[RoleGuard]; ok {
		a.GuardProtect = act.Target
	}
	if act, ok := c.state.Actions[RoleWitch]; ok && act.Witch != nil {
		a.WitchSave = act.Witch.Save
		a.WitchPoison = act.Witch.Poison
	}
	if act, ok := c.state.Actions[RoleWolfQueen]; ok {
		a.WolfQueenCharm = act.Target
	}
	if act, ok := c.state.Actions[RoleDreamcatcher]; ok {
		a.DreamTarget = act.Target
	}
	if act, ok := c.state.Actions[RoleMagician]; ok {
		a.MagicianSwap = act.Swap
	}
	if act, ok := c.state.Actions[RoleSeer]; ok {
		a.SeerCheck = act.Target
	}
	if blocked := c.state.NightmareBlockedSeat(); blocked != nil {
		a.NightmareBlock = blocked
		// Blocking the lone knife-wielding wolf nullifies the kill.
		wolves := c.state.SeatsOfRole(RoleWolf)
		a.NightmareBlockedWolf = len(wolves) == 1 && wolves[0] == *blocked
	}
	return a
}

func (c *Coordinator) roleSeatsLocked() RoleSeatMap {
	return RoleSeatMap{
		Witcher:      c.state.SeatOfRole(RoleWitcher),
		WolfQueen:    c.state.SeatOfRole(RoleWolfQueen),
		Dreamcatcher: c.state.SeatOfRole(RoleDreamcatcher),
		SpiritKnight: c.state.SeatOfRole(RoleSpiritKnight),
		Seer:         c.state.SeatOfRole(RoleSeer),
		Witch:        c.state.SeatOfRole(RoleWitch),
		Guard:        c.state.SeatOfRole(RoleGuard),
	}
}

// ============================================================================
// SNAPSHOTS AND RESTARTS
// ============================================================================

// HandleSnapshotRequest always answers with the current revisioned state.
func (c *Coordinator) HandleSnapshotRequest(requestID, uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if uid == "" {
		return
	}
	c.transport.SendTo(uid, models.PublicMessage{
		Type:      models.PublicSnapshotResponse,
		Revision:  c.revision,
		RequestID: requestID,
		ToUID:     uid,
		State:     c.state.Snapshot(),
	})
}

// HandleRequestState sends the requester a fresh STATE_UPDATE.
func (c *Coordinator) HandleRequestState(uid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if uid == "" {
		return
	}
	c.transport.SendTo(uid, models.PublicMessage{
		Type:     models.PublicStateUpdate,
		Revision: c.revision,
		State:    c.state.Snapshot(),
	})
}

// RestartGame resets to the pre-assignment lobby, preserving seats. Calling
// it twice in a row is equivalent to calling it once.
func (c *Coordinator) RestartGame() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restartLocked()
	return nil
}

// EmergencyRestartAndReshuffleRoles is the blessed mid-game recovery: stops
// audio, clears the night, clears roles, returns to the lobby.
func (c *Coordinator) EmergencyRestartAndReshuffleRoles() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != models.StatusOngoing {
		return fmt.Errorf("%w: emergency restart requires ongoing, have %s", ErrBadStatus, c.state.Status)
	}
	for _, slot := range c.state.Players {
		if slot != nil && slot.Role == nil {
			return fmt.Errorf("%w: occupied seat %d has no role", ErrInvariant, slot.SeatNumber)
		}
	}
	c.restartLocked()
	return nil
}

func (c *Coordinator) restartLocked() {
	c.audio.Stop()
	c.gen++
	c.flow = nil
	c.state.ClearNightCaches()
	c.pendingRevealAcks = make(map[revealKey]struct{})
	c.state.IsAudioPlaying = false
	for _, slot := range c.state.Players {
		if slot != nil {
			slot.Role = nil
			slot.HasViewedRole = false
		}
	}
	if c.state.AllSeatsFull() {
		c.state.Status = models.StatusSeated
	} else {
		c.state.Status = models.StatusUnseated
	}

	c.transport.Broadcast(models.PublicMessage{
		Type:     models.PublicGameRestarted,
		Revision: c.revision,
	})
	c.broadcastStateLocked()
}

// ============================================================================
// FAN-OUT
// ============================================================================

// broadcastStateLocked bumps the revision by exactly one and fans the
// snapshot out. Mutation, bump and emit are atomic under the handler's lock.
func (c *Coordinator) broadcastStateLocked() {
	if c.flow != nil {
		c.state.CurrentStepIndex = c.flow.CurrentStepIndex()
	}
	c.revision++
	c.transport.Broadcast(models.PublicMessage{
		Type:     models.PublicStateUpdate,
		Revision: c.revision,
		State:    c.state.Snapshot(),
	})
}

func (c *Coordinator) sendPrivateLocked(uid string, payload models.PrivatePayload) {
	c.transport.SendTo(uid, models.PublicMessage{
		Type:     models.PublicPrivateEffect,
		Revision: c.revision,
		Private: &models.PrivateEffect{
			ToUID:    uid,
			Revision: c.revision,
			Payload:  payload,
		},
	})
}

func (c *Coordinator) sendRejectionLocked(uid, action, reason string) {
	c.sendPrivateLocked(uid, models.PrivatePayload{
		Kind:      models.PrivateActionRejected,
		Rejection: &models.ActionRejected{Action: action, Reason: reason},
	})
}
