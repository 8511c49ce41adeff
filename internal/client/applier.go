package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/models"
)

// ConnState is the player's view of its link to the host.
type ConnState string

const (
	ConnConnected    ConnState = "connected"
	ConnDisconnected ConnState = "disconnected"
)

// Send delivers one point-to-point message to the host.
type Send func(msg models.ClientMessage)

// ErrAckTimeout is returned when a seat-action ack never arrives.
var ErrAckTimeout = errors.New("seat action ack timeout")

// ErrSnapshotTimeout is returned when a resync request goes unanswered; the
// applier marks itself disconnected.
var ErrSnapshotTimeout = errors.New("snapshot request timeout")

// Timeouts and poll intervals for host round-trips.
const (
	DefaultAckTimeout      = 5 * time.Second
	DefaultSnapshotTimeout = 10 * time.Second
	DefaultRevealTimeout   = 3 * time.Second
	RevealPollInterval     = 50 * time.Millisecond
)

// Applier holds the player's derived copy of the authoritative state: it
// applies revisioned public updates, requests resyncs, waits on seat acks
// and exposes the private inbox.
type Applier struct {
	mu       sync.Mutex
	myUID    string
	lastSeen uint64
	state    *models.PublicState
	conn     ConnState
	inbox    *Inbox

	seatAcks  map[string]chan models.SeatActionAck
	snapshots map[string]chan *models.PublicState

	ackTimeout      time.Duration
	snapshotTimeout time.Duration
}

// NewApplier builds the player-side state holder for one UID.
func NewApplier(myUID string) *Applier {
	return &Applier{
		myUID:           myUID,
		conn:            ConnConnected,
		inbox:           NewInbox(myUID),
		seatAcks:        make(map[string]chan models.SeatActionAck),
		snapshots:       make(map[string]chan *models.PublicState),
		ackTimeout:      DefaultAckTimeout,
		snapshotTimeout: DefaultSnapshotTimeout,
	}
}

// SetTimeouts overrides the round-trip timeouts; zero keeps the default.
func (a *Applier) SetTimeouts(ack, snapshot time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ack > 0 {
		a.ackTimeout = ack
	}
	if snapshot > 0 {
		a.snapshotTimeout = snapshot
	}
}

// Inbox exposes the private inbox.
func (a *Applier) Inbox() *Inbox {
	return a.inbox
}

// State returns the latest applied snapshot, nil before the first update.
func (a *Applier) State() *models.PublicState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LastRevision returns the highest revision applied so far.
func (a *Applier) LastRevision() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeen
}

// Connection returns the current link state.
func (a *Applier) Connection() ConnState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conn
}

// ApplyPublic routes one message from the broadcast channel. Duplicate or
// out-of-order state updates (rev <= lastSeen) are discarded; this is how
// the at-least-once transport is tolerated.
func (a *Applier) ApplyPublic(msg models.PublicMessage) {
	switch msg.Type {
	case models.PublicStateUpdate:
		a.applyState(msg.State, msg.Revision, false)

	case models.PublicSnapshotResponse:
		if msg.ToUID != "" && msg.ToUID != a.myUID {
			return
		}
		a.applyState(msg.State, msg.Revision, true)
		a.mu.Lock()
		ch := a.snapshots[msg.RequestID]
		delete(a.snapshots, msg.RequestID)
		a.mu.Unlock()
		if ch != nil {
			ch <- msg.State
		}

	case models.PublicSeatActionAck:
		if msg.SeatAck == nil || msg.SeatAck.ToUID != a.myUID {
			return
		}
		a.mu.Lock()
		ch := a.seatAcks[msg.SeatAck.RequestID]
		delete(a.seatAcks, msg.SeatAck.RequestID)
		a.mu.Unlock()
		if ch != nil {
			ch <- *msg.SeatAck
		}

	case models.PublicPrivateEffect:
		if msg.Private != nil {
			a.inbox.Receive(*msg.Private)
		}

	case models.PublicGameRestarted:
		a.inbox.Purge()
	}
}

func (a *Applier) applyState(state *models.PublicState, revision uint64, resync bool) {
	if state == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if resync {
		if revision < a.lastSeen {
			return
		}
	} else if revision <= a.lastSeen {
		return
	}
	a.state = state
	a.lastSeen = revision
	a.conn = ConnConnected
}

// AwaitSeatAck registers interest in a seat-action requestId and blocks
// until the host answers or the ack timeout (5s unless SetTimeouts changed
// it) lapses, yielding a synthetic timeout_or_rejected failure.
func (a *Applier) AwaitSeatAck(ctx context.Context, requestID string) (models.SeatActionAck, error) {
	ch := make(chan models.SeatActionAck, 1)
	a.mu.Lock()
	a.seatAcks[requestID] = ch
	timeout := a.ackTimeout
	a.mu.Unlock()

	select {
	case ack := <-ch:
		return ack, nil
	case <-time.After(timeout):
	case <-ctx.Done():
	}

	a.mu.Lock()
	delete(a.seatAcks, requestID)
	a.mu.Unlock()
	return models.SeatActionAck{
		RequestID: requestID,
		ToUID:     a.myUID,
		Reason:    models.ReasonTimeoutOrRejected,
	}, ErrAckTimeout
}

// RequestSnapshot asks the host for a resync and blocks for the response.
// Timeout marks the connection disconnected; the player may retry.
func (a *Applier) RequestSnapshot(ctx context.Context, send Send) (*models.PublicState, error) {
	requestID := uuid.NewString()
	ch := make(chan *models.PublicState, 1)

	a.mu.Lock()
	a.snapshots[requestID] = ch
	timeout := a.snapshotTimeout
	last := a.lastSeen
	a.mu.Unlock()

	send(models.ClientMessage{
		Type:         models.ClientSnapshotRequest,
		UID:          a.myUID,
		RequestID:    requestID,
		LastRevision: &last,
	})

	select {
	case state := <-ch:
		return state, nil
	case <-time.After(timeout):
	case <-ctx.Done():
	}

	a.mu.Lock()
	delete(a.snapshots, requestID)
	a.conn = ConnDisconnected
	a.mu.Unlock()
	return nil, ErrSnapshotTimeout
}

// AwaitReveal polls the inbox for a reveal of the given kind at or above
// minRevision. A zero timeout uses the 3s default; nil on expiry, and the
// caller surfaces a fallback.
func (a *Applier) AwaitReveal(ctx context.Context, kind models.PrivateKind, minRevision uint64, timeout time.Duration) *models.PrivatePayload {
	if timeout <= 0 {
		timeout = DefaultRevealTimeout
	}
	deadline := time.Now().Add(timeout)
	for {
		if payload, rev, ok := a.inbox.Latest(kind); ok && rev >= minRevision {
			return &payload
		}
		if time.Now().After(deadline) {
			return nil
		}
		select {
		case <-time.After(RevealPollInterval):
		case <-ctx.Done():
			return nil
		}
	}
}
