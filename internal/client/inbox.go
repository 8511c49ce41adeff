package client

import (
	"sync"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/models"
)

type inboxKey struct {
	Revision uint64
	Kind     models.PrivateKind
}

// Inbox is the player-side store of private envelopes. It filters strictly
// by recipient before any use, keys payloads by (revision, kind) and tracks
// the highest-seen revision per kind so the UI reads the freshest value even
// after unrelated public updates bump the revision.
type Inbox struct {
	mu      sync.Mutex
	myUID   string
	byKey   map[inboxKey]models.PrivatePayload
	highest map[models.PrivateKind]uint64
}

// NewInbox builds an empty inbox for one UID.
func NewInbox(myUID string) *Inbox {
	return &Inbox{
		myUID:   myUID,
		byKey:   make(map[inboxKey]models.PrivatePayload),
		highest: make(map[models.PrivateKind]uint64),
	}
}

// Receive stores an envelope addressed to this UID. Envelopes for anyone
// else are dropped before semantic use; the return value reports acceptance.
func (i *Inbox) Receive(env models.PrivateEffect) bool {
	if env.ToUID != i.myUID {
		return false
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	i.byKey[inboxKey{Revision: env.Revision, Kind: env.Payload.Kind}] = env.Payload
	if env.Revision > i.highest[env.Payload.Kind] {
		i.highest[env.Payload.Kind] = env.Revision
	}
	return true
}

// Latest returns the freshest payload of a kind with its revision.
func (i *Inbox) Latest(kind models.PrivateKind) (models.PrivatePayload, uint64, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	rev, ok := i.highest[kind]
	if !ok {
		return models.PrivatePayload{}, 0, false
	}
	payload, ok := i.byKey[inboxKey{Revision: rev, Kind: kind}]
	return payload, rev, ok
}

// At returns the payload stored for an exact (revision, kind) key.
func (i *Inbox) At(kind models.PrivateKind, revision uint64) (models.PrivatePayload, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	payload, ok := i.byKey[inboxKey{Revision: revision, Kind: kind}]
	return payload, ok
}

// Purge wipes the inbox; called on game restart.
func (i *Inbox) Purge() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.byKey = make(map[inboxKey]models.PrivatePayload)
	i.highest = make(map[models.PrivateKind]uint64)
}
