package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicMessage_RoundTrip(t *testing.T) {
	role := "seer"
	blocked := 4
	msg := PublicMessage{
		Type:     PublicStateUpdate,
		Revision: 17,
		State: &PublicState{
			RoomCode:      "123456",
			HostUID:       "host",
			Status:        StatusOngoing,
			TemplateRoles: []string{"seer", "wolf", "villager"},
			Players: map[int]*PublicSlot{
				0: {UID: "u0", SeatNumber: 0, Role: &role, HasViewedRole: true},
				1: nil,
			},
			CurrentStepIndex:     2,
			IsAudioPlaying:       true,
			WolfVoteStatus:       map[int]bool{1: true},
			NightmareBlockedSeat: &blocked,
			CurrentNightResults:  NightProgress{WolfVotesBySeat: map[int]int{1: -1}},
		},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded PublicMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg, decoded)

	// A second trip is bit-stable modulo map ordering.
	again, err := json.Marshal(decoded)
	require.NoError(t, err)
	var twice PublicMessage
	require.NoError(t, json.Unmarshal(again, &twice))
	assert.Equal(t, decoded, twice)
}

func TestPrivateEffect_RoundTrip(t *testing.T) {
	killed := 3
	env := PrivateEffect{
		ToUID:    "u1",
		Revision: 9,
		Payload: PrivatePayload{
			Kind:         PrivateWitchContext,
			WitchContext: &WitchContext{KilledSeat: &killed, CanSave: true, CanPoison: true, Phase: "act"},
		},
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)
	var decoded PrivateEffect
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, env, decoded)
}

func TestClientMessage_RoundTrip(t *testing.T) {
	target := 302
	save := 2
	msg := ClientMessage{
		Type:   ClientAction,
		UID:    "u0",
		Seat:   0,
		Role:   "magician",
		Target: &target,
		Extra:  &ActionExtra{WitchSave: &save},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	var decoded ClientMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg, decoded)
}

func TestStatusOrdinal_Monotone(t *testing.T) {
	order := []GameStatus{StatusUnseated, StatusSeated, StatusAssigned, StatusReady, StatusOngoing, StatusEnded}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, order[i].Ordinal(), order[i-1].Ordinal())
	}
	assert.Equal(t, -1, GameStatus("bogus").Ordinal())
}

func TestActionExtra_IsEmpty(t *testing.T) {
	var nilExtra *ActionExtra
	assert.True(t, nilExtra.IsEmpty())
	assert.True(t, (&ActionExtra{}).IsEmpty())

	n := 1
	assert.False(t, (&ActionExtra{WitchPoison: &n}).IsEmpty())
}
