package game

import "context"

// AudioPlayer is the opaque audio subsystem (§ narration clips between
// steps). Each call returns when playback completes; implementations carry an
// internal safety timeout so a wedged clip never blocks the night, and
// callers treat timeout and completion identically. At most one clip plays
// at a time; starting a new clip first stops the current one.
type AudioPlayer interface {
	PlayNightBeginAudio(ctx context.Context) error
	PlayRoleBeginningAudio(ctx context.Context, role RoleID) error
	PlayRoleEndingAudio(ctx context.Context, role RoleID) error
	PlayNightEndAudio(ctx context.Context) error
	Stop()
}

// NopPlayer completes every clip immediately. Used in tests and headless
// hosts.
type NopPlayer struct{}

func (NopPlayer) PlayNightBeginAudio(context.Context) error            { return nil }
func (NopPlayer) PlayRoleBeginningAudio(context.Context, RoleID) error { return nil }
func (NopPlayer) PlayRoleEndingAudio(context.Context, RoleID) error    { return nil }
func (NopPlayer) PlayNightEndAudio(context.Context) error              { return nil }
func (NopPlayer) Stop()                                                {}
