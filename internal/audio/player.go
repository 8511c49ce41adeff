package audio

import (
	"context"
	"sync"
	"time"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/game"
)

// StaticPlayer satisfies the coordinator's audio interface with fixed-length
// narration clips. Playback is exclusive: starting a clip stops the current
// one. Every clip is capped by a safety timeout so a wedged duration never
// blocks the night; callers treat timeout and completion identically.
type StaticPlayer struct {
	mu      sync.Mutex
	current context.CancelFunc

	clip    time.Duration
	timeout time.Duration
}

// NewStaticPlayer builds a player with one clip length for every narration.
// A timeout below 15s is raised to 15s.
func NewStaticPlayer(clip, timeout time.Duration) *StaticPlayer {
	if timeout < 15*time.Second {
		timeout = 15 * time.Second
	}
	return &StaticPlayer{clip: clip, timeout: timeout}
}

func (p *StaticPlayer) play(ctx context.Context) error {
	p.mu.Lock()
	if p.current != nil {
		p.current()
	}
	clipCtx, cancel := context.WithCancel(ctx)
	p.current = cancel
	p.mu.Unlock()

	dur := p.clip
	if dur > p.timeout {
		dur = p.timeout
	}
	select {
	case <-time.After(dur):
	case <-clipCtx.Done():
	}

	p.mu.Lock()
	// An uncanceled clip is still the current one; a replaced or stopped
	// clip must not release its successor.
	if clipCtx.Err() == nil {
		p.current = nil
	}
	p.mu.Unlock()
	cancel()
	return nil
}

func (p *StaticPlayer) PlayNightBeginAudio(ctx context.Context) error {
	return p.play(ctx)
}

func (p *StaticPlayer) PlayRoleBeginningAudio(ctx context.Context, _ game.RoleID) error {
	return p.play(ctx)
}

func (p *StaticPlayer) PlayRoleEndingAudio(ctx context.Context, _ game.RoleID) error {
	return p.play(ctx)
}

func (p *StaticPlayer) PlayNightEndAudio(ctx context.Context) error {
	return p.play(ctx)
}

// Stop releases the current clip, if any.
func (p *StaticPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current()
		p.current = nil
	}
}
