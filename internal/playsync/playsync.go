// Package playsync implements the drift-correcting playback protocol
// shared by both ends of a room: the host answers periodic sync polls
// from its authoritative clock, the follower corrects its replica only
// when drift exceeds a threshold so playback does not judder from
// constant micro-correction.
package playsync

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	// DefaultSyncInterval is how often the follower polls the host
	// while media is active.
	DefaultSyncInterval = 5 * time.Second

	// DefaultDriftThreshold is the drift in seconds above which the
	// follower snaps its clock to the host's.
	DefaultDriftThreshold = 1.0

	// DefaultCountdownSeconds is the synchronized delayed-start
	// duration.
	DefaultCountdownSeconds = 3
)

// State is one side's view of the playback timeline.
type State struct {
	VideoUrl    string
	CurrentTime float64
	IsPlaying   bool
}

// Host owns the authoritative timeline.
type Host struct {
	mu    sync.Mutex
	state State
}

func NewHost() *Host {
	return &Host{}
}

func (h *Host) Play(currentTime float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.CurrentTime = currentTime
	h.state.IsPlaying = true
}

func (h *Host) Pause(currentTime float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.CurrentTime = currentTime
	h.state.IsPlaying = false
}

func (h *Host) Seek(currentTime float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state.CurrentTime = currentTime
}

func (h *Host) LoadVideo(videoUrl string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = State{VideoUrl: videoUrl}
}

// Snapshot answers a follower's sync request.
func (h *Host) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Follower keeps a best-effort replica of the host's timeline.
type Follower struct {
	mu             sync.Mutex
	state          State
	driftThreshold float64
}

// NewFollower returns a follower with the given drift threshold in
// seconds; a non-positive threshold falls back to the default.
func NewFollower(driftThreshold float64) *Follower {
	if driftThreshold <= 0 {
		driftThreshold = DefaultDriftThreshold
	}

	return &Follower{driftThreshold: driftThreshold}
}

// ApplySync applies the host's sync response. The clock snaps only when
// drift exceeds the threshold; play/pause state is always forced to
// match. Reports whether the clock was snapped.
func (f *Follower) ApplySync(currentTime float64, isPlaying bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapped := false
	if math.Abs(f.state.CurrentTime-currentTime) > f.driftThreshold {
		f.state.CurrentTime = currentTime
		snapped = true
	}
	f.state.IsPlaying = isPlaying

	return snapped
}

// ApplyPlay matches a host play assertion: clock set, playback on.
func (f *Follower) ApplyPlay(currentTime float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state.CurrentTime = currentTime
	f.state.IsPlaying = true
}

func (f *Follower) ApplyPause(currentTime float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state.CurrentTime = currentTime
	f.state.IsPlaying = false
}

func (f *Follower) ApplySeek(currentTime float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state.CurrentTime = currentTime
}

// LoadVideo resets the replica for a new media locator. Assertions for
// the previous locator are meaningless afterwards.
func (f *Follower) LoadVideo(videoUrl string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = State{VideoUrl: videoUrl}
}

// Advance moves the local clock forward while playing, simulating the
// media element's own progression between corrections.
func (f *Follower) Advance(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.IsPlaying {
		f.state.CurrentTime += seconds
	}
}

func (f *Follower) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// RunSyncLoop calls request on every interval tick until the context is
// cancelled. The follower owns the poll so it can back off when drift
// stays near zero.
func (f *Follower) RunSyncLoop(ctx context.Context, interval time.Duration, request func()) error {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			request()
		}
	}
}

// Countdown ticks from seconds down to 1 on the given interval and
// returns nil when it reaches zero, at which point the caller starts
// playback at elapsed time 0. Start simultaneity is best effort: both
// sides' countdowns begin on messages that may arrive with different
// latency.
func Countdown(ctx context.Context, seconds int, interval time.Duration, tick func(remaining int)) error {
	if seconds <= 0 {
		seconds = DefaultCountdownSeconds
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for remaining := seconds; remaining > 0; remaining-- {
		if tick != nil {
			tick(remaining)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}
