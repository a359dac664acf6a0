// Package playback coordinates the single active audio track and the
// page-local sentence playback of the reader.
package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Track is what the persistent player plays: a whole novel.
type Track struct {
	ID       string
	Title    string
	Duration time.Duration // zero when unknown
	AudioURL string        // optional; playback is simulated without it
}

// State is a snapshot of the persistent player.
type State struct {
	Visible     bool
	Track       *Track
	Playing     bool
	Progress    float64 // percent, always within [0,100]
	CurrentTime string
	TotalTime   string
	Duration    time.Duration
}

func emptyState() State {
	return State{CurrentTime: FormatClock(0), TotalTime: FormatClock(0)}
}

// Coordinator holds the one playback state shared by the reader and the
// player bar. All methods are safe for concurrent use.
type Coordinator struct {
	mu    sync.Mutex
	state State
	audio Audio
	gen   uint64 // bumped on every track change; stale audio callbacks compare against it
	ended bool   // the attached audio ran to its end and must be played again to resume

	sentences *SentencePlayer

	opts   options
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCoordinator creates a hidden, empty coordinator.
func NewCoordinator(opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		state:  emptyState(),
		opts:   buildOptions(options{}, opts),
		ctx:    ctx,
		cancel: cancel,
	}
}

// State returns a snapshot of the player state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ShowPlayer makes track the current track and starts playing it from the
// beginning. Any previous track and its audio are released first.
func (c *Coordinator) ShowPlayer(track Track) {
	c.mu.Lock()
	c.releaseAudioLocked()
	c.gen++
	gen := c.gen
	c.ended = false

	t := track
	duration := t.Duration
	if duration <= 0 {
		duration = DefaultTrackDuration
	}
	c.state = State{
		Visible:     true,
		Track:       &t,
		Playing:     true,
		Progress:    0,
		CurrentTime: FormatClock(0),
		TotalTime:   FormatClock(duration),
		Duration:    duration,
	}
	sentences := c.sentences
	load := c.opts.opener != nil && t.AudioURL != ""
	c.mu.Unlock()

	c.opts.log().Debug("player shown", "track", t.ID, "title", t.Title, "duration", duration)

	if sentences != nil {
		sentences.Stop()
	}
	if load {
		go c.loadAudio(gen, t.AudioURL)
	}
	c.opts.notify()
}

// loadAudio opens the track audio and attaches it if the track is still current.
func (c *Coordinator) loadAudio(gen uint64, url string) {
	a, err := c.opts.opener.Open(c.ctx, url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		if a != nil {
			a.Close()
		}
		return
	}
	if err != nil {
		c.opts.log().Warn("track audio unavailable, simulating playback", "url", url, "error", err)
		return
	}

	c.audio = a
	if d := a.Duration(); d > 0 {
		c.state.Duration = d
		c.state.TotalTime = FormatClock(d)
	}
	if c.state.Progress > 0 {
		a.Seek(c.offsetLocked())
	}
	if err := a.Play(func() { c.trackEnded(gen) }); err != nil {
		c.opts.log().Warn("track audio failed to play", "url", url, "error", err)
		a.Close()
		c.audio = nil
		return
	}
	if !c.state.Playing {
		a.Pause()
	}
	go c.opts.notify()
}

func (c *Coordinator) trackEnded(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state.Track == nil {
		c.mu.Unlock()
		return
	}
	c.ended = true
	c.state.Playing = false
	c.setProgressLocked(100)
	c.mu.Unlock()
	c.opts.notify()
}

// HidePlayer clears the player. Idempotent.
func (c *Coordinator) HidePlayer() {
	c.mu.Lock()
	c.releaseAudioLocked()
	c.gen++
	c.ended = false
	c.state = emptyState()
	c.mu.Unlock()
	c.opts.notify()
}

// TogglePlayPause flips between playing and paused. No-op without a track.
func (c *Coordinator) TogglePlayPause() {
	c.mu.Lock()
	if c.state.Track == nil {
		c.mu.Unlock()
		return
	}
	c.state.Playing = !c.state.Playing
	playing := c.state.Playing
	if playing && c.state.Progress >= 100 {
		c.setProgressLocked(0)
		if c.audio != nil {
			if err := c.audio.Seek(0); err != nil {
				c.opts.log().Warn("rewind failed", "error", err)
			}
		}
	}
	if c.audio != nil {
		if playing {
			c.resumeLocked()
		} else {
			c.audio.Pause()
		}
	}
	sentences := c.sentences
	c.mu.Unlock()

	if playing && sentences != nil {
		sentences.Stop()
	}
	c.opts.notify()
}

// SetProgress moves the track to percent, clamped to [0,100]. No-op without a track.
func (c *Coordinator) SetProgress(percent float64) {
	c.mu.Lock()
	if c.state.Track == nil {
		c.mu.Unlock()
		return
	}
	c.setProgressLocked(percent)
	if c.audio != nil {
		if err := c.audio.Seek(c.offsetLocked()); err != nil {
			c.opts.log().Warn("seek failed", "error", err)
		}
	}
	c.mu.Unlock()
	c.opts.notify()
}

// Seek moves the track by delta percentage points.
func (c *Coordinator) Seek(delta float64) {
	c.SetProgress(c.State().Progress + delta)
}

// Tick advances progress while playing: from the audio position when real
// audio is attached, by elapsed otherwise. Reaching the end stops playback.
func (c *Coordinator) Tick(elapsed time.Duration) {
	c.mu.Lock()
	if c.state.Track == nil || !c.state.Playing {
		c.mu.Unlock()
		return
	}
	var pos time.Duration
	if c.audio != nil {
		pos = c.audio.Position()
	} else {
		pos = c.offsetLocked() + elapsed
	}
	c.setProgressLocked(float64(pos) / float64(c.state.Duration) * 100)
	if c.state.Progress >= 100 {
		c.state.Playing = false
		if c.audio != nil {
			c.audio.Pause()
		}
	}
	c.mu.Unlock()
	c.opts.notify()
}

// yield pauses the track so a sentence can play.
func (c *Coordinator) yield() {
	c.mu.Lock()
	if c.state.Track == nil || !c.state.Playing {
		c.mu.Unlock()
		return
	}
	c.state.Playing = false
	if c.audio != nil {
		c.audio.Pause()
	}
	c.mu.Unlock()
	c.opts.notify()
}

// Close releases all audio and stops sentence playback.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.releaseAudioLocked()
	c.gen++
	sentences := c.sentences
	c.sentences = nil
	c.mu.Unlock()

	c.cancel()
	if sentences != nil {
		sentences.Close()
	}
}

// resumeLocked continues the attached audio. A stream that already ended
// is played again from its current position.
func (c *Coordinator) resumeLocked() {
	if !c.ended {
		c.audio.Resume()
		return
	}
	gen := c.gen
	if err := c.audio.Play(func() { c.trackEnded(gen) }); err != nil {
		c.opts.log().Warn("track audio failed to play", "error", err)
		c.state.Playing = false
		return
	}
	c.ended = false
}

// setProgressLocked stores percent clamped to [0,100]. NaN keeps the
// current progress.
func (c *Coordinator) setProgressLocked(percent float64) {
	if math.IsNaN(percent) {
		percent = c.state.Progress
	}
	c.state.Progress = lo.Clamp(percent, 0, 100)
	c.state.CurrentTime = FormatClock(c.offsetLocked())
}

func (c *Coordinator) offsetLocked() time.Duration {
	return time.Duration(c.state.Progress / 100 * float64(c.state.Duration))
}

func (c *Coordinator) releaseAudioLocked() {
	if c.audio == nil {
		return
	}
	if err := c.audio.Close(); err != nil {
		c.opts.log().Debug("closing track audio", "error", err)
	}
	c.audio = nil
}
