package playback

import (
	"context"
	"sync"
)

// Cue is one playable sentence on the current page.
type Cue struct {
	ID       string // backend sentence id; empty for local text
	Text     string
	AudioURL string
}

// Key identifies the cue. Local sentences without an id are keyed by text.
func (c Cue) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Text
}

// SentencePlayer is the page-local Idle / Playing(key) state machine.
// Playing ends when the sentence audio reports its end, or after the fallback
// duration when there is no audio. At most one sentence plays at a time.
type SentencePlayer struct {
	mu     sync.Mutex
	active string
	gen    uint64 // every start and stop bumps it; timer and audio callbacks carry the value they were created with
	timer  Timer
	audio  Audio
	closed bool

	coord  *Coordinator
	opts   options
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSentencePlayer creates an idle sentence player. It inherits the
// coordinator's opener and logger unless opts override them, and replaces any
// sentence player previously attached to c.
func (c *Coordinator) NewSentencePlayer(opts ...Option) *SentencePlayer {
	c.mu.Lock()
	base := options{opener: c.opts.opener, logger: c.opts.logger, sched: c.opts.sched}
	s := newSentencePlayer(c.ctx, buildOptions(base, opts))
	s.coord = c
	prev := c.sentences
	c.sentences = s
	c.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return s
}

// NewSentencePlayer creates a standalone sentence player.
func NewSentencePlayer(opts ...Option) *SentencePlayer {
	return newSentencePlayer(context.Background(), buildOptions(options{}, opts))
}

func newSentencePlayer(parent context.Context, opts options) *SentencePlayer {
	ctx, cancel := context.WithCancel(parent)
	return &SentencePlayer{opts: opts, ctx: ctx, cancel: cancel}
}

// Active returns the key of the playing sentence.
func (s *SentencePlayer) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.active != ""
}

// IsPlaying reports whether the cue with key is playing.
func (s *SentencePlayer) IsPlaying(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return key != "" && s.active == key
}

// Click toggles cue: clicking the playing sentence stops it, clicking any
// other sentence stops the current one and plays cue instead.
func (s *SentencePlayer) Click(cue Cue) {
	key := cue.Key()
	if key == "" {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.active == key {
		s.stopLocked()
		s.mu.Unlock()
		s.opts.notify()
		return
	}

	s.stopLocked()
	s.gen++
	gen := s.gen
	s.active = key
	if s.opts.opener != nil && cue.AudioURL != "" {
		go s.loadAudio(gen, cue)
	} else {
		s.scheduleLocked(gen)
	}
	s.mu.Unlock()

	s.opts.log().Debug("sentence playing", "key", key, "audio", cue.AudioURL != "")
	if s.coord != nil {
		s.coord.yield()
	}
	s.opts.notify()
}

// Stop returns to Idle.
func (s *SentencePlayer) Stop() {
	s.mu.Lock()
	wasPlaying := s.active != ""
	s.stopLocked()
	s.mu.Unlock()
	if wasPlaying {
		s.opts.notify()
	}
}

// Close stops playback and ignores further clicks.
func (s *SentencePlayer) Close() {
	s.mu.Lock()
	s.stopLocked()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

func (s *SentencePlayer) loadAudio(gen uint64, cue Cue) {
	a, err := s.opts.opener.Open(s.ctx, cue.AudioURL)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		if a != nil {
			a.Close()
		}
		return
	}
	if err != nil {
		s.opts.log().Warn("sentence audio unavailable", "key", cue.Key(), "error", err)
		s.scheduleLocked(gen)
		s.mu.Unlock()
		return
	}
	if err := a.Play(func() { s.finish(gen) }); err != nil {
		s.opts.log().Warn("sentence audio failed to play", "key", cue.Key(), "error", err)
		a.Close()
		s.scheduleLocked(gen)
		s.mu.Unlock()
		return
	}
	s.audio = a
	s.mu.Unlock()
}

func (s *SentencePlayer) scheduleLocked(gen uint64) {
	s.timer = s.opts.sched.AfterFunc(s.opts.fallback, func() { s.finish(gen) })
}

// finish ends playback started under gen. Callbacks from superseded
// sentences are dropped.
func (s *SentencePlayer) finish(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	s.mu.Unlock()
	s.opts.notify()
}

func (s *SentencePlayer) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.audio != nil {
		if err := s.audio.Close(); err != nil {
			s.opts.log().Debug("closing sentence audio", "error", err)
		}
		s.audio = nil
	}
	s.active = ""
	s.gen++
}
