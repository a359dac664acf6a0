package playback

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fire runs the callback even if the timer was stopped, the way a timer that
// already expired would race with Stop.
func (t *fakeTimer) fire() { t.f() }

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *fakeScheduler) timer(t *testing.T, i int) *fakeTimer {
	t.Helper()
	waitFor(t, func() bool { return s.count() > i })
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[i]
}

type fakeAudio struct {
	url    string
	dur    time.Duration
	played chan struct{}

	mu      sync.Mutex
	plays   int
	onEnded func()
	paused  bool
	closed  bool
	pos     time.Duration
	seeks   []time.Duration
}

func (a *fakeAudio) Play(onEnded func()) error {
	a.mu.Lock()
	a.onEnded = onEnded
	a.paused = false
	a.plays++
	first := a.plays == 1
	a.mu.Unlock()
	if first {
		close(a.played)
	}
	return nil
}

func (a *fakeAudio) playCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plays
}

func (a *fakeAudio) lastSeek() (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.seeks) == 0 {
		return 0, false
	}
	return a.seeks[len(a.seeks)-1], true
}

func (a *fakeAudio) Pause() {
	a.mu.Lock()
	a.paused = true
	a.mu.Unlock()
}

func (a *fakeAudio) Resume() {
	a.mu.Lock()
	a.paused = false
	a.mu.Unlock()
}

func (a *fakeAudio) Seek(d time.Duration) error {
	a.mu.Lock()
	a.seeks = append(a.seeks, d)
	a.pos = d
	a.mu.Unlock()
	return nil
}

func (a *fakeAudio) Position() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

func (a *fakeAudio) Duration() time.Duration { return a.dur }

func (a *fakeAudio) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return nil
}

func (a *fakeAudio) isPaused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

func (a *fakeAudio) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *fakeAudio) setPosition(d time.Duration) {
	a.mu.Lock()
	a.pos = d
	a.mu.Unlock()
}

// end simulates the stream reaching its natural end.
func (a *fakeAudio) end() {
	a.mu.Lock()
	f := a.onEnded
	a.mu.Unlock()
	if f != nil {
		f()
	}
}

func (a *fakeAudio) waitPlayed(t *testing.T) {
	t.Helper()
	select {
	case <-a.played:
	case <-time.After(2 * time.Second):
		t.Fatalf("audio %s never started playing", a.url)
	}
}

type fakeOpener struct {
	mu     sync.Mutex
	err    error
	dur    time.Duration
	opened []*fakeAudio
	tried  int
}

func (o *fakeOpener) Open(ctx context.Context, url string) (Audio, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tried++
	if o.err != nil {
		return nil, o.err
	}
	a := &fakeAudio{url: url, dur: o.dur, played: make(chan struct{})}
	o.opened = append(o.opened, a)
	return a, nil
}

func (o *fakeOpener) audio(t *testing.T, i int) *fakeAudio {
	t.Helper()
	waitFor(t, func() bool {
		o.mu.Lock()
		defer o.mu.Unlock()
		return len(o.opened) > i
	})
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opened[i]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}
