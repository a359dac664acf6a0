package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrAudioUnavailable is returned by openers in builds without sound output.
var ErrAudioUnavailable = errors.New("audio playback not available in this build")

// Audio is a single playable resource. Only one Audio produces sound at a time;
// whoever holds it must Close it before acquiring the next.
type Audio interface {
	// Play starts playback. onEnded is called once, from another goroutine,
	// when the stream reaches its natural end.
	Play(onEnded func()) error
	Pause()
	Resume()
	Seek(d time.Duration) error
	Position() time.Duration
	Duration() time.Duration
	Close() error
}

// Opener loads an Audio from a URL or local path.
type Opener interface {
	Open(ctx context.Context, url string) (Audio, error)
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler schedules callbacks. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

const (
	// DefaultSentenceDuration is how long a sentence counts as playing when
	// no audio end signal is available.
	DefaultSentenceDuration = 2 * time.Second

	// DefaultTrackDuration is assumed for tracks whose length is unknown.
	DefaultTrackDuration = 15*time.Minute + 30*time.Second
)

type options struct {
	opener   Opener
	sched    Scheduler
	fallback time.Duration
	logger   *slog.Logger
	onChange func()
}

// Option configures a Coordinator or SentencePlayer.
type Option func(*options)

// WithOpener enables real audio. Without it playback is simulated.
func WithOpener(o Opener) Option {
	return func(opts *options) { opts.opener = o }
}

// WithScheduler replaces the timer source, mainly for tests.
func WithScheduler(s Scheduler) Option {
	return func(opts *options) { opts.sched = s }
}

// WithFallbackDuration sets how long a sentence without an end signal plays.
func WithFallbackDuration(d time.Duration) Option {
	return func(opts *options) {
		if d > 0 {
			opts.fallback = d
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(opts *options) { opts.logger = l }
}

// WithOnChange registers a callback invoked after every state change. It may
// run on any goroutine and must not block.
func WithOnChange(f func()) Option {
	return func(opts *options) { opts.onChange = f }
}

func buildOptions(base options, opts []Option) options {
	for _, o := range opts {
		o(&base)
	}
	if base.sched == nil {
		base.sched = realScheduler{}
	}
	if base.fallback <= 0 {
		base.fallback = DefaultSentenceDuration
	}
	return base
}

// log returns the configured logger, or the current slog default.
func (o options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}

func (o options) notify() {
	if o.onChange != nil {
		o.onChange()
	}
}

// FormatClock renders d as minutes:seconds with zero-padded seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
