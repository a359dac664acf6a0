//go:build (linux && cgo) || windows || darwin

package playback

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable reports whether this build can produce sound.
const AudioAvailable = true

const speakerRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(speakerRate, speakerRate.N(time.Second/10))
	})
	return speakerErr
}

type mp3Opener struct{}

// NewOpener returns an Opener that decodes MP3 and plays it on the default
// output device.
func NewOpener() Opener {
	return mp3Opener{}
}

func (mp3Opener) Open(ctx context.Context, url string) (Audio, error) {
	data, err := fetchAudio(ctx, url)
	if err != nil {
		return nil, err
	}
	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return nil, err
	}
	if err := initSpeaker(); err != nil {
		streamer.Close()
		return nil, err
	}
	a := &mp3Audio{streamer: streamer, format: format}
	a.ctrl = &beep.Ctrl{Streamer: a.resampled(), Paused: true}
	return a, nil
}

type mp3Audio struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	closed   atomic.Bool
	queued   atomic.Bool // the sequence is in the speaker mixer
	started  bool        // guarded by the speaker lock
}

// Play starts the stream. Once it has ended it can be played again, after a
// Seek, with a new end callback.
func (a *mp3Audio) Play(onEnded func()) error {
	if a.closed.Load() {
		return errors.New("audio closed")
	}
	speaker.Lock()
	a.ctrl.Paused = false
	replay := !a.queued.Swap(true)
	if replay && a.started {
		// The resampler stays drained once its source ended.
		a.ctrl.Streamer = a.resampled()
	}
	a.started = true
	speaker.Unlock()
	if !replay {
		return nil
	}

	speaker.Play(beep.Seq(a.ctrl, beep.Callback(func() {
		a.queued.Store(false)
		// Closing empties the Ctrl, which also ends the sequence.
		if a.closed.Load() || onEnded == nil {
			return
		}
		// The speaker lock is held here.
		go onEnded()
	})))
	return nil
}

func (a *mp3Audio) resampled() beep.Streamer {
	return beep.Resample(4, a.format.SampleRate, speakerRate, a.streamer)
}

func (a *mp3Audio) Pause() {
	speaker.Lock()
	a.ctrl.Paused = true
	speaker.Unlock()
}

func (a *mp3Audio) Resume() {
	speaker.Lock()
	a.ctrl.Paused = false
	speaker.Unlock()
}

func (a *mp3Audio) Seek(d time.Duration) error {
	speaker.Lock()
	defer speaker.Unlock()
	n := a.format.SampleRate.N(d)
	if last := a.streamer.Len() - 1; n > last {
		n = last
	}
	if n < 0 {
		n = 0
	}
	return a.streamer.Seek(n)
}

func (a *mp3Audio) Position() time.Duration {
	speaker.Lock()
	pos := a.streamer.Position()
	speaker.Unlock()
	return a.format.SampleRate.D(pos)
}

func (a *mp3Audio) Duration() time.Duration {
	return a.format.SampleRate.D(a.streamer.Len())
}

func (a *mp3Audio) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	speaker.Lock()
	a.ctrl.Paused = true
	a.ctrl.Streamer = nil
	speaker.Unlock()
	return a.streamer.Close()
}

// nopCloser lets mp3.Decode seek in an in-memory file.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
