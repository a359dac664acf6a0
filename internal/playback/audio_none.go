//go:build !((linux && cgo) || windows || darwin)

package playback

import "context"

// AudioAvailable reports whether this build can produce sound. Sound output
// needs cgo on Linux.
const AudioAvailable = false

type noOpener struct{}

// NewOpener returns an Opener that always fails with ErrAudioUnavailable, so
// playback falls back to simulated progress and timed sentences.
func NewOpener() Opener {
	return noOpener{}
}

func (noOpener) Open(ctx context.Context, url string) (Audio, error) {
	return nil, ErrAudioUnavailable
}
