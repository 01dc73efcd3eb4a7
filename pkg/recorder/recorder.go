// Package recorder captures key presses into a new sequence.
package recorder

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/keyseq/pkg/domain"
)

// Recorder accumulates tokens between Start and Stop.
// It is safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	recording bool
	keys      domain.Sequence
	recorded  domain.Sequence
	reserved  []domain.Sequence
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithReserved replaces the sequences whose first key a recording may not
// start with. Call it with no arguments to allow any first key.
func WithReserved(seqs ...domain.Sequence) Option {
	return func(r *Recorder) {
		r.reserved = r.reserved[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				r.reserved = append(r.reserved, s.Clone())
			}
		}
	}
}

// New creates an idle Recorder that reserves the Konami code.
func New(opts ...Option) *Recorder {
	r := &Recorder{reserved: []domain.Sequence{domain.KonamiCode.Clone()}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start discards any keys in progress and begins recording.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = true
	r.keys = nil
}

// Stop ends the recording and returns the captured sequence.
// A recording that starts with a reserved first key is discarded along with
// the last accepted sequence and reported as ErrReservedPrefix.
func (r *Recorder) Stop() (domain.Sequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return r.recorded.Clone(), nil
	}
	r.recording = false

	keys := r.keys
	r.keys = nil
	if len(keys) == 0 {
		return nil, domain.ErrEmptySequence
	}
	for _, seq := range r.reserved {
		if strings.EqualFold(keys[0], seq[0]) {
			r.recorded = nil
			return nil, fmt.Errorf("%q: %w", keys[0], domain.ErrReservedPrefix)
		}
	}
	r.recorded = keys
	return keys.Clone(), nil
}

// Toggle starts an idle Recorder or stops a running one. The results are
// those of Stop, or nil values when recording just started.
func (r *Recorder) Toggle() (domain.Sequence, error) {
	r.mu.Lock()
	recording := r.recording
	r.mu.Unlock()
	if recording {
		return r.Stop()
	}
	r.Start()
	return nil, nil
}

// Clear drops both the keys in progress and the last recorded sequence.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = nil
	r.recorded = nil
}

// Record appends the token when recording. The physical code wins over the
// produced symbol. It reports whether the token was kept.
func (r *Recorder) Record(tok domain.Token) bool {
	sym := tok.Alt
	if sym == "" {
		sym = tok.Symbol
	}
	if strings.TrimSpace(sym) == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return false
	}
	r.keys = append(r.keys, sym)
	return true
}

// Recording reports whether keys are being captured.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Keys returns the keys captured so far in the current recording.
func (r *Recorder) Keys() domain.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys.Clone()
}

// Recorded returns the last accepted sequence, or nil.
func (r *Recorder) Recorded() domain.Sequence {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded.Clone()
}
