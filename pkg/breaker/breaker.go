package breaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by callers that consult the breaker before sending.
var ErrOpen = errors.New("push provider unavailable")

// Breaker gates sends against an unhealthy upstream provider. It has two
// states: closed (sends permitted) and open (sends short-circuited). It
// opens once the failure count reaches the threshold and resets itself
// after openFor has elapsed since the last failure.
type Breaker struct {
	mu          sync.Mutex
	threshold   int
	openFor     time.Duration
	failures    int
	lastFailure time.Time
	now         func() time.Time
}

// New returns a closed breaker. Zero or negative arguments fall back to
// a threshold of 5 failures and a 60 second open window.
func New(threshold int, openFor time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if openFor <= 0 {
		openFor = 60 * time.Second
	}
	return &Breaker{
		threshold: threshold,
		openFor:   openFor,
		now:       time.Now,
	}
}

// IsOpen reports whether sends should be short-circuited. Once the open
// window has elapsed the breaker resets to closed and starts counting
// from zero again.
func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failures < b.threshold {
		return false
	}
	if b.now().Sub(b.lastFailure) > b.openFor {
		b.failures = 0
		b.lastFailure = time.Time{}
		return false
	}
	return true
}

// RecordSuccess resets the failure count unconditionally.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	b.failures = 0
	b.lastFailure = time.Time{}
	b.mu.Unlock()
}

// RecordFailure counts one provider-health failure. Callers must not
// record invalid-token rejections here; a bad token says nothing about
// the provider.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	b.failures++
	b.lastFailure = b.now()
	b.mu.Unlock()
}

// Failures returns the current failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
